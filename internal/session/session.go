// Package session manages authenticated access to the pool site. Login runs
// through a headless browser because the site only authenticates via Steam
// OpenID; the resulting PHP session cookie and page token are what the wager
// client actually needs.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/alanyoungcy/loungebot/internal/domain"
)

// Session is an authenticated pool-site session.
type Session struct {
	Cookie string `json:"cookie"` // PHPSESSID value
	Token  string `json:"token"`  // page session token
}

// Authenticator performs one full login attempt.
type Authenticator interface {
	Authenticate(ctx context.Context) (Session, error)
}

// Manager caches a session and reauthenticates with a bounded retry budget.
// A login that keeps failing surfaces an error instead of looping forever.
type Manager struct {
	auth        Authenticator
	maxAttempts int
	backoff     time.Duration
	saveFile    string
	logger      *slog.Logger

	mu      sync.Mutex
	current *Session
}

// NewManager creates a Manager. maxAttempts bounds the login attempts per
// refresh; backoff is the delay between attempts, doubled each time. When
// saveFile is non-empty the session is persisted there and restored on
// startup.
func NewManager(auth Authenticator, maxAttempts int, backoff time.Duration, saveFile string, logger *slog.Logger) *Manager {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	m := &Manager{
		auth:        auth,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		saveFile:    saveFile,
		logger:      logger.With(slog.String("component", "session")),
	}
	m.restore()
	return m
}

// Current returns the cached session, logging in first if none exists.
func (m *Manager) Current(ctx context.Context) (Session, error) {
	m.mu.Lock()
	if m.current != nil {
		sess := *m.current
		m.mu.Unlock()
		return sess, nil
	}
	m.mu.Unlock()
	return m.Refresh(ctx)
}

// Refresh discards the cached session and logs in again, retrying up to the
// configured attempt budget with doubling backoff.
func (m *Manager) Refresh(ctx context.Context) (Session, error) {
	var lastErr error
	delay := m.backoff

	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		if attempt > 1 && delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return Session{}, fmt.Errorf("session: refresh: %w", ctx.Err())
			case <-timer.C:
			}
			delay *= 2
		}

		sess, err := m.auth.Authenticate(ctx)
		if err != nil {
			lastErr = err
			m.logger.Warn("login attempt failed",
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", m.maxAttempts),
				slog.String("error", err.Error()))
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return Session{}, fmt.Errorf("session: refresh: %w", err)
			}
			continue
		}

		m.mu.Lock()
		m.current = &sess
		m.mu.Unlock()
		m.persist(sess)
		m.logger.Info("session refreshed", slog.Int("attempts", attempt))
		return sess, nil
	}

	return Session{}, fmt.Errorf("session: refresh failed after %d attempts: %w: %v",
		m.maxAttempts, domain.ErrUnauthorized, lastErr)
}

// Invalidate drops the cached session so the next Current forces a login.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
}

func (m *Manager) restore() {
	if m.saveFile == "" {
		return
	}
	data, err := os.ReadFile(m.saveFile)
	if err != nil {
		return
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		m.logger.Warn("discarding unreadable session file",
			slog.String("path", m.saveFile),
			slog.String("error", err.Error()))
		return
	}
	m.current = &sess
}

func (m *Manager) persist(sess Session) {
	if m.saveFile == "" {
		return
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return
	}
	if err := os.WriteFile(m.saveFile, data, 0o600); err != nil {
		m.logger.Warn("failed to persist session",
			slog.String("path", m.saveFile),
			slog.String("error", err.Error()))
	}
}
