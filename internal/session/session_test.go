package session

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/loungebot/internal/domain"
)

type scriptedAuth struct {
	failures int
	calls    int
}

func (s *scriptedAuth) Authenticate(context.Context) (Session, error) {
	s.calls++
	if s.calls <= s.failures {
		return Session{}, errors.New("login page timed out")
	}
	return Session{Cookie: "abc123", Token: "tok456"}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestRefreshRetriesUntilSuccess(t *testing.T) {
	auth := &scriptedAuth{failures: 2}
	m := NewManager(auth, 3, 0, "", discardLogger())

	sess, err := m.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", sess.Cookie)
	assert.Equal(t, "tok456", sess.Token)
	assert.Equal(t, 3, auth.calls)
}

func TestRefreshExhaustsAttemptBudget(t *testing.T) {
	auth := &scriptedAuth{failures: 10}
	m := NewManager(auth, 3, 0, "", discardLogger())

	_, err := m.Refresh(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, 3, auth.calls, "must stop at the attempt budget")
}

func TestCurrentCachesSession(t *testing.T) {
	auth := &scriptedAuth{}
	m := NewManager(auth, 3, 0, "", discardLogger())

	ctx := context.Background()
	_, err := m.Current(ctx)
	require.NoError(t, err)
	_, err = m.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, auth.calls, "second Current must hit the cache")

	m.Invalidate()
	_, err = m.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, auth.calls)
}

func TestRefreshHonoursContextCancellation(t *testing.T) {
	auth := &scriptedAuth{failures: 10}
	m := NewManager(auth, 5, 50*time.Millisecond, "", discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := m.Refresh(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, auth.calls, 5)
}

func TestSessionPersistedAndRestored(t *testing.T) {
	saveFile := filepath.Join(t.TempDir(), "session.json")

	auth := &scriptedAuth{}
	m := NewManager(auth, 1, 0, saveFile, discardLogger())
	_, err := m.Refresh(context.Background())
	require.NoError(t, err)

	_, err = os.Stat(saveFile)
	require.NoError(t, err, "session file must exist after refresh")

	// A fresh manager restores the session without logging in.
	auth2 := &scriptedAuth{failures: 10}
	m2 := NewManager(auth2, 1, 0, saveFile, discardLogger())
	sess, err := m2.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", sess.Cookie)
	assert.Zero(t, auth2.calls)
}
