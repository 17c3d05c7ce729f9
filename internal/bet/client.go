// Package bet places and manages wagers on the pool site over an
// authenticated browser session.
package bet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/loungebot/internal/domain"
	"github.com/alanyoungcy/loungebot/internal/session"
)

// SessionSource supplies and refreshes the authenticated session. The
// session.Manager satisfies it.
type SessionSource interface {
	Current(ctx context.Context) (session.Session, error)
	Refresh(ctx context.Context) (session.Session, error)
	Invalidate()
}

// Client speaks the pool site's wager endpoints. Every call carries the PHP
// session cookie and the page token; an auth failure triggers exactly one
// reauthentication and retry.
type Client struct {
	siteURL    string
	httpClient *http.Client
	sessions   SessionSource
	logger     *slog.Logger
}

// New creates a wager client for the given pool site.
func New(siteURL string, sessions SessionSource, logger *slog.Logger) *Client {
	return &Client{
		siteURL: strings.TrimRight(siteURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		sessions: sessions,
		logger:   logger.With(slog.String("component", "bet")),
	}
}

// wagerResponse is the site's JSON envelope for wager calls.
type wagerResponse struct {
	Success bool    `json:"success"`
	Error   string  `json:"error"`
	Side    int     `json:"side"`
	Amount  float64 `json:"amount"`
	Time    int64   `json:"time"`
}

// Place opens a wager on a match. side follows the domain convention (0 or
// 1); the site counts sides from 1.
func (c *Client) Place(ctx context.Context, matchID int64, side int, amount float64) error {
	form := url.Values{}
	form.Set("match_id", strconv.FormatInt(matchID, 10))
	form.Set("side", strconv.Itoa(side+1))
	form.Set("amount", strconv.FormatFloat(amount, 'f', -1, 64))

	resp, err := c.doAuthed(ctx, http.MethodPost, "/ajax/placebet.php", form)
	if err != nil {
		return fmt.Errorf("bet: place on %d: %w", matchID, err)
	}
	if !resp.Success {
		return fmt.Errorf("bet: place on %d rejected: %s", matchID, resp.Error)
	}

	c.logger.Info("wager placed",
		slog.Int64("match_id", matchID),
		slog.Int("side", side),
		slog.Float64("amount", amount))
	return nil
}

// Cancel withdraws the wager on a match. The site refuses cancellation close
// to match start; that surfaces as a rejected response.
func (c *Client) Cancel(ctx context.Context, matchID int64) error {
	form := url.Values{}
	form.Set("match_id", strconv.FormatInt(matchID, 10))

	resp, err := c.doAuthed(ctx, http.MethodPost, "/ajax/cancelbet.php", form)
	if err != nil {
		return fmt.Errorf("bet: cancel on %d: %w", matchID, err)
	}
	if !resp.Success {
		return fmt.Errorf("bet: cancel on %d rejected: %s", matchID, resp.Error)
	}

	c.logger.Info("wager cancelled", slog.Int64("match_id", matchID))
	return nil
}

// Get returns the outstanding wager on a match, or ErrNotFound when none
// exists.
func (c *Client) Get(ctx context.Context, matchID int64) (domain.Position, error) {
	form := url.Values{}
	form.Set("match_id", strconv.FormatInt(matchID, 10))

	resp, err := c.doAuthed(ctx, http.MethodGet, "/ajax/getbet.php", form)
	if err != nil {
		return domain.Position{}, fmt.Errorf("bet: get on %d: %w", matchID, err)
	}
	if !resp.Success {
		return domain.Position{}, fmt.Errorf("bet: get on %d: %w", matchID, domain.ErrNotFound)
	}

	return domain.Position{
		MatchID:    matchID,
		Side:       resp.Side - 1,
		Amount:     resp.Amount,
		TimePlaced: time.Unix(resp.Time, 0),
	}, nil
}

// doAuthed performs one authenticated call, refreshing the session and
// retrying once when the site rejects the credentials.
func (c *Client) doAuthed(ctx context.Context, method, path string, form url.Values) (wagerResponse, error) {
	sess, err := c.sessions.Current(ctx)
	if err != nil {
		return wagerResponse{}, err
	}

	resp, err := c.do(ctx, method, path, form, sess)
	if !errors.Is(err, domain.ErrUnauthorized) {
		return resp, err
	}

	c.logger.Warn("session rejected, reauthenticating", slog.String("path", path))
	c.sessions.Invalidate()
	sess, err = c.sessions.Refresh(ctx)
	if err != nil {
		return wagerResponse{}, err
	}
	return c.do(ctx, method, path, form, sess)
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, sess session.Session) (wagerResponse, error) {
	form = cloneValues(form)
	form.Set("token", sess.Token)

	var (
		req *http.Request
		err error
	)
	if method == http.MethodGet {
		req, err = http.NewRequestWithContext(ctx, method, c.siteURL+path+"?"+form.Encode(), nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.siteURL+path, strings.NewReader(form.Encode()))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return wagerResponse{}, fmt.Errorf("create request: %w", err)
	}
	req.AddCookie(&http.Cookie{Name: "PHPSESSID", Value: sess.Cookie})
	req.Header.Set("Accept", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return wagerResponse{}, fmt.Errorf("http request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode == http.StatusUnauthorized || httpResp.StatusCode == http.StatusForbidden {
		return wagerResponse{}, domain.ErrUnauthorized
	}
	if httpResp.StatusCode != http.StatusOK {
		return wagerResponse{}, fmt.Errorf("status %d", httpResp.StatusCode)
	}

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return wagerResponse{}, fmt.Errorf("read response: %w", err)
	}

	var resp wagerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return wagerResponse{}, fmt.Errorf("decode response: %w", err)
	}
	// The site answers auth failures with 200 and an error string.
	if !resp.Success && strings.Contains(strings.ToLower(resp.Error), "not logged in") {
		return wagerResponse{}, domain.ErrUnauthorized
	}
	return resp, nil
}

func cloneValues(form url.Values) url.Values {
	out := make(url.Values, len(form)+1)
	for k, v := range form {
		out[k] = append([]string(nil), v...)
	}
	return out
}
