package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/loungebot/internal/domain"
)

// populateBetsMarker introduces the JSON array embedded in the pool site's
// landing page.
const populateBetsMarker = "this.populateBets("

// PoolClient fetches pari-mutuel pool state from a CSGOLounge-style site.
// The site renders its match list as a JSON array passed to a JavaScript
// call inside the landing page.
type PoolClient struct {
	baseURL    string
	statuses   map[domain.MatchStatus]bool
	httpClient *http.Client
	logger     *slog.Logger
}

// NewPoolClient creates a pool feed client. statuses limits which match
// states are returned; nil keeps only upcoming matches.
func NewPoolClient(baseURL string, statuses []domain.MatchStatus, logger *slog.Logger) *PoolClient {
	keep := make(map[domain.MatchStatus]bool)
	if len(statuses) == 0 {
		keep[domain.StatusUpcoming] = true
	}
	for _, s := range statuses {
		keep[s] = true
	}
	return &PoolClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		statuses: keep,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.With(slog.String("component", "feed.pool")),
	}
}

// Fetch retrieves the current pool board. An unreachable site or a response
// whose embedded JSON does not parse returns ErrFeedUnavailable; a page
// without the populateBets call at all returns ErrRecordMalformed. Either way
// a cycle degrades to an empty board rather than failing.
func (c *PoolClient) Fetch(ctx context.Context) ([]domain.PoolQuote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("feed: pool request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed: pool fetch: %w: %v", domain.ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed: pool fetch: %w: status %d", domain.ErrFeedUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("feed: pool read body: %w: %v", domain.ErrFeedUnavailable, err)
	}

	return c.parse(body)
}

func (c *PoolClient) parse(page []byte) ([]domain.PoolQuote, error) {
	start := bytes.Index(page, []byte(populateBetsMarker))
	if start < 0 {
		return nil, fmt.Errorf("feed: pool page: %w: populateBets call not found", domain.ErrRecordMalformed)
	}
	start += len(populateBetsMarker)

	end := bytes.Index(page[start:], []byte(");"))
	if end < 0 {
		return nil, fmt.Errorf("feed: pool page: %w: unterminated populateBets call", domain.ErrRecordMalformed)
	}

	var entries []poolEntry
	if err := json.Unmarshal(page[start:start+end], &entries); err != nil {
		return nil, fmt.Errorf("feed: pool decode: %w: %v", domain.ErrFeedUnavailable, err)
	}

	var quotes []domain.PoolQuote
	for _, entry := range entries {
		quote, err := entry.toQuote()
		if err != nil {
			c.logger.Debug("skipping malformed pool entry",
				slog.String("error", err.Error()))
			continue
		}
		if !c.statuses[quote.Status] {
			continue
		}
		quotes = append(quotes, quote)
	}
	return quotes, nil
}

// poolEntry mirrors one element of the populateBets array. The site encodes
// numbers as strings in some fields and raw numbers in others.
type poolEntry struct {
	ID      flexInt64                     `json:"m_id"`
	Time    flexInt64                     `json:"m_time"`
	Status  flexInt64                     `json:"m_status"`
	Team1   string                        `json:"t1name"`
	Team2   string                        `json:"t2name"`
	SumBets map[string]map[string]float64 `json:"sumbets"`
}

func (e poolEntry) toQuote() (domain.PoolQuote, error) {
	if e.Team1 == "" || e.Team2 == "" {
		return domain.PoolQuote{}, fmt.Errorf("%w: missing team name", domain.ErrRecordMalformed)
	}

	stakes := make(map[string]domain.StakeTotals, len(e.SumBets))
	for currency, sides := range e.SumBets {
		// Stake totals arrive in cents.
		stakes[currency] = domain.StakeTotals{
			Side1: sides["1"] / 100,
			Side2: sides["2"] / 100,
		}
	}

	return domain.PoolQuote{
		ID:        int64(e.ID),
		StartTime: int64(e.Time),
		Status:    domain.MatchStatus(e.Status),
		Team1:     e.Team1,
		Team2:     e.Team2,
		Stakes:    stakes,
	}, nil
}

// flexInt64 decodes a JSON number whether it is quoted or not.
type flexInt64 int64

func (f *flexInt64) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("parse %q as integer: %w", s, err)
	}
	*f = flexInt64(n)
	return nil
}
