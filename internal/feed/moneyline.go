// Package feed implements the two upstream odds feeds: the bookmaker
// moneyline feed (JSON API) and the betting-pool feed (JSON embedded in an
// HTML page).
package feed

import (
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

// MoneylineClient fetches bookmaker odds from a Bovada-style coupon API.
type MoneylineClient struct {
	baseURL    string
	path       string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewMoneylineClient creates a moneyline feed client. path is the coupon
// endpoint under baseURL, e.g.
// "/services/sports/event/coupon/events/A/description/esports/counter-strike-2".
func NewMoneylineClient(baseURL, path string, logger *slog.Logger) *MoneylineClient {
	return &MoneylineClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		path:    path,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.With(slog.String("component", "feed.moneyline")),
	}
}

// couponGroup mirrors one element of the coupon response. The API returns an
// array of groups, each holding a batch of events.
type couponGroup struct {
	Events []couponEvent `json:"events"`
}

type couponEvent struct {
	StartTime     int64              `json:"startTime"` // milliseconds
	Competitors   []couponCompetitor `json:"competitors"`
	DisplayGroups []couponDisplay    `json:"displayGroups"`
}

type couponCompetitor struct {
	Name string `json:"name"`
}

type couponDisplay struct {
	Markets []couponMarket `json:"markets"`
}

type couponMarket struct {
	Outcomes []couponOutcome `json:"outcomes"`
}

type couponOutcome struct {
	Price couponPrice `json:"price"`
}

type couponPrice struct {
	American string `json:"american"`
}

// Fetch retrieves the current moneyline board. Events that do not carry
// exactly two competitors or a readable price pair are skipped with a log
// line; an unreachable feed or an unparseable body returns ErrFeedUnavailable
// so a cycle can degrade to an empty board.
func (c *MoneylineClient) Fetch(ctx context.Context) ([]domain.MoneylineQuote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.path, nil)
	if err != nil {
		return nil, fmt.Errorf("feed: moneyline request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed: moneyline fetch: %w: %v", domain.ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed: moneyline fetch: %w: status %d", domain.ErrFeedUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("feed: moneyline read body: %w: %v", domain.ErrFeedUnavailable, err)
	}

	return c.parse(body)
}

func (c *MoneylineClient) parse(body []byte) ([]domain.MoneylineQuote, error) {
	var groups []couponGroup
	if err := json.Unmarshal(body, &groups); err != nil {
		// A garbled 200 body (maintenance page, truncated response) degrades
		// this cycle the same way an unreachable feed does.
		return nil, fmt.Errorf("feed: moneyline decode: %w: %v", domain.ErrFeedUnavailable, err)
	}

	var quotes []domain.MoneylineQuote
	for _, group := range groups {
		for _, event := range group.Events {
			quote, err := quoteFromEvent(event)
			if err != nil {
				c.logger.Debug("skipping malformed event",
					slog.Int64("start_time_ms", event.StartTime),
					slog.String("error", err.Error()))
				continue
			}
			quotes = append(quotes, quote)
		}
	}
	return quotes, nil
}

func quoteFromEvent(event couponEvent) (domain.MoneylineQuote, error) {
	if len(event.Competitors) != 2 {
		return domain.MoneylineQuote{}, fmt.Errorf("%w: %d competitors", domain.ErrRecordMalformed, len(event.Competitors))
	}
	if len(event.DisplayGroups) == 0 ||
		len(event.DisplayGroups[0].Markets) == 0 ||
		len(event.DisplayGroups[0].Markets[0].Outcomes) < 2 {
		return domain.MoneylineQuote{}, fmt.Errorf("%w: no moneyline market", domain.ErrRecordMalformed)
	}

	outcomes := event.DisplayGroups[0].Markets[0].Outcomes
	line1, err := parseAmerican(outcomes[0].Price.American)
	if err != nil {
		return domain.MoneylineQuote{}, err
	}
	line2, err := parseAmerican(outcomes[1].Price.American)
	if err != nil {
		return domain.MoneylineQuote{}, err
	}

	return domain.MoneylineQuote{
		StartTime: event.StartTime / 1000,
		Team1:     event.Competitors[0].Name,
		Team2:     event.Competitors[1].Name,
		Line1:     line1,
		Line2:     line2,
	}, nil
}

// parseAmerican reads an American-odds price string. Bookmakers print a
// coin-flip price as "EVEN" rather than "+100".
func parseAmerican(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "even") {
		return 100, nil
	}
	s = strings.TrimPrefix(s, "+")
	line, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: price %q", domain.ErrRecordMalformed, s)
	}
	return line, nil
}
