package feed

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alanyoungcy/loungebot/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

const couponBody = `[
  {"events": [
    {
      "startTime": 1700000300000,
      "competitors": [{"name": "Team Spirit"}, {"name": "FURIA Esports"}],
      "displayGroups": [{"markets": [{"outcomes": [
        {"price": {"american": "-175"}},
        {"price": {"american": "+135"}}
      ]}]}]
    },
    {
      "startTime": 1700003600000,
      "competitors": [{"name": "Cloud9"}, {"name": "G2"}],
      "displayGroups": [{"markets": [{"outcomes": [
        {"price": {"american": "EVEN"}},
        {"price": {"american": "-120"}}
      ]}]}]
    },
    {
      "startTime": 1700007200000,
      "competitors": [{"name": "Solo Entrant"}],
      "displayGroups": []
    }
  ]}
]`

func TestMoneylineParse(t *testing.T) {
	client := NewMoneylineClient("http://example.invalid", "/coupon", discardLogger())

	quotes, err := client.parse([]byte(couponBody))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("got %d quotes, want 2 (one-competitor event skipped)", len(quotes))
	}

	first := quotes[0]
	if first.StartTime != 1700000300 {
		t.Errorf("StartTime = %d, want seconds 1700000300", first.StartTime)
	}
	if first.Team1 != "Team Spirit" || first.Team2 != "FURIA Esports" {
		t.Errorf("teams = %q / %q", first.Team1, first.Team2)
	}
	if first.Line1 != -175 || first.Line2 != 135 {
		t.Errorf("lines = %v / %v, want -175 / 135", first.Line1, first.Line2)
	}

	if quotes[1].Line1 != 100 {
		t.Errorf("EVEN price parsed as %v, want +100", quotes[1].Line1)
	}
}

func TestMoneylineFetchOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coupon" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(couponBody))
	}))
	defer srv.Close()

	client := NewMoneylineClient(srv.URL, "/coupon", discardLogger())
	quotes, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("got %d quotes, want 2", len(quotes))
	}
}

func TestMoneylineFetchUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewMoneylineClient(srv.URL, "/coupon", discardLogger())
	_, err := client.Fetch(context.Background())
	if !errors.Is(err, domain.ErrFeedUnavailable) {
		t.Fatalf("err = %v, want ErrFeedUnavailable", err)
	}
}

func TestMoneylineFetchGarbledBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>site under maintenance</html>"))
	}))
	defer srv.Close()

	client := NewMoneylineClient(srv.URL, "/coupon", discardLogger())
	_, err := client.Fetch(context.Background())
	if !errors.Is(err, domain.ErrFeedUnavailable) {
		t.Fatalf("err = %v, want ErrFeedUnavailable for a non-JSON 200 body", err)
	}
}

const loungePage = `<html><body><script>
  this.populateBets([
    {"m_id": "271828", "m_time": "1700000000", "m_status": "0",
     "t1name": "Spirit", "t2name": "FURIA",
     "sumbets": {"USD": {"1": 100000, "2": 120000}, "EUR": {"1": 50000}}},
    {"m_id": "271829", "m_time": "1700003600", "m_status": "1",
     "t1name": "Cloud9", "t2name": "G2",
     "sumbets": {"USD": {"1": 5000, "2": 5000}}},
    {"m_id": "271830", "m_time": "1700007200", "m_status": "0",
     "t1name": "BIG", "t2name": "Ence"}
  ]);
</script></body></html>`

func TestPoolParse(t *testing.T) {
	client := NewPoolClient("http://example.invalid", nil, discardLogger())

	quotes, err := client.parse([]byte(loungePage))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("got %d quotes, want 2 (live match filtered out)", len(quotes))
	}

	first := quotes[0]
	if first.ID != 271828 {
		t.Errorf("ID = %d, want 271828", first.ID)
	}
	if first.Status != domain.StatusUpcoming {
		t.Errorf("Status = %v, want upcoming", first.Status)
	}
	usd := first.Stakes["USD"]
	if usd.Side1 != 1000 || usd.Side2 != 1200 {
		t.Errorf("USD stakes = %v, want 1000 / 1200 after cents conversion", usd)
	}
	eur := first.Stakes["EUR"]
	if eur.Side1 != 500 || eur.Side2 != 0 {
		t.Errorf("EUR stakes = %v, want 500 / 0 for the missing side", eur)
	}

	// A match with no bets yet has no sumbets key at all.
	if len(quotes[1].Stakes) != 0 {
		t.Errorf("empty match stakes = %v, want none", quotes[1].Stakes)
	}
}

func TestPoolParseAllStatuses(t *testing.T) {
	client := NewPoolClient("http://example.invalid",
		[]domain.MatchStatus{domain.StatusUpcoming, domain.StatusLive}, discardLogger())

	quotes, err := client.parse([]byte(loungePage))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(quotes) != 3 {
		t.Fatalf("got %d quotes, want 3 with live included", len(quotes))
	}
}

func TestPoolParseMissingMarker(t *testing.T) {
	client := NewPoolClient("http://example.invalid", nil, discardLogger())
	_, err := client.parse([]byte("<html><body>maintenance</body></html>"))
	if !errors.Is(err, domain.ErrRecordMalformed) {
		t.Fatalf("err = %v, want ErrRecordMalformed", err)
	}
}

func TestPoolParseTruncatedBets(t *testing.T) {
	client := NewPoolClient("http://example.invalid", nil, discardLogger())
	page := `<script>this.populateBets([{"m_id": "1", "m_ti);</script>`
	_, err := client.parse([]byte(page))
	if !errors.Is(err, domain.ErrFeedUnavailable) {
		t.Fatalf("err = %v, want ErrFeedUnavailable for truncated JSON", err)
	}
}

func TestPoolFetchOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(loungePage))
	}))
	defer srv.Close()

	client := NewPoolClient(srv.URL, nil, discardLogger())
	quotes, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("got %d quotes, want 2", len(quotes))
	}
}
