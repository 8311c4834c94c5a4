package eodhd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/google/go-cmp/cmp"
)

// newTestClient returns a client querying a fake EODHD server.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(folio.EODHDConfig{APIKey: "test", BaseURL: srv.URL, CacheDir: t.TempDir()}, "USD", nil)
	c.Today = func() date.Date { return date.MustParse("2025-06-02") }
	return c
}

func TestFetchHistory(t *testing.T) {
	var got []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.URL.Path+" "+r.URL.Query().Get("from")+" "+r.URL.Query().Get("to"))
		switch r.URL.Path {
		case "/api/eod/AMD.US":
			fmt.Fprint(w, `[{"date":"2025-05-29","close":100,"adjusted_close":100},{"date":"2025-05-30","close":103,"adjusted_close":102}]`)
		case "/api/eod/AIR.PA":
			fmt.Fprint(w, `[]`)
		default:
			http.NotFound(w, r)
		}
	})

	h, err := c.FetchHistory(context.Background(), []string{"AMD", "AIR.PA", "ZZZ"}, date.Lookback{N: 6, Unit: date.Months})
	if err != nil {
		t.Fatalf("FetchHistory() unexpected error: %v", err)
	}
	want := []string{
		"/api/eod/AMD.US 2024-12-02 2025-06-02",
		"/api/eod/AIR.PA 2024-12-02 2025-06-02",
		"/api/eod/ZZZ.US 2024-12-02 2025-06-02",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("requests mismatch (-want +got):\n%s", diff)
	}
	if len(h) != 1 {
		t.Fatalf("FetchHistory() got %d histories want 1", len(h))
	}
	if v, ok := h["AMD"].Get(date.MustParse("2025-05-30")); !ok || v != 102 {
		t.Errorf("AMD on 2025-05-30 = %v, %v want 102 (adjusted close)", v, ok)
	}
}

func TestFetchHistory_Max(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("from") {
			t.Errorf("max lookback sent from=%s", r.URL.Query().Get("from"))
		}
		fmt.Fprint(w, `[]`)
	})
	if _, err := c.FetchHistory(context.Background(), []string{"SPY"}, date.Lookback{Unit: date.Max}); err != nil {
		t.Fatalf("FetchHistory() unexpected error: %v", err)
	}
}

func TestFetchHistory_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, r *http.Request) { http.Error(w, "boom", http.StatusInternalServerError) },
			want:    folio.ErrDataFetch,
		},
		{
			name:    "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) { http.Error(w, "no", http.StatusUnauthorized) },
			want:    folio.ErrDataFetch,
		},
		{
			name:    "garbage",
			handler: func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, `{"date":`) },
			want:    folio.ErrDataShape,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, tc.handler)
			_, err := c.FetchHistory(context.Background(), []string{"AMD"}, date.DefaultLookback)
			if !errors.Is(err, tc.want) {
				t.Errorf("FetchHistory() error = %v want %v", err, tc.want)
			}
		})
	}
}

func TestFetchHistory_Cached(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `[{"date":"2025-05-30","close":10,"adjusted_close":10}]`)
	})
	for range 2 {
		if _, err := c.FetchHistory(context.Background(), []string{"KO"}, date.DefaultLookback); err != nil {
			t.Fatalf("FetchHistory() unexpected error: %v", err)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("server called %d times want 1", n)
	}
}

func TestFetchLatestQuote(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/real-time/AMD.US" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("s"); got != "NVDA.US,ZZZ.US" {
			t.Errorf("s = %q want %q", got, "NVDA.US,ZZZ.US")
		}
		fmt.Fprint(w, `[
			{"code":"AMD.US","timestamp":1748635200,"close":210},
			{"code":"NVDA.US","timestamp":1748635200,"close":181.5},
			{"code":"ZZZ.US","timestamp":"NA","close":"NA"}
		]`)
	})
	quotes, err := c.FetchLatestQuote(context.Background(), []string{"AMD", "NVDA", "ZZZ"})
	if err != nil {
		t.Fatalf("FetchLatestQuote() unexpected error: %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("FetchLatestQuote() got %d quotes want 2: %v", len(quotes), quotes)
	}
	q := quotes["NVDA"]
	if !q.Price.Equal(folio.M(181.5, "USD")) {
		t.Errorf("NVDA price = %v want $181.50", q.Price)
	}
	if q.AsOf != date.MustParse("2025-05-30") {
		t.Errorf("NVDA as of %v want 2025-05-30", q.AsOf)
	}
}

func TestFetchLatestQuote_Single(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("s") {
			t.Errorf("single ticker sent s=%q", r.URL.Query().Get("s"))
		}
		fmt.Fprint(w, `{"code":"KO.US","timestamp":1748635200,"close":69.629}`)
	})
	quotes, err := c.FetchLatestQuote(context.Background(), []string{"KO"})
	if err != nil {
		t.Fatalf("FetchLatestQuote() unexpected error: %v", err)
	}
	if q, ok := quotes["KO"]; !ok || !q.Price.Equal(folio.M(69.629, "USD")) {
		t.Errorf("KO quote = %v, %v want $69.63", q, ok)
	}
}

func TestFetchSector(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/AMD.US"):
			fmt.Fprint(w, `{"General":{"Code":"AMD","Sector":"Technology","Industry":"Semiconductors"}}`)
		case strings.HasSuffix(r.URL.Path, "/SPYM.US"):
			fmt.Fprint(w, `{"General":{"Code":"SPYM","Type":"ETF"}}`)
		case strings.HasSuffix(r.URL.Path, "/EWJ.US"):
			fmt.Fprint(w, `{"General":{"Code":"EWJ","Sector":""}}`)
		case strings.HasSuffix(r.URL.Path, "/DOWN.US"):
			http.Error(w, "down", http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	sector, err := c.FetchSector(ctx, "AMD")
	if err != nil || sector != "Technology" {
		t.Errorf("FetchSector(AMD) = %q, %v want Technology", sector, err)
	}
	for _, ticker := range []string{"SPYM", "EWJ", "ZZZ"} {
		if _, err := c.FetchSector(ctx, ticker); !errors.Is(err, folio.ErrUnresolved) {
			t.Errorf("FetchSector(%s) error = %v want ErrUnresolved", ticker, err)
		}
	}
	if _, err := c.FetchSector(ctx, "DOWN"); !errors.Is(err, folio.ErrDataFetch) {
		t.Errorf("FetchSector(DOWN) error = %v want ErrDataFetch", err)
	}
}
