package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/metrics"
	"github.com/etnz/folio/sink"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func testLedger() *fakeLedger {
	on := date.MustParse("2025-01-10")
	usd := func(v float64) folio.Money { return folio.M(v, "USD") }
	return &fakeLedger{txs: []folio.Transaction{
		folio.NewBuy(on, "AMD", folio.Q(1), usd(204)),
		folio.NewBuy(on, "NVDA", folio.Q(2), usd(181.5)),
		folio.NewBuy(on, "ZZZ", folio.Q(3), usd(10)),
	}}
}

func testMarket() *fakeMarket {
	return &fakeMarket{
		history: map[string]*date.History[float64]{
			"AMD":  series(100, 102, 101),
			"NVDA": series(50, 49, 51),
		},
		quotes:  map[string]float64{"AMD": 210, "NVDA": 180},
		sectors: map[string]string{"AMD": "Technology"},
	}
}

func testRunner(s folio.ResultSink, m *fakeMarket) *Runner {
	return &Runner{
		Ledger:   testLedger(),
		Config:   &fakeConfig{period: "1y", tickers: []string{"amd", "NVDA", "AMD"}},
		Market:   m,
		Sink:     s,
		Currency: "USD",
		Sectors:  folio.Sectors{"NVDA": "Semiconductors"},
		Metrics:  metrics.New(),
		Logger:   discard,
		Now:      func() time.Time { return time.Date(2025, 6, 2, 17, 30, 0, 0, time.UTC) },
	}
}

func TestRun(t *testing.T) {
	s := sink.NewMarkdown(nil, discard)
	m := testMarket()
	r := testRunner(s, m)
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}

	dash := s.Tab(DashboardTab)
	if got := dash[0][:8]; !cmp.Equal(got, []string{"Ticker", "Qty", "Avg Cost", "Sector", "Live Price", "Market Value", "Unrealized PnL", "Unrealized %"}) {
		t.Errorf("valuation header = %v", got)
	}
	if diff := cmp.Diff([]string{"AMD", "1", "204.00", "Technology", "210.00", "210.00", "6.00", "2.94%"}, dash[1][:8]); diff != "" {
		t.Errorf("AMD row mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"ZZZ", "3", "10.00", "Other", "N/A", "N/A", "N/A", "N/A"}, dash[3][:8]); diff != "" {
		t.Errorf("ZZZ row mismatch (-want +got):\n%s", diff)
	}
	// Summary at K1, sectors at K9.
	if dash[0][10] != "PORTFOLIO SUMMARY" || dash[1][10] != "Total Market Value" || dash[1][11] != "570.00" {
		t.Errorf("summary = %v", dash[:2])
	}
	if dash[6][11] != "2025-06-02 17:30:00" {
		t.Errorf("Last Updated = %q", dash[6][11])
	}
	if dash[8][10] != "Sector" || dash[9][10] != "Semiconductors" || dash[10][10] != "Technology" {
		t.Errorf("sector table = %v", dash[8:])
	}
	// NVDA sector is known in advance, ZZZ is looked up and unresolved.
	if diff := cmp.Diff([]string{"AMD", "ZZZ"}, slices.Sorted(slices.Values(m.sectorHit))); diff != "" {
		t.Errorf("sector lookups mismatch (-want +got):\n%s", diff)
	}

	corr := s.Tab(CorrelationTab)
	wantCorr := [][]string{
		{"Correlation Matrix", "AMD", "NVDA"},
		{"AMD", "1.00", "-1.00"},
		{"NVDA", "-1.00", "1.00"},
	}
	for i, want := range wantCorr {
		if diff := cmp.Diff(want, corr[i][4:7]); diff != "" {
			t.Errorf("correlation row %d mismatch (-want +got):\n%s", i, diff)
		}
	}
	if corr[1][1] != "1y" || corr[3][0] != "AMD" || corr[4][0] != "NVDA" {
		t.Errorf("configuration block = %v", corr)
	}

	if got := testutil.ToFloat64(r.Metrics.Positions); got != 3 {
		t.Errorf("positions metric = %v want 3", got)
	}
	if got := testutil.ToFloat64(r.Metrics.Unresolved.WithLabelValues("quote")); got != 1 {
		t.Errorf("unresolved quote metric = %v want 1", got)
	}
	if got := testutil.ToFloat64(r.Metrics.LastSuccess); got != float64(r.Now().Unix()) {
		t.Errorf("last success metric = %v", got)
	}
}

func TestRun_Idempotent(t *testing.T) {
	render := func() string {
		var buf bytes.Buffer
		s := sink.NewMarkdown(&buf, discard)
		r := testRunner(s, testMarket())
		for range 2 {
			if err := r.Run(context.Background()); err != nil {
				t.Fatalf("Run() unexpected error: %v", err)
			}
		}
		if err := s.Close(); err != nil {
			t.Fatal(err)
		}
		return buf.String()
	}
	first, second := render(), render()
	if first != second {
		t.Errorf("Run() is not idempotent:\n%s\n---\n%s", first, second)
	}
}

func TestRun_WriteOrder(t *testing.T) {
	s := &recordingSink{}
	if err := testRunner(s, testMarket()).Run(context.Background()); err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
	want := []string{
		"clear Dashboard",
		"write Dashboard!A1",
		"write Dashboard!K1",
		"write Dashboard!K9",
		"clear Correlation Analysis!A1:C50",
		"clear Correlation Analysis!E1:Z50",
		"write Correlation Analysis!A1",
		"write Correlation Analysis!E1",
	}
	if diff := cmp.Diff(want, s.calls); diff != "" {
		t.Errorf("sink calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_FatalWritesNothing(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(r *Runner, m *fakeMarket)
		want   error
	}{
		{
			name:   "ledger unavailable",
			mutate: func(r *Runner, m *fakeMarket) { r.Ledger = &fakeLedger{err: folio.ErrStoreUnavailable} },
			want:   folio.ErrStoreUnavailable,
		},
		{
			name:   "quotes unavailable",
			mutate: func(r *Runner, m *fakeMarket) { m.quoteErr = folio.ErrDataFetch },
			want:   folio.ErrDataFetch,
		},
		{
			name:   "history unavailable",
			mutate: func(r *Runner, m *fakeMarket) { m.histErr = folio.ErrDataFetch },
			want:   folio.ErrDataFetch,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := &recordingSink{}
			m := testMarket()
			r := testRunner(s, m)
			tc.mutate(r, m)
			err := r.Run(context.Background())
			if !errors.Is(err, tc.want) {
				t.Errorf("Run() error = %v want %v", err, tc.want)
			}
			if len(s.calls) != 0 {
				t.Errorf("Run() wrote %v, want nothing", s.calls)
			}
		})
	}
}

func TestRun_PipelineErrorsAreIsolated(t *testing.T) {
	testCases := []struct {
		name      string
		mutate    func(r *Runner)
		want      error
		wantCalls []string
	}{
		{
			name:      "too few tickers",
			mutate:    func(r *Runner) { r.Config = &fakeConfig{period: "1y", tickers: []string{"AMD", " amd "}} },
			want:      folio.ErrConfiguration,
			wantCalls: []string{"clear Dashboard", "write Dashboard!A1", "write Dashboard!K1", "write Dashboard!K9"},
		},
		{
			name: "too many tickers",
			mutate: func(r *Runner) {
				tickers := make([]string, MaxTickers+1)
				for i := range tickers {
					tickers[i] = fmt.Sprintf("T%02d", i)
				}
				r.Config = &fakeConfig{period: "1y", tickers: tickers}
			},
			want:      folio.ErrConfiguration,
			wantCalls: []string{"clear Dashboard", "write Dashboard!A1", "write Dashboard!K1", "write Dashboard!K9"},
		},
		{
			name: "bad ledger row",
			mutate: func(r *Runner) {
				r.Ledger = &fakeLedger{txs: []folio.Transaction{{Ticker: ""}}}
			},
			want: folio.ErrDataShape,
			wantCalls: []string{
				"clear Correlation Analysis!A1:C50",
				"clear Correlation Analysis!E1:Z50",
				"write Correlation Analysis!A1",
				"write Correlation Analysis!E1",
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := &recordingSink{}
			r := testRunner(s, testMarket())
			tc.mutate(r)
			err := r.Run(context.Background())
			if !errors.Is(err, tc.want) {
				t.Errorf("Run() error = %v want %v", err, tc.want)
			}
			if folio.IsRunFatal(err) {
				t.Errorf("IsRunFatal(%v) = true want false", err)
			}
			if diff := cmp.Diff(tc.wantCalls, s.calls); diff != "" {
				t.Errorf("sink calls mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRun_SinkFailureKeepsWriting(t *testing.T) {
	s := &recordingSink{failOn: SummaryLocation}
	err := testRunner(s, testMarket()).Run(context.Background())
	if err == nil {
		t.Fatal("Run() expected an error")
	}
	if s.calls[len(s.calls)-1] != "write "+CorrelationLocation {
		t.Errorf("correlation not written after a dashboard failure: %v", s.calls)
	}
}

func TestCorrelation_InvalidPeriod(t *testing.T) {
	m := testMarket()
	r := testRunner(&recordingSink{}, m)
	r.Config = &fakeConfig{period: "forever", tickers: []string{"AMD", "NVDA"}}
	if err := r.Correlation(context.Background()); err != nil {
		t.Fatalf("Correlation() unexpected error: %v", err)
	}
	if diff := cmp.Diff([]date.Lookback{date.DefaultLookback}, m.lookbacks); diff != "" {
		t.Errorf("lookback mismatch (-want +got):\n%s", diff)
	}
}

func TestCorrelation_NoHistory(t *testing.T) {
	m := testMarket()
	m.history = nil
	r := testRunner(&recordingSink{}, m)
	if err := r.Correlation(context.Background()); !errors.Is(err, folio.ErrDataShape) {
		t.Errorf("Correlation() error = %v want ErrDataShape", err)
	}
}

func TestDashboard(t *testing.T) {
	s := &recordingSink{}
	if err := testRunner(s, testMarket()).Dashboard(context.Background()); err != nil {
		t.Fatalf("Dashboard() unexpected error: %v", err)
	}
	if len(s.calls) != 4 {
		t.Errorf("Dashboard() calls = %v", s.calls)
	}
}

func TestCorrelation_FitsClearedRegions(t *testing.T) {
	m := testMarket()
	tickers := make([]string, MaxTickers)
	for i := range tickers {
		tickers[i] = fmt.Sprintf("T%02d", i)
		m.history[tickers[i]] = series(100, float64(100+i), float64(99-i), 101)
	}
	s := sink.NewMarkdown(nil, discard)
	r := testRunner(s, m)
	r.Config = &fakeConfig{period: "1y", tickers: tickers}
	if err := r.Correlation(context.Background()); err != nil {
		t.Fatalf("Correlation() unexpected error: %v", err)
	}

	config, err := sink.ParseRegion(ConfigRegion)
	if err != nil {
		t.Fatal(err)
	}
	matrix, err := sink.ParseRegion(CorrelationRegion)
	if err != nil {
		t.Fatal(err)
	}
	rows := s.Tab(CorrelationTab)
	if len(rows) != MaxTickers+3 {
		t.Errorf("got %d rows want %d", len(rows), MaxTickers+3)
	}
	for i, row := range rows {
		for j, v := range row {
			c := sink.Cell{Row: i, Col: j}
			if v != "" && !config.Contains(c) && !matrix.Contains(c) {
				t.Errorf("cell %s = %q is outside of the cleared regions", c, v)
			}
		}
	}
}
