package folio

import (
	"errors"
	"testing"

	"github.com/etnz/folio/date"
	"github.com/google/go-cmp/cmp"
)

func TestAggregatePositions(t *testing.T) {
	testCases := []struct {
		name string
		txs  []Transaction
		want []Position
	}{
		{
			name: "single buy",
			txs:  []Transaction{buy("2025-01-10", "AMD", 1, 204)},
			want: []Position{{Ticker: "AMD", Quantity: Q(1), CostBasis: USD(204), AverageCost: USD(204)}},
		},
		{
			name: "weighted average cost",
			txs: []Transaction{
				buy("2025-01-10", "NVDA", 1, 100),
				buy("2025-01-11", "NVDA", 3, 120),
			},
			want: []Position{{Ticker: "NVDA", Quantity: Q(4), CostBasis: USD(460), AverageCost: USD(115)}},
		},
		{
			name: "first appearance order",
			txs: []Transaction{
				buy("2025-01-10", "KO", 2, 60),
				buy("2025-01-10", "AMD", 1, 200),
				buy("2025-01-11", "KO", 2, 70),
			},
			want: []Position{
				{Ticker: "KO", Quantity: Q(4), CostBasis: USD(260), AverageCost: USD(65)},
				{Ticker: "AMD", Quantity: Q(1), CostBasis: USD(200), AverageCost: USD(200)},
			},
		},
		{
			name: "signed sell reduces the position",
			txs: []Transaction{
				buy("2025-01-10", "BAC", 5, 50),
				sell("2025-02-10", "BAC", -2, 50),
			},
			want: []Position{{Ticker: "BAC", Quantity: Q(3), CostBasis: USD(150), AverageCost: USD(50)}},
		},
		{
			name: "closed position is dropped",
			txs: []Transaction{
				buy("2025-01-10", "BAC", 5, 50),
				sell("2025-02-10", "BAC", -5, 55),
				buy("2025-01-10", "KO", 1, 60),
			},
			want: []Position{{Ticker: "KO", Quantity: Q(1), CostBasis: USD(60), AverageCost: USD(60)}},
		},
		{
			name: "oversold position is dropped",
			txs: []Transaction{
				buy("2025-01-10", "BAC", 1, 50),
				sell("2025-02-10", "BAC", -3, 55),
			},
			want: []Position{},
		},
		{
			// Sell quantities are summed as recorded.
			name: "unsigned sell is summed literally",
			txs: []Transaction{
				buy("2025-01-10", "XLU", 8, 44),
				sell("2025-02-10", "XLU", 2, 45),
			},
			want: []Position{{Ticker: "XLU", Quantity: Q(10), CostBasis: USD(442), AverageCost: USD(44.2)}},
		},
		{
			name: "empty ledger",
			txs:  nil,
			want: []Position{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := AggregatePositions(tc.txs)
			if err != nil {
				t.Fatalf("AggregatePositions() unexpected error: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("AggregatePositions() got %d positions want %d: %v", len(got), len(tc.want), got)
			}
			for i, w := range tc.want {
				g := got[i]
				if g.Ticker != w.Ticker || !g.Quantity.Equal(w.Quantity) || !g.CostBasis.Equal(w.CostBasis) || !g.AverageCost.Equal(w.AverageCost) {
					t.Errorf("AggregatePositions()[%d] = %v want %v", i, g, w)
				}
			}
		})
	}
}

func TestAggregatePositions_BuyOnly(t *testing.T) {
	txs := []Transaction{
		buy("2025-01-10", "INDA", 2, 56.289),
		buy("2025-01-12", "INDA", 4, 57.5),
		buy("2025-01-12", "SPYM", 29, 77.27),
		buy("2025-01-15", "INDA", 1, 55.1),
	}
	positions, err := AggregatePositions(txs)
	if err != nil {
		t.Fatalf("AggregatePositions() unexpected error: %v", err)
	}
	for _, p := range positions {
		var qty Quantity
		var capital Money
		for _, tx := range txs {
			if tx.Ticker == p.Ticker {
				qty = qty.Add(tx.Quantity)
				capital = capital.Add(tx.TotalCapital)
			}
		}
		if !p.Quantity.Equal(qty) {
			t.Errorf("%s quantity = %v want %v", p.Ticker, p.Quantity, qty)
		}
		if !p.CostBasis.Equal(capital) {
			t.Errorf("%s cost basis = %v want %v", p.Ticker, p.CostBasis, capital)
		}
		// avgCost * qty gives back the cost basis, up to decimal division precision.
		back := p.AverageCost.Mul(p.Quantity).Decimal().Round(6)
		if !back.Equal(p.CostBasis.Decimal().Round(6)) {
			t.Errorf("%s avgCost*qty = %v want %v", p.Ticker, back, p.CostBasis)
		}
	}
	tickers := make([]string, len(positions))
	for i, p := range positions {
		tickers[i] = p.Ticker
	}
	if diff := cmp.Diff([]string{"INDA", "SPYM"}, tickers); diff != "" {
		t.Errorf("AggregatePositions() tickers mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregatePositions_Errors(t *testing.T) {
	testCases := []struct {
		name string
		txs  []Transaction
		want error
	}{
		{
			name: "missing ticker",
			txs:  []Transaction{buy("2025-01-10", "", 1, 10)},
			want: ErrDataShape,
		},
		{
			name: "mixed currencies",
			txs: []Transaction{
				buy("2025-01-10", "EWJ", 1, 84),
				NewBuy(date.MustParse("2025-01-11"), "EWJ", Q(1), EUR(80)),
			},
			want: ErrDataShape,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := AggregatePositions(tc.txs)
			if !errors.Is(err, tc.want) {
				t.Errorf("AggregatePositions() error = %v want %v", err, tc.want)
			}
		})
	}
}
