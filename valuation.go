package folio

import (
	"fmt"

	"github.com/etnz/folio/date"
)

// Quote is the latest known price of a ticker.
type Quote struct {
	Ticker string
	Price  Money
	AsOf   date.Date
}

// valid reports whether the quote can be used to value a position.
func (q Quote) valid() bool { return q.Price.IsPositive() }

// ValuationRow is the valuation of a single position.
//
// When Resolved is false, Price, MarketValue, UnrealizedPnL and PnLPercent are
// meaningless and Issue tells why.
type ValuationRow struct {
	Ticker      string
	Quantity    Quantity
	AverageCost Money
	CostBasis   Money
	Sector      string

	Resolved      bool
	Price         Money
	MarketValue   Money
	UnrealizedPnL Money
	PnLPercent    Percent
	Issue         error
}

// Valuation is the valuation of a whole portfolio.
type Valuation struct {
	Rows []ValuationRow // in positions order

	// Totals only account for resolved rows.
	TotalMarketValue   Money
	TotalCostBasis     Money
	TotalUnrealizedPnL Money
	TotalGainPercent   Percent

	AsOf date.Date // latest quote date used
}

// Unresolved returns the number of rows without a valid quote.
func (v *Valuation) Unresolved() int {
	n := 0
	for _, r := range v.Rows {
		if !r.Resolved {
			n++
		}
	}
	return n
}

// Valuate values each position with its quote.
//
// A position without a quote, or with a non positive price, is kept as an unresolved
// row and does not contribute to the totals. So is a position whose quote is in
// another currency than its cost basis, or than the rows already totaled.
func Valuate(positions []Position, quotes map[string]Quote, sectors Sectors) *Valuation {
	v := &Valuation{Rows: make([]ValuationRow, 0, len(positions))}
	currency := "" // of the totals, set by the first resolved row
	for _, p := range positions {
		row := ValuationRow{
			Ticker:      p.Ticker,
			Quantity:    p.Quantity,
			AverageCost: p.AverageCost,
			CostBasis:   p.CostBasis,
			Sector:      sectors.Of(p.Ticker),
		}
		q, ok := quotes[p.Ticker]
		if !ok || !q.valid() {
			row.Issue = &UnresolvedDataError{Ticker: p.Ticker, What: "quote"}
			v.Rows = append(v.Rows, row)
			continue
		}
		rowCur := q.Price.Currency()
		if rowCur == "" {
			rowCur = p.CostBasis.Currency()
		}
		if !sameCurrency(q.Price.Currency(), p.CostBasis.Currency()) || !sameCurrency(rowCur, currency) {
			row.Issue = &UnresolvedDataError{Ticker: p.Ticker, What: "quote",
				Err: fmt.Errorf("%w: quote in %q, cost basis in %q, totals in %q", ErrDataShape, q.Price.Currency(), p.CostBasis.Currency(), currency)}
			v.Rows = append(v.Rows, row)
			continue
		}
		if currency == "" {
			currency = rowCur
		}
		row.Resolved = true
		row.Price = q.Price
		row.MarketValue = q.Price.Mul(p.Quantity)
		row.UnrealizedPnL = row.MarketValue.Sub(p.CostBasis)
		row.PnLPercent = row.UnrealizedPnL.PercentOf(p.CostBasis)
		v.Rows = append(v.Rows, row)

		v.TotalMarketValue = v.TotalMarketValue.Add(row.MarketValue)
		v.TotalCostBasis = v.TotalCostBasis.Add(p.CostBasis)
		v.TotalUnrealizedPnL = v.TotalUnrealizedPnL.Add(row.UnrealizedPnL)
		if q.AsOf.After(v.AsOf) {
			v.AsOf = q.AsOf
		}
	}
	v.TotalGainPercent = v.TotalUnrealizedPnL.PercentOf(v.TotalCostBasis)
	return v
}

// sameCurrency reports whether a and b can be combined, the empty currency adopting
// the other one.
func sameCurrency(a, b string) bool { return a == "" || b == "" || a == b }
