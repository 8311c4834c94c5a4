package folio

import (
	"fmt"
)

// Position is the aggregated holding of a single ticker at weighted average cost.
type Position struct {
	Ticker      string
	Quantity    Quantity
	CostBasis   Money // sum of the transactions total capital
	AverageCost Money // CostBasis / Quantity
}

// AggregatePositions folds the ledger into one Position per ticker.
//
// Quantities and total capital are summed as recorded in the ledger: a Sell row is
// expected to carry a negative quantity and capital already. Tickers whose net
// quantity is zero or negative are closed and dropped before the average cost is
// computed. Positions are returned in order of first appearance in the ledger.
func AggregatePositions(txs []Transaction) ([]Position, error) {
	index := make(map[string]int)
	var positions []Position
	for i, tx := range txs {
		if tx.Ticker == "" {
			return nil, fmt.Errorf("transaction %d on %s: %w: ticker is missing", i, tx.Date, ErrDataShape)
		}
		j, ok := index[tx.Ticker]
		if !ok {
			j = len(positions)
			index[tx.Ticker] = j
			positions = append(positions, Position{Ticker: tx.Ticker})
		}
		p := &positions[j]
		if p.CostBasis.cur != "" && tx.TotalCapital.cur != "" && p.CostBasis.cur != tx.TotalCapital.cur {
			return nil, fmt.Errorf("%s: %w: mixed currencies %s and %s", tx.Ticker, ErrDataShape, p.CostBasis.cur, tx.TotalCapital.cur)
		}
		p.Quantity = p.Quantity.Add(tx.Quantity)
		p.CostBasis = p.CostBasis.Add(tx.TotalCapital)
	}

	open := positions[:0]
	for _, p := range positions {
		if !p.Quantity.IsPositive() {
			continue // closed or oversold
		}
		open = append(open, p)
	}
	for i := range open {
		p := &open[i]
		if p.Quantity.IsZero() {
			return nil, fmt.Errorf("%s: %w: zero quantity", p.Ticker, ErrComputation)
		}
		p.AverageCost = p.CostBasis.Div(p.Quantity)
	}
	return open, nil
}
