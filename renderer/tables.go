// Package renderer turns valuations and correlation matrices into tables of cells,
// ready to be written to a sink, and renders them as markdown.
package renderer

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/etnz/folio"
	"github.com/etnz/folio/correlation"
)

// Unresolved is the placeholder of cells without data.
const Unresolved = "N/A"

// TimeFormat is the layout of the "Last Updated" stamp.
const TimeFormat = "2006-01-02 15:04:05"

// ValuationHeader is the header row of the valuation table.
var ValuationHeader = []string{"Ticker", "Qty", "Avg Cost", "Sector", "Live Price", "Market Value", "Unrealized PnL", "Unrealized %"}

// ValuationTable renders one row per position, sorted by ticker, after a header row.
// Money cells are rounded to the minor unit of currency.
func ValuationTable(v *folio.Valuation, currency string) [][]string {
	rows := slices.Clone(v.Rows)
	slices.SortStableFunc(rows, func(a, b folio.ValuationRow) int { return strings.Compare(a.Ticker, b.Ticker) })

	table := make([][]string, 0, len(rows)+1)
	table = append(table, slices.Clone(ValuationHeader))
	for _, r := range rows {
		row := []string{
			r.Ticker,
			r.Quantity.String(),
			r.AverageCost.Fixed(currency),
			r.Sector,
			Unresolved, Unresolved, Unresolved, Unresolved,
		}
		if r.Resolved {
			row[4] = r.Price.Fixed(currency)
			row[5] = r.MarketValue.Fixed(currency)
			row[6] = r.UnrealizedPnL.Fixed(currency)
			row[7] = r.PnLPercent.String()
		}
		table = append(table, row)
	}
	return table
}

// SummaryTable renders the portfolio totals as a two columns block.
func SummaryTable(v *folio.Valuation, currency string, updated time.Time) [][]string {
	return [][]string{
		{"PORTFOLIO SUMMARY", ""},
		{"Total Market Value", v.TotalMarketValue.Fixed(currency)},
		{"Total Cost Basis", v.TotalCostBasis.Fixed(currency)},
		{"Total Unrealized PnL", v.TotalUnrealizedPnL.Fixed(currency)},
		{"Total Return %", v.TotalGainPercent.String()},
		{"Unresolved", fmt.Sprint(v.Unresolved())},
		{"Last Updated", updated.Format(TimeFormat)},
	}
}

// SectorTable renders the sector allocation in the given order, after a header row.
func SectorTable(allocs []folio.SectorAllocation, currency string) [][]string {
	table := [][]string{{"Sector", "Market Value", "Allocation %"}}
	for _, a := range allocs {
		table = append(table, []string{a.Sector, a.MarketValue.Fixed(currency), a.Percent.String()})
	}
	return table
}

// CorrelationTable renders the matrix with tickers as first row and first column.
// Coefficients are rounded to 2 decimals.
func CorrelationTable(m *correlation.Matrix) [][]string {
	header := append([]string{"Correlation Matrix"}, m.Tickers...)
	table := [][]string{header}
	for i, ticker := range m.Tickers {
		row := make([]string, 0, m.Len()+1)
		row = append(row, ticker)
		for j := range m.Len() {
			row = append(row, formatCoefficient(m.At(i, j)))
		}
		table = append(table, row)
	}
	return table
}

// formatCoefficient formats a correlation with 2 decimals, avoiding "-0.00".
func formatCoefficient(r float64) string {
	s := fmt.Sprintf("%.2f", r)
	if s == "-0.00" {
		return "0.00"
	}
	return s
}
