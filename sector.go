package folio

import (
	"cmp"
	"slices"
)

// OtherSector is the sector of tickers without sector metadata.
const OtherSector = "Other"

// Sectors maps tickers to their sector.
type Sectors map[string]string

// Of returns the sector of ticker, or OtherSector if unknown.
func (s Sectors) Of(ticker string) string {
	if sector := s[ticker]; sector != "" {
		return sector
	}
	return OtherSector
}

// SectorAllocation is the share of the portfolio market value held in one sector.
type SectorAllocation struct {
	Sector      string
	MarketValue Money
	Percent     Percent
}

// Allocate groups resolved rows by sector.
//
// Allocations are sorted by market value, largest first, then by sector name.
func Allocate(rows []ValuationRow, sectors Sectors) []SectorAllocation {
	index := make(map[string]int)
	var allocs []SectorAllocation
	var total Money
	for _, r := range rows {
		if !r.Resolved {
			continue
		}
		sector := sectors.Of(r.Ticker)
		i, ok := index[sector]
		if !ok {
			i = len(allocs)
			index[sector] = i
			allocs = append(allocs, SectorAllocation{Sector: sector})
		}
		allocs[i].MarketValue = allocs[i].MarketValue.Add(r.MarketValue)
		total = total.Add(r.MarketValue)
	}
	for i := range allocs {
		allocs[i].Percent = allocs[i].MarketValue.PercentOf(total)
	}
	slices.SortFunc(allocs, func(a, b SectorAllocation) int {
		if c := b.MarketValue.Decimal().Cmp(a.MarketValue.Decimal()); c != 0 {
			return c
		}
		return cmp.Compare(a.Sector, b.Sector)
	})
	return allocs
}
