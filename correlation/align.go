// Package correlation measures how the daily returns of tickers move together.
//
// Prices are first aligned on a common date axis (Align), turned into simple returns
// (Returns) and finally correlated pairwise on the dates both series share
// (Pearson, NewMatrix).
package correlation

import (
	"math"

	"github.com/etnz/folio/date"
)

// Observation is the price of a ticker on a date of the aligned axis.
type Observation struct {
	Price float64
	OK    bool // false when the ticker has no usable price that day
}

// Aligned holds price series sharing a single date axis.
type Aligned struct {
	Tickers []string                 // kept tickers, in requested order
	Dates   []date.Date              // union of the kept tickers dates, chronological
	Series  map[string][]Observation // one observation per date, per ticker
	Dropped []string                 // requested tickers without any usable price
}

// valid reports whether p can be used as a price.
func valid(p float64) bool { return p > 0 && !math.IsInf(p, 0) && !math.IsNaN(p) }

// Align puts the raw price histories of tickers on a single date axis.
//
// The axis is the union of the dates of every kept ticker: a date that no ticker
// observed is absent, and a ticker missing a date of the axis gets an observation
// with OK false. Non finite or non positive prices are treated as missing. Tickers
// without any usable price are dropped.
func Align(tickers []string, raw map[string]*date.History[float64]) *Aligned {
	a := &Aligned{Series: make(map[string][]Observation)}
	var clean []*date.History[float64]
	seen := make(map[string]bool)
	for _, ticker := range tickers {
		if seen[ticker] {
			continue
		}
		seen[ticker] = true
		h := new(date.History[float64])
		for on, p := range raw[ticker].Values() {
			if valid(p) {
				h.Append(on, p)
			}
		}
		if h.Len() == 0 {
			a.Dropped = append(a.Dropped, ticker)
			continue
		}
		a.Tickers = append(a.Tickers, ticker)
		clean = append(clean, h)
	}

	for on := range date.Iterate(clean...) {
		a.Dates = append(a.Dates, on)
	}
	for i, ticker := range a.Tickers {
		obs := make([]Observation, len(a.Dates))
		for j, on := range a.Dates {
			obs[j].Price, obs[j].OK = clean[i].Get(on)
		}
		a.Series[ticker] = obs
	}
	return a
}
