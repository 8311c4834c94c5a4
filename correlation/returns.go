package correlation

import "github.com/etnz/folio/date"

// Returns computes the simple daily returns of each aligned ticker.
//
// A return is dated at the later of two consecutive available observations:
// r = (p - prev) / prev. Missing observations are skipped, never interpolated, so a
// gap simply makes the next return span it. The first observation yields no return.
func Returns(a *Aligned) map[string]*date.History[float64] {
	out := make(map[string]*date.History[float64], len(a.Tickers))
	for _, ticker := range a.Tickers {
		h := new(date.History[float64])
		var prev float64
		started := false
		for i, obs := range a.Series[ticker] {
			if !obs.OK {
				continue
			}
			if started {
				h.Append(a.Dates[i], (obs.Price-prev)/prev)
			}
			prev, started = obs.Price, true
		}
		out[ticker] = h
	}
	return out
}
