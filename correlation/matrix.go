package correlation

import (
	"math"

	"github.com/etnz/folio/date"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// overlap returns the values of x and y on the dates they both have.
func overlap(x, y *date.History[float64]) (xs, ys []float64) {
	for on, vx := range x.Values() {
		if vy, ok := y.Get(on); ok {
			xs = append(xs, vx)
			ys = append(ys, vy)
		}
	}
	return xs, ys
}

// constant reports whether all values are equal.
func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

// Pearson returns the Pearson correlation of x and y over the dates both have.
//
// It returns 0 when fewer than 2 dates overlap or when either side is constant on
// the overlap, the coefficient being undefined.
func Pearson(x, y *date.History[float64]) float64 {
	xs, ys := overlap(x, y)
	if len(xs) < 2 || constant(xs) || constant(ys) {
		return 0
	}
	r := stat.Correlation(xs, ys, nil)
	switch {
	case math.IsNaN(r):
		return 0
	case r > 1:
		return 1
	case r < -1:
		return -1
	}
	return r
}

// Matrix is the symmetric matrix of pairwise return correlations.
type Matrix struct {
	Tickers []string
	sym     *mat.SymDense
}

// NewMatrix correlates every pair of tickers.
//
// The diagonal is 1 for a ticker with at least two returns that are not all equal,
// and 0 otherwise.
func NewMatrix(tickers []string, returns map[string]*date.History[float64]) *Matrix {
	n := len(tickers)
	m := &Matrix{Tickers: tickers}
	if n == 0 {
		return m
	}
	m.sym = mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		x := returns[tickers[i]]
		if Pearson(x, x) != 0 {
			m.sym.SetSym(i, i, 1)
		}
		for j := i + 1; j < n; j++ {
			m.sym.SetSym(i, j, Pearson(x, returns[tickers[j]]))
		}
	}
	return m
}

// Len returns the number of tickers in the matrix.
func (m *Matrix) Len() int { return len(m.Tickers) }

// At returns the correlation between the i-th and j-th tickers.
func (m *Matrix) At(i, j int) float64 { return m.sym.At(i, j) }

// Get returns the correlation between tickers a and b.
func (m *Matrix) Get(a, b string) (float64, bool) {
	i, j := m.index(a), m.index(b)
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.At(i, j), true
}

func (m *Matrix) index(ticker string) int {
	for i, t := range m.Tickers {
		if t == ticker {
			return i
		}
	}
	return -1
}
