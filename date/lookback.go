package date

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Unit of a Lookback.
type Unit int

const (
	Days Unit = iota
	Months
	Years
	YearToDate
	Max
)

// Lookback is a history window ending today, written like "5d", "6mo", "1y", "ytd" or "max".
type Lookback struct {
	N    int
	Unit Unit
}

// DefaultLookback is the window used when none, or an invalid one, is configured.
var DefaultLookback = Lookback{N: 1, Unit: Years}

var lookbackRegexp = regexp.MustCompile(`^(\d+)\s*(d|mo|y)$`)

// ParseLookback parses a lookback expression. It is case and space insensitive.
func ParseLookback(s string) (Lookback, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "ytd":
		return Lookback{Unit: YearToDate}, nil
	case "max":
		return Lookback{Unit: Max}, nil
	}
	m := lookbackRegexp.FindStringSubmatch(s)
	if m == nil {
		return DefaultLookback, fmt.Errorf("invalid period %q want <n>d, <n>mo, <n>y, ytd or max", s)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return DefaultLookback, fmt.Errorf("invalid period %q: count must be positive", s)
	}
	switch m[2] {
	case "d":
		return Lookback{N: n, Unit: Days}, nil
	case "mo":
		return Lookback{N: n, Unit: Months}, nil
	default:
		return Lookback{N: n, Unit: Years}, nil
	}
}

// Range returns the dates covered by the lookback when ending on 'on'.
// A Max lookback has a zero From.
func (l Lookback) Range(on Date) Range {
	switch l.Unit {
	case Days:
		return Range{From: on.Add(-l.N), To: on}
	case Months:
		return Range{From: on.AddMonths(-l.N), To: on}
	case Years:
		return Range{From: on.AddYears(-l.N), To: on}
	case YearToDate:
		return Range{From: on.StartOf(Yearly), To: on}
	default:
		return Range{To: on}
	}
}

// String returns the canonical expression of the lookback.
func (l Lookback) String() string {
	switch l.Unit {
	case Days:
		return fmt.Sprintf("%dd", l.N)
	case Months:
		return fmt.Sprintf("%dmo", l.N)
	case Years:
		return fmt.Sprintf("%dy", l.N)
	case YearToDate:
		return "ytd"
	default:
		return "max"
	}
}
