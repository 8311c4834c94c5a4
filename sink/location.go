// Package sink writes rendered tables to their destination: a markdown document,
// a SQLite database or Redis hashes.
//
// Every sink follows the spreadsheet model of the original dashboard: a table is
// written at a location like "Dashboard!A1", and regions like
// "Correlation Analysis!E1:Z50" or a whole tab "Dashboard" can be cleared.
package sink

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/etnz/folio"
)

// Cell is a zero based cell coordinate, A1 is {0, 0}.
type Cell struct {
	Row, Col int
}

// String returns the A1 notation of the cell.
func (c Cell) String() string { return ColumnName(c.Col) + strconv.Itoa(c.Row+1) }

// ColumnName returns the letters of a zero based column index: 0 is A, 26 is AA.
func ColumnName(col int) string {
	var b []byte
	for col++; col > 0; col = (col - 1) / 26 {
		b = append([]byte{byte('A' + (col-1)%26)}, b...)
	}
	return string(b)
}

var cellRegexp = regexp.MustCompile(`^([A-Za-z]+)([1-9][0-9]*)$`)

// ParseCell parses a cell in A1 notation.
func ParseCell(s string) (Cell, error) {
	m := cellRegexp.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Cell{}, fmt.Errorf("%w: invalid cell %q", folio.ErrConfiguration, s)
	}
	col := 0
	for _, r := range strings.ToUpper(m[1]) {
		col = col*26 + int(r-'A'+1)
	}
	row, _ := strconv.Atoi(m[2])
	return Cell{Row: row - 1, Col: col - 1}, nil
}

// Region is a rectangle of cells in a tab, boundaries included.
type Region struct {
	Tab      string
	From, To Cell
	Whole    bool // the whole tab, From and To are meaningless
}

// Contains reports whether c is in the region.
func (r Region) Contains(c Cell) bool {
	return r.Whole || (c.Row >= r.From.Row && c.Row <= r.To.Row && c.Col >= r.From.Col && c.Col <= r.To.Col)
}

// String returns the A1 notation of the region.
func (r Region) String() string {
	switch {
	case r.Whole:
		return r.Tab
	case r.From == r.To:
		return r.Tab + "!" + r.From.String()
	default:
		return r.Tab + "!" + r.From.String() + ":" + r.To.String()
	}
}

// ParseRegion parses "Tab", "Tab!A1" or "Tab!A1:C3".
func ParseRegion(s string) (Region, error) {
	tab, cells, found := strings.Cut(s, "!")
	tab = strings.Trim(strings.TrimSpace(tab), "'")
	if tab == "" {
		return Region{}, fmt.Errorf("%w: missing tab name in %q", folio.ErrConfiguration, s)
	}
	if !found {
		return Region{Tab: tab, Whole: true}, nil
	}
	first, last, isRange := strings.Cut(cells, ":")
	from, err := ParseCell(first)
	if err != nil {
		return Region{}, err
	}
	to := from
	if isRange {
		if to, err = ParseCell(last); err != nil {
			return Region{}, err
		}
	}
	if to.Row < from.Row {
		from.Row, to.Row = to.Row, from.Row
	}
	if to.Col < from.Col {
		from.Col, to.Col = to.Col, from.Col
	}
	return Region{Tab: tab, From: from, To: to}, nil
}

// ParseLocation parses the top left cell where a table is written, "Tab" alone is "Tab!A1".
func ParseLocation(s string) (tab string, at Cell, err error) {
	r, err := ParseRegion(s)
	if err != nil {
		return "", Cell{}, err
	}
	return r.Tab, r.From, nil
}

// cells calls f for every value of table written at 'at'. An empty value clears its cell.
func cells(at Cell, table [][]string, f func(Cell, string)) {
	for i, row := range table {
		for j, v := range row {
			f(Cell{Row: at.Row + i, Col: at.Col + j}, v)
		}
	}
}
