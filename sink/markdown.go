package sink

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"sync"

	"github.com/etnz/folio/renderer"
)

// Markdown is an in memory sink, rendered as a markdown document on Close.
// Nothing is rendered if nothing was written, so a failed run leaves the output as is.
//
// Each tab becomes a section holding a single table, whose header row is made of
// the column letters, so that tables keep their relative positions.
type Markdown struct {
	// Output receives the document on Close.
	Output func(markdown string) error
	Title  string

	mu      sync.Mutex
	written bool
	tabs    []string // in order of first write
	grids   map[string]map[Cell]string
	logger  *slog.Logger
}

// NewMarkdown returns a Markdown sink writing the document to w.
func NewMarkdown(w io.Writer, logger *slog.Logger) *Markdown {
	if logger == nil {
		logger = slog.Default()
	}
	return &Markdown{
		Title: "Folio",
		Output: func(markdown string) error {
			_, err := io.WriteString(w, markdown)
			return err
		},
		grids:  make(map[string]map[Cell]string),
		logger: logger,
	}
}

// NewMarkdownFile returns a Markdown sink writing the document to the file at path.
func NewMarkdownFile(path string, logger *slog.Logger) *Markdown {
	m := NewMarkdown(nil, logger)
	m.Output = func(markdown string) error {
		return os.WriteFile(path, []byte(markdown), 0o644)
	}
	return m
}

func (m *Markdown) grid(tab string) map[Cell]string {
	g, ok := m.grids[tab]
	if !ok {
		g = make(map[Cell]string)
		m.grids[tab] = g
		m.tabs = append(m.tabs, tab)
	}
	return g
}

// Clear empties the region.
func (m *Markdown) Clear(ctx context.Context, region string) error {
	r, err := ParseRegion(region)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.written = true
	g := m.grid(r.Tab)
	for c := range g {
		if r.Contains(c) {
			delete(g, c)
		}
	}
	return nil
}

// WriteTable writes rows with their top left cell at location.
func (m *Markdown) WriteTable(ctx context.Context, location string, rows [][]string) error {
	tab, at, err := ParseLocation(location)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.written = true
	g := m.grid(tab)
	cells(at, rows, func(c Cell, v string) {
		if v == "" {
			delete(g, c)
			return
		}
		g[c] = v
	})
	m.logger.Debug("table written", "location", location, "rows", len(rows))
	return nil
}

// Tab returns the content of a tab as rows, from A1 to the last non empty cell.
func (m *Markdown) Tab(tab string) [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return toRows(m.grids[tab])
}

// toRows returns the grid as a rectangle of rows starting at A1.
func toRows(g map[Cell]string) [][]string {
	if len(g) == 0 {
		return nil
	}
	last := Cell{}
	for c := range g {
		last.Row, last.Col = max(last.Row, c.Row), max(last.Col, c.Col)
	}
	rows := make([][]string, last.Row+1)
	for i := range rows {
		rows[i] = make([]string, last.Col+1)
	}
	for c, v := range g {
		rows[c.Row][c.Col] = v
	}
	return rows
}

// Render returns the markdown document.
func (m *Markdown) Render() string {
	m.mu.Lock()
	tabs := slices.Clone(m.tabs)
	m.mu.Unlock()

	sections := make([]renderer.Section, 0, len(tabs))
	for _, tab := range tabs {
		rows := m.Tab(tab)
		if len(rows) == 0 {
			continue
		}
		header := make([]string, 0, len(rows[0])+1)
		header = append(header, "")
		for j := range rows[0] {
			header = append(header, ColumnName(j))
		}
		table := [][]string{header}
		for i, row := range rows {
			table = append(table, append([]string{fmt.Sprint(i + 1)}, row...))
		}
		sections = append(sections, renderer.Section{Title: tab, Table: table})
	}
	return renderer.Document(m.Title, sections)
}

// Close renders the document to the output, if anything was written.
func (m *Markdown) Close() error {
	m.mu.Lock()
	written := m.written
	m.mu.Unlock()
	if m.Output == nil || !written {
		return nil
	}
	return m.Output(m.Render())
}
