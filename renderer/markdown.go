package renderer

import (
	"bytes"
	"slices"

	md "github.com/nao1215/markdown"
)

// Markdown renders a table as a markdown section. The first row is the header.
// An empty title renders the table alone.
func Markdown(title string, table [][]string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	if title != "" {
		doc.H2(title)
	}
	if len(table) == 0 {
		return doc.String()
	}
	rows := slices.Clone(table[1:])
	width := len(table[0])
	// markdown tables need rectangular rows.
	for i, row := range rows {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			rows[i] = padded
		}
	}
	// Headers are labels, keep them as written.
	doc.CustomTable(md.TableSet{
		Header: table[0],
		Rows:   rows,
	}, md.TableOptions{AutoFormatHeaders: false})
	return doc.String()
}

// Document renders several titled tables as a single markdown document.
func Document(title string, sections []Section) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1(title)
	out := doc.String()
	for _, s := range sections {
		out += "\n" + Markdown(s.Title, s.Table)
	}
	return out
}

// Section is a titled table of a Document.
type Section struct {
	Title string
	Table [][]string
}
