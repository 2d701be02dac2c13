package extractor

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"bankcap/internal/apperrors"
)

// rawRow holds the cell texts of one table row.
type rawRow struct {
	cells      []string
	nameLinked bool // second cell contains an anchor
}

// cellRef points at a cell that has not been closed yet.
type cellRef struct {
	idx    int
	tables int // nested table level the cell was opened at
}

// rowBuilder accumulates one <tr>. A row also collects the cells of tables nested
// inside it, the same way a recursive search for <td> would.
type rowBuilder struct {
	tables int
	cells  []*strings.Builder
	open   []cellRef
	linked bool
}

func (r *rowBuilder) openCell(tables int) {
	// A <td> at the same level as an unclosed one implicitly ends it.
	if n := len(r.open); n > 0 && r.open[n-1].tables == tables {
		r.open = r.open[:n-1]
	}
	r.cells = append(r.cells, &strings.Builder{})
	r.open = append(r.open, cellRef{idx: len(r.cells) - 1, tables: tables})
}

// closeCells ends every open cell opened at level or deeper.
func (r *rowBuilder) closeCells(level int) {
	for n := len(r.open); n > 0 && r.open[n-1].tables >= level; n-- {
		r.open = r.open[:n-1]
	}
}

func (r *rowBuilder) write(text string) {
	for _, c := range r.open {
		r.cells[c.idx].WriteString(text)
	}
}

func (r *rowBuilder) inCell(idx int) bool {
	for _, c := range r.open {
		if c.idx == idx {
			return true
		}
	}
	return false
}

// bodyScanner walks the tokens of the first <tbody> and its descendants.
type bodyScanner struct {
	depth  int // <tbody> nesting, 1 inside the first body
	tables int // <table> nesting inside the first body
	rows   []*rowBuilder
	open   []*rowBuilder
}

// closeRows ends the innermost open rows opened at level or deeper.
func (s *bodyScanner) closeRows(level int) {
	for n := len(s.open); n > 0 && s.open[n-1].tables >= level; n-- {
		s.open = s.open[:n-1]
	}
}

func (s *bodyScanner) start(a atom.Atom) {
	switch a {
	case atom.Tbody:
		s.depth++
	case atom.Table:
		s.tables++
	case atom.Tr:
		s.closeRows(s.tables)
		r := &rowBuilder{tables: s.tables}
		s.rows = append(s.rows, r)
		s.open = append(s.open, r)
	case atom.Td:
		for _, r := range s.open {
			r.openCell(s.tables)
		}
	case atom.A:
		for _, r := range s.open {
			if r.inCell(1) {
				r.linked = true
			}
		}
	}
}

// end handles a closing tag and reports whether the first body is complete.
func (s *bodyScanner) end(a atom.Atom) bool {
	switch a {
	case atom.Tbody:
		s.depth--
		return s.depth == 0
	case atom.Table:
		if s.tables > 0 {
			s.closeRows(s.tables)
			for _, r := range s.open {
				r.closeCells(s.tables)
			}
			s.tables--
		}
	case atom.Tr:
		s.closeRows(s.tables)
	case atom.Td:
		for _, r := range s.open {
			r.closeCells(s.tables)
		}
	}
	return false
}

func (s *bodyScanner) result() []rawRow {
	out := make([]rawRow, len(s.rows))
	for i, r := range s.rows {
		out[i].nameLinked = r.linked
		for _, c := range r.cells {
			out[i].cells = append(out[i].cells, c.String())
		}
	}
	return out
}

// scanFirstBody tokenizes markup and returns the rows of the first literal <tbody>.
// Markup without a <tbody> tag is a structure error; an unterminated body ends at EOF.
func scanFirstBody(markup string) ([]rawRow, error) {
	z := html.NewTokenizer(strings.NewReader(markup))
	var s *bodyScanner
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return nil, fmt.Errorf("%w: tokenize markup: %v", apperrors.ErrStructure, err)
			}
			if s == nil {
				return nil, fmt.Errorf("%w: no table body found", apperrors.ErrStructure)
			}
			return s.result(), nil
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if s == nil {
				if a == atom.Tbody {
					s = &bodyScanner{depth: 1}
					if tt == html.SelfClosingTagToken {
						return s.result(), nil
					}
				}
				continue
			}
			if tt == html.SelfClosingTagToken && a != atom.A {
				continue
			}
			s.start(a)
		case html.EndTagToken:
			if s == nil {
				continue
			}
			name, _ := z.TagName()
			if s.end(atom.Lookup(name)) {
				return s.result(), nil
			}
		case html.TextToken:
			if s != nil {
				text := string(z.Text())
				for _, r := range s.open {
					r.write(text)
				}
			}
		}
	}
}
