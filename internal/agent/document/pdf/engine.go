package pdf

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Engine is the page-parsing capability the extractor drives.
type Engine interface {
	Open(ctx context.Context, data []byte) (Document, error)
}

// Document is an opened PDF. Pages are numbered from 1.
type Document interface {
	NumPage() int
	Page(ctx context.Context, index int) (Page, error)
}

// Page yields its text fragments in content order.
type Page interface {
	TextContent(ctx context.Context) ([]TextItem, error)
}

// TextItem is one run of text on a page.
type TextItem struct {
	Text string
}

// LedongthucEngine reads PDFs with github.com/ledongthuc/pdf.
type LedongthucEngine struct{}

func (LedongthucEngine) Open(_ context.Context, data []byte) (Document, error) {
	reader := bytes.NewReader(data)
	r, err := pdf.NewReader(reader, reader.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	return &ledongthucDocument{reader: r}, nil
}

type ledongthucDocument struct {
	reader *pdf.Reader
}

func (d *ledongthucDocument) NumPage() int {
	return d.reader.NumPage()
}

func (d *ledongthucDocument) Page(_ context.Context, index int) (Page, error) {
	if index < 1 || index > d.reader.NumPage() {
		return nil, fmt.Errorf("page %d out of range", index)
	}
	return ledongthucPage{page: d.reader.Page(index)}, nil
}

type ledongthucPage struct {
	page pdf.Page
}

// TextContent groups the library's per-glyph output into runs: glyphs on the
// same baseline with no visible gap belong to one item.
func (p ledongthucPage) TextContent(_ context.Context) ([]TextItem, error) {
	if p.page.V.IsNull() {
		return nil, nil
	}
	return groupRuns(p.page.Content().Text), nil
}

const baselineTolerance = 0.5

func groupRuns(glyphs []pdf.Text) []TextItem {
	var (
		items []TextItem
		run   strings.Builder
		prev  pdf.Text
	)
	flush := func() {
		if s := strings.TrimSpace(run.String()); s != "" {
			items = append(items, TextItem{Text: s})
		}
		run.Reset()
	}

	for i, g := range glyphs {
		if i > 0 && !sameRun(prev, g) {
			flush()
		}
		run.WriteString(g.S)
		prev = g
	}
	flush()
	return items
}

func sameRun(prev, next pdf.Text) bool {
	if math.Abs(prev.Y-next.Y) > baselineTolerance {
		return false
	}
	tol := prev.FontSize * 0.25
	if tol <= 0 {
		tol = 1
	}
	gap := next.X - (prev.X + prev.W)
	return gap > -tol && gap < tol
}
