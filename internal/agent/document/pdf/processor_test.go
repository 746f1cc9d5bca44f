package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	ledongthuc "github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/document-condenser/internal/models"
	"github.com/feichai0017/document-condenser/internal/status"
	"github.com/feichai0017/document-condenser/pkg/logger"
)

type fakeEngine struct {
	pages   [][]string
	openErr error
	pageErr map[int]error
	panicAt int
	fetched []int
}

func (e *fakeEngine) Open(_ context.Context, data []byte) (Document, error) {
	if e.openErr != nil {
		return nil, e.openErr
	}
	return &fakeDocument{engine: e}, nil
}

type fakeDocument struct {
	engine *fakeEngine
}

func (d *fakeDocument) NumPage() int { return len(d.engine.pages) }

func (d *fakeDocument) Page(_ context.Context, index int) (Page, error) {
	d.engine.fetched = append(d.engine.fetched, index)
	if d.engine.panicAt == index {
		panic("malformed xref")
	}
	if err := d.engine.pageErr[index]; err != nil {
		return nil, err
	}
	return fakePage(d.engine.pages[index-1]), nil
}

type fakePage []string

func (p fakePage) TextContent(context.Context) ([]TextItem, error) {
	items := make([]TextItem, len(p))
	for i, s := range p {
		items[i] = TextItem{Text: s}
	}
	return items, nil
}

var report = models.UploadedFile{Name: "report.pdf", MimeType: models.MimePDF, Size: 4}

func TestProcessor_ExtractsPagesInOrder(t *testing.T) {
	engine := &fakeEngine{pages: [][]string{
		{"Hello", "world"},
		{"second"},
		{},
		{"a", "b", "c"},
	}}
	p := NewProcessor(logger.NewNop(), WithEngine(engine))
	sink := status.NewRecorder()

	doc, err := p.Extract(context.Background(), report, strings.NewReader("%PDF"), sink)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 4}, engine.fetched)
	assert.Equal(t, "Hello world\nsecond\n\na b c\n", doc.Text)
	assert.Equal(t, 4, doc.Pages)
	require.NotNil(t, doc.Source)
	assert.Equal(t, "report.pdf", doc.Source.Name)

	require.Len(t, sink.Progresses, 4)
	for i, prog := range sink.Progresses {
		assert.Equal(t, i+1, prog.Current)
		assert.Equal(t, 4, prog.Total)
		assert.Equal(t, fmt.Sprintf("Processing page %d/4...", i+1), prog.Label)
	}
	assert.Equal(t, "Processing report.pdf...", sink.Labels[0])
	assert.Equal(t, "report.pdf (26 Bytes)", sink.LastLabel())
	assert.Zero(t, sink.NotificationCount())
}

func TestProcessor_ConcatenationMatchesPageTexts(t *testing.T) {
	const n = 25
	pages := make([][]string, n)
	var want strings.Builder
	for i := range pages {
		pages[i] = []string{fmt.Sprintf("p%d", i+1)}
		want.WriteString(fmt.Sprintf("p%d\n", i+1))
	}
	engine := &fakeEngine{pages: pages}

	doc, err := NewProcessor(logger.NewNop(), WithEngine(engine)).
		Extract(context.Background(), report, strings.NewReader(""), status.Discard)
	require.NoError(t, err)
	assert.Equal(t, want.String(), doc.Text)
	assert.Len(t, engine.fetched, n)
}

func TestProcessor_OpenFailure(t *testing.T) {
	engine := &fakeEngine{openErr: errors.New("not a PDF file")}
	sink := status.NewRecorder()

	doc, err := NewProcessor(logger.NewNop(), WithEngine(engine)).
		Extract(context.Background(), report, strings.NewReader("junk"), sink)

	var extErr *models.ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, "report.pdf", extErr.File)
	assert.Zero(t, extErr.Page)
	assert.Empty(t, doc.Text)
	assert.Equal(t, "Error: Could not process report.pdf", sink.LastLabel())
	assert.Equal(t, 1, sink.NotificationCount())
	assert.Empty(t, engine.fetched)
}

func TestProcessor_PageFailureDiscardsPartialText(t *testing.T) {
	engine := &fakeEngine{
		pages:   [][]string{{"one"}, {"two"}, {"three"}},
		pageErr: map[int]error{2: errors.New("bad content stream")},
	}
	sink := status.NewRecorder()

	doc, err := NewProcessor(logger.NewNop(), WithEngine(engine)).
		Extract(context.Background(), report, strings.NewReader(""), sink)

	var extErr *models.ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, 2, extErr.Page)
	assert.Equal(t, models.ExtractedDocument{}, doc)
	assert.Equal(t, []int{1, 2}, engine.fetched)
	assert.Equal(t, 1, sink.NotificationCount())
}

func TestProcessor_RecoversEnginePanic(t *testing.T) {
	engine := &fakeEngine{pages: [][]string{{"x"}, {"y"}}, panicAt: 2}
	sink := status.NewRecorder()

	_, err := NewProcessor(logger.NewNop(), WithEngine(engine)).
		Extract(context.Background(), report, strings.NewReader(""), sink)

	var extErr *models.ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, 2, extErr.Page)
	assert.Contains(t, err.Error(), "malformed xref")
	assert.Equal(t, 1, sink.NotificationCount())
}

func TestProcessor_StopsOnCancelledContext(t *testing.T) {
	engine := &fakeEngine{pages: [][]string{{"x"}, {"y"}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProcessor(logger.NewNop(), WithEngine(engine)).
		Extract(ctx, report, strings.NewReader(""), status.Discard)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, engine.fetched)
}

func TestProcessor_PageLimit(t *testing.T) {
	engine := &fakeEngine{pages: [][]string{{"1"}, {"2"}, {"3"}}}

	_, err := NewProcessor(logger.NewNop(), WithEngine(engine), WithMaxPages(2)).
		Extract(context.Background(), report, strings.NewReader(""), status.Discard)

	assert.ErrorContains(t, err, "limit is 2")
	assert.Empty(t, engine.fetched)
}

func TestProcessor_DefaultEngineRejectsGarbage(t *testing.T) {
	sink := status.NewRecorder()

	_, err := NewProcessor(logger.NewNop()).
		Extract(context.Background(), report, bytes.NewReader([]byte("definitely not a pdf")), sink)

	var extErr *models.ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, 1, sink.NotificationCount())
}

func TestProcessor_DefaultEngineReadsPages(t *testing.T) {
	sink := status.NewRecorder()
	raw := buildTextPDF("Hello world", "Second page")

	doc, err := NewProcessor(logger.NewNop()).Extract(context.Background(), report, bytes.NewReader(raw), sink)
	require.NoError(t, err)

	assert.Equal(t, "Hello world\nSecond page\n", doc.Text)
	assert.Equal(t, 2, doc.Pages)
	require.Len(t, sink.Progresses, 2)
	assert.Equal(t, "Processing page 2/2...", sink.Progresses[1].Label)
	assert.Zero(t, sink.NotificationCount())
}

func TestProcessor_CanProcess(t *testing.T) {
	p := NewProcessor(logger.NewNop())
	assert.True(t, p.CanProcess(models.MimePDF))
	assert.False(t, p.CanProcess(models.MimePlain))
}

func TestGroupRuns(t *testing.T) {
	glyph := func(s string, x, y float64) ledongthuc.Text {
		return ledongthuc.Text{S: s, X: x, Y: y, W: 5, FontSize: 10}
	}
	glyphs := []ledongthuc.Text{
		glyph("H", 0, 700), glyph("i", 5, 700),
		// visible gap on the same line starts a new run
		glyph("t", 30, 700), glyph("o", 35, 700),
		// next line
		glyph("n", 0, 680), glyph("e", 5, 680), glyph("w", 10, 680),
		glyph(" ", 15, 680),
	}

	items := groupRuns(glyphs)
	assert.Equal(t, []TextItem{{Text: "Hi"}, {Text: "to"}, {Text: "new"}}, items)
	assert.Nil(t, groupRuns(nil))
}

// buildTextPDF writes a minimal PDF with one Helvetica text line per page
// and a correct xref table.
func buildTextPDF(pages ...string) []byte {
	var b strings.Builder
	objects := 3 + 2*len(pages)
	offsets := make([]int, objects+1)

	b.WriteString("%PDF-1.4\n")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	offsets[2] = b.Len()
	fmt.Fprintf(&b, "2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", strings.Join(kids, " "), len(pages))
	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	for i, text := range pages {
		pageObj, contentObj := 4+2*i, 5+2*i
		stream := "BT\n/F1 12 Tf\n72 720 Td\n(" + text + ") Tj\nET"

		offsets[pageObj] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources << /Font << /F1 3 0 R >> >> >>\nendobj\n", pageObj, contentObj)
		offsets[contentObj] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", contentObj, len(stream), stream)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", objects+1)
	for i := 1; i <= objects; i++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", objects+1, xref)
	return []byte(b.String())
}
