package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/document-condenser/internal/agent/document/pdf"
	"github.com/feichai0017/document-condenser/internal/agent/document/text"
	"github.com/feichai0017/document-condenser/internal/models"
	"github.com/feichai0017/document-condenser/pkg/logger"
)

func TestResolver_Resolve(t *testing.T) {
	r := NewResolver(logger.NewNop())

	tests := []struct {
		name     string
		mimeType string
		wantPDF  bool
		wantText bool
	}{
		{name: "pdf", mimeType: "application/pdf", wantPDF: true},
		{name: "pdf upper case", mimeType: "Application/PDF", wantPDF: true},
		{name: "plain", mimeType: "text/plain", wantText: true},
		{name: "plain with charset", mimeType: "text/plain; charset=utf-8", wantText: true},
		{name: "malformed params", mimeType: "TEXT/PLAIN;;", wantText: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex, err := r.Resolve(tt.mimeType)
			require.NoError(t, err)
			_, isPDF := ex.(*pdf.Processor)
			_, isText := ex.(*text.Processor)
			assert.Equal(t, tt.wantPDF, isPDF)
			assert.Equal(t, tt.wantText, isText)
		})
	}
}

func TestResolver_Unsupported(t *testing.T) {
	log := logger.NewTestLogger()
	r := NewResolver(log)

	for _, mimeType := range []string{"", "image/png", "application/msword", "text/html"} {
		ex, err := r.Resolve(mimeType)
		assert.Nil(t, ex)

		var unsupported *models.UnsupportedTypeError
		require.ErrorAs(t, err, &unsupported)
		assert.Equal(t, mimeType, unsupported.MimeType)
	}
	assert.Len(t, log.Messages("WARN"), 4)
}

func TestResolver_CustomExtractors(t *testing.T) {
	only := text.NewProcessor(logger.NewNop())
	r := NewResolver(logger.NewNop(), only)

	ex, err := r.Resolve(models.MimePlain)
	require.NoError(t, err)
	assert.Same(t, only, ex)

	_, err = r.Resolve(models.MimePDF)
	assert.Error(t, err)
}

func TestDeclaredType(t *testing.T) {
	tests := []struct {
		name string
		file string
		head []byte
		want string
	}{
		{name: "pdf magic", file: "scan.bin", head: []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n"), want: models.MimePDF},
		{name: "text content", file: "README", head: []byte("hello there\n"), want: models.MimePlain},
		{name: "extension only", file: "report.PDF", want: models.MimePDF},
		{name: "txt extension", file: "notes.txt", want: models.MimePlain},
		{name: "png", file: "pic.png", head: []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), want: "image/png"},
		{name: "nothing known", file: "blob"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeclaredType(tt.file, tt.head))
		})
	}
}
