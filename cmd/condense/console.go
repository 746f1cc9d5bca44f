package main

import (
	"fmt"
	"io"

	"github.com/feichai0017/document-condenser/internal/models"
)

// consoleSink prints status to errOut and the final presentation to out.
type consoleSink struct {
	out      io.Writer
	errOut   io.Writer
	notified bool
}

func newConsoleSink(out, errOut io.Writer) *consoleSink {
	return &consoleSink{out: out, errOut: errOut}
}

func (s *consoleSink) Status(label string) {
	fmt.Fprintln(s.errOut, label)
}

func (s *consoleSink) Progress(p models.ExtractionProgress) {
	fmt.Fprintf(s.errOut, "[%d/%d] %s\n", p.Current, p.Total, p.Label)
}

func (s *consoleSink) Busy(busy bool) {
	if busy {
		fmt.Fprintln(s.errOut, "Condensing...")
	}
}

func (s *consoleSink) Notify(err error) {
	s.notified = true
	fmt.Fprintf(s.errOut, "Error: %v\n", err)
}

func (s *consoleSink) Result(p models.Presentation) {
	fmt.Fprintf(s.out, "Original size:  %s\n", p.OriginalSize)
	fmt.Fprintf(s.out, "Processed size: %s\n", p.ProcessedSize)
	fmt.Fprintf(s.out, "Reduction:      %s\n", p.Reduction)
	fmt.Fprintf(s.out, "Artifact:       %s\n", p.Download)
}
