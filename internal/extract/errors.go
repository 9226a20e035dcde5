package extract

import (
	"errors"
	"fmt"

	"github.com/spigell/resume-screener/internal/document"
)

// ErrExtraction is matched by every error produced by the Extractor.
var ErrExtraction = errors.New("text extraction failed")

// Error describes a failed extraction of a single document. It never aborts a
// batch; the pipeline degrades the document to empty text.
type Error struct {
	Document string
	Format   document.Format
	Op       string
	Err      error
}

func newError(doc document.Document, op string, err error) *Error {
	return &Error{
		Document: doc.Name,
		Format:   doc.Format,
		Op:       op,
		Err:      err,
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s (%s): %s: %v", e.Format, ErrExtraction, e.Document, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrExtraction
}
