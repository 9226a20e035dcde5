package extract

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/document"
	"github.com/spigell/resume-screener/internal/logger"
)

// Result is the outcome of extracting one document. Empty Text with a nil Err
// is a valid outcome, e.g. a scanned PDF without a text layer.
type Result struct {
	Name string
	Text string
	Err  error
}

// Extractor converts document payloads into plain text.
type Extractor struct {
	logger  *zap.Logger
	tempDir string
}

type Option func(*Extractor)

// WithTempDir sets the directory for transient files. Empty means os.TempDir.
func WithTempDir(dir string) Option {
	return func(e *Extractor) {
		e.tempDir = dir
	}
}

func New(log *zap.Logger, opts ...Option) *Extractor {
	e := &Extractor{logger: logger.WithFields(log)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract never panics. Failures are reported through Result.Err.
func (e *Extractor) Extract(doc document.Document) (result Result) {
	result.Name = doc.Name
	log := e.logger.With(logger.DocumentFields(-1, doc.Name, doc.Format.String())...)

	defer func() {
		if r := recover(); r != nil {
			result.Text = ""
			result.Err = newError(doc, "parse", fmt.Errorf("panic: %v", r))
		}
	}()

	var (
		text string
		err  error
	)

	switch doc.Format {
	case document.FormatPDF:
		text, err = e.extractPDF(doc, log)
	case document.FormatDOCX:
		text, err = e.extractDOCX(doc, log)
	default:
		log.Debug("unsupported format, treating as empty")
		return result
	}

	if err != nil {
		result.Err = err
		return result
	}

	log.Debug("text extracted", zap.Int("length", len(text)))
	result.Text = text
	return result
}
