package intake

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/document"
)

type formatFilter struct{}

// NewSupportedFormats creates a filter that keeps only .pdf and .docx files.
func NewSupportedFormats() Filter {
	return &formatFilter{}
}

func (f *formatFilter) Name() string { return "supported_formats" }

func (f *formatFilter) Apply(_ context.Context, deps Deps, paths []string) ([]string, Step, error) {
	initial := len(paths)
	kept, dropped := keep(paths, func(path string) bool {
		return document.FormatFromName(filepath.Base(path)) != document.FormatUnknown
	})

	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Info("skipping files with unsupported format",
			zap.Strings("skipped_files", dropped),
			zap.Int("files_left", len(kept)),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(dropped), Left: len(kept)}, nil
}
