package intake

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

type excludeFileFilter struct {
	path string
}

// NewExcludeFile creates a filter that removes resumes listed in the history
// file. An empty path disables it.
func NewExcludeFile(path string) Filter {
	return &excludeFileFilter{path: strings.TrimSpace(path)}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, paths []string) ([]string, Step, error) {
	initial := len(paths)
	if f.path == "" {
		return paths, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	history, err := LoadHistory(f.path)
	if err != nil {
		return nil, Step{}, fmt.Errorf("getting screened resumes from file: %w", err)
	}

	screened := make(map[string]struct{}, history.Len())
	for _, name := range history.Names() {
		screened[name] = struct{}{}
	}

	kept, dropped := keep(paths, func(path string) bool {
		_, seen := screened[filepath.Base(path)]
		return !seen
	})

	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Info("excluding resumes based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_resumes", dropped),
			zap.Int("resumes_left", len(kept)),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(dropped), Left: len(kept)}, nil
}
