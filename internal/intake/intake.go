package intake

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/document"
)

// Filter represents a single selection step applied to resume paths.
type Filter interface {
	Name() string
	Apply(ctx context.Context, deps Deps, paths []string) ([]string, Step, error)
}

// Deps aggregates dependencies shared across all steps.
type Deps struct {
	Logger *zap.Logger
}

// Step describes the result of executing a filter.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Run executes the filters sequentially. Every filter keeps the relative order
// of the paths it lets through.
func Run(ctx context.Context, deps Deps, steps []Filter, paths []string) ([]string, error) {
	for _, step := range steps {
		next, info, err := step.Apply(ctx, deps, paths)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if deps.Logger != nil {
			deps.Logger.Info("intake step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		paths = next
	}

	return paths, nil
}

// Collect expands directories into the files they contain (not recursively)
// and keeps plain files as given. Directory entries come in lexical order.
func Collect(paths []string) ([]string, error) {
	collected := make([]string, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("inspecting %q: %w", path, err)
		}

		if !info.IsDir() {
			collected = append(collected, path)
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("listing %q: %w", path, err)
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			collected = append(collected, filepath.Join(path, entry.Name()))
		}
	}

	return collected, nil
}

// Load reads the files into documents, preserving order.
func Load(paths []string) ([]document.Document, error) {
	docs := make([]document.Document, 0, len(paths))
	for _, path := range paths {
		doc, err := document.Load(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// keep returns the paths for which fn is true and the base names of the rest.
func keep(paths []string, fn func(path string) bool) ([]string, []string) {
	kept := make([]string, 0, len(paths))
	var dropped []string
	for _, path := range paths {
		if fn(path) {
			kept = append(kept, path)
			continue
		}
		dropped = append(dropped, filepath.Base(path))
	}
	return kept, dropped
}
