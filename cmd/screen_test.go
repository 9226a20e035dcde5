package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/resume-screener/internal/ai/placeholder"
	"github.com/spigell/resume-screener/internal/intake"
	"github.com/spigell/resume-screener/internal/report"
)

func sampleBatch() *report.BatchReport {
	batch := report.NewBatchReport()
	s := 85.0
	batch.Append(report.Record{Filename: "resume_A.pdf", Score: &s, Feedback: "Good match for the job description.", Highlights: []string{"Python", "Django", "SQL"}})
	batch.Append(report.Record{Filename: "resume_B.docx", Feedback: "No text extracted.", Highlights: []string{}})
	return batch
}

func TestReadJobDescription(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "job.txt")
	if err := os.WriteFile(file, []byte("  Backend engineer\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	blank := filepath.Join(dir, "blank.txt")
	if err := os.WriteFile(blank, []byte("\n \n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	tests := []struct {
		name    string
		text    string
		file    string
		stdin   string
		want    string
		wantErr bool
	}{
		{name: "inline text wins", text: " Data engineer ", file: file, want: "Data engineer"},
		{name: "file", file: file, want: "Backend engineer"},
		{name: "stdin", file: "-", stdin: "From stdin\n", want: "From stdin"},
		{name: "nothing given", wantErr: true},
		{name: "blank file", file: blank, wantErr: true},
		{name: "missing file", file: filepath.Join(dir, "missing.txt"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readJobDescription(tt.text, tt.file, strings.NewReader(tt.stdin))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExportCSV(t *testing.T) {
	dir := t.TempDir()

	path, err := exportCSV(sampleBatch(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != filepath.Join(dir, "screening_results.csv") {
		t.Fatalf("unexpected export path: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	expected := "filename,score,feedback,highlights\n" +
		"resume_A.pdf,85,Good match for the job description.,\"Python, Django, SQL\"\n" +
		"resume_B.docx,,No text extracted.,\n"
	if string(data) != expected {
		t.Fatalf("unexpected export:\n%s", data)
	}

	custom := filepath.Join(dir, "out.csv")
	if path, err := exportCSV(sampleBatch(), custom); err != nil || path != custom {
		t.Fatalf("unexpected result: %s %v", path, err)
	}
}

func TestHandleActionAppendToExcludeFile(t *testing.T) {
	excludeFile := filepath.Join(t.TempDir(), "screened.json")
	config := &Config{ExcludeFile: excludeFile}

	if err := handleAction(PromptAppendToExcludeFile, zap.NewNop(), config, sampleBatch()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	history, err := intake.LoadHistory(excludeFile)
	if err != nil {
		t.Fatalf("load history: %v", err)
	}
	if strings.Join(history.Names(), ",") != "resume_A.pdf,resume_B.docx" {
		t.Fatalf("unexpected history: %v", history.Names())
	}

	if err := handleAction(PromptExit, zap.NewNop(), config, sampleBatch()); !errors.Is(err, errExit) {
		t.Fatalf("expected errExit, got %v", err)
	}
	if err := handleAction("unknown", zap.NewNop(), config, sampleBatch()); err == nil {
		t.Fatal("expected error for unknown action")
	}
}

func TestActions(t *testing.T) {
	items := actions(&Config{})
	for _, item := range items {
		if item == PromptAppendToExcludeFile {
			t.Fatal("append action requires an exclude file")
		}
	}
	if items[len(items)-1] != PromptExit {
		t.Fatalf("expected exit to be last, got %v", items)
	}

	if items := actions(&Config{ExcludeFile: "screened.json"}); len(items) != 5 {
		t.Fatalf("expected 5 actions, got %v", items)
	}
}

func TestNewScorer(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	scorer, err := newScorer(context.Background(), &ScorerConfig{Provider: " Placeholder "}, zap.New(core))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := scorer.(*placeholder.Scorer); !ok {
		t.Fatalf("expected placeholder scorer, got %T", scorer)
	}
	if observed.Len() != 1 {
		t.Fatalf("expected placeholder notice to be logged")
	}

	if _, err := newScorer(context.Background(), &ScorerConfig{Provider: "claude"}, zap.NewNop()); err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}

func TestNewScorerRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	for _, provider := range []string{"openrouter", "gemini"} {
		_, err := newScorer(context.Background(), &ScorerConfig{Provider: provider}, zap.NewNop())
		if err == nil || !strings.Contains(err.Error(), "api key is not configured") {
			t.Fatalf("%s: expected missing key error, got %v", provider, err)
		}
	}
}

func TestNewScorerOpenRouter(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-test")

	scorer, err := newScorer(context.Background(), &ScorerConfig{Provider: "openrouter"}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scorer == nil {
		t.Fatal("expected scorer")
	}
}
