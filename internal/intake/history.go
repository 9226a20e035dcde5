package intake

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/spigell/resume-screener/internal/report"
)

// History is the list of already screened resumes kept in the exclude file.
type History struct {
	Items []*Screened
}

type Screened struct {
	Name       string
	Score      *float64
	RunID      string
	ScreenedAt time.Time
}

// LoadHistory reads the exclude file. A missing or empty file is an empty history.
func LoadHistory(path string) (*History, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &History{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &History{}, nil
	}

	var history History
	if err := json.NewDecoder(file).Decode(&history); err != nil {
		return nil, err
	}
	return &history, nil
}

// FromReport converts the records of a run into history entries.
func FromReport(batch *report.BatchReport) *History {
	history := &History{}
	now := time.Now().UTC()
	for _, r := range batch.Records {
		history.Items = append(history.Items, &Screened{
			Name:       r.Filename,
			Score:      r.Score,
			RunID:      batch.RunID.String(),
			ScreenedAt: now,
		})
	}
	return history
}

func (h *History) Append(s *History) {
	h.Items = append(h.Items, s.Items...)
}

func (h *History) Len() int {
	return len(h.Items)
}

func (h *History) Names() []string {
	names := make([]string, 0, len(h.Items))
	for _, item := range h.Items {
		names = append(names, item.Name)
	}
	return names
}

func (h *History) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(h)
}
