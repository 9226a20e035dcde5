package report

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
)

// Record is the screening outcome for one resume. Score is nil when no score
// could be produced.
type Record struct {
	Filename   string   `json:"filename"`
	Score      *float64 `json:"score"`
	Feedback   string   `json:"feedback"`
	Highlights []string `json:"highlights"`
	// Error holds the diagnostic for degraded records. It is not exported to CSV.
	Error string `json:"error,omitempty"`
}

// BatchReport holds the records of one screening run in input order.
type BatchReport struct {
	RunID     uuid.UUID `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	Records   []Record  `json:"records"`
}

func NewBatchReport() *BatchReport {
	return &BatchReport{
		RunID:     uuid.New(),
		CreatedAt: time.Now().UTC(),
		Records:   make([]Record, 0),
	}
}

func (b *BatchReport) Append(r Record) {
	b.Records = append(b.Records, r)
}

func (b *BatchReport) Len() int {
	return len(b.Records)
}

// Filenames returns record file names in order.
func (b *BatchReport) Filenames() []string {
	names := make([]string, 0, len(b.Records))
	for _, r := range b.Records {
		names = append(names, r.Filename)
	}
	return names
}

// CSV serializes the records as the export document.
func (b *BatchReport) CSV() ([]byte, error) {
	_, export, err := Assemble(b.Records)
	if err != nil {
		return nil, err
	}
	return export.Data, nil
}

func (b *BatchReport) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "screening_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return "", err
	}
	return file.Name(), nil
}
