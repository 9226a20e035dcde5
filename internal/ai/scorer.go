package ai

import (
	"context"
)

// Assessment is a scorer's verdict on one resume. Score is nil when no score
// could be produced.
type Assessment struct {
	Score      *float64
	Feedback   string
	Highlights []string
	Raw        string
}

// Scorer rates resume text against a job description. Implementations report
// provider failures as *ScoringError; a low score is never an error.
type Scorer interface {
	Score(ctx context.Context, jobDescription, resumeText string) (*Assessment, error)
}

// ScoreValue returns a pointer to v, for building assessments.
func ScoreValue(v float64) *float64 {
	return &v
}
