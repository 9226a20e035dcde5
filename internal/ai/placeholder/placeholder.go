// Package placeholder provides a fixed scorer used to exercise the screening
// pipeline without a model backend.
package placeholder

import (
	"context"

	"github.com/spigell/resume-screener/internal/ai"
)

const (
	Provider = "placeholder"

	Score    = 85
	Feedback = "Good match for the job description."
)

// Highlights returns the fixed highlights. A fresh slice is returned on every call.
func Highlights() []string {
	return []string{"Python", "Django", "SQL"}
}

type Scorer struct{}

func New() *Scorer {
	return &Scorer{}
}

// Score ignores its inputs.
func (s *Scorer) Score(_ context.Context, _, _ string) (*ai.Assessment, error) {
	return &ai.Assessment{
		Score:      ai.ScoreValue(Score),
		Feedback:   Feedback,
		Highlights: Highlights(),
	}, nil
}
