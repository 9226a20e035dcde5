package ai

import (
	"errors"
	"fmt"
)

var (
	ErrTimeout           = errors.New("scoring timed out")
	ErrQuota             = errors.New("scoring quota exhausted")
	ErrMalformedResponse = errors.New("malformed scoring response")
	ErrProvider          = errors.New("scoring provider failed")
)

// ScoringError is returned by real scorers. It matches both its Kind and the
// underlying cause with errors.Is.
type ScoringError struct {
	Provider string
	Kind     error
	Err      error
}

func NewScoringError(provider string, kind, err error) *ScoringError {
	if kind == nil {
		kind = ErrProvider
	}
	return &ScoringError{Provider: provider, Kind: kind, Err: err}
}

func (e *ScoringError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ScoringError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
