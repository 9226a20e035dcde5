package gemini

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/util"
)

const defaultMaxLogLength = 200

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	GenerateContentWithCache(ctx context.Context, prompt, cacheName string) (string, error)
	EnsureContextCache(ctx context.Context, displayName, payload string) (string, error)
}

// Scorer rates resumes with a Gemini model.
type Scorer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int

	cacheJobDescription bool
	cacheDisabled       atomic.Bool
}

type Option func(*Scorer)

func WithMaxLogLength(n int) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.maxLogLen = n
		}
	}
}

// WithJobDescriptionCache sends the job description once as cached content
// instead of repeating it in every prompt.
func WithJobDescriptionCache(enabled bool) Option {
	return func(s *Scorer) {
		s.cacheJobDescription = enabled
	}
}

func NewScorer(generator contentGenerator, logger *zap.Logger, opts ...Option) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Scorer{
		generator: generator,
		logger:    logger,
		maxLogLen: defaultMaxLogLength,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scorer) Score(ctx context.Context, jobDescription, resumeText string) (*ai.Assessment, error) {
	if strings.TrimSpace(resumeText) == "" {
		return nil, ai.NewScoringError(Provider, ai.ErrProvider, errors.New("resume text is required"))
	}

	var (
		raw string
		err error
	)

	if cacheName := s.jobDescriptionCache(ctx, jobDescription); cacheName != "" {
		prompt := ai.BuildPrompt(ai.CachedJobDescriptionNote, resumeText)
		s.logRequest(prompt, cacheName)
		raw, err = s.generator.GenerateContentWithCache(ctx, prompt, cacheName)
	} else {
		prompt := ai.BuildPrompt(jobDescription, resumeText)
		s.logRequest(prompt, "")
		raw, err = s.generator.GenerateContent(ctx, prompt)
	}

	if err != nil {
		var scoringErr *ai.ScoringError
		if errors.As(err, &scoringErr) {
			return nil, err
		}
		return nil, ai.NewScoringError(Provider, ai.ErrProvider, err)
	}

	s.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", util.TruncateForLog(raw, s.maxLogLen)),
	)

	assessment, err := ai.ParseAssessment(raw)
	if err != nil {
		return nil, ai.NewScoringError(Provider, ai.ErrMalformedResponse, err)
	}

	return assessment, nil
}

// jobDescriptionCache returns the cache name to use, or "" when prompts must
// carry the job description inline. A failed cache creation disables caching
// for the rest of the run.
func (s *Scorer) jobDescriptionCache(ctx context.Context, jobDescription string) string {
	if !s.cacheJobDescription || s.cacheDisabled.Load() {
		return ""
	}

	name, err := s.generator.EnsureContextCache(ctx, "job-description", "[Job description]\n"+strings.TrimSpace(jobDescription))
	if err != nil {
		s.cacheDisabled.Store(true)
		s.logger.Warn("job description cache unavailable, sending it inline", zap.Error(err))
		return ""
	}

	return name
}

func (s *Scorer) logRequest(prompt, cacheName string) {
	fields := []zap.Field{
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", util.TruncateForLog(prompt, s.maxLogLen)),
	}
	if cacheName != "" {
		fields = append(fields, zap.String("cache", cacheName))
	}

	s.logger.Debug("gemini generate content request", fields...)
}
