package openrouter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/util"
)

const (
	Provider = "openrouter"

	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "openai/gpt-4o-mini"
	DefaultTimeout = 60 * time.Second

	systemMessage       = "You are an assistant that screens resumes against a job description and answers in JSON."
	completionsPath     = "/chat/completions"
	contentPath         = "choices.0.message.content"
	errorMessagePath    = "error.message"
	defaultMaxLogLength = 200
)

// Config describes the OpenRouter endpoint.
type Config struct {
	APIKey       string
	Model        string
	BaseURL      string
	Timeout      time.Duration
	MaxLogLength int
}

// Scorer rates resumes through the OpenAI-compatible chat completions API of
// OpenRouter.
type Scorer struct {
	client    *resty.Client
	model     string
	logger    *zap.Logger
	maxLogLen int
}

func NewScorer(cfg Config, logger *zap.Logger) (*Scorer, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("openrouter api key is required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	maxLogLen := cfg.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Scorer{
		client:    client,
		model:     model,
		logger:    logger,
		maxLogLen: maxLogLen,
	}, nil
}

func (s *Scorer) Model() string {
	return s.model
}

func (s *Scorer) Score(ctx context.Context, jobDescription, resumeText string) (*ai.Assessment, error) {
	if strings.TrimSpace(resumeText) == "" {
		return nil, ai.NewScoringError(Provider, ai.ErrProvider, errors.New("resume text is required"))
	}

	prompt := ai.BuildPrompt(jobDescription, resumeText)

	s.logger.Debug("openrouter chat completion request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", util.TruncateForLog(prompt, s.maxLogLen)),
	)

	content, err := s.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("openrouter chat completion response",
		zap.Int("response_length", utf8.RuneCountInString(content)),
		zap.String("response_preview", util.TruncateForLog(content, s.maxLogLen)),
	)

	assessment, err := ai.ParseAssessment(content)
	if err != nil {
		return nil, ai.NewScoringError(Provider, ai.ErrMalformedResponse, err)
	}

	return assessment, nil
}

func (s *Scorer) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"model": s.model,
			"messages": []map[string]string{
				{"role": "system", "content": systemMessage},
				{"role": "user", "content": prompt},
			},
			"response_format": map[string]string{"type": "json_object"},
		}).
		Post(completionsPath)
	if err != nil {
		return "", ai.NewScoringError(Provider, classifyTransport(ctx, err), fmt.Errorf("chat completion: %w", err))
	}

	body := resp.Body()

	if resp.IsError() {
		message := gjson.GetBytes(body, errorMessagePath).String()
		if message == "" {
			message = util.TruncateForLog(strings.TrimSpace(string(body)), s.maxLogLen)
		}
		return "", ai.NewScoringError(Provider, classifyStatus(resp.StatusCode()),
			fmt.Errorf("chat completion: status %d: %s", resp.StatusCode(), message))
	}

	content := strings.TrimSpace(gjson.GetBytes(body, contentPath).String())
	if content == "" {
		return "", ai.NewScoringError(Provider, ai.ErrMalformedResponse, errors.New("openrouter returned empty content"))
	}

	return content, nil
}

func classifyStatus(code int) error {
	switch {
	case code == http.StatusTooManyRequests || code == http.StatusPaymentRequired:
		return ai.ErrQuota
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return ai.ErrTimeout
	default:
		return ai.ErrProvider
	}
}

func classifyTransport(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return ai.ErrTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ai.ErrTimeout
	}

	return ai.ErrProvider
}
