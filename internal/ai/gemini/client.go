package gemini

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/util"
)

const (
	Provider = "gemini"

	defaultModel      = "gemini-2.5-pro"
	defaultMaxRetries = 3
	baseRetryDelay    = 2 * time.Second
	maxRetryDelay     = 30 * time.Second
	contextCacheTTL   = 6 * time.Hour
	responseMIMEType  = "application/json"
)

var quotaDelayPattern = regexp.MustCompile(`(?i)retry (?:after|in) ([0-9]+(?:\.[0-9]+)?)\s*(?:s\b|sec|second)`)

type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type cachesAPI interface {
	Create(ctx context.Context, model string, config *genai.CreateCachedContentConfig) (*genai.CachedContent, error)
}

// Generator wraps the Google GenAI client with retries for temporary failures.
type Generator struct {
	models     modelsAPI
	caches     cachesAPI
	model      string
	maxRetries int
	logger     *zap.Logger
	wait       func(context.Context, time.Duration) error

	cacheMu      sync.Mutex
	contextCache map[string]string
}

// NewGenerator creates a Generator for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey, model string, maxRetries int, logger *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Generator{
		models:     client.Models,
		caches:     client.Caches,
		model:      model,
		maxRetries: maxRetries,
		logger:     logger,
		wait:       util.WaitFor,
	}, nil
}

// GenerateContent sends the prompt and returns the concatenated text parts.
func (g *Generator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, prompt, "")
}

// GenerateContentWithCache sends the prompt on top of a cached content resource.
func (g *Generator) GenerateContentWithCache(ctx context.Context, prompt, cacheName string) (string, error) {
	return g.generate(ctx, prompt, strings.TrimSpace(cacheName))
}

// EnsureContextCache stores payload as cached content and returns its name.
// Identical payloads reuse the existing cache.
func (g *Generator) EnsureContextCache(ctx context.Context, displayName, payload string) (string, error) {
	if g == nil || g.caches == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	payload = strings.TrimSpace(payload)
	if payload == "" {
		return "", errors.New("cache payload must not be empty")
	}

	hash := fmt.Sprintf("%x", sha256.Sum256([]byte(payload)))

	g.cacheMu.Lock()
	defer g.cacheMu.Unlock()

	if name, ok := g.contextCache[hash]; ok {
		return name, nil
	}

	if displayName = strings.TrimSpace(displayName); displayName == "" {
		displayName = "context-" + hash[:12]
	}

	cached, err := g.caches.Create(ctx, g.model, &genai.CreateCachedContentConfig{
		DisplayName: displayName,
		TTL:         contextCacheTTL,
		Contents: []*genai.Content{{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: payload}},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("create context cache: %w", err)
	}

	name := ""
	if cached != nil {
		name = strings.TrimSpace(cached.Name)
	}
	if name == "" {
		return "", errors.New("gemini api returned empty cache name")
	}

	if g.contextCache == nil {
		g.contextCache = make(map[string]string)
	}
	g.contextCache[hash] = name

	return name, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func (g *Generator) generate(ctx context.Context, prompt, cacheName string) (string, error) {
	if g == nil || g.models == nil {
		return "", ai.NewScoringError(Provider, ai.ErrProvider, errors.New("gemini generator is not initialized"))
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ai.NewScoringError(Provider, ai.ErrProvider, errors.New("prompt must not be empty"))
	}

	config := &genai.GenerateContentConfig{ResponseMIMEType: responseMIMEType}
	if cacheName != "" {
		config.CachedContent = cacheName
	}

	attempts := max(g.maxRetries, 1)

	for attempt := 1; ; attempt++ {
		resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
		if err == nil {
			return responseText(resp)
		}

		delay, retryable := retryDelay(err, attempt)
		if !retryable || attempt >= attempts {
			return "", ai.NewScoringError(Provider, classify(err), fmt.Errorf("generate content: %w", err))
		}

		g.logger.Warn("gemini request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if err := g.wait(ctx, delay); err != nil {
			return "", ai.NewScoringError(Provider, classify(err), err)
		}
	}
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	var builder strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate == nil || candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part == nil {
					continue
				}
				text := strings.TrimSpace(part.Text)
				if text == "" {
					continue
				}
				if builder.Len() > 0 {
					builder.WriteString("\n")
				}
				builder.WriteString(text)
			}
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", ai.NewScoringError(Provider, ai.ErrMalformedResponse, errors.New("gemini api returned empty response"))
	}

	return output, nil
}

func asAPIError(err error) (genai.APIError, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}

	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return *apiErrPtr, true
	}

	return genai.APIError{}, false
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ai.ErrTimeout
	}

	if apiErr, ok := asAPIError(err); ok {
		switch {
		case apiErr.Code == 429 || apiErr.Status == "RESOURCE_EXHAUSTED":
			return ai.ErrQuota
		case apiErr.Code == 504 || apiErr.Status == "DEADLINE_EXCEEDED":
			return ai.ErrTimeout
		}
	}

	return ai.ErrProvider
}

// retryDelay reports whether err is temporary and how long to wait before the
// next attempt.
func retryDelay(err error, attempt int) (time.Duration, bool) {
	apiErr, ok := asAPIError(err)
	if !ok {
		return 0, false
	}

	switch {
	case apiErr.Code == 429:
		delay, found := quotaDelay(apiErr)
		if !found {
			return backoff(attempt), true
		}
		if delay > maxRetryDelay {
			return 0, false
		}
		return delay, true
	case apiErr.Code >= 500:
		return backoff(attempt), true
	default:
		return 0, false
	}
}

func quotaDelay(apiErr genai.APIError) (time.Duration, bool) {
	for _, detail := range apiErr.Details {
		typ, _ := detail["@type"].(string)
		if !strings.HasSuffix(typ, "RetryInfo") {
			continue
		}
		if raw, ok := detail["retryDelay"].(string); ok {
			if d, err := time.ParseDuration(raw); err == nil {
				return d, true
			}
		}
	}

	match := quotaDelayPattern.FindStringSubmatch(apiErr.Message)
	if len(match) < 2 {
		return 0, false
	}

	seconds, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}

	return time.Duration(seconds * float64(time.Second)), true
}

func backoff(attempt int) time.Duration {
	delay := time.Duration(float64(baseRetryDelay) * math.Pow(2, float64(attempt-1)))
	if delay > maxRetryDelay {
		return maxRetryDelay
	}
	return delay
}
