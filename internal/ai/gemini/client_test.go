package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/resume-screener/internal/ai"
)

type fakeResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeModels struct {
	mu      sync.Mutex
	queue   []fakeResponse
	configs []*genai.GenerateContentConfig
	prompts []string
}

func (f *fakeModels) enqueue(resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, fakeResponse{resp: resp, err: err})
}

func (f *fakeModels) GenerateContent(_ context.Context, _ string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.configs = append(f.configs, config)
	for _, c := range contents {
		for _, p := range c.Parts {
			f.prompts = append(f.prompts, p.Text)
		}
	}

	if len(f.queue) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := f.queue[0]
	f.queue = f.queue[1:]
	return res.resp, res.err
}

func (f *fakeModels) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.configs)
}

type fakeCaches struct {
	created int
	name    string
	err     error
	last    *genai.CreateCachedContentConfig
}

func (f *fakeCaches) Create(_ context.Context, _ string, config *genai.CreateCachedContentConfig) (*genai.CachedContent, error) {
	f.created++
	f.last = config
	if f.err != nil {
		return nil, f.err
	}
	return &genai.CachedContent{Name: f.name}, nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func newTestGenerator(models *fakeModels, caches *fakeCaches, maxRetries int) *Generator {
	return &Generator{
		models:     models,
		caches:     caches,
		model:      "gemini-pro",
		maxRetries: maxRetries,
		logger:     zap.NewNop(),
		wait:       func(context.Context, time.Duration) error { return nil },
	}
}

func TestGeneratorRetriesOnTemporaryError(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"})
	models.enqueue(textResponse("retry ok"), nil)

	g := newTestGenerator(models, nil, 2)

	output, err := g.GenerateContent(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if output != "retry ok" {
		t.Fatalf("unexpected output: %q", output)
	}

	if models.calls() != 2 {
		t.Fatalf("expected 2 calls, got %d", models.calls())
	}

	for _, cfg := range models.configs {
		if cfg == nil || cfg.ResponseMIMEType != "application/json" {
			t.Fatalf("expected json response mime type, got %+v", cfg)
		}
	}
}

func TestGeneratorStopsAfterRetriesExhausted(t *testing.T) {
	models := &fakeModels{}
	tempErr := genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"}
	models.enqueue(nil, tempErr)
	models.enqueue(nil, tempErr)

	g := newTestGenerator(models, nil, 2)

	_, err := g.GenerateContent(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}

	if !errors.Is(err, ai.ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}

	if models.calls() != 2 {
		t.Fatalf("expected 2 calls, got %d", models.calls())
	}
}

func TestGeneratorDoesNotRetryOnLongQuotaDelay(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{
		Code:    http.StatusTooManyRequests,
		Status:  "RESOURCE_EXHAUSTED",
		Message: "quota exhausted, retry after 60 seconds",
	})

	g := newTestGenerator(models, nil, 3)

	_, err := g.GenerateContent(context.Background(), "prompt")
	if !errors.Is(err, ai.ErrQuota) {
		t.Fatalf("expected ErrQuota, got %v", err)
	}

	if models.calls() != 1 {
		t.Fatalf("expected single call, got %d", models.calls())
	}
}

func TestGeneratorRetriesShortQuotaDelay(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{
		Code:   http.StatusTooManyRequests,
		Status: "RESOURCE_EXHAUSTED",
		Details: []map[string]any{{
			"@type":      "type.googleapis.com/google.rpc.RetryInfo",
			"retryDelay": "3s",
		}},
	})
	models.enqueue(textResponse("ok"), nil)

	var waited []time.Duration
	g := newTestGenerator(models, nil, 3)
	g.wait = func(_ context.Context, d time.Duration) error {
		waited = append(waited, d)
		return nil
	}

	if _, err := g.GenerateContent(context.Background(), "prompt"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(waited) != 1 || waited[0] != 3*time.Second {
		t.Fatalf("expected a single 3s wait, got %v", waited)
	}
}

func TestGeneratorDoesNotRetryClientErrors(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"})

	g := newTestGenerator(models, nil, 3)

	if _, err := g.GenerateContent(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error")
	}

	if models.calls() != 1 {
		t.Fatalf("expected single call, got %d", models.calls())
	}
}

func TestGeneratorEmptyResponse(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(&genai.GenerateContentResponse{}, nil)

	g := newTestGenerator(models, nil, 1)

	_, err := g.GenerateContent(context.Background(), "prompt")
	if !errors.Is(err, ai.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestGeneratorClassifiesDeadline(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(nil, context.DeadlineExceeded)

	g := newTestGenerator(models, nil, 3)

	_, err := g.GenerateContent(context.Background(), "prompt")
	if !errors.Is(err, ai.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if models.calls() != 1 {
		t.Fatalf("expected single call, got %d", models.calls())
	}
}

func TestGeneratorContextCache(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(textResponse("cached"), nil)
	caches := &fakeCaches{name: "cachedContents/abc"}

	g := newTestGenerator(models, caches, 1)

	first, err := g.EnsureContextCache(context.Background(), "job-description", "Python engineer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := g.EnsureContextCache(context.Background(), "job-description", "  Python engineer ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first != "cachedContents/abc" || second != first {
		t.Fatalf("unexpected cache names: %q %q", first, second)
	}
	if caches.created != 1 {
		t.Fatalf("expected cache to be created once, got %d", caches.created)
	}
	if caches.last.Contents[0].Parts[0].Text != "Python engineer" {
		t.Fatalf("unexpected cached payload: %q", caches.last.Contents[0].Parts[0].Text)
	}

	if _, err := g.GenerateContentWithCache(context.Background(), "prompt", first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if models.configs[0].CachedContent != first {
		t.Fatalf("expected cached content to be referenced, got %q", models.configs[0].CachedContent)
	}
}

func TestBackoff(t *testing.T) {
	if got := backoff(1); got != baseRetryDelay {
		t.Fatalf("expected %v, got %v", baseRetryDelay, got)
	}
	if got := backoff(2); got != 2*baseRetryDelay {
		t.Fatalf("expected %v, got %v", 2*baseRetryDelay, got)
	}
	if got := backoff(10); got != maxRetryDelay {
		t.Fatalf("expected cap %v, got %v", maxRetryDelay, got)
	}
}
