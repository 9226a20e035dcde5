package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/mitchellh/mapstructure"
)

const (
	MinScore = 0
	MaxScore = 100
)

type response struct {
	Score      *float64 `mapstructure:"score"`
	Feedback   string   `mapstructure:"feedback"`
	Highlights []string `mapstructure:"highlights"`
}

// ParseAssessment decodes a model reply of the form
// {"score": 0-100, "feedback": "...", "highlights": ["..."]}.
// Code fences are tolerated and numeric strings are accepted.
func ParseAssessment(raw string) (*Assessment, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	// Some models answer with "short_feedback" instead of "feedback".
	if _, ok := data["feedback"]; !ok {
		if v, ok := data["short_feedback"]; ok {
			data["feedback"] = v
		}
	}

	var resp response
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &resp,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	if resp.Score == nil || math.IsNaN(*resp.Score) {
		return nil, fmt.Errorf("%w: score is missing", ErrMalformedResponse)
	}

	score := math.Min(math.Max(*resp.Score, MinScore), MaxScore)

	highlights := make([]string, 0, len(resp.Highlights))
	for _, h := range resp.Highlights {
		if h = strings.TrimSpace(h); h != "" {
			highlights = append(highlights, h)
		}
	}

	return &Assessment{
		Score:      &score,
		Feedback:   strings.TrimSpace(resp.Feedback),
		Highlights: highlights,
		Raw:        raw,
	}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	raw = strings.TrimSpace(raw)

	// Drop any prose around the object.
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start != -1 && end > start {
		raw = raw[start : end+1]
	}
	return raw
}
