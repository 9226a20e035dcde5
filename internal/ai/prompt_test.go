package ai

import (
	"strings"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("  Looking for a Python backend engineer\n", "Jane Doe\nPython, Django")

	if !strings.Contains(prompt, "[Job description]\nLooking for a Python backend engineer\n") {
		t.Fatalf("job description not rendered: %s", prompt)
	}
	if !strings.Contains(prompt, "[Resume]\nJane Doe\nPython, Django") {
		t.Fatalf("resume not rendered: %s", prompt)
	}
	if strings.Contains(prompt, "{{") {
		t.Fatalf("unreplaced placeholder in prompt: %s", prompt)
	}
}
