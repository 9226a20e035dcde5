package ai

import (
	_ "embed"
	"strings"
)

//go:embed prompt.md
var promptTemplate string

// CachedJobDescriptionNote replaces the job description in prompts whose job
// description is supplied through a provider-side context cache.
const CachedJobDescriptionNote = "(provided in the cached context)"

// BuildPrompt renders the scoring prompt.
func BuildPrompt(jobDescription, resumeText string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Job description:\n{{JOB_DESCRIPTION}}\n\nResume:\n{{RESUME_TEXT}}\n\nJSON Response:"
	}

	prompt := strings.ReplaceAll(template, "{{JOB_DESCRIPTION}}", strings.TrimSpace(jobDescription))
	prompt = strings.ReplaceAll(prompt, "{{RESUME_TEXT}}", strings.TrimSpace(resumeText))
	return prompt
}
