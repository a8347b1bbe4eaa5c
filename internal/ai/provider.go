package ai

import (
	"context"
	"strings"
)

// Provider is the capability interface over the semantic oracle. Both the
// OpenAI-compatible and the Ollama client implement it. A nil Provider
// means no credential is configured and callers stay on their local paths.
type Provider interface {
	Complete(ctx context.Context, model string, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, model string, systemPrompt string, prompt string) (string, error)
}

// ExtractJSON returns the JSON object embedded in a model reply. Models
// regularly wrap structured output in markdown fences or prose; this pulls
// out the outermost {...} so callers can unmarshal it directly.
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
		s = strings.TrimPrefix(s, "json")
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return strings.TrimSpace(s)
}
