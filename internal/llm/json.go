package llm

import "strings"

// ExtractJSON pulls a JSON object out of free-form model output. It strips
// surrounding prose and Markdown code fences and returns the outermost
// {...} span. ok is false when no object is present; callers use that as
// an explicit malformed-output signal rather than guessing.
func ExtractJSON(s string) (string, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return s[start : end+1], true
}
