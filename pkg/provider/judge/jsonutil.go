package judge

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON coerces a model reply into a single JSON document. Models that
// lack a native structured-output mode tend to wrap the object in markdown
// fences or prose; this strips fences and trims to the outermost braces.
func ExtractJSON(content string) ([]byte, error) {
	s := strings.TrimSpace(content)

	// Strip ```json ... ``` fences.
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	// Trim leading/trailing prose around the outermost object.
	if !json.Valid([]byte(s)) {
		start := strings.IndexByte(s, '{')
		end := strings.LastIndexByte(s, '}')
		if start >= 0 && end > start {
			s = s[start : end+1]
		}
	}

	if !json.Valid([]byte(s)) {
		return nil, fmt.Errorf("judge: reply is not valid JSON")
	}
	return []byte(s), nil
}
