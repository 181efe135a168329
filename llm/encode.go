package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeJSON unmarshals raw model output into out after stripping code fences.
func DecodeJSON(raw string, out any) error {
	clean := StripFences(raw)
	if err := json.Unmarshal([]byte(clean), out); err != nil {
		return fmt.Errorf("decode JSON: %w", err)
	}
	return nil
}

// StripFences removes a surrounding markdown code fence from model output.
// Both ```json and bare ``` fences are handled; anything after the closing
// fence is discarded.
func StripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = trimmed[3:]
		// Longer tags first: "sqlite" must not be half-eaten by "sql".
		for _, tag := range []string{"sqlite", "json", "JSON", "sql", "SQL"} {
			if strings.HasPrefix(trimmed, tag) {
				trimmed = trimmed[len(tag):]
				break
			}
		}
		if idx := strings.Index(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
	}
	return strings.TrimSpace(trimmed)
}
