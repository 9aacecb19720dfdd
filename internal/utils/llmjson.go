package utils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ParseModelJSON extracts and parses JSON from language-model output that may
// contain pure JSON, JSON wrapped in markdown code fences, or JSON with
// surrounding prose.
func ParseModelJSON(input string, target interface{}) error {
	if input == "" {
		return fmt.Errorf("empty input")
	}

	// Direct parse first (most common case)
	if err := json.Unmarshal([]byte(input), target); err == nil {
		return nil
	}

	// JSON inside a markdown code fence
	if extracted := extractFromFence(input); extracted != "" {
		if err := json.Unmarshal([]byte(extracted), target); err == nil {
			return nil
		}
	}

	// First balanced brace-delimited block in the text
	if extracted := ExtractJSONObject(input); extracted != "" {
		if err := json.Unmarshal([]byte(extracted), target); err == nil {
			return nil
		}
		// Last resort: repair common model mistakes inside the block
		if err := json.Unmarshal([]byte(repairJSON(extracted)), target); err == nil {
			return nil
		}
	}

	return fmt.Errorf("no parseable JSON in model output: %s", truncate(input, 120))
}

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)\\s*```")

func extractFromFence(input string) string {
	matches := fenceRe.FindStringSubmatch(input)
	if len(matches) < 2 {
		return ""
	}
	content := strings.TrimSpace(matches[1])
	if strings.HasPrefix(content, "{") || strings.HasPrefix(content, "[") {
		return content
	}
	return ""
}

// ExtractJSONObject returns the first brace-balanced JSON object embedded in
// input, or "" when none exists. Braces inside string literals are ignored.
func ExtractJSONObject(input string) string {
	start := strings.Index(input, "{")
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escape := false

	for i, ch := range input[start:] {
		if escape {
			escape = false
			continue
		}
		switch {
		case ch == '\\':
			escape = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return input[start : start+i+1]
			}
		}
	}
	return ""
}

var (
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	bareKeyRe       = regexp.MustCompile(`([{,]\s*)(\w+)(\s*:)`)
	controlCharRe   = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F]`)
)

// repairJSON fixes trailing commas, unquoted keys and stray control
// characters, all common in model output.
func repairJSON(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "\ufeff")
	s = trailingCommaRe.ReplaceAllString(s, "$1")
	s = bareKeyRe.ReplaceAllString(s, `$1"$2"$3`)
	return controlCharRe.ReplaceAllString(s, "")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
