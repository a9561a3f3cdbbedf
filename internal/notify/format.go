package notify

import "strings"

// FormatMode turns a run mode like "deep_research" into a display label like
// "Deep Research". Empty input falls back to "Agent".
func FormatMode(raw string) string {
	if raw == "" {
		return "Agent"
	}
	var parts []string
	for _, token := range strings.FieldsFunc(raw, isSeparator) {
		parts = append(parts, capitalize(token))
	}
	return strings.Join(parts, " ")
}

// FormatModelID turns a model identifier like "claude-3-5-sonnet" into a
// display label like "Claude 3.5 Sonnet". Consecutive all-digit tokens are
// joined with a period, recovering version numbers that were hyphen-split
// upstream. Empty input falls back to "Assistant".
func FormatModelID(raw string) string {
	if raw == "" {
		return "Assistant"
	}

	tokens := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '-' || r == '_'
	})

	var parts []string
	for i := 0; i < len(tokens); i++ {
		if allDigits(tokens[i]) && i+1 < len(tokens) && allDigits(tokens[i+1]) {
			parts = append(parts, tokens[i]+"."+tokens[i+1])
			i++
			continue
		}
		parts = append(parts, tokens[i])
	}

	for i, p := range parts {
		parts[i] = capitalize(p)
	}
	return strings.Join(parts, " ")
}

func isSeparator(r rune) bool {
	return r == '-' || r == '_' || r == ' '
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return ""
	}
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
