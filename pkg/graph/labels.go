package graph

import "strings"

// CleanLabel turns a Postgres text-array literal such as `{CV,"Sintonia",null}`
// into a readable comma-joined string ("CV, Sintonia"). Labels that are not
// array literals pass through unchanged, so the function is idempotent.
func CleanLabel(raw string) string {
	s := strings.TrimSpace(raw)
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return s
	}

	inner := s[1 : len(s)-1]
	if inner == "" {
		return ""
	}

	parts := strings.Split(inner, ",")
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.Trim(p, `"`)
		p = strings.TrimSpace(p)
		if p == "" || strings.EqualFold(p, "null") {
			continue
		}
		cleaned = append(cleaned, p)
	}

	return strings.Join(cleaned, ", ")
}
