package statement

import (
	"strings"
	"unicode"
)

// ToSnakeCase converts camelCase to snake_case. An upper-case run is kept
// together, so "userID" becomes "user_id" and "HTTPStatus" becomes "http_status".
func ToSnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)

	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]))
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			prevUpper := i > 0 && unicode.IsUpper(runes[i-1])
			if i > 0 && runes[i-1] != '_' && (prevLower || (prevUpper && nextLower)) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ToCamelCase converts snake_case to camelCase.
func ToCamelCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	upperNext := false
	for _, r := range s {
		if r == '_' {
			upperNext = b.Len() > 0
			continue
		}
		if upperNext {
			b.WriteRune(unicode.ToUpper(r))
			upperNext = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
