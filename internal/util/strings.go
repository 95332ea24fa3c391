package util

import "strings"

// NormalizeKey canonicalizes a user-typed lookup key: trimmed, lowercased,
// with underscores folded to dashes. Config keys are dash-separated on the
// CLI but snake_case in the stored JSON, and both spellings should resolve.
func NormalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "_", "-")
}
