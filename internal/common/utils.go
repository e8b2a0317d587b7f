package common

import (
	"path/filepath"
	"regexp"
	"strings"
)

// DocumentStem returns the document's filename without its extension.
// Example: "notes/2024/trip-report.md" -> "trip-report".
func DocumentStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IsHTTPURL reports whether a URL starts with a scheme token recognizable
// as http. This is deliberately loose: the transport rejects anything that
// later turns out to be malformed.
func IsHTTPURL(rawURL string) bool {
	return strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://")
}

var (
	nameCleanPattern = regexp.MustCompile(`[^a-z0-9._-]+`)
	dashRunPattern   = regexp.MustCompile(`-{2,}`)
)

// SanitizeName converts free-form text (e.g. an img alt attribute) into a
// filesystem-friendly reference name. Returns "" when nothing usable remains.
func SanitizeName(raw string) string {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	cleaned = strings.ReplaceAll(cleaned, " ", "-")
	cleaned = nameCleanPattern.ReplaceAllString(cleaned, "")
	cleaned = dashRunPattern.ReplaceAllString(cleaned, "-")
	cleaned = strings.Trim(cleaned, "-._")
	return cleaned
}
