// Package extract parses documents for embedded remote-image references.
//
// Two formats are recognized: markdown reference-style images (an inline
// marker `![caption][name]` resolved against a definition line
// `[name]: <url>`) and, optionally, HTML img tags.
package extract

import (
	"regexp"

	"github.com/dtnitsch/imagesync/internal/common"
	"github.com/dtnitsch/imagesync/models"
)

var (
	// Definition lines bind a name to a URL, anchored at end of line.
	// Example: [diagram]: https://example.com/diagram.jpg
	definitionPattern = regexp.MustCompile(`(?m)^\[([^\]\s][^\]]*)\]:\s+(\S+)\s*$`)

	// Inline markers cite a definition by name, in document order.
	// Example: ![the diagram][diagram]
	inlinePattern = regexp.MustCompile(`!\[[^\]]*\]\[([^\]]+)\]`)
)

// Markdown scans text and returns references in inline-marker order.
//
// Definitions are keyed by name, so the last definition for a given name
// wins. Inline markers whose name has no definition are skipped silently;
// that is a normal markdown condition, not an error. Multiple markers
// citing the same name yield duplicate references; callers de-duplicate
// with Dedupe before fetching.
func Markdown(text string) []models.Reference {
	definitions := map[string]string{}
	for _, match := range definitionPattern.FindAllStringSubmatch(text, -1) {
		if common.IsHTTPURL(match[2]) {
			definitions[match[1]] = match[2]
		}
	}
	if len(definitions) == 0 {
		return nil
	}

	var refs []models.Reference
	for _, match := range inlinePattern.FindAllStringSubmatch(text, -1) {
		if url, ok := definitions[match[1]]; ok {
			refs = append(refs, models.Reference{Name: match[1], URL: url})
		}
	}
	return refs
}

// Dedupe drops references whose name was already seen, keeping the first
// occurrence. The write path is name-keyed, so a second fetch for the same
// name would only overwrite the first with identical content.
func Dedupe(refs []models.Reference) []models.Reference {
	if len(refs) < 2 {
		return refs
	}

	seen := make(map[string]bool, len(refs))
	deduped := refs[:0]
	for _, ref := range refs {
		if seen[ref.Name] {
			continue
		}
		seen[ref.Name] = true
		deduped = append(deduped, ref)
	}
	return deduped
}
