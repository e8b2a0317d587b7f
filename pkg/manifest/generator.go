package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DocumentResult carries what the generator needs from one processed
// document. It mirrors the pipeline's per-document result without
// importing it, to avoid a circular dependency.
type DocumentResult struct {
	Path       string
	Stem       string
	References int
	Fetched    int
	Failures   []Failure
}

// GenerateSummary aggregates per-document results into a RunSummary and
// writes it as YAML under dir. Returns the path of the generated file.
func GenerateSummary(results []DocumentResult, started time.Time, dir string) (string, error) {
	summary := RunSummary{
		GeneratedAt:     time.Now().Format(time.RFC3339),
		Documents:       len(results),
		DurationSeconds: time.Since(started).Seconds(),
	}

	for _, result := range results {
		summary.References += result.References
		summary.Fetched += result.Fetched
		summary.Failed += len(result.Failures)

		summary.Results = append(summary.Results, DocumentSummary{
			Path:       result.Path,
			Stem:       result.Stem,
			References: result.References,
			Fetched:    result.Fetched,
			Failed:     len(result.Failures),
			Failures:   result.Failures,
		})
	}

	data, err := yaml.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("error marshalling summary: %w", err)
	}

	summaryPath := filepath.Join(dir, fmt.Sprintf("summary-%s.yaml", time.Now().Format("2006-01-02")))
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("error creating summary directory: %w", err)
	}
	if err := os.WriteFile(summaryPath, data, 0644); err != nil {
		return "", fmt.Errorf("error saving summary: %w", err)
	}

	return summaryPath, nil
}
