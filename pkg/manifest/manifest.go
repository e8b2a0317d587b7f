// Package manifest generates the run summary written after a sync.
package manifest

// RunSummary is a lightweight overview of one sync run: per-document
// counts and failure detail without requiring readers to trawl logs.
type RunSummary struct {
	GeneratedAt     string            `yaml:"generated_at"`
	Documents       int               `yaml:"documents"`
	References      int               `yaml:"references"`
	Fetched         int               `yaml:"fetched"`
	Failed          int               `yaml:"failed"`
	DurationSeconds float64           `yaml:"duration_seconds"`
	Results         []DocumentSummary `yaml:"results"`
}

// DocumentSummary is summary information for a single document.
type DocumentSummary struct {
	Path       string    `yaml:"path"`
	Stem       string    `yaml:"stem,omitempty"`
	References int       `yaml:"references"`
	Fetched    int       `yaml:"fetched"`
	Failed     int       `yaml:"failed"`
	Failures   []Failure `yaml:"failures,omitempty"`
}

// Failure records one reference that produced no file.
type Failure struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Kind    string `yaml:"kind"` // status, exhausted, write_error
	Status  int    `yaml:"status,omitempty"`
	Message string `yaml:"message,omitempty"`
}
