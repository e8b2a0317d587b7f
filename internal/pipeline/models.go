package pipeline

// Job defines a task for a worker to perform.
type Job struct {
	Path string
}

// RefFailure records one reference that produced no file.
type RefFailure struct {
	Name   string
	URL    string
	Kind   string // status, exhausted, aborted, write_error
	Status int    // HTTP status for kind "status"
	Err    error
}

// Result holds the outcome of one processed document. References counts
// the de-duplicated set; a document with zero references short-circuits
// and produces no output directory.
type Result struct {
	Path       string
	Stem       string
	References int
	Fetched    int
	Failures   []RefFailure
}
