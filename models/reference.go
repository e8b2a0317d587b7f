package models

// Reference is a resolved (name, URL) pair ready to fetch. References are
// created by an extractor and never mutated afterwards; name is unique
// within a document's de-duplicated set.
type Reference struct {
	Name string
	URL  string
}

// Document identifies one scanned file and its raw text. The text is read
// once during discovery dispatch and discarded after extraction.
type Document struct {
	Path string
	Text string
}
