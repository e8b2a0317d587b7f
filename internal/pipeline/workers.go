package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dtnitsch/imagesync/internal/common"
	"github.com/dtnitsch/imagesync/models"
	"github.com/dtnitsch/imagesync/pkg/catalog"
	"github.com/dtnitsch/imagesync/pkg/extract"
	"github.com/dtnitsch/imagesync/pkg/fetcher"
	"github.com/dtnitsch/imagesync/pkg/writer"
)

// Pipeline wires the extractor, fetcher, and writer together and drives
// them across all discovered documents. Every document is independent:
// no state is shared between document workers beyond the fetcher's
// connection pool and the diagnostics sink, so no locking is needed.
type Pipeline struct {
	Logger  *slog.Logger
	Fetcher *fetcher.Fetcher
	Writer  *writer.Writer

	// Catalog is optional and best-effort: catalog errors are logged as
	// warnings and never fail a document.
	Catalog *catalog.Catalog

	// Workers caps concurrent documents. Zero launches one goroutine per
	// document; the fetcher's connection pool is the implicit bound.
	Workers int

	// IncludeHTML also scans .html documents for img tags.
	IncludeHTML bool
}

// Discover walks rootDir collecting document paths in walk order. No
// ordering guarantee is made between documents.
func Discover(rootDir string, includeHTML bool) ([]string, error) {
	var docs []string
	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".md" || (includeHTML && ext == ".html") {
			docs = append(docs, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Run discovers documents under rootDir and processes each one
// concurrently. It returns only when every launched document worker has
// returned; individual document failures never abort the run and are
// reported in the per-document results, not as an error.
func (p *Pipeline) Run(ctx context.Context, rootDir string) ([]Result, error) {
	docs, err := Discover(rootDir, p.IncludeHTML)
	if err != nil {
		return nil, err
	}

	p.Logger.Info("Starting concurrent sync phase", "document_count", len(docs), "workers", p.Workers)

	var wg sync.WaitGroup
	results := make(chan Result, len(docs))

	if p.Workers > 0 {
		jobs := make(chan Job, len(docs))
		for w := 1; w <= p.Workers; w++ {
			wg.Add(1)
			go p.worker(ctx, w, &wg, jobs, results)
		}
		for _, doc := range docs {
			jobs <- Job{Path: doc}
		}
		close(jobs)
	} else {
		// No cap: all documents launch together.
		for _, doc := range docs {
			wg.Add(1)
			go func(path string) {
				defer wg.Done()
				results <- p.Process(ctx, path)
			}(doc)
		}
	}

	wg.Wait()
	close(results)
	p.Logger.Info("All sync workers finished")

	allResults := make([]Result, 0, len(docs))
	for result := range results {
		allResults = append(allResults, result)
	}
	return allResults, nil
}

// worker processes jobs from the jobs channel and sends results to the
// results channel.
func (p *Pipeline) worker(ctx context.Context, id int, wg *sync.WaitGroup, jobs <-chan Job, results chan<- Result) {
	defer wg.Done()
	for job := range jobs {
		p.Logger.Info("Worker started job", "worker_id", id, "path", job.Path)
		results <- p.Process(ctx, job.Path)
		p.Logger.Info("Worker finished job", "worker_id", id, "path", job.Path)
	}
}

// Process runs extract -> fetch -> write for one document. Every
// per-reference failure is isolated and logged; nothing escapes past this
// boundary, so sibling references and sibling documents always proceed.
func (p *Pipeline) Process(ctx context.Context, path string) Result {
	result := Result{Path: path, Stem: common.DocumentStem(path)}

	text, err := os.ReadFile(path)
	if err != nil {
		p.Logger.Error("Error reading document", "path", path, "error", err)
		return result
	}

	// The document is read once; its text is discarded after extraction.
	refs, err := p.extractRefs(models.Document{Path: path, Text: string(text)})
	if err != nil {
		p.Logger.Error("Error extracting references", "path", path, "error", err)
		return result
	}

	refs = extract.Dedupe(refs)
	if len(refs) == 0 {
		// Short-circuit: no directory is created, no fetch attempted.
		return result
	}
	result.References = len(refs)

	var docID int64
	if p.Catalog != nil {
		docID, err = p.Catalog.InsertDocument(path, result.Stem, len(refs))
		if err != nil {
			p.Logger.Warn("Failed to record document in catalog", "path", path, "error", err)
		}
	}

	for _, ref := range refs {
		p.processRef(ctx, &result, docID, ref)
	}
	return result
}

// processRef fetches and writes a single reference.
func (p *Pipeline) processRef(ctx context.Context, result *Result, docID int64, ref models.Reference) {
	var refID int64
	if p.Catalog != nil && docID > 0 {
		var err error
		refID, err = p.Catalog.InsertRef(docID, ref.Name, ref.URL)
		if err != nil {
			p.Logger.Warn("Failed to record reference in catalog", "path", result.Path, "name", ref.Name, "error", err)
		}
	}

	data, err := p.Fetcher.Fetch(ctx, ref.URL)
	if err != nil {
		failure := classifyFetchFailure(ref, err)
		p.Logger.Error("Reference fetch failed", "path", result.Path, "name", ref.Name, "url", ref.URL, "kind", failure.Kind, "error", err)
		result.Failures = append(result.Failures, failure)
		p.recordFetch(refID, failure.Kind, failure.Status, 0, err)
		return
	}

	key := writer.TargetKey(result.Stem, ref.Name)
	if err := p.Writer.Write(ctx, key, data); err != nil {
		result.Failures = append(result.Failures, RefFailure{
			Name: ref.Name,
			URL:  ref.URL,
			Kind: "write_error",
			Err:  err,
		})
		p.recordFetch(refID, "write_error", 0, 0, err)
		return
	}

	result.Fetched++
	p.recordFetch(refID, "success", 0, int64(len(data)), nil)
}

// extractRefs picks the extractor for the document's extension.
func (p *Pipeline) extractRefs(doc models.Document) ([]models.Reference, error) {
	if strings.EqualFold(filepath.Ext(doc.Path), ".html") {
		return extract.HTML(doc.Path, doc.Text)
	}
	return extract.Markdown(doc.Text), nil
}

// recordFetch stores a fetch outcome in the catalog, best-effort.
func (p *Pipeline) recordFetch(refID int64, outcome string, status int, sizeBytes int64, fetchErr error) {
	if p.Catalog == nil || refID == 0 {
		return
	}

	attempts := 0
	errMsg := ""
	if fetchErr != nil {
		errMsg = fetchErr.Error()
		var fe *fetcher.FetchError
		if errors.As(fetchErr, &fe) {
			attempts = fe.Attempts
		}
	}
	if err := p.Catalog.RecordFetch(refID, outcome, status, attempts, sizeBytes, errMsg); err != nil {
		p.Logger.Warn("Failed to record fetch in catalog", "ref_id", refID, "error", err)
	}
}

// classifyFetchFailure maps a fetch error onto a failure record.
func classifyFetchFailure(ref models.Reference, err error) RefFailure {
	failure := RefFailure{Name: ref.Name, URL: ref.URL, Err: err}

	var fetchErr *fetcher.FetchError
	if errors.As(err, &fetchErr) {
		failure.Kind = fetchErr.Kind.String()
		failure.Status = fetchErr.Status
		return failure
	}

	// Context cancellation or a deadline imposed by the host.
	failure.Kind = "aborted"
	return failure
}
