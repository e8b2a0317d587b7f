package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"gocloud.dev/blob/fileblob"
	"golang.org/x/time/rate"

	"github.com/dtnitsch/imagesync/models"
	"github.com/dtnitsch/imagesync/pkg/catalog"
	"github.com/dtnitsch/imagesync/pkg/fetcher"
	"github.com/dtnitsch/imagesync/pkg/manifest"
	"github.com/dtnitsch/imagesync/pkg/writer"
)

// NewLogger builds the diagnostics sink shared by all components.
// It is injected everywhere; nothing in the pipeline logs globally.
func NewLogger(quiet bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if quiet {
		logLevel = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// ResolveConfig layers defaults, an optional YAML config file, and CLI
// flag overrides (flags win over the file).
func ResolveConfig(c *cli.Context) (*models.SyncConfig, error) {
	config := models.DefaultSyncConfig()
	if c.IsSet("config") {
		loaded, err := models.LoadConfig(c.String("config"))
		if err != nil {
			return nil, err
		}
		config = *loaded
	}

	if c.IsSet("dir") {
		config.Dir = c.String("dir")
	}
	if c.IsSet("image-root") {
		config.ImageRoot = c.String("image-root")
	}
	if c.IsSet("workers") {
		config.Workers = c.Int("workers")
	}
	if c.IsSet("retries") {
		config.Retries = c.Int("retries")
	}
	if c.IsSet("backoff") {
		config.BackoffFactor = c.Float64("backoff")
	}
	if c.IsSet("initial-delay") {
		config.InitialDelay = c.Duration("initial-delay")
	}
	if c.IsSet("timeout") {
		config.Timeout = c.Duration("timeout")
	}
	if c.IsSet("rate") {
		config.RatePerSecond = c.Float64("rate")
	}
	if c.IsSet("include-html") {
		config.IncludeHTML = c.Bool("include-html")
	}
	if c.IsSet("database") {
		config.Database = c.String("database")
	}
	return &config, nil
}

// Build assembles a Pipeline from resolved config. The returned cleanup
// func closes the image-root bucket and the catalog.
func Build(logger *slog.Logger, config *models.SyncConfig) (*Pipeline, func(), error) {
	bucket, err := fileblob.OpenBucket(config.ImageRoot, &fileblob.Options{
		CreateDir: true,
		Metadata:  fileblob.MetadataDontWrite,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open image root %s: %w", config.ImageRoot, err)
	}

	var cat *catalog.Catalog
	if config.Database != "" {
		cat, err = catalog.Open(config.Database)
		if err != nil {
			// The catalog never gates the pipeline.
			logger.Warn("Failed to open catalog database, continuing without it", "path", config.Database, "error", err)
			cat = nil
		}
	}

	opts := fetcher.Options{
		Retries:       config.Retries,
		InitialDelay:  config.InitialDelay,
		BackoffFactor: config.BackoffFactor,
		Timeout:       config.Timeout,
	}
	if config.RatePerSecond > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(config.RatePerSecond), 1)
	}

	p := &Pipeline{
		Logger:      logger,
		Fetcher:     fetcher.NewFetcher(logger, opts),
		Writer:      writer.New(bucket, logger),
		Catalog:     cat,
		Workers:     config.Workers,
		IncludeHTML: config.IncludeHTML,
	}

	cleanup := func() {
		if cat != nil {
			_ = cat.Close()
		}
		_ = bucket.Close()
	}
	return p, cleanup, nil
}

// SyncAction handles the sync command.
func SyncAction(c *cli.Context) error {
	logger := NewLogger(c.Bool("quiet"))
	startTime := time.Now()

	config, err := ResolveConfig(c)
	if err != nil {
		logger.Error("failed to resolve configuration", "error", err)
		os.Exit(2)
	}

	p, cleanup, err := Build(logger, config)
	if err != nil {
		logger.Error("failed to initialize pipeline", "error", err)
		os.Exit(2)
	}
	defer cleanup()

	results, err := p.Run(c.Context, config.Dir)
	if err != nil {
		logger.Error("failed to discover documents", "dir", config.Dir, "error", err)
		os.Exit(2)
	}

	var fetched, failed int
	for _, result := range results {
		fetched += result.Fetched
		failed += len(result.Failures)
	}
	fmt.Printf("Synced %d documents: %d images fetched, %d failed\n", len(results), fetched, failed)

	if c.Bool("summary") {
		summaryPath, err := manifest.GenerateSummary(toManifestResults(results), startTime, config.ImageRoot)
		if err != nil {
			logger.Error("Error generating run summary", "error", err)
		} else {
			fmt.Printf("Run summary saved to: %s\n", summaryPath)
		}
	}
	return nil
}

// toManifestResults converts pipeline results to manifest.DocumentResult.
// This adapter prevents circular dependencies between packages.
func toManifestResults(results []Result) []manifest.DocumentResult {
	manifestResults := make([]manifest.DocumentResult, len(results))
	for i, r := range results {
		mr := manifest.DocumentResult{
			Path:       r.Path,
			Stem:       r.Stem,
			References: r.References,
			Fetched:    r.Fetched,
		}
		for _, f := range r.Failures {
			failure := manifest.Failure{
				Name:   f.Name,
				URL:    f.URL,
				Kind:   f.Kind,
				Status: f.Status,
			}
			if f.Err != nil {
				failure.Message = f.Err.Error()
			}
			mr.Failures = append(mr.Failures, failure)
		}
		manifestResults[i] = mr
	}
	return manifestResults
}
