// Package writer persists fetched resources under the image root.
//
// Storage goes through a gocloud.dev blob bucket so the image root can be
// a local directory (fileblob), an in-memory bucket in tests, or an object
// store. With fileblob, keys containing slashes create the intermediate
// directories on write, idempotently, and an existing blob at the same key
// is truncated and replaced.
package writer

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"gocloud.dev/blob"
)

// Ext is forced onto every written resource regardless of the source
// URL's actual extension. Downstream consumers key on this layout.
const Ext = ".png"

// TargetKey derives the bucket key for a reference:
// <document-stem>/<reference-name>.png.
func TargetKey(docStem, name string) string {
	return path.Join(docStem, name+Ext)
}

// Writer writes resource bytes into a bucket.
type Writer struct {
	bucket *blob.Bucket
	logger *slog.Logger
}

// New creates a writer backed by the given bucket.
func New(bucket *blob.Bucket, logger *slog.Logger) *Writer {
	return &Writer{bucket: bucket, logger: logger}
}

// Write stores data at key, overwriting any prior content. The write is
// all-or-nothing from the caller's perspective; names are unique per
// document after de-duplication, so no two writers race on one key.
func (w *Writer) Write(ctx context.Context, key string, data []byte) error {
	if err := w.bucket.WriteAll(ctx, key, data, nil); err != nil {
		w.logger.Error("Write failed", "key", key, "error", err)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	w.logger.Info("Write succeeded", "key", key, "bytes", len(data))
	return nil
}
