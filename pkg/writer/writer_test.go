package writer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"gocloud.dev/blob/fileblob"
	"gocloud.dev/blob/memblob"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTargetKey(t *testing.T) {
	tests := []struct {
		name    string
		docStem string
		refName string
		want    string
	}{
		{
			name:    "simple",
			docStem: "trip-report",
			refName: "sunset",
			want:    "trip-report/sunset.png",
		},
		{
			name:    "png forced regardless of source extension",
			docStem: "notes",
			refName: "a",
			want:    "notes/a.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TargetKey(tt.docStem, tt.refName); got != tt.want {
				t.Errorf("TargetKey(%q, %q) = %q, want %q", tt.docStem, tt.refName, got, tt.want)
			}
		})
	}
}

func TestWrite(t *testing.T) {
	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()

	w := New(bucket, testLogger())
	ctx := context.Background()

	if err := w.Write(ctx, "doc/a.png", []byte("first")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := bucket.ReadAll(ctx, "doc/a.png")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "first" {
		t.Errorf("expected 'first', got %q", string(data))
	}
}

func TestWriteOverwritesExisting(t *testing.T) {
	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()

	w := New(bucket, testLogger())
	ctx := context.Background()

	if err := w.Write(ctx, "doc/a.png", []byte("old content, longer")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Write(ctx, "doc/a.png", []byte("new")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := bucket.ReadAll(ctx, "doc/a.png")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "new" {
		t.Errorf("expected truncate-overwrite to leave 'new', got %q", string(data))
	}
}

func TestWriteCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	bucket, err := fileblob.OpenBucket(dir, &fileblob.Options{
		CreateDir: true,
		Metadata:  fileblob.MetadataDontWrite,
	})
	if err != nil {
		t.Fatalf("OpenBucket: %v", err)
	}
	defer bucket.Close()

	w := New(bucket, testLogger())
	if err := w.Write(context.Background(), TargetKey("trip-report", "sunset"), []byte("bytes")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	written, err := os.ReadFile(filepath.Join(dir, "trip-report", "sunset.png"))
	if err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}
	if string(written) != "bytes" {
		t.Errorf("expected 'bytes', got %q", string(written))
	}

	// A second write into the same directory must not fail.
	if err := w.Write(context.Background(), TargetKey("trip-report", "dawn"), []byte("more")); err != nil {
		t.Fatalf("second Write into existing directory: %v", err)
	}
}
