// Package artifact abstracts the persistence of experiment artifacts:
// label vectors, embedding matrices and images.
//
// Artifacts are small, written whole and read whole, so the interface is a
// plain Put/Open pair rather than random-access blobs. Backends cover the
// local file system, memory (for tests) and S3; the zstd wrapper adds
// transparent compression over any backend.
package artifact

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when an artifact does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for reading and writing named artifacts.
type Store interface {
	// Open opens an artifact for reading.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Put writes an artifact atomically, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error
	// Exists reports whether the artifact exists.
	Exists(ctx context.Context, name string) (bool, error)
}
