package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations return an error that satisfies errors.Is(err, ErrNotFound).
var ErrNotFound = os.ErrNotExist

// BlobStore opens and creates embedding files by name.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Create starts writing a blob. The blob becomes visible when the
	// returned writer is closed without error.
	Create(ctx context.Context, name string) (WritableBlob, error)
}

// Blob is a read-only handle to a stored embedding file.
type Blob interface {
	io.ReaderAt
	io.Closer
	// Size returns the size of the blob in bytes.
	Size() int64
}

// WritableBlob is a blob being written.
type WritableBlob interface {
	io.WriteCloser
	// Abort discards everything written so far.
	Abort() error
}

// Mappable is implemented by blobs backed by a memory mapping.
type Mappable interface {
	// Bytes returns the mapped contents. The slice is valid until the
	// Blob is closed.
	Bytes() ([]byte, error)
}

// RangeReader is implemented by remote blobs that can stream a byte range
// in a single request.
type RangeReader interface {
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
}

// NewReader returns a sequential reader over the whole blob. Remote blobs
// are streamed with one ranged request; everything else is read through
// ReadAt.
func NewReader(ctx context.Context, b Blob) (io.ReadCloser, error) {
	if rr, ok := b.(RangeReader); ok && b.Size() > 0 {
		return rr.ReadRange(ctx, 0, b.Size())
	}
	return io.NopCloser(io.NewSectionReader(b, 0, b.Size())), nil
}
