package wordvec

import (
	"errors"
	"fmt"

	"github.com/hupe1980/wordvec/blobstore"
	"github.com/hupe1980/wordvec/codec"
)

var (
	// ErrNotFound is returned when an embedding file does not exist.
	ErrNotFound = blobstore.ErrNotFound
	// ErrUnsupported is returned for format and location combinations that
	// cannot be served, such as memory mapping a compressed file.
	ErrUnsupported = codec.ErrUnsupported
	// ErrUnknownFormat is returned for an unrecognized format name.
	ErrUnknownFormat = codec.ErrUnknownFormat
	// ErrInvalidLocation is returned for a malformed embedding URI.
	ErrInvalidLocation = errors.New("wordvec: invalid location")
)

// ErrDimensionMismatch indicates that loaded embeddings do not have the
// expected dimensionality.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}
