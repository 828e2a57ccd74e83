package embedding

import (
	"fmt"
	"io"
	"slices"
)

// Storage is an embedding matrix addressed by row.
type Storage interface {
	// Shape returns the number of rows and the dimensionality.
	Shape() (rows, dims int)
	// Embedding returns a copy of row i.
	Embedding(i int) []float32
}

// StorageView is a Storage whose rows are contiguous float32 memory. Ranking
// requires a view since it scores the matrix in place.
type StorageView interface {
	Storage
	// View returns the row-major matrix. Callers must not modify it.
	View() []float32
}

// NdArray is a dense, heap-allocated embedding matrix.
type NdArray struct {
	rows int
	dims int
	data []float32
}

var _ StorageView = (*NdArray)(nil)

// NewNdArray wraps a row-major rows x dims matrix. The array takes ownership
// of data.
func NewNdArray(rows, dims int, data []float32) (*NdArray, error) {
	if rows < 0 || dims < 0 || len(data) != rows*dims {
		return nil, fmt.Errorf("%w: %d values for %d x %d matrix", ErrShapeMismatch, len(data), rows, dims)
	}
	return &NdArray{rows: rows, dims: dims, data: data}, nil
}

// ZerosNdArray allocates a zero-filled rows x dims matrix.
func ZerosNdArray(rows, dims int) *NdArray {
	return &NdArray{rows: rows, dims: dims, data: make([]float32, rows*dims)}
}

// Shape implements Storage.
func (a *NdArray) Shape() (int, int) { return a.rows, a.dims }

// Embedding implements Storage.
func (a *NdArray) Embedding(i int) []float32 {
	return slices.Clone(a.Row(i))
}

// Row returns row i without copying. The returned slice aliases the matrix.
func (a *NdArray) Row(i int) []float32 {
	return a.data[i*a.dims : (i+1)*a.dims]
}

// View implements StorageView.
func (a *NdArray) View() []float32 { return a.data }

// Data returns the mutable backing matrix. It is meant for code that builds
// a matrix before wrapping it in an Embeddings value.
func (a *NdArray) Data() []float32 { return a.data }

// MmapArray is a dense embedding matrix over memory owned by someone else,
// typically a memory-mapped finalfusion file.
type MmapArray struct {
	rows   int
	dims   int
	data   []float32
	closer io.Closer
}

var _ StorageView = (*MmapArray)(nil)

// NewMmapArray wraps data, which stays valid until closer is closed.
func NewMmapArray(rows, dims int, data []float32, closer io.Closer) (*MmapArray, error) {
	if rows < 0 || dims < 0 || len(data) != rows*dims {
		return nil, fmt.Errorf("%w: %d values for %d x %d matrix", ErrShapeMismatch, len(data), rows, dims)
	}
	return &MmapArray{rows: rows, dims: dims, data: data, closer: closer}, nil
}

// Shape implements Storage.
func (a *MmapArray) Shape() (int, int) { return a.rows, a.dims }

// Embedding implements Storage.
func (a *MmapArray) Embedding(i int) []float32 {
	return slices.Clone(a.data[i*a.dims : (i+1)*a.dims])
}

// View implements StorageView.
func (a *MmapArray) View() []float32 { return a.data }

// Close releases the underlying mapping.
func (a *MmapArray) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
