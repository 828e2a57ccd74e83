package quantization

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/hupe1980/wordvec/embedding"
)

// QuantizedArray is embedding storage holding one code vector per row.
// Rows are decoded on access.
type QuantizedArray struct {
	quantizer Quantizer
	codes     []byte
	rows      int
	norms     []float32
}

var _ embedding.Storage = (*QuantizedArray)(nil)

// NewQuantizedArray wraps rows x q.Subquantizers() codes. norms, when
// non-nil, holds one scale factor per row applied after decoding.
func NewQuantizedArray(q Quantizer, codes []byte, norms []float32) (*QuantizedArray, error) {
	if q.Codebooks() == nil {
		return nil, ErrNotTrained
	}
	subq := q.Subquantizers()
	if len(codes)%subq != 0 {
		return nil, fmt.Errorf("%w: %d codes for %d subquantizers", ErrDimensionMismatch, len(codes), subq)
	}
	rows := len(codes) / subq
	if norms != nil && len(norms) != rows {
		return nil, fmt.Errorf("%w: %d norms for %d rows", ErrDimensionMismatch, len(norms), rows)
	}
	return &QuantizedArray{
		quantizer: q,
		codes:     codes,
		rows:      rows,
		norms:     norms,
	}, nil
}

// Shape returns the number of rows and the decoded dimensionality.
func (a *QuantizedArray) Shape() (int, int) { return a.rows, a.quantizer.Dims() }

// Embedding decodes row i.
func (a *QuantizedArray) Embedding(i int) []float32 {
	out := make([]float32, a.quantizer.Dims())
	a.decode(out, i)
	return out
}

func (a *QuantizedArray) decode(dst []float32, i int) {
	subq := a.quantizer.Subquantizers()
	a.quantizer.Decode(dst, a.codes[i*subq:(i+1)*subq])
	if a.norms != nil {
		n := a.norms[i]
		for j := range dst {
			dst[j] *= n
		}
	}
}

// Quantizer returns the quantizer.
func (a *QuantizedArray) Quantizer() Quantizer { return a.quantizer }

// Codes returns the rows x Subquantizers() code matrix.
func (a *QuantizedArray) Codes() []byte { return a.codes }

// Norms returns the per-row scale factors, or nil.
func (a *QuantizedArray) Norms() []float32 { return a.norms }

// Reconstruct decodes every row into a dense array.
func (a *QuantizedArray) Reconstruct() *embedding.NdArray {
	dims := a.quantizer.Dims()
	out := embedding.ZerosNdArray(a.rows, dims)
	data := out.Data()
	workers := min(runtime.NumCPU(), max(a.rows, 1))
	chunk := (a.rows + workers - 1) / workers

	var wg sync.WaitGroup
	for lo := 0; lo < a.rows; lo += chunk {
		hi := min(lo+chunk, a.rows)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				a.decode(data[i*dims:(i+1)*dims], i)
			}
		}()
	}
	wg.Wait()
	return out
}
