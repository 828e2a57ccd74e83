package quantization

import (
	"context"
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	errEigen = errors.New("quantization: eigendecomposition of the covariance matrix failed")
	errSVD   = errors.New("quantization: singular value decomposition failed")
)

// OptimizedProductQuantizer applies an orthogonal projection before
// product quantization. Decoding maps the reconstruction back through the
// transposed projection.
type OptimizedProductQuantizer struct {
	pq         *ProductQuantizer
	projection []float32 // dims x dims, row-major
}

// NewOptimizedProductQuantizer creates an untrained quantizer with the same
// constraints as NewProductQuantizer.
func NewOptimizedProductQuantizer(dims, subquantizers, bits int) (*OptimizedProductQuantizer, error) {
	pq, err := NewProductQuantizer(dims, subquantizers, bits)
	if err != nil {
		return nil, err
	}
	return &OptimizedProductQuantizer{pq: pq}, nil
}

// Dims returns the dimensionality of the vectors it encodes.
func (q *OptimizedProductQuantizer) Dims() int { return q.pq.dims }

// Subquantizers returns the number of codes per vector.
func (q *OptimizedProductQuantizer) Subquantizers() int { return q.pq.subq }

// Bits returns the number of bits per code.
func (q *OptimizedProductQuantizer) Bits() int { return q.pq.bits }

// Codebooks returns the centroids of each subquantizer, in the projected
// space. It is nil before training.
func (q *OptimizedProductQuantizer) Codebooks() [][]float32 { return q.pq.codebooks }

// Projection returns the row-major dims x dims rotation applied before
// quantization, or nil before training.
func (q *OptimizedProductQuantizer) Projection() []float32 { return q.projection }

// Encode projects v and quantizes the result.
func (q *OptimizedProductQuantizer) Encode(dst []byte, v []float32) {
	projected := make([]float32, q.pq.dims)
	q.project(projected, v)
	q.pq.Encode(dst, projected)
}

// Decode reconstructs the projected vector and rotates it back.
func (q *OptimizedProductQuantizer) Decode(dst []float32, codes []byte) {
	projected := make([]float32, q.pq.dims)
	q.pq.Decode(projected, codes)
	d := q.pq.dims
	blas32.Gemv(blas.NoTrans, 1,
		blas32.General{Rows: d, Cols: d, Stride: d, Data: q.projection},
		blas32.Vector{N: d, Inc: 1, Data: projected},
		0,
		blas32.Vector{N: d, Inc: 1, Data: dst},
	)
}

// project computes dst = v R.
func (q *OptimizedProductQuantizer) project(dst, v []float32) {
	d := q.pq.dims
	blas32.Gemv(blas.Trans, 1,
		blas32.General{Rows: d, Cols: d, Stride: d, Data: q.projection},
		blas32.Vector{N: d, Inc: 1, Data: v},
		0,
		blas32.Vector{N: d, Inc: 1, Data: dst},
	)
}

// projectAll computes X R for the n x dims matrix data.
func (q *OptimizedProductQuantizer) projectAll(data []float32) []float32 {
	d := q.pq.dims
	n := len(data) / d
	out := make([]float32, len(data))
	blas32.Gemm(blas.NoTrans, blas.NoTrans, 1,
		blas32.General{Rows: n, Cols: d, Stride: d, Data: data},
		blas32.General{Rows: d, Cols: d, Stride: d, Data: q.projection},
		0,
		blas32.General{Rows: n, Cols: d, Stride: d, Data: out},
	)
	return out
}

// TrainGaussian fixes the projection to the eigenvalue-allocated principal
// axes of data and trains the codebooks in the projected space.
func (q *OptimizedProductQuantizer) TrainGaussian(ctx context.Context, data []float32, opts TrainOptions) error {
	if len(data) == 0 || len(data)%q.pq.dims != 0 {
		return ErrDimensionMismatch
	}
	projection, err := eigenAllocation(data, q.pq.dims, q.pq.subq)
	if err != nil {
		return err
	}
	q.projection = projection
	return q.pq.Train(ctx, q.projectAll(data), opts)
}

// Train starts like TrainGaussian and then runs opts.Iterations rounds
// that alternate one Lloyd round per codebook with a Procrustes update of
// the projection against the current reconstructions.
func (q *OptimizedProductQuantizer) Train(ctx context.Context, data []float32, opts TrainOptions) error {
	if len(data) == 0 || len(data)%q.pq.dims != 0 {
		return ErrDimensionMismatch
	}
	projection, err := eigenAllocation(data, q.pq.dims, q.pq.subq)
	if err != nil {
		return err
	}
	q.projection = projection

	initial := opts
	initial.Iterations = 1
	if err := q.pq.Train(ctx, q.projectAll(data), initial); err != nil {
		return err
	}

	for round := range opts.Iterations {
		projected := q.projectAll(data)
		if err := q.pq.refine(ctx, projected, 1, opts, round); err != nil {
			return err
		}
		codes, err := EncodeAll(ctx, q.pq, projected, opts.Threads)
		if err != nil {
			return err
		}
		reconstructed, err := DecodeAll(ctx, q.pq, codes, opts.Threads)
		if err != nil {
			return err
		}
		if q.projection, err = procrustes(data, reconstructed, q.pq.dims); err != nil {
			return err
		}
	}

	return q.pq.refine(ctx, q.projectAll(data), max(opts.Iterations, 1), opts, opts.Iterations)
}

// eigenAllocation builds a dims x dims projection whose columns are the
// eigenvectors of the covariance of data. Eigenvectors are assigned to
// subspaces greedily, largest eigenvalue first, each going to the non-full
// subspace with the smallest accumulated log(1+eigenvalue).
func eigenAllocation(data []float32, dims, subquantizers int) ([]float32, error) {
	n := len(data) / dims
	if n < 2 {
		return identity(dims), nil
	}

	x := mat.NewDense(n, dims, toFloat64(data))
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, x, nil)

	var eig mat.EigenSym
	if !eig.Factorize(&cov, true) {
		return nil, errEigen
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	order := make([]int, dims)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] > values[order[b]] })

	bucketSize := dims / subquantizers
	buckets := make([][]int, subquantizers)
	weights := make([]float64, subquantizers)
	for _, idx := range order {
		best := -1
		for b := range buckets {
			if len(buckets[b]) == bucketSize {
				continue
			}
			if best < 0 || weights[b] < weights[best] {
				best = b
			}
		}
		weights[best] += math.Log1p(max(values[idx], 0))
		buckets[best] = append(buckets[best], idx)
	}

	projection := make([]float32, dims*dims)
	col := 0
	for _, bucket := range buckets {
		for _, idx := range bucket {
			for row := range dims {
				projection[row*dims+col] = float32(vectors.At(row, idx))
			}
			col++
		}
	}
	return projection, nil
}

// procrustes returns the orthogonal R minimizing ||X R - Y||, which is
// U V^T for the SVD X^T Y = U S V^T.
func procrustes(x, y []float32, dims int) ([]float32, error) {
	n := len(x) / dims
	xty := make([]float32, dims*dims)
	blas32.Gemm(blas.Trans, blas.NoTrans, 1,
		blas32.General{Rows: n, Cols: dims, Stride: dims, Data: x},
		blas32.General{Rows: n, Cols: dims, Stride: dims, Data: y},
		0,
		blas32.General{Rows: dims, Cols: dims, Stride: dims, Data: xty},
	)

	var svd mat.SVD
	if !svd.Factorize(mat.NewDense(dims, dims, toFloat64(xty)), mat.SVDFull) {
		return nil, errSVD
	}
	var u, v, r mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	r.Mul(&u, v.T())

	out := make([]float32, dims*dims)
	for i := range dims {
		for j := range dims {
			out[i*dims+j] = float32(r.At(i, j))
		}
	}
	return out, nil
}

func identity(dims int) []float32 {
	m := make([]float32, dims*dims)
	for i := range dims {
		m[i*dims+i] = 1
	}
	return m
}

func toFloat64(src []float32) []float64 {
	out := make([]float64, len(src))
	for i, v := range src {
		out[i] = float64(v)
	}
	return out
}
