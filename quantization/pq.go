package quantization

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/wordvec/internal/kmeans"
)

// TrainOptions controls codebook training.
type TrainOptions struct {
	// Iterations is the maximum number of Lloyd rounds per k-means run.
	Iterations int
	// Attempts is the number of k-means runs per subquantizer; the run with
	// the lowest quantization error is kept.
	Attempts int
	// Threads bounds the number of subquantizers trained at once.
	Threads int
	// Seed makes training reproducible. Each subquantizer and attempt
	// derives its own stream from it, so results do not depend on Threads.
	Seed uint64
}

// ProductQuantizer splits a vector into Subquantizers() equally sized
// subvectors and stores the index of the nearest centroid of each.
//
// A vector of 300 float32 values quantized with 150 subquantizers of 8 bits
// takes 150 bytes instead of 1200.
type ProductQuantizer struct {
	dims      int
	subq      int
	bits      int
	subDims   int
	centroids int
	codebooks [][]float32
}

// NewProductQuantizer creates an untrained quantizer. dims must be a
// multiple of subquantizers and bits must be in [1, 8].
func NewProductQuantizer(dims, subquantizers, bits int) (*ProductQuantizer, error) {
	if bits < 1 || bits > 8 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBits, bits)
	}
	if subquantizers < 1 || dims < 1 || dims%subquantizers != 0 {
		return nil, fmt.Errorf("%w: %d dimensions cannot be split into %d subquantizers", ErrInvalidSubquantizers, dims, subquantizers)
	}
	return &ProductQuantizer{
		dims:      dims,
		subq:      subquantizers,
		bits:      bits,
		subDims:   dims / subquantizers,
		centroids: 1 << bits,
	}, nil
}

// Dims returns the vector dimensionality.
func (pq *ProductQuantizer) Dims() int { return pq.dims }

// Subquantizers returns the number of codes per vector.
func (pq *ProductQuantizer) Subquantizers() int { return pq.subq }

// Bits returns the bits per code.
func (pq *ProductQuantizer) Bits() int { return pq.bits }

// Codebooks returns the trained centroids, one flattened
// 2^bits x (dims/subquantizers) matrix per subquantizer.
func (pq *ProductQuantizer) Codebooks() [][]float32 { return pq.codebooks }

// Projection returns nil; plain PQ does not project.
func (pq *ProductQuantizer) Projection() []float32 { return nil }

// SetCodebooks installs previously trained codebooks.
func (pq *ProductQuantizer) SetCodebooks(codebooks [][]float32) error {
	if len(codebooks) != pq.subq {
		return fmt.Errorf("%w: %d codebooks for %d subquantizers", ErrInvalidSubquantizers, len(codebooks), pq.subq)
	}
	want := pq.centroids * pq.subDims
	for m, cb := range codebooks {
		if len(cb) != want {
			return fmt.Errorf("%w: codebook %d has %d values, want %d", ErrDimensionMismatch, m, len(cb), want)
		}
	}
	pq.codebooks = codebooks
	return nil
}

// Train fits one codebook per subquantizer to the n x dims row-major
// matrix data.
func (pq *ProductQuantizer) Train(ctx context.Context, data []float32, opts TrainOptions) error {
	if len(data) == 0 || len(data)%pq.dims != 0 {
		return fmt.Errorf("%w: %d values for %d dimensions", ErrDimensionMismatch, len(data), pq.dims)
	}
	attempts := max(opts.Attempts, 1)
	codebooks := make([][]float32, pq.subq)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Threads, 1))
	for m := range pq.subq {
		g.Go(func() error {
			sub := pq.subspace(data, m)
			best := math.Inf(1)
			for a := range attempts {
				rng := rand.New(rand.NewPCG(opts.Seed, uint64(m*attempts+a)))
				res, err := kmeans.Train(gctx, sub, pq.subDims, pq.centroids, opts.Iterations, rng)
				if err != nil {
					return fmt.Errorf("subquantizer %d: %w", m, err)
				}
				if res.Inertia < best {
					best = res.Inertia
					codebooks[m] = res.Centroids
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	pq.codebooks = codebooks
	return nil
}

// refine runs Lloyd rounds on every codebook starting from the current
// centroids.
func (pq *ProductQuantizer) refine(ctx context.Context, data []float32, iterations int, opts TrainOptions, round int) error {
	codebooks := make([][]float32, pq.subq)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Threads, 1))
	for m := range pq.subq {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(opts.Seed^uint64(round+1)<<32, uint64(m)))
			res, err := kmeans.Refine(gctx, pq.subspace(data, m), pq.subDims, pq.codebooks[m], iterations, rng)
			if err != nil {
				return fmt.Errorf("subquantizer %d: %w", m, err)
			}
			codebooks[m] = res.Centroids
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	pq.codebooks = codebooks
	return nil
}

// subspace copies columns [m*subDims, (m+1)*subDims) of data into a dense matrix.
func (pq *ProductQuantizer) subspace(data []float32, m int) []float32 {
	n := len(data) / pq.dims
	sub := make([]float32, n*pq.subDims)
	off := m * pq.subDims
	for i := range n {
		copy(sub[i*pq.subDims:(i+1)*pq.subDims], data[i*pq.dims+off:i*pq.dims+off+pq.subDims])
	}
	return sub
}

// Encode writes the nearest centroid index of each subvector of v to dst.
func (pq *ProductQuantizer) Encode(dst []byte, v []float32) {
	for m := range pq.subq {
		c, _ := kmeans.Nearest(v[m*pq.subDims:(m+1)*pq.subDims], pq.codebooks[m], pq.subDims)
		dst[m] = byte(c)
	}
}

// Decode concatenates the centroids named by codes into dst.
func (pq *ProductQuantizer) Decode(dst []float32, codes []byte) {
	for m, c := range codes[:pq.subq] {
		cb := pq.codebooks[m]
		copy(dst[m*pq.subDims:(m+1)*pq.subDims], cb[int(c)*pq.subDims:(int(c)+1)*pq.subDims])
	}
}

// EncodeAll quantizes the n x Dims() row-major matrix data and returns the
// n x Subquantizers() code matrix. Rows are spread over threads goroutines.
func EncodeAll(ctx context.Context, q Quantizer, data []float32, threads int) ([]byte, error) {
	dims, subq := q.Dims(), q.Subquantizers()
	if len(data)%dims != 0 {
		return nil, fmt.Errorf("%w: %d values for %d dimensions", ErrDimensionMismatch, len(data), dims)
	}
	if q.Codebooks() == nil {
		return nil, ErrNotTrained
	}
	n := len(data) / dims
	codes := make([]byte, n*subq)

	err := forEachChunk(ctx, n, threads, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			q.Encode(codes[i*subq:(i+1)*subq], data[i*dims:(i+1)*dims])
		}
	})
	if err != nil {
		return nil, err
	}
	return codes, nil
}

// DecodeAll reconstructs the n x Dims() matrix described by the code matrix.
func DecodeAll(ctx context.Context, q Quantizer, codes []byte, threads int) ([]float32, error) {
	dims, subq := q.Dims(), q.Subquantizers()
	if len(codes)%subq != 0 {
		return nil, fmt.Errorf("%w: %d codes for %d subquantizers", ErrDimensionMismatch, len(codes), subq)
	}
	n := len(codes) / subq
	data := make([]float32, n*dims)

	err := forEachChunk(ctx, n, threads, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			q.Decode(data[i*dims:(i+1)*dims], codes[i*subq:(i+1)*subq])
		}
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// forEachChunk calls fn over disjoint row ranges covering [0, n).
func forEachChunk(ctx context.Context, n, threads int, fn func(lo, hi int)) error {
	threads = max(threads, 1)
	chunk := max((n+threads*4-1)/(threads*4), 1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(lo, hi)
			return nil
		})
	}
	return g.Wait()
}
