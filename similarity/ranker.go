package similarity

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/hupe1980/wordvec/distance"
	"github.com/hupe1980/wordvec/embedding"
	"github.com/hupe1980/wordvec/internal/queue"
)

// Ranker answers similarity and analogy queries over an embedding
// collection. It is safe for concurrent use.
type Ranker struct {
	emb    *embedding.Embeddings
	words  []string
	matrix []float32 // word rows only, row-major
	dims   int
	batch  int
	logger *slog.Logger
	scores sync.Pool
}

// NewRanker prepares emb for ranking.
//
// Storage that is not a contiguous view (such as quantized storage), or
// whose word rows are not unit-length, is decoded into a dense, normalized
// copy of the word rows once, up front.
func NewRanker(emb *embedding.Embeddings, opts ...Option) (*Ranker, error) {
	o := applyOptions(opts)

	words := emb.Vocab().Words()
	dims := emb.Dims()
	n := len(words)

	var matrix []float32
	if view, ok := emb.Storage().(embedding.StorageView); ok && unitRows(view.View()[:n*dims], dims) {
		matrix = view.View()[:n*dims]
	} else {
		o.logger.Debug("materializing word rows for ranking", "rows", n, "dims", dims)
		matrix = make([]float32, n*dims)
		for i := range n {
			row := matrix[i*dims : (i+1)*dims]
			copy(row, emb.Storage().Embedding(i))
			distance.NormalizeL2InPlace(row)
		}
	}

	batch := min(o.batchSize, max(n, 1))
	r := &Ranker{
		emb:    emb,
		words:  words,
		matrix: matrix,
		dims:   dims,
		batch:  batch,
		logger: o.logger,
	}
	r.scores.New = func() any {
		buf := make([]float32, batch)
		return &buf
	}
	return r, nil
}

// unitTolerance bounds how far a stored row norm may be from 1 for the
// rows to be scored in place.
const unitTolerance = 1e-4

// unitRows reports whether every row of data is unit-length or zero.
func unitRows(data []float32, dims int) bool {
	for off := 0; off+dims <= len(data); off += dims {
		norm := distance.Norm(data[off : off+dims])
		if norm != 0 && math.Abs(float64(norm)-1) > unitTolerance {
			return false
		}
	}
	return true
}

// Embeddings returns the collection the ranker serves.
func (r *Ranker) Embeddings() *embedding.Embeddings { return r.emb }

// WordSimilarity returns the k words most similar to word. The word itself
// is never part of the result. It fails with ErrNotFound when word has no
// embedding.
func (r *Ranker) WordSimilarity(word string, k int) ([]Result, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	vec, ok := r.emb.Embedding(word)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, word)
	}

	skip := roaring.New()
	if i, ok := r.emb.Vocab().WordIndex(word); ok {
		skip.Add(uint32(i))
	}
	return r.EmbeddingSimilarity(vec, k, skip)
}

// EmbeddingSimilarity returns the k words whose embeddings are most similar
// to query. Rows in skip are never returned; skip may be nil.
func (r *Ranker) EmbeddingSimilarity(query []float32, k int, skip *roaring.Bitmap) ([]Result, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	if len(query) != r.dims {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, r.dims, len(query))
	}

	q, ok := distance.NormalizeL2Copy(query)
	if !ok {
		// A zero query is equally (dis)similar to every word.
		q = make([]float32, r.dims)
	}

	bufp := r.scores.Get().(*[]float32)
	defer r.scores.Put(bufp)
	scores := *bufp

	top := queue.NewTopK(k)
	x := blas32.Vector{N: r.dims, Inc: 1, Data: q}
	n := len(r.words)
	for start := 0; start < n; start += r.batch {
		end := min(start+r.batch, n)
		rows := end - start
		a := blas32.General{
			Rows:   rows,
			Cols:   r.dims,
			Stride: r.dims,
			Data:   r.matrix[start*r.dims : end*r.dims],
		}
		y := blas32.Vector{N: rows, Inc: 1, Data: scores[:rows]}
		blas32.Gemv(blas.NoTrans, 1, a, x, 0, y)

		for i, s := range scores[:rows] {
			row := start + i
			if skip != nil && skip.Contains(uint32(row)) {
				continue
			}
			top.Offer(queue.Item{Row: row, Score: s})
		}
	}

	items := top.Sorted()
	results := make([]Result, len(items))
	for i, it := range items {
		results[i] = Result{Word: r.words[it.Row], Similarity: it.Score}
	}
	return results, nil
}
