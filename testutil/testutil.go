package testutil

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/hupe1980/wordvec/distance"
	"github.com/hupe1980/wordvec/embedding"
)

// Neighbor is one entry of an exact nearest neighbor list.
type Neighbor struct {
	Word   string
	Cosine float32
}

// RNG wraps a seeded PCG source. It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed uint64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewPCG(seed, seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewPCG(r.seed, r.seed))
}

// Seed returns the initial seed.
func (r *RNG) Seed() uint64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.IntN(n)
}

// FillGaussian fills dst with standard normal values.
func (r *RNG) FillGaussian(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = float32(r.rand.NormFloat64())
	}
}

// GaussianRows returns a rows x dims row-major matrix of standard normal
// values.
func (r *RNG) GaussianRows(rows, dims int) []float32 {
	data := make([]float32, rows*dims)
	r.FillGaussian(data)
	return data
}

// ClusteredRows draws rows around centers random Gaussian centers. Row i
// belongs to center i % centers; spread scales the per-row noise.
func (r *RNG) ClusteredRows(rows, dims, centers int, spread float32) []float32 {
	cs := r.GaussianRows(centers, dims)

	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, rows*dims)
	for i := range rows {
		c := i % centers
		for j := range dims {
			data[i*dims+j] = cs[c*dims+j] + spread*float32(r.rand.NormFloat64())
		}
	}
	return data
}

// Words returns n distinct words "w0", "w1", ...
func Words(n int) []string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return words
}

// NewEmbeddings builds in-memory embeddings with a simple vocabulary from a
// row-major matrix. Rows are l2-normalized and their norms recorded, as
// every reader does.
func NewEmbeddings(words []string, dims int, data []float32) (*embedding.Embeddings, error) {
	vocab, err := embedding.NewSimpleVocab(words)
	if err != nil {
		return nil, err
	}
	rows := make([]float32, len(data))
	copy(rows, data)
	storage, err := embedding.NewNdArray(len(words), dims, rows)
	if err != nil {
		return nil, err
	}
	norms := embedding.NormalizeRows(storage.Data(), dims, len(words))
	return embedding.New(nil, vocab, storage, norms)
}

// RandomEmbeddings builds n clustered embeddings of the given width with
// words from Words.
func (r *RNG) RandomEmbeddings(n, dims int) (*embedding.Embeddings, error) {
	centers := max(1, n/16)
	return NewEmbeddings(Words(n), dims, r.ClusteredRows(n, dims, centers, 0.3))
}

// ExactNeighbors ranks every word of emb by cosine similarity to query
// with a full scan. Words for which skip returns true are left out. Ties
// keep vocabulary order.
func ExactNeighbors(emb *embedding.Embeddings, query []float32, k int, skip func(word string) bool) []Neighbor {
	q, ok := distance.NormalizeL2Copy(query)
	if !ok {
		return nil
	}

	words := emb.Vocab().Words()
	neighbors := make([]Neighbor, 0, len(words))
	for i, w := range words {
		if skip != nil && skip(w) {
			continue
		}
		neighbors = append(neighbors, Neighbor{
			Word:   w,
			Cosine: distance.Dot(q, emb.Storage().Embedding(i)),
		})
	}

	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Cosine > neighbors[j].Cosine
	})
	if len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	return neighbors
}

// ComputeRecall returns the fraction of the words in truth that also
// appear in approx.
func ComputeRecall(truth []Neighbor, approx []string) float64 {
	if len(truth) == 0 {
		return 1
	}
	found := make(map[string]struct{}, len(approx))
	for _, w := range approx {
		found[w] = struct{}{}
	}

	hits := 0
	for _, n := range truth {
		if _, ok := found[n.Word]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(truth))
}
