package embedding

import (
	"fmt"
	"io"

	"github.com/hupe1980/wordvec/distance"
)

// Embeddings is an immutable embedding collection.
type Embeddings struct {
	metadata Metadata
	vocab    Vocab
	storage  Storage
	norms    Norms
}

// New assembles a collection. metadata and norms are optional.
//
// The storage must have exactly one row per vocabulary row, and norms, when
// present, one entry per known word.
func New(metadata Metadata, vocab Vocab, storage Storage, norms Norms) (*Embeddings, error) {
	rows, _ := storage.Shape()
	if rows != vocab.VocabLen() {
		return nil, fmt.Errorf("%w: vocabulary addresses %d rows, storage has %d", ErrShapeMismatch, vocab.VocabLen(), rows)
	}
	if norms != nil && len(norms) != vocab.WordsLen() {
		return nil, fmt.Errorf("%w: %d norms for %d words", ErrShapeMismatch, len(norms), vocab.WordsLen())
	}
	return &Embeddings{
		metadata: metadata,
		vocab:    vocab,
		storage:  storage,
		norms:    norms,
	}, nil
}

// Metadata returns the metadata, or nil.
func (e *Embeddings) Metadata() Metadata { return e.metadata }

// Vocab returns the vocabulary.
func (e *Embeddings) Vocab() Vocab { return e.vocab }

// Storage returns the embedding matrix.
func (e *Embeddings) Storage() Storage { return e.storage }

// Norms returns the word norms, or nil when the collection has none.
func (e *Embeddings) Norms() Norms { return e.norms }

// Dims returns the dimensionality.
func (e *Embeddings) Dims() int {
	_, dims := e.storage.Shape()
	return dims
}

// Len returns the number of known words.
func (e *Embeddings) Len() int { return e.vocab.WordsLen() }

// WithMetadata returns a copy of the collection carrying metadata.
func (e *Embeddings) WithMetadata(metadata Metadata) *Embeddings {
	c := *e
	c.metadata = metadata
	return &c
}

// Embedding returns the embedding of word. Known words return their stored
// row; other words are composed from their n-grams and normalized.
func (e *Embeddings) Embedding(word string) ([]float32, bool) {
	v, _, ok := e.EmbeddingWithNorm(word)
	return v, ok
}

// EmbeddingWithNorm returns the embedding of word together with the norm it
// had before normalization. Known words without stored norms report 1.
func (e *Embeddings) EmbeddingWithNorm(word string) ([]float32, float32, bool) {
	idx, ok := e.vocab.Idx(word)
	if !ok {
		return nil, 0, false
	}
	if idx.IsWord() {
		norm := float32(1)
		if e.norms != nil {
			norm = e.norms[idx.Word()]
		}
		return e.storage.Embedding(idx.Word()), norm, true
	}

	sum := make([]float32, e.Dims())
	for _, row := range idx.Subwords() {
		distance.AddInPlace(sum, e.storage.Embedding(row))
	}
	norm := distance.NormalizeL2InPlace(sum)
	return sum, norm, true
}

// Close releases resources held by the storage, such as a memory mapping.
func (e *Embeddings) Close() error {
	if c, ok := e.storage.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
