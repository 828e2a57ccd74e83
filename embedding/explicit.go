package embedding

import (
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// ErrNotBucketed is returned by ToExplicit for vocabularies without hashed
// n-gram buckets.
var ErrNotBucketed = errors.New("embedding: vocabulary has no hashed subword buckets")

// ToExplicit converts a collection with a hashed subword vocabulary into one
// with an explicit n-gram table.
//
// Only buckets reachable from the n-grams of known words are kept, in bucket
// order, so the result is usually far smaller than the hashed original.
// N-grams that collided in a bucket keep sharing one row.
func ToExplicit(emb *Embeddings) (*Embeddings, error) {
	vocab, ok := emb.Vocab().(*SubwordVocab)
	if !ok {
		return nil, ErrNotBucketed
	}
	switch vocab.Indexer().(type) {
	case FinalfusionHashIndexer, FastTextIndexer:
	default:
		return nil, ErrNotBucketed
	}

	used := roaring.New()
	bucketOf := make(map[string]uint32)
	var ngrams []string
	for _, w := range vocab.Words() {
		for _, ng := range NGrams(w, vocab.MinN(), vocab.MaxN()) {
			if _, known := bucketOf[ng]; known {
				continue
			}
			b, ok := vocab.Indexer().Index(ng)
			if !ok {
				continue
			}
			bucketOf[ng] = uint32(b)
			ngrams = append(ngrams, ng)
			used.Add(uint32(b))
		}
	}

	wordsLen := vocab.WordsLen()
	dims := emb.Dims()
	storage := ZerosNdArray(wordsLen+int(used.GetCardinality()), dims)
	for i := range wordsLen {
		copy(storage.Row(i), emb.Storage().Embedding(i))
	}

	newRow := make(map[uint32]int, used.GetCardinality())
	it := used.Iterator()
	for r := 0; it.HasNext(); r++ {
		b := it.Next()
		newRow[b] = r
		copy(storage.Row(wordsLen+r), emb.Storage().Embedding(wordsLen+int(b)))
	}

	rows := make([]int, len(ngrams))
	for i, ng := range ngrams {
		rows[i] = newRow[bucketOf[ng]]
	}
	indexer, err := NewExplicitIndexer(ngrams, rows)
	if err != nil {
		return nil, err
	}
	explicit, err := NewSubwordVocab(vocab.Words(), vocab.MinN(), vocab.MaxN(), indexer)
	if err != nil {
		return nil, err
	}

	out, err := New(emb.Metadata(), explicit, storage, emb.Norms())
	if err != nil {
		return nil, fmt.Errorf("embedding: explicit conversion: %w", err)
	}
	return out, nil
}
