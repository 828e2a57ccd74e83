package embedding

import (
	"errors"
	"fmt"
	"hash/fnv"
)

// BOW and EOW mark the word boundaries when n-grams are extracted.
const (
	BOW = "<"
	EOW = ">"
)

// NGrams returns the character n-grams of word with minN <= n <= maxN.
//
// The word is bracketed as "<word>" first, so prefixes and suffixes get their
// own n-grams. Lone boundary markers are never returned.
func NGrams(word string, minN, maxN int) []string {
	runes := []rune(BOW + word + EOW)
	var ngrams []string
	for start := range runes {
		for n := minN; n <= maxN && start+n <= len(runes); n++ {
			if n == 1 && (start == 0 || start == len(runes)-1) {
				continue
			}
			ngrams = append(ngrams, string(runes[start:start+n]))
		}
	}
	return ngrams
}

// Indexer maps an n-gram to a subword row, relative to the first subword row.
type Indexer interface {
	Index(ngram string) (int, bool)
	// Len returns the number of subword rows the indexer can address.
	Len() int
}

// FinalfusionHashIndexer hashes n-grams with 64-bit FNV-1a into 2^BucketExp
// buckets.
type FinalfusionHashIndexer struct {
	BucketExp uint32
}

// Index implements Indexer.
func (h FinalfusionHashIndexer) Index(ngram string) (int, bool) {
	f := fnv.New64a()
	_, _ = f.Write([]byte(ngram))
	mask := uint64(1)<<h.BucketExp - 1
	return int(f.Sum64() & mask), true
}

// Len implements Indexer.
func (h FinalfusionHashIndexer) Len() int { return 1 << h.BucketExp }

// FastTextIndexer reproduces fastText's n-gram hashing: 32-bit FNV-1a where
// every byte is sign-extended before mixing, reduced modulo Buckets.
type FastTextIndexer struct {
	Buckets uint32
}

// FastTextHash is the hash fastText uses for words and n-grams.
func FastTextHash(s string) uint32 {
	h := uint32(2166136261)
	for i := 0; i < len(s); i++ {
		h ^= uint32(int32(int8(s[i])))
		h *= 16777619
	}
	return h
}

// Index implements Indexer.
func (f FastTextIndexer) Index(ngram string) (int, bool) {
	if f.Buckets == 0 {
		return 0, false
	}
	return int(FastTextHash(ngram) % f.Buckets), true
}

// Len implements Indexer.
func (f FastTextIndexer) Len() int { return int(f.Buckets) }

// ExplicitIndexer stores an explicit n-gram to row table. Several n-grams may
// share a row, which is what bucket-to-explicit conversion produces when
// n-grams collided in a hash bucket.
type ExplicitIndexer struct {
	ngrams []string
	rows   map[string]int
	bound  int
}

// NewExplicitIndexer creates an indexer where ngrams[i] maps to rows[i].
func NewExplicitIndexer(ngrams []string, rows []int) (*ExplicitIndexer, error) {
	if len(ngrams) != len(rows) {
		return nil, fmt.Errorf("%w: %d n-grams but %d rows", ErrShapeMismatch, len(ngrams), len(rows))
	}
	idx := &ExplicitIndexer{
		ngrams: ngrams,
		rows:   make(map[string]int, len(ngrams)),
	}
	for i, ng := range ngrams {
		if _, dup := idx.rows[ng]; dup {
			return nil, fmt.Errorf("embedding: duplicate n-gram %q", ng)
		}
		if rows[i] < 0 {
			return nil, errors.New("embedding: negative n-gram row")
		}
		idx.rows[ng] = rows[i]
		idx.bound = max(idx.bound, rows[i]+1)
	}
	return idx, nil
}

// Index implements Indexer.
func (e *ExplicitIndexer) Index(ngram string) (int, bool) {
	r, ok := e.rows[ngram]
	return r, ok
}

// Len implements Indexer.
func (e *ExplicitIndexer) Len() int { return e.bound }

// NGrams returns the known n-grams in insertion order.
func (e *ExplicitIndexer) NGrams() []string { return e.ngrams }

// SubwordVocab is a vocabulary of known words backed by n-gram rows for
// words outside it.
type SubwordVocab struct {
	words   []string
	indices map[string]int
	minN    int
	maxN    int
	indexer Indexer
}

var _ Vocab = (*SubwordVocab)(nil)

// NewSubwordVocab creates a subword vocabulary.
func NewSubwordVocab(words []string, minN, maxN int, indexer Indexer) (*SubwordVocab, error) {
	if minN < 1 || maxN < minN {
		return nil, fmt.Errorf("embedding: invalid n-gram range [%d, %d]", minN, maxN)
	}
	if indexer == nil {
		return nil, errors.New("embedding: subword vocabulary needs an indexer")
	}
	indices, err := indexWords(words)
	if err != nil {
		return nil, err
	}
	return &SubwordVocab{
		words:   words,
		indices: indices,
		minN:    minN,
		maxN:    maxN,
		indexer: indexer,
	}, nil
}

// MinN returns the smallest n-gram length.
func (v *SubwordVocab) MinN() int { return v.minN }

// MaxN returns the largest n-gram length.
func (v *SubwordVocab) MaxN() int { return v.maxN }

// Indexer returns the n-gram indexer.
func (v *SubwordVocab) Indexer() Indexer { return v.indexer }

// SubwordIndices returns the storage rows of word's n-grams.
func (v *SubwordVocab) SubwordIndices(word string) []int {
	offset := len(v.words)
	var rows []int
	for _, ng := range NGrams(word, v.minN, v.maxN) {
		if r, ok := v.indexer.Index(ng); ok {
			rows = append(rows, offset+r)
		}
	}
	return rows
}

// Idx implements Vocab.
func (v *SubwordVocab) Idx(word string) (Idx, bool) {
	if i, ok := v.indices[word]; ok {
		return WordIdx(i), true
	}
	rows := v.SubwordIndices(word)
	if len(rows) == 0 {
		return Idx{}, false
	}
	return SubwordIdx(rows), true
}

// WordIndex implements Vocab.
func (v *SubwordVocab) WordIndex(word string) (int, bool) {
	i, ok := v.indices[word]
	return i, ok
}

// Words implements Vocab.
func (v *SubwordVocab) Words() []string { return v.words }

// WordsLen implements Vocab.
func (v *SubwordVocab) WordsLen() int { return len(v.words) }

// VocabLen implements Vocab.
func (v *SubwordVocab) VocabLen() int { return len(v.words) + v.indexer.Len() }
