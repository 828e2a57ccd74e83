package embedding

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateWord is returned when a vocabulary lists a word twice.
	ErrDuplicateWord = errors.New("embedding: duplicate word in vocabulary")
	// ErrShapeMismatch is returned when storage, vocabulary and norms disagree.
	ErrShapeMismatch = errors.New("embedding: shape mismatch")
	// ErrUnknownWord is returned when a word has no embedding.
	ErrUnknownWord = errors.New("embedding: unknown word")
)

// Idx is the result of a vocabulary lookup: either a single word row or the
// rows of the word's n-grams.
type Idx struct {
	word     int
	subwords []int
	isWord   bool
}

// WordIdx returns an Idx for a known word stored at row.
func WordIdx(row int) Idx {
	return Idx{word: row, isWord: true}
}

// SubwordIdx returns an Idx composed of n-gram rows.
func SubwordIdx(rows []int) Idx {
	return Idx{subwords: rows}
}

// IsWord reports whether the lookup resolved to a word row.
func (i Idx) IsWord() bool { return i.isWord }

// Word returns the word row. Only meaningful when IsWord is true.
func (i Idx) Word() int { return i.word }

// Subwords returns the n-gram rows. Empty when IsWord is true.
func (i Idx) Subwords() []int { return i.subwords }

// Vocab maps words to storage rows.
type Vocab interface {
	// Idx looks up a word. Unknown words resolve through subword units when
	// the vocabulary has them.
	Idx(word string) (Idx, bool)
	// WordIndex returns the row of a known word.
	WordIndex(word string) (int, bool)
	// Words returns the known words in row order.
	Words() []string
	// WordsLen returns the number of known words.
	WordsLen() int
	// VocabLen returns the number of storage rows the vocabulary addresses,
	// words plus subword rows.
	VocabLen() int
}

// SimpleVocab is a vocabulary of known words without subword units.
type SimpleVocab struct {
	words   []string
	indices map[string]int
}

var _ Vocab = (*SimpleVocab)(nil)

// NewSimpleVocab creates a vocabulary whose row order follows words.
func NewSimpleVocab(words []string) (*SimpleVocab, error) {
	indices, err := indexWords(words)
	if err != nil {
		return nil, err
	}
	return &SimpleVocab{words: words, indices: indices}, nil
}

func indexWords(words []string) (map[string]int, error) {
	indices := make(map[string]int, len(words))
	for i, w := range words {
		if _, dup := indices[w]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateWord, w)
		}
		indices[w] = i
	}
	return indices, nil
}

// Idx implements Vocab.
func (v *SimpleVocab) Idx(word string) (Idx, bool) {
	i, ok := v.indices[word]
	if !ok {
		return Idx{}, false
	}
	return WordIdx(i), true
}

// WordIndex implements Vocab.
func (v *SimpleVocab) WordIndex(word string) (int, bool) {
	i, ok := v.indices[word]
	return i, ok
}

// Words implements Vocab.
func (v *SimpleVocab) Words() []string { return v.words }

// WordsLen implements Vocab.
func (v *SimpleVocab) WordsLen() int { return len(v.words) }

// VocabLen implements Vocab.
func (v *SimpleVocab) VocabLen() int { return len(v.words) }
