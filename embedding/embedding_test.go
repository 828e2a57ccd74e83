package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSimple(t *testing.T, words []string, data []float32, dims int) *Embeddings {
	t.Helper()
	vocab, err := NewSimpleVocab(words)
	require.NoError(t, err)
	storage, err := NewNdArray(len(words), dims, data)
	require.NoError(t, err)
	norms := NormalizeRows(storage.Data(), dims, len(words))
	emb, err := New(nil, vocab, storage, norms)
	require.NoError(t, err)
	return emb
}

func TestSimpleVocab(t *testing.T) {
	v, err := NewSimpleVocab([]string{"a", "b", "c"})
	require.NoError(t, err)

	idx, ok := v.Idx("b")
	require.True(t, ok)
	assert.True(t, idx.IsWord())
	assert.Equal(t, 1, idx.Word())

	_, ok = v.Idx("z")
	assert.False(t, ok)
	assert.Equal(t, 3, v.WordsLen())
	assert.Equal(t, 3, v.VocabLen())

	_, err = NewSimpleVocab([]string{"a", "a"})
	assert.ErrorIs(t, err, ErrDuplicateWord)
}

func TestNGrams(t *testing.T) {
	assert.Equal(t, []string{"<ab", "ab>"}, NGrams("ab", 3, 3))
	assert.Equal(t, []string{"<a", "a", "a>"}, NGrams("a", 1, 2))
	// n-grams are over characters, not bytes
	assert.Equal(t, []string{"<é", "é>"}, NGrams("é", 2, 2))
	assert.Empty(t, NGrams("ab", 5, 6))
}

func TestFastTextHash(t *testing.T) {
	assert.Equal(t, uint32(2166136261), FastTextHash(""))
	assert.Equal(t, uint32(0xe40c292c), FastTextHash("a"))
	// bytes above 0x7f are sign-extended
	assert.Equal(t, uint32(1023043777), FastTextHash("é"))
}

func TestIndexers(t *testing.T) {
	ff := FinalfusionHashIndexer{BucketExp: 4}
	assert.Equal(t, 16, ff.Len())
	b, ok := ff.Index("<ab")
	require.True(t, ok)
	assert.Less(t, b, 16)

	ft := FastTextIndexer{Buckets: 10}
	b, ok = ft.Index("a")
	require.True(t, ok)
	assert.Equal(t, int(uint32(0xe40c292c)%10), b)

	_, ok = FastTextIndexer{}.Index("a")
	assert.False(t, ok)

	ex, err := NewExplicitIndexer([]string{"<a", "a>", "ab"}, []int{0, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, 2, ex.Len())
	r, ok := ex.Index("ab")
	require.True(t, ok)
	assert.Equal(t, 1, r)
	_, ok = ex.Index("zz")
	assert.False(t, ok)

	_, err = NewExplicitIndexer([]string{"a"}, nil)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestSubwordVocab(t *testing.T) {
	indexer, err := NewExplicitIndexer([]string{"<c", "ca", "at", "t>"}, []int{0, 1, 2, 3})
	require.NoError(t, err)
	v, err := NewSubwordVocab([]string{"cat", "dog"}, 2, 2, indexer)
	require.NoError(t, err)

	assert.Equal(t, 6, v.VocabLen())

	idx, ok := v.Idx("dog")
	require.True(t, ok)
	assert.True(t, idx.IsWord())

	idx, ok = v.Idx("cat")
	require.True(t, ok)
	assert.Equal(t, 0, idx.Word())

	// "ca" is unknown as a word, composed from "<c" and "ca"
	idx, ok = v.Idx("ca")
	require.True(t, ok)
	assert.False(t, idx.IsWord())
	assert.Equal(t, []int{2, 3}, idx.Subwords())

	_, ok = v.Idx("xyz")
	assert.False(t, ok)

	_, err = NewSubwordVocab(nil, 3, 2, indexer)
	assert.Error(t, err)
}

func TestNew_ValidatesShapes(t *testing.T) {
	vocab, err := NewSimpleVocab([]string{"a", "b"})
	require.NoError(t, err)

	_, err = New(nil, vocab, ZerosNdArray(3, 2), nil)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = New(nil, vocab, ZerosNdArray(2, 2), Norms{1})
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = NewNdArray(2, 2, []float32{1, 2, 3})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestEmbeddingWithNorm(t *testing.T) {
	emb := newSimple(t, []string{"a", "b"}, []float32{3, 4, 0, 2}, 2)

	vec, norm, ok := emb.EmbeddingWithNorm("a")
	require.True(t, ok)
	assert.InDeltaSlice(t, []float32{0.6, 0.8}, vec, 1e-6)
	assert.InDelta(t, 5.0, norm, 1e-6)

	// returned rows are copies
	vec[0] = 100
	again, _ := emb.Embedding("a")
	assert.InDelta(t, 0.6, again[0], 1e-6)

	_, ok = emb.Embedding("c")
	assert.False(t, ok)

	assert.Equal(t, 2, emb.Dims())
	assert.Equal(t, 2, emb.Len())
	assert.NoError(t, emb.Close())
}

func TestEmbedding_SubwordComposition(t *testing.T) {
	indexer, err := NewExplicitIndexer([]string{"<x", "x>"}, []int{0, 1})
	require.NoError(t, err)
	vocab, err := NewSubwordVocab([]string{"w"}, 2, 2, indexer)
	require.NoError(t, err)
	storage, err := NewNdArray(3, 2, []float32{
		1, 0, // w
		2, 0, // <x
		0, 2, // x>
	})
	require.NoError(t, err)
	emb, err := New(nil, vocab, storage, Norms{1})
	require.NoError(t, err)

	vec, norm, ok := emb.EmbeddingWithNorm("x")
	require.True(t, ok)
	assert.InDeltaSlice(t, []float32{0.70710677, 0.70710677}, vec, 1e-6)
	assert.InDelta(t, 2.828427, norm, 1e-5)
}

func TestNormalizeRows(t *testing.T) {
	data := []float32{0, 0, 6, 8, 1, 1}
	norms := NormalizeRows(data, 2, 2)
	assert.InDeltaSlice(t, []float32{0, 10}, []float32(norms), 1e-6)
	assert.InDeltaSlice(t, []float32{0, 0, 0.6, 0.8, 1, 1}, data, 1e-6)
}

func TestMetadata(t *testing.T) {
	m, err := ParseMetadata([]byte("dims = 300\n[model]\nkind = \"skipgram\"\n"))
	require.NoError(t, err)
	assert.EqualValues(t, 300, m["dims"])

	data, err := m.MarshalTOML()
	require.NoError(t, err)
	again, err := ParseMetadata(data)
	require.NoError(t, err)
	assert.Equal(t, m, again)

	_, err = ParseMetadata([]byte("= broken"))
	assert.Error(t, err)
}
