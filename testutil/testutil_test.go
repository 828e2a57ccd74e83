package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/wordvec/distance"
)

func TestRNG_Reset(t *testing.T) {
	rng := NewRNG(4711)
	first := rng.GaussianRows(2, 8)

	rng.Reset()
	assert.Equal(t, first, rng.GaussianRows(2, 8))
	assert.Equal(t, uint64(4711), rng.Seed())
}

func TestClusteredRows(t *testing.T) {
	rows := NewRNG(1).ClusteredRows(8, 16, 2, 0.01)
	require.Len(t, rows, 8*16)

	// rows 0 and 2 share a center, rows 0 and 1 do not
	same := distance.Cosine(rows[0:16], rows[32:48])
	other := distance.Cosine(rows[0:16], rows[16:32])
	assert.Greater(t, same, float32(0.99))
	assert.Greater(t, same, other)
}

func TestNewEmbeddings(t *testing.T) {
	data := []float32{3, 4, 0, 2}
	emb, err := NewEmbeddings([]string{"a", "b"}, 2, data)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float32{0.6, 0.8}, emb.Storage().Embedding(0), 1e-6)
	assert.InDeltaSlice(t, []float32{5, 2}, []float32(emb.Norms()), 1e-6)
	assert.Equal(t, []float32{3, 4, 0, 2}, data, "input must not be modified")

	_, err = NewEmbeddings([]string{"a", "a"}, 2, data)
	assert.Error(t, err)
}

func TestExactNeighbors(t *testing.T) {
	emb, err := NewEmbeddings(Words(4), 2, []float32{1, 0, 1, 0.1, 0, 1, -1, 0})
	require.NoError(t, err)

	got := ExactNeighbors(emb, []float32{2, 0}, 2, nil)
	require.Len(t, got, 2)
	assert.Equal(t, "w0", got[0].Word)
	assert.Equal(t, "w1", got[1].Word)

	got = ExactNeighbors(emb, []float32{2, 0}, 10, func(w string) bool { return w == "w0" })
	require.Len(t, got, 3)
	assert.Equal(t, "w3", got[2].Word)

	assert.Nil(t, ExactNeighbors(emb, []float32{0, 0}, 2, nil))
}

func TestComputeRecall(t *testing.T) {
	truth := []Neighbor{{Word: "a"}, {Word: "b"}, {Word: "c"}, {Word: "d"}}

	assert.InDelta(t, 0.5, ComputeRecall(truth, []string{"b", "x", "d"}), 1e-9)
	assert.InDelta(t, 1.0, ComputeRecall(nil, []string{"x"}), 1e-9)
	assert.InDelta(t, 0.0, ComputeRecall(truth, nil), 1e-9)
}
