package kmeans

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func TestTrain_SeparatesClusters(t *testing.T) {
	// two clusters around (0,0) and (10,10)
	vecs := []float32{
		0, 0, 0, 1, 1, 0,
		10, 10, 10, 11, 11, 10,
	}

	res, err := Train(context.Background(), vecs, 2, 2, 100, newRand(1))
	require.NoError(t, err)
	assert.Len(t, res.Centroids, 4)

	p1, _ := Nearest([]float32{0.5, 0.5}, res.Centroids, 2)
	p2, _ := Nearest([]float32{10.5, 10.5}, res.Centroids, 2)
	assert.NotEqual(t, p1, p2)

	assert.Equal(t, res.Assignments[0], res.Assignments[1])
	assert.Equal(t, res.Assignments[3], res.Assignments[5])
	assert.NotEqual(t, res.Assignments[0], res.Assignments[3])
	assert.InDelta(t, 8.0/3.0, res.Inertia, 1e-4)
}

func TestTrain_Deterministic(t *testing.T) {
	rng := newRand(7)
	vecs := make([]float32, 200*4)
	for i := range vecs {
		vecs[i] = rng.Float32()
	}

	a, err := Train(context.Background(), vecs, 4, 8, 25, newRand(42))
	require.NoError(t, err)
	b, err := Train(context.Background(), vecs, 4, 8, 25, newRand(42))
	require.NoError(t, err)

	assert.Equal(t, a.Centroids, b.Centroids)
	assert.Equal(t, a.Inertia, b.Inertia)
}

func TestTrain_FewerRowsThanCentroids(t *testing.T) {
	vecs := []float32{1, 2, 3, 4}
	res, err := Train(context.Background(), vecs, 2, 3, 10, newRand(1))
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4, 1, 2}, res.Centroids)
	assert.InDelta(t, 0, res.Inertia, 1e-9)
}

func TestTrain_InvalidInput(t *testing.T) {
	_, err := Train(context.Background(), nil, 2, 2, 10, newRand(1))
	assert.ErrorIs(t, err, ErrNoData)

	_, err = Train(context.Background(), []float32{1, 2, 3}, 2, 2, 10, newRand(1))
	assert.ErrorIs(t, err, ErrNoData)

	_, err = Train(context.Background(), []float32{1, 2}, 2, 0, 10, newRand(1))
	assert.ErrorIs(t, err, ErrInvalidK)
}

func TestTrain_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	vecs := make([]float32, 1000*2)
	for i := range vecs {
		vecs[i] = float32(i)
	}

	_, err := Train(ctx, vecs, 2, 10, 1000, newRand(1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRefine_KeepsInput(t *testing.T) {
	vecs := []float32{
		0, 0, 0, 1, 1, 0,
		10, 10, 10, 11, 11, 10,
	}
	start := []float32{1, 1, 9, 9}
	orig := append([]float32(nil), start...)

	res, err := Refine(context.Background(), vecs, 2, start, 10, newRand(3))
	require.NoError(t, err)
	assert.Equal(t, orig, start)
	assert.InDeltaSlice(t, []float32{1.0 / 3, 1.0 / 3, 31.0 / 3, 31.0 / 3}, res.Centroids, 1e-5)

	_, err = Refine(context.Background(), vecs, 2, nil, 10, newRand(3))
	assert.ErrorIs(t, err, ErrInvalidK)
}
