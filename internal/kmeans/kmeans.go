package kmeans

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"

	"github.com/hupe1980/wordvec/distance"
)

var (
	// ErrNoData is returned when there is nothing to cluster.
	ErrNoData = errors.New("kmeans: no vectors provided")
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("kmeans: k must be positive")
)

// Result holds trained centroids.
type Result struct {
	// Centroids is the flattened k x dim centroid matrix.
	Centroids []float32
	// Assignments maps every input row to its centroid.
	Assignments []int
	// Inertia is the summed squared distance of rows to their centroids.
	Inertia float64
}

// Train clusters the n x dim row-major matrix vectors into k centroids using
// Lloyd's algorithm for at most maxIter rounds.
//
// With fewer rows than centroids every row becomes a centroid and the
// remaining centroids repeat rows cyclically.
func Train(ctx context.Context, vectors []float32, dim, k, maxIter int, rng *rand.Rand) (*Result, error) {
	if dim <= 0 || len(vectors) == 0 || len(vectors)%dim != 0 {
		return nil, ErrNoData
	}
	if k <= 0 {
		return nil, ErrInvalidK
	}
	n := len(vectors) / dim

	centroids := make([]float32, k*dim)
	if n <= k {
		assignments := make([]int, n)
		for c := range k {
			r := c % n
			copy(centroids[c*dim:(c+1)*dim], vectors[r*dim:(r+1)*dim])
		}
		for i := range assignments {
			assignments[i] = i
		}
		return &Result{Centroids: centroids, Assignments: assignments}, nil
	}
	initPlusPlus(vectors, dim, k, centroids, rng)

	return lloyd(ctx, vectors, dim, centroids, maxIter, rng)
}

// Refine runs at most maxIter Lloyd rounds starting from the given k x dim
// centroids. The input centroids are not modified.
func Refine(ctx context.Context, vectors []float32, dim int, centroids []float32, maxIter int, rng *rand.Rand) (*Result, error) {
	if dim <= 0 || len(vectors) == 0 || len(vectors)%dim != 0 {
		return nil, ErrNoData
	}
	if len(centroids) == 0 || len(centroids)%dim != 0 {
		return nil, ErrInvalidK
	}
	return lloyd(ctx, vectors, dim, append([]float32(nil), centroids...), maxIter, rng)
}

func lloyd(ctx context.Context, vectors []float32, dim int, centroids []float32, maxIter int, rng *rand.Rand) (*Result, error) {
	n := len(vectors) / dim
	k := len(centroids) / dim

	assignments := make([]int, n)
	for i := range assignments {
		assignments[i] = -1
	}
	counts := make([]int, k)
	sums := make([]float32, k*dim)

	for range max(maxIter, 1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		changed := false
		for i := range n {
			c, _ := Nearest(vectors[i*dim:(i+1)*dim], centroids, dim)
			if assignments[i] != c {
				assignments[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}

		clear(sums)
		clear(counts)
		for i := range n {
			c := assignments[i]
			distance.AddInPlace(sums[c*dim:(c+1)*dim], vectors[i*dim:(i+1)*dim])
			counts[c]++
		}

		for c := range k {
			centroid := centroids[c*dim : (c+1)*dim]
			if counts[c] == 0 {
				// Empty cluster: restart it from a random row.
				r := rng.IntN(n)
				copy(centroid, vectors[r*dim:(r+1)*dim])
				continue
			}
			copy(centroid, sums[c*dim:(c+1)*dim])
			distance.ScaleInPlace(centroid, 1/float32(counts[c]))
		}
	}

	var inertia float64
	for i := range n {
		c, d := Nearest(vectors[i*dim:(i+1)*dim], centroids, dim)
		assignments[i] = c
		inertia += float64(d)
	}

	return &Result{
		Centroids:   centroids,
		Assignments: assignments,
		Inertia:     inertia,
	}, nil
}

// initPlusPlus seeds centroids with k-means++: each next centroid is sampled
// proportionally to its squared distance from the closest chosen one.
func initPlusPlus(vectors []float32, dim, k int, centroids []float32, rng *rand.Rand) {
	n := len(vectors) / dim
	first := rng.IntN(n)
	copy(centroids[:dim], vectors[first*dim:(first+1)*dim])

	minDist := make([]float64, n)
	var sum float64
	for i := range n {
		d := float64(distance.SquaredL2(vectors[i*dim:(i+1)*dim], centroids[:dim]))
		minDist[i] = d
		sum += d
	}

	for c := 1; c < k; c++ {
		chosen := rng.IntN(n)
		if sum > 0 {
			target := rng.Float64() * sum
			var acc float64
			for i, d := range minDist {
				acc += d
				if acc >= target {
					chosen = i
					break
				}
			}
		}
		centroid := centroids[c*dim : (c+1)*dim]
		copy(centroid, vectors[chosen*dim:(chosen+1)*dim])

		sum = 0
		for i := range n {
			d := float64(distance.SquaredL2(vectors[i*dim:(i+1)*dim], centroid))
			if d < minDist[i] {
				minDist[i] = d
			}
			sum += minDist[i]
		}
	}
}

// Nearest returns the index of the centroid closest to vec and the squared
// Euclidean distance to it.
func Nearest(vec, centroids []float32, dim int) (int, float32) {
	best := 0
	bestDist := float32(math.MaxFloat32)
	for c := 0; c*dim < len(centroids); c++ {
		d := distance.SquaredL2(vec, centroids[c*dim:(c+1)*dim])
		if d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best, bestDist
}
