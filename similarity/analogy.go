package similarity

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/wordvec/distance"
)

// ExcludeAll is the default analogy mask: none of the query tokens may be
// returned as an answer.
var ExcludeAll = [3]bool{true, true, true}

// Analogy answers "a is to b as c is to ?" and never returns a, b or c.
func (r *Ranker) Analogy(query [3]string, k int) ([]Result, error) {
	return r.AnalogyMasked(query, ExcludeAll, k)
}

// AnalogyMasked answers "a is to b as c is to ?" by ranking words against
// normalize(b - a + c). Token i is removed from the candidates when
// exclude[i] is true.
//
// When a token has no embedding the error is a *LookupError telling which
// tokens did resolve.
func (r *Ranker) AnalogyMasked(query [3]string, exclude [3]bool, k int) ([]Result, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}

	var (
		vecs     [3][]float32
		resolved [3]bool
	)
	for i, w := range query {
		vecs[i], resolved[i] = r.emb.Embedding(w)
	}
	if resolved != [3]bool{true, true, true} {
		return nil, &LookupError{Resolved: resolved}
	}

	target := make([]float32, r.dims)
	copy(target, vecs[1])
	for j := range target {
		target[j] += vecs[2][j] - vecs[0][j]
	}
	distance.NormalizeL2InPlace(target)

	skip := roaring.New()
	for i, w := range query {
		if !exclude[i] {
			continue
		}
		if row, ok := r.emb.Vocab().WordIndex(w); ok {
			skip.Add(uint32(row))
		}
	}

	return r.EmbeddingSimilarity(target, k, skip)
}

// ParseInclude turns the tokens named in include ("a", "b" or "c") into an
// exclusion mask: named tokens may be returned, the others are excluded.
func ParseInclude(include []string) ([3]bool, error) {
	mask := ExcludeAll
	for _, name := range include {
		switch name {
		case "a":
			mask[0] = false
		case "b":
			mask[1] = false
		case "c":
			mask[2] = false
		default:
			return mask, fmt.Errorf("similarity: cannot include %q, expected a, b or c", name)
		}
	}
	return mask, nil
}
