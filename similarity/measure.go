package similarity

import (
	"fmt"

	"github.com/hupe1980/wordvec/distance"
)

// Measure selects how raw cosine scores are reported.
type Measure int

const (
	// Cosine reports the cosine similarity in [-1, 1].
	Cosine Measure = iota
	// Angular reports 1 - angle/π in [0, 1].
	Angular
)

// ParseMeasure resolves "cosine" or "angular".
func ParseMeasure(s string) (Measure, error) {
	switch s {
	case "cosine":
		return Cosine, nil
	case "angular":
		return Angular, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownMeasure, s)
	}
}

func (m Measure) String() string {
	switch m {
	case Cosine:
		return "cosine"
	case Angular:
		return "angular"
	default:
		return fmt.Sprintf("Measure(%d)", int(m))
	}
}

// Result is a ranked word with its cosine similarity to the query.
type Result struct {
	Word       string
	Similarity float32
}

// Cosine returns the cosine similarity.
func (r Result) Cosine() float32 { return r.Similarity }

// Angular returns the angular similarity.
func (r Result) Angular() float32 { return distance.AngularFromCosine(r.Similarity) }

// Score returns the similarity under m.
func (r Result) Score(m Measure) float32 {
	if m == Angular {
		return r.Angular()
	}
	return r.Cosine()
}
