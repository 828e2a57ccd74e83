package embedding

import "github.com/hupe1980/wordvec/distance"

// Norms holds the L2 norm each word row had before it was normalized.
type Norms []float32

// NormalizeRows L2-normalizes the first rows rows of the row-major matrix
// data in place and returns their original norms. Zero rows are left as they
// are and get norm 0.
func NormalizeRows(data []float32, dims, rows int) Norms {
	norms := make(Norms, rows)
	for i := range rows {
		norms[i] = distance.NormalizeL2InPlace(data[i*dims : (i+1)*dims])
	}
	return norms
}
