package distance

import (
	"math"
	"slices"

	"github.com/viterin/vek/vek32"
)

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float32) float32 {
	if len(a) == 0 {
		return 0
	}
	return vek32.Dot(a, b)
}

// Norm returns the L2 norm of v.
func Norm(v []float32) float32 {
	return float32(math.Sqrt(float64(Dot(v, v))))
}

// SquaredL2 calculates the squared Euclidean distance between two vectors.
func SquaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Euclidean calculates the Euclidean distance between two vectors.
func Euclidean(a, b []float32) float32 {
	if len(a) == 0 {
		return 0
	}
	return vek32.Distance(a, b)
}

// Cosine returns the cosine similarity of a and b.
// It returns 0 when either vector has zero norm.
func Cosine(a, b []float32) float32 {
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return Dot(a, b) / (na * nb)
}

// NormalizeL2InPlace L2-normalizes v in place and returns its norm before
// normalization. Zero vectors are left untouched and report a norm of 0.
func NormalizeL2InPlace(v []float32) float32 {
	norm := Norm(v)
	if norm == 0 {
		return 0
	}
	vek32.MulNumber_Inplace(v, 1/norm)
	return norm
}

// NormalizeL2Copy returns a normalized copy of src.
// Returns false if src has zero L2 norm.
func NormalizeL2Copy(src []float32) ([]float32, bool) {
	dst := slices.Clone(src)
	if NormalizeL2InPlace(dst) == 0 {
		return nil, false
	}
	return dst, true
}

// AddInPlace adds src to dst element-wise.
func AddInPlace(dst, src []float32) {
	if len(dst) == 0 {
		return
	}
	vek32.Add_Inplace(dst, src)
}

// ScaleInPlace multiplies every element of v by s.
func ScaleInPlace(v []float32, s float32) {
	if len(v) == 0 {
		return
	}
	vek32.MulNumber_Inplace(v, s)
}

// AngularFromCosine maps a cosine similarity onto [0, 1] using the angle
// between the vectors: 1 - acos(c)/π. Identical directions map to 1 and
// opposite directions to 0. Inputs outside [-1, 1] are clamped.
func AngularFromCosine(c float32) float32 {
	x := math.Max(-1, math.Min(1, float64(c)))
	return float32(1 - math.Acos(x)/math.Pi)
}
