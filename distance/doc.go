// Package distance provides the vector primitives used for ranking and loss
// measurement: dot products, L2 norms, Euclidean distance, cosine similarity
// and in-place normalization.
//
// The kernels delegate to vek32, which dispatches to SIMD implementations
// when the CPU supports them.
//
// # Usage
//
//	sim := distance.Cosine(a, b)
//	norm := distance.NormalizeL2InPlace(v)
//	score := distance.AngularFromCosine(sim)
package distance
