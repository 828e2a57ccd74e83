// Package kmeans implements seeded k-means clustering for codebook training.
//
// Product quantizers call Train once per subspace. Initialization uses
// k-means++ and every random choice is drawn from the caller's generator, so a
// fixed seed reproduces the same codebooks.
package kmeans
