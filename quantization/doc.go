// Package quantization compresses embedding matrices with product
// quantization.
//
// Three quantizers are available:
//
//   - Product quantization (KindPQ): every row is split into equal
//     subspaces and each subspace is replaced by the index of its nearest
//     k-means centroid.
//   - Gaussian optimized product quantization (KindGaussianOPQ): rows are
//     first projected onto the principal axes of the data, with the axes
//     distributed over subspaces so that each subspace carries a similar
//     share of the variance.
//   - Optimized product quantization (KindOPQ): starts from the Gaussian
//     projection and then alternates codebook updates with an orthogonal
//     Procrustes update of the projection.
//
// # Quantizing a collection
//
//	cfg := quantization.DefaultConfig()
//	cfg.Kind = quantization.KindOPQ
//	quantized, loss, err := quantization.QuantizeAndMeasure(ctx, emb, cfg)
//	if err != nil {
//	    return err
//	}
//	fmt.Fprintf(os.Stderr, "Average cosine similarity: %v\n", loss.MeanCosine)
//
// The returned collection stores codes in a QuantizedArray. Reconstruct
// turns it back into a dense array.
package quantization
