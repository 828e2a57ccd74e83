// Package wordvec loads, queries, evaluates and compresses word embeddings.
//
// The root package is a thin facade over the building blocks:
//
//   - embedding: vocabularies (simple and subword), storage, norms, metadata
//   - codec: finalfusion, word2vec, text, textdims and fastText files
//   - similarity: nearest neighbours and analogies over normalized rows
//   - eval: analogy accuracy evaluation with a bounded worker pool
//   - quantization: product quantization (PQ, OPQ, Gaussian OPQ)
//   - blobstore: local, S3 and MinIO storage for embedding files
//
// # Quick Start
//
//	ctx := context.Background()
//	emb, err := wordvec.Load(ctx, "wiki.fifu", codec.FormatFinalfusion)
//	if err != nil { ... }
//	defer emb.Close()
//
//	ranker, _ := similarity.NewRanker(emb)
//	results, _ := ranker.WordSimilarity("berlin", 10)
//
// Files can live in object storage and may be compressed:
//
//	emb, err := wordvec.Load(ctx, "s3://models/wiki.vec.zst", codec.FormatText,
//	    wordvec.WithS3Config(s3.ClientConfig{Region: "eu-central-1"}))
//
// # Observability
//
// Load and Save log through a *Logger (slog) and report to a
// MetricsCollector; metrics/prom exports the same measurements to
// Prometheus.
package wordvec
