// Package embedding holds the in-memory model of a word embedding collection:
// a vocabulary mapping words (and, for subword vocabularies, character
// n-grams) to storage rows, the embedding matrix itself, the per-word norms
// that were divided out when the rows were normalized, and optional TOML
// metadata.
//
// An Embeddings value is immutable once constructed and may be shared by any
// number of concurrent readers.
//
// # Vocabularies
//
//   - SimpleVocab: known words only.
//   - SubwordVocab: known words plus n-gram rows; unknown words are composed
//     from their n-grams. The n-gram to row mapping is pluggable
//     (FinalfusionHashIndexer, FastTextIndexer, ExplicitIndexer).
//
// # Storage
//
// Rows [0, WordsLen) hold word embeddings; subword vocabularies append their
// n-gram rows after them. NdArray owns a dense float32 matrix, MmapArray
// aliases a memory-mapped file, and quantized storage lives in package
// quantization.
package embedding
