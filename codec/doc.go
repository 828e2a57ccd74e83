// Package codec reads and writes embedding files.
//
// Supported formats:
//
//   - finalfusion: a chunked binary container holding metadata, a
//     vocabulary, dense or quantized storage and norms. It can also be
//     memory mapped (finalfusion_mmap).
//   - word2vec: the binary format of the original word2vec tool.
//   - text and textdims: one word per line followed by its values, the
//     latter with a "rows dims" header line.
//   - fasttext: fastText .bin models, read only.
//
// Rows read from word2vec and text files are L2-normalized and their
// original lengths kept as norms. Files ending in .zst, .gz or .lz4 are
// decompressed and compressed transparently by the wordvec package.
package codec
