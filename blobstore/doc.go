// Package blobstore abstracts where embedding files live.
//
// A BlobStore opens blobs for random-access reads and creates blobs for
// streaming writes. Written blobs become visible only once the writer is
// closed, so a failed conversion never leaves a truncated embedding file
// behind.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, reads through mmap (blobs are Mappable)
//   - MemoryStore: in-memory, for tests
//   - s3.Store: Amazon S3 with ranged reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible services
//
// Remote blobs implement RangeReader; NewReader uses it to stream a whole
// file in one request instead of issuing a request per ReadAt.
package blobstore
