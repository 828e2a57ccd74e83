// Package s3 stores embedding files in Amazon S3.
//
//	client, err := s3.NewClient(ctx, s3.ClientConfig{Region: "eu-central-1"})
//	store := s3.NewStore(client, "models", "embeddings/")
//	blob, err := store.Open(ctx, "wiki.fifu")
//
// Reads use ranged GetObject requests; blobstore.NewReader streams a whole
// file with a single request. Writes are streamed through the multipart
// uploader and the object appears when the writer is closed.
package s3
