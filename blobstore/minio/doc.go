// Package minio stores embedding files in MinIO or any other
// S3-compatible service (Ceph, Garage, SeaweedFS).
//
//	client, err := minio.NewClient(minio.ClientConfig{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	})
//	store := minio.NewStore(client, "models", "embeddings/")
//
// Uploads are streamed with PutObject of unknown size; reads are ranged
// GetObject requests.
package minio
