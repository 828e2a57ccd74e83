package wordvec

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/wordvec/blobstore"
	"github.com/hupe1980/wordvec/blobstore/minio"
	"github.com/hupe1980/wordvec/blobstore/s3"
)

// Location is a parsed embedding URI.
type Location struct {
	// Scheme is "s3", "minio" or "" for the local filesystem.
	Scheme string
	Bucket string
	// Key is the object key, or the file path for local locations.
	Key string
}

// ParseLocation splits s3://bucket/key and minio://bucket/key URIs.
// Anything else is a local path.
func ParseLocation(uri string) (Location, error) {
	for _, scheme := range []string{"s3", "minio"} {
		rest, ok := strings.CutPrefix(uri, scheme+"://")
		if !ok {
			continue
		}
		bucket, key, _ := strings.Cut(rest, "/")
		if bucket == "" || key == "" {
			return Location{}, fmt.Errorf("%w: %q needs a bucket and a key", ErrInvalidLocation, uri)
		}
		return Location{Scheme: scheme, Bucket: bucket, Key: key}, nil
	}
	if uri == "" {
		return Location{}, fmt.Errorf("%w: empty path", ErrInvalidLocation)
	}
	return Location{Key: uri}, nil
}

func (l Location) String() string {
	if l.Scheme == "" {
		return l.Key
	}
	return l.Scheme + "://" + l.Bucket + "/" + l.Key
}

func (o *options) resolve(ctx context.Context, uri string) (blobstore.BlobStore, Location, error) {
	if o.store != nil {
		return o.store, Location{Key: uri}, nil
	}

	loc, err := ParseLocation(uri)
	if err != nil {
		return nil, Location{}, err
	}

	switch loc.Scheme {
	case "s3":
		client, err := s3.NewClient(ctx, o.s3Config)
		if err != nil {
			return nil, Location{}, err
		}
		return s3.NewStore(client, loc.Bucket, ""), loc, nil
	case "minio":
		client, err := minio.NewClient(o.minioConfig)
		if err != nil {
			return nil, Location{}, err
		}
		return minio.NewStore(client, loc.Bucket, ""), loc, nil
	default:
		return blobstore.NewLocalStore(""), loc, nil
	}
}
