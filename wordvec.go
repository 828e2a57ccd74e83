package wordvec

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/wordvec/blobstore"
	"github.com/hupe1980/wordvec/codec"
	"github.com/hupe1980/wordvec/embedding"
)

// Load reads embeddings in the given format from a local path, an
// s3://bucket/key or a minio://bucket/key URI.
//
// Files ending in .zst, .gz or .lz4 are decompressed on the fly. The
// finalfusion_mmap format needs an uncompressed local file; the returned
// collection then holds the mapping until Close is called.
func Load(ctx context.Context, uri string, format codec.Format, optFns ...Option) (*embedding.Embeddings, error) {
	o := applyOptions(optFns)
	start := time.Now()

	emb, err := load(ctx, uri, format, &o)
	if err == nil && o.expectedDims > 0 && emb.Dims() != o.expectedDims {
		err = &ErrDimensionMismatch{Expected: o.expectedDims, Actual: emb.Dims()}
		_ = emb.Close()
		emb = nil
	}

	d := time.Since(start)
	o.metricsCollector.RecordLoad(format.String(), d, err)
	if err != nil {
		o.logger.LogLoad(ctx, uri, format.String(), 0, 0, d, err)
		return nil, err
	}
	o.logger.LogLoad(ctx, uri, format.String(), emb.Len(), emb.Dims(), d, nil)
	return emb, nil
}

func load(ctx context.Context, uri string, format codec.Format, o *options) (*embedding.Embeddings, error) {
	store, loc, err := o.resolve(ctx, uri)
	if err != nil {
		return nil, err
	}
	compression := codec.CompressionFromPath(loc.Key)
	readOpts := codec.ReadOptions{Lossy: o.lossy}

	if format == codec.FormatFinalfusionMmap && compression != codec.CompressionNone {
		return nil, fmt.Errorf("%w: memory mapping a %s compressed file", ErrUnsupported, compression)
	}

	blob, err := store.Open(ctx, loc.Key)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", loc, err)
	}

	if format == codec.FormatFinalfusionMmap {
		m, ok := blob.(blobstore.Mappable)
		if !ok {
			_ = blob.Close()
			return nil, fmt.Errorf("%w: memory mapping %s", ErrUnsupported, loc)
		}
		b, err := m.Bytes()
		if err != nil {
			_ = blob.Close()
			return nil, err
		}
		// ReadMmap owns blob from here on.
		return codec.ReadMmap(b, blob, readOpts)
	}
	defer func() { _ = blob.Close() }()

	r, err := blobstore.NewReader(ctx, blob)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	dr, err := compression.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer func() { _ = dr.Close() }()

	emb, err := codec.Read(dr, format, readOpts)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", loc, err)
	}
	return emb, nil
}

// LoadMetadata reads only the metadata chunk of a finalfusion file. It
// returns nil metadata when the file has none.
func LoadMetadata(ctx context.Context, uri string, optFns ...Option) (embedding.Metadata, error) {
	o := applyOptions(optFns)

	store, loc, err := o.resolve(ctx, uri)
	if err != nil {
		return nil, err
	}
	blob, err := store.Open(ctx, loc.Key)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", loc, err)
	}
	defer func() { _ = blob.Close() }()

	r, err := blobstore.NewReader(ctx, blob)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	dr, err := codec.CompressionFromPath(loc.Key).NewReader(r)
	if err != nil {
		return nil, err
	}
	defer func() { _ = dr.Close() }()

	return codec.ReadMetadata(dr)
}

// Save writes emb in the given format. The destination only appears once
// the whole file has been written. unnormalize scales rows back by their
// norms for the word2vec and text formats.
func Save(ctx context.Context, uri string, emb *embedding.Embeddings, format codec.Format, unnormalize bool, optFns ...Option) error {
	o := applyOptions(optFns)
	start := time.Now()

	err := save(ctx, uri, emb, format, unnormalize, &o)
	o.logger.LogSave(ctx, uri, format.String(), time.Since(start), err)
	return err
}

func save(ctx context.Context, uri string, emb *embedding.Embeddings, format codec.Format, unnormalize bool, o *options) (err error) {
	store, loc, err := o.resolve(ctx, uri)
	if err != nil {
		return err
	}

	w, err := store.Create(ctx, loc.Key)
	if err != nil {
		return fmt.Errorf("create %s: %w", loc, err)
	}
	defer func() {
		if err != nil {
			_ = w.Abort()
		}
	}()

	cw, err := codec.CompressionFromPath(loc.Key).NewWriter(w)
	if err != nil {
		return err
	}
	if err := codec.Write(cw, emb, format, codec.WriteOptions{Unnormalize: unnormalize}); err != nil {
		return fmt.Errorf("write %s: %w", loc, err)
	}
	if err := cw.Close(); err != nil {
		return err
	}
	return w.Close()
}

// IsNotFound reports whether err means the embedding file does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
