package codec

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/wordvec/embedding"
)

// ReadMmap reads a finalfusion container held in memory, typically a
// memory-mapped file. Dense storage is a view into b and is not copied;
// the other chunks are decoded into the heap.
//
// closer, when non-nil, releases b. It is closed together with the
// returned collection when the storage is a view, and right away
// otherwise.
func ReadMmap(b []byte, closer io.Closer, opts ReadOptions) (*embedding.Embeddings, error) {
	emb, err := readMmap(b, closer, opts)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, err
	}
	if _, view := emb.Storage().(*embedding.MmapArray); !view && closer != nil {
		if err := closer.Close(); err != nil {
			return nil, err
		}
	}
	return emb, nil
}

func readMmap(b []byte, closer io.Closer, opts ReadOptions) (*embedding.Embeddings, error) {
	sr := newSliceReader(b)
	// The header is tiny; parse it with the streaming reader.
	ids, err := readHeader(newBinaryReader(bytes.NewReader(b)))
	if err != nil {
		return nil, err
	}
	sr.off = len(magic) + 8 + 4*len(ids)

	var parts chunkParts
	for range ids {
		id, err := sr.readUint32()
		if err != nil {
			return nil, err
		}
		length, err := sr.readUint64()
		if err != nil {
			return nil, err
		}
		if length > math.MaxInt32*uint64(4096) {
			return nil, fmt.Errorf("%w: chunk length %d", ErrMalformed, length)
		}
		start := sr.off
		body, err := sr.readBytes(int(length))
		if err != nil {
			return nil, err
		}

		if chunkID(id) == chunkNdArray {
			view := &sliceReader{b: b[:start+len(body)], off: start}
			if parts.storage, err = mmapNdArray(view, closer); err != nil {
				return nil, fmt.Errorf("read %s chunk: %w", chunkID(id), err)
			}
			continue
		}

		br := newBinaryReader(bytes.NewReader(body))
		br.off = int64(start)
		if err := parts.read(br, chunkID(id), int64(length), opts); err != nil {
			return nil, fmt.Errorf("read %s chunk: %w", chunkID(id), err)
		}
	}
	return parts.assemble()
}

func mmapNdArray(sr *sliceReader, closer io.Closer) (*embedding.MmapArray, error) {
	rows, err := sr.readUint64()
	if err != nil {
		return nil, err
	}
	dims, err := sr.readUint32()
	if err != nil {
		return nil, err
	}
	t, err := sr.readUint32()
	if err != nil {
		return nil, err
	}
	if t != typeF32 {
		return nil, fmt.Errorf("%w: array element type %d", ErrMalformed, t)
	}
	if rows > math.MaxInt32 || dims == 0 {
		return nil, fmt.Errorf("%w: array shape %d x %d", ErrMalformed, rows, dims)
	}
	if err := sr.skipPadding(4); err != nil {
		return nil, err
	}
	data, err := sr.readFloat32View(int(rows) * int(dims))
	if err != nil {
		return nil, err
	}
	return embedding.NewMmapArray(int(rows), int(dims), data, closer)
}
