package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"unsafe"
)

// sliceReader provides bounds-checked reads from a byte slice. The mmap
// loader uses it to hand out views into the mapping instead of copies.
type sliceReader struct {
	b   []byte
	off int
}

func newSliceReader(b []byte) *sliceReader {
	return &sliceReader{b: b}
}

func (r *sliceReader) readBytes(n int) ([]byte, error) {
	if n < 0 || n > len(r.b)-r.off {
		return nil, fmt.Errorf("%w: out of bounds read (%d bytes at %d, len=%d)", ErrMalformed, n, r.off, len(r.b))
	}
	out := r.b[r.off : r.off+n]
	r.off += n
	return out, nil
}

func (r *sliceReader) readUint32() (uint32, error) {
	b, err := r.readBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *sliceReader) readUint64() (uint64, error) {
	b, err := r.readBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *sliceReader) skipPadding(align int) error {
	_, err := r.readBytes(int(padding(int64(r.off), int64(align))))
	return err
}

// readFloat32View returns n float32 values without copying when the host
// is little-endian and the data is 4-byte aligned, and a copy otherwise.
func (r *sliceReader) readFloat32View(n int) ([]float32, error) {
	if n == 0 {
		return nil, nil
	}
	if n < 0 || n > (len(r.b)-r.off)/4 {
		return nil, fmt.Errorf("%w: %d float32 values at %d, len=%d", ErrMalformed, n, r.off, len(r.b))
	}
	bb, err := r.readBytes(n * 4)
	if err != nil {
		return nil, err
	}
	if littleEndian && uintptr(unsafe.Pointer(&bb[0]))%4 == 0 {
		return unsafe.Slice((*float32)(unsafe.Pointer(&bb[0])), n), nil
	}
	return newBinaryReader(bytes.NewReader(bb)).readFloat32s(n)
}
