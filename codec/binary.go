package codec

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"slices"
	"unsafe"
)

// binaryWriter writes little-endian values and tracks the stream offset
// so that f32 arrays can be padded to 4-byte alignment.
type binaryWriter struct {
	w   io.Writer
	off int64
	buf [8]byte
}

func newBinaryWriter(w io.Writer) *binaryWriter {
	return &binaryWriter{w: w}
}

func (bw *binaryWriter) write(p []byte) error {
	n, err := bw.w.Write(p)
	bw.off += int64(n)
	return err
}

func (bw *binaryWriter) writeUint32(v uint32) error {
	binary.LittleEndian.PutUint32(bw.buf[:4], v)
	return bw.write(bw.buf[:4])
}

func (bw *binaryWriter) writeUint64(v uint64) error {
	binary.LittleEndian.PutUint64(bw.buf[:8], v)
	return bw.write(bw.buf[:8])
}

// writeString writes a u32 byte length followed by the bytes of s.
func (bw *binaryWriter) writeString(s string) error {
	if uint64(len(s)) > math.MaxUint32 {
		return fmt.Errorf("%w: string of %d bytes", ErrMalformed, len(s))
	}
	if err := bw.writeUint32(uint32(len(s))); err != nil {
		return err
	}
	return bw.write([]byte(s))
}

// writePadding pads the stream to a multiple of align bytes.
func (bw *binaryWriter) writePadding(align int64) error {
	n := padding(bw.off, align)
	if n == 0 {
		return nil
	}
	return bw.write(make([]byte, n))
}

// writeFloat32s writes vec as raw little-endian bytes.
func (bw *binaryWriter) writeFloat32s(vec []float32) error {
	if len(vec) == 0 {
		return nil
	}
	if littleEndian {
		return bw.write(unsafe.Slice((*byte)(unsafe.Pointer(&vec[0])), len(vec)*4))
	}
	for _, v := range vec {
		if err := bw.writeUint32(math.Float32bits(v)); err != nil {
			return err
		}
	}
	return nil
}

// readStep is the largest buffer allocated ahead of the data that fills
// it, so a corrupt size fails at end of input instead of allocating it.
const readStep = 1 << 22

// binaryReader is the streaming counterpart of binaryWriter.
type binaryReader struct {
	r   *bufio.Reader
	off int64
	end int64 // end offset of the current chunk, or -1
	buf [8]byte
}

func newBinaryReader(r io.Reader) *binaryReader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, 256*1024)
	}
	return &binaryReader{r: br, end: -1}
}

// limit restricts further reads to the next n bytes. A negative n lifts
// the restriction.
func (br *binaryReader) limit(n int64) {
	if n < 0 {
		br.end = -1
		return
	}
	br.end = br.off + n
}

// reserve fails when n bytes cannot be read within the current limit.
func (br *binaryReader) reserve(n int64) error {
	if n < 0 {
		return fmt.Errorf("%w: negative read of %d bytes", ErrMalformed, n)
	}
	if br.end >= 0 && n > br.end-br.off {
		return fmt.Errorf("%w: %d bytes exceed the %d bytes left in the chunk", ErrMalformed, n, max(br.end-br.off, 0))
	}
	return nil
}

func (br *binaryReader) readFull(p []byte) error {
	if err := br.reserve(int64(len(p))); err != nil {
		return err
	}
	n, err := io.ReadFull(br.r, p)
	br.off += int64(n)
	if err == io.ErrUnexpectedEOF || (err == io.EOF && br.end >= 0) {
		return fmt.Errorf("%w: unexpected end of file", ErrMalformed)
	}
	return err
}

func (br *binaryReader) readUint32() (uint32, error) {
	if err := br.readFull(br.buf[:4]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(br.buf[:4]), nil
}

func (br *binaryReader) readUint64() (uint64, error) {
	if err := br.readFull(br.buf[:8]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(br.buf[:8]), nil
}

func (br *binaryReader) readBytes(n int) ([]byte, error) {
	if err := br.reserve(int64(n)); err != nil {
		return nil, err
	}
	p := make([]byte, 0, min(n, readStep))
	for len(p) < n {
		k := min(readStep, n-len(p))
		p = slices.Grow(p, k)[:len(p)+k]
		if err := br.readFull(p[len(p)-k:]); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (br *binaryReader) readString(lossy bool) (string, error) {
	n, err := br.readUint32()
	if err != nil {
		return "", err
	}
	b, err := br.readBytes(int(n))
	if err != nil {
		return "", err
	}
	return decodeWord(b, lossy)
}

func (br *binaryReader) skip(n int64) error {
	if err := br.reserve(n); err != nil {
		return err
	}
	m, err := br.r.Discard(int(n))
	br.off += int64(m)
	if err == io.EOF {
		return fmt.Errorf("%w: unexpected end of file", ErrMalformed)
	}
	return err
}

func (br *binaryReader) skipPadding(align int64) error {
	return br.skip(padding(br.off, align))
}

// readFloat32s reads count little-endian float32 values.
func (br *binaryReader) readFloat32s(count int) ([]float32, error) {
	if count == 0 {
		return nil, nil
	}
	if count < 0 || count > math.MaxInt/4 {
		return nil, fmt.Errorf("%w: %d float32 values", ErrMalformed, count)
	}
	if err := br.reserve(int64(count) * 4); err != nil {
		return nil, err
	}

	const step = readStep / 4
	vec := make([]float32, 0, min(count, step))
	for len(vec) < count {
		k := min(step, count-len(vec))
		vec = slices.Grow(vec, k)[:len(vec)+k]
		part := vec[len(vec)-k:]
		raw := unsafe.Slice((*byte)(unsafe.Pointer(&part[0])), k*4)
		if err := br.readFull(raw); err != nil {
			return nil, err
		}
		if !littleEndian {
			for i := range part {
				part[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
			}
		}
	}
	return vec, nil
}

var littleEndian = func() bool {
	x := uint16(1)
	return *(*byte)(unsafe.Pointer(&x)) == 1
}()

func padding(off, align int64) int64 {
	return (align - off%align) % align
}
