package codec

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"math/bits"

	"github.com/hupe1980/wordvec/embedding"
	"github.com/hupe1980/wordvec/internal/conv"
	"github.com/hupe1980/wordvec/quantization"
)

const (
	magic   = "FiFu"
	version = uint32(0)

	typeU8  = uint32(1)
	typeF32 = uint32(10)

	// chunk id (4) + chunk length (8)
	chunkPrefixSize = 12
	// projection, norms, subquantizers, dims, centroids, rows, two type ids
	quantizedHeaderSize = 4 + 4 + 4 + 8 + 4 + 8 + 4 + 4
	// rows, cols, type id
	ndArrayHeaderSize = 8 + 4 + 4
	// length, type id
	normsHeaderSize = 8 + 4
)

type chunkID uint32

const (
	chunkHeader chunkID = iota
	chunkSimpleVocab
	chunkNdArray
	chunkBucketSubwordVocab
	chunkQuantizedArray
	chunkMetadata
	chunkNdNorms
	chunkFastTextSubwordVocab
	chunkExplicitSubwordVocab
)

func (c chunkID) String() string {
	switch c {
	case chunkHeader:
		return "Header"
	case chunkSimpleVocab:
		return "SimpleVocab"
	case chunkNdArray:
		return "NdArray"
	case chunkBucketSubwordVocab:
		return "BucketSubwordVocab"
	case chunkQuantizedArray:
		return "QuantizedArray"
	case chunkMetadata:
		return "Metadata"
	case chunkNdNorms:
		return "NdNorms"
	case chunkFastTextSubwordVocab:
		return "FastTextSubwordVocab"
	case chunkExplicitSubwordVocab:
		return "ExplicitSubwordVocab"
	default:
		return fmt.Sprintf("chunk(%d)", uint32(c))
	}
}

// WriteFinalfusion writes emb as a finalfusion container.
func WriteFinalfusion(w io.Writer, emb *embedding.Embeddings) error {
	vocabID, err := vocabChunk(emb.Vocab())
	if err != nil {
		return err
	}
	storageID := chunkNdArray
	if _, ok := emb.Storage().(*quantization.QuantizedArray); ok {
		storageID = chunkQuantizedArray
	}

	var ids []chunkID
	if emb.Metadata() != nil {
		ids = append(ids, chunkMetadata)
	}
	ids = append(ids, vocabID, storageID)
	if emb.Norms() != nil {
		ids = append(ids, chunkNdNorms)
	}

	bw := newBinaryWriter(w)
	if err := writeHeader(bw, ids); err != nil {
		return err
	}
	for _, id := range ids {
		switch id {
		case chunkMetadata:
			err = writeMetadata(bw, emb.Metadata())
		case chunkNdArray:
			err = writeNdArray(bw, emb.Storage())
		case chunkQuantizedArray:
			err = writeQuantizedArray(bw, emb.Storage().(*quantization.QuantizedArray))
		case chunkNdNorms:
			err = writeNorms(bw, emb.Norms())
		default:
			err = writeVocab(bw, id, emb.Vocab())
		}
		if err != nil {
			return fmt.Errorf("write %s chunk: %w", id, err)
		}
	}
	return nil
}

func writeHeader(bw *binaryWriter, ids []chunkID) error {
	if err := bw.write([]byte(magic)); err != nil {
		return err
	}
	if err := bw.writeUint32(version); err != nil {
		return err
	}
	if err := bw.writeUint32(uint32(len(ids))); err != nil {
		return err
	}
	for _, id := range ids {
		if err := bw.writeUint32(uint32(id)); err != nil {
			return err
		}
	}
	return nil
}

func writeChunkPrefix(bw *binaryWriter, id chunkID, length int64) error {
	if err := bw.writeUint32(uint32(id)); err != nil {
		return err
	}
	return bw.writeUint64(uint64(length))
}

// writeBuffered renders a chunk body in memory first so that its length
// is known. The body writer starts at the offset the body will have in
// the file, which keeps padding correct.
func writeBuffered(bw *binaryWriter, id chunkID, body func(*binaryWriter) error) error {
	var buf bytes.Buffer
	pw := &binaryWriter{w: &buf, off: bw.off + chunkPrefixSize}
	if err := body(pw); err != nil {
		return err
	}
	if err := writeChunkPrefix(bw, id, int64(buf.Len())); err != nil {
		return err
	}
	return bw.write(buf.Bytes())
}

func writeMetadata(bw *binaryWriter, m embedding.Metadata) error {
	data, err := m.MarshalTOML()
	if err != nil {
		return err
	}
	return writeBuffered(bw, chunkMetadata, func(pw *binaryWriter) error {
		return pw.write(data)
	})
}

func vocabChunk(v embedding.Vocab) (chunkID, error) {
	switch v := v.(type) {
	case *embedding.SimpleVocab:
		return chunkSimpleVocab, nil
	case *embedding.SubwordVocab:
		switch v.Indexer().(type) {
		case embedding.FinalfusionHashIndexer:
			return chunkBucketSubwordVocab, nil
		case embedding.FastTextIndexer:
			return chunkFastTextSubwordVocab, nil
		case *embedding.ExplicitIndexer:
			return chunkExplicitSubwordVocab, nil
		}
		return 0, fmt.Errorf("%w: subword indexer %T", ErrUnsupported, v.Indexer())
	default:
		return 0, fmt.Errorf("%w: vocabulary %T", ErrUnsupported, v)
	}
}

func writeWords(pw *binaryWriter, words []string) error {
	for _, w := range words {
		if err := pw.writeString(w); err != nil {
			return err
		}
	}
	return nil
}

func writeVocab(bw *binaryWriter, id chunkID, v embedding.Vocab) error {
	return writeBuffered(bw, id, func(pw *binaryWriter) error {
		words := v.Words()
		if err := pw.writeUint64(uint64(len(words))); err != nil {
			return err
		}
		if id == chunkSimpleVocab {
			return writeWords(pw, words)
		}

		sv := v.(*embedding.SubwordVocab)
		var ngrams []string
		if id == chunkExplicitSubwordVocab {
			ngrams = sv.Indexer().(*embedding.ExplicitIndexer).NGrams()
			if err := pw.writeUint64(uint64(len(ngrams))); err != nil {
				return err
			}
		}
		if err := pw.writeUint32(uint32(sv.MinN())); err != nil {
			return err
		}
		if err := pw.writeUint32(uint32(sv.MaxN())); err != nil {
			return err
		}
		switch idx := sv.Indexer().(type) {
		case embedding.FinalfusionHashIndexer:
			if err := pw.writeUint32(idx.BucketExp); err != nil {
				return err
			}
		case embedding.FastTextIndexer:
			if err := pw.writeUint32(idx.Buckets); err != nil {
				return err
			}
		}
		if err := writeWords(pw, words); err != nil {
			return err
		}
		for _, ng := range ngrams {
			row, _ := sv.Indexer().Index(ng)
			if err := pw.writeString(ng); err != nil {
				return err
			}
			if err := pw.writeUint64(uint64(row)); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeNdArray(bw *binaryWriter, s embedding.Storage) error {
	rows, dims := s.Shape()
	pad := padding(bw.off+chunkPrefixSize+ndArrayHeaderSize, 4)
	length := ndArrayHeaderSize + pad + int64(rows)*int64(dims)*4
	d, err := conv.IntToUint32(dims)
	if err != nil {
		return err
	}
	if err := writeChunkPrefix(bw, chunkNdArray, length); err != nil {
		return err
	}
	if err := bw.writeUint64(uint64(rows)); err != nil {
		return err
	}
	if err := bw.writeUint32(d); err != nil {
		return err
	}
	if err := bw.writeUint32(typeF32); err != nil {
		return err
	}
	if err := bw.writePadding(4); err != nil {
		return err
	}
	if v, ok := s.(embedding.StorageView); ok {
		return bw.writeFloat32s(v.View()[:rows*dims])
	}
	for i := range rows {
		if err := bw.writeFloat32s(s.Embedding(i)); err != nil {
			return err
		}
	}
	return nil
}

func writeQuantizedArray(bw *binaryWriter, qa *quantization.QuantizedArray) error {
	q := qa.Quantizer()
	rows, dims := qa.Shape()
	subq := q.Subquantizers()
	centroids := 1 << q.Bits()
	projection := q.Projection()
	norms := qa.Norms()

	pad := padding(bw.off+chunkPrefixSize+quantizedHeaderSize, 4)
	length := quantizedHeaderSize + pad +
		int64(len(projection))*4 +
		int64(centroids)*int64(dims)*4 +
		int64(len(norms))*4 +
		int64(rows)*int64(subq)
	if err := writeChunkPrefix(bw, chunkQuantizedArray, length); err != nil {
		return err
	}

	for _, v := range []uint32{boolToUint32(projection != nil), boolToUint32(norms != nil), uint32(subq)} {
		if err := bw.writeUint32(v); err != nil {
			return err
		}
	}
	if err := bw.writeUint64(uint64(dims)); err != nil {
		return err
	}
	if err := bw.writeUint32(uint32(centroids)); err != nil {
		return err
	}
	if err := bw.writeUint64(uint64(rows)); err != nil {
		return err
	}
	if err := bw.writeUint32(typeU8); err != nil {
		return err
	}
	if err := bw.writeUint32(typeF32); err != nil {
		return err
	}
	if err := bw.writePadding(4); err != nil {
		return err
	}

	if err := bw.writeFloat32s(projection); err != nil {
		return err
	}
	for _, cb := range q.Codebooks() {
		if err := bw.writeFloat32s(cb); err != nil {
			return err
		}
	}
	if err := bw.writeFloat32s(norms); err != nil {
		return err
	}
	return bw.write(qa.Codes())
}

func writeNorms(bw *binaryWriter, norms embedding.Norms) error {
	pad := padding(bw.off+chunkPrefixSize+normsHeaderSize, 4)
	if err := writeChunkPrefix(bw, chunkNdNorms, normsHeaderSize+pad+int64(len(norms))*4); err != nil {
		return err
	}
	if err := bw.writeUint64(uint64(len(norms))); err != nil {
		return err
	}
	if err := bw.writeUint32(typeF32); err != nil {
		return err
	}
	if err := bw.writePadding(4); err != nil {
		return err
	}
	return bw.writeFloat32s(norms)
}

func boolToUint32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// ReadFinalfusion reads a finalfusion container into memory.
func ReadFinalfusion(r io.Reader, opts ReadOptions) (*embedding.Embeddings, error) {
	br := newBinaryReader(r)
	ids, err := readHeader(br)
	if err != nil {
		return nil, err
	}

	var parts chunkParts
	for range ids {
		id, length, err := readChunkPrefix(br)
		if err != nil {
			return nil, err
		}
		if err := parts.read(br, id, length, opts); err != nil {
			return nil, fmt.Errorf("read %s chunk: %w", id, err)
		}
	}
	return parts.assemble()
}

// ReadMetadata reads only the metadata chunk of a finalfusion container,
// skipping everything else. It returns nil when there is none.
func ReadMetadata(r io.Reader) (embedding.Metadata, error) {
	br := newBinaryReader(r)
	ids, err := readHeader(br)
	if err != nil {
		return nil, err
	}
	for range ids {
		id, length, err := readChunkPrefix(br)
		if err != nil {
			return nil, err
		}
		if id == chunkMetadata {
			data, err := readMetadataBytes(br, length)
			if err != nil {
				return nil, err
			}
			return embedding.ParseMetadata(data)
		}
		if err := br.skip(length); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func readHeader(br *binaryReader) ([]chunkID, error) {
	m, err := br.readBytes(len(magic))
	if err != nil {
		return nil, err
	}
	if string(m) != magic {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidMagic, m)
	}
	v, err := br.readUint32()
	if err != nil {
		return nil, err
	}
	if v != version {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVersion, v)
	}
	n, err := br.readUint32()
	if err != nil {
		return nil, err
	}
	if n > 64 {
		return nil, fmt.Errorf("%w: %d chunks", ErrMalformed, n)
	}
	ids := make([]chunkID, n)
	for i := range ids {
		id, err := br.readUint32()
		if err != nil {
			return nil, err
		}
		ids[i] = chunkID(id)
	}
	return ids, nil
}

func readChunkPrefix(br *binaryReader) (chunkID, int64, error) {
	id, err := br.readUint32()
	if err != nil {
		return 0, 0, err
	}
	length, err := br.readUint64()
	if err != nil {
		return 0, 0, err
	}
	if length > math.MaxInt64 {
		return 0, 0, fmt.Errorf("%w: chunk length %d", ErrMalformed, length)
	}
	return chunkID(id), int64(length), nil
}

// chunkParts collects decoded chunks until the collection can be assembled.
type chunkParts struct {
	metadata embedding.Metadata
	vocab    embedding.Vocab
	storage  embedding.Storage
	norms    embedding.Norms
}

func (p *chunkParts) read(br *binaryReader, id chunkID, length int64, opts ReadOptions) error {
	br.limit(length)
	defer br.limit(-1)

	var err error
	switch id {
	case chunkMetadata:
		var data []byte
		if data, err = readMetadataBytes(br, length); err == nil {
			p.metadata, err = embedding.ParseMetadata(data)
		}
	case chunkSimpleVocab, chunkBucketSubwordVocab, chunkFastTextSubwordVocab, chunkExplicitSubwordVocab:
		p.vocab, err = readVocab(br, id, opts.Lossy)
	case chunkNdArray:
		p.storage, err = readNdArray(br)
	case chunkQuantizedArray:
		p.storage, err = readQuantizedArray(br)
	case chunkNdNorms:
		p.norms, err = readNorms(br)
	default:
		err = fmt.Errorf("%w: unknown chunk", ErrMalformed)
	}
	return err
}

func (p *chunkParts) assemble() (*embedding.Embeddings, error) {
	if p.vocab == nil {
		return nil, fmt.Errorf("%w: no vocabulary chunk", ErrMalformed)
	}
	if p.storage == nil {
		return nil, fmt.Errorf("%w: no storage chunk", ErrMalformed)
	}
	return embedding.New(p.metadata, p.vocab, p.storage, p.norms)
}

func readWords(br *binaryReader, n uint64, lossy bool) ([]string, error) {
	words := make([]string, 0, min(n, 1<<20))
	for range n {
		w, err := br.readString(lossy)
		if err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	return words, nil
}

func readVocab(br *binaryReader, id chunkID, lossy bool) (embedding.Vocab, error) {
	n, err := br.readUint64()
	if err != nil {
		return nil, err
	}
	if id == chunkSimpleVocab {
		words, err := readWords(br, n, lossy)
		if err != nil {
			return nil, err
		}
		return embedding.NewSimpleVocab(words)
	}

	var nNGrams uint64
	if id == chunkExplicitSubwordVocab {
		if nNGrams, err = br.readUint64(); err != nil {
			return nil, err
		}
	}
	minN, err := br.readUint32()
	if err != nil {
		return nil, err
	}
	maxN, err := br.readUint32()
	if err != nil {
		return nil, err
	}

	var indexer embedding.Indexer
	switch id {
	case chunkBucketSubwordVocab:
		exp, err := br.readUint32()
		if err != nil {
			return nil, err
		}
		if exp > 40 {
			return nil, fmt.Errorf("%w: bucket exponent %d", ErrMalformed, exp)
		}
		indexer = embedding.FinalfusionHashIndexer{BucketExp: exp}
	case chunkFastTextSubwordVocab:
		buckets, err := br.readUint32()
		if err != nil {
			return nil, err
		}
		indexer = embedding.FastTextIndexer{Buckets: buckets}
	}

	words, err := readWords(br, n, lossy)
	if err != nil {
		return nil, err
	}

	if id == chunkExplicitSubwordVocab {
		ngrams := make([]string, 0, min(nNGrams, 1<<20))
		rows := make([]int, 0, min(nNGrams, 1<<20))
		for range nNGrams {
			ng, err := br.readString(lossy)
			if err != nil {
				return nil, err
			}
			row, err := br.readUint64()
			if err != nil {
				return nil, err
			}
			if row > math.MaxInt32 {
				return nil, fmt.Errorf("%w: n-gram row %d", ErrMalformed, row)
			}
			ngrams = append(ngrams, ng)
			rows = append(rows, int(row))
		}
		if indexer, err = embedding.NewExplicitIndexer(ngrams, rows); err != nil {
			return nil, err
		}
	}
	return embedding.NewSubwordVocab(words, int(minN), int(maxN), indexer)
}

func readMetadataBytes(br *binaryReader, length int64) ([]byte, error) {
	n, err := conv.NonNegInt64ToInt(length)
	if err != nil {
		return nil, fmt.Errorf("%w: metadata chunk: %v", ErrMalformed, err)
	}
	return br.readBytes(n)
}

func readNdArray(br *binaryReader) (*embedding.NdArray, error) {
	rows, dims, err := readNdArrayHeader(br)
	if err != nil {
		return nil, err
	}
	data, err := br.readFloat32s(rows * dims)
	if err != nil {
		return nil, err
	}
	return embedding.NewNdArray(rows, dims, data)
}

func readNdArrayHeader(br *binaryReader) (rows, dims int, err error) {
	r, err := br.readUint64()
	if err != nil {
		return 0, 0, err
	}
	d, err := br.readUint32()
	if err != nil {
		return 0, 0, err
	}
	t, err := br.readUint32()
	if err != nil {
		return 0, 0, err
	}
	if t != typeF32 {
		return 0, 0, fmt.Errorf("%w: array element type %d", ErrMalformed, t)
	}
	if r > math.MaxInt32 || d == 0 {
		return 0, 0, fmt.Errorf("%w: array shape %d x %d", ErrMalformed, r, d)
	}
	return int(r), int(d), br.skipPadding(4)
}

func readNorms(br *binaryReader) (embedding.Norms, error) {
	n, err := br.readUint64()
	if err != nil {
		return nil, err
	}
	t, err := br.readUint32()
	if err != nil {
		return nil, err
	}
	if t != typeF32 {
		return nil, fmt.Errorf("%w: norms element type %d", ErrMalformed, t)
	}
	if n > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %d norms", ErrMalformed, n)
	}
	if err := br.skipPadding(4); err != nil {
		return nil, err
	}
	norms, err := br.readFloat32s(int(n))
	if err != nil {
		return nil, err
	}
	if norms == nil {
		norms = []float32{}
	}
	return norms, nil
}

func readQuantizedArray(br *binaryReader) (*quantization.QuantizedArray, error) {
	var head [3]uint32
	for i := range head {
		v, err := br.readUint32()
		if err != nil {
			return nil, err
		}
		head[i] = v
	}
	hasProjection, hasNorms, subq := head[0] != 0, head[1] != 0, int(head[2])
	dims64, err := br.readUint64()
	if err != nil {
		return nil, err
	}
	centroids, err := br.readUint32()
	if err != nil {
		return nil, err
	}
	rows64, err := br.readUint64()
	if err != nil {
		return nil, err
	}
	qt, err := br.readUint32()
	if err != nil {
		return nil, err
	}
	rt, err := br.readUint32()
	if err != nil {
		return nil, err
	}
	if qt != typeU8 || rt != typeF32 {
		return nil, fmt.Errorf("%w: quantized element types %d/%d", ErrMalformed, qt, rt)
	}
	if subq == 0 || dims64 == 0 || dims64 > math.MaxInt32 || dims64%uint64(subq) != 0 || rows64 > math.MaxInt32 {
		return nil, fmt.Errorf("%w: quantized shape %d rows, %d dims, %d subquantizers", ErrMalformed, rows64, dims64, subq)
	}
	if centroids < 2 || centroids > 256 || bits.OnesCount32(centroids) != 1 {
		return nil, fmt.Errorf("%w: %d centroids", ErrMalformed, centroids)
	}
	dims, rows := int(dims64), int(rows64)
	if err := br.skipPadding(4); err != nil {
		return nil, err
	}

	var projection []float32
	if hasProjection {
		if projection, err = br.readFloat32s(dims * dims); err != nil {
			return nil, err
		}
	}
	subDims := dims / subq
	codebooks := make([][]float32, subq)
	for m := range codebooks {
		if codebooks[m], err = br.readFloat32s(int(centroids) * subDims); err != nil {
			return nil, err
		}
	}
	var norms []float32
	if hasNorms {
		if norms, err = br.readFloat32s(rows); err != nil {
			return nil, err
		}
	}
	codes, err := br.readBytes(rows * subq)
	if err != nil {
		return nil, err
	}

	q, err := quantization.FromParts(dims, bits.TrailingZeros32(centroids), codebooks, projection)
	if err != nil {
		return nil, err
	}
	return quantization.NewQuantizedArray(q, codes, norms)
}
