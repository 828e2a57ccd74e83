package codec

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/wordvec/embedding"
	"github.com/hupe1980/wordvec/quantization"
)

type closeRecorder struct{ closed int }

func (c *closeRecorder) Close() error {
	c.closed++
	return nil
}

func simpleEmbeddings(t *testing.T, meta embedding.Metadata) *embedding.Embeddings {
	t.Helper()
	vocab, err := embedding.NewSimpleVocab([]string{"berlin", "paris", "tübingen"})
	require.NoError(t, err)
	storage, err := embedding.NewNdArray(3, 3, []float32{
		3, 0, 4,
		0, 2, 0,
		0, 0, 1,
	})
	require.NoError(t, err)
	norms := embedding.NormalizeRows(storage.Data(), 3, 3)
	emb, err := embedding.New(meta, vocab, storage, norms)
	require.NoError(t, err)
	return emb
}

func rows(s embedding.Storage) [][]float32 {
	n, _ := s.Shape()
	out := make([][]float32, n)
	for i := range out {
		out[i] = s.Embedding(i)
	}
	return out
}

func assertSameEmbeddings(t *testing.T, want, got *embedding.Embeddings) {
	t.Helper()
	assert.Equal(t, want.Vocab().Words(), got.Vocab().Words())
	assert.Equal(t, want.Vocab().VocabLen(), got.Vocab().VocabLen())
	assert.Equal(t, want.Norms(), got.Norms())
	assert.Equal(t, want.Metadata(), got.Metadata())
	assert.Equal(t, rows(want.Storage()), rows(got.Storage()))
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"fasttext", "finalfusion", "finalfusion_mmap", "word2vec", "text", "textdims"} {
		f, err := ParseFormat(name)
		require.NoError(t, err)
		assert.Equal(t, name, f.String())
	}
	_, err := ParseFormat("glove")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFinalfusion_RoundTrip(t *testing.T) {
	meta := embedding.Metadata{"corpus": "wiki", "dims": int64(3)}
	emb := simpleEmbeddings(t, meta)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, emb, FormatFinalfusion, WriteOptions{}))
	assert.Equal(t, "FiFu", buf.String()[:4])

	got, err := Read(bytes.NewReader(buf.Bytes()), FormatFinalfusion, ReadOptions{})
	require.NoError(t, err)
	assertSameEmbeddings(t, emb, got)

	m, err := ReadMetadata(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, meta, m)
}

func TestFinalfusion_SubwordVocabs(t *testing.T) {
	explicit, err := embedding.NewExplicitIndexer([]string{"<ab", "ab>", "<ca"}, []int{0, 1, 1})
	require.NoError(t, err)

	indexers := map[string]embedding.Indexer{
		"bucket":   embedding.FinalfusionHashIndexer{BucketExp: 2},
		"fasttext": embedding.FastTextIndexer{Buckets: 3},
		"explicit": explicit,
	}
	for name, indexer := range indexers {
		t.Run(name, func(t *testing.T) {
			vocab, err := embedding.NewSubwordVocab([]string{"ab", "ca"}, 3, 6, indexer)
			require.NoError(t, err)
			n := vocab.VocabLen()
			data := make([]float32, n*2)
			for i := range data {
				data[i] = float32(i) + 0.5
			}
			storage, err := embedding.NewNdArray(n, 2, data)
			require.NoError(t, err)
			emb, err := embedding.New(nil, vocab, storage, nil)
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, Write(&buf, emb, FormatFinalfusion, WriteOptions{}))
			got, err := ReadFinalfusion(&buf, ReadOptions{})
			require.NoError(t, err)
			assertSameEmbeddings(t, emb, got)

			sv, ok := got.Vocab().(*embedding.SubwordVocab)
			require.True(t, ok)
			assert.Equal(t, 3, sv.MinN())
			assert.Equal(t, 6, sv.MaxN())
			assert.IsType(t, indexer, sv.Indexer())
			assert.Equal(t, vocab.SubwordIndices("abc"), sv.SubwordIndices("abc"))
		})
	}
}

func quantizedEmbeddings(t *testing.T, projection []float32) *embedding.Embeddings {
	t.Helper()
	q, err := quantization.FromParts(2, 1, [][]float32{{0, 3}, {4, 0}}, projection)
	require.NoError(t, err)
	qa, err := quantization.NewQuantizedArray(q, []byte{1, 0, 0, 1, 1, 1}, []float32{0.5, 1, 2})
	require.NoError(t, err)
	vocab, err := embedding.NewSimpleVocab([]string{"x", "y", "z"})
	require.NoError(t, err)
	emb, err := embedding.New(embedding.Metadata{"quantizer": "pq"}, vocab, qa, embedding.Norms{1, 2, 3})
	require.NoError(t, err)
	return emb
}

func TestFinalfusion_Quantized(t *testing.T) {
	for name, projection := range map[string][]float32{"pq": nil, "opq": {0, 1, 1, 0}} {
		t.Run(name, func(t *testing.T) {
			emb := quantizedEmbeddings(t, projection)

			var buf bytes.Buffer
			require.NoError(t, WriteFinalfusion(&buf, emb))
			got, err := ReadFinalfusion(bytes.NewReader(buf.Bytes()), ReadOptions{})
			require.NoError(t, err)
			assertSameEmbeddings(t, emb, got)

			qa, ok := got.Storage().(*quantization.QuantizedArray)
			require.True(t, ok)
			assert.Equal(t, 1, qa.Quantizer().Bits())
			assert.Equal(t, projection, qa.Quantizer().Projection())

			closer := &closeRecorder{}
			mm, err := ReadMmap(buf.Bytes(), closer, ReadOptions{})
			require.NoError(t, err)
			assertSameEmbeddings(t, emb, mm)
			// nothing references the mapping
			assert.Equal(t, 1, closer.closed)
		})
	}
}

func TestReadMmap_DenseView(t *testing.T) {
	// an odd-sized metadata chunk forces padding before the array data
	emb := simpleEmbeddings(t, embedding.Metadata{"x": "y"})
	var buf bytes.Buffer
	require.NoError(t, WriteFinalfusion(&buf, emb))

	// copy into a 4-byte aligned buffer, as a mapping would be
	words := make([]float32, (buf.Len()+3)/4)
	mapped := unsafeBytes(words)[:buf.Len()]
	copy(mapped, buf.Bytes())

	closer := &closeRecorder{}
	got, err := ReadMmap(mapped, closer, ReadOptions{})
	require.NoError(t, err)
	assertSameEmbeddings(t, emb, got)

	arr, ok := got.Storage().(*embedding.MmapArray)
	require.True(t, ok)
	assert.True(t, aliases(mapped, arr.View()))

	assert.Equal(t, 0, closer.closed)
	require.NoError(t, got.Close())
	assert.Equal(t, 1, closer.closed)
}

func TestReadMmap_ClosesOnError(t *testing.T) {
	closer := &closeRecorder{}
	_, err := ReadMmap([]byte("nope and more bytes"), closer, ReadOptions{})
	assert.ErrorIs(t, err, ErrInvalidMagic)
	assert.Equal(t, 1, closer.closed)
}

func TestFinalfusion_Errors(t *testing.T) {
	_, err := ReadFinalfusion(bytes.NewReader([]byte("FuFi\x00\x00\x00\x00")), ReadOptions{})
	assert.ErrorIs(t, err, ErrInvalidMagic)

	_, err = ReadFinalfusion(bytes.NewReader([]byte("FiFu\x01\x00\x00\x00\x00\x00\x00\x00")), ReadOptions{})
	assert.ErrorIs(t, err, ErrInvalidVersion)

	var buf bytes.Buffer
	require.NoError(t, WriteFinalfusion(&buf, simpleEmbeddings(t, nil)))
	_, err = ReadFinalfusion(bytes.NewReader(buf.Bytes()[:buf.Len()-5]), ReadOptions{})
	assert.ErrorIs(t, err, ErrMalformed)

	m, err := ReadMetadata(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Nil(t, m)
}

// singleChunk builds a finalfusion container holding one chunk whose
// prefix declares length bytes, followed by body.
func singleChunk(id chunkID, length uint64, body []byte) []byte {
	var b []byte
	b = append(b, magic...)
	b = binary.LittleEndian.AppendUint32(b, version)
	b = binary.LittleEndian.AppendUint32(b, 1)
	b = binary.LittleEndian.AppendUint32(b, uint32(id))
	b = binary.LittleEndian.AppendUint32(b, uint32(id))
	b = binary.LittleEndian.AppendUint64(b, length)
	return append(b, body...)
}

func ndArrayHeader(rows uint64, dims uint32) []byte {
	var b []byte
	b = binary.LittleEndian.AppendUint64(b, rows)
	b = binary.LittleEndian.AppendUint32(b, dims)
	return binary.LittleEndian.AppendUint32(b, typeF32)
}

func TestFinalfusion_CorruptSizes(t *testing.T) {
	truncated := append(ndArrayHeader(2, 2), 0, 0, 0x80, 0x3f)

	hugeWord := binary.LittleEndian.AppendUint64(nil, 1)
	hugeWord = binary.LittleEndian.AppendUint32(hugeWord, math.MaxUint32)

	hugeNorms := binary.LittleEndian.AppendUint64(nil, math.MaxInt32)
	hugeNorms = binary.LittleEndian.AppendUint32(hugeNorms, typeF32)

	tests := []struct {
		name string
		data []byte
		mmap bool
	}{
		{"array shape overflows", singleChunk(chunkNdArray, 16, ndArrayHeader(math.MaxInt32, math.MaxUint32)), true},
		{"array larger than chunk", singleChunk(chunkNdArray, 16, ndArrayHeader(100_000_000, 300)), true},
		{"array body truncated", singleChunk(chunkNdArray, 32, truncated), false},
		{"word longer than chunk", singleChunk(chunkSimpleVocab, 12, hugeWord), true},
		{"norms larger than chunk", singleChunk(chunkNdNorms, 12, hugeNorms), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() {
				_, err = ReadFinalfusion(bytes.NewReader(tt.data), ReadOptions{})
			})
			assert.ErrorIs(t, err, ErrMalformed)

			if !tt.mmap {
				return
			}
			closer := &closeRecorder{}
			require.NotPanics(t, func() {
				_, err = ReadMmap(tt.data, closer, ReadOptions{})
			})
			assert.ErrorIs(t, err, ErrMalformed)
			assert.Equal(t, 1, closer.closed)
		})
	}
}

func TestBinaryReader_Limit(t *testing.T) {
	br := newBinaryReader(bytes.NewReader(make([]byte, 64)))
	br.limit(8)

	_, err := br.readUint64()
	require.NoError(t, err)
	_, err = br.readUint32()
	assert.ErrorIs(t, err, ErrMalformed)
	_, err = br.readFloat32s(1 << 40)
	assert.ErrorIs(t, err, ErrMalformed)

	br.limit(-1)
	v, err := br.readFloat32s(4)
	require.NoError(t, err)
	assert.Len(t, v, 4)

	// without a limit, a size beyond the input fails at end of input
	_, err = br.readBytes(readStep * 3)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestWord2Vec_RoundTrip(t *testing.T) {
	emb := simpleEmbeddings(t, nil)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, emb, FormatWord2Vec, WriteOptions{Unnormalize: true}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("3 3\nberlin ")))

	got, err := Read(&buf, FormatWord2Vec, ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, emb.Vocab().Words(), got.Vocab().Words())
	assert.InDeltaSlice(t, []float32(emb.Norms()), []float32(got.Norms()), 1e-6)
	for i, r := range rows(emb.Storage()) {
		assert.InDeltaSlice(t, r, got.Storage().Embedding(i), 1e-6)
	}
}

func TestWord2Vec_Lossy(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("1 2\n")
	buf.Write([]byte{'a', 0xff, ' '})
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, []float32{3, 4}))
	buf.WriteByte('\n')

	_, err := ReadWord2Vec(bytes.NewReader(buf.Bytes()), ReadOptions{})
	assert.ErrorIs(t, err, ErrMalformed)

	emb, err := ReadWord2Vec(bytes.NewReader(buf.Bytes()), ReadOptions{Lossy: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a�"}, emb.Vocab().Words())
	assert.Equal(t, embedding.Norms{5}, emb.Norms())
	assert.InDeltaSlice(t, []float32{0.6, 0.8}, emb.Storage().Embedding(0), 1e-6)
}

func TestText(t *testing.T) {
	emb := simpleEmbeddings(t, nil)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, emb, WriteOptions{Unnormalize: true}))
	assert.Equal(t, "berlin 3 0 4\nparis 0 2 0\ntübingen 0 0 1\n", buf.String())

	got, err := ReadText(&buf, ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, emb.Vocab().Words(), got.Vocab().Words())
	assert.InDeltaSlice(t, []float32{5, 2, 1}, []float32(got.Norms()), 1e-6)

	buf.Reset()
	require.NoError(t, WriteTextDims(&buf, emb, WriteOptions{}))
	assert.Equal(t, "3 3\nberlin 0.6 0 0.8\n", buf.String()[:len("3 3\nberlin 0.6 0 0.8\n")])
	got, err = ReadTextDims(&buf, ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, got.Len())
	assert.Equal(t, 3, got.Dims())
}

func TestText_Errors(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		input  string
	}{
		{"ragged", FormatText, "a 1 2\nb 1\n"},
		{"not a number", FormatText, "a 1 x\n"},
		{"empty", FormatText, ""},
		{"bad header", FormatTextDims, "2\na 1\n"},
		{"row count", FormatTextDims, "2 1\na 1\n"},
		{"dims", FormatTextDims, "1 2\na 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(bytes.NewReader([]byte(tt.input)), tt.format, ReadOptions{})
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}

	_, err := ReadText(bytes.NewReader([]byte("a 1\na 2\n")), ReadOptions{})
	assert.ErrorIs(t, err, embedding.ErrDuplicateWord)
}

// fastTextModel writes a minimal fastText .bin model.
func fastTextModel(t *testing.T, words []string, dims, buckets, minN, maxN int, matrix []float32, quantized bool) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := func(v any) { require.NoError(t, binary.Write(&buf, binary.LittleEndian, v)) }
	w(int32(fastTextMagic))
	w(int32(fastTextVersion))
	// dim ws epoch min_count neg word_ngrams loss model bucket minn maxn lr_update_rate
	w([]int32{int32(dims), 5, 5, 1, 5, 1, 2, 2, int32(buckets), int32(minN), int32(maxN), 100})
	w(float64(1e-4))
	w([]int32{int32(len(words) + 1), int32(len(words)), 1})
	w(int64(100))
	w(int64(-1))
	for _, word := range words {
		buf.WriteString(word)
		buf.WriteByte(0)
		w(int64(10))
		w(int8(0))
	}
	buf.WriteString("__label__x")
	buf.WriteByte(0)
	w(int64(3))
	w(int8(1))
	w(quantized)
	w(int64(len(words) + buckets))
	w(int64(dims))
	w(matrix)
	return buf.Bytes()
}

func TestFastText(t *testing.T) {
	const buckets = 4
	matrix := []float32{
		1, 0, // ab
		0, 0, 0, 0, 0, 0, 0, 0,
	}
	// distinct bucket rows
	for b := range buckets {
		matrix[2+b*2] = float32(b + 1)
		matrix[2+b*2+1] = float32(10 * (b + 1))
	}
	model := fastTextModel(t, []string{"ab"}, 2, buckets, 3, 3, matrix, false)

	emb, err := Read(bytes.NewReader(model), FormatFastText, ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"ab"}, emb.Vocab().Words())
	assert.Equal(t, 1+buckets, emb.Vocab().VocabLen())

	// mean of the word row and the rows of "<ab" and "ab>"
	want := []float32{1, 0}
	for _, ng := range []string{"<ab", "ab>"} {
		b := embedding.FastTextHash(ng) % buckets
		want[0] += matrix[2+b*2]
		want[1] += matrix[2+b*2+1]
	}
	want[0] /= 3
	want[1] /= 3
	norm := float32(math.Hypot(float64(want[0]), float64(want[1])))
	assert.InDelta(t, norm, emb.Norms()[0], 1e-5)
	assert.InDeltaSlice(t, []float32{want[0] / norm, want[1] / norm}, emb.Storage().Embedding(0), 1e-5)
	// bucket rows are untouched
	assert.Equal(t, matrix[2:4], emb.Storage().Embedding(1))

	_, err = Read(bytes.NewReader(fastTextModel(t, []string{"ab"}, 2, buckets, 3, 3, matrix, true)), FormatFastText, ReadOptions{})
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = Read(bytes.NewReader(model[:len(model)-8]), FormatFastText, ReadOptions{})
	assert.Error(t, err)
}

func TestWrite_Unsupported(t *testing.T) {
	emb := simpleEmbeddings(t, nil)
	for _, f := range []Format{FormatFastText, FormatFinalfusionMmap} {
		err := Write(&bytes.Buffer{}, emb, f, WriteOptions{})
		assert.ErrorIs(t, err, ErrUnsupported)
	}
	_, err := Read(bytes.NewReader(nil), FormatFinalfusionMmap, ReadOptions{})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestCompression(t *testing.T) {
	assert.Equal(t, CompressionZstd, CompressionFromPath("emb.fifu.zst"))
	assert.Equal(t, CompressionGzip, CompressionFromPath("emb.txt.gz"))
	assert.Equal(t, CompressionLZ4, CompressionFromPath("emb.w2v.lz4"))
	assert.Equal(t, CompressionNone, CompressionFromPath("emb.fifu"))

	emb := simpleEmbeddings(t, embedding.Metadata{"k": "v"})
	for _, c := range []Compression{CompressionNone, CompressionZstd, CompressionGzip, CompressionLZ4} {
		t.Run(c.String(), func(t *testing.T) {
			var buf bytes.Buffer
			cw, err := c.NewWriter(&buf)
			require.NoError(t, err)
			require.NoError(t, Write(cw, emb, FormatFinalfusion, WriteOptions{}))
			require.NoError(t, cw.Close())

			cr, err := c.NewReader(&buf)
			require.NoError(t, err)
			defer cr.Close()
			got, err := Read(cr, FormatFinalfusion, ReadOptions{})
			require.NoError(t, err)
			assertSameEmbeddings(t, emb, got)
		})
	}
}
