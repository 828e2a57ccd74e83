package codec

import (
	"fmt"
	"io"

	"github.com/hupe1980/wordvec/distance"
	"github.com/hupe1980/wordvec/embedding"
)

const (
	fastTextMagic   = 793712314
	fastTextVersion = 12
	fastTextEOS     = "</s>"

	fastTextEntryWord = 0
)

// fastTextArgs holds the model arguments that matter for the embeddings.
type fastTextArgs struct {
	dims    int
	buckets int
	minN    int
	maxN    int
}

// ReadFastText reads the input matrix and dictionary of a fastText .bin
// model. Word rows become the average of the word row and the rows of its
// n-grams, L2-normalized with their norms kept; bucket rows are kept as
// they are. Quantized (.ftz) and pruned models are not supported.
func ReadFastText(r io.Reader, opts ReadOptions) (*embedding.Embeddings, error) {
	br := newBinaryReader(r)

	m, err := br.readUint32()
	if err != nil {
		return nil, err
	}
	if m != fastTextMagic {
		return nil, fmt.Errorf("%w: not a fastText model", ErrInvalidMagic)
	}
	v, err := br.readUint32()
	if err != nil {
		return nil, err
	}
	if v != fastTextVersion {
		return nil, fmt.Errorf("%w: fastText version %d", ErrInvalidVersion, v)
	}

	args, err := readFastTextArgs(br)
	if err != nil {
		return nil, err
	}
	words, err := readFastTextDictionary(br, opts.Lossy)
	if err != nil {
		return nil, err
	}

	quantized, err := br.readBytes(1)
	if err != nil {
		return nil, err
	}
	if quantized[0] != 0 {
		return nil, fmt.Errorf("%w: quantized fastText models", ErrUnsupported)
	}

	rows64, err := br.readUint64()
	if err != nil {
		return nil, err
	}
	cols64, err := br.readUint64()
	if err != nil {
		return nil, err
	}
	wantRows := uint64(len(words) + args.buckets)
	if rows64 != wantRows || cols64 != uint64(args.dims) {
		return nil, fmt.Errorf("%w: input matrix is %d x %d, expected %d x %d", ErrMalformed, rows64, cols64, wantRows, args.dims)
	}
	data, err := br.readFloat32s(int(rows64) * args.dims)
	if err != nil {
		return nil, err
	}
	return fastTextEmbeddings(words, args, data)
}

func readFastTextArgs(br *binaryReader) (fastTextArgs, error) {
	// dim ws epoch min_count neg word_ngrams loss model bucket minn maxn lr_update_rate
	var raw [12]int32
	for i := range raw {
		v, err := br.readUint32()
		if err != nil {
			return fastTextArgs{}, err
		}
		raw[i] = int32(v)
	}
	// sampling threshold t
	if _, err := br.readUint64(); err != nil {
		return fastTextArgs{}, err
	}
	args := fastTextArgs{
		dims:    int(raw[0]),
		buckets: int(raw[8]),
		minN:    int(raw[9]),
		maxN:    int(raw[10]),
	}
	if args.dims <= 0 || args.buckets < 0 || args.minN < 0 || args.maxN < 0 {
		return fastTextArgs{}, fmt.Errorf("%w: fastText arguments dim=%d bucket=%d minn=%d maxn=%d", ErrMalformed, args.dims, args.buckets, args.minN, args.maxN)
	}
	return args, nil
}

func readFastTextDictionary(br *binaryReader, lossy bool) ([]string, error) {
	var counts [3]int32 // size, nwords, nlabels
	for i := range counts {
		v, err := br.readUint32()
		if err != nil {
			return nil, err
		}
		counts[i] = int32(v)
	}
	size, nWords := counts[0], counts[1]
	if size < 0 || nWords < 0 || nWords > size {
		return nil, fmt.Errorf("%w: fastText dictionary of %d entries with %d words", ErrMalformed, size, nWords)
	}
	// ntokens
	if _, err := br.readUint64(); err != nil {
		return nil, err
	}
	pruned, err := br.readUint64()
	if err != nil {
		return nil, err
	}
	if int64(pruned) > 0 {
		return nil, fmt.Errorf("%w: pruned fastText vocabularies", ErrUnsupported)
	}

	words := make([]string, 0, nWords)
	for range size {
		raw, err := br.r.ReadBytes(0)
		if err != nil {
			return nil, fmt.Errorf("%w: fastText dictionary entry: %v", ErrMalformed, err)
		}
		word, err := decodeWord(raw[:len(raw)-1], lossy)
		if err != nil {
			return nil, err
		}
		// count
		if _, err := br.readUint64(); err != nil {
			return nil, err
		}
		kind, err := br.readBytes(1)
		if err != nil {
			return nil, err
		}
		if kind[0] == fastTextEntryWord {
			words = append(words, word)
		}
	}
	if len(words) != int(nWords) {
		return nil, fmt.Errorf("%w: fastText dictionary announces %d words, found %d", ErrMalformed, nWords, len(words))
	}
	return words, nil
}

func fastTextEmbeddings(words []string, args fastTextArgs, data []float32) (*embedding.Embeddings, error) {
	dims := args.dims
	if args.maxN == 0 {
		return fromRows(words, data[:len(words)*dims], dims)
	}

	vocab, err := embedding.NewSubwordVocab(words, max(args.minN, 1), args.maxN, embedding.FastTextIndexer{Buckets: uint32(args.buckets)})
	if err != nil {
		return nil, err
	}

	// Word rows are rebuilt from the untouched input matrix.
	out := append([]float32(nil), data...)
	for i, word := range words {
		row := out[i*dims : (i+1)*dims]
		if word == fastTextEOS {
			continue
		}
		subwords := vocab.SubwordIndices(word)
		for _, s := range subwords {
			distance.AddInPlace(row, data[s*dims:(s+1)*dims])
		}
		distance.ScaleInPlace(row, 1/float32(len(subwords)+1))
	}

	storage, err := embedding.NewNdArray(len(words)+args.buckets, dims, out)
	if err != nil {
		return nil, err
	}
	norms := embedding.NormalizeRows(out, dims, len(words))
	return embedding.New(nil, vocab, storage, norms)
}
