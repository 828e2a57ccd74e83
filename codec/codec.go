package codec

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/hupe1980/wordvec/embedding"
)

// ReadOptions controls decoding.
type ReadOptions struct {
	// Lossy replaces invalid UTF-8 in words with U+FFFD instead of failing.
	Lossy bool
}

// WriteOptions controls encoding.
type WriteOptions struct {
	// Unnormalize scales word rows back by their norms when writing
	// word2vec and text formats. finalfusion always stores norms separately.
	Unnormalize bool
}

// Read decodes embeddings of the given format from r.
// FormatFinalfusionMmap needs a mapping and is served by ReadMmap.
func Read(r io.Reader, format Format, opts ReadOptions) (*embedding.Embeddings, error) {
	switch format {
	case FormatFinalfusion:
		return ReadFinalfusion(r, opts)
	case FormatWord2Vec:
		return ReadWord2Vec(r, opts)
	case FormatText:
		return ReadText(r, opts)
	case FormatTextDims:
		return ReadTextDims(r, opts)
	case FormatFastText:
		return ReadFastText(r, opts)
	case FormatFinalfusionMmap:
		return nil, fmt.Errorf("%w: %s needs a memory mapping", ErrUnsupported, format)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

// Write encodes emb in the given format.
func Write(w io.Writer, emb *embedding.Embeddings, format Format, opts WriteOptions) error {
	bw := bufio.NewWriterSize(w, 256*1024)
	var err error
	switch format {
	case FormatFinalfusion:
		err = WriteFinalfusion(bw, emb)
	case FormatWord2Vec:
		err = WriteWord2Vec(bw, emb, opts)
	case FormatText:
		err = WriteText(bw, emb, opts)
	case FormatTextDims:
		err = WriteTextDims(bw, emb, opts)
	case FormatFastText:
		return fmt.Errorf("%w: writing the fastText format", ErrUnsupported)
	case FormatFinalfusionMmap:
		return fmt.Errorf("%w: writing to a memory-mapped finalfusion file", ErrUnsupported)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	if err != nil {
		return err
	}
	return bw.Flush()
}

func decodeWord(b []byte, lossy bool) (string, error) {
	if utf8.Valid(b) {
		return string(b), nil
	}
	if lossy {
		return strings.ToValidUTF8(string(b), string(utf8.RuneError)), nil
	}
	return "", fmt.Errorf("%w: word is not valid UTF-8: %q", ErrMalformed, b)
}

// wordRows yields every known word with its row as it should be written:
// scaled back by its norm when unnormalize is set and norms exist.
func wordRows(emb *embedding.Embeddings, unnormalize bool, fn func(word string, row []float32) error) error {
	norms := emb.Norms()
	storage := emb.Storage()
	for i, word := range emb.Vocab().Words() {
		row := storage.Embedding(i)
		if unnormalize && norms != nil {
			row = append([]float32(nil), row...)
			for j := range row {
				row[j] *= norms[i]
			}
		}
		if err := fn(word, row); err != nil {
			return err
		}
	}
	return nil
}

// fromRows builds a simple-vocabulary collection from raw rows,
// normalizing them and keeping their norms.
func fromRows(words []string, data []float32, dims int) (*embedding.Embeddings, error) {
	vocab, err := embedding.NewSimpleVocab(words)
	if err != nil {
		return nil, err
	}
	storage, err := embedding.NewNdArray(len(words), dims, data)
	if err != nil {
		return nil, err
	}
	norms := embedding.NormalizeRows(storage.Data(), dims, len(words))
	return embedding.New(nil, vocab, storage, norms)
}
