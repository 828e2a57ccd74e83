package codec

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hupe1980/wordvec/embedding"
)

// ReadWord2Vec reads the binary word2vec format: a "rows dims" header line
// followed by, for every word, the word, a space and dims little-endian
// float32 values.
func ReadWord2Vec(r io.Reader, opts ReadOptions) (*embedding.Embeddings, error) {
	br := newBinaryReader(r)
	header, err := br.r.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("%w: missing word2vec header: %v", ErrMalformed, err)
	}
	rows, dims, err := parseShape(header)
	if err != nil {
		return nil, err
	}

	words := make([]string, 0, min(rows, 1<<20))
	data := make([]float32, 0, min(rows*dims, 1<<26))
	for i := range rows {
		raw, err := br.r.ReadBytes(' ')
		if err != nil {
			return nil, fmt.Errorf("%w: word %d: %v", ErrMalformed, i, err)
		}
		word, err := decodeWord(bytes.TrimLeft(raw[:len(raw)-1], " \t\r\n"), opts.Lossy)
		if err != nil {
			return nil, err
		}
		row, err := br.readFloat32s(dims)
		if err != nil {
			return nil, fmt.Errorf("%w: embedding of %q: %v", ErrMalformed, word, err)
		}
		words = append(words, word)
		data = append(data, row...)
	}
	return fromRows(words, data, dims)
}

// WriteWord2Vec writes the binary word2vec format. Only word rows are
// written; subword rows have no representation in it.
func WriteWord2Vec(w io.Writer, emb *embedding.Embeddings, opts WriteOptions) error {
	bw := newBinaryWriter(w)
	if _, err := fmt.Fprintf(w, "%d %d\n", emb.Len(), emb.Dims()); err != nil {
		return err
	}
	return wordRows(emb, opts.Unnormalize, func(word string, row []float32) error {
		if err := bw.write([]byte(word + " ")); err != nil {
			return err
		}
		if err := bw.writeFloat32s(row); err != nil {
			return err
		}
		return bw.write([]byte{'\n'})
	})
}

func parseShape(line string) (rows, dims int, err error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("%w: shape line %q", ErrMalformed, strings.TrimSpace(line))
	}
	rows, err = strconv.Atoi(fields[0])
	if err != nil || rows < 0 {
		return 0, 0, fmt.Errorf("%w: number of rows %q", ErrMalformed, fields[0])
	}
	dims, err = strconv.Atoi(fields[1])
	if err != nil || dims <= 0 {
		return 0, 0, fmt.Errorf("%w: number of dimensions %q", ErrMalformed, fields[1])
	}
	return rows, dims, nil
}

// bufferedReader returns r as a *bufio.Reader, wrapping it when needed.
func bufferedReader(r io.Reader) *bufio.Reader {
	if br, ok := r.(*bufio.Reader); ok {
		return br
	}
	return bufio.NewReaderSize(r, 256*1024)
}
