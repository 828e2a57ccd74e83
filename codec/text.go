package codec

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hupe1980/wordvec/embedding"
)

const maxLineSize = 64 << 20

// ReadText reads lines of the form "word v1 v2 ... vn". The number of
// values on the first line fixes the dimensionality.
func ReadText(r io.Reader, opts ReadOptions) (*embedding.Embeddings, error) {
	return readText(bufferedReader(r), -1, -1, opts)
}

// ReadTextDims reads the text format preceded by a "rows dims" line.
func ReadTextDims(r io.Reader, opts ReadOptions) (*embedding.Embeddings, error) {
	br := bufferedReader(r)
	header, err := br.ReadString('\n')
	if err != nil && header == "" {
		return nil, fmt.Errorf("%w: missing textdims header: %v", ErrMalformed, err)
	}
	rows, dims, err := parseShape(header)
	if err != nil {
		return nil, err
	}
	return readText(br, rows, dims, opts)
}

// readText parses the body of a text file. rows and dims are -1 when
// unknown.
func readText(r io.Reader, rows, dims int, opts ReadOptions) (*embedding.Embeddings, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var words []string
	var data []float32
	lineNo := 0
	if rows >= 0 {
		lineNo = 1
	}
	for sc.Scan() {
		lineNo++
		line, err := decodeWord(sc.Bytes(), opts.Lossy)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if dims < 0 {
			dims = len(fields) - 1
			if dims == 0 {
				return nil, fmt.Errorf("%w: line %d has no values", ErrMalformed, lineNo)
			}
		}
		if len(fields)-1 != dims {
			return nil, fmt.Errorf("%w: line %d has %d values, expected %d", ErrMalformed, lineNo, len(fields)-1, dims)
		}
		for _, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: cannot parse %q", ErrMalformed, lineNo, f)
			}
			data = append(data, float32(v))
		}
		words = append(words, fields[0])
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if rows >= 0 && len(words) != rows {
		return nil, fmt.Errorf("%w: header announces %d rows, found %d", ErrMalformed, rows, len(words))
	}
	if dims < 0 {
		return nil, fmt.Errorf("%w: no embeddings", ErrMalformed)
	}
	return fromRows(words, data, dims)
}

// WriteText writes "word v1 ... vn" lines for every known word.
func WriteText(w io.Writer, emb *embedding.Embeddings, opts WriteOptions) error {
	return writeText(w, emb, opts)
}

// WriteTextDims writes the text format with a "rows dims" header.
func WriteTextDims(w io.Writer, emb *embedding.Embeddings, opts WriteOptions) error {
	if _, err := fmt.Fprintf(w, "%d %d\n", emb.Len(), emb.Dims()); err != nil {
		return err
	}
	return writeText(w, emb, opts)
}

func writeText(w io.Writer, emb *embedding.Embeddings, opts WriteOptions) error {
	var line []byte
	return wordRows(emb, opts.Unnormalize, func(word string, row []float32) error {
		line = append(line[:0], word...)
		for _, v := range row {
			line = append(line, ' ')
			line = strconv.AppendFloat(line, float64(v), 'f', -1, 32)
		}
		line = append(line, '\n')
		_, err := w.Write(line)
		return err
	})
}
