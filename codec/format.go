package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownFormat is returned for an unrecognized format name.
	ErrUnknownFormat = errors.New("codec: unknown embedding format")
	// ErrUnsupported is returned for operations a format does not support.
	ErrUnsupported = errors.New("codec: unsupported")
	// ErrInvalidMagic is returned when a file does not start with the
	// expected magic number.
	ErrInvalidMagic = errors.New("codec: invalid magic number")
	// ErrInvalidVersion is returned for an unsupported format version.
	ErrInvalidVersion = errors.New("codec: unsupported version")
	// ErrMalformed is returned when file contents are inconsistent.
	ErrMalformed = errors.New("codec: malformed embedding file")
)

// Format identifies an embedding file format.
type Format int

const (
	FormatFinalfusion Format = iota
	FormatFinalfusionMmap
	FormatWord2Vec
	FormatText
	FormatTextDims
	FormatFastText
)

// ParseFormat parses a format name as used on the command line.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "fasttext":
		return FormatFastText, nil
	case "finalfusion":
		return FormatFinalfusion, nil
	case "finalfusion_mmap":
		return FormatFinalfusionMmap, nil
	case "word2vec":
		return FormatWord2Vec, nil
	case "text":
		return FormatText, nil
	case "textdims":
		return FormatTextDims, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownFormat, s)
	}
}

func (f Format) String() string {
	switch f {
	case FormatFastText:
		return "fasttext"
	case FormatFinalfusion:
		return "finalfusion"
	case FormatFinalfusionMmap:
		return "finalfusion_mmap"
	case FormatWord2Vec:
		return "word2vec"
	case FormatText:
		return "text"
	case FormatTextDims:
		return "textdims"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}
