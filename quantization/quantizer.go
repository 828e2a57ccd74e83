package quantization

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnknownQuantizer is returned for an unrecognized quantizer name or kind.
	ErrUnknownQuantizer = errors.New("quantization: unknown quantizer")
	// ErrInvalidBits is returned when the bits per subquantizer are outside [1, 8].
	ErrInvalidBits = errors.New("quantization: bits per subquantizer must be in [1, 8]")
	// ErrInvalidSubquantizers is returned when the dimensionality is not a
	// multiple of the number of subquantizers.
	ErrInvalidSubquantizers = errors.New("quantization: invalid number of subquantizers")
	// ErrInvalidConfig is returned for other out-of-range settings.
	ErrInvalidConfig = errors.New("quantization: invalid configuration")
	// ErrNotTrained is returned when a quantizer is used before training.
	ErrNotTrained = errors.New("quantization: quantizer not trained")
	// ErrNotQuantized is returned by Reconstruct for dense storage.
	ErrNotQuantized = errors.New("quantization: storage is not quantized")
	// ErrDimensionMismatch is returned when data does not match the quantizer.
	ErrDimensionMismatch = errors.New("quantization: dimension mismatch")
)

// Kind selects a quantizer.
type Kind int

const (
	// KindPQ is plain product quantization.
	KindPQ Kind = iota
	// KindOPQ is optimized product quantization.
	KindOPQ
	// KindGaussianOPQ is optimized product quantization with a fixed
	// eigenvalue-allocated projection.
	KindGaussianOPQ
)

// ParseKind parses "pq", "opq" or "gaussian_opq".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "pq":
		return KindPQ, nil
	case "opq":
		return KindOPQ, nil
	case "gaussian_opq":
		return KindGaussianOPQ, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownQuantizer, s)
	}
}

func (k Kind) String() string {
	switch k {
	case KindPQ:
		return "pq"
	case KindOPQ:
		return "opq"
	case KindGaussianOPQ:
		return "gaussian_opq"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Quantizer maps vectors to one code byte per subquantizer and back.
type Quantizer interface {
	// Dims returns the vector dimensionality.
	Dims() int
	// Subquantizers returns the number of codes per vector.
	Subquantizers() int
	// Bits returns the bits used by each code.
	Bits() int
	// Encode writes the codes of v to dst, which must hold Subquantizers() bytes.
	Encode(dst []byte, v []float32)
	// Decode writes the reconstruction of codes to dst, which must hold Dims() values.
	Decode(dst []float32, codes []byte)
	// Codebooks returns one k x (Dims()/Subquantizers()) centroid matrix per subquantizer.
	Codebooks() [][]float32
	// Projection returns the Dims() x Dims() row-major projection applied
	// before quantization, or nil.
	Projection() []float32
}

// Train fits a quantizer of the given kind to the n x dims row-major matrix data.
// The Kind field of cfg is ignored in favor of kind.
func Train(ctx context.Context, kind Kind, data []float32, dims int, cfg Config) (Quantizer, error) {
	cfg.Kind = kind
	cfg, err := cfg.resolve(dims)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || len(data)%dims != 0 {
		return nil, fmt.Errorf("%w: %d values for %d dimensions", ErrDimensionMismatch, len(data), dims)
	}

	opts := cfg.trainOptions()
	switch kind {
	case KindPQ:
		pq, err := NewProductQuantizer(dims, cfg.Subquantizers, cfg.Bits)
		if err != nil {
			return nil, err
		}
		if err := pq.Train(ctx, data, opts); err != nil {
			return nil, err
		}
		return pq, nil
	case KindOPQ, KindGaussianOPQ:
		opq, err := NewOptimizedProductQuantizer(dims, cfg.Subquantizers, cfg.Bits)
		if err != nil {
			return nil, err
		}
		if kind == KindGaussianOPQ {
			err = opq.TrainGaussian(ctx, data, opts)
		} else {
			err = opq.Train(ctx, data, opts)
		}
		if err != nil {
			return nil, err
		}
		return opq, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownQuantizer, kind)
	}
}

// FromParts rebuilds a trained quantizer from its codebooks and optional
// projection, as stored in a file.
func FromParts(dims, bits int, codebooks [][]float32, projection []float32) (Quantizer, error) {
	if len(codebooks) == 0 {
		return nil, ErrInvalidSubquantizers
	}
	pq, err := NewProductQuantizer(dims, len(codebooks), bits)
	if err != nil {
		return nil, err
	}
	if err := pq.SetCodebooks(codebooks); err != nil {
		return nil, err
	}
	if projection == nil {
		return pq, nil
	}
	if len(projection) != dims*dims {
		return nil, fmt.Errorf("%w: projection has %d values, want %d", ErrDimensionMismatch, len(projection), dims*dims)
	}
	return &OptimizedProductQuantizer{
		pq:         pq,
		projection: append([]float32(nil), projection...),
	}, nil
}
