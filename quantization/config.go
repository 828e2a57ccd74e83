package quantization

import (
	"fmt"
	"runtime"
)

// Config describes a quantization run.
type Config struct {
	// Kind selects the quantizer.
	Kind Kind
	// Subquantizers is the number of codes per row. Zero selects half the
	// dimensionality.
	Subquantizers int
	// Bits is the number of bits per code, in [1, 8].
	Bits int
	// Iterations is the number of k-means rounds, and for KindOPQ also the
	// number of projection updates.
	Iterations int
	// Attempts is the number of k-means runs per subquantizer.
	Attempts int
	// Threads bounds parallel work. Zero selects half the logical CPUs.
	Threads int
	// Seed makes training reproducible.
	Seed uint64
	// Normalize quantizes unit-length rows and keeps their norms so that
	// decoded rows are rescaled to the original length.
	Normalize bool
}

// DefaultConfig returns PQ with 8 bits, 100 iterations, one attempt and
// normalization enabled.
func DefaultConfig() Config {
	return Config{
		Kind:       KindPQ,
		Bits:       8,
		Iterations: 100,
		Attempts:   1,
		Normalize:  true,
	}
}

// Validate checks cfg against vectors of the given dimensionality.
func (c Config) Validate(dims int) error {
	_, err := c.resolve(dims)
	return err
}

// resolve validates c and fills in the zero-value defaults.
func (c Config) resolve(dims int) (Config, error) {
	switch c.Kind {
	case KindPQ, KindOPQ, KindGaussianOPQ:
	default:
		return c, fmt.Errorf("%w: %s", ErrUnknownQuantizer, c.Kind)
	}
	if c.Bits < 1 || c.Bits > 8 {
		return c, fmt.Errorf("%w, was: %d", ErrInvalidBits, c.Bits)
	}
	if c.Iterations < 1 {
		return c, fmt.Errorf("%w: iterations must be positive, was: %d", ErrInvalidConfig, c.Iterations)
	}
	if c.Attempts < 1 {
		return c, fmt.Errorf("%w: attempts must be positive, was: %d", ErrInvalidConfig, c.Attempts)
	}
	if c.Threads < 0 {
		return c, fmt.Errorf("%w: threads must not be negative, was: %d", ErrInvalidConfig, c.Threads)
	}
	if c.Threads == 0 {
		c.Threads = max(runtime.NumCPU()/2, 1)
	}
	if c.Subquantizers == 0 {
		c.Subquantizers = dims / 2
	}
	if c.Subquantizers < 1 || dims%c.Subquantizers != 0 {
		return c, fmt.Errorf("%w: %d dimensions cannot be split into %d subquantizers", ErrInvalidSubquantizers, dims, c.Subquantizers)
	}
	return c, nil
}

func (c Config) trainOptions() TrainOptions {
	return TrainOptions{
		Iterations: c.Iterations,
		Attempts:   c.Attempts,
		Threads:    c.Threads,
		Seed:       c.Seed,
	}
}
