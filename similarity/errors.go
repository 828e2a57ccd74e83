package similarity

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("similarity: k must be positive")
	// ErrNotFound is returned when a query word has no embedding.
	ErrNotFound = errors.New("similarity: could not compute embedding")
	// ErrDimensionMismatch is returned when a query vector has the wrong length.
	ErrDimensionMismatch = errors.New("similarity: query dimension mismatch")
	// ErrUnknownMeasure is returned by ParseMeasure.
	ErrUnknownMeasure = errors.New("similarity: unknown similarity measure")
)

// LookupError reports an analogy query whose tokens could not all be
// resolved. Resolved[i] is true when query token i had an embedding.
type LookupError struct {
	Resolved [3]bool
}

func (e *LookupError) Error() string {
	var missing []string
	for i, name := range [3]string{"a", "b", "c"} {
		if !e.Resolved[i] {
			missing = append(missing, name)
		}
	}
	return "similarity: could not compute embedding(s) for analogy token(s) " + strings.Join(missing, ", ")
}

// Unwrap makes a LookupError match ErrNotFound.
func (e *LookupError) Unwrap() error { return ErrNotFound }

// Missing returns the tokens of query that were not resolved, in query order.
func (e *LookupError) Missing(query [3]string) []string {
	var missing []string
	for i, ok := range e.Resolved {
		if !ok {
			missing = append(missing, query[i])
		}
	}
	return missing
}
