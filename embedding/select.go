package embedding

import (
	"fmt"
	"log/slog"
)

// SelectOptions controls Select.
type SelectOptions struct {
	// IgnoreUnknown skips words without an embedding instead of failing.
	IgnoreUnknown bool
	// ReportDropped logs every skipped word at warn level.
	ReportDropped bool
	// Logger receives drop reports. Nil discards them.
	Logger *slog.Logger
}

// Select builds a new collection holding the embeddings of words, in the
// order given, without duplicates. Words outside the vocabulary that have
// subword embeddings are materialized as ordinary rows.
//
// It returns the words that were dropped because they have no embedding.
func Select(emb *Embeddings, words []string, opts SelectOptions) (*Embeddings, []string, error) {
	seen := make(map[string]struct{}, len(words))
	selected := make([]string, 0, len(words))
	var dropped []string

	dims := emb.Dims()
	data := make([]float32, 0, len(words)*dims)
	norms := make(Norms, 0, len(words))

	for _, w := range words {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}

		vec, norm, ok := emb.EmbeddingWithNorm(w)
		if !ok {
			if !opts.IgnoreUnknown {
				return nil, nil, fmt.Errorf("%w: cannot get embedding for %q", ErrUnknownWord, w)
			}
			dropped = append(dropped, w)
			if opts.ReportDropped && opts.Logger != nil {
				opts.Logger.Warn("dropping word without embedding", "word", w)
			}
			continue
		}

		selected = append(selected, w)
		data = append(data, vec...)
		norms = append(norms, norm)
	}

	vocab, err := NewSimpleVocab(selected)
	if err != nil {
		return nil, nil, err
	}
	storage, err := NewNdArray(len(selected), dims, data)
	if err != nil {
		return nil, nil, err
	}
	out, err := New(nil, vocab, storage, norms)
	if err != nil {
		return nil, nil, err
	}
	return out, dropped, nil
}
