package quantization

import (
	"fmt"

	"github.com/hupe1980/wordvec/embedding"
)

// Reconstruct replaces the quantized storage of emb with a dense array.
//
// Collections without norms get them here: the word rows are
// L2-normalized and their previous lengths become the norms. Subword rows
// are decoded but never normalized.
func Reconstruct(emb *embedding.Embeddings) (*embedding.Embeddings, error) {
	qa, ok := emb.Storage().(*QuantizedArray)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotQuantized, emb.Storage())
	}
	array := qa.Reconstruct()

	norms := emb.Norms()
	if norms == nil {
		_, dims := array.Shape()
		norms = embedding.NormalizeRows(array.Data(), dims, emb.Vocab().WordsLen())
	}
	return embedding.New(emb.Metadata(), emb.Vocab(), array, norms)
}
