package quantization

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/wordvec/distance"
	"github.com/hupe1980/wordvec/embedding"
)

// LossReport summarizes how well quantized rows approximate the originals.
type LossReport struct {
	// MeanCosine is the average cosine similarity between original and
	// reconstructed rows.
	MeanCosine float64
	// MeanEuclidean is the average Euclidean distance between original and
	// reconstructed rows.
	MeanEuclidean float64
	// Rows is the number of rows compared.
	Rows int
}

// MeasureLoss compares every row of original with the same row of
// reconstructed.
func MeasureLoss(original, reconstructed embedding.Storage) LossReport {
	rows, _ := original.Shape()
	if rows == 0 {
		return LossReport{}
	}
	var cosSum, euclidSum float64
	for i := range rows {
		u := original.Embedding(i)
		v := reconstructed.Embedding(i)
		cosSum += float64(distance.Cosine(u, v))
		euclidSum += float64(distance.Euclidean(u, v))
	}
	return LossReport{
		MeanCosine:    cosSum / float64(rows),
		MeanEuclidean: euclidSum / float64(rows),
		Rows:          rows,
	}
}

// QuantizeAndMeasure trains a quantizer on every storage row of emb
// (word rows and subword rows alike), encodes the rows, and returns a
// collection with the same vocabulary, norms and metadata over the
// quantized storage, along with the reconstruction loss.
//
// cfg is validated before any work is done. The loss is informational.
func QuantizeAndMeasure(ctx context.Context, emb *embedding.Embeddings, cfg Config, opts ...Option) (*embedding.Embeddings, LossReport, error) {
	o := applyOptions(opts)
	rows, dims := emb.Storage().Shape()
	cfg, err := cfg.resolve(dims)
	if err != nil {
		return nil, LossReport{}, err
	}
	if rows == 0 {
		return nil, LossReport{}, fmt.Errorf("%w: storage has no rows", ErrInvalidConfig)
	}

	start := time.Now()
	data := denseCopy(emb.Storage())

	var norms []float32
	if cfg.Normalize {
		norms = embedding.NormalizeRows(data, dims, rows)
	}

	o.logger.Info("training quantizer",
		"kind", cfg.Kind.String(),
		"rows", rows,
		"dims", dims,
		"subquantizers", cfg.Subquantizers,
		"bits", cfg.Bits,
		"threads", cfg.Threads,
	)
	q, err := Train(ctx, cfg.Kind, data, dims, cfg)
	if err != nil {
		return nil, LossReport{}, fmt.Errorf("train quantizer: %w", err)
	}

	codes, err := EncodeAll(ctx, q, data, cfg.Threads)
	if err != nil {
		return nil, LossReport{}, fmt.Errorf("encode rows: %w", err)
	}
	qa, err := NewQuantizedArray(q, codes, norms)
	if err != nil {
		return nil, LossReport{}, err
	}

	loss := MeasureLoss(emb.Storage(), qa)
	o.logger.Info("quantization complete",
		"kind", cfg.Kind.String(),
		"mean_cosine", loss.MeanCosine,
		"mean_euclidean", loss.MeanEuclidean,
		"duration", time.Since(start),
	)

	out, err := embedding.New(emb.Metadata(), emb.Vocab(), qa, emb.Norms())
	if err != nil {
		return nil, LossReport{}, err
	}
	return out, loss, nil
}

// denseCopy returns a row-major copy of every row of s.
func denseCopy(s embedding.Storage) []float32 {
	rows, dims := s.Shape()
	if v, ok := s.(embedding.StorageView); ok {
		return append([]float32(nil), v.View()[:rows*dims]...)
	}
	data := make([]float32, rows*dims)
	for i := range rows {
		copy(data[i*dims:(i+1)*dims], s.Embedding(i))
	}
	return data
}
