package eval

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hupe1980/wordvec/embedding"
	"github.com/hupe1980/wordvec/similarity"
)

// State is the evaluation state of one instance.
type State uint8

const (
	// Pending marks an instance that has not been evaluated yet.
	Pending State = iota
	// Skipped marks an instance whose answer is not in the vocabulary.
	Skipped
	// Scored marks an instance that was answered.
	Scored
)

// Outcome is the result of evaluating one instance.
type Outcome struct {
	State   State
	Correct bool
	Cos     float32
}

// Evaluator scores analogy instances against one embedding collection.
type Evaluator struct {
	emb    *embedding.Embeddings
	ranker *similarity.Ranker
	opts   options
}

// NewEvaluator creates an evaluator for emb.
func NewEvaluator(emb *embedding.Embeddings, opts ...Option) (*Evaluator, error) {
	o := applyOptions(opts)
	ranker, err := similarity.NewRanker(emb, similarity.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}
	return &Evaluator{emb: emb, ranker: ranker, opts: o}, nil
}

// Threads returns the worker pool size.
func (e *Evaluator) Threads() int { return e.opts.threads }

// EvaluateInstance moves one instance from Pending to Skipped or Scored.
//
// An instance is skipped when its answer is not a vocabulary word. Otherwise
// the best analogy answer is compared with the expected one; a query with
// unresolvable tokens scores as incorrect with cosine 0.
func (e *Evaluator) EvaluateInstance(inst Instance) (Outcome, error) {
	if _, ok := e.emb.Vocab().WordIndex(inst.Answer); !ok {
		return Outcome{State: Skipped}, nil
	}

	results, err := e.ranker.Analogy(inst.Query, 1)
	if err != nil {
		var lookup *similarity.LookupError
		if errors.As(err, &lookup) {
			return Outcome{State: Scored}, nil
		}
		return Outcome{}, err
	}
	if len(results) == 0 {
		return Outcome{State: Scored}, nil
	}
	return Outcome{
		State:   Scored,
		Correct: results[0].Word == inst.Answer,
		Cos:     results[0].Cosine(),
	}, nil
}

// Evaluate scores all instances and aggregates them per section.
func (e *Evaluator) Evaluate(ctx context.Context, instances []Instance) (*Report, error) {
	start := time.Now()
	total := len(instances)
	outcomes := make([]Outcome, total)

	var (
		done     atomic.Int64
		sometime = rate.Sometimes{Interval: 2 * time.Second}
	)

	chunk := max(1, total/(e.opts.threads*8))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.threads)

	for lo := 0; lo < total; lo += chunk {
		hi := min(lo+chunk, total)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				o, err := e.EvaluateInstance(instances[i])
				if err != nil {
					return err
				}
				outcomes[i] = o
			}

			n := int(done.Add(int64(hi - lo)))
			if e.opts.progress != nil {
				e.opts.progress(n, total)
			}
			sometime.Do(func() {
				e.opts.logger.Info("evaluating analogies", "done", n, "total", total)
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := aggregate(instances, outcomes)
	elapsed := time.Since(start)

	e.opts.logger.Debug("evaluation workers finished",
		"instances", len(instances),
		"threads", e.opts.threads,
		"duration", elapsed,
	)
	if e.opts.metrics != nil {
		e.opts.metrics.RecordEvaluation(report.Total.Instances, report.Total.Correct, report.Total.Skipped, elapsed)
	}
	return report, nil
}

// aggregate folds outcomes into section counts in input order.
func aggregate(instances []Instance, outcomes []Outcome) *Report {
	sections := make(map[string]*Counts)
	for i, inst := range instances {
		c, ok := sections[inst.Section]
		if !ok {
			c = &Counts{}
			sections[inst.Section] = c
		}

		switch o := outcomes[i]; o.State {
		case Skipped:
			c.Skipped++
		case Scored:
			c.Instances++
			if o.Correct {
				c.Correct++
			}
			c.SumCos += float64(o.Cos)
		}
	}

	report := &Report{Sections: make([]SectionReport, 0, len(sections))}
	for name, c := range sections {
		report.Sections = append(report.Sections, SectionReport{Name: name, Counts: *c})
	}
	slices.SortFunc(report.Sections, func(a, b SectionReport) int {
		return cmp.Compare(a.Name, b.Name)
	})
	for _, s := range report.Sections {
		report.Total.Add(s.Counts)
	}
	return report
}
