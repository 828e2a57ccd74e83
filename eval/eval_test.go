package eval

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/wordvec/embedding"
)

func newEmbeddings(t *testing.T, words []string, rows [][]float32) *embedding.Embeddings {
	t.Helper()
	dims := len(rows[0])
	data := make([]float32, 0, len(rows)*dims)
	for _, r := range rows {
		data = append(data, r...)
	}
	vocab, err := embedding.NewSimpleVocab(words)
	require.NoError(t, err)
	storage, err := embedding.NewNdArray(len(words), dims, data)
	require.NoError(t, err)
	norms := embedding.NormalizeRows(storage.Data(), dims, len(words))
	emb, err := embedding.New(nil, vocab, storage, norms)
	require.NoError(t, err)
	return emb
}

// dimensions: royal, male, female, capital, country-a, country-b
func testEmbeddings(t *testing.T) *embedding.Embeddings {
	return newEmbeddings(t,
		[]string{"king", "man", "woman", "queen", "berlin", "germany", "paris", "france"},
		[][]float32{
			{1, 1, 0, 0, 0, 0},
			{0, 1, 0, 0, 0, 0},
			{0, 0, 1, 0, 0, 0},
			{1, 0, 1, 0, 0, 0},
			{0, 0, 0, 1, 1, 0},
			{0, 0, 0, 0, 1, 0},
			{0, 0, 0, 1, 0, 1},
			{0, 0, 0, 0, 0, 1},
		})
}

const analogies = `: family
man king woman queen
woman queen man king
man king woman princess

: capital-common-countries
germany berlin france paris
berlin germany paris france
germany berlin unknown paris
`

func TestReadInstances(t *testing.T) {
	instances, err := ReadInstances(strings.NewReader(analogies))
	require.NoError(t, err)
	require.Len(t, instances, 6)

	assert.Equal(t, Instance{
		Section: "family",
		Query:   [3]string{"man", "king", "woman"},
		Answer:  "queen",
	}, instances[0])
	assert.Equal(t, "capital-common-countries", instances[5].Section)

	_, err = ReadInstances(strings.NewReader(": s\na b c\n"))
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 2, perr.Line)
	assert.Equal(t, "a b c", perr.Text)

	instances, err = ReadInstances(strings.NewReader("a b c d\n"))
	require.NoError(t, err)
	assert.Equal(t, "", instances[0].Section)
}

func TestEvaluate(t *testing.T) {
	instances, err := ReadInstances(strings.NewReader(analogies))
	require.NoError(t, err)

	ev, err := NewEvaluator(testEmbeddings(t), WithThreads(3))
	require.NoError(t, err)
	assert.Equal(t, 3, ev.Threads())

	report, err := ev.Evaluate(context.Background(), instances)
	require.NoError(t, err)
	require.Len(t, report.Sections, 2)

	capital := report.Sections[0]
	assert.Equal(t, "capital-common-countries", capital.Name)
	assert.Equal(t, 2, capital.Correct)
	// unresolvable query tokens count as incorrect, not skipped
	assert.Equal(t, 3, capital.Instances)
	assert.Equal(t, 0, capital.Skipped)

	family := report.Sections[1]
	assert.Equal(t, "family", family.Name)
	assert.Equal(t, 2, family.Correct)
	assert.Equal(t, 2, family.Instances)
	assert.Equal(t, 1, family.Skipped)

	assert.Equal(t, Counts{Correct: 4, Instances: 5, Skipped: 1, SumCos: report.Total.SumCos}, report.Total)
	assert.Greater(t, report.Total.SumCos, 0.0)
}

func TestEvaluate_Invariants(t *testing.T) {
	instances, err := ReadInstances(strings.NewReader(analogies))
	require.NoError(t, err)

	perSection := map[string]int{}
	for _, inst := range instances {
		perSection[inst.Section]++
	}

	ev, err := NewEvaluator(testEmbeddings(t), WithThreads(4))
	require.NoError(t, err)
	report, err := ev.Evaluate(context.Background(), instances)
	require.NoError(t, err)

	for _, s := range report.Sections {
		assert.LessOrEqual(t, s.Correct, s.Instances)
		assert.Equal(t, perSection[s.Name], s.Instances+s.Skipped)
	}
	assert.LessOrEqual(t, report.Total.Correct, report.Total.Instances)
	assert.Equal(t, len(instances), report.Total.Instances+report.Total.Skipped)
}

func TestEvaluate_Idempotent(t *testing.T) {
	var instances []Instance
	for range 50 {
		more, err := ReadInstances(strings.NewReader(analogies))
		require.NoError(t, err)
		instances = append(instances, more...)
	}
	emb := testEmbeddings(t)

	ev, err := NewEvaluator(emb, WithThreads(4))
	require.NoError(t, err)
	first, err := ev.Evaluate(context.Background(), instances)
	require.NoError(t, err)
	second, err := ev.Evaluate(context.Background(), instances)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	single, err := NewEvaluator(emb, WithThreads(1))
	require.NoError(t, err)
	third, err := single.Evaluate(context.Background(), instances)
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

func TestEvaluate_MissingAnswerIsSkipped(t *testing.T) {
	instances, err := ReadInstances(strings.NewReader(": capital-world\nberlin germany paris atlantis\n"))
	require.NoError(t, err)

	ev, err := NewEvaluator(testEmbeddings(t), WithThreads(2))
	require.NoError(t, err)
	report, err := ev.Evaluate(context.Background(), instances)
	require.NoError(t, err)

	require.Len(t, report.Sections, 1)
	assert.Equal(t, "capital-world", report.Sections[0].Name)
	assert.Equal(t, 1, report.Sections[0].Skipped)
	assert.Equal(t, 0, report.Sections[0].Instances)

	var stdout, stderr bytes.Buffer
	require.NoError(t, report.Write(&stdout, &stderr))
	assert.Equal(t, "capital-world: no evaluation instances\nTotal: no evaluation instances\n", stderr.String())
	assert.Equal(t, "Skipped: 1/1 (100.00%)\n", stdout.String())
}

func TestEvaluateInstance_States(t *testing.T) {
	assert.Equal(t, Pending, Outcome{}.State)

	ev, err := NewEvaluator(testEmbeddings(t))
	require.NoError(t, err)

	out, err := ev.EvaluateInstance(Instance{Query: [3]string{"berlin", "germany", "paris"}, Answer: "atlantis"})
	require.NoError(t, err)
	assert.Equal(t, Skipped, out.State)

	out, err = ev.EvaluateInstance(Instance{Query: [3]string{"man", "king", "woman"}, Answer: "queen"})
	require.NoError(t, err)
	assert.Equal(t, Scored, out.State)
	assert.True(t, out.Correct)

	out, err = ev.EvaluateInstance(Instance{Query: [3]string{"germany", "berlin", "unknown"}, Answer: "paris"})
	require.NoError(t, err)
	assert.Equal(t, Outcome{State: Scored}, out)
}

func TestReport_Write(t *testing.T) {
	report := &Report{
		Sections: []SectionReport{
			{Name: "a", Counts: Counts{Correct: 1, Instances: 4, Skipped: 1, SumCos: 2}},
			{Name: "b", Counts: Counts{Skipped: 2}},
		},
		Total: Counts{Correct: 1, Instances: 4, Skipped: 3, SumCos: 2},
	}

	var stdout, stderr bytes.Buffer
	require.NoError(t, report.Write(&stdout, &stderr))
	assert.Equal(t,
		"a: 1/4 correct, accuracy: 25.00, avg cos: 0.50, skipped: 1\n"+
			"Total: 1/4 correct, accuracy: 25.00, avg cos: 0.50\n"+
			"Skipped: 3/7 (42.86%)\n",
		stdout.String())
	assert.Equal(t, "b: no evaluation instances\n", stderr.String())

	stdout.Reset()
	stderr.Reset()
	require.NoError(t, (&Report{}).Write(&stdout, &stderr))
	assert.Equal(t, "Skipped: 0/0 (0.00%)\n", stdout.String())
	assert.Equal(t, "Total: no evaluation instances\n", stderr.String())
}

type recorder struct {
	instances, correct, skipped int
	calls                       int
}

func (r *recorder) RecordEvaluation(instances, correct, skipped int, _ time.Duration) {
	r.instances, r.correct, r.skipped = instances, correct, skipped
	r.calls++
}

func TestEvaluate_ProgressAndMetrics(t *testing.T) {
	instances, err := ReadInstances(strings.NewReader(analogies))
	require.NoError(t, err)

	var last atomic.Int64
	rec := &recorder{}
	ev, err := NewEvaluator(testEmbeddings(t),
		WithThreads(2),
		WithProgress(func(done, total int) {
			assert.Equal(t, len(instances), total)
			for {
				prev := last.Load()
				if int64(done) <= prev || last.CompareAndSwap(prev, int64(done)) {
					break
				}
			}
		}),
		WithMetrics(rec),
	)
	require.NoError(t, err)

	_, err = ev.Evaluate(context.Background(), instances)
	require.NoError(t, err)
	assert.Equal(t, int64(len(instances)), last.Load())
	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, 5, rec.instances)
	assert.Equal(t, 1, rec.skipped)
}

func TestEvaluate_Cancelled(t *testing.T) {
	instances, err := ReadInstances(strings.NewReader(analogies))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ev, err := NewEvaluator(testEmbeddings(t), WithThreads(1))
	require.NoError(t, err)
	_, err = ev.Evaluate(ctx, instances)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluate_Empty(t *testing.T) {
	ev, err := NewEvaluator(testEmbeddings(t))
	require.NoError(t, err)
	report, err := ev.Evaluate(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, report.Sections)
	assert.Equal(t, Counts{}, report.Total)
	assert.GreaterOrEqual(t, ev.Threads(), 1)
}
