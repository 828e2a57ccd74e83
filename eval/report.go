package eval

import (
	"fmt"
	"io"
)

// Counts aggregates the outcomes of a set of instances.
type Counts struct {
	Correct   int
	Instances int // scored instances
	Skipped   int
	SumCos    float64
}

// Add folds o into c.
func (c *Counts) Add(o Counts) {
	c.Correct += o.Correct
	c.Instances += o.Instances
	c.Skipped += o.Skipped
	c.SumCos += o.SumCos
}

// Accuracy returns the percentage of scored instances answered correctly,
// or 0 when nothing was scored.
func (c Counts) Accuracy() float64 {
	if c.Instances == 0 {
		return 0
	}
	return float64(c.Correct) / float64(c.Instances) * 100
}

// AvgCos returns the mean cosine similarity of the predicted answers, or 0
// when nothing was scored.
func (c Counts) AvgCos() float64 {
	if c.Instances == 0 {
		return 0
	}
	return c.SumCos / float64(c.Instances)
}

// SkipRate returns the percentage of instances that were skipped.
func (c Counts) SkipRate() float64 {
	total := c.Instances + c.Skipped
	if total == 0 {
		return 0
	}
	return float64(c.Skipped) / float64(total) * 100
}

// SectionReport holds the counts of one section.
type SectionReport struct {
	Name string
	Counts
}

// Report is the result of an evaluation. Sections are in lexicographic order.
type Report struct {
	Sections []SectionReport
	Total    Counts
}

// Write prints the report. Section and total lines go to stdout; sections
// without scored instances are reported on stderr.
func (r *Report) Write(stdout, stderr io.Writer) error {
	for _, s := range r.Sections {
		if s.Instances == 0 {
			if _, err := fmt.Fprintf(stderr, "%s: no evaluation instances\n", s.Name); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(stdout, "%s: %d/%d correct, accuracy: %.2f, avg cos: %.2f, skipped: %d\n",
			s.Name, s.Correct, s.Instances, s.Accuracy(), s.AvgCos(), s.Skipped); err != nil {
			return err
		}
	}

	t := r.Total
	if t.Instances == 0 {
		if _, err := fmt.Fprintln(stderr, "Total: no evaluation instances"); err != nil {
			return err
		}
	} else if _, err := fmt.Fprintf(stdout, "Total: %d/%d correct, accuracy: %.2f, avg cos: %.2f\n",
		t.Correct, t.Instances, t.Accuracy(), t.AvgCos()); err != nil {
		return err
	}

	_, err := fmt.Fprintf(stdout, "Skipped: %d/%d (%.2f%%)\n", t.Skipped, t.Instances+t.Skipped, t.SkipRate())
	return err
}
