// Package queue provides the bounded heap used to keep the k best-scoring
// vocabulary rows while a ranker streams over the embedding matrix.
package queue

import "slices"

// Item is a scored vocabulary row.
type Item struct {
	Row   int     // Row is the vocabulary row index.
	Score float32 // Score is the similarity; higher is better.
}

// better reports whether a ranks before b: higher score first, lower row on ties.
func better(a, b Item) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Row < b.Row
}

// TopK retains the k best items offered to it.
//
// Internally it is a min-heap ordered by rank, so the root is always the
// worst retained item and can be evicted in O(log k).
type TopK struct {
	k     int
	items []Item
}

// NewTopK creates a collector for the k best items. k must be positive.
func NewTopK(k int) *TopK {
	return &TopK{
		k:     k,
		items: make([]Item, 0, k),
	}
}

// Len returns the number of retained items.
func (q *TopK) Len() int { return len(q.items) }

// Cap returns k.
func (q *TopK) Cap() int { return q.k }

// Worst returns the lowest-ranked retained item.
func (q *TopK) Worst() (Item, bool) {
	if len(q.items) == 0 {
		return Item{}, false
	}
	return q.items[0], true
}

// Offer adds item if it ranks among the k best seen so far.
// It reports whether the item was retained.
func (q *TopK) Offer(item Item) bool {
	if len(q.items) < q.k {
		q.items = append(q.items, item)
		q.siftUp(len(q.items) - 1)
		return true
	}
	if q.k == 0 || !better(item, q.items[0]) {
		return false
	}
	q.items[0] = item
	q.siftDown(0)
	return true
}

// Sorted returns the retained items best first and resets the collector.
func (q *TopK) Sorted() []Item {
	out := slices.Clone(q.items)
	slices.SortFunc(out, func(a, b Item) int {
		switch {
		case better(a, b):
			return -1
		case better(b, a):
			return 1
		default:
			return 0
		}
	})
	q.Reset()
	return out
}

// Reset clears the collector for reuse.
func (q *TopK) Reset() {
	q.items = q.items[:0]
}

// less orders the heap so that the worst item sits at the root.
func (q *TopK) less(i, j int) bool {
	return better(q.items[j], q.items[i])
}

func (q *TopK) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !q.less(i, p) {
			return
		}
		q.items[i], q.items[p] = q.items[p], q.items[i]
		i = p
	}
}

func (q *TopK) siftDown(i int) {
	n := len(q.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		if r := l + 1; r < n && q.less(r, l) {
			best = r
		}
		if !q.less(best, i) {
			return
		}
		q.items[i], q.items[best] = q.items[best], q.items[i]
		i = best
	}
}
