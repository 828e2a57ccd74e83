// Package eval measures analogy accuracy of an embedding collection.
//
// Test files use the word2vec question format: a line starting with ": "
// opens a section, every other non-blank line holds four words "a b c d"
// meaning "a is to b as c is to d".
//
// Each instance is either skipped, when its answer is not a vocabulary word,
// or scored with an unmasked analogy query for the single best answer.
// Scoring fans out over a bounded pool of goroutines. Workers only write the
// outcome slot of the instance they scored; a single pass afterwards folds the
// outcomes into per-section counts in input order, so totals (including the
// floating point cosine sums) do not depend on scheduling.
package eval
