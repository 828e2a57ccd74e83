// Package similarity ranks vocabulary words against a query vector and
// solves word analogies with per-token exclusion masks.
//
// A Ranker scores every word row of an embedding collection in batches with a
// single matrix-vector product and keeps the k best rows in a bounded heap.
// Results are ordered by non-increasing score; equal scores keep vocabulary
// order, so results are deterministic.
//
//	r, err := similarity.NewRanker(emb)
//	results, err := r.WordSimilarity("berlin", 10)
//	answers, err := r.Analogy([3]string{"berlin", "germany", "paris"}, 1)
//
// Ranking assumes the word rows of the collection are L2-normalized, which
// every reader in this module guarantees. The raw score of a result is then
// the cosine similarity between the word and the query.
package similarity
