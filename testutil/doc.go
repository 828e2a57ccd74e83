// Package testutil provides testing utilities for wordvec.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating seeded random vectors, building small
// embedding matrices and computing exact nearest neighbors.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	rows := rng.ClusteredRows(1000, 32, 8, 0.05)
//
// # Exact Neighbors (Ground Truth)
//
//	truth := testutil.ExactNeighbors(emb, query, k, nil)
//
// # Recall Verification
//
//	recall := testutil.ComputeRecall(truth, approx)
package testutil
