// Package mmap provides read-only memory-mapped file access.
//
// It backs the finalfusion_mmap format: the embedding matrix of a finalfusion
// file is used in place, straight from the page cache, instead of being
// copied onto the Go heap.
//
//	m, err := mmap.Open("embeddings.fifu")
//	if err != nil { ... }
//	defer m.Close()
//
//	_ = m.Advise(mmap.AccessWillNeed)
//	data := m.Bytes()
//
// On Unix systems the file is mapped with mmap(2) and madvise(2) is used for
// access hints. Elsewhere the file is read into memory and hints are no-ops.
//
// A Mapping is safe for concurrent readers. Close is idempotent, but callers
// must not touch slices returned by Bytes after Close returns.
package mmap
