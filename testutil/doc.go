// Package testutil provides testing utilities for vpdb.
//
// This package is intended for use in tests and benchmarks only.
//
// # Random Data
//
//	rng := testutil.NewRNG(seed)
//	recs := rng.Records(5000, 1)
//	clustered := rng.ClusteredRecords(5000, 20, 8, 1)
//
// # Exact Search (Ground Truth)
//
//	want := testutil.ExactTopK(target, recs, k)
//
// # Fault Injection
//
//	fs := testutil.NewFaultStore(blobstore.NewMemoryStore())
//	fs.FailNextPut(1)
package testutil
