package integration_test

import "github.com/hupe1980/vpdb"

func distances(res *vpdb.SearchResult) []uint32 {
	out := make([]uint32, len(res.Neighbors))
	for i, n := range res.Neighbors {
		out[i] = n.Distance
	}
	return out
}
