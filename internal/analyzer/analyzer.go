// Package analyzer computes the pairwise transaction dependency graph for
// a single block from its per-transaction read and write sets.
package analyzer

import "github.com/example/pevm-analyzer/internal/model"

// Analyze computes the dependency edges for a block given a dense,
// index-ordered map of per-transaction state sets. index 0 is the first
// transaction in the block.
//
// For every pair i > j, an edge (source=i, target=j) is emitted iff the
// write set of j intersects the read set of i on at least one axis. The
// inner loop ranges over all j in [0, i) — including 0 — which is the
// fix for the known off-by-one defect in the source this was derived
// from (an earlier version started the inner index at 1).
func Analyze(blockNumber uint64, txStateSets map[uint64]model.TransactionStateSet) []model.DependencyEdge {
	n := len(txStateSets)
	var edges []model.DependencyEdge

	for i := 0; i < n; i++ {
		cur, ok := txStateSets[uint64(i)]
		if !ok {
			continue
		}
		for j := 0; j < i; j++ {
			prior, ok := txStateSets[uint64(j)]
			if !ok {
				continue
			}

			var mask model.DepType
			if intersects(prior.Write.BalanceSet, cur.Read.BalanceSet) {
				mask |= model.DepBalance
			}
			if intersects(prior.Write.CodeSet, cur.Read.CodeSet) {
				mask |= model.DepCode
			}
			if intersects(prior.Write.StorageSet, cur.Read.StorageSet) {
				mask |= model.DepStorage
			}

			if mask != 0 {
				edges = append(edges, model.DependencyEdge{
					BlockNumber: blockNumber,
					Source:      uint64(i),
					Target:      uint64(j),
					DepType:     mask,
				})
			}
		}
	}

	return edges
}

// intersects reports whether two identifier sets share at least one
// element. It walks the smaller set to keep the common case (small
// per-transaction touch sets) cheap.
func intersects(a, b map[string]struct{}) bool {
	small, large := a, b
	if len(large) < len(small) {
		small, large = large, small
	}
	for k := range small {
		if _, ok := large[k]; ok {
			return true
		}
	}
	return false
}
