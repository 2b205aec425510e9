// Package stateset collapses a prestate tracer frame into the compact
// presence-only set representation the dependency analyzer consumes.
package stateset

import (
	"strings"

	"github.com/example/pevm-analyzer/internal/model"
	"github.com/example/pevm-analyzer/internal/rpcclient"
)

// Extract converts a prestate frame (either mode — the default frame is
// a read set, a diff frame's Post map is a write set) into a StateSet.
//
// For each touched account: a present balance field adds the address to
// the balance set, a present code field adds it to the code set, and
// every storage key present adds the 32-byte slot to the storage set.
// Nonce is read but never kept — a pure nonce bump must not register as
// a dependency, or every sender's next transaction would trivially
// depend on the one before it.
func Extract(frame rpcclient.PrestateFrame) model.StateSet {
	set := model.NewStateSet()

	for addr, acct := range frame {
		key := strings.ToLower(addr.Hex())

		if acct.Balance != nil {
			set.BalanceSet[key] = struct{}{}
		}
		if acct.Code != nil {
			set.CodeSet[key] = struct{}{}
		}
		for slot := range acct.Storage {
			set.StorageSet[strings.ToLower(slot)] = struct{}{}
		}
	}

	return set
}
