// Package registry holds the immutable owner set and confirmation threshold
// of a wallet.
//
// A Registry is validated once by New and never changes afterwards, so it is
// safe for concurrent use without locking.
package registry

import (
	"fmt"

	"github.com/roach88/quorum/internal/ir"
)

// Registry is a frozen owner set plus threshold.
type Registry struct {
	owners    []ir.Owner
	index     map[ir.Owner]int
	threshold int
}

// New validates owners and threshold and returns a frozen Registry.
//
// It fails with a *ConfigError if owners is empty, if threshold is outside
// [1, len(owners)], if any owner is the null identity, or if any owner is
// repeated. Owners that differ only in Unicode normalization count as
// repeated: they would render as the same name. The owners slice is copied; later changes by the caller have no
// effect.
func New(owners []ir.Owner, threshold int) (*Registry, error) {
	if len(owners) == 0 {
		return nil, configError("owner set is empty")
	}
	if threshold < 1 || threshold > len(owners) {
		return nil, configError(fmt.Sprintf("threshold %d out of range [1, %d]", threshold, len(owners)))
	}

	index := make(map[ir.Owner]int, len(owners))
	seen := make(map[string]struct{}, len(owners))
	for i, o := range owners {
		if o.IsNull() {
			return nil, ownerError("null owner identity", i, o)
		}
		nfc := ir.NormalizeText(string(o))
		if _, dup := seen[nfc]; dup {
			return nil, ownerError("duplicate owner", i, o)
		}
		seen[nfc] = struct{}{}
		index[o] = i
	}

	return &Registry{
		owners:    append([]ir.Owner(nil), owners...),
		index:     index,
		threshold: threshold,
	}, nil
}

// IsOwner reports whether id is a member.
func (r *Registry) IsOwner(id ir.Owner) bool {
	_, ok := r.index[id]
	return ok
}

// Owners returns the members in construction order. The slice is a copy.
func (r *Registry) Owners() []ir.Owner {
	return append([]ir.Owner(nil), r.owners...)
}

// Threshold returns the number of confirmations required to execute.
func (r *Registry) Threshold() int {
	return r.threshold
}

// Size returns the number of owners.
func (r *Registry) Size() int {
	return len(r.owners)
}

// Position returns the construction-order position of id, or -1.
// Callers use it to list confirmers deterministically.
func (r *Registry) Position(id ir.Owner) int {
	if p, ok := r.index[id]; ok {
		return p
	}
	return -1
}
