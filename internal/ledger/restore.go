package ledger

import (
	"fmt"

	"github.com/roach88/quorum/internal/ir"
	"github.com/roach88/quorum/internal/registry"
)

// Restore rebuilds a ledger from persisted proposal states.
//
// states must be in index order with indices exactly 0..n-1. Every
// confirmer must be an owner of reg and appear once, ConfirmationCount must
// equal len(ConfirmedBy), and a non-empty Digest must match the content.
// No events are emitted for restored proposals.
func Restore(reg *registry.Registry, exec Executor, states []ir.ProposalState, opts ...Option) (*Ledger, error) {
	l := New(reg, exec, opts...)

	arena := make([]*proposal, 0, len(states))
	for i, st := range states {
		if st.Index != uint64(i) {
			return nil, fmt.Errorf("restore: proposal at position %d has index %d", i, st.Index)
		}
		if !validProposalData(st.Value, st.Payload) {
			return nil, fmt.Errorf("restore: proposal %d: value is zero and payload is empty", i)
		}
		if st.ConfirmationCount != len(st.ConfirmedBy) {
			return nil, fmt.Errorf("restore: proposal %d: confirmation count %d != %d confirmers",
				i, st.ConfirmationCount, len(st.ConfirmedBy))
		}

		p := newProposal(st.Target, st.Value, st.Payload)
		p.index = st.Index
		p.executed = st.Executed
		if st.Digest != "" && st.Digest != p.digest {
			return nil, fmt.Errorf("restore: proposal %d: digest mismatch", i)
		}
		for _, o := range st.ConfirmedBy {
			if !reg.IsOwner(o) {
				return nil, fmt.Errorf("restore: proposal %d: confirmer %q is not an owner", i, o)
			}
			if _, dup := p.confirmedBy[o]; dup {
				return nil, fmt.Errorf("restore: proposal %d: confirmer %q repeated", i, o)
			}
			p.confirmedBy[o] = struct{}{}
		}
		arena = append(arena, p)
	}

	l.proposals = arena
	return l, nil
}
