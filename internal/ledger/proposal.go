package ledger

import (
	"bytes"
	"sort"
	"sync"

	"github.com/roach88/quorum/internal/ir"
	"github.com/roach88/quorum/internal/registry"
)

// proposal is one arena slot. All fields except index are guarded by mu.
//
// INVARIANT: the confirmation count is len(confirmedBy); it is never stored
// separately, so it cannot drift from the confirmer set.
type proposal struct {
	mu sync.Mutex

	index       uint64
	target      string
	value       uint64
	payload     []byte
	digest      string
	executed    bool
	confirmedBy map[ir.Owner]struct{}
}

func newProposal(target string, value uint64, payload []byte) *proposal {
	p := &proposal{confirmedBy: make(map[ir.Owner]struct{})}
	p.setContent(target, value, payload)
	return p
}

// setContent replaces the body. Caller holds mu (or owns p exclusively).
func (p *proposal) setContent(target string, value uint64, payload []byte) {
	p.target = target
	p.value = value
	p.payload = bytes.Clone(payload)
	if p.payload == nil {
		p.payload = []byte{}
	}
	p.digest = ir.MustProposalDigest(target, value, payload)
}

func (p *proposal) action() ir.Action {
	return ir.Action{
		Index:   p.index,
		Target:  p.target,
		Value:   p.value,
		Payload: bytes.Clone(p.payload),
	}
}

// snapshot copies p. Confirmers are listed in registry construction order.
// Caller holds mu.
func (p *proposal) snapshot(reg *registry.Registry) ir.ProposalState {
	confirmers := make([]ir.Owner, 0, len(p.confirmedBy))
	for o := range p.confirmedBy {
		confirmers = append(confirmers, o)
	}
	sort.Slice(confirmers, func(i, j int) bool {
		return reg.Position(confirmers[i]) < reg.Position(confirmers[j])
	})

	return ir.ProposalState{
		Index:             p.index,
		Target:            p.target,
		Value:             p.value,
		Payload:           bytes.Clone(p.payload),
		Executed:          p.executed,
		ConfirmationCount: len(p.confirmedBy),
		ConfirmedBy:       confirmers,
		Digest:            p.digest,
	}
}

// validProposalData rejects the degenerate no-op proposal.
func validProposalData(value uint64, payload []byte) bool {
	return value != 0 || len(payload) != 0
}
