package ledger

import (
	"bytes"

	"github.com/roach88/quorum/internal/ir"
)

// Amend replaces the content of an unexecuted proposal and clears every
// confirmation on it. Approvals apply to content, so new content must
// collect quorum from scratch.
//
// Fails with UNAUTHORIZED, NOT_FOUND, ALREADY_EXECUTED, or
// INVALID_PROPOSAL_DATA under the same rule as Submit.
func (l *Ledger) Amend(caller ir.Owner, index uint64, target string, value uint64, payload []byte) error {
	p, err := l.acquire(caller, index)
	if err != nil {
		return err
	}

	if !validProposalData(value, payload) {
		p.mu.Unlock()
		return indexError(ErrCodeInvalidProposalData, "value is zero and payload is empty", caller, index)
	}

	cleared := len(p.confirmedBy)
	p.setContent(target, value, payload)
	p.confirmedBy = make(map[ir.Owner]struct{})

	ev := l.stamp(ir.Event{
		Kind:    ir.EventAmended,
		Caller:  caller,
		Index:   index,
		Target:  p.target,
		Value:   p.value,
		Payload: bytes.Clone(p.payload),
		Digest:  p.digest,
	})
	p.mu.Unlock()

	l.publish(ev)
	l.logger.Debug("proposal amended", "index", index, "caller", string(caller),
		"digest", ev.ev.Digest, "cleared_confirmations", cleared)
	return nil
}
