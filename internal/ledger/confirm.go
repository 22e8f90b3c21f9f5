package ledger

import "github.com/roach88/quorum/internal/ir"

// Confirm records caller's approval of the proposal at index.
//
// Fails with UNAUTHORIZED, NOT_FOUND, ALREADY_EXECUTED, or
// ALREADY_CONFIRMED if caller already holds an active confirmation.
func (l *Ledger) Confirm(caller ir.Owner, index uint64) error {
	p, err := l.acquire(caller, index)
	if err != nil {
		return err
	}

	if _, ok := p.confirmedBy[caller]; ok {
		p.mu.Unlock()
		return indexError(ErrCodeAlreadyConfirmed, "caller already confirmed", caller, index)
	}
	p.confirmedBy[caller] = struct{}{}
	count := len(p.confirmedBy)
	ev := l.stamp(ir.Event{Kind: ir.EventConfirmed, Caller: caller, Index: index})
	p.mu.Unlock()

	l.publish(ev)
	l.logger.Debug("proposal confirmed", "index", index, "caller", string(caller), "confirmations", count)
	return nil
}

// Revoke withdraws caller's approval of the proposal at index.
//
// Fails with UNAUTHORIZED, NOT_FOUND, ALREADY_EXECUTED, or NOT_CONFIRMED
// if caller holds no active confirmation.
func (l *Ledger) Revoke(caller ir.Owner, index uint64) error {
	p, err := l.acquire(caller, index)
	if err != nil {
		return err
	}

	if _, ok := p.confirmedBy[caller]; !ok {
		p.mu.Unlock()
		return indexError(ErrCodeNotConfirmed, "caller has not confirmed", caller, index)
	}
	delete(p.confirmedBy, caller)
	count := len(p.confirmedBy)
	ev := l.stamp(ir.Event{Kind: ir.EventRevoked, Caller: caller, Index: index})
	p.mu.Unlock()

	l.publish(ev)
	l.logger.Debug("confirmation revoked", "index", index, "caller", string(caller), "confirmations", count)
	return nil
}
