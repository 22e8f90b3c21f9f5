package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/quorum/internal/ir"
)

// Outbox statuses.
const (
	StatusPending    = "pending"
	StatusDispatched = "dispatched"
)

// ErrNotPending is returned by MarkDispatched when the index has no pending
// outbox entry.
var ErrNotPending = errors.New("no pending outbox entry")

// OutboxEntry is one enqueued action.
type OutboxEntry struct {
	Action ir.Action
	Digest string
	Status string
}

// EnqueueAction adds action to the outbox, keyed by its proposal index.
// Uses ON CONFLICT(idx) DO NOTHING for idempotency; inserted is false when
// the index was already enqueued.
//
// The proposal referenced by action.Index must exist (foreign key constraint).
func (s *Store) EnqueueAction(ctx context.Context, action ir.Action) (inserted bool, err error) {
	return enqueue(ctx, s.db, action)
}

func enqueue(ctx context.Context, q dbtx, action ir.Action) (bool, error) {
	digest, err := ir.ProposalDigest(action.Target, action.Value, action.Payload)
	if err != nil {
		return false, fmt.Errorf("enqueue action %d: %w", action.Index, err)
	}
	res, err := q.ExecContext(ctx, `
		INSERT INTO outbox (idx, target, value, payload, digest, status)
		VALUES (?, ?, ?, ?, ?, 'pending')
		ON CONFLICT(idx) DO NOTHING
	`,
		action.Index,
		action.Target,
		formatValue(action.Value),
		nonNilPayload(action.Payload),
		digest,
	)
	if err != nil {
		return false, fmt.Errorf("enqueue action %d: %w", action.Index, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("enqueue action %d: rows affected: %w", action.Index, err)
	}
	return n == 1, nil
}

// ReadOutbox returns outbox entries ordered by index. With pendingOnly set,
// dispatched entries are skipped.
func (s *Store) ReadOutbox(ctx context.Context, pendingOnly bool) ([]OutboxEntry, error) {
	query := `SELECT idx, target, value, payload, digest, status FROM outbox`
	if pendingOnly {
		query += ` WHERE status = 'pending'`
	}
	query += ` ORDER BY idx ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	entries := []OutboxEntry{}
	for rows.Next() {
		var e OutboxEntry
		var value string
		if err := rows.Scan(&e.Action.Index, &e.Action.Target, &value, &e.Action.Payload, &e.Digest, &e.Status); err != nil {
			return nil, fmt.Errorf("scan outbox: %w", err)
		}
		if e.Action.Value, err = parseValue(value); err != nil {
			return nil, fmt.Errorf("scan outbox %d: %w", e.Action.Index, err)
		}
		if e.Action.Payload == nil {
			e.Action.Payload = []byte{}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return entries, nil
}

// PendingActions returns the actions still waiting for dispatch.
func (s *Store) PendingActions(ctx context.Context) ([]ir.Action, error) {
	entries, err := s.ReadOutbox(ctx, true)
	if err != nil {
		return nil, err
	}
	actions := make([]ir.Action, len(entries))
	for i, e := range entries {
		actions[i] = e.Action
	}
	return actions, nil
}

// MarkDispatched records that the relay performed the action at index.
// Fails with ErrNotPending if the entry is missing or already dispatched.
func (s *Store) MarkDispatched(ctx context.Context, index uint64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE outbox SET status = 'dispatched' WHERE idx = ? AND status = 'pending'
	`, index)
	if err != nil {
		return fmt.Errorf("mark dispatched %d: %w", index, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark dispatched %d: rows affected: %w", index, err)
	}
	if n == 0 {
		return fmt.Errorf("mark dispatched %d: %w", index, ErrNotPending)
	}
	return nil
}
