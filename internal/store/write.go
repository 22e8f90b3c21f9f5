package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/quorum/internal/ir"
)

// ErrStaleState is returned by Commit when another writer appended events
// after the batch's base seq was read.
var ErrStaleState = errors.New("stale ledger state: events were appended concurrently")

// Batch is the durable outcome of one ledger session.
type Batch struct {
	// Flow correlates every event written by this batch.
	Flow string

	// BaseSeq is the LastSeq observed when the ledger was restored. Commit
	// fails with ErrStaleState if the log has moved past it.
	BaseSeq int64

	// States are proposal snapshots to upsert (touched proposals only).
	States []ir.ProposalState

	// Events are appended in order. Their seqs must exceed BaseSeq.
	Events []ir.Event

	// Actions are enqueued in the outbox. Duplicates by index are ignored.
	Actions []ir.Action

	// Consumed lists the proposals this batch's session executed, whether
	// or not the executor accepted the action. A failed execute appends no
	// event, so BaseSeq alone cannot tell that another writer got there
	// first; Commit fails with ErrStaleState if any of them is already
	// executed in the store.
	Consumed []uint64
}

// Commit writes b in one transaction: proposal snapshots are upserted,
// their confirmation sets replaced, events appended and actions enqueued.
//
// An executed row never changes state again: a consumed index that is
// already executed, or an unexecuted snapshot for an executed row, fails
// with ErrStaleState. Nothing is written if any step fails.
func (s *Store) Commit(ctx context.Context, b Batch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("commit: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	last, err := lastSeq(ctx, tx)
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	if last != b.BaseSeq {
		return fmt.Errorf("commit: base seq %d, log at %d: %w", b.BaseSeq, last, ErrStaleState)
	}

	for _, idx := range b.Consumed {
		executed, err := storedExecuted(ctx, tx, idx)
		if err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		if executed {
			return fmt.Errorf("commit: proposal %d consumed by another writer: %w", idx, ErrStaleState)
		}
	}

	for _, st := range b.States {
		if !st.Executed {
			executed, err := storedExecuted(ctx, tx, st.Index)
			if err != nil {
				return fmt.Errorf("commit: %w", err)
			}
			if executed {
				return fmt.Errorf("commit: proposal %d already executed: %w", st.Index, ErrStaleState)
			}
		}
		if err := writeProposal(ctx, tx, st); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
	}

	for _, ev := range b.Events {
		if err := writeEvent(ctx, tx, b.Flow, ev); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
	}

	for _, a := range b.Actions {
		if _, err := enqueue(ctx, tx, a); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// storedExecuted reports whether proposal idx is stored as executed.
// A missing row is not executed.
func storedExecuted(ctx context.Context, tx *sql.Tx, idx uint64) (bool, error) {
	var executed int
	err := tx.QueryRowContext(ctx, `SELECT executed FROM proposals WHERE idx = ?`, idx).Scan(&executed)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read executed flag %d: %w", idx, err)
	}
	return executed == 1, nil
}

// writeProposal upserts a snapshot and replaces its confirmer set.
func writeProposal(ctx context.Context, tx *sql.Tx, st ir.ProposalState) error {
	digest := st.Digest
	if digest == "" {
		d, err := ir.ProposalDigest(st.Target, st.Value, st.Payload)
		if err != nil {
			return fmt.Errorf("write proposal %d: %w", st.Index, err)
		}
		digest = d
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO proposals (idx, target, value, payload, digest, executed)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(idx) DO UPDATE SET
			target = excluded.target,
			value = excluded.value,
			payload = excluded.payload,
			digest = excluded.digest,
			executed = excluded.executed
	`,
		st.Index,
		st.Target,
		formatValue(st.Value),
		nonNilPayload(st.Payload),
		digest,
		boolToInt(st.Executed),
	)
	if err != nil {
		return fmt.Errorf("write proposal %d: %w", st.Index, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM confirmations WHERE idx = ?`, st.Index); err != nil {
		return fmt.Errorf("clear confirmations %d: %w", st.Index, err)
	}
	for ord, owner := range st.ConfirmedBy {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO confirmations (idx, owner, ord) VALUES (?, ?, ?)
		`, st.Index, string(owner), ord)
		if err != nil {
			return fmt.Errorf("write confirmation %d/%s: %w", st.Index, owner, err)
		}
	}
	return nil
}

// writeEvent appends ev. A duplicate seq is a constraint error, never ignored.
func writeEvent(ctx context.Context, tx *sql.Tx, flow string, ev ir.Event) error {
	target, value, payload, digest := eventContent(ev)
	_, err := tx.ExecContext(ctx, `
		INSERT INTO events (seq, flow_token, kind, caller, idx, target, value, payload, digest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ev.Seq,
		flow,
		string(ev.Kind),
		string(ev.Caller),
		ev.Index,
		target,
		value,
		payload,
		digest,
	)
	if err != nil {
		return fmt.Errorf("write event seq=%d: %w", ev.Seq, err)
	}
	return nil
}
