package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/quorum/internal/ir"
)

// ErrProposalNotFound is returned by ReadProposal for an unknown index.
var ErrProposalNotFound = errors.New("proposal not found")

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// LoadProposals returns every stored proposal snapshot ordered by index,
// with confirmers in the order they were committed (registry order).
//
// Returns an empty slice (not nil) for a fresh wallet.
func (s *Store) LoadProposals(ctx context.Context) ([]ir.ProposalState, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, target, value, payload, digest, executed
		FROM proposals
		ORDER BY idx ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query proposals: %w", err)
	}
	defer rows.Close()

	states := []ir.ProposalState{}
	for rows.Next() {
		st, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate proposals: %w", err)
	}
	// Close before the confirmation queries; the pool holds one connection.
	rows.Close()

	confirmers, err := s.readConfirmations(ctx)
	if err != nil {
		return nil, err
	}
	for i := range states {
		states[i].ConfirmedBy = confirmers[states[i].Index]
		if states[i].ConfirmedBy == nil {
			states[i].ConfirmedBy = []ir.Owner{}
		}
		states[i].ConfirmationCount = len(states[i].ConfirmedBy)
	}
	return states, nil
}

// ReadProposal returns one stored snapshot, or ErrProposalNotFound.
func (s *Store) ReadProposal(ctx context.Context, index uint64) (ir.ProposalState, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT idx, target, value, payload, digest, executed
		FROM proposals
		WHERE idx = ?
	`, index)
	st, err := scanProposal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.ProposalState{}, fmt.Errorf("read proposal %d: %w", index, ErrProposalNotFound)
	}
	if err != nil {
		return ir.ProposalState{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT owner FROM confirmations WHERE idx = ? ORDER BY ord ASC
	`, index)
	if err != nil {
		return ir.ProposalState{}, fmt.Errorf("query confirmations: %w", err)
	}
	defer rows.Close()

	st.ConfirmedBy = []ir.Owner{}
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return ir.ProposalState{}, fmt.Errorf("scan confirmation: %w", err)
		}
		st.ConfirmedBy = append(st.ConfirmedBy, ir.Owner(owner))
	}
	if err := rows.Err(); err != nil {
		return ir.ProposalState{}, fmt.Errorf("iterate confirmations: %w", err)
	}
	st.ConfirmationCount = len(st.ConfirmedBy)
	return st, nil
}

// readConfirmations returns every active confirmer set keyed by index.
func (s *Store) readConfirmations(ctx context.Context) (map[uint64][]ir.Owner, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, owner FROM confirmations ORDER BY idx ASC, ord ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query confirmations: %w", err)
	}
	defer rows.Close()

	out := make(map[uint64][]ir.Owner)
	for rows.Next() {
		var idx uint64
		var owner string
		if err := rows.Scan(&idx, &owner); err != nil {
			return nil, fmt.Errorf("scan confirmation: %w", err)
		}
		out[idx] = append(out[idx], ir.Owner(owner))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate confirmations: %w", err)
	}
	return out, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanProposal scans a proposal row without its confirmers.
func scanProposal(sc scanner) (ir.ProposalState, error) {
	var st ir.ProposalState
	var value string
	var executed int
	if err := sc.Scan(&st.Index, &st.Target, &value, &st.Payload, &st.Digest, &executed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return st, err
		}
		return st, fmt.Errorf("scan proposal: %w", err)
	}
	v, err := parseValue(value)
	if err != nil {
		return st, fmt.Errorf("scan proposal %d: %w", st.Index, err)
	}
	st.Value = v
	st.Executed = executed == 1
	if st.Payload == nil {
		st.Payload = []byte{}
	}
	return st, nil
}

// EventFilter narrows ReadEvents. Zero values match everything.
type EventFilter struct {
	// Index restricts results to one proposal.
	Index *uint64

	// Kind restricts results to one event kind.
	Kind ir.EventKind

	// Flow restricts results to one CLI invocation.
	Flow string

	// AfterSeq skips events with seq <= AfterSeq.
	AfterSeq int64
}

// Record is a stored event plus the flow token that wrote it.
type Record struct {
	ir.Event
	Flow string `json:"flow"`
}

// ReadEvents returns the audit log entries matching f ordered by seq.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ReadEvents(ctx context.Context, f EventFilter) ([]Record, error) {
	query := `
		SELECT seq, flow_token, kind, caller, idx, target, value, payload, digest
		FROM events
		WHERE seq > ?`
	args := []any{f.AfterSeq}
	if f.Index != nil {
		query += ` AND idx = ?`
		args = append(args, *f.Index)
	}
	if f.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(f.Kind))
	}
	if f.Flow != "" {
		query += ` AND flow_token = ?`
		args = append(args, f.Flow)
	}
	query += ` ORDER BY seq ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return records, nil
}

func scanRecord(sc scanner) (Record, error) {
	var rec Record
	var kind, caller string
	var target, value, digest sql.NullString
	var payload []byte
	if err := sc.Scan(&rec.Seq, &rec.Flow, &kind, &caller, &rec.Index, &target, &value, &payload, &digest); err != nil {
		return Record{}, fmt.Errorf("scan event: %w", err)
	}
	rec.Kind = ir.EventKind(kind)
	rec.Caller = ir.Owner(caller)
	if err := scanEventContent(&rec.Event, target, value, digest, payload); err != nil {
		return Record{}, fmt.Errorf("scan event seq=%d: %w", rec.Seq, err)
	}
	return rec, nil
}
