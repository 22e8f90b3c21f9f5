package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/quorum/internal/ir"
)

// LastSeq returns the highest event seq in the log, or 0 for an empty log.
// A restored ledger resumes its clock here so seqs never repeat.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	return lastSeq(ctx, s.db)
}

func lastSeq(ctx context.Context, q dbtx) (int64, error) {
	var seq sql.NullInt64
	if err := q.QueryRowContext(ctx, `SELECT MAX(seq) FROM events`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("query last seq: %w", err)
	}
	if !seq.Valid {
		return 0, nil
	}
	return seq.Int64, nil
}

// ListFlows returns every flow token in the order its first event was written.
func (s *Store) ListFlows(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT flow_token
		FROM events
		GROUP BY flow_token
		ORDER BY MIN(seq) ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query flows: %w", err)
	}
	defer rows.Close()

	flows := []string{}
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("scan flow: %w", err)
		}
		flows = append(flows, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate flows: %w", err)
	}
	return flows, nil
}

// EventCounts returns the number of stored events per kind.
// Kinds with no events are present with a zero count.
func (s *Store) EventCounts(ctx context.Context) (map[ir.EventKind]int, error) {
	counts := make(map[ir.EventKind]int, len(ir.EventKinds))
	for _, k := range ir.EventKinds {
		counts[k] = 0
	}

	rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM events GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("query event counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan event count: %w", err)
		}
		counts[ir.EventKind(kind)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event counts: %w", err)
	}
	return counts, nil
}

// CountFailedExecutions returns the number of proposals that are executed
// but have no executed event. The executor rejected those actions; the
// consumed snapshot was committed without an event.
func (s *Store) CountFailedExecutions(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM proposals p
		WHERE p.executed = 1
		  AND NOT EXISTS (
			SELECT 1 FROM events e WHERE e.idx = p.idx AND e.kind = 'executed'
		  )
	`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count failed executions: %w", err)
	}
	return n, nil
}
