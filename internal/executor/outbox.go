package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/quorum/internal/ir"
)

// Enqueuer accepts actions for later dispatch. *store.Store implements it.
type Enqueuer interface {
	EnqueueAction(ctx context.Context, action ir.Action) (inserted bool, err error)
}

// Outbox is an Action Executor that hands every action to an Enqueuer.
//
// The action counts as performed once it is enqueued; delivery is the
// relay's job. Enqueue is idempotent per proposal index, so a duplicate
// call is reported in the receipt rather than failing.
type Outbox struct {
	queue  Enqueuer
	logger *slog.Logger
}

// NewOutbox creates an Outbox over queue. A nil logger uses slog.Default().
func NewOutbox(queue Enqueuer, logger *slog.Logger) *Outbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Outbox{queue: queue, logger: logger}
}

// Invoke enqueues action and returns a Receipt.
func (o *Outbox) Invoke(ctx context.Context, action ir.Action) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("outbox: %w", err)
	}
	inserted, err := o.queue.EnqueueAction(ctx, action)
	if err != nil {
		return nil, fmt.Errorf("outbox: %w", err)
	}

	status := StatusQueued
	if !inserted {
		status = StatusDuplicate
	}
	o.logger.Info("action enqueued", "index", action.Index, "target", action.Target, "status", status)
	return newReceipt(action, status)
}

// Staged buffers enqueued actions in memory until Drain.
//
// The CLI runs the ledger against a Staged queue and writes the drained
// actions in the same store transaction as the executed snapshot, so an
// action is never queued for a proposal whose execution was not persisted.
//
// Thread-safety: All methods are safe for concurrent use.
type Staged struct {
	mu      sync.Mutex
	seen    map[uint64]bool
	actions []ir.Action
}

// NewStaged creates an empty staging queue.
func NewStaged() *Staged {
	return &Staged{seen: make(map[uint64]bool)}
}

// EnqueueAction buffers action. A second action for the same index is
// ignored.
func (s *Staged) EnqueueAction(_ context.Context, action ir.Action) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[action.Index] {
		return false, nil
	}
	s.seen[action.Index] = true
	s.actions = append(s.actions, ir.Action{
		Index:   action.Index,
		Target:  action.Target,
		Value:   action.Value,
		Payload: append([]byte(nil), action.Payload...),
	})
	return true, nil
}

// Drain returns the buffered actions in enqueue order and empties the buffer.
func (s *Staged) Drain() []ir.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.actions
	s.actions = nil
	s.seen = make(map[uint64]bool)
	return out
}
