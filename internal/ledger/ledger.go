package ledger

import (
	"bytes"
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/quorum/internal/ir"
	"github.com/roach88/quorum/internal/registry"
)

// Ledger is the append-only proposal arena plus the operations that drive
// each proposal through its lifecycle.
//
// Thread-safety model:
//   - All methods are safe for concurrent use.
//   - Operations on the same index serialize on that proposal's mutex.
//   - Operations on different indices proceed independently.
//
// INVARIANTS:
//   - Indices are assigned sequentially from 0 and never reused.
//   - Proposals are never removed.
//   - executed never goes from true back to false.
type Ledger struct {
	reg    *registry.Registry
	exec   Executor
	sink   Sink
	clock  SeqClock
	logger *slog.Logger

	mu        sync.RWMutex
	proposals []*proposal

	// stampMu orders seq issue with ticket issue; it is never held while
	// calling out.
	stampMu sync.Mutex
	issued  uint64

	// deliverMu serializes sink delivery in ticket order.
	deliverMu sync.Mutex
	delivered uint64
	parked    map[uint64]ir.Event
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithSink sets the event sink. Default: events are discarded.
func WithSink(s Sink) Option {
	return func(l *Ledger) {
		if s != nil {
			l.sink = s
		}
	}
}

// WithClock sets the logical clock used to stamp events.
// Use WithClock(NewClockAt(lastSeq)) when resuming from a store.
func WithClock(c SeqClock) Option {
	return func(l *Ledger) {
		if c != nil {
			l.clock = c
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// New creates an empty ledger governed by reg.
//
// exec performs executed actions. A nil exec is allowed; Execute then fails
// with EXECUTION_FAILED wrapping ErrNoExecutor (and still consumes the
// proposal).
func New(reg *registry.Registry, exec Executor, opts ...Option) *Ledger {
	if exec == nil {
		exec = missingExecutor{}
	}
	l := &Ledger{
		reg:    reg,
		exec:   exec,
		sink:   discardSink{},
		clock:  NewClock(),
		logger: slog.Default(),
		parked: make(map[uint64]ir.Event),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Registry returns the membership registry governing this ledger.
func (l *Ledger) Registry() *registry.Registry {
	return l.reg
}

// Owners returns the owners in construction order.
func (l *Ledger) Owners() []ir.Owner {
	return l.reg.Owners()
}

// Threshold returns the number of confirmations required to execute.
func (l *Ledger) Threshold() int {
	return l.reg.Threshold()
}

// Submit appends a new unexecuted proposal and returns its index.
//
// Fails with UNAUTHORIZED if caller is not an owner and with
// INVALID_PROPOSAL_DATA if value is zero and payload is empty.
func (l *Ledger) Submit(caller ir.Owner, target string, value uint64, payload []byte) (uint64, error) {
	if !l.reg.IsOwner(caller) {
		return 0, unauthorized(caller)
	}
	if !validProposalData(value, payload) {
		return 0, &Error{
			Code:    ErrCodeInvalidProposalData,
			Message: "value is zero and payload is empty",
			Caller:  caller,
		}
	}

	p := newProposal(target, value, payload)

	l.mu.Lock()
	p.index = uint64(len(l.proposals))
	l.proposals = append(l.proposals, p)
	ev := l.stamp(ir.Event{
		Kind:    ir.EventSubmitted,
		Caller:  caller,
		Index:   p.index,
		Target:  p.target,
		Value:   p.value,
		Payload: bytes.Clone(p.payload),
		Digest:  p.digest,
	})
	l.mu.Unlock()

	l.publish(ev)
	l.logger.Debug("proposal submitted", "index", ev.ev.Index, "caller", string(caller), "digest", ev.ev.Digest)

	return ev.ev.Index, nil
}

// Count returns the number of proposals ever submitted.
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.proposals)
}

// Proposal returns a copy of the proposal at index, or NOT_FOUND.
func (l *Ledger) Proposal(index uint64) (ir.ProposalState, error) {
	p, err := l.lookup("", index)
	if err != nil {
		return ir.ProposalState{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot(l.reg), nil
}

// Proposals returns copies of every proposal in index order.
// Each copy is internally consistent; the set as a whole is not a single
// atomic snapshot when other goroutines are mutating the ledger.
func (l *Ledger) Proposals() []ir.ProposalState {
	l.mu.RLock()
	arena := append([]*proposal(nil), l.proposals...)
	l.mu.RUnlock()

	out := make([]ir.ProposalState, len(arena))
	for i, p := range arena {
		p.mu.Lock()
		out[i] = p.snapshot(l.reg)
		p.mu.Unlock()
	}
	return out
}

// lookup resolves index without checking authorization.
func (l *Ledger) lookup(caller ir.Owner, index uint64) (*proposal, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index >= uint64(len(l.proposals)) {
		return nil, indexError(ErrCodeNotFound, "no proposal at index", caller, index)
	}
	return l.proposals[index], nil
}

// acquire runs the shared preconditions (owner, existence, not executed)
// and returns the proposal with its mutex held. The caller must unlock.
func (l *Ledger) acquire(caller ir.Owner, index uint64) (*proposal, error) {
	if !l.reg.IsOwner(caller) {
		return nil, unauthorized(caller)
	}
	p, err := l.lookup(caller, index)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	if p.executed {
		p.mu.Unlock()
		return nil, indexError(ErrCodeAlreadyExecuted, "proposal already executed", caller, index)
	}
	return p, nil
}

// stamped is an event whose seq is issued but which may not have reached
// the sink yet.
type stamped struct {
	ticket uint64
	ev     ir.Event
}

// stamp assigns ev the next seq. The caller holds the lock that orders the
// transition (the arena lock for Submit, the proposal lock otherwise) and
// hands the result to publish once that lock is released.
func (l *Ledger) stamp(ev ir.Event) stamped {
	l.stampMu.Lock()
	defer l.stampMu.Unlock()
	ev.Seq = l.clock.Next()
	s := stamped{ticket: l.issued, ev: ev}
	l.issued++
	return s
}

// publish delivers stamped events to the sink in seq order. An event whose
// predecessors are still in flight is parked and delivered by the call that
// publishes the last missing one.
func (l *Ledger) publish(s stamped) {
	l.deliverMu.Lock()
	defer l.deliverMu.Unlock()

	l.parked[s.ticket] = s.ev
	for {
		ev, ok := l.parked[l.delivered]
		if !ok {
			return
		}
		delete(l.parked, l.delivered)
		l.delivered++
		l.sink.Emit(ev)
	}
}
