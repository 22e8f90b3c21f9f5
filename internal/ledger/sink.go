package ledger

import (
	"log/slog"
	"sync"

	"github.com/roach88/quorum/internal/ir"
)

// Sink receives one event per successful state transition, in Seq order.
//
// Emit is called after the ledger has released its arena and proposal
// locks, so an implementation may query the ledger (Proposal, Count). It
// must not mutate it: deliveries are serialized and a mutation from inside
// Emit deadlocks. An event may be delivered by a concurrent caller whose
// own transition completed the seq sequence.
type Sink interface {
	Emit(ev ir.Event)
}

// FailureObserver is implemented by sinks that also want to hear about
// rejected actions. A failed Execute emits no event; instead the ledger
// calls ExecutionFailed on the sink if it implements this interface.
type FailureObserver interface {
	ExecutionFailed(caller ir.Owner, index uint64, err error)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ev ir.Event)

// Emit calls f.
func (f SinkFunc) Emit(ev ir.Event) { f(ev) }

type discardSink struct{}

func (discardSink) Emit(ir.Event) {}

// Recorder keeps every event in memory, in emission order.
type Recorder struct {
	mu     sync.Mutex
	events []ir.Event
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit appends ev.
func (r *Recorder) Emit(ev ir.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []ir.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ir.Event(nil), r.events...)
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Reset discards recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// LogSink writes every event as a structured Info record.
type LogSink struct {
	Logger *slog.Logger
}

// Emit logs ev.
func (s LogSink) Emit(ev ir.Event) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{
		"seq", ev.Seq,
		"kind", string(ev.Kind),
		"caller", string(ev.Caller),
		"index", ev.Index,
	}
	if ev.CarriesContent() {
		attrs = append(attrs,
			"target", ev.Target,
			"value", ev.Value,
			"payload", ir.EncodePayload(ev.Payload),
			"digest", ev.Digest,
		)
	}
	logger.Info("proposal event", attrs...)
}

// MultiSink fans an event out to several sinks in order.
type MultiSink []Sink

// Emit forwards ev to every sink.
func (m MultiSink) Emit(ev ir.Event) {
	for _, s := range m {
		s.Emit(ev)
	}
}

// ExecutionFailed forwards to every sink that is a FailureObserver.
func (m MultiSink) ExecutionFailed(caller ir.Owner, index uint64, err error) {
	for _, s := range m {
		if fo, ok := s.(FailureObserver); ok {
			fo.ExecutionFailed(caller, index, err)
		}
	}
}
