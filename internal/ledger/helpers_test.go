package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/quorum/internal/ir"
	"github.com/roach88/quorum/internal/registry"
	"github.com/roach88/quorum/internal/testutil"
)

const (
	alice   ir.Owner = "alice"
	bob     ir.Owner = "bob"
	carol   ir.Owner = "carol"
	mallory ir.Owner = "mallory"
)

// fixture bundles a ledger with its recording collaborators.
type fixture struct {
	ledger *Ledger
	exec   *testutil.RecordingExecutor
	events *Recorder
}

// newFixture creates a ledger over alice, bob and carol with the given threshold.
func newFixture(t *testing.T, threshold int) *fixture {
	t.Helper()
	reg, err := registry.New([]ir.Owner{alice, bob, carol}, threshold)
	require.NoError(t, err)

	exec := &testutil.RecordingExecutor{Output: []byte("done")}
	rec := NewRecorder()
	l := New(reg, exec,
		WithSink(rec),
		WithClock(testutil.NewDeterministicClock()),
		WithLogger(DiscardLogger()),
	)
	return &fixture{ledger: l, exec: exec, events: rec}
}

// submit submits a valid proposal as alice and returns its index.
func (f *fixture) submit(t *testing.T) uint64 {
	t.Helper()
	idx, err := f.ledger.Submit(alice, "treasury", 1, []byte("p"))
	require.NoError(t, err)
	return idx
}

// confirmAll confirms index with each owner.
func (f *fixture) confirmAll(t *testing.T, index uint64, owners ...ir.Owner) {
	t.Helper()
	for _, o := range owners {
		require.NoError(t, f.ledger.Confirm(o, index))
	}
}

func (f *fixture) state(t *testing.T, index uint64) ir.ProposalState {
	t.Helper()
	st, err := f.ledger.Proposal(index)
	require.NoError(t, err)
	return st
}

func kinds(events []ir.Event) []ir.EventKind {
	out := make([]ir.EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}
