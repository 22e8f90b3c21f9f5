package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/quorum/internal/ir"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestProposal creates an unexecuted snapshot with a valid digest.
func createTestProposal(index uint64, target string, value uint64, confirmers ...ir.Owner) ir.ProposalState {
	if confirmers == nil {
		confirmers = []ir.Owner{}
	}
	return ir.ProposalState{
		Index:             index,
		Target:            target,
		Value:             value,
		Payload:           []byte{},
		ConfirmationCount: len(confirmers),
		ConfirmedBy:       confirmers,
		Digest:            ir.MustProposalDigest(target, value, nil),
	}
}

// submittedEvent builds the submitted event for st.
func submittedEvent(seq int64, caller ir.Owner, st ir.ProposalState) ir.Event {
	return ir.Event{
		Seq:     seq,
		Kind:    ir.EventSubmitted,
		Caller:  caller,
		Index:   st.Index,
		Target:  st.Target,
		Value:   st.Value,
		Payload: st.Payload,
		Digest:  st.Digest,
	}
}

// commitSubmitted commits st together with its submitted event.
func commitSubmitted(t *testing.T, s *Store, flow string, base int64, st ir.ProposalState) {
	t.Helper()
	err := s.Commit(context.Background(), Batch{
		Flow:    flow,
		BaseSeq: base,
		States:  []ir.ProposalState{st},
		Events:  []ir.Event{submittedEvent(base+1, "alice", st)},
	})
	if err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}
}
