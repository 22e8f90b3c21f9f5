package store

import (
	"context"
	"errors"
	"testing"

	"github.com/roach88/quorum/internal/ir"
)

func TestEnqueueAction_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	commitSubmitted(t, s, "f", 0, createTestProposal(0, "t", 1))

	action := ir.Action{Index: 0, Target: "t", Value: 1, Payload: []byte{0xaa}}
	inserted, err := s.EnqueueAction(ctx, action)
	if err != nil {
		t.Fatalf("EnqueueAction() failed: %v", err)
	}
	if !inserted {
		t.Error("first EnqueueAction() should insert")
	}

	inserted, err = s.EnqueueAction(ctx, action)
	if err != nil {
		t.Fatalf("second EnqueueAction() failed: %v", err)
	}
	if inserted {
		t.Error("second EnqueueAction() should be a no-op")
	}

	entries, err := s.ReadOutbox(ctx, false)
	if err != nil {
		t.Fatalf("ReadOutbox() failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Status != StatusPending {
		t.Errorf("Status = %q, want pending", e.Status)
	}
	if e.Digest != ir.MustProposalDigest("t", 1, []byte{0xaa}) {
		t.Errorf("Digest = %q", e.Digest)
	}
}

func TestEnqueueAction_RequiresProposal(t *testing.T) {
	s := createTestStore(t)

	_, err := s.EnqueueAction(context.Background(), ir.Action{Index: 5, Target: "t", Value: 1})
	if err == nil {
		t.Error("EnqueueAction() for missing proposal should violate foreign key")
	}
}

func TestMarkDispatched(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	commitSubmitted(t, s, "f", 0, createTestProposal(0, "t", 1))
	commitSubmitted(t, s, "f", 1, createTestProposal(1, "u", 1))

	for _, idx := range []uint64{0, 1} {
		if _, err := s.EnqueueAction(ctx, ir.Action{Index: idx, Target: "t", Value: 1}); err != nil {
			t.Fatalf("EnqueueAction(%d) failed: %v", idx, err)
		}
	}

	if err := s.MarkDispatched(ctx, 0); err != nil {
		t.Fatalf("MarkDispatched() failed: %v", err)
	}
	if err := s.MarkDispatched(ctx, 0); !errors.Is(err, ErrNotPending) {
		t.Errorf("second MarkDispatched() = %v, want ErrNotPending", err)
	}
	if err := s.MarkDispatched(ctx, 9); !errors.Is(err, ErrNotPending) {
		t.Errorf("MarkDispatched(missing) = %v, want ErrNotPending", err)
	}

	pending, err := s.PendingActions(ctx)
	if err != nil {
		t.Fatalf("PendingActions() failed: %v", err)
	}
	if len(pending) != 1 || pending[0].Index != 1 {
		t.Errorf("PendingActions() = %+v, want only index 1", pending)
	}

	all, err := s.ReadOutbox(ctx, false)
	if err != nil {
		t.Fatalf("ReadOutbox() failed: %v", err)
	}
	if len(all) != 2 || all[0].Status != StatusDispatched {
		t.Errorf("ReadOutbox() = %+v", all)
	}
}
