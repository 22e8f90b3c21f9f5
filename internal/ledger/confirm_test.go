package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/quorum/internal/ir"
)

func TestConfirm_AddsConfirmation(t *testing.T) {
	f := newFixture(t, 3)
	idx := f.submit(t)

	require.NoError(t, f.ledger.Confirm(bob, idx))
	st := f.state(t, idx)
	assert.Equal(t, 1, st.ConfirmationCount)
	assert.True(t, st.IsConfirmedBy(bob))
	assert.False(t, st.IsConfirmedBy(alice))
}

func TestConfirm_Twice(t *testing.T) {
	f := newFixture(t, 3)
	idx := f.submit(t)

	require.NoError(t, f.ledger.Confirm(bob, idx))
	err := f.ledger.Confirm(bob, idx)
	assert.ErrorIs(t, err, ErrAlreadyConfirmed)
	assert.Equal(t, 1, f.state(t, idx).ConfirmationCount)
}

func TestRevoke_WithoutConfirm(t *testing.T) {
	f := newFixture(t, 3)
	idx := f.submit(t)

	err := f.ledger.Revoke(bob, idx)
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Equal(t, 0, f.state(t, idx).ConfirmationCount)
}

func TestRevoke_RemovesConfirmation(t *testing.T) {
	f := newFixture(t, 3)
	idx := f.submit(t)
	f.confirmAll(t, idx, alice, bob)

	require.NoError(t, f.ledger.Revoke(alice, idx))
	st := f.state(t, idx)
	assert.Equal(t, 1, st.ConfirmationCount)
	assert.Equal(t, []ir.Owner{bob}, st.ConfirmedBy)
}

func TestConfirmRevokeReconfirm(t *testing.T) {
	f := newFixture(t, 3)
	idx := f.submit(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, f.ledger.Confirm(carol, idx))
		require.NoError(t, f.ledger.Revoke(carol, idx))
	}
	require.NoError(t, f.ledger.Confirm(carol, idx))
	assert.Equal(t, 1, f.state(t, idx).ConfirmationCount)
}

func TestConfirm_ConfirmationsArePerProposal(t *testing.T) {
	f := newFixture(t, 2)
	a := f.submit(t)
	b := f.submit(t)

	require.NoError(t, f.ledger.Confirm(alice, a))
	assert.NoError(t, f.ledger.Confirm(alice, b))
	assert.NoError(t, f.ledger.Revoke(alice, a))
	assert.True(t, f.state(t, b).IsConfirmedBy(alice))
}

func TestConfirmRevoke_Events(t *testing.T) {
	f := newFixture(t, 3)
	idx := f.submit(t)
	require.NoError(t, f.ledger.Confirm(bob, idx))
	require.NoError(t, f.ledger.Revoke(bob, idx))

	_ = f.ledger.Revoke(bob, idx)      // fails, no event
	_ = f.ledger.Confirm(mallory, idx) // fails, no event

	events := f.events.Events()
	assert.Equal(t, []ir.EventKind{ir.EventSubmitted, ir.EventConfirmed, ir.EventRevoked}, kinds(events))
	assert.Equal(t, bob, events[1].Caller)
	assert.Equal(t, "", events[1].Target, "confirm events carry no content")
	assert.Equal(t, []int64{1, 2, 3}, []int64{events[0].Seq, events[1].Seq, events[2].Seq})
}

func TestCheckOrder_OwnerBeforeExistence(t *testing.T) {
	f := newFixture(t, 2)

	// Index 42 does not exist; the non-owner must still see UNAUTHORIZED.
	ops := map[string]func() error{
		"confirm": func() error { return f.ledger.Confirm(mallory, 42) },
		"revoke":  func() error { return f.ledger.Revoke(mallory, 42) },
		"amend":   func() error { return f.ledger.Amend(mallory, 42, "t", 1, nil) },
		"execute": func() error { _, err := f.ledger.Execute(t.Context(), mallory, 42); return err },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			err := op()
			assert.ErrorIs(t, err, ErrUnauthorized)
			assert.Equal(t, ErrCodeUnauthorized, CodeOf(err))
		})
	}
}

func TestCheckOrder_ExistenceForOwners(t *testing.T) {
	f := newFixture(t, 2)

	assert.ErrorIs(t, f.ledger.Confirm(alice, 0), ErrNotFound)
	assert.ErrorIs(t, f.ledger.Revoke(alice, 0), ErrNotFound)
	assert.ErrorIs(t, f.ledger.Amend(alice, 0, "t", 1, nil), ErrNotFound)
	_, err := f.ledger.Execute(t.Context(), alice, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCheckOrder_ExecutedBeforeConfirmState(t *testing.T) {
	f := newFixture(t, 1)
	idx := f.submit(t)
	f.confirmAll(t, idx, alice)
	_, err := f.ledger.Execute(t.Context(), alice, idx)
	require.NoError(t, err)

	// alice holds a confirmation and bob does not; both see ALREADY_EXECUTED.
	assert.ErrorIs(t, f.ledger.Confirm(alice, idx), ErrAlreadyExecuted)
	assert.ErrorIs(t, f.ledger.Revoke(bob, idx), ErrAlreadyExecuted)
}
