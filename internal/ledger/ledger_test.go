package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/quorum/internal/ir"
)

func TestSubmit_AssignsSequentialIndices(t *testing.T) {
	f := newFixture(t, 2)

	for want := uint64(0); want < 5; want++ {
		got, err := f.ledger.Submit(bob, "t", want+1, nil)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, 5, f.ledger.Count())
}

func TestSubmit_InitialState(t *testing.T) {
	f := newFixture(t, 2)
	idx, err := f.ledger.Submit(alice, "treasury", 7, []byte{0xca, 0xfe})
	require.NoError(t, err)

	st := f.state(t, idx)
	assert.Equal(t, "treasury", st.Target)
	assert.Equal(t, uint64(7), st.Value)
	assert.Equal(t, []byte{0xca, 0xfe}, st.Payload)
	assert.False(t, st.Executed)
	assert.Equal(t, 0, st.ConfirmationCount)
	assert.Empty(t, st.ConfirmedBy)
	assert.Equal(t, ir.MustProposalDigest("treasury", 7, []byte{0xca, 0xfe}), st.Digest)
}

func TestSubmit_EmitsEvent(t *testing.T) {
	f := newFixture(t, 2)
	idx := f.submit(t)

	events := f.events.Events()
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, int64(1), ev.Seq)
	assert.Equal(t, ir.EventSubmitted, ev.Kind)
	assert.Equal(t, alice, ev.Caller)
	assert.Equal(t, idx, ev.Index)
	assert.Equal(t, "treasury", ev.Target)
	assert.Equal(t, uint64(1), ev.Value)
	assert.Equal(t, []byte("p"), ev.Payload)
	assert.NotEmpty(t, ev.Digest)
}

func TestSubmit_Unauthorized(t *testing.T) {
	f := newFixture(t, 2)

	_, err := f.ledger.Submit(mallory, "t", 1, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 0, f.ledger.Count())
	assert.Equal(t, 0, f.events.Len())
}

func TestSubmit_InvalidProposalData(t *testing.T) {
	f := newFixture(t, 2)

	_, err := f.ledger.Submit(alice, "t", 0, nil)
	assert.ErrorIs(t, err, ErrInvalidProposalData)
	_, err = f.ledger.Submit(alice, "t", 0, []byte{})
	assert.ErrorIs(t, err, ErrInvalidProposalData)

	assert.Equal(t, 0, f.ledger.Count())
	assert.Equal(t, 0, f.events.Len())
}

func TestSubmit_ZeroValueWithPayloadIsValid(t *testing.T) {
	f := newFixture(t, 2)
	_, err := f.ledger.Submit(alice, "t", 0, []byte{0x01})
	assert.NoError(t, err)

	_, err = f.ledger.Submit(alice, "t", 5, nil)
	assert.NoError(t, err, "value without payload is valid")
}

func TestSubmit_UnauthorizedCheckedBeforeData(t *testing.T) {
	f := newFixture(t, 2)
	_, err := f.ledger.Submit(mallory, "t", 0, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSubmit_PayloadIsCopied(t *testing.T) {
	f := newFixture(t, 2)
	payload := []byte{1, 2, 3}
	idx, err := f.ledger.Submit(alice, "t", 1, payload)
	require.NoError(t, err)

	payload[0] = 9
	assert.Equal(t, []byte{1, 2, 3}, f.state(t, idx).Payload)

	st := f.state(t, idx)
	st.Payload[1] = 9
	assert.Equal(t, []byte{1, 2, 3}, f.state(t, idx).Payload)
}

func TestProposal_NotFound(t *testing.T) {
	f := newFixture(t, 2)
	_, err := f.ledger.Proposal(0)
	assert.ErrorIs(t, err, ErrNotFound)

	f.submit(t)
	_, err = f.ledger.Proposal(1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProposals_ListsInIndexOrder(t *testing.T) {
	f := newFixture(t, 2)
	f.submit(t)
	f.submit(t)
	f.confirmAll(t, 1, carol, alice)

	all := f.ledger.Proposals()
	require.Len(t, all, 2)
	assert.Equal(t, uint64(0), all[0].Index)
	assert.Equal(t, uint64(1), all[1].Index)
	assert.Equal(t, []ir.Owner{alice, carol}, all[1].ConfirmedBy, "confirmers listed in registry order")
}

func TestOwnersAndThreshold(t *testing.T) {
	f := newFixture(t, 2)
	assert.Equal(t, []ir.Owner{alice, bob, carol}, f.ledger.Owners())
	assert.Equal(t, 2, f.ledger.Threshold())
	assert.Same(t, f.ledger.Registry(), f.ledger.Registry())
}
