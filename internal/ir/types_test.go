package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnerIsNull(t *testing.T) {
	assert.True(t, NullOwner.IsNull())
	assert.True(t, Owner("   ").IsNull())
	assert.False(t, Owner("alice").IsNull())
}

func TestPayloadRoundTrip(t *testing.T) {
	tests := []struct {
		in   string
		want []byte
	}{
		{"", []byte{}},
		{"0x", []byte{}},
		{"0xdeadbeef", []byte{0xde, 0xad, 0xbe, 0xef}},
		{"DEADBEEF", []byte{0xde, 0xad, 0xbe, 0xef}},
		{"0X01", []byte{0x01}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := DecodePayload(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "0x", EncodePayload(nil))
	assert.Equal(t, "0xdeadbeef", EncodePayload([]byte{0xde, 0xad, 0xbe, 0xef}))
}

func TestDecodePayloadRejectsInvalidHex(t *testing.T) {
	_, err := DecodePayload("0xzz")
	assert.Error(t, err)

	_, err = DecodePayload("0xabc")
	assert.Error(t, err, "odd length")
}

func TestParseEventKind(t *testing.T) {
	for _, k := range EventKinds {
		got, err := ParseEventKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := ParseEventKind("deleted")
	assert.Error(t, err)
}

func TestProposalStateCloneIsDeep(t *testing.T) {
	p := ProposalState{
		Payload:     []byte{1, 2},
		ConfirmedBy: []Owner{"a"},
	}
	c := p.Clone()
	c.Payload[0] = 9
	c.ConfirmedBy[0] = "z"

	assert.Equal(t, byte(1), p.Payload[0])
	assert.Equal(t, Owner("a"), p.ConfirmedBy[0])
}

func TestProposalStateAction(t *testing.T) {
	p := ProposalState{Index: 3, Target: "t", Value: 5, Payload: []byte{7}}
	a := p.Action()
	assert.Equal(t, Action{Index: 3, Target: "t", Value: 5, Payload: []byte{7}}, a)

	a.Payload[0] = 0
	assert.Equal(t, byte(7), p.Payload[0])
}

func TestEventCarriesContent(t *testing.T) {
	assert.True(t, Event{Kind: EventSubmitted}.CarriesContent())
	assert.True(t, Event{Kind: EventAmended}.CarriesContent())
	assert.False(t, Event{Kind: EventConfirmed}.CarriesContent())
	assert.False(t, Event{Kind: EventExecuted}.CarriesContent())
}
