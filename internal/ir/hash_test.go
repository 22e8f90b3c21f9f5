package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProposalDigestMatchesDomainSeparatedHash(t *testing.T) {
	got, err := ProposalDigest("treasury", 1, []byte{0xde, 0xad})
	require.NoError(t, err)

	h := sha256.New()
	h.Write([]byte(DomainProposal))
	h.Write([]byte{0x00})
	h.Write([]byte(`{"payload":"0xdead","target":"treasury","value":"1"}`))
	assert.Equal(t, hex.EncodeToString(h.Sum(nil)), got)
}

func TestProposalDigestStable(t *testing.T) {
	a := MustProposalDigest("x", 10, []byte("p"))
	b := MustProposalDigest("x", 10, []byte("p"))
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestProposalDigestSensitiveToEachField(t *testing.T) {
	base := MustProposalDigest("x", 10, []byte("p"))

	tests := []struct {
		name    string
		target  string
		value   uint64
		payload []byte
	}{
		{"target", "y", 10, []byte("p")},
		{"value", "x", 11, []byte("p")},
		{"payload", "x", 10, []byte("q")},
		{"empty payload", "x", 10, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base, MustProposalDigest(tt.target, tt.value, tt.payload))
		})
	}
}

func TestProposalDigestLargeValue(t *testing.T) {
	// Values above 2^53 must not collide through float rounding.
	a := MustProposalDigest("x", 1<<60, nil)
	b := MustProposalDigest("x", 1<<60+1, nil)
	assert.NotEqual(t, a, b)
}

func TestProposalDigestHashesTargetBytes(t *testing.T) {
	// Same text, different encodings: the executor would receive different
	// bytes, so the digests must differ.
	assert.NotEqual(t,
		MustProposalDigest("cafe\u0301", 1, nil),
		MustProposalDigest("caf\u00e9", 1, nil),
	)
}

func TestWalletDigest(t *testing.T) {
	a, err := WalletDigest([]Owner{"a", "b"}, 2)
	require.NoError(t, err)
	b, err := WalletDigest([]Owner{"b", "a"}, 2)
	require.NoError(t, err)
	c, err := WalletDigest([]Owner{"a", "b"}, 1)
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "construction order is part of the definition")
	assert.NotEqual(t, a, c)
}

func TestWalletDigestHashesOwnerBytes(t *testing.T) {
	a, err := WalletDigest([]Owner{"jos\u00e9"}, 1)
	require.NoError(t, err)
	b, err := WalletDigest([]Owner{"jose\u0301"}, 1)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
