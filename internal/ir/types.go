package ir

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

// Owner is an opaque approver identity (an address or principal name).
// The empty string is the null identity and is never a valid owner.
type Owner string

// NullOwner is the invalid identity rejected by the registry.
const NullOwner Owner = ""

// IsNull reports whether o is the null identity. Whitespace-only identities
// are treated as null so that a blank config entry cannot become an owner.
func (o Owner) IsNull() bool {
	return strings.TrimSpace(string(o)) == ""
}

// Action is what an executed proposal asks the Action Executor to perform.
type Action struct {
	Index   uint64 `json:"index"`
	Target  string `json:"target"`
	Value   uint64 `json:"value"`
	Payload []byte `json:"payload"`
}

// ProposalState is a point-in-time copy of one proposal.
// It shares no memory with the ledger that produced it.
type ProposalState struct {
	Index             uint64  `json:"index"`
	Target            string  `json:"target"`
	Value             uint64  `json:"value"`
	Payload           []byte  `json:"payload"`
	Executed          bool    `json:"executed"`
	ConfirmationCount int     `json:"confirmation_count"`
	ConfirmedBy       []Owner `json:"confirmed_by"`
	Digest            string  `json:"digest"`
}

// IsConfirmedBy reports whether owner holds an active confirmation.
func (p ProposalState) IsConfirmedBy(owner Owner) bool {
	for _, o := range p.ConfirmedBy {
		if o == owner {
			return true
		}
	}
	return false
}

// Action returns the action this proposal would perform.
func (p ProposalState) Action() Action {
	return Action{
		Index:   p.Index,
		Target:  p.Target,
		Value:   p.Value,
		Payload: bytes.Clone(p.Payload),
	}
}

// Clone returns a deep copy of p.
func (p ProposalState) Clone() ProposalState {
	c := p
	c.Payload = bytes.Clone(p.Payload)
	if p.ConfirmedBy != nil {
		c.ConfirmedBy = append([]Owner(nil), p.ConfirmedBy...)
	}
	return c
}

// EventKind names a proposal state transition.
type EventKind string

const (
	EventSubmitted EventKind = "submitted"
	EventConfirmed EventKind = "confirmed"
	EventRevoked   EventKind = "revoked"
	EventExecuted  EventKind = "executed"
	EventAmended   EventKind = "amended"
)

// EventKinds lists every kind in lifecycle order.
var EventKinds = []EventKind{EventSubmitted, EventConfirmed, EventRevoked, EventAmended, EventExecuted}

// ParseEventKind validates s as an EventKind.
func ParseEventKind(s string) (EventKind, error) {
	for _, k := range EventKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown event kind %q", s)
}

// Event records one successful state transition.
//
// Target, Value, Payload and Digest are set on submitted and amended events
// only; the other kinds carry just the caller and index.
type Event struct {
	Seq     int64     `json:"seq"`
	Kind    EventKind `json:"kind"`
	Caller  Owner     `json:"caller"`
	Index   uint64    `json:"index"`
	Target  string    `json:"target,omitempty"`
	Value   uint64    `json:"value,omitempty"`
	Payload []byte    `json:"payload,omitempty"`
	Digest  string    `json:"digest,omitempty"`
}

// CarriesContent reports whether the event kind records proposal content.
func (e Event) CarriesContent() bool {
	return e.Kind == EventSubmitted || e.Kind == EventAmended
}

// EncodePayload renders a payload as 0x-prefixed lowercase hex.
// An empty payload renders as "0x".
func EncodePayload(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// DecodePayload parses hex with an optional 0x prefix.
// The empty string and "0x" both decode to an empty payload.
func DecodePayload(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return []byte{}, nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return b, nil
}
