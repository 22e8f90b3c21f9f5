package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/quorum/internal/ir"
	"github.com/roach88/quorum/internal/store"
)

// proposalView is the CLI rendering of a proposal snapshot. Value is a
// decimal string so JSON consumers never lose precision; the payload is hex.
type proposalView struct {
	Index             uint64   `json:"index"`
	Target            string   `json:"target"`
	Value             string   `json:"value"`
	Payload           string   `json:"payload"`
	Executed          bool     `json:"executed"`
	ConfirmationCount int      `json:"confirmation_count"`
	ConfirmedBy       []string `json:"confirmed_by"`
	Threshold         int      `json:"threshold"`
	Digest            string   `json:"digest"`
}

func newProposalView(p ir.ProposalState, threshold int) proposalView {
	by := make([]string, len(p.ConfirmedBy))
	for i, o := range p.ConfirmedBy {
		by[i] = string(o)
	}
	return proposalView{
		Index:             p.Index,
		Target:            p.Target,
		Value:             strconv.FormatUint(p.Value, 10),
		Payload:           ir.EncodePayload(p.Payload),
		Executed:          p.Executed,
		ConfirmationCount: p.ConfirmationCount,
		ConfirmedBy:       by,
		Threshold:         threshold,
		Digest:            p.Digest,
	}
}

func (v proposalView) status() string {
	switch {
	case v.Executed:
		return "executed"
	case v.ConfirmationCount >= v.Threshold:
		return "ready"
	default:
		return "pending"
	}
}

// String renders the text form of show.
func (v proposalView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Proposal #%d (%s)\n", v.Index, v.status())
	fmt.Fprintf(&b, "  target:        %s\n", v.Target)
	fmt.Fprintf(&b, "  value:         %s\n", v.Value)
	fmt.Fprintf(&b, "  payload:       %s\n", v.Payload)
	fmt.Fprintf(&b, "  confirmations: %d/%d", v.ConfirmationCount, v.Threshold)
	if len(v.ConfirmedBy) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(v.ConfirmedBy, ", "))
	}
	fmt.Fprintf(&b, "\n  digest:        %s", v.Digest)
	return b.String()
}

// summary renders one line of list output.
func (v proposalView) summary() string {
	return fmt.Sprintf("#%-4d %-9s %d/%d  %s  value=%s", v.Index, v.status(),
		v.ConfirmationCount, v.Threshold, v.Target, v.Value)
}

// eventView is the CLI rendering of an audit log record.
type eventView struct {
	Seq     int64  `json:"seq"`
	Flow    string `json:"flow"`
	Kind    string `json:"kind"`
	Caller  string `json:"caller"`
	Index   uint64 `json:"index"`
	Target  string `json:"target,omitempty"`
	Value   string `json:"value,omitempty"`
	Payload string `json:"payload,omitempty"`
	Digest  string `json:"digest,omitempty"`
}

func newEventView(rec store.Record) eventView {
	v := eventView{
		Seq:    rec.Seq,
		Flow:   rec.Flow,
		Kind:   string(rec.Kind),
		Caller: string(rec.Caller),
		Index:  rec.Index,
	}
	if rec.CarriesContent() {
		v.Target = rec.Target
		v.Value = strconv.FormatUint(rec.Value, 10)
		v.Payload = ir.EncodePayload(rec.Payload)
		v.Digest = rec.Digest
	}
	return v
}

func (v eventView) String() string {
	line := fmt.Sprintf("[%d] %-9s #%d by %s", v.Seq, v.Kind, v.Index, v.Caller)
	if v.Digest != "" {
		line += fmt.Sprintf("  target=%s value=%s", v.Target, v.Value)
	}
	return line
}
