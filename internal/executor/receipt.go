package executor

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/quorum/internal/ir"
)

// Receipt is the executor output for a performed action.
type Receipt struct {
	Index  uint64 `json:"index"`
	Digest string `json:"digest"`
	Status string `json:"status"`
}

// Receipt statuses.
const (
	StatusQueued    = "queued"
	StatusDuplicate = "duplicate"
	StatusDryRun    = "dry_run"
)

func newReceipt(action ir.Action, status string) ([]byte, error) {
	digest, err := ir.ProposalDigest(action.Target, action.Value, action.Payload)
	if err != nil {
		return nil, fmt.Errorf("receipt: %w", err)
	}
	return ir.MarshalCanonical(Receipt{Index: action.Index, Digest: digest, Status: status})
}

// ParseReceipt decodes executor output produced by this package.
func ParseReceipt(data []byte) (Receipt, error) {
	var r Receipt
	if err := json.Unmarshal(data, &r); err != nil {
		return Receipt{}, fmt.Errorf("parse receipt: %w", err)
	}
	return r, nil
}
