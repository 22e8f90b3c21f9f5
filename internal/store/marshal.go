package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/roach88/quorum/internal/ir"
)

// marshalOwners converts the owner list to canonical JSON TEXT for storage.
// Order is preserved; it is the registry construction order.
func marshalOwners(owners []ir.Owner) (string, error) {
	names := make([]string, len(owners))
	for i, o := range owners {
		names[i] = string(o)
	}
	data, err := ir.MarshalCanonical(names)
	if err != nil {
		return "", fmt.Errorf("marshal owners: %w", err)
	}
	return string(data), nil
}

// unmarshalOwners parses the stored owner list.
func unmarshalOwners(data string) ([]ir.Owner, error) {
	var names []string
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, fmt.Errorf("unmarshal owners: %w", err)
	}
	owners := make([]ir.Owner, len(names))
	for i, n := range names {
		owners[i] = ir.Owner(n)
	}
	return owners, nil
}

// formatValue stores a uint64 as decimal TEXT.
// go-sqlite3 rejects uint64 values with the high bit set, and SQLite INTEGER
// is signed, so the full range only round-trips as text.
func formatValue(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func parseValue(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse value %q: %w", s, err)
	}
	return v, nil
}

// boolToInt maps the executed flag to its INTEGER column.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nonNilPayload guarantees a non-NULL BLOB for NOT NULL columns.
func nonNilPayload(p []byte) []byte {
	if p == nil {
		return []byte{}
	}
	return p
}

// eventContent returns the nullable content columns of ev.
// Only submitted and amended events carry content; the rest store NULL.
func eventContent(ev ir.Event) (target, value, payload, digest any) {
	if !ev.CarriesContent() {
		return nil, nil, nil, nil
	}
	return ev.Target, formatValue(ev.Value), nonNilPayload(ev.Payload), ev.Digest
}

// scanEventContent fills ev's content fields from nullable columns.
func scanEventContent(ev *ir.Event, target, value, digest sql.NullString, payload []byte) error {
	if target.Valid {
		ev.Target = target.String
	}
	if value.Valid {
		v, err := parseValue(value.String)
		if err != nil {
			return err
		}
		ev.Value = v
	}
	if digest.Valid {
		ev.Digest = digest.String
	}
	if payload != nil {
		ev.Payload = payload
	}
	return nil
}
