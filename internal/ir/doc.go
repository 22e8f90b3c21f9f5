// Package ir provides the shared record types for quorum.
//
// This package contains type definitions and their canonical encoding only.
// All other internal packages import ir; ir imports nothing internal. This
// keeps the record layer at the bottom of the dependency graph.
//
// Key design constraints:
//   - Values are uint64 and are encoded as decimal strings in canonical
//     JSON, never as JSON numbers (no float round-tripping).
//   - Payloads are opaque bytes, hex-encoded wherever they appear as text.
//   - Events are ordered by a logical seq, never by wall-clock timestamps.
//   - All JSON tags use snake_case.
package ir
