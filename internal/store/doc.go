// Package store provides SQLite-backed durable storage for a quorum wallet.
//
// The database holds:
//   - Wallet: the single owner set and threshold the ledger is governed by
//   - Proposals: the latest snapshot of every proposal, by index
//   - Confirmations: the active confirmer set of every proposal
//   - Events: the append-only audit log, one row per emitted ledger event
//   - Outbox: actions of executed proposals waiting for an external relay
//
// # Critical Patterns
//
// Logical time:
//   - Events are ordered by seq (the ledger's logical clock), NEVER timestamps
//   - seq is the events primary key, so a stale writer fails to commit
//
// Atomic commits:
//   - Commit writes snapshots, confirmations, events and outbox rows in one
//     transaction; a CLI invocation either lands completely or not at all
//
// Deterministic reads:
//   - Proposals ORDER BY idx, events ORDER BY seq, confirmers ORDER BY ord
//
// Idempotent outbox:
//   - outbox.idx is the primary key and inserts use ON CONFLICT DO NOTHING,
//     so an action is enqueued at most once per proposal
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - _txlock=immediate: Writers take the lock when the transaction begins
package store
