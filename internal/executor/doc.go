// Package executor provides Action Executors for the ledger.
//
// The ledger treats the executor as an external system that may fail or
// re-enter. The implementations here never perform a transfer themselves:
//
//   - Outbox enqueues the action for an external relay (transactional
//     outbox). Pair it with Staged to land the enqueue in the same store
//     transaction as the executed snapshot.
//   - Log records the action with slog and succeeds (dry run).
//
// Every successful call returns a Receipt encoded as canonical JSON.
package executor
