// Package ledger implements the proposal lifecycle and quorum enforcement.
//
// The ledger is an append-only arena of proposals addressed by insertion
// index. Owners submit proposals, confirm and revoke their approvals,
// amend unexecuted proposals and finally execute a proposal once its active
// confirmations reach the registry threshold.
//
// CONCURRENCY:
//
// Every public operation is atomic. The arena itself is guarded by a
// read/write lock that is held for writing only while a proposal is
// appended. Each proposal carries its own mutex, so operations on the same
// index serialize while operations on different indices proceed
// independently.
//
// EXECUTION ORDERING:
//
// Execute checks quorum and flips the executed flag inside the proposal's
// critical section, then releases the lock and calls the Action Executor.
// An executor that re-enters the ledger therefore observes executed == true
// and its nested Execute fails with ALREADY_EXECUTED. A failed action does
// not reopen the proposal: every proposal gets exactly one attempt.
//
// CHECK ORDER:
//
// Preconditions are evaluated in a fixed order so failures are predictable:
//  1. caller is an owner            (UNAUTHORIZED)
//  2. index exists                  (NOT_FOUND)
//  3. proposal is not executed      (ALREADY_EXECUTED)
//  4. operation-specific checks     (ALREADY_CONFIRMED, NOT_CONFIRMED,
//     INVALID_PROPOSAL_DATA, QUORUM_NOT_MET)
//
// EVENTS:
//
// Each successful operation emits exactly one event to the configured Sink,
// stamped with a seq from the ledger's logical clock. Failed operations
// emit nothing. The seq is issued while the affected proposal (or, for
// submissions, the arena) is locked, so per-proposal order matches the
// order of transitions; delivery happens after the lock is released and
// always in seq order. Sinks may query the ledger but must not mutate it.
package ledger
