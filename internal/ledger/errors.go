package ledger

import (
	"errors"
	"fmt"

	"github.com/roach88/quorum/internal/ir"
)

// ErrorCode categorizes ledger errors.
type ErrorCode string

const (
	// ErrCodeUnauthorized indicates the caller is not an owner.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// ErrCodeNotFound indicates the index does not reference a proposal.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeAlreadyExecuted indicates the proposal has been consumed.
	ErrCodeAlreadyExecuted ErrorCode = "ALREADY_EXECUTED"

	// ErrCodeAlreadyConfirmed indicates the caller already holds a confirmation.
	ErrCodeAlreadyConfirmed ErrorCode = "ALREADY_CONFIRMED"

	// ErrCodeNotConfirmed indicates the caller holds no confirmation to revoke.
	ErrCodeNotConfirmed ErrorCode = "NOT_CONFIRMED"

	// ErrCodeInvalidProposalData indicates a zero-value, empty-payload proposal.
	ErrCodeInvalidProposalData ErrorCode = "INVALID_PROPOSAL_DATA"

	// ErrCodeQuorumNotMet indicates too few active confirmations.
	ErrCodeQuorumNotMet ErrorCode = "QUORUM_NOT_MET"

	// ErrCodeExecutionFailed indicates the Action Executor rejected the action.
	// The proposal stays executed.
	ErrCodeExecutionFailed ErrorCode = "EXECUTION_FAILED"
)

// ErrorCodes lists every code in check order.
var ErrorCodes = []ErrorCode{
	ErrCodeUnauthorized,
	ErrCodeNotFound,
	ErrCodeAlreadyExecuted,
	ErrCodeAlreadyConfirmed,
	ErrCodeNotConfirmed,
	ErrCodeInvalidProposalData,
	ErrCodeQuorumNotMet,
	ErrCodeExecutionFailed,
}

// Error is the single error type returned by ledger operations.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Caller is the identity that invoked the operation.
	Caller ir.Owner

	// Index is the proposal index, meaningful when HasIndex is true.
	Index    uint64
	HasIndex bool

	// Err is the underlying cause (the executor error for EXECUTION_FAILED).
	Err error
}

// Sentinels for errors.Is. Only the Code is compared.
var (
	ErrUnauthorized        = &Error{Code: ErrCodeUnauthorized}
	ErrNotFound            = &Error{Code: ErrCodeNotFound}
	ErrAlreadyExecuted     = &Error{Code: ErrCodeAlreadyExecuted}
	ErrAlreadyConfirmed    = &Error{Code: ErrCodeAlreadyConfirmed}
	ErrNotConfirmed        = &Error{Code: ErrCodeNotConfirmed}
	ErrInvalidProposalData = &Error{Code: ErrCodeInvalidProposalData}
	ErrQuorumNotMet        = &Error{Code: ErrCodeQuorumNotMet}
	ErrExecutionFailed     = &Error{Code: ErrCodeExecutionFailed}
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	} else {
		msg = fmt.Sprintf("%s: %s", e.Code, msg)
	}
	if e.HasIndex {
		msg = fmt.Sprintf("%s (index=%d, caller=%q)", msg, e.Index, e.Caller)
	} else if e.Caller != "" {
		msg = fmt.Sprintf("%s (caller=%q)", msg, e.Caller)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// CodeOf returns the ledger code of err, or "" if err is not a ledger error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

// IsAlreadyExecuted returns true if the proposal was already consumed.
func IsAlreadyExecuted(err error) bool {
	return CodeOf(err) == ErrCodeAlreadyExecuted
}

// IsQuorumNotMet returns true if execution was refused for lack of quorum.
func IsQuorumNotMet(err error) bool {
	return CodeOf(err) == ErrCodeQuorumNotMet
}

// IsExecutionFailed returns true if the executor rejected the action.
func IsExecutionFailed(err error) bool {
	return CodeOf(err) == ErrCodeExecutionFailed
}

// ParseErrorCode validates s as an ErrorCode.
func ParseErrorCode(s string) (ErrorCode, error) {
	for _, c := range ErrorCodes {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown error code %q", s)
}

func unauthorized(caller ir.Owner) *Error {
	return &Error{Code: ErrCodeUnauthorized, Message: "caller is not an owner", Caller: caller}
}

func indexError(code ErrorCode, msg string, caller ir.Owner, index uint64) *Error {
	return &Error{Code: code, Message: msg, Caller: caller, Index: index, HasIndex: true}
}
