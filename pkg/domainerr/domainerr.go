package domainerr

import (
	"errors"
	"net/http"
)

// Code classifies a domain failure so transport layers and callers can react
// without string matching. Codes answer three questions: which layer rejected,
// whether a retry is safe, and whether the ledger-side effect is known.
type Code string

const (
	// CodeInvalidInput marks malformed caller input (bad digest format,
	// oversized fields). Rejected before any store access; resubmit corrected.
	CodeInvalidInput Code = "invalid_input"

	// CodeDuplicate marks a digest that is already registered, locally or on
	// the ledger. Carried as a structured result, never a bare failure.
	CodeDuplicate Code = "duplicate_document"

	// CodeNotFound marks a lookup that resolved to nothing. A normal result.
	CodeNotFound Code = "not_found"

	// CodeLedgerRejected marks a semantic ledger rejection other than
	// duplicate. Not retryable without changing input.
	CodeLedgerRejected Code = "ledger_rejected"

	// CodeLedgerUnavailable marks a transport-level ledger failure. Retryable;
	// the ledger-side effect of the attempt is unknown.
	CodeLedgerUnavailable Code = "ledger_unavailable"

	// CodeConfirmationTimeout marks a submission whose confirmation was not
	// observed in time. Retryable, but the submission may have landed; callers
	// must re-check existence before resubmitting.
	CodeConfirmationTimeout Code = "confirmation_timeout"

	// CodeDiverged marks a digest the local index knows but the ledger does
	// not confirm. Distinct from not_found so callers can reconcile.
	CodeDiverged Code = "diverged"

	// CodeInternal marks unexpected failures.
	CodeInternal Code = "internal"
)

// Error is the coded error carried across service boundaries.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap constructs a coded error around an underlying cause.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the code from an error chain, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether the error chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Retryable reports whether resubmitting the same input may succeed.
func Retryable(err error) bool {
	switch CodeOf(err) {
	case CodeLedgerUnavailable, CodeConfirmationTimeout:
		return true
	}
	return false
}

// ToHTTPStatus maps a code to the status the transport layer should emit.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeDuplicate:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeLedgerRejected:
		return http.StatusUnprocessableEntity
	case CodeLedgerUnavailable, CodeConfirmationTimeout:
		return http.StatusServiceUnavailable
	case CodeDiverged:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
