package ledger

import (
	"context"
	"errors"
	"fmt"

	"docproof/pkg/domainerr"
	"docproof/pkg/platform/sentinel"
)

// Symbolic rejection reasons emitted by the registry contract. The node
// surfaces these verbatim in its error envelope; anything else is treated as
// an infrastructure failure, never as a semantic rejection.
const (
	ReasonInvalidHash     = "InvalidDocumentHash"
	ReasonAlreadyExists   = "DocumentAlreadyExists"
	ReasonMetadataTooLong = "MetadataTooLong"
	ReasonNotFound        = "DocumentNotFound"
)

// translateReason maps a contract rejection reason to the domain taxonomy.
func translateReason(reason string) error {
	switch reason {
	case ReasonInvalidHash:
		return domainerr.New(domainerr.CodeLedgerRejected, "ledger rejected document hash")
	case ReasonAlreadyExists:
		return domainerr.Wrap(domainerr.CodeDuplicate, "document already registered on ledger", sentinel.ErrConflict)
	case ReasonMetadataTooLong:
		return domainerr.New(domainerr.CodeLedgerRejected, "metadata exceeds ledger bound")
	case ReasonNotFound:
		return domainerr.Wrap(domainerr.CodeNotFound, "document not found on ledger", sentinel.ErrNotFound)
	default:
		return domainerr.New(domainerr.CodeLedgerRejected, "ledger rejected submission: "+reason)
	}
}

// translateTransport maps node/transport failures. Context expiry during a
// confirmation wait is a distinct condition: the submission may have landed.
func translateTransport(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domainerr.Wrap(domainerr.CodeConfirmationTimeout,
			fmt.Sprintf("%s: confirmation not observed, ledger effect unknown", op),
			sentinel.ErrTimeout)
	}
	return domainerr.Wrap(domainerr.CodeLedgerUnavailable,
		fmt.Sprintf("%s: ledger node unreachable", op),
		fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err))
}
