// Package ledger provides typed access to the document-registry contract on
// the append-only ledger. The ledger is the source of truth: records are
// created exactly once, never mutated, never deleted. All write paths block
// until the submission is confirmed per the node's finality policy.
package ledger

import (
	"context"
	"time"

	"docproof/pkg/domain"
)

// Record is the ledger's authoritative record for one digest.
type Record struct {
	Digest       domain.Digest
	Owner        string
	RegisteredAt time.Time
	Metadata     string
	// Exists is false only for digests that were never registered; ledger
	// records cannot be deleted.
	Exists bool
}

// RegisterResult reports a confirmed registration submission.
type RegisterResult struct {
	TxRef    string
	Sequence uint64
	Network  string
}

// VerifyResult reports a confirmed verification event. A digest that was
// never registered yields Existed=false with a nil Record; that outcome is
// expected and non-exceptional.
type VerifyResult struct {
	Existed bool
	Record  *Record
	TxRef   string
}

// Client is the only access path to the registry contract. Implementations
// translate the ledger's symbolic rejection reasons into pkg/domainerr codes
// and never conflate transport failures with semantic rejection.
//
// Register and Verify are ledger writes awaited to confirmation; Verify
// recording an on-ledger event per check mirrors the deployed contract, with
// ExistsView offered as the free read-only alternative.
type Client interface {
	// Register submits the digest with its metadata envelope and blocks until
	// the submission is confirmed.
	//
	// Errors: CodeLedgerRejected for an all-zero digest or oversized metadata,
	// CodeDuplicate when a record already exists (the ledger's atomic
	// check-then-act, not the client's), CodeConfirmationTimeout when the
	// submission may have landed but confirmation was not observed,
	// CodeLedgerUnavailable for transport failures.
	Register(ctx context.Context, d domain.Digest, metadata string) (RegisterResult, error)

	// Verify records a verification event against the digest and reports
	// whether a record existed at call time.
	Verify(ctx context.Context, d domain.Digest) (VerifyResult, error)

	// Fetch returns the record for a digest. Errors with CodeNotFound when
	// the digest was never registered.
	Fetch(ctx context.Context, d domain.Digest) (Record, error)

	// ExistsView is a read-only existence probe with no confirmation wait.
	// Safe to call freely.
	ExistsView(ctx context.Context, d domain.Digest) (bool, error)

	// ListAll returns at most limit digests in registration order starting at
	// offset; fewer when the remainder is shorter, empty when offset is past
	// the end.
	ListAll(ctx context.Context, offset, limit int) ([]domain.Digest, error)

	// TotalCount returns the number of records on the ledger.
	TotalCount(ctx context.Context) (int, error)

	// ListByOwner returns the digests registered by owner, in registration
	// order.
	ListByOwner(ctx context.Context, owner string) ([]domain.Digest, error)

	// CountByOwner returns the size of the owner's digest list.
	CountByOwner(ctx context.Context, owner string) (int, error)

	// Network identifies the chain the client is bound to.
	Network() string
}
