package index

import (
	"context"
	"time"

	"docproof/pkg/domain"
)

// RecentLimit bounds the recent-documents slice in Statistics.
const RecentLimit = 10

// Store is the local index over ledger-confirmed registrations. It is a
// derived, rebuildable mirror: the ledger stays authoritative, and only the
// two coordinators write here.
//
// Error Contract:
// - Put returns sentinel.ErrConflict (wrapped) when a record already exists
//   for the digest; the store never overwrites on conflict.
// - GetByDigest and IncrementVerification return sentinel.ErrNotFound
//   (wrapped) when no record exists.
// - Infrastructure failures are returned wrapped with context.
type Store interface {
	Put(ctx context.Context, record *Record) error
	GetByDigest(ctx context.Context, d domain.Digest) (*Record, error)
	// List returns the matching page and the total match count.
	List(ctx context.Context, filter Filter, sort Sort, page Page) ([]*Record, int, error)
	// IncrementVerification atomically bumps the counter, marks the record
	// verified and stamps lastVerifiedAt. The time is injected for
	// testability.
	IncrementVerification(ctx context.Context, d domain.Digest, now time.Time) (*Record, error)
	Statistics(ctx context.Context) (*Statistics, error)
}
