package index

import (
	"time"

	"docproof/pkg/domain"
)

// SchemaVersion is stamped on new records so future migrations can tell
// record generations apart.
const SchemaVersion = "1.0"

// Record mirrors one ledger registration, enriched with descriptive metadata
// and verification counters. Digest and TxRef are unique across the store;
// VerificationCount never decreases.
type Record struct {
	Digest      domain.Digest
	LedgerRef   string
	FileName    string
	Size        int64
	ContentType string
	SubmittedBy string

	Description   string
	Category      domain.Category
	Tags          []string
	SchemaVersion string

	TxRef    string
	Sequence uint64
	Network  string

	Verified          bool
	VerificationCount int
	LastVerifiedAt    *time.Time

	Status    domain.Status
	CreatedAt time.Time
}

// SortField selects the ordering column for listings.
type SortField string

const (
	SortByCreatedAt         SortField = "createdAt"
	SortBySize              SortField = "size"
	SortByVerificationCount SortField = "verificationCount"
	SortByFileName          SortField = "fileName"
)

var validSortFields = map[SortField]bool{
	SortByCreatedAt:         true,
	SortBySize:              true,
	SortByVerificationCount: true,
	SortByFileName:          true,
}

// IsValid checks if the sort field is supported.
func (f SortField) IsValid() bool {
	return validSortFields[f]
}

// Filter narrows listings. Nil/empty fields match everything; SubmittedBy is
// a case-insensitive substring match.
type Filter struct {
	Category    *domain.Category
	Verified    *bool
	SubmittedBy string
}

// Sort orders listings. A zero value means newest first.
type Sort struct {
	Field      SortField
	Descending bool
}

// Page bounds listings.
type Page struct {
	Offset int
	Limit  int
}

// CategoryCount is one by-category statistics bucket.
type CategoryCount struct {
	Category domain.Category
	Count    int
}

// StatusCount is one by-status statistics bucket.
type StatusCount struct {
	Status domain.Status
	Count  int
}

// RecordSummary is the trimmed shape used in the recent-documents view.
type RecordSummary struct {
	Digest      domain.Digest
	FileName    string
	SubmittedBy string
	Verified    bool
	CreatedAt   time.Time
}

// Statistics is the aggregate view over the whole index, computed fresh on
// every call.
type Statistics struct {
	TotalDocuments     int
	VerifiedDocuments  int
	TotalVerifications int
	ByCategory         []CategoryCount
	ByStatus           []StatusCount
	Recent             []RecordSummary
}
