package index

import (
	"encoding/json"
	"time"

	"docproof/internal/digest"
	"docproof/internal/ledger"
	"docproof/pkg/domain"
)

// FromLedger materializes a local record from a ledger observation. Used when
// healing the orphan window: a registration that was confirmed on the ledger
// but never mirrored locally. The original tx reference is unrecoverable from
// the record, so a digest-derived surrogate keeps the uniqueness invariant;
// descriptive fields are recovered from the metadata envelope when it parses.
func FromLedger(rec ledger.Record, network string, now time.Time) *Record {
	ref := digest.LedgerReference(rec.Digest)
	record := &Record{
		Digest:        rec.Digest,
		LedgerRef:     ref,
		Category:      domain.CategoryOther,
		SchemaVersion: SchemaVersion,
		TxRef:         "recovered:" + ref,
		Network:       network,
		Status:        domain.StatusConfirmed,
		CreatedAt:     now,
	}

	var env ledger.Envelope
	if err := json.Unmarshal([]byte(rec.Metadata), &env); err == nil {
		record.FileName = env.FileName
		record.ContentType = env.ContentType
		record.SubmittedBy = env.SubmittedBy
		record.Description = env.Description
		if env.Category.IsValid() {
			record.Category = env.Category
		}
	}
	if record.SubmittedBy == "" {
		record.SubmittedBy = rec.Owner
	}
	return record
}
