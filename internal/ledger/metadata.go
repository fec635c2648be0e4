package ledger

import (
	"encoding/json"
	"time"

	"docproof/pkg/domain"
)

// MaxMetadataBytes is the contract's bound on the metadata string.
const MaxMetadataBytes = 256

const truncationMarker = "..."

// Envelope is the descriptive payload stored with a ledger record. It is
// serialized to JSON and truncated client-side; the contract enforces the
// bound regardless.
type Envelope struct {
	FileName    string          `json:"fileName,omitempty"`
	ContentType string          `json:"fileType,omitempty"`
	SubmittedBy string          `json:"uploadedBy,omitempty"`
	SubmittedAt time.Time       `json:"uploadedAt"`
	Description string          `json:"description,omitempty"`
	Category    domain.Category `json:"category,omitempty"`
}

// EncodeMetadata serializes the envelope and truncates it to the contract
// bound. Truncation keeps the first MaxMetadataBytes-3 bytes and appends the
// marker, so oversized metadata is shortened rather than rejected.
func EncodeMetadata(env Envelope) string {
	raw, err := json.Marshal(env)
	if err != nil {
		// Envelope fields are plain strings; marshal cannot fail in practice.
		return ""
	}
	return Truncate(string(raw))
}

// Truncate applies the client-side truncation policy to an arbitrary
// metadata string.
func Truncate(s string) string {
	if len(s) <= MaxMetadataBytes {
		return s
	}
	return s[:MaxMetadataBytes-len(truncationMarker)] + truncationMarker
}
