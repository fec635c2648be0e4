package audit

import (
	"time"

	"docproof/pkg/domain"
)

// Actions recorded by the coordinators.
const (
	ActionRegistered = "document.registered"
	ActionVerified   = "document.verified"
	ActionReconciled = "document.reconciled"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string
	Timestamp time.Time
	Action    string
	Digest    domain.Digest
	Submitter string
	Outcome   string
	TxRef     string
	Detail    string
}
