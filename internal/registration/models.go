package registration

import (
	"docproof/internal/index"
	"docproof/internal/ledger"
	"docproof/pkg/domain"
)

// Input describes one registration attempt. Field bounds (description,
// tags, submitter length) are enforced by the validation layer in front of
// the coordinator.
type Input struct {
	Content     []byte
	FileName    string
	ContentType string
	SubmittedBy string
	Description string
	Category    domain.Category
	Tags        []string

	// RetryAfterTimeout marks a resubmission following a
	// confirmation_timeout or ledger_unavailable outcome. The coordinator
	// then probes ledger existence before submitting again, because the
	// earlier attempt may have landed.
	RetryAfterTimeout bool
}

// Outcome is the terminal state of a registration attempt that did not fail.
type Outcome string

const (
	// OutcomeRegistered: the ledger confirmed the submission and the local
	// index mirrors it.
	OutcomeRegistered Outcome = "registered"

	// OutcomeAlreadyRegistered: a record for the digest already exists,
	// detected locally, by the ledger's atomic check, or by the retry probe.
	// The existing record rides along; this is not an error.
	OutcomeAlreadyRegistered Outcome = "already_registered"
)

// Result reports a terminal registration outcome.
type Result struct {
	Outcome Outcome
	Digest  domain.Digest

	// Record is the local index record: the freshly persisted one for
	// OutcomeRegistered, the pre-existing or healed one for
	// OutcomeAlreadyRegistered. Nil only when the duplicate is known solely
	// from the ledger and could not be observed.
	Record *index.Record

	// Ledger carries the confirmed submission for OutcomeRegistered.
	Ledger *ledger.RegisterResult

	// LedgerObservation carries the ledger's existing record when the
	// duplicate was detected ledger-side.
	LedgerObservation *ledger.Record
}
