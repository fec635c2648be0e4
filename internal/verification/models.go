package verification

import (
	"docproof/internal/index"
	"docproof/internal/ledger"
	"docproof/pkg/domain"
)

// Input carries either raw content or an asserted digest. When both are set,
// the content wins; an asserted digest must be 64 lowercase hex characters.
type Input struct {
	Content        []byte
	AssertedDigest string
}

// Result reports a verification to the caller. Three shapes occur:
//
//   - never registered:      Registered=false, Verified=false
//   - verified:              Registered=true, Verified=true, counters bumped
//   - divergence:            Registered=true, Verified=false, Diverged=true;
//     the index knows the digest but the ledger did not confirm it. Callers
//     should trigger reconciliation rather than trusting either side.
type Result struct {
	Verified   bool
	Registered bool
	Diverged   bool
	Digest     domain.Digest

	// Record is the local record including descriptive metadata and the
	// post-verification counters. Nil when never registered.
	Record *index.Record

	// Ledger carries the ledger's observation when a ledger call was made.
	Ledger *ledger.VerifyResult

	// Healed marks a record that was materialized from the ledger during
	// this verification (orphan-window self-repair).
	Healed bool
}

// Metric outcome labels.
const (
	outcomeVerified      = "verified"
	outcomeNotRegistered = "not_registered"
	outcomeDiverged      = "diverged"
)
