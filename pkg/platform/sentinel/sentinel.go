package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and ledger adapters return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist in the store or on the ledger
// - ErrConflict: a record for the same key already exists
// - ErrUnavailable: backing service temporarily unreachable
// - ErrTimeout: operation submitted but confirmation not observed in time
//
// For validation errors (bad input, malformed digests), use pkg/domainerr.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
	ErrTimeout     = errors.New("timeout")
)
