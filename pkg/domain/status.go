package domain

// Status tracks a local record's registration lifecycle. Records are only
// written after ledger confirmation, so confirmed is the common case; pending
// and failed exist for administrative tooling and reconciliation reports.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

func (s Status) String() string {
	return string(s)
}
