// Package verification coordinates the read path: digest resolution, local
// lookup, ledger re-assertion and counter updates. The local index answers
// "not registered" on its own; a ledger probe on local misses catches records
// that fell into the orphan window and repairs them in place.
package verification

import (
	"context"
	"errors"
	"time"

	"docproof/internal/audit"
	"docproof/internal/digest"
	"docproof/internal/index"
	"docproof/internal/ledger"
	"docproof/internal/verification/metrics"
	"docproof/pkg/domain"
	"docproof/pkg/domainerr"
	"docproof/pkg/platform/sentinel"
)

// Config wires the coordinator's collaborators. Ledger and Store are
// required; the rest degrade gracefully when absent.
type Config struct {
	Ledger  ledger.Client
	Store   index.Store
	Audit   *audit.Publisher
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// Service is the verification coordinator. Safe for concurrent use; the
// store serializes counter updates per digest.
type Service struct {
	ledger  ledger.Client
	store   index.Store
	audit   *audit.Publisher
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(cfg Config) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		ledger:  cfg.Ledger,
		store:   cfg.Store,
		audit:   cfg.Audit,
		metrics: cfg.Metrics,
		now:     cfg.Now,
	}
}

// Verify resolves the digest and reconciles the local record against the
// ledger's answer.
//
// Errors: CodeInvalidInput for a malformed asserted digest; retryable ledger
// codes propagate from the Verify call. "Never registered" and "diverged"
// are results, not errors.
func (s *Service) Verify(ctx context.Context, in Input) (*Result, error) {
	d, err := s.resolveDigest(in)
	if err != nil {
		return nil, err
	}

	record, err := s.store.GetByDigest(ctx, d)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerr.Wrap(domainerr.CodeInternal, "local lookup failed", err)
		}
		return s.verifyUnindexed(ctx, d)
	}
	return s.verifyIndexed(ctx, d, record, false)
}

// verifyUnindexed handles a digest the local index does not know. The free
// existence probe distinguishes "never registered" from the orphan window;
// orphans are healed and then verified like any indexed record.
func (s *Service) verifyUnindexed(ctx context.Context, d domain.Digest) (*Result, error) {
	exists, err := s.ledger.ExistsView(ctx, d)
	if err != nil {
		return nil, err
	}
	if !exists {
		s.metrics.IncrementOutcome(outcomeNotRegistered)
		return &Result{Digest: d}, nil
	}

	observed, err := s.ledger.Fetch(ctx, d)
	if err != nil {
		return nil, err
	}
	healed := index.FromLedger(observed, s.ledger.Network(), s.now())
	if err := s.store.Put(ctx, healed); err != nil && !errors.Is(err, sentinel.ErrConflict) {
		return nil, domainerr.Wrap(domainerr.CodeInternal, "failed to heal local record", err)
	}
	record, err := s.store.GetByDigest(ctx, d)
	if err != nil {
		return nil, domainerr.Wrap(domainerr.CodeInternal, "healed record unreadable", err)
	}
	return s.verifyIndexed(ctx, d, record, true)
}

func (s *Service) verifyIndexed(ctx context.Context, d domain.Digest, record *index.Record, healed bool) (*Result, error) {
	start := s.now()
	observed, err := s.ledger.Verify(ctx, d)
	s.metrics.ObserveVerifyLatency(s.now().Sub(start))
	if err != nil {
		s.metrics.IncrementOutcome(string(domainerr.CodeOf(err)))
		return nil, err
	}

	if !observed.Existed {
		// The index claims the digest, the ledger denies it. Since ledger
		// records cannot be deleted, the local record is wrong or the node is
		// answering for a different chain; either way, surface it loudly.
		s.metrics.IncrementOutcome(outcomeDiverged)
		s.emit(ctx, d, record.SubmittedBy, outcomeDiverged, "")
		return &Result{
			Registered: true,
			Diverged:   true,
			Digest:     d,
			Record:     record,
			Ledger:     &observed,
			Healed:     healed,
		}, nil
	}

	updated, err := s.store.IncrementVerification(ctx, d, s.now().UTC())
	if err != nil {
		return nil, domainerr.Wrap(domainerr.CodeInternal, "verification counter update failed", err)
	}

	s.metrics.IncrementOutcome(outcomeVerified)
	s.emit(ctx, d, updated.SubmittedBy, outcomeVerified, observed.TxRef)
	return &Result{
		Verified:   true,
		Registered: true,
		Digest:     d,
		Record:     updated,
		Ledger:     &observed,
		Healed:     healed,
	}, nil
}

func (s *Service) resolveDigest(in Input) (domain.Digest, error) {
	if len(in.Content) > 0 {
		return digest.Compute(in.Content), nil
	}
	if in.AssertedDigest == "" {
		return "", domainerr.New(domainerr.CodeInvalidInput, "either content or a digest must be provided")
	}
	return domain.ParseDigest(in.AssertedDigest)
}

func (s *Service) emit(ctx context.Context, d domain.Digest, submitter, outcome, txRef string) {
	_ = s.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionVerified,
		Digest:    d,
		Submitter: submitter,
		Outcome:   outcome,
		TxRef:     txRef,
	})
}
