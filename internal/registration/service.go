// Package registration coordinates the write path: digest computation, the
// local duplicate fast path, the confirmed ledger submission and the local
// mirror write. The ledger is always written before the index, so a crash in
// between leaves a detectable orphan on the ledger, never a local record
// without ledger backing.
package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docproof/internal/audit"
	"docproof/internal/digest"
	"docproof/internal/index"
	"docproof/internal/ledger"
	"docproof/internal/registration/metrics"
	"docproof/pkg/domain"
	"docproof/pkg/domainerr"
	"docproof/pkg/platform/sentinel"
)

// ExistenceProber answers read-only ledger existence questions, optionally
// through a cache. See internal/cache.
type ExistenceProber interface {
	Exists(ctx context.Context, d domain.Digest) (bool, error)
}

// Config wires the coordinator's collaborators. Ledger and Store are
// required; the rest degrade gracefully when absent.
type Config struct {
	Ledger  ledger.Client
	Store   index.Store
	Prober  ExistenceProber
	Audit   *audit.Publisher
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// Service is the registration coordinator. One invocation per inbound
// request; safe for concurrent use.
type Service struct {
	ledger  ledger.Client
	store   index.Store
	prober  ExistenceProber
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
		prober:  cfg.Prober,
		audit:   cfg.Audit,
		metrics: cfg.Metrics,
		now:     cfg.Now,
	}
}

// Register runs one registration attempt to a terminal state.
//
// Errors: CodeConfirmationTimeout and CodeLedgerUnavailable are retryable;
// the caller must resubmit with RetryAfterTimeout set because the ledger
// effect of the failed attempt is unknown. CodeLedgerRejected is not
// retryable without changing input. Duplicates are not errors: they return
// OutcomeAlreadyRegistered with the existing record.
func (s *Service) Register(ctx context.Context, in Input) (*Result, error) {
	d := digest.Compute(in.Content)

	// Local fast path: a mirrored record means the ledger has it, no ledger
	// call needed. This check is an optimization only; the ledger's atomic
	// duplicate detection below is what correctness rests on.
	existing, err := s.store.GetByDigest(ctx, d)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, domainerr.Wrap(domainerr.CodeInternal, "local duplicate check failed", err)
	}
	if existing != nil {
		s.metrics.IncrementOutcome(string(OutcomeAlreadyRegistered))
		return &Result{Outcome: OutcomeAlreadyRegistered, Digest: d, Record: existing}, nil
	}

	if in.RetryAfterTimeout {
		if result, handled, err := s.recheckBeforeRetry(ctx, d); err != nil {
			return nil, err
		} else if handled {
			return result, nil
		}
	}

	metadata := ledger.EncodeMetadata(ledger.Envelope{
		FileName:    in.FileName,
		ContentType: in.ContentType,
		SubmittedBy: in.SubmittedBy,
		SubmittedAt: s.now().UTC(),
		Description: in.Description,
		Category:    in.Category,
	})

	start := s.now()
	submitted, err := s.ledger.Register(ctx, d, metadata)
	s.metrics.ObserveSubmitLatency(s.now().Sub(start))
	if err != nil {
		return s.handleLedgerError(ctx, d, err)
	}

	record := &index.Record{
		Digest:            d,
		LedgerRef:         digest.LedgerReference(d),
		FileName:          in.FileName,
		Size:              int64(len(in.Content)),
		ContentType:       in.ContentType,
		SubmittedBy:       in.SubmittedBy,
		Description:       in.Description,
		Category:          in.Category,
		Tags:              in.Tags,
		SchemaVersion:     index.SchemaVersion,
		TxRef:             submitted.TxRef,
		Sequence:          submitted.Sequence,
		Network:           submitted.Network,
		Verified:          false,
		VerificationCount: 0,
		Status:            domain.StatusConfirmed,
		CreatedAt:         s.now(),
	}

	if err := s.store.Put(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// A concurrent self-heal materialized the record between our
			// ledger confirmation and this write. The ledger accepted our
			// submission, so the registration stands; serve the stored row.
			stored, getErr := s.store.GetByDigest(ctx, d)
			if getErr == nil {
				s.emit(ctx, d, in.SubmittedBy, string(OutcomeRegistered), submitted.TxRef)
				s.metrics.IncrementOutcome(string(OutcomeRegistered))
				return &Result{Outcome: OutcomeRegistered, Digest: d, Record: stored, Ledger: &submitted}, nil
			}
		}
		// Orphan window realized: the ledger holds the record, the index does
		// not. The reconciliation sweep will materialize it.
		return nil, domainerr.Wrap(domainerr.CodeInternal,
			fmt.Sprintf("registered on ledger (tx %s) but local index write failed; reconciliation required", submitted.TxRef),
			err)
	}

	s.emit(ctx, d, in.SubmittedBy, string(OutcomeRegistered), submitted.TxRef)
	s.metrics.IncrementOutcome(string(OutcomeRegistered))
	return &Result{Outcome: OutcomeRegistered, Digest: d, Record: record, Ledger: &submitted}, nil
}

// recheckBeforeRetry guards resubmissions: the earlier attempt's ledger
// effect is unknown, so probe existence before risking a second conflicting
// submission. When the earlier submission landed, heal the local mirror from
// the ledger record and report the duplicate.
func (s *Service) recheckBeforeRetry(ctx context.Context, d domain.Digest) (*Result, bool, error) {
	exists, err := s.probeExists(ctx, d)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, nil
	}

	observed, err := s.ledger.Fetch(ctx, d)
	if err != nil {
		return nil, false, err
	}
	healed := index.FromLedger(observed, s.ledger.Network(), s.now())
	if err := s.store.Put(ctx, healed); err != nil && !errors.Is(err, sentinel.ErrConflict) {
		return nil, false, domainerr.Wrap(domainerr.CodeInternal, "failed to heal local record", err)
	}
	record, err := s.store.GetByDigest(ctx, d)
	if err != nil {
		record = healed
	}
	s.metrics.IncrementOutcome(string(OutcomeAlreadyRegistered))
	return &Result{
		Outcome:           OutcomeAlreadyRegistered,
		Digest:            d,
		Record:            record,
		LedgerObservation: &observed,
	}, true, nil
}

func (s *Service) probeExists(ctx context.Context, d domain.Digest) (bool, error) {
	if s.prober != nil {
		return s.prober.Exists(ctx, d)
	}
	return s.ledger.ExistsView(ctx, d)
}

// handleLedgerError folds the ledger's duplicate rejection into the
// structured already-registered outcome; everything else propagates with its
// code intact.
func (s *Service) handleLedgerError(ctx context.Context, d domain.Digest, err error) (*Result, error) {
	if domainerr.HasCode(err, domainerr.CodeDuplicate) {
		result := &Result{Outcome: OutcomeAlreadyRegistered, Digest: d}
		if observed, fetchErr := s.ledger.Fetch(ctx, d); fetchErr == nil {
			result.LedgerObservation = &observed
		}
		// A concurrent winner may have mirrored its record by now.
		if record, getErr := s.store.GetByDigest(ctx, d); getErr == nil {
			result.Record = record
		}
		s.metrics.IncrementOutcome(string(OutcomeAlreadyRegistered))
		return result, nil
	}
	s.metrics.IncrementOutcome(string(domainerr.CodeOf(err)))
	return nil, err
}

func (s *Service) emit(ctx context.Context, d domain.Digest, submitter, outcome, txRef string) {
	_ = s.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionRegistered,
		Digest:    d,
		Submitter: submitter,
		Outcome:   outcome,
		TxRef:     txRef,
	})
}
