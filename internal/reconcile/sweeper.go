// Package reconcile repairs the orphan window in bulk: records that landed on
// the ledger but never reached the local index are materialized from the
// ledger's authoritative copy. The sweep is idempotent and safe to run
// concurrently with live registrations.
package reconcile

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"docproof/internal/audit"
	"docproof/internal/index"
	"docproof/internal/ledger"
	"docproof/pkg/domain"
	"docproof/pkg/domainerr"
	"docproof/pkg/platform/sentinel"
)

const (
	defaultPageSize    = 100
	defaultConcurrency = 4
)

// Config wires the sweeper. Ledger and Store are required.
type Config struct {
	Ledger      ledger.Client
	Store       index.Store
	Audit       *audit.Publisher
	Log         *log.Logger
	PageSize    int
	Concurrency int
	Now         func() time.Time
}

// Summary reports one sweep pass.
type Summary struct {
	Scanned int64
	Missing int64
	Healed  int64
	Failed  int64
}

type Sweeper struct {
	ledger      ledger.Client
	store       index.Store
	audit       *audit.Publisher
	log         *log.Logger
	pageSize    int
	concurrency int
	now         func() time.Time
}

func NewSweeper(cfg Config) *Sweeper {
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Log == nil {
		cfg.Log = log.Default()
	}
	return &Sweeper{
		ledger:      cfg.Ledger,
		store:       cfg.Store,
		audit:       cfg.Audit,
		log:         cfg.Log,
		pageSize:    cfg.PageSize,
		concurrency: cfg.Concurrency,
		now:         cfg.Now,
	}
}

// Sweep walks the whole ledger page by page and heals every record the local
// index is missing. Page fetches run in parallel; a ledger failure aborts the
// sweep, a single record's heal failure is counted and skipped.
func (s *Sweeper) Sweep(ctx context.Context) (Summary, error) {
	total, err := s.ledger.TotalCount(ctx)
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for offset := 0; offset < total; offset += s.pageSize {
		offset := offset
		g.Go(func() error {
			return s.sweepPage(ctx, offset, &summary)
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (s *Sweeper) sweepPage(ctx context.Context, offset int, summary *Summary) error {
	digests, err := s.ledger.ListAll(ctx, offset, s.pageSize)
	if err != nil {
		return err
	}
	for _, d := range digests {
		atomic.AddInt64(&summary.Scanned, 1)

		_, err := s.store.GetByDigest(ctx, d)
		if err == nil {
			continue
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			atomic.AddInt64(&summary.Failed, 1)
			s.log.Printf("reconcile: lookup failed for %s: %v", d.Short(), err)
			continue
		}

		atomic.AddInt64(&summary.Missing, 1)
		if err := s.heal(ctx, d); err != nil {
			atomic.AddInt64(&summary.Failed, 1)
			s.log.Printf("reconcile: heal failed for %s: %v", d.Short(), err)
			continue
		}
		atomic.AddInt64(&summary.Healed, 1)
	}
	return nil
}

func (s *Sweeper) heal(ctx context.Context, d domain.Digest) error {
	observed, err := s.ledger.Fetch(ctx, d)
	if err != nil {
		return err
	}
	record := index.FromLedger(observed, s.ledger.Network(), s.now())
	if err := s.store.Put(ctx, record); err != nil {
		// A concurrent verification or registration won the heal. Fine.
		if errors.Is(err, sentinel.ErrConflict) {
			return nil
		}
		return domainerr.Wrap(domainerr.CodeInternal, "reconcile write failed", err)
	}
	_ = s.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionReconciled,
		Digest:    d,
		Submitter: record.SubmittedBy,
		Outcome:   "healed",
		TxRef:     record.TxRef,
	})
	return nil
}
