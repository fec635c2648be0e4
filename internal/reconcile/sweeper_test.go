package reconcile

import (
	"context"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"docproof/internal/audit"
	"docproof/internal/digest"
	"docproof/internal/index"
	"docproof/internal/ledger"
	"docproof/pkg/domain"
)

type SweeperSuite struct {
	suite.Suite
	chain *ledger.Memory
	store *index.InMemoryStore
	sink  *audit.InMemoryStore
}

func (s *SweeperSuite) SetupTest() {
	s.chain = ledger.NewMemory(ledger.MemoryConfig{})
	s.store = index.NewInMemoryStore()
	s.sink = audit.NewInMemoryStore()
}

func TestSweeperSuite(t *testing.T) {
	suite.Run(t, new(SweeperSuite))
}

func (s *SweeperSuite) sweeper(pageSize int) *Sweeper {
	return NewSweeper(Config{
		Ledger:   s.chain,
		Store:    s.store,
		Audit:    audit.NewPublisher(s.sink),
		Log:      log.New(io.Discard, "", 0),
		PageSize: pageSize,
	})
}

// seed registers n documents on the ledger and mirrors only the first
// mirrored of them locally, leaving the rest orphaned.
func (s *SweeperSuite) seed(n, mirrored int) []domain.Digest {
	digests := make([]domain.Digest, n)
	for i := 0; i < n; i++ {
		d := digest.Compute([]byte(fmt.Sprintf("doc-%d", i)))
		metadata := ledger.EncodeMetadata(ledger.Envelope{
			FileName:    fmt.Sprintf("doc-%d.pdf", i),
			SubmittedBy: "alice",
			SubmittedAt: time.Now().UTC(),
			Category:    domain.CategoryLegal,
		})
		submitted, err := s.chain.Register(context.Background(), d, metadata)
		s.Require().NoError(err)
		digests[i] = d

		if i < mirrored {
			s.Require().NoError(s.store.Put(context.Background(), &index.Record{
				Digest:        d,
				SchemaVersion: index.SchemaVersion,
				TxRef:         submitted.TxRef,
				Sequence:      submitted.Sequence,
				Network:       submitted.Network,
				Status:        domain.StatusConfirmed,
				CreatedAt:     time.Now(),
			}))
		}
	}
	return digests
}

func (s *SweeperSuite) TestHealsMissingRecords() {
	digests := s.seed(5, 3)

	summary, err := s.sweeper(0).Sweep(context.Background())
	s.Require().NoError(err)
	s.Equal(int64(5), summary.Scanned)
	s.Equal(int64(2), summary.Missing)
	s.Equal(int64(2), summary.Healed)
	s.Zero(summary.Failed)

	for _, d := range digests {
		record, err := s.store.GetByDigest(context.Background(), d)
		s.Require().NoError(err, "digest %s", d)
		s.Equal(domain.StatusConfirmed, record.Status)
	}

	// Healed records carry the descriptive fields recovered from the
	// ledger metadata envelope.
	healed, err := s.store.GetByDigest(context.Background(), digests[4])
	s.Require().NoError(err)
	s.Equal("doc-4.pdf", healed.FileName)
	s.Equal("alice", healed.SubmittedBy)

	events := s.sink.Events()
	s.Require().Len(events, 2)
	for _, e := range events {
		s.Equal(audit.ActionReconciled, e.Action)
		s.Equal("healed", e.Outcome)
	}
}

func (s *SweeperSuite) TestIdempotent() {
	s.seed(4, 0)

	first, err := s.sweeper(0).Sweep(context.Background())
	s.Require().NoError(err)
	s.Equal(int64(4), first.Healed)

	second, err := s.sweeper(0).Sweep(context.Background())
	s.Require().NoError(err)
	s.Equal(int64(4), second.Scanned)
	s.Zero(second.Missing)
	s.Zero(second.Healed)
}

func (s *SweeperSuite) TestSmallPagesCoverWholeLedger() {
	s.seed(7, 2)

	summary, err := s.sweeper(2).Sweep(context.Background())
	s.Require().NoError(err)
	s.Equal(int64(7), summary.Scanned)
	s.Equal(int64(5), summary.Healed)
}

func (s *SweeperSuite) TestEmptyLedger() {
	summary, err := s.sweeper(0).Sweep(context.Background())
	s.Require().NoError(err)
	s.Zero(summary.Scanned)
}
