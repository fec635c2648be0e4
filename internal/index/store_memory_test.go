package index

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"docproof/internal/digest"
	"docproof/pkg/domain"
	"docproof/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	base  time.Time
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.base = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) record(name string, mutate func(*Record)) *Record {
	d := digest.Compute([]byte(name))
	record := &Record{
		Digest:        d,
		LedgerRef:     digest.LedgerReference(d),
		FileName:      name,
		Size:          int64(len(name)),
		ContentType:   "text/plain",
		SubmittedBy:   "alice",
		Category:      domain.CategoryOther,
		SchemaVersion: SchemaVersion,
		TxRef:         "0xtx-" + name,
		Network:       "31337",
		Status:        domain.StatusConfirmed,
		CreatedAt:     s.base,
	}
	if mutate != nil {
		mutate(record)
	}
	return record
}

func (s *MemoryStoreSuite) TestPutAndGet() {
	ctx := context.Background()

	s.Run("stored record round-trips by digest", func() {
		record := s.record("deed.pdf", nil)
		s.Require().NoError(s.store.Put(ctx, record))

		found, err := s.store.GetByDigest(ctx, record.Digest)
		s.Require().NoError(err)
		s.Equal(record, found)
	})

	s.Run("duplicate digest is refused without overwrite", func() {
		first := s.record("will.pdf", nil)
		s.Require().NoError(s.store.Put(ctx, first))

		second := s.record("will.pdf", func(r *Record) {
			r.TxRef = "0xtx-other"
			r.SubmittedBy = "mallory"
		})
		err := s.store.Put(ctx, second)
		s.Require().ErrorIs(err, sentinel.ErrConflict)

		found, err := s.store.GetByDigest(ctx, first.Digest)
		s.Require().NoError(err)
		s.Equal("alice", found.SubmittedBy)
	})

	s.Run("missing digest returns ErrNotFound", func() {
		_, err := s.store.GetByDigest(ctx, digest.Compute([]byte("missing")))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("mutating a returned record does not leak into the store", func() {
		record := s.record("lease.pdf", func(r *Record) { r.Tags = []string{"rental"} })
		s.Require().NoError(s.store.Put(ctx, record))

		found, err := s.store.GetByDigest(ctx, record.Digest)
		s.Require().NoError(err)
		found.Tags[0] = "tampered"
		found.FileName = "tampered"

		again, err := s.store.GetByDigest(ctx, record.Digest)
		s.Require().NoError(err)
		s.Equal([]string{"rental"}, again.Tags)
		s.Equal("lease.pdf", again.FileName)
	})
}

func (s *MemoryStoreSuite) TestIncrementVerification() {
	ctx := context.Background()
	record := s.record("cert.pdf", nil)
	s.Require().NoError(s.store.Put(ctx, record))

	s.Run("counter is monotonic and metadata is stamped", func() {
		for k := 1; k <= 3; k++ {
			at := s.base.Add(time.Duration(k) * time.Hour)
			updated, err := s.store.IncrementVerification(ctx, record.Digest, at)
			s.Require().NoError(err)
			s.Equal(k, updated.VerificationCount)
			s.True(updated.Verified)
			s.Require().NotNil(updated.LastVerifiedAt)
			s.Equal(at, *updated.LastVerifiedAt)
		}
	})

	s.Run("unknown digest returns ErrNotFound", func() {
		_, err := s.store.IncrementVerification(ctx, digest.Compute([]byte("ghost")), s.base)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestConcurrentVerificationHasNoLostUpdates() {
	ctx := context.Background()
	record := s.record("busy.pdf", nil)
	s.Require().NoError(s.store.Put(ctx, record))

	const workers = 50
	done := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			_, err := s.store.IncrementVerification(ctx, record.Digest, time.Now())
			done <- err
		}()
	}
	for i := 0; i < workers; i++ {
		s.Require().NoError(<-done)
	}

	found, err := s.store.GetByDigest(ctx, record.Digest)
	s.Require().NoError(err)
	s.Equal(workers, found.VerificationCount)
}

func (s *MemoryStoreSuite) TestList() {
	ctx := context.Background()
	legal := domain.CategoryLegal
	for i := 0; i < 5; i++ {
		i := i
		record := s.record(fmt.Sprintf("doc-%d.pdf", i), func(r *Record) {
			r.CreatedAt = s.base.Add(time.Duration(i) * time.Minute)
			r.Size = int64(100 - i)
			if i%2 == 0 {
				r.Category = legal
			}
			if i < 2 {
				r.Verified = true
				r.VerificationCount = i + 1
			}
			if i == 4 {
				r.SubmittedBy = "Bob Carter"
			}
		})
		s.Require().NoError(s.store.Put(ctx, record))
	}

	s.Run("category filter", func() {
		records, total, err := s.store.List(ctx, Filter{Category: &legal}, Sort{}, Page{Limit: 10})
		s.Require().NoError(err)
		s.Equal(3, total)
		s.Len(records, 3)
		for _, record := range records {
			s.Equal(legal, record.Category)
		}
	})

	s.Run("verified filter", func() {
		verified := true
		_, total, err := s.store.List(ctx, Filter{Verified: &verified}, Sort{}, Page{Limit: 10})
		s.Require().NoError(err)
		s.Equal(2, total)
	})

	s.Run("submitter substring filter is case-insensitive", func() {
		records, total, err := s.store.List(ctx, Filter{SubmittedBy: "bob"}, Sort{}, Page{Limit: 10})
		s.Require().NoError(err)
		s.Equal(1, total)
		s.Equal("Bob Carter", records[0].SubmittedBy)
	})

	s.Run("default sort is newest first", func() {
		records, _, err := s.store.List(ctx, Filter{}, Sort{}, Page{Limit: 10})
		s.Require().NoError(err)
		s.Require().Len(records, 5)
		for i := 1; i < len(records); i++ {
			s.False(records[i].CreatedAt.After(records[i-1].CreatedAt))
		}
	})

	s.Run("sort by size ascending", func() {
		records, _, err := s.store.List(ctx, Filter{}, Sort{Field: SortBySize}, Page{Limit: 10})
		s.Require().NoError(err)
		for i := 1; i < len(records); i++ {
			s.LessOrEqual(records[i-1].Size, records[i].Size)
		}
	})

	s.Run("pagination returns page plus total", func() {
		records, total, err := s.store.List(ctx, Filter{}, Sort{Field: SortByFileName}, Page{Offset: 2, Limit: 2})
		s.Require().NoError(err)
		s.Equal(5, total)
		s.Len(records, 2)
		s.Equal("doc-2.pdf", records[0].FileName)
		s.Equal("doc-3.pdf", records[1].FileName)
	})

	s.Run("offset past the end returns empty with total intact", func() {
		records, total, err := s.store.List(ctx, Filter{}, Sort{}, Page{Offset: 10, Limit: 5})
		s.Require().NoError(err)
		s.Equal(5, total)
		s.Empty(records)
	})
}

func (s *MemoryStoreSuite) TestStatistics() {
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		i := i
		record := s.record(fmt.Sprintf("stat-%d.pdf", i), func(r *Record) {
			r.CreatedAt = s.base.Add(time.Duration(i) * time.Second)
			if i < 4 {
				r.Verified = true
				r.VerificationCount = 2
			}
			if i < 3 {
				r.Category = domain.CategoryLegal
			}
		})
		s.Require().NoError(s.store.Put(ctx, record))
	}

	stats, err := s.store.Statistics(ctx)
	s.Require().NoError(err)
	s.Equal(12, stats.TotalDocuments)
	s.Equal(4, stats.VerifiedDocuments)
	s.Equal(8, stats.TotalVerifications)
	s.Len(stats.Recent, RecentLimit)
	s.Equal("stat-11.pdf", stats.Recent[0].FileName)

	s.Require().NotEmpty(stats.ByCategory)
	s.Equal(domain.CategoryOther, stats.ByCategory[0].Category)
	s.Equal(9, stats.ByCategory[0].Count)

	s.Require().Len(stats.ByStatus, 1)
	s.Equal(domain.StatusConfirmed, stats.ByStatus[0].Status)
	s.Equal(12, stats.ByStatus[0].Count)

	s.Run("statistics are computed fresh per call", func() {
		_, err := s.store.IncrementVerification(ctx, digest.Compute([]byte("stat-5.pdf")), s.base)
		s.Require().NoError(err)

		fresh, err := s.store.Statistics(ctx)
		s.Require().NoError(err)
		s.Equal(5, fresh.VerifiedDocuments)
		s.Equal(9, fresh.TotalVerifications)
	})
}
