package index

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"docproof/pkg/domain"
	"docproof/pkg/platform/sentinel"
)

// InMemoryStore keeps the document index in memory for tests/dev. Writes are
// serialized per store, which satisfies the per-digest atomicity the
// coordinators rely on.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[domain.Digest]*Record
}

// NewInMemoryStore constructs an empty in-memory index.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[domain.Digest]*Record)}
}

func (s *InMemoryStore) Put(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.Digest]; exists {
		return fmt.Errorf("document already indexed for digest %s: %w", record.Digest.Short(), sentinel.ErrConflict)
	}
	copied := cloneRecord(record)
	s.records[record.Digest] = copied
	return nil
}

func (s *InMemoryStore) GetByDigest(_ context.Context, d domain.Digest) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[d]
	if !ok {
		return nil, fmt.Errorf("document not indexed: %w", sentinel.ErrNotFound)
	}
	return cloneRecord(record), nil
}

func (s *InMemoryStore) List(_ context.Context, filter Filter, order Sort, page Page) ([]*Record, int, error) {
	s.mu.RLock()
	matched := make([]*Record, 0, len(s.records))
	for _, record := range s.records {
		if matches(record, filter) {
			matched = append(matched, cloneRecord(record))
		}
	}
	s.mu.RUnlock()

	sortRecords(matched, order)
	total := len(matched)

	if page.Offset >= total {
		return []*Record{}, total, nil
	}
	end := page.Offset + page.Limit
	if page.Limit <= 0 || end > total {
		end = total
	}
	return matched[page.Offset:end], total, nil
}

func (s *InMemoryStore) IncrementVerification(_ context.Context, d domain.Digest, now time.Time) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[d]
	if !ok {
		return nil, fmt.Errorf("document not indexed: %w", sentinel.ErrNotFound)
	}
	record.VerificationCount++
	record.Verified = true
	record.LastVerifiedAt = &now
	return cloneRecord(record), nil
}

func (s *InMemoryStore) Statistics(_ context.Context) (*Statistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Statistics{}
	byCategory := make(map[domain.Category]int)
	byStatus := make(map[domain.Status]int)
	all := make([]*Record, 0, len(s.records))

	for _, record := range s.records {
		stats.TotalDocuments++
		if record.Verified {
			stats.VerifiedDocuments++
		}
		stats.TotalVerifications += record.VerificationCount
		byCategory[record.Category]++
		byStatus[record.Status]++
		all = append(all, record)
	}

	for category, count := range byCategory {
		stats.ByCategory = append(stats.ByCategory, CategoryCount{Category: category, Count: count})
	}
	sort.Slice(stats.ByCategory, func(i, j int) bool {
		if stats.ByCategory[i].Count != stats.ByCategory[j].Count {
			return stats.ByCategory[i].Count > stats.ByCategory[j].Count
		}
		return stats.ByCategory[i].Category < stats.ByCategory[j].Category
	})
	for status, count := range byStatus {
		stats.ByStatus = append(stats.ByStatus, StatusCount{Status: status, Count: count})
	}
	sort.Slice(stats.ByStatus, func(i, j int) bool {
		return stats.ByStatus[i].Status < stats.ByStatus[j].Status
	})

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	for i, record := range all {
		if i == RecentLimit {
			break
		}
		stats.Recent = append(stats.Recent, RecordSummary{
			Digest:      record.Digest,
			FileName:    record.FileName,
			SubmittedBy: record.SubmittedBy,
			Verified:    record.Verified,
			CreatedAt:   record.CreatedAt,
		})
	}
	return stats, nil
}

func matches(record *Record, filter Filter) bool {
	if filter.Category != nil && record.Category != *filter.Category {
		return false
	}
	if filter.Verified != nil && record.Verified != *filter.Verified {
		return false
	}
	if filter.SubmittedBy != "" &&
		!strings.Contains(strings.ToLower(record.SubmittedBy), strings.ToLower(filter.SubmittedBy)) {
		return false
	}
	return true
}

func sortRecords(records []*Record, order Sort) {
	field := order.Field
	if !field.IsValid() {
		field = SortByCreatedAt
		order.Descending = true
	}
	sort.SliceStable(records, func(i, j int) bool {
		var less bool
		switch field {
		case SortBySize:
			less = records[i].Size < records[j].Size
		case SortByVerificationCount:
			less = records[i].VerificationCount < records[j].VerificationCount
		case SortByFileName:
			less = records[i].FileName < records[j].FileName
		default:
			less = records[i].CreatedAt.Before(records[j].CreatedAt)
		}
		if order.Descending {
			return !less && !equalOn(records[i], records[j], field)
		}
		return less
	})
}

func equalOn(a, b *Record, field SortField) bool {
	switch field {
	case SortBySize:
		return a.Size == b.Size
	case SortByVerificationCount:
		return a.VerificationCount == b.VerificationCount
	case SortByFileName:
		return a.FileName == b.FileName
	default:
		return a.CreatedAt.Equal(b.CreatedAt)
	}
}

func cloneRecord(record *Record) *Record {
	copied := *record
	if record.Tags != nil {
		copied.Tags = append([]string(nil), record.Tags...)
	}
	if record.LastVerifiedAt != nil {
		t := *record.LastVerifiedAt
		copied.LastVerifiedAt = &t
	}
	return &copied
}
