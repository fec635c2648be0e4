package ledger

import (
	"context"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"

	"docproof/pkg/domain"
	"docproof/pkg/domainerr"
)

// MemoryConfig tunes the in-memory ledger. ConfirmDelay mimics the node's
// confirmation latency so timeout paths can be exercised in tests.
type MemoryConfig struct {
	Account      string
	Network      string
	ConfirmDelay time.Duration
	Now          func() time.Time
}

// Memory implements Client against an in-process append-only chain. It
// honors the full contract: atomic duplicate detection, confirmation waits,
// per-owner indexes and verification events. Used for dev and as the test
// double for both coordinators.
type Memory struct {
	mu           sync.RWMutex
	account      string
	network      string
	confirmDelay time.Duration
	now          func() time.Time

	records map[domain.Digest]*Record
	order   []domain.Digest
	owners  map[string][]domain.Digest
	seq     uint64
}

// NewMemory constructs an empty in-memory ledger.
func NewMemory(cfg MemoryConfig) *Memory {
	if cfg.Account == "" {
		cfg.Account = "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"
	}
	if cfg.Network == "" {
		cfg.Network = "31337"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Memory{
		account:      cfg.Account,
		network:      cfg.Network,
		confirmDelay: cfg.ConfirmDelay,
		now:          cfg.Now,
		records:      make(map[domain.Digest]*Record),
		owners:       make(map[string][]domain.Digest),
	}
}

func (m *Memory) Register(ctx context.Context, d domain.Digest, metadata string) (RegisterResult, error) {
	if d.IsZero() {
		return RegisterResult{}, translateReason(ReasonInvalidHash)
	}
	if len(metadata) > MaxMetadataBytes {
		return RegisterResult{}, translateReason(ReasonMetadataTooLong)
	}

	m.mu.Lock()
	if _, exists := m.records[d]; exists {
		m.mu.Unlock()
		return RegisterResult{}, translateReason(ReasonAlreadyExists)
	}
	m.seq++
	seq := m.seq
	m.records[d] = &Record{
		Digest:       d,
		Owner:        m.account,
		RegisteredAt: m.now(),
		Metadata:     metadata,
		Exists:       true,
	}
	m.order = append(m.order, d)
	m.owners[m.account] = append(m.owners[m.account], d)
	m.mu.Unlock()

	// The submission is on the chain before the confirmation wait, so an
	// expired context leaves a registered record behind, exactly like a real
	// node that accepted the transaction but outlived the caller's patience.
	if err := m.awaitConfirmation(ctx, "register"); err != nil {
		return RegisterResult{}, err
	}
	return RegisterResult{TxRef: m.newTxRef(), Sequence: seq, Network: m.network}, nil
}

func (m *Memory) Verify(ctx context.Context, d domain.Digest) (VerifyResult, error) {
	m.mu.Lock()
	record, exists := m.records[d]
	var observed *Record
	if exists {
		m.seq++
		copied := *record
		observed = &copied
	}
	m.mu.Unlock()

	if !exists {
		return VerifyResult{Existed: false}, nil
	}
	if err := m.awaitConfirmation(ctx, "verify"); err != nil {
		return VerifyResult{}, err
	}
	return VerifyResult{Existed: true, Record: observed, TxRef: m.newTxRef()}, nil
}

func (m *Memory) Fetch(_ context.Context, d domain.Digest) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, exists := m.records[d]
	if !exists {
		return Record{}, translateReason(ReasonNotFound)
	}
	return *record, nil
}

func (m *Memory) ExistsView(_ context.Context, d domain.Digest) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.records[d]
	return exists, nil
}

func (m *Memory) ListAll(_ context.Context, offset, limit int) ([]domain.Digest, error) {
	if offset < 0 || limit < 0 {
		return nil, domainerr.New(domainerr.CodeInvalidInput, "offset and limit must be non-negative")
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if offset >= len(m.order) {
		return []domain.Digest{}, nil
	}
	end := offset + limit
	if end > len(m.order) {
		end = len(m.order)
	}
	page := make([]domain.Digest, end-offset)
	copy(page, m.order[offset:end])
	return page, nil
}

func (m *Memory) TotalCount(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order), nil
}

func (m *Memory) ListByOwner(_ context.Context, owner string) ([]domain.Digest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	digests := make([]domain.Digest, len(m.owners[owner]))
	copy(digests, m.owners[owner])
	return digests, nil
}

func (m *Memory) CountByOwner(_ context.Context, owner string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.owners[owner]), nil
}

func (m *Memory) Network() string {
	return m.network
}

func (m *Memory) awaitConfirmation(ctx context.Context, op string) error {
	if m.confirmDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(m.confirmDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return translateTransport(op, ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (m *Memory) newTxRef() string {
	u := uuid.New()
	sum := sha3.Sum256(u[:])
	return "0x" + hex.EncodeToString(sum[:])
}
