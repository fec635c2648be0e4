package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"docproof/pkg/domain"
	"docproof/pkg/platform/sentinel"
	"docproof/pkg/platform/tx"
)

// schema is the document index layout. Digest and tx_ref carry the store's
// uniqueness invariants; the partial indexes back the listing filters and the
// recency view.
const schema = `
CREATE TABLE IF NOT EXISTS documents (
	digest              TEXT PRIMARY KEY,
	ledger_ref          TEXT NOT NULL,
	file_name           TEXT NOT NULL DEFAULT '',
	size                BIGINT NOT NULL DEFAULT 0,
	content_type        TEXT NOT NULL DEFAULT '',
	submitted_by        TEXT NOT NULL DEFAULT '',
	description         TEXT NOT NULL DEFAULT '',
	category            TEXT NOT NULL DEFAULT 'other',
	tags                TEXT[] NOT NULL DEFAULT '{}',
	schema_version      TEXT NOT NULL DEFAULT '1.0',
	tx_ref              TEXT NOT NULL UNIQUE,
	sequence            BIGINT NOT NULL DEFAULT 0,
	network             TEXT NOT NULL DEFAULT '',
	verified            BOOLEAN NOT NULL DEFAULT FALSE,
	verification_count  INTEGER NOT NULL DEFAULT 0 CHECK (verification_count >= 0),
	last_verified_at    TIMESTAMPTZ,
	status              TEXT NOT NULL DEFAULT 'confirmed',
	created_at          TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS documents_created_at_idx ON documents (created_at DESC);
CREATE INDEX IF NOT EXISTS documents_category_idx ON documents (category);
CREATE INDEX IF NOT EXISTS documents_status_verified_idx ON documents (status, verified);
`

const recordColumns = `digest, ledger_ref, file_name, size, content_type, submitted_by,
	description, category, tags, schema_version, tx_ref, sequence, network,
	verified, verification_count, last_verified_at, status, created_at`

// PostgresStore persists the document index in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed index store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// q returns the caller's transaction when one is carried in the context,
// otherwise the pool.
func (s *PostgresStore) q(ctx context.Context) querier {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

// EnsureSchema creates the documents table and its indexes when absent.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure documents schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Put(ctx context.Context, record *Record) error {
	if record == nil {
		return fmt.Errorf("record is required")
	}
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO documents (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		record.Digest.String(), record.LedgerRef, record.FileName, record.Size,
		record.ContentType, record.SubmittedBy, record.Description,
		record.Category.String(), pq.Array(record.Tags), record.SchemaVersion,
		record.TxRef, record.Sequence, record.Network, record.Verified,
		record.VerificationCount, nullTime(record.LastVerifiedAt),
		record.Status.String(), record.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("document already indexed for digest %s: %w", record.Digest.Short(), sentinel.ErrConflict)
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByDigest(ctx context.Context, d domain.Digest) (*Record, error) {
	row := s.q(ctx).QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM documents WHERE digest = $1`, d.String())
	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("document not indexed: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("get document by digest: %w", err)
	}
	return record, nil
}

// sortColumns whitelists ORDER BY targets; values are column names, never
// caller input.
var sortColumns = map[SortField]string{
	SortByCreatedAt:         "created_at",
	SortBySize:              "size",
	SortByVerificationCount: "verification_count",
	SortByFileName:          "file_name",
}

func (s *PostgresStore) List(ctx context.Context, filter Filter, order Sort, page Page) ([]*Record, int, error) {
	where, args := buildWhere(filter)

	var total int
	if err := s.q(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	column, ok := sortColumns[order.Field]
	if !ok {
		column = "created_at"
		order.Descending = true
	}
	direction := "ASC"
	if order.Descending {
		direction = "DESC"
	}
	limit := page.Limit
	if limit <= 0 {
		limit = total
	}

	query := fmt.Sprintf(`SELECT %s FROM documents%s ORDER BY %s %s OFFSET $%d LIMIT $%d`,
		recordColumns, where, column, direction, len(args)+1, len(args)+2)
	rows, err := s.q(ctx).QueryContext(ctx, query, append(args, page.Offset, limit)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	records := make([]*Record, 0, limit)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan document: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate documents: %w", err)
	}
	return records, total, nil
}

func (s *PostgresStore) IncrementVerification(ctx context.Context, d domain.Digest, now time.Time) (*Record, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		UPDATE documents
		SET verification_count = verification_count + 1,
		    verified = TRUE,
		    last_verified_at = $2
		WHERE digest = $1
		RETURNING `+recordColumns,
		d.String(), now)
	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("document not indexed: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("increment verification: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) Statistics(ctx context.Context) (*Statistics, error) {
	stats := &Statistics{}

	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE verified),
		       COALESCE(SUM(verification_count), 0)
		FROM documents`).
		Scan(&stats.TotalDocuments, &stats.VerifiedDocuments, &stats.TotalVerifications)
	if err != nil {
		return nil, fmt.Errorf("aggregate totals: %w", err)
	}

	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT category, COUNT(*) FROM documents
		GROUP BY category ORDER BY COUNT(*) DESC, category ASC`)
	if err != nil {
		return nil, fmt.Errorf("aggregate by category: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var bucket CategoryCount
		var category string
		if err := rows.Scan(&category, &bucket.Count); err != nil {
			return nil, fmt.Errorf("scan category bucket: %w", err)
		}
		bucket.Category = domain.Category(category)
		stats.ByCategory = append(stats.ByCategory, bucket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category buckets: %w", err)
	}

	statusRows, err := s.q(ctx).QueryContext(ctx, `
		SELECT status, COUNT(*) FROM documents GROUP BY status ORDER BY status ASC`)
	if err != nil {
		return nil, fmt.Errorf("aggregate by status: %w", err)
	}
	defer statusRows.Close()
	for statusRows.Next() {
		var bucket StatusCount
		var status string
		if err := statusRows.Scan(&status, &bucket.Count); err != nil {
			return nil, fmt.Errorf("scan status bucket: %w", err)
		}
		bucket.Status = domain.Status(status)
		stats.ByStatus = append(stats.ByStatus, bucket)
	}
	if err := statusRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status buckets: %w", err)
	}

	recentRows, err := s.q(ctx).QueryContext(ctx, `
		SELECT digest, file_name, submitted_by, verified, created_at
		FROM documents ORDER BY created_at DESC LIMIT $1`, RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("list recent documents: %w", err)
	}
	defer recentRows.Close()
	for recentRows.Next() {
		var summary RecordSummary
		var d string
		if err := recentRows.Scan(&d, &summary.FileName, &summary.SubmittedBy, &summary.Verified, &summary.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recent document: %w", err)
		}
		summary.Digest = domain.Digest(d)
		stats.Recent = append(stats.Recent, summary)
	}
	if err := recentRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent documents: %w", err)
	}
	return stats, nil
}

func buildWhere(filter Filter) (string, []any) {
	var clauses []string
	var args []any
	if filter.Category != nil {
		args = append(args, filter.Category.String())
		clauses = append(clauses, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Verified != nil {
		args = append(args, *filter.Verified)
		clauses = append(clauses, fmt.Sprintf("verified = $%d", len(args)))
	}
	if filter.SubmittedBy != "" {
		args = append(args, "%"+filter.SubmittedBy+"%")
		clauses = append(clauses, fmt.Sprintf("submitted_by ILIKE $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var record Record
	var digest, category, status string
	var tags pq.StringArray
	var lastVerified sql.NullTime
	err := row.Scan(
		&digest, &record.LedgerRef, &record.FileName, &record.Size,
		&record.ContentType, &record.SubmittedBy, &record.Description,
		&category, &tags, &record.SchemaVersion, &record.TxRef,
		&record.Sequence, &record.Network, &record.Verified,
		&record.VerificationCount, &lastVerified, &status, &record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.Digest = domain.Digest(digest)
	record.Category = domain.Category(category)
	record.Status = domain.Status(status)
	record.Tags = tags
	if lastVerified.Valid {
		t := lastVerified.Time
		record.LastVerifiedAt = &t
	}
	return &record, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
