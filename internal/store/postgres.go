package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/propscan/ownerdata/internal/model"
)

// pgxPool is the slice of pgxpool.Pool the store uses; pgxmock satisfies
// it in tests.
type pgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

// PostgresStore implements ListingStore over a pgx connection pool.
type PostgresStore struct {
	pool    pgxPool
	schemas Schemas
}

// NewPostgres connects a pool and verifies connectivity.
func NewPostgres(ctx context.Context, dsn string, schemas Schemas) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "store: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "store: ping")
	}
	return &PostgresStore{pool: pool, schemas: schemas}, nil
}

// NewPostgresFromPool wraps an existing pool; used by tests.
func NewPostgresFromPool(pool pgxPool, schemas Schemas) *PostgresStore {
	return &PostgresStore{pool: pool, schemas: schemas}
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) schema(platform model.Platform) (PlatformSchema, error) {
	ps, ok := s.schemas[platform]
	if !ok {
		return PlatformSchema{}, eris.Errorf("store: no schema for platform %q", platform)
	}
	return ps, nil
}

// selectList emits a fixed seven-expression projection regardless of which
// columns the platform actually has, substituting literals for absent ones
// so every row scans the same way.
func selectList(ps PlatformSchema) string {
	exprs := []string{
		col(ps.IDColumn) + "::text",
		col(ps.AddressColumn),
		textOrEmpty(ps.LinkColumn),
		textOrEmpty(ps.OwnerColumn),
		textOrEmpty(ps.MailingColumn),
		textOrNull(ps.EmailColumn),
		textOrNull(ps.PhoneColumn),
	}
	return strings.Join(exprs, ", ")
}

func col(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// tbl handles schema-qualified table names from overrides ("leads.fsbo").
func tbl(name string) string {
	if schema, rest, ok := strings.Cut(name, "."); ok {
		return pgx.Identifier{schema, rest}.Sanitize()
	}
	return pgx.Identifier{name}.Sanitize()
}

func textOrEmpty(name string) string {
	if name == "" {
		return "''"
	}
	return "COALESCE(" + col(name) + "::text, '')"
}

func textOrNull(name string) string {
	if name == "" {
		return "NULL::text"
	}
	return col(name) + "::text"
}

func scanRecord(rows pgx.Rows, platform model.Platform) (model.ListingRecord, error) {
	var rec model.ListingRecord
	var emailRaw, phoneRaw *string
	if err := rows.Scan(&rec.ID, &rec.Address, &rec.ListingLink, &rec.OwnerName, &rec.MailingAddress, &emailRaw, &phoneRaw); err != nil {
		return model.ListingRecord{}, eris.Wrap(err, "store: scan listing row")
	}
	rec.Platform = platform
	if emailRaw != nil {
		rec.EmailRaw = *emailRaw
	}
	if phoneRaw != nil {
		rec.PhoneRaw = *phoneRaw
	}
	return rec, nil
}

func (s *PostgresStore) FindByLink(ctx context.Context, platform model.Platform, link string) (*model.ListingRecord, error) {
	ps, err := s.schema(platform)
	if err != nil {
		return nil, err
	}
	if ps.LinkColumn == "" || link == "" {
		return nil, nil
	}

	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 LIMIT 1",
		selectList(ps), tbl(ps.Table), col(ps.LinkColumn))

	rows, err := s.pool.Query(ctx, sql, link)
	if err != nil {
		return nil, eris.Wrapf(err, "store: find by link on %s", ps.Table)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, eris.Wrapf(err, "store: find by link on %s", ps.Table)
		}
		return nil, nil
	}
	rec, err := scanRecord(rows, platform)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *PostgresStore) LoadCandidates(ctx context.Context, platform model.Platform, streetNumber string) ([]model.ListingRecord, error) {
	ps, err := s.schema(platform)
	if err != nil {
		return nil, err
	}

	var (
		sql  string
		args []any
	)
	if streetNumber != "" {
		sql = fmt.Sprintf("SELECT %s FROM %s WHERE %s ILIKE '%%' || $1 || '%%' ORDER BY %s LIMIT %d",
			selectList(ps), tbl(ps.Table), col(ps.AddressColumn), col(ps.IDColumn), candidateLimit)
		args = append(args, streetNumber)
	} else {
		sql = fmt.Sprintf("SELECT %s FROM %s ORDER BY %s LIMIT %d",
			selectList(ps), tbl(ps.Table), col(ps.IDColumn), candidateLimit)
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "store: load candidates from %s", ps.Table)
	}
	defer rows.Close()

	var recs []model.ListingRecord
	for rows.Next() {
		rec, err := scanRecord(rows, platform)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "store: load candidates from %s", ps.Table)
	}
	return recs, nil
}

func (s *PostgresStore) UpdateOwner(ctx context.Context, platform model.Platform, recordID string, patch OwnerPatch) error {
	ps, err := s.schema(platform)
	if err != nil {
		return err
	}
	if patch.IsZero() {
		return nil
	}

	var (
		sets []string
		args []any
	)
	if patch.OwnerName != "" && ps.OwnerColumn != "" {
		args = append(args, patch.OwnerName)
		sets = append(sets, fmt.Sprintf("%s = $%d", col(ps.OwnerColumn), len(args)))
	}
	if patch.MailingAddress != "" && ps.MailingColumn != "" {
		args = append(args, patch.MailingAddress)
		sets = append(sets, fmt.Sprintf("%s = $%d", col(ps.MailingColumn), len(args)))
	}
	if len(sets) == 0 {
		// Platform has no owner columns; nothing to patch.
		return nil
	}
	args = append(args, recordID)

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s::text = $%d",
		tbl(ps.Table), strings.Join(sets, ", "), col(ps.IDColumn), len(args))

	if _, err := s.pool.Exec(ctx, sql, args...); err != nil {
		return eris.Wrapf(err, "store: update owner on %s", ps.Table)
	}
	return nil
}

const auditInsertSQL = `INSERT INTO owner_writeback_audit
	(id, platform, record_id, owner_name, mailing_address, source, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

func (s *PostgresStore) WriteAudit(ctx context.Context, entry AuditEntry) error {
	_, err := s.pool.Exec(ctx, auditInsertSQL,
		entry.ID, string(entry.Platform), entry.RecordID,
		entry.OwnerName, entry.MailingAddress, string(entry.Source), entry.CreatedAt)
	if err != nil {
		return eris.Wrap(err, "store: insert audit row")
	}
	return nil
}

const auditDDL = `CREATE TABLE IF NOT EXISTS owner_writeback_audit (
	id UUID PRIMARY KEY,
	platform TEXT NOT NULL,
	record_id TEXT NOT NULL,
	owner_name TEXT NOT NULL DEFAULT '',
	mailing_address TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`

// Migrate creates the audit table and, for self-hosted setups, the listing
// tables themselves. Existing tables are left alone.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, auditDDL); err != nil {
		return eris.Wrap(err, "store: create audit table")
	}
	for _, platform := range model.KnownPlatforms {
		ps, ok := s.schemas[platform]
		if !ok {
			continue
		}
		if _, err := s.pool.Exec(ctx, listingDDL(ps)); err != nil {
			return eris.Wrapf(err, "store: create table %s", ps.Table)
		}
	}
	return nil
}

func listingDDL(ps PlatformSchema) string {
	cols := []string{
		col(ps.IDColumn) + " BIGSERIAL PRIMARY KEY",
		col(ps.AddressColumn) + " TEXT NOT NULL",
	}
	for _, name := range []string{ps.LinkColumn, ps.OwnerColumn, ps.MailingColumn, ps.EmailColumn, ps.PhoneColumn} {
		if name != "" {
			cols = append(cols, col(name)+" TEXT")
		}
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", tbl(ps.Table), strings.Join(cols, ", "))
}
