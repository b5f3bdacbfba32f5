package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/propscan/ownerdata/internal/model"
)

// SQLiteStore implements ListingStore over an embedded database. Used for
// local development and one-shot CLI runs where standing up Postgres is
// overkill.
type SQLiteStore struct {
	db      *sql.DB
	schemas Schemas
}

// NewSQLite opens (creating if needed) the database at path.
func NewSQLite(path string, schemas Schemas) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrapf(err, "store: open sqlite %s", path)
	}
	// modernc sqlite serializes writes itself; a single connection avoids
	// SQLITE_BUSY under concurrent write-back.
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db, schemas: schemas}, nil
}

func (s *SQLiteStore) Close() {
	s.db.Close()
}

func (s *SQLiteStore) schema(platform model.Platform) (PlatformSchema, error) {
	ps, ok := s.schemas[platform]
	if !ok {
		return PlatformSchema{}, eris.Errorf("store: no schema for platform %q", platform)
	}
	return ps, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func sqliteSelectList(ps PlatformSchema) string {
	exprs := []string{
		"CAST(" + quoteIdent(ps.IDColumn) + " AS TEXT)",
		quoteIdent(ps.AddressColumn),
	}
	for _, name := range []string{ps.LinkColumn, ps.OwnerColumn, ps.MailingColumn} {
		if name == "" {
			exprs = append(exprs, "''")
		} else {
			exprs = append(exprs, "COALESCE(CAST("+quoteIdent(name)+" AS TEXT), '')")
		}
	}
	for _, name := range []string{ps.EmailColumn, ps.PhoneColumn} {
		if name == "" {
			exprs = append(exprs, "NULL")
		} else {
			exprs = append(exprs, "CAST("+quoteIdent(name)+" AS TEXT)")
		}
	}
	return strings.Join(exprs, ", ")
}

func scanSQLiteRecord(rows *sql.Rows, platform model.Platform) (model.ListingRecord, error) {
	var rec model.ListingRecord
	var emailRaw, phoneRaw sql.NullString
	if err := rows.Scan(&rec.ID, &rec.Address, &rec.ListingLink, &rec.OwnerName, &rec.MailingAddress, &emailRaw, &phoneRaw); err != nil {
		return model.ListingRecord{}, eris.Wrap(err, "store: scan listing row")
	}
	rec.Platform = platform
	if emailRaw.Valid {
		rec.EmailRaw = emailRaw.String
	}
	if phoneRaw.Valid {
		rec.PhoneRaw = phoneRaw.String
	}
	return rec, nil
}

func (s *SQLiteStore) FindByLink(ctx context.Context, platform model.Platform, link string) (*model.ListingRecord, error) {
	ps, err := s.schema(platform)
	if err != nil {
		return nil, err
	}
	if ps.LinkColumn == "" || link == "" {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? LIMIT 1",
		sqliteSelectList(ps), quoteIdent(ps.Table), quoteIdent(ps.LinkColumn))

	rows, err := s.db.QueryContext(ctx, query, link)
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
	rec, err := scanSQLiteRecord(rows, platform)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *SQLiteStore) LoadCandidates(ctx context.Context, platform model.Platform, streetNumber string) ([]model.ListingRecord, error) {
	ps, err := s.schema(platform)
	if err != nil {
		return nil, err
	}

	var (
		query string
		args  []any
	)
	if streetNumber != "" {
		// LIKE is case-insensitive for ASCII in sqlite, matching ILIKE.
		query = fmt.Sprintf("SELECT %s FROM %s WHERE %s LIKE '%%' || ? || '%%' ORDER BY %s LIMIT %d",
			sqliteSelectList(ps), quoteIdent(ps.Table), quoteIdent(ps.AddressColumn), quoteIdent(ps.IDColumn), candidateLimit)
		args = append(args, streetNumber)
	} else {
		query = fmt.Sprintf("SELECT %s FROM %s ORDER BY %s LIMIT %d",
			sqliteSelectList(ps), quoteIdent(ps.Table), quoteIdent(ps.IDColumn), candidateLimit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "store: load candidates from %s", ps.Table)
	}
	defer rows.Close()

	var recs []model.ListingRecord
	for rows.Next() {
		rec, err := scanSQLiteRecord(rows, platform)
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

func (s *SQLiteStore) UpdateOwner(ctx context.Context, platform model.Platform, recordID string, patch OwnerPatch) error {
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
		sets = append(sets, quoteIdent(ps.OwnerColumn)+" = ?")
		args = append(args, patch.OwnerName)
	}
	if patch.MailingAddress != "" && ps.MailingColumn != "" {
		sets = append(sets, quoteIdent(ps.MailingColumn)+" = ?")
		args = append(args, patch.MailingAddress)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, recordID)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE CAST(%s AS TEXT) = ?",
		quoteIdent(ps.Table), strings.Join(sets, ", "), quoteIdent(ps.IDColumn))

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return eris.Wrapf(err, "store: update owner on %s", ps.Table)
	}
	return nil
}

func (s *SQLiteStore) WriteAudit(ctx context.Context, entry AuditEntry) error {
	const insert = `INSERT INTO owner_writeback_audit
		(id, platform, record_id, owner_name, mailing_address, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, insert,
		entry.ID.String(), string(entry.Platform), entry.RecordID,
		entry.OwnerName, entry.MailingAddress, string(entry.Source),
		entry.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return eris.Wrap(err, "store: insert audit row")
	}
	return nil
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	const audit = `CREATE TABLE IF NOT EXISTS owner_writeback_audit (
		id TEXT PRIMARY KEY,
		platform TEXT NOT NULL,
		record_id TEXT NOT NULL,
		owner_name TEXT NOT NULL DEFAULT '',
		mailing_address TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`
	if _, err := s.db.ExecContext(ctx, audit); err != nil {
		return eris.Wrap(err, "store: create audit table")
	}
	for _, platform := range model.KnownPlatforms {
		ps, ok := s.schemas[platform]
		if !ok {
			continue
		}
		if _, err := s.db.ExecContext(ctx, sqliteListingDDL(ps)); err != nil {
			return eris.Wrapf(err, "store: create table %s", ps.Table)
		}
	}
	return nil
}

func sqliteListingDDL(ps PlatformSchema) string {
	cols := []string{
		quoteIdent(ps.IDColumn) + " INTEGER PRIMARY KEY AUTOINCREMENT",
		quoteIdent(ps.AddressColumn) + " TEXT NOT NULL",
	}
	for _, name := range []string{ps.LinkColumn, ps.OwnerColumn, ps.MailingColumn, ps.EmailColumn, ps.PhoneColumn} {
		if name != "" {
			cols = append(cols, quoteIdent(name)+" TEXT")
		}
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(ps.Table), strings.Join(cols, ", "))
}
