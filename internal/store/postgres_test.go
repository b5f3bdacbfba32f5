package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/propscan/ownerdata/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

var recordColumns = []string{"id", "address", "link", "owner", "mailing", "email", "phone"}

func strPtr(s string) *string { return &s }

func newMockStore(t *testing.T) (pgxmock.PgxPoolIface, *PostgresStore) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewPostgresFromPool(mock, DefaultSchemas())
}

func TestFindByLink_Hit(t *testing.T) {
	mock, s := newMockStore(t)

	rows := pgxmock.NewRows(recordColumns).
		AddRow("42", "123 Main St, Springfield, IL 62704", "https://redfin.com/x", "Jane Smith", "PO Box 5",
			strPtr("jane@example.com"), nil)
	mock.ExpectQuery(`SELECT .+ FROM "redfin_listings" WHERE "url" = \$1 LIMIT 1`).
		WithArgs("https://redfin.com/x").
		WillReturnRows(rows)

	rec, err := s.FindByLink(context.Background(), model.PlatformRedfin, "https://redfin.com/x")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "42", rec.ID)
	assert.Equal(t, model.PlatformRedfin, rec.Platform)
	assert.Equal(t, "Jane Smith", rec.OwnerName)
	assert.Equal(t, "jane@example.com", rec.EmailRaw)
	assert.Nil(t, rec.PhoneRaw)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByLink_Miss(t *testing.T) {
	mock, s := newMockStore(t)

	mock.ExpectQuery(`SELECT .+ FROM "redfin_listings"`).
		WithArgs("https://redfin.com/missing").
		WillReturnRows(pgxmock.NewRows(recordColumns))

	rec, err := s.FindByLink(context.Background(), model.PlatformRedfin, "https://redfin.com/missing")
	require.NoError(t, err)
	assert.Nil(t, rec)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByLink_PlatformWithoutLinkColumn(t *testing.T) {
	mock, s := newMockStore(t)

	// addresses has no link column: no query should be issued.
	rec, err := s.FindByLink(context.Background(), model.PlatformAddresses, "https://x")
	require.NoError(t, err)
	assert.Nil(t, rec)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByLink_UnknownPlatform(t *testing.T) {
	_, s := newMockStore(t)
	_, err := s.FindByLink(context.Background(), model.Platform("craigslist"), "https://x")
	require.Error(t, err)
}

func TestLoadCandidates_PrefilterOnStreetNumber(t *testing.T) {
	mock, s := newMockStore(t)

	rows := pgxmock.NewRows(recordColumns).
		AddRow("1", "123 Main St", "", "", "", nil, nil).
		AddRow("2", "123 Main Ave", "", "", "", nil, nil)
	mock.ExpectQuery(`SELECT .+ FROM "fsbo_listings" WHERE "address" ILIKE .+ ORDER BY "id" LIMIT 5000`).
		WithArgs("123").
		WillReturnRows(rows)

	recs, err := s.LoadCandidates(context.Background(), model.PlatformFSBO, "123")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "1", recs[0].ID)
	assert.Equal(t, model.PlatformFSBO, recs[0].Platform)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadCandidates_NoPrefilter(t *testing.T) {
	mock, s := newMockStore(t)

	mock.ExpectQuery(`SELECT .+ FROM "addresses" ORDER BY "id" LIMIT 5000`).
		WillReturnRows(pgxmock.NewRows(recordColumns))

	recs, err := s.LoadCandidates(context.Background(), model.PlatformAddresses, "")
	require.NoError(t, err)
	assert.Empty(t, recs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOwner_PatchesOnlyProvidedFields(t *testing.T) {
	mock, s := newMockStore(t)

	mock.ExpectExec(`UPDATE "fsbo_listings" SET "mailing_address" = \$1 WHERE "id"::text = \$2`).
		WithArgs("PO Box 5", "42").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateOwner(context.Background(), model.PlatformFSBO, "42", OwnerPatch{MailingAddress: "PO Box 5"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOwner_EmptyPatchIsNoop(t *testing.T) {
	mock, s := newMockStore(t)
	err := s.UpdateOwner(context.Background(), model.PlatformFSBO, "42", OwnerPatch{})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOwner_PlatformWithoutOwnerColumns(t *testing.T) {
	mock, s := newMockStore(t)

	// hotpads has no owner columns: the patch silently degrades to a no-op.
	err := s.UpdateOwner(context.Background(), model.PlatformHotpads, "7", OwnerPatch{OwnerName: "Jane"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteAudit(t *testing.T) {
	mock, s := newMockStore(t)

	entry := AuditEntry{
		ID:             uuid.New(),
		Platform:       model.PlatformRedfin,
		RecordID:       "42",
		OwnerName:      "Jane Smith",
		MailingAddress: "PO Box 5",
		Source:         model.SourcePropertyProvider,
		CreatedAt:      time.Now(),
	}
	mock.ExpectExec(`INSERT INTO owner_writeback_audit`).
		WithArgs(entry.ID, "redfin", "42", "Jane Smith", "PO Box 5", "property_provider", entry.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.WriteAudit(context.Background(), entry))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_CreatesAuditAndListingTables(t *testing.T) {
	mock, s := newMockStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS owner_writeback_audit`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	for range model.KnownPlatforms {
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS`).
			WillReturnResult(pgxmock.NewResult("CREATE", 0))
	}

	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
