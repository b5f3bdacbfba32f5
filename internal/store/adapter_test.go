package store

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propscan/ownerdata/internal/address"
	"github.com/propscan/ownerdata/internal/model"
)

func TestAdapter_FindByFuzzyAddress_PicksBestQualifier(t *testing.T) {
	mock, s := newMockStore(t)
	a := NewAdapter(s, model.PlatformFSBO)

	// Both rows share the street number; only the first shares the street
	// name, so it must win despite iteration order being favorable anyway.
	rows := pgxmock.NewRows(recordColumns).
		AddRow("1", "123 Main Street, Springfield, IL 62704", "", "Jane Smith", "PO Box 5", nil, nil).
		AddRow("2", "123 Oak Ave, Springfield, IL 62704", "", "Bob Jones", "", nil, nil)
	mock.ExpectQuery(`SELECT .+ FROM "fsbo_listings" WHERE "address" ILIKE`).
		WithArgs("123").
		WillReturnRows(rows)

	query := address.NormalizeForMatching("123 Main St, Springfield, IL, 62704")
	rec, err := a.FindByFuzzyAddress(context.Background(), query)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "1", rec.ID)
	assert.Equal(t, "Jane Smith", rec.OwnerName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_FindByFuzzyAddress_NoStreetNumberShortCircuits(t *testing.T) {
	mock, s := newMockStore(t)
	a := NewAdapter(s, model.PlatformFSBO)

	query := address.NormalizeForMatching("Main Street, Springfield")
	rec, err := a.FindByFuzzyAddress(context.Background(), query)
	require.NoError(t, err)
	assert.Nil(t, rec)
	require.NoError(t, mock.ExpectationsWereMet(), "no query should reach the store")
}

func TestAdapter_FindByFuzzyAddress_NoQualifier(t *testing.T) {
	mock, s := newMockStore(t)
	a := NewAdapter(s, model.PlatformFSBO)

	// Rows returned by the substring pre-filter that still fail scoring:
	// the number appears but not as a standalone word.
	rows := pgxmock.NewRows(recordColumns).
		AddRow("1", "4123 Elm Rd, Springfield, IL", "", "", "", nil, nil)
	mock.ExpectQuery(`SELECT .+ FROM "fsbo_listings"`).
		WithArgs("123").
		WillReturnRows(rows)

	query := address.NormalizeForMatching("123 Main St, Springfield, IL")
	rec, err := a.FindByFuzzyAddress(context.Background(), query)
	require.NoError(t, err)
	assert.Nil(t, rec)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_FindByLink_Delegates(t *testing.T) {
	mock, s := newMockStore(t)
	a := NewAdapter(s, model.PlatformRedfin)

	rows := pgxmock.NewRows(recordColumns).
		AddRow("9", "55 Pine St", "https://redfin.com/9", "", "", nil, nil)
	mock.ExpectQuery(`SELECT .+ FROM "redfin_listings" WHERE "url" = \$1`).
		WithArgs("https://redfin.com/9").
		WillReturnRows(rows)

	rec, err := a.FindByLink(context.Background(), "https://redfin.com/9")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "9", rec.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
