package fallback

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/propscan/ownerdata/internal/fetcher"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func writeSideFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "owners.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newCache(t *testing.T, content string) *Cache {
	t.Helper()
	return NewCache(fetcher.New(), writeSideFile(t, content), fetcher.CSVOptions{})
}

func TestLookup_ContainmentBothDirections(t *testing.T) {
	c := newCache(t, "address,mailing_address,owner_name\n"+
		"123 main st,PO Box 5,Jane Smith\n"+
		`"456 Oak Ave, Springfield, IL 62704",789 Elm Rd,Bob Jones`+"\n")

	// Query longer than the row.
	e, ok, err := c.Lookup(context.Background(), "123 Main St, Springfield, IL, 62704")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "PO Box 5", e.MailingAddress)
	assert.Equal(t, "Jane Smith", e.OwnerName)

	// Row longer than the query.
	e, ok, err = c.Lookup(context.Background(), "456 Oak Avenue")
	require.NoError(t, err)
	require.False(t, ok, "street-type spelling differs, containment should not fire")

	e, ok, err = c.Lookup(context.Background(), "456 Oak Ave")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "789 Elm Rd", e.MailingAddress)
}

func TestLookup_NoMatch(t *testing.T) {
	c := newCache(t, "address,mailing_address\n123 main st,PO Box 5\n")
	_, ok, err := c.Lookup(context.Background(), "999 Nowhere Ln")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLookup_OwnerNameOptional(t *testing.T) {
	c := newCache(t, "address,mailing_address\n123 main st,PO Box 5\n")
	e, ok, err := c.Lookup(context.Background(), "123 Main St")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "PO Box 5", e.MailingAddress)
	assert.Empty(t, e.OwnerName)
}

func TestLookup_MissingRequiredColumns(t *testing.T) {
	c := newCache(t, "street,owner\n123 main st,Jane\n")
	_, _, err := c.Lookup(context.Background(), "123 Main St")
	require.Error(t, err)

	// The failure sticks for the life of the cache.
	_, _, err = c.Lookup(context.Background(), "123 Main St")
	require.Error(t, err)
}

func TestLookup_EmptySourceDisabled(t *testing.T) {
	c := NewCache(fetcher.New(), "", fetcher.CSVOptions{})
	_, ok, err := c.Lookup(context.Background(), "123 Main St")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLookup_LoadsOnce(t *testing.T) {
	path := writeSideFile(t, "address,mailing_address\n123 main st,PO Box 5\n")
	c := NewCache(fetcher.New(), path, fetcher.CSVOptions{})

	_, ok, err := c.Lookup(context.Background(), "123 Main St")
	require.NoError(t, err)
	require.True(t, ok)

	// Deleting the file after the first load must not matter.
	require.NoError(t, os.Remove(path))
	_, ok, err = c.Lookup(context.Background(), "123 Main St")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLookup_OrdinalNormalizationApplies(t *testing.T) {
	c := newCache(t, "address,mailing_address\n2045 w 63 RD st,PO Box 9\n")
	e, ok, err := c.Lookup(context.Background(), "2045 W 63Rd St, Chicago IL 60629")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "PO Box 9", e.MailingAddress)
}
