package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propscan/ownerdata/internal/model"
)

func TestDefaultSchemas_CoverAllPlatforms(t *testing.T) {
	schemas := DefaultSchemas()
	for _, p := range model.KnownPlatforms {
		ps, ok := schemas[p]
		require.True(t, ok, "missing schema for %s", p)
		assert.NotEmpty(t, ps.Table)
		assert.NotEmpty(t, ps.IDColumn)
		assert.NotEmpty(t, ps.AddressColumn)
	}
}

func TestLoadSchemas_EmptyPathReturnsDefaults(t *testing.T) {
	schemas, err := LoadSchemas("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSchemas(), schemas)
}

func TestLoadSchemas_OverrideReplacesPlatform(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schemas.yaml")
	content := `platforms:
  redfin:
    table: leads.redfin
    id_column: pk
    address_column: property_address
    owner_name_column: owner
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	schemas, err := LoadSchemas(path)
	require.NoError(t, err)

	ps := schemas[model.PlatformRedfin]
	assert.Equal(t, "leads.redfin", ps.Table)
	assert.Equal(t, "pk", ps.IDColumn)
	assert.Equal(t, "owner", ps.OwnerColumn)
	assert.Empty(t, ps.LinkColumn, "override replaces the mapping wholesale")

	// Untouched platforms keep their defaults.
	assert.Equal(t, DefaultSchemas()[model.PlatformFSBO], schemas[model.PlatformFSBO])
}

func TestLoadSchemas_UnknownPlatformRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schemas.yaml")
	content := `platforms:
  craigslist:
    table: cl
    id_column: id
    address_column: addr
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadSchemas(path)
	require.Error(t, err)
}

func TestLoadSchemas_IncompleteOverrideRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schemas.yaml")
	content := `platforms:
  redfin:
    table: leads.redfin
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadSchemas(path)
	require.Error(t, err)
}
