package main

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/propscan/ownerdata/internal/model"
)

func TestReadBatchInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.csv")
	content := "address,source,listing_link\n" +
		`"123 Main St, Springfield, IL 62704",redfin,https://redfin.com/1` + "\n" +
		"456 Oak Ave Chicago IL 60601,,\n" +
		",fsbo,\n" // blank address rows are skipped
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	queries, err := readBatchInput(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, queries, 2)
	assert.Equal(t, "123 Main St, Springfield, IL 62704", queries[0].Address)
	assert.Equal(t, model.PlatformRedfin, queries[0].Source)
	assert.Equal(t, "https://redfin.com/1", queries[0].ListingLink)
	assert.Empty(t, queries[1].ListingLink)
}

func TestReadBatchInput_MissingAddressColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, os.WriteFile(path, []byte("street,city\n123 Main,Springfield\n"), 0o644))

	_, err := readBatchInput(context.Background(), path)
	require.Error(t, err)
}

func sampleRows() []batchRow {
	return []batchRow{
		{
			query: model.AddressQuery{Address: "123 Main St", Source: model.PlatformRedfin},
			enr: model.EnrichmentResult{
				OwnerName:      "Jane Smith",
				MailingAddress: "PO Box 5",
				Emails:         []string{"jane@example.com", "j2@example.com"},
				Phones:         []string{"(555) 123-4567"},
				Source:         model.SourceStore,
			},
		},
		{
			query: model.AddressQuery{Address: "bad input"},
			err:   errors.New("address cannot be split"),
		},
	}
}

func TestWriteBatchCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, writeBatchCSV(path, sampleRows()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, batchHeader, records[0])
	assert.Equal(t, "Jane Smith", records[1][3])
	assert.Equal(t, "jane@example.com; j2@example.com", records[1][5])
	assert.Equal(t, "store", records[1][7])
	assert.Equal(t, "address cannot be split", records[2][8])
}

func TestWriteBatchXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, writeBatchXLSX(path, sampleRows()))

	file, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)

	sheet := file.Sheets[0]
	require.GreaterOrEqual(t, len(sheet.Rows), 3)
	assert.Equal(t, "address", sheet.Rows[0].Cells[0].Value)
	assert.Equal(t, "Jane Smith", sheet.Rows[1].Cells[3].Value)
}

func TestWriteBatchOutput_UnknownFormat(t *testing.T) {
	err := writeBatchOutput(filepath.Join(t.TempDir(), "out.bin"), "parquet", nil)
	require.Error(t, err)
}
