package fetcher

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// CSVOptions configures side-file parsing.
type CSVOptions struct {
	Delimiter rune   // default ','
	Encoding  string // "", "utf-8", or "windows-1252"
}

// ReadCSV parses a delimited file with a header row. Fields are trimmed;
// quoting follows standard CSV rules (double-quote escaping, embedded
// delimiters inside quotes). Rows with a different field count than the
// header are kept as-is for the caller to judge.
func ReadCSV(r io.Reader, opts CSVOptions) (header []string, rows [][]string, err error) {
	if strings.EqualFold(opts.Encoding, "windows-1252") {
		r = transform.NewReader(r, charmap.Windows1252.NewDecoder())
	}

	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	first := true
	for {
		record, readErr := reader.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, nil, eris.Wrap(readErr, "fetcher: read csv row")
		}
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		if first {
			header = record
			first = false
			continue
		}
		rows = append(rows, record)
	}
	return header, rows, nil
}
