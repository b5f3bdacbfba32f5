package main

import (
	"context"
	"encoding/csv"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/propscan/ownerdata/internal/fetcher"
	"github.com/propscan/ownerdata/internal/model"
	"github.com/propscan/ownerdata/internal/resolve"
)

var (
	batchInput  string
	batchOutput string
	batchFormat string
)

var batchHeader = []string{"address", "listing_link", "source", "owner_name", "mailing_address", "emails", "phones", "result_source", "error"}

type batchRow struct {
	query model.AddressQuery
	enr   model.EnrichmentResult
	err   error
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Resolve owner data for a CSV of addresses",
	Long:  "Reads a CSV with an 'address' column (optional 'listing_link' and 'source'), resolves each row concurrently, and writes the results as CSV or XLSX.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, resolve.WithSynchronousWriteback())
		if err != nil {
			return err
		}
		defer env.Close()

		queries, err := readBatchInput(ctx, batchInput)
		if err != nil {
			return err
		}
		zap.L().Info("batch loaded", zap.Int("rows", len(queries)))

		rows := make([]batchRow, len(queries))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Batch.MaxConcurrent)
		for i, q := range queries {
			g.Go(func() error {
				res, err := env.Resolver.Resolve(gctx, q)
				rows[i] = batchRow{query: q, err: err}
				if err == nil {
					rows[i].enr = res.Enrichment
				} else {
					zap.L().Warn("batch row failed", zap.String("address", q.Address), zap.Error(err))
				}
				// Row failures land in the output, not in the run result.
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		if err := writeBatchOutput(batchOutput, batchFormat, rows); err != nil {
			return err
		}
		zap.L().Info("batch complete", zap.String("output", batchOutput))
		return nil
	},
}

func readBatchInput(ctx context.Context, source string) ([]model.AddressQuery, error) {
	rc, err := fetcher.New().Open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	header, records, err := fetcher.ReadCSV(rc, fetcher.CSVOptions{})
	if err != nil {
		return nil, err
	}

	addrCol, linkCol, sourceCol := -1, -1, -1
	for i, col := range header {
		switch strings.ToLower(col) {
		case "address":
			addrCol = i
		case "listing_link":
			linkCol = i
		case "source":
			sourceCol = i
		}
	}
	if addrCol < 0 {
		return nil, eris.Errorf("batch input missing address column (header: %s)", strings.Join(header, ", "))
	}

	var queries []model.AddressQuery
	for _, rec := range records {
		if addrCol >= len(rec) || rec[addrCol] == "" {
			continue
		}
		q := model.AddressQuery{Address: rec[addrCol]}
		if linkCol >= 0 && linkCol < len(rec) {
			q.ListingLink = rec[linkCol]
		}
		if sourceCol >= 0 && sourceCol < len(rec) {
			q.Source = model.Platform(rec[sourceCol])
		}
		queries = append(queries, q)
	}
	return queries, nil
}

func writeBatchOutput(path, format string, rows []batchRow) error {
	switch format {
	case "csv":
		return writeBatchCSV(path, rows)
	case "xlsx":
		return writeBatchXLSX(path, rows)
	default:
		return eris.Errorf("unknown output format %q (want csv or xlsx)", format)
	}
}

func rowValues(row batchRow) []string {
	errMsg := ""
	if row.err != nil {
		errMsg = row.err.Error()
	}
	return []string{
		row.query.Address,
		row.query.ListingLink,
		string(row.query.Source),
		row.enr.OwnerName,
		row.enr.MailingAddress,
		strings.Join(row.enr.Emails, "; "),
		strings.Join(row.enr.Phones, "; "),
		string(row.enr.Source),
		errMsg,
	}
}

func writeBatchCSV(path string, rows []batchRow) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(batchHeader); err != nil {
		return eris.Wrap(err, "write header")
	}
	for _, row := range rows {
		if err := w.Write(rowValues(row)); err != nil {
			return eris.Wrap(err, "write row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "flush csv")
}

func writeBatchXLSX(path string, rows []batchRow) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("owner-data")
	if err != nil {
		return eris.Wrap(err, "add sheet")
	}

	hdr := sheet.AddRow()
	for _, col := range batchHeader {
		hdr.AddCell().Value = col
	}
	for _, row := range rows {
		r := sheet.AddRow()
		for _, v := range rowValues(row) {
			r.AddCell().Value = v
		}
	}
	return eris.Wrapf(file.Save(path), "save %s", path)
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "input CSV path or URL (required)")
	batchCmd.Flags().StringVar(&batchOutput, "output", "owner-data-out.csv", "output file path")
	batchCmd.Flags().StringVar(&batchFormat, "format", "csv", "output format: csv or xlsx")
	batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}
