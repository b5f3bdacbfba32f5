package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/propscan/ownerdata/internal/model"
	"github.com/propscan/ownerdata/internal/resolve"
)

var (
	resolveAddress string
	resolveLink    string
	resolveSource  string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve owner data for a single address",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Synchronous write-back so the process doesn't exit with the
		// store patch still in flight.
		env, err := initEnv(ctx, resolve.WithSynchronousWriteback())
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Resolver.Resolve(ctx, model.AddressQuery{
			Address:     resolveAddress,
			ListingLink: resolveLink,
			Source:      model.Platform(resolveSource),
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Enrichment)
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveAddress, "address", "", "property address (required)")
	resolveCmd.Flags().StringVar(&resolveLink, "listing-link", "", "exact listing link, short-circuits fuzzy matching")
	resolveCmd.Flags().StringVar(&resolveSource, "source", "", "source platform tag (fsbo, redfin, trulia, ...)")
	resolveCmd.MarkFlagRequired("address")
	rootCmd.AddCommand(resolveCmd)
}
