package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/propscan/ownerdata/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "ownerdata",
	Short: "Owner-data resolution engine",
	Long:  "Resolves property owner name, mailing address, and contact info for scraped listings via store lookup, a flat-file fallback, and external data providers.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
