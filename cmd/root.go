package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ComradeParth/VC-Intelligence-Interface/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "vc-intel",
	Short: "Company enrichment for VC deal sourcing",
	Long:  "Reads a company's website, extracts a structured investment analysis with a language model (or a heuristic when none is configured), and manages a workspace of tracked companies, lists, and saved searches.",
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
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
