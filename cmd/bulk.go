package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ComradeParth/VC-Intelligence-Interface/internal/store"
)

var (
	bulkAll      bool
	bulkIDs      []string
	bulkInterval time.Duration
)

var bulkCmd = &cobra.Command{
	Use:   "bulk-enrich",
	Short: "Enrich tracked companies one at a time",
	Long:  "Enriches every un-enriched company (or every company with --all, or the given --id values) sequentially, pausing between calls.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, cfg, "bulk")
		if err != nil {
			return err
		}
		defer env.Close()

		ids := bulkIDs
		if bulkAll && len(ids) == 0 {
			companies, err := env.Store.ListCompanies(ctx, store.CompanyFilter{})
			if err != nil {
				return err
			}
			for _, c := range companies {
				ids = append(ids, c.ID)
			}
		}

		res, err := env.Workspace.BulkEnrich(ctx, ids, bulkInterval)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(res); encErr != nil {
			return encErr
		}
		return err
	},
}

func init() {
	bulkCmd.Flags().BoolVar(&bulkAll, "all", false, "re-enrich every company, including already-enriched ones")
	bulkCmd.Flags().StringSliceVar(&bulkIDs, "id", nil, "company ID to enrich (repeatable)")
	bulkCmd.Flags().DurationVar(&bulkInterval, "interval", 0, "pause between calls, minimum 500ms (default from config)")
	rootCmd.AddCommand(bulkCmd)
}
