package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ComradeParth/VC-Intelligence-Interface/internal/enrich"
)

var (
	enrichThesis      string
	enrichDescription string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich <url>",
	Short: "Enrich a single company URL and print the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, cfg, "enrich")
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Pipeline.Enrich(ctx, enrich.Request{
			URL:         args[0],
			Thesis:      enrichThesis,
			Description: enrichDescription,
		})
		if err != nil {
			return err
		}

		zap.L().Info("enrichment complete",
			zap.String("url", args[0]),
			zap.Bool("demo", result.Demo),
			zap.Int("keywords", len(result.Keywords)),
		)

		// Print result JSON to stdout
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichThesis, "thesis", "", "investment thesis to align signals against")
	enrichCmd.Flags().StringVar(&enrichDescription, "description", "", "company description, used when the site cannot be read")
	rootCmd.AddCommand(enrichCmd)
}
