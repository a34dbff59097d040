package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/ComradeParth/VC-Intelligence-Interface/internal/workspace"
)

var seedCmd = &cobra.Command{
	Use:   "seed <file.yaml>",
	Short: "Import companies, lists and the thesis from a YAML seed file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		seed, err := workspace.LoadSeedFile(args[0])
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, cfg, "seed")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Workspace.ImportSeed(ctx, seed)
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(res)
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge-demo",
	Short: "Clear every heuristic (demo) enrichment",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, cfg, "purge")
		if err != nil {
			return err
		}
		defer env.Close()

		n, err := env.Workspace.PurgeDemoEnrichments(ctx)
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(map[string]int64{"purged": n})
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(purgeCmd)
}
