package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var cleanupListID string

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Normalize, split, classify and deduplicate a list",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "cleanup")
		if err != nil {
			return err
		}
		defer env.Close()

		summary, err := env.Service.Cleanup(ctx, cleanupListID)
		if err != nil {
			return eris.Wrap(err, "cleanup")
		}

		fmt.Fprintf(os.Stdout, "Cleaned list %s\n", cleanupListID)
		formatCleanupSummary(os.Stdout, *summary)
		return nil
	},
}

func init() {
	cleanupCmd.Flags().StringVar(&cleanupListID, "list", "", "list ID (required)")
	_ = cleanupCmd.MarkFlagRequired("list")
	rootCmd.AddCommand(cleanupCmd)
}
