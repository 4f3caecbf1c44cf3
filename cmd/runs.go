package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var runsFormat string

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect enrichment run history",
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the summary and log of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		run, err := env.Store.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}
		return writeRun(os.Stdout, run, runsFormat)
	},
}

func init() {
	runsShowCmd.Flags().StringVar(&runsFormat, "format", formatText, "report format: text, json or yaml")
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}
