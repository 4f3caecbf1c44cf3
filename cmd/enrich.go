package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/dataforge/internal/lists"
	"github.com/sells-group/dataforge/internal/model"
)

var (
	enrichListID string
	enrichReset  bool
	enrichFormat string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Find decision-makers and emails for a list",
	Long:  "Scrapes websites for contacts, looks up emails, falls back to address patterns and verifies every email found.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "enrichment")
		if err != nil {
			return err
		}
		defer env.Close()

		run, err := env.Service.Enrich(ctx, enrichListID, lists.EnrichOptions{
			Reset:      enrichReset,
			OnProgress: logProgress,
		})
		if err != nil {
			return eris.Wrap(err, "enrich")
		}

		if err := writeRun(os.Stdout, run, enrichFormat); err != nil {
			return err
		}
		if run.Status == model.RunStatusFailed {
			return eris.Errorf("enrich: run %s failed: %s", run.ID, run.Error)
		}
		return nil
	},
}

func logProgress(p model.Progress) {
	zap.L().Info("enrich: progress",
		zap.String("step", p.Step),
		zap.Int("current", p.Current),
		zap.Int("total", p.Total),
		zap.Int("errors", p.Errors),
	)
}

func init() {
	enrichCmd.Flags().StringVar(&enrichListID, "list", "", "list ID (required)")
	enrichCmd.Flags().BoolVar(&enrichReset, "reset", false, "reset terminal flags to needs_enrichment before planning")
	enrichCmd.Flags().StringVar(&enrichFormat, "format", formatText, "report format: text, json or yaml")
	_ = enrichCmd.MarkFlagRequired("list")
	rootCmd.AddCommand(enrichCmd)
}
