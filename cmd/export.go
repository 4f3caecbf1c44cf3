package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/dataforge/internal/listio"
)

var (
	exportListID         string
	exportOut            string
	exportSkipDuplicates bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a list to CSV or XLSX",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		// Fail on the extension before touching the store.
		if _, err := listio.DetectFormat(exportOut); err != nil {
			return err
		}

		env, err := initEnv(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		n, err := env.Service.Export(ctx, exportListID, exportOut, listio.ExportOptions{
			SkipDuplicates: exportSkipDuplicates,
		})
		if err != nil {
			return eris.Wrap(err, "export")
		}

		fmt.Fprintf(os.Stdout, "Exported %d rows to %s\n", n, exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportListID, "list", "", "list ID (required)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output path ending in .csv or .xlsx (required)")
	exportCmd.Flags().BoolVar(&exportSkipDuplicates, "skip-duplicates", false, "omit rows marked as duplicates")
	_ = exportCmd.MarkFlagRequired("list")
	_ = exportCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(exportCmd)
}
