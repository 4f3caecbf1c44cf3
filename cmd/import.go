package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	importFile string
	importName string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a CSV or XLSX contact list",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		l, err := env.Service.ImportFile(ctx, importFile, importName)
		if err != nil {
			return eris.Wrap(err, "import")
		}

		fmt.Fprintf(os.Stdout, "Imported %d rows into list %s (%s)\n", l.RowCount, l.ID, l.Name)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "path to a .csv or .xlsx file (required)")
	importCmd.Flags().StringVar(&importName, "name", "", "list name (default: file path)")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
