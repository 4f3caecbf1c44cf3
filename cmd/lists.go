package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/dataforge/internal/model"
)

var listsCmd = &cobra.Command{
	Use:   "lists",
	Short: "List imported contact lists",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		ls, err := env.Store.ListLists(ctx)
		if err != nil {
			return eris.Wrap(err, "lists")
		}
		if len(ls) == 0 {
			fmt.Fprintln(os.Stderr, "No lists found.")
			return nil
		}

		formatLists(os.Stdout, ls)
		return nil
	},
}

var deleteListID string

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a list with its rows and runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Service.DeleteList(ctx, deleteListID); err != nil {
			return eris.Wrap(err, "delete")
		}
		fmt.Fprintf(os.Stdout, "Deleted list %s\n", deleteListID)
		return nil
	},
}

func init() {
	deleteCmd.Flags().StringVar(&deleteListID, "list", "", "list ID (required)")
	_ = deleteCmd.MarkFlagRequired("list")

	rootCmd.AddCommand(listsCmd)
	rootCmd.AddCommand(deleteCmd)
}

// formatLists writes a tabular list of lists to w.
func formatLists(out io.Writer, ls []model.List) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tROWS\tCOLUMNS\tCLEANED\tENRICHED\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t----\t----\t-------\t-------\t--------\t-------")

	for _, l := range ls {
		name := l.Name
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
			l.ID,
			name,
			l.RowCount,
			len(l.Columns),
			yesNo(l.Cleaned),
			yesNo(l.Enriched),
			l.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
