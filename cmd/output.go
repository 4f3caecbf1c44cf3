package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/dataforge/internal/model"
)

// Output formats for run reports.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// formatCleanupSummary writes per-stage cleanup counters to w.
func formatCleanupSummary(out io.Writer, s model.CleanupSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Names split:\t%d\n", s.NamesSplit)
	_, _ = fmt.Fprintf(w, "Caps fixed:\t%d\n", s.CapsFixed)
	_, _ = fmt.Fprintf(w, "Phones formatted:\t%d\n", s.PhonesFormatted)
	_, _ = fmt.Fprintf(w, "Emails classified:\t%d\n", s.EmailsClassified)
	_, _ = fmt.Fprintf(w, "Duplicates found:\t%d\n", s.DuplicatesFound)
	_, _ = fmt.Fprintf(w, "Missing flagged:\t%d\n", s.MissingFlagged)
	_, _ = fmt.Fprintf(w, "Total changes:\t%d\n", s.Total())
	_ = w.Flush()
}

// writeRun renders an enrichment run in the requested format.
func writeRun(out io.Writer, run *model.Run, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	case formatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(run); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return enc.Close()
	case formatText, "":
		formatRunText(out, run)
		return nil
	default:
		return eris.Errorf("unsupported output format %q (want text, json or yaml)", format)
	}
}

func formatRunText(out io.Writer, run *model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Run:\t%s\n", run.ID)
	_, _ = fmt.Fprintf(w, "List:\t%s\n", run.ListID)
	_, _ = fmt.Fprintf(w, "Status:\t%s\n", run.Status)
	if run.Error != "" {
		_, _ = fmt.Fprintf(w, "Error:\t%s\n", run.Error)
	}
	if !run.UpdatedAt.IsZero() && run.Status != model.RunStatusRunning {
		_, _ = fmt.Fprintf(w, "Duration:\t%s\n", run.UpdatedAt.Sub(run.CreatedAt).Round(time.Second))
	}

	if s := run.Summary; s != nil {
		_, _ = fmt.Fprintf(w, "Contacts extracted:\t%d\n", s.ContactsExtracted)
		_, _ = fmt.Fprintf(w, "Emails found:\t%d\n", s.EmailsFound)
		_, _ = fmt.Fprintf(w, "Patterns generated:\t%d\n", s.PatternsGenerated)
		_, _ = fmt.Fprintf(w, "Emails verified:\t%d\n", s.EmailsVerified)
		_, _ = fmt.Fprintf(w, "  Valid:\t%d\n", s.ValidEmails)
		_, _ = fmt.Fprintf(w, "  Invalid:\t%d\n", s.InvalidEmails)
		_, _ = fmt.Fprintf(w, "  Risky:\t%d\n", s.RiskyEmails)
		_, _ = fmt.Fprintf(w, "  Unknown:\t%d\n", s.UnknownEmails)
		_, _ = fmt.Fprintf(w, "Role accounts:\t%d\n", s.RoleAccounts)
		_, _ = fmt.Fprintf(w, "Errors:\t%d\n", s.Errors)
	}
	_ = w.Flush()

	if run.Summary == nil || len(run.Summary.Log) == 0 {
		return
	}
	_, _ = fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TIME\tROW\tACTION\tRESULT\tDETAIL")
	for _, e := range run.Summary.Log {
		label := e.RowLabel
		if label == "" {
			label = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Format("15:04:05"), label, e.Action, e.Result, e.Detail)
	}
	_ = w.Flush()
}
