package enrich

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dataforge/internal/model"
)

// ResetFlags rewrites every terminal enrichment flag to needs_enrichment so
// the planner considers the rows again. It returns the rows with the reset
// applied and the number of rows changed. Rows are written one at a time;
// the first store failure stops the reset.
func ResetFlags(ctx context.Context, st RowStore, rows []model.Row) ([]model.Row, int, error) {
	out := make([]model.Row, len(rows))
	count := 0
	for i, row := range rows {
		out[i] = row.Clone()

		flags := map[string]model.Flag{}
		for col, f := range row.Flags {
			if f.IsTerminal() {
				flags[col] = model.FlagNeedsEnrichment
			}
		}
		if len(flags) == 0 {
			continue
		}

		if err := st.UpdateRow(ctx, row.ID, model.RowUpdate{Flags: flags}); err != nil {
			return out, count, eris.Wrapf(err, "enrich: reset flags for row %s", row.ID)
		}
		for col, f := range flags {
			out[i].Flags[col] = f
		}
		count++
	}

	zap.L().Info("enrich: reset terminal flags", zap.Int("rows", count))
	return out, count, nil
}
