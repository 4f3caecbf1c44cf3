// Package cleanup normalizes and deduplicates imported contact rows. Each
// stage mutates the rows it is given in place and reports how many rows it
// changed; Run chains them in fixed order over a private copy.
package cleanup

import (
	"go.uber.org/zap"

	"github.com/sells-group/dataforge/internal/model"
)

// Result is the output of a full cleanup pass.
type Result struct {
	Rows    []model.Row          `json:"rows"`
	Columns []string             `json:"columns"`
	Summary model.CleanupSummary `json:"summary"`
}

// Run executes the six cleanup stages in order. The input rows and columns
// are left untouched.
func Run(rows []model.Row, cols []string) Result {
	out := make([]model.Row, len(rows))
	for i := range rows {
		out[i] = rows[i].Clone()
	}
	cols = append([]string(nil), cols...)

	var s model.CleanupSummary
	cols, s.NamesSplit = SplitNames(out, cols)
	s.CapsFixed = StandardizeCaps(out, cols)
	s.PhonesFormatted = FormatPhones(out, cols)
	cols, s.EmailsClassified = DetectEmailType(out, cols)
	s.DuplicatesFound = RemoveDuplicates(out, cols)
	s.MissingFlagged = FlagMissing(out, cols)

	zap.L().Debug("cleanup: complete",
		zap.Int("rows", len(out)),
		zap.Int("names_split", s.NamesSplit),
		zap.Int("caps_fixed", s.CapsFixed),
		zap.Int("phones_formatted", s.PhonesFormatted),
		zap.Int("emails_classified", s.EmailsClassified),
		zap.Int("duplicates_found", s.DuplicatesFound),
		zap.Int("missing_flagged", s.MissingFlagged),
	)

	return Result{Rows: out, Columns: cols, Summary: s}
}

func ensureMaps(r *model.Row) {
	if r.Data == nil {
		r.Data = make(map[string]string)
	}
	if r.Flags == nil {
		r.Flags = make(map[string]model.Flag)
	}
}
