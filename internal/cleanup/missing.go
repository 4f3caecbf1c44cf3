package cleanup

import (
	"strings"

	"github.com/sells-group/dataforge/internal/model"
)

// FlagMissing flags every blank field "missing" unless it already carries a
// flag.
func FlagMissing(rows []model.Row, cols []string) int {
	count := 0
	for i := range rows {
		changed := false
		for _, c := range cols {
			if strings.TrimSpace(rows[i].Data[c]) != "" {
				continue
			}
			if _, ok := rows[i].Flags[c]; ok {
				continue
			}
			ensureMaps(&rows[i])
			rows[i].Flags[c] = model.FlagMissing
			changed = true
		}
		if changed {
			count++
		}
	}
	return count
}
