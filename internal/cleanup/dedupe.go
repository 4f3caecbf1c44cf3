package cleanup

import (
	"strings"

	"github.com/sells-group/dataforge/internal/columns"
	"github.com/sells-group/dataforge/internal/model"
)

const keySep = "||"

// RemoveDuplicates marks every row whose email+phone key repeats an earlier
// row's. Rows with an empty key are never duplicates, and rows already
// marked are neither unmarked nor counted again.
func RemoveDuplicates(rows []model.Row, cols []string) int {
	emailCol := columns.Find(cols, columns.RoleEmail)
	phoneCol := columns.Find(cols, columns.RolePhone)
	if emailCol == "" && phoneCol == "" {
		return 0
	}

	seen := make(map[string]struct{}, len(rows))
	count := 0
	for i := range rows {
		key := DedupKey(rows[i], emailCol, phoneCol)
		if key == "" {
			continue
		}
		_, dup := seen[key]
		seen[key] = struct{}{}
		if rows[i].IsDuplicate || !dup {
			continue
		}
		rows[i].IsDuplicate = true
		count++
	}
	return count
}

// DedupKey is the lower-cased email and digits-only phone joined by "||",
// or "" when both parts are blank.
func DedupKey(r model.Row, emailCol, phoneCol string) string {
	var e, p string
	if emailCol != "" {
		e = strings.ToLower(strings.TrimSpace(r.Data[emailCol]))
	}
	if phoneCol != "" {
		p = Digits(r.Data[phoneCol])
	}
	if e == "" && p == "" {
		return ""
	}
	return e + keySep + p
}
