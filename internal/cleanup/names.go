package cleanup

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/dataforge/internal/columns"
	"github.com/sells-group/dataforge/internal/model"
)

// preserveUpper lists words always written in upper case when retitling.
var preserveUpper = map[string]struct{}{
	"LLC": {}, "INC": {}, "CEO": {}, "CTO": {}, "CFO": {}, "COO": {},
	"VP": {}, "SVP": {}, "EVP": {}, "MD": {}, "PHD": {}, "DDS": {},
	"DVM": {}, "RN": {}, "LPN": {}, "PA": {}, "NP": {}, "II": {},
	"III": {}, "IV": {}, "JR": {}, "SR": {}, "USA": {}, "UK": {}, "NYC": {},
}

// SplitNames splits a full-name column into first_name and last_name when
// the column set has neither. The new columns are inserted right after the
// source column once at least one row was split.
func SplitNames(rows []model.Row, cols []string) ([]string, int) {
	nameCol := columns.Find(cols, columns.RoleName)
	if nameCol == "" {
		return cols, 0
	}
	if columns.Find(cols, columns.RoleFirstName) != "" || columns.Find(cols, columns.RoleLastName) != "" {
		return cols, 0
	}

	count := 0
	for i := range rows {
		parts := strings.Fields(rows[i].Data[nameCol])
		if len(parts) == 0 {
			continue
		}
		rows[i].Set(columns.SplitFirstColumn, parts[0], model.FlagSplit)
		rows[i].Set(columns.SplitLastColumn, strings.Join(parts[1:], " "), model.FlagSplit)
		count++
	}
	if count == 0 {
		return cols, 0
	}

	idx := slices.Index(cols, nameCol)
	cols = slices.Insert(cols, idx+1, columns.SplitFirstColumn, columns.SplitLastColumn)
	return cols, count
}

// StandardizeCaps retitles all-upper or all-lower values in every name-like
// column.
func StandardizeCaps(rows []model.Row, cols []string) int {
	var nameCols []string
	for _, c := range cols {
		if columns.Matches(c, columns.RoleName) ||
			columns.Matches(c, columns.RoleFirstName) ||
			columns.Matches(c, columns.RoleLastName) {
			nameCols = append(nameCols, c)
		}
	}
	if len(nameCols) == 0 {
		return 0
	}

	tc := newTitleCaser()
	count := 0
	for i := range rows {
		changed := false
		for _, c := range nameCols {
			v := rows[i].Data[c]
			if !needsRetitle(v) {
				continue
			}
			fixed := tc.title(v)
			if fixed == v {
				continue
			}
			rows[i].Set(c, fixed, model.FlagCleaned)
			changed = true
		}
		if changed {
			count++
		}
	}
	return count
}

func needsRetitle(v string) bool {
	if len([]rune(v)) <= 1 {
		return false
	}
	return v == strings.ToUpper(v) || v == strings.ToLower(v)
}

type titleCaser struct {
	upper cases.Caser
	lower cases.Caser
}

func newTitleCaser() *titleCaser {
	return &titleCaser{
		upper: cases.Upper(language.Und),
		lower: cases.Lower(language.Und),
	}
}

// title capitalizes the first letter of each whitespace-separated word and
// lower-cases the rest, keeping preserved acronyms upper case.
func (t *titleCaser) title(v string) string {
	words := strings.Fields(v)
	for i, w := range words {
		up := t.upper.String(w)
		if _, ok := preserveUpper[up]; ok {
			words[i] = up
			continue
		}
		r := []rune(w)
		words[i] = t.upper.String(string(r[:1])) + t.lower.String(string(r[1:]))
	}
	return strings.Join(words, " ")
}
