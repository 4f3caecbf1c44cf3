package cleanup

import (
	"fmt"
	"strings"

	"github.com/sells-group/dataforge/internal/columns"
	"github.com/sells-group/dataforge/internal/model"
)

// FormatPhones rewrites US numbers in every phone column as (AAA) BBB-CCCC.
// Values that are not 10 digits (or 11 with a leading 1) are left alone.
func FormatPhones(rows []model.Row, cols []string) int {
	phoneCols := columns.FindAll(cols, columns.RolePhone)
	if len(phoneCols) == 0 {
		return 0
	}

	count := 0
	for i := range rows {
		changed := false
		for _, c := range phoneCols {
			v := rows[i].Data[c]
			if v == "" {
				continue
			}
			formatted, ok := FormatPhone(v)
			if !ok || formatted == v {
				continue
			}
			rows[i].Set(c, formatted, model.FlagFormatted)
			changed = true
		}
		if changed {
			count++
		}
	}
	return count
}

// FormatPhone formats raw as a US number, reporting false when the digit
// count does not fit.
func FormatPhone(raw string) (string, bool) {
	d := Digits(raw)
	if len(d) == 11 && d[0] == '1' {
		d = d[1:]
	}
	if len(d) != 10 {
		return raw, false
	}
	return fmt.Sprintf("(%s) %s-%s", d[:3], d[3:6], d[6:]), true
}

// Digits strips everything but ASCII digits.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
