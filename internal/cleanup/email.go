package cleanup

import (
	"slices"
	"strings"

	"github.com/sells-group/dataforge/internal/columns"
	"github.com/sells-group/dataforge/internal/email"
	"github.com/sells-group/dataforge/internal/model"
)

// Email type values.
const (
	EmailTypePersonal = "personal"
	EmailTypeBusiness = "business"
)

// DetectEmailType classifies each address as personal or business into the
// email_type column. Values without "@" are skipped.
func DetectEmailType(rows []model.Row, cols []string) ([]string, int) {
	emailCol := columns.Find(cols, columns.RoleEmail)
	if emailCol == "" {
		return cols, 0
	}

	count := 0
	for i := range rows {
		addr := email.Normalize(rows[i].Data[emailCol])
		if !strings.Contains(addr, "@") {
			continue
		}
		_, domain, _ := strings.Cut(addr, "@")

		typ, flag := EmailTypeBusiness, model.FlagBusinessEmail
		if email.IsFreeDomain(domain) {
			typ, flag = EmailTypePersonal, model.FlagPersonalEmail
		}

		if rows[i].Data[columns.EmailTypeColumn] == typ && rows[i].Flags[columns.EmailTypeColumn] == flag {
			continue
		}
		rows[i].Set(columns.EmailTypeColumn, typ, flag)
		count++
	}

	if !slices.Contains(cols, columns.EmailTypeColumn) {
		cols = append(cols, columns.EmailTypeColumn)
	}
	return cols, count
}
