package enrich

import (
	"fmt"
	"maps"
	"strings"

	"github.com/sells-group/dataforge/internal/columns"
	"github.com/sells-group/dataforge/internal/email"
	"github.com/sells-group/dataforge/internal/model"
)

const maxLabelLen = 40

// Analyze decides one enrichment need per row. The first matching rule wins:
// terminal flag or duplicate → skip, business email → verify_only, website →
// scrape_and_find, name + domain → find_email, otherwise skip. The domain
// comes from a business email, else the website, else a bare domain column.
func Analyze(rows []model.Row, res columns.Resolved) []*model.Plan {
	firstCol := res.FirstNameTarget()
	lastCol := res.LastNameTarget()

	plans := make([]*model.Plan, 0, len(rows))
	for _, row := range rows {
		plan := &model.Plan{
			RowID:        row.ID,
			RowLabel:     rowLabel(row, res),
			Need:         model.NeedSkip,
			ExistingData: maps.Clone(row.Data),
		}
		plans = append(plans, plan)

		if row.HasTerminalFlag() || row.IsDuplicate {
			continue
		}

		var addr, website string
		if res.Email != "" {
			addr = strings.TrimSpace(row.Data[res.Email])
		}
		if res.Website != "" {
			website = strings.TrimSpace(row.Data[res.Website])
		}
		first := strings.TrimSpace(row.Data[firstCol])
		last := strings.TrimSpace(row.Data[lastCol])

		emailDomain := ""
		if addr != "" {
			emailDomain = email.Domain(addr)
		}
		business := emailDomain != "" && !email.IsFreeDomain(emailDomain)

		domain := emailDomain
		if !business {
			domain = ""
			if website != "" {
				domain = email.WebsiteDomain(website)
			}
			if domain == "" && res.Domain != "" {
				domain = email.WebsiteDomain(row.Data[res.Domain])
			}
		}

		switch {
		case addr != "" && business:
			plan.Need = model.NeedVerifyOnly
			plan.Email = addr
			plan.Domain = domain
		case website != "":
			plan.Need = model.NeedScrapeAndFind
			plan.WebsiteURL = website
			plan.FirstName = first
			plan.LastName = last
			plan.Domain = domain
		case first != "" && last != "" && domain != "":
			plan.Need = model.NeedFindEmail
			plan.FirstName = first
			plan.LastName = last
			plan.Domain = domain
		}
	}
	return plans
}

// CountNeeds tallies plans by need.
func CountNeeds(plans []*model.Plan) map[model.Need]int {
	out := make(map[model.Need]int)
	for _, p := range plans {
		out[p.Need]++
	}
	return out
}

// rowLabel is a short human-readable handle for log entries.
func rowLabel(row model.Row, res columns.Resolved) string {
	name := strings.TrimSpace(strings.TrimSpace(row.Data[res.FirstNameTarget()]) + " " + strings.TrimSpace(row.Data[res.LastNameTarget()]))
	if name == "" && res.Name != "" {
		name = strings.TrimSpace(row.Data[res.Name])
	}
	label := name
	if label == "" && res.Website != "" {
		label = strings.TrimSpace(row.Data[res.Website])
	}
	if label == "" && res.Email != "" {
		label = strings.TrimSpace(row.Data[res.Email])
	}
	if label == "" {
		label = fmt.Sprintf("Row %d", row.Index+1)
	}
	return truncate(label, maxLabelLen)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
