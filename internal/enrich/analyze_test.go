package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dataforge/internal/columns"
	"github.com/sells-group/dataforge/internal/model"
)

var planCols = []string{"First Name", "Last Name", "Email", "Website"}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		data  map[string]string
		flags map[string]model.Flag
		dup   bool
		want  model.Plan
	}{
		{
			name: "website only",
			data: map[string]string{"Website": "acme.com"},
			want: model.Plan{Need: model.NeedScrapeAndFind, WebsiteURL: "acme.com", Domain: "acme.com"},
		},
		{
			name: "business email",
			data: map[string]string{"Email": " jane@acme.io ", "Website": "other.com"},
			want: model.Plan{Need: model.NeedVerifyOnly, Email: "jane@acme.io", Domain: "acme.io"},
		},
		{
			name: "name and website domain",
			data: map[string]string{"First Name": "Jane", "Last Name": "Doe", "Website": "https://www.acme.io/about"},
			want: model.Plan{
				Need:       model.NeedScrapeAndFind,
				WebsiteURL: "https://www.acme.io/about",
				FirstName:  "Jane",
				LastName:   "Doe",
				Domain:     "acme.io",
			},
		},
		{
			name: "personal email with website",
			data: map[string]string{"Email": "jane@gmail.com", "Website": "acme.io"},
			want: model.Plan{Need: model.NeedScrapeAndFind, WebsiteURL: "acme.io", Domain: "acme.io"},
		},
		{
			name: "personal email no website",
			data: map[string]string{"First Name": "Jane", "Last Name": "Doe", "Email": "jane@gmail.com"},
			want: model.Plan{Need: model.NeedSkip},
		},
		{
			name: "malformed email falls through to website",
			data: map[string]string{"Email": "jane@@acme.io", "Website": "acme.io"},
			want: model.Plan{Need: model.NeedScrapeAndFind, WebsiteURL: "acme.io", Domain: "acme.io"},
		},
		{
			name: "unparseable website keeps scrape without domain",
			data: map[string]string{"Website": "https://%zz"},
			want: model.Plan{Need: model.NeedScrapeAndFind, WebsiteURL: "https://%zz"},
		},
		{
			name: "nothing actionable",
			data: map[string]string{"First Name": "Jane"},
			want: model.Plan{Need: model.NeedSkip},
		},
		{
			name:  "terminal flag",
			data:  map[string]string{"Email": "jane@acme.io"},
			flags: map[string]model.Flag{"Email": model.FlagValid},
			want:  model.Plan{Need: model.NeedSkip},
		},
		{
			name:  "non-terminal flags do not skip",
			data:  map[string]string{"Email": "jane@acme.io"},
			flags: map[string]model.Flag{"Email": model.FlagNeedsEnrichment, "Website": model.FlagMissing},
			want:  model.Plan{Need: model.NeedVerifyOnly, Email: "jane@acme.io", Domain: "acme.io"},
		},
		{
			name: "duplicate",
			data: map[string]string{"Email": "jane@acme.io"},
			dup:  true,
			want: model.Plan{Need: model.NeedSkip},
		},
	}

	res := columns.Resolve(planCols)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			row := model.Row{ID: "r1", Data: tt.data, Flags: tt.flags, IsDuplicate: tt.dup}
			plans := Analyze([]model.Row{row}, res)
			require.Len(t, plans, 1)

			got := *plans[0]
			assert.Equal(t, "r1", got.RowID)
			assert.Equal(t, tt.data, got.ExistingData)
			got.RowID, got.RowLabel, got.ExistingData = "", "", nil
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnalyze_FindEmailFromDomainColumn(t *testing.T) {
	t.Parallel()

	res := columns.Resolve([]string{"first_name", "last_name", "Email", "Website", "domain"})
	tests := []struct {
		name string
		data map[string]string
		want model.Need
	}{
		{"name and domain", map[string]string{"first_name": "Jane", "last_name": "Doe", "domain": "acme.io"}, model.NeedFindEmail},
		{"domain with www", map[string]string{"first_name": "Jane", "last_name": "Doe", "domain": "www.acme.io"}, model.NeedFindEmail},
		{"missing last name", map[string]string{"first_name": "Jane", "domain": "acme.io"}, model.NeedSkip},
		{"personal email", map[string]string{"first_name": "Jane", "last_name": "Doe", "Email": "j@gmail.com", "domain": "acme.io"}, model.NeedFindEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			plans := Analyze([]model.Row{{ID: "r1", Data: tt.data}}, res)
			require.Len(t, plans, 1)
			assert.Equal(t, tt.want, plans[0].Need)
			if tt.want == model.NeedFindEmail {
				assert.Equal(t, "Jane", plans[0].FirstName)
				assert.Equal(t, "Doe", plans[0].LastName)
				assert.Equal(t, "acme.io", plans[0].Domain)
			}
		})
	}
}

func TestAnalyze_SnapshotIsCopy(t *testing.T) {
	t.Parallel()

	row := model.Row{ID: "r1", Data: map[string]string{"Website": "acme.com"}}
	plans := Analyze([]model.Row{row}, columns.Resolve(planCols))
	plans[0].ExistingData["Website"] = "changed"
	assert.Equal(t, "acme.com", row.Data["Website"])
}

func TestAnalyze_OnePlanPerRowInOrder(t *testing.T) {
	t.Parallel()

	rows := []model.Row{
		{ID: "a", Data: map[string]string{"Website": "a.com"}},
		{ID: "b"},
		{ID: "c", Data: map[string]string{"Email": "c@c.io"}},
	}
	plans := Analyze(rows, columns.Resolve(planCols))
	require.Len(t, plans, 3)
	assert.Equal(t, "a", plans[0].RowID)
	assert.Equal(t, "b", plans[1].RowID)
	assert.Equal(t, "c", plans[2].RowID)

	counts := CountNeeds(plans)
	assert.Equal(t, 1, counts[model.NeedScrapeAndFind])
	assert.Equal(t, 1, counts[model.NeedSkip])
	assert.Equal(t, 1, counts[model.NeedVerifyOnly])
}

func TestRowLabel(t *testing.T) {
	t.Parallel()

	res := columns.Resolve([]string{"Name", "First Name", "Last Name", "Email", "Website"})
	tests := []struct {
		name string
		row  model.Row
		want string
	}{
		{"first and last", model.Row{Data: map[string]string{"First Name": "Jane", "Last Name": "Doe"}}, "Jane Doe"},
		{"full name", model.Row{Data: map[string]string{"Name": "Jane Doe"}}, "Jane Doe"},
		{"website", model.Row{Data: map[string]string{"Website": "acme.com", "Email": "x@y.z"}}, "acme.com"},
		{"email", model.Row{Data: map[string]string{"Email": "x@y.z"}}, "x@y.z"},
		{"fallback", model.Row{Index: 4}, "Row 5"},
		{"truncated", model.Row{Data: map[string]string{"Website": "https://www.an-extremely-long-domain-name-for-testing.com"}}, "https://www.an-extremely-long-domain-..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, rowLabel(tt.row, res))
		})
	}
}
