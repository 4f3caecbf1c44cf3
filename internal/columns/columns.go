// Package columns maps arbitrary CSV header names onto the semantic roles the
// cleanup and enrichment pipelines care about.
package columns

import "regexp"

// Role is a semantic column role.
type Role string

const (
	RoleName      Role = "name"
	RoleFirstName Role = "first_name"
	RoleLastName  Role = "last_name"
	RoleEmail     Role = "email"
	RolePhone     Role = "phone"
	RoleWebsite   Role = "website"
	RoleDomain    Role = "domain"
	RoleTitle     Role = "title"
)

// Default write targets used when no column resolves for a role.
const (
	DefaultFirstName = "First Name"
	DefaultLastName  = "Last Name"
	DefaultEmail     = "Email"
	DefaultTitle     = "Title"
	EmailTypeColumn  = "email_type"
	SplitFirstColumn = "first_name"
	SplitLastColumn  = "last_name"
)

// Patterns are checked in order; all are anchored and case-insensitive.
var patterns = map[Role][]*regexp.Regexp{
	RoleName: compile(
		`^name$`,
		`^full[_\s]?name$`,
		`^contact[_\s]?name$`,
		`^customer[_\s]?name$`,
	),
	RoleFirstName: compile(
		`^first[_\s]?name$`,
		`^fname$`,
	),
	RoleLastName: compile(
		`^last[_\s]?name$`,
		`^lname$`,
		`^surname$`,
	),
	RoleEmail: compile(
		`^email$`,
		`^e[_\s]?mail$`,
		`^email[_\s]?address$`,
	),
	RolePhone: compile(
		`^phone$`,
		`^phone[_\s]?number$`,
		`^tel$`,
		`^telephone$`,
		`^mobile$`,
		`^cell$`,
	),
	RoleWebsite: compile(
		`^website$`,
		`^web[_\s]?site$`,
		`^url$`,
		`^web$`,
		`^homepage$`,
		`^site$`,
		`^company[_\s]?website$`,
		`^website[_\s]?url$`,
	),
	RoleDomain: compile(
		`^domain$`,
		`^company[_\s]?domain$`,
		`^email[_\s]?domain$`,
	),
	RoleTitle: compile(
		`^title$`,
		`^job[_\s]?title$`,
		`^position$`,
		`^role$`,
	),
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + e)
	}
	return out
}

// Resolved holds the column chosen for each role. Empty means unresolved.
type Resolved struct {
	Name      string `json:"name,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Website   string `json:"website,omitempty"`
	Domain    string `json:"domain,omitempty"`
	Title     string `json:"title,omitempty"`
}

// Resolve picks, for each role, the first column in column order that
// matches any of the role's patterns. Pattern order only matters for Find.
func Resolve(cols []string) Resolved {
	return Resolved{
		Name:      Find(cols, RoleName),
		FirstName: Find(cols, RoleFirstName),
		LastName:  Find(cols, RoleLastName),
		Email:     Find(cols, RoleEmail),
		Phone:     Find(cols, RolePhone),
		Website:   Find(cols, RoleWebsite),
		Domain:    Find(cols, RoleDomain),
		Title:     Find(cols, RoleTitle),
	}
}

// Find returns the first column matching role, or "".
func Find(cols []string, role Role) string {
	for _, c := range cols {
		if Matches(c, role) {
			return c
		}
	}
	return ""
}

// FindAll returns every column matching role, in column order.
func FindAll(cols []string, role Role) []string {
	var out []string
	for _, c := range cols {
		if Matches(c, role) {
			out = append(out, c)
		}
	}
	return out
}

// Matches reports whether col matches any pattern for role.
func Matches(col string, role Role) bool {
	for _, re := range patterns[role] {
		if re.MatchString(col) {
			return true
		}
	}
	return false
}

// FirstNameTarget is the column enrichment writes first names to.
func (r Resolved) FirstNameTarget() string { return orDefault(r.FirstName, DefaultFirstName) }

// LastNameTarget is the column enrichment writes last names to.
func (r Resolved) LastNameTarget() string { return orDefault(r.LastName, DefaultLastName) }

// EmailTarget is the column enrichment writes emails to.
func (r Resolved) EmailTarget() string { return orDefault(r.Email, DefaultEmail) }

// TitleTarget is the column enrichment writes titles to.
func (r Resolved) TitleTarget() string { return orDefault(r.Title, DefaultTitle) }

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
