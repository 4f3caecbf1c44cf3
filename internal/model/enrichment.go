package model

import "time"

// Need is the enrichment work a row requires.
type Need string

const (
	NeedScrapeAndFind    Need = "scrape_and_find"   // website known, needs contact + email
	NeedFindEmail        Need = "find_email"        // name + domain known, needs email lookup
	NeedVerifyOnly       Need = "verify_only"       // business email known, verify it
	NeedGeneratePatterns Need = "generate_patterns" // email lookup failed, guess from patterns
	NeedSkip             Need = "skip"              // already enriched or nothing to work with
)

// Plan is the per-row enrichment decision for one run. Phases fill in its
// fields as they learn more and may re-tag Need.
type Plan struct {
	RowID        string            `json:"row_id"`
	RowLabel     string            `json:"row_label"`
	Need         Need              `json:"need"`
	WebsiteURL   string            `json:"website_url,omitempty"`
	FirstName    string            `json:"first_name,omitempty"`
	LastName     string            `json:"last_name,omitempty"`
	Domain       string            `json:"domain,omitempty"`
	Email        string            `json:"email,omitempty"`
	ExistingData map[string]string `json:"existing_data,omitempty"`
}

// HasNameAndDomain reports whether the plan carries enough to look up or
// guess an email.
func (p *Plan) HasNameAndDomain() bool {
	return p.FirstName != "" && p.LastName != "" && p.Domain != ""
}

// Action tags an audit log entry.
type Action string

const (
	ActionResolveColumns  Action = "resolve_columns"
	ActionAnalyzeNeeds    Action = "analyze_needs"
	ActionScrape          Action = "scrape"
	ActionFindEmail       Action = "find_email"
	ActionGeneratePattern Action = "generate_pattern"
	ActionVerifyEmail     Action = "verify_email"
	ActionComplete        Action = "complete"
)

// Result is the outcome of a logged action.
type Result string

const (
	ResultSuccess Result = "success"
	ResultError   Result = "error"
	ResultSkip    Result = "skip"
)

// LogEntry is one line of the enrichment audit log. RowID is empty for
// system-level entries.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	RowID     string    `json:"row_id" yaml:"row_id"`
	RowLabel  string    `json:"row_label" yaml:"row_label"`
	Action    Action    `json:"action" yaml:"action"`
	Result    Result    `json:"result" yaml:"result"`
	Detail    string    `json:"detail" yaml:"detail"`
}

// EnrichmentSummary aggregates the counters and audit log of one run.
type EnrichmentSummary struct {
	ContactsExtracted int        `json:"contacts_extracted" yaml:"contacts_extracted"`
	EmailsFound       int        `json:"emails_found" yaml:"emails_found"`
	EmailsVerified    int        `json:"emails_verified" yaml:"emails_verified"`
	ValidEmails       int        `json:"valid_emails" yaml:"valid_emails"`
	InvalidEmails     int        `json:"invalid_emails" yaml:"invalid_emails"`
	RiskyEmails       int        `json:"risky_emails" yaml:"risky_emails"`
	UnknownEmails     int        `json:"unknown_emails" yaml:"unknown_emails"`
	RoleAccounts      int        `json:"role_accounts" yaml:"role_accounts"`
	PatternsGenerated int        `json:"patterns_generated" yaml:"patterns_generated"`
	Errors            int        `json:"errors" yaml:"errors"`
	Log               []LogEntry `json:"log" yaml:"log"`
}

// Progress is reported before each unit of enrichment work.
type Progress struct {
	Step    string `json:"step"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Errors  int    `json:"errors"`
}

// Contact is the decision-maker inferred from a website.
type Contact struct {
	FirstName  string  `json:"first_name,omitempty"`
	LastName   string  `json:"last_name,omitempty"`
	Title      string  `json:"title,omitempty"`
	Confidence float64 `json:"confidence"`
}

// EmailStatus is the deliverability class returned by verification.
type EmailStatus string

const (
	EmailValid   EmailStatus = "valid"
	EmailInvalid EmailStatus = "invalid"
	EmailRisky   EmailStatus = "risky"
	EmailUnknown EmailStatus = "unknown"
)

// Flag returns the row flag recorded for a verified email.
func (s EmailStatus) Flag() Flag {
	switch s {
	case EmailValid:
		return FlagValid
	case EmailInvalid:
		return FlagInvalid
	case EmailRisky:
		return FlagRisky
	default:
		return FlagUnknown
	}
}

// Verification is the result of an email deliverability check.
type Verification struct {
	Status        EmailStatus `json:"status"`
	IsRoleAccount bool        `json:"is_role_account"`
}

// RunStatus is the lifecycle state of a recorded enrichment run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run records one enrichment run over a list.
type Run struct {
	ID        string             `json:"id" yaml:"id"`
	ListID    string             `json:"list_id" yaml:"list_id"`
	Status    RunStatus          `json:"status" yaml:"status"`
	Summary   *EnrichmentSummary `json:"summary,omitempty" yaml:"summary,omitempty"`
	Error     string             `json:"error,omitempty" yaml:"error,omitempty"`
	CreatedAt time.Time          `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" yaml:"updated_at"`
}
