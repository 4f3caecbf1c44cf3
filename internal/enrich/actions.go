package enrich

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dataforge/internal/columns"
	"github.com/sells-group/dataforge/internal/email"
	"github.com/sells-group/dataforge/internal/model"
	"github.com/sells-group/dataforge/internal/resilience"
)

var (
	// ErrNoText means the website yielded no usable text.
	ErrNoText = eris.New("enrich: no text extracted")
	// ErrNoContact means no decision-maker could be identified.
	ErrNoContact = eris.New("enrich: no contact identified")
	// ErrNoEmail means discovery returned no address.
	ErrNoEmail = eris.New("enrich: no email found")
	// ErrMissingInputs means a name or domain needed for the action is blank.
	ErrMissingInputs = eris.New("enrich: first name, last name and domain are required")
	// ErrNotConfigured means the collaborator for an action was not wired.
	ErrNotConfigured = eris.New("enrich: collaborator not configured")
)

// Actions performs one enrichment step for one row and commits its result
// to the store. Each method is a single capability call plus one row write.
type Actions struct {
	extractor TextExtractor
	inferrer  ContactInferrer
	finder    EmailFinder
	verifier  EmailVerifier
	store     RowStore
}

// NewActions wires the collaborators. Any of them may be nil; the matching
// action then fails with a configuration error.
func NewActions(ext TextExtractor, inf ContactInferrer, finder EmailFinder, ver EmailVerifier, st RowStore) *Actions {
	return &Actions{
		extractor: ext,
		inferrer:  inf,
		finder:    finder,
		verifier:  ver,
		store:     st,
	}
}

// ScrapeRequest asks for the decision-maker behind a row's website.
type ScrapeRequest struct {
	RowID        string            `json:"rowId"`
	WebsiteURL   string            `json:"websiteUrl"`
	ExistingData map[string]string `json:"existingData"`
	Columns      columns.Resolved  `json:"-"`
}

// FindEmailRequest asks for a person's address at a domain.
type FindEmailRequest struct {
	RowID     string           `json:"rowId"`
	FirstName string           `json:"firstName"`
	LastName  string           `json:"lastName"`
	Domain    string           `json:"domain"`
	Columns   columns.Resolved `json:"-"`
}

// VerifyRequest asks for an address's deliverability.
type VerifyRequest struct {
	RowID   string           `json:"rowId"`
	Email   string           `json:"email"`
	Columns columns.Resolved `json:"-"`
}

// Scrape extracts text from the website, infers the contact and writes the
// name and title fields. A contact needs a first name and a positive
// confidence to count.
func (a *Actions) Scrape(ctx context.Context, req ScrapeRequest) (*model.Contact, error) {
	if a.extractor == nil || a.inferrer == nil {
		return nil, resilience.ConfigError(eris.Wrap(ErrNotConfigured, "enrich: scrape"))
	}

	text, err := a.extractor.Extract(ctx, req.WebsiteURL)
	if err != nil {
		return nil, eris.Wrapf(err, "enrich: extract %s", req.WebsiteURL)
	}
	if strings.TrimSpace(text) == "" {
		return nil, resilience.DataError(ErrNoText)
	}

	c, err := a.inferrer.Infer(ctx, text, req.ExistingData)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: infer contact")
	}
	if c == nil || strings.TrimSpace(c.FirstName) == "" || c.Confidence <= 0 {
		return nil, resilience.DataError(ErrNoContact)
	}

	data := map[string]string{}
	flags := map[string]model.Flag{}
	set := func(col, v string) {
		if v = strings.TrimSpace(v); v != "" {
			data[col] = v
			flags[col] = model.FlagEnriched
		}
	}
	set(req.Columns.FirstNameTarget(), c.FirstName)
	set(req.Columns.LastNameTarget(), c.LastName)
	set(req.Columns.TitleTarget(), c.Title)

	if err := a.write(ctx, req.RowID, data, flags, model.SourceWebsite); err != nil {
		return nil, err
	}
	return c, nil
}

// FindEmail looks up the address and writes it to the email column.
func (a *Actions) FindEmail(ctx context.Context, req FindEmailRequest) (string, error) {
	if a.finder == nil {
		return "", resilience.ConfigError(eris.Wrap(ErrNotConfigured, "enrich: find email"))
	}
	if req.FirstName == "" || req.LastName == "" || req.Domain == "" {
		return "", resilience.DataError(ErrMissingInputs)
	}

	addr, err := a.finder.Find(ctx, req.FirstName, req.LastName, req.Domain)
	if err != nil {
		return "", eris.Wrap(err, "enrich: find email")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", ErrNoEmail
	}

	col := req.Columns.EmailTarget()
	err = a.write(ctx, req.RowID,
		map[string]string{col: addr},
		map[string]model.Flag{col: model.FlagEnriched},
		model.SourceIcypeas,
	)
	if err != nil {
		return "", err
	}
	return addr, nil
}

// ApplyPattern adopts the highest-priority address pattern as the row's
// email.
func (a *Actions) ApplyPattern(ctx context.Context, req FindEmailRequest) (string, error) {
	candidates := email.Patterns(req.FirstName, req.LastName, req.Domain)
	if len(candidates) == 0 {
		return "", resilience.DataError(ErrMissingInputs)
	}
	addr := candidates[0]

	col := req.Columns.EmailTarget()
	err := a.write(ctx, req.RowID,
		map[string]string{col: addr},
		map[string]model.Flag{col: model.FlagEnriched},
		model.SourcePattern,
	)
	if err != nil {
		return "", err
	}
	return addr, nil
}

// VerifyEmail checks deliverability and writes the email's status flag:
// role_account for generic mailboxes, otherwise the returned status. Nothing
// is written when verification fails.
func (a *Actions) VerifyEmail(ctx context.Context, req VerifyRequest) (*model.Verification, error) {
	if a.verifier == nil {
		return nil, resilience.ConfigError(eris.Wrap(ErrNotConfigured, "enrich: verify email"))
	}

	v, err := a.verifier.Verify(ctx, req.Email)
	if err != nil {
		return v, eris.Wrap(err, "enrich: verify email")
	}
	if v == nil {
		return nil, resilience.ParseError(eris.New("enrich: empty verification result"))
	}

	flag := v.Status.Flag()
	if v.IsRoleAccount {
		flag = model.FlagRoleAccount
	}
	col := req.Columns.EmailTarget()
	if err := a.update(ctx, req.RowID, model.RowUpdate{Flags: map[string]model.Flag{col: flag}}); err != nil {
		return nil, err
	}
	return v, nil
}

// write merges data and flags and appends source to the row's enrichment
// provenance.
func (a *Actions) write(ctx context.Context, rowID string, data map[string]string, flags map[string]model.Flag, source string) error {
	if a.store == nil {
		return resilience.ConfigError(eris.Wrap(ErrNotConfigured, "enrich: row store"))
	}
	row, err := a.store.GetRow(ctx, rowID)
	if err != nil {
		return resilience.DataError(eris.Wrapf(err, "enrich: get row %s", rowID))
	}
	data[model.EnrichmentSourceColumn] = model.AppendSource(row.Data[model.EnrichmentSourceColumn], source)
	return a.update(ctx, rowID, model.RowUpdate{Data: data, Flags: flags})
}

func (a *Actions) update(ctx context.Context, rowID string, upd model.RowUpdate) error {
	if a.store == nil {
		return resilience.ConfigError(eris.Wrap(ErrNotConfigured, "enrich: row store"))
	}
	if err := a.store.UpdateRow(ctx, rowID, upd); err != nil {
		return resilience.DataError(eris.Wrapf(err, "enrich: update row %s", rowID))
	}
	return nil
}
