package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/dataforge/internal/columns"
	"github.com/sells-group/dataforge/internal/model"
	"github.com/sells-group/dataforge/internal/resilience"
)

// DefaultDelay is the pause after every external call.
const DefaultDelay = 200 * time.Millisecond

// ProgressFunc receives progress before each unit of work. It runs on the
// pipeline goroutine and must return promptly.
type ProgressFunc func(model.Progress)

// Pipeline runs the enrichment phases over a list's rows, one external call
// at a time.
type Pipeline struct {
	actions *Actions
	delay   time.Duration
	sleep   func(ctx context.Context, d time.Duration)
	now     func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDelay sets the pause applied after every external call.
func WithDelay(d time.Duration) Option {
	return func(p *Pipeline) { p.delay = d }
}

// WithClock sets the timestamp source for log entries.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline creates a Pipeline around the given actions.
func NewPipeline(actions *Actions, opts ...Option) *Pipeline {
	p := &Pipeline{
		actions: actions,
		delay:   DefaultDelay,
		sleep:   sleepCtx,
		now:     time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// run holds the mutable state of one Run call.
type run struct {
	*Pipeline
	ctx        context.Context
	log        *zap.Logger
	res        columns.Resolved
	summary    *model.EnrichmentSummary
	onProgress ProgressFunc
	current    int
	total      int
}

// Run plans and enriches rows. Failures are isolated to the row they occur
// on; the run always completes and returns a summary. Cancelling ctx makes
// the remaining calls fail fast, and they are counted as errors.
func (p *Pipeline) Run(ctx context.Context, rows []model.Row, cols []string, listID string, onProgress ProgressFunc) *model.EnrichmentSummary {
	r := &run{
		Pipeline:   p,
		ctx:        ctx,
		log:        zap.L().With(zap.String("list_id", listID)),
		res:        columns.Resolve(cols),
		summary:    &model.EnrichmentSummary{Log: []model.LogEntry{}},
		onProgress: onProgress,
	}
	r.log.Info("enrich: starting", zap.Int("rows", len(rows)))

	r.system(model.ActionResolveColumns, model.ResultSuccess, fmt.Sprintf(
		"first_name=%q last_name=%q email=%q website=%q",
		r.res.FirstNameTarget(), r.res.LastNameTarget(), r.res.Email, r.res.Website,
	))

	r.progress("Analyzing rows...", len(rows))
	plans := Analyze(rows, r.res)
	counts := CountNeeds(plans)
	r.system(model.ActionAnalyzeNeeds, model.ResultSuccess, fmt.Sprintf(
		"scrape_and_find=%d find_email=%d verify_only=%d skip=%d",
		counts[model.NeedScrapeAndFind], counts[model.NeedFindEmail],
		counts[model.NeedVerifyOnly], counts[model.NeedSkip],
	))

	var active []*model.Plan
	for _, pl := range plans {
		if pl.Need != model.NeedSkip {
			active = append(active, pl)
		}
	}
	r.total = len(active)

	if r.total > 0 {
		r.scrapePhase(active)
		r.findPhase(active)
		r.patternPhase(active)
		r.verifyPhase(active)
	}

	r.complete()
	return r.summary
}

func (r *run) scrapePhase(plans []*model.Plan) {
	for _, pl := range plans {
		if pl.Need != model.NeedScrapeAndFind {
			continue
		}
		r.tick("Scraping websites...")

		c, err := r.actions.Scrape(r.ctx, ScrapeRequest{
			RowID:        pl.RowID,
			WebsiteURL:   pl.WebsiteURL,
			ExistingData: pl.ExistingData,
			Columns:      r.res,
		})
		if err != nil {
			r.fail(pl, model.ActionScrape, err)
		} else {
			r.summary.ContactsExtracted++
			if v := strings.TrimSpace(c.FirstName); v != "" {
				pl.FirstName = v
			}
			if v := strings.TrimSpace(c.LastName); v != "" {
				pl.LastName = v
			}
			r.entry(pl, model.ActionScrape, model.ResultSuccess, describeContact(c))
		}
		r.pause()
	}
}

func (r *run) findPhase(plans []*model.Plan) {
	for _, pl := range plans {
		if pl.Need != model.NeedScrapeAndFind && pl.Need != model.NeedFindEmail {
			continue
		}
		if !pl.HasNameAndDomain() {
			continue
		}
		r.tick("Finding emails...")

		addr, err := r.actions.FindEmail(r.ctx, FindEmailRequest{
			RowID:     pl.RowID,
			FirstName: pl.FirstName,
			LastName:  pl.LastName,
			Domain:    pl.Domain,
			Columns:   r.res,
		})
		switch {
		case errors.Is(err, ErrNoEmail):
			pl.Need = model.NeedGeneratePatterns
			r.entry(pl, model.ActionFindEmail, model.ResultSkip, "no email found, falling back to patterns")
		case err != nil:
			pl.Need = model.NeedGeneratePatterns
			r.fail(pl, model.ActionFindEmail, err)
		default:
			pl.Email = addr
			r.summary.EmailsFound++
			r.entry(pl, model.ActionFindEmail, model.ResultSuccess, addr)
		}
		r.pause()
	}
}

func (r *run) patternPhase(plans []*model.Plan) {
	for _, pl := range plans {
		if pl.Need != model.NeedGeneratePatterns {
			continue
		}
		r.tick("Generating email patterns...")

		addr, err := r.actions.ApplyPattern(r.ctx, FindEmailRequest{
			RowID:     pl.RowID,
			FirstName: pl.FirstName,
			LastName:  pl.LastName,
			Domain:    pl.Domain,
			Columns:   r.res,
		})
		r.pause()
		if err != nil {
			r.fail(pl, model.ActionGeneratePattern, err)
			continue
		}
		pl.Email = addr
		r.summary.PatternsGenerated++
		r.entry(pl, model.ActionGeneratePattern, model.ResultSuccess, addr)
	}
}

func (r *run) verifyPhase(plans []*model.Plan) {
	for _, pl := range plans {
		if pl.Email == "" {
			continue
		}
		r.tick("Verifying emails...")

		v, err := r.actions.VerifyEmail(r.ctx, VerifyRequest{
			RowID:   pl.RowID,
			Email:   pl.Email,
			Columns: r.res,
		})
		if err != nil {
			r.fail(pl, model.ActionVerifyEmail, err)
			r.pause()
			continue
		}

		r.summary.EmailsVerified++
		switch v.Status {
		case model.EmailValid:
			r.summary.ValidEmails++
		case model.EmailInvalid:
			r.summary.InvalidEmails++
		case model.EmailRisky:
			r.summary.RiskyEmails++
		default:
			r.summary.UnknownEmails++
		}
		detail := fmt.Sprintf("%s: %s", pl.Email, v.Status)
		if v.IsRoleAccount {
			r.summary.RoleAccounts++
			detail += " (role account)"
		}
		r.entry(pl, model.ActionVerifyEmail, model.ResultSuccess, detail)
		r.pause()
	}
}

func (r *run) complete() {
	s := r.summary
	result := model.ResultSuccess
	if s.Errors > 0 {
		result = model.ResultError
	}
	r.system(model.ActionComplete, result, fmt.Sprintf(
		"contacts=%d emails_found=%d patterns=%d verified=%d errors=%d",
		s.ContactsExtracted, s.EmailsFound, s.PatternsGenerated, s.EmailsVerified, s.Errors,
	))
	r.log.Info("enrich: complete",
		zap.Int("active", r.total),
		zap.Int("contacts_extracted", s.ContactsExtracted),
		zap.Int("emails_found", s.EmailsFound),
		zap.Int("patterns_generated", s.PatternsGenerated),
		zap.Int("emails_verified", s.EmailsVerified),
		zap.Int("errors", s.Errors),
	)
}

// tick advances the progress counter, clamped to the planned total.
func (r *run) tick(step string) {
	r.current++
	if r.current > r.total {
		r.current = r.total
	}
	r.progress(fmt.Sprintf("%s (%d/%d)", step, r.current, r.total), r.total)
}

func (r *run) progress(step string, total int) {
	if r.onProgress == nil {
		return
	}
	r.onProgress(model.Progress{
		Step:    step,
		Current: r.current,
		Total:   total,
		Errors:  r.summary.Errors,
	})
}

func (r *run) fail(pl *model.Plan, action model.Action, err error) {
	r.summary.Errors++
	r.log.Warn("enrich: action failed",
		zap.String("row_id", pl.RowID),
		zap.String("action", string(action)),
		zap.String("kind", string(resilience.Classify(err))),
		zap.Error(err),
	)
	r.entry(pl, action, model.ResultError, resilience.Describe(err))
}

func (r *run) entry(pl *model.Plan, action model.Action, result model.Result, detail string) {
	r.summary.Log = append(r.summary.Log, model.LogEntry{
		Timestamp: r.now().UTC(),
		RowID:     pl.RowID,
		RowLabel:  pl.RowLabel,
		Action:    action,
		Result:    result,
		Detail:    detail,
	})
}

func (r *run) system(action model.Action, result model.Result, detail string) {
	r.summary.Log = append(r.summary.Log, model.LogEntry{
		Timestamp: r.now().UTC(),
		RowLabel:  "System",
		Action:    action,
		Result:    result,
		Detail:    detail,
	})
}

func (r *run) pause() {
	if r.delay > 0 {
		r.sleep(r.ctx, r.delay)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func describeContact(c *model.Contact) string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if c.Title != "" {
		name += ", " + c.Title
	}
	return fmt.Sprintf("%s (confidence %.2f)", name, c.Confidence)
}
