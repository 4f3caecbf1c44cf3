// Package lists runs the list-level workflows shared by the CLI and the HTTP
// API: import, cleanup, enrichment runs, export and single-row actions.
package lists

import (
	"context"
	"slices"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dataforge/internal/cleanup"
	"github.com/sells-group/dataforge/internal/columns"
	"github.com/sells-group/dataforge/internal/enrich"
	"github.com/sells-group/dataforge/internal/listio"
	"github.com/sells-group/dataforge/internal/model"
	"github.com/sells-group/dataforge/internal/store"
)

// ErrRunInFlight means an enrichment run, cleanup or delete for the list has
// not finished yet.
var ErrRunInFlight = eris.New("lists: operation already running for list")

// Holders recorded for list operations that do not create a run.
const (
	opCleanup = "cleanup"
	opDelete  = "delete"
)

// Collaborators are the external capabilities enrichment uses. Any of them
// may be nil; the phases that need it then record errors.
type Collaborators struct {
	Extractor enrich.TextExtractor
	Inferrer  enrich.ContactInferrer
	Finder    enrich.EmailFinder
	Verifier  enrich.EmailVerifier
}

// EnrichOptions controls one enrichment run.
type EnrichOptions struct {
	// Reset rewrites terminal flags to needs_enrichment before planning.
	Reset      bool
	OnProgress enrich.ProgressFunc
}

// Service coordinates the store with the cleanup and enrichment packages.
type Service struct {
	store    store.Store
	actions  *enrich.Actions
	pipeline *enrich.Pipeline

	mu      sync.Mutex
	running map[string]string // list ID -> run ID or operation
	wg      sync.WaitGroup
}

// NewService wires a Service. Pipeline options such as enrich.WithDelay are
// passed through.
func NewService(st store.Store, c Collaborators, opts ...enrich.Option) *Service {
	actions := enrich.NewActions(c.Extractor, c.Inferrer, c.Finder, c.Verifier, st)
	return &Service{
		store:    st,
		actions:  actions,
		pipeline: enrich.NewPipeline(actions, opts...),
		running:  make(map[string]string),
	}
}

// Store returns the backing store.
func (s *Service) Store() store.Store { return s.store }

// Import creates a list from a parsed table.
func (s *Service) Import(ctx context.Context, name string, table *listio.Table) (*model.List, error) {
	l, err := s.store.CreateList(ctx, name, table.Headers)
	if err != nil {
		return nil, eris.Wrap(err, "lists: create list")
	}
	n, err := s.store.InsertRows(ctx, l.ID, table.Rows)
	if err != nil {
		return nil, eris.Wrapf(err, "lists: insert rows into %s", l.ID)
	}
	l.RowCount = n

	zap.L().Info("lists: imported",
		zap.String("list_id", l.ID),
		zap.String("name", name),
		zap.Int("rows", n),
		zap.Int("columns", len(table.Headers)),
	)
	return l, nil
}

// ImportFile reads a CSV or XLSX file and imports it. An empty name falls
// back to the file path.
func (s *Service) ImportFile(ctx context.Context, path, name string) (*model.List, error) {
	table, err := listio.ReadFile(ctx, path)
	if err != nil {
		return nil, eris.Wrapf(err, "lists: read %s", path)
	}
	if name == "" {
		name = path
	}
	return s.Import(ctx, name, table)
}

// Cleanup runs the cleanup stages over a list, persists the rows and columns
// and marks the list cleaned.
func (s *Service) Cleanup(ctx context.Context, listID string) (*model.CleanupSummary, error) {
	l, err := s.store.GetList(ctx, listID)
	if err != nil {
		return nil, eris.Wrap(err, "lists: cleanup")
	}
	if err := s.claim(listID, opCleanup); err != nil {
		return nil, err
	}
	defer s.release(listID)

	rows, err := s.store.ListRows(ctx, listID)
	if err != nil {
		return nil, eris.Wrap(err, "lists: cleanup: list rows")
	}

	res := cleanup.Run(rows, l.Columns)

	if err := s.store.SaveRows(ctx, res.Rows); err != nil {
		return nil, eris.Wrap(err, "lists: cleanup: save rows")
	}
	if err := s.store.UpdateListColumns(ctx, listID, res.Columns); err != nil {
		return nil, eris.Wrap(err, "lists: cleanup: update columns")
	}
	if err := s.store.MarkListCleaned(ctx, listID); err != nil {
		return nil, eris.Wrap(err, "lists: cleanup: mark cleaned")
	}

	zap.L().Info("lists: cleanup complete",
		zap.String("list_id", listID),
		zap.Int("rows", len(res.Rows)),
		zap.Int("changes", res.Summary.Total()),
	)
	return &res.Summary, nil
}

// DeleteList removes a list with its rows and runs. It fails with
// ErrRunInFlight while another operation holds the list.
func (s *Service) DeleteList(ctx context.Context, listID string) error {
	if err := s.claim(listID, opDelete); err != nil {
		return err
	}
	defer s.release(listID)

	if err := s.store.DeleteList(ctx, listID); err != nil {
		return eris.Wrapf(err, "lists: delete %s", listID)
	}
	zap.L().Info("lists: deleted", zap.String("list_id", listID))
	return nil
}

// Enrich runs the enrichment pipeline over a list and blocks until it
// finishes. The returned run carries the summary and final status.
func (s *Service) Enrich(ctx context.Context, listID string, opts EnrichOptions) (*model.Run, error) {
	l, run, err := s.begin(ctx, listID)
	if err != nil {
		return nil, err
	}
	defer s.release(listID)

	s.execute(ctx, l, run.ID, opts)
	return s.store.GetRun(context.WithoutCancel(ctx), run.ID)
}

// StartEnrich records a run and executes it in the background under ctx.
// The returned run is in the running state.
func (s *Service) StartEnrich(ctx context.Context, listID string, opts EnrichOptions) (*model.Run, error) {
	l, run, err := s.begin(ctx, listID)
	if err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release(listID)
		s.execute(ctx, l, run.ID, opts)
	}()
	return run, nil
}

// Wait blocks until every background run has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// InFlight returns what currently holds a list: the ID of an executing run,
// or the name of a cleanup or delete in progress.
func (s *Service) InFlight(listID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.running[listID]
	return id, ok
}

func (s *Service) begin(ctx context.Context, listID string) (*model.List, *model.Run, error) {
	l, err := s.store.GetList(ctx, listID)
	if err != nil {
		return nil, nil, eris.Wrap(err, "lists: enrich")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if holder, ok := s.running[listID]; ok {
		return nil, nil, eris.Wrapf(ErrRunInFlight, "lists: held by %s", holder)
	}

	run, err := s.store.CreateRun(ctx, listID)
	if err != nil {
		return nil, nil, eris.Wrap(err, "lists: create run")
	}
	s.running[listID] = run.ID
	return l, run, nil
}

// claim marks a list as held by op for the caller's duration. It is the
// non-run counterpart of begin and pairs with release.
func (s *Service) claim(listID, op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if holder, ok := s.running[listID]; ok {
		return eris.Wrapf(ErrRunInFlight, "lists: %s held by %s", op, holder)
	}
	s.running[listID] = op
	return nil
}

func (s *Service) release(listID string) {
	s.mu.Lock()
	delete(s.running, listID)
	s.mu.Unlock()
}

// execute runs the pipeline and records the outcome. Row-level failures are
// part of the summary; only store failures around the pipeline fail the run.
func (s *Service) execute(ctx context.Context, l *model.List, runID string, opts EnrichOptions) {
	log := zap.L().With(zap.String("list_id", l.ID), zap.String("run_id", runID))

	summary, runErr := s.enrichRows(ctx, l, opts)
	if runErr != nil {
		log.Error("lists: enrichment run failed", zap.Error(runErr))
	}

	// The run record is written even when ctx was cancelled mid-run.
	if err := s.store.CompleteRun(context.WithoutCancel(ctx), runID, summary, runErr); err != nil {
		log.Error("lists: record run outcome", zap.Error(err))
	}
}

func (s *Service) enrichRows(ctx context.Context, l *model.List, opts EnrichOptions) (*model.EnrichmentSummary, error) {
	rows, err := s.store.ListRows(ctx, l.ID)
	if err != nil {
		return nil, eris.Wrap(err, "lists: enrich: list rows")
	}

	if opts.Reset {
		rows, _, err = enrich.ResetFlags(ctx, s.store, rows)
		if err != nil {
			return nil, eris.Wrap(err, "lists: enrich: reset flags")
		}
	}

	summary := s.pipeline.Run(ctx, rows, l.Columns, l.ID, opts.OnProgress)

	// Values written before a cancellation still need their columns.
	post := context.WithoutCancel(ctx)
	if err := s.syncColumns(post, l); err != nil {
		return summary, err
	}
	if err := s.store.MarkListEnriched(post, l.ID); err != nil {
		return summary, eris.Wrap(err, "lists: enrich: mark enriched")
	}
	return summary, nil
}

// syncColumns appends data keys written by enrichment to the list's column
// set.
func (s *Service) syncColumns(ctx context.Context, l *model.List) error {
	rows, err := s.store.ListRows(ctx, l.ID)
	if err != nil {
		return eris.Wrap(err, "lists: reload rows")
	}
	merged := model.MergeColumns(l.Columns, rows)
	if slices.Equal(merged, l.Columns) {
		return nil
	}
	if err := s.store.UpdateListColumns(ctx, l.ID, merged); err != nil {
		return eris.Wrap(err, "lists: update columns")
	}
	l.Columns = merged
	return nil
}

// Export writes a list's rows to a CSV or XLSX file.
func (s *Service) Export(ctx context.Context, listID, path string, opts listio.ExportOptions) (int, error) {
	l, err := s.store.GetList(ctx, listID)
	if err != nil {
		return 0, eris.Wrap(err, "lists: export")
	}
	rows, err := s.store.ListRows(ctx, listID)
	if err != nil {
		return 0, eris.Wrap(err, "lists: export: list rows")
	}
	if err := listio.WriteFile(path, l.Columns, rows, opts); err != nil {
		return 0, eris.Wrapf(err, "lists: export to %s", path)
	}

	n := 0
	for _, r := range rows {
		if !opts.SkipDuplicates || !r.IsDuplicate {
			n++
		}
	}
	return n, nil
}

// ScrapeRow runs the scrape action for one row, resolving the target columns
// from the row's list.
func (s *Service) ScrapeRow(ctx context.Context, req enrich.ScrapeRequest) (*model.Contact, error) {
	l, err := s.listForRow(ctx, req.RowID)
	if err != nil {
		return nil, err
	}
	req.Columns = columns.Resolve(l.Columns)
	c, err := s.actions.Scrape(ctx, req)
	if err != nil {
		return nil, err
	}
	return c, s.syncColumns(ctx, l)
}

// FindEmailRow runs email discovery for one row.
func (s *Service) FindEmailRow(ctx context.Context, req enrich.FindEmailRequest) (string, error) {
	l, err := s.listForRow(ctx, req.RowID)
	if err != nil {
		return "", err
	}
	req.Columns = columns.Resolve(l.Columns)
	addr, err := s.actions.FindEmail(ctx, req)
	if err != nil {
		return "", err
	}
	return addr, s.syncColumns(ctx, l)
}

// VerifyRow runs email verification for one row.
func (s *Service) VerifyRow(ctx context.Context, req enrich.VerifyRequest) (*model.Verification, error) {
	l, err := s.listForRow(ctx, req.RowID)
	if err != nil {
		return nil, err
	}
	req.Columns = columns.Resolve(l.Columns)
	return s.actions.VerifyEmail(ctx, req)
}

func (s *Service) listForRow(ctx context.Context, rowID string) (*model.List, error) {
	row, err := s.store.GetRow(ctx, rowID)
	if err != nil {
		return nil, eris.Wrap(err, "lists: get row")
	}
	l, err := s.store.GetList(ctx, row.ListID)
	if err != nil {
		return nil, eris.Wrap(err, "lists: get row list")
	}
	return l, nil
}
