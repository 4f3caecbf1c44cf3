package enrich

import (
	"context"
	"errors"
	"maps"
	"sort"
	"sync"
	"testing"

	"github.com/sells-group/dataforge/internal/enrich/mocks"
	"github.com/sells-group/dataforge/internal/model"
)

var errRowNotFound = errors.New("row not found")

// memStore is an in-memory RowStore with merge-on-update semantics.
type memStore struct {
	mu         sync.Mutex
	rows       map[string]*model.Row
	failUpdate map[string]error
	updates    int
}

func newMemStore(rows ...model.Row) *memStore {
	s := &memStore{rows: make(map[string]*model.Row), failUpdate: make(map[string]error)}
	for _, r := range rows {
		c := r.Clone()
		s.rows[r.ID] = &c
	}
	return s
}

func (s *memStore) GetRow(_ context.Context, id string) (*model.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok {
		return nil, errRowNotFound
	}
	c := r.Clone()
	return &c, nil
}

func (s *memStore) UpdateRow(_ context.Context, id string, upd model.RowUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failUpdate[id]; err != nil {
		return err
	}
	r, ok := s.rows[id]
	if !ok {
		return errRowNotFound
	}
	maps.Copy(r.Data, upd.Data)
	maps.Copy(r.Flags, upd.Flags)
	if upd.IsDuplicate != nil {
		r.IsDuplicate = *upd.IsDuplicate
	}
	s.updates++
	return nil
}

func (s *memStore) ListRows(_ context.Context, listID string) ([]model.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Row
	for _, r := range s.rows {
		if r.ListID == listID {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

func (s *memStore) row(id string) model.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[id].Clone()
}

type collaborators struct {
	extractor *mocks.MockTextExtractor
	inferrer  *mocks.MockContactInferrer
	finder    *mocks.MockEmailFinder
	verifier  *mocks.MockEmailVerifier
}

func newCollaborators(t *testing.T) collaborators {
	return collaborators{
		extractor: mocks.NewMockTextExtractor(t),
		inferrer:  mocks.NewMockContactInferrer(t),
		finder:    mocks.NewMockEmailFinder(t),
		verifier:  mocks.NewMockEmailVerifier(t),
	}
}

func (c collaborators) actions(st RowStore) *Actions {
	return NewActions(c.extractor, c.inferrer, c.finder, c.verifier, st)
}

func listRow(id string, idx int, data map[string]string) model.Row {
	return model.Row{ID: id, ListID: "list-1", Index: idx, Data: data, Flags: map[string]model.Flag{}}
}
