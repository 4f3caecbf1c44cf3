package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/dataforge/internal/lists"
)

func (s *Server) handleListLists(w http.ResponseWriter, r *http.Request) {
	ls, err := s.svc.Store().ListLists(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, eris.Wrap(err, "api: list lists"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lists": ls})
}

func (s *Server) handleGetList(w http.ResponseWriter, r *http.Request) {
	l, err := s.svc.Store().GetList(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, storeStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.svc.DeleteList(r.Context(), id); err != nil {
		writeError(w, storeStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListRows(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if _, err := s.svc.Store().GetList(ctx, id); err != nil {
		writeError(w, storeStatus(err), err)
		return
	}
	rows, err := s.svc.Store().ListRows(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, eris.Wrap(err, "api: list rows"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	summary, err := s.svc.Cleanup(r.Context(), id)
	if err != nil {
		writeError(w, storeStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleStartEnrich(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var opts lists.EnrichOptions
	if v := r.URL.Query().Get("reset"); v != "" {
		reset, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, eris.Wrapf(err, "api: invalid reset value %q", v))
			return
		}
		opts.Reset = reset
	}

	run, err := s.svc.StartEnrich(s.runCtx, id, opts)
	if err != nil {
		writeError(w, storeStatus(err), err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  string(run.Status),
		"run_id":  run.ID,
		"list_id": id,
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.svc.Store().GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, storeStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}
