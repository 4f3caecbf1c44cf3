package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dataforge/internal/enrich"
	"github.com/sells-group/dataforge/internal/resilience"
	"github.com/sells-group/dataforge/internal/store"
)

type actionResponse struct {
	Success       bool   `json:"success"`
	Error         string `json:"error,omitempty"`
	Contact       any    `json:"contact,omitempty"`
	Email         string `json:"email,omitempty"`
	Status        string `json:"status,omitempty"`
	IsRoleAccount *bool  `json:"isRoleAccount,omitempty"`
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return eris.Wrap(err, "api: invalid request body")
	}
	return nil
}

func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}

// writeActionError reports a failed single-row action. Collaborator and
// data failures are normal outcomes and answer 200 with success=false;
// partial carries whatever the collaborator still returned.
func writeActionError(w http.ResponseWriter, err error, partial actionResponse) {
	partial.Success = false
	partial.Error = err.Error()
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, actionResponse{Error: err.Error()})
	case errors.Is(err, enrich.ErrNoEmail), resilience.Classify(err) != resilience.KindUnknown:
		writeJSON(w, http.StatusOK, partial)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req enrich.ScrapeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if blank(req.RowID, req.WebsiteURL) {
		writeError(w, http.StatusBadRequest, eris.New("rowId and websiteUrl are required"))
		return
	}

	c, err := s.svc.ScrapeRow(r.Context(), req)
	if err != nil {
		writeActionError(w, err, actionResponse{})
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{Success: true, Contact: c})
}

func (s *Server) handleFindEmail(w http.ResponseWriter, r *http.Request) {
	var req enrich.FindEmailRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if blank(req.RowID, req.FirstName, req.LastName, req.Domain) {
		writeError(w, http.StatusBadRequest, eris.New("rowId, firstName, lastName, and domain are required"))
		return
	}

	addr, err := s.svc.FindEmailRow(r.Context(), req)
	if err != nil {
		writeActionError(w, err, actionResponse{})
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{Success: true, Email: addr})
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req enrich.VerifyRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if blank(req.RowID, req.Email) {
		writeError(w, http.StatusBadRequest, eris.New("rowId and email are required"))
		return
	}

	v, err := s.svc.VerifyRow(r.Context(), req)
	if err != nil {
		var partial actionResponse
		if v != nil {
			role := v.IsRoleAccount
			partial.Status = string(v.Status)
			partial.IsRoleAccount = &role
		}
		writeActionError(w, err, partial)
		return
	}
	role := v.IsRoleAccount
	writeJSON(w, http.StatusOK, actionResponse{Success: true, Status: string(v.Status), IsRoleAccount: &role})
}
