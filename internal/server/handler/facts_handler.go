package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/factfeed/internal/common"
	domain "github.com/dmitrijs2005/factfeed/internal/facts"
	"github.com/dmitrijs2005/factfeed/internal/logging"
	"github.com/dmitrijs2005/factfeed/internal/server/metrics"
	"github.com/dmitrijs2005/factfeed/internal/server/middleware"
)

// Operation labels of the fact mutation metric.
const (
	opInsert = "insert"
	opVote   = "vote"
	opDelete = "delete"
)

// FactsHandler serves /rest/v1/facts.
type FactsHandler struct {
	facts FactService
	log   logging.Logger
	rec   metrics.Recorder
}

func NewFactsHandler(facts FactService, log logging.Logger, rec metrics.Recorder) *FactsHandler {
	return &FactsHandler{facts: facts, log: log.With("module", "facts_handler"), rec: rec}
}

func (h *FactsHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errBadQuery):
		middleware.WriteError(w, http.StatusBadRequest, "PGRST100", err.Error())
	case errors.Is(err, domain.ErrUnknownColumn):
		middleware.WriteError(w, http.StatusBadRequest, "PGRST204", err.Error())
	case errors.Is(err, common.ErrorValidation):
		middleware.WriteError(w, http.StatusBadRequest, "23514", err.Error())
	default:
		h.log.Error(r.Context(), "facts request failed", "error", err)
		middleware.WriteInternalServerError(w)
	}
}

func (h *FactsHandler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		middleware.WriteError(w, http.StatusRequestEntityTooLarge, "PGRST413", "Request body too large")
		return nil, false
	}
	return body, true
}

// writeAffected answers a mutation: the rows when the client asked for
// them, 204 otherwise.
func writeAffected(w http.ResponseWriter, r *http.Request, status int, rows []domain.Fact) {
	if !wantsRepresentation(r.Header.Values("Prefer")) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if rows == nil {
		rows = []domain.Fact{}
	}
	writeJSON(w, status, rows)
}

// List handles GET.
func (h *FactsHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := parseFactsQuery(r.URL.Query())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	list, err := h.facts.List(r.Context(), q)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []domain.Fact{}
	}
	writeJSON(w, http.StatusOK, list)
}

// Insert handles POST with one object or an array of objects. The author
// is always the caller.
func (h *FactsHandler) Insert(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, http.StatusUnauthorized, "no_authorization", "This endpoint requires a valid Bearer token")
		return
	}

	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	items, err := decodeRows[domain.NewFact](body)
	if err != nil {
		h.rec.RecordFactMutation(opInsert, false)
		middleware.WriteError(w, http.StatusBadRequest, "PGRST102", "Invalid body: "+err.Error())
		return
	}

	created, err := h.facts.Create(r.Context(), userID, items)
	h.rec.RecordFactMutation(opInsert, err == nil)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if !wantsRepresentation(r.Header.Values("Prefer")) {
		w.WriteHeader(http.StatusCreated)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// requireID reads the id=eq.N filter mutations must carry.
func (h *FactsHandler) requireID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	q, err := parseFactsQuery(r.URL.Query())
	if err != nil {
		h.writeServiceError(w, r, err)
		return 0, false
	}
	if q.ID == nil {
		middleware.WriteError(w, http.StatusBadRequest, "21000", "A filter on id is required")
		return 0, false
	}
	return *q.ID, true
}

// UpdateVotes handles PATCH ?id=eq.N with a body of vote counters.
func (h *FactsHandler) UpdateVotes(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireID(w, r)
	if !ok {
		return
	}

	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	votes, err := parseVotes(body)
	if err != nil {
		h.rec.RecordFactMutation(opVote, false)
		if errors.Is(err, domain.ErrUnknownColumn) {
			h.writeServiceError(w, r, err)
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, "PGRST102", "Invalid body: "+err.Error())
		return
	}

	rows, err := h.facts.UpdateVotes(r.Context(), id, votes)
	h.rec.RecordFactMutation(opVote, err == nil)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeAffected(w, r, http.StatusOK, rows)
}

// Delete handles DELETE ?id=eq.N. Deleting a missing row is not an error.
func (h *FactsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireID(w, r)
	if !ok {
		return
	}

	rows, err := h.facts.Delete(r.Context(), id)
	h.rec.RecordFactMutation(opDelete, err == nil)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeAffected(w, r, http.StatusOK, rows)
}
