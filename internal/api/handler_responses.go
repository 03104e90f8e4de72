package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/schema"

	"formbase/internal/query"
	"formbase/pkg/model"
)

// listRequest is the query-string shape of a listing call. Filters
// arrive as a JSON-encoded array in the "filters" parameter.
type listRequest struct {
	Filters   string `schema:"filters"`
	SortBy    string `schema:"sortBy"`
	SortOrder string `schema:"sortOrder"`
	Page      int    `schema:"page"`
	Limit     int    `schema:"limit"`
}

type createRequest struct {
	Data        map[string]interface{} `json:"data"`
	ClientToken string                 `json:"clientToken,omitempty"`
}

func (s *Server) handleListResponses(w http.ResponseWriter, r *http.Request) {
	formID := r.PathValue("formId")
	if formID == "" {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Form ID is required")
		return
	}

	var req listRequest
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	if err := decoder.Decode(&req, r.URL.Query()); err != nil {
		slog.Warn("ListResponses: invalid query parameters", "error", err)
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid query parameters")
		return
	}

	var filters model.ResponseFilters
	if req.Filters != "" {
		if err := json.Unmarshal([]byte(req.Filters), &filters); err != nil {
			slog.Warn("ListResponses: invalid filters", "error", err)
			writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid filters")
			return
		}
	}

	page, err := s.engine.ListResponses(r.Context(), query.ListParams{
		FormID:    formID,
		Filters:   filters,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
		Page:      req.Page,
		Limit:     req.Limit,
	})
	if err != nil {
		if errors.Is(err, model.ErrUnsafeFieldID) {
			writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid field identifier in filters")
			return
		}
		writeInternalError(w, err, "Failed to list responses")
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleCreateResponse(w http.ResponseWriter, r *http.Request) {
	formID := r.PathValue("formId")
	if formID == "" {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Form ID is required")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "Request body too large")
		return
	}

	var req createRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body")
		return
	}
	if req.Data == nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Response data is required")
		return
	}

	resp, err := s.engine.CreateResponse(r.Context(), formID, req.Data, req.ClientToken)
	if err != nil {
		if errors.Is(err, model.ErrExists) {
			writeError(w, http.StatusConflict, ErrCodeConflict, "Response already submitted")
			return
		}
		writeInternalError(w, err, "Failed to create response")
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}
