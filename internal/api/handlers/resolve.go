package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Harshitk-cp/veritas/internal/domain"
	"github.com/Harshitk-cp/veritas/internal/service"
	"github.com/google/uuid"
)

const maxQuestionLength = 2000

type ResolveHandler struct {
	resolver *service.Resolver
}

func NewResolveHandler(resolver *service.Resolver) *ResolveHandler {
	return &ResolveHandler{resolver: resolver}
}

type resolveRequest struct {
	Question         string            `json:"question"`
	ProjectID        string            `json:"project_id"`
	ResolvedSQL      string            `json:"resolved_sql,omitempty"`
	ResolvedTable    string            `json:"resolved_table,omitempty"`
	QueryClass       string            `json:"query_class,omitempty"`
	ScopeFilters     map[string]string `json:"scope_filters,omitempty"`
	AvailableColumns []string          `json:"available_columns,omitempty"`
}

type resolveResponse struct {
	Answer  *domain.SynthesizedAnswer `json:"answer,omitempty"`
	Failure *domain.ResolutionFailure `json:"failure,omitempty"`
}

// Resolve answers one question. Failures are part of the contract, not HTTP
// errors: a CANNOT_RESOLVE outcome is a 200 with a failure body.
func (h *ResolveHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	if len(question) > maxQuestionLength {
		writeError(w, http.StatusBadRequest, "question too long")
		return
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid project_id")
		return
	}

	qctx := domain.QuestionContext{
		ProjectID:        projectID,
		ResolvedSQL:      req.ResolvedSQL,
		ResolvedTable:    req.ResolvedTable,
		QueryClass:       req.QueryClass,
		ScopeFilters:     req.ScopeFilters,
		AvailableColumns: req.AvailableColumns,
	}

	resolution, err := h.resolver.Resolve(r.Context(), question, qctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		writeError(w, http.StatusInternalServerError, "resolution failed")
		return
	}

	writeJSON(w, http.StatusOK, resolveResponse{
		Answer:  resolution.Answer,
		Failure: resolution.Failure,
	})
}
