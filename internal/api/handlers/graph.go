package handlers

import (
	"errors"
	"net/http"

	"github.com/Harshitk-cp/veritas/internal/domain"
	"github.com/Harshitk-cp/veritas/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type GraphHandler struct {
	graphs domain.GraphProvider
}

func NewGraphHandler(graphs domain.GraphProvider) *GraphHandler {
	return &GraphHandler{graphs: graphs}
}

type graphResponse struct {
	ProjectID     uuid.UUID             `json:"project_id"`
	Hubs          []domain.Hub          `json:"hubs"`
	Relationships []domain.Relationship `json:"relationships"`
}

// Get returns the relationship graph for a project: its hub tables with
// usage counters and the hub-to-spoke edges between tables.
func (h *GraphHandler) Get(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid project id")
		return
	}

	graph, err := h.graphs.GetRelationshipGraph(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "project graph not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load graph")
		return
	}

	writeJSON(w, http.StatusOK, graphResponse{
		ProjectID:     projectID,
		Hubs:          graph.Hubs,
		Relationships: graph.Relationships,
	})
}
