package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nkallio/cardwall/internal/auth"
	"github.com/nkallio/cardwall/internal/models"
	"github.com/nkallio/cardwall/internal/services"
)

// ContainerHandler handles HTTP requests for board columns.
type ContainerHandler struct {
	service services.ContainerServiceProvider
}

// NewContainerHandler creates a new ContainerHandler.
func NewContainerHandler(service services.ContainerServiceProvider) *ContainerHandler {
	return &ContainerHandler{service: service}
}

// GetAll returns the caller's columns sorted by index.
func (h *ContainerHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	containers, err := h.service.List(r.Context(), userID)
	if err != nil {
		serviceError(w, err, "Container not found", "Error fetching containers")
		return
	}
	writeJSON(w, http.StatusOK, containers)
}

// Get returns a single column owned by the caller.
func (h *ContainerHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	container, err := h.service.Get(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		serviceError(w, err, "Container not found", "Error fetching container")
		return
	}
	writeJSON(w, http.StatusOK, container)
}

// Create appends a new column to the caller's board.
func (h *ContainerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Header      string `json:"header"`
		HeaderColor string `json:"headerColor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, _ := auth.UserID(r.Context())
	container, err := h.service.Create(r.Context(), userID, payload.Header, payload.HeaderColor)
	if err != nil {
		serviceError(w, err, "Container not found", "Error creating container")
		return
	}
	writeJSON(w, http.StatusOK, container)
}

// Update patches a column's allow-listed fields.
func (h *ContainerHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.ContainerPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, _ := auth.UserID(r.Context())
	container, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), userID, patch)
	if err != nil {
		serviceError(w, err, "Container not found", "Error updating container")
		return
	}
	writeJSON(w, http.StatusOK, container)
}

// Delete removes a column and all of its cards.
func (h *ContainerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		serviceError(w, err, "Container not found", "Error deleting container and its cards")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Container and its cards deleted"})
}

// Reorder applies a batched set of index changes in one transaction.
func (h *ContainerHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Items []models.IndexUpdate `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, _ := auth.UserID(r.Context())
	if err := h.service.Reorder(r.Context(), userID, payload.Items); err != nil {
		serviceError(w, err, "Container not found", "Error reordering containers")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Containers reordered"})
}
