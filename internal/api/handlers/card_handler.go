package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nkallio/cardwall/internal/auth"
	"github.com/nkallio/cardwall/internal/models"
	"github.com/nkallio/cardwall/internal/services"
)

// CardHandler handles HTTP requests for cards and their comments.
type CardHandler struct {
	service services.CardServiceProvider
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(service services.CardServiceProvider) *CardHandler {
	return &CardHandler{service: service}
}

// createCardPayload mirrors models.Card but keeps index optional so the
// service can tell "place at 0" apart from "append to the end".
type createCardPayload struct {
	ID                string           `json:"id"`
	Title             string           `json:"title"`
	SecondaryTitle    string           `json:"secondaryTitle"`
	MainText          string           `json:"mainText"`
	CardColor         string           `json:"cardColor"`
	Tags              string           `json:"tags"`
	VersionText       string           `json:"versionText"`
	ParentContainerID string           `json:"parentContainerId"`
	Index             *int             `json:"index"`
	EstimatedTime     string           `json:"estimatedTime"`
	ActualTime        string           `json:"actualTime"`
	Comments          []models.Comment `json:"comments"`
}

// GetAll returns the caller's cards sorted by index.
func (h *CardHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	cards, err := h.service.List(r.Context(), userID)
	if err != nil {
		serviceError(w, err, "Card not found", "Error fetching cards")
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

// Get returns a single card addressed by its client-generated id.
func (h *CardHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	card, err := h.service.Get(r.Context(), chi.URLParam(r, "uuid"), userID)
	if err != nil {
		serviceError(w, err, "Card not found", "Error fetching card")
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// Create stores a new card for the caller.
func (h *CardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload createCardPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	card := models.Card{
		ID:                payload.ID,
		Title:             payload.Title,
		SecondaryTitle:    payload.SecondaryTitle,
		MainText:          payload.MainText,
		CardColor:         payload.CardColor,
		Tags:              payload.Tags,
		VersionText:       payload.VersionText,
		ParentContainerID: payload.ParentContainerID,
		EstimatedTime:     payload.EstimatedTime,
		ActualTime:        payload.ActualTime,
		Comments:          payload.Comments,
		Index:             -1,
	}
	if payload.Index != nil {
		card.Index = *payload.Index
	}

	userID, _ := auth.UserID(r.Context())
	created, err := h.service.Create(r.Context(), userID, card)
	if err != nil {
		serviceError(w, err, "Container not found", "Error creating card")
		return
	}
	writeJSON(w, http.StatusOK, created)
}

// Update patches a card's allow-listed fields.
func (h *CardHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.CardPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, _ := auth.UserID(r.Context())
	card, err := h.service.Update(r.Context(), chi.URLParam(r, "uuid"), userID, patch)
	if err != nil {
		serviceError(w, err, cardNotFoundMsg(err), "Error updating card")
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// Delete removes a card owned by the caller.
func (h *CardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "uuid"), userID); err != nil {
		serviceError(w, err, "Card not found", "Error deleting card")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Card deleted"})
}

// Reorder applies a batched set of index changes in one transaction.
func (h *CardHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Items []models.IndexUpdate `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, _ := auth.UserID(r.Context())
	if err := h.service.Reorder(r.Context(), userID, payload.Items); err != nil {
		serviceError(w, err, "Card not found", "Error reordering cards")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Cards reordered"})
}

// AddComment appends a comment to a card.
func (h *CardHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CommentID string `json:"commentId"`
		Text      string `json:"text"`
		User      string `json:"user"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, _ := auth.UserID(r.Context())
	comment, err := h.service.AddComment(r.Context(), chi.URLParam(r, "uuid"), userID,
		payload.CommentID, payload.Text, payload.User)
	if err != nil {
		serviceError(w, err, "Card not found", "Error adding comment")
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

// UpdateComment merges a patch into a comment addressed by commentId.
func (h *CardHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	var patch models.CommentPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, _ := auth.UserID(r.Context())
	comment, err := h.service.UpdateComment(r.Context(), chi.URLParam(r, "uuid"), userID,
		chi.URLParam(r, "commentId"), patch)
	if err != nil {
		serviceError(w, err, commentNotFoundMsg(err), "Error updating comment")
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

// RemoveComment deletes a comment from a card.
func (h *CardHandler) RemoveComment(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	err := h.service.RemoveComment(r.Context(), chi.URLParam(r, "uuid"), userID,
		chi.URLParam(r, "commentId"))
	if err != nil {
		serviceError(w, err, commentNotFoundMsg(err), "Error removing comment")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Comment removed"})
}

func commentNotFoundMsg(err error) string {
	if errors.Is(err, services.ErrCommentNotFound) {
		return "Comment not found"
	}
	return "Card not found"
}

// cardNotFoundMsg separates a rejected parent container from a missing card
// on the update path.
func cardNotFoundMsg(err error) string {
	if errors.Is(err, services.ErrParentNotFound) {
		return "Container not found"
	}
	return "Card not found"
}
