package client

import (
	"context"
	"net/http"

	"github.com/nkallio/cardwall/internal/models"
)

// Client wraps the protected REST API over an authenticated session.
type Client struct {
	session *Session
}

// NewClient creates a Client bound to a session.
func NewClient(session *Session) *Client {
	return &Client{session: session}
}

// Profile returns the authenticated user.
func (c *Client) Profile(ctx context.Context) (models.User, error) {
	var user models.User
	err := c.session.do(ctx, http.MethodGet, "/api/profile", nil, &user)
	return user, err
}

// Containers fetches all of the user's columns.
func (c *Client) Containers(ctx context.Context) ([]models.Container, error) {
	var containers []models.Container
	err := c.session.do(ctx, http.MethodGet, "/api/containers", nil, &containers)
	return containers, err
}

// CreateContainer appends a new column.
func (c *Client) CreateContainer(ctx context.Context, header, headerColor string) (models.Container, error) {
	var container models.Container
	payload := map[string]string{"header": header}
	if headerColor != "" {
		payload["headerColor"] = headerColor
	}
	err := c.session.do(ctx, http.MethodPost, "/api/containers", payload, &container)
	return container, err
}

// UpdateContainer patches a column.
func (c *Client) UpdateContainer(ctx context.Context, id string, patch models.ContainerPatch) (models.Container, error) {
	var container models.Container
	err := c.session.do(ctx, http.MethodPut, "/api/containers/"+id, patch, &container)
	return container, err
}

// DeleteContainer removes a column and its cards.
func (c *Client) DeleteContainer(ctx context.Context, id string) error {
	return c.session.do(ctx, http.MethodDelete, "/api/containers/"+id, nil, nil)
}

// ReorderContainers pushes a batched set of column index changes.
func (c *Client) ReorderContainers(ctx context.Context, items []models.IndexUpdate) error {
	payload := map[string]interface{}{"items": items}
	return c.session.do(ctx, http.MethodPut, "/api/containers/reorder", payload, nil)
}

// Cards fetches all of the user's cards.
func (c *Client) Cards(ctx context.Context) ([]models.Card, error) {
	var cards []models.Card
	err := c.session.do(ctx, http.MethodGet, "/api/cards", nil, &cards)
	return cards, err
}

// CreateCard stores a new card.
func (c *Client) CreateCard(ctx context.Context, card models.Card) (models.Card, error) {
	var created models.Card
	err := c.session.do(ctx, http.MethodPost, "/api/cards", card, &created)
	return created, err
}

// UpdateCard patches a card addressed by its client-generated id.
func (c *Client) UpdateCard(ctx context.Context, id string, patch models.CardPatch) (models.Card, error) {
	var card models.Card
	err := c.session.do(ctx, http.MethodPut, "/api/cards/"+id, patch, &card)
	return card, err
}

// DeleteCard removes a card.
func (c *Client) DeleteCard(ctx context.Context, id string) error {
	return c.session.do(ctx, http.MethodDelete, "/api/cards/"+id, nil, nil)
}

// ReorderCards pushes a batched set of card index changes.
func (c *Client) ReorderCards(ctx context.Context, items []models.IndexUpdate) error {
	payload := map[string]interface{}{"items": items}
	return c.session.do(ctx, http.MethodPut, "/api/cards/reorder", payload, nil)
}

// AddComment appends a comment to a card.
func (c *Client) AddComment(ctx context.Context, cardID, commentID, text, user string) (models.Comment, error) {
	var comment models.Comment
	payload := map[string]string{"commentId": commentID, "text": text, "user": user}
	err := c.session.do(ctx, http.MethodPost, "/api/cards/"+cardID+"/comments", payload, &comment)
	return comment, err
}

// UpdateComment patches a comment on a card.
func (c *Client) UpdateComment(ctx context.Context, cardID, commentID string, patch models.CommentPatch) (models.Comment, error) {
	var comment models.Comment
	err := c.session.do(ctx, http.MethodPut, "/api/cards/"+cardID+"/comments/"+commentID, patch, &comment)
	return comment, err
}

// RemoveComment deletes a comment from a card.
func (c *Client) RemoveComment(ctx context.Context, cardID, commentID string) error {
	return c.session.do(ctx, http.MethodDelete, "/api/cards/"+cardID+"/comments/"+commentID, nil, nil)
}
