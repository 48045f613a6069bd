package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nkallio/cardwall/internal/models"
)

// CardServiceProvider defines the interface for card services.
type CardServiceProvider interface {
	List(ctx context.Context, ownerID string) ([]models.Card, error)
	Get(ctx context.Context, clientID, ownerID string) (models.Card, error)
	Create(ctx context.Context, ownerID string, card models.Card) (models.Card, error)
	Update(ctx context.Context, clientID, ownerID string, patch models.CardPatch) (models.Card, error)
	Delete(ctx context.Context, clientID, ownerID string) error
	Reorder(ctx context.Context, ownerID string, items []models.IndexUpdate) error
	AddComment(ctx context.Context, cardClientID, ownerID, commentID, text, user string) (models.Comment, error)
	UpdateComment(ctx context.Context, cardClientID, ownerID, commentID string, patch models.CommentPatch) (models.Comment, error)
	RemoveComment(ctx context.Context, cardClientID, ownerID, commentID string) error
}

// CardService provides CRUD, ordering, and comment sub-document management
// for cards. Cards are addressed by their client-generated id; every
// operation is scoped to the owning user.
type CardService struct {
	db *sqlx.DB
}

// NewCardService creates a new CardService.
func NewCardService(db *sqlx.DB) *CardService {
	return &CardService{db: db}
}

const cardColumns = `id, client_id, title, secondary_title, main_text, card_color, tags,
	version_text, parent_container_id, user_id, position, created_at,
	estimated_time, actual_time, comments_json`

// List returns the owner's cards sorted by position ascending.
func (s *CardService) List(ctx context.Context, ownerID string) ([]models.Card, error) {
	cards := []models.Card{}
	err := s.db.SelectContext(ctx, &cards,
		"SELECT "+cardColumns+" FROM cards WHERE user_id = ? ORDER BY position ASC", ownerID)
	if err != nil {
		return nil, err
	}
	for i := range cards {
		if err := decodeComments(&cards[i]); err != nil {
			return nil, err
		}
	}
	return cards, nil
}

// Get returns a single card addressed by its client id.
func (s *CardService) Get(ctx context.Context, clientID, ownerID string) (models.Card, error) {
	var card models.Card
	err := s.db.GetContext(ctx, &card,
		"SELECT "+cardColumns+" FROM cards WHERE client_id = ? AND user_id = ?", clientID, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Card{}, ErrNotFound
		}
		return models.Card{}, err
	}
	if err := decodeComments(&card); err != nil {
		return models.Card{}, err
	}
	return card, nil
}

// Create stores a new card. The card id comes from the client; when the
// payload carries no index, the card is appended to the end of its parent
// container inside the insert transaction.
func (s *CardService) Create(ctx context.Context, ownerID string, card models.Card) (models.Card, error) {
	if card.ID == "" || card.Title == "" || card.ParentContainerID == "" {
		return models.Card{}, fmt.Errorf("%w: id, title and parentContainerId are required", ErrValidation)
	}
	if card.CardColor == "" {
		card.CardColor = "white"
	}
	if card.ActualTime == "" {
		card.ActualTime = "insert"
	}
	card.StorageID = uuid.New().String()
	card.UserID = ownerID
	card.CreatedTimestamp = time.Now().UTC()
	if card.Comments == nil {
		card.Comments = []models.Comment{}
	}

	commentsJSON, err := json.Marshal(card.Comments)
	if err != nil {
		return models.Card{}, err
	}
	card.CommentsJSON = string(commentsJSON)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Card{}, fmt.Errorf("could not start transaction: %w", err)
	}
	defer tx.Rollback()

	// Parent must exist and belong to the caller.
	var parentCount int
	if err := tx.GetContext(ctx, &parentCount,
		"SELECT COUNT(*) FROM containers WHERE id = ? AND user_id = ?",
		card.ParentContainerID, ownerID); err != nil {
		return models.Card{}, err
	}
	if parentCount == 0 {
		return models.Card{}, ErrParentNotFound
	}

	// A negative index means the caller left ordering to the server:
	// append to the end of the parent container.
	if card.Index < 0 {
		var next int
		err := tx.GetContext(ctx, &next,
			"SELECT COALESCE(MAX(position) + 1, 0) FROM cards WHERE parent_container_id = ? AND user_id = ?",
			card.ParentContainerID, ownerID)
		if err != nil {
			return models.Card{}, err
		}
		card.Index = next
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO cards
		(id, client_id, title, secondary_title, main_text, card_color, tags, version_text,
		 parent_container_id, user_id, position, created_at, estimated_time, actual_time, comments_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		card.StorageID, card.ID, card.Title, card.SecondaryTitle, card.MainText, card.CardColor,
		card.Tags, card.VersionText, card.ParentContainerID, card.UserID, card.Index,
		card.CreatedTimestamp, card.EstimatedTime, card.ActualTime, card.CommentsJSON)
	if err != nil {
		return models.Card{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Card{}, fmt.Errorf("transaction commit failed: %w", err)
	}
	return card, nil
}

// Update applies an allow-listed patch to a card owned by the caller. A
// patched parent container must also exist and belong to the caller.
func (s *CardService) Update(ctx context.Context, clientID, ownerID string, patch models.CardPatch) (models.Card, error) {
	sets := []string{}
	args := []interface{}{}
	add := func(column string, v interface{}) {
		sets = append(sets, column+" = ?")
		args = append(args, v)
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.SecondaryTitle != nil {
		add("secondary_title", *patch.SecondaryTitle)
	}
	if patch.MainText != nil {
		add("main_text", *patch.MainText)
	}
	if patch.CardColor != nil {
		add("card_color", *patch.CardColor)
	}
	if patch.Tags != nil {
		add("tags", *patch.Tags)
	}
	if patch.VersionText != nil {
		add("version_text", *patch.VersionText)
	}
	if patch.ParentContainerID != nil {
		add("parent_container_id", *patch.ParentContainerID)
	}
	if patch.Index != nil {
		add("position", *patch.Index)
	}
	if patch.EstimatedTime != nil {
		add("estimated_time", *patch.EstimatedTime)
	}
	if patch.ActualTime != nil {
		add("actual_time", *patch.ActualTime)
	}
	if len(sets) == 0 {
		return s.Get(ctx, clientID, ownerID)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Card{}, fmt.Errorf("could not start transaction: %w", err)
	}
	defer tx.Rollback()

	if patch.ParentContainerID != nil {
		var parentCount int
		if err := tx.GetContext(ctx, &parentCount,
			"SELECT COUNT(*) FROM containers WHERE id = ? AND user_id = ?",
			*patch.ParentContainerID, ownerID); err != nil {
			return models.Card{}, err
		}
		if parentCount == 0 {
			return models.Card{}, ErrParentNotFound
		}
	}

	args = append(args, clientID, ownerID)
	res, err := tx.ExecContext(ctx,
		"UPDATE cards SET "+strings.Join(sets, ", ")+" WHERE client_id = ? AND user_id = ?", args...)
	if err != nil {
		return models.Card{}, err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return models.Card{}, ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return models.Card{}, fmt.Errorf("transaction commit failed: %w", err)
	}
	return s.Get(ctx, clientID, ownerID)
}

// Delete removes a card owned by the caller.
func (s *CardService) Delete(ctx context.Context, clientID, ownerID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM cards WHERE client_id = ? AND user_id = ?", clientID, ownerID)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Reorder applies a batch of position changes to the owner's cards in one
// transaction. Items address cards by client id.
func (s *CardService) Reorder(ctx context.Context, ownerID string, items []models.IndexUpdate) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not start transaction: %w", err)
	}
	defer tx.Rollback()

	for _, item := range items {
		res, err := tx.ExecContext(ctx,
			"UPDATE cards SET position = ? WHERE client_id = ? AND user_id = ?",
			item.Index, item.ID, ownerID)
		if err != nil {
			return err
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			return fmt.Errorf("%w: card %s", ErrNotFound, item.ID)
		}
	}

	return tx.Commit()
}

// AddComment appends a comment to a card with a server-assigned timestamp.
func (s *CardService) AddComment(ctx context.Context, cardClientID, ownerID, commentID, text, user string) (models.Comment, error) {
	if commentID == "" {
		return models.Comment{}, fmt.Errorf("%w: commentId is required", ErrValidation)
	}

	comment := models.Comment{
		CommentID: commentID,
		Text:      text,
		User:      user,
		Timestamp: time.Now().UTC(),
		Edited:    false,
	}

	err := s.mutateComments(ctx, cardClientID, ownerID, func(comments []models.Comment) ([]models.Comment, error) {
		return append(comments, comment), nil
	})
	if err != nil {
		return models.Comment{}, err
	}
	return comment, nil
}

// UpdateComment merges a patch into the comment matching commentID. The
// edited flag is not set implicitly; patches that edit text must carry it.
func (s *CardService) UpdateComment(ctx context.Context, cardClientID, ownerID, commentID string, patch models.CommentPatch) (models.Comment, error) {
	var updated models.Comment
	err := s.mutateComments(ctx, cardClientID, ownerID, func(comments []models.Comment) ([]models.Comment, error) {
		for i := range comments {
			if comments[i].CommentID != commentID {
				continue
			}
			if patch.Text != nil {
				comments[i].Text = *patch.Text
			}
			if patch.Edited != nil {
				comments[i].Edited = *patch.Edited
			}
			updated = comments[i]
			return comments, nil
		}
		return nil, ErrCommentNotFound
	})
	if err != nil {
		return models.Comment{}, err
	}
	return updated, nil
}

// RemoveComment deletes the comment matching commentID from a card.
func (s *CardService) RemoveComment(ctx context.Context, cardClientID, ownerID, commentID string) error {
	return s.mutateComments(ctx, cardClientID, ownerID, func(comments []models.Comment) ([]models.Comment, error) {
		for i := range comments {
			if comments[i].CommentID == commentID {
				return append(comments[:i], comments[i+1:]...), nil
			}
		}
		return nil, ErrCommentNotFound
	})
}

// mutateComments runs a read-modify-write cycle on a card's comment list
// inside a transaction.
func (s *CardService) mutateComments(ctx context.Context, cardClientID, ownerID string, mutate func([]models.Comment) ([]models.Comment, error)) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not start transaction: %w", err)
	}
	defer tx.Rollback()

	var commentsJSON string
	err = tx.GetContext(ctx, &commentsJSON,
		"SELECT comments_json FROM cards WHERE client_id = ? AND user_id = ?", cardClientID, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	comments := []models.Comment{}
	if err := json.Unmarshal([]byte(commentsJSON), &comments); err != nil {
		return fmt.Errorf("corrupt comment list on card %s: %w", cardClientID, err)
	}

	comments, err = mutate(comments)
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(comments)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE cards SET comments_json = ? WHERE client_id = ? AND user_id = ?",
		string(encoded), cardClientID, ownerID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func decodeComments(card *models.Card) error {
	card.Comments = []models.Comment{}
	if card.CommentsJSON == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(card.CommentsJSON), &card.Comments); err != nil {
		return fmt.Errorf("corrupt comment list on card %s: %w", card.ID, err)
	}
	return nil
}
