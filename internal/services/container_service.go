package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nkallio/cardwall/internal/models"
)

// ContainerServiceProvider defines the interface for board column services.
type ContainerServiceProvider interface {
	List(ctx context.Context, ownerID string) ([]models.Container, error)
	Get(ctx context.Context, id, ownerID string) (models.Container, error)
	Create(ctx context.Context, ownerID, header, headerColor string) (models.Container, error)
	Update(ctx context.Context, id, ownerID string, patch models.ContainerPatch) (models.Container, error)
	Delete(ctx context.Context, id, ownerID string) error
	Reorder(ctx context.Context, ownerID string, items []models.IndexUpdate) error
}

// ContainerService provides CRUD and ordering for board columns. Every
// operation is scoped to the owning user.
type ContainerService struct {
	db *sqlx.DB
}

// NewContainerService creates a new ContainerService.
func NewContainerService(db *sqlx.DB) *ContainerService {
	return &ContainerService{db: db}
}

// List returns the owner's columns sorted by position ascending.
func (s *ContainerService) List(ctx context.Context, ownerID string) ([]models.Container, error) {
	containers := []models.Container{}
	err := s.db.SelectContext(ctx, &containers,
		"SELECT id, header, header_color, user_id, position FROM containers WHERE user_id = ? ORDER BY position ASC",
		ownerID)
	return containers, err
}

// Get returns a single column owned by the caller.
func (s *ContainerService) Get(ctx context.Context, id, ownerID string) (models.Container, error) {
	var container models.Container
	err := s.db.GetContext(ctx, &container,
		"SELECT id, header, header_color, user_id, position FROM containers WHERE id = ? AND user_id = ?",
		id, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Container{}, ErrNotFound
		}
		return models.Container{}, err
	}
	return container, nil
}

// Create appends a new column to the end of the owner's board. The position
// count and the insert run in one transaction so concurrent creates cannot
// hand out the same index.
func (s *ContainerService) Create(ctx context.Context, ownerID, header, headerColor string) (models.Container, error) {
	if header == "" {
		return models.Container{}, fmt.Errorf("%w: header is required", ErrValidation)
	}
	if headerColor == "" {
		headerColor = "white"
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Container{}, fmt.Errorf("could not start transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.GetContext(ctx, &count, "SELECT COUNT(*) FROM containers WHERE user_id = ?", ownerID); err != nil {
		return models.Container{}, err
	}

	container := models.Container{
		ID:          uuid.New().String(),
		Header:      header,
		HeaderColor: headerColor,
		UserID:      ownerID,
		Index:       count,
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO containers(id, header, header_color, user_id, position) VALUES(?, ?, ?, ?, ?)",
		container.ID, container.Header, container.HeaderColor, container.UserID, container.Index)
	if err != nil {
		return models.Container{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Container{}, fmt.Errorf("transaction commit failed: %w", err)
	}
	return container, nil
}

// Update applies an allow-listed patch to a column owned by the caller.
func (s *ContainerService) Update(ctx context.Context, id, ownerID string, patch models.ContainerPatch) (models.Container, error) {
	sets := []string{}
	args := []interface{}{}
	if patch.Header != nil {
		sets = append(sets, "header = ?")
		args = append(args, *patch.Header)
	}
	if patch.HeaderColor != nil {
		sets = append(sets, "header_color = ?")
		args = append(args, *patch.HeaderColor)
	}
	if patch.Index != nil {
		sets = append(sets, "position = ?")
		args = append(args, *patch.Index)
	}
	if len(sets) == 0 {
		return s.Get(ctx, id, ownerID)
	}

	args = append(args, id, ownerID)
	res, err := s.db.ExecContext(ctx,
		"UPDATE containers SET "+strings.Join(sets, ", ")+" WHERE id = ? AND user_id = ?", args...)
	if err != nil {
		return models.Container{}, err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return models.Container{}, ErrNotFound
	}
	return s.Get(ctx, id, ownerID)
}

// Delete removes a column and all cards inside it. The cascade runs in a
// single transaction so a partial failure cannot orphan cards.
func (s *ContainerService) Delete(ctx context.Context, id, ownerID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM cards WHERE parent_container_id = ? AND user_id = ?", id, ownerID); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		"DELETE FROM containers WHERE id = ? AND user_id = ?", id, ownerID)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// Reorder applies a batch of position changes to the owner's columns in one
// transaction. Ids that do not belong to the owner are rejected as a whole.
func (s *ContainerService) Reorder(ctx context.Context, ownerID string, items []models.IndexUpdate) error {
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
			"UPDATE containers SET position = ? WHERE id = ? AND user_id = ?",
			item.Index, item.ID, ownerID)
		if err != nil {
			return err
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			return fmt.Errorf("%w: container %s", ErrNotFound, item.ID)
		}
	}

	return tx.Commit()
}
