package services

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/nkallio/cardwall/internal/database"
	"github.com/nkallio/cardwall/internal/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := database.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	// In-memory SQLite is per-connection; keep the pool on one.
	db.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func registerTestUser(t *testing.T, db *sqlx.DB, username string) models.User {
	t.Helper()
	user, err := NewUserService(db).Register(context.Background(), username, "hunter22")
	if err != nil {
		t.Fatalf("Failed to register test user %q: %v", username, err)
	}
	return user
}

func createTestContainer(t *testing.T, db *sqlx.DB, ownerID, header string) models.Container {
	t.Helper()
	container, err := NewContainerService(db).Create(context.Background(), ownerID, header, "")
	if err != nil {
		t.Fatalf("Failed to create test container %q: %v", header, err)
	}
	return container
}

func createTestCard(t *testing.T, db *sqlx.DB, ownerID string, card models.Card) models.Card {
	t.Helper()
	if card.Index == 0 {
		card.Index = -1
	}
	created, err := NewCardService(db).Create(context.Background(), ownerID, card)
	if err != nil {
		t.Fatalf("Failed to create test card %q: %v", card.Title, err)
	}
	return created
}
