package services

import (
	"context"
	"errors"
	"testing"

	"github.com/nkallio/cardwall/internal/models"
)

func TestContainerCreateAssignsSequentialIndices(t *testing.T) {
	db := setupTestDB(t)
	svc := NewContainerService(db)
	ctx := context.Background()
	owner := registerTestUser(t, db, "anna")

	headers := []string{"Todo", "Doing", "Done"}
	for i, header := range headers {
		container, err := svc.Create(ctx, owner.ID, header, "")
		if err != nil {
			t.Fatalf("Create(%q): %v", header, err)
		}
		if container.Index != i {
			t.Errorf("Create(%q).Index = %d, want %d", header, container.Index, i)
		}
		if container.HeaderColor != "white" {
			t.Errorf("Create(%q).HeaderColor = %q, want white", header, container.HeaderColor)
		}
	}

	// Another user's count starts from zero.
	other := registerTestUser(t, db, "bert")
	container, err := svc.Create(ctx, other.ID, "Inbox", "blue")
	if err != nil {
		t.Fatalf("Create for second user: %v", err)
	}
	if container.Index != 0 {
		t.Errorf("second user's first container Index = %d, want 0", container.Index)
	}
	if container.HeaderColor != "blue" {
		t.Errorf("HeaderColor = %q, want blue", container.HeaderColor)
	}
}

func TestContainerCreateRequiresHeader(t *testing.T) {
	db := setupTestDB(t)
	owner := registerTestUser(t, db, "anna")

	_, err := NewContainerService(db).Create(context.Background(), owner.ID, "", "")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Create with empty header error = %v, want ErrValidation", err)
	}
}

func TestContainerListSortedByIndex(t *testing.T) {
	db := setupTestDB(t)
	svc := NewContainerService(db)
	ctx := context.Background()
	owner := registerTestUser(t, db, "anna")

	a := createTestContainer(t, db, owner.ID, "A")
	b := createTestContainer(t, db, owner.ID, "B")

	// Swap their order and confirm List follows position, not insertion.
	zero, one := 0, 1
	if _, err := svc.Update(ctx, b.ID, owner.ID, models.ContainerPatch{Index: &zero}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := svc.Update(ctx, a.ID, owner.ID, models.ContainerPatch{Index: &one}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	containers, err := svc.List(ctx, owner.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(containers) != 2 {
		t.Fatalf("len(List) = %d, want 2", len(containers))
	}
	if containers[0].ID != b.ID || containers[1].ID != a.ID {
		t.Errorf("List order = [%s, %s], want [%s, %s]",
			containers[0].Header, containers[1].Header, "B", "A")
	}
}

func TestContainerGetScopedToOwner(t *testing.T) {
	db := setupTestDB(t)
	svc := NewContainerService(db)
	ctx := context.Background()
	anna := registerTestUser(t, db, "anna")
	bert := registerTestUser(t, db, "bert")

	container := createTestContainer(t, db, anna.ID, "Private")

	if _, err := svc.Get(ctx, container.ID, anna.ID); err != nil {
		t.Fatalf("owner Get: %v", err)
	}
	if _, err := svc.Get(ctx, container.ID, bert.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-user Get error = %v, want ErrNotFound", err)
	}
}

func TestContainerUpdatePatchesAllowListedFields(t *testing.T) {
	db := setupTestDB(t)
	svc := NewContainerService(db)
	ctx := context.Background()
	owner := registerTestUser(t, db, "anna")
	container := createTestContainer(t, db, owner.ID, "Todo")

	header := "Backlog"
	color := "purple"
	updated, err := svc.Update(ctx, container.ID, owner.ID, models.ContainerPatch{
		Header:      &header,
		HeaderColor: &color,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Header != "Backlog" || updated.HeaderColor != "purple" {
		t.Errorf("Update = %+v, want header Backlog, color purple", updated)
	}
	if updated.Index != container.Index {
		t.Errorf("Index changed to %d without being patched", updated.Index)
	}

	if _, err := svc.Update(ctx, "missing", owner.ID, models.ContainerPatch{Header: &header}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
}

func TestContainerDeleteCascadesOwnCards(t *testing.T) {
	db := setupTestDB(t)
	containerSvc := NewContainerService(db)
	cardSvc := NewCardService(db)
	ctx := context.Background()
	owner := registerTestUser(t, db, "anna")

	doomed := createTestContainer(t, db, owner.ID, "Doomed")
	kept := createTestContainer(t, db, owner.ID, "Kept")

	createTestCard(t, db, owner.ID, models.Card{ID: "c1", Title: "one", ParentContainerID: doomed.ID})
	createTestCard(t, db, owner.ID, models.Card{ID: "c2", Title: "two", ParentContainerID: doomed.ID})
	createTestCard(t, db, owner.ID, models.Card{ID: "c3", Title: "three", ParentContainerID: kept.ID})

	if err := containerSvc.Delete(ctx, doomed.ID, owner.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := containerSvc.Get(ctx, doomed.ID, owner.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted container Get error = %v, want ErrNotFound", err)
	}

	cards, err := cardSvc.List(ctx, owner.ID)
	if err != nil {
		t.Fatalf("List cards: %v", err)
	}
	if len(cards) != 1 || cards[0].ID != "c3" {
		t.Errorf("surviving cards = %+v, want only c3", cards)
	}
}

func TestContainerDeleteNotFound(t *testing.T) {
	db := setupTestDB(t)
	owner := registerTestUser(t, db, "anna")

	err := NewContainerService(db).Delete(context.Background(), "missing", owner.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(missing) error = %v, want ErrNotFound", err)
	}
}

func TestContainerReorderAppliesBatch(t *testing.T) {
	db := setupTestDB(t)
	svc := NewContainerService(db)
	ctx := context.Background()
	owner := registerTestUser(t, db, "anna")

	a := createTestContainer(t, db, owner.ID, "A")
	b := createTestContainer(t, db, owner.ID, "B")
	c := createTestContainer(t, db, owner.ID, "C")

	err := svc.Reorder(ctx, owner.ID, []models.IndexUpdate{
		{ID: c.ID, Index: 0},
		{ID: a.ID, Index: 1},
		{ID: b.ID, Index: 2},
	})
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}

	containers, _ := svc.List(ctx, owner.ID)
	want := []string{"C", "A", "B"}
	for i, container := range containers {
		if container.Header != want[i] {
			t.Errorf("List[%d] = %q, want %q", i, container.Header, want[i])
		}
		if container.Index != i {
			t.Errorf("List[%d].Index = %d, want %d", i, container.Index, i)
		}
	}
}

// A batch naming a foreign container must fail as a whole and leave the
// owner's order untouched.
func TestContainerReorderRejectsForeignIDs(t *testing.T) {
	db := setupTestDB(t)
	svc := NewContainerService(db)
	ctx := context.Background()
	anna := registerTestUser(t, db, "anna")
	bert := registerTestUser(t, db, "bert")

	mine := createTestContainer(t, db, anna.ID, "Mine")
	theirs := createTestContainer(t, db, bert.ID, "Theirs")

	err := svc.Reorder(ctx, anna.ID, []models.IndexUpdate{
		{ID: mine.ID, Index: 5},
		{ID: theirs.ID, Index: 0},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Reorder with foreign id error = %v, want ErrNotFound", err)
	}

	got, _ := svc.Get(ctx, mine.ID, anna.ID)
	if got.Index != mine.Index {
		t.Errorf("partial reorder applied: Index = %d, want %d", got.Index, mine.Index)
	}
}
