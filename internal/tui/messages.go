package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nkallio/cardwall/internal/client"
	"github.com/nkallio/cardwall/internal/models"
)

// stateChangedMsg signals that the store mutated and the board must re-read
// its slices.
type stateChangedMsg struct{}

// errMsg carries a failed store operation into the status line.
type errMsg struct{ err error }

const opTimeout = 10 * time.Second

// storeCmd runs a store operation off the UI loop and reports the outcome.
func storeCmd(op func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if err := op(ctx); err != nil {
			return errMsg{err: err}
		}
		return stateChangedMsg{}
	}
}

// RefreshCmd refetches the board from the server.
func RefreshCmd(store *client.Store) tea.Cmd {
	return storeCmd(store.Refresh)
}

func addContainerCmd(store *client.Store, header string) tea.Cmd {
	return storeCmd(func(ctx context.Context) error {
		_, err := store.AddContainer(ctx, header)
		return err
	})
}

func addCardCmd(store *client.Store, containerID, title string) tea.Cmd {
	return storeCmd(func(ctx context.Context) error {
		_, err := store.AddCard(ctx, models.Card{Title: title, ParentContainerID: containerID})
		return err
	})
}

func addCommentCmd(store *client.Store, cardID, text string) tea.Cmd {
	return storeCmd(func(ctx context.Context) error {
		_, err := store.AddComment(ctx, cardID, text, "")
		return err
	})
}

func retitleCardCmd(store *client.Store, id, title string) tea.Cmd {
	return storeCmd(func(ctx context.Context) error {
		return store.UpdateCard(ctx, id, models.CardPatch{Title: &title})
	})
}

// editCommentCmd rewrites a comment's text and flags it as edited, the same
// patch the web UI sends.
func editCommentCmd(store *client.Store, cardID, commentID, text string) tea.Cmd {
	edited := true
	return storeCmd(func(ctx context.Context) error {
		return store.UpdateComment(ctx, cardID, commentID, models.CommentPatch{Text: &text, Edited: &edited})
	})
}

func removeCommentCmd(store *client.Store, cardID, commentID string) tea.Cmd {
	return storeCmd(func(ctx context.Context) error {
		return store.RemoveComment(ctx, cardID, commentID)
	})
}

func renameContainerCmd(store *client.Store, id, header string) tea.Cmd {
	return storeCmd(func(ctx context.Context) error {
		return store.UpdateContainer(ctx, id, models.ContainerPatch{Header: &header})
	})
}

func deleteContainerCmd(store *client.Store, id string) tea.Cmd {
	return storeCmd(func(ctx context.Context) error {
		return store.DeleteContainer(ctx, id)
	})
}

func deleteCardCmd(store *client.Store, id string) tea.Cmd {
	return storeCmd(func(ctx context.Context) error {
		return store.DeleteCard(ctx, id)
	})
}

func reorderCardsCmd(store *client.Store, containerID string, from, to int) tea.Cmd {
	return storeCmd(func(ctx context.Context) error {
		return store.ReorderCards(ctx, containerID, from, to)
	})
}

func moveCardCmd(store *client.Store, cardID, toContainerID string, toPos int) tea.Cmd {
	return storeCmd(func(ctx context.Context) error {
		return store.MoveCard(ctx, cardID, toContainerID, toPos)
	})
}

func moveContainerCmd(store *client.Store, from, to int) tea.Cmd {
	return storeCmd(func(ctx context.Context) error {
		return store.MoveContainer(ctx, from, to)
	})
}
