package client

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nkallio/cardwall/internal/models"
)

// Store holds the board state for one session: the user's columns and cards,
// kept sorted by index. Mutations apply locally first (optimistic), then
// push to the server; a failed push is logged and returned but the local
// state is not rolled back. Refresh is the reconciliation point.
type Store struct {
	client *Client

	mu         sync.Mutex
	containers []models.Container
	cards      []models.Card
}

// NewStore creates an empty Store over a client.
func NewStore(client *Client) *Store {
	return &Store{client: client}
}

// Refresh refetches both collections from the server, replacing local state.
func (st *Store) Refresh(ctx context.Context) error {
	containers, err := st.client.Containers(ctx)
	if err != nil {
		return err
	}
	cards, err := st.client.Cards(ctx)
	if err != nil {
		return err
	}
	st.Load(containers, cards)
	return nil
}

// Load replaces the local state with the given collections, sorted by index.
func (st *Store) Load(containers []models.Container, cards []models.Card) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.containers = append([]models.Container(nil), containers...)
	st.cards = append([]models.Card(nil), cards...)
	sort.SliceStable(st.containers, func(i, j int) bool { return st.containers[i].Index < st.containers[j].Index })
	sort.SliceStable(st.cards, func(i, j int) bool { return st.cards[i].Index < st.cards[j].Index })
}

// Containers returns the columns in board order.
func (st *Store) Containers() []models.Container {
	st.mu.Lock()
	defer st.mu.Unlock()
	return append([]models.Container(nil), st.containers...)
}

// CardsIn returns the cards of one column in display order.
func (st *Store) CardsIn(containerID string) []models.Card {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.cardsInLocked(containerID)
}

func (st *Store) cardsInLocked(containerID string) []models.Card {
	cards := []models.Card{}
	for _, card := range st.cards {
		if card.ParentContainerID == containerID {
			cards = append(cards, card)
		}
	}
	sort.SliceStable(cards, func(i, j int) bool { return cards[i].Index < cards[j].Index })
	return cards
}

// Card returns a card by its client id.
func (st *Store) Card(id string) (models.Card, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, card := range st.cards {
		if card.ID == id {
			return card, true
		}
	}
	return models.Card{}, false
}

// AddContainer creates a column on the server and appends it locally.
func (st *Store) AddContainer(ctx context.Context, header string) (models.Container, error) {
	container, err := st.client.CreateContainer(ctx, header, "")
	if err != nil {
		log.Error().Err(err).Msg("Error adding container")
		return models.Container{}, err
	}

	st.mu.Lock()
	st.containers = append(st.containers, container)
	st.mu.Unlock()
	return container, nil
}

// UpdateContainer applies a patch locally, then pushes it.
func (st *Store) UpdateContainer(ctx context.Context, id string, patch models.ContainerPatch) error {
	st.mu.Lock()
	for i := range st.containers {
		if st.containers[i].ID != id {
			continue
		}
		if patch.Header != nil {
			st.containers[i].Header = *patch.Header
		}
		if patch.HeaderColor != nil {
			st.containers[i].HeaderColor = *patch.HeaderColor
		}
		if patch.Index != nil {
			st.containers[i].Index = *patch.Index
		}
		break
	}
	st.mu.Unlock()

	if _, err := st.client.UpdateContainer(ctx, id, patch); err != nil {
		log.Error().Err(err).Str("container_id", id).Msg("Error updating container")
		return err
	}
	return nil
}

// DeleteContainer drops the column and its cards locally, then on the server.
func (st *Store) DeleteContainer(ctx context.Context, id string) error {
	st.mu.Lock()
	containers := st.containers[:0]
	for _, c := range st.containers {
		if c.ID != id {
			containers = append(containers, c)
		}
	}
	st.containers = containers
	cards := st.cards[:0]
	for _, card := range st.cards {
		if card.ParentContainerID != id {
			cards = append(cards, card)
		}
	}
	st.cards = cards
	st.mu.Unlock()

	if err := st.client.DeleteContainer(ctx, id); err != nil {
		log.Error().Err(err).Str("container_id", id).Msg("Failed to delete container")
		return err
	}
	return nil
}

// AddCard creates a card on the server and appends the reconciled result.
// The card id is generated here, on the client.
func (st *Store) AddCard(ctx context.Context, card models.Card) (models.Card, error) {
	if card.ID == "" {
		card.ID = uuid.New().String()
	}
	card.Index = -1 // let the server append it to its column

	created, err := st.client.CreateCard(ctx, card)
	if err != nil {
		log.Error().Err(err).Msg("Error adding card")
		return models.Card{}, err
	}

	st.mu.Lock()
	st.cards = append(st.cards, created)
	st.mu.Unlock()
	return created, nil
}

// UpdateCard applies a field patch locally, then pushes it.
func (st *Store) UpdateCard(ctx context.Context, id string, patch models.CardPatch) error {
	st.mu.Lock()
	for i := range st.cards {
		if st.cards[i].ID != id {
			continue
		}
		applyCardPatch(&st.cards[i], patch)
		break
	}
	st.mu.Unlock()

	if _, err := st.client.UpdateCard(ctx, id, patch); err != nil {
		log.Error().Err(err).Str("card_id", id).Msg("Error updating card")
		return err
	}
	return nil
}

// DeleteCard drops the card locally, then on the server.
func (st *Store) DeleteCard(ctx context.Context, id string) error {
	st.mu.Lock()
	cards := st.cards[:0]
	for _, card := range st.cards {
		if card.ID != id {
			cards = append(cards, card)
		}
	}
	st.cards = cards
	st.mu.Unlock()

	if err := st.client.DeleteCard(ctx, id); err != nil {
		log.Error().Err(err).Str("card_id", id).Msg("Error removing card")
		return err
	}
	return nil
}

// ReorderCards moves the card at position from to position to within one
// column, renumbers the whole column 0..n-1, and pushes a single batched
// reorder for it.
func (st *Store) ReorderCards(ctx context.Context, containerID string, from, to int) error {
	st.mu.Lock()
	column := st.cardsInLocked(containerID)
	if from < 0 || from >= len(column) || to < 0 || to >= len(column) {
		st.mu.Unlock()
		return nil
	}

	moved := column[from]
	column = append(column[:from], column[from+1:]...)
	column = append(column[:to], append([]models.Card{moved}, column[to:]...)...)

	items := renumberLocked(st, column)
	st.mu.Unlock()

	if err := st.client.ReorderCards(ctx, items); err != nil {
		log.Error().Err(err).Str("container_id", containerID).Msg("Error reordering cards")
		return err
	}
	return nil
}

// MoveCard moves a card into another column at the given position. Both the
// source and destination columns are renumbered so no duplicate or gapped
// indices survive the move; the server sees one card update plus one batched
// reorder covering both columns.
func (st *Store) MoveCard(ctx context.Context, cardID, toContainerID string, toPos int) error {
	st.mu.Lock()
	var card *models.Card
	for i := range st.cards {
		if st.cards[i].ID == cardID {
			card = &st.cards[i]
			break
		}
	}
	if card == nil || card.ParentContainerID == toContainerID {
		st.mu.Unlock()
		return nil
	}

	fromContainerID := card.ParentContainerID
	card.ParentContainerID = toContainerID

	source := st.cardsInLocked(fromContainerID)
	dest := st.cardsInLocked(toContainerID)

	// cardsInLocked already sees the new parent; pull the moved card to the
	// requested position within the destination order.
	for i := range dest {
		if dest[i].ID == cardID {
			moved := dest[i]
			dest = append(dest[:i], dest[i+1:]...)
			if toPos < 0 || toPos > len(dest) {
				toPos = len(dest)
			}
			dest = append(dest[:toPos], append([]models.Card{moved}, dest[toPos:]...)...)
			break
		}
	}

	items := renumberLocked(st, source)
	items = append(items, renumberLocked(st, dest)...)
	newIndex := 0
	for _, item := range items {
		if item.ID == cardID {
			newIndex = item.Index
		}
	}
	st.mu.Unlock()

	patch := models.CardPatch{ParentContainerID: &toContainerID, Index: &newIndex}
	if _, err := st.client.UpdateCard(ctx, cardID, patch); err != nil {
		log.Error().Err(err).Str("card_id", cardID).Msg("Error moving card")
		return err
	}
	if err := st.client.ReorderCards(ctx, items); err != nil {
		log.Error().Err(err).Str("card_id", cardID).Msg("Error renumbering after move")
		return err
	}
	return nil
}

// MoveContainer moves a column from one board position to another, renumbers
// all columns, and pushes one batched reorder.
func (st *Store) MoveContainer(ctx context.Context, from, to int) error {
	st.mu.Lock()
	if from < 0 || from >= len(st.containers) || to < 0 || to >= len(st.containers) {
		st.mu.Unlock()
		return nil
	}

	moved := st.containers[from]
	st.containers = append(st.containers[:from], st.containers[from+1:]...)
	st.containers = append(st.containers[:to], append([]models.Container{moved}, st.containers[to:]...)...)

	items := make([]models.IndexUpdate, len(st.containers))
	for i := range st.containers {
		st.containers[i].Index = i
		items[i] = models.IndexUpdate{ID: st.containers[i].ID, Index: i}
	}
	st.mu.Unlock()

	if err := st.client.ReorderContainers(ctx, items); err != nil {
		log.Error().Err(err).Msg("Error reordering containers")
		return err
	}
	return nil
}

// AddComment posts a comment with a client-generated id and stores the
// server-stamped result on the local card.
func (st *Store) AddComment(ctx context.Context, cardID, text, user string) (models.Comment, error) {
	commentID := uuid.New().String()
	comment, err := st.client.AddComment(ctx, cardID, commentID, text, user)
	if err != nil {
		log.Error().Err(err).Str("card_id", cardID).Msg("Error adding comment")
		return models.Comment{}, err
	}

	st.mu.Lock()
	for i := range st.cards {
		if st.cards[i].ID == cardID {
			st.cards[i].Comments = append(st.cards[i].Comments, comment)
			break
		}
	}
	st.mu.Unlock()
	return comment, nil
}

// UpdateComment applies a comment patch locally, then pushes it.
func (st *Store) UpdateComment(ctx context.Context, cardID, commentID string, patch models.CommentPatch) error {
	st.mu.Lock()
	for i := range st.cards {
		if st.cards[i].ID != cardID {
			continue
		}
		for j := range st.cards[i].Comments {
			if st.cards[i].Comments[j].CommentID != commentID {
				continue
			}
			if patch.Text != nil {
				st.cards[i].Comments[j].Text = *patch.Text
			}
			if patch.Edited != nil {
				st.cards[i].Comments[j].Edited = *patch.Edited
			}
			break
		}
		break
	}
	st.mu.Unlock()

	if _, err := st.client.UpdateComment(ctx, cardID, commentID, patch); err != nil {
		log.Error().Err(err).Str("card_id", cardID).Msg("Error updating comment")
		return err
	}
	return nil
}

// RemoveComment drops a comment locally, then on the server.
func (st *Store) RemoveComment(ctx context.Context, cardID, commentID string) error {
	st.mu.Lock()
	for i := range st.cards {
		if st.cards[i].ID != cardID {
			continue
		}
		comments := st.cards[i].Comments[:0]
		for _, cm := range st.cards[i].Comments {
			if cm.CommentID != commentID {
				comments = append(comments, cm)
			}
		}
		st.cards[i].Comments = comments
		break
	}
	st.mu.Unlock()

	if err := st.client.RemoveComment(ctx, cardID, commentID); err != nil {
		log.Error().Err(err).Str("card_id", cardID).Msg("Error removing comment")
		return err
	}
	return nil
}

// renumberLocked assigns 0..n-1 indices to the given column order, writes
// them back into the flat card list, and returns the batch items. The store
// mutex must be held.
func renumberLocked(st *Store, column []models.Card) []models.IndexUpdate {
	items := make([]models.IndexUpdate, 0, len(column))
	for pos, card := range column {
		for i := range st.cards {
			if st.cards[i].ID == card.ID {
				st.cards[i].Index = pos
				break
			}
		}
		items = append(items, models.IndexUpdate{ID: card.ID, Index: pos})
	}
	return items
}

func applyCardPatch(card *models.Card, patch models.CardPatch) {
	if patch.Title != nil {
		card.Title = *patch.Title
	}
	if patch.SecondaryTitle != nil {
		card.SecondaryTitle = *patch.SecondaryTitle
	}
	if patch.MainText != nil {
		card.MainText = *patch.MainText
	}
	if patch.CardColor != nil {
		card.CardColor = *patch.CardColor
	}
	if patch.Tags != nil {
		card.Tags = *patch.Tags
	}
	if patch.VersionText != nil {
		card.VersionText = *patch.VersionText
	}
	if patch.ParentContainerID != nil {
		card.ParentContainerID = *patch.ParentContainerID
	}
	if patch.Index != nil {
		card.Index = *patch.Index
	}
	if patch.EstimatedTime != nil {
		card.EstimatedTime = *patch.EstimatedTime
	}
	if patch.ActualTime != nil {
		card.ActualTime = *patch.ActualTime
	}
}
