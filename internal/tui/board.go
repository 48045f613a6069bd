package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nkallio/cardwall/internal/client"
	"github.com/nkallio/cardwall/internal/models"
)

// inputMode says what the text prompt, when open, will create or change.
type inputMode int

const (
	inputNone inputMode = iota
	inputNewCard
	inputNewContainer
	inputRenameContainer
	inputRetitleCard
	inputNewComment
	inputEditComment
)

// BoardModel is the top-level Bubble Tea model rendering the kanban board.
// Drag gestures have no terminal equivalent, so move and reorder intents are
// key-driven; each intent becomes a Store call running as a command.
type BoardModel struct {
	store *client.Store

	containers []models.Container
	columns    map[string][]models.Card

	focusCol  int
	focusCard int

	input textinput.Model
	mode  inputMode
	// Comment addressed by an open inputEditComment prompt.
	editCommentID string

	status string
	width  int
	height int
}

// NewBoardModel creates a board over the given store.
func NewBoardModel(store *client.Store) BoardModel {
	input := textinput.New()
	input.CharLimit = 120
	return BoardModel{
		store:   store,
		columns: map[string][]models.Card{},
		input:   input,
	}
}

// Init implements tea.Model.
func (m BoardModel) Init() tea.Cmd {
	return RefreshCmd(m.store)
}

// Update implements tea.Model.
func (m BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case stateChangedMsg:
		m.status = ""
		m.reload()
		return m, nil

	case errMsg:
		m.status = "error: " + msg.err.Error()
		// Local state may have diverged from the server; re-read it.
		m.reload()
		return m, nil

	case tea.KeyMsg:
		if m.mode != inputNone {
			return m.handleInputKey(msg)
		}
		return m.handleKey(msg)
	}

	return m, nil
}

// reload re-reads the store's slices into the render caches and clamps the
// cursor.
func (m *BoardModel) reload() {
	m.containers = m.store.Containers()
	m.columns = map[string][]models.Card{}
	for _, c := range m.containers {
		m.columns[c.ID] = m.store.CardsIn(c.ID)
	}
	if m.focusCol >= len(m.containers) {
		m.focusCol = len(m.containers) - 1
	}
	if m.focusCol < 0 {
		m.focusCol = 0
	}
	m.clampCard()
}

func (m *BoardModel) clampCard() {
	n := len(m.focusedColumn())
	if m.focusCard >= n {
		m.focusCard = n - 1
	}
	if m.focusCard < 0 {
		m.focusCard = 0
	}
}

func (m BoardModel) focusedContainer() (models.Container, bool) {
	if m.focusCol < 0 || m.focusCol >= len(m.containers) {
		return models.Container{}, false
	}
	return m.containers[m.focusCol], true
}

func (m BoardModel) focusedColumn() []models.Card {
	container, ok := m.focusedContainer()
	if !ok {
		return nil
	}
	return m.columns[container.ID]
}

func (m BoardModel) focusedCard() (models.Card, bool) {
	column := m.focusedColumn()
	if m.focusCard < 0 || m.focusCard >= len(column) {
		return models.Card{}, false
	}
	return column[m.focusCard], true
}

func (m BoardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "r":
		m.status = "refreshing..."
		return m, RefreshCmd(m.store)

	case "left", "h":
		if m.focusCol > 0 {
			m.focusCol--
			m.clampCard()
		}
		return m, nil

	case "right", "l":
		if m.focusCol < len(m.containers)-1 {
			m.focusCol++
			m.clampCard()
		}
		return m, nil

	case "up", "k":
		if m.focusCard > 0 {
			m.focusCard--
		}
		return m, nil

	case "down", "j":
		if m.focusCard < len(m.focusedColumn())-1 {
			m.focusCard++
		}
		return m, nil

	case "shift+up", "K":
		return m.reorderFocused(-1)

	case "shift+down", "J":
		return m.reorderFocused(1)

	case "shift+left", "H":
		return m.moveFocused(-1)

	case "shift+right", "L":
		return m.moveFocused(1)

	case "[":
		return m.moveColumn(-1)

	case "]":
		return m.moveColumn(1)

	case "n":
		if _, ok := m.focusedContainer(); ok {
			return m.openInput(inputNewCard, "New card title")
		}
		return m, nil

	case "N":
		return m.openInput(inputNewContainer, "New container header")

	case "e":
		if container, ok := m.focusedContainer(); ok {
			model, cmd := m.openInput(inputRenameContainer, "Container header")
			board := model.(BoardModel)
			board.input.SetValue(container.Header)
			return board, cmd
		}
		return m, nil

	case "t":
		if card, ok := m.focusedCard(); ok {
			model, cmd := m.openInput(inputRetitleCard, "Card title")
			board := model.(BoardModel)
			board.input.SetValue(card.Title)
			return board, cmd
		}
		return m, nil

	case "c":
		if _, ok := m.focusedCard(); ok {
			return m.openInput(inputNewComment, "Comment")
		}
		return m, nil

	case "C":
		if card, ok := m.focusedCard(); ok && len(card.Comments) > 0 {
			last := card.Comments[len(card.Comments)-1]
			model, cmd := m.openInput(inputEditComment, "Comment")
			board := model.(BoardModel)
			board.editCommentID = last.CommentID
			board.input.SetValue(last.Text)
			return board, cmd
		}
		return m, nil

	case "X":
		if card, ok := m.focusedCard(); ok && len(card.Comments) > 0 {
			last := card.Comments[len(card.Comments)-1]
			m.status = "removing comment..."
			return m, removeCommentCmd(m.store, card.ID, last.CommentID)
		}
		return m, nil

	case "d":
		if card, ok := m.focusedCard(); ok {
			m.status = "deleting card..."
			return m, deleteCardCmd(m.store, card.ID)
		}
		return m, nil

	case "D":
		if container, ok := m.focusedContainer(); ok {
			m.status = "deleting container..."
			return m, deleteContainerCmd(m.store, container.ID)
		}
		return m, nil
	}

	return m, nil
}

func (m BoardModel) openInput(mode inputMode, placeholder string) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.input.Placeholder = placeholder
	m.input.SetValue("")
	m.input.Focus()
	return m, textinput.Blink
}

func (m BoardModel) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.mode = inputNone
		m.input.Blur()
		return m, nil

	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		mode := m.mode
		m.mode = inputNone
		m.input.Blur()
		if value == "" {
			return m, nil
		}

		switch mode {
		case inputNewCard:
			if container, ok := m.focusedContainer(); ok {
				return m, addCardCmd(m.store, container.ID, value)
			}
		case inputNewContainer:
			return m, addContainerCmd(m.store, value)
		case inputRenameContainer:
			if container, ok := m.focusedContainer(); ok {
				return m, renameContainerCmd(m.store, container.ID, value)
			}
		case inputRetitleCard:
			if card, ok := m.focusedCard(); ok {
				return m, retitleCardCmd(m.store, card.ID, value)
			}
		case inputNewComment:
			if card, ok := m.focusedCard(); ok {
				return m, addCommentCmd(m.store, card.ID, value)
			}
		case inputEditComment:
			if card, ok := m.focusedCard(); ok && m.editCommentID != "" {
				return m, editCommentCmd(m.store, card.ID, m.editCommentID, value)
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// reorderFocused moves the selected card up or down within its column.
func (m BoardModel) reorderFocused(delta int) (tea.Model, tea.Cmd) {
	container, ok := m.focusedContainer()
	if !ok {
		return m, nil
	}
	from := m.focusCard
	to := from + delta
	if to < 0 || to >= len(m.focusedColumn()) {
		return m, nil
	}
	m.focusCard = to
	return m, reorderCardsCmd(m.store, container.ID, from, to)
}

// moveFocused moves the selected card into the adjacent column, keeping its
// vertical position where possible.
func (m BoardModel) moveFocused(delta int) (tea.Model, tea.Cmd) {
	card, ok := m.focusedCard()
	if !ok {
		return m, nil
	}
	target := m.focusCol + delta
	if target < 0 || target >= len(m.containers) {
		return m, nil
	}

	dest := m.containers[target]
	toPos := m.focusCard
	if n := len(m.columns[dest.ID]); toPos > n {
		toPos = n
	}
	m.focusCol = target
	m.focusCard = toPos
	return m, moveCardCmd(m.store, card.ID, dest.ID, toPos)
}

// moveColumn shifts the focused column left or right on the board.
func (m BoardModel) moveColumn(delta int) (tea.Model, tea.Cmd) {
	from := m.focusCol
	to := from + delta
	if to < 0 || to >= len(m.containers) {
		return m, nil
	}
	m.focusCol = to
	return m, moveContainerCmd(m.store, from, to)
}

// View implements tea.Model.
func (m BoardModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading board..."
	}

	columns := make([]string, 0, len(m.containers))
	for i, container := range m.containers {
		columns = append(columns, m.renderColumn(i, container))
	}

	board := "No containers yet. Press N to create one."
	if len(columns) > 0 {
		board = lipgloss.JoinHorizontal(lipgloss.Top, columns...)
	}

	var b strings.Builder
	b.WriteString(board)
	b.WriteString("\n")
	if m.mode != inputNone {
		b.WriteString(PromptStyle.Render(m.input.View()))
		b.WriteString("\n")
	}
	b.WriteString(m.statusLine())
	return b.String()
}

func (m BoardModel) renderColumn(idx int, container models.Container) string {
	colWidth := 28
	if n := len(m.containers); n > 0 && m.width/n-2 < colWidth {
		if w := m.width/n - 2; w > 14 {
			colWidth = w
		}
	}

	header := StyleForColor(container.HeaderColor).Render(container.Header)
	parts := []string{header}

	for j, card := range m.columns[container.ID] {
		style := CardStyle
		if idx == m.focusCol && j == m.focusCard {
			style = SelectedCardStyle
		}
		body := card.Title
		if card.SecondaryTitle != "" {
			body += "\n" + CardMetaStyle.Render(card.SecondaryTitle)
		}
		if n := len(card.Comments); n > 0 {
			body += "\n" + CardMetaStyle.Render(fmt.Sprintf("%d comment(s)", n))
		}
		parts = append(parts, style.Width(colWidth-4).Render(body))
	}

	column := lipgloss.JoinVertical(lipgloss.Left, parts...)
	frame := ColumnStyle
	if idx == m.focusCol {
		frame = FocusedColumnStyle
	}
	return frame.Width(colWidth).Render(column)
}

func (m BoardModel) statusLine() string {
	help := "←→ columns · ↑↓ cards · shift+arrows move · [ ] move column · n/N new · t/e edit · c/C/X comments · d/D delete · r refresh · q quit"
	line := help
	if m.status != "" {
		if strings.HasPrefix(m.status, "error:") {
			line = ErrorStyle.Render(m.status)
		} else {
			line = m.status
		}
	}
	return StatusBarStyle.Width(m.width).Render(line)
}
