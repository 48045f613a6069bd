package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Column frame
	ColumnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241")).
			Padding(0, 1)
	FocusedColumnStyle = ColumnStyle.
				BorderForeground(lipgloss.Color("62"))

	// Column headers
	HeaderStyle = lipgloss.NewStyle().Bold(true)

	// Cards
	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("241")).
			Padding(0, 1)
	SelectedCardStyle = CardStyle.
				BorderForeground(lipgloss.Color("170")).
				Bold(true)
	CardMetaStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)
	ErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	// Input prompt
	PromptStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(0, 1)
)

// boardColors maps the color names stored on containers and cards to
// terminal colors. Unknown names render with the default foreground.
var boardColors = map[string]lipgloss.Color{
	"white":  lipgloss.Color("255"),
	"red":    lipgloss.Color("196"),
	"green":  lipgloss.Color("42"),
	"blue":   lipgloss.Color("75"),
	"yellow": lipgloss.Color("214"),
	"orange": lipgloss.Color("208"),
	"purple": lipgloss.Color("170"),
	"pink":   lipgloss.Color("212"),
	"gray":   lipgloss.Color("245"),
}

// StyleForColor returns a header style tinted with the given board color.
func StyleForColor(name string) lipgloss.Style {
	if c, ok := boardColors[name]; ok {
		return HeaderStyle.Foreground(c)
	}
	return HeaderStyle
}
