// Package tui implements the storefront terminal user interface using Bubble Tea.
package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	colorSky       = lipgloss.Color("#4FA3E0")
	colorWheat     = lipgloss.Color("#F5C542")
	colorInk       = lipgloss.Color("#1E2A3A")
	colorPaper     = lipgloss.Color("#F4F1EA")
	colorSlate     = lipgloss.Color("#5B6B7F")
	colorHighlight = lipgloss.Color("#FF9800")
	colorSuccess   = lipgloss.Color("#4CAF50")
	colorError     = lipgloss.Color("#F44336")
	colorHeart     = lipgloss.Color("#E91E63")
	colorMuted     = lipgloss.Color("#9E9E9E")
)

// Styles holds all the lipgloss styles for the TUI.
type Styles struct {
	// App container
	App lipgloss.Style

	// Header
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	CartBadge   lipgloss.Style

	// Product rendering
	ListTitle    lipgloss.Style
	ProductName  lipgloss.Style
	Price        lipgloss.Style
	OldPrice     lipgloss.Style
	Discount     lipgloss.Style
	FreeShipping lipgloss.Style
	Smart        lipgloss.Style
	Heart        lipgloss.Style

	// Checkout
	LevelTitle   lipgloss.Style
	LevelFocused lipgloss.Style
	Chosen       lipgloss.Style
	Receipt      lipgloss.Style

	// General
	Subtle    lipgloss.Style
	Highlight lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Box       lipgloss.Style
	HelpBar   lipgloss.Style
}

// DefaultStyles returns the default TUI styles.
func DefaultStyles() Styles {
	return Styles{
		App: lipgloss.NewStyle().
			Padding(1, 2),

		Header: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(colorSlate).
			MarginBottom(1).
			Padding(0, 1),

		HeaderTitle: lipgloss.NewStyle().
			Foreground(colorSky).
			Bold(true),

		CartBadge: lipgloss.NewStyle().
			Foreground(colorInk).
			Background(colorWheat).
			Bold(true).
			Padding(0, 1),

		ListTitle: lipgloss.NewStyle().
			Foreground(colorSky).
			Bold(true).
			MarginBottom(1),

		ProductName: lipgloss.NewStyle().
			Foreground(colorSky).
			Bold(true).
			MarginBottom(1),

		Price: lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true),

		OldPrice: lipgloss.NewStyle().
			Foreground(colorMuted).
			Strikethrough(true),

		Discount: lipgloss.NewStyle().
			Foreground(colorInk).
			Background(colorError).
			Padding(0, 1),

		FreeShipping: lipgloss.NewStyle().
			Foreground(colorSuccess),

		Smart: lipgloss.NewStyle().
			Foreground(colorInk).
			Background(colorSky).
			Bold(true).
			Padding(0, 1),

		Heart: lipgloss.NewStyle().
			Foreground(colorHeart),

		LevelTitle: lipgloss.NewStyle().
			Foreground(colorSlate).
			Bold(true),

		LevelFocused: lipgloss.NewStyle().
			Foreground(colorWheat).
			Bold(true),

		Chosen: lipgloss.NewStyle().
			Foreground(colorPaper),

		Receipt: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorSuccess).
			Padding(1, 2).
			MarginTop(1),

		Subtle: lipgloss.NewStyle().
			Foreground(colorMuted),

		Highlight: lipgloss.NewStyle().
			Foreground(colorHighlight).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true),

		Success: lipgloss.NewStyle().
			Foreground(colorSuccess),

		Box: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorSlate).
			Padding(1, 2),

		HelpBar: lipgloss.NewStyle().
			Foreground(colorMuted).
			MarginTop(1),
	}
}
