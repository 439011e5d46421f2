package tui

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette of the dashboard. Colors are ANSI
// 256-color codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	ErrorText        lipgloss.Color
	SuccessText      lipgloss.Color

	// Record type badges.
	TextBadge     lipgloss.Color
	ImageBadge    lipgloss.Color
	SamplingBadge lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText:         lipgloss.Color("252"),
	FaintText:          lipgloss.Color("243"),
	SelectedBackground: lipgloss.Color("237"),
	SelectedForeground: lipgloss.Color("231"),
	HeaderForeground:   lipgloss.Color("213"),
	BorderColor:        lipgloss.Color("240"),
	ErrorText:          lipgloss.Color("203"),
	SuccessText:        lipgloss.Color("78"),
	TextBadge:          lipgloss.Color("75"),
	ImageBadge:         lipgloss.Color("178"),
	SamplingBadge:      lipgloss.Color("78"),
}

type styles struct {
	title    lipgloss.Style
	tab      lipgloss.Style
	tabOn    lipgloss.Style
	faint    lipgloss.Style
	selected lipgloss.Style
	err      lipgloss.Style
	ok       lipgloss.Style
	box      lipgloss.Style
	focused  lipgloss.Style
	badges   map[string]lipgloss.Style
}

func newStyles(t Theme) styles {
	badge := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c).Bold(true)
	}
	return styles{
		title:    lipgloss.NewStyle().Foreground(t.HeaderForeground).Bold(true),
		tab:      lipgloss.NewStyle().Foreground(t.FaintText).Padding(0, 1),
		tabOn:    lipgloss.NewStyle().Foreground(t.SelectedForeground).Background(t.SelectedBackground).Bold(true).Padding(0, 1),
		faint:    lipgloss.NewStyle().Foreground(t.FaintText),
		selected: lipgloss.NewStyle().Foreground(t.SelectedForeground).Background(t.SelectedBackground),
		err:      lipgloss.NewStyle().Foreground(t.ErrorText),
		ok:       lipgloss.NewStyle().Foreground(t.SuccessText),
		box:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.BorderColor).Padding(0, 1),
		focused:  lipgloss.NewStyle().Foreground(t.HeaderForeground),
		badges: map[string]lipgloss.Style{
			"text":     badge(t.TextBadge),
			"image":    badge(t.ImageBadge),
			"sampling": badge(t.SamplingBadge),
		},
	}
}
