// Package theme defines color themes for the thriftify dashboard.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme maps dashboard roles to colors.
type Theme struct {
	Name string

	Background   lipgloss.Color
	Surface      lipgloss.Color // panels and chart area
	SurfaceHover lipgloss.Color // selected list row
	Border       lipgloss.Color
	BorderAccent lipgloss.Color // focused panel

	TextDim     lipgloss.Color
	TextMuted   lipgloss.Color
	TextPrimary lipgloss.Color
	Accent      lipgloss.Color

	Planned lipgloss.Color // budget pace line
	Actual  lipgloss.Color // spending bars
	Cursor  lipgloss.Color // highlighted day

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

// Active is the currently selected theme.
var Active = FlexokiDark

// FlexokiDark is the default warm dark theme.
var FlexokiDark = Theme{
	Name:         "flexoki-dark",
	Background:   lipgloss.Color("#100F0F"),
	Surface:      lipgloss.Color("#1C1B1A"),
	SurfaceHover: lipgloss.Color("#282726"),
	Border:       lipgloss.Color("#403E3C"),
	BorderAccent: lipgloss.Color("#3AA99F"),
	TextDim:      lipgloss.Color("#575653"),
	TextMuted:    lipgloss.Color("#878580"),
	TextPrimary:  lipgloss.Color("#FFFCF0"),
	Accent:       lipgloss.Color("#3AA99F"),
	Planned:      lipgloss.Color("#D14D41"),
	Actual:       lipgloss.Color("#4385BE"),
	Cursor:       lipgloss.Color("#D0A215"),
	Success:      lipgloss.Color("#879A39"),
	Warning:      lipgloss.Color("#DA702C"),
	Error:        lipgloss.Color("#D14D41"),
}

// CatppuccinMocha is a soft pastel theme.
var CatppuccinMocha = Theme{
	Name:         "catppuccin-mocha",
	Background:   lipgloss.Color("#1E1E2E"),
	Surface:      lipgloss.Color("#313244"),
	SurfaceHover: lipgloss.Color("#45475A"),
	Border:       lipgloss.Color("#585B70"),
	BorderAccent: lipgloss.Color("#89B4FA"),
	TextDim:      lipgloss.Color("#6C7086"),
	TextMuted:    lipgloss.Color("#A6ADC8"),
	TextPrimary:  lipgloss.Color("#CDD6F4"),
	Accent:       lipgloss.Color("#89B4FA"),
	Planned:      lipgloss.Color("#F38BA8"),
	Actual:       lipgloss.Color("#89B4FA"),
	Cursor:       lipgloss.Color("#F9E2AF"),
	Success:      lipgloss.Color("#A6E3A1"),
	Warning:      lipgloss.Color("#FAB387"),
	Error:        lipgloss.Color("#F38BA8"),
}

// TokyoNight is a cool blue and purple theme.
var TokyoNight = Theme{
	Name:         "tokyo-night",
	Background:   lipgloss.Color("#1A1B26"),
	Surface:      lipgloss.Color("#24283B"),
	SurfaceHover: lipgloss.Color("#343A52"),
	Border:       lipgloss.Color("#565F89"),
	BorderAccent: lipgloss.Color("#7AA2F7"),
	TextDim:      lipgloss.Color("#565F89"),
	TextMuted:    lipgloss.Color("#A9B1D6"),
	TextPrimary:  lipgloss.Color("#C0CAF5"),
	Accent:       lipgloss.Color("#7AA2F7"),
	Planned:      lipgloss.Color("#F7768E"),
	Actual:       lipgloss.Color("#7DCFFF"),
	Cursor:       lipgloss.Color("#E0AF68"),
	Success:      lipgloss.Color("#9ECE6A"),
	Warning:      lipgloss.Color("#FF9E64"),
	Error:        lipgloss.Color("#F7768E"),
}

// Terminal uses the 16 ANSI colors only.
var Terminal = Theme{
	Name:         "terminal",
	Background:   lipgloss.Color("0"),
	Surface:      lipgloss.Color("0"),
	SurfaceHover: lipgloss.Color("8"),
	Border:       lipgloss.Color("8"),
	BorderAccent: lipgloss.Color("6"),
	TextDim:      lipgloss.Color("8"),
	TextMuted:    lipgloss.Color("7"),
	TextPrimary:  lipgloss.Color("15"),
	Accent:       lipgloss.Color("6"),
	Planned:      lipgloss.Color("1"),
	Actual:       lipgloss.Color("4"),
	Cursor:       lipgloss.Color("3"),
	Success:      lipgloss.Color("2"),
	Warning:      lipgloss.Color("3"),
	Error:        lipgloss.Color("1"),
}

// All available themes.
var All = []Theme{FlexokiDark, CatppuccinMocha, TokyoNight, Terminal}

// Lookup returns the theme with the given name.
func Lookup(name string) (Theme, bool) {
	for _, t := range All {
		if t.Name == name {
			return t, true
		}
	}
	return Theme{}, false
}

// ByName returns a theme by its name, defaulting to FlexokiDark.
func ByName(name string) Theme {
	if t, ok := Lookup(name); ok {
		return t
	}
	return FlexokiDark
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}

// Names lists the available theme names in display order.
func Names() []string {
	names := make([]string, len(All))
	for i, t := range All {
		names[i] = t.Name
	}
	return names
}
