package tui

import "github.com/charmbracelet/lipgloss"

// theme is the dashboard palette. Cycle with 'c'.
type theme struct {
	name    string
	title   lipgloss.Color
	text    lipgloss.Color
	muted   lipgloss.Color
	faint   lipgloss.Color
	bonds   lipgloss.Color
	paused  lipgloss.Color
	broken  lipgloss.Color
	modulus lipgloss.Color
}

var themes = []theme{
	{
		name:    "terminal",
		title:   "86",
		text:    "255",
		muted:   "242",
		faint:   "238",
		bonds:   "82",
		paused:  "220",
		broken:  "203",
		modulus: "213",
	},
	{
		name:    "crust",
		title:   "#feca57",
		text:    "#fff5f5",
		muted:   "#8b6b8c",
		faint:   "#5a4a5b",
		bonds:   "#5fd068",
		paused:  "#ffc048",
		broken:  "#ff4757",
		modulus: "#ff9ff3",
	},
	{
		name:    "minimal",
		title:   "#ffffff",
		text:    "#ffffff",
		muted:   "#888888",
		faint:   "#555555",
		bonds:   "#cccccc",
		paused:  "#ffaa00",
		broken:  "#ff0000",
		modulus: "#0088ff",
	},
}

type styles struct {
	title, text, muted, faint, bonds, paused, broken, modulus lipgloss.Style
}

func (t theme) styles() styles {
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	return styles{
		title:   fg(t.title).Bold(true),
		text:    fg(t.text),
		muted:   fg(t.muted),
		faint:   fg(t.faint),
		bonds:   fg(t.bonds),
		paused:  fg(t.paused),
		broken:  fg(t.broken),
		modulus: fg(t.modulus),
	}
}
