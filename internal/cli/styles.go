// Package cli provides styled terminal output and input helpers for the
// checkout session.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Tone classifies a line printed to the operator.
type Tone int

// Tones, from routine to alarming.
const (
	ToneNote Tone = iota
	ToneOK
	ToneWarn
	ToneFault
)

var (
	accent = lipgloss.Color("#5B8DEF")
	teal   = lipgloss.Color("#4ECDC4")
	amber  = lipgloss.Color("#FFE66D")
	red    = lipgloss.Color("#FF6B6B")
	mint   = lipgloss.Color("#95E1D3")
	gray   = lipgloss.Color("#666666")

	tones = map[Tone]struct {
		style  lipgloss.Style
		marker string
	}{
		ToneNote:  {lipgloss.NewStyle().Foreground(mint), "·"},
		ToneOK:    {lipgloss.NewStyle().Foreground(teal), "✓"},
		ToneWarn:  {lipgloss.NewStyle().Foreground(amber), "?"},
		ToneFault: {lipgloss.NewStyle().Foreground(red), "✗"},
	}

	// MutedStyle is for provenance and hints that trail a message.
	MutedStyle = lipgloss.NewStyle().Foreground(gray)

	// TotalStyle highlights cart totals.
	TotalStyle = lipgloss.NewStyle().Bold(true).Foreground(teal)

	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	receiptStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(0, 1)
)

// Say renders one operator message with the marker of its tone.
func Say(tone Tone, message string) string {
	t, ok := tones[tone]
	if !ok {
		t = tones[ToneNote]
	}
	return t.style.Render(t.marker + " " + message)
}

// Heading renders a session or report heading.
func Heading(title string) string {
	return headingStyle.MarginBottom(1).Render("🛒 " + title)
}

// Prompt renders the input prompt for a scan mode.
func Prompt(mode string) string {
	return headingStyle.Render(mode + " → ")
}

// receipt boxes content under a plain title.
func receipt(title, content string) string {
	return receiptStyle.Render(lipgloss.JoinVertical(lipgloss.Left, headingStyle.Render(title), content))
}
