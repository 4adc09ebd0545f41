package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/fablecore/types"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleNarrative = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleStrong = lipgloss.NewStyle().
			Bold(true)

	styleEmphasis = lipgloss.NewStyle().
			Italic(true)

	styleYouSee = lipgloss.NewStyle().
			Bold(true)

	styleDialogue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// lineKind identifies the type of an output line for styling. Lines with
// an explicit engine style hint bypass classification.
type lineKind int

const (
	kindNarrative lineKind = iota
	kindYouSee
	kindDialogue
	kindSystem
	kindError
	kindTrace
)

// classifyLine determines what kind of output line this is from its text.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case strings.HasPrefix(line, "You can see "):
		return kindYouSee
	case strings.HasPrefix(line, "You can't"),
		strings.HasPrefix(line, "You aren't"),
		strings.HasPrefix(line, "You don't"),
		strings.HasPrefix(line, "I don't"),
		strings.HasPrefix(line, "I only understood"),
		strings.HasPrefix(line, "I beg your pardon"):
		return kindError
	case containsQuotedSpeech(line):
		return kindDialogue
	default:
		return kindNarrative
	}
}

// containsQuotedSpeech checks if a line contains a substantial quoted
// passage, in either quote character.
func containsQuotedSpeech(line string) bool {
	for _, quote := range []rune{'\'', '"'} {
		inQuote := false
		quoteLen := 0
		for _, r := range line {
			if r == quote {
				if inQuote && quoteLen > 5 {
					return true
				}
				inQuote = !inQuote
				quoteLen = 0
			} else if inQuote {
				quoteLen++
			}
		}
	}
	return false
}

// renderStyled applies an explicit engine style hint.
func renderStyled(line string, style types.Style) string {
	switch style {
	case types.StyleStrong:
		return styleStrong.Render(line)
	case types.StyleEmphasis:
		return styleEmphasis.Render(line)
	case types.StyleSystem:
		return styledSystemMsg(line)
	default:
		return styleNarrative.Render(line)
	}
}

// styledYouSee renders the visible-contents line with the item list bold.
func styledYouSee(line string) string {
	const prefix = "You can see "
	if !strings.HasPrefix(line, prefix) {
		return styleNarrative.Render(line)
	}
	return styleNarrative.Render(prefix) + styleYouSee.Render(line[len(prefix):])
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}
