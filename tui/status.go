package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// locationDisplayName returns the defined name of a location, deriving one
// from the ID when content left it blank. "great_hall" -> "Great Hall".
func (m Model) locationDisplayName(id string) string {
	if loc, ok := m.engine.Defs.Locations[id]; ok && loc.Name != "" {
		return loc.Name
	}
	words := strings.Split(id, "_")
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// renderStatusBar produces a full-width inverted status line showing
// current location, exits, score, inventory, and turn count.
func (m Model) renderStatusBar() string {
	w := m.engine.World
	locID := w.PlayerLocation()

	var dirs []string
	if loc, ok := m.engine.Defs.Locations[locID]; ok {
		for dir := range loc.Exits {
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	exitStr := strings.Join(dirs, ",")

	left := fmt.Sprintf(" %s | Exits: %s", m.locationDisplayName(locID), exitStr)
	right := fmt.Sprintf("S:%d T:%d ", w.Score(), w.Moves())

	// Show inventory items if they fit, otherwise just the count.
	inv := w.Inventory()
	if len(inv) > 0 {
		names := make([]string, 0, len(inv))
		for _, id := range inv {
			name := id
			if def, ok := m.engine.Defs.Items[id]; ok && def.Name != "" {
				name = def.Name
			}
			names = append(names, name)
		}
		candidate := fmt.Sprintf("Inv: %s | S:%d T:%d ",
			strings.Join(names, ", "), w.Score(), w.Moves())
		if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < m.width {
			right = candidate
		} else {
			right = fmt.Sprintf("Inv: %d | S:%d T:%d ", len(inv), w.Score(), w.Moves())
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
