// Package scope computes the set of entities grammatically reachable by
// the player: held items, items in the current location, items inside open
// or transparent containers along either chain, and globally visible
// items. Darkness never removes an entity from scope — action handlers
// check light separately.
package scope

import (
	"sort"

	"github.com/nathoo/fablecore/engine/state"
	"github.com/nathoo/fablecore/types"
)

// MaxDepth bounds containment traversal so a malformed parent graph can
// never send resolution into an unbounded walk.
const MaxDepth = 10

// InScope returns the reachable item IDs, sorted.
func InScope(w *state.World) []string {
	var out []string
	for id := range w.Defs().Items {
		if Contains(w, id) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Contains reports whether one item is currently in scope.
func Contains(w *state.World, itemID string) bool {
	if w.Prop(types.ItemTarget(itemID), types.PropGlobal).IsTrue() {
		return true
	}

	here := w.PlayerLocation()
	current := itemID
	for depth := 0; depth <= MaxDepth; depth++ {
		p := w.ParentOf(current)
		switch p.Kind {
		case types.ParentPlayer:
			return true
		case types.ParentLocation:
			return p.ID == here
		case types.ParentItem:
			// Containers admit scope only while open or transparent;
			// surfaces always expose what rests on them.
			if !passable(w, p.ID) {
				return false
			}
			current = p.ID
		default:
			return false
		}
	}
	return false
}

func passable(w *state.World, containerID string) bool {
	t := types.ItemTarget(containerID)
	if w.Prop(t, types.PropSurface).IsTrue() {
		return true
	}
	if w.Prop(t, types.PropTransparent).IsTrue() {
		return true
	}
	if !w.Prop(t, types.PropContainer).IsTrue() {
		// A plain parent item neither contains nor conceals.
		return true
	}
	return w.Prop(t, types.PropOpen).IsTrue()
}

// Held reports whether the item's parent chain terminates at the player,
// regardless of intervening containers. Handlers use this for "you're not
// holding that" checks.
func Held(w *state.World, itemID string) bool {
	current := itemID
	for depth := 0; depth <= MaxDepth; depth++ {
		p := w.ParentOf(current)
		switch p.Kind {
		case types.ParentPlayer:
			return true
		case types.ParentItem:
			current = p.ID
		default:
			return false
		}
	}
	return false
}
