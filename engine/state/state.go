// Package state owns the canonical world snapshot and the single mutation
// gate. Runtime property overrides are layered over immutable definitions;
// every write flows through Apply, which validates expected old values and
// appends to the change history.
package state

import (
	"sort"
	"strings"

	"github.com/nathoo/fablecore/engine/dynprop"
	"github.com/nathoo/fablecore/types"
)

// Defs holds the immutable game definitions produced by the content loader.
type Defs struct {
	Game      types.GameDef
	Locations map[string]types.LocationDef
	Items     map[string]types.ItemDef
}

// World is the complete mutable game state. All tables are unexported;
// reads go through accessor methods and writes through Apply.
type World struct {
	defs *Defs

	items     map[string]map[string]types.Value // runtime overrides, incl. parent
	locations map[string]map[string]types.Value
	player    map[string]types.Value
	globals   map[string]types.Value

	fuses   map[string]types.FuseState
	daemons map[string]types.DaemonState

	history   []types.StateChange
	computers *dynprop.Registry // nil = no computed properties
}

// NewWorld creates a fresh world from definitions. The player starts at the
// game's start location with an empty inventory, zero score, zero moves.
func NewWorld(defs *Defs) *World {
	return &World{
		defs:      defs,
		items:     map[string]map[string]types.Value{},
		locations: map[string]map[string]types.Value{},
		player:    map[string]types.Value{},
		globals:   map[string]types.Value{},
		fuses:     map[string]types.FuseState{},
		daemons:   map[string]types.DaemonState{},
	}
}

// Defs returns the immutable definitions.
func (w *World) Defs() *Defs { return w.defs }

// SetComputers attaches a dynamic-property registry. Subsequent Prop reads
// consult it before falling back to stored values.
func (w *World) SetComputers(r *dynprop.Registry) { w.computers = r }

// Computers returns the attached dynamic-property registry, or nil.
func (w *World) Computers() *dynprop.Registry { return w.computers }

// Prop returns the effective value of an entity property: a registered
// computer first, then the runtime override, then the base definition.
// Missing entities and missing keys read as the none value.
func (w *World) Prop(t types.Target, key string) types.Value {
	if w.computers != nil {
		if v, ok := w.computers.Eval(w, t, key); ok {
			return v
		}
	}
	return w.StaticProp(t, key)
}

// StaticProp returns the stored value of an entity property, bypassing any
// computer: runtime override first, then base definition.
func (w *World) StaticProp(t types.Target, key string) types.Value {
	switch t.Kind {
	case types.KindItem:
		if ov, ok := w.items[t.ID]; ok {
			if v, ok := ov[key]; ok {
				return v
			}
		}
		def, ok := w.defs.Items[t.ID]
		if !ok {
			return types.NoValue()
		}
		if key == types.PropParent {
			return types.EncodeParent(def.Parent)
		}
		if v, ok := def.Props[key]; ok {
			return v
		}
	case types.KindLocation:
		if ov, ok := w.locations[t.ID]; ok {
			if v, ok := ov[key]; ok {
				return v
			}
		}
		if def, ok := w.defs.Locations[t.ID]; ok {
			if v, ok := def.Props[key]; ok {
				return v
			}
		}
	case types.KindPlayer:
		if v, ok := w.player[key]; ok {
			return v
		}
	case types.KindGlobal:
		if v, ok := w.globals[key]; ok {
			return v
		}
	case types.KindFuse:
		if f, ok := w.fuses[t.ID]; ok {
			return fuseProp(f, key)
		}
	case types.KindDaemon:
		if d, ok := w.daemons[t.ID]; ok && key == keyCadence {
			return types.IntValue(d.Cadence)
		}
	}
	return types.NoValue()
}

// ParentOf returns an item's current owner. Unknown items are nowhere.
func (w *World) ParentOf(itemID string) types.Parent {
	return types.DecodeParent(w.StaticProp(types.ItemTarget(itemID), types.PropParent))
}

// PlayerLocation returns the player's current location ID.
func (w *World) PlayerLocation() string {
	if v, ok := w.player[keyLocation].AsString(); ok {
		return v
	}
	return w.defs.Game.Start
}

// Score returns the current score.
func (w *World) Score() int {
	n, _ := w.globals[types.GlobalScore].AsInt()
	return n
}

// Moves returns the number of completed turns.
func (w *World) Moves() int {
	n, _ := w.globals[types.GlobalMoves].AsInt()
	return n
}

// Ended reports whether the session has reached a terminal state.
func (w *World) Ended() bool { return w.globals[types.GlobalEnded].IsTrue() }

// QuitPending reports whether a cooperative quit has been requested. The
// outer loop checks this between turns.
func (w *World) QuitPending() bool { return w.globals[types.GlobalQuitting].IsTrue() }

// Flag returns a boolean global. Unset flags read false.
func (w *World) Flag(name string) bool { return w.globals[name].IsTrue() }

// Contents returns the IDs of all items whose parent matches, sorted for
// deterministic iteration. Containment is inverted: locations and
// containers never track their contents directly.
func (w *World) Contents(p types.Parent) []string {
	var out []string
	for id := range w.defs.Items {
		if w.ParentOf(id) == p {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Inventory returns the items held by the player, sorted.
func (w *World) Inventory() []string {
	return w.Contents(types.HeldByPlayer())
}

// Pronoun returns the entity IDs a pronoun word currently refers to.
func (w *World) Pronoun(word string) []string {
	ids, _ := w.globals[pronounKey(word)].AsIDSet()
	return ids
}

// LocationLit reports whether a location is lit. A location with no lit
// property is lit by default; the property may be computed.
func (w *World) LocationLit(locID string) bool {
	v := w.Prop(types.LocationTarget(locID), types.PropLit)
	if v.IsNone() {
		return true
	}
	return v.IsTrue()
}

// Fuse returns the state of an active fuse.
func (w *World) Fuse(id string) (types.FuseState, bool) {
	f, ok := w.fuses[id]
	return f, ok
}

// ActiveFuses returns the IDs of all active fuses, sorted.
func (w *World) ActiveFuses() []string {
	out := make([]string, 0, len(w.fuses))
	for id := range w.fuses {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Daemon returns the state of an active daemon.
func (w *World) Daemon(id string) (types.DaemonState, bool) {
	d, ok := w.daemons[id]
	return d, ok
}

// ActiveDaemons returns the IDs of all active daemons, sorted.
func (w *World) ActiveDaemons() []string {
	out := make([]string, 0, len(w.daemons))
	for id := range w.daemons {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// History returns the applied change log. The returned slice is shared;
// callers must not modify it.
func (w *World) History() []types.StateChange { return w.history }

// HistoryLen returns the number of applied changes.
func (w *World) HistoryLen() int { return len(w.history) }

// Internal property keys for player, fuse, and daemon tables.
const (
	keyLocation = "location"
	keyTurns    = "turns"
	keyCadence  = "cadence"

	payloadPrefix = "payload:"
)

func pronounKey(word string) string { return "pronoun:" + strings.ToLower(word) }

func fuseProp(f types.FuseState, key string) types.Value {
	if key == keyTurns {
		return types.IntValue(f.Turns)
	}
	if strings.HasPrefix(key, payloadPrefix) {
		if v, ok := f.Payload[strings.TrimPrefix(key, payloadPrefix)]; ok {
			return v
		}
	}
	return types.NoValue()
}
