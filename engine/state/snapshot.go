package state

import "github.com/nathoo/fablecore/types"

// Snapshot is a deep, serializable copy of the mutable world tables and
// the change history. Field names are stable for external persistence.
type Snapshot struct {
	Items     map[string]map[string]types.Value `json:"items,omitempty"`
	Locations map[string]map[string]types.Value `json:"locations,omitempty"`
	Player    map[string]types.Value            `json:"player,omitempty"`
	Globals   map[string]types.Value            `json:"globals,omitempty"`
	Fuses     map[string]types.FuseState        `json:"fuses,omitempty"`
	Daemons   map[string]types.DaemonState      `json:"daemons,omitempty"`
	History   []types.StateChange               `json:"history,omitempty"`
}

// Export captures the current world as a snapshot.
func (w *World) Export() Snapshot {
	return Snapshot{
		Items:     copyOverrides(w.items),
		Locations: copyOverrides(w.locations),
		Player:    copyProps(w.player),
		Globals:   copyProps(w.globals),
		Fuses:     copyFuses(w.fuses),
		Daemons:   copyDaemons(w.daemons),
		History:   append([]types.StateChange(nil), w.history...),
	}
}

// Restore replaces the mutable tables and history with a snapshot's
// contents. Definitions and computers are untouched.
func (w *World) Restore(s Snapshot) {
	w.items = copyOverrides(s.Items)
	w.locations = copyOverrides(s.Locations)
	w.player = copyProps(s.Player)
	w.globals = copyProps(s.Globals)
	w.fuses = copyFuses(s.Fuses)
	w.daemons = copyDaemons(s.Daemons)
	w.history = append([]types.StateChange(nil), s.History...)
	if w.items == nil {
		w.items = map[string]map[string]types.Value{}
	}
	if w.locations == nil {
		w.locations = map[string]map[string]types.Value{}
	}
	if w.player == nil {
		w.player = map[string]types.Value{}
	}
	if w.globals == nil {
		w.globals = map[string]types.Value{}
	}
	if w.fuses == nil {
		w.fuses = map[string]types.FuseState{}
	}
	if w.daemons == nil {
		w.daemons = map[string]types.DaemonState{}
	}
}

// Replay applies a change history, in order, to a fresh world built from
// defs. Because each record carries its realized old value, replaying a
// well-formed history never trips the stale-write check, and the result
// reproduces the world the history was recorded from.
func Replay(defs *Defs, history []types.StateChange) (*World, error) {
	w := NewWorld(defs)
	for _, change := range history {
		if err := w.Apply(change); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func copyOverrides(src map[string]map[string]types.Value) map[string]map[string]types.Value {
	if src == nil {
		return nil
	}
	out := make(map[string]map[string]types.Value, len(src))
	for id, props := range src {
		out[id] = copyProps(props)
	}
	return out
}

func copyProps(src map[string]types.Value) map[string]types.Value {
	if src == nil {
		return nil
	}
	out := make(map[string]types.Value, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func copyFuses(src map[string]types.FuseState) map[string]types.FuseState {
	if src == nil {
		return nil
	}
	out := make(map[string]types.FuseState, len(src))
	for id, f := range src {
		out[id] = types.FuseState{Turns: f.Turns, Payload: copyProps(f.Payload)}
	}
	return out
}

func copyDaemons(src map[string]types.DaemonState) map[string]types.DaemonState {
	if src == nil {
		return nil
	}
	out := make(map[string]types.DaemonState, len(src))
	for id, d := range src {
		out[id] = d
	}
	return out
}
