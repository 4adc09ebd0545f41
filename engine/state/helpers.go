package state

import (
	"sort"

	"github.com/nathoo/fablecore/types"
)

// ChangeProp builds a StateChange for an entity property with the current
// stored value captured as the expected old value. Handlers use this to
// compute change lists against a snapshot; Apply later rejects the change
// if the snapshot has moved.
func (w *World) ChangeProp(t types.Target, key string, v types.Value) types.StateChange {
	old := w.StaticProp(t, key)
	return types.StateChange{Target: t, Key: key, Old: &old, New: v}
}

// ChangeParent builds the StateChange that moves an item to a new owner.
func (w *World) ChangeParent(itemID string, p types.Parent) types.StateChange {
	return w.ChangeProp(types.ItemTarget(itemID), types.PropParent, types.EncodeParent(p))
}

// MoveItem reparents an item through the mutation gate.
func (w *World) MoveItem(itemID string, p types.Parent) error {
	return w.Apply(w.ChangeParent(itemID, p))
}

// SetItemProp sets one item property.
func (w *World) SetItemProp(itemID, key string, v types.Value) error {
	return w.Apply(w.ChangeProp(types.ItemTarget(itemID), key, v))
}

// SetLocationProp sets one location property.
func (w *World) SetLocationProp(locID, key string, v types.Value) error {
	return w.Apply(w.ChangeProp(types.LocationTarget(locID), key, v))
}

// ChangePlayerLocation builds the StateChange that moves the player.
func (w *World) ChangePlayerLocation(locID string) types.StateChange {
	return w.ChangeProp(types.PlayerTarget(), keyLocation, types.StringValue(locID))
}

// MovePlayer moves the player to a location.
func (w *World) MovePlayer(locID string) error {
	return w.Apply(w.ChangePlayerLocation(locID))
}

// SetGlobal sets one global value.
func (w *World) SetGlobal(key string, v types.Value) error {
	return w.Apply(w.ChangeProp(types.GlobalTarget(), key, v))
}

// SetFlag toggles a boolean global.
func (w *World) SetFlag(name string, value bool) error {
	return w.SetGlobal(name, types.BoolValue(value))
}

// AddScore adjusts the score by delta.
func (w *World) AddScore(delta int) error {
	return w.SetGlobal(types.GlobalScore, types.IntValue(w.Score()+delta))
}

// IncMoves advances the move counter by one completed turn.
func (w *World) IncMoves() error {
	return w.SetGlobal(types.GlobalMoves, types.IntValue(w.Moves()+1))
}

// SetPronoun binds a pronoun word to a set of entity IDs.
func (w *World) SetPronoun(word string, ids ...string) error {
	return w.SetGlobal(pronounKey(word), types.IDSetValue(ids...))
}

// RequestQuit records a cooperative quit. The outer loop observes it
// between turns; no command is ever interrupted.
func (w *World) RequestQuit() error {
	return w.SetFlag(types.GlobalQuitting, true)
}

// EndGame marks the session as ended.
func (w *World) EndGame() error {
	return w.SetFlag(types.GlobalEnded, true)
}

// StartFuse registers a fuse with a countdown and payload. Payload entries
// are applied before the counter so a restored history replays into the
// same table shape.
func (w *World) StartFuse(id string, turns int, payload map[string]types.Value) error {
	t := types.FuseTarget(id)
	for _, k := range sortedKeys(payload) {
		if err := w.Apply(w.ChangeProp(t, payloadPrefix+k, payload[k])); err != nil {
			return err
		}
	}
	return w.Apply(w.ChangeProp(t, keyTurns, types.IntValue(turns)))
}

// SetFuseTurns rewrites a fuse counter.
func (w *World) SetFuseTurns(id string, turns int) error {
	return w.Apply(w.ChangeProp(types.FuseTarget(id), keyTurns, types.IntValue(turns)))
}

// StopFuse removes a fuse from the active table.
func (w *World) StopFuse(id string) error {
	return w.Apply(w.ChangeProp(types.FuseTarget(id), keyTurns, types.NoValue()))
}

// StartDaemon registers a daemon firing every cadence turns.
func (w *World) StartDaemon(id string, cadence int) error {
	return w.Apply(w.ChangeProp(types.DaemonTarget(id), keyCadence, types.IntValue(cadence)))
}

// StopDaemon unregisters a daemon.
func (w *World) StopDaemon(id string) error {
	return w.Apply(w.ChangeProp(types.DaemonTarget(id), keyCadence, types.NoValue()))
}

func sortedKeys(m map[string]types.Value) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
