package state

import (
	"errors"
	"fmt"

	"github.com/nathoo/fablecore/types"
)

// StaleError reports an Apply whose expected old value no longer matches
// the stored value. It protects handlers that computed changes against a
// snapshot that has since moved.
type StaleError struct {
	Change  types.StateChange
	Current types.Value
}

func (e *StaleError) Error() string {
	return fmt.Sprintf("state: stale change for %s.%s: expected %s, have %s",
		e.Change.Target, e.Change.Key, e.Change.Old, e.Current)
}

// UnknownEntityError reports a change addressed to an entity the world has
// no definition for.
type UnknownEntityError struct {
	Target types.Target
}

func (e *UnknownEntityError) Error() string {
	return fmt.Sprintf("state: unknown entity %s", e.Target)
}

// CycleError reports a parent change that would make an item contain
// itself transitively.
type CycleError struct {
	Item      string
	NewParent types.Parent
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("state: moving %q into %s:%s would create a containment cycle",
		e.Item, e.NewParent.Kind, e.NewParent.ID)
}

// ErrNoneValue is returned when a none new-value is applied to anything
// other than a fuse or daemon row, where it means removal.
var ErrNoneValue = errors.New("state: none value only removes fuse and daemon rows")

// Apply is the only sanctioned path to mutate the world. It checks the
// expected old value when supplied, validates containment invariants for
// parent moves, writes the new value, and appends the change — with its
// realized old value — to the history.
func (w *World) Apply(change types.StateChange) error {
	if err := w.checkTarget(change.Target); err != nil {
		return err
	}

	current := w.StaticProp(change.Target, change.Key)
	if change.Old != nil && !change.Old.Equal(current) {
		return &StaleError{Change: change, Current: current}
	}

	switch change.Target.Kind {
	case types.KindFuse:
		if err := w.applyFuse(change.Target.ID, change.Key, change.New); err != nil {
			return err
		}
	case types.KindDaemon:
		if err := w.applyDaemon(change.Target.ID, change.Key, change.New); err != nil {
			return err
		}
	default:
		if change.New.IsNone() {
			return ErrNoneValue
		}
		if change.Target.Kind == types.KindItem && change.Key == types.PropParent {
			if err := w.checkParent(change.Target.ID, types.DecodeParent(change.New)); err != nil {
				return err
			}
		}
		w.write(change.Target, change.Key, change.New)
	}

	realized := change
	realized.Old = &current
	w.history = append(w.history, realized)
	return nil
}

func (w *World) checkTarget(t types.Target) error {
	switch t.Kind {
	case types.KindItem:
		if _, ok := w.defs.Items[t.ID]; !ok {
			return &UnknownEntityError{Target: t}
		}
	case types.KindLocation:
		if _, ok := w.defs.Locations[t.ID]; !ok {
			return &UnknownEntityError{Target: t}
		}
	case types.KindPlayer, types.KindGlobal, types.KindFuse, types.KindDaemon:
		// Player and globals always exist; fuse and daemon rows are
		// created on first write.
	default:
		return &UnknownEntityError{Target: t}
	}
	return nil
}

// checkParent validates a prospective parent: the referenced owner must
// exist and the move must keep the parent graph acyclic.
func (w *World) checkParent(itemID string, p types.Parent) error {
	switch p.Kind {
	case types.ParentLocation:
		if _, ok := w.defs.Locations[p.ID]; !ok {
			return &UnknownEntityError{Target: types.LocationTarget(p.ID)}
		}
	case types.ParentItem:
		if _, ok := w.defs.Items[p.ID]; !ok {
			return &UnknownEntityError{Target: types.ItemTarget(p.ID)}
		}
		// Walk up from the new owner; hitting the moved item means the
		// move would close a loop. The walk is bounded by the item count.
		cur := p
		for hops := 0; cur.Kind == types.ParentItem && hops <= len(w.defs.Items); hops++ {
			if cur.ID == itemID {
				return &CycleError{Item: itemID, NewParent: p}
			}
			cur = w.ParentOf(cur.ID)
		}
	}
	return nil
}

func (w *World) write(t types.Target, key string, v types.Value) {
	switch t.Kind {
	case types.KindItem:
		if w.items[t.ID] == nil {
			w.items[t.ID] = map[string]types.Value{}
		}
		w.items[t.ID][key] = v
	case types.KindLocation:
		if w.locations[t.ID] == nil {
			w.locations[t.ID] = map[string]types.Value{}
		}
		w.locations[t.ID][key] = v
	case types.KindPlayer:
		w.player[key] = v
	case types.KindGlobal:
		w.globals[key] = v
	}
}

func (w *World) applyFuse(id, key string, v types.Value) error {
	switch {
	case key == keyTurns:
		if v.IsNone() {
			delete(w.fuses, id)
			return nil
		}
		turns, ok := v.AsInt()
		if !ok {
			return fmt.Errorf("state: fuse %q turns must be an int, got %s", id, v.Kind)
		}
		f := w.fuses[id]
		f.Turns = turns
		w.fuses[id] = f
	case len(key) > len(payloadPrefix) && key[:len(payloadPrefix)] == payloadPrefix:
		f := w.fuses[id]
		if f.Payload == nil {
			f.Payload = map[string]types.Value{}
		}
		f.Payload[key[len(payloadPrefix):]] = v
		w.fuses[id] = f
	default:
		return fmt.Errorf("state: unknown fuse key %q", key)
	}
	return nil
}

func (w *World) applyDaemon(id, key string, v types.Value) error {
	if key != keyCadence {
		return fmt.Errorf("state: unknown daemon key %q", key)
	}
	if v.IsNone() {
		delete(w.daemons, id)
		return nil
	}
	cadence, ok := v.AsInt()
	if !ok || cadence <= 0 {
		return fmt.Errorf("state: daemon %q cadence must be a positive int", id)
	}
	w.daemons[id] = types.DaemonState{Cadence: cadence}
	return nil
}
