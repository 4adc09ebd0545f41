// Package dynprop evaluates computed entity properties with re-entrancy
// protection. A computer is invoked on property read with a read-only view
// of the world; if its evaluation would re-enter a property already being
// computed, the inner read short-circuits to the stored static value, so
// mutually dependent computers terminate deterministically.
package dynprop

import "github.com/nathoo/fablecore/types"

// State is the read-only world view handed to computers. Prop re-enters
// the computed-read path; StaticProp bypasses computers entirely.
type State interface {
	Prop(t types.Target, key string) types.Value
	StaticProp(t types.Target, key string) types.Value
	ParentOf(itemID string) types.Parent
	PlayerLocation() string
}

// Computer derives a property value from current world state.
type Computer func(s State) types.Value

// Registry maps entity+key pairs to computers and tracks in-flight
// evaluations. Play is single-threaded, so a plain stack suffices.
type Registry struct {
	computers map[string]Computer
	inflight  []string
}

// NewRegistry creates an empty computer registry.
func NewRegistry() *Registry {
	return &Registry{computers: map[string]Computer{}}
}

// Register installs a computer for one entity property, replacing any
// previous registration.
func (r *Registry) Register(t types.Target, key string, c Computer) {
	r.computers[evalKey(t, key)] = c
}

// Has reports whether a computer is registered for the entity property.
func (r *Registry) Has(t types.Target, key string) bool {
	_, ok := r.computers[evalKey(t, key)]
	return ok
}

// Eval runs the computer for the entity property, if one is registered.
// The second return is false when no computer exists and the caller should
// use the stored value. A re-entrant read of a property already on the
// in-flight stack returns the static value instead of recursing.
func (r *Registry) Eval(s State, t types.Target, key string) (types.Value, bool) {
	k := evalKey(t, key)
	c, ok := r.computers[k]
	if !ok {
		return types.NoValue(), false
	}
	for _, active := range r.inflight {
		if active == k {
			return s.StaticProp(t, key), true
		}
	}
	r.inflight = append(r.inflight, k)
	v := c(s)
	r.inflight = r.inflight[:len(r.inflight)-1]
	return v, true
}

func evalKey(t types.Target, key string) string {
	return t.String() + "/" + key
}
