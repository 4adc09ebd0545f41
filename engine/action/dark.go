package action

import "github.com/nathoo/fablecore/types"

// DarkPolicy configures what a dark location permits. The safe verb list,
// escape direction, and disturbance bookkeeping are game policy, so they
// are data here rather than constants.
type DarkPolicy struct {
	SafeVerbs          []string // verbs that still work in the dark
	EscapeDirection    string   // the one direction that still leads out
	DisturbanceCounter string   // global int incremented on a penalized action
	Message            string   // stock response to a penalized action
	LookMessage        string   // what "look" reports in the dark
}

// DefaultDarkPolicy returns the conventional policy: looking, checking
// score or inventory, waiting, and quitting stay safe; everything else
// disturbs the dark.
func DefaultDarkPolicy() DarkPolicy {
	return DarkPolicy{
		SafeVerbs:          []string{"look", "inventory", "score", "wait", "quit"},
		DisturbanceCounter: "disturbed",
		Message:            "In the dark? You could easily disturb something!",
		LookMessage:        "It is pitch black. You can't see a thing.",
	}
}

// NewDarkHandler builds a location handler that intercepts every command
// while its location is unlit, substituting a reduced action set. While
// the location is lit it yields to the rest of the chain.
func NewDarkHandler(locID string, p DarkPolicy) Handler {
	safe := make(map[string]bool, len(p.SafeVerbs))
	for _, v := range p.SafeVerbs {
		safe[v] = true
	}

	return Funcs{
		OnProcess: func(ctx *Context) (Outcome, error) {
			if ctx.World.LocationLit(locID) {
				return Outcome{}, ErrNotHandled
			}
			verb := ctx.Command.Verb
			if safe[verb] {
				if verb == "look" && p.LookMessage != "" {
					var o Outcome
					o.Say("%s", p.LookMessage)
					return o, nil
				}
				return Outcome{}, ErrNotHandled
			}
			if verb == "go" && ctx.Command.Direction == p.EscapeDirection {
				return Outcome{}, ErrNotHandled
			}

			var o Outcome
			if p.DisturbanceCounter != "" {
				count, _ := ctx.World.Prop(types.GlobalTarget(), p.DisturbanceCounter).AsInt()
				o.Change(ctx.World.ChangeProp(types.GlobalTarget(), p.DisturbanceCounter,
					types.IntValue(count+1)))
			}
			o.Say("%s", p.Message)
			return o, nil
		},
	}
}
