package loader

import (
	"fmt"

	"github.com/nathoo/fablecore/engine"
	"github.com/nathoo/fablecore/engine/action"
	"github.com/nathoo/fablecore/engine/dynprop"
	"github.com/nathoo/fablecore/engine/state"
	"github.com/nathoo/fablecore/types"
)

// binder carries what effect compilation needs beyond the world: the
// engine for RNG-backed message variants, and the declared countdowns
// and cadences so start_fuse and start_daemon effects can reference a
// fuse or daemon by ID alone.
type binder struct {
	e           *engine.Engine
	fuseTurns   map[string]int
	daemonEvery map[string]int
}

// NewEngine wires the compiled game into a ready engine: content verbs
// into the vocabulary, dynamic properties into a computer registry, dark
// policies and rules into the action registry, and fuses and daemons
// into the scheduler. Declarations with start = true begin active.
func (g *Game) NewEngine() (*engine.Engine, error) {
	e := engine.New(g.Defs)
	b := &binder{
		e:           e,
		fuseTurns:   map[string]int{},
		daemonEvery: map[string]int{},
	}
	for _, td := range g.Fuses {
		b.fuseTurns[td.ID] = td.Turns
	}
	for _, td := range g.Daemons {
		b.daemonEvery[td.ID] = td.Every
	}

	for _, v := range g.Verbs {
		e.Vocab.AddVerb(v)
	}

	computers := dynprop.NewRegistry()
	for _, c := range g.Computed {
		if err := bindComputed(computers, c); err != nil {
			return nil, err
		}
	}
	e.World.SetComputers(computers)

	for locID, policy := range g.Dark {
		e.Actions.OnLocation(locID, action.NewDarkHandler(locID, policy))
	}

	for _, rule := range g.Rules {
		h, err := b.bindRule(rule)
		if err != nil {
			return nil, err
		}
		switch {
		case rule.When.Item != "":
			e.Actions.OnItem(rule.When.Item, h)
		case rule.When.Location != "":
			e.Actions.OnLocation(rule.When.Location, h)
		default:
			e.Actions.OnVerb(rule.When.Verb, h)
		}
	}

	for _, td := range g.Fuses {
		td := td
		e.Sched.RegisterFuse(td.ID, func(w *state.World, payload map[string]types.Value) ([]types.Line, error) {
			return b.runTimed(w, td)
		})
		if td.Start {
			if err := e.World.StartFuse(td.ID, td.Turns, nil); err != nil {
				return nil, fmt.Errorf("starting fuse %s: %w", td.ID, err)
			}
		}
	}
	for _, td := range g.Daemons {
		td := td
		e.Sched.RegisterDaemon(td.ID, func(w *state.World) ([]types.Line, error) {
			return b.runTimed(w, td)
		})
		if td.Start {
			if err := e.World.StartDaemon(td.ID, td.Every); err != nil {
				return nil, fmt.Errorf("starting daemon %s: %w", td.ID, err)
			}
		}
	}

	return e, nil
}

// bindComputed installs one dynamic property into the registry.
func bindComputed(r *dynprop.Registry, c Computed) error {
	switch c.Kind {
	case "flag":
		test, err := bindCondition(*c.When)
		if err != nil {
			return fmt.Errorf("dynamic flag %s.%s: %w", c.Target, c.Prop, err)
		}
		r.Register(c.Target, c.Prop, func(s dynprop.State) types.Value {
			return types.BoolValue(test(s))
		})
	case "text":
		type boundCase struct {
			test func(dynprop.State) bool
			text string
		}
		var bound []boundCase
		for _, tc := range c.Cases {
			test, err := bindCondition(tc.When)
			if err != nil {
				return fmt.Errorf("dynamic text %s.%s: %w", c.Target, c.Prop, err)
			}
			bound = append(bound, boundCase{test: test, text: tc.Text})
		}
		fallback := c.Default
		r.Register(c.Target, c.Prop, func(s dynprop.State) types.Value {
			for _, bc := range bound {
				if bc.test(s) {
					return types.StringValue(bc.text)
				}
			}
			return types.StringValue(fallback)
		})
	default:
		return fmt.Errorf("unknown dynamic property kind %q", c.Kind)
	}
	return nil
}

// bindCondition compiles a condition tree into a predicate over the
// read-only world view. The same predicate form serves rule conditions
// and computed properties, so both stay consistent under dynamic reads.
func bindCondition(c Condition) (func(dynprop.State) bool, error) {
	switch c.Type {
	case "has_item":
		item, _ := c.Params["item"].AsString()
		return func(s dynprop.State) bool { return heldBy(s, item) }, nil
	case "flag_set":
		flag, _ := c.Params["flag"].AsString()
		return func(s dynprop.State) bool {
			return s.Prop(types.GlobalTarget(), flag).IsTrue()
		}, nil
	case "flag_not":
		flag, _ := c.Params["flag"].AsString()
		return func(s dynprop.State) bool {
			return !s.Prop(types.GlobalTarget(), flag).IsTrue()
		}, nil
	case "in_location":
		loc, _ := c.Params["location"].AsString()
		return func(s dynprop.State) bool { return s.PlayerLocation() == loc }, nil
	case "prop_is":
		item, _ := c.Params["item"].AsString()
		prop, _ := c.Params["prop"].AsString()
		want := c.Params["value"]
		return func(s dynprop.State) bool {
			return s.Prop(types.ItemTarget(item), prop).Equal(want)
		}, nil
	case "counter_gt":
		counter, _ := c.Params["counter"].AsString()
		threshold, _ := c.Params["value"].AsInt()
		return func(s dynprop.State) bool {
			n, _ := s.Prop(types.GlobalTarget(), counter).AsInt()
			return n > threshold
		}, nil
	case "counter_lt":
		counter, _ := c.Params["counter"].AsString()
		threshold, _ := c.Params["value"].AsInt()
		return func(s dynprop.State) bool {
			n, _ := s.Prop(types.GlobalTarget(), counter).AsInt()
			return n < threshold
		}, nil
	case "not":
		if c.Inner == nil {
			return nil, fmt.Errorf("not condition has no inner condition")
		}
		inner, err := bindCondition(*c.Inner)
		if err != nil {
			return nil, err
		}
		return func(s dynprop.State) bool { return !inner(s) }, nil
	default:
		return nil, fmt.Errorf("unknown condition type %q", c.Type)
	}
}

// heldBy walks the parent chain to decide whether the player carries the
// item, directly or inside something carried.
func heldBy(s dynprop.State, itemID string) bool {
	current := itemID
	for depth := 0; depth <= 10; depth++ {
		p := s.ParentOf(current)
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

// bindRule compiles a declarative rule into an action handler. A match
// whose conditions pass produces the rule's effects instead of the
// default verb behavior; anything else yields to the rest of the chain.
func (b *binder) bindRule(rule Rule) (action.Handler, error) {
	var tests []func(dynprop.State) bool
	for _, c := range rule.Conditions {
		test, err := bindCondition(c)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.ID, err)
		}
		tests = append(tests, test)
	}

	effects := rule.Effects
	match := rule.When
	return action.Funcs{
		OnProcess: func(ctx *action.Context) (action.Outcome, error) {
			if match.Verb != "" && ctx.Command.Verb != match.Verb {
				return action.Outcome{}, action.ErrNotHandled
			}
			if match.Direction != "" && ctx.Command.Direction != match.Direction {
				return action.Outcome{}, action.ErrNotHandled
			}
			if match.Item != "" && ctx.Object != match.Item {
				return action.Outcome{}, action.ErrNotHandled
			}
			if match.Location != "" && ctx.World.PlayerLocation() != match.Location {
				return action.Outcome{}, action.ErrNotHandled
			}
			for _, test := range tests {
				if !test(ctx.World) {
					return action.Outcome{}, action.ErrNotHandled
				}
			}

			var o action.Outcome
			for _, eff := range effects {
				if err := b.applyEffect(ctx.World, eff, &o); err != nil {
					return action.Outcome{}, err
				}
			}
			return o, nil
		},
	}, nil
}

// applyEffect appends one effect's lines, changes, and side effects to
// the outcome. A refuse effect returns a Refusal so nothing commits.
func (b *binder) applyEffect(w *state.World, eff Effect, o *action.Outcome) error {
	switch eff.Type {
	case "say":
		o.Say("%s", b.e.PickLine(eff.Texts))
	case "refuse":
		text, _ := eff.Params["text"].AsString()
		return action.Refuse("%s", text)
	case "give_item":
		item, _ := eff.Params["item"].AsString()
		o.Change(w.ChangeParent(item, types.HeldByPlayer()))
	case "remove_item":
		item, _ := eff.Params["item"].AsString()
		o.Change(w.ChangeParent(item, types.Nowhere()))
	case "move_item":
		item, _ := eff.Params["item"].AsString()
		loc, _ := eff.Params["location"].AsString()
		o.Change(w.ChangeParent(item, types.InLocation(loc)))
	case "move_player":
		loc, _ := eff.Params["location"].AsString()
		o.Change(w.ChangePlayerLocation(loc))
	case "set_flag":
		flag, _ := eff.Params["flag"].AsString()
		value, _ := eff.Params["value"].AsBool()
		o.Change(w.ChangeProp(types.GlobalTarget(), flag, types.BoolValue(value)))
	case "inc_counter":
		counter, _ := eff.Params["counter"].AsString()
		amount, ok := eff.Params["amount"].AsInt()
		if !ok {
			amount = 1
		}
		current, _ := w.Prop(types.GlobalTarget(), counter).AsInt()
		o.Change(w.ChangeProp(types.GlobalTarget(), counter, types.IntValue(current+amount)))
	case "set_counter":
		counter, _ := eff.Params["counter"].AsString()
		value, _ := eff.Params["value"].AsInt()
		o.Change(w.ChangeProp(types.GlobalTarget(), counter, types.IntValue(value)))
	case "set_prop":
		item, _ := eff.Params["item"].AsString()
		prop, _ := eff.Params["prop"].AsString()
		o.Change(w.ChangeProp(types.ItemTarget(item), prop, eff.Params["value"]))
	case "add_score":
		amount, _ := eff.Params["amount"].AsInt()
		o.Change(w.ChangeProp(types.GlobalTarget(), types.GlobalScore,
			types.IntValue(w.Score()+amount)))
	case "end_game":
		o.Change(w.ChangeProp(types.GlobalTarget(), types.GlobalEnded, types.BoolValue(true)))
	case "start_fuse":
		id, _ := eff.Params["id"].AsString()
		turns, ok := b.fuseTurns[id]
		if !ok {
			return fmt.Errorf("start_fuse references undefined fuse %q", id)
		}
		o.Effect(types.SideEffect{Kind: types.StartFuse, ID: id, Turns: turns})
	case "stop_fuse":
		id, _ := eff.Params["id"].AsString()
		o.Effect(types.SideEffect{Kind: types.StopFuse, ID: id})
	case "start_daemon":
		id, _ := eff.Params["id"].AsString()
		every, ok := b.daemonEvery[id]
		if !ok {
			return fmt.Errorf("start_daemon references undefined daemon %q", id)
		}
		o.Effect(types.SideEffect{Kind: types.RunDaemon, ID: id, Cadence: every})
	case "stop_daemon":
		id, _ := eff.Params["id"].AsString()
		o.Effect(types.SideEffect{Kind: types.StopDaemon, ID: id})
	default:
		return fmt.Errorf("unknown effect type %q", eff.Type)
	}
	return nil
}

// runTimed executes a fuse or daemon declaration. The scheduler runs
// after the turn's command has committed, so changes and side effects
// apply directly instead of going through a handler outcome.
func (b *binder) runTimed(w *state.World, td TimedDef) ([]types.Line, error) {
	var o action.Outcome
	if len(td.Texts) > 0 {
		o.Say("%s", b.e.PickLine(td.Texts))
	}
	for _, eff := range td.Effects {
		if err := b.applyEffect(w, eff, &o); err != nil {
			return o.Lines, fmt.Errorf("%s: %w", td.ID, err)
		}
	}
	for _, change := range o.Changes {
		if err := w.Apply(change); err != nil {
			return o.Lines, fmt.Errorf("%s: %w", td.ID, err)
		}
	}
	for _, se := range o.Effects {
		if err := b.applySideEffect(w, se); err != nil {
			return o.Lines, fmt.Errorf("%s: %w", td.ID, err)
		}
	}
	return o.Lines, nil
}

func (b *binder) applySideEffect(w *state.World, se types.SideEffect) error {
	switch se.Kind {
	case types.StartFuse:
		return w.StartFuse(se.ID, se.Turns, se.Payload)
	case types.StopFuse:
		if _, ok := w.Fuse(se.ID); !ok {
			return nil
		}
		return w.StopFuse(se.ID)
	case types.RunDaemon:
		return w.StartDaemon(se.ID, se.Cadence)
	case types.StopDaemon:
		if _, ok := w.Daemon(se.ID); !ok {
			return nil
		}
		return w.StopDaemon(se.ID)
	}
	return nil
}
