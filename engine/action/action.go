// Package action executes resolved commands through ordered handler
// chains: item-specific handlers first, then location handlers, then verb
// defaults. Each handler is offered validate, process, and post-process
// phases and may decline with ErrNotHandled; a validation refusal stops
// the command before any mutation.
package action

import (
	"errors"
	"fmt"

	"github.com/nathoo/fablecore/engine/state"
	"github.com/nathoo/fablecore/types"
)

// ErrNotHandled is the yield sentinel: the handler declines and control
// passes to the next handler in the chain.
var ErrNotHandled = errors.New("action: not handled")

// Refusal is a validation failure. It is user-facing and recoverable, and
// guarantees no state change was applied for the command.
type Refusal struct {
	Message string
}

func (e *Refusal) Error() string { return e.Message }

// Refuse builds a Refusal.
func Refuse(format string, args ...any) *Refusal {
	return &Refusal{Message: fmt.Sprintf(format, args...)}
}

// Context carries the world and the resolved command into a handler. For
// multi-object commands the pipeline runs the chain once per object with
// Object rebound.
type Context struct {
	World    *state.World
	Command  types.Command
	Object   string // current direct object ID, "" when none
	Indirect string // indirect object ID, "" when none
}

// Outcome is what a winning process phase produced: narrative lines, the
// state changes to commit, and declarative scheduler side effects.
type Outcome struct {
	Lines   []types.Line
	Changes []types.StateChange
	Effects []types.SideEffect
}

// Say appends a normal narrative line.
func (o *Outcome) Say(format string, args ...any) {
	o.Lines = append(o.Lines, types.Line{Text: fmt.Sprintf(format, args...)})
}

// SayStyled appends a line with a rendering hint.
func (o *Outcome) SayStyled(style types.Style, format string, args ...any) {
	o.Lines = append(o.Lines, types.Line{Text: fmt.Sprintf(format, args...), Style: style})
}

// Change appends a state change.
func (o *Outcome) Change(c types.StateChange) {
	o.Changes = append(o.Changes, c)
}

// Effect appends a scheduler side effect.
func (o *Outcome) Effect(e types.SideEffect) {
	o.Effects = append(o.Effects, e)
}

// Handler is one polymorphic unit of game logic attached to an item, a
// location, or a verb.
type Handler interface {
	// Validate may reject the command with a *Refusal before any
	// mutation. A nil return lets the process phase run.
	Validate(ctx *Context) error
	// Process computes the outcome, or yields with ErrNotHandled.
	Process(ctx *Context) (Outcome, error)
	// After reacts to the already-applied outcome, e.g. appending a
	// follow-up observation.
	After(ctx *Context, o *Outcome)
}

// Funcs adapts plain functions to the Handler interface. Nil fields mean
// "no check", "yield", and "nothing to add".
type Funcs struct {
	OnValidate func(ctx *Context) error
	OnProcess  func(ctx *Context) (Outcome, error)
	OnAfter    func(ctx *Context, o *Outcome)
}

func (f Funcs) Validate(ctx *Context) error {
	if f.OnValidate == nil {
		return nil
	}
	return f.OnValidate(ctx)
}

func (f Funcs) Process(ctx *Context) (Outcome, error) {
	if f.OnProcess == nil {
		return Outcome{}, ErrNotHandled
	}
	return f.OnProcess(ctx)
}

func (f Funcs) After(ctx *Context, o *Outcome) {
	if f.OnAfter != nil {
		f.OnAfter(ctx, o)
	}
}

// Registry holds the handler chains. Resolution order: direct-object item
// handlers, current-location handlers, verb handlers (defaults last).
type Registry struct {
	items     map[string][]Handler
	locations map[string][]Handler
	verbs     map[string][]Handler
}

// NewRegistry creates a registry preloaded with the built-in verb
// defaults.
func NewRegistry() *Registry {
	r := &Registry{
		items:     map[string][]Handler{},
		locations: map[string][]Handler{},
		verbs:     map[string][]Handler{},
	}
	registerDefaults(r)
	return r
}

// OnItem attaches a handler to an item. Handlers attached first run first,
// before any previously registered defaults for the same item.
func (r *Registry) OnItem(itemID string, h Handler) {
	r.items[itemID] = append(r.items[itemID], h)
}

// OnLocation attaches a handler to a location.
func (r *Registry) OnLocation(locID string, h Handler) {
	r.locations[locID] = append(r.locations[locID], h)
}

// OnVerb attaches a handler to a verb, ahead of the built-in default.
func (r *Registry) OnVerb(verb string, h Handler) {
	r.verbs[verb] = append([]Handler{h}, r.verbs[verb]...)
}

// chain assembles the handler order for one (object, location, verb)
// triple.
func (r *Registry) chain(objectID, locID, verb string) []Handler {
	var out []Handler
	if objectID != "" {
		out = append(out, r.items[objectID]...)
	}
	out = append(out, r.locations[locID]...)
	out = append(out, r.verbs[verb]...)
	return out
}

// Execute runs one resolved command through the pipeline. Multi-object
// commands run the chain once per object with the item's name prefixed to
// its lines. Returned changes are already applied; side effects are
// registered with the world's scheduler tables after the commit, in that
// order.
func Execute(r *Registry, w *state.World, cmd types.Command) (types.Result, error) {
	if cmd.Direct != nil && (cmd.Direct.All || len(cmd.Direct.Items) > 1) {
		return executeMulti(r, w, cmd)
	}
	var object string
	if cmd.Direct != nil && len(cmd.Direct.Items) == 1 {
		object = cmd.Direct.Items[0]
	}
	return executeOne(r, w, cmd, object, "")
}

func executeMulti(r *Registry, w *state.World, cmd types.Command) (types.Result, error) {
	var result types.Result
	if len(cmd.Direct.Items) == 0 {
		result.Lines = append(result.Lines, types.Line{Text: "There is nothing here to " + cmd.Verb + "."})
		return result, nil
	}
	for _, id := range cmd.Direct.Items {
		sub, err := executeOne(r, w, cmd, id, "")
		if err != nil {
			return result, err
		}
		prefix := itemName(w, id) + ": "
		for i, line := range sub.Lines {
			if i == 0 {
				line.Text = prefix + line.Text
			}
			result.Lines = append(result.Lines, line)
		}
		result.Changes = append(result.Changes, sub.Changes...)
		result.Ended = result.Ended || sub.Ended
	}
	return result, nil
}

func executeOne(r *Registry, w *state.World, cmd types.Command, object, indirect string) (types.Result, error) {
	if indirect == "" && cmd.Indirect != nil && len(cmd.Indirect.Items) == 1 {
		indirect = cmd.Indirect.Items[0]
	}
	ctx := &Context{World: w, Command: cmd, Object: object, Indirect: indirect}

	var refusal *Refusal
	handlers := r.chain(object, w.PlayerLocation(), cmd.Verb)
	for _, h := range handlers {
		if err := h.Validate(ctx); err != nil {
			if errors.As(err, &refusal) {
				return types.Result{Lines: []types.Line{{Text: refusal.Message}}}, nil
			}
			return types.Result{}, err
		}
		outcome, err := h.Process(ctx)
		if errors.Is(err, ErrNotHandled) {
			continue
		}
		if err != nil {
			if errors.As(err, &refusal) {
				return types.Result{Lines: []types.Line{{Text: refusal.Message}}}, nil
			}
			return types.Result{}, err
		}
		return commit(w, ctx, h, outcome)
	}

	return types.Result{Lines: []types.Line{{Text: "You can't do that."}}}, nil
}

// commit applies the outcome's changes through the state engine, registers
// its side effects, then runs the winning handler's post-process phase.
func commit(w *state.World, ctx *Context, h Handler, outcome Outcome) (types.Result, error) {
	for _, change := range outcome.Changes {
		if err := w.Apply(change); err != nil {
			return types.Result{}, fmt.Errorf("applying %s.%s: %w", change.Target, change.Key, err)
		}
	}
	// After reacts to the applied changes; side effects register last.
	h.After(ctx, &outcome)

	for _, effect := range outcome.Effects {
		if err := applyEffect(w, effect); err != nil {
			return types.Result{}, fmt.Errorf("side effect %s %q: %w", effect.Kind, effect.ID, err)
		}
	}

	return types.Result{
		Lines:   outcome.Lines,
		Changes: outcome.Changes,
		Ended:   w.Ended(),
	}, nil
}

func applyEffect(w *state.World, e types.SideEffect) error {
	switch e.Kind {
	case types.StartFuse:
		return w.StartFuse(e.ID, e.Turns, e.Payload)
	case types.StopFuse:
		if _, ok := w.Fuse(e.ID); !ok {
			return nil // stopping an inactive fuse is a no-op
		}
		return w.StopFuse(e.ID)
	case types.RunDaemon:
		return w.StartDaemon(e.ID, e.Cadence)
	case types.StopDaemon:
		if _, ok := w.Daemon(e.ID); !ok {
			return nil
		}
		return w.StopDaemon(e.ID)
	default:
		return fmt.Errorf("unknown side effect kind %q", e.Kind)
	}
}

// itemName returns an item's display name for message assembly.
func itemName(w *state.World, id string) string {
	if def, ok := w.Defs().Items[id]; ok && def.Name != "" {
		return def.Name
	}
	return id
}
