package action

import (
	"sort"
	"strings"

	"github.com/nathoo/fablecore/engine/scope"
	"github.com/nathoo/fablecore/engine/state"
	"github.com/nathoo/fablecore/types"
)

// registerDefaults installs the built-in behavior for the standard verb
// set. Game content intercepts by registering item, location, or verb
// handlers ahead of these.
func registerDefaults(r *Registry) {
	r.verbs["go"] = append(r.verbs["go"], Funcs{OnValidate: validateGo, OnProcess: processGo, OnAfter: afterGo})
	r.verbs["look"] = append(r.verbs["look"], Funcs{OnProcess: processLook})
	r.verbs["examine"] = append(r.verbs["examine"], Funcs{OnProcess: processExamine})
	r.verbs["read"] = append(r.verbs["read"], Funcs{OnProcess: processRead})
	r.verbs["take"] = append(r.verbs["take"], Funcs{OnValidate: validateTake, OnProcess: processTake})
	r.verbs["drop"] = append(r.verbs["drop"], Funcs{OnValidate: validateDrop, OnProcess: processDrop})
	r.verbs["put"] = append(r.verbs["put"], Funcs{OnValidate: validatePut, OnProcess: processPut})
	r.verbs["inventory"] = append(r.verbs["inventory"], Funcs{OnProcess: processInventory})
	r.verbs["open"] = append(r.verbs["open"], Funcs{OnProcess: processOpen})
	r.verbs["close"] = append(r.verbs["close"], Funcs{OnProcess: processClose})
	r.verbs["wear"] = append(r.verbs["wear"], Funcs{OnValidate: validateWear, OnProcess: processWear})
	r.verbs["remove"] = append(r.verbs["remove"], Funcs{OnValidate: validateRemove, OnProcess: processRemove})
	r.verbs["wait"] = append(r.verbs["wait"], Funcs{OnProcess: processWait})
	r.verbs["score"] = append(r.verbs["score"], Funcs{OnProcess: processScore})
	r.verbs["quit"] = append(r.verbs["quit"], Funcs{OnProcess: processQuit})
}

func validateGo(ctx *Context) error {
	if ctx.Command.Direction == "" {
		return Refuse("Go where?")
	}
	loc, ok := ctx.World.Defs().Locations[ctx.World.PlayerLocation()]
	if !ok {
		return Refuse("You can't go that way.")
	}
	exit, ok := loc.Exits[ctx.Command.Direction]
	if !ok {
		return Refuse("You can't go that way.")
	}
	if exit.BlockedProp != "" &&
		ctx.World.Prop(types.LocationTarget(loc.ID), exit.BlockedProp).IsTrue() {
		msg := exit.BlockedMessage
		if msg == "" {
			msg = "Something blocks the way."
		}
		return Refuse("%s", msg)
	}
	return nil
}

func processGo(ctx *Context) (Outcome, error) {
	var o Outcome
	loc := ctx.World.Defs().Locations[ctx.World.PlayerLocation()]
	exit := loc.Exits[ctx.Command.Direction]
	o.Change(ctx.World.ChangePlayerLocation(exit.Destination))
	return o, nil
}

// afterGo describes the destination once the move has been applied. It is
// shared with the look default.
func afterGo(ctx *Context, o *Outcome) {
	o.Lines = append(o.Lines, DescribeLocation(ctx.World)...)
}

func processLook(ctx *Context) (Outcome, error) {
	return Outcome{Lines: DescribeLocation(ctx.World)}, nil
}

func processExamine(ctx *Context) (Outcome, error) {
	var o Outcome
	if !ctx.World.LocationLit(ctx.World.PlayerLocation()) {
		o.Say("It's too dark to see anything.")
		return o, nil
	}
	desc, ok := ctx.World.Prop(types.ItemTarget(ctx.Object), "description").AsString()
	if !ok || desc == "" {
		o.Say("You see nothing special about the %s.", itemName(ctx.World, ctx.Object))
		return o, nil
	}
	o.Say("%s", desc)
	return o, nil
}

func processRead(ctx *Context) (Outcome, error) {
	var o Outcome
	if !ctx.World.LocationLit(ctx.World.PlayerLocation()) {
		o.Say("It's too dark to read.")
		return o, nil
	}
	text, ok := ctx.World.Prop(types.ItemTarget(ctx.Object), types.PropText).AsString()
	if !ok || text == "" {
		o.Say("There's nothing written on the %s.", itemName(ctx.World, ctx.Object))
		return o, nil
	}
	o.Say("%s", text)
	return o, nil
}

func validateTake(ctx *Context) error {
	w := ctx.World
	t := types.ItemTarget(ctx.Object)
	if scope.Held(w, ctx.Object) {
		return Refuse("You already have the %s.", itemName(w, ctx.Object))
	}
	if w.Prop(t, types.PropScenery).IsTrue() {
		return Refuse("That's hardly portable.")
	}
	if !w.Prop(t, types.PropTakable).IsTrue() {
		return Refuse("You can't take the %s.", itemName(w, ctx.Object))
	}
	if limit := w.Defs().Game.Capacity; limit > 0 && len(w.Inventory()) >= limit {
		return Refuse("You're carrying too much already.")
	}
	return nil
}

func processTake(ctx *Context) (Outcome, error) {
	var o Outcome
	o.Change(ctx.World.ChangeParent(ctx.Object, types.HeldByPlayer()))
	o.Say("Taken.")
	return o, nil
}

func validateDrop(ctx *Context) error {
	if ctx.Indirect != "" {
		return validatePut(ctx)
	}
	if !scope.Held(ctx.World, ctx.Object) {
		return Refuse("You aren't holding the %s.", itemName(ctx.World, ctx.Object))
	}
	return nil
}

func processDrop(ctx *Context) (Outcome, error) {
	// "drop X on Y" behaves as put-on.
	if ctx.Indirect != "" {
		return processPut(ctx)
	}
	var o Outcome
	changes, msg := removeIfWorn(ctx)
	o.Changes = append(o.Changes, changes...)
	o.Change(ctx.World.ChangeParent(ctx.Object, types.InLocation(ctx.World.PlayerLocation())))
	if msg != "" {
		o.Say("%s", msg)
	}
	o.Say("Dropped.")
	return o, nil
}

func validatePut(ctx *Context) error {
	w := ctx.World
	if !scope.Held(w, ctx.Object) {
		return Refuse("You aren't holding the %s.", itemName(w, ctx.Object))
	}
	if ctx.Indirect == "" {
		return Refuse("Put it where?")
	}
	it := types.ItemTarget(ctx.Indirect)
	if w.Prop(it, types.PropSurface).IsTrue() {
		return nil
	}
	if w.Prop(it, types.PropContainer).IsTrue() {
		if !w.Prop(it, types.PropOpen).IsTrue() {
			return Refuse("The %s is closed.", itemName(w, ctx.Indirect))
		}
		return nil
	}
	return Refuse("You can't put anything on the %s.", itemName(w, ctx.Indirect))
}

func processPut(ctx *Context) (Outcome, error) {
	var o Outcome
	changes, msg := removeIfWorn(ctx)
	o.Changes = append(o.Changes, changes...)
	o.Change(ctx.World.ChangeParent(ctx.Object, types.InItem(ctx.Indirect)))
	if msg != "" {
		o.Say("%s", msg)
	}
	preposition := "on"
	if ctx.World.Prop(types.ItemTarget(ctx.Indirect), types.PropContainer).IsTrue() &&
		!ctx.World.Prop(types.ItemTarget(ctx.Indirect), types.PropSurface).IsTrue() {
		preposition = "in"
	}
	o.Say("You put the %s %s the %s.",
		itemName(ctx.World, ctx.Object), preposition, itemName(ctx.World, ctx.Indirect))
	return o, nil
}

// removeIfWorn emits the change that takes off a worn item before it
// leaves the player's hands.
func removeIfWorn(ctx *Context) ([]types.StateChange, string) {
	t := types.ItemTarget(ctx.Object)
	if !ctx.World.Prop(t, types.PropWorn).IsTrue() {
		return nil, ""
	}
	return []types.StateChange{ctx.World.ChangeProp(t, types.PropWorn, types.BoolValue(false))},
		"(first taking it off)"
}

func processInventory(ctx *Context) (Outcome, error) {
	var o Outcome
	held := ctx.World.Inventory()
	if len(held) == 0 {
		o.Say("You are carrying nothing.")
		return o, nil
	}
	o.Say("You are carrying:")
	for _, id := range held {
		suffix := ""
		if ctx.World.Prop(types.ItemTarget(id), types.PropWorn).IsTrue() {
			suffix = " (being worn)"
		}
		o.Say("  %s%s", itemName(ctx.World, id), suffix)
	}
	return o, nil
}

func processOpen(ctx *Context) (Outcome, error) {
	var o Outcome
	w := ctx.World
	t := types.ItemTarget(ctx.Object)
	switch {
	case !w.Prop(t, types.PropOpenable).IsTrue():
		o.Say("The %s isn't something you can open.", itemName(w, ctx.Object))
	case w.Prop(t, types.PropLocked).IsTrue():
		o.Say("The %s is locked.", itemName(w, ctx.Object))
	case w.Prop(t, types.PropOpen).IsTrue():
		o.Say("The %s is already open.", itemName(w, ctx.Object))
	default:
		o.Change(w.ChangeProp(t, types.PropOpen, types.BoolValue(true)))
		o.Say("Opened.")
	}
	return o, nil
}

func processClose(ctx *Context) (Outcome, error) {
	var o Outcome
	w := ctx.World
	t := types.ItemTarget(ctx.Object)
	switch {
	case !w.Prop(t, types.PropOpenable).IsTrue():
		o.Say("The %s isn't something you can close.", itemName(w, ctx.Object))
	case !w.Prop(t, types.PropOpen).IsTrue():
		o.Say("The %s is already closed.", itemName(w, ctx.Object))
	default:
		o.Change(w.ChangeProp(t, types.PropOpen, types.BoolValue(false)))
		o.Say("Closed.")
	}
	return o, nil
}

func validateWear(ctx *Context) error {
	w := ctx.World
	t := types.ItemTarget(ctx.Object)
	if !w.Prop(t, types.PropWearable).IsTrue() {
		return Refuse("You can't wear the %s.", itemName(w, ctx.Object))
	}
	if !scope.Held(w, ctx.Object) {
		return Refuse("You aren't holding the %s.", itemName(w, ctx.Object))
	}
	if w.Prop(t, types.PropWorn).IsTrue() {
		return Refuse("You're already wearing the %s.", itemName(w, ctx.Object))
	}
	return nil
}

func processWear(ctx *Context) (Outcome, error) {
	var o Outcome
	o.Change(ctx.World.ChangeProp(types.ItemTarget(ctx.Object), types.PropWorn, types.BoolValue(true)))
	o.Say("You put on the %s.", itemName(ctx.World, ctx.Object))
	return o, nil
}

func validateRemove(ctx *Context) error {
	if !ctx.World.Prop(types.ItemTarget(ctx.Object), types.PropWorn).IsTrue() {
		return Refuse("You aren't wearing the %s.", itemName(ctx.World, ctx.Object))
	}
	return nil
}

func processRemove(ctx *Context) (Outcome, error) {
	var o Outcome
	o.Change(ctx.World.ChangeProp(types.ItemTarget(ctx.Object), types.PropWorn, types.BoolValue(false)))
	o.Say("You take off the %s.", itemName(ctx.World, ctx.Object))
	return o, nil
}

func processWait(ctx *Context) (Outcome, error) {
	var o Outcome
	o.Say("Time passes.")
	return o, nil
}

func processScore(ctx *Context) (Outcome, error) {
	var o Outcome
	o.SayStyled(types.StyleEmphasis, "Your score is %d in %d moves.",
		ctx.World.Score(), ctx.World.Moves())
	return o, nil
}

func processQuit(ctx *Context) (Outcome, error) {
	var o Outcome
	o.Change(ctx.World.ChangeProp(types.GlobalTarget(), types.GlobalQuitting, types.BoolValue(true)))
	o.SayStyled(types.StyleSystem, "Goodbye.")
	return o, nil
}

// DescribeLocation renders the standard look output for the player's
// current location: name, description, and visible contents. In the dark
// it renders the stock darkness line instead.
func DescribeLocation(w *state.World) []types.Line {
	locID := w.PlayerLocation()
	if !w.LocationLit(locID) {
		return []types.Line{{Text: "It is pitch black. You can't see a thing."}}
	}

	loc, ok := w.Defs().Locations[locID]
	if !ok {
		return []types.Line{{Text: "You are somewhere unknown."}}
	}

	var lines []types.Line
	if loc.Name != "" {
		lines = append(lines, types.Line{Text: loc.Name, Style: types.StyleStrong})
	}
	if loc.Description != "" {
		lines = append(lines, types.Line{Text: loc.Description})
	}

	var visible []string
	for _, id := range w.Contents(types.InLocation(locID)) {
		if w.Prop(types.ItemTarget(id), types.PropScenery).IsTrue() {
			continue
		}
		visible = append(visible, itemName(w, id))
	}
	if len(visible) > 0 {
		sort.Strings(visible)
		lines = append(lines, types.Line{Text: "You can see " + andList(visible) + " here."})
	}
	return lines
}

func andList(names []string) string {
	withArticle := make([]string, len(names))
	for i, n := range names {
		withArticle[i] = "a " + n
	}
	if len(withArticle) == 1 {
		return withArticle[0]
	}
	return strings.Join(withArticle[:len(withArticle)-1], ", ") +
		" and " + withArticle[len(withArticle)-1]
}
