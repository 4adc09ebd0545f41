package action

import (
	"reflect"
	"strings"
	"testing"

	"github.com/nathoo/fablecore/engine/state"
	"github.com/nathoo/fablecore/types"
)

func testWorld(t *testing.T) *state.World {
	t.Helper()
	defs := &state.Defs{
		Game: types.GameDef{Start: "foyer", Capacity: 3},
		Locations: map[string]types.LocationDef{
			"foyer": {
				ID: "foyer", Name: "Foyer", Description: "A spacious foyer.",
				Exits: map[string]types.ExitDef{
					"south": {Destination: "bar"},
					"north": {
						Destination:    "street",
						BlockedProp:    "door_barred",
						BlockedMessage: "The door is barred.",
					},
				},
			},
			"bar": {
				ID: "bar", Name: "Bar", Description: "A gloomy bar.",
				Exits: map[string]types.ExitDef{"north": {Destination: "foyer"}},
			},
			"street": {ID: "street", Name: "Street"},
		},
		Items: map[string]types.ItemDef{
			"cloak": {
				ID: "cloak", Name: "velvet cloak", Parent: types.HeldByPlayer(),
				Props: map[string]types.Value{
					types.PropTakable:  types.BoolValue(true),
					types.PropWearable: types.BoolValue(true),
					types.PropWorn:     types.BoolValue(true),
				},
			},
			"hook": {
				ID: "hook", Name: "brass hook", Parent: types.InLocation("foyer"),
				Props: map[string]types.Value{
					types.PropSurface: types.BoolValue(true),
					types.PropScenery: types.BoolValue(true),
				},
			},
			"chest": {
				ID: "chest", Name: "oak chest", Parent: types.InLocation("foyer"),
				Props: map[string]types.Value{
					types.PropContainer: types.BoolValue(true),
					types.PropOpenable:  types.BoolValue(true),
					types.PropOpen:      types.BoolValue(false),
				},
			},
			"coin": {
				ID: "coin", Name: "copper coin", Parent: types.InLocation("foyer"),
				Props: map[string]types.Value{types.PropTakable: types.BoolValue(true)},
			},
			"sign": {
				ID: "sign", Name: "wooden sign", Parent: types.InLocation("foyer"),
				Props: map[string]types.Value{
					types.PropScenery: types.BoolValue(true),
					types.PropText:    types.StringValue("No vagrants."),
				},
			},
		},
	}
	return state.NewWorld(defs)
}

func run(t *testing.T, r *Registry, w *state.World, cmd types.Command) types.Result {
	t.Helper()
	res, err := Execute(r, w, cmd)
	if err != nil {
		t.Fatalf("execute %q: %v", cmd.Verb, err)
	}
	return res
}

func direct(verb string, ids ...string) types.Command {
	return types.Command{Verb: verb, Direct: &types.ObjectRef{Items: ids}}
}

func TestExecute_TakeMovesItemToPlayer(t *testing.T) {
	w := testWorld(t)
	r := NewRegistry()

	res := run(t, r, w, direct("take", "coin"))

	if w.ParentOf("coin") != types.HeldByPlayer() {
		t.Error("expected the coin held after take")
	}
	if got := res.Texts(); !reflect.DeepEqual(got, []string{"Taken."}) {
		t.Errorf("expected [Taken.], got %v", got)
	}
}

func TestExecute_TakeSceneryRefused(t *testing.T) {
	w := testWorld(t)
	r := NewRegistry()

	res := run(t, r, w, direct("take", "sign"))

	if got := res.Texts(); !reflect.DeepEqual(got, []string{"That's hardly portable."}) {
		t.Errorf("expected the scenery refusal, got %v", got)
	}
	if w.ParentOf("sign") != types.InLocation("foyer") {
		t.Error("refused take must not move the item")
	}
}

func TestExecute_RefusalAppliesNoChanges(t *testing.T) {
	w := testWorld(t)
	r := NewRegistry()
	before := w.HistoryLen()

	res := run(t, r, w, direct("take", "sign"))

	if len(res.Changes) != 0 {
		t.Errorf("expected no committed changes, got %v", res.Changes)
	}
	if w.HistoryLen() != before {
		t.Error("refusal must leave history untouched")
	}
}

func TestExecute_TakeRespectsCapacity(t *testing.T) {
	w := testWorld(t)
	r := NewRegistry()
	// The cloak plus two more items fills the three-item limit.
	for _, id := range []string{"chest", "sign"} {
		if err := w.MoveItem(id, types.HeldByPlayer()); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}

	res := run(t, r, w, direct("take", "coin"))

	if got := res.Texts()[0]; got != "You're carrying too much already." {
		t.Errorf("expected the capacity refusal, got %q", got)
	}
}

func TestExecute_DropWornItemRemovesFirst(t *testing.T) {
	w := testWorld(t)
	r := NewRegistry()

	res := run(t, r, w, direct("drop", "cloak"))

	want := []string{"(first taking it off)", "Dropped."}
	if got := res.Texts(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if w.Prop(types.ItemTarget("cloak"), types.PropWorn).IsTrue() {
		t.Error("expected the cloak no longer worn")
	}
	if w.ParentOf("cloak") != types.InLocation("foyer") {
		t.Error("expected the cloak on the floor")
	}
}

func TestExecute_PutOnSurface(t *testing.T) {
	w := testWorld(t)
	r := NewRegistry()
	cmd := direct("put", "cloak")
	cmd.Indirect = &types.ObjectRef{Items: []string{"hook"}}

	res := run(t, r, w, cmd)

	if w.ParentOf("cloak") != types.InItem("hook") {
		t.Error("expected the cloak on the hook")
	}
	last := res.Texts()[len(res.Texts())-1]
	if last != "You put the velvet cloak on the brass hook." {
		t.Errorf("unexpected message %q", last)
	}
}

func TestExecute_PutInClosedContainerRefused(t *testing.T) {
	w := testWorld(t)
	r := NewRegistry()
	cmd := direct("put", "cloak")
	cmd.Indirect = &types.ObjectRef{Items: []string{"chest"}}

	res := run(t, r, w, cmd)

	if got := res.Texts(); !reflect.DeepEqual(got, []string{"The oak chest is closed."}) {
		t.Errorf("expected the closed refusal, got %v", got)
	}
	if w.ParentOf("cloak") != types.HeldByPlayer() {
		t.Error("refused put must not move the item")
	}
}

func TestExecute_OpenThenPutInContainer(t *testing.T) {
	w := testWorld(t)
	r := NewRegistry()

	run(t, r, w, direct("open", "chest"))
	cmd := direct("put", "cloak")
	cmd.Indirect = &types.ObjectRef{Items: []string{"chest"}}
	res := run(t, r, w, cmd)

	if w.ParentOf("cloak") != types.InItem("chest") {
		t.Error("expected the cloak in the chest")
	}
	last := res.Texts()[len(res.Texts())-1]
	if last != "You put the velvet cloak in the oak chest." {
		t.Errorf("unexpected message %q", last)
	}
}

func TestExecute_GoMovesPlayerAndDescribes(t *testing.T) {
	w := testWorld(t)
	r := NewRegistry()

	res := run(t, r, w, types.Command{Verb: "go", Direction: "south"})

	if got := w.PlayerLocation(); got != "bar" {
		t.Errorf("expected player in bar, got %q", got)
	}
	if got := res.Texts()[0]; got != "Bar" {
		t.Errorf("expected the destination name first, got %q", got)
	}
}

func TestExecute_GoBlockedExit(t *testing.T) {
	w := testWorld(t)
	r := NewRegistry()
	if err := w.SetLocationProp("foyer", "door_barred", types.BoolValue(true)); err != nil {
		t.Fatalf("bar the door: %v", err)
	}

	res := run(t, r, w, types.Command{Verb: "go", Direction: "north"})

	if got := res.Texts(); !reflect.DeepEqual(got, []string{"The door is barred."}) {
		t.Errorf("expected the blocked message, got %v", got)
	}
	if got := w.PlayerLocation(); got != "foyer" {
		t.Errorf("expected player still in the foyer, got %q", got)
	}
}

func TestExecute_GoNoSuchExit(t *testing.T) {
	w := testWorld(t)
	r := NewRegistry()

	res := run(t, r, w, types.Command{Verb: "go", Direction: "west"})

	if got := res.Texts(); !reflect.DeepEqual(got, []string{"You can't go that way."}) {
		t.Errorf("expected the no-exit refusal, got %v", got)
	}
}

func TestExecute_ReadTextProperty(t *testing.T) {
	w := testWorld(t)
	r := NewRegistry()

	res := run(t, r, w, direct("read", "sign"))

	if got := res.Texts(); !reflect.DeepEqual(got, []string{"No vagrants."}) {
		t.Errorf("expected the sign text, got %v", got)
	}
}

func TestExecute_InventoryMarksWornItems(t *testing.T) {
	w := testWorld(t)
	r := NewRegistry()

	res := run(t, r, w, types.Command{Verb: "inventory"})

	joined := strings.Join(res.Texts(), "\n")
	if !strings.Contains(joined, "velvet cloak (being worn)") {
		t.Errorf("expected the worn marker, got %q", joined)
	}
}

func TestExecute_MultiObjectPrefixesLines(t *testing.T) {
	w := testWorld(t)
	r := NewRegistry()
	cmd := types.Command{
		Verb:   "take",
		Direct: &types.ObjectRef{Items: []string{"coin", "sign"}, All: true},
	}

	res := run(t, r, w, cmd)

	want := []string{
		"copper coin: Taken.",
		"wooden sign: That's hardly portable.",
	}
	if got := res.Texts(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if w.ParentOf("coin") != types.HeldByPlayer() {
		t.Error("expected the coin taken despite the sign refusal")
	}
}

func TestExecute_MultiObjectEmptySet(t *testing.T) {
	w := testWorld(t)
	r := NewRegistry()
	cmd := types.Command{Verb: "take", Direct: &types.ObjectRef{All: true}}

	res := run(t, r, w, cmd)

	if got := res.Texts(); !reflect.DeepEqual(got, []string{"There is nothing here to take."}) {
		t.Errorf("expected the empty-all message, got %v", got)
	}
}

func TestExecute_ItemHandlerRunsBeforeDefault(t *testing.T) {
	w := testWorld(t)
	r := NewRegistry()
	r.OnItem("coin", Funcs{
		OnProcess: func(ctx *Context) (Outcome, error) {
			if ctx.Command.Verb != "take" {
				return Outcome{}, ErrNotHandled
			}
			var o Outcome
			o.Change(ctx.World.ChangeParent("coin", types.HeldByPlayer()))
			o.Say("You snatch the coin before anyone notices.")
			return o, nil
		},
	})

	res := run(t, r, w, direct("take", "coin"))

	if got := res.Texts()[0]; got != "You snatch the coin before anyone notices." {
		t.Errorf("expected the item handler's line, got %q", got)
	}
}

func TestExecute_YieldFallsThroughToDefault(t *testing.T) {
	w := testWorld(t)
	r := NewRegistry()
	r.OnItem("coin", Funcs{
		OnProcess: func(ctx *Context) (Outcome, error) {
			return Outcome{}, ErrNotHandled
		},
	})

	res := run(t, r, w, direct("take", "coin"))

	if got := res.Texts(); !reflect.DeepEqual(got, []string{"Taken."}) {
		t.Errorf("expected the default take, got %v", got)
	}
}

func TestExecute_ValidateRefusalStopsChain(t *testing.T) {
	w := testWorld(t)
	r := NewRegistry()
	r.OnItem("coin", Funcs{
		OnValidate: func(ctx *Context) error {
			if ctx.Command.Verb == "take" {
				return Refuse("The coin is glued down.")
			}
			return nil
		},
	})

	res := run(t, r, w, direct("take", "coin"))

	if got := res.Texts(); !reflect.DeepEqual(got, []string{"The coin is glued down."}) {
		t.Errorf("expected the custom refusal, got %v", got)
	}
	if w.ParentOf("coin") != types.InLocation("foyer") {
		t.Error("expected the coin untouched")
	}
}

func TestExecute_UnhandledVerbFallsBack(t *testing.T) {
	w := testWorld(t)
	r := NewRegistry()

	res := run(t, r, w, types.Command{Verb: "sing"})

	if got := res.Texts(); !reflect.DeepEqual(got, []string{"You can't do that."}) {
		t.Errorf("expected the fallback line, got %v", got)
	}
}

func TestExecute_SideEffectStartsFuse(t *testing.T) {
	w := testWorld(t)
	r := NewRegistry()
	r.OnVerb("wait", Funcs{
		OnProcess: func(ctx *Context) (Outcome, error) {
			var o Outcome
			o.Say("Something ticks.")
			o.Effect(types.SideEffect{Kind: types.StartFuse, ID: "bomb", Turns: 3})
			return o, nil
		},
	})

	run(t, r, w, types.Command{Verb: "wait"})

	if f, ok := w.Fuse("bomb"); !ok || f.Turns != 3 {
		t.Errorf("expected a 3-turn fuse, got %+v ok=%v", f, ok)
	}
}

func TestExecute_StopMissingFuseIsNoOp(t *testing.T) {
	w := testWorld(t)
	r := NewRegistry()
	r.OnVerb("wait", Funcs{
		OnProcess: func(ctx *Context) (Outcome, error) {
			var o Outcome
			o.Say("Nothing to stop.")
			o.Effect(types.SideEffect{Kind: types.StopFuse, ID: "bomb"})
			return o, nil
		},
	})

	res, err := Execute(r, w, types.Command{Verb: "wait"})
	if err != nil {
		t.Fatalf("expected a no-op, got %v", err)
	}
	if got := res.Texts(); !reflect.DeepEqual(got, []string{"Nothing to stop."}) {
		t.Errorf("unexpected output %v", got)
	}
}

func TestDescribeLocation_DarkSuppressesDetail(t *testing.T) {
	w := testWorld(t)
	if err := w.SetLocationProp("foyer", types.PropLit, types.BoolValue(false)); err != nil {
		t.Fatalf("darken: %v", err)
	}

	lines := DescribeLocation(w)

	want := "It is pitch black. You can't see a thing."
	if len(lines) != 1 || lines[0].Text != want {
		t.Errorf("expected only the darkness line, got %+v", lines)
	}
}

func TestDescribeLocation_ListsVisibleNonScenery(t *testing.T) {
	w := testWorld(t)

	lines := DescribeLocation(w)

	last := lines[len(lines)-1].Text
	if last != "You can see a copper coin and a oak chest here." {
		t.Errorf("unexpected contents line %q", last)
	}
}

func TestExecute_AfterSeesChangesButNotSideEffects(t *testing.T) {
	w := testWorld(t)
	r := NewRegistry()

	var heldInAfter, fuseActiveInAfter bool
	r.OnItem("coin", Funcs{
		OnProcess: func(ctx *Context) (Outcome, error) {
			var o Outcome
			o.Change(ctx.World.ChangeParent("coin", types.HeldByPlayer()))
			o.Effect(types.SideEffect{Kind: types.StartFuse, ID: "alarm", Turns: 3})
			o.Say("Taken, for now.")
			return o, nil
		},
		OnAfter: func(ctx *Context, o *Outcome) {
			heldInAfter = ctx.World.ParentOf("coin").Kind == types.ParentPlayer
			_, fuseActiveInAfter = ctx.World.Fuse("alarm")
		},
	})

	run(t, r, w, direct("take", "coin"))

	if !heldInAfter {
		t.Error("After should observe the committed parent change")
	}
	if fuseActiveInAfter {
		t.Error("After ran after side-effect registration")
	}
	if _, ok := w.Fuse("alarm"); !ok {
		t.Error("fuse should be registered once the command completes")
	}
}
