package action

import (
	"reflect"
	"testing"

	"github.com/nathoo/fablecore/types"
)

func darkFixture(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	r.OnLocation("bar", NewDarkHandler("bar", DarkPolicy{
		SafeVerbs:          []string{"look", "inventory", "score", "wait", "quit"},
		EscapeDirection:    "north",
		DisturbanceCounter: "disturbed",
		Message:            "In the dark? You could easily disturb something!",
		LookMessage:        "It is pitch black. You can't see a thing.",
	}))
	return r
}

func TestDarkHandler_LitLocationYields(t *testing.T) {
	w := testWorld(t)
	r := darkFixture(t)
	if err := w.MovePlayer("bar"); err != nil {
		t.Fatalf("move: %v", err)
	}

	res := run(t, r, w, types.Command{Verb: "wait"})

	if got := res.Texts(); !reflect.DeepEqual(got, []string{"Time passes."}) {
		t.Errorf("expected the default wait while lit, got %v", got)
	}
}

func TestDarkHandler_PenalizedActionIncrementsCounter(t *testing.T) {
	w := testWorld(t)
	r := darkFixture(t)
	if err := w.MovePlayer("bar"); err != nil {
		t.Fatalf("move: %v", err)
	}
	if err := w.SetLocationProp("bar", types.PropLit, types.BoolValue(false)); err != nil {
		t.Fatalf("darken: %v", err)
	}

	res := run(t, r, w, direct("take", "coin"))

	if got := res.Texts(); !reflect.DeepEqual(got, []string{"In the dark? You could easily disturb something!"}) {
		t.Errorf("expected the darkness warning, got %v", got)
	}
	if n, _ := w.Prop(types.GlobalTarget(), "disturbed").AsInt(); n != 1 {
		t.Errorf("expected disturbance counter 1, got %d", n)
	}
}

func TestDarkHandler_SafeVerbPassesThrough(t *testing.T) {
	w := testWorld(t)
	r := darkFixture(t)
	if err := w.MovePlayer("bar"); err != nil {
		t.Fatalf("move: %v", err)
	}
	if err := w.SetLocationProp("bar", types.PropLit, types.BoolValue(false)); err != nil {
		t.Fatalf("darken: %v", err)
	}

	res := run(t, r, w, types.Command{Verb: "wait"})

	if got := res.Texts(); !reflect.DeepEqual(got, []string{"Time passes."}) {
		t.Errorf("expected wait to stay safe in the dark, got %v", got)
	}
	if n, _ := w.Prop(types.GlobalTarget(), "disturbed").AsInt(); n != 0 {
		t.Errorf("safe verb must not disturb, counter %d", n)
	}
}

func TestDarkHandler_LookGetsDarknessLine(t *testing.T) {
	w := testWorld(t)
	r := darkFixture(t)
	if err := w.MovePlayer("bar"); err != nil {
		t.Fatalf("move: %v", err)
	}
	if err := w.SetLocationProp("bar", types.PropLit, types.BoolValue(false)); err != nil {
		t.Fatalf("darken: %v", err)
	}

	res := run(t, r, w, types.Command{Verb: "look"})

	want := []string{"It is pitch black. You can't see a thing."}
	if got := res.Texts(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected the look message, got %v", got)
	}
}

func TestDarkHandler_EscapeDirectionAllowed(t *testing.T) {
	w := testWorld(t)
	r := darkFixture(t)
	if err := w.MovePlayer("bar"); err != nil {
		t.Fatalf("move: %v", err)
	}
	if err := w.SetLocationProp("bar", types.PropLit, types.BoolValue(false)); err != nil {
		t.Fatalf("darken: %v", err)
	}

	run(t, r, w, types.Command{Verb: "go", Direction: "north"})

	if got := w.PlayerLocation(); got != "foyer" {
		t.Errorf("expected escape north to the foyer, got %q", got)
	}
}

func TestDarkHandler_OtherDirectionsDisturb(t *testing.T) {
	w := testWorld(t)
	r := darkFixture(t)
	if err := w.MovePlayer("bar"); err != nil {
		t.Fatalf("move: %v", err)
	}
	if err := w.SetLocationProp("bar", types.PropLit, types.BoolValue(false)); err != nil {
		t.Fatalf("darken: %v", err)
	}

	run(t, r, w, types.Command{Verb: "go", Direction: "south"})

	if got := w.PlayerLocation(); got != "bar" {
		t.Errorf("expected the player stuck in the dark, got %q", got)
	}
	if n, _ := w.Prop(types.GlobalTarget(), "disturbed").AsInt(); n != 1 {
		t.Errorf("expected disturbance counter 1, got %d", n)
	}
}
