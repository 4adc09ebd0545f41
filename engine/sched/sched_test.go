package sched

import (
	"strings"
	"testing"

	"github.com/nathoo/fablecore/engine/state"
	"github.com/nathoo/fablecore/types"
)

func testWorld(t *testing.T) *state.World {
	t.Helper()
	defs := &state.Defs{
		Game: types.GameDef{Start: "cellar"},
		Locations: map[string]types.LocationDef{
			"cellar": {ID: "cellar", Name: "Cellar"},
		},
		Items: map[string]types.ItemDef{
			"candle": {
				ID: "candle", Name: "candle", Parent: types.InLocation("cellar"),
				Props: map[string]types.Value{types.PropLit: types.BoolValue(true)},
			},
		},
	}
	return state.NewWorld(defs)
}

func TestTick_FuseCountsDownWithoutFiring(t *testing.T) {
	w := testWorld(t)
	s := New()
	fired := 0
	s.RegisterFuse("candle_burn", func(w *state.World, payload map[string]types.Value) ([]types.Line, error) {
		fired++
		return nil, nil
	})
	if err := w.StartFuse("candle_burn", 3, nil); err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := s.Tick(w, 1); err != nil {
		t.Fatalf("tick: %v", err)
	}

	if fired != 0 {
		t.Errorf("expected no firing at 2 remaining, fired %d times", fired)
	}
	if f, _ := w.Fuse("candle_burn"); f.Turns != 2 {
		t.Errorf("expected 2 turns left, got %d", f.Turns)
	}
}

func TestTick_FuseFiresExactlyOnceAtZero(t *testing.T) {
	w := testWorld(t)
	s := New()
	fired := 0
	s.RegisterFuse("candle_burn", func(w *state.World, payload map[string]types.Value) ([]types.Line, error) {
		fired++
		return []types.Line{{Text: "The candle gutters out."}}, nil
	})
	if err := w.StartFuse("candle_burn", 2, nil); err != nil {
		t.Fatalf("start: %v", err)
	}

	var all []types.Line
	for turn := 1; turn <= 4; turn++ {
		lines, err := s.Tick(w, turn)
		if err != nil {
			t.Fatalf("tick %d: %v", turn, err)
		}
		all = append(all, lines...)
	}

	if fired != 1 {
		t.Errorf("expected exactly one firing, got %d", fired)
	}
	if len(all) != 1 || all[0].Text != "The candle gutters out." {
		t.Errorf("unexpected output %+v", all)
	}
	if _, ok := w.Fuse("candle_burn"); ok {
		t.Error("expected the fuse removed after firing")
	}
}

func TestTick_FuseReceivesPayload(t *testing.T) {
	w := testWorld(t)
	s := New()
	var got string
	s.RegisterFuse("alarm", func(w *state.World, payload map[string]types.Value) ([]types.Line, error) {
		got, _ = payload["who"].AsString()
		return nil, nil
	})
	if err := w.StartFuse("alarm", 1, map[string]types.Value{"who": types.StringValue("guard")}); err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := s.Tick(w, 1); err != nil {
		t.Fatalf("tick: %v", err)
	}

	if got != "guard" {
		t.Errorf("expected payload who=guard, got %q", got)
	}
}

func TestTick_RoutineMayRestartItsFuse(t *testing.T) {
	w := testWorld(t)
	s := New()
	s.RegisterFuse("drip", func(w *state.World, payload map[string]types.Value) ([]types.Line, error) {
		return []types.Line{{Text: "Drip."}}, w.StartFuse("drip", 2, nil)
	})
	if err := w.StartFuse("drip", 1, nil); err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := s.Tick(w, 1); err != nil {
		t.Fatalf("tick: %v", err)
	}

	if f, ok := w.Fuse("drip"); !ok || f.Turns != 2 {
		t.Errorf("expected the restarted fuse at 2 turns, got %+v ok=%v", f, ok)
	}
}

func TestTick_RoutineSeesCommittedState(t *testing.T) {
	w := testWorld(t)
	s := New()
	var sawLit bool
	s.RegisterFuse("snuff", func(w *state.World, payload map[string]types.Value) ([]types.Line, error) {
		sawLit = w.Prop(types.ItemTarget("candle"), types.PropLit).IsTrue()
		return nil, w.SetItemProp("candle", types.PropLit, types.BoolValue(false))
	})
	if err := w.StartFuse("snuff", 1, nil); err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := s.Tick(w, 1); err != nil {
		t.Fatalf("tick: %v", err)
	}

	if !sawLit {
		t.Error("expected the routine to observe the pre-fire state")
	}
	if w.Prop(types.ItemTarget("candle"), types.PropLit).IsTrue() {
		t.Error("expected the routine's mutation committed")
	}
}

func TestTick_UnregisteredFuseIsAnError(t *testing.T) {
	w := testWorld(t)
	s := New()
	if err := w.StartFuse("mystery", 1, nil); err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err := s.Tick(w, 1)
	if err == nil || !strings.Contains(err.Error(), "mystery") {
		t.Errorf("expected an unregistered-routine error naming the fuse, got %v", err)
	}
}

func TestTick_DaemonRunsOnCadence(t *testing.T) {
	w := testWorld(t)
	s := New()
	var runs []int
	s.RegisterDaemon("ticker", func(w *state.World) ([]types.Line, error) {
		runs = append(runs, w.Moves())
		return nil, nil
	})
	if err := w.StartDaemon("ticker", 3); err != nil {
		t.Fatalf("start: %v", err)
	}

	for turn := 1; turn <= 7; turn++ {
		if err := w.IncMoves(); err != nil {
			t.Fatalf("moves: %v", err)
		}
		if _, err := s.Tick(w, turn); err != nil {
			t.Fatalf("tick %d: %v", turn, err)
		}
	}

	if len(runs) != 2 || runs[0] != 3 || runs[1] != 6 {
		t.Errorf("expected runs at turns 3 and 6, got %v", runs)
	}
}

func TestTick_StoppedDaemonNoLongerRuns(t *testing.T) {
	w := testWorld(t)
	s := New()
	fired := 0
	s.RegisterDaemon("ticker", func(w *state.World) ([]types.Line, error) {
		fired++
		return nil, nil
	})
	if err := w.StartDaemon("ticker", 1); err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := s.Tick(w, 1); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if err := w.StopDaemon("ticker"); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if _, err := s.Tick(w, 2); err != nil {
		t.Fatalf("tick: %v", err)
	}

	if fired != 1 {
		t.Errorf("expected one run before the stop, got %d", fired)
	}
}

func TestTick_FuseAndDaemonShareATurn(t *testing.T) {
	w := testWorld(t)
	s := New()
	var order []string
	s.RegisterFuse("boom", func(w *state.World, payload map[string]types.Value) ([]types.Line, error) {
		order = append(order, "fuse")
		return nil, nil
	})
	s.RegisterDaemon("hum", func(w *state.World) ([]types.Line, error) {
		order = append(order, "daemon")
		return nil, nil
	})
	if err := w.StartFuse("boom", 1, nil); err != nil {
		t.Fatalf("start fuse: %v", err)
	}
	if err := w.StartDaemon("hum", 1); err != nil {
		t.Fatalf("start daemon: %v", err)
	}

	if _, err := s.Tick(w, 1); err != nil {
		t.Fatalf("tick: %v", err)
	}

	// Fuses advance before daemons within a tick.
	if len(order) != 2 || order[0] != "fuse" || order[1] != "daemon" {
		t.Errorf("expected fuse then daemon, got %v", order)
	}
}
