package state

import (
	"errors"
	"testing"

	"github.com/nathoo/fablecore/types"
)

func TestApply_StaleOldValueRejected(t *testing.T) {
	w := NewWorld(testDefs())
	change := w.ChangeProp(types.ItemTarget("pouch"), types.PropOpen, types.BoolValue(false))

	// The snapshot moves before the change lands.
	if err := w.SetItemProp("pouch", types.PropOpen, types.BoolValue(false)); err != nil {
		t.Fatalf("set: %v", err)
	}

	err := w.Apply(change)
	var stale *StaleError
	if !errors.As(err, &stale) {
		t.Fatalf("expected StaleError, got %v", err)
	}
}

func TestApply_StaleRejectionLeavesNoHistory(t *testing.T) {
	w := NewWorld(testDefs())
	change := w.ChangeProp(types.ItemTarget("pouch"), types.PropOpen, types.BoolValue(false))
	if err := w.SetItemProp("pouch", types.PropOpen, types.BoolValue(false)); err != nil {
		t.Fatalf("set: %v", err)
	}
	before := w.HistoryLen()

	if err := w.Apply(change); err == nil {
		t.Fatal("expected stale rejection")
	}
	if w.HistoryLen() != before {
		t.Error("rejected change must not enter history")
	}
}

func TestApply_NilOldSkipsCheck(t *testing.T) {
	w := NewWorld(testDefs())

	err := w.Apply(types.StateChange{
		Target: types.ItemTarget("pouch"),
		Key:    types.PropOpen,
		New:    types.BoolValue(false),
	})
	if err != nil {
		t.Fatalf("expected unconditional write to succeed, got %v", err)
	}
}

func TestApply_UnknownItemRejected(t *testing.T) {
	w := NewWorld(testDefs())

	err := w.SetItemProp("ghost", types.PropOpen, types.BoolValue(true))
	var unknown *UnknownEntityError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownEntityError, got %v", err)
	}
}

func TestApply_UnknownParentRejected(t *testing.T) {
	w := NewWorld(testDefs())

	err := w.MoveItem("coin", types.InLocation("attic"))
	var unknown *UnknownEntityError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownEntityError, got %v", err)
	}
}

func TestApply_SelfContainmentRejected(t *testing.T) {
	w := NewWorld(testDefs())

	err := w.MoveItem("pouch", types.InItem("pouch"))
	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("expected CycleError, got %v", err)
	}
}

func TestApply_TransitiveCycleRejected(t *testing.T) {
	w := NewWorld(testDefs())

	// coin is already inside pouch; pouch into coin would close a loop.
	err := w.MoveItem("pouch", types.InItem("coin"))
	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("expected CycleError, got %v", err)
	}
}

func TestApply_RejectedMoveLeavesParentUnchanged(t *testing.T) {
	w := NewWorld(testDefs())

	if err := w.MoveItem("pouch", types.InItem("coin")); err == nil {
		t.Fatal("expected cycle rejection")
	}
	if got := w.ParentOf("pouch"); got != types.InLocation("foyer") {
		t.Errorf("expected pouch untouched in foyer, got %v", got)
	}
}

func TestApply_NoneValueOnlyRemovesSchedulerRows(t *testing.T) {
	w := NewWorld(testDefs())

	err := w.Apply(types.StateChange{
		Target: types.ItemTarget("cloak"),
		Key:    types.PropWorn,
		New:    types.NoValue(),
	})
	if !errors.Is(err, ErrNoneValue) {
		t.Fatalf("expected ErrNoneValue, got %v", err)
	}
}

func TestApply_HistoryRecordsRealizedOldValue(t *testing.T) {
	w := NewWorld(testDefs())

	err := w.Apply(types.StateChange{
		Target: types.ItemTarget("pouch"),
		Key:    types.PropOpen,
		New:    types.BoolValue(false),
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	last := w.History()[w.HistoryLen()-1]
	if last.Old == nil {
		t.Fatal("history record must carry the realized old value")
	}
	if !last.Old.Equal(types.BoolValue(true)) {
		t.Errorf("expected realized old true, got %s", *last.Old)
	}
}

func TestApply_FuseRowsCreatedAndRemoved(t *testing.T) {
	w := NewWorld(testDefs())
	if err := w.StartFuse("alarm", 3, map[string]types.Value{"who": types.StringValue("guard")}); err != nil {
		t.Fatalf("start: %v", err)
	}

	f, ok := w.Fuse("alarm")
	if !ok || f.Turns != 3 {
		t.Fatalf("expected 3-turn fuse, got %+v ok=%v", f, ok)
	}
	if got, _ := f.Payload["who"].AsString(); got != "guard" {
		t.Errorf("expected payload who=guard, got %q", got)
	}

	if err := w.StopFuse("alarm"); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if _, ok := w.Fuse("alarm"); ok {
		t.Error("expected fuse removed")
	}
}

func TestApply_DaemonCadenceMustBePositive(t *testing.T) {
	w := NewWorld(testDefs())

	if err := w.StartDaemon("ticker", 0); err == nil {
		t.Error("expected zero cadence to be rejected")
	}
}

func TestApply_DaemonRowRemovedByStop(t *testing.T) {
	w := NewWorld(testDefs())
	if err := w.StartDaemon("ticker", 2); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := w.StopDaemon("ticker"); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if _, ok := w.Daemon("ticker"); ok {
		t.Error("expected daemon removed")
	}
}
