// Package sched advances fuses and daemons once per completed player
// turn. Countdown state lives in the world tables so it serializes with
// the rest of the session; the scheduler itself only holds the effect
// routines, keyed by identifier.
package sched

import (
	"fmt"

	"github.com/nathoo/fablecore/engine/state"
	"github.com/nathoo/fablecore/types"
)

// FuseRoutine runs when a fuse's counter reaches zero. The payload is the
// typed data the fuse was started with; mutations go through the world's
// ordinary helpers.
type FuseRoutine func(w *state.World, payload map[string]types.Value) ([]types.Line, error)

// DaemonRoutine runs every time its daemon's cadence comes up.
type DaemonRoutine func(w *state.World) ([]types.Line, error)

// Scheduler owns the registered routines. Fuse and daemon state is data in
// the world; a routine must be registered for every identifier the game
// starts.
type Scheduler struct {
	fuses   map[string]FuseRoutine
	daemons map[string]DaemonRoutine
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{
		fuses:   map[string]FuseRoutine{},
		daemons: map[string]DaemonRoutine{},
	}
}

// RegisterFuse installs the effect routine for a fuse identifier.
func (s *Scheduler) RegisterFuse(id string, r FuseRoutine) { s.fuses[id] = r }

// RegisterDaemon installs the routine for a daemon identifier.
func (s *Scheduler) RegisterDaemon(id string, r DaemonRoutine) { s.daemons[id] = r }

// Tick advances time by one turn: every active fuse counts down by one,
// fuses reaching zero fire once and are removed, and every daemon whose
// cadence divides the turn number runs. Fuses and daemons started during
// the tick are not advanced until the next one.
func (s *Scheduler) Tick(w *state.World, turn int) ([]types.Line, error) {
	var lines []types.Line

	for _, id := range w.ActiveFuses() {
		f, ok := w.Fuse(id)
		if !ok {
			continue // stopped by an earlier routine this tick
		}
		remaining := f.Turns - 1
		if err := w.SetFuseTurns(id, remaining); err != nil {
			return lines, err
		}
		if remaining > 0 {
			continue
		}

		routine, ok := s.fuses[id]
		if !ok {
			return lines, fmt.Errorf("sched: fuse %q expired with no registered routine", id)
		}
		out, err := routine(w, copyPayload(f.Payload))
		lines = append(lines, out...)
		if err != nil {
			return lines, err
		}
		// The routine may have restarted the fuse; only a still-expired
		// entry leaves the table.
		if after, ok := w.Fuse(id); ok && after.Turns <= 0 {
			if err := w.StopFuse(id); err != nil {
				return lines, err
			}
		}
	}

	for _, id := range w.ActiveDaemons() {
		d, ok := w.Daemon(id)
		if !ok || d.Cadence <= 0 || turn%d.Cadence != 0 {
			continue
		}
		routine, ok := s.daemons[id]
		if !ok {
			return lines, fmt.Errorf("sched: daemon %q active with no registered routine", id)
		}
		out, err := routine(w)
		lines = append(lines, out...)
		if err != nil {
			return lines, err
		}
	}

	return lines, nil
}

func copyPayload(src map[string]types.Value) map[string]types.Value {
	if src == nil {
		return nil
	}
	out := make(map[string]types.Value, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
