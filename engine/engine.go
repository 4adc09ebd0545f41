// Package engine wires parsing, action execution, state commitment, and
// the scheduler into a single Step() per player command. One command is
// fully processed before the next is accepted; the scheduler ticks only
// after a completed turn.
package engine

import (
	"errors"
	"fmt"

	"github.com/nathoo/fablecore/engine/action"
	"github.com/nathoo/fablecore/engine/parser"
	"github.com/nathoo/fablecore/engine/sched"
	"github.com/nathoo/fablecore/engine/state"
	"github.com/nathoo/fablecore/engine/vocab"
	"github.com/nathoo/fablecore/types"
)

// Engine holds the game definitions, the world, and the wired subsystems.
type Engine struct {
	Defs    *state.Defs
	World   *state.World
	Vocab   *vocab.Vocabulary
	Actions *action.Registry
	Sched   *sched.Scheduler
	RNG     *RNG
}

// New creates an engine from definitions: a fresh world, a vocabulary
// compiled from the item table plus the standard verbs, the default
// action registry, and an empty scheduler.
func New(defs *state.Defs) *Engine {
	return &Engine{
		Defs:    defs,
		World:   state.NewWorld(defs),
		Vocab:   vocab.Build(defs.Items, vocab.StandardVerbs()),
		Actions: action.NewRegistry(),
		Sched:   sched.New(),
		RNG:     NewRNG(0),
	}
}

// Step processes one player command: parse, execute, commit, register
// side effects, advance the scheduler, update pronouns and the move
// counter. A parse failure consumes no turn and mutates nothing.
func (e *Engine) Step(input string) types.Result {
	var result types.Result

	if e.World.Ended() {
		result.Lines = append(result.Lines, types.Line{
			Text:  "The game is over. Use /load to restore a save or /quit to exit.",
			Style: types.StyleSystem,
		})
		result.Ended = true
		return result
	}

	cmd, err := parser.Parse(input, e.Vocab, e.World)
	if err != nil {
		var pe *parser.ParseError
		if errors.As(err, &pe) {
			result.Lines = append(result.Lines, types.Line{Text: pe.Error()})
			return result
		}
		return e.internalFailure(result, err)
	}

	res, err := action.Execute(e.Actions, e.World, cmd)
	if err != nil {
		// Fatal to the command, not to the session: report and wait for
		// the next input without ticking the scheduler.
		return e.internalFailure(result, err)
	}
	result.Lines = append(result.Lines, res.Lines...)
	result.Changes = append(result.Changes, res.Changes...)

	if err := e.updatePronouns(cmd); err != nil {
		return e.internalFailure(result, err)
	}

	if err := e.World.IncMoves(); err != nil {
		return e.internalFailure(result, err)
	}
	tickLines, err := e.Sched.Tick(e.World, e.World.Moves())
	result.Lines = append(result.Lines, tickLines...)
	if err != nil {
		return e.internalFailure(result, err)
	}

	result.Ended = e.World.Ended()
	return result
}

// updatePronouns rebinds "it" and "them" from the command's resolved
// direct objects.
func (e *Engine) updatePronouns(cmd types.Command) error {
	if cmd.Direct == nil || len(cmd.Direct.Items) == 0 {
		return nil
	}
	if len(cmd.Direct.Items) == 1 {
		return e.World.SetPronoun("it", cmd.Direct.Items[0])
	}
	return e.World.SetPronoun("them", cmd.Direct.Items...)
}

func (e *Engine) internalFailure(result types.Result, err error) types.Result {
	result.Lines = append(result.Lines, types.Line{
		Text:  fmt.Sprintf("[internal error: %v]", err),
		Style: types.StyleSystem,
	})
	return result
}

// PickLine selects one of several message variants deterministically via
// the engine RNG. A single option avoids consuming RNG state.
func (e *Engine) PickLine(options []string) string {
	switch len(options) {
	case 0:
		return ""
	case 1:
		return options[0]
	default:
		return options[e.RNG.Intn(len(options))]
	}
}

// RestoreRNG re-creates the RNG from seed and advances to the saved
// position.
func (e *Engine) RestoreRNG(seed, position int64) {
	e.RNG = RestoreRNG(seed, position)
}
