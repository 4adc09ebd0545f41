// Package cli provides terminal I/O, output formatting, and meta-command
// dispatch for the FableCore engine.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nathoo/fablecore/engine"
	"github.com/nathoo/fablecore/engine/action"
	"github.com/nathoo/fablecore/engine/save"
	"github.com/nathoo/fablecore/transcript"
	"github.com/nathoo/fablecore/types"
)

// CLI handles terminal interaction with the player.
type CLI struct {
	Engine    *engine.Engine
	In        io.Reader
	Out       io.Writer
	SaveDir   string
	Trace     bool
	EchoInput bool // echo each input line after the prompt (for script playback)

	Recorder *transcript.Store // nil disables transcript recording
	session  int64
	lastCmd  string // for "again"/"g" repeat
}

// New creates a CLI wired to the given engine.
func New(eng *engine.Engine, saveDir string) *CLI {
	return &CLI{
		Engine:  eng,
		In:      os.Stdin,
		Out:     os.Stdout,
		SaveDir: saveDir,
	}
}

// Run starts the game loop. It shows the intro, describes the starting
// location, then loops: prompt, input, dispatch, output. Returns when the
// player quits or input runs out.
func (c *CLI) Run() {
	defs := c.Engine.Defs
	if defs.Game.Intro != "" {
		c.printLine(defs.Game.Intro)
		c.printLine("")
	}
	// Describe the opening location without consuming a turn.
	for _, line := range action.DescribeLocation(c.Engine.World) {
		c.printLine(line.Text)
	}

	if c.Recorder != nil {
		id, err := c.Recorder.BeginSession(defs.Game.Title)
		if err != nil {
			c.printSystem(fmt.Sprintf("Transcript disabled: %v", err))
			c.Recorder = nil
		} else {
			c.session = id
		}
	}

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		// Meta-commands start with '/'.
		if strings.HasPrefix(input, "/") {
			if c.handleMeta(input) {
				return // /quit
			}
			continue
		}

		// "again" / "g" repeats the last game command.
		lower := strings.ToLower(input)
		if lower == "again" || lower == "g" {
			if c.lastCmd == "" {
				c.printLine("Nothing to repeat.")
				continue
			}
			input = c.lastCmd
		} else {
			c.lastCmd = input
		}

		result := c.Engine.Step(input)
		c.printResult(result)

		if c.Trace {
			c.printTrace(result)
		}
		if c.Recorder != nil {
			if err := c.Recorder.RecordTurn(c.session, c.Engine.World.Moves(), input, result); err != nil {
				c.printSystem(fmt.Sprintf("Transcript write failed: %v", err))
				c.Recorder = nil
			}
		}

		if c.Engine.World.QuitPending() {
			return
		}
	}
}

// handleMeta dispatches meta-commands. Returns true if the game should exit.
func (c *CLI) handleMeta(input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/save":
		c.cmdSave(arg)

	case "/load":
		c.cmdLoad(arg)

	case "/help":
		c.cmdHelp()

	case "/state":
		c.cmdState()

	case "/trace":
		c.Trace = !c.Trace
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

func (c *CLI) cmdSave(name string) {
	if name == "" {
		name = "quicksave"
	}

	data, err := save.Save(c.Engine.World, c.Engine.Defs,
		c.Engine.RNG.Seed(), c.Engine.RNG.Position())
	if err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	if err := os.MkdirAll(c.SaveDir, 0o755); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	path := filepath.Join(c.SaveDir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	c.printSystem(fmt.Sprintf("Game saved to %s.", name))
}

func (c *CLI) cmdLoad(name string) {
	if name == "" {
		name = "quicksave"
	}

	path := filepath.Join(c.SaveDir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}

	sd, err := save.Load(data)
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}

	save.Apply(c.Engine.World, sd)
	c.Engine.RestoreRNG(sd.RNGSeed, sd.RNGPosition)
	c.printSystem(fmt.Sprintf("Game loaded from %s (turn %d).", name, c.Engine.World.Moves()))

	// Show the restored surroundings.
	for _, line := range action.DescribeLocation(c.Engine.World) {
		c.printLine(line.Text)
	}
}

func (c *CLI) cmdHelp() {
	help := []string{
		"System:",
		"  /save [name]  — Save game (default: quicksave)",
		"  /load [name]  — Load game (default: quicksave)",
		"  /quit         — Exit game",
		"  /help         — Show this help",
		"  /state        — Debug: dump current state",
		"  /trace        — Toggle debug trace output",
		"",
		"Game commands:",
		"  look (l)               — Describe the location",
		"  examine <thing> (x)    — Look closely at something",
		"  go <dir>               — Move (or just type n/s/e/w/u/d)",
		"  take/get <item>        — Pick something up",
		"  drop <item>            — Put something down",
		"  put <item> in <thing>  — Put an item in or on something",
		"  open / close           — Open or close something",
		"  wear / remove          — Put on or take off clothing",
		"  read <thing>           — Read an inscription",
		"  inventory (i)          — Check what you're carrying",
		"  wait (z)               — Let time pass",
		"  again (g)              — Repeat your last command",
	}
	for _, line := range help {
		c.printLine(line)
	}
}

func (c *CLI) cmdState() {
	w := c.Engine.World
	c.printSystem(fmt.Sprintf("Turn: %d", w.Moves()))
	c.printSystem(fmt.Sprintf("Score: %d", w.Score()))
	c.printSystem(fmt.Sprintf("Location: %s", w.PlayerLocation()))
	c.printSystem(fmt.Sprintf("Inventory: %v", w.Inventory()))
	if fuses := w.ActiveFuses(); len(fuses) > 0 {
		c.printSystem(fmt.Sprintf("Fuses: %v", fuses))
	}
	if daemons := w.ActiveDaemons(); len(daemons) > 0 {
		c.printSystem(fmt.Sprintf("Daemons: %v", daemons))
	}
}

func (c *CLI) printTrace(result types.Result) {
	if len(result.Changes) == 0 {
		return
	}
	c.printSystem(fmt.Sprintf("[trace] Changes: %d", len(result.Changes)))
	for _, ch := range result.Changes {
		c.printSystem(fmt.Sprintf("[trace]   %s.%s = %s", ch.Target, ch.Key, ch.New))
	}
}

func (c *CLI) printResult(result types.Result) {
	for _, line := range result.Lines {
		if line.Style == types.StyleSystem {
			c.printSystem(line.Text)
			continue
		}
		c.printLine(line.Text)
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
