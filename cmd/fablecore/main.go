// FableCore is a deterministic, data-driven runtime for interactive fiction.
// Usage: fablecore [--version] [--plain] [--script <file>] [--trace] [--seed <n>] [--config <file>] <game_directory>
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/nathoo/fablecore/cli"
	"github.com/nathoo/fablecore/config"
	"github.com/nathoo/fablecore/loader"
	"github.com/nathoo/fablecore/transcript"
	"github.com/nathoo/fablecore/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	plain := false
	trace := false
	var gameDir string
	var scriptFile string
	var configFile string
	var seedArg string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("fablecore %s (commit %s, built %s)\n", version, commit, date)
			return
		case "--plain":
			plain = true
		case "--trace":
			trace = true
		case "--script":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--script requires a file path\n")
				os.Exit(1)
			}
			i++
			scriptFile = args[i]
		case "--config":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--config requires a file path\n")
				os.Exit(1)
			}
			i++
			configFile = args[i]
		case "--seed":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--seed requires a number\n")
				os.Exit(1)
			}
			i++
			seedArg = args[i]
		default:
			if gameDir == "" {
				gameDir = args[i]
			}
		}
	}

	if gameDir == "" {
		fmt.Fprintf(os.Stderr, "Usage: fablecore [--version] [--plain] [--script <file>] [--trace] [--seed <n>] [--config <file>] <game_directory>\n")
		os.Exit(1)
	}

	if configFile == "" {
		configFile = config.DefaultPath()
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Plain {
		plain = true
	}

	seed := cfg.Seed
	if seedArg != "" {
		seed, err = strconv.ParseInt(seedArg, 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid seed %q: %v\n", seedArg, err)
			os.Exit(1)
		}
	}

	// Load and compile Lua game content.
	game, err := loader.Load(gameDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading game: %v\n", err)
		os.Exit(1)
	}

	eng, err := game.NewEngine()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building game: %v\n", err)
		os.Exit(1)
	}
	if seed != 0 {
		eng.RestoreRNG(seed, 0)
	}

	var store *transcript.Store
	if cfg.Transcript != "" {
		store, err = transcript.Open(cfg.Transcript)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: transcript disabled: %v\n", err)
		} else {
			defer store.Close()
		}
	}

	defs := eng.Defs

	// Script mode: open file, force plain, echo commands.
	if scriptFile != "" {
		f, err := os.Open(scriptFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening script: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		fmt.Printf("%s v%s by %s\n\n", defs.Game.Title, defs.Game.Version, defs.Game.Author)
		c := cli.New(eng, cfg.SaveDir)
		c.In = f
		c.EchoInput = true
		c.Trace = trace
		c.Recorder = store
		c.Run()
		return
	}

	// Use plain CLI if --plain flag or stdout is not a terminal.
	if plain || !isTerminal() {
		fmt.Printf("%s v%s by %s\n\n", defs.Game.Title, defs.Game.Version, defs.Game.Author)
		c := cli.New(eng, cfg.SaveDir)
		c.Trace = trace
		c.Recorder = store
		c.Run()
		return
	}

	if err := tui.Run(eng, cfg.SaveDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
