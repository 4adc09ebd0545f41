package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nathoo/fablecore/types"
)

// writeGame lays out Lua content files in a temp dir and returns its path.
func writeGame(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	return dir
}

const minimalGame = `
Game {
	title = "Minimal",
	start = "hall",
}

Location "hall" {
	name = "Hall",
	description = "A grand hall.",
}
`

func TestLoad_MinimalGame(t *testing.T) {
	g, err := Load(writeGame(t, map[string]string{"game.lua": minimalGame}))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if g.Defs.Game.Title != "Minimal" {
		t.Errorf("Title = %q, want %q", g.Defs.Game.Title, "Minimal")
	}
	if g.Defs.Game.Start != "hall" {
		t.Errorf("Start = %q, want %q", g.Defs.Game.Start, "hall")
	}
	hall, ok := g.Defs.Locations["hall"]
	if !ok {
		t.Fatal("location 'hall' not found")
	}
	if hall.Description != "A grand hall." {
		t.Errorf("hall description = %q", hall.Description)
	}
}

func TestLoad_FullGame(t *testing.T) {
	g, err := Load(writeGame(t, map[string]string{"game.lua": `
Game {
	title = "Full",
	author = "Tester",
	start = "foyer",
	capacity = 3,
}

Location "foyer" {
	name = "Foyer",
	description = "A foyer.",
	exits = {
		south = "bar",
		north = { to = "street", blocked_when = "door_barred", blocked_message = "The door is barred." },
	},
	door_barred = true,
}

Location "street" {
	name = "Street",
	description = "Outside.",
}

Location "bar" {
	name = "Bar",
	description = "A dim bar.",
	dark = {
		escape = "north",
		counter = "disturbed",
		message = "Careful in the dark!",
	},
	exits = { north = "foyer" },
}

Item "cloak" {
	name = "velvet cloak",
	synonyms = { "cape" },
	carried = true,
	wearable = true,
	worn = true,
	takable = true,
}

Item "hook" {
	name = "brass hook",
	location = "foyer",
	surface = true,
	scenery = true,
}

Verb "hang" {
	words = { "hang" },
	patterns = { "direct on indirect" },
}

Rule("hang_cloak",
	When { verb = "hang", item = "cloak" },
	{ InLocation("foyer") },
	Then {
		Say("You hang it up."),
		MoveItem("cloak", "foyer"),
	})

DynamicFlag {
	location = "bar",
	prop = "lit",
	when = Not(HasItem("cloak")),
}

Fuse "alarm" {
	turns = 3,
	text = { "A bell rings." },
}

Daemon "draft" {
	every = 2,
	start = true,
	text = { "A cold draft blows through." },
}
`}))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if g.Defs.Game.Capacity != 3 {
		t.Errorf("Capacity = %d, want 3", g.Defs.Game.Capacity)
	}
	if len(g.Defs.Locations) != 3 {
		t.Errorf("expected 3 locations, got %d", len(g.Defs.Locations))
	}

	foyer := g.Defs.Locations["foyer"]
	if foyer.Exits["south"].Destination != "bar" {
		t.Errorf("foyer south exit = %q", foyer.Exits["south"].Destination)
	}
	north := foyer.Exits["north"]
	if north.Destination != "street" || north.BlockedProp != "door_barred" {
		t.Errorf("foyer north exit = %+v", north)
	}
	if !foyer.Props["door_barred"].IsTrue() {
		t.Error("foyer door_barred property not set")
	}

	cloak, ok := g.Defs.Items["cloak"]
	if !ok {
		t.Fatal("item 'cloak' not found")
	}
	if cloak.Parent != types.HeldByPlayer() {
		t.Errorf("cloak parent = %+v, want held by player", cloak.Parent)
	}
	if len(cloak.Synonyms) != 1 || cloak.Synonyms[0] != "cape" {
		t.Errorf("cloak synonyms = %v", cloak.Synonyms)
	}
	if !cloak.Props["worn"].IsTrue() {
		t.Error("cloak worn property not set")
	}

	hook := g.Defs.Items["hook"]
	if hook.Parent != types.InLocation("foyer") {
		t.Errorf("hook parent = %+v", hook.Parent)
	}

	if len(g.Verbs) != 1 || g.Verbs[0].ID != "hang" {
		t.Fatalf("verbs = %+v", g.Verbs)
	}
	if len(g.Verbs[0].Patterns) != 1 || len(g.Verbs[0].Patterns[0]) != 3 {
		t.Errorf("hang patterns = %+v", g.Verbs[0].Patterns)
	}

	if len(g.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(g.Rules))
	}
	rule := g.Rules[0]
	if rule.When.Verb != "hang" || rule.When.Item != "cloak" {
		t.Errorf("rule match = %+v", rule.When)
	}
	if len(rule.Conditions) != 1 || rule.Conditions[0].Type != "in_location" {
		t.Errorf("rule conditions = %+v", rule.Conditions)
	}
	if len(rule.Effects) != 2 || rule.Effects[0].Type != "say" || rule.Effects[1].Type != "move_item" {
		t.Errorf("rule effects = %+v", rule.Effects)
	}

	dark, ok := g.Dark["bar"]
	if !ok {
		t.Fatal("bar has no dark policy")
	}
	if dark.EscapeDirection != "north" {
		t.Errorf("dark escape = %q", dark.EscapeDirection)
	}
	if dark.Message != "Careful in the dark!" {
		t.Errorf("dark message = %q", dark.Message)
	}
	// Unspecified fields keep the defaults.
	if dark.LookMessage == "" {
		t.Error("dark look message should fall back to the default")
	}

	if len(g.Computed) != 1 {
		t.Fatalf("expected 1 computed property, got %d", len(g.Computed))
	}
	c := g.Computed[0]
	if c.Kind != "flag" || c.Target != types.LocationTarget("bar") || c.Prop != "lit" {
		t.Errorf("computed = %+v", c)
	}
	if c.When == nil || c.When.Type != "not" || c.When.Inner.Type != "has_item" {
		t.Errorf("computed condition = %+v", c.When)
	}

	if len(g.Fuses) != 1 || g.Fuses[0].Turns != 3 || g.Fuses[0].Start {
		t.Errorf("fuses = %+v", g.Fuses)
	}
	if len(g.Daemons) != 1 || g.Daemons[0].Every != 2 || !g.Daemons[0].Start {
		t.Errorf("daemons = %+v", g.Daemons)
	}
}

func TestLoad_MultipleFiles(t *testing.T) {
	g, err := Load(writeGame(t, map[string]string{
		"game.lua": `
Game { title = "Split", start = "hall" }
Location "hall" { name = "Hall", description = "A hall.", exits = { east = "annex" } }
`,
		"annex.lua": `
Location "annex" { name = "Annex", description = "An annex.", exits = { west = "hall" } }
Item "vase" { name = "china vase", location = "annex", takable = true }
`,
	}))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(g.Defs.Locations) != 2 {
		t.Errorf("expected 2 locations, got %d", len(g.Defs.Locations))
	}
	if _, ok := g.Defs.Items["vase"]; !ok {
		t.Error("item from second file not loaded")
	}
}

func TestLoad_MissingGameDefinition(t *testing.T) {
	_, err := Load(writeGame(t, map[string]string{"world.lua": `
Location "hall" { name = "Hall", description = "A hall." }
`}))
	if err == nil {
		t.Fatal("expected error for missing Game{}")
	}
	if !strings.Contains(err.Error(), "Game{}") {
		t.Errorf("error = %v, want mention of Game{}", err)
	}
}

func TestLoad_SyntaxErrorReported(t *testing.T) {
	_, err := Load(writeGame(t, map[string]string{"game.lua": `
Game { title = "Broken", start = "hall"
`}))
	if err == nil {
		t.Fatal("expected error for Lua syntax error")
	}
}

func TestLoad_SandboxBlocksFileAccess(t *testing.T) {
	_, err := Load(writeGame(t, map[string]string{"game.lua": `
Game { title = "Sneaky", start = "hall" }
Location "hall" { name = "Hall", description = "A hall." }
dofile("/etc/passwd")
`}))
	if err == nil {
		t.Fatal("expected error: dofile must not be available")
	}
}

func TestLoad_SandboxBlocksOSLibrary(t *testing.T) {
	_, err := Load(writeGame(t, map[string]string{"game.lua": `
Game { title = "Sneaky", start = "hall" }
Location "hall" { name = "Hall", description = "A hall." }
os.exit(1)
`}))
	if err == nil {
		t.Fatal("expected error: os library must not be available")
	}
}

func TestLoad_IgnoresNonLuaFiles(t *testing.T) {
	g, err := Load(writeGame(t, map[string]string{
		"game.lua":   minimalGame,
		"README.md":  "# not lua",
		"notes.txt":  "scribbles",
		"game.lua~":  "garbage ~ backup",
	}))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if g.Defs.Game.Title != "Minimal" {
		t.Errorf("Title = %q", g.Defs.Game.Title)
	}
}

func TestLoad_MissingDirectory(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "no_such_dir"))
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}
