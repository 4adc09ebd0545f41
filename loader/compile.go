package loader

import (
	"fmt"
	"strings"

	"github.com/nathoo/fablecore/engine/action"
	"github.com/nathoo/fablecore/engine/state"
	"github.com/nathoo/fablecore/engine/vocab"
	"github.com/nathoo/fablecore/types"
	lua "github.com/yuin/gopher-lua"
)

// Game is the compiled content: immutable definitions plus the
// declarative behavior that Bind wires into an engine.
type Game struct {
	Defs     *state.Defs
	Verbs    []*vocab.Verb
	Rules    []Rule
	Computed []Computed
	Dark     map[string]action.DarkPolicy
	Fuses    []TimedDef
	Daemons  []TimedDef
}

// Match selects the commands a rule applies to. Empty fields match
// anything.
type Match struct {
	Verb      string
	Item      string
	Location  string
	Direction string
}

// Rule is one declarative behavior override: when a matching command
// passes its conditions, its effects replace the default verb behavior.
type Rule struct {
	ID          string
	When        Match
	Conditions  []Condition
	Effects     []Effect
	SourceOrder int
}

// Condition is a compiled condition tree node.
type Condition struct {
	Type   string
	Params map[string]types.Value
	Inner  *Condition // for "not"
}

// Effect is one compiled effect. Texts carries message variants for
// "say"; the engine RNG picks one at run time.
type Effect struct {
	Type   string
	Params map[string]types.Value
	Texts  []string
}

// Computed is a declarative dynamic property: a flag derived from a
// condition, or a text chosen by the first matching case.
type Computed struct {
	Kind    string // "flag" or "text"
	Target  types.Target
	Prop    string
	When    *Condition // flag
	Cases   []TextCase // text
	Default string     // text
}

// TextCase is one branch of a computed text.
type TextCase struct {
	When Condition
	Text string
}

// TimedDef is a fuse or daemon declared in content. Turns applies to
// fuses, Every to daemons. Start registers it active at game start.
type TimedDef struct {
	ID      string
	Turns   int
	Every   int
	Start   bool
	Texts   []string
	Effects []Effect
}

// Raw collected tables, pre-compilation.
type rawLocation struct {
	id    string
	table *lua.LTable
}

type rawItem struct {
	id    string
	table *lua.LTable
}

type rawVerb struct {
	id    string
	table *lua.LTable
}

type rawRule struct {
	id         string
	when       *lua.LTable
	conditions *lua.LTable // may be nil
	then       *lua.LTable
	order      int
}

type rawComputed struct {
	kind  string
	table *lua.LTable
}

type rawTimed struct {
	id    string
	table *lua.LTable
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getBool returns a bool field, or the default if missing.
func getBool(tbl *lua.LTable, key string, def bool) bool {
	v := tbl.RawGetString(key)
	if b, ok := v.(lua.LBool); ok {
		return bool(b)
	}
	return def
}

// getInt returns an int field, or 0 if missing.
func getInt(tbl *lua.LTable, key string) int {
	v := tbl.RawGetString(key)
	if n, ok := v.(lua.LNumber); ok {
		return int(n)
	}
	return 0
}

// getTable returns a table field, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	v := tbl.RawGetString(key)
	if t, ok := v.(*lua.LTable); ok {
		return t
	}
	return nil
}

// toValue converts a Lua value to a typed property value. Arrays of
// strings become ID sets; numbers are truncated to ints.
func toValue(v lua.LValue) types.Value {
	switch val := v.(type) {
	case lua.LBool:
		return types.BoolValue(bool(val))
	case lua.LNumber:
		return types.IntValue(int(val))
	case lua.LString:
		return types.StringValue(string(val))
	case *lua.LTable:
		var ids []string
		for i := 1; i <= val.MaxN(); i++ {
			if s, ok := val.RawGetInt(i).(lua.LString); ok {
				ids = append(ids, string(s))
			}
		}
		return types.IDSetValue(ids...)
	default:
		return types.NoValue()
	}
}

// stringList converts an array-style Lua table to a string slice.
func stringList(tbl *lua.LTable) []string {
	if tbl == nil {
		return nil
	}
	var out []string
	for i := 1; i <= tbl.MaxN(); i++ {
		if s, ok := tbl.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}

// compile converts all collected Lua data into a Game.
func compile(coll *collector) (*Game, error) {
	game := &Game{
		Defs: &state.Defs{
			Locations: map[string]types.LocationDef{},
			Items:     map[string]types.ItemDef{},
		},
		Dark: map[string]action.DarkPolicy{},
	}

	if coll.game == nil {
		return nil, fmt.Errorf("no Game{} definition found")
	}
	game.Defs.Game = compileGame(coll.game)

	for _, raw := range coll.locations {
		loc, dark, err := compileLocation(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling location %s: %w", raw.id, err)
		}
		game.Defs.Locations[loc.ID] = loc
		if dark != nil {
			game.Dark[loc.ID] = *dark
		}
	}

	for _, raw := range coll.items {
		item, err := compileItem(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling item %s: %w", raw.id, err)
		}
		game.Defs.Items[item.ID] = item
	}

	for _, raw := range coll.verbs {
		verb, err := compileVerb(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling verb %s: %w", raw.id, err)
		}
		game.Verbs = append(game.Verbs, verb)
	}

	for _, raw := range coll.rules {
		rule, err := compileRule(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling rule %s: %w", raw.id, err)
		}
		game.Rules = append(game.Rules, rule)
	}

	for _, raw := range coll.computed {
		c, err := compileComputed(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling dynamic property: %w", err)
		}
		game.Computed = append(game.Computed, c)
	}

	for _, raw := range coll.fuses {
		td, err := compileTimed(raw, "fuse")
		if err != nil {
			return nil, fmt.Errorf("compiling fuse %s: %w", raw.id, err)
		}
		game.Fuses = append(game.Fuses, td)
	}
	for _, raw := range coll.daemons {
		td, err := compileTimed(raw, "daemon")
		if err != nil {
			return nil, fmt.Errorf("compiling daemon %s: %w", raw.id, err)
		}
		game.Daemons = append(game.Daemons, td)
	}

	return game, nil
}

func compileGame(tbl *lua.LTable) types.GameDef {
	return types.GameDef{
		Title:    getString(tbl, "title"),
		Author:   getString(tbl, "author"),
		Version:  getString(tbl, "version"),
		Start:    getString(tbl, "start"),
		Intro:    getString(tbl, "intro"),
		Capacity: getInt(tbl, "capacity"),
	}
}

// locationSpecial lists location fields that do not become properties.
var locationSpecial = map[string]bool{
	"name": true, "description": true, "exits": true, "dark": true,
}

func compileLocation(raw rawLocation) (types.LocationDef, *action.DarkPolicy, error) {
	tbl := raw.table
	loc := types.LocationDef{
		ID:          raw.id,
		Name:        getString(tbl, "name"),
		Description: getString(tbl, "description"),
		Exits:       map[string]types.ExitDef{},
	}

	if exits := getTable(tbl, "exits"); exits != nil {
		var badExit error
		exits.ForEach(func(k, v lua.LValue) {
			dir, ok := k.(lua.LString)
			if !ok {
				return
			}
			switch dest := v.(type) {
			case lua.LString:
				loc.Exits[string(dir)] = types.ExitDef{Destination: string(dest)}
			case *lua.LTable:
				loc.Exits[string(dir)] = types.ExitDef{
					Destination:    getString(dest, "to"),
					BlockedProp:    getString(dest, "blocked_when"),
					BlockedMessage: getString(dest, "blocked_message"),
				}
			default:
				badExit = fmt.Errorf("exit %q must be a location ID or a table", string(dir))
			}
		})
		if badExit != nil {
			return loc, nil, badExit
		}
	}

	// Remaining fields become location properties.
	tbl.ForEach(func(k, v lua.LValue) {
		if ks, ok := k.(lua.LString); ok && !locationSpecial[string(ks)] {
			if loc.Props == nil {
				loc.Props = map[string]types.Value{}
			}
			loc.Props[string(ks)] = toValue(v)
		}
	})

	var dark *action.DarkPolicy
	if darkTbl := getTable(tbl, "dark"); darkTbl != nil {
		p := action.DefaultDarkPolicy()
		if escape := getString(darkTbl, "escape"); escape != "" {
			p.EscapeDirection = escape
		}
		if msg := getString(darkTbl, "message"); msg != "" {
			p.Message = msg
		}
		if look := getString(darkTbl, "look"); look != "" {
			p.LookMessage = look
		}
		if counter := getString(darkTbl, "counter"); counter != "" {
			p.DisturbanceCounter = counter
		}
		if safe := stringList(getTable(darkTbl, "safe")); len(safe) > 0 {
			p.SafeVerbs = safe
		}
		dark = &p
	}

	return loc, dark, nil
}

// itemSpecial lists item fields that do not become properties.
var itemSpecial = map[string]bool{
	"name": true, "synonyms": true, "adjectives": true,
	"location": true, "inside": true, "carried": true, "size": true,
}

func compileItem(raw rawItem) (types.ItemDef, error) {
	tbl := raw.table
	item := types.ItemDef{
		ID:         raw.id,
		Name:       getString(tbl, "name"),
		Synonyms:   stringList(getTable(tbl, "synonyms")),
		Adjectives: stringList(getTable(tbl, "adjectives")),
		Size:       getInt(tbl, "size"),
		Parent:     types.Nowhere(),
	}

	switch {
	case getBool(tbl, "carried", false):
		item.Parent = types.HeldByPlayer()
	case getString(tbl, "location") != "":
		item.Parent = types.InLocation(getString(tbl, "location"))
	case getString(tbl, "inside") != "":
		item.Parent = types.InItem(getString(tbl, "inside"))
	}

	tbl.ForEach(func(k, v lua.LValue) {
		if ks, ok := k.(lua.LString); ok && !itemSpecial[string(ks)] {
			if item.Props == nil {
				item.Props = map[string]types.Value{}
			}
			item.Props[string(ks)] = toValue(v)
		}
	})

	return item, nil
}

func compileVerb(raw rawVerb) (*vocab.Verb, error) {
	tbl := raw.table
	verb := &vocab.Verb{
		ID:     raw.id,
		Words:  stringList(getTable(tbl, "words")),
		Expect: getString(tbl, "expect"),
	}
	if len(verb.Words) == 0 {
		verb.Words = []string{raw.id}
	}

	patterns := stringList(getTable(tbl, "patterns"))
	if len(patterns) == 0 {
		verb.Patterns = []vocab.Pattern{{}}
		return verb, nil
	}
	for _, spec := range patterns {
		p, err := parsePattern(spec)
		if err != nil {
			return nil, err
		}
		verb.Patterns = append(verb.Patterns, p)
	}
	return verb, nil
}

// parsePattern compiles a grammar spec like "direct on indirect": the
// words direct, multi, indirect, and direction are slots, anything else
// is a literal preposition.
func parsePattern(spec string) (vocab.Pattern, error) {
	var p vocab.Pattern
	for _, word := range strings.Fields(spec) {
		switch word {
		case "direct":
			p = append(p, vocab.Direct())
		case "multi":
			p = append(p, vocab.DirectMulti())
		case "indirect":
			p = append(p, vocab.Indirect())
		case "direction":
			p = append(p, vocab.Direction())
		default:
			p = append(p, vocab.Prep(word))
		}
	}
	return p, nil
}

func compileRule(raw rawRule) (Rule, error) {
	rule := Rule{
		ID: raw.id,
		When: Match{
			Verb:      getString(raw.when, "verb"),
			Item:      getString(raw.when, "item"),
			Location:  getString(raw.when, "location"),
			Direction: getString(raw.when, "direction"),
		},
		Effects:     compileEffects(raw.then),
		SourceOrder: raw.order,
	}
	if raw.conditions != nil {
		rule.Conditions = compileConditions(raw.conditions)
	}
	if rule.When.Verb == "" {
		return rule, fmt.Errorf("rule %s: When requires a verb", raw.id)
	}
	return rule, nil
}

func compileConditions(tbl *lua.LTable) []Condition {
	var out []Condition
	tbl.ForEach(func(k, v lua.LValue) {
		if _, ok := k.(lua.LNumber); !ok {
			return
		}
		if condTbl, ok := v.(*lua.LTable); ok {
			out = append(out, compileCondition(condTbl))
		}
	})
	return out
}

func compileCondition(tbl *lua.LTable) Condition {
	condType := getString(tbl, "type")

	if condType == "not" {
		if innerTbl := getTable(tbl, "inner"); innerTbl != nil {
			inner := compileCondition(innerTbl)
			return Condition{Type: "not", Inner: &inner}
		}
	}

	params := map[string]types.Value{}
	tbl.ForEach(func(k, v lua.LValue) {
		if ks, ok := k.(lua.LString); ok && string(ks) != "type" {
			params[string(ks)] = toValue(v)
		}
	})
	return Condition{Type: condType, Params: params}
}

func compileEffects(tbl *lua.LTable) []Effect {
	var out []Effect
	tbl.ForEach(func(k, v lua.LValue) {
		if _, ok := k.(lua.LNumber); !ok {
			return
		}
		if effTbl, ok := v.(*lua.LTable); ok {
			out = append(out, compileEffect(effTbl))
		}
	})
	return out
}

func compileEffect(tbl *lua.LTable) Effect {
	eff := Effect{
		Type:   getString(tbl, "type"),
		Params: map[string]types.Value{},
	}
	if texts := getTable(tbl, "texts"); texts != nil {
		eff.Texts = stringList(texts)
	}
	tbl.ForEach(func(k, v lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			key := string(ks)
			if key != "type" && key != "texts" {
				eff.Params[key] = toValue(v)
			}
		}
	})
	return eff
}

func compileComputed(raw rawComputed) (Computed, error) {
	tbl := raw.table
	c := Computed{Kind: raw.kind, Prop: getString(tbl, "prop")}

	switch {
	case getString(tbl, "location") != "":
		c.Target = types.LocationTarget(getString(tbl, "location"))
	case getString(tbl, "item") != "":
		c.Target = types.ItemTarget(getString(tbl, "item"))
	default:
		return c, fmt.Errorf("dynamic %s property needs a location or item", raw.kind)
	}
	if c.Prop == "" {
		return c, fmt.Errorf("dynamic property on %s needs a prop name", c.Target)
	}

	switch raw.kind {
	case "flag":
		when := getTable(tbl, "when")
		if when == nil {
			return c, fmt.Errorf("dynamic flag %s.%s needs a when condition", c.Target, c.Prop)
		}
		cond := compileCondition(when)
		c.When = &cond
	case "text":
		cases := getTable(tbl, "cases")
		if cases != nil {
			cases.ForEach(func(k, v lua.LValue) {
				if _, ok := k.(lua.LNumber); !ok {
					return
				}
				caseTbl, ok := v.(*lua.LTable)
				if !ok {
					return
				}
				when := getTable(caseTbl, "when")
				if when == nil {
					return
				}
				c.Cases = append(c.Cases, TextCase{
					When: compileCondition(when),
					Text: getString(caseTbl, "text"),
				})
			})
		}
		c.Default = getString(tbl, "default")
	}

	return c, nil
}

func compileTimed(raw rawTimed, kind string) (TimedDef, error) {
	tbl := raw.table
	td := TimedDef{
		ID:    raw.id,
		Turns: getInt(tbl, "turns"),
		Every: getInt(tbl, "every"),
		Start: getBool(tbl, "start", false),
		Texts: stringList(getTable(tbl, "text")),
	}
	if effects := getTable(tbl, "effects"); effects != nil {
		td.Effects = compileEffects(effects)
	}
	if kind == "fuse" && td.Turns <= 0 {
		return td, fmt.Errorf("fuse needs a positive turns count")
	}
	if kind == "daemon" && td.Every <= 0 {
		return td, fmt.Errorf("daemon needs a positive every cadence")
	}
	return td, nil
}
