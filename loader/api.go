package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers all Lua constructors and helpers as globals.
func registerAPI(L *lua.LState, coll *collector) {
	registerConstructors(L, coll)
	registerConditionHelpers(L)
	registerEffectHelpers(L)
}

func registerConstructors(L *lua.LState, coll *collector) {
	// Game { title = "...", ... }
	L.SetGlobal("Game", L.NewFunction(func(L *lua.LState) int {
		coll.game = L.CheckTable(1)
		return 0
	}))

	// Location "id" { ... } — curried: Location("id") returns a function
	// that takes the definition table.
	L.SetGlobal("Location", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			coll.locations = append(coll.locations, rawLocation{id: id, table: L.CheckTable(1)})
			return 0
		}))
		return 1
	}))

	// Item "id" { ... } — curried.
	L.SetGlobal("Item", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			coll.items = append(coll.items, rawItem{id: id, table: L.CheckTable(1)})
			return 0
		}))
		return 1
	}))

	// Verb "id" { words = {...}, patterns = {...}, expect = "..." }
	L.SetGlobal("Verb", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			coll.verbs = append(coll.verbs, rawVerb{id: id, table: L.CheckTable(1)})
			return 0
		}))
		return 1
	}))

	// Rule("id", When{...}, conditions, Then{...}) — conditions optional:
	// the 3-arg form is Rule("id", When{...}, Then{...}).
	L.SetGlobal("Rule", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		when := L.CheckTable(2)

		var conditions, thenTbl *lua.LTable
		if L.Get(4) != lua.LNil {
			if t, ok := L.Get(3).(*lua.LTable); ok {
				conditions = t
			}
			thenTbl = L.CheckTable(4)
		} else {
			thenTbl = L.CheckTable(3)
		}

		coll.rules = append(coll.rules, rawRule{
			id:         id,
			when:       when,
			conditions: conditions,
			then:       thenTbl,
			order:      coll.nextSourceOrder(),
		})
		return 0
	}))

	// When { verb = "..." } — pass-through, returns the table.
	L.SetGlobal("When", L.NewFunction(func(L *lua.LState) int {
		L.Push(L.CheckTable(1))
		return 1
	}))

	// Then { effect1, effect2, ... } — pass-through, returns the table.
	L.SetGlobal("Then", L.NewFunction(func(L *lua.LState) int {
		L.Push(L.CheckTable(1))
		return 1
	}))

	// DynamicFlag { location = "bar", prop = "lit", when = ... }
	L.SetGlobal("DynamicFlag", L.NewFunction(func(L *lua.LState) int {
		coll.computed = append(coll.computed, rawComputed{kind: "flag", table: L.CheckTable(1)})
		return 0
	}))

	// DynamicText { item = "message", prop = "text", cases = {...}, default = "..." }
	L.SetGlobal("DynamicText", L.NewFunction(func(L *lua.LState) int {
		coll.computed = append(coll.computed, rawComputed{kind: "text", table: L.CheckTable(1)})
		return 0
	}))

	// Case(condition, "text") — one branch of a DynamicText.
	L.SetGlobal("Case", L.NewFunction(func(L *lua.LState) int {
		cond := L.CheckTable(1)
		text := L.CheckString(2)
		tbl := L.NewTable()
		tbl.RawSetString("when", cond)
		tbl.RawSetString("text", lua.LString(text))
		L.Push(tbl)
		return 1
	}))

	// Fuse "id" { turns = 3, start = true, text = {...}, effects = Then{...} }
	L.SetGlobal("Fuse", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			coll.fuses = append(coll.fuses, rawTimed{id: id, table: L.CheckTable(1)})
			return 0
		}))
		return 1
	}))

	// Daemon "id" { every = 2, start = true, text = {...}, effects = Then{...} }
	L.SetGlobal("Daemon", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			coll.daemons = append(coll.daemons, rawTimed{id: id, table: L.CheckTable(1)})
			return 0
		}))
		return 1
	}))
}

// marker builds the condition or effect table the compile pass expects.
func marker(L *lua.LState, typ string, fields map[string]lua.LValue) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("type", lua.LString(typ))
	for k, v := range fields {
		tbl.RawSetString(k, v)
	}
	return tbl
}

func registerConditionHelpers(L *lua.LState) {
	// HasItem("cloak") — the player carries the item, directly or inside
	// something they carry.
	L.SetGlobal("HasItem", L.NewFunction(func(L *lua.LState) int {
		L.Push(marker(L, "has_item", map[string]lua.LValue{
			"item": lua.LString(L.CheckString(1)),
		}))
		return 1
	}))

	// FlagSet("flag")
	L.SetGlobal("FlagSet", L.NewFunction(func(L *lua.LState) int {
		L.Push(marker(L, "flag_set", map[string]lua.LValue{
			"flag": lua.LString(L.CheckString(1)),
		}))
		return 1
	}))

	// FlagNot("flag")
	L.SetGlobal("FlagNot", L.NewFunction(func(L *lua.LState) int {
		L.Push(marker(L, "flag_not", map[string]lua.LValue{
			"flag": lua.LString(L.CheckString(1)),
		}))
		return 1
	}))

	// InLocation("bar") — the player is there.
	L.SetGlobal("InLocation", L.NewFunction(func(L *lua.LState) int {
		L.Push(marker(L, "in_location", map[string]lua.LValue{
			"location": lua.LString(L.CheckString(1)),
		}))
		return 1
	}))

	// PropIs("hook", "open", true)
	L.SetGlobal("PropIs", L.NewFunction(func(L *lua.LState) int {
		L.Push(marker(L, "prop_is", map[string]lua.LValue{
			"item":  lua.LString(L.CheckString(1)),
			"prop":  lua.LString(L.CheckString(2)),
			"value": L.Get(3),
		}))
		return 1
	}))

	// CounterGt("disturbed", 1)
	L.SetGlobal("CounterGt", L.NewFunction(func(L *lua.LState) int {
		L.Push(marker(L, "counter_gt", map[string]lua.LValue{
			"counter": lua.LString(L.CheckString(1)),
			"value":   L.CheckNumber(2),
		}))
		return 1
	}))

	// CounterLt("disturbed", 2)
	L.SetGlobal("CounterLt", L.NewFunction(func(L *lua.LState) int {
		L.Push(marker(L, "counter_lt", map[string]lua.LValue{
			"counter": lua.LString(L.CheckString(1)),
			"value":   L.CheckNumber(2),
		}))
		return 1
	}))

	// Not(condition)
	L.SetGlobal("Not", L.NewFunction(func(L *lua.LState) int {
		L.Push(marker(L, "not", map[string]lua.LValue{
			"inner": L.CheckTable(1),
		}))
		return 1
	}))
}

func registerEffectHelpers(L *lua.LState) {
	// Say("text", ...) — several arguments are variants; the engine RNG
	// picks one per firing.
	L.SetGlobal("Say", L.NewFunction(func(L *lua.LState) int {
		texts := L.NewTable()
		for i := 1; i <= L.GetTop(); i++ {
			texts.Append(lua.LString(L.CheckString(i)))
		}
		L.Push(marker(L, "say", map[string]lua.LValue{"texts": texts}))
		return 1
	}))

	// Refuse("text") — reject the command with no state change.
	L.SetGlobal("Refuse", L.NewFunction(func(L *lua.LState) int {
		L.Push(marker(L, "refuse", map[string]lua.LValue{
			"text": lua.LString(L.CheckString(1)),
		}))
		return 1
	}))

	// GiveItem("id") — move the item into the player's hands.
	L.SetGlobal("GiveItem", L.NewFunction(func(L *lua.LState) int {
		L.Push(marker(L, "give_item", map[string]lua.LValue{
			"item": lua.LString(L.CheckString(1)),
		}))
		return 1
	}))

	// RemoveItem("id") — move the item to nowhere.
	L.SetGlobal("RemoveItem", L.NewFunction(func(L *lua.LState) int {
		L.Push(marker(L, "remove_item", map[string]lua.LValue{
			"item": lua.LString(L.CheckString(1)),
		}))
		return 1
	}))

	// MoveItem("id", "location")
	L.SetGlobal("MoveItem", L.NewFunction(func(L *lua.LState) int {
		L.Push(marker(L, "move_item", map[string]lua.LValue{
			"item":     lua.LString(L.CheckString(1)),
			"location": lua.LString(L.CheckString(2)),
		}))
		return 1
	}))

	// MovePlayer("location")
	L.SetGlobal("MovePlayer", L.NewFunction(func(L *lua.LState) int {
		L.Push(marker(L, "move_player", map[string]lua.LValue{
			"location": lua.LString(L.CheckString(1)),
		}))
		return 1
	}))

	// SetFlag("flag", value)
	L.SetGlobal("SetFlag", L.NewFunction(func(L *lua.LState) int {
		L.Push(marker(L, "set_flag", map[string]lua.LValue{
			"flag":  lua.LString(L.CheckString(1)),
			"value": lua.LBool(L.CheckBool(2)),
		}))
		return 1
	}))

	// IncCounter("counter", amount)
	L.SetGlobal("IncCounter", L.NewFunction(func(L *lua.LState) int {
		L.Push(marker(L, "inc_counter", map[string]lua.LValue{
			"counter": lua.LString(L.CheckString(1)),
			"amount":  L.CheckNumber(2),
		}))
		return 1
	}))

	// SetCounter("counter", value)
	L.SetGlobal("SetCounter", L.NewFunction(func(L *lua.LState) int {
		L.Push(marker(L, "set_counter", map[string]lua.LValue{
			"counter": lua.LString(L.CheckString(1)),
			"value":   L.CheckNumber(2),
		}))
		return 1
	}))

	// SetProp("item", "prop", value)
	L.SetGlobal("SetProp", L.NewFunction(func(L *lua.LState) int {
		L.Push(marker(L, "set_prop", map[string]lua.LValue{
			"item":  lua.LString(L.CheckString(1)),
			"prop":  lua.LString(L.CheckString(2)),
			"value": L.Get(3),
		}))
		return 1
	}))

	// AddScore(2)
	L.SetGlobal("AddScore", L.NewFunction(func(L *lua.LState) int {
		L.Push(marker(L, "add_score", map[string]lua.LValue{
			"amount": L.CheckNumber(1),
		}))
		return 1
	}))

	// EndGame()
	L.SetGlobal("EndGame", L.NewFunction(func(L *lua.LState) int {
		L.Push(marker(L, "end_game", nil))
		return 1
	}))

	// StartFuse("id")
	L.SetGlobal("StartFuse", L.NewFunction(func(L *lua.LState) int {
		L.Push(marker(L, "start_fuse", map[string]lua.LValue{
			"id": lua.LString(L.CheckString(1)),
		}))
		return 1
	}))

	// StopFuse("id")
	L.SetGlobal("StopFuse", L.NewFunction(func(L *lua.LState) int {
		L.Push(marker(L, "stop_fuse", map[string]lua.LValue{
			"id": lua.LString(L.CheckString(1)),
		}))
		return 1
	}))

	// StartDaemon("id")
	L.SetGlobal("StartDaemon", L.NewFunction(func(L *lua.LState) int {
		L.Push(marker(L, "start_daemon", map[string]lua.LValue{
			"id": lua.LString(L.CheckString(1)),
		}))
		return 1
	}))

	// StopDaemon("id")
	L.SetGlobal("StopDaemon", L.NewFunction(func(L *lua.LState) int {
		L.Push(marker(L, "stop_daemon", map[string]lua.LValue{
			"id": lua.LString(L.CheckString(1)),
		}))
		return 1
	}))
}
