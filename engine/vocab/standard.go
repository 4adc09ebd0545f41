package vocab

import (
	"sort"

	"github.com/nathoo/fablecore/types"
)

// takeAllCandidate keeps "take all" to portable items not already held.
func takeAllCandidate(w PropReader, id string) bool {
	t := types.ItemTarget(id)
	if !w.Prop(t, types.PropTakable).IsTrue() {
		return false
	}
	return types.DecodeParent(w.Prop(t, types.PropParent)).Kind != types.ParentPlayer
}

// dropAllCandidate keeps "drop all" to what the player holds.
func dropAllCandidate(w PropReader, id string) bool {
	return types.DecodeParent(w.Prop(types.ItemTarget(id), types.PropParent)).Kind == types.ParentPlayer
}

// StandardVerbs returns the built-in verb set with grammar patterns. Game
// content may extend or override these through the loader.
func StandardVerbs() []*Verb {
	return []*Verb{
		{
			ID:    "go",
			Words: []string{"go", "walk", "run", "head", "proceed"},
			Patterns: []Pattern{
				{Direction()},
			},
			Expect: "Try: go <direction>.",
		},
		{
			ID:    "look",
			Words: []string{"look", "l"},
			Patterns: []Pattern{
				{},
			},
			Expect: "Try: look.",
		},
		{
			ID:    "examine",
			Words: []string{"examine", "x", "inspect", "look at", "study", "check"},
			Patterns: []Pattern{
				{Direct()},
			},
			Expect: "Try: examine <something>.",
		},
		{
			ID:    "take",
			Words: []string{"take", "get", "grab", "pick up"},
			Patterns: []Pattern{
				{DirectMultiWhere(takeAllCandidate)},
			},
			Expect: "Try: take <something>.",
		},
		{
			ID:    "drop",
			Words: []string{"drop", "discard", "put down"},
			Patterns: []Pattern{
				{DirectMultiWhere(dropAllCandidate), Prep("on"), Indirect()},
				{DirectMultiWhere(dropAllCandidate)},
			},
			Expect: "Try: drop <something>.",
		},
		{
			ID:    "put",
			Words: []string{"put", "hang", "place"},
			Patterns: []Pattern{
				{Direct(), Prep("on"), Indirect()},
				{Direct(), Prep("in"), Indirect()},
			},
			Expect: "Try: put <something> on <something>.",
		},
		{
			ID:    "inventory",
			Words: []string{"inventory", "inv", "i"},
			Patterns: []Pattern{
				{},
			},
			Expect: "Try: inventory.",
		},
		{
			ID:    "open",
			Words: []string{"open"},
			Patterns: []Pattern{
				{Direct()},
			},
			Expect: "Try: open <something>.",
		},
		{
			ID:    "close",
			Words: []string{"close", "shut"},
			Patterns: []Pattern{
				{Direct()},
			},
			Expect: "Try: close <something>.",
		},
		{
			ID:    "wear",
			Words: []string{"wear", "don", "put on"},
			Patterns: []Pattern{
				{Direct()},
			},
			Expect: "Try: wear <something>.",
		},
		{
			ID:    "remove",
			Words: []string{"remove", "doff", "take off"},
			Patterns: []Pattern{
				{Direct()},
			},
			Expect: "Try: remove <something>.",
		},
		{
			ID:    "read",
			Words: []string{"read"},
			Patterns: []Pattern{
				{Direct()},
			},
			Expect: "Try: read <something>.",
		},
		{
			ID:    "wait",
			Words: []string{"wait", "z"},
			Patterns: []Pattern{
				{},
			},
			Expect: "Try: wait.",
		},
		{
			ID:    "score",
			Words: []string{"score"},
			Patterns: []Pattern{
				{},
			},
			Expect: "Try: score.",
		},
		{
			ID:    "quit",
			Words: []string{"quit"},
			Patterns: []Pattern{
				{},
			},
			Expect: "Try: quit.",
		},
	}
}

// Build compiles a vocabulary from item definitions and a verb set.
func Build(items map[string]types.ItemDef, verbs []*Verb) *Vocabulary {
	v := New()
	for _, verb := range verbs {
		v.AddVerb(verb)
	}
	for _, id := range sortedIDs(items) {
		v.AddItem(items[id])
	}
	return v
}

func sortedIDs(items map[string]types.ItemDef) []string {
	out := make([]string, 0, len(items))
	for id := range items {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
