// Package vocab holds the static word tables the parser matches against:
// verbs and their grammar patterns, directions, nouns, adjectives,
// prepositions, pronouns, and noise words. Tables are built once from item
// and verb definitions at startup.
package vocab

import (
	"sort"
	"strings"

	"github.com/nathoo/fablecore/types"
)

// SlotRole identifies what a grammar slot consumes.
type SlotRole int

const (
	SlotDirect SlotRole = iota
	SlotIndirect
	SlotDirection
	SlotPrep
)

// PropReader is the subset of world state an AllFilter may consult.
type PropReader interface {
	Prop(t types.Target, key string) types.Value
}

// Slot is one element of a grammar pattern. Prep is set only for SlotPrep.
// Multi marks object slots that accept "all"; AllFilter, when set, prunes
// the candidates "all" expands to.
type Slot struct {
	Role      SlotRole
	Prep      string
	Multi     bool
	AllFilter func(w PropReader, itemID string) bool
}

func Direct() Slot        { return Slot{Role: SlotDirect} }
func DirectMulti() Slot   { return Slot{Role: SlotDirect, Multi: true} }
func Indirect() Slot      { return Slot{Role: SlotIndirect} }
func Direction() Slot     { return Slot{Role: SlotDirection} }
func Prep(word string) Slot { return Slot{Role: SlotPrep, Prep: word} }

// DirectMultiWhere is a multi-object slot whose "all" expansion keeps
// only candidates the filter accepts.
func DirectMultiWhere(f func(PropReader, string) bool) Slot {
	return Slot{Role: SlotDirect, Multi: true, AllFilter: f}
}

// Pattern is an ordered slot sequence matched against the tokens after the
// verb. An empty pattern means the verb takes no arguments.
type Pattern []Slot

// Verb is a registered verb: its canonical ID, the words (possibly
// multi-token, e.g. "pick up") that invoke it, its grammar patterns in
// match order, and a human-readable expectation used in grammar failures.
type Verb struct {
	ID       string
	Words    []string
	Patterns []Pattern
	Expect   string
}

// Vocabulary is the compiled word table set.
type Vocabulary struct {
	verbWords  map[string]string // verb word (space-joined) -> verb ID
	verbs      map[string]*Verb
	directions map[string]string // word -> canonical direction
	nouns      map[string][]string
	adjectives map[string][]string
	preps      map[string]bool
	noise      map[string]bool
	pronouns   map[string]bool
	allWords   map[string]bool
}

// New creates a vocabulary preloaded with the fixed closed classes:
// directions, prepositions, noise words, pronouns, and "all" words.
func New() *Vocabulary {
	v := &Vocabulary{
		verbWords:  map[string]string{},
		verbs:      map[string]*Verb{},
		directions: map[string]string{},
		nouns:      map[string][]string{},
		adjectives: map[string][]string{},
		preps: map[string]bool{
			"on": true, "onto": true, "in": true, "into": true,
			"at": true, "to": true, "with": true, "from": true, "off": true,
		},
		noise: map[string]bool{
			"the": true, "a": true, "an": true, "some": true, "that": true,
		},
		pronouns: map[string]bool{"it": true, "them": true},
		allWords: map[string]bool{"all": true, "everything": true},
	}

	dirs := map[string][]string{
		"north":     {"north", "n"},
		"south":     {"south", "s"},
		"east":      {"east", "e"},
		"west":      {"west", "w"},
		"northeast": {"northeast", "ne"},
		"northwest": {"northwest", "nw"},
		"southeast": {"southeast", "se"},
		"southwest": {"southwest", "sw"},
		"up":        {"up", "u"},
		"down":      {"down", "d"},
	}
	for canonical, words := range dirs {
		for _, w := range words {
			v.directions[w] = canonical
		}
	}
	return v
}

// AddVerb registers a verb and its invoking words.
func (v *Vocabulary) AddVerb(verb *Verb) {
	v.verbs[verb.ID] = verb
	for _, w := range verb.Words {
		v.verbWords[strings.ToLower(w)] = verb.ID
	}
}

// AddItem indexes an item's nouns and adjectives. The display name's final
// word is indexed as a noun and its leading words as adjectives, alongside
// the explicit synonym and adjective lists.
func (v *Vocabulary) AddItem(def types.ItemDef) {
	nouns := append([]string(nil), def.Synonyms...)
	adjectives := append([]string(nil), def.Adjectives...)
	if words := strings.Fields(strings.ToLower(def.Name)); len(words) > 0 {
		nouns = append(nouns, words[len(words)-1])
		adjectives = append(adjectives, words[:len(words)-1]...)
	}
	for _, n := range nouns {
		v.indexWord(v.nouns, n, def.ID)
	}
	for _, a := range adjectives {
		v.indexWord(v.adjectives, a, def.ID)
	}
}

func (v *Vocabulary) indexWord(table map[string][]string, word, id string) {
	word = strings.ToLower(word)
	if word == "" {
		return
	}
	for _, existing := range table[word] {
		if existing == id {
			return
		}
	}
	table[word] = append(table[word], id)
	sort.Strings(table[word])
}

// MatchVerb consumes the longest verb word matching the leading tokens.
// Returns the verb and the number of tokens consumed.
func (v *Vocabulary) MatchVerb(tokens []string) (*Verb, int) {
	// Longest match first so "take off" wins over "take".
	for n := min(3, len(tokens)); n >= 1; n-- {
		joined := strings.Join(tokens[:n], " ")
		if id, ok := v.verbWords[joined]; ok {
			return v.verbs[id], n
		}
	}
	return nil, 0
}

// Verb returns a registered verb by ID.
func (v *Vocabulary) Verb(id string) (*Verb, bool) {
	verb, ok := v.verbs[id]
	return verb, ok
}

// Direction canonicalizes a direction word.
func (v *Vocabulary) Direction(word string) (string, bool) {
	d, ok := v.directions[word]
	return d, ok
}

func (v *Vocabulary) IsNoise(word string) bool      { return v.noise[word] }
func (v *Vocabulary) IsPronoun(word string) bool    { return v.pronouns[word] }
func (v *Vocabulary) IsAllWord(word string) bool    { return v.allWords[word] }
func (v *Vocabulary) IsPreposition(word string) bool { return v.preps[word] }

// ItemsForNoun returns the item IDs a noun word can refer to, sorted.
func (v *Vocabulary) ItemsForNoun(word string) []string { return v.nouns[word] }

// IsAdjective reports whether the word is a known adjective.
func (v *Vocabulary) IsAdjective(word string) bool { return len(v.adjectives[word]) > 0 }

// ItemHasAdjective reports whether the adjective word is indexed for the
// item.
func (v *Vocabulary) ItemHasAdjective(itemID, word string) bool {
	for _, id := range v.adjectives[word] {
		if id == itemID {
			return true
		}
	}
	return false
}

// Known reports whether a word appears anywhere in the vocabulary. The
// parser uses this to distinguish unknown words from known-but-unreachable
// nouns.
func (v *Vocabulary) Known(word string) bool {
	if _, ok := v.verbWords[word]; ok {
		return true
	}
	if _, ok := v.directions[word]; ok {
		return true
	}
	return len(v.nouns[word]) > 0 || len(v.adjectives[word]) > 0 ||
		v.preps[word] || v.noise[word] || v.pronouns[word] || v.allWords[word]
}
