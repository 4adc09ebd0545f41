// Package parser turns a raw input line into an unambiguous Command. It
// tokenizes, matches verb grammar patterns, and resolves noun phrases
// against what is actually reachable, producing a typed ParseError when it
// cannot. Parsing never mutates world state.
package parser

import (
	"sort"
	"strings"
	"unicode"

	"github.com/nathoo/fablecore/engine/scope"
	"github.com/nathoo/fablecore/engine/state"
	"github.com/nathoo/fablecore/engine/vocab"
	"github.com/nathoo/fablecore/types"
)

// Parse resolves one input line against the vocabulary and the current
// world snapshot.
func Parse(input string, v *vocab.Vocabulary, w *state.World) (types.Command, error) {
	tokens := tokenize(input, v)
	if len(tokens) == 0 {
		return types.Command{}, &ParseError{Kind: EmptyInput}
	}

	cmd := types.Command{Raw: input}

	verb, consumed := v.MatchVerb(tokens)
	if verb == nil {
		// A bare direction implies "go".
		if dir, ok := v.Direction(tokens[0]); ok && len(tokens) == 1 {
			cmd.Verb = "go"
			cmd.Direction = dir
			return cmd, nil
		}
		return types.Command{}, &ParseError{Kind: UnknownVerb, Word: tokens[0]}
	}
	cmd.Verb = verb.ID
	rest := tokens[consumed:]

	match, ok := matchPatterns(verb, rest, v)
	if !ok {
		return types.Command{}, &ParseError{Kind: BadGrammar, Expectation: verb.Expect}
	}
	cmd.Direction = match.direction

	if match.direct != nil {
		ref, err := resolveSpan(match.direct, match.directSlot, v, w)
		if err != nil {
			return types.Command{}, err
		}
		cmd.Direct = ref
	}
	if match.indirect != nil {
		ref, err := resolveSpan(match.indirect, match.indirectSlot, v, w)
		if err != nil {
			return types.Command{}, err
		}
		cmd.Indirect = ref
	}

	return cmd, nil
}

// tokenize lowercases, splits on whitespace and punctuation, and drops
// noise words.
func tokenize(input string, v *vocab.Vocabulary) []string {
	fields := strings.FieldsFunc(strings.ToLower(input), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if !v.IsNoise(f) {
			out = append(out, f)
		}
	}
	return out
}

// patternMatch holds the token spans a grammar pattern assigned to each
// slot.
type patternMatch struct {
	direction    string
	direct       []string
	directSlot   vocab.Slot
	indirect     []string
	indirectSlot vocab.Slot
}

// matchPatterns tries the verb's patterns in order and returns the first
// structural fit.
func matchPatterns(verb *vocab.Verb, rest []string, v *vocab.Vocabulary) (patternMatch, bool) {
	for _, pattern := range verb.Patterns {
		if m, ok := matchPattern(pattern, rest, v); ok {
			return m, true
		}
	}
	return patternMatch{}, false
}

func matchPattern(pattern vocab.Pattern, rest []string, v *vocab.Vocabulary) (patternMatch, bool) {
	var m patternMatch
	tokens := rest

	for i := 0; i < len(pattern); i++ {
		slot := pattern[i]
		switch slot.Role {
		case vocab.SlotDirection:
			if len(tokens) != 1 {
				return m, false
			}
			dir, ok := v.Direction(tokens[0])
			if !ok {
				return m, false
			}
			m.direction = dir
			tokens = nil

		case vocab.SlotPrep:
			// Handled by the preceding object slot.
			return m, false

		case vocab.SlotDirect, vocab.SlotIndirect:
			span := tokens
			// If a preposition slot follows, split on its word.
			if i+1 < len(pattern) && pattern[i+1].Role == vocab.SlotPrep {
				idx := indexOf(tokens, pattern[i+1].Prep)
				if idx < 0 {
					return m, false
				}
				span = tokens[:idx]
				tokens = tokens[idx+1:]
				i++ // the preposition slot is consumed
			} else {
				tokens = nil
			}
			if len(span) == 0 {
				return m, false
			}
			if slot.Role == vocab.SlotDirect {
				m.direct = span
				m.directSlot = slot
			} else {
				m.indirect = span
				m.indirectSlot = slot
			}
		}
	}

	// A structural fit consumes every token.
	return m, len(tokens) == 0
}

func indexOf(tokens []string, word string) int {
	for i, t := range tokens {
		if t == word {
			return i
		}
	}
	return -1
}

// resolveSpan turns one object-slot token span into a resolved ObjectRef:
// pronouns against the pronoun table, "all" against the full in-scope set,
// ordinary noun phrases through candidate gathering, adjective filtering,
// and disambiguation.
func resolveSpan(span []string, slot vocab.Slot, v *vocab.Vocabulary, w *state.World) (*types.ObjectRef, error) {
	if len(span) == 1 && slot.Multi && v.IsAllWord(span[0]) {
		return resolveAll(w, slot), nil
	}
	if len(span) == 1 && v.IsPronoun(span[0]) {
		return resolvePronoun(span[0], w)
	}

	noun := span[len(span)-1]
	adjectives := span[:len(span)-1]

	known := v.ItemsForNoun(noun)
	if len(known) == 0 {
		if !v.Known(noun) {
			return nil, &ParseError{Kind: UnknownNoun, Word: noun}
		}
		return nil, &ParseError{Kind: ItemNotInScope, Word: noun}
	}

	var candidates []string
	for _, id := range known {
		if scope.Contains(w, id) {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return nil, &ParseError{Kind: ItemNotInScope, Word: noun}
	}

	for _, adj := range adjectives {
		if !v.Known(adj) {
			return nil, &ParseError{Kind: UnknownNoun, Word: adj}
		}
		var kept []string
		for _, id := range candidates {
			if v.ItemHasAdjective(id, adj) {
				kept = append(kept, id)
			}
		}
		candidates = kept
		if len(candidates) == 0 {
			return nil, &ParseError{Kind: ModifierMismatch, Word: strings.Join(span, " ")}
		}
	}

	if len(candidates) > 1 {
		return nil, &ParseError{
			Kind:       Ambiguity,
			Word:       noun,
			Candidates: displayNames(w, candidates),
		}
	}

	return &types.ObjectRef{
		Noun:       noun,
		Adjectives: adjectives,
		Items:      candidates,
	}, nil
}

// resolveAll gathers every in-scope item except scenery and globally
// visible backdrops, then applies the slot's filter; anything that
// survives and still can't be acted on gets a per-item refusal from the
// action pipeline.
func resolveAll(w *state.World, slot vocab.Slot) *types.ObjectRef {
	var items []string
	for _, id := range scope.InScope(w) {
		t := types.ItemTarget(id)
		if w.Prop(t, types.PropScenery).IsTrue() || w.Prop(t, types.PropGlobal).IsTrue() {
			continue
		}
		if slot.AllFilter != nil && !slot.AllFilter(w, id) {
			continue
		}
		items = append(items, id)
	}
	return &types.ObjectRef{Noun: "all", Items: items, All: true}
}

func resolvePronoun(word string, w *state.World) (*types.ObjectRef, error) {
	referents := w.Pronoun(word)
	if len(referents) == 0 {
		return nil, &ParseError{Kind: PronounNotSet, Word: word}
	}
	var inScope []string
	for _, id := range referents {
		if scope.Contains(w, id) {
			inScope = append(inScope, id)
		}
	}
	switch len(inScope) {
	case 0:
		return nil, &ParseError{Kind: PronounRefersToOutOfScopeItem, Word: word}
	case 1:
		return &types.ObjectRef{Noun: word, Items: inScope}, nil
	default:
		return nil, &ParseError{
			Kind:       AmbiguousPronounReference,
			Word:       word,
			Candidates: displayNames(w, inScope),
		}
	}
}

func displayNames(w *state.World, ids []string) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if def, ok := w.Defs().Items[id]; ok && def.Name != "" {
			names = append(names, def.Name)
		} else {
			names = append(names, id)
		}
	}
	sort.Strings(names)
	return names
}
