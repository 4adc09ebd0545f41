package parser

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a parse failure. Each kind is a distinct value so
// callers and tests match on kind, never on message text.
type ErrorKind int

const (
	EmptyInput ErrorKind = iota
	UnknownVerb
	UnknownNoun
	ItemNotInScope
	ModifierMismatch
	Ambiguity
	AmbiguousPronounReference
	PronounNotSet
	PronounRefersToOutOfScopeItem
	BadGrammar
	InternalError
)

var kindNames = map[ErrorKind]string{
	EmptyInput:                    "emptyInput",
	UnknownVerb:                   "unknownVerb",
	UnknownNoun:                   "unknownNoun",
	ItemNotInScope:                "itemNotInScope",
	ModifierMismatch:              "modifierMismatch",
	Ambiguity:                     "ambiguity",
	AmbiguousPronounReference:     "ambiguousPronounReference",
	PronounNotSet:                 "pronounNotSet",
	PronounRefersToOutOfScopeItem: "pronounRefersToOutOfScopeItem",
	BadGrammar:                    "badGrammar",
	InternalError:                 "internalError",
}

func (k ErrorKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// ParseError is a typed, recoverable parse failure. Error() renders the
// player-facing line; the fields carry the structured detail.
type ParseError struct {
	Kind        ErrorKind
	Word        string   // offending word or noun phrase
	Candidates  []string // display names of tied candidates
	Expectation string   // what the grammar wanted, for BadGrammar
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case EmptyInput:
		return "I beg your pardon?"
	case UnknownVerb:
		return fmt.Sprintf("I don't know the verb %q.", e.Word)
	case UnknownNoun:
		return fmt.Sprintf("I don't know the word %q.", e.Word)
	case ItemNotInScope:
		return fmt.Sprintf("You can't see any %s here.", e.Word)
	case ModifierMismatch:
		return fmt.Sprintf("You can't see any %s here.", e.Word)
	case Ambiguity:
		return fmt.Sprintf("Which do you mean: %s?", orList(e.Candidates))
	case AmbiguousPronounReference:
		return fmt.Sprintf("Which do you mean by %q: %s?", e.Word, orList(e.Candidates))
	case PronounNotSet:
		return fmt.Sprintf("I'm not sure what %q refers to.", e.Word)
	case PronounRefersToOutOfScopeItem:
		return fmt.Sprintf("You can't see what %q refers to anymore.", e.Word)
	case BadGrammar:
		if e.Expectation != "" {
			return e.Expectation
		}
		return "I didn't understand that sentence."
	default:
		return "Something went wrong with that command."
	}
}

func orList(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return "the " + names[0]
	}
	withArticle := make([]string, len(names))
	for i, n := range names {
		withArticle[i] = "the " + n
	}
	return strings.Join(withArticle[:len(withArticle)-1], ", ") +
		" or " + withArticle[len(withArticle)-1]
}
