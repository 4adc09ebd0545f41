package loader

import (
	"fmt"
	"os"
	"strings"

	"github.com/nathoo/fablecore/engine/vocab"
	"github.com/nathoo/fablecore/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

// Known effect types.
var validEffectTypes = map[string]bool{
	"say":          true,
	"refuse":       true,
	"give_item":    true,
	"remove_item":  true,
	"move_item":    true,
	"move_player":  true,
	"set_flag":     true,
	"inc_counter":  true,
	"set_counter":  true,
	"set_prop":     true,
	"add_score":    true,
	"end_game":     true,
	"start_fuse":   true,
	"stop_fuse":    true,
	"start_daemon": true,
	"stop_daemon":  true,
}

// Known condition types.
var validConditionTypes = map[string]bool{
	"has_item":    true,
	"flag_set":    true,
	"flag_not":    true,
	"in_location": true,
	"prop_is":     true,
	"counter_gt":  true,
	"counter_lt":  true,
	"not":         true,
}

// validate checks a compiled game for referential integrity: every ID a
// rule, exit, condition, or effect mentions must name something defined.
func validate(g *Game) error {
	ve := &ValidationError{}
	defs := g.Defs

	if defs.Game.Title == "" {
		ve.Errors = append(ve.Errors, "Game.title is required")
	}
	if defs.Game.Start == "" {
		ve.Errors = append(ve.Errors, "Game.start is required")
	} else if _, ok := defs.Locations[defs.Game.Start]; !ok {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"start location %q not found in defined locations", defs.Game.Start))
	}

	for locID, loc := range defs.Locations {
		for dir, exit := range loc.Exits {
			if _, ok := defs.Locations[exit.Destination]; !ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"location %q exit %q points to undefined location %q",
					locID, dir, exit.Destination))
			}
		}
	}

	for itemID, item := range defs.Items {
		switch item.Parent.Kind {
		case types.ParentLocation:
			if _, ok := defs.Locations[item.Parent.ID]; !ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"item %q placed in undefined location %q", itemID, item.Parent.ID))
			}
		case types.ParentItem:
			if _, ok := defs.Items[item.Parent.ID]; !ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"item %q placed inside undefined item %q", itemID, item.Parent.ID))
			}
		}
	}

	// Dark escape directions must be real exits of their location.
	for locID, policy := range g.Dark {
		if policy.EscapeDirection == "" {
			continue
		}
		loc := defs.Locations[locID]
		if _, ok := loc.Exits[policy.EscapeDirection]; !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"location %q dark escape %q is not an exit",
				locID, policy.EscapeDirection))
		}
	}

	knownVerbs := map[string]bool{}
	for _, v := range vocab.StandardVerbs() {
		knownVerbs[v.ID] = true
	}
	for _, v := range g.Verbs {
		knownVerbs[v.ID] = true
	}

	fuseIDs := map[string]bool{}
	for _, td := range g.Fuses {
		if fuseIDs[td.ID] {
			ve.Errors = append(ve.Errors, fmt.Sprintf("duplicate fuse ID %q", td.ID))
		}
		fuseIDs[td.ID] = true
	}
	daemonIDs := map[string]bool{}
	for _, td := range g.Daemons {
		if daemonIDs[td.ID] {
			ve.Errors = append(ve.Errors, fmt.Sprintf("duplicate daemon ID %q", td.ID))
		}
		daemonIDs[td.ID] = true
	}

	ruleIDs := map[string]bool{}
	for _, rule := range g.Rules {
		if ruleIDs[rule.ID] {
			ve.Errors = append(ve.Errors, fmt.Sprintf("duplicate rule ID %q", rule.ID))
		}
		ruleIDs[rule.ID] = true

		if rule.When.Verb != "" && !knownVerbs[rule.When.Verb] {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"rule %q matches unrecognized verb %q", rule.ID, rule.When.Verb))
		}
		if rule.When.Item != "" {
			if _, ok := defs.Items[rule.When.Item]; !ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"rule %q matches undefined item %q", rule.ID, rule.When.Item))
			}
		}
		if rule.When.Location != "" {
			if _, ok := defs.Locations[rule.When.Location]; !ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"rule %q matches undefined location %q", rule.ID, rule.When.Location))
			}
		}
		validateConditions(rule.Conditions, g, ve)
		validateEffects(rule.Effects, g, fuseIDs, daemonIDs, ve)
	}

	for _, c := range g.Computed {
		switch c.Target.Kind {
		case types.KindLocation:
			if _, ok := defs.Locations[c.Target.ID]; !ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"dynamic property on undefined location %q", c.Target.ID))
			}
		case types.KindItem:
			if _, ok := defs.Items[c.Target.ID]; !ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"dynamic property on undefined item %q", c.Target.ID))
			}
		}
		if c.When != nil {
			validateConditions([]Condition{*c.When}, g, ve)
		}
		for _, tc := range c.Cases {
			validateConditions([]Condition{tc.When}, g, ve)
		}
	}

	for _, td := range append(append([]TimedDef{}, g.Fuses...), g.Daemons...) {
		validateEffects(td.Effects, g, fuseIDs, daemonIDs, ve)
	}

	for _, w := range ve.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateConditions(conditions []Condition, g *Game, ve *ValidationError) {
	for _, cond := range conditions {
		if !validConditionTypes[cond.Type] {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"unknown condition type %q", cond.Type))
			continue
		}

		switch cond.Type {
		case "has_item", "prop_is":
			if item, ok := cond.Params["item"].AsString(); ok {
				if _, defined := g.Defs.Items[item]; !defined {
					ve.Errors = append(ve.Errors, fmt.Sprintf(
						"condition %s references undefined item %q", cond.Type, item))
				}
			}
		case "in_location":
			if loc, ok := cond.Params["location"].AsString(); ok {
				if _, defined := g.Defs.Locations[loc]; !defined {
					ve.Errors = append(ve.Errors, fmt.Sprintf(
						"condition in_location references undefined location %q", loc))
				}
			}
		case "not":
			if cond.Inner != nil {
				validateConditions([]Condition{*cond.Inner}, g, ve)
			}
		}
	}
}

func validateEffects(effects []Effect, g *Game, fuseIDs, daemonIDs map[string]bool, ve *ValidationError) {
	for _, eff := range effects {
		if !validEffectTypes[eff.Type] {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"unknown effect type %q", eff.Type))
			continue
		}

		switch eff.Type {
		case "give_item", "remove_item", "set_prop":
			if item, ok := eff.Params["item"].AsString(); ok {
				if _, defined := g.Defs.Items[item]; !defined {
					ve.Errors = append(ve.Errors, fmt.Sprintf(
						"effect %s references undefined item %q", eff.Type, item))
				}
			}
		case "move_item":
			if item, ok := eff.Params["item"].AsString(); ok {
				if _, defined := g.Defs.Items[item]; !defined {
					ve.Errors = append(ve.Errors, fmt.Sprintf(
						"effect move_item references undefined item %q", item))
				}
			}
			if loc, ok := eff.Params["location"].AsString(); ok {
				if _, defined := g.Defs.Locations[loc]; !defined {
					ve.Errors = append(ve.Errors, fmt.Sprintf(
						"effect move_item references undefined location %q", loc))
				}
			}
		case "move_player":
			if loc, ok := eff.Params["location"].AsString(); ok {
				if _, defined := g.Defs.Locations[loc]; !defined {
					ve.Errors = append(ve.Errors, fmt.Sprintf(
						"effect move_player references undefined location %q", loc))
				}
			}
		case "start_fuse", "stop_fuse":
			if id, ok := eff.Params["id"].AsString(); ok && !fuseIDs[id] {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"effect %s references undefined fuse %q", eff.Type, id))
			}
		case "start_daemon", "stop_daemon":
			if id, ok := eff.Params["id"].AsString(); ok && !daemonIDs[id] {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"effect %s references undefined daemon %q", eff.Type, id))
			}
		}
	}
}
