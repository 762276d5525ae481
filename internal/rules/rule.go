// Package rules holds the closed set of cell transition rules. Each rule is a
// pure function of a neighborhood window, the center state and the timestep;
// rules are selected by their stable wire name.
package rules

import (
	"fmt"

	"automata/internal/core"
)

// ErrUnknownRule is returned by Lookup for names outside the registry.
var ErrUnknownRule = fmt.Errorf("%w: unknown rule", core.ErrInvalidInput)

// Rule identifies one transition rule.
type Rule uint8

const (
	Conway Rule = iota + 1
	HighLife
	DayAndNight
	Fredkin
	Seeds
	BriansBrain
	Rule30
	Rule110
)

var names = map[Rule]string{
	Conway:      "Conway",
	HighLife:    "HighLife",
	DayAndNight: "DayAndNight",
	Fredkin:     "Fredkin",
	Seeds:       "Seeds",
	BriansBrain: "BriansBrain",
	Rule30:      "Rule30",
	Rule110:     "Rule110",
}

var byName = func() map[string]Rule {
	m := make(map[string]Rule, len(names))
	for r, n := range names {
		m[n] = r
	}
	return m
}()

// All lists every rule in declaration order.
func All() []Rule {
	return []Rule{Conway, HighLife, DayAndNight, Fredkin, Seeds, BriansBrain, Rule30, Rule110}
}

// Lookup resolves a wire name to its rule.
func Lookup(name string) (Rule, error) {
	r, ok := byName[name]
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrUnknownRule, name)
	}
	return r, nil
}

// String returns the wire name.
func (r Rule) String() string {
	if n, ok := names[r]; ok {
		return n
	}
	return fmt.Sprintf("Rule(%d)", uint8(r))
}

// Valid reports whether r is a registered rule.
func (r Rule) Valid() bool {
	_, ok := names[r]
	return ok
}

// States returns the number of cell states the rule reads and writes.
func (r Rule) States() int {
	if r == BriansBrain {
		return 3
	}
	return 2
}

// Elementary reports whether r is a 1-D Wolfram rule over a 3-cell window.
func (r Rule) Elementary() bool {
	return r == Rule30 || r == Rule110
}

// StepInvariant reports whether the transition ignores the timestep, which
// makes its results safe to memoize on (window, center) alone. No current
// rule reads the step; a step-dependent rule must be left out of this list
// so the engine skips the memo for it.
func (r Rule) StepInvariant() bool {
	switch r {
	case Conway, HighLife, DayAndNight, Fredkin, Seeds, BriansBrain, Rule30, Rule110:
		return true
	}
	return false
}

// Next returns the next state of the center cell. window holds the full
// neighborhood in row-major order with the center cell at len(window)/2;
// step is the timestep being produced.
func (r Rule) Next(window []uint8, center uint8, step int) uint8 {
	switch r {
	case Conway, HighLife, DayAndNight, Fredkin, Seeds:
		return lifeLike[r].next(window, center)
	case BriansBrain:
		return brain(window, center)
	case Rule30:
		return wolfram(30, window)
	case Rule110:
		return wolfram(110, window)
	}
	panic(fmt.Sprintf("rules: unhandled rule %d", uint8(r)))
}

// liveNeighbors counts cells equal to state, excluding the center cell.
func liveNeighbors(window []uint8, center, state uint8) int {
	n := 0
	for _, v := range window {
		if v == state {
			n++
		}
	}
	if center == state {
		n--
	}
	return n
}
