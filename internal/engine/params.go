package engine

import (
	"fmt"

	"automata/internal/core"
	"automata/internal/rules"
)

// Neighborhood selects which cells within the radius feed a transition.
type Neighborhood uint8

const (
	// Moore includes diagonals: max(|dx|,|dy|) <= r.
	Moore Neighborhood = iota
	// VonNeumann excludes diagonals: |dx|+|dy| <= r.
	VonNeumann
)

// ParseNeighborhood maps a wire name to a Neighborhood. Unrecognized names
// fall back to Moore.
func ParseNeighborhood(s string) Neighborhood {
	switch s {
	case "VonNeumann", "von Neumann":
		return VonNeumann
	}
	return Moore
}

func (n Neighborhood) String() string {
	if n == VonNeumann {
		return "VonNeumann"
	}
	return "Moore"
}

// DefaultRadius is used when a caller leaves the radius unset.
const DefaultRadius = 1

// Params describes one simulation run. Values are immutable once built by
// NewParams; copy the struct to derive a variant.
type Params struct {
	Steps        int
	Rule         rules.Rule
	Radius       int
	Neighborhood Neighborhood
}

// NewParams validates and assembles simulation parameters. A zero radius
// selects DefaultRadius.
func NewParams(steps int, ruleID string, radius int, neighborhood string) (Params, error) {
	r, err := rules.Lookup(ruleID)
	if err != nil {
		return Params{}, err
	}
	if radius == 0 {
		radius = DefaultRadius
	}
	p := Params{
		Steps:        steps,
		Rule:         r,
		Radius:       radius,
		Neighborhood: ParseNeighborhood(neighborhood),
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// Validate checks the parameters without reference to a grid.
func (p Params) Validate() error {
	if !p.Rule.Valid() {
		return fmt.Errorf("%w %s", rules.ErrUnknownRule, p.Rule)
	}
	if p.Steps <= 0 {
		return fmt.Errorf("%w: steps must be positive, got %d", core.ErrInvalidInput, p.Steps)
	}
	if p.Radius <= 0 {
		return fmt.Errorf("%w: radius must be positive, got %d", core.ErrInvalidInput, p.Radius)
	}
	if p.Rule.Elementary() && p.Radius != 1 {
		return fmt.Errorf("%w: %s requires radius 1, got %d", core.ErrInvalidInput, p.Rule, p.Radius)
	}
	return nil
}

// Check validates the parameters against the grid they will evolve.
func (p Params) Check(shape core.Shape) error {
	if err := shape.Validate(); err != nil {
		return err
	}
	if p.Rule.Elementary() && shape.Dims() != 1 {
		return fmt.Errorf("%w: %s needs a 1-D grid, got shape %v", core.ErrInvalidInput, p.Rule, []int(shape))
	}
	span := 2*p.Radius + 1
	for _, d := range shape {
		if span > d {
			return fmt.Errorf("%w: radius %d needs every dimension >= %d, got shape %v",
				core.ErrInvalidInput, p.Radius, span, []int(shape))
		}
	}
	return nil
}
