package rules

// birthSurvive describes a two-state totalistic rule by the live-neighbor
// counts that give birth to a dead cell and keep a live cell alive.
type birthSurvive struct {
	birth   uint64
	survive uint64
}

func counts(ns ...int) uint64 {
	var m uint64
	for _, n := range ns {
		m |= 1 << n
	}
	return m
}

func (bs birthSurvive) next(window []uint8, center uint8) uint8 {
	n := liveNeighbors(window, center, 1)
	mask := bs.birth
	if center == 1 {
		mask = bs.survive
	}
	if n < 64 && mask&(1<<n) != 0 {
		return 1
	}
	return 0
}

// lifeLike covers Conway's Game of Life and its birth/survival variants.
var lifeLike = map[Rule]birthSurvive{
	Conway:      {birth: counts(3), survive: counts(2, 3)},
	HighLife:    {birth: counts(3, 6), survive: counts(2, 3)},
	DayAndNight: {birth: counts(3, 6, 7, 8), survive: counts(2, 3)},
	Fredkin:     {birth: counts(1), survive: counts(2)},
	Seeds:       {birth: counts(2)},
}
