package rules

const (
	stateDead  = 0
	stateOn    = 1
	stateDying = 2
)

// brain implements Brian's Brain: firing cells start dying, dying cells go
// dark, and a dead cell fires when exactly two neighbors are firing.
func brain(window []uint8, center uint8) uint8 {
	switch center {
	case stateOn:
		return stateDying
	case stateDying:
		return stateDead
	}
	if liveNeighbors(window, center, stateOn) == 2 {
		return stateOn
	}
	return stateDead
}
