package rules

// wolfram applies an elementary Wolfram code to a (left, center, right)
// window. The window value is read as a 3-bit index into the rule number.
func wolfram(rule uint8, window []uint8) uint8 {
	left, center, right := window[0], window[1], window[2]
	idx := (left << 2) | (center << 1) | right
	return (rule >> idx) & 1
}
