package core

import "errors"

// Error taxonomy shared by the codec, the rule registry and the evolution
// engine. Callers classify failures with errors.Is.
var (
	// ErrInvalidInput marks malformed parameters or grids rejected before any
	// simulation work starts.
	ErrInvalidInput = errors.New("invalid input")
	// ErrIntegrity marks a payload whose digest does not match its metadata.
	ErrIntegrity = errors.New("integrity check failed")
	// ErrMalformedShape marks a buffer that is inconsistent with its declared
	// shape and element type.
	ErrMalformedShape = errors.New("malformed shape")
	// ErrSimulation marks a failure inside an evolution run.
	ErrSimulation = errors.New("simulation failed")
	// ErrTimeout marks a responder that produced no response in time.
	ErrTimeout = errors.New("timeout")
)
