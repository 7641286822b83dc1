package planner

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is the precondition-violation kind. Every more specific
// precondition error below wraps it.
var ErrInvalidArgument = errors.New("planner: invalid argument")

var (
	// ErrDimensions indicates non-positive rows, columns or map count, or a
	// grid larger than the session's cell limit.
	ErrDimensions = fmt.Errorf("%w: rows, columns and map count must be positive and within the cell limit", ErrInvalidArgument)
	// ErrNotDeclared indicates an operation before the first Declare.
	ErrNotDeclared = fmt.Errorf("%w: grid not declared", ErrInvalidArgument)
	// ErrMapIndex indicates a map index outside [0, maps).
	ErrMapIndex = fmt.Errorf("%w: map index out of range", ErrInvalidArgument)
	// ErrOutOfBounds indicates a position outside the grid.
	ErrOutOfBounds = fmt.Errorf("%w: position out of bounds", ErrInvalidArgument)
	// ErrNotReserved indicates agent placement before ReserveAgents.
	ErrNotReserved = fmt.Errorf("%w: agents not reserved for map", ErrInvalidArgument)
	// ErrAgentIndex indicates an agent index outside the reservation.
	ErrAgentIndex = fmt.Errorf("%w: agent index out of range", ErrInvalidArgument)
	// ErrNegativeCost indicates a negative or NaN transition cost.
	ErrNegativeCost = fmt.Errorf("%w: transition cost must be a non-negative number", ErrInvalidArgument)
	// ErrNoGoal indicates an operation that needs a goal on a map without one.
	ErrNoGoal = fmt.Errorf("%w: map has no goal", ErrInvalidArgument)
	// ErrUnknownMode indicates a mode outside the defined set.
	ErrUnknownMode = fmt.Errorf("%w: unknown propagation mode", ErrInvalidArgument)
	// ErrIterations indicates a negative iteration cap.
	ErrIterations = fmt.Errorf("%w: iteration cap must be non-negative", ErrInvalidArgument)
	// ErrSnapshot indicates a snapshot whose shape does not match its header.
	ErrSnapshot = fmt.Errorf("%w: malformed snapshot", ErrInvalidArgument)
)

// ErrNoPath indicates a cell that has no predecessor chain to the goal.
var ErrNoPath = errors.New("planner: no path to goal")
