package planner

import (
	"fmt"
	"strings"
)

// Sentinel g values and defaults of the cell model.
const (
	// Unvisited marks a cell not reached by propagation.
	Unvisited = -1.0
	// StartMarker marks an agent start that has not been evaluated yet.
	StartMarker = -3.0
	// DefaultCost is the transition cost of a freshly declared cell.
	DefaultCost = 1.0
	// NoPredecessor is the coordinate stored while a cell has no predecessor.
	NoPredecessor = -1
)

// Point is a cell position inside one map.
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// State is the planning record of a single grid cell.
type State struct {
	X            int     `json:"x"`
	Y            int     `json:"y"`
	G            float64 `json:"g"`           // cumulative cost to goal
	CostToReach  float64 `json:"costToReach"` // cost of entering this cell
	PredX        int     `json:"predx"`
	PredY        int     `json:"predy"`
	Inconsistent bool    `json:"inconsistent"`
}

// Reached reports whether propagation has assigned a finite cost to the cell.
func (s State) Reached() bool {
	return s.G >= 0
}

// Predecessor returns the predecessor position and whether one is set.
func (s State) Predecessor() (Point, bool) {
	if s.PredX == NoPredecessor && s.PredY == NoPredecessor {
		return Point{}, false
	}
	return Point{X: s.PredX, Y: s.PredY}, true
}

// Mode selects the convergence strategy of a propagation.
type Mode int

const (
	// ModeSubOptimal stops as soon as every agent start is reached.
	ModeSubOptimal Mode = iota
	// ModeOptimal runs to the global fixed point.
	ModeOptimal
	// ModeMinIterations stops once every agent start is provably optimal.
	ModeMinIterations
)

// String returns the mode name used in logs, metrics and config files.
func (m Mode) String() string {
	switch m {
	case ModeSubOptimal:
		return "suboptimal"
	case ModeOptimal:
		return "optimal"
	case ModeMinIterations:
		return "min-iterations"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	return m >= ModeSubOptimal && m <= ModeMinIterations
}

// ParseMode accepts a mode name or its numeric locality ("0", "1", "2").
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "suboptimal", "first", "0":
		return ModeSubOptimal, nil
	case "optimal", "exhaustive", "1", "":
		return ModeOptimal, nil
	case "min-iterations", "miniterations", "min", "2":
		return ModeMinIterations, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// StopReason tells why a propagation returned.
type StopReason int

const (
	// StopConverged means no cell is left inconsistent.
	StopConverged StopReason = iota
	// StopAgentsReached means every agent start has a finite cost (suboptimal mode).
	StopAgentsReached
	// StopAgentsOptimal means every agent start is provably optimal (min-iterations mode).
	StopAgentsOptimal
	// StopIterationCap means the sweep budget ran out first.
	StopIterationCap
)

func (r StopReason) String() string {
	switch r {
	case StopConverged:
		return "converged"
	case StopAgentsReached:
		return "agents-reached"
	case StopAgentsOptimal:
		return "agents-optimal"
	case StopIterationCap:
		return "iteration-cap"
	default:
		return "unknown"
	}
}

// MarshalText lets StopReason appear by name in JSON responses.
func (r StopReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Result summarizes one propagation call.
type Result struct {
	Mode      Mode       `json:"-"`
	Sweeps    int        `json:"sweeps"`
	Evaluated int        `json:"evaluated"` // cell evaluations over all sweeps
	Relaxed   int        `json:"relaxed"`   // cell updates over all sweeps
	Pending   int        `json:"pending"`   // cells still inconsistent on return
	Reason    StopReason `json:"reason"`
}

// Converged reports whether the field is at its fixed point.
func (r Result) Converged() bool {
	return r.Pending == 0
}
