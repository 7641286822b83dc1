package planner

import (
	"fmt"
	"math"
)

// SpaceSnapshot is the serializable state of one map.
type SpaceSnapshot struct {
	Cells        []State   `json:"cells"`
	Agents       []State   `json:"agents,omitempty"`
	Placed       []bool    `json:"placed,omitempty"`
	Reserved     bool      `json:"reserved"`
	Goal         *Point    `json:"goal,omitempty"`
	SettledCosts []float64 `json:"settledCosts,omitempty"`
	FullSweep    bool      `json:"fullSweep"`
}

// Snapshot is the serializable state of a whole session.
type Snapshot struct {
	Rows    int             `json:"rows"`
	Columns int             `json:"columns"`
	Maps    []SpaceSnapshot `json:"maps"`
}

// Snapshot deep-copies the session state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{Rows: s.rows, Columns: s.columns, Maps: make([]SpaceSnapshot, len(s.spaces))}
	for m, sp := range s.spaces {
		ms := SpaceSnapshot{
			Cells:     append([]State(nil), sp.cells...),
			Agents:    append([]State(nil), sp.agents...),
			Placed:    append([]bool(nil), sp.placed...),
			Reserved:  sp.agents != nil,
			FullSweep: sp.fullSweep,
		}
		if sp.hasGoal {
			g := sp.goal
			ms.Goal = &g
		}
		if sp.settledCosts != nil {
			ms.SettledCosts = append([]float64(nil), sp.settledCosts...)
		}
		snap.Maps[m] = ms
	}
	return snap
}

// Restore replaces the session state with snap after checking its shape.
func (s *Session) Restore(snap Snapshot) error {
	if err := checkDims(snap.Rows, snap.Columns, len(snap.Maps), s.maxCells); err != nil {
		return err
	}
	n := snap.Rows * snap.Columns
	spaces := make([]*StateSpace, len(snap.Maps))
	for m, ms := range snap.Maps {
		if len(ms.Cells) != n {
			return fmt.Errorf("%w: map %d has %d cells, want %d", ErrSnapshot, m, len(ms.Cells), n)
		}
		for i, c := range ms.Cells {
			if c.X != i%snap.Columns || c.Y != i/snap.Columns {
				return fmt.Errorf("%w: map %d cell %d claims position (%d,%d)", ErrSnapshot, m, i, c.X, c.Y)
			}
		}
		if len(ms.Placed) != len(ms.Agents) {
			return fmt.Errorf("%w: map %d agent flags do not match agents", ErrSnapshot, m)
		}
		for k, a := range ms.Agents {
			if ms.Placed[k] && (a.X < 0 || a.X >= snap.Columns || a.Y < 0 || a.Y >= snap.Rows) {
				return fmt.Errorf("%w: map %d agent %d at (%d,%d) out of bounds", ErrSnapshot, m, k, a.X, a.Y)
			}
		}
		if ms.SettledCosts != nil && len(ms.SettledCosts) != n {
			return fmt.Errorf("%w: map %d settled costs length %d", ErrSnapshot, m, len(ms.SettledCosts))
		}
		sp := &StateSpace{
			rows:      snap.Rows,
			columns:   snap.Columns,
			cells:     append([]State(nil), ms.Cells...),
			scratch:   make([]State, n),
			changed:   make([]bool, n),
			fullSweep: ms.FullSweep,
			frontier:  math.Inf(-1),
		}
		if ms.Reserved {
			sp.agents = append(make([]State, 0, len(ms.Agents)), ms.Agents...)
			sp.placed = append(make([]bool, 0, len(ms.Placed)), ms.Placed...)
		}
		if ms.Goal != nil {
			if !sp.inBounds(ms.Goal.X, ms.Goal.Y) {
				return fmt.Errorf("%w: map %d goal (%d,%d) out of bounds", ErrSnapshot, m, ms.Goal.X, ms.Goal.Y)
			}
			sp.goal, sp.hasGoal = *ms.Goal, true
		}
		if ms.SettledCosts != nil {
			sp.settledCosts = append([]float64(nil), ms.SettledCosts...)
		}
		spaces[m] = sp
	}
	s.rows, s.columns, s.spaces = snap.Rows, snap.Columns, spaces
	return nil
}
