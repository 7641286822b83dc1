package planner

import (
	"fmt"
	"io"
	"log/slog"
	"math"
)

// Session is the process-wide planning state: the declared grid dimensions
// and one StateSpace per goal.
type Session struct {
	rows, columns int
	spaces        []*StateSpace

	exec     Executor
	logger   *slog.Logger
	metrics  *Metrics
	maxCells int
}

// DefaultMaxCells bounds the cells of all maps of a session together.
const DefaultMaxCells = 1 << 22

// New creates an empty session. Declare must be called before any other operation.
func New(opts ...Option) *Session {
	s := &Session{
		exec:     ParallelExecutor{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxCells: DefaultMaxCells,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Declare discards all maps and allocates mapCount fresh rows×columns grids of
// default cells. Agent reservations and goals are dropped with the old maps.
func (s *Session) Declare(rows, columns, mapCount int) error {
	if err := checkDims(rows, columns, mapCount, s.maxCells); err != nil {
		return err
	}
	spaces := make([]*StateSpace, mapCount)
	for m := range spaces {
		spaces[m] = newStateSpace(rows, columns)
	}
	s.rows, s.columns, s.spaces = rows, columns, spaces
	s.logger.Debug("grid declared", "rows", rows, "columns", columns, "maps", mapCount)
	return nil
}

// checkDims rejects non-positive sizes and grids above limit cells. The
// products are compared through division so they cannot overflow.
func checkDims(rows, columns, maps, limit int) error {
	if rows <= 0 || columns <= 0 || maps <= 0 {
		return fmt.Errorf("%w: rows=%d columns=%d maps=%d", ErrDimensions, rows, columns, maps)
	}
	if rows > limit/columns || rows*columns > limit/maps {
		return fmt.Errorf("%w: %dx%d with %d maps exceeds %d cells", ErrDimensions, rows, columns, maps, limit)
	}
	return nil
}

// Dims returns the declared dimensions and map count (zeros before Declare).
func (s *Session) Dims() (rows, columns, maps int) {
	return s.rows, s.columns, len(s.spaces)
}

func (s *Session) space(mapIndex int) (*StateSpace, error) {
	if s.spaces == nil {
		return nil, ErrNotDeclared
	}
	if mapIndex < 0 || mapIndex >= len(s.spaces) {
		return nil, fmt.Errorf("%w: %d not in [0,%d)", ErrMapIndex, mapIndex, len(s.spaces))
	}
	return s.spaces[mapIndex], nil
}

func (s *Session) cellIndex(sp *StateSpace, x, y int) (int, error) {
	if !sp.inBounds(x, y) {
		return 0, fmt.Errorf("%w: (%d,%d) outside %dx%d", ErrOutOfBounds, x, y, sp.columns, sp.rows)
	}
	return sp.index(x, y), nil
}

func checkCost(cost float64) error {
	if math.IsNaN(cost) || cost < 0 {
		return fmt.Errorf("%w: %v", ErrNegativeCost, cost)
	}
	return nil
}

// PlaceGoal overwrites the cell at (x, y) with a goal cell. A map carries a
// single goal: placing another one moves the tracked goal and leaves the old
// cell as it is until RepairAfterGoalMove.
func (s *Session) PlaceGoal(x, y int, cost float64, mapIndex int) error {
	sp, err := s.space(mapIndex)
	if err != nil {
		return err
	}
	i, err := s.cellIndex(sp, x, y)
	if err != nil {
		return err
	}
	if err := checkCost(cost); err != nil {
		return err
	}
	if sp.hasGoal && (sp.goal.X != x || sp.goal.Y != y) {
		s.logger.Warn("goal replaced; a map supports a single goal",
			"map", mapIndex, "old_x", sp.goal.X, "old_y", sp.goal.Y, "x", x, "y", y)
	}
	sp.cells[i] = NewGoalState(x, y, cost)
	sp.goal, sp.hasGoal = Point{X: x, Y: y}, true
	sp.fullSweep = true
	sp.invalidate()
	return nil
}

// Goal returns the goal position of a map and whether one was placed.
func (s *Session) Goal(mapIndex int) (Point, bool, error) {
	sp, err := s.space(mapIndex)
	if err != nil {
		return Point{}, false, err
	}
	return sp.goal, sp.hasGoal, nil
}

// SetCellValues writes g, transition cost and the consistency flag of an
// existing cell. Predecessor links are left untouched.
func (s *Session) SetCellValues(x, y int, g, cost float64, inconsistent bool, mapIndex int) error {
	sp, err := s.space(mapIndex)
	if err != nil {
		return err
	}
	i, err := s.cellIndex(sp, x, y)
	if err != nil {
		return err
	}
	if err := checkCost(cost); err != nil {
		return err
	}
	c := &sp.cells[i]
	c.G = g
	c.CostToReach = cost
	c.Inconsistent = inconsistent
	sp.invalidate()
	return nil
}

// SetTransitionCost changes only the transition cost of a cell. The change is
// picked up by the next RepairAfterObstacleMove.
func (s *Session) SetTransitionCost(x, y int, cost float64, mapIndex int) error {
	sp, err := s.space(mapIndex)
	if err != nil {
		return err
	}
	i, err := s.cellIndex(sp, x, y)
	if err != nil {
		return err
	}
	if err := checkCost(cost); err != nil {
		return err
	}
	sp.cells[i].CostToReach = cost
	sp.invalidate()
	return nil
}

// Cell returns a copy of the cell at (x, y).
func (s *Session) Cell(x, y, mapIndex int) (State, error) {
	sp, err := s.space(mapIndex)
	if err != nil {
		return State{}, err
	}
	i, err := s.cellIndex(sp, x, y)
	if err != nil {
		return State{}, err
	}
	return sp.cells[i], nil
}

// CostField returns every cell's g value in row-major order.
func (s *Session) CostField(mapIndex int) ([]float64, error) {
	sp, err := s.space(mapIndex)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(sp.cells))
	for i := range sp.cells {
		out[i] = sp.cells[i].G
	}
	return out, nil
}

// TransitionCostField returns every cell's transition cost in row-major order.
func (s *Session) TransitionCostField(mapIndex int) ([]float64, error) {
	sp, err := s.space(mapIndex)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(sp.cells))
	for i := range sp.cells {
		out[i] = sp.cells[i].CostToReach
	}
	return out, nil
}
