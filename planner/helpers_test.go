package planner_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"grid-planner/planner"
)

// newScenario declares a rows×columns single map with a unit-cost goal at
// goal and one agent at start.
func newScenario(t *testing.T, rows, columns int, goal, start planner.Point, opts ...planner.Option) *planner.Session {
	t.Helper()
	s := planner.New(opts...)
	require.NoError(t, s.Declare(rows, columns, 1))
	require.NoError(t, s.PlaceGoal(goal.X, goal.Y, 1, 0))
	require.NoError(t, s.ReserveAgents(1, 0))
	require.NoError(t, s.PlaceAgentStart(start.X, start.Y, 1, 0, 0))
	return s
}

func cellG(t *testing.T, s *planner.Session, x, y int) float64 {
	t.Helper()
	c, err := s.Cell(x, y, 0)
	require.NoError(t, err)
	return c.G
}
