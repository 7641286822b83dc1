package planner_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grid-planner/planner"
)

func TestDeclare_FieldLengths(t *testing.T) {
	s := planner.New()
	require.NoError(t, s.Declare(3, 5, 2))

	rows, cols, maps := s.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 5, cols)
	assert.Equal(t, 2, maps)

	for m := 0; m < maps; m++ {
		g, err := s.CostField(m)
		require.NoError(t, err)
		assert.Len(t, g, 15)
		for _, v := range g {
			assert.Equal(t, planner.Unvisited, v)
		}

		costs, err := s.TransitionCostField(m)
		require.NoError(t, err)
		assert.Len(t, costs, 15)
		for _, v := range costs {
			assert.Equal(t, planner.DefaultCost, v)
		}
	}
}

func TestDeclare_RowMajor(t *testing.T) {
	s := planner.New()
	require.NoError(t, s.Declare(2, 3, 1))
	require.NoError(t, s.SetTransitionCost(2, 1, 7, 0))

	costs, err := s.TransitionCostField(0)
	require.NoError(t, err)
	assert.Equal(t, 7.0, costs[1*3+2])

	c, err := s.Cell(2, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, c.X)
	assert.Equal(t, 1, c.Y)
}

func TestDeclare_ReplacesMaps(t *testing.T) {
	s := planner.New()
	require.NoError(t, s.Declare(2, 2, 1))
	require.NoError(t, s.PlaceGoal(1, 1, 1, 0))
	require.NoError(t, s.ReserveAgents(2, 0))

	require.NoError(t, s.Declare(4, 4, 3))
	_, ok, err := s.Goal(0)
	require.NoError(t, err)
	assert.False(t, ok)
	n, err := s.AgentCapacity(0)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPreconditions(t *testing.T) {
	t.Run("NotDeclared", func(t *testing.T) {
		s := planner.New()
		_, err := s.CostField(0)
		assert.ErrorIs(t, err, planner.ErrNotDeclared)
		assert.ErrorIs(t, err, planner.ErrInvalidArgument)
	})

	s := planner.New()
	require.NoError(t, s.Declare(4, 4, 1))

	cases := []struct {
		name string
		call func() error
		err  error
	}{
		{"Dimensions", func() error { return s.Declare(0, 4, 1) }, planner.ErrDimensions},
		{"MapIndex", func() error { return s.PlaceGoal(0, 0, 1, 1) }, planner.ErrMapIndex},
		{"NegativeMapIndex", func() error { _, err := s.CostField(-1); return err }, planner.ErrMapIndex},
		{"OutOfBounds", func() error { return s.PlaceGoal(4, 0, 1, 0) }, planner.ErrOutOfBounds},
		{"NegativeCost", func() error { return s.SetTransitionCost(1, 1, -2, 0) }, planner.ErrNegativeCost},
		{"NaNCost", func() error { return s.SetCellValues(1, 1, 0, math.NaN(), false, 0) }, planner.ErrNegativeCost},
		{"NotReserved", func() error { return s.PlaceAgentStart(0, 0, 1, 0, 0) }, planner.ErrNotReserved},
		{"NoGoal", func() error { _, err := s.ComputeOptimal(0); return err }, planner.ErrNoGoal},
		{"NoGoalRepair", func() error { return s.RepairAfterGoalMove(0) }, planner.ErrNoGoal},
		{"UnknownMode", func() error { _, err := s.Propagate(0, planner.Mode(9), 0); return err }, planner.ErrUnknownMode},
		{"NegativeCap", func() error { _, err := s.Propagate(0, planner.ModeOptimal, -1); return err }, planner.ErrIterations},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call()
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.err)
			assert.True(t, errors.Is(err, planner.ErrInvalidArgument))
		})
	}
}

func TestSetCellValues_KeepsPredecessor(t *testing.T) {
	s := newScenario(t, 4, 4, planner.Point{X: 3, Y: 3}, planner.Point{X: 0, Y: 0})
	_, err := s.ComputeOptimal(0)
	require.NoError(t, err)

	before, err := s.Cell(1, 1, 0)
	require.NoError(t, err)
	require.NoError(t, s.SetCellValues(1, 1, 42, 3, true, 0))

	after, err := s.Cell(1, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 42.0, after.G)
	assert.Equal(t, 3.0, after.CostToReach)
	assert.True(t, after.Inconsistent)
	assert.Equal(t, before.PredX, after.PredX)
	assert.Equal(t, before.PredY, after.PredY)
}

func TestParseMode(t *testing.T) {
	cases := map[string]planner.Mode{
		"0":              planner.ModeSubOptimal,
		"suboptimal":     planner.ModeSubOptimal,
		"1":              planner.ModeOptimal,
		"":               planner.ModeOptimal,
		"Optimal":        planner.ModeOptimal,
		"2":              planner.ModeMinIterations,
		"min-iterations": planner.ModeMinIterations,
	}
	for in, want := range cases {
		got, err := planner.ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := planner.ParseMode("fastest")
	assert.ErrorIs(t, err, planner.ErrUnknownMode)
}

func TestDeclare_CellLimit(t *testing.T) {
	s := planner.New()
	assert.ErrorIs(t, s.Declare(math.MaxInt, 2, 1), planner.ErrDimensions)
	assert.ErrorIs(t, s.Declare(1<<20, 1<<20, 1), planner.ErrDimensions)
	assert.ErrorIs(t, s.Declare(2, 2, math.MaxInt), planner.ErrDimensions)

	small := planner.New(planner.WithMaxCells(100))
	require.NoError(t, small.Declare(10, 10, 1))
	assert.ErrorIs(t, small.Declare(10, 10, 2), planner.ErrDimensions)
	assert.ErrorIs(t, small.Declare(11, 10, 1), planner.ErrDimensions)

	rows, cols, maps := small.Dims()
	assert.Equal(t, []int{10, 10, 1}, []int{rows, cols, maps})
}
