package planner

// NewState returns a default cell: unvisited, unit transition cost, no
// predecessor, consistent.
func NewState(x, y int) State {
	return initState(x, y, Unvisited, DefaultCost, false)
}

// NewGoalState returns a goal cell with g = 0 and the given entry cost.
func NewGoalState(x, y int, cost float64) State {
	return initState(x, y, 0, cost, false)
}

// NewStartState returns an agent start cell carrying the start marker.
func NewStartState(x, y int, cost float64) State {
	return initState(x, y, StartMarker, cost, false)
}

func initState(x, y int, g, cost float64, inconsistent bool) State {
	return State{
		X:            x,
		Y:            y,
		G:            g,
		CostToReach:  cost,
		PredX:        NoPredecessor,
		PredY:        NoPredecessor,
		Inconsistent: inconsistent,
	}
}
