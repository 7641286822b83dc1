package planner

import "fmt"

// RepairAfterGoalMove invalidates the whole cost field of a map: every cell
// except the current goal gets g = Unvisited, no predecessor and a clear
// flag. Transition costs are kept. The next Propagate re-evaluates every cell.
func (s *Session) RepairAfterGoalMove(mapIndex int) error {
	sp, err := s.space(mapIndex)
	if err != nil {
		return err
	}
	if !sp.hasGoal {
		return fmt.Errorf("%w: map %d", ErrNoGoal, mapIndex)
	}
	goalIdx := sp.goalIndex()
	for i := range sp.cells {
		c := &sp.cells[i]
		c.PredX, c.PredY = NoPredecessor, NoPredecessor
		c.Inconsistent = false
		if i == goalIdx {
			c.G = 0
			continue
		}
		c.G = Unvisited
	}
	sp.settledCosts = nil
	sp.fullSweep = true
	sp.invalidate()
	s.metrics.observeRepair("goal", len(sp.cells)-1)
	s.logger.Debug("goal repair", "map", mapIndex, "goal_x", sp.goal.X, "goal_y", sp.goal.Y)
	return nil
}

// MoveGoal relocates the goal of a map and invalidates its field. The old
// goal cell becomes an ordinary cell that keeps its transition cost.
func (s *Session) MoveGoal(x, y int, cost float64, mapIndex int) error {
	sp, err := s.space(mapIndex)
	if err != nil {
		return err
	}
	if _, err := s.cellIndex(sp, x, y); err != nil {
		return err
	}
	if err := checkCost(cost); err != nil {
		return err
	}
	if sp.hasGoal {
		old := sp.goalIndex()
		sp.cells[old] = initState(sp.goal.X, sp.goal.Y, Unvisited, sp.cells[old].CostToReach, false)
		sp.hasGoal = false
	}
	if err := s.PlaceGoal(x, y, cost, mapIndex); err != nil {
		return err
	}
	return s.RepairAfterGoalMove(mapIndex)
}

// RepairAfterObstacleMove prepares a converged map for incremental
// re-propagation after transition costs changed. Cells whose cost differs
// from the one the field was computed with are the changed region. Every
// cell whose predecessor chain enters the changed region is reset to
// Unvisited; reset cells, changed cells and their neighbours are flagged
// inconsistent. Everything else keeps its g. Returns the number of cells
// reset or flagged.
func (s *Session) RepairAfterObstacleMove(mapIndex int) (int, error) {
	sp, err := s.space(mapIndex)
	if err != nil {
		return 0, err
	}
	if sp.settledCosts == nil {
		// Nothing was computed yet; the next propagation is a full sweep.
		return 0, nil
	}

	goalIdx := sp.goalIndex()
	var changed []int
	for i := range sp.cells {
		if sp.cells[i].CostToReach != sp.settledCosts[i] {
			changed = append(changed, i)
		}
	}
	if len(changed) == 0 {
		return 0, nil
	}

	touched := make([]bool, len(sp.cells))
	affected := 0
	flag := func(i int) {
		if i == goalIdx || touched[i] {
			return
		}
		touched[i] = true
		sp.cells[i].Inconsistent = true
		affected++
	}

	// Breadth-first walk down the predecessor tree: the children of p are
	// the neighbours whose predecessor is p.
	queue := append([]int(nil), changed...)
	reset := make([]bool, len(sp.cells))
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		px, py := p%sp.columns, p/sp.columns
		for _, d := range neighborOffsets {
			qx, qy := px+d[0], py+d[1]
			if !sp.inBounds(qx, qy) {
				continue
			}
			q := sp.index(qx, qy)
			c := &sp.cells[q]
			if reset[q] || q == goalIdx || c.PredX != px || c.PredY != py {
				continue
			}
			reset[q] = true
			c.G = Unvisited
			c.PredX, c.PredY = NoPredecessor, NoPredecessor
			flag(q)
			queue = append(queue, q)
		}
	}

	for _, i := range changed {
		flag(i)
		x, y := i%sp.columns, i/sp.columns
		for _, d := range neighborOffsets {
			if nx, ny := x+d[0], y+d[1]; sp.inBounds(nx, ny) {
				flag(sp.index(nx, ny))
			}
		}
	}

	sp.settle()
	sp.invalidate()
	s.metrics.observeRepair("obstacle", affected)
	s.logger.Debug("obstacle repair", "map", mapIndex, "changed", len(changed), "affected", affected)
	return affected, nil
}
