package planner

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// sweepStats aggregates one sweep across executor chunks.
type sweepStats struct {
	evaluated int
	changed   int
	pending   int
	frontier  float64 // min g among changed cells, +Inf if none
}

func (a *sweepStats) merge(b sweepStats) {
	a.evaluated += b.evaluated
	a.changed += b.changed
	a.pending += b.pending
	a.frontier = math.Min(a.frontier, b.frontier)
}

// Propagate relaxes the cost field of a map toward the goal until the
// stopping condition of mode holds or maxIterations sweeps have run
// (0 means no cap). Hitting the cap is not an error: the field is returned
// as is and Result.Reason tells so.
func (s *Session) Propagate(mapIndex int, mode Mode, maxIterations int) (Result, error) {
	sp, err := s.space(mapIndex)
	if err != nil {
		return Result{}, err
	}
	if !mode.Valid() {
		return Result{}, fmt.Errorf("%w: %d", ErrUnknownMode, int(mode))
	}
	if maxIterations < 0 {
		return Result{}, fmt.Errorf("%w: %d", ErrIterations, maxIterations)
	}
	if !sp.hasGoal {
		return Result{}, fmt.Errorf("%w: map %d", ErrNoGoal, mapIndex)
	}

	start := time.Now()
	res, err := s.propagate(sp, mode, sp.seeds(), maxIterations)
	if err != nil {
		return res, err
	}
	s.metrics.observePropagation(mapIndex, res, time.Since(start))

	if res.Reason == StopIterationCap {
		s.logger.Warn("propagation stopped at iteration cap",
			"map", mapIndex, "mode", mode.String(), "sweeps", res.Sweeps, "pending", res.Pending)
	} else {
		s.logger.Debug("propagation finished",
			"map", mapIndex, "mode", mode.String(), "sweeps", res.Sweeps,
			"relaxed", res.Relaxed, "reason", res.Reason.String())
	}
	return res, nil
}

// ComputeSubOptimal propagates until every agent of the map is reached.
func (s *Session) ComputeSubOptimal(mapIndex int) (Result, error) {
	return s.Propagate(mapIndex, ModeSubOptimal, 0)
}

// ComputeOptimal propagates over the whole map to the fixed point.
func (s *Session) ComputeOptimal(mapIndex int) (Result, error) {
	return s.Propagate(mapIndex, ModeOptimal, 0)
}

// ComputeMinIterations propagates until every agent is provably optimal.
func (s *Session) ComputeMinIterations(mapIndex int) (Result, error) {
	return s.Propagate(mapIndex, ModeMinIterations, 0)
}

// ComputeIterations runs at most iterations optimal-mode sweeps.
func (s *Session) ComputeIterations(iterations, mapIndex int) (Result, error) {
	return s.Propagate(mapIndex, ModeOptimal, iterations)
}

// propagate is the engine loop over one state space. agents are the seed
// cells the agent-driven modes wait for.
func (s *Session) propagate(sp *StateSpace, mode Mode, agents []Point, maxIterations int) (Result, error) {
	goalIdx := sp.goalIndex()
	g := &sp.cells[goalIdx]
	g.G, g.Inconsistent = 0, false
	g.PredX, g.PredY = NoPredecessor, NoPredecessor

	if sp.fullSweep {
		for i := range sp.cells {
			sp.cells[i].Inconsistent = i != goalIdx
		}
		sp.fullSweep = false
		sp.invalidate()
	}

	// Without agents there is nothing to wait for but the fixed point.
	effective := mode
	if len(agents) == 0 {
		effective = ModeOptimal
	}

	res := Result{Mode: mode}
	pending := sp.pendingCount()
	for {
		if pending == 0 {
			res.Reason = StopConverged
			sp.frontier = math.Inf(1)
			break
		}
		if done, reason := sp.agentsDone(effective, agents); done {
			res.Reason = reason
			break
		}
		if maxIterations > 0 && res.Sweeps >= maxIterations {
			res.Reason = StopIterationCap
			break
		}

		st, err := s.sweep(sp, goalIdx)
		if err != nil {
			return res, fmt.Errorf("planner: sweep %d: %w", res.Sweeps+1, err)
		}
		res.Sweeps++
		res.Evaluated += st.evaluated
		res.Relaxed += st.changed
		pending = st.pending
		sp.frontier = st.frontier
	}
	res.Pending = pending
	// Only a field built from scratch defines the baseline. Later cost
	// changes stay visible to RepairAfterObstacleMove, which settles itself.
	if sp.settledCosts == nil {
		sp.settle()
	}
	return res, nil
}

// agentsDone evaluates the agent-driven stopping conditions.
func (sp *StateSpace) agentsDone(mode Mode, agents []Point) (bool, StopReason) {
	switch mode {
	case ModeSubOptimal:
		for _, a := range agents {
			if !sp.cells[sp.index(a.X, a.Y)].Reached() {
				return false, 0
			}
		}
		return true, StopAgentsReached
	case ModeMinIterations:
		// With non-negative costs no later sweep can go below the smallest
		// value changed in the last one.
		for _, a := range agents {
			c := sp.cells[sp.index(a.X, a.Y)]
			if !c.Reached() || c.G > sp.frontier {
				return false, 0
			}
		}
		return true, StopAgentsOptimal
	}
	return false, 0
}

// sweep runs one Jacobi round: relax every inconsistent cell from the front
// buffer into the back buffer, then flag the neighbours of changed cells.
// Each phase writes only the indices of its own range, so both are race free.
func (s *Session) sweep(sp *StateSpace, goalIdx int) (sweepStats, error) {
	front, back := sp.cells, sp.scratch
	n := len(front)

	var mu sync.Mutex
	total := sweepStats{frontier: math.Inf(1)}

	err := s.exec.ForEach(n, func(lo, hi int) {
		local := sweepStats{frontier: math.Inf(1)}
		for i := lo; i < hi; i++ {
			cur := front[i]
			next := cur
			changed := false
			if cur.Inconsistent && i != goalIdx {
				local.evaluated++
				next.Inconsistent = false
				if best, px, py, ok := sp.bestNeighbor(front, cur.X, cur.Y); ok {
					switch {
					case !cur.Reached() || best < cur.G:
						next.G = best
						next.PredX, next.PredY = px, py
						changed = true
					case best == cur.G && front[sp.index(px, py)].CostToReach > 0 && sp.lowerPredecessor(cur, px, py):
						// Same value through a lower index: relink, g is unchanged.
						// Zero-cost ties keep their link so chains cannot loop.
						next.PredX, next.PredY = px, py
					}
				}
			}
			back[i] = next
			sp.changed[i] = changed
			if changed {
				local.changed++
				local.frontier = math.Min(local.frontier, next.G)
			}
		}
		mu.Lock()
		total.merge(local)
		mu.Unlock()
	})
	if err != nil {
		return total, err
	}

	err = s.exec.ForEach(n, func(lo, hi int) {
		pending := 0
		for i := lo; i < hi; i++ {
			if i == goalIdx {
				continue
			}
			if !back[i].Inconsistent && sp.neighborChanged(i) {
				back[i].Inconsistent = true
			}
			if back[i].Inconsistent {
				pending++
			}
		}
		mu.Lock()
		total.pending += pending
		mu.Unlock()
	})
	if err != nil {
		return total, err
	}

	sp.cells, sp.scratch = back, front
	return total, nil
}
