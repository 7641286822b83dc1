package planner

import "math"

// neighborOffsets lists the 4-neighbourhood in row-major order (N, W, E, S),
// so iterating it in order and keeping strict improvements breaks ties by the
// lowest neighbour index.
var neighborOffsets = [4][2]int{{0, -1}, {-1, 0}, {1, 0}, {0, 1}}

// StateSpace is one goal-specific copy of the grid.
type StateSpace struct {
	rows, columns int

	cells   []State // front buffer, read by sweeps and accessors
	scratch []State // back buffer, written by sweeps
	changed []bool  // per-cell "g changed in the last sweep"

	agents []State
	placed []bool

	goal    Point
	hasGoal bool

	// settledCosts holds the transition costs the field was built with: set
	// by the first propagation after Declare or a goal repair, then by each
	// obstacle repair; nil until then.
	settledCosts []float64
	// fullSweep forces every non-goal cell to be re-evaluated on the next
	// propagation.
	fullSweep bool
	// frontier is a lower bound on any g value a further sweep can produce:
	// -Inf when unknown, +Inf at the fixed point.
	frontier float64
}

func newStateSpace(rows, columns int) *StateSpace {
	n := rows * columns
	sp := &StateSpace{
		rows:      rows,
		columns:   columns,
		cells:     make([]State, n),
		scratch:   make([]State, n),
		changed:   make([]bool, n),
		fullSweep: true,
		frontier:  math.Inf(-1),
	}
	for y := 0; y < rows; y++ {
		for x := 0; x < columns; x++ {
			sp.cells[y*columns+x] = NewState(x, y)
		}
	}
	return sp
}

func (sp *StateSpace) index(x, y int) int {
	return y*sp.columns + x
}

func (sp *StateSpace) inBounds(x, y int) bool {
	return x >= 0 && x < sp.columns && y >= 0 && y < sp.rows
}

func (sp *StateSpace) goalIndex() int {
	if !sp.hasGoal {
		return -1
	}
	return sp.index(sp.goal.X, sp.goal.Y)
}

// invalidate drops what the engine knows about the frontier after a mutation.
func (sp *StateSpace) invalidate() {
	sp.frontier = math.Inf(-1)
}

// bestNeighbor returns the cheapest way out of (x, y) toward the goal as
// seen in buf: min over reached neighbours n of g(n) + n.CostToReach.
func (sp *StateSpace) bestNeighbor(buf []State, x, y int) (best float64, px, py int, ok bool) {
	best = math.Inf(1)
	px, py = NoPredecessor, NoPredecessor
	for _, d := range neighborOffsets {
		nx, ny := x+d[0], y+d[1]
		if !sp.inBounds(nx, ny) {
			continue
		}
		n := buf[sp.index(nx, ny)]
		if !n.Reached() {
			continue
		}
		if c := n.G + n.CostToReach; c < best {
			best, px, py, ok = c, nx, ny, true
		}
	}
	return best, px, py, ok
}

// lowerPredecessor reports whether (px, py) has a lower row-major index than
// the current predecessor of c, or c has none.
func (sp *StateSpace) lowerPredecessor(c State, px, py int) bool {
	pred, ok := c.Predecessor()
	if !ok || !sp.inBounds(pred.X, pred.Y) {
		return true
	}
	return sp.index(px, py) < sp.index(pred.X, pred.Y)
}

// neighborChanged reports whether any neighbour of cell i changed in the last sweep.
func (sp *StateSpace) neighborChanged(i int) bool {
	x, y := i%sp.columns, i/sp.columns
	for _, d := range neighborOffsets {
		nx, ny := x+d[0], y+d[1]
		if sp.inBounds(nx, ny) && sp.changed[sp.index(nx, ny)] {
			return true
		}
	}
	return false
}

func (sp *StateSpace) pendingCount() int {
	n := 0
	for i := range sp.cells {
		if sp.cells[i].Inconsistent {
			n++
		}
	}
	return n
}

// seeds returns the positions of placed agents in index order.
func (sp *StateSpace) seeds() []Point {
	out := make([]Point, 0, len(sp.agents))
	for i, a := range sp.agents {
		if sp.placed[i] {
			out = append(out, Point{X: a.X, Y: a.Y})
		}
	}
	return out
}

// settle records the transition costs the current field was computed with.
func (sp *StateSpace) settle() {
	if len(sp.settledCosts) != len(sp.cells) {
		sp.settledCosts = make([]float64, len(sp.cells))
	}
	for i := range sp.cells {
		sp.settledCosts[i] = sp.cells[i].CostToReach
	}
}
