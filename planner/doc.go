// Package planner computes cost-to-goal fields on 2D grids and repairs them
// incrementally when obstacles or goals move.
//
// A Session owns a set of independent state spaces ("maps"), one per goal.
// Each map is a dense rows×columns array of cells carrying a cumulative
// cost-to-goal (G), the transition cost of entering the cell (CostToReach),
// a predecessor link toward the goal and an inconsistency flag.
//
// Typical sequence:
//
//	s := planner.New()
//	_ = s.Declare(rows, columns, maps)
//	_ = s.PlaceGoal(gx, gy, 1, 0)
//	_ = s.ReserveAgents(1, 0)
//	_ = s.PlaceAgentStart(ax, ay, 1, 0, 0)
//	res, _ := s.Propagate(0, planner.ModeOptimal, 0)
//	costs, _ := s.CostField(0)
//
// Propagation is a Jacobi value iteration: every sweep reads the previous
// buffer and writes the next one, so all cells of a sweep can be relaxed in
// parallel. The Executor decides how a sweep is spread across goroutines.
//
// Convergence modes:
//
//   - ModeSubOptimal: stop once every agent start has a finite cost.
//   - ModeOptimal: run until no cell changes (global fixed point).
//   - ModeMinIterations: stop at the first sweep where every agent start is
//     provably optimal.
//
// Repair:
//
//   - RepairAfterGoalMove invalidates the whole field except the goal.
//   - RepairAfterObstacleMove invalidates only cells whose path enters a cell
//     whose transition cost changed, and flags their neighbourhood.
//
// Concurrency: operations on different maps may run concurrently. Operations
// on the same map must be serialized by the caller. Declare and Restore must
// not run concurrently with anything else.
package planner
