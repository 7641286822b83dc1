package main

import (
	"fmt"
	"log/slog"

	"github.com/paulmach/orb"

	"grid-planner/planner"
)

// Workspace couples a planning session with its obstacle layer. Obstacle
// edits repaint the affected cells on every map and run the local repair.
type Workspace struct {
	Session   *planner.Session
	Obstacles *ObstacleSet
}

// NewWorkspace creates a workspace whose session uses opts.
func NewWorkspace(defaultCost float64, opts ...planner.Option) *Workspace {
	return &Workspace{
		Session:   planner.New(opts...),
		Obstacles: NewObstacleSet(defaultCost),
	}
}

// Declare (re)declares the grid and repaints every existing obstacle onto it.
func (w *Workspace) Declare(rows, columns, maps int) error {
	if err := w.Session.Declare(rows, columns, maps); err != nil {
		return err
	}
	for _, o := range w.Obstacles.List() {
		if _, err := w.Obstacles.Paint(w.Session, o.Polygon.Bound()); err != nil {
			return err
		}
	}
	return nil
}

// ObstacleChange reports what an obstacle edit touched.
type ObstacleChange struct {
	Painted  int   `json:"painted"`  // cells in the repainted region
	Affected []int `json:"affected"` // cells invalidated by the repair, per map
}

// AddObstacle inserts or replaces an obstacle.
func (w *Workspace) AddObstacle(o *Obstacle) (ObstacleChange, error) {
	dirty, err := w.Obstacles.Add(o)
	if err != nil {
		return ObstacleChange{}, err
	}
	return w.repaint(dirty)
}

// MoveObstacle translates an obstacle by (dx, dy) cells.
func (w *Workspace) MoveObstacle(id string, dx, dy float64) (ObstacleChange, error) {
	dirty, err := w.Obstacles.Move(id, dx, dy)
	if err != nil {
		return ObstacleChange{}, err
	}
	return w.repaint(dirty)
}

// RemoveObstacle deletes an obstacle; its cells fall back to the default cost.
func (w *Workspace) RemoveObstacle(id string) (ObstacleChange, error) {
	dirty, err := w.Obstacles.Remove(id)
	if err != nil {
		return ObstacleChange{}, err
	}
	return w.repaint(dirty)
}

func (w *Workspace) repaint(dirty orb.Bound) (ObstacleChange, error) {
	_, _, maps := w.Session.Dims()
	if maps == 0 {
		return ObstacleChange{}, nil
	}
	painted, err := w.Obstacles.Paint(w.Session, dirty)
	if err != nil {
		return ObstacleChange{}, err
	}
	change := ObstacleChange{Painted: painted, Affected: make([]int, maps)}
	for m := 0; m < maps; m++ {
		n, err := w.Session.RepairAfterObstacleMove(m)
		if err != nil {
			return change, fmt.Errorf("repair map %d: %w", m, err)
		}
		change.Affected[m] = n
	}
	return change, nil
}

// PropagateAll runs one propagation per map that has a goal and returns the
// results indexed by map; maps without a goal get a zero Result.
func (w *Workspace) PropagateAll(mode planner.Mode, maxIterations int, logger *slog.Logger) ([]planner.Result, error) {
	_, _, maps := w.Session.Dims()
	results := make([]planner.Result, maps)
	for m := 0; m < maps; m++ {
		if _, ok, _ := w.Session.Goal(m); !ok {
			logger.Debug("map has no goal, skipped", "map", m)
			continue
		}
		res, err := w.Session.Propagate(m, mode, maxIterations)
		if err != nil {
			return results, fmt.Errorf("propagate map %d: %w", m, err)
		}
		results[m] = res
	}
	return results, nil
}
