package main

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"grid-planner/planner"
)

var (
	errUnknownObstacle = errors.New("unknown obstacle")
	errBadPolygon      = errors.New("obstacle polygon needs an outer ring of at least 3 points")
)

// Obstacle is a polygon in grid coordinates (x to the right, y down, one unit
// per cell) that sets the transition cost of every cell whose centre it covers.
type Obstacle struct {
	ID      string      `json:"id"`
	Polygon orb.Polygon `json:"polygon"`
	Cost    float64     `json:"cost"`
}

func (o *Obstacle) validate() error {
	if len(o.Polygon) == 0 || len(o.Polygon[0]) < 3 {
		return fmt.Errorf("%w: %q", errBadPolygon, o.ID)
	}
	if math.IsNaN(o.Cost) || o.Cost < 0 {
		return fmt.Errorf("%w: obstacle %q cost %v", planner.ErrNegativeCost, o.ID, o.Cost)
	}
	return nil
}

// translate moves every ring of the polygon by (dx, dy) in place.
func (o *Obstacle) translate(dx, dy float64) {
	for _, ring := range o.Polygon {
		for i := range ring {
			ring[i][0] += dx
			ring[i][1] += dy
		}
	}
}

// ObstacleSet is the obstacle layer of one session. Obstacles are shared by
// every map of the session.
type ObstacleSet struct {
	byID        map[string]*Obstacle
	index       *SpatialIndex
	defaultCost float64
}

// NewObstacleSet creates an empty layer; cells no obstacle covers cost defaultCost.
func NewObstacleSet(defaultCost float64) *ObstacleSet {
	return &ObstacleSet{
		byID:        make(map[string]*Obstacle),
		index:       NewSpatialIndex(),
		defaultCost: defaultCost,
	}
}

// Len returns the number of obstacles.
func (set *ObstacleSet) Len() int {
	return len(set.byID)
}

// Get returns the obstacle with the given id.
func (set *ObstacleSet) Get(id string) (*Obstacle, bool) {
	o, ok := set.byID[id]
	return o, ok
}

// List returns the obstacles sorted by id.
func (set *ObstacleSet) List() []*Obstacle {
	out := make([]*Obstacle, 0, len(set.byID))
	for _, o := range set.byID {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Add inserts or replaces an obstacle and returns the region whose costs
// must be repainted.
func (set *ObstacleSet) Add(o *Obstacle) (orb.Bound, error) {
	if err := o.validate(); err != nil {
		return orb.Bound{}, err
	}
	dirty := o.Polygon.Bound()
	if old, ok := set.byID[o.ID]; ok {
		dirty = dirty.Union(old.Polygon.Bound())
	}
	set.byID[o.ID] = o
	set.index.Insert(o)
	return dirty, nil
}

// Remove deletes an obstacle and returns the region it covered.
func (set *ObstacleSet) Remove(id string) (orb.Bound, error) {
	o, ok := set.byID[id]
	if !ok {
		return orb.Bound{}, fmt.Errorf("%w: %q", errUnknownObstacle, id)
	}
	delete(set.byID, id)
	set.index.Remove(id)
	return o.Polygon.Bound(), nil
}

// Move translates an obstacle and returns the union of its old and new bounds.
func (set *ObstacleSet) Move(id string, dx, dy float64) (orb.Bound, error) {
	o, ok := set.byID[id]
	if !ok {
		return orb.Bound{}, fmt.Errorf("%w: %q", errUnknownObstacle, id)
	}
	before := o.Polygon.Bound()
	o.translate(dx, dy)
	set.index.Insert(o)
	return before.Union(o.Polygon.Bound()), nil
}

// CostAt returns the transition cost of the cell whose centre is p: the
// highest cost among obstacles covering p, or the default cost.
func (set *ObstacleSet) CostAt(p orb.Point) float64 {
	cost, covered := 0.0, false
	for _, o := range set.index.QueryPoint(p) {
		if planar.PolygonContains(o.Polygon, p) && (!covered || o.Cost > cost) {
			cost, covered = o.Cost, true
		}
	}
	if !covered {
		return set.defaultCost
	}
	return cost
}

// cellRange returns the inclusive range of cells whose centres lie in b,
// clipped to a rows×columns grid. ok is false when the range is empty.
func cellRange(b orb.Bound, rows, columns int) (x0, y0, x1, y1 int, ok bool) {
	x0 = max(int(math.Ceil(b.Min[0]-0.5)), 0)
	y0 = max(int(math.Ceil(b.Min[1]-0.5)), 0)
	x1 = min(int(math.Floor(b.Max[0]-0.5)), columns-1)
	y1 = min(int(math.Floor(b.Max[1]-0.5)), rows-1)
	return x0, y0, x1, y1, x0 <= x1 && y0 <= y1
}

// Paint writes the obstacle-layer cost of every cell in b into every map of
// s and returns the number of cells in the region. Goal and agent-start
// cells keep the cost they were placed with.
func (set *ObstacleSet) Paint(s *planner.Session, b orb.Bound) (int, error) {
	rows, columns, maps := s.Dims()
	x0, y0, x1, y1, ok := cellRange(b, rows, columns)
	if !ok {
		return 0, nil
	}
	pinned := make([]map[planner.Point]bool, maps)
	for m := range pinned {
		p, err := pinnedCells(s, m)
		if err != nil {
			return 0, err
		}
		pinned[m] = p
	}
	n := 0
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			cost := set.CostAt(orb.Point{float64(x) + 0.5, float64(y) + 0.5})
			for m := 0; m < maps; m++ {
				if pinned[m][planner.Point{X: x, Y: y}] {
					continue
				}
				if err := s.SetTransitionCost(x, y, cost, m); err != nil {
					return n, err
				}
			}
			n++
		}
	}
	return n, nil
}

// pinnedCells returns the goal and placed agent starts of map m.
func pinnedCells(s *planner.Session, m int) (map[planner.Point]bool, error) {
	pinned := make(map[planner.Point]bool)
	goal, ok, err := s.Goal(m)
	if err != nil {
		return nil, err
	}
	if ok {
		pinned[goal] = true
	}
	agents, err := s.Agents(m)
	if err != nil {
		return nil, err
	}
	for _, a := range agents {
		pinned[planner.Point{X: a.X, Y: a.Y}] = true
	}
	return pinned, nil
}
