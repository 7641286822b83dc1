package planner

import "fmt"

// Path follows predecessor links from (x, y) to the goal and returns the
// visited positions, start and goal included. A cell that was never reached,
// or a broken or cyclic chain, yields ErrNoPath.
func (s *Session) Path(x, y, mapIndex int) ([]Point, error) {
	sp, err := s.space(mapIndex)
	if err != nil {
		return nil, err
	}
	i, err := s.cellIndex(sp, x, y)
	if err != nil {
		return nil, err
	}
	if !sp.hasGoal {
		return nil, fmt.Errorf("%w: map %d", ErrNoGoal, mapIndex)
	}

	goalIdx := sp.goalIndex()
	path := []Point{{X: x, Y: y}}
	for steps := 0; i != goalIdx; steps++ {
		c := sp.cells[i]
		if !c.Reached() {
			return nil, fmt.Errorf("%w: (%d,%d) not reached", ErrNoPath, c.X, c.Y)
		}
		pred, ok := c.Predecessor()
		if !ok || !sp.inBounds(pred.X, pred.Y) {
			return nil, fmt.Errorf("%w: chain broken at (%d,%d)", ErrNoPath, c.X, c.Y)
		}
		if steps >= len(sp.cells) {
			return nil, fmt.Errorf("%w: predecessor cycle from (%d,%d)", ErrNoPath, x, y)
		}
		path = append(path, pred)
		i = sp.index(pred.X, pred.Y)
	}
	return path, nil
}

// AgentPaths returns the path of every placed agent of a map; agents without
// a path get nil.
func (s *Session) AgentPaths(mapIndex int) ([][]Point, error) {
	agents, err := s.Agents(mapIndex)
	if err != nil {
		return nil, err
	}
	paths := make([][]Point, len(agents))
	for k, a := range agents {
		p, err := s.Path(a.X, a.Y, mapIndex)
		if err != nil {
			continue
		}
		paths[k] = p
	}
	return paths, nil
}
