package planner

import "fmt"

// ReserveAgents allocates room for count agents on a map. A second call for
// the same map replaces the reservation: previously placed agents are
// forgotten and the count restarts at the new value. Grid cells written by
// earlier PlaceAgentStart calls keep their values.
func (s *Session) ReserveAgents(count, mapIndex int) error {
	sp, err := s.space(mapIndex)
	if err != nil {
		return err
	}
	if count < 0 {
		return fmt.Errorf("%w: negative agent count %d", ErrInvalidArgument, count)
	}
	if sp.agents != nil {
		s.logger.Debug("agent reservation replaced", "map", mapIndex, "old", len(sp.agents), "new", count)
	}
	sp.agents = make([]State, count)
	sp.placed = make([]bool, count)
	return nil
}

// AgentCapacity returns the current reservation of a map (0 if none).
func (s *Session) AgentCapacity(mapIndex int) (int, error) {
	sp, err := s.space(mapIndex)
	if err != nil {
		return 0, err
	}
	return len(sp.agents), nil
}

// PlaceAgentStart writes a start cell at (x, y) and records it as agent
// agentIndex of the map.
func (s *Session) PlaceAgentStart(x, y int, cost float64, agentIndex, mapIndex int) error {
	sp, err := s.space(mapIndex)
	if err != nil {
		return err
	}
	if sp.agents == nil {
		return fmt.Errorf("%w: map %d", ErrNotReserved, mapIndex)
	}
	if agentIndex < 0 || agentIndex >= len(sp.agents) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrAgentIndex, agentIndex, len(sp.agents))
	}
	i, err := s.cellIndex(sp, x, y)
	if err != nil {
		return err
	}
	if err := checkCost(cost); err != nil {
		return err
	}
	start := NewStartState(x, y, cost)
	sp.cells[i] = start
	sp.agents[agentIndex] = start
	sp.placed[agentIndex] = true
	sp.fullSweep = true
	sp.invalidate()
	return nil
}

// Agents returns the placed agents of a map in index order, each with the g
// value currently held by its grid cell.
func (s *Session) Agents(mapIndex int) ([]State, error) {
	sp, err := s.space(mapIndex)
	if err != nil {
		return nil, err
	}
	out := make([]State, 0, len(sp.agents))
	for i, a := range sp.agents {
		if !sp.placed[i] {
			continue
		}
		a.G = sp.cells[sp.index(a.X, a.Y)].G
		out = append(out, a)
	}
	return out, nil
}
