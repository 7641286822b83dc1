package planner

import (
	"container/heap"
	"fmt"
)

// node is an entry of the reference search queue.
type node struct {
	idx   int
	g     float64
	index int // position in the heap
}

// priorityQueue implements heap.Interface ordered by g.
type priorityQueue []*node

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	return pq[i].g < pq[j].g
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x interface{}) {
	n := len(*pq)
	nd := x.(*node)
	nd.index = n
	*pq = append(*pq, nd)
}

func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	nd := old[n-1]
	old[n-1] = nil
	nd.index = -1
	*pq = old[0 : n-1]
	return nd
}

// ExactCostField computes the optimal cost-to-goal of every cell from scratch
// with Dijkstra's algorithm over the current transition costs, without
// touching the map. Unreachable cells get Unvisited. It serves as the
// reference a propagated field can be checked against.
func (s *Session) ExactCostField(mapIndex int) ([]float64, error) {
	sp, err := s.space(mapIndex)
	if err != nil {
		return nil, err
	}
	if !sp.hasGoal {
		return nil, fmt.Errorf("%w: map %d", ErrNoGoal, mapIndex)
	}

	n := len(sp.cells)
	dist := make([]float64, n)
	nodes := make([]*node, n)
	closed := make([]bool, n)
	for i := range dist {
		dist[i] = Unvisited
	}

	goalIdx := sp.goalIndex()
	pq := &priorityQueue{}
	heap.Init(pq)
	nodes[goalIdx] = &node{idx: goalIdx, g: 0}
	heap.Push(pq, nodes[goalIdx])

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(*node)
		closed[cur.idx] = true
		dist[cur.idx] = cur.g

		// A neighbour v reaches cur by entering it, paying cur's cost.
		step := sp.cells[cur.idx].CostToReach
		cx, cy := cur.idx%sp.columns, cur.idx/sp.columns
		for _, d := range neighborOffsets {
			vx, vy := cx+d[0], cy+d[1]
			if !sp.inBounds(vx, vy) {
				continue
			}
			v := sp.index(vx, vy)
			if closed[v] {
				continue
			}
			tentative := cur.g + step
			if nd := nodes[v]; nd == nil {
				nodes[v] = &node{idx: v, g: tentative}
				heap.Push(pq, nodes[v])
			} else if tentative < nd.g {
				nd.g = tentative
				heap.Fix(pq, nd.index)
			}
		}
	}
	return dist, nil
}
