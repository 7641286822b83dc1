package main

import (
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// minExtent keeps degenerate (zero-width or zero-height) boxes valid for the R-tree.
const minExtent = 1e-9

// obstacleEntry wraps an obstacle for R-tree storage
type obstacleEntry struct {
	obstacle *Obstacle
	bbox     rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (e *obstacleEntry) Bounds() rtreego.Rect {
	return e.bbox
}

// SpatialIndex answers "which obstacles may cover this point or region".
// Entries are keyed by obstacle id so moved obstacles can be re-indexed.
type SpatialIndex struct {
	tree    *rtreego.Rtree
	entries map[string]*obstacleEntry
}

// NewSpatialIndex creates a new spatial index
func NewSpatialIndex() *SpatialIndex {
	return &SpatialIndex{
		tree:    rtreego.NewTree(2, 25, 50), // 2D, min 25, max 50 entries per node
		entries: make(map[string]*obstacleEntry),
	}
}

// Insert adds or replaces the entry for o.
func (si *SpatialIndex) Insert(o *Obstacle) {
	si.Remove(o.ID)
	entry := &obstacleEntry{obstacle: o, bbox: boundToRect(o.Polygon.Bound())}
	si.tree.Insert(entry)
	si.entries[o.ID] = entry
}

// Remove drops the entry for id and reports whether it existed.
func (si *SpatialIndex) Remove(id string) bool {
	entry, ok := si.entries[id]
	if !ok {
		return false
	}
	si.tree.Delete(entry)
	delete(si.entries, id)
	return true
}

// Len returns the number of indexed obstacles.
func (si *SpatialIndex) Len() int {
	return si.tree.Size()
}

// QueryPoint returns obstacles whose bounding box contains p
func (si *SpatialIndex) QueryPoint(p orb.Point) []*Obstacle {
	return si.search(rtreego.Point{p[0], p[1]}.ToRect(minExtent))
}

// QueryRegion returns obstacles whose bounding box intersects b
func (si *SpatialIndex) QueryRegion(b orb.Bound) []*Obstacle {
	return si.search(boundToRect(b))
}

func (si *SpatialIndex) search(r rtreego.Rect) []*Obstacle {
	results := si.tree.SearchIntersect(r)
	obstacles := make([]*Obstacle, 0, len(results))
	for _, item := range results {
		obstacles = append(obstacles, item.(*obstacleEntry).obstacle)
	}
	return obstacles
}

// boundToRect converts an orb bound to an R-tree rectangle, padding
// degenerate extents.
func boundToRect(b orb.Bound) rtreego.Rect {
	w := max(b.Max[0]-b.Min[0], minExtent)
	h := max(b.Max[1]-b.Min[1], minExtent)
	rect, err := rtreego.NewRect(rtreego.Point{b.Min[0], b.Min[1]}, []float64{w, h})
	if err != nil {
		// Only reachable with NaN coordinates.
		return rtreego.Point{0, 0}.ToRect(minExtent)
	}
	return rect
}
