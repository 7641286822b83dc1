package main

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(id string, x0, y0, x1, y1, cost float64) *Obstacle {
	return &Obstacle{
		ID:   id,
		Cost: cost,
		Polygon: orb.Polygon{{
			{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0},
		}},
	}
}

func ids(obstacles []*Obstacle) []string {
	out := make([]string, len(obstacles))
	for i, o := range obstacles {
		out[i] = o.ID
	}
	return out
}

func TestSpatialIndex_QueryPoint(t *testing.T) {
	si := NewSpatialIndex()
	si.Insert(square("a", 0, 0, 2, 2, 10))
	si.Insert(square("b", 5, 5, 6, 6, 10))

	assert.Equal(t, []string{"a"}, ids(si.QueryPoint(orb.Point{1, 1})))
	assert.Empty(t, si.QueryPoint(orb.Point{3, 3}))
	assert.Equal(t, 2, si.Len())
}

func TestSpatialIndex_QueryRegion(t *testing.T) {
	si := NewSpatialIndex()
	si.Insert(square("a", 0, 0, 2, 2, 10))
	si.Insert(square("b", 5, 5, 6, 6, 10))

	got := si.QueryRegion(orb.Bound{Min: orb.Point{1, 1}, Max: orb.Point{5.5, 5.5}})
	assert.ElementsMatch(t, []string{"a", "b"}, ids(got))
}

func TestSpatialIndex_ReinsertAndRemove(t *testing.T) {
	si := NewSpatialIndex()
	o := square("a", 0, 0, 2, 2, 10)
	si.Insert(o)

	o.translate(10, 0)
	si.Insert(o)
	assert.Equal(t, 1, si.Len())
	assert.Empty(t, si.QueryPoint(orb.Point{1, 1}))
	assert.Len(t, si.QueryPoint(orb.Point{11, 1}), 1)

	require.True(t, si.Remove("a"))
	assert.False(t, si.Remove("a"))
	assert.Zero(t, si.Len())
}

func TestSpatialIndex_DegenerateBound(t *testing.T) {
	si := NewSpatialIndex()
	// A vertical sliver has zero width.
	si.Insert(&Obstacle{ID: "line", Polygon: orb.Polygon{{{1, 0}, {1, 4}, {1, 2}, {1, 0}}}})
	assert.Len(t, si.QueryRegion(orb.Bound{Min: orb.Point{0, 1}, Max: orb.Point{2, 2}}), 1)
}
