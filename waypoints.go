package main

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"

	"grid-planner/planner"
)

// waypoints reduces a cell path to the points where it turns. Zero
// threshold Douglas-Peucker only drops points lying on the segment between
// two kept neighbours.
func waypoints(path []planner.Point) orb.LineString {
	ls := make(orb.LineString, len(path))
	for i, p := range path {
		ls[i] = orb.Point{float64(p.X), float64(p.Y)}
	}
	return simplify.DouglasPeucker(0).LineString(ls)
}
