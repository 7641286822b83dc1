package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// loadObstacleDir loads every *.geojson file of dir. Unreadable files are
// logged and skipped.
func loadObstacleDir(dir string, cost float64) ([]*Obstacle, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.geojson"))
	if err != nil {
		return nil, err
	}

	log.Printf("Loading obstacles from %d GeoJSON files...\n", len(files))
	var all []*Obstacle
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			log.Printf("⚠️  Failed to read %s: %v\n", file, err)
			continue
		}
		obstacles, err := parseObstacles(data, strings.TrimSuffix(filepath.Base(file), ".geojson"), cost)
		if err != nil {
			log.Printf("⚠️  Failed to parse %s: %v\n", file, err)
			continue
		}
		all = append(all, obstacles...)
		log.Printf("   ✅ Loaded %d obstacles from %s\n", len(obstacles), filepath.Base(file))
	}

	log.Printf("Total obstacles loaded: %d\n", len(all))
	return all, nil
}

// parseObstacles converts a GeoJSON FeatureCollection into obstacles. A
// MultiPolygon yields one obstacle per member. Ids come from the "id"
// property or the feature id, else prefix and position; costs from the
// "cost" property, else cost.
func parseObstacles(data []byte, prefix string, cost float64) ([]*Obstacle, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, err
	}

	var obstacles []*Obstacle
	for i, f := range fc.Features {
		id := f.Properties.MustString("id", "")
		if id == "" && f.ID != nil {
			id = fmt.Sprint(f.ID)
		}
		if id == "" {
			id = fmt.Sprintf("%s-%d", prefix, i)
		}
		c := f.Properties.MustFloat64("cost", cost)

		var polygons []orb.Polygon
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			polygons = append(polygons, g)
		case orb.MultiPolygon:
			polygons = append(polygons, g...)
		default:
			continue
		}
		for j, p := range polygons {
			oid := id
			if len(polygons) > 1 {
				oid = fmt.Sprintf("%s.%d", id, j)
			}
			o := &Obstacle{ID: oid, Polygon: p.Clone(), Cost: c}
			if err := o.validate(); err != nil {
				return nil, err
			}
			obstacles = append(obstacles, o)
		}
	}
	return obstacles, nil
}

// obstaclesToGeoJSON is the inverse of parseObstacles, used by snapshots.
func obstaclesToGeoJSON(obstacles []*Obstacle) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, o := range obstacles {
		f := geojson.NewFeature(o.Polygon)
		f.Properties["id"] = o.ID
		f.Properties["cost"] = o.Cost
		fc.Append(f)
	}
	return fc
}
