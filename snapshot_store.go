package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"

	"grid-planner/planner"
)

// SessionSnapshot is the persisted form of one server session.
type SessionSnapshot struct {
	ID          string                     `json:"id"`
	SavedAt     time.Time                  `json:"savedAt"`
	DefaultCost float64                    `json:"defaultCost"`
	Planner     planner.Snapshot           `json:"planner"`
	Obstacles   *geojson.FeatureCollection `json:"obstacles"`
}

// snapshotWorkspace captures a workspace under id.
func snapshotWorkspace(id string, w *Workspace) SessionSnapshot {
	return SessionSnapshot{
		ID:          id,
		SavedAt:     time.Now().UTC(),
		DefaultCost: w.Obstacles.defaultCost,
		Planner:     w.Session.Snapshot(),
		Obstacles:   obstaclesToGeoJSON(w.Obstacles.List()),
	}
}

// restoreWorkspace rebuilds a workspace from a snapshot. Obstacles are only
// re-indexed: the restored cells already carry their painted costs.
func restoreWorkspace(snap *SessionSnapshot, opts ...planner.Option) (*Workspace, error) {
	w := NewWorkspace(snap.DefaultCost, opts...)
	if err := w.Session.Restore(snap.Planner); err != nil {
		return nil, err
	}
	if snap.Obstacles != nil {
		data, err := snap.Obstacles.MarshalJSON()
		if err != nil {
			return nil, err
		}
		obstacles, err := parseObstacles(data, snap.ID, 0)
		if err != nil {
			return nil, err
		}
		for _, o := range obstacles {
			if _, err := w.Obstacles.Add(o); err != nil {
				return nil, err
			}
		}
	}
	return w, nil
}

// SaveSnapshot serializes and saves a session snapshot to a JSON file
func SaveSnapshot(snap SessionSnapshot, filename string) error {
	log.Printf("💾 Saving session %s to %s...\n", snap.ID, filename)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	log.Printf("   ✅ Session saved (%d bytes)\n", len(data))
	return nil
}

// LoadSnapshot deserializes a session snapshot from a JSON file
func LoadSnapshot(filename string) (*SessionSnapshot, error) {
	log.Printf("📂 Loading session from %s...\n", filename)

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var snap SessionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if snap.ID == "" {
		snap.ID = strings.TrimSuffix(filepath.Base(filename), ".json")
	}

	log.Printf("   ✅ Session loaded: %dx%d, %d maps\n", snap.Planner.Rows, snap.Planner.Columns, len(snap.Planner.Maps))
	return &snap, nil
}

// snapshotFile returns the file a session id is persisted to inside dir.
func snapshotFile(dir, id string) string {
	return filepath.Join(dir, id+".json")
}

// loadSnapshotDir loads every snapshot of dir, skipping unreadable ones.
func loadSnapshotDir(dir string) []*SessionSnapshot {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil
	}
	var snaps []*SessionSnapshot
	for _, f := range files {
		snap, err := LoadSnapshot(f)
		if err != nil {
			log.Printf("⚠️  Skipping %s: %v\n", f, err)
			continue
		}
		snaps = append(snaps, snap)
	}
	return snaps
}
