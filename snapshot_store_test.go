package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grid-planner/planner"
)

func TestSnapshotStore_RoundTrip(t *testing.T) {
	ws := NewWorkspace(1)
	require.NoError(t, ws.Declare(4, 4, 1))
	require.NoError(t, ws.Session.PlaceGoal(3, 3, 1, 0))
	_, err := ws.AddObstacle(square("block", 1, 1, 3, 3, 20))
	require.NoError(t, err)
	_, err = ws.Session.ComputeOptimal(0)
	require.NoError(t, err)

	dir := t.TempDir()
	file := snapshotFile(dir, "s1")
	require.NoError(t, SaveSnapshot(snapshotWorkspace("s1", ws), file))

	snap, err := LoadSnapshot(file)
	require.NoError(t, err)
	assert.Equal(t, "s1", snap.ID)

	restored, err := restoreWorkspace(snap)
	require.NoError(t, err)
	assert.Equal(t, 1, restored.Obstacles.Len())

	want, err := ws.Session.CostField(0)
	require.NoError(t, err)
	got, err := restored.Session.CostField(0)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// The restored obstacle layer keeps driving repairs.
	_, err = restored.RemoveObstacle("block")
	require.NoError(t, err)
	_, err = restored.Session.ComputeOptimal(0)
	require.NoError(t, err)
	c, err := restored.Session.Cell(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 6.0, c.G)
}

func TestLoadSnapshotDir_SkipsBroken(t *testing.T) {
	dir := t.TempDir()
	ws := NewWorkspace(1)
	require.NoError(t, ws.Declare(2, 2, 1))
	require.NoError(t, SaveSnapshot(snapshotWorkspace("good", ws), snapshotFile(dir, "good")))
	require.NoError(t, os.WriteFile(snapshotFile(dir, "bad"), []byte("{"), 0o644))

	snaps := loadSnapshotDir(dir)
	require.Len(t, snaps, 1)
	assert.Equal(t, "good", snaps[0].ID)

	_, err := restoreWorkspace(snaps[0], planner.WithExecutor(planner.SerialExecutor{}))
	assert.NoError(t, err)
}
