package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Server.SnapshotPath = t.TempDir()
	cfg.Planner.Workers = 1
	srv, err := NewServer(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return srv
}

// call performs one request against h and decodes the JSON response body.
func call(t *testing.T, h http.Handler, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

// createSession declares a 4×4 single map with the goal at (3,3) and one
// agent at (0,0).
func createSession(t *testing.T, h http.Handler) string {
	t.Helper()
	code, out := call(t, h, http.MethodPost, "/sessions", `{"rows":4,"columns":4,"maps":1}`)
	require.Equal(t, http.StatusCreated, code, out)
	id := out["id"].(string)

	base := "/sessions/" + id + "/maps/0"
	code, out = call(t, h, http.MethodPost, base+"/goal", `{"x":3,"y":3}`)
	require.Equal(t, http.StatusOK, code, out)
	code, out = call(t, h, http.MethodPost, base+"/agents", `{"count":1}`)
	require.Equal(t, http.StatusOK, code, out)
	code, out = call(t, h, http.MethodPut, base+"/agents/0", `{"x":0,"y":0}`)
	require.Equal(t, http.StatusOK, code, out)
	return id
}

func costAt(t *testing.T, h http.Handler, id string, i int) float64 {
	t.Helper()
	code, out := call(t, h, http.MethodGet, "/sessions/"+id+"/maps/0/costs", "")
	require.Equal(t, http.StatusOK, code, out)
	return out["values"].([]interface{})[i].(float64)
}

func propagate(t *testing.T, h http.Handler, id, mode string) map[string]interface{} {
	t.Helper()
	code, out := call(t, h, http.MethodPost, "/sessions/"+id+"/maps/0/propagate", `{"mode":"`+mode+`"}`)
	require.Equal(t, http.StatusOK, code, out)
	return out["result"].(map[string]interface{})
}

func TestServer_PropagateAndPath(t *testing.T) {
	h := newTestServer(t).Handler()
	id := createSession(t, h)

	res := propagate(t, h, id, "optimal")
	assert.Equal(t, 7.0, res["sweeps"])
	assert.Equal(t, "converged", res["reason"])
	assert.Equal(t, 6.0, costAt(t, h, id, 0))

	code, out := call(t, h, http.MethodGet, "/sessions/"+id+"/maps/0/path?x=0&y=0", "")
	require.Equal(t, http.StatusOK, code, out)
	assert.Len(t, out["path"], 7)
	assert.Len(t, out["waypoints"], 3)
	assert.Equal(t, 6.0, out["cost"])

	code, out = call(t, h, http.MethodGet, "/sessions/"+id+"/maps/0/agents", "")
	require.Equal(t, http.StatusOK, code)
	agents := out["agents"].([]interface{})
	require.Len(t, agents, 1)

	code, out = call(t, h, http.MethodGet, "/sessions/"+id, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 4.0, out["rows"])
	assert.Equal(t, map[string]interface{}{"x": 3.0, "y": 3.0}, out["goals"].([]interface{})[0])
}

func TestServer_ObstacleLifecycle(t *testing.T) {
	h := newTestServer(t).Handler()
	id := createSession(t, h)
	propagate(t, h, id, "optimal")

	// Wall both cells next to the goal.
	for _, body := range []string{
		`{"id":"a","cost":100,"geometry":{"type":"Polygon","coordinates":[[[3,2],[4,2],[4,3],[3,3],[3,2]]]}}`,
		`{"id":"b","cost":100,"geometry":{"type":"Polygon","coordinates":[[[2,3],[3,3],[3,4],[2,4],[2,3]]]}}`,
	} {
		code, out := call(t, h, http.MethodPost, "/sessions/"+id+"/obstacles", body)
		require.Equal(t, http.StatusOK, code, out)
	}
	propagate(t, h, id, "optimal")
	assert.Equal(t, 105.0, costAt(t, h, id, 0))

	code, out := call(t, h, http.MethodPost, "/sessions/"+id+"/obstacles/a/move", `{"dx":-3,"dy":0}`)
	require.Equal(t, http.StatusOK, code, out)
	change := out["change"].(map[string]interface{})
	assert.Equal(t, 4.0, change["painted"])
	propagate(t, h, id, "optimal")
	assert.Equal(t, 6.0, costAt(t, h, id, 0))

	code, out = call(t, h, http.MethodGet, "/sessions/"+id+"/obstacles", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, out["features"], 2)

	code, _ = call(t, h, http.MethodDelete, "/sessions/"+id+"/obstacles/b", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = call(t, h, http.MethodDelete, "/sessions/"+id+"/obstacles/b", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServer_TransitionCostsAndRepair(t *testing.T) {
	h := newTestServer(t).Handler()
	id := createSession(t, h)
	propagate(t, h, id, "optimal")

	base := "/sessions/" + id + "/maps/0"
	code, out := call(t, h, http.MethodPost, base+"/transition-costs",
		`{"repair":true,"cells":[{"x":3,"y":2,"cost":100},{"x":2,"y":3,"cost":100}]}`)
	require.Equal(t, http.StatusOK, code, out)
	assert.Positive(t, out["affected"])

	propagate(t, h, id, "min-iterations")
	assert.Equal(t, 105.0, costAt(t, h, id, 0))

	code, out = call(t, h, http.MethodGet, base+"/transition-costs", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 100.0, out["values"].([]interface{})[2*4+3])

	code, out = call(t, h, http.MethodPost, base+"/goal", `{"x":0,"y":3,"move":true}`)
	require.Equal(t, http.StatusOK, code, out)
	propagate(t, h, id, "optimal")
	assert.Equal(t, 3.0, costAt(t, h, id, 0))

	code, _ = call(t, h, http.MethodPost, base+"/repair/goal", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, -1.0, costAt(t, h, id, 0))
	code, out = call(t, h, http.MethodPost, base+"/repair/obstacle", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0.0, out["affected"])

	code, out = call(t, h, http.MethodPost, base+"/cells", `{"x":1,"y":1,"g":9,"cost":2,"inconsistent":true}`)
	require.Equal(t, http.StatusOK, code, out)
	cell := out["cell"].(map[string]interface{})
	assert.Equal(t, 9.0, cell["g"])
}

func TestServer_Errors(t *testing.T) {
	h := newTestServer(t).Handler()
	id := createSession(t, h)
	base := "/sessions/" + id + "/maps/"

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown session", http.MethodGet, "/sessions/nope", "", http.StatusNotFound},
		{"bad map index", http.MethodGet, base + "7/costs", "", http.StatusBadRequest},
		{"non-numeric map", http.MethodGet, base + "x/costs", "", http.StatusBadRequest},
		{"bad mode", http.MethodPost, base + "0/propagate", `{"mode":"greedy"}`, http.StatusBadRequest},
		{"bad body", http.MethodPost, base + "0/propagate", `{`, http.StatusBadRequest},
		{"goal out of bounds", http.MethodPost, base + "0/goal", `{"x":9,"y":0}`, http.StatusBadRequest},
		{"negative cost", http.MethodPost, base + "0/transition-costs", `{"cells":[{"x":0,"y":0,"cost":-1}]}`, http.StatusBadRequest},
		{"path before propagation", http.MethodGet, base + "0/path?x=0&y=0", "", http.StatusNotFound},
		{"path without coordinates", http.MethodGet, base + "0/path", "", http.StatusBadRequest},
		{"agent index", http.MethodPut, base + "0/agents/5", `{"x":0,"y":0}`, http.StatusBadRequest},
		{"missing geometry", http.MethodPost, "/sessions/" + id + "/obstacles", `{"id":"x"}`, http.StatusBadRequest},
		{"point geometry", http.MethodPost, "/sessions/" + id + "/obstacles", `{"geometry":{"type":"Point","coordinates":[1,1]}}`, http.StatusBadRequest},
		{"move unknown obstacle", http.MethodPost, "/sessions/" + id + "/obstacles/zz/move", `{"dx":1}`, http.StatusNotFound},
		{"bad declare", http.MethodPost, "/sessions/" + id + "/declare", `{"rows":0,"columns":3,"maps":1}`, http.StatusBadRequest},
		{"oversized declare", http.MethodPost, "/sessions/" + id + "/declare", `{"rows":4294967296,"columns":4294967296,"maps":1}`, http.StatusBadRequest},
		{"oversized session", http.MethodPost, "/sessions", `{"rows":100000,"columns":100000,"maps":1}`, http.StatusBadRequest},
		{"body too large", http.MethodPost, base + "0/propagate", strings.Repeat(" ", maxRequestBytes) + `{}`, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out := call(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, code, out)
			assert.Equal(t, false, out["success"])
		})
	}
}

func TestServer_SessionsAndPersistence(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()
	id := createSession(t, h)
	propagate(t, h, id, "optimal")

	code, out := call(t, h, http.MethodGet, "/sessions", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []interface{}{id}, out["sessions"])

	code, out = call(t, h, http.MethodPost, "/sessions/"+id+"/snapshot", "")
	require.Equal(t, http.StatusOK, code, out)
	code, out = call(t, h, http.MethodGet, "/sessions/"+id+"/snapshot", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, id, out["id"])

	// A second server over the same directory picks the session up.
	cfg := srv.cfg
	other, err := NewServer(cfg, srv.logger)
	require.NoError(t, err)
	assert.Equal(t, 1, other.LoadSessions())
	assert.Equal(t, 6.0, costAt(t, other.Handler(), id, 0))

	code, _ = call(t, h, http.MethodDelete, "/sessions/"+id, "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = call(t, h, http.MethodDelete, "/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, code)

	require.NoError(t, other.SaveSessions())
}

func TestServer_HealthMetricsAndCORS(t *testing.T) {
	h := newTestServer(t).Handler()
	id := createSession(t, h)
	propagate(t, h, id, "optimal")

	code, out := call(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", out["status"])
	assert.Equal(t, 1.0, out["sessions"])

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `gridplanner_propagations_total{mode="optimal",reason="converged"} 1`)
	assert.Contains(t, body, `gridplanner_sweeps_total{mode="optimal"} 7`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/sessions", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_ObstacleTemplates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.SnapshotPath = ""
	cfg.Obstacles.Dir = t.TempDir()
	writeLayer(t, cfg.Obstacles.Dir, "tower.geojson", obstacleLayer)

	srv, err := NewServer(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	h := srv.Handler()

	code, out := call(t, h, http.MethodPost, "/sessions", `{"rows":4,"columns":4,"maps":1}`)
	require.Equal(t, http.StatusCreated, code)
	id := out["id"].(string)

	code, out = call(t, h, http.MethodGet, "/sessions/"+id+"/maps/0/transition-costs", "")
	require.Equal(t, http.StatusOK, code)
	values := out["values"].([]interface{})
	assert.Equal(t, 250.0, values[1*4+1])
	assert.Equal(t, 100.0, values[0])

	code, _ = call(t, h, http.MethodPost, "/sessions/"+id+"/snapshot", "")
	assert.Equal(t, http.StatusBadRequest, code)
}
