package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"grid-planner/planner"
)

var (
	errSessionNotFound = errors.New("session not found")
	errBadRequest      = errors.New("bad request")
	errBodyTooLarge    = errors.New("request body too large")
)

// sessionEntry is one planning workspace. mu serializes every operation on
// it; different sessions run concurrently.
type sessionEntry struct {
	mu      sync.Mutex
	ws      *Workspace
	created time.Time
}

// Server exposes planning sessions over HTTP.
type Server struct {
	cfg      Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *planner.Metrics
	// templates are the obstacles of obstacles.dir, copied into every new session.
	templates []*Obstacle

	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

// NewServer builds a server and loads the configured obstacle layer.
func NewServer(cfg Config, logger *slog.Logger) (*Server, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		metrics:  planner.NewMetrics(reg),
		sessions: make(map[string]*sessionEntry),
	}
	if cfg.Obstacles.Dir != "" {
		obstacles, err := loadObstacleDir(cfg.Obstacles.Dir, cfg.Obstacles.Cost)
		if err != nil {
			return nil, fmt.Errorf("load obstacles: %w", err)
		}
		s.templates = obstacles
	}
	return s, nil
}

func (s *Server) sessionOptions() []planner.Option {
	return append(s.cfg.SessionOptions(),
		planner.WithLogger(s.logger),
		planner.WithMetrics(s.metrics),
	)
}

func (s *Server) newWorkspace() (*Workspace, error) {
	ws := NewWorkspace(s.cfg.Obstacles.DefaultCost, s.sessionOptions()...)
	for _, t := range s.templates {
		o := &Obstacle{ID: t.ID, Polygon: t.Polygon.Clone(), Cost: t.Cost}
		if _, err := ws.AddObstacle(o); err != nil {
			return nil, err
		}
	}
	return ws, nil
}

func (s *Server) lookup(id string) (*sessionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errSessionNotFound, id)
	}
	return e, nil
}

// Handler returns the HTTP API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, corsMiddleware(h))
	}

	handle("OPTIONS /", func(w http.ResponseWriter, r *http.Request) {})
	handle("GET /health", s.healthHandler)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	handle("POST /sessions", s.createSessionHandler)
	handle("GET /sessions", s.listSessionsHandler)
	handle("GET /sessions/{id}", s.withSession(s.sessionInfoHandler))
	handle("DELETE /sessions/{id}", s.deleteSessionHandler)
	handle("POST /sessions/{id}/declare", s.withSession(s.declareHandler))

	handle("POST /sessions/{id}/maps/{map}/goal", s.withSession(s.goalHandler))
	handle("POST /sessions/{id}/maps/{map}/agents", s.withSession(s.reserveAgentsHandler))
	handle("GET /sessions/{id}/maps/{map}/agents", s.withSession(s.agentsHandler))
	handle("PUT /sessions/{id}/maps/{map}/agents/{agent}", s.withSession(s.placeAgentHandler))
	handle("POST /sessions/{id}/maps/{map}/cells", s.withSession(s.cellValuesHandler))
	handle("GET /sessions/{id}/maps/{map}/costs", s.withSession(s.costFieldHandler))
	handle("GET /sessions/{id}/maps/{map}/transition-costs", s.withSession(s.transitionCostsHandler))
	handle("POST /sessions/{id}/maps/{map}/transition-costs", s.withSession(s.setTransitionCostsHandler))
	handle("POST /sessions/{id}/maps/{map}/propagate", s.withSession(s.propagateHandler))
	handle("POST /sessions/{id}/maps/{map}/repair/goal", s.withSession(s.repairGoalHandler))
	handle("POST /sessions/{id}/maps/{map}/repair/obstacle", s.withSession(s.repairObstacleHandler))
	handle("GET /sessions/{id}/maps/{map}/path", s.withSession(s.pathHandler))

	handle("GET /sessions/{id}/obstacles", s.withSession(s.listObstaclesHandler))
	handle("POST /sessions/{id}/obstacles", s.withSession(s.addObstacleHandler))
	handle("POST /sessions/{id}/obstacles/{oid}/move", s.withSession(s.moveObstacleHandler))
	handle("DELETE /sessions/{id}/obstacles/{oid}", s.withSession(s.removeObstacleHandler))

	handle("GET /sessions/{id}/snapshot", s.withSession(s.getSnapshotHandler))
	handle("POST /sessions/{id}/snapshot", s.withSession(s.saveSnapshotHandler))
	return mux
}

// corsMiddleware adds CORS headers to allow frontend requests
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// sessionHandler is a handler running with the session lock held.
type sessionHandler func(w http.ResponseWriter, r *http.Request, id string, ws *Workspace)

func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		e, err := s.lookup(id)
		if err != nil {
			writeError(w, err)
			return
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		h(w, r, id, e.ws)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("⚠️  Failed to encode response: %v\n", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, planner.ErrInvalidArgument), errors.Is(err, errBadRequest),
		errors.Is(err, errBadPolygon):
		status = http.StatusBadRequest
	case errors.Is(err, errBodyTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, errSessionNotFound), errors.Is(err, errUnknownObstacle),
		errors.Is(err, planner.ErrNoPath):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		log.Printf("❌ %v\n", err)
	}
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   err.Error(),
	})
}

// maxRequestBytes bounds a request body, obstacle polygons included.
const maxRequestBytes = 4 << 20

func decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if r.ContentLength == 0 {
		return nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: request body exceeds %d bytes", errBodyTooLarge, tooLarge.Limit)
		}
		return fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	return nil
}

func pathInt(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errBadRequest, name)
	}
	return v, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0, fmt.Errorf("%w: query parameter %s must be an integer", errBadRequest, name)
	}
	return v, nil
}

// GET /health - Health check endpoint
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	n := len(s.sessions)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ready",
		"sessions":  n,
		"obstacles": len(s.templates),
	})
}

type declareRequest struct {
	Rows    int `json:"rows"`
	Columns int `json:"columns"`
	Maps    int `json:"maps"`
}

// POST /sessions - Create a session, optionally declaring its grid
func (s *Server) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	log.Println("========================================")
	log.Println("🆕 Create session request received")

	var req declareRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	ws, err := s.newWorkspace()
	if err != nil {
		writeError(w, err)
		return
	}
	if req.Rows != 0 || req.Columns != 0 || req.Maps != 0 {
		if err := ws.Declare(req.Rows, req.Columns, req.Maps); err != nil {
			log.Printf("❌ Declare failed: %v\n", err)
			writeError(w, err)
			return
		}
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = &sessionEntry{ws: ws, created: time.Now().UTC()}
	s.mu.Unlock()

	log.Printf("✅ Session %s created (%dx%d, %d maps)\n", id, req.Rows, req.Columns, req.Maps)
	log.Println("========================================")
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"id":      id,
	})
}

// GET /sessions - List session ids
func (s *Server) listSessionsHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": ids})
}

type sessionInfo struct {
	ID        string           `json:"id"`
	Rows      int              `json:"rows"`
	Columns   int              `json:"columns"`
	Maps      int              `json:"maps"`
	Goals     []*planner.Point `json:"goals"`
	Obstacles int              `json:"obstacles"`
}

// GET /sessions/{id} - Session dimensions and goals
func (s *Server) sessionInfoHandler(w http.ResponseWriter, r *http.Request, id string, ws *Workspace) {
	rows, columns, maps := ws.Session.Dims()
	info := sessionInfo{ID: id, Rows: rows, Columns: columns, Maps: maps, Goals: make([]*planner.Point, maps), Obstacles: ws.Obstacles.Len()}
	for m := 0; m < maps; m++ {
		if g, ok, _ := ws.Session.Goal(m); ok {
			info.Goals[m] = &g
		}
	}
	writeJSON(w, http.StatusOK, info)
}

// DELETE /sessions/{id}
func (s *Server) deleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		writeError(w, fmt.Errorf("%w: %s", errSessionNotFound, id))
		return
	}
	log.Printf("🗑️  Session %s deleted\n", id)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// POST /sessions/{id}/declare - (Re)declare the grid
func (s *Server) declareHandler(w http.ResponseWriter, r *http.Request, id string, ws *Workspace) {
	var req declareRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := ws.Declare(req.Rows, req.Columns, req.Maps); err != nil {
		writeError(w, err)
		return
	}
	log.Printf("📐 Session %s declared %dx%d with %d maps\n", id, req.Rows, req.Columns, req.Maps)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

type cellRequest struct {
	X            int      `json:"x"`
	Y            int      `json:"y"`
	G            float64  `json:"g"`
	Cost         *float64 `json:"cost"`
	Inconsistent bool     `json:"inconsistent"`
	Move         bool     `json:"move"` // goal only: relocate and repair
}

func (c cellRequest) cost() float64 {
	if c.Cost == nil {
		return planner.DefaultCost
	}
	return *c.Cost
}

// POST /sessions/{id}/maps/{map}/goal - Place, or with move:true relocate, the goal
func (s *Server) goalHandler(w http.ResponseWriter, r *http.Request, id string, ws *Workspace) {
	m, err := pathInt(r, "map")
	if err != nil {
		writeError(w, err)
		return
	}
	var req cellRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Move {
		err = ws.Session.MoveGoal(req.X, req.Y, req.cost(), m)
	} else {
		err = ws.Session.PlaceGoal(req.X, req.Y, req.cost(), m)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	log.Printf("🎯 Session %s map %d goal at (%d,%d)\n", id, m, req.X, req.Y)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// POST /sessions/{id}/maps/{map}/agents - Reserve agent slots
func (s *Server) reserveAgentsHandler(w http.ResponseWriter, r *http.Request, id string, ws *Workspace) {
	m, err := pathInt(r, "map")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Count int `json:"count"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := ws.Session.ReserveAgents(req.Count, m); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "capacity": req.Count})
}

// GET /sessions/{id}/maps/{map}/agents - Placed agents with their current g
func (s *Server) agentsHandler(w http.ResponseWriter, r *http.Request, id string, ws *Workspace) {
	m, err := pathInt(r, "map")
	if err != nil {
		writeError(w, err)
		return
	}
	agents, err := ws.Session.Agents(m)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"agents": agents})
}

// PUT /sessions/{id}/maps/{map}/agents/{agent} - Place an agent start
func (s *Server) placeAgentHandler(w http.ResponseWriter, r *http.Request, id string, ws *Workspace) {
	m, err := pathInt(r, "map")
	if err != nil {
		writeError(w, err)
		return
	}
	k, err := pathInt(r, "agent")
	if err != nil {
		writeError(w, err)
		return
	}
	var req cellRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := ws.Session.PlaceAgentStart(req.X, req.Y, req.cost(), k, m); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// POST /sessions/{id}/maps/{map}/cells - Inject g, cost and flag of one cell
func (s *Server) cellValuesHandler(w http.ResponseWriter, r *http.Request, id string, ws *Workspace) {
	m, err := pathInt(r, "map")
	if err != nil {
		writeError(w, err)
		return
	}
	var req cellRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := ws.Session.SetCellValues(req.X, req.Y, req.G, req.cost(), req.Inconsistent, m); err != nil {
		writeError(w, err)
		return
	}
	cell, _ := ws.Session.Cell(req.X, req.Y, m)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "cell": cell})
}

type fieldResponse struct {
	Rows    int       `json:"rows"`
	Columns int       `json:"columns"`
	Values  []float64 `json:"values"`
}

func (s *Server) writeField(w http.ResponseWriter, r *http.Request, ws *Workspace, read func(int) ([]float64, error)) {
	m, err := pathInt(r, "map")
	if err != nil {
		writeError(w, err)
		return
	}
	values, err := read(m)
	if err != nil {
		writeError(w, err)
		return
	}
	rows, columns, _ := ws.Session.Dims()
	writeJSON(w, http.StatusOK, fieldResponse{Rows: rows, Columns: columns, Values: values})
}

// GET /sessions/{id}/maps/{map}/costs - Row-major g values
func (s *Server) costFieldHandler(w http.ResponseWriter, r *http.Request, id string, ws *Workspace) {
	s.writeField(w, r, ws, ws.Session.CostField)
}

// GET /sessions/{id}/maps/{map}/transition-costs - Row-major transition costs
func (s *Server) transitionCostsHandler(w http.ResponseWriter, r *http.Request, id string, ws *Workspace) {
	s.writeField(w, r, ws, ws.Session.TransitionCostField)
}

// POST /sessions/{id}/maps/{map}/transition-costs - Paint costs, optionally repairing
func (s *Server) setTransitionCostsHandler(w http.ResponseWriter, r *http.Request, id string, ws *Workspace) {
	m, err := pathInt(r, "map")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Cells  []cellRequest `json:"cells"`
		Repair bool          `json:"repair"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	for _, c := range req.Cells {
		if err := ws.Session.SetTransitionCost(c.X, c.Y, c.cost(), m); err != nil {
			writeError(w, err)
			return
		}
	}
	resp := map[string]interface{}{"success": true, "cells": len(req.Cells)}
	if req.Repair {
		n, err := ws.Session.RepairAfterObstacleMove(m)
		if err != nil {
			writeError(w, err)
			return
		}
		resp["affected"] = n
	}
	writeJSON(w, http.StatusOK, resp)
}

type propagateRequest struct {
	Mode          string `json:"mode"`
	MaxIterations int    `json:"maxIterations"`
}

// POST /sessions/{id}/maps/{map}/propagate - Run the propagation engine
func (s *Server) propagateHandler(w http.ResponseWriter, r *http.Request, id string, ws *Workspace) {
	log.Println("========================================")
	log.Println("🔍 Propagate request received")

	m, err := pathInt(r, "map")
	if err != nil {
		writeError(w, err)
		return
	}
	var req propagateRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	mode, err := planner.ParseMode(req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}
	log.Printf("   Session: %s, map %d, mode %s, cap %d\n", id, m, mode, req.MaxIterations)

	start := time.Now()
	res, err := ws.Session.Propagate(m, mode, req.MaxIterations)
	if err != nil {
		log.Printf("❌ Propagation failed: %v\n", err)
		writeError(w, err)
		return
	}
	log.Printf("✅ %d sweeps, %d relaxed, %s (%v)\n", res.Sweeps, res.Relaxed, res.Reason, time.Since(start))
	log.Println("========================================")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"mode":    mode.String(),
		"result":  res,
	})
}

// POST /sessions/{id}/maps/{map}/repair/goal
func (s *Server) repairGoalHandler(w http.ResponseWriter, r *http.Request, id string, ws *Workspace) {
	m, err := pathInt(r, "map")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := ws.Session.RepairAfterGoalMove(m); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// POST /sessions/{id}/maps/{map}/repair/obstacle
func (s *Server) repairObstacleHandler(w http.ResponseWriter, r *http.Request, id string, ws *Workspace) {
	m, err := pathInt(r, "map")
	if err != nil {
		writeError(w, err)
		return
	}
	n, err := ws.Session.RepairAfterObstacleMove(m)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "affected": n})
}

// GET /sessions/{id}/maps/{map}/path?x=&y= - Predecessor chain to the goal
func (s *Server) pathHandler(w http.ResponseWriter, r *http.Request, id string, ws *Workspace) {
	m, err := pathInt(r, "map")
	if err != nil {
		writeError(w, err)
		return
	}
	x, err := queryInt(r, "x")
	if err != nil {
		writeError(w, err)
		return
	}
	y, err := queryInt(r, "y")
	if err != nil {
		writeError(w, err)
		return
	}
	path, err := ws.Session.Path(x, y, m)
	if err != nil {
		writeError(w, err)
		return
	}
	cell, _ := ws.Session.Cell(x, y, m)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"path":      path,
		"waypoints": waypoints(path),
		"cost":      cell.G,
	})
}

// GET /sessions/{id}/obstacles - Obstacles as a GeoJSON FeatureCollection
func (s *Server) listObstaclesHandler(w http.ResponseWriter, r *http.Request, id string, ws *Workspace) {
	writeJSON(w, http.StatusOK, obstaclesToGeoJSON(ws.Obstacles.List()))
}

type obstacleRequest struct {
	ID       string            `json:"id"`
	Cost     float64           `json:"cost"`
	Geometry *geojson.Geometry `json:"geometry"`
}

// POST /sessions/{id}/obstacles - Add or replace an obstacle polygon
func (s *Server) addObstacleHandler(w http.ResponseWriter, r *http.Request, id string, ws *Workspace) {
	log.Println("========================================")
	log.Println("🧱 Add obstacle request received")

	var req obstacleRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Geometry == nil {
		writeError(w, fmt.Errorf("%w: geometry is required", errBadRequest))
		return
	}
	poly, ok := req.Geometry.Geometry().(orb.Polygon)
	if !ok {
		writeError(w, fmt.Errorf("%w: geometry must be a Polygon", errBadRequest))
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()[:8]
	}

	change, err := ws.AddObstacle(&Obstacle{ID: req.ID, Polygon: poly, Cost: req.Cost})
	if err != nil {
		writeError(w, err)
		return
	}
	log.Printf("✅ Obstacle %s: %d cells painted, affected %v\n", req.ID, change.Painted, change.Affected)
	log.Println("========================================")
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "id": req.ID, "change": change})
}

// POST /sessions/{id}/obstacles/{oid}/move - Translate an obstacle and repair
func (s *Server) moveObstacleHandler(w http.ResponseWriter, r *http.Request, id string, ws *Workspace) {
	var req struct {
		DX float64 `json:"dx"`
		DY float64 `json:"dy"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	oid := r.PathValue("oid")
	change, err := ws.MoveObstacle(oid, req.DX, req.DY)
	if err != nil {
		writeError(w, err)
		return
	}
	log.Printf("🚚 Obstacle %s moved by (%g,%g), affected %v\n", oid, req.DX, req.DY, change.Affected)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "change": change})
}

// DELETE /sessions/{id}/obstacles/{oid}
func (s *Server) removeObstacleHandler(w http.ResponseWriter, r *http.Request, id string, ws *Workspace) {
	change, err := ws.RemoveObstacle(r.PathValue("oid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "change": change})
}

// GET /sessions/{id}/snapshot - Download the session state
func (s *Server) getSnapshotHandler(w http.ResponseWriter, r *http.Request, id string, ws *Workspace) {
	writeJSON(w, http.StatusOK, snapshotWorkspace(id, ws))
}

// POST /sessions/{id}/snapshot - Persist the session to the snapshot directory
func (s *Server) saveSnapshotHandler(w http.ResponseWriter, r *http.Request, id string, ws *Workspace) {
	if s.cfg.Server.SnapshotPath == "" {
		writeError(w, fmt.Errorf("%w: snapshot persistence is disabled", errBadRequest))
		return
	}
	file := snapshotFile(s.cfg.Server.SnapshotPath, id)
	if err := SaveSnapshot(snapshotWorkspace(id, ws), file); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "file": file})
}

// LoadSessions restores every snapshot of the snapshot directory.
func (s *Server) LoadSessions() int {
	if s.cfg.Server.SnapshotPath == "" {
		return 0
	}
	n := 0
	for _, snap := range loadSnapshotDir(s.cfg.Server.SnapshotPath) {
		ws, err := restoreWorkspace(snap, s.sessionOptions()...)
		if err != nil {
			log.Printf("⚠️  Session %s not restored: %v\n", snap.ID, err)
			continue
		}
		s.mu.Lock()
		s.sessions[snap.ID] = &sessionEntry{ws: ws, created: snap.SavedAt}
		s.mu.Unlock()
		n++
	}
	return n
}

// SaveSessions persists every session to the snapshot directory.
func (s *Server) SaveSessions() error {
	if s.cfg.Server.SnapshotPath == "" {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var errs []error
	for id, e := range s.sessions {
		e.mu.Lock()
		snap := snapshotWorkspace(id, e.ws)
		e.mu.Unlock()
		if err := SaveSnapshot(snap, snapshotFile(s.cfg.Server.SnapshotPath, id)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
