package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/paulmach/orb"
	"gopkg.in/yaml.v3"

	"grid-planner/planner"
)

// Scenario is a scripted planning run: a grid, its maps, obstacles, and a
// list of movement steps each followed by repair and re-propagation.
type Scenario struct {
	Rows          int                `yaml:"rows"`
	Columns       int                `yaml:"columns"`
	Mode          string             `yaml:"mode"`
	MaxIterations int                `yaml:"max_iterations"`
	Maps          []ScenarioMap      `yaml:"maps"`
	Obstacles     []ScenarioObstacle `yaml:"obstacles"`
	Steps         []ScenarioStep     `yaml:"steps"`
}

// CellSpec places something on a cell; Cost defaults to 1 when omitted.
type CellSpec struct {
	X    int      `yaml:"x"`
	Y    int      `yaml:"y"`
	Cost *float64 `yaml:"cost"`
}

func (c CellSpec) cost() float64 {
	if c.Cost == nil {
		return planner.DefaultCost
	}
	return *c.Cost
}

type ScenarioMap struct {
	Goal   CellSpec   `yaml:"goal"`
	Agents []CellSpec `yaml:"agents"`
	// Cells overrides individual transition costs after obstacles are painted.
	Cells []CellSpec `yaml:"cells"`
}

type ScenarioObstacle struct {
	ID      string       `yaml:"id"`
	Cost    float64      `yaml:"cost"`
	Polygon [][2]float64 `yaml:"polygon"` // outer ring
}

// ScenarioStep holds exactly one movement.
type ScenarioStep struct {
	MoveObstacle *struct {
		ID string  `yaml:"id"`
		DX float64 `yaml:"dx"`
		DY float64 `yaml:"dy"`
	} `yaml:"move_obstacle"`
	MoveGoal *struct {
		Map      int `yaml:"map"`
		CellSpec `yaml:",inline"`
	} `yaml:"move_goal"`
	SetCost *struct {
		Map      int `yaml:"map"`
		CellSpec `yaml:",inline"`
	} `yaml:"set_cost"`
}

func (st ScenarioStep) String() string {
	switch {
	case st.MoveObstacle != nil:
		return fmt.Sprintf("move obstacle %s by (%g,%g)", st.MoveObstacle.ID, st.MoveObstacle.DX, st.MoveObstacle.DY)
	case st.MoveGoal != nil:
		return fmt.Sprintf("move goal of map %d to (%d,%d)", st.MoveGoal.Map, st.MoveGoal.X, st.MoveGoal.Y)
	case st.SetCost != nil:
		return fmt.Sprintf("set cost of (%d,%d) on map %d to %g", st.SetCost.X, st.SetCost.Y, st.SetCost.Map, st.SetCost.cost())
	}
	return "empty step"
}

var errEmptyStep = errors.New("scenario step has no movement")

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes a YAML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if sc.Rows <= 0 || sc.Columns <= 0 {
		return nil, fmt.Errorf("scenario needs positive rows and columns, got %dx%d", sc.Rows, sc.Columns)
	}
	if len(sc.Maps) == 0 {
		return nil, fmt.Errorf("scenario needs at least one map")
	}
	if _, err := planner.ParseMode(sc.Mode); err != nil {
		return nil, err
	}
	return &sc, nil
}

// RunOptions tunes RunScenario.
type RunOptions struct {
	Mode        *planner.Mode // overrides the scenario mode
	Verify      bool          // compare every field against ExactCostField
	DefaultCost float64
	Session     []planner.Option
	Logger      *slog.Logger
}

// Stage is the state after the initial propagation or one step.
type Stage struct {
	Name       string
	Results    []planner.Result
	Fields     [][]float64
	Paths      [][][]planner.Point // per map, per agent
	Mismatches int                 // cells differing from the exact field, with Verify
}

// Report is the outcome of a scenario run.
type Report struct {
	Rows, Columns int
	Stages        []Stage
}

// Mismatches totals verification mismatches over all stages.
func (r *Report) Mismatches() int {
	n := 0
	for _, st := range r.Stages {
		n += st.Mismatches
	}
	return n
}

// RunScenario builds the workspace of sc, propagates every map and then
// replays each step followed by repair and re-propagation.
func RunScenario(sc *Scenario, opts RunOptions) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	mode, err := planner.ParseMode(sc.Mode)
	if err != nil {
		return nil, err
	}
	if opts.Mode != nil {
		mode = *opts.Mode
	}
	defaultCost := opts.DefaultCost
	if defaultCost == 0 {
		defaultCost = planner.DefaultCost
	}

	w := NewWorkspace(defaultCost, append([]planner.Option{planner.WithLogger(logger)}, opts.Session...)...)
	if err := w.Declare(sc.Rows, sc.Columns, len(sc.Maps)); err != nil {
		return nil, err
	}
	for _, so := range sc.Obstacles {
		o := &Obstacle{ID: so.ID, Cost: so.Cost, Polygon: orb.Polygon{toRing(so.Polygon)}}
		if _, err := w.AddObstacle(o); err != nil {
			return nil, fmt.Errorf("obstacle %q: %w", so.ID, err)
		}
	}
	for m, sm := range sc.Maps {
		for _, c := range sm.Cells {
			if err := w.Session.SetTransitionCost(c.X, c.Y, c.cost(), m); err != nil {
				return nil, fmt.Errorf("map %d cell: %w", m, err)
			}
		}
		if err := w.Session.PlaceGoal(sm.Goal.X, sm.Goal.Y, sm.Goal.cost(), m); err != nil {
			return nil, fmt.Errorf("map %d goal: %w", m, err)
		}
		if err := w.Session.ReserveAgents(len(sm.Agents), m); err != nil {
			return nil, err
		}
		for k, a := range sm.Agents {
			if err := w.Session.PlaceAgentStart(a.X, a.Y, a.cost(), k, m); err != nil {
				return nil, fmt.Errorf("map %d agent %d: %w", m, k, err)
			}
		}
	}

	rep := &Report{Rows: sc.Rows, Columns: sc.Columns}
	stage, err := runStage(w, "initial", mode, sc.MaxIterations, opts.Verify, logger)
	if err != nil {
		return rep, err
	}
	rep.Stages = append(rep.Stages, stage)

	for i, st := range sc.Steps {
		if err := applyStep(w, st); err != nil {
			return rep, fmt.Errorf("step %d: %w", i+1, err)
		}
		stage, err := runStage(w, fmt.Sprintf("step %d: %s", i+1, st), mode, sc.MaxIterations, opts.Verify, logger)
		if err != nil {
			return rep, err
		}
		rep.Stages = append(rep.Stages, stage)
	}
	return rep, nil
}

func toRing(points [][2]float64) orb.Ring {
	ring := make(orb.Ring, 0, len(points)+1)
	for _, p := range points {
		ring = append(ring, orb.Point(p))
	}
	if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	return ring
}

func applyStep(w *Workspace, st ScenarioStep) error {
	switch {
	case st.MoveObstacle != nil:
		_, err := w.MoveObstacle(st.MoveObstacle.ID, st.MoveObstacle.DX, st.MoveObstacle.DY)
		return err
	case st.MoveGoal != nil:
		g := st.MoveGoal
		return w.Session.MoveGoal(g.X, g.Y, g.cost(), g.Map)
	case st.SetCost != nil:
		c := st.SetCost
		if err := w.Session.SetTransitionCost(c.X, c.Y, c.cost(), c.Map); err != nil {
			return err
		}
		_, err := w.Session.RepairAfterObstacleMove(c.Map)
		return err
	}
	return errEmptyStep
}

func runStage(w *Workspace, name string, mode planner.Mode, maxIterations int, verify bool, logger *slog.Logger) (Stage, error) {
	results, err := w.PropagateAll(mode, maxIterations, logger)
	if err != nil {
		return Stage{}, err
	}
	stage := Stage{Name: name, Results: results}
	for m := range results {
		field, err := w.Session.CostField(m)
		if err != nil {
			return stage, err
		}
		stage.Fields = append(stage.Fields, field)

		paths, err := w.Session.AgentPaths(m)
		if err != nil {
			return stage, err
		}
		stage.Paths = append(stage.Paths, paths)

		if verify {
			n, err := verifyMap(w.Session, m, mode, field)
			if err != nil {
				return stage, err
			}
			stage.Mismatches += n
		}
	}
	return stage, nil
}

// verifyMap counts cells whose g differs from the exact field. Outside the
// exhaustive mode only agent starts are expected to be exact, and only in
// min-iterations mode.
func verifyMap(s *planner.Session, m int, mode planner.Mode, field []float64) (int, error) {
	if _, ok, _ := s.Goal(m); !ok || mode == planner.ModeSubOptimal {
		return 0, nil
	}
	exact, err := s.ExactCostField(m)
	if err != nil {
		return 0, err
	}
	_, columns, _ := s.Dims()
	differs := func(i int) bool { return math.Abs(exact[i]-field[i]) > 1e-9 }

	n := 0
	if mode == planner.ModeOptimal {
		for i := range field {
			if differs(i) {
				n++
			}
		}
		return n, nil
	}
	agents, err := s.Agents(m)
	if err != nil {
		return 0, err
	}
	for _, a := range agents {
		if differs(a.Y*columns + a.X) {
			n++
		}
	}
	return n, nil
}

// WriteReport prints every stage as cost grids and agent paths.
func WriteReport(out io.Writer, rep *Report) {
	for _, st := range rep.Stages {
		fmt.Fprintln(out, "========================================")
		fmt.Fprintf(out, "%s\n", st.Name)
		for m, res := range st.Results {
			fmt.Fprintf(out, "map %d: %d sweeps, %d relaxed, %d pending, %s\n",
				m, res.Sweeps, res.Relaxed, res.Pending, res.Reason)
			fmt.Fprint(out, formatField(st.Fields[m], rep.Columns))
			for k, p := range st.Paths[m] {
				if p == nil {
					fmt.Fprintf(out, "  agent %d: no path\n", k)
					continue
				}
				fmt.Fprintf(out, "  agent %d: %s (%d turns)\n", k, formatPath(p), max(len(waypoints(p))-2, 0))
			}
		}
		if st.Mismatches > 0 {
			fmt.Fprintf(out, "❌ %d cells differ from the exact field\n", st.Mismatches)
		}
	}
}

func formatField(field []float64, columns int) string {
	var b strings.Builder
	for i, g := range field {
		if g < 0 {
			b.WriteString("      .")
		} else {
			fmt.Fprintf(&b, " %6.4g", g)
		}
		if (i+1)%columns == 0 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func formatPath(path []planner.Point) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = fmt.Sprintf("(%d,%d)", p.X, p.Y)
	}
	return strings.Join(parts, " -> ")
}
