package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"grid-planner/planner"
)

const (
	exitSuccess  = 0
	exitError    = 1
	exitMismatch = 2
)

var (
	configPath string
	logLevel   string

	serveAddr      string
	serveSnapshots string

	planVerify bool
	planMode   string
	planQuiet  bool
)

func main() {
	root := &cobra.Command{
		Use:           "gridplanner",
		Short:         "Grid cost-to-goal planner with incremental repair",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "planner.yaml", "configuration file (optional)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP planning server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().StringVar(&serveSnapshots, "snapshots", "", "snapshot directory (overrides server.snapshot_path)")

	planCmd := &cobra.Command{
		Use:   "plan <scenario.yaml>",
		Short: "Run a scenario file and print cost fields and agent paths",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlan,
	}
	planCmd.Flags().BoolVar(&planVerify, "verify", false, "compare every field against a from-scratch Dijkstra")
	planCmd.Flags().StringVar(&planMode, "mode", "", "override the scenario mode (suboptimal, optimal, min-iterations)")
	planCmd.Flags().BoolVar(&planQuiet, "quiet", false, "print only the summary")

	root.AddCommand(serveCmd, planCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, errVerifyFailed) {
			os.Exit(exitMismatch)
		}
		os.Exit(exitError)
	}
	os.Exit(exitSuccess)
}

// loadConfig reads the config file and applies the persistent flag overrides.
func loadConfig() (Config, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return cfg, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
		if err := cfg.Validate(); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if serveSnapshots != "" {
		cfg.Server.SnapshotPath = serveSnapshots
	}

	log.Println("========================================")
	log.Println("🚀 Grid Planner Server")
	log.Println("========================================")

	srv, err := NewServer(cfg, cfg.Logger(os.Stderr))
	if err != nil {
		return err
	}
	if cfg.Server.SnapshotPath != "" {
		log.Printf("Checking for saved sessions in %s...\n", cfg.Server.SnapshotPath)
		if n := srv.LoadSessions(); n > 0 {
			log.Printf("✅ Restored %d sessions\n", n)
		} else {
			log.Println("ℹ️  No saved sessions found (this is normal on first run)")
		}
	}
	log.Println("")

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("Server starting on %s\n", cfg.Server.Addr)
	log.Println("")
	log.Println("Endpoints:")
	log.Println("  POST   /sessions                                  - Create a session")
	log.Println("  POST   /sessions/{id}/declare                     - Declare grid and map count")
	log.Println("  POST   /sessions/{id}/maps/{map}/goal             - Place or move the goal")
	log.Println("  POST   /sessions/{id}/maps/{map}/agents           - Reserve agents")
	log.Println("  PUT    /sessions/{id}/maps/{map}/agents/{agent}   - Place an agent start")
	log.Println("  POST   /sessions/{id}/maps/{map}/propagate        - Propagate costs")
	log.Println("  POST   /sessions/{id}/maps/{map}/repair/{kind}    - Repair after goal or obstacle move")
	log.Println("  GET    /sessions/{id}/maps/{map}/costs            - Read the cost field")
	log.Println("  GET    /sessions/{id}/maps/{map}/path?x=&y=       - Path to the goal")
	log.Println("  POST   /sessions/{id}/obstacles                   - Add an obstacle polygon")
	log.Println("  POST   /sessions/{id}/obstacles/{oid}/move        - Move an obstacle")
	log.Println("  GET    /health, /metrics")
	log.Println("")
	log.Println("CORS enabled for all origins")
	log.Println("========================================")
	log.Println("")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Println("🛑 Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("⚠️  Shutdown: %v\n", err)
		}
	}

	if err := srv.SaveSessions(); err != nil {
		return fmt.Errorf("save sessions: %w", err)
	}
	return nil
}

var errVerifyFailed = errors.New("cost fields differ from the exact solution")

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sc, err := LoadScenario(args[0])
	if err != nil {
		return err
	}

	opts := RunOptions{
		Verify:      planVerify,
		DefaultCost: cfg.Obstacles.DefaultCost,
		Session:     cfg.SessionOptions(),
		Logger:      cfg.Logger(os.Stderr),
	}
	if planMode != "" {
		mode, err := planner.ParseMode(planMode)
		if err != nil {
			return err
		}
		opts.Mode = &mode
	}

	rep, err := RunScenario(sc, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !planQuiet {
		WriteReport(out, rep)
	}
	fmt.Fprintln(out, "========================================")
	fmt.Fprintf(out, "%d stages on a %dx%d grid\n", len(rep.Stages), rep.Rows, rep.Columns)
	if planVerify {
		if n := rep.Mismatches(); n > 0 {
			return fmt.Errorf("%w: %d cells", errVerifyFailed, n)
		}
		fmt.Fprintln(out, "✅ verified against exact cost fields")
	}
	return nil
}
