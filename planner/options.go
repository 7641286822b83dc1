package planner

import "log/slog"

// Option configures a Session.
type Option func(*Session)

// WithExecutor sets the substrate that runs sweeps. Default: ParallelExecutor{}.
func WithExecutor(e Executor) Option {
	return func(s *Session) {
		if e != nil {
			s.exec = e
		}
	}
}

// WithLogger sets the structured logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxCells caps rows×columns×maps accepted by Declare and Restore.
// Default: DefaultMaxCells; n <= 0 keeps the default.
func WithMaxCells(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxCells = n
		}
	}
}

// WithMetrics attaches Prometheus instrumentation. Default: none.
func WithMetrics(m *Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}
