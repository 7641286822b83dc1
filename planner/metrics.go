package planner

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "gridplanner"

// Metrics holds the Prometheus instrumentation of a Session. A nil *Metrics
// records nothing.
type Metrics struct {
	// PropagationsTotal counts Propagate calls. Labels: mode, reason.
	PropagationsTotal *prometheus.CounterVec
	// SweepsTotal counts relaxation sweeps. Labels: mode.
	SweepsTotal *prometheus.CounterVec
	// CellsRelaxedTotal counts cell g updates across all sweeps.
	CellsRelaxedTotal prometheus.Counter
	// PropagationSeconds measures wall time of Propagate. Labels: mode.
	PropagationSeconds *prometheus.HistogramVec
	// RepairsTotal counts repair calls. Labels: kind (goal, obstacle).
	RepairsTotal *prometheus.CounterVec
	// RepairCellsTotal counts cells invalidated or flagged by repairs. Labels: kind.
	RepairCellsTotal *prometheus.CounterVec
	// PendingCells is the number of inconsistent cells left by the last propagation. Labels: map.
	PendingCells *prometheus.GaugeVec
}

// NewMetrics creates and registers the planner metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PropagationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "propagations_total",
			Help:      "Propagation calls by mode and stop reason",
		}, []string{"mode", "reason"}),
		SweepsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sweeps_total",
			Help:      "Relaxation sweeps by mode",
		}, []string{"mode"}),
		CellsRelaxedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cells_relaxed_total",
			Help:      "Cell cost updates across all sweeps",
		}),
		PropagationSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "propagation_seconds",
			Help:      "Wall time of a propagation call",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"mode"}),
		RepairsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "repairs_total",
			Help:      "Repair calls by kind",
		}, []string{"kind"}),
		RepairCellsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "repair_cells_total",
			Help:      "Cells invalidated or flagged by repairs",
		}, []string{"kind"}),
		PendingCells: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "pending_cells",
			Help:      "Inconsistent cells left by the last propagation",
		}, []string{"map"}),
	}
}

func (m *Metrics) observePropagation(mapIndex int, res Result, elapsed time.Duration) {
	if m == nil {
		return
	}
	mode := res.Mode.String()
	m.PropagationsTotal.WithLabelValues(mode, res.Reason.String()).Inc()
	m.SweepsTotal.WithLabelValues(mode).Add(float64(res.Sweeps))
	m.CellsRelaxedTotal.Add(float64(res.Relaxed))
	m.PropagationSeconds.WithLabelValues(mode).Observe(elapsed.Seconds())
	m.PendingCells.WithLabelValues(strconv.Itoa(mapIndex)).Set(float64(res.Pending))
}

func (m *Metrics) observeRepair(kind string, cells int) {
	if m == nil {
		return
	}
	m.RepairsTotal.WithLabelValues(kind).Inc()
	m.RepairCellsTotal.WithLabelValues(kind).Add(float64(cells))
}
