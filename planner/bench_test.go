package planner_test

import (
	"testing"

	"grid-planner/planner"
)

// BenchmarkComputeOptimal measures a full propagation on a 256×256 random grid.
func BenchmarkComputeOptimal(b *testing.B) {
	for _, bc := range []struct {
		name string
		exec planner.Executor
	}{
		{"Serial", planner.SerialExecutor{}},
		{"Parallel", planner.ParallelExecutor{}},
	} {
		b.Run(bc.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				b.StopTimer()
				s := randomGrid(b, 256, 256, 42, planner.WithExecutor(bc.exec))
				b.StartTimer()
				if _, err := s.ComputeOptimal(0); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkRepairAfterObstacleMove measures local repair of a 5×5 obstacle.
func BenchmarkRepairAfterObstacleMove(b *testing.B) {
	s := randomGrid(b, 256, 256, 42)
	if _, err := s.ComputeOptimal(0); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cost := float64(50 + i%2*25)
		for y := 60; y < 65; y++ {
			for x := 60; x < 65; x++ {
				_ = s.SetTransitionCost(x, y, cost, 0)
			}
		}
		if _, err := s.RepairAfterObstacleMove(0); err != nil {
			b.Fatal(err)
		}
		if _, err := s.ComputeOptimal(0); err != nil {
			b.Fatal(err)
		}
	}
}
