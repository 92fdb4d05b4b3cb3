package lsmc

import (
	"sync"
	"time"
)

// RunStats collects wall-clock durations across repeated pricing runs
// for the benchmark report. Everything stays in memory; the benchmark
// binary prints the summary and persists nothing.
type RunStats struct {
	mu   sync.Mutex
	runs []time.Duration
}

// Record adds one run's duration.
func (s *RunStats) Record(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, d)
}

// Count returns the number of recorded runs.
func (s *RunStats) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs)
}

// Average returns the mean run duration, or zero with no runs.
func (s *RunStats) Average() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.runs) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range s.runs {
		total += d
	}
	return total / time.Duration(len(s.runs))
}

// Min returns the fastest run, or zero with no runs.
func (s *RunStats) Min() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.runs) == 0 {
		return 0
	}
	min := s.runs[0]
	for _, d := range s.runs[1:] {
		if d < min {
			min = d
		}
	}
	return min
}

// Max returns the slowest run, or zero with no runs.
func (s *RunStats) Max() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.runs) == 0 {
		return 0
	}
	max := s.runs[0]
	for _, d := range s.runs[1:] {
		if d > max {
			max = d
		}
	}
	return max
}
