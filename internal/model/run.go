package model

import "time"

// Job names recorded for batch runs.
const (
	JobBreakout      = "breakout"
	JobMovingAverage = "moving_average"
	JobLTH           = "lth"
)

// RunStats aggregates per-run counters.
type RunStats struct {
	Processed int
	Created   int
	Updated   int
	Unchanged int
	Errors    int
}

// Add accumulates o into s.
func (s *RunStats) Add(o RunStats) {
	s.Processed += o.Processed
	s.Created += o.Created
	s.Updated += o.Updated
	s.Unchanged += o.Unchanged
	s.Errors += o.Errors
}

// Record counts a single LTH outcome.
func (s *RunStats) Record(o Outcome) {
	switch o {
	case OutcomeCreated:
		s.Created++
	case OutcomeUpdated:
		s.Updated++
	default:
		s.Unchanged++
	}
}

// RunRecord is one executed batch run.
type RunRecord struct {
	ID         string
	Job        string
	StartedAt  time.Time
	FinishedAt time.Time
	Stats      RunStats
}
