package bench

import "time"

// Timer measures a phase's wall-clock duration.
type Timer struct {
	start time.Time
}

// StartTimer returns a running timer.
func StartTimer() Timer {
	return Timer{start: time.Now()}
}

// Reset restarts the timer.
func (t *Timer) Reset() {
	t.start = time.Now()
}

// Nanoseconds returns the elapsed time since start or the last reset.
func (t Timer) Nanoseconds() uint64 {
	return uint64(time.Since(t.start))
}

// PhaseMetrics holds the timing of one workload phase.
type PhaseMetrics struct {
	Scenario string
	Phase    string
	Ops      uint64
	NS       uint64
}

// AvgNs returns the mean nanoseconds per operation.
func (m PhaseMetrics) AvgNs() float64 {
	if m.Ops == 0 {
		return 0
	}
	return float64(m.NS) / float64(m.Ops)
}

// OpsPerSec returns the phase throughput.
func (m PhaseMetrics) OpsPerSec() float64 {
	if m.NS == 0 {
		return 0
	}
	return float64(m.Ops) / (float64(m.NS) / 1e9)
}
