// Package bench drives deterministic order book workloads. Each
// scenario records every mutating operation to a trace while building
// golden artifacts, then replays the trace into a fresh book and
// compares the replayed artifacts against the golden ones. A mismatch
// means the engine behaved non-deterministically.
package bench

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
)

// RunMode selects the workload profile.
type RunMode int

const (
	ModeCorrectness RunMode = iota
	ModePerformance
)

func (m RunMode) String() string {
	switch m {
	case ModeCorrectness:
		return "correctness"
	case ModePerformance:
		return "perf"
	default:
		return fmt.Sprintf("RunMode(%d)", int(m))
	}
}

// ParseRunMode maps a mode name from the command line to a RunMode.
func ParseRunMode(s string) (RunMode, error) {
	switch s {
	case "correctness":
		return ModeCorrectness, nil
	case "perf":
		return ModePerformance, nil
	default:
		return ModeCorrectness, fmt.Errorf("unknown run mode %q (want correctness or perf)", s)
	}
}

// BenchPaths lays out the artifact tree under a single root: traces,
// golden and replayed event logs, golden and replayed snapshots, and
// the results CSV.
type BenchPaths struct {
	Root string
}

func (p BenchPaths) TracesDir() string          { return filepath.Join(p.Root, "traces") }
func (p BenchPaths) EventsGoldenDir() string    { return filepath.Join(p.Root, "events", "golden") }
func (p BenchPaths) EventsReplayDir() string    { return filepath.Join(p.Root, "events", "replay") }
func (p BenchPaths) SnapshotsGoldenDir() string { return filepath.Join(p.Root, "snapshots", "golden") }
func (p BenchPaths) SnapshotsReplayDir() string { return filepath.Join(p.Root, "snapshots", "replay") }
func (p BenchPaths) ResultsDir() string         { return filepath.Join(p.Root, "results") }

func (p BenchPaths) TraceFile(scenario string) string {
	return filepath.Join(p.TracesDir(), fmt.Sprintf("trace_ops_%s.csv", scenario))
}

func (p BenchPaths) EventsGoldenFile(scenario string) string {
	return filepath.Join(p.EventsGoldenDir(), fmt.Sprintf("events_golden_%s.csv", scenario))
}

func (p BenchPaths) EventsReplayFile(scenario string) string {
	return filepath.Join(p.EventsReplayDir(), fmt.Sprintf("events_replay_%s.csv", scenario))
}

func (p BenchPaths) SnapshotGoldenFile(scenario string) string {
	return filepath.Join(p.SnapshotsGoldenDir(), fmt.Sprintf("snapshot_golden_%s.txt", scenario))
}

func (p BenchPaths) SnapshotReplayFile(scenario string) string {
	return filepath.Join(p.SnapshotsReplayDir(), fmt.Sprintf("snapshot_replay_%s.txt", scenario))
}

func (p BenchPaths) ResultsFile() string {
	return filepath.Join(p.ResultsDir(), "bench_results.csv")
}

// EnsureDirs creates every artifact directory.
func (p BenchPaths) EnsureDirs() error {
	dirs := []string{
		p.TracesDir(),
		p.EventsGoldenDir(),
		p.EventsReplayDir(),
		p.SnapshotsGoldenDir(),
		p.SnapshotsReplayDir(),
		p.ResultsDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// BenchConfig configures a harness run.
type BenchConfig struct {
	Mode         RunMode
	EnableEvents bool
	Paths        BenchPaths
}

// DefaultBenchConfig returns a correctness-mode config writing under
// ./bench.
func DefaultBenchConfig() *BenchConfig {
	return &BenchConfig{
		Mode:  ModeCorrectness,
		Paths: BenchPaths{Root: "bench"},
	}
}

// EventLoggingEnabled reports whether event logs are produced and
// compared. Event logging is confined to correctness mode; perf runs
// skip it to keep the measured path lean.
func (c *BenchConfig) EventLoggingEnabled() bool {
	return c.EnableEvents && c.Mode == ModeCorrectness
}

// Scenario sizes one workload: the bulk insert count and the number of
// randomized operations that follow it.
type Scenario struct {
	Name      string
	Bulk      uint64
	RandomOps uint64
}

// Profile bundles the scenarios and workload knobs of one run mode.
type Profile struct {
	Scenarios      []Scenario
	QueryFraction  float64
	CancelFraction float64
	MatchFraction  float64
	WarmupOrders   uint64
	KeepIDs        bool
	BaseSeed       uint64
}

// CorrectnessProfile returns small scenarios with a high query and
// cancel ratio. Live order ids are tracked so cancels and modifies hit
// real orders.
func CorrectnessProfile() Profile {
	return Profile{
		Scenarios: []Scenario{
			{Name: "correct_small_1", Bulk: 20, RandomOps: 50},
			{Name: "correct_small_2", Bulk: 30, RandomOps: 60},
			{Name: "correct_small_3", Bulk: 40, RandomOps: 80},
			{Name: "correct_small_4", Bulk: 30, RandomOps: 50},
			{Name: "correct_small_5", Bulk: 50, RandomOps: 100},
		},
		QueryFraction:  0.35,
		CancelFraction: 0.30,
		MatchFraction:  0.10,
		WarmupOrders:   10,
		KeepIDs:        true,
		BaseSeed:       4242424242,
	}
}

// PerformanceProfile returns the large scenarios. Id tracking is off
// there: holding millions of live ids costs memory and skews the
// numbers.
func PerformanceProfile() Profile {
	return Profile{
		Scenarios: []Scenario{
			{Name: "100k-100k", Bulk: 100_000, RandomOps: 100_000},
			{Name: "500k-200k", Bulk: 500_000, RandomOps: 200_000},
			{Name: "1M-500k", Bulk: 1_000_000, RandomOps: 500_000},
		},
		QueryFraction:  0.40,
		CancelFraction: 0.25,
		MatchFraction:  0.05,
		WarmupOrders:   50_000,
		KeepIDs:        false,
		BaseSeed:       123456789,
	}
}

// Profile returns the workload profile for the configured mode.
func (c *BenchConfig) Profile() Profile {
	if c.Mode == ModePerformance {
		return PerformanceProfile()
	}
	return CorrectnessProfile()
}

// ScenarioSeed folds the scenario name into the profile's base seed,
// giving every scenario a distinct but reproducible random stream. The
// seed is recorded in the trace header.
func ScenarioSeed(base uint64, name string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return base ^ h.Sum64()
}
