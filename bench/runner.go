package bench

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Bala432/order-matching-engine/engine"
	"github.com/Bala432/order-matching-engine/logging"
	"github.com/Bala432/order-matching-engine/metrics"
	"github.com/Bala432/order-matching-engine/persistence"
	"github.com/Bala432/order-matching-engine/replay"
)

// ScenarioResult summarizes one scenario: whether the replayed
// artifacts matched the golden ones, plus context for the report.
type ScenarioResult struct {
	Scenario       string
	Seed           uint64
	SnapshotsMatch bool
	EventsCompared bool
	EventsMatch    bool
	Diff           string
	FinalBookSize  int
	ReplayStats    replay.Stats
}

// Passed reports whether every compared artifact matched.
func (r ScenarioResult) Passed() bool {
	return r.SnapshotsMatch && r.EventsMatch
}

// Runner executes the configured workload profile end to end: golden
// run, trace replay, artifact comparison, results CSV.
type Runner struct {
	cfg     *BenchConfig
	profile Profile
	runID   string
}

// NewRunner creates a runner with a fresh run id.
func NewRunner(cfg *BenchConfig) *Runner {
	return &Runner{
		cfg:     cfg,
		profile: cfg.Profile(),
		runID:   logging.NewRunID(),
	}
}

// RunID returns the id tagging this run's logs and results file.
func (r *Runner) RunID() string {
	return r.runID
}

// Run executes every scenario of the profile. A determinism mismatch is
// reported in the scenario's result, not as an error; errors are
// reserved for I/O failures that abort the run.
func (r *Runner) Run() ([]ScenarioResult, error) {
	if err := r.cfg.Paths.EnsureDirs(); err != nil {
		return nil, err
	}

	results, err := NewResultsWriter(r.cfg.Paths.ResultsFile(), r.runID)
	if err != nil {
		return nil, err
	}

	log := logging.GetLogger()
	log.WithFields(logrus.Fields{
		"event":     logging.EventBenchStarted,
		"run_id":    r.runID,
		"mode":      r.cfg.Mode.String(),
		"scenarios": len(r.profile.Scenarios),
		"events":    r.cfg.EventLoggingEnabled(),
		"out":       r.cfg.Paths.Root,
	}).Info("benchmark run started")

	var out []ScenarioResult
	for _, sc := range r.profile.Scenarios {
		res, err := r.runScenario(sc, results)
		if err != nil {
			results.Close()
			return out, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
		out = append(out, res)
	}

	if err := results.Close(); err != nil {
		return out, err
	}

	passed := 0
	for _, res := range out {
		if res.Passed() {
			passed++
		}
	}
	log.WithFields(logrus.Fields{
		"event":   logging.EventBenchCompleted,
		"run_id":  r.runID,
		"passed":  passed,
		"total":   len(out),
		"results": r.cfg.Paths.ResultsFile(),
	}).Info("benchmark run completed")

	return out, nil
}

func (r *Runner) runScenario(sc Scenario, results *ResultsWriter) (ScenarioResult, error) {
	seed := ScenarioSeed(r.profile.BaseSeed, sc.Name)
	logging.LogScenarioStarted(r.runID, sc.Name, seed, int(sc.Bulk+sc.RandomOps))

	res := ScenarioResult{Scenario: sc.Name, Seed: seed, EventsMatch: true}

	if err := r.runGolden(sc, seed, results, &res); err != nil {
		return res, err
	}
	if err := r.runReplay(sc, &res); err != nil {
		return res, err
	}
	if err := r.compareArtifacts(sc, &res); err != nil {
		return res, err
	}

	logging.LogScenarioResult(r.runID, sc.Name, res.Passed(), res.Diff)
	return res, nil
}

// runGolden executes the workload phases against a fresh book while
// recording the trace, then writes the golden snapshot.
func (r *Runner) runGolden(sc Scenario, seed uint64, results *ResultsWriter, res *ScenarioResult) error {
	paths := r.cfg.Paths

	trace, err := persistence.NewTraceWriter(paths.TraceFile(sc.Name), seed, sc.Name)
	if err != nil {
		return err
	}

	book := engine.NewOrderBook()
	book.EnableEvents(r.cfg.EnableEvents)

	var goldenEvents *persistence.EventWriter
	if r.cfg.EventLoggingEnabled() {
		goldenEvents, err = persistence.NewEventWriter(paths.EventsGoldenFile(sc.Name))
		if err != nil {
			trace.Close()
			return err
		}
		book.SetObserver(goldenEvents.Observer())
	}

	state := newScenarioState(r.profile, sc, seed, book, trace)

	phases := make([]PhaseMetrics, 0, 4)
	phases = append(phases, state.runWarmup())
	if r.cfg.Mode == ModeCorrectness {
		state.runFOKFixture()
	}
	phases = append(phases, state.runBulkInsert())
	random, breakdown := state.runRandomOps()
	phases = append(phases, random, state.runBestBidStress())

	for _, m := range phases {
		results.Append(m)
		metrics.RecordOperationLatency(m.Phase, m.AvgNs()/1e9)
	}

	logging.GetLogger().WithFields(logging.WithRunID(r.runID)).WithFields(logrus.Fields{
		"scenario": sc.Name,
		"adds":     breakdown.adds,
		"cancels":  breakdown.cancels,
		"queries":  breakdown.queries,
		"matches":  breakdown.matches,
		"modifies": breakdown.modifies,
	}).Debug("random ops breakdown")

	snapErr := persistence.WriteSnapshot(paths.SnapshotGoldenFile(sc.Name), book)

	book.SetObserver(nil)
	if goldenEvents != nil {
		if err := goldenEvents.Close(); err != nil {
			trace.Close()
			return err
		}
		logging.LogArtifactWritten(logging.EventEventLogWritten, paths.EventsGoldenFile(sc.Name))
	}
	if err := trace.Close(); err != nil {
		return err
	}
	logging.LogArtifactWritten(logging.EventTraceWritten, paths.TraceFile(sc.Name))
	if snapErr != nil {
		return snapErr
	}
	logging.LogArtifactWritten(logging.EventSnapshotWritten, paths.SnapshotGoldenFile(sc.Name))

	res.FinalBookSize = book.Size()
	return nil
}

// runReplay applies the recorded trace to a fresh book and writes the
// replay-side artifacts.
func (r *Runner) runReplay(sc Scenario, res *ScenarioResult) error {
	paths := r.cfg.Paths

	book := engine.NewOrderBook()

	var replayEvents *persistence.EventWriter
	if r.cfg.EventLoggingEnabled() {
		var err error
		replayEvents, err = persistence.NewEventWriter(paths.EventsReplayFile(sc.Name))
		if err != nil {
			return err
		}
		book.SetObserver(replayEvents.Observer())
		book.EnableEvents(true)
	}

	stats, err := replay.NewReplayer(nil).ReplayFile(paths.TraceFile(sc.Name), book)
	if err != nil {
		if replayEvents != nil {
			replayEvents.Close()
		}
		return err
	}
	res.ReplayStats = stats

	snapErr := persistence.WriteSnapshot(paths.SnapshotReplayFile(sc.Name), book)

	book.SetObserver(nil)
	if replayEvents != nil {
		if err := replayEvents.Close(); err != nil {
			return err
		}
		logging.LogArtifactWritten(logging.EventEventLogWritten, paths.EventsReplayFile(sc.Name))
	}
	if snapErr == nil {
		logging.LogArtifactWritten(logging.EventSnapshotWritten, paths.SnapshotReplayFile(sc.Name))
	}
	return snapErr
}

// compareArtifacts diffs the golden artifacts against their replayed
// counterparts.
func (r *Runner) compareArtifacts(sc Scenario, res *ScenarioResult) error {
	paths := r.cfg.Paths

	same, diff, err := persistence.CompareFiles(
		paths.SnapshotGoldenFile(sc.Name), paths.SnapshotReplayFile(sc.Name))
	if err != nil {
		return err
	}
	res.SnapshotsMatch = same
	if !same {
		res.Diff = "snapshot mismatch:\n" + diff
	}

	if !r.cfg.EventLoggingEnabled() {
		return nil
	}

	res.EventsCompared = true
	same, diff, err = persistence.CompareFiles(
		paths.EventsGoldenFile(sc.Name), paths.EventsReplayFile(sc.Name))
	if err != nil {
		return err
	}
	res.EventsMatch = same
	if !same {
		res.Diff += "event log mismatch:\n" + diff
	}
	return nil
}
