package logging

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var log *logrus.Logger

// InitLogger initializes the structured logger with JSON format
func InitLogger() *logrus.Logger {
	log = logrus.New()

	// Set JSON formatter for structured logging
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "ts",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	// Plain text output for interactive CLI runs
	if os.Getenv("LOG_FORMAT") == "text" {
		log.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	}

	// Output to stderr so artifact streams on stdout stay clean
	log.SetOutput(os.Stderr)

	// Set log level from environment or default to Info
	logLevel := os.Getenv("LOG_LEVEL")
	switch logLevel {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "info":
		log.SetLevel(logrus.InfoLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}

	return log
}

// NewRunID generates a new run ID for correlating log lines and result
// rows of one harness invocation
func NewRunID() string {
	return uuid.New().String()
}

// WithRunID returns logger fields carrying the run ID
func WithRunID(runID string) logrus.Fields {
	return logrus.Fields{
		"run_id": runID,
	}
}

// GetLogger returns the global logger instance
func GetLogger() *logrus.Logger {
	if log == nil {
		return InitLogger()
	}
	return log
}

// Event types as constants
const (
	EventObserverPanic    = "observer_panic"
	EventArtifactError    = "artifact_write_failed"
	EventReplaySkip       = "replay_line_skipped"
	EventReplayCompleted  = "replay_completed"
	EventScenarioStarted  = "scenario_started"
	EventScenarioPassed   = "scenario_passed"
	EventScenarioFailed   = "scenario_failed"
	EventSnapshotWritten  = "snapshot_written"
	EventEventLogWritten  = "event_log_written"
	EventTraceWritten     = "trace_written"
	EventProfilingStarted = "profiling_started"
	EventProfilingStopped = "profiling_stopped"
	EventBenchStarted     = "bench_started"
	EventBenchCompleted   = "bench_completed"
)

// LogObserverPanic logs a trapped panic from an event observer
func LogObserverPanic(seq uint64, eventType string, recovered interface{}) {
	GetLogger().WithFields(logrus.Fields{
		"event":      EventObserverPanic,
		"seq":        seq,
		"event_type": eventType,
		"panic":      recovered,
	}).Error("Event observer panicked; event dropped by observer, engine unaffected")
}

// LogArtifactWriteFailed logs a failed write to an artifact file
func LogArtifactWriteFailed(path string, err error) {
	GetLogger().WithFields(logrus.Fields{
		"event": EventArtifactError,
		"path":  path,
		"error": err.Error(),
	}).Error("Artifact write failed")
}

// LogArtifactWritten notes a completed artifact file at debug level
func LogArtifactWritten(event, path string) {
	GetLogger().WithFields(logrus.Fields{
		"event": event,
		"path":  path,
	}).Debug("Artifact written")
}

// LogReplayLineSkipped logs a trace line rejected during replay
func LogReplayLineSkipped(line int, raw string, err error) {
	GetLogger().WithFields(logrus.Fields{
		"event": EventReplaySkip,
		"line":  line,
		"raw":   raw,
		"error": err.Error(),
	}).Warn("Skipping malformed trace line")
}

// LogReplayCompleted logs the outcome of a trace replay
func LogReplayCompleted(path string, applied, skipped int, elapsed time.Duration) {
	GetLogger().WithFields(logrus.Fields{
		"event":      EventReplayCompleted,
		"trace":      path,
		"applied":    applied,
		"skipped":    skipped,
		"elapsed_ms": elapsed.Milliseconds(),
	}).Info("Trace replay completed")
}

// LogScenarioStarted logs the start of a harness scenario
func LogScenarioStarted(runID, name string, seed uint64, ops int) {
	GetLogger().WithFields(logrus.Fields{
		"event":    EventScenarioStarted,
		"run_id":   runID,
		"scenario": name,
		"seed":     seed,
		"ops":      ops,
	}).Info("Scenario started")
}

// LogScenarioResult logs a scenario verdict after the replay comparison
func LogScenarioResult(runID, name string, passed bool, detail string) {
	fields := logrus.Fields{
		"event":    EventScenarioPassed,
		"run_id":   runID,
		"scenario": name,
	}
	if passed {
		GetLogger().WithFields(fields).Info("Scenario passed")
		return
	}
	fields["event"] = EventScenarioFailed
	fields["detail"] = detail
	GetLogger().WithFields(fields).Error("Scenario failed")
}
