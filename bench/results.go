package bench

import (
	"bufio"
	"fmt"
	"os"

	"github.com/Bala432/order-matching-engine/logging"
)

// ResultsHeader is the column line of the results CSV.
const ResultsHeader = "scenario,phase,ops,total_ns,avg_ns,ops_per_sec"

// ResultsWriter accumulates per-phase timings into the results CSV.
// Write failures are sticky and surfaced through Err, mirroring
// TraceWriter.
type ResultsWriter struct {
	path string
	file *os.File
	w    *bufio.Writer
	err  error
}

// NewResultsWriter creates the results file, tagging it with the run id
// so result rows can be tied back to the run's log lines.
func NewResultsWriter(path, runID string) (*ResultsWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create results %s: %w", path, err)
	}

	w := bufio.NewWriter(file)
	if _, err := fmt.Fprintf(w, "# run_id=%s\n%s\n", runID, ResultsHeader); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write results header: %w", err)
	}

	return &ResultsWriter{path: path, file: file, w: w}, nil
}

// Append writes one phase row.
func (rw *ResultsWriter) Append(m PhaseMetrics) {
	if rw.err != nil {
		return
	}
	_, err := fmt.Fprintf(rw.w, "%s,%s,%d,%d,%.2f,%.2f\n",
		m.Scenario, m.Phase, m.Ops, m.NS, m.AvgNs(), m.OpsPerSec())
	if err != nil {
		rw.err = err
		logging.LogArtifactWriteFailed(rw.path, err)
	}
}

// Err returns the first write failure, if any.
func (rw *ResultsWriter) Err() error {
	return rw.err
}

// Close flushes and closes the results file.
func (rw *ResultsWriter) Close() error {
	flushErr := rw.w.Flush()
	closeErr := rw.file.Close()
	if rw.err != nil {
		return rw.err
	}
	if flushErr != nil {
		return fmt.Errorf("failed to flush results %s: %w", rw.path, flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close results %s: %w", rw.path, closeErr)
	}
	return nil
}
