// Package replay rebuilds an order book by re-applying a recorded
// operation trace. Replaying a trace against a fresh book must
// reproduce the original run exactly: same event log, same final
// snapshot. Divergence between a golden artifact and its replayed
// counterpart means the engine is not deterministic.
package replay

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Bala432/order-matching-engine/engine"
	"github.com/Bala432/order-matching-engine/logging"
	"github.com/Bala432/order-matching-engine/metrics"
	"github.com/Bala432/order-matching-engine/models"
	"github.com/Bala432/order-matching-engine/persistence"
	"github.com/Bala432/order-matching-engine/validation"
)

// Stats summarizes a replay run.
type Stats struct {
	Applied  int
	Skipped  int
	Adds     int
	Cancels  int
	Modifies int
	Matches  int
}

// Replayer applies trace records to an order book. Every record is
// validated before it is applied; malformed or invalid records are
// skipped and logged rather than aborting the run, so a single bad
// line does not discard an otherwise usable trace.
type Replayer struct {
	validator *validation.InputValidator
}

// NewReplayer creates a replayer. A nil validator uses the default
// validation bounds.
func NewReplayer(validator *validation.InputValidator) *Replayer {
	if validator == nil {
		validator = validation.NewDefaultInputValidator()
	}
	return &Replayer{validator: validator}
}

// Replay reads trace records until EOF and applies them to book. The
// caller owns the book's configuration: attach an event observer and
// enable events before calling if an event log should be produced.
func (r *Replayer) Replay(reader *persistence.TraceReader, book *engine.OrderBook) (Stats, error) {
	var stats Stats

	for {
		op, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return stats, nil
			}
			if errors.Is(err, persistence.ErrMalformedRecord) {
				stats.Skipped++
				logging.LogReplayLineSkipped(reader.Line(), reader.Text(), err)
				continue
			}
			return stats, fmt.Errorf("failed to read trace: %w", err)
		}

		if err := r.validator.ValidateTraceOp(op); err != nil {
			stats.Skipped++
			metrics.RecordOrderRejected(metrics.ReasonValidation)
			logging.LogReplayLineSkipped(reader.Line(), reader.Text(), err)
			continue
		}

		r.apply(op, book, &stats)
		stats.Applied++
	}
}

// apply dispatches a single validated record to the book.
func (r *Replayer) apply(op persistence.TraceOp, book *engine.OrderBook, stats *Stats) {
	switch op.Op {
	case persistence.OpAdd:
		// A market order's traced price is the sentinel written at
		// record time; the book assigns the aggressive price itself.
		var order *models.Order
		if op.Type == models.OrderTypeMarket {
			order = models.NewMarketOrder(op.ID, op.Side, op.Qty)
		} else {
			order = models.NewOrder(op.Type, op.ID, op.Side, op.Price, op.Qty)
		}
		book.AddOrder(order)
		stats.Adds++

	case persistence.OpCancel:
		book.CancelOrder(op.ID)
		stats.Cancels++

	case persistence.OpModify:
		book.ModifyOrder(models.NewOrderModify(op.ID, op.Side, op.Price, op.Qty))
		stats.Modifies++

	case persistence.OpMatch:
		book.MatchOrders()
		stats.Matches++
	}
}

// ReplayFile opens a trace file, replays it into book, and logs the
// outcome.
func (r *Replayer) ReplayFile(path string, book *engine.OrderBook) (Stats, error) {
	reader, err := persistence.OpenTrace(path)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to open trace %s: %w", path, err)
	}
	defer reader.Close()

	start := time.Now()
	stats, err := r.Replay(reader, book)
	if err != nil {
		return stats, err
	}

	logging.LogReplayCompleted(path, stats.Applied, stats.Skipped, time.Since(start))
	return stats, nil
}
