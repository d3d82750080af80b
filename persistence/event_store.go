package persistence

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Bala432/order-matching-engine/engine"
	"github.com/Bala432/order-matching-engine/logging"
	"github.com/Bala432/order-matching-engine/models"
)

// EventLogHeader is the comment line at the top of every event log.
// Readers skip lines starting with '#' and blank lines.
const EventLogHeader = "# columns=seq,type,order_id,order_id2,price,qty,side"

// EventWriter appends book events to a CSV log file. It is meant to be
// installed as the book's event observer; because observers cannot
// return errors, write failures are sticky, logged once, and surfaced
// through Err.
type EventWriter struct {
	path string
	file *os.File
	w    *bufio.Writer
	err  error
}

// NewEventWriter creates the log file and writes the header.
func NewEventWriter(path string) (*EventWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log %s: %w", path, err)
	}

	w := bufio.NewWriterSize(file, 1<<16)
	if _, err := w.WriteString(EventLogHeader + "\n"); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write event log header: %w", err)
	}

	return &EventWriter{path: path, file: file, w: w}, nil
}

// Append writes one event line. After the first write failure all
// further appends are dropped.
func (ew *EventWriter) Append(e engine.Event) {
	if ew.err != nil {
		return
	}
	_, err := fmt.Fprintf(ew.w, "%d,%d,%d,%d,%d,%d,%d\n",
		e.Seq, e.Type, e.OrderID, e.OrderID2, e.Price, e.Qty, e.Side)
	if err != nil {
		ew.err = err
		logging.LogArtifactWriteFailed(ew.path, err)
	}
}

// Observer adapts the writer into a book event observer.
func (ew *EventWriter) Observer() engine.EventObserver {
	return func(e engine.Event) {
		ew.Append(e)
	}
}

// Err returns the first write failure, if any.
func (ew *EventWriter) Err() error {
	return ew.err
}

// Close flushes and closes the log file.
func (ew *EventWriter) Close() error {
	flushErr := ew.w.Flush()
	closeErr := ew.file.Close()
	if ew.err != nil {
		return ew.err
	}
	if flushErr != nil {
		return fmt.Errorf("failed to flush event log %s: %w", ew.path, flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close event log %s: %w", ew.path, closeErr)
	}
	return nil
}

// ReadEventLog loads a full event log, skipping comment and blank
// lines. Used by tests and tooling that compare runs structurally; the
// harness compares the raw files byte for byte instead.
func ReadEventLog(path string) ([]engine.Event, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log %s: %w", path, err)
	}
	defer file.Close()

	var events []engine.Event
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		event, err := parseEventLine(line)
		if err != nil {
			return nil, fmt.Errorf("event log %s line %d: %w", path, lineNo, err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read event log %s: %w", path, err)
	}
	return events, nil
}

func parseEventLine(line string) (engine.Event, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 7 {
		return engine.Event{}, fmt.Errorf("expected 7 fields, got %d", len(fields))
	}

	seq, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return engine.Event{}, fmt.Errorf("bad seq %q: %w", fields[0], err)
	}
	evType, err := strconv.ParseUint(fields[1], 10, 8)
	if err != nil {
		return engine.Event{}, fmt.Errorf("bad type %q: %w", fields[1], err)
	}
	orderID, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return engine.Event{}, fmt.Errorf("bad order_id %q: %w", fields[2], err)
	}
	orderID2, err := strconv.ParseUint(fields[3], 10, 64)
	if err != nil {
		return engine.Event{}, fmt.Errorf("bad order_id2 %q: %w", fields[3], err)
	}
	price, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return engine.Event{}, fmt.Errorf("bad price %q: %w", fields[4], err)
	}
	qty, err := strconv.ParseUint(fields[5], 10, 64)
	if err != nil {
		return engine.Event{}, fmt.Errorf("bad qty %q: %w", fields[5], err)
	}
	side, err := strconv.ParseUint(fields[6], 10, 8)
	if err != nil {
		return engine.Event{}, fmt.Errorf("bad side %q: %w", fields[6], err)
	}

	return engine.Event{
		Seq:      seq,
		Type:     engine.EventType(evType),
		OrderID:  models.OrderID(orderID),
		OrderID2: models.OrderID(orderID2),
		Price:    models.Price(price),
		Qty:      models.Quantity(qty),
		Side:     uint8(side),
	}, nil
}
