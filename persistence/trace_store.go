package persistence

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Bala432/order-matching-engine/logging"
	"github.com/Bala432/order-matching-engine/models"
)

// Trace op tags as they appear in trace files.
const (
	OpAdd    = "ADD"
	OpCancel = "CANCEL"
	OpModify = "MODIFY"
	OpMatch  = "MATCH"
)

// ErrMalformedRecord wraps per-line trace parse failures. The reader
// stays usable after returning it, so callers can skip bad lines.
var ErrMalformedRecord = errors.New("malformed trace record")

// TraceOp is one replayable book operation read from a trace file.
// Fields beyond ID are meaningful only for the ops that carry them:
// ADD uses all of them, MODIFY everything but Type, CANCEL only ID and
// MATCH none.
type TraceOp struct {
	Op    string
	ID    models.OrderID
	Type  models.OrderType
	Side  models.Side
	Price models.Price
	Qty   models.Quantity
}

// TraceWriter records mutating book operations to a CSV trace file.
// Write failures are sticky and surfaced through Err, mirroring
// EventWriter.
type TraceWriter struct {
	path string
	file *os.File
	w    *bufio.Writer
	err  error
}

// NewTraceWriter creates the trace file and writes the seed/scenario
// header.
func NewTraceWriter(path string, seed uint64, scenario string) (*TraceWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace %s: %w", path, err)
	}

	w := bufio.NewWriterSize(file, 1<<16)
	if _, err := fmt.Fprintf(w, "# seed=%d,scenario=%s\n", seed, scenario); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write trace header: %w", err)
	}

	return &TraceWriter{path: path, file: file, w: w}, nil
}

func (tw *TraceWriter) write(format string, args ...interface{}) {
	if tw.err != nil {
		return
	}
	if _, err := fmt.Fprintf(tw.w, format, args...); err != nil {
		tw.err = err
		logging.LogArtifactWriteFailed(tw.path, err)
	}
}

// Add records an ADD operation.
func (tw *TraceWriter) Add(id models.OrderID, orderType models.OrderType, side models.Side, price models.Price, qty models.Quantity) {
	tw.write("ADD,%d,%d,%d,%d,%d\n", id, orderType, side, price, qty)
}

// Cancel records a CANCEL operation.
func (tw *TraceWriter) Cancel(id models.OrderID) {
	tw.write("CANCEL,%d\n", id)
}

// Modify records a MODIFY operation.
func (tw *TraceWriter) Modify(id models.OrderID, side models.Side, price models.Price, qty models.Quantity) {
	tw.write("MODIFY,%d,%d,%d,%d\n", id, side, price, qty)
}

// Match records an explicit MATCH operation.
func (tw *TraceWriter) Match() {
	tw.write("MATCH\n")
}

// Err returns the first write failure, if any.
func (tw *TraceWriter) Err() error {
	return tw.err
}

// Close flushes and closes the trace file.
func (tw *TraceWriter) Close() error {
	flushErr := tw.w.Flush()
	closeErr := tw.file.Close()
	if tw.err != nil {
		return tw.err
	}
	if flushErr != nil {
		return fmt.Errorf("failed to flush trace %s: %w", tw.path, flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close trace %s: %w", tw.path, closeErr)
	}
	return nil
}

// TraceReader streams operations out of a trace file, skipping comment
// and blank lines.
type TraceReader struct {
	path    string
	file    *os.File
	scanner *bufio.Scanner
	lineNo  int
}

// OpenTrace opens a trace file for reading.
func OpenTrace(path string) (*TraceReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace %s: %w", path, err)
	}
	return &TraceReader{path: path, file: file, scanner: bufio.NewScanner(file)}, nil
}

// Line returns the line number of the record last returned by Next.
func (tr *TraceReader) Line() int {
	return tr.lineNo
}

// Text returns the raw text of the most recently scanned line, for
// diagnostics when a record is rejected.
func (tr *TraceReader) Text() string {
	return strings.TrimRight(tr.scanner.Text(), "\r")
}

// Next returns the next operation, io.EOF once the trace is exhausted,
// or an ErrMalformedRecord-wrapped error for an unparseable line. After
// a malformed line the reader continues with the next one.
func (tr *TraceReader) Next() (TraceOp, error) {
	for tr.scanner.Scan() {
		tr.lineNo++
		line := strings.TrimRight(tr.scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return parseTraceLine(line)
	}
	if err := tr.scanner.Err(); err != nil {
		return TraceOp{}, fmt.Errorf("failed to read trace %s: %w", tr.path, err)
	}
	return TraceOp{}, io.EOF
}

// Close closes the underlying file.
func (tr *TraceReader) Close() error {
	return tr.file.Close()
}

func parseTraceLine(line string) (TraceOp, error) {
	fields := strings.Split(line, ",")
	op := TraceOp{Op: fields[0]}

	switch op.Op {
	case OpAdd:
		if len(fields) != 6 {
			return op, fmt.Errorf("%w: ADD wants 6 fields, got %d", ErrMalformedRecord, len(fields))
		}
		id, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return op, fmt.Errorf("%w: bad id %q", ErrMalformedRecord, fields[1])
		}
		orderType, err := strconv.ParseUint(fields[2], 10, 8)
		if err != nil {
			return op, fmt.Errorf("%w: bad type %q", ErrMalformedRecord, fields[2])
		}
		side, err := strconv.ParseUint(fields[3], 10, 8)
		if err != nil {
			return op, fmt.Errorf("%w: bad side %q", ErrMalformedRecord, fields[3])
		}
		price, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return op, fmt.Errorf("%w: bad price %q", ErrMalformedRecord, fields[4])
		}
		qty, err := strconv.ParseUint(fields[5], 10, 64)
		if err != nil {
			return op, fmt.Errorf("%w: bad qty %q", ErrMalformedRecord, fields[5])
		}
		op.ID = models.OrderID(id)
		op.Type = models.OrderType(orderType)
		op.Side = models.Side(side)
		op.Price = models.Price(price)
		op.Qty = models.Quantity(qty)
		return op, nil

	case OpCancel:
		if len(fields) != 2 {
			return op, fmt.Errorf("%w: CANCEL wants 2 fields, got %d", ErrMalformedRecord, len(fields))
		}
		id, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return op, fmt.Errorf("%w: bad id %q", ErrMalformedRecord, fields[1])
		}
		op.ID = models.OrderID(id)
		return op, nil

	case OpModify:
		if len(fields) != 5 {
			return op, fmt.Errorf("%w: MODIFY wants 5 fields, got %d", ErrMalformedRecord, len(fields))
		}
		id, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return op, fmt.Errorf("%w: bad id %q", ErrMalformedRecord, fields[1])
		}
		side, err := strconv.ParseUint(fields[2], 10, 8)
		if err != nil {
			return op, fmt.Errorf("%w: bad side %q", ErrMalformedRecord, fields[2])
		}
		price, err := strconv.ParseInt(fields[3], 10, 64)
		if err != nil {
			return op, fmt.Errorf("%w: bad price %q", ErrMalformedRecord, fields[3])
		}
		qty, err := strconv.ParseUint(fields[4], 10, 64)
		if err != nil {
			return op, fmt.Errorf("%w: bad qty %q", ErrMalformedRecord, fields[4])
		}
		op.ID = models.OrderID(id)
		op.Side = models.Side(side)
		op.Price = models.Price(price)
		op.Qty = models.Quantity(qty)
		return op, nil

	case OpMatch:
		if len(fields) != 1 {
			return op, fmt.Errorf("%w: MATCH takes no fields, got %d", ErrMalformedRecord, len(fields)-1)
		}
		return op, nil

	default:
		return op, fmt.Errorf("%w: unknown op %q", ErrMalformedRecord, op.Op)
	}
}
