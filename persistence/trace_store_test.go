package persistence

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Bala432/order-matching-engine/models"
)

func TestTraceWriterFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.csv")

	tw, err := NewTraceWriter(path, 42, "unit")
	if err != nil {
		t.Fatalf("NewTraceWriter failed: %v", err)
	}
	tw.Add(1, models.OrderTypeGoodTillCancel, models.SideBuy, 100, 10)
	tw.Cancel(7)
	tw.Modify(1, models.SideSell, 99, 5)
	tw.Match()
	if err := tw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	want := strings.Join([]string{
		"# seed=42,scenario=unit",
		"ADD,1,0,1,100,10",
		"CANCEL,7",
		"MODIFY,1,0,99,5",
		"MATCH",
		"",
	}, "\n")
	if string(raw) != want {
		t.Errorf("Trace content mismatch.\nExpected:\n%s\nGot:\n%s", want, string(raw))
	}
}

func TestTraceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.csv")

	tw, err := NewTraceWriter(path, 1, "roundtrip")
	if err != nil {
		t.Fatalf("NewTraceWriter failed: %v", err)
	}
	tw.Add(10, models.OrderTypeMarket, models.SideSell, models.NoPrice, 3)
	tw.Add(11, models.OrderTypeFillOrKill, models.SideBuy, 101, 15)
	tw.Modify(10, models.SideBuy, 102, 4)
	tw.Cancel(11)
	tw.Match()
	if err := tw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	tr, err := OpenTrace(path)
	if err != nil {
		t.Fatalf("OpenTrace failed: %v", err)
	}
	defer tr.Close()

	want := []TraceOp{
		{Op: OpAdd, ID: 10, Type: models.OrderTypeMarket, Side: models.SideSell, Price: models.NoPrice, Qty: 3},
		{Op: OpAdd, ID: 11, Type: models.OrderTypeFillOrKill, Side: models.SideBuy, Price: 101, Qty: 15},
		{Op: OpModify, ID: 10, Side: models.SideBuy, Price: 102, Qty: 4},
		{Op: OpCancel, ID: 11},
		{Op: OpMatch},
	}
	for i, w := range want {
		op, err := tr.Next()
		if err != nil {
			t.Fatalf("Next %d failed: %v", i, err)
		}
		if op != w {
			t.Errorf("Op %d: expected %+v, got %+v", i, w, op)
		}
	}
	if _, err := tr.Next(); err != io.EOF {
		t.Errorf("Expected io.EOF at end of trace, got %v", err)
	}
}

func TestTraceReaderReportsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.csv")
	content := strings.Join([]string{
		"# seed=1,scenario=bad",
		"ADD,1,0,1,100,10",
		"garbage line",
		"ADD,2,0,1",
		"NOPE,3",
		"MATCH,extra",
		"CANCEL,1",
	}, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	tr, err := OpenTrace(path)
	if err != nil {
		t.Fatalf("OpenTrace failed: %v", err)
	}
	defer tr.Close()

	// First record parses.
	op, err := tr.Next()
	if err != nil || op.Op != OpAdd || op.ID != 1 {
		t.Fatalf("First record: got %+v, %v", op, err)
	}
	if tr.Line() != 2 {
		t.Errorf("Expected line 2, got %d", tr.Line())
	}

	// Four malformed lines in a row, each reported and survivable.
	for i := 0; i < 4; i++ {
		_, err := tr.Next()
		if !errors.Is(err, ErrMalformedRecord) {
			t.Fatalf("Malformed line %d: expected ErrMalformedRecord, got %v", i, err)
		}
	}
	if tr.Line() != 6 {
		t.Errorf("Expected line 6 after the malformed run, got %d", tr.Line())
	}
	if tr.Text() != "MATCH,extra" {
		t.Errorf("Expected raw text of the last offending line, got %q", tr.Text())
	}

	// The reader recovers and parses the final good record.
	op, err = tr.Next()
	if err != nil || op.Op != OpCancel || op.ID != 1 {
		t.Fatalf("Final record: got %+v, %v", op, err)
	}
	if _, err := tr.Next(); err != io.EOF {
		t.Errorf("Expected io.EOF, got %v", err)
	}
}

func TestTraceReaderSkipsCommentsAndBlanks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.csv")
	content := "# seed=9,scenario=sparse\n\nADD,1,0,0,50,2\n\n# mid comment\nMATCH\n\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	tr, err := OpenTrace(path)
	if err != nil {
		t.Fatalf("OpenTrace failed: %v", err)
	}
	defer tr.Close()

	op, err := tr.Next()
	if err != nil || op.Op != OpAdd {
		t.Fatalf("Expected ADD, got %+v, %v", op, err)
	}
	op, err = tr.Next()
	if err != nil || op.Op != OpMatch {
		t.Fatalf("Expected MATCH, got %+v, %v", op, err)
	}
	if _, err := tr.Next(); err != io.EOF {
		t.Errorf("Expected io.EOF, got %v", err)
	}
}

func TestTraceReaderHandlesCRLF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.csv")
	content := "# seed=1,scenario=crlf\r\nADD,5,0,1,10,1\r\nCANCEL,5\r\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	tr, err := OpenTrace(path)
	if err != nil {
		t.Fatalf("OpenTrace failed: %v", err)
	}
	defer tr.Close()

	op, err := tr.Next()
	if err != nil || op.Op != OpAdd || op.Qty != 1 {
		t.Fatalf("Expected ADD qty 1, got %+v, %v", op, err)
	}
	op, err = tr.Next()
	if err != nil || op.Op != OpCancel || op.ID != 5 {
		t.Fatalf("Expected CANCEL 5, got %+v, %v", op, err)
	}
}

func TestTraceWriterStickyError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.csv")

	tw, err := NewTraceWriter(path, 3, "sticky")
	if err != nil {
		t.Fatalf("NewTraceWriter failed: %v", err)
	}

	// Close the file underneath the writer; once the buffer fills, the
	// flush fails and the error sticks.
	tw.file.Close()
	for i := 0; i < 5000; i++ {
		tw.Add(models.OrderID(i+1), models.OrderTypeGoodTillCancel, models.SideBuy, 100, 10)
	}

	if tw.Err() == nil {
		t.Fatal("Expected a sticky write error")
	}
	if err := tw.Close(); err == nil {
		t.Error("Close should surface the sticky error")
	}
}

func TestOpenTraceMissingFile(t *testing.T) {
	if _, err := OpenTrace(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Error("Expected error for missing trace")
	}
}
