package persistence

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Bala432/order-matching-engine/engine"
	"github.com/Bala432/order-matching-engine/models"
)

func TestEventWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.csv")

	ew, err := NewEventWriter(path)
	if err != nil {
		t.Fatalf("NewEventWriter failed: %v", err)
	}

	want := []engine.Event{
		{Seq: 0, Type: engine.EventTypeAdd, OrderID: 1, Price: 100, Qty: 10, Side: uint8(models.SideSell)},
		{Seq: 1, Type: engine.EventTypeAdd, OrderID: 2, Price: 100, Qty: 4, Side: uint8(models.SideBuy)},
		{Seq: 2, Type: engine.EventTypeTrade, OrderID: 2, OrderID2: 1, Price: 100, Qty: 4, Side: engine.EventSideNA},
		{Seq: 3, Type: engine.EventTypeCancel, OrderID: 1, Price: 100, Qty: 6, Side: uint8(models.SideSell)},
	}
	for _, e := range want {
		ew.Append(e)
	}
	if err := ew.Err(); err != nil {
		t.Fatalf("unexpected writer error: %v", err)
	}
	if err := ew.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	got, err := ReadEventLog(path)
	if err != nil {
		t.Fatalf("ReadEventLog failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d events, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Event %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestEventLogStartsWithHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.csv")

	ew, err := NewEventWriter(path)
	if err != nil {
		t.Fatalf("NewEventWriter failed: %v", err)
	}
	ew.Append(engine.Event{Seq: 0, Type: engine.EventTypeAdd, OrderID: 1, Price: 5, Qty: 1, Side: 1})
	if err := ew.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected header plus 1 record, got %d lines", len(lines))
	}
	if lines[0] != EventLogHeader {
		t.Errorf("Expected header %q, got %q", EventLogHeader, lines[0])
	}
	if lines[1] != "0,1,1,0,5,1,1" {
		t.Errorf("Unexpected record line %q", lines[1])
	}
}

func TestEventWriterAsBookObserver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.csv")

	ew, err := NewEventWriter(path)
	if err != nil {
		t.Fatalf("NewEventWriter failed: %v", err)
	}

	book := engine.NewOrderBook()
	book.EnableEvents(true)
	book.SetObserver(ew.Observer())

	book.AddOrder(models.NewOrder(models.OrderTypeGoodTillCancel, 1, models.SideSell, 100, 10))
	book.AddOrder(models.NewOrder(models.OrderTypeGoodTillCancel, 2, models.SideBuy, 100, 10))
	book.SetObserver(nil)

	if err := ew.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	events, err := ReadEventLog(path)
	if err != nil {
		t.Fatalf("ReadEventLog failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("Expected add, add, trade; got %d events", len(events))
	}
	for i, e := range events {
		if e.Seq != uint64(i) {
			t.Errorf("Event %d: expected seq %d, got %d", i, i, e.Seq)
		}
	}
	if events[2].Type != engine.EventTypeTrade || events[2].OrderID != 2 || events[2].OrderID2 != 1 {
		t.Errorf("Trade event wrong: %+v", events[2])
	}
}

func TestReadEventLogSkipsCommentsAndBlanks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.csv")
	content := EventLogHeader + "\n" +
		"\n" +
		"# trailing commentary\n" +
		"0,1,7,0,42,3,1\n" +
		"\n" +
		"1,2,7,0,42,3,1\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	events, err := ReadEventLog(path)
	if err != nil {
		t.Fatalf("ReadEventLog failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].OrderID != 7 || events[1].Type != engine.EventTypeCancel {
		t.Errorf("Parsed events wrong: %+v", events)
	}
}

func TestReadEventLogRejectsBadRecord(t *testing.T) {
	dir := t.TempDir()

	badArity := filepath.Join(dir, "arity.csv")
	if err := os.WriteFile(badArity, []byte("0,1,7,0,42,3\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := ReadEventLog(badArity); err == nil {
		t.Error("Expected error for 6-field record")
	}

	badNumber := filepath.Join(dir, "number.csv")
	if err := os.WriteFile(badNumber, []byte("0,1,x,0,42,3,1\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := ReadEventLog(badNumber); err == nil {
		t.Error("Expected error for non-numeric order id")
	}
}

func TestNewEventWriterBadPath(t *testing.T) {
	if _, err := NewEventWriter(filepath.Join(t.TempDir(), "missing", "events.csv")); err == nil {
		t.Error("Expected error for unwritable path")
	}
}

func TestReadEventLogMissingFile(t *testing.T) {
	if _, err := ReadEventLog(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Error("Expected error for missing file")
	}
}
