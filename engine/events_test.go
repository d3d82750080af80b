package engine

import (
	"testing"

	"github.com/Bala432/order-matching-engine/models"
)

// captureEvents enables emission on the book and records every event.
func captureEvents(ob *OrderBook) *[]Event {
	events := &[]Event{}
	ob.EnableEvents(true)
	ob.SetObserver(func(e Event) {
		*events = append(*events, e)
	})
	return events
}

func TestEventsDisabledByDefault(t *testing.T) {
	ob := NewOrderBook()
	var events []Event
	ob.SetObserver(func(e Event) {
		events = append(events, e)
	})

	ob.AddOrder(newLimitOrder(1, models.SideBuy, 100, 10))
	ob.CancelOrder(1)

	if len(events) != 0 {
		t.Errorf("Expected no events while disabled, got %d", len(events))
	}
}

func TestEventStreamForAddTradeCancel(t *testing.T) {
	ob := NewOrderBook()
	events := captureEvents(ob)

	ob.AddOrder(newLimitOrder(1, models.SideSell, 100, 10))
	ob.AddOrder(newLimitOrder(2, models.SideBuy, 100, 4))
	ob.CancelOrder(1)

	got := *events
	if len(got) != 4 {
		t.Fatalf("Expected 4 events (add, add, trade, cancel), got %d", len(got))
	}

	wantTypes := []EventType{EventTypeAdd, EventTypeAdd, EventTypeTrade, EventTypeCancel}
	for i, e := range got {
		if e.Seq != uint64(i) {
			t.Errorf("Event %d: expected dense seq %d, got %d", i, i, e.Seq)
		}
		if e.Type != wantTypes[i] {
			t.Errorf("Event %d: expected type %s, got %s", i, wantTypes[i], e.Type)
		}
	}

	add := got[0]
	if add.OrderID != 1 || add.Price != 100 || add.Qty != 10 || add.Side != uint8(models.SideSell) {
		t.Errorf("Add event fields wrong: %+v", add)
	}
	if add.OrderID2 != 0 {
		t.Errorf("Add event must not carry a second order id, got %d", add.OrderID2)
	}

	trade := got[2]
	if trade.OrderID != 2 || trade.OrderID2 != 1 {
		t.Errorf("Trade event legs wrong: bid %d ask %d", trade.OrderID, trade.OrderID2)
	}
	if trade.Price != 100 || trade.Qty != 4 {
		t.Errorf("Trade event price/qty wrong: %d/%d", trade.Price, trade.Qty)
	}
	if trade.Side != EventSideNA {
		t.Errorf("Trade event side should be NA, got %d", trade.Side)
	}

	cancel := got[3]
	if cancel.OrderID != 1 || cancel.Qty != 6 {
		t.Errorf("Cancel event should carry the remaining quantity 6, got %+v", cancel)
	}
}

func TestMarketOrderEventsCarrySyntheticPrice(t *testing.T) {
	ob := NewOrderBook()
	events := captureEvents(ob)

	// No asks: the market buy is inserted, then swept.
	ob.AddOrder(models.NewMarketOrder(1, models.SideBuy, 10))

	got := *events
	if len(got) != 2 {
		t.Fatalf("Expected add and cancel, got %d events", len(got))
	}
	if got[0].Type != EventTypeAdd || got[0].Price != models.MarketBuyPrice {
		t.Errorf("Add event should expose the coerced price, got %+v", got[0])
	}
	if got[1].Type != EventTypeCancel || got[1].Qty != 10 {
		t.Errorf("Sweep cancel should carry the full remainder, got %+v", got[1])
	}
}

func TestIOCRemainderEmitsCancel(t *testing.T) {
	ob := NewOrderBook()
	events := captureEvents(ob)

	ob.AddOrder(newLimitOrder(1, models.SideSell, 100, 4))
	ob.AddOrder(newIOCOrder(2, models.SideBuy, 100, 10))

	got := *events
	if len(got) != 4 {
		t.Fatalf("Expected add, add, trade, cancel, got %d events", len(got))
	}
	if got[2].Type != EventTypeTrade || got[2].Qty != 4 || got[2].Price != 100 {
		t.Errorf("Trade event wrong: %+v", got[2])
	}
	sweep := got[3]
	if sweep.Type != EventTypeCancel || sweep.OrderID != 2 || sweep.Qty != 6 {
		t.Errorf("Remainder cancel should name the taker with quantity 6, got %+v", sweep)
	}
	if ob.Size() != 0 {
		t.Errorf("Nothing should rest after the sweep, got size %d", ob.Size())
	}
}

func TestRejectedOrdersEmitNoEvents(t *testing.T) {
	ob := NewOrderBook()
	ob.AddOrder(newLimitOrder(1, models.SideSell, 100, 10))
	events := captureEvents(ob)

	ob.AddOrder(newIOCOrder(2, models.SideBuy, 99, 5))    // does not cross
	ob.AddOrder(newFOKOrder(3, models.SideBuy, 100, 20))  // cannot fully fill
	ob.AddOrder(newLimitOrder(1, models.SideBuy, 105, 5)) // duplicate id

	if len(*events) != 0 {
		t.Errorf("Expected no events for rejected orders, got %d", len(*events))
	}
	if ob.Size() != 1 {
		t.Errorf("Expected book untouched, got size %d", ob.Size())
	}
}

func TestModifyCascadeEventOrder(t *testing.T) {
	ob := NewOrderBook()
	ob.AddOrder(newLimitOrder(1, models.SideBuy, 100, 10))
	events := captureEvents(ob)

	ob.ModifyOrder(models.NewOrderModify(1, models.SideBuy, 101, 12))

	got := *events
	if len(got) != 3 {
		t.Fatalf("Expected modify, cancel, add; got %d events", len(got))
	}
	if got[0].Type != EventTypeModify || got[0].OrderID != 1 || got[0].Price != 101 || got[0].Qty != 12 {
		t.Errorf("Modify event wrong: %+v", got[0])
	}
	if got[1].Type != EventTypeCancel || got[1].Price != 100 || got[1].Qty != 10 {
		t.Errorf("Cancel of the old order wrong: %+v", got[1])
	}
	if got[2].Type != EventTypeAdd || got[2].Price != 101 || got[2].Qty != 12 {
		t.Errorf("Add of the replacement wrong: %+v", got[2])
	}
}

func TestModifyCascadeWithTrade(t *testing.T) {
	ob := NewOrderBook()
	ob.AddOrder(newLimitOrder(1, models.SideBuy, 95, 10))
	ob.AddOrder(newLimitOrder(2, models.SideSell, 99, 10))
	events := captureEvents(ob)

	// Raising the bid to the ask crosses immediately.
	trades := ob.ModifyOrder(models.NewOrderModify(1, models.SideBuy, 99, 10))
	if len(trades) != 1 {
		t.Fatalf("Expected 1 trade from the modify, got %d", len(trades))
	}

	got := *events
	if len(got) != 4 {
		t.Fatalf("Expected modify, cancel, add, trade; got %d events", len(got))
	}
	wantTypes := []EventType{EventTypeModify, EventTypeCancel, EventTypeAdd, EventTypeTrade}
	for i, e := range got {
		if e.Type != wantTypes[i] {
			t.Errorf("Event %d: expected %s, got %s", i, wantTypes[i], e.Type)
		}
	}

	trade := got[3]
	if trade.OrderID != 1 || trade.OrderID2 != 2 || trade.Price != 99 || trade.Qty != 10 {
		t.Errorf("Trade event wrong: %+v", trade)
	}
	if ob.Size() != 0 {
		t.Errorf("Expected empty book, got size %d", ob.Size())
	}
}

func TestSequenceAdvancesWithoutObserver(t *testing.T) {
	ob := NewOrderBook()
	ob.EnableEvents(true)

	// Two events emitted with nobody listening.
	ob.AddOrder(newLimitOrder(1, models.SideBuy, 100, 10))
	ob.AddOrder(newLimitOrder(2, models.SideBuy, 99, 10))

	var events []Event
	ob.SetObserver(func(e Event) {
		events = append(events, e)
	})
	ob.CancelOrder(1)

	if len(events) != 1 {
		t.Fatalf("Expected 1 observed event, got %d", len(events))
	}
	if events[0].Seq != 2 {
		t.Errorf("Expected seq 2 after two unobserved events, got %d", events[0].Seq)
	}
}

func TestDisablingEventsFreezesSequence(t *testing.T) {
	ob := NewOrderBook()
	events := captureEvents(ob)

	ob.AddOrder(newLimitOrder(1, models.SideBuy, 100, 10)) // seq 0

	ob.EnableEvents(false)
	ob.AddOrder(newLimitOrder(2, models.SideBuy, 99, 10)) // not emitted

	ob.EnableEvents(true)
	ob.CancelOrder(1) // seq 1

	got := *events
	if len(got) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(got))
	}
	if got[1].Seq != 1 {
		t.Errorf("Sequence must not advance while disabled, got seq %d", got[1].Seq)
	}
	if got[1].Type != EventTypeCancel {
		t.Errorf("Expected cancel, got %s", got[1].Type)
	}
}

func TestObserverPanicDoesNotCorruptBook(t *testing.T) {
	ob := NewOrderBook()
	ob.EnableEvents(true)

	calls := 0
	ob.SetObserver(func(e Event) {
		calls++
		panic("observer exploded")
	})

	ob.AddOrder(newLimitOrder(1, models.SideSell, 100, 10))
	ob.AddOrder(newLimitOrder(2, models.SideBuy, 100, 10))

	if calls < 3 {
		t.Errorf("Expected observer to keep being invoked, got %d calls", calls)
	}
	if ob.Size() != 0 {
		t.Errorf("Expected the fill to complete despite panics, got size %d", ob.Size())
	}
	if ob.GetMatchedOrders() != 1 {
		t.Errorf("Expected 1 matched order, got %d", ob.GetMatchedOrders())
	}

	// The stream stays dense afterwards.
	var last Event
	ob.SetObserver(func(e Event) {
		last = e
	})
	ob.AddOrder(newLimitOrder(3, models.SideBuy, 98, 1))
	if last.Seq != 3 {
		t.Errorf("Expected seq 3 after add, add, trade, got %d", last.Seq)
	}
}
