package engine

import (
	"github.com/Bala432/order-matching-engine/logging"
	"github.com/Bala432/order-matching-engine/metrics"
	"github.com/Bala432/order-matching-engine/models"
)

// EventType identifies one entry of the book event stream. The numeric
// values are the wire encoding used by event logs.
type EventType uint8

const (
	EventTypeAdd    EventType = 1
	EventTypeCancel EventType = 2
	EventTypeTrade  EventType = 3
	EventTypeModify EventType = 4
)

func (t EventType) String() string {
	switch t {
	case EventTypeAdd:
		return "add"
	case EventTypeCancel:
		return "cancel"
	case EventTypeTrade:
		return "trade"
	case EventTypeModify:
		return "modify"
	default:
		return "unknown"
	}
}

// EventSideNA marks events that belong to no single side (trades).
const EventSideNA uint8 = 255

// Event is one sequenced entry of the book event stream. For non-trade
// events OrderID2 is 0 and Side is the models wire encoding (0 sell,
// 1 buy); for trades OrderID is the bid leg, OrderID2 the ask leg and
// Side is EventSideNA.
type Event struct {
	Seq      uint64
	Type     EventType
	OrderID  models.OrderID
	OrderID2 models.OrderID
	Price    models.Price
	Qty      models.Quantity
	Side     uint8
}

// EventObserver receives events synchronously, on the goroutine running
// the book operation, in sequence order. Observers must not call back
// into the book.
type EventObserver func(Event)

// EnableEvents switches event emission on or off. While disabled, no
// events are emitted and the sequence counter does not advance.
func (ob *OrderBook) EnableEvents(enabled bool) {
	ob.eventsEnabled = enabled
}

// SetObserver installs the event observer. A nil observer uninstalls;
// sequence numbers still advance while events are enabled.
func (ob *OrderBook) SetObserver(observer EventObserver) {
	ob.observer = observer
}

// emitEvent assigns the next sequence number and delivers the event to
// the observer, if any.
func (ob *OrderBook) emitEvent(e Event) {
	if !ob.eventsEnabled {
		return
	}
	e.Seq = ob.eventSeq
	ob.eventSeq++
	metrics.RecordEventEmitted(e.Type.String())

	if ob.observer == nil {
		return
	}
	ob.deliverEvent(e)
}

// deliverEvent invokes the observer, trapping panics at the boundary so
// a failing observer cannot abort or corrupt the operation in progress.
func (ob *OrderBook) deliverEvent(e Event) {
	defer func() {
		if r := recover(); r != nil {
			logging.LogObserverPanic(e.Seq, e.Type.String(), r)
		}
	}()
	ob.observer(e)
}

func (ob *OrderBook) emitAdd(order *models.Order) {
	ob.emitEvent(Event{
		Type:    EventTypeAdd,
		OrderID: order.ID,
		Price:   order.Price,
		Qty:     order.InitialQuantity,
		Side:    uint8(order.Side),
	})
}

func (ob *OrderBook) emitCancel(order *models.Order) {
	ob.emitEvent(Event{
		Type:    EventTypeCancel,
		OrderID: order.ID,
		Price:   order.Price,
		Qty:     order.RemainingQuantity,
		Side:    uint8(order.Side),
	})
}

func (ob *OrderBook) emitTrade(bidID, askID models.OrderID, price models.Price, qty models.Quantity) {
	ob.emitEvent(Event{
		Type:     EventTypeTrade,
		OrderID:  bidID,
		OrderID2: askID,
		Price:    price,
		Qty:      qty,
		Side:     EventSideNA,
	})
}

func (ob *OrderBook) emitModify(modify models.OrderModify) {
	ob.emitEvent(Event{
		Type:    EventTypeModify,
		OrderID: modify.ID,
		Price:   modify.Price,
		Qty:     modify.Quantity,
		Side:    uint8(modify.Side),
	})
}
