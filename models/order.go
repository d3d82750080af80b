package models

import (
	"fmt"
	"math"
)

// Price is a signed price in integer ticks.
type Price int64

// Quantity is an order or trade quantity.
type Quantity uint64

// OrderID identifies an order. IDs are assigned by the caller and are
// never reused while the order is live.
type OrderID uint64

// NoPrice marks an order that carries no meaningful price, i.e. a
// Market order before it is coerced onto the book.
const NoPrice Price = math.MinInt64

// Synthetic prices applied when a Market order is coerced to
// ImmediateOrCancel: aggressive enough to cross any opposing level.
const (
	MarketBuyPrice  Price = math.MaxInt64
	MarketSellPrice Price = math.MinInt64
)

// Side represents the side of an order (buy or sell). The numeric
// values are the wire encoding used by event logs and traces.
type Side uint8

const (
	SideSell Side = 0
	SideBuy  Side = 1
)

// Valid reports whether s is a known side.
func (s Side) Valid() bool {
	return s == SideSell || s == SideBuy
}

// Opposite returns the opposing side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return fmt.Sprintf("side(%d)", uint8(s))
	}
}

// OrderType represents the time-in-force of an order. The numeric
// values are the wire encoding used by traces.
type OrderType uint8

const (
	OrderTypeGoodTillCancel    OrderType = 0
	OrderTypeImmediateOrCancel OrderType = 1
	OrderTypeFillOrKill        OrderType = 2
	OrderTypeMarket            OrderType = 3
)

// Valid reports whether t is a known order type.
func (t OrderType) Valid() bool {
	return t <= OrderTypeMarket
}

func (t OrderType) String() string {
	switch t {
	case OrderTypeGoodTillCancel:
		return "good_till_cancel"
	case OrderTypeImmediateOrCancel:
		return "immediate_or_cancel"
	case OrderTypeFillOrKill:
		return "fill_or_kill"
	case OrderTypeMarket:
		return "market"
	default:
		return fmt.Sprintf("order_type(%d)", uint8(t))
	}
}

// Order represents a single order held by the book. The book owns the
// order once submitted; callers must not mutate it afterwards.
type Order struct {
	ID                OrderID
	Side              Side
	Type              OrderType
	Price             Price
	InitialQuantity   Quantity
	RemainingQuantity Quantity
}

// NewOrder creates a priced order with its full quantity remaining.
func NewOrder(orderType OrderType, id OrderID, side Side, price Price, quantity Quantity) *Order {
	return &Order{
		ID:                id,
		Side:              side,
		Type:              orderType,
		Price:             price,
		InitialQuantity:   quantity,
		RemainingQuantity: quantity,
	}
}

// NewMarketOrder creates a Market order. It carries NoPrice until the
// book coerces it to ImmediateOrCancel at a synthetic price.
func NewMarketOrder(id OrderID, side Side, quantity Quantity) *Order {
	return NewOrder(OrderTypeMarket, id, side, NoPrice, quantity)
}

// FilledQuantity returns the quantity filled so far.
func (o *Order) FilledQuantity() Quantity {
	return o.InitialQuantity - o.RemainingQuantity
}

// IsFilled checks if the order is completely filled.
func (o *Order) IsFilled() bool {
	return o.RemainingQuantity == 0
}

// Fill consumes quantity from the order. Filling more than the
// remaining quantity is a programmer error and panics.
func (o *Order) Fill(quantity Quantity) {
	if quantity > o.RemainingQuantity {
		panic(fmt.Sprintf("models: order %d: fill %d exceeds remaining %d",
			o.ID, quantity, o.RemainingQuantity))
	}
	o.RemainingQuantity -= quantity
}

// ToImmediateOrCancel rewrites a Market order in place to an
// ImmediateOrCancel at the given synthetic price. Calling it on a
// non-Market order is a programmer error and panics.
func (o *Order) ToImmediateOrCancel(price Price) {
	if o.Type != OrderTypeMarket {
		panic(fmt.Sprintf("models: order %d: cannot coerce %s order to immediate_or_cancel",
			o.ID, o.Type))
	}
	o.Type = OrderTypeImmediateOrCancel
	o.Price = price
}

// OrderModify describes a modification of a live order: new side, new
// price, new quantity. The order type is inherited from the original.
type OrderModify struct {
	ID       OrderID
	Side     Side
	Price    Price
	Quantity Quantity
}

// NewOrderModify creates a modification request for the given order.
func NewOrderModify(id OrderID, side Side, price Price, quantity Quantity) OrderModify {
	return OrderModify{
		ID:       id,
		Side:     side,
		Price:    price,
		Quantity: quantity,
	}
}

// ToOrder materializes the replacement order, inheriting the original
// order's type.
func (m OrderModify) ToOrder(orderType OrderType) *Order {
	return NewOrder(orderType, m.ID, m.Side, m.Price, m.Quantity)
}
