package models

// TradeLeg is one side's view of a fill: the order that traded, the
// price it traded at, and the quantity exchanged.
type TradeLeg struct {
	OrderID  OrderID
	Price    Price
	Quantity Quantity
}

// Trade represents one fill between a bid and an ask. Both legs carry
// the same quantity and, because fills execute at the resting order's
// price, the same price.
type Trade struct {
	Bid TradeLeg
	Ask TradeLeg
}

// NewTrade pairs the two legs of a fill.
func NewTrade(bid, ask TradeLeg) Trade {
	return Trade{Bid: bid, Ask: ask}
}
