package engine

import (
	"github.com/google/btree"

	"github.com/Bala432/order-matching-engine/metrics"
	"github.com/Bala432/order-matching-engine/models"
)

// AddOrder submits an order to the book. Market orders are coerced to
// ImmediateOrCancel at a synthetic aggressive price before insertion;
// IOC orders that cannot trade immediately and FillOrKill orders that
// cannot fill completely are rejected without touching the book or the
// event stream. A duplicate order id is rejected silently. Returns the
// trades executed by this submission, in execution order.
func (ob *OrderBook) AddOrder(order *models.Order) []models.Trade {
	if _, exists := ob.Orders[order.ID]; exists {
		metrics.RecordOrderRejected(metrics.ReasonDuplicateID)
		return nil
	}

	metrics.RecordOrderSubmitted(order.Side.String(), order.Type.String())

	if order.Type == models.OrderTypeMarket {
		// Aggressive enough to cross every opposing level; the
		// unfilled remainder is swept by the post-match cleanup.
		if order.Side == models.SideBuy {
			order.ToImmediateOrCancel(models.MarketBuyPrice)
		} else {
			order.ToImmediateOrCancel(models.MarketSellPrice)
		}
	} else if order.Type == models.OrderTypeImmediateOrCancel {
		if !ob.canMatch(order.Side, order.Price) {
			metrics.RecordOrderRejected(metrics.ReasonNoMatch)
			return nil
		}
	} else if order.Type == models.OrderTypeFillOrKill {
		if !ob.canFullyFill(order.Side, order.Price, order.InitialQuantity) {
			metrics.RecordOrderRejected(metrics.ReasonCannotFill)
			return nil
		}
	}

	ob.insertOrder(order)
	ob.updateBestPrices()
	ob.emitAdd(order)

	return ob.MatchOrders()
}

// CancelOrder removes a resting order from the book. Cancelling an
// unknown or already-removed id is a no-op, so cancellation is
// idempotent.
func (ob *OrderBook) CancelOrder(orderID models.OrderID) {
	order := ob.removeOrder(orderID)
	if order == nil {
		return
	}

	ob.emitCancel(order)
	ob.updateBestPrices()

	metrics.RecordOrderCancelled(order.Side.String())
	ob.publishBookMetrics()
}

// ModifyOrder replaces a resting order with a new side, price and
// quantity, losing time priority. The replacement inherits the original
// order's type. An unknown id is a no-op. Returns the trades executed
// by re-adding the replacement.
func (ob *OrderBook) ModifyOrder(modify models.OrderModify) []models.Trade {
	location, exists := ob.Orders[modify.ID]
	if !exists {
		return nil
	}
	orderType := location.Order.Type

	// The modification intent is logged before the cancel/re-add
	// cascade it triggers.
	ob.emitModify(modify)

	ob.CancelOrder(modify.ID)
	return ob.AddOrder(modify.ToOrder(orderType))
}

// MatchOrders crosses the book: while the best bid price is at or above
// the best ask price, the front orders of the two best levels trade
// against each other at the ask order's price. Afterwards every non-GTC
// order still resting is cancelled. Returns the trades in execution
// order.
func (ob *OrderBook) MatchOrders() []models.Trade {
	var trades []models.Trade

	for {
		bidLevel := ob.Bids.GetBestPrice(true)
		askLevel := ob.Asks.GetBestPrice(false)
		if bidLevel == nil || askLevel == nil {
			break
		}
		if bidLevel.Price < askLevel.Price {
			break
		}

		for !bidLevel.IsEmpty() && !askLevel.IsEmpty() {
			bid := bidLevel.Orders.Front().Value.(*models.Order)
			ask := askLevel.Orders.Front().Value.(*models.Order)

			quantity := bid.RemainingQuantity
			if ask.RemainingQuantity < quantity {
				quantity = ask.RemainingQuantity
			}

			bid.Fill(quantity)
			ask.Fill(quantity)

			tradePrice := ask.Price
			trades = append(trades, models.NewTrade(
				models.TradeLeg{OrderID: bid.ID, Price: tradePrice, Quantity: quantity},
				models.TradeLeg{OrderID: ask.ID, Price: tradePrice, Quantity: quantity},
			))
			ob.matchedOrders++
			metrics.RecordTrade(float64(quantity))

			ob.emitTrade(bid.ID, ask.ID, tradePrice, quantity)

			if bid.IsFilled() {
				ob.removeOrder(bid.ID)
			}
			if ask.IsFilled() {
				ob.removeOrder(ask.ID)
			}
		}

		if bidLevel.IsEmpty() {
			ob.Bids.RemovePriceLevel(bidLevel.Price)
		}
		if askLevel.IsEmpty() {
			ob.Asks.RemovePriceLevel(askLevel.Price)
		}
	}

	ob.sweepNonGTC(ob.Bids, true)
	ob.sweepNonGTC(ob.Asks, false)

	ob.updateBestPrices()
	ob.publishBookMetrics()

	return trades
}

// canMatch reports whether an order at the given side and price would
// cross the opposing best level.
func (ob *OrderBook) canMatch(side models.Side, price models.Price) bool {
	if side == models.SideBuy {
		bestAsk := ob.Asks.GetBestPrice(false)
		return bestAsk != nil && price >= bestAsk.Price
	}
	bestBid := ob.Bids.GetBestPrice(true)
	return bestBid != nil && price <= bestBid.Price
}

// canFullyFill reports whether a FillOrKill order could be filled
// completely from the opposing levels tradeable at its price.
func (ob *OrderBook) canFullyFill(side models.Side, price models.Price, quantity models.Quantity) bool {
	if !ob.canMatch(side, price) {
		return false
	}

	var available models.Quantity
	filled := false
	walk := func(item btree.Item) bool {
		level := item.(*PriceLevel)
		if side == models.SideBuy && level.Price > price {
			return false
		}
		if side == models.SideSell && level.Price < price {
			return false
		}
		available += level.TotalQuantity()
		if available >= quantity {
			filled = true
			return false
		}
		return true
	}

	if side == models.SideBuy {
		ob.Asks.Ascend(walk)
	} else {
		ob.Bids.Descend(walk)
	}
	return filled
}

// sweepNonGTC cancels every non-GTC order still resting on one side
// after a matching pass. Ids are collected first so cancellation does
// not mutate the tree mid-iteration.
func (ob *OrderBook) sweepNonGTC(side *OrderBookSide, isBid bool) {
	var toCancel []models.OrderID
	collect := func(item btree.Item) bool {
		level := item.(*PriceLevel)
		for e := level.Orders.Front(); e != nil; e = e.Next() {
			order := e.Value.(*models.Order)
			if order.Type != models.OrderTypeGoodTillCancel {
				toCancel = append(toCancel, order.ID)
			}
		}
		return true
	}

	if isBid {
		side.Descend(collect)
	} else {
		side.Ascend(collect)
	}

	for _, id := range toCancel {
		ob.CancelOrder(id)
	}
}

func (ob *OrderBook) publishBookMetrics() {
	metrics.UpdateBookDepth(float64(ob.bidCount), float64(ob.askCount))
	metrics.UpdateBestPrices(float64(ob.bestBid), float64(ob.bestAsk),
		ob.bidCount > 0, ob.askCount > 0)
}
