package engine

import (
	"container/list"

	"github.com/google/btree"

	"github.com/Bala432/order-matching-engine/models"
)

// PriceLevel holds the FIFO queue of orders resting at one price.
type PriceLevel struct {
	Price  models.Price
	Orders *list.List
}

// NewPriceLevel creates a new price level
func NewPriceLevel(price models.Price) *PriceLevel {
	return &PriceLevel{
		Price:  price,
		Orders: list.New(),
	}
}

func (pl *PriceLevel) AddOrder(order *models.Order) *list.Element {
	return pl.Orders.PushBack(order)
}

func (pl *PriceLevel) RemoveOrder(element *list.Element) {
	if element == nil {
		return
	}
	pl.Orders.Remove(element)
}

// TotalQuantity sums the remaining quantities of every order at the level.
func (pl *PriceLevel) TotalQuantity() models.Quantity {
	var total models.Quantity
	for e := pl.Orders.Front(); e != nil; e = e.Next() {
		order := e.Value.(*models.Order)
		total += order.RemainingQuantity
	}
	return total
}

func (pl *PriceLevel) IsEmpty() bool {
	return pl.Orders.Len() == 0
}

func (pl *PriceLevel) Less(than btree.Item) bool {
	other := than.(*PriceLevel)
	return pl.Price < other.Price
}

type OrderBookSide struct {
	tree *btree.BTree
}

func NewOrderBookSide() *OrderBookSide {
	return &OrderBookSide{
		tree: btree.New(32),
	}
}

func (obs *OrderBookSide) GetOrCreatePriceLevel(price models.Price) *PriceLevel {
	searchLevel := &PriceLevel{Price: price}

	if item := obs.tree.Get(searchLevel); item != nil {
		return item.(*PriceLevel)
	}

	newLevel := NewPriceLevel(price)
	obs.tree.ReplaceOrInsert(newLevel)
	return newLevel
}

func (obs *OrderBookSide) GetPriceLevel(price models.Price) *PriceLevel {
	searchLevel := &PriceLevel{Price: price}
	if item := obs.tree.Get(searchLevel); item != nil {
		return item.(*PriceLevel)
	}
	return nil
}

// RemovePriceLevel removes a price level from the tree
func (obs *OrderBookSide) RemovePriceLevel(price models.Price) {
	searchLevel := &PriceLevel{Price: price}
	obs.tree.Delete(searchLevel)
}

// GetBestPrice returns the best price level (highest for bids, lowest for asks)
func (obs *OrderBookSide) GetBestPrice(isBid bool) *PriceLevel {
	var item btree.Item
	if isBid {
		item = obs.tree.Max()
	} else {
		item = obs.tree.Min()
	}

	if item != nil {
		return item.(*PriceLevel)
	}
	return nil
}

// Ascend iterates through price levels in ascending order
func (obs *OrderBookSide) Ascend(iterator btree.ItemIterator) {
	obs.tree.Ascend(iterator)
}

// Descend iterates through price levels in descending order
func (obs *OrderBookSide) Descend(iterator btree.ItemIterator) {
	obs.tree.Descend(iterator)
}

// Len returns the number of price levels
func (obs *OrderBookSide) Len() int {
	return obs.tree.Len()
}

// OrderLocation tracks where an order is in the order book
type OrderLocation struct {
	Order      *models.Order
	PriceLevel *PriceLevel
	Element    *list.Element
}

// OrderBook is a single-instrument price-time priority book. It is
// single-threaded: every operation runs to completion on the caller's
// goroutine, and callers that share one book serialize access
// themselves.
type OrderBook struct {
	Bids   *OrderBookSide                    // Buy orders (best = highest price)
	Asks   *OrderBookSide                    // Sell orders (best = lowest price)
	Orders map[models.OrderID]*OrderLocation // Fast O(1) lookup by order ID

	bidCount int
	askCount int

	// Cached best prices; 0 while the corresponding side is empty.
	bestBid models.Price
	bestAsk models.Price

	matchedOrders uint64

	eventsEnabled bool
	eventSeq      uint64
	observer      EventObserver
}

// NewOrderBook creates an empty order book
func NewOrderBook() *OrderBook {
	return &OrderBook{
		Bids:   NewOrderBookSide(),
		Asks:   NewOrderBookSide(),
		Orders: make(map[models.OrderID]*OrderLocation),
	}
}

func (ob *OrderBook) sideFor(side models.Side) *OrderBookSide {
	if side == models.SideBuy {
		return ob.Bids
	}
	return ob.Asks
}

// insertOrder appends the order at the tail of its price level queue
// (FIFO / time priority) and records its location. No events, no
// matching.
func (ob *OrderBook) insertOrder(order *models.Order) {
	side := ob.sideFor(order.Side)
	priceLevel := side.GetOrCreatePriceLevel(order.Price)
	element := priceLevel.AddOrder(order)

	ob.Orders[order.ID] = &OrderLocation{
		Order:      order,
		PriceLevel: priceLevel,
		Element:    element,
	}
	if order.Side == models.SideBuy {
		ob.bidCount++
	} else {
		ob.askCount++
	}
}

// removeOrder splices an order out of its level queue and the index,
// dropping the level if it became empty. Returns nil for unknown ids.
func (ob *OrderBook) removeOrder(orderID models.OrderID) *models.Order {
	location, exists := ob.Orders[orderID]
	if !exists {
		return nil
	}

	order := location.Order
	location.PriceLevel.RemoveOrder(location.Element)

	if location.PriceLevel.IsEmpty() {
		ob.sideFor(order.Side).RemovePriceLevel(location.PriceLevel.Price)
	}

	delete(ob.Orders, orderID)
	if order.Side == models.SideBuy {
		ob.bidCount--
	} else {
		ob.askCount--
	}

	return order
}

// updateBestPrices refreshes the cached best bid/ask from the side
// trees. An empty side caches 0.
func (ob *OrderBook) updateBestPrices() {
	if level := ob.Bids.GetBestPrice(true); level != nil {
		ob.bestBid = level.Price
	} else {
		ob.bestBid = 0
	}
	if level := ob.Asks.GetBestPrice(false); level != nil {
		ob.bestAsk = level.Price
	} else {
		ob.bestAsk = 0
	}
}

// GetOrder retrieves a resting order by ID (O(1) lookup). Returns nil
// if the order is not in the book.
func (ob *OrderBook) GetOrder(orderID models.OrderID) *models.Order {
	location, exists := ob.Orders[orderID]
	if !exists {
		return nil
	}
	return location.Order
}

// Size returns the total number of orders resting in the book
func (ob *OrderBook) Size() int {
	return len(ob.Orders)
}

// GetMatchedOrders returns the cumulative number of trades executed
func (ob *OrderBook) GetMatchedOrders() uint64 {
	return ob.matchedOrders
}

// GetBestBidPrice returns the cached best bid price, 0 if there are no bids
func (ob *OrderBook) GetBestBidPrice() models.Price {
	return ob.bestBid
}

// GetBestAskPrice returns the cached best ask price, 0 if there are no asks
func (ob *OrderBook) GetBestAskPrice() models.Price {
	return ob.bestAsk
}

// GetBidDepth returns the number of buy orders in the book
func (ob *OrderBook) GetBidDepth() int {
	return ob.bidCount
}

// GetAskDepth returns the number of sell orders in the book
func (ob *OrderBook) GetAskDepth() int {
	return ob.askCount
}

// GetOrderInfos aggregates the book into per-level totals: bids
// best-first (descending price), asks best-first (ascending price).
func (ob *OrderBook) GetOrderInfos() models.LevelInfos {
	infos := models.LevelInfos{
		Bids: make([]models.LevelInfo, 0, ob.Bids.Len()),
		Asks: make([]models.LevelInfo, 0, ob.Asks.Len()),
	}

	ob.Bids.Descend(func(item btree.Item) bool {
		level := item.(*PriceLevel)
		infos.Bids = append(infos.Bids, models.LevelInfo{
			Price:    level.Price,
			Quantity: level.TotalQuantity(),
		})
		return true
	})

	ob.Asks.Ascend(func(item btree.Item) bool {
		level := item.(*PriceLevel)
		infos.Asks = append(infos.Asks, models.LevelInfo{
			Price:    level.Price,
			Quantity: level.TotalQuantity(),
		})
		return true
	})

	return infos
}
