package models

// LevelInfo is the aggregate view of one price level: the level price
// and the sum of remaining quantities resting there.
type LevelInfo struct {
	Price    Price
	Quantity Quantity
}

// LevelInfos is a point-in-time aggregate view of the whole book.
// Bids are ordered best-first (descending price), asks best-first
// (ascending price).
type LevelInfos struct {
	Bids []LevelInfo
	Asks []LevelInfo
}
