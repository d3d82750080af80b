package bench

import (
	"math/rand"

	"github.com/Bala432/order-matching-engine/engine"
	"github.com/Bala432/order-matching-engine/models"
	"github.com/Bala432/order-matching-engine/persistence"
)

// Phase names as they appear in the results CSV.
const (
	PhaseWarmup        = "warmup"
	PhaseBulkInsert    = "bulk_insert"
	PhaseRandomOps     = "random_ops"
	PhaseBestBidStress = "bestbid_stress"
)

// Each phase draws order ids from its own range, keeping ids unique
// across a scenario.
const (
	warmupFirstID models.OrderID = 10
	bulkFirstID   models.OrderID = 1_000_000
	randomFirstID models.OrderID = 2_000_000
)

// Fixed ids of the fill-or-kill fixture orders.
const (
	fokSeedAskID     models.OrderID = 900_001
	fokSeedAskID2    models.OrderID = 900_002
	fokFillableBidID models.OrderID = 900_010
	fokOversizeBidID models.OrderID = 900_011
)

const (
	workloadMaxPrice = 1000
	workloadMaxQty   = 10

	bestBidStressReads uint64 = 200_000
)

// bestPriceSink keeps the query loops' reads observable.
var bestPriceSink models.Price

// scenarioState threads the mutable pieces of a running scenario
// through its phases: the random stream, the book under test, the
// trace being recorded, and the pool of ids believed live.
type scenarioState struct {
	profile   Profile
	scenario  Scenario
	rng       *rand.Rand
	book      *engine.OrderBook
	trace     *persistence.TraceWriter
	liveIDs   []models.OrderID
	nextAddID models.OrderID
}

func newScenarioState(profile Profile, scenario Scenario, seed uint64, book *engine.OrderBook, trace *persistence.TraceWriter) *scenarioState {
	return &scenarioState{
		profile:   profile,
		scenario:  scenario,
		rng:       rand.New(rand.NewSource(int64(seed))),
		book:      book,
		trace:     trace,
		nextAddID: randomFirstID,
	}
}

func (s *scenarioState) drawPrice() models.Price {
	return models.Price(s.rng.Intn(workloadMaxPrice) + 1)
}

func (s *scenarioState) drawQty() models.Quantity {
	return models.Quantity(s.rng.Intn(workloadMaxQty) + 1)
}

// sideForIndex alternates sides: odd indices buy, even indices sell.
func sideForIndex(i uint64) models.Side {
	if i&1 == 1 {
		return models.SideBuy
	}
	return models.SideSell
}

// addLimit traces and submits one limit order.
func (s *scenarioState) addLimit(orderType models.OrderType, id models.OrderID, side models.Side, price models.Price, qty models.Quantity) {
	s.trace.Add(id, orderType, side, price, qty)
	s.book.AddOrder(models.NewOrder(orderType, id, side, price, qty))
}

// addMarket traces and submits one market order. The trace carries the
// no-price sentinel; the book assigns the aggressive price itself.
func (s *scenarioState) addMarket(id models.OrderID, side models.Side, qty models.Quantity) {
	s.trace.Add(id, models.OrderTypeMarket, side, models.NoPrice, qty)
	s.book.AddOrder(models.NewMarketOrder(id, side, qty))
}

// cancelTraced traces and submits one cancel. The target may already be
// filled; the book treats that as a no-op and so will the replay.
func (s *scenarioState) cancelTraced(id models.OrderID) {
	s.trace.Cancel(id)
	s.book.CancelOrder(id)
}

// runWarmup seeds the book with GTC orders. In profiles that track live
// ids, every 64th warmup order is cancelled again after the timed
// section; those cancels go into the trace like any other operation.
func (s *scenarioState) runWarmup() PhaseMetrics {
	var kept []models.OrderID

	t := StartTimer()
	for i := uint64(0); i < s.profile.WarmupOrders; i++ {
		id := warmupFirstID + models.OrderID(i)
		s.addLimit(models.OrderTypeGoodTillCancel, id, sideForIndex(i), s.drawPrice(), s.drawQty())
		if s.profile.KeepIDs && i&63 == 0 {
			kept = append(kept, id)
		}
	}
	m := PhaseMetrics{
		Scenario: s.scenario.Name,
		Phase:    PhaseWarmup,
		Ops:      s.profile.WarmupOrders,
		NS:       t.Nanoseconds(),
	}

	for _, id := range kept {
		s.cancelTraced(id)
	}
	return m
}

// runFOKFixture rests two asks and submits two fill-or-kill bids: one
// the resting liquidity can complete, one it cannot.
func (s *scenarioState) runFOKFixture() {
	s.addLimit(models.OrderTypeGoodTillCancel, fokSeedAskID, models.SideSell, 100, 10)
	s.addLimit(models.OrderTypeGoodTillCancel, fokSeedAskID2, models.SideSell, 101, 10)
	s.addLimit(models.OrderTypeFillOrKill, fokFillableBidID, models.SideBuy, 101, 15)
	s.addLimit(models.OrderTypeFillOrKill, fokOversizeBidID, models.SideBuy, 101, 30)
}

// runBulkInsert streams GTC orders into the book as fast as possible.
func (s *scenarioState) runBulkInsert() PhaseMetrics {
	t := StartTimer()
	for i := uint64(0); i < s.scenario.Bulk; i++ {
		id := bulkFirstID + models.OrderID(i)
		s.addLimit(models.OrderTypeGoodTillCancel, id, sideForIndex(i), s.drawPrice(), s.drawQty())
		if s.profile.KeepIDs {
			s.liveIDs = append(s.liveIDs, id)
		}
	}
	return PhaseMetrics{
		Scenario: s.scenario.Name,
		Phase:    PhaseBulkInsert,
		Ops:      s.scenario.Bulk,
		NS:       t.Nanoseconds(),
	}
}

// opBreakdown counts how the randomized phase split its operations.
type opBreakdown struct {
	adds     uint64
	cancels  uint64
	queries  uint64
	matches  uint64
	modifies uint64
}

// runRandomOps mixes best-price queries, cancels, explicit match
// sweeps, modifies and adds according to the profile fractions. Some
// ids in the live pool belong to orders long since filled; cancelling
// or modifying those is a no-op, which is itself worth exercising.
func (s *scenarioState) runRandomOps() (PhaseMetrics, opBreakdown) {
	var counts opBreakdown

	t := StartTimer()
	for op := uint64(0); op < s.scenario.RandomOps; op++ {
		r := s.rng.Float64()

		if r < s.profile.QueryFraction {
			if op&1 == 0 {
				bestPriceSink = s.book.GetBestBidPrice()
			} else {
				bestPriceSink = s.book.GetBestAskPrice()
			}
			counts.queries++
			continue
		}

		if r < s.profile.QueryFraction+s.profile.CancelFraction {
			if n := len(s.liveIDs); n > 0 {
				idx := s.rng.Intn(n)
				s.cancelTraced(s.liveIDs[idx])
				s.liveIDs[idx] = s.liveIDs[n-1]
				s.liveIDs = s.liveIDs[:n-1]
				counts.cancels++
			}
			continue
		}

		if r < s.profile.QueryFraction+s.profile.CancelFraction+s.profile.MatchFraction {
			s.trace.Match()
			s.book.MatchOrders()
			counts.matches++
			continue
		}

		if op%43 == 0 && len(s.liveIDs) > 0 {
			idx := s.rng.Intn(len(s.liveIDs))
			id := s.liveIDs[idx]
			side := sideForIndex(op)
			price := s.drawPrice()
			qty := s.drawQty()
			s.trace.Modify(id, side, price, qty)
			s.book.ModifyOrder(models.NewOrderModify(id, side, price, qty))
			counts.modifies++
			continue
		}

		id := s.nextAddID
		s.nextAddID++
		side := sideForIndex(op)
		// Every add draws a price so the random stream advances
		// uniformly; market orders ignore the draw.
		price := s.drawPrice()
		qty := s.drawQty()

		// Spread the non-GTC types over the op index, non-overlapping.
		// A fill-or-kill add only occurs while the live pool is empty,
		// since a multiple of 43 otherwise goes to the modify branch.
		orderType := models.OrderTypeGoodTillCancel
		switch {
		case op%97 == 0:
			orderType = models.OrderTypeMarket
		case op%61 == 0:
			orderType = models.OrderTypeImmediateOrCancel
		case op%43 == 0:
			orderType = models.OrderTypeFillOrKill
		}

		if orderType == models.OrderTypeMarket {
			s.addMarket(id, side, qty)
		} else {
			s.addLimit(orderType, id, side, price, qty)
		}
		s.liveIDs = append(s.liveIDs, id)
		counts.adds++
	}

	m := PhaseMetrics{
		Scenario: s.scenario.Name,
		Phase:    PhaseRandomOps,
		Ops:      s.scenario.RandomOps,
		NS:       t.Nanoseconds(),
	}
	return m, counts
}

// runBestBidStress hammers the cached best bid accessor.
func (s *scenarioState) runBestBidStress() PhaseMetrics {
	t := StartTimer()
	for i := uint64(0); i < bestBidStressReads; i++ {
		bestPriceSink = s.book.GetBestBidPrice()
	}
	return PhaseMetrics{
		Scenario: s.scenario.Name,
		Phase:    PhaseBestBidStress,
		Ops:      bestBidStressReads,
		NS:       t.Nanoseconds(),
	}
}
