// Package book implements the core of the matching engine: the dual-sided
// price-level index, the per-price-level FIFO queue, the order-identity
// map, the matching algorithm, the cancel path, and the best-price cache.
// It is deliberately single-threaded and allocation-light on the hot path;
// callers serialize submissions (spec §5 — single-threaded cooperative,
// no locks, no suspension points inside Admit/Cancel).
package book

import "sleipnir/internal/common"

// DepthLevel is one (price, aggregate quantity) pair returned by
// MarketDepth.
type DepthLevel struct {
	Price    uint64
	Quantity uint64
}

// Summary is the point-in-time snapshot returned by Summary().
type Summary struct {
	Symbol               string
	BestBid              uint64
	HasBestBid           bool
	BestAsk              uint64
	HasBestAsk           bool
	BuyLevels            int
	SellLevels           int
	TotalOrdersProcessed uint64
	TotalQuantityMatched uint64
}

// Book is the single-symbol order book facade: admit, cancel, depth,
// best-bid/ask, spread, summary. Grounded on
// original_source/src/orderbook.rs's OrderBook, restructured into the
// pool/idIndex/side/level components spec.md §2 names as separate pieces,
// the way the teacher splits a feature's data structures across small
// files in internal/book and internal/engine.
type Book struct {
	cfg   Config
	clock common.Clock

	pool *Pool
	ids  idIndex
	buy  *SideIndex
	sell *SideIndex

	totalOrdersProcessed uint64
	totalQuantityMatched uint64
}

// New creates a Book ready to admit orders. clock defaults to
// common.SystemClock{} when nil.
func New(cfg Config, clock common.Clock) *Book {
	if clock == nil {
		clock = common.SystemClock{}
	}
	return &Book{
		cfg:   cfg,
		clock: clock,
		pool: NewPool(cfg.Capacity),
		ids:  newIDIndex(cfg.Capacity),
		buy:  NewSideIndex(common.Buy, cfg.BasePrice, cfg.TickSize, cfg.PriceLevels),
		sell: NewSideIndex(common.Sell, cfg.BasePrice, cfg.TickSize, cfg.PriceLevels),
	}
}

// Symbol returns the book's configured symbol label.
func (b *Book) Symbol() string {
	return b.cfg.Symbol
}

// Config returns the book's configuration, for collaborators (net, metrics)
// that need TickSize/BasePrice without reaching into book internals.
func (b *Book) Config() Config {
	return b.cfg
}

func (b *Book) sideIndex(side common.Side) *SideIndex {
	if side == common.Buy {
		return b.buy
	}
	return b.sell
}

// Admit processes an incoming order per spec.md §4.2. It returns the
// (possibly empty) sequence of executions produced and, when the order is
// rejected or its remainder cannot rest, a tagged error; executions made
// before a rest failure are returned alongside that error.
func (b *Book) Admit(order common.Order) ([]common.Execution, error) {
	if _, live := b.ids.lookup(order.ID); live {
		return nil, common.ErrDuplicateID
	}

	order.ArrivalTS = b.clock.NowNanos()
	b.totalOrdersProcessed++

	if order.Type == common.Market {
		execs := b.match(&order, false)
		b.recordMatched(execs)
		return execs, nil
	}

	var execs []common.Execution
	if b.crosses(order) {
		execs = b.match(&order, true)
		b.recordMatched(execs)
	}

	if order.Quantity == 0 {
		return execs, nil
	}

	side := b.sideIndex(order.Side)
	offset, ok := side.Offset(order.Price)
	if !ok {
		// Executions already produced before this rest-failure are kept
		// (spec.md §4.4/§7): the surplus quantity is lost but the fills
		// already reported stand.
		return execs, common.ErrPriceOutOfRange
	}

	if b.cfg.OrdersPerLevel > 0 {
		if existing, has := side.At(offset); has && existing.Len() >= b.cfg.OrdersPerLevel {
			return execs, common.ErrLevelFull
		}
	}

	handle, ok := b.pool.Allocate(order)
	if !ok {
		return execs, common.ErrPoolFull
	}

	level := side.GetOrCreate(offset, b.cfg.OrdersPerLevel)
	level.PushBack(handle, order.Quantity)
	b.ids.set(order.ID, handle)

	return execs, nil
}

// crosses reports whether a limit order would cross the book at admit time,
// per spec.md §4.2 step 3a.
func (b *Book) crosses(order common.Order) bool {
	if order.Side == common.Buy {
		askOff, ok := b.sell.BestOffset()
		return ok && order.Price >= b.sell.Price(askOff)
	}
	bidOff, ok := b.buy.BestOffset()
	return ok && order.Price <= b.buy.Price(bidOff)
}

// recordMatched accumulates traded volume. Each Execution names only the
// resting leg, but a match always has two legs (maker and taker) trading the
// same quantity, so TotalQuantityMatched counts it twice — matching spec.md
// §8 scenario 2's total_quantity_matched=10 for a single {quantity:5}
// execution.
func (b *Book) recordMatched(execs []common.Execution) {
	for _, e := range execs {
		b.totalQuantityMatched += 2 * e.Quantity
	}
}

// Cancel removes a resting order by id, per spec.md §4.3.
func (b *Book) Cancel(id uint64) error {
	handle, live := b.ids.lookup(id)
	if !live {
		return common.ErrOrderNotFound
	}

	order := *b.pool.Get(handle)
	side := b.sideIndex(order.Side)
	offset, ok := side.Offset(order.Price)
	if !ok {
		// Unreachable under global invariant 2: a live handle's order
		// always has an in-window price, since it could only have rested
		// via a successful Offset() in Admit.
		return common.ErrOrderNotFound
	}

	level, ok := side.At(offset)
	if !ok {
		return common.ErrOrderNotFound
	}

	if !level.Remove(handle, order.Quantity) {
		return common.ErrOrderNotFound
	}
	if level.IsEmpty() {
		side.Clear(offset)
	}

	b.pool.Deallocate(handle)
	b.ids.delete(id)
	return nil
}

// BestBid returns the highest resting buy price, if any.
func (b *Book) BestBid() (uint64, bool) {
	off, ok := b.buy.BestOffset()
	if !ok {
		return 0, false
	}
	return b.buy.Price(off), true
}

// BestAsk returns the lowest resting sell price, if any.
func (b *Book) BestAsk() (uint64, bool) {
	off, ok := b.sell.BestOffset()
	if !ok {
		return 0, false
	}
	return b.sell.Price(off), true
}

// Spread returns best ask minus best bid, if both exist.
func (b *Book) Spread() (uint64, bool) {
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	if !okBid || !okAsk {
		return 0, false
	}
	return ask - bid, true
}

// MidPrice returns (best bid + best ask) / 2, if both exist.
func (b *Book) MidPrice() (float64, bool) {
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	if !okBid || !okAsk {
		return 0, false
	}
	return (float64(bid) + float64(ask)) / 2.0, true
}

// IsCrossed reports whether the book is in an invalid crossed state: both
// bests exist and best bid is not strictly below best ask. Must be false
// after any Admit or Cancel completes (spec.md invariant 5). Lifted from
// original_source/src/orderbook.rs's is_crossed(), exposed here as a public
// facade method rather than only checked as an internal invariant.
func (b *Book) IsCrossed() bool {
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	return okBid && okAsk && bid >= ask
}

// MarketDepth returns up to k (price, aggregate quantity) pairs per side:
// descending price for bids, ascending for asks.
func (b *Book) MarketDepth(k int) (bids, asks []DepthLevel) {
	bids = b.scanDepth(b.buy, k)
	asks = b.scanDepth(b.sell, k)
	return bids, asks
}

func (b *Book) scanDepth(side *SideIndex, k int) []DepthLevel {
	out := make([]DepthLevel, 0, k)
	for off := 0; off < side.Len() && len(out) < k; off++ {
		lvl, ok := side.At(off)
		if !ok {
			continue
		}
		out = append(out, DepthLevel{Price: side.Price(off), Quantity: lvl.TotalQuantity})
	}
	return out
}

// Summary returns a point-in-time snapshot of the book's state.
func (b *Book) Summary() Summary {
	s := Summary{
		Symbol:               b.cfg.Symbol,
		BuyLevels:            b.buy.OccupiedCount(),
		SellLevels:           b.sell.OccupiedCount(),
		TotalOrdersProcessed: b.totalOrdersProcessed,
		TotalQuantityMatched: b.totalQuantityMatched,
	}
	if bid, ok := b.BestBid(); ok {
		s.BestBid, s.HasBestBid = bid, true
	}
	if ask, ok := b.BestAsk(); ok {
		s.BestAsk, s.HasBestAsk = ask, true
	}
	return s
}
