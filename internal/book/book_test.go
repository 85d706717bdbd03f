package book

import (
	"testing"

	"sleipnir/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedClock makes execution timestamps deterministic for assertions.
type fixedClock struct{ ts uint64 }

func (c fixedClock) NowNanos() uint64 { return c.ts }

func newTestBook() *Book {
	cfg := DefaultConfig("TEST", 64)
	cfg.PriceLevels = 16
	cfg.OrdersPerLevel = 4
	return New(cfg, fixedClock{ts: 42})
}

func limitOrder(id, price, qty uint64, side common.Side) common.Order {
	return common.Order{ID: id, Price: price, Quantity: qty, Side: side, Type: common.Limit}
}

func marketOrder(id, qty uint64, side common.Side) common.Order {
	return common.Order{ID: id, Quantity: qty, Side: side, Type: common.Market}
}

// --- Admit: resting, no cross ----------------------------------------------

func TestBook_AdmitRestsWhenNoCross(t *testing.T) {
	b := newTestBook()

	execs, err := b.Admit(limitOrder(1, 9_999, 10, common.Buy))
	require.NoError(t, err)
	assert.Empty(t, execs)

	bid, ok := b.BestBid()
	assert.True(t, ok)
	assert.Equal(t, uint64(9_999), bid)
}

func TestBook_AdmitDuplicateID(t *testing.T) {
	b := newTestBook()
	_, err := b.Admit(limitOrder(1, 9_999, 10, common.Buy))
	require.NoError(t, err)

	_, err = b.Admit(limitOrder(1, 9_998, 5, common.Buy))
	assert.ErrorIs(t, err, common.ErrDuplicateID)
}

func TestBook_AdmitPriceOutOfRange(t *testing.T) {
	b := newTestBook()
	_, err := b.Admit(limitOrder(1, 9_000, 10, common.Buy))
	assert.ErrorIs(t, err, common.ErrPriceOutOfRange)

	_, live := b.ids.lookup(1)
	assert.False(t, live, "a rejected admit must not appear in the id index")
}

func TestBook_AdmitLevelFull(t *testing.T) {
	b := newTestBook()
	for i := uint64(1); i <= 4; i++ {
		_, err := b.Admit(limitOrder(i, 9_999, 1, common.Buy))
		require.NoError(t, err)
	}
	_, err := b.Admit(limitOrder(5, 9_999, 1, common.Buy))
	assert.ErrorIs(t, err, common.ErrLevelFull)
}

func TestBook_AdmitPoolFull(t *testing.T) {
	cfg := DefaultConfig("TEST", 2)
	cfg.PriceLevels = 16
	b := New(cfg, fixedClock{ts: 1})

	_, err := b.Admit(limitOrder(1, 9_999, 1, common.Buy))
	require.NoError(t, err)
	_, err = b.Admit(limitOrder(2, 9_998, 1, common.Buy))
	require.NoError(t, err)

	_, err = b.Admit(limitOrder(3, 9_997, 1, common.Buy))
	assert.ErrorIs(t, err, common.ErrPoolFull)
}

// --- Admit: crossing / matching ---------------------------------------------

// TestBook_LimitCrossFullFill exercises price improvement: the aggressor
// posts a buy at 10_005, the resting ask is at 10_000, and the execution
// price must be the resting price, not the aggressor's.
func TestBook_LimitCrossFullFill(t *testing.T) {
	b := newTestBook()
	_, err := b.Admit(limitOrder(1, 10_000, 10, common.Sell))
	require.NoError(t, err)

	execs, err := b.Admit(limitOrder(2, 10_005, 10, common.Buy))
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, uint64(10_000), execs[0].Price, "execution must be at the resting price")
	assert.Equal(t, uint64(1), execs[0].OrderID)
	assert.Equal(t, uint64(10), execs[0].Quantity)
	assert.Equal(t, common.Sell, execs[0].Side)

	_, hasAsk := b.BestAsk()
	assert.False(t, hasAsk, "fully matched resting order must be gone")
}

// TestBook_LimitCrossPartialFillOutOfRangeRemainder covers the asymmetric
// window's consequence: a buy aggressor priced at or above BasePrice can
// cross into the ask's territory, but BasePrice is also the buy side's own
// admissible-window boundary, so any surplus quantity left after a partial
// fill has nowhere to rest. Per spec.md §4.4/§7 the executions already
// produced still stand; only the surplus is lost, reported via
// ErrPriceOutOfRange.
func TestBook_LimitCrossPartialFillOutOfRangeRemainder(t *testing.T) {
	b := newTestBook()
	_, err := b.Admit(limitOrder(1, 10_000, 5, common.Sell))
	require.NoError(t, err)

	execs, err := b.Admit(limitOrder(2, 10_005, 12, common.Buy))
	assert.ErrorIs(t, err, common.ErrPriceOutOfRange)
	require.Len(t, execs, 1)
	assert.Equal(t, uint64(5), execs[0].Quantity)

	_, live := b.ids.lookup(2)
	assert.False(t, live, "the surplus must not be resting under the aggressor's id")
}

// TestBook_PriceTimePriority checks that two resting orders at the same
// price fill in arrival order.
func TestBook_PriceTimePriority(t *testing.T) {
	b := newTestBook()
	_, err := b.Admit(limitOrder(1, 10_000, 5, common.Sell))
	require.NoError(t, err)
	_, err = b.Admit(limitOrder(2, 10_000, 5, common.Sell))
	require.NoError(t, err)

	execs, err := b.Admit(limitOrder(3, 10_000, 5, common.Buy))
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, uint64(1), execs[0].OrderID, "earlier resting order must fill first")
}

func TestBook_LimitSweepsMultipleLevels(t *testing.T) {
	b := newTestBook()
	_, err := b.Admit(limitOrder(1, 10_000, 5, common.Sell))
	require.NoError(t, err)
	_, err = b.Admit(limitOrder(2, 10_001, 5, common.Sell))
	require.NoError(t, err)

	execs, err := b.Admit(limitOrder(3, 10_001, 10, common.Buy))
	require.NoError(t, err)
	require.Len(t, execs, 2)
	assert.Equal(t, uint64(10_000), execs[0].Price)
	assert.Equal(t, uint64(10_001), execs[1].Price)
}

func TestBook_LimitDoesNotCrossBeyondItsLimit(t *testing.T) {
	b := newTestBook()
	_, err := b.Admit(limitOrder(1, 10_005, 5, common.Sell))
	require.NoError(t, err)

	execs, err := b.Admit(limitOrder(2, 9_999, 5, common.Buy))
	require.NoError(t, err)
	assert.Empty(t, execs, "buy limit below the ask must not cross")

	bid, ok := b.BestBid()
	require.True(t, ok)
	assert.Equal(t, uint64(9_999), bid)
}

// --- Market orders -----------------------------------------------------------

func TestBook_MarketOrderMatchesAndDiscardsResidual(t *testing.T) {
	b := newTestBook()
	_, err := b.Admit(limitOrder(1, 10_000, 5, common.Sell))
	require.NoError(t, err)

	execs, err := b.Admit(marketOrder(2, 20, common.Buy))
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, uint64(5), execs[0].Quantity)

	_, live := b.ids.lookup(2)
	assert.False(t, live, "a market order must never rest, filled or not")
}

func TestBook_MarketOrderAgainstEmptyBookIsANoop(t *testing.T) {
	b := newTestBook()
	execs, err := b.Admit(marketOrder(1, 10, common.Buy))
	assert.NoError(t, err)
	assert.Empty(t, execs)
}

// --- Cancel ------------------------------------------------------------------

func TestBook_CancelRemovesRestingOrder(t *testing.T) {
	b := newTestBook()
	_, err := b.Admit(limitOrder(1, 9_999, 10, common.Buy))
	require.NoError(t, err)

	err = b.Cancel(1)
	require.NoError(t, err)

	_, ok := b.BestBid()
	assert.False(t, ok)
}

func TestBook_CancelUnknownID(t *testing.T) {
	b := newTestBook()
	err := b.Cancel(999)
	assert.ErrorIs(t, err, common.ErrOrderNotFound)
}

func TestBook_CancelThenCancelAgainFails(t *testing.T) {
	b := newTestBook()
	_, err := b.Admit(limitOrder(1, 9_999, 10, common.Buy))
	require.NoError(t, err)
	require.NoError(t, b.Cancel(1))

	err = b.Cancel(1)
	assert.ErrorIs(t, err, common.ErrOrderNotFound)
}

func TestBook_CancelPreservesSiblingOrderAtSameLevel(t *testing.T) {
	b := newTestBook()
	_, err := b.Admit(limitOrder(1, 9_999, 10, common.Buy))
	require.NoError(t, err)
	_, err = b.Admit(limitOrder(2, 9_999, 20, common.Buy))
	require.NoError(t, err)

	require.NoError(t, b.Cancel(1))

	execs, err := b.Admit(limitOrder(3, 9_999, 20, common.Sell))
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, uint64(2), execs[0].OrderID, "remaining sibling order must still be fillable")
}

// --- Depth, spread, summary, crossed-book guard -----------------------------

func TestBook_MarketDepthOrdering(t *testing.T) {
	b := newTestBook()
	_, err := b.Admit(limitOrder(1, 9_999, 10, common.Buy))
	require.NoError(t, err)
	_, err = b.Admit(limitOrder(2, 9_998, 10, common.Buy))
	require.NoError(t, err)
	_, err = b.Admit(limitOrder(3, 10_000, 5, common.Sell))
	require.NoError(t, err)
	_, err = b.Admit(limitOrder(4, 10_001, 5, common.Sell))
	require.NoError(t, err)

	bids, asks := b.MarketDepth(10)
	require.Len(t, bids, 2)
	require.Len(t, asks, 2)
	assert.Equal(t, uint64(9_999), bids[0].Price, "bids must be ordered best-first (descending)")
	assert.Equal(t, uint64(9_998), bids[1].Price)
	assert.Equal(t, uint64(10_000), asks[0].Price, "asks must be ordered best-first (ascending)")
	assert.Equal(t, uint64(10_001), asks[1].Price)
}

func TestBook_SpreadAndMidPrice(t *testing.T) {
	b := newTestBook()
	_, err := b.Admit(limitOrder(1, 9_990, 10, common.Buy))
	require.NoError(t, err)
	_, err = b.Admit(limitOrder(2, 10_010, 10, common.Sell))
	require.NoError(t, err)

	spread, ok := b.Spread()
	require.True(t, ok)
	assert.Equal(t, uint64(20), spread)

	mid, ok := b.MidPrice()
	require.True(t, ok)
	assert.Equal(t, 10_000.0, mid)
}

func TestBook_NeverCrossedAfterAdmits(t *testing.T) {
	b := newTestBook()
	_, err := b.Admit(limitOrder(1, 10_000, 5, common.Sell))
	require.NoError(t, err)
	_, err = b.Admit(limitOrder(2, 10_005, 5, common.Buy))
	require.NoError(t, err)
	assert.False(t, b.IsCrossed())
}

func TestBook_SummaryTracksCounters(t *testing.T) {
	b := newTestBook()
	_, err := b.Admit(limitOrder(1, 10_000, 5, common.Sell))
	require.NoError(t, err)
	_, err = b.Admit(limitOrder(2, 10_005, 5, common.Buy))
	require.NoError(t, err)

	s := b.Summary()
	assert.Equal(t, "TEST", s.Symbol)
	assert.Equal(t, uint64(2), s.TotalOrdersProcessed)
	assert.Equal(t, uint64(10), s.TotalQuantityMatched, "both legs of the match count toward matched volume")
	assert.False(t, s.HasBestBid)
	assert.False(t, s.HasBestAsk)
}
