package book

import "sleipnir/internal/common"

// match crosses taker against the opposite SideIndex, mutating taker's
// quantity in place and returning the executions produced. When bounded is
// true, matching stops once the opposite side's best price no longer
// crosses taker.Price (a limit order); when false, it sweeps until taker is
// filled or the opposite side is exhausted (a market order).
//
// Both sides of spec.md §4.4's pseudocode (Buy aggressor scanning asks,
// Sell aggressor scanning bids) are the same algorithm against the
// opposite-side accessor, factored through SideIndex/Level rather than
// duplicated per side the way original_source/src/orderbook.rs duplicates
// match_limit_order's Side::Buy/Side::Sell arms.
func (b *Book) match(taker *common.Order, bounded bool) []common.Execution {
	opposite := b.sideIndex(taker.Side.Opposite())

	var execs []common.Execution
	off, ok := opposite.BestOffset()
	for ok && taker.Quantity > 0 {
		levelPrice := opposite.Price(off)
		if bounded && !crossesBound(taker, levelPrice) {
			break
		}

		level, _ := opposite.At(off)
		b.drainLevel(taker, level, levelPrice, &execs)

		if !level.IsEmpty() {
			// Liquidity remains at this level; taker must be filled.
			break
		}
		opposite.Clear(off)
		off, ok = opposite.BestOffset()
	}
	return execs
}

// crossesBound reports whether levelPrice still crosses a bounded
// (limit-order) taker: a buy aggressor requires the resting ask at or below
// its limit; a sell aggressor requires the resting bid at or above its
// limit.
func crossesBound(taker *common.Order, levelPrice uint64) bool {
	if taker.Side == common.Buy {
		return levelPrice <= taker.Price
	}
	return levelPrice >= taker.Price
}

// drainLevel consumes level's FIFO front-to-back against taker until either
// taker is filled or the level is exhausted, appending one Execution per
// resting order touched and fully retiring any resting order it empties.
func (b *Book) drainLevel(taker *common.Order, level *Level, levelPrice uint64, execs *[]common.Execution) {
	for taker.Quantity > 0 {
		h, has := level.Front()
		if !has {
			return
		}
		resting := b.pool.Get(h)

		matched := min(resting.Quantity, taker.Quantity)
		resting.Quantity -= matched
		taker.Quantity -= matched
		level.TotalQuantity -= matched

		*execs = append(*execs, common.Execution{
			OrderID:   resting.ID,
			Price:     levelPrice,
			Quantity:  matched,
			Timestamp: b.clock.NowNanos(),
			Side:      resting.Side,
		})

		if resting.Quantity == 0 {
			level.PopFront()
			b.ids.delete(resting.ID)
			b.pool.Deallocate(h)
			continue
		}
		// Partial fill: resting stays at the head with reduced quantity;
		// taker.Quantity must now be 0, so the loop exits on the next
		// iteration's guard.
	}
}
