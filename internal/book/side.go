package book

import "sleipnir/internal/common"

// SideIndex is a dense array of length L indexed by tick offset from a fixed
// base price, one per side. Grounded on original_source/src/orderbook.rs's
// buy_levels/sell_levels Vec<Option<PriceLevel>> plus
// buy_price_to_idx/sell_price_to_idx/find_best_bid_idx/find_best_ask_idx;
// spec.md §4.2's rationale is followed as-is: O(1) price lookup and an
// O(L) worst-case best-price rescan that's small and branch-predictable,
// at the cost of a hard price window around BasePrice (spec.md §9 design
// choice (a), static window — not the dynamic-resize or sparse-overflow
// alternatives it also lists).
type SideIndex struct {
	side       common.Side
	basePrice  uint64
	tickSize   uint64
	levels     []*Level
	bestOffset int // -1 when no level is occupied
}

// NewSideIndex creates an empty dense index of width levels ticks.
func NewSideIndex(side common.Side, basePrice, tickSize uint64, levels int) *SideIndex {
	return &SideIndex{
		side:       side,
		basePrice:  basePrice,
		tickSize:   tickSize,
		levels:     make([]*Level, levels),
		bestOffset: -1,
	}
}

// Offset converts a price to its tick offset in this side's window,
// reporting false if the price falls outside the admissible window:
//   - Buy:  0 < offset < L, i.e. price strictly below BasePrice.
//   - Sell: 0 <= offset < L, i.e. price at or above BasePrice.
func (s *SideIndex) Offset(price uint64) (int, bool) {
	if s.side == common.Buy {
		if price >= s.basePrice {
			return 0, false
		}
		off := (s.basePrice - price) / s.tickSize
		if off == 0 || int(off) >= len(s.levels) {
			return 0, false
		}
		return int(off), true
	}
	if price < s.basePrice {
		return 0, false
	}
	off := (price - s.basePrice) / s.tickSize
	if int(off) >= len(s.levels) {
		return 0, false
	}
	return int(off), true
}

// Price converts a tick offset back to its price.
func (s *SideIndex) Price(offset int) uint64 {
	if s.side == common.Buy {
		return s.basePrice - uint64(offset)*s.tickSize
	}
	return s.basePrice + uint64(offset)*s.tickSize
}

// At returns the level occupying offset, if any.
func (s *SideIndex) At(offset int) (*Level, bool) {
	lvl := s.levels[offset]
	return lvl, lvl != nil
}

// GetOrCreate returns the level at offset, creating an empty one (and
// maintaining the best-price cache) if the slot was empty.
func (s *SideIndex) GetOrCreate(offset int, capacityHint int) *Level {
	lvl := s.levels[offset]
	if lvl == nil {
		lvl = NewLevel(s.Price(offset), capacityHint)
		s.levels[offset] = lvl
	}
	if s.bestOffset < 0 || offset < s.bestOffset {
		s.bestOffset = offset
	}
	return lvl
}

// Clear empties the slot at offset and, if it was the cached best, rescans
// the side from offset 0 upward for the new best (or marks it absent).
func (s *SideIndex) Clear(offset int) {
	s.levels[offset] = nil
	if offset == s.bestOffset {
		s.bestOffset = s.rescan()
	}
}

// rescan walks the dense array from offset 0 upward until it finds an
// occupied slot, per spec.md §9's O(L) fallback.
func (s *SideIndex) rescan() int {
	for i, lvl := range s.levels {
		if lvl != nil {
			return i
		}
	}
	return -1
}

// BestOffset returns the cached best (lowest) occupied offset, if any.
func (s *SideIndex) BestOffset() (int, bool) {
	if s.bestOffset < 0 {
		return 0, false
	}
	return s.bestOffset, true
}

// NextOccupied returns the smallest occupied offset strictly greater than
// from, if any. The matcher does not call it: after emptying a level it
// uses Clear and then BestOffset.
func (s *SideIndex) NextOccupied(from int) (int, bool) {
	for i := from + 1; i < len(s.levels); i++ {
		if s.levels[i] != nil {
			return i, true
		}
	}
	return 0, false
}

// Len reports the window width L.
func (s *SideIndex) Len() int {
	return len(s.levels)
}

// OccupiedCount counts currently occupied slots, for Summary.
func (s *SideIndex) OccupiedCount() int {
	n := 0
	for _, lvl := range s.levels {
		if lvl != nil {
			n++
		}
	}
	return n
}
