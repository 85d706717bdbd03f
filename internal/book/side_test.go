package book

import (
	"testing"

	"sleipnir/internal/common"

	"github.com/stretchr/testify/assert"
)

func TestSideIndex_OffsetBuyAdmissibleWindow(t *testing.T) {
	s := NewSideIndex(common.Buy, 10_000, 1, 4)

	// Strictly below base is admissible.
	off, ok := s.Offset(9_999)
	assert.True(t, ok)
	assert.Equal(t, 1, off)

	off, ok = s.Offset(9_997)
	assert.True(t, ok)
	assert.Equal(t, 3, off)

	// At or above base is never admissible on the buy side.
	_, ok = s.Offset(10_000)
	assert.False(t, ok)
	_, ok = s.Offset(10_001)
	assert.False(t, ok)

	// Beyond the window (offset >= L) is inadmissible.
	_, ok = s.Offset(9_995)
	assert.False(t, ok)
}

func TestSideIndex_OffsetSellAdmissibleWindow(t *testing.T) {
	s := NewSideIndex(common.Sell, 10_000, 1, 4)

	// At base is admissible (offset 0) on the sell side.
	off, ok := s.Offset(10_000)
	assert.True(t, ok)
	assert.Equal(t, 0, off)

	off, ok = s.Offset(10_003)
	assert.True(t, ok)
	assert.Equal(t, 3, off)

	// Below base is never admissible on the sell side.
	_, ok = s.Offset(9_999)
	assert.False(t, ok)

	// Beyond the window is inadmissible.
	_, ok = s.Offset(10_004)
	assert.False(t, ok)
}

func TestSideIndex_PriceRoundTrip(t *testing.T) {
	buy := NewSideIndex(common.Buy, 10_000, 5, 10)
	off, ok := buy.Offset(9_980)
	assert.True(t, ok)
	assert.Equal(t, uint64(9_980), buy.Price(off))

	sell := NewSideIndex(common.Sell, 10_000, 5, 10)
	off, ok = sell.Offset(10_020)
	assert.True(t, ok)
	assert.Equal(t, uint64(10_020), sell.Price(off))
}

func TestSideIndex_BestOffsetTracksLowestOccupied(t *testing.T) {
	s := NewSideIndex(common.Buy, 10_000, 1, 8)
	_, ok := s.BestOffset()
	assert.False(t, ok, "empty side has no best")

	off5, _ := s.Offset(9_995)
	s.GetOrCreate(off5, 4)
	best, ok := s.BestOffset()
	assert.True(t, ok)
	assert.Equal(t, off5, best)

	off2, _ := s.Offset(9_998)
	s.GetOrCreate(off2, 4)
	best, ok = s.BestOffset()
	assert.True(t, ok)
	assert.Equal(t, off2, best, "lower offset (nearer to base) becomes best")

	s.Clear(off2)
	best, ok = s.BestOffset()
	assert.True(t, ok)
	assert.Equal(t, off5, best, "clearing best falls back to rescan")

	s.Clear(off5)
	_, ok = s.BestOffset()
	assert.False(t, ok)
}

func TestSideIndex_NextOccupied(t *testing.T) {
	s := NewSideIndex(common.Sell, 10_000, 1, 8)
	s.GetOrCreate(1, 4)
	s.GetOrCreate(5, 4)

	next, ok := s.NextOccupied(0)
	assert.True(t, ok)
	assert.Equal(t, 1, next)

	next, ok = s.NextOccupied(1)
	assert.True(t, ok)
	assert.Equal(t, 5, next)

	_, ok = s.NextOccupied(5)
	assert.False(t, ok)
}

func TestSideIndex_OccupiedCount(t *testing.T) {
	s := NewSideIndex(common.Buy, 10_000, 1, 8)
	assert.Equal(t, 0, s.OccupiedCount())
	s.GetOrCreate(1, 4)
	s.GetOrCreate(2, 4)
	assert.Equal(t, 2, s.OccupiedCount())
	s.Clear(1)
	assert.Equal(t, 1, s.OccupiedCount())
}
