package book

// Config carries the constructor-time options of spec §6.
type Config struct {
	// Symbol is an opaque label echoed back in Summary.
	Symbol string
	// Capacity bounds the number of concurrently live orders; the order
	// pool is sized to it.
	Capacity int
	// BasePrice anchors both side indexes. Buy offsets run downward from
	// it, sell offsets upward.
	BasePrice uint64
	// TickSize is the integer price increment. The default is 1; the offset
	// arithmetic is generic over it.
	TickSize uint64
	// PriceLevels is the per-side window width L.
	PriceLevels int
	// OrdersPerLevel is both the FIFO's initial capacity hint and, when
	// nonzero, a hard per-level cap: Admit rejects with ErrLevelFull rather
	// than grow a level past it. Zero means uncapped (slice still grows).
	OrdersPerLevel int
}

// DefaultConfig returns the spec's default constructor-time options for the
// given symbol and capacity.
func DefaultConfig(symbol string, capacity int) Config {
	return Config{
		Symbol:         symbol,
		Capacity:       capacity,
		BasePrice:      10_000,
		TickSize:       1,
		PriceLevels:    1024,
		OrdersPerLevel: 1024,
	}
}
