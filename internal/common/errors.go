package common

import "errors"

// Error kinds surfaced synchronously from admit/cancel. None of them leave
// the book in a state that violates the global invariants: a rejected admit
// never allocates a handle or touches the id index.
var (
	// ErrDuplicateID is returned by Admit when the order id already maps to
	// a live order.
	ErrDuplicateID = errors.New("duplicate order id")
	// ErrPriceOutOfRange is returned by Admit when a limit order's price
	// falls outside the side's admissible tick window.
	ErrPriceOutOfRange = errors.New("price out of range")
	// ErrPoolFull is returned when the order pool cannot allocate a handle
	// to rest an order.
	ErrPoolFull = errors.New("order pool full")
	// ErrLevelFull is returned when a price level's configured capacity is
	// reached.
	ErrLevelFull = errors.New("price level full")
	// ErrOrderNotFound is returned by Cancel for an unknown or already
	// removed order id.
	ErrOrderNotFound = errors.New("order not found")
)
