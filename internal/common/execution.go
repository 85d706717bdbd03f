package common

import "fmt"

// Execution is the record emitted to callers for every match. It carries the
// resting order's id and price, never the aggressor's — crossing aggressors
// receive price improvement, and a downstream consumer that needs the
// aggressor side must obtain it from the submission context.
type Execution struct {
	OrderID   uint64
	Price     uint64
	Quantity  uint64
	Timestamp uint64
	Side      Side
}

func (e Execution) String() string {
	return fmt.Sprintf(
		"Execution{order_id=%d price=%d qty=%d ts=%d side=%s}",
		e.OrderID, e.Price, e.Quantity, e.Timestamp, e.Side,
	)
}
