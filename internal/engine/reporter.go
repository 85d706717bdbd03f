package engine

import "sleipnir/internal/common"

// Reporter decouples the engine from whatever carries trade/error
// notifications onward — a TCP session, a log sink, a metrics collector.
// Mirrors the shape the teacher's net.Server exposed to engine.Trade before
// that method was left as a FIXME with no reporting wired up at all.
type Reporter interface {
	// ReportTrade is called once per Execution produced by PlaceOrder.
	ReportTrade(symbol string, exec common.Execution)
	// ReportError is called when PlaceOrder or CancelOrder fails, naming
	// the order id that triggered the failure.
	ReportError(symbol string, orderID uint64, err error)
	// ObserveAdmit is called once per PlaceOrder attempt on a configured
	// symbol, before the outcome is known, so admit volume is countable
	// independent of whether the order crossed or was rejected. Attempts
	// on an unknown symbol are reported only through ReportError.
	ObserveAdmit(symbol string, side common.Side, typ common.OrderType)
}
