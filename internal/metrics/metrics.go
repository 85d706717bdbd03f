// Package metrics registers the process's Prometheus collectors and
// implements engine.Reporter so the engine can drive them without knowing
// Prometheus exists — pure instrumentation, wired alongside but never
// inside THE CORE.
package metrics

import (
	"time"

	"sleipnir/internal/book"
	"sleipnir/internal/common"

	"github.com/prometheus/client_golang/prometheus"
)

// Collectors holds every metric the engine and server report into.
type Collectors struct {
	OrdersAdmitted  *prometheus.CounterVec
	Executions      *prometheus.CounterVec
	QuantityMatched *prometheus.CounterVec
	Rejections      *prometheus.CounterVec
	BookDepth       *prometheus.GaugeVec
}

// NewCollectors builds and registers every collector against reg.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		OrdersAdmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orders_admitted_total",
			Help: "Total number of orders submitted to a book, rejected ones included, by symbol/side/type.",
		}, []string{"symbol", "side", "type"}),
		Executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "executions_total",
			Help: "Total number of executions produced, by symbol.",
		}, []string{"symbol"}),
		QuantityMatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quantity_matched_total",
			Help: "Total matched quantity (both legs), by symbol.",
		}, []string{"symbol"}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rejections_total",
			Help: "Total number of rejected admit/cancel attempts, by symbol/reason.",
		}, []string{"symbol", "reason"}),
		BookDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "book_depth",
			Help: "Number of occupied price levels, by symbol/side.",
		}, []string{"symbol", "side"}),
	}

	reg.MustRegister(c.OrdersAdmitted, c.Executions, c.QuantityMatched, c.Rejections, c.BookDepth)
	return c
}

// Reporter adapts Collectors to internal/engine.Reporter.
type Reporter struct {
	c *Collectors
}

func NewReporter(c *Collectors) *Reporter {
	return &Reporter{c: c}
}

func (r *Reporter) ReportTrade(symbol string, exec common.Execution) {
	r.c.Executions.WithLabelValues(symbol).Inc()
	r.c.QuantityMatched.WithLabelValues(symbol).Add(2 * float64(exec.Quantity))
}

func (r *Reporter) ReportError(symbol string, orderID uint64, err error) {
	r.c.Rejections.WithLabelValues(symbol, reasonLabel(err)).Inc()
}

func reasonLabel(err error) string {
	switch {
	case err == nil:
		return "none"
	case err == common.ErrDuplicateID:
		return "duplicate_id"
	case err == common.ErrPriceOutOfRange:
		return "price_out_of_range"
	case err == common.ErrPoolFull:
		return "pool_full"
	case err == common.ErrLevelFull:
		return "level_full"
	case err == common.ErrOrderNotFound:
		return "order_not_found"
	default:
		return "other"
	}
}

// ObserveAdmit records an admitted order's side/type, independent of
// ReportTrade/ReportError — the engine calls this on every PlaceOrder
// whether or not it produced an execution.
func (r *Reporter) ObserveAdmit(symbol string, side common.Side, typ common.OrderType) {
	r.c.OrdersAdmitted.WithLabelValues(symbol, side.String(), typ.String()).Inc()
}

// RefreshDepth samples every book's occupied-level count into book_depth.
// Intended to run on a ticker from cmd/sleipnir's serve command.
func (c *Collectors) RefreshDepth(books map[string]*book.Book) {
	for symbol, b := range books {
		s := b.Summary()
		c.BookDepth.WithLabelValues(symbol, "buy").Set(float64(s.BuyLevels))
		c.BookDepth.WithLabelValues(symbol, "sell").Set(float64(s.SellLevels))
	}
}

// RunDepthSampler refreshes book_depth every interval until stop is closed.
func RunDepthSampler(c *Collectors, books map[string]*book.Book, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.RefreshDepth(books)
		}
	}
}
