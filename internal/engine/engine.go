// Package engine fans a single process out across many symbols, each
// backed by its own internal/book.Book. It is a collaborator around THE
// CORE (spec.md §1 lists "multi-symbol fan-out" as external to the core),
// not a reimplementation of it: PlaceOrder/CancelOrder do nothing but look
// up the right book and delegate.
package engine

import (
	"errors"
	"fmt"

	"sleipnir/internal/book"
	"sleipnir/internal/common"

	"github.com/tidwall/btree"
)

// ErrUnknownSymbol is returned by PlaceOrder/CancelOrder for a symbol the
// engine was not configured with.
var ErrUnknownSymbol = errors.New("unknown symbol")

// Engine owns one book.Book per symbol plus a sorted index of symbol names,
// kept for deterministic iteration (admin tooling, log output, metrics
// labeling) the way a Go map's random order can't give you.
type Engine struct {
	books    map[string]*book.Book
	symbols  *btree.BTreeG[string]
	reporter Reporter
	clock    common.Clock
}

// New creates an engine with one book per symbol in cfgs, all sharing
// clock (nil defaults each book to common.SystemClock{}). reporter may be
// nil; a nil reporter silently drops trade/error notifications.
func New(cfgs []book.Config, clock common.Clock, reporter Reporter) *Engine {
	books := make(map[string]*book.Book, len(cfgs))
	symbols := btree.NewBTreeG(func(a, b string) bool { return a < b })
	for _, cfg := range cfgs {
		books[cfg.Symbol] = book.New(cfg, clock)
		symbols.Set(cfg.Symbol)
	}
	return &Engine{books: books, symbols: symbols, reporter: reporter, clock: clock}
}

// Symbols returns the configured symbols in sorted order.
func (e *Engine) Symbols() []string {
	out := make([]string, 0, e.symbols.Len())
	e.symbols.Scan(func(s string) bool {
		out = append(out, s)
		return true
	})
	return out
}

// Book returns the underlying book.Book for symbol, for callers (metrics,
// depth queries) that need more than PlaceOrder/CancelOrder expose.
func (e *Engine) Book(symbol string) (*book.Book, bool) {
	b, ok := e.books[symbol]
	return b, ok
}

// PlaceOrder delegates to symbol's book and reports the outcome through the
// configured Reporter, the way the teacher's OrderBook.Match called
// engine.Trade per fill rather than leaving reporting to the caller.
func (e *Engine) PlaceOrder(symbol string, order common.Order) ([]common.Execution, error) {
	b, ok := e.books[symbol]
	if !ok {
		e.reportError(symbol, order.ID, ErrUnknownSymbol)
		return nil, ErrUnknownSymbol
	}

	e.observeAdmit(symbol, order.Side, order.Type)

	execs, err := b.Admit(order)
	for _, exec := range execs {
		e.reportTrade(symbol, exec)
	}
	if err != nil {
		e.reportError(symbol, order.ID, err)
	}
	return execs, err
}

// CancelOrder delegates to symbol's book.
func (e *Engine) CancelOrder(symbol string, id uint64) error {
	b, ok := e.books[symbol]
	if !ok {
		e.reportError(symbol, id, ErrUnknownSymbol)
		return ErrUnknownSymbol
	}
	if err := b.Cancel(id); err != nil {
		e.reportError(symbol, id, err)
		return err
	}
	return nil
}

func (e *Engine) reportTrade(symbol string, exec common.Execution) {
	if e.reporter == nil {
		return
	}
	e.reporter.ReportTrade(symbol, exec)
}

func (e *Engine) reportError(symbol string, orderID uint64, err error) {
	if e.reporter == nil {
		return
	}
	e.reporter.ReportError(symbol, orderID, err)
}

func (e *Engine) observeAdmit(symbol string, side common.Side, typ common.OrderType) {
	if e.reporter == nil {
		return
	}
	e.reporter.ObserveAdmit(symbol, side, typ)
}

func (e *Engine) String() string {
	return fmt.Sprintf("Engine{symbols=%v}", e.Symbols())
}
