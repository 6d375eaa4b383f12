// Package bbo implements the O(1) top-of-book cache described in
// spec component 4.1: symbol -> BBO, with synchronous ordered update
// callbacks. Grounded on the observer-list broadcast discipline of
// yohannesjx-sniperterminal's Hub.Broadcast (hub.go) — a registered,
// ordered list of subscribers invoked synchronously on every update —
// adapted here from websocket clients to in-process callbacks, and on
// the replace-pointer-semantics OrderBook store in
// AlejandroRuiz99-polybot's internal/domain/orderbook.go, simplified
// to level-1 only per this system's non-goals.
package bbo

import (
	"log/slog"
	"sync"

	"github.com/triarb/triarb/internal/domain"
)

// UpdateFunc is invoked synchronously, in registration order, on every
// cache update. A panic inside a callback is recovered and logged; it
// never prevents later callbacks from running or propagates to the
// caller of Update.
type UpdateFunc func(symbol string, b domain.BBO)

// Cache is a concurrency-safe, singleton-style top-of-book store.
type Cache struct {
	mu        sync.RWMutex
	quotes    map[string]domain.BBO
	updateIDs map[string]int64
	callbacks []UpdateFunc
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{
		quotes:    make(map[string]domain.BBO),
		updateIDs: make(map[string]int64),
	}
}

// OnUpdate registers a callback invoked on every Update call. Not
// concurrency-safe to call after streaming has started; register all
// observers during startup wiring.
func (c *Cache) OnUpdate(fn UpdateFunc) {
	c.callbacks = append(c.callbacks, fn)
}

// Update overwrites the quote for b.Symbol in O(1), bumps that
// symbol's update counter, and invokes every registered callback
// synchronously in registration order. Out-of-order UpdateID values
// are accepted and overwrite — the transport guarantees per-symbol
// monotonicity; the cache never reorders or rejects updates.
func (c *Cache) Update(b domain.BBO) {
	c.mu.Lock()
	c.quotes[b.Symbol] = b
	c.updateIDs[b.Symbol]++
	c.mu.Unlock()

	for _, cb := range c.callbacks {
		c.invoke(cb, b.Symbol, b)
	}
}

func (c *Cache) invoke(cb UpdateFunc, symbol string, b domain.BBO) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("bbo: update callback panicked", "symbol", symbol, "panic", r)
		}
	}()
	cb(symbol, b)
}

// Get returns the current quote for symbol and whether one exists.
func (c *Cache) Get(symbol string) (domain.BBO, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.quotes[symbol]
	return b, ok
}

// UpdateCount returns how many times symbol has been updated.
func (c *Cache) UpdateCount(symbol string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updateIDs[symbol]
}

// HasAllSymbols reports whether every symbol in syms is present.
func (c *Cache) HasAllSymbols(syms [3]string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range syms {
		if _, ok := c.quotes[s]; !ok {
			return false
		}
	}
	return true
}

// PricePair is the (bid, ask) quote consulted by the profit calculator
// for a single triangle leg.
type PricePair struct {
	Bid float64
	Ask float64
}

// GetPricesForTriangle returns the (bid,ask) pair for each of the
// three symbols, or ok=false if any is missing. The fixed-size return
// array avoids heap allocation on the hot path.
func (c *Cache) GetPricesForTriangle(syms [3]string) (prices [3]PricePair, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i, s := range syms {
		b, found := c.quotes[s]
		if !found {
			return prices, false
		}
		prices[i] = PricePair{Bid: b.BidPrice, Ask: b.AskPrice}
	}
	return prices, true
}
