// Package catalog holds exchange symbol metadata and the base/quote
// indexes triangle discovery walks. Built once at startup from
// ExchangeTransport.GetExchangeInfo and treated as read-only thereafter,
// mirroring how AlejandroRuiz99-polybot's internal/domain/market.go
// types are constructed once from Gamma/CLOB metadata and never mutated.
package catalog

import (
	"fmt"

	"github.com/triarb/triarb/internal/domain"
	"github.com/triarb/triarb/internal/ports"
)

// Catalog is the frozen set of tradeable symbols plus asset indexes.
type Catalog struct {
	symbols  map[string]domain.SymbolInfo
	byBase   map[string][]string // base asset -> symbols with that base
	byQuote  map[string][]string // quote asset -> symbols
}

// New builds a Catalog from exchange-reported metadata, skipping any
// symbol whose reported status is set and is not TRADING; a symbol with
// an empty status is kept as trading.
func New(info ports.ExchangeInfo) (*Catalog, error) {
	c := &Catalog{
		symbols: make(map[string]domain.SymbolInfo, len(info.Symbols)),
		byBase:  make(map[string][]string),
		byQuote: make(map[string][]string),
	}

	for _, m := range info.Symbols {
		if m.Status != "" && m.Status != "TRADING" {
			continue
		}
		si := domain.SymbolInfo{
			Symbol:            m.Symbol,
			BaseAsset:         m.BaseAsset,
			QuoteAsset:        m.QuoteAsset,
			PricePrecision:    m.PricePrecision,
			QuantityPrecision: m.QuantityPrecision,
			MinNotional:       m.MinNotional,
			MinQty:            m.MinQty,
			MaxQty:            m.MaxQty,
			StepSize:          m.StepSize,
			TickSize:          m.TickSize,
			Status:            domain.SymbolTrading,
		}
		c.symbols[si.Symbol] = si
		c.byBase[si.BaseAsset] = append(c.byBase[si.BaseAsset], si.Symbol)
		c.byQuote[si.QuoteAsset] = append(c.byQuote[si.QuoteAsset], si.Symbol)
	}

	if len(c.symbols) == 0 {
		return nil, fmt.Errorf("catalog.New: no trading symbols in exchange info")
	}

	return c, nil
}

// Get returns the metadata for symbol and whether it was found.
func (c *Catalog) Get(symbol string) (domain.SymbolInfo, bool) {
	si, ok := c.symbols[symbol]
	return si, ok
}

// All returns every symbol's metadata, in no particular order.
func (c *Catalog) All() []domain.SymbolInfo {
	out := make([]domain.SymbolInfo, 0, len(c.symbols))
	for _, si := range c.symbols {
		out = append(out, si)
	}
	return out
}

// SymbolFor returns the symbol trading base against quote in either
// direction, and whether it is the (base,quote) orientation (true) or
// the reversed (quote,base) orientation (false).
func (c *Catalog) SymbolFor(base, quote string) (domain.SymbolInfo, bool, bool) {
	for _, sym := range c.byBase[base] {
		si := c.symbols[sym]
		if si.QuoteAsset == quote {
			return si, true, true
		}
	}
	for _, sym := range c.byBase[quote] {
		si := c.symbols[sym]
		if si.QuoteAsset == base {
			return si, false, true
		}
	}
	return domain.SymbolInfo{}, false, false
}

// Edge is one directed move in the asset graph triangle discovery walks:
// trading Symbol moves From -> To via Side.
type Edge struct {
	Symbol string
	Side   domain.Side
	From   string
	To     string
}

// Neighbors returns every directed edge leaving asset: a BUY edge for
// each symbol quoted in asset (asset -> base), and a SELL edge for
// each symbol based in asset (asset -> quote).
func (c *Catalog) Neighbors(asset string) []Edge {
	var out []Edge
	for _, sym := range c.byQuote[asset] {
		si := c.symbols[sym]
		out = append(out, Edge{Symbol: sym, Side: domain.SideBuy, From: asset, To: si.BaseAsset})
	}
	for _, sym := range c.byBase[asset] {
		si := c.symbols[sym]
		out = append(out, Edge{Symbol: sym, Side: domain.SideSell, From: asset, To: si.QuoteAsset})
	}
	return out
}
