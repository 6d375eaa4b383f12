// Package detector implements the event-driven opportunity detector
// (spec component 4.5): on every BBO tick, re-evaluate only the
// triangles touching the updated symbol, applying a per-triangle
// cooldown. Grounded on the tick-driven Scanner.cycle loop in
// AlejandroRuiz99-polybot's internal/application/scanner/scanner.go
// (periodic re-scan, structured slog around each pass), narrowed here
// from a periodic full-market scan to a per-tick, symbol-scoped scan
// plus an explicit cooldown map spec.md requires.
package detector

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/triarb/triarb/internal/bbo"
	"github.com/triarb/triarb/internal/calc"
	"github.com/triarb/triarb/internal/clock"
	"github.com/triarb/triarb/internal/domain"
	"github.com/triarb/triarb/internal/triangle"
)

// CooldownUs is the minimum interval between successive emissions for
// the same triangle (default 100ms, per spec.md).
const CooldownUs = 100_000

// MaxOpportunitiesPerScan caps per-scan emissions (default 10).
const MaxOpportunitiesPerScan = 10

// OpportunityFunc is invoked synchronously, in registration order, for
// every emitted Opportunity.
type OpportunityFunc func(domain.Opportunity)

// Detector holds a read-only reference to the triangle catalog and
// the BBO cache, plus the mutable cooldown map.
type Detector struct {
	catalog *triangle.Catalog
	cache   *bbo.Cache
	calc    *calc.Calculator

	minProfitPct float64

	mu         sync.Mutex
	lastEmitUs map[string]int64
	callbacks  []OpportunityFunc
}

// New builds a Detector over an already-discovered triangle catalog.
func New(cat *triangle.Catalog, cache *bbo.Cache, calculator *calc.Calculator, minProfitPct float64) *Detector {
	return &Detector{
		catalog:      cat,
		cache:        cache,
		calc:         calculator,
		minProfitPct: minProfitPct,
		lastEmitUs:   make(map[string]int64),
	}
}

// OnOpportunity registers a callback invoked for every emitted
// Opportunity. Errors are not expected from callbacks; panics are
// recovered and logged, mirroring the BBO cache's observer discipline.
func (d *Detector) OnOpportunity(fn OpportunityFunc) {
	d.callbacks = append(d.callbacks, fn)
}

// OnTick re-evaluates every triangle touching symbol and returns the
// emitted opportunities, capped at MaxOpportunitiesPerScan and sorted
// by descending ProfitPct.
func (d *Detector) OnTick(symbol string) []domain.Opportunity {
	paths := d.catalog.ForSymbol(symbol)
	if len(paths) == 0 {
		return nil
	}

	now := clock.NowMicros()
	var emitted []domain.Opportunity

	for _, path := range paths {
		opp, ok := d.evaluate(path, now)
		if !ok {
			continue
		}
		emitted = append(emitted, opp)
	}

	return d.finalize(emitted)
}

// ScanAll performs the same evaluation across every discovered
// triangle, for periodic full passes independent of tick events.
func (d *Detector) ScanAll() []domain.Opportunity {
	now := clock.NowMicros()
	var emitted []domain.Opportunity

	for _, path := range d.catalog.Paths() {
		opp, ok := d.evaluate(path, now)
		if !ok {
			continue
		}
		emitted = append(emitted, opp)
	}

	return d.finalize(emitted)
}

func (d *Detector) evaluate(path *domain.TrianglePath, now int64) (domain.Opportunity, bool) {
	d.mu.Lock()
	last := d.lastEmitUs[path.ID]
	d.mu.Unlock()
	if now-last < CooldownUs {
		return domain.Opportunity{}, false
	}

	var syms [3]string
	for i, leg := range path.Legs {
		syms[i] = leg.Symbol
	}

	prices, ok := d.cache.GetPricesForTriangle(syms)
	if !ok {
		return domain.Opportunity{}, false
	}

	var qtys [3]float64
	for i, leg := range path.Legs {
		b, _ := d.cache.Get(leg.Symbol)
		if leg.Side == domain.SideBuy {
			qtys[i] = b.AskQty
		} else {
			qtys[i] = b.BidQty
		}
	}

	opp, ok := d.calc.Evaluate(path, prices, qtys)
	if !ok {
		return domain.Opportunity{}, false
	}
	if opp.ProfitPct < d.minProfitPct*100 {
		return domain.Opportunity{}, false
	}

	d.mu.Lock()
	d.lastEmitUs[path.ID] = now
	d.mu.Unlock()

	return opp, true
}

func (d *Detector) finalize(emitted []domain.Opportunity) []domain.Opportunity {
	if len(emitted) == 0 {
		return nil
	}

	sort.Slice(emitted, func(i, j int) bool {
		return emitted[i].ProfitPct > emitted[j].ProfitPct
	})

	if len(emitted) > MaxOpportunitiesPerScan {
		emitted = emitted[:MaxOpportunitiesPerScan]
	}

	for _, opp := range emitted {
		d.deliver(opp)
	}

	slog.Debug("detector: tick processed", "emitted", len(emitted))

	return emitted
}

func (d *Detector) deliver(opp domain.Opportunity) {
	for _, cb := range d.callbacks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("detector: opportunity callback panicked", "panic", r)
				}
			}()
			cb(opp)
		}()
	}
}
