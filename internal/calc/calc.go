// Package calc implements the profit calculator (spec component 4.4):
// gross/net return and max-trade-size arithmetic for one triangle,
// given its three leg prices. Grounded on the composition style of
// AlejandroRuiz99-polybot's internal/domain/arbitrage.go
// CalculateArbitrage (a running multiplicative accumulator over a
// fixed-size leg slice with fees folded in as one multiplier rather
// than per-leg subtraction), adapted from a 2-leg YES/NO composition
// to a 3-leg directed composition and from an additive fee model to
// the pre-computed (1-fee)^3 multiplier spec.md prescribes.
package calc

import (
	"github.com/triarb/triarb/internal/bbo"
	"github.com/triarb/triarb/internal/clock"
	"github.com/triarb/triarb/internal/domain"
)

// epsilon is the zero-comparison tolerance used throughout the hot
// path, per spec's floating-point design note.
const epsilon = 1e-10

// Calculator evaluates triangles against a fixed fee rate. FeeMultiplier
// is pre-computed once at construction to avoid three multiplications
// per tick.
type Calculator struct {
	feeRate        float64
	feeMultiplier  float64
}

// New builds a Calculator for the given per-leg fee rate.
func New(feeRate float64) *Calculator {
	m := 1 - feeRate
	return &Calculator{
		feeRate:       feeRate,
		feeMultiplier: m * m * m,
	}
}

// FeeMultiplier exposes the pre-computed (1-fee)^3 factor.
func (c *Calculator) FeeMultiplier() float64 {
	return c.feeMultiplier
}

// legPrice selects the ask for a BUY leg (paying the ask to acquire
// base) and the bid for a SELL leg (receiving the bid to dispose of
// base).
func legPrice(leg domain.TriangleLeg, pp bbo.PricePair) float64 {
	if leg.Side == domain.SideBuy {
		return pp.Ask
	}
	return pp.Bid
}

// compose runs the directed multiplicative accumulator spec.md
// describes: BUY divides, SELL multiplies.
func compose(path *domain.TrianglePath, prices [3]bbo.PricePair) (result float64, legPrices [3]float64, ok bool) {
	result = 1
	for i, leg := range path.Legs {
		p := legPrice(leg, prices[i])
		if p <= epsilon {
			return 0, legPrices, false
		}
		legPrices[i] = p
		if leg.Side == domain.SideBuy {
			result /= p
		} else {
			result *= p
		}
	}
	return result, legPrices, true
}

// Evaluate computes the full Opportunity for path given the current
// (bid,ask) quotes of its three legs and per-leg available BBO
// quantities. It returns ok=false if any leg price is non-positive.
func (c *Calculator) Evaluate(path *domain.TrianglePath, prices [3]bbo.PricePair, qtys [3]float64) (domain.Opportunity, bool) {
	gross, legPrices, ok := compose(path, prices)
	if !ok {
		return domain.Opportunity{}, false
	}

	net := gross * c.feeMultiplier
	profitPct := (net - 1) * 100

	return domain.Opportunity{
		Path:        path,
		ProfitPct:   profitPct,
		GrossReturn: gross,
		NetReturn:   net,
		Prices:      legPrices,
		Quantities:  qtys,
		MaxTradeQty: c.maxTradeQty(path, legPrices, qtys),
		TimestampUs: clock.NowMicros(),
	}, true
}

// QuickCheck is the pre-filtering variant used before quantity work:
// it composes gross/net return and reports whether profit_pct (a
// percentage) is at least minProfitPct, also a percentage, without
// touching quantities.
func (c *Calculator) QuickCheck(path *domain.TrianglePath, prices [3]bbo.PricePair, minProfitPct float64) bool {
	gross, _, ok := compose(path, prices)
	if !ok {
		return false
	}
	net := gross * c.feeMultiplier
	return (net-1)*100 >= minProfitPct
}

// maxTradeQty derives the tradeable size in starting-base-currency
// units by forward-composing each leg's available BBO quantity
// through the same BUY/SELL rule the return calculation uses, then
// taking the minimum across legs. This resolves Open Question (i): no
// price·price shortcut — each leg's capacity is converted back to
// starting-currency units via the same running composition (accBefore)
// the gross-return accumulator builds, not a dimensionally inconsistent
// product of two prices.
//
// accBefore tracks "units of this leg's from_asset per 1 unit of
// starting currency" — i.e. the same accumulator compose() builds,
// sampled before each leg is applied. BBO quantities are denominated
// in the traded symbol's base asset, which is the leg's to_asset for
// a BUY and its from_asset for a SELL.
func (c *Calculator) maxTradeQty(path *domain.TrianglePath, legPrices [3]float64, qtys [3]float64) float64 {
	min := -1.0
	accBefore := 1.0
	for i, leg := range path.Legs {
		var capacityInStartUnits float64
		if leg.Side == domain.SideBuy {
			// qtys[i] is to_asset units; convert to from_asset units
			// (multiply by price), then to starting-currency units.
			capacityInStartUnits = qtys[i] * legPrices[i] / accBefore
			accBefore /= legPrices[i]
		} else {
			// qtys[i] is already from_asset units.
			capacityInStartUnits = qtys[i] / accBefore
			accBefore *= legPrices[i]
		}
		if min < 0 || capacityInStartUnits < min {
			min = capacityInStartUnits
		}
	}
	if min < 0 {
		return 0
	}
	return min
}
