// Package recovery implements residual-holding analysis and market
// liquidation back to the base asset (spec component 4.8). Grounded
// on the pair-matching and best-effort single-pass settlement logic of
// AlejandroRuiz99-polybot's internal/application/engine/live/merge.go
// mergeCompletePairs (match filled legs, compute net outcome, report
// without retrying on failure), adapted here from matching filled
// YES/NO order pairs for an on-chain CTF merge to walking a triangle's
// filled legs and liquidating whatever residual non-base asset remains
// via a plain market order.
package recovery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/triarb/triarb/internal/catalog"
	"github.com/triarb/triarb/internal/domain"
	"github.com/triarb/triarb/internal/ports"
)

// Liquidator liquidates residual holdings left over from a non-SUCCESS
// execution.
type Liquidator struct {
	transport ports.ExchangeTransport
	catalog   *catalog.Catalog
	baseAsset string
}

// New builds a Liquidator. baseAsset is the triangle's starting
// currency (e.g. "USDT").
func New(transport ports.ExchangeTransport, cat *catalog.Catalog, baseAsset string) *Liquidator {
	return &Liquidator{transport: transport, catalog: cat, baseAsset: baseAsset}
}

// Analyze walks the legs in order: each filled leg adds its received
// amount to holdings under to_asset (a BUY receives FilledQty, a SELL
// receives FilledQty·FilledPrice); each filled leg then subtracts what it
// spent from from_asset. The add pass runs strictly before the subtract
// pass (Open Question ii) so an early leg's contribution is never
// cancelled by a later leg's consumption before being counted. Only
// positive amounts of non-base assets are returned.
func Analyze(result domain.ExecutionResult) map[string]float64 {
	holdings := make(map[string]float64)

	for i, leg := range result.Legs {
		if !leg.Status.IsFilled() {
			continue
		}
		triLeg := result.Opportunity.Path.Legs[i]
		if triLeg.Side == domain.SideBuy {
			holdings[triLeg.ToAsset] += leg.FilledQty
		} else {
			holdings[triLeg.ToAsset] += leg.FilledQty * leg.FilledPrice
		}
	}

	for i, leg := range result.Legs {
		if !leg.Status.IsFilled() {
			continue
		}
		triLeg := result.Opportunity.Path.Legs[i]
		if triLeg.Side == domain.SideBuy {
			holdings[triLeg.FromAsset] -= leg.FilledQty * leg.FilledPrice
		} else {
			holdings[triLeg.FromAsset] -= leg.FilledQty
		}
	}

	residual := make(map[string]float64)
	for asset, amt := range holdings {
		if amt > 1e-12 && asset != result.Opportunity.Path.BaseAsset {
			residual[asset] = amt
		}
	}
	return residual
}

// Recover analyzes result's residual holdings and liquidates a single
// residual asset. When Analyze reports more than one (for example a
// rounding leftover beside the main residual), one of them is picked by
// map iteration order and the others are left in place. Recovery is
// best-effort and single-pass: failures are surfaced, never retried here.
func (l *Liquidator) Recover(ctx context.Context, result domain.ExecutionResult) domain.RecoveryResult {
	residual := Analyze(result)
	if len(residual) == 0 {
		return domain.RecoveryResult{Action: domain.RecoveryNone, Success: true}
	}

	var asset string
	var amount float64
	for a, amt := range residual {
		asset, amount = a, amt
		break
	}

	start := time.Now()
	res := l.liquidate(ctx, asset, amount)
	res.LatencyUs = time.Since(start).Microseconds()
	return res
}

func (l *Liquidator) liquidate(ctx context.Context, asset string, amount float64) domain.RecoveryResult {
	si, direct, found := l.catalog.SymbolFor(asset, l.baseAsset)
	if !found {
		slog.Warn("recovery: no direct pair to base currency", "asset", asset, "base", l.baseAsset)
		return domain.RecoveryResult{Asset: asset, Action: domain.RecoveryNoPair, Success: false}
	}

	qty := si.RoundQuantity(amount)
	if qty < si.MinQty {
		return domain.RecoveryResult{Asset: asset, Action: domain.RecoverySkippedDust, Success: false}
	}

	side := domain.SideSell
	if !direct {
		side = domain.SideBuy
	}

	resp, err := l.transport.PlaceMarketOrder(ctx, si.Symbol, side, qty)
	if err != nil {
		return domain.RecoveryResult{
			Asset:  asset,
			Action: domain.RecoveryLiquidated,
			Success: false,
			Err:    fmt.Errorf("recovery: liquidate %s: %w", asset, err),
		}
	}

	var commission float64
	for _, f := range resp.Fills {
		commission += f.Commission
	}

	return domain.RecoveryResult{
		Asset:           asset,
		Action:          domain.RecoveryLiquidated,
		Success:         true,
		RecoveredAmount: resp.CumulativeQuoteQty,
		RecoveryCost:    commission,
	}
}
