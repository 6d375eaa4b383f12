// Package executor implements the concurrent 3-leg dispatcher (spec
// component 4.7): pre-trade risk gate, per-leg quantity/price
// computation, concurrent order dispatch, result aggregation, and
// dry-run simulation. Grounded on the fan-out/fan-in worker-pool
// pattern in AlejandroRuiz99-polybot's
// internal/application/scanner/concurrent.go (workCh/resultCh +
// sync.WaitGroup, every result awaited before proceeding), narrowed
// here from an N-worker pool over an unbounded market list to exactly
// three fixed goroutines — one per leg — since the triangle's leg
// count is always 3 and every leg result, success or failure, must be
// collected before post-processing (spec.md step 4: no early return).
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/triarb/triarb/internal/catalog"
	"github.com/triarb/triarb/internal/domain"
	"github.com/triarb/triarb/internal/ports"
	"github.com/triarb/triarb/internal/recovery"
	"github.com/triarb/triarb/internal/risk"
)

// Config configures per-execution behaviour.
type Config struct {
	UseMarketOrders bool
	SlippageBuffer  float64
	OrderTimeoutMs  int64
	DryRun          bool
	FeeRate         float64
}

// Executor dispatches one triangle's three legs concurrently against
// an ExchangeTransport, gated by a risk.Manager, with recovery
// handed off on any non-SUCCESS outcome.
type Executor struct {
	cfg       Config
	transport ports.ExchangeTransport
	catalog   *catalog.Catalog
	risk      *risk.Manager
	liquidator *recovery.Liquidator
	metrics   ports.MetricsSink
}

// New builds an Executor. metrics may be nil.
func New(cfg Config, transport ports.ExchangeTransport, cat *catalog.Catalog, riskMgr *risk.Manager, liquidator *recovery.Liquidator, metrics ports.MetricsSink) *Executor {
	return &Executor{
		cfg:        cfg,
		transport:  transport,
		catalog:    cat,
		risk:       riskMgr,
		liquidator: liquidator,
		metrics:    metrics,
	}
}

// Execute runs the full pipeline for one Opportunity.
func (e *Executor) Execute(ctx context.Context, opp domain.Opportunity) (*domain.ExecutionResult, error) {
	check := e.risk.CheckTrade(opp, opp.MaxTradeQty)
	if !check.Passed {
		return &domain.ExecutionResult{
			Opportunity: opp,
			Status:      domain.ExecFailed,
			StartedAt:   time.Now(),
			FinishedAt:  time.Now(),
		}, nil
	}

	e.risk.RecordTradeStart()
	started := time.Now()

	quantities := e.legQuantities(opp, check.AdjustedSize)
	prices := e.legPrices(opp)

	var legs [3]domain.LegResult
	if e.cfg.DryRun {
		legs = e.simulate(opp, quantities, prices)
	} else {
		legs = e.dispatchConcurrently(ctx, opp, quantities, prices)
	}

	result := &domain.ExecutionResult{
		Opportunity: opp,
		Legs:        legs,
		StartedAt:   started,
		FinishedAt:  time.Now(),
	}
	result.Status = aggregateStatus(legs)

	if e.cfg.DryRun {
		// Dry-run has no real fills to sum; report the size-scaled net
		// return the opportunity promised, per spec.md's dry-run contract.
		_, result.Commission = computePnL(opp.Path.Legs, legs)
		result.Profit = check.AdjustedSize * (opp.NetReturn - 1)
	} else {
		result.Profit, result.Commission = computePnL(opp.Path.Legs, legs)
	}

	if result.Status != domain.ExecSuccess && e.liquidator != nil {
		rr := e.liquidator.Recover(ctx, *result)
		result.Recovery = &rr
		if rr.Success {
			result.Status = domain.ExecRecovered
		}
	}

	if result.Status == domain.ExecSuccess {
		e.risk.RecordTradeComplete(result.Profit)
	} else {
		e.risk.RecordTradeFailed()
	}

	if e.metrics != nil {
		e.metrics.IncExecutions(result.Status)
		e.metrics.SetDailyPnL(e.risk.State().DailyPnL)
	}

	return result, nil
}

// legQuantities computes per-leg quantities from the adjusted size
// using the same compositional rule as the calculator (spec step 2):
// q1 = size/p1 for BUY of base-denominated size, size for SELL.
func (e *Executor) legQuantities(opp domain.Opportunity, size float64) [3]float64 {
	var qtys [3]float64
	amount := size
	for i, leg := range opp.Path.Legs {
		price := opp.Prices[i]
		if leg.Side == domain.SideBuy {
			qtys[i] = amount / price
			amount = qtys[i]
		} else {
			qtys[i] = amount
			amount = amount * price
		}
	}
	return qtys
}

func (e *Executor) legPrices(opp domain.Opportunity) [3]float64 {
	var prices [3]float64
	for i, leg := range opp.Path.Legs {
		p := opp.Prices[i]
		if e.cfg.SlippageBuffer > 0 {
			if leg.Side == domain.SideBuy {
				p = p * (1 + e.cfg.SlippageBuffer)
			} else {
				p = p * (1 - e.cfg.SlippageBuffer)
			}
		}
		if si, ok := e.catalog.Get(leg.Symbol); ok {
			p = si.RoundPrice(p)
		}
		prices[i] = p
	}
	return prices
}

// dispatchConcurrently fires all three orders in parallel and awaits
// every outcome before returning — no early exit on first failure.
func (e *Executor) dispatchConcurrently(ctx context.Context, opp domain.Opportunity, quantities, prices [3]float64) [3]domain.LegResult {
	type outcome struct {
		idx int
		res domain.LegResult
	}
	resultCh := make(chan outcome, 3)

	for i := 0; i < 3; i++ {
		go func(i int) {
			leg := opp.Path.Legs[i]
			qty := quantities[i]
			if si, ok := e.catalog.Get(leg.Symbol); ok {
				qty = si.RoundQuantity(qty)
			}

			legCtx := ctx
			var cancel context.CancelFunc
			if e.cfg.OrderTimeoutMs > 0 {
				legCtx, cancel = context.WithTimeout(ctx, time.Duration(e.cfg.OrderTimeoutMs)*time.Millisecond)
				defer cancel()
			}

			start := time.Now()
			res := e.dispatchLeg(legCtx, leg, qty, prices[i])
			res.LatencyUs = time.Since(start).Microseconds()
			if e.metrics != nil {
				e.metrics.ObserveLegLatencyUs(float64(res.LatencyUs))
			}
			resultCh <- outcome{idx: i, res: res}
		}(i)
	}

	var legs [3]domain.LegResult
	for i := 0; i < 3; i++ {
		o := <-resultCh
		legs[o.idx] = o.res
	}
	return legs
}

func (e *Executor) dispatchLeg(ctx context.Context, leg domain.TriangleLeg, qty, price float64) domain.LegResult {
	var (
		resp ports.OrderResponse
		err  error
	)
	if e.cfg.UseMarketOrders {
		resp, err = e.transport.PlaceMarketOrder(ctx, leg.Symbol, leg.Side, qty)
	} else {
		resp, err = e.transport.PlaceLimitOrder(ctx, leg.Symbol, leg.Side, qty, price, "IOC")
	}
	if err != nil {
		return domain.LegResult{Leg: leg, Status: domain.LegFailed, Err: fmt.Errorf("dispatch leg %s: %w", leg.Symbol, err)}
	}

	var commission float64
	var commissionAsset string
	for _, f := range resp.Fills {
		commission += f.Commission
		commissionAsset = f.CommissionAsset
	}

	return domain.LegResult{
		Leg:             leg,
		Status:          resp.Status,
		OrderID:         resp.OrderID,
		FilledQty:       resp.ExecutedQty,
		FilledPrice:     resp.AvgFillPrice(),
		Commission:      commission,
		CommissionAsset: commissionAsset,
	}
}

// simulate marks every leg FILLED at the quoted price with a synthetic
// commission, per spec.md's dry-run semantics.
func (e *Executor) simulate(opp domain.Opportunity, quantities, prices [3]float64) [3]domain.LegResult {
	var legs [3]domain.LegResult
	for i, leg := range opp.Path.Legs {
		qty := quantities[i]
		price := prices[i]
		legs[i] = domain.LegResult{
			Leg:         leg,
			Status:      domain.LegFilled,
			FilledQty:   qty,
			FilledPrice: price,
			Commission:  qty * price * e.cfg.FeeRate,
			LatencyUs:   0,
		}
	}
	return legs
}

func aggregateStatus(legs [3]domain.LegResult) domain.ExecutionStatus {
	filled := 0
	for _, l := range legs {
		if l.Status.IsFilled() {
			filled++
		}
	}
	switch filled {
	case 3:
		return domain.ExecSuccess
	case 0:
		return domain.ExecFailed
	default:
		return domain.ExecPartial
	}
}

// computePnL computes realised P&L as Σ(received) − Σ(spent) −
// Σ(commission) across filled legs.
func computePnL(legsSpec [3]domain.TriangleLeg, legs [3]domain.LegResult) (profit, commission float64) {
	for i, l := range legs {
		if !l.Status.IsFilled() {
			continue
		}
		commission += l.Commission
		if legsSpec[i].Side == domain.SideBuy {
			profit -= l.FilledQty * l.FilledPrice
		} else {
			profit += l.FilledQty * l.FilledPrice
		}
	}
	profit -= commission
	return profit, commission
}
