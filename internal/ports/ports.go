// Package ports declares the capability interfaces the core consumes
// from its surrounding infrastructure. Concrete implementations live
// under internal/adapters; test doubles implement the same interfaces.
package ports

import (
	"context"

	"github.com/triarb/triarb/internal/domain"
)

// SymbolMetadata is exchange-reported info for one tradeable pair,
// translated by the caller into a domain.SymbolInfo.
type SymbolMetadata struct {
	Symbol            string
	BaseAsset         string
	QuoteAsset        string
	PricePrecision    int
	QuantityPrecision int
	MinNotional       float64
	MinQty            float64
	MaxQty            float64
	StepSize          float64
	TickSize          float64
	Status            string
}

// ExchangeInfo is the startup snapshot of tradeable pairs and quota limits.
type ExchangeInfo struct {
	Symbols    []SymbolMetadata
	RateLimits []RateLimitRule
}

// RateLimitRule mirrors one entry of the exchange's documented rate limits.
type RateLimitRule struct {
	Type     string // REQUEST_WEIGHT | ORDERS
	Interval string // SECOND | MINUTE | DAY
	Limit    int
}

// Fill is one partial or complete execution of an order.
type Fill struct {
	Price           float64
	Qty             float64
	Commission      float64
	CommissionAsset string
}

// OrderResponse is the exchange's reply to a place-order call.
type OrderResponse struct {
	OrderID             string
	ClientOrderID       string
	Status              domain.LegStatus
	ExecutedQty         float64
	CumulativeQuoteQty  float64
	Fills               []Fill
}

// AvgFillPrice computes Σ(price·qty)/Σ(qty) over the reported fills.
func (r OrderResponse) AvgFillPrice() float64 {
	var notional, qty float64
	for _, f := range r.Fills {
		notional += f.Price * f.Qty
		qty += f.Qty
	}
	if qty == 0 {
		return 0
	}
	return notional / qty
}

// Tick is one normalized top-of-book update delivered by the transport's
// push-stream subscription.
type Tick struct {
	Symbol   string
	Bid      float64
	BidQty   float64
	Ask      float64
	AskQty   float64
	UpdateID int64
}

// ExchangeTransport is the abstract boundary to a single spot exchange.
// The HTTP/websocket wire format is an external collaborator; this
// interface is the only contract the core depends on.
type ExchangeTransport interface {
	// GetExchangeInfo fetches tradeable-pair metadata and quota limits
	// once at startup.
	GetExchangeInfo(ctx context.Context) (ExchangeInfo, error)

	// GetBalance returns the free balance of asset.
	GetBalance(ctx context.Context, asset string) (float64, error)

	// PlaceMarketOrder submits a market order for quantity units of
	// symbol's base asset.
	PlaceMarketOrder(ctx context.Context, symbol string, side domain.Side, quantity float64) (OrderResponse, error)

	// PlaceLimitOrder submits a limit order with time-in-force tif
	// ("GTC", "IOC", "FOK").
	PlaceLimitOrder(ctx context.Context, symbol string, side domain.Side, quantity, price float64, tif string) (OrderResponse, error)

	// CancelOrder cancels a resting order by exchange order ID.
	CancelOrder(ctx context.Context, symbol, orderID string) error

	// Subscribe opens the push-stream for the given symbols and
	// delivers normalized ticks on the returned channel until ctx is
	// cancelled or the returned error channel receives a fatal error.
	Subscribe(ctx context.Context, symbols []string) (<-chan Tick, <-chan error, error)
}

// Notifier surfaces opportunities and execution outcomes to an operator.
type Notifier interface {
	NotifyOpportunities(ctx context.Context, opportunities []domain.Opportunity) error
	NotifyExecution(ctx context.Context, result domain.ExecutionResult) error
}

// MetricsSink is the capability set the core uses to report telemetry,
// consumed only as counters/gauges/histograms — never queried back.
type MetricsSink interface {
	IncOpportunities(triangleID string)
	IncExecutions(status domain.ExecutionStatus)
	ObserveLegLatencyUs(us float64)
	SetDailyPnL(pnl float64)
}
