package recovery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/triarb/triarb/internal/catalog"
	"github.com/triarb/triarb/internal/domain"
	"github.com/triarb/triarb/internal/ports"
)

type fakeTransport struct {
	ports.ExchangeTransport
	placed []struct {
		symbol string
		side   domain.Side
		qty    float64
	}
	resp ports.OrderResponse
	err  error
}

func (f *fakeTransport) PlaceMarketOrder(_ context.Context, symbol string, side domain.Side, qty float64) (ports.OrderResponse, error) {
	f.placed = append(f.placed, struct {
		symbol string
		side   domain.Side
		qty    float64
	}{symbol, side, qty})
	return f.resp, f.err
}

func testPath() *domain.TrianglePath {
	return &domain.TrianglePath{
		ID:        "t1",
		BaseAsset: "USDT",
		Legs: [3]domain.TriangleLeg{
			{Symbol: "BTCUSDT", Side: domain.SideBuy, FromAsset: "USDT", ToAsset: "BTC"},
			{Symbol: "ETHBTC", Side: domain.SideBuy, FromAsset: "BTC", ToAsset: "ETH"},
			{Symbol: "ETHUSDT", Side: domain.SideSell, FromAsset: "ETH", ToAsset: "USDT"},
		},
	}
}

// TestAnalyze_S3PartialExecution mirrors scenario S3: legs 1 and 2
// fill, leg 3 is rejected — residual should be in ETH (leg 2's output).
func TestAnalyze_S3PartialExecution(t *testing.T) {
	result := domain.ExecutionResult{
		Opportunity: domain.Opportunity{Path: testPath()},
		Legs: [3]domain.LegResult{
			{Status: domain.LegFilled, FilledQty: 1, FilledPrice: 50000},
			{Status: domain.LegFilled, FilledQty: 16.95, FilledPrice: 0.059},
			{Status: domain.LegRejected},
		},
	}

	residual := Analyze(result)
	require.Contains(t, residual, "ETH")
	assert.InDelta(t, 16.95, residual["ETH"], 0.001)
	assert.NotContains(t, residual, "BTC")
}

func TestAnalyze_AllFilled_NoResidual(t *testing.T) {
	result := domain.ExecutionResult{
		Opportunity: domain.Opportunity{Path: testPath()},
		Legs: [3]domain.LegResult{
			{Status: domain.LegFilled, FilledQty: 1, FilledPrice: 50000},
			{Status: domain.LegFilled, FilledQty: 16.95, FilledPrice: 0.059},
			{Status: domain.LegFilled, FilledQty: 16.95, FilledPrice: 3000},
		},
	}

	assert.Empty(t, Analyze(result))
}

func TestRecover_LiquidatesResidualAsset(t *testing.T) {
	cat, err := catalog.New(ports.ExchangeInfo{Symbols: []ports.SymbolMetadata{
		{Symbol: "ETHUSDT", BaseAsset: "ETH", QuoteAsset: "USDT", StepSize: 0.0001, MinQty: 0.001, Status: "TRADING"},
	}})
	require.NoError(t, err)

	ft := &fakeTransport{resp: ports.OrderResponse{CumulativeQuoteQty: 50000}}
	l := New(ft, cat, "USDT")

	result := domain.ExecutionResult{
		Opportunity: domain.Opportunity{Path: testPath()},
		Legs: [3]domain.LegResult{
			{Status: domain.LegFilled, FilledQty: 1, FilledPrice: 50000},
			{Status: domain.LegFilled, FilledQty: 16.95, FilledPrice: 0.059},
			{Status: domain.LegRejected},
		},
	}

	rr := l.Recover(context.Background(), result)
	assert.True(t, rr.Success)
	assert.Equal(t, domain.RecoveryLiquidated, rr.Action)
	require.Len(t, ft.placed, 1)
	assert.Equal(t, "ETHUSDT", ft.placed[0].symbol)
	assert.Equal(t, domain.SideSell, ft.placed[0].side)
}

func TestRecover_NoResidual_ReturnsNone(t *testing.T) {
	cat, _ := catalog.New(ports.ExchangeInfo{Symbols: []ports.SymbolMetadata{
		{Symbol: "ETHUSDT", BaseAsset: "ETH", QuoteAsset: "USDT", Status: "TRADING"},
	}})
	l := New(&fakeTransport{}, cat, "USDT")

	result := domain.ExecutionResult{
		Opportunity: domain.Opportunity{Path: testPath()},
		Legs: [3]domain.LegResult{
			{Status: domain.LegFilled, FilledQty: 1, FilledPrice: 50000},
			{Status: domain.LegFilled, FilledQty: 16.95, FilledPrice: 0.059},
			{Status: domain.LegFilled, FilledQty: 16.95, FilledPrice: 3000},
		},
	}

	rr := l.Recover(context.Background(), result)
	assert.Equal(t, domain.RecoveryNone, rr.Action)
}

func TestRecover_SkipsDustBelowMinQty(t *testing.T) {
	cat, _ := catalog.New(ports.ExchangeInfo{Symbols: []ports.SymbolMetadata{
		{Symbol: "ETHUSDT", BaseAsset: "ETH", QuoteAsset: "USDT", MinQty: 100, Status: "TRADING"},
	}})
	l := New(&fakeTransport{}, cat, "USDT")

	result := domain.ExecutionResult{
		Opportunity: domain.Opportunity{Path: testPath()},
		Legs: [3]domain.LegResult{
			{Status: domain.LegFilled, FilledQty: 1, FilledPrice: 50000},
			{Status: domain.LegFilled, FilledQty: 0.01, FilledPrice: 0.059},
			{Status: domain.LegRejected},
		},
	}

	rr := l.Recover(context.Background(), result)
	assert.Equal(t, domain.RecoverySkippedDust, rr.Action)
	assert.False(t, rr.Success)
}
