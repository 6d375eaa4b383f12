package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/triarb/triarb/internal/bbo"
	"github.com/triarb/triarb/internal/domain"
)

func testPath() *domain.TrianglePath {
	return &domain.TrianglePath{
		ID:        "t1",
		BaseAsset: "USDT",
		Legs: [3]domain.TriangleLeg{
			{Symbol: "BTCUSDT", Side: domain.SideBuy, FromAsset: "USDT", ToAsset: "BTC"},
			{Symbol: "ETHBTC", Side: domain.SideBuy, FromAsset: "BTC", ToAsset: "ETH"},
			{Symbol: "ETHUSDT", Side: domain.SideSell, FromAsset: "ETH", ToAsset: "USDT"},
		},
		Symbols: map[string]struct{}{"BTCUSDT": {}, "ETHBTC": {}, "ETHUSDT": {}},
	}
}

// TestEvaluate_S1Profitable mirrors scenario S1 from the spec.
func TestEvaluate_S1Profitable(t *testing.T) {
	c := New(0.001)
	path := testPath()
	prices := [3]bbo.PricePair{
		{Bid: 49990, Ask: 50000},
		{Bid: 0.0589, Ask: 0.059},
		{Bid: 3000, Ask: 3001},
	}

	opp, ok := c.Evaluate(path, prices, [3]float64{1, 50, 10})
	assert.True(t, ok)
	assert.InDelta(t, 1.01695, opp.GrossReturn, 0.0001)
	assert.InDelta(t, 1.01390, opp.NetReturn, 0.0001)
	assert.True(t, opp.IsProfitable())
}

// TestEvaluate_S2Unprofitable mirrors scenario S2.
func TestEvaluate_S2Unprofitable(t *testing.T) {
	c := New(0.001)
	path := testPath()
	prices := [3]bbo.PricePair{
		{Bid: 49990, Ask: 50000},
		{Bid: 0.0589, Ask: 0.061},
		{Bid: 2990, Ask: 3001},
	}

	opp, ok := c.Evaluate(path, prices, [3]float64{1, 50, 10})
	assert.True(t, ok)
	assert.Less(t, opp.GrossReturn, 1.0)
	assert.False(t, opp.IsProfitable())
}

func TestEvaluate_MissingPriceReturnsFalse(t *testing.T) {
	c := New(0.001)
	path := testPath()
	prices := [3]bbo.PricePair{
		{Bid: 49990, Ask: 0},
		{Bid: 0.0589, Ask: 0.059},
		{Bid: 3000, Ask: 3001},
	}

	_, ok := c.Evaluate(path, prices, [3]float64{1, 50, 10})
	assert.False(t, ok)
}

func TestEvaluate_ProfitPctMatchesNetReturn(t *testing.T) {
	c := New(0.001)
	path := testPath()
	prices := [3]bbo.PricePair{
		{Bid: 49990, Ask: 50000},
		{Bid: 0.0589, Ask: 0.059},
		{Bid: 3000, Ask: 3001},
	}

	opp, ok := c.Evaluate(path, prices, [3]float64{1, 50, 10})
	assert.True(t, ok)
	assert.InDelta(t, (opp.NetReturn-1)*100, opp.ProfitPct, 1e-9)
}

func TestFeeMultiplier_ComposesThreeLegs(t *testing.T) {
	c := New(0.001)
	assert.InDelta(t, 0.997003, c.FeeMultiplier(), 1e-6)
}

func TestQuickCheck_SkipsQuantityWork(t *testing.T) {
	c := New(0.001)
	path := testPath()
	prices := [3]bbo.PricePair{
		{Bid: 49990, Ask: 50000},
		{Bid: 0.0589, Ask: 0.059},
		{Bid: 3000, Ask: 3001},
	}
	assert.True(t, c.QuickCheck(path, prices, 0.5))
	assert.False(t, c.QuickCheck(path, prices, 10))
}
