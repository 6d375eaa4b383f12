package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/triarb/triarb/internal/bbo"
	"github.com/triarb/triarb/internal/calc"
	"github.com/triarb/triarb/internal/catalog"
	"github.com/triarb/triarb/internal/domain"
	"github.com/triarb/triarb/internal/ports"
	"github.com/triarb/triarb/internal/triangle"
)

func buildFixture(t *testing.T) (*Detector, *bbo.Cache) {
	t.Helper()
	c, err := catalog.New(ports.ExchangeInfo{Symbols: []ports.SymbolMetadata{
		{Symbol: "BTCUSDT", BaseAsset: "BTC", QuoteAsset: "USDT", Status: "TRADING"},
		{Symbol: "ETHBTC", BaseAsset: "ETH", QuoteAsset: "BTC", Status: "TRADING"},
		{Symbol: "ETHUSDT", BaseAsset: "ETH", QuoteAsset: "USDT", Status: "TRADING"},
	}})
	require.NoError(t, err)

	tri := triangle.Discover(c, "USDT", 10)
	cache := bbo.New()
	calculator := calc.New(0.001)
	d := New(tri, cache, calculator, 0.005)
	return d, cache
}

func pushProfitableTicks(cache *bbo.Cache) {
	cache.Update(domain.BBO{Symbol: "BTCUSDT", BidPrice: 49990, AskPrice: 50000, BidQty: 1, AskQty: 1})
	cache.Update(domain.BBO{Symbol: "ETHBTC", BidPrice: 0.0589, AskPrice: 0.059, BidQty: 50, AskQty: 50})
	cache.Update(domain.BBO{Symbol: "ETHUSDT", BidPrice: 3000, AskPrice: 3001, BidQty: 10, AskQty: 10})
}

func TestOnTick_EmitsProfitableOpportunity(t *testing.T) {
	d, cache := buildFixture(t)
	pushProfitableTicks(cache)

	opps := d.OnTick("ETHUSDT")
	require.Len(t, opps, 1)
	assert.True(t, opps[0].IsProfitable())
}

// TestOnTick_CooldownSuppression mirrors scenario S5: two identical
// profitable ticks in quick succession emit exactly once.
func TestOnTick_CooldownSuppression(t *testing.T) {
	d, cache := buildFixture(t)
	pushProfitableTicks(cache)

	first := d.OnTick("ETHUSDT")
	require.Len(t, first, 1)

	second := d.OnTick("ETHUSDT")
	assert.Len(t, second, 0)
}

func TestOnTick_NoTrianglesForSymbol(t *testing.T) {
	d, _ := buildFixture(t)
	opps := d.OnTick("UNKNOWN")
	assert.Nil(t, opps)
}

func TestOnTick_DeliversToCallbacks(t *testing.T) {
	d, cache := buildFixture(t)
	pushProfitableTicks(cache)

	var delivered []domain.Opportunity
	d.OnOpportunity(func(o domain.Opportunity) { delivered = append(delivered, o) })

	d.OnTick("ETHUSDT")
	assert.Len(t, delivered, 1)
}

func TestScanAll_CoversEveryTriangle(t *testing.T) {
	d, cache := buildFixture(t)
	pushProfitableTicks(cache)

	opps := d.ScanAll()
	assert.Len(t, opps, 1)
}
