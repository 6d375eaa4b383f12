package bbo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/triarb/triarb/internal/domain"
)

func tick(symbol string, bid, ask float64) domain.BBO {
	return domain.BBO{Symbol: symbol, BidPrice: bid, AskPrice: ask, BidQty: 1, AskQty: 1}
}

func TestCache_UpdateAndGet(t *testing.T) {
	c := New()
	c.Update(tick("BTCUSDT", 49990, 50000))

	got, ok := c.Get("BTCUSDT")
	assert.True(t, ok)
	assert.Equal(t, 49990.0, got.BidPrice)
	assert.Equal(t, 50000.0, got.AskPrice)
}

func TestCache_ReplayIsIdempotentButBumpsCounter(t *testing.T) {
	c := New()
	b := tick("BTCUSDT", 49990, 50000)
	c.Update(b)
	c.Update(b)

	got, _ := c.Get("BTCUSDT")
	assert.Equal(t, b, got)
	assert.EqualValues(t, 2, c.UpdateCount("BTCUSDT"))
}

func TestCache_GetPricesForTriangle_MissingSymbol(t *testing.T) {
	c := New()
	c.Update(tick("BTCUSDT", 49990, 50000))

	_, ok := c.GetPricesForTriangle([3]string{"BTCUSDT", "ETHBTC", "ETHUSDT"})
	assert.False(t, ok)
}

func TestCache_GetPricesForTriangle_AllPresent(t *testing.T) {
	c := New()
	c.Update(tick("BTCUSDT", 49990, 50000))
	c.Update(tick("ETHBTC", 0.0589, 0.059))
	c.Update(tick("ETHUSDT", 3000, 3001))

	prices, ok := c.GetPricesForTriangle([3]string{"BTCUSDT", "ETHBTC", "ETHUSDT"})
	assert.True(t, ok)
	assert.Equal(t, 50000.0, prices[0].Ask)
	assert.Equal(t, 0.059, prices[1].Ask)
	assert.Equal(t, 3000.0, prices[2].Bid)
}

func TestCache_CallbacksInvokedInOrder_PanicIsolated(t *testing.T) {
	c := New()
	var order []int
	c.OnUpdate(func(string, domain.BBO) { order = append(order, 1) })
	c.OnUpdate(func(string, domain.BBO) { panic("boom") })
	c.OnUpdate(func(string, domain.BBO) { order = append(order, 3) })

	c.Update(tick("BTCUSDT", 1, 2))

	assert.Equal(t, []int{1, 3}, order)
}

func TestCache_HasAllSymbols(t *testing.T) {
	c := New()
	c.Update(tick("A", 1, 2))
	c.Update(tick("B", 1, 2))

	assert.False(t, c.HasAllSymbols([3]string{"A", "B", "C"}))
	c.Update(tick("C", 1, 2))
	assert.True(t, c.HasAllSymbols([3]string{"A", "B", "C"}))
}
