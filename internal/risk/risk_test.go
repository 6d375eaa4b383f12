package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/triarb/triarb/internal/domain"
)

func testLimits() domain.RiskLimits {
	return domain.RiskLimits{
		MaxPositionPct:         0.5,
		MaxTradeSize:           1000,
		MinTradeSize:           10,
		DailyLossLimit:         50,
		MaxDailyTrades:         5,
		MaxConcurrentPositions: 2,
		MinTimeBetweenTradesMs: 0,
	}
}

// TestCheckTrade_S6DailyLossHalt mirrors scenario S6.
func TestCheckTrade_S6DailyLossHalt(t *testing.T) {
	m := New(10000, testLimits())

	m.RecordTradeComplete(-25)
	assert.False(t, m.State().IsHalted)

	m.RecordTradeComplete(-30)
	state := m.State()
	assert.True(t, state.IsHalted)
	assert.Contains(t, state.HaltReason, "loss limit")

	result := m.CheckTrade(domain.Opportunity{NetReturn: 1.01}, 100)
	assert.False(t, result.Passed)
}

func TestCheckTrade_RejectsBelowMinSize(t *testing.T) {
	m := New(10000, testLimits())
	result := m.CheckTrade(domain.Opportunity{NetReturn: 1.01}, 1)
	assert.False(t, result.Passed)
}

func TestCheckTrade_ClampsToMaxTradeSize(t *testing.T) {
	m := New(10000, testLimits())
	result := m.CheckTrade(domain.Opportunity{NetReturn: 1.01}, 5000)
	assert.True(t, result.Passed)
	assert.Equal(t, 1000.0, result.AdjustedSize)
}

func TestCheckTrade_RejectsNegativeExpectedProfit(t *testing.T) {
	m := New(10000, testLimits())
	result := m.CheckTrade(domain.Opportunity{NetReturn: 0.99}, 100)
	assert.False(t, result.Passed)
}

func TestCheckTrade_RejectsWhenMaxConcurrentPositionsReached(t *testing.T) {
	m := New(10000, testLimits())
	m.RecordTradeStart()
	m.RecordTradeStart()

	result := m.CheckTrade(domain.Opportunity{NetReturn: 1.01}, 100)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Reason, "concurrent positions")
}

func TestLifecycle_OpenPositionsNeverNegative(t *testing.T) {
	m := New(10000, testLimits())
	m.RecordTradeFailed()
	m.RecordTradeFailed()
	assert.GreaterOrEqual(t, m.State().OpenPositions, 0)
}

func TestRollover_ResetsCountersAndLiftsDailyHalt(t *testing.T) {
	m := New(10000, testLimits())
	m.RecordTradeComplete(-60) // breaches daily loss limit, halts
	require := assert.New(t)
	require.True(m.State().IsHalted)

	// Simulate calendar rollover by forcing a stale CurrentDate, so the
	// real clock's date reads as a new day.
	m.mu.Lock()
	m.state.CurrentDate = "2000-01-01"
	m.mu.Unlock()
	m.now = func() time.Time { return time.Now() }

	result := m.CheckTrade(domain.Opportunity{NetReturn: 1.01}, 100)
	require.True(result.Passed || result.Reason != "halted: Daily loss limit breached")
	require.Equal(0, m.State().DailyTrades)
}
