// Package risk implements the pre-trade gate, position/day counters,
// and halt state of spec component 4.6. Grounded on the halt/cooldown
// shape of AlejandroRuiz99-polybot's domain.CircuitBreaker
// (internal/domain/live.go: ConsecutiveLosses/CooldownUntil/Triggered,
// IsOpen/RecordLoss/RecordWin), generalized here from a single
// max-consecutive-losses breaker into the full limit set — daily P&L,
// daily trade count, concurrent positions, and minimum inter-trade
// spacing — spec.md's RiskLimits requires, plus calendar-day rollover
// borrowed from the daily-summary bookkeeping in
// internal/application/engine/live/engine.go.
package risk

import (
	"strings"
	"sync"
	"time"

	"github.com/triarb/triarb/internal/domain"
)

// Manager owns a single RiskState and gates every proposed trade
// against the configured RiskLimits.
type Manager struct {
	mu     sync.Mutex
	state  domain.RiskState
	limits domain.RiskLimits
	now    func() time.Time
}

// New creates a Manager seeded with the starting balance and limits.
func New(balance float64, limits domain.RiskLimits) *Manager {
	return &Manager{
		state: domain.RiskState{
			Balance:     balance,
			CurrentDate: today(time.Now()),
		},
		limits: limits,
		now:    time.Now,
	}
}

func today(t time.Time) string {
	return t.Format("2006-01-02")
}

// State returns a snapshot of the current risk state.
func (m *Manager) State() domain.RiskState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Halt sets the halt flag with the given reason.
func (m *Manager) Halt(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.IsHalted = true
	m.state.HaltReason = reason
}

// ClearHalt lifts any active halt.
func (m *Manager) ClearHalt() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.IsHalted = false
	m.state.HaltReason = ""
}

// CheckTrade implements the five-step gate described in spec 4.6.
func (m *Manager) CheckTrade(opp domain.Opportunity, size float64) domain.CheckResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rolloverIfNewDayLocked()

	nowMs := m.now().UnixMilli()

	if m.state.IsHalted {
		return domain.CheckResult{Passed: false, Reason: "halted: " + m.state.HaltReason}
	}
	if m.state.DailyPnL <= -m.limits.DailyLossLimit {
		return domain.CheckResult{Passed: false, Reason: "daily loss limit breached"}
	}
	if m.limits.MaxDailyTrades > 0 && m.state.DailyTrades >= m.limits.MaxDailyTrades {
		return domain.CheckResult{Passed: false, Reason: "max daily trades reached"}
	}
	if m.limits.MaxConcurrentPositions > 0 && m.state.OpenPositions >= m.limits.MaxConcurrentPositions {
		return domain.CheckResult{Passed: false, Reason: "max concurrent positions reached"}
	}
	if m.state.LastTradeTimeMs > 0 && nowMs-m.state.LastTradeTimeMs < m.limits.MinTimeBetweenTradesMs {
		return domain.CheckResult{Passed: false, Reason: "minimum time between trades not elapsed"}
	}

	maxBySize := m.limits.MaxTradeSize
	maxByPosition := m.state.Balance * m.limits.MaxPositionPct
	cap := maxBySize
	if maxByPosition < cap || cap <= 0 {
		cap = maxByPosition
	}

	adjusted := size
	if adjusted > cap {
		adjusted = cap
	}
	if adjusted < m.limits.MinTradeSize {
		return domain.CheckResult{Passed: false, Reason: "adjusted size below minimum trade size"}
	}

	expectedProfit := adjusted * (opp.NetReturn - 1)
	if expectedProfit < 0 {
		return domain.CheckResult{Passed: false, Reason: "expected profit is negative"}
	}

	return domain.CheckResult{Passed: true, AdjustedSize: adjusted}
}

// RecordTradeStart increments open positions and stamps the last-trade
// time. Must run strictly before dispatch.
func (m *Manager) RecordTradeStart() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.OpenPositions++
	m.state.LastTradeTimeMs = m.now().UnixMilli()
}

// RecordTradeComplete decrements open positions, increments the daily
// trade count, adds pnl, and auto-halts on a daily-loss-limit breach.
// Must run strictly after all legs resolve.
func (m *Manager) RecordTradeComplete(pnl float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.OpenPositions > 0 {
		m.state.OpenPositions--
	}
	m.state.DailyTrades++
	m.state.DailyPnL += pnl

	if m.state.DailyPnL <= -m.limits.DailyLossLimit {
		m.state.IsHalted = true
		m.state.HaltReason = "Daily loss limit breached"
	}
}

// RecordTradeFailed decrements open positions only; it does not count
// against the daily trade budget or alter PnL.
func (m *Manager) RecordTradeFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.OpenPositions > 0 {
		m.state.OpenPositions--
	}
}

// rolloverIfNewDayLocked resets daily counters on calendar-day
// rollover and lifts any halt whose reason begins with "Daily".
// Caller must hold m.mu.
func (m *Manager) rolloverIfNewDayLocked() {
	d := today(m.now())
	if d == m.state.CurrentDate {
		return
	}
	m.state.CurrentDate = d
	m.state.DailyPnL = 0
	m.state.DailyTrades = 0
	if m.state.IsHalted && strings.HasPrefix(m.state.HaltReason, "Daily") {
		m.state.IsHalted = false
		m.state.HaltReason = ""
	}
}
