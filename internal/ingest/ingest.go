// Package ingest implements the reconnecting stream ingestor of spec
// component 4.2: shard symbols across connections, each a state
// machine with exponential backoff, feeding normalized ticks into the
// BBO cache. Grounded on the reconnect-on-error retry loop in
// yohannesjx-sniperterminal's PredatorWorker.Run (predator_engine.go:
// dial, read loop, break-and-sleep on error, retry), generalized here
// from a bare unconditional retry loop into the explicit
// Disconnected/Connecting/Connected/Reconnecting/Closed state machine
// and exponential-backoff schedule spec.md requires, and from a single
// connection per worker into N connections sharded by
// maxStreamsPerConnection.
package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/triarb/triarb/internal/bbo"
	"github.com/triarb/triarb/internal/clock"
	"github.com/triarb/triarb/internal/domain"
	"github.com/triarb/triarb/internal/ports"
)

// State is one phase of a connection's lifecycle.
type State string

const (
	StateDisconnected State = "DISCONNECTED"
	StateConnecting   State = "CONNECTING"
	StateConnected    State = "CONNECTED"
	StateReconnecting State = "RECONNECTING"
	StateClosed       State = "CLOSED"
)

const (
	maxStreamsPerConnection = 200
	minReconnectDelay       = time.Second
	maxReconnectDelay       = 30 * time.Second
	reconnectMultiplier     = 2
)

// Ingestor fans symbols out across one or more connections and
// delivers normalized ticks to the BBO cache.
type Ingestor struct {
	transport ports.ExchangeTransport
	cache     *bbo.Cache
	onTick    func(symbol string)

	connections []*connection
}

// New builds an Ingestor over the given symbols, sharding them into
// connections of at most maxStreamsPerConnection. onTick, if non-nil,
// is invoked with the symbol after every cache update (wiring point
// for the detector).
func New(transport ports.ExchangeTransport, cache *bbo.Cache, symbols []string, onTick func(symbol string)) *Ingestor {
	ing := &Ingestor{transport: transport, cache: cache, onTick: onTick}

	for start := 0; start < len(symbols); start += maxStreamsPerConnection {
		end := start + maxStreamsPerConnection
		if end > len(symbols) {
			end = len(symbols)
		}
		ing.connections = append(ing.connections, &connection{
			ingestor: ing,
			symbols:  symbols[start:end],
			state:    StateDisconnected,
		})
	}

	return ing
}

// Run starts every connection's consume loop and blocks until ctx is
// cancelled, then waits for all connections to close.
func (i *Ingestor) Run(ctx context.Context) {
	done := make(chan struct{}, len(i.connections))
	for _, c := range i.connections {
		go func(c *connection) {
			c.run(ctx)
			done <- struct{}{}
		}(c)
	}
	for range i.connections {
		<-done
	}
}

// States returns the current state of every connection, for
// diagnostics/health reporting.
func (i *Ingestor) States() []State {
	out := make([]State, len(i.connections))
	for idx, c := range i.connections {
		out[idx] = c.state
	}
	return out
}

type connection struct {
	ingestor *Ingestor
	symbols  []string
	state    State
}

// run implements the Disconnected -> Connecting -> Connected ->
// Reconnecting -> Closed state machine with exponential backoff,
// consulting ctx between receives so Run's cancellation stops the
// loop promptly (spec.md's "running flag consulted between receive
// operations").
func (c *connection) run(ctx context.Context) {
	delay := minReconnectDelay

	for {
		select {
		case <-ctx.Done():
			c.state = StateClosed
			return
		default:
		}

		c.state = StateConnecting
		ticks, errs, err := c.ingestor.transport.Subscribe(ctx, c.symbols)
		if err != nil {
			slog.Warn("ingest: subscribe failed", "symbols", len(c.symbols), "err", err)
			if !c.backoff(ctx, &delay) {
				return
			}
			continue
		}

		c.state = StateConnected
		delay = minReconnectDelay

		if !c.consume(ctx, ticks, errs) {
			return
		}

		c.state = StateReconnecting
		if !c.backoff(ctx, &delay) {
			return
		}
	}
}

// consume reads ticks until the stream closes, ctx is cancelled, or a
// fatal transport error arrives. Returns false if the caller should
// stop entirely (ctx cancelled).
func (c *connection) consume(ctx context.Context, ticks <-chan ports.Tick, errs <-chan error) bool {
	for {
		select {
		case <-ctx.Done():
			c.state = StateClosed
			return false
		case tick, ok := <-ticks:
			if !ok {
				return true
			}
			c.handleTick(tick)
		case err, ok := <-errs:
			if !ok {
				return true
			}
			slog.Warn("ingest: stream error", "err", err)
			return true
		}
	}
}

func (c *connection) handleTick(t ports.Tick) {
	b := domain.BBO{
		Symbol:      t.Symbol,
		BidPrice:    t.Bid,
		BidQty:      t.BidQty,
		AskPrice:    t.Ask,
		AskQty:      t.AskQty,
		UpdateID:    t.UpdateID,
		TimestampUs: clock.NowMicros(),
	}
	if !b.Valid() {
		slog.Debug("ingest: dropped malformed tick", "symbol", t.Symbol)
		return
	}

	c.ingestor.cache.Update(b)
	if c.ingestor.onTick != nil {
		c.ingestor.onTick(t.Symbol)
	}
}

// backoff sleeps for the current delay (doubling it, capped at
// maxReconnectDelay, for next time), returning false if ctx is
// cancelled during the wait.
func (c *connection) backoff(ctx context.Context, delay *time.Duration) bool {
	select {
	case <-time.After(*delay):
	case <-ctx.Done():
		c.state = StateClosed
		return false
	}

	next := *delay * reconnectMultiplier
	if next > maxReconnectDelay {
		next = maxReconnectDelay
	}
	*delay = next
	return true
}
