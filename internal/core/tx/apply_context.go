package tx

import (
	"github.com/lumeforge/venued/internal/core/entry"
	"github.com/lumeforge/venued/internal/core/keylet"
)

// EngineConfig holds the pricing parameters the engines read at apply time.
type EngineConfig struct {
	// AMMFeeNum/AMMFeeDen embed the swap fee in the exchange rate
	// (997/1000 is a 30 bps fee).
	AMMFeeNum int64
	AMMFeeDen int64

	// CurveSellFeeDiv divides the XLM leg of a curve sell to obtain the
	// flat fee (100 is a 1% fee). Curve buys pay no explicit fee.
	CurveSellFeeDiv int64
}

// DefaultEngineConfig returns the production fee parameters.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{AMMFeeNum: 997, AMMFeeDen: 1000, CurveSellFeeDiv: 100}
}

// Event is a single venue event emitted by a committed transaction.
type Event struct {
	// Type is the event name (pool_created, swap, buy, sell, ...).
	Type string `json:"type"`

	// Key scopes the event (symbol for pools and markets, account for
	// order book events).
	Key string `json:"key"`

	// Data is the event payload.
	Data map[string]any `json:"data"`
}

// ApplyContext provides the state and collaborators a transaction needs to
// apply. Everything is injected; transactions never reach for globals.
type ApplyContext struct {
	// View provides buffered read/write access to ledger state.
	View LedgerView

	// Tokens is the external asset ledger, bound to the same buffered view.
	Tokens TokenLedger

	// Config holds the engine pricing parameters.
	Config EngineConfig

	// CloseTime is the wall-clock second the transaction commits at.
	CloseTime uint64

	// events accumulates emitted events; the engine publishes them only
	// when the transaction commits.
	events []Event
}

// Emit queues an event for publication on commit.
func (ctx *ApplyContext) Emit(ev Event) {
	ctx.events = append(ctx.events, ev)
}

// Events returns the queued events.
func (ctx *ApplyContext) Events() []Event {
	return ctx.events
}

// Counter names owned by the engines.
const (
	CounterPool   = "pool"
	CounterMarket = "market"
	CounterOrder  = "order"
	CounterTrade  = "trade"
)

// NextID advances the named sequence and returns the newly assigned id.
// Ids start at 1. Counters are owned by the engines' state and are only
// reachable through this accessor.
func (ctx *ApplyContext) NextID(name string) (uint64, error) {
	k := keylet.Counter(name)

	var c entry.Counter
	data, err := ctx.View.Read(k)
	if err != nil {
		return 0, err
	}
	exists := data != nil
	if exists {
		if err := entry.Decode(data, &c); err != nil {
			return 0, err
		}
	}

	c.Value++
	out, err := entry.Encode(&c)
	if err != nil {
		return 0, err
	}
	if exists {
		err = ctx.View.Update(k, out)
	} else {
		err = ctx.View.Insert(k, out)
	}
	if err != nil {
		return 0, err
	}
	return c.Value, nil
}

// CurrentID returns the most recently assigned id of the named sequence
// without advancing it.
func (ctx *ApplyContext) CurrentID(name string) (uint64, error) {
	data, err := ctx.View.Read(keylet.Counter(name))
	if err != nil {
		return 0, err
	}
	if data == nil {
		return 0, nil
	}
	var c entry.Counter
	if err := entry.Decode(data, &c); err != nil {
		return 0, err
	}
	return c.Value, nil
}
