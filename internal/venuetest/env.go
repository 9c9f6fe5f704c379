// Package venuetest provides a test environment for transaction testing.
// It wires an engine over an in-memory ledger and gives tests a simplified
// interface for funding accounts, submitting transactions, and verifying
// results and events.
package venuetest

import (
	"crypto/sha256"
	"testing"

	"github.com/lumeforge/venued/internal/auth"
	"github.com/lumeforge/venued/internal/core/entry"
	"github.com/lumeforge/venued/internal/core/state"
	"github.com/lumeforge/venued/internal/core/token"
	"github.com/lumeforge/venued/internal/core/tx"
	"github.com/lumeforge/venued/internal/events"
	"github.com/lumeforge/venued/internal/storage/kv"
)

// Env manages a test ledger environment.
type Env struct {
	T      *testing.T
	Engine *tx.Engine
	State  *state.Store
	Events *events.Publisher
	Clock  *ManualClock

	// Collected holds every event published by committed transactions,
	// in order.
	Collected []tx.Event
}

// NewEnv creates an environment over an in-memory ledger with a manual
// clock and permissive auth.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	stateStore := state.NewStore(kv.NewStore(kv.NewMemoryBackend()))
	t.Cleanup(func() { stateStore.Close() })

	publisher := events.NewPublisher()
	clock := NewManualClock(1_700_000_000)

	env := &Env{
		T:      t,
		State:  stateStore,
		Events: publisher,
		Clock:  clock,
	}
	publisher.Subscribe(func(ev tx.Event) {
		env.Collected = append(env.Collected, ev)
	})

	env.Engine = tx.NewEngine(stateStore, auth.AllowAll{}, token.NewStateLedger,
		tx.WithEvents(publisher),
		tx.WithClock(clock.Now))
	return env
}

// Apply submits a transaction and returns the result.
func (e *Env) Apply(txn tx.Transaction) tx.ApplyResult {
	e.T.Helper()
	return e.Engine.Apply(txn)
}

// MustApply submits a transaction and fails the test unless it commits.
func (e *Env) MustApply(txn tx.Transaction) tx.ApplyResult {
	e.T.Helper()
	result := e.Engine.Apply(txn)
	if !result.Applied {
		e.T.Fatalf("transaction %s failed: %s (%s)", txn.TxType(), result.Result, result.Message)
	}
	return result
}

// Fund credits an account with an asset directly in committed state.
func (e *Env) Fund(asset, account entry.Address, amount int64) {
	e.T.Helper()
	if err := token.Mint(e.State, asset, account, amount); err != nil {
		e.T.Fatalf("failed to fund %s: %v", account, err)
	}
}

// Balance reads a committed token balance.
func (e *Env) Balance(asset, holder entry.Address) int64 {
	e.T.Helper()
	amount, err := token.NewStateLedger(e.State).BalanceOf(asset, holder)
	if err != nil {
		e.T.Fatalf("failed to read balance of %s: %v", holder, err)
	}
	return amount
}

// LastEvent returns the most recently collected event, failing when none
// were published.
func (e *Env) LastEvent() tx.Event {
	e.T.Helper()
	if len(e.Collected) == 0 {
		e.T.Fatal("no events were published")
	}
	return e.Collected[len(e.Collected)-1]
}

// Account derives a deterministic test address from a name.
func Account(name string) entry.Address {
	sum := sha256.Sum256([]byte("venuetest/" + name))
	var a entry.Address
	copy(a[:], sum[:20])
	return a
}

// ManualClock is a settable close-time source.
type ManualClock struct {
	now uint64
}

// NewManualClock starts a clock at the given unix second.
func NewManualClock(start uint64) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current clock reading.
func (c *ManualClock) Now() uint64 { return c.now }

// Advance moves the clock forward.
func (c *ManualClock) Advance(seconds uint64) { c.now += seconds }
