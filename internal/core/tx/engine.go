package tx

import (
	"fmt"
	"sync"
	"time"
)

// TokenLedgerFactory binds a TokenLedger implementation to a buffered view
// for the duration of one transaction, so asset movements roll back with it.
type TokenLedgerFactory func(view LedgerView) TokenLedger

// EventSink receives the events of committed transactions.
type EventSink interface {
	Publish(ev Event)
}

// ApplyResult contains the result of applying a transaction.
type ApplyResult struct {
	// Result is the transaction result code.
	Result Result

	// Applied indicates if the transaction committed.
	Applied bool

	// Changes is the number of ledger entries touched.
	Changes int

	// Events are the events the transaction emitted (empty unless applied).
	Events []Event

	// Message is a human-readable result message.
	Message string
}

// Engine processes transactions against a ledger. Invocations are serialized;
// each one is atomic end to end: validation, authentication, state mutation,
// and event emission commit together or not at all.
type Engine struct {
	// mu serializes transaction application; HTTP submits arrive on
	// concurrent goroutines but the ledger admits one writer at a time.
	mu sync.Mutex

	view   LedgerView
	auth   AuthContext
	tokens TokenLedgerFactory
	config EngineConfig
	events EventSink
	clock  func() uint64
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock overrides the close-time source.
func WithClock(clock func() uint64) EngineOption {
	return func(e *Engine) { e.clock = clock }
}

// WithEvents sets the sink committed events are published to.
func WithEvents(sink EventSink) EngineOption {
	return func(e *Engine) { e.events = sink }
}

// WithConfig overrides the default pricing parameters.
func WithConfig(cfg EngineConfig) EngineOption {
	return func(e *Engine) { e.config = cfg }
}

// NewEngine creates an engine over the given state view. auth verifies the
// claimed principal; tokens binds the external asset ledger per transaction.
func NewEngine(view LedgerView, auth AuthContext, tokens TokenLedgerFactory, opts ...EngineOption) *Engine {
	e := &Engine{
		view:   view,
		auth:   auth,
		tokens: tokens,
		config: DefaultEngineConfig(),
		clock:  func() uint64 { return uint64(time.Now().Unix()) },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the engine pricing parameters.
func (e *Engine) Config() EngineConfig {
	return e.config
}

// View returns the committed state view, for read-only queries.
func (e *Engine) View() LedgerView {
	return e.view
}

// Tokens returns a token ledger bound to the committed view, for balance
// queries outside any transaction.
func (e *Engine) Tokens() TokenLedger {
	return e.tokens(e.view)
}

// Apply validates, authenticates, and applies a transaction using the
// engine's configured AuthContext. On success the buffered state is
// committed and the transaction's events are published; on any failure the
// ledger is untouched.
func (e *Engine) Apply(txn Transaction) ApplyResult {
	return e.ApplyWithAuth(txn, e.auth)
}

// ApplyWithAuth applies a transaction under a per-invocation AuthContext,
// as when each submission carries its own signature.
func (e *Engine) ApplyWithAuth(txn Transaction, auth AuthContext) ApplyResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := txn.Validate(); err != nil {
		return ApplyResult{Result: TemMALFORMED, Message: err.Error()}
	}

	account := txn.GetBase().Account
	if err := auth.Authorize(account); err != nil {
		return ApplyResult{Result: TefNO_AUTH, Message: err.Error()}
	}

	table := NewApplyStateTable(e.view)
	ctx := &ApplyContext{
		View:      table,
		Tokens:    e.tokens(table),
		Config:    e.config,
		CloseTime: e.clock(),
	}

	result := txn.Apply(ctx)
	if !result.Success() {
		return ApplyResult{Result: result, Message: result.String()}
	}

	if err := table.Commit(); err != nil {
		return ApplyResult{Result: TefINTERNAL, Message: fmt.Sprintf("commit failed: %v", err)}
	}

	events := ctx.Events()
	if e.events != nil {
		for _, ev := range events {
			e.events.Publish(ev)
		}
	}

	return ApplyResult{
		Result:  result,
		Applied: true,
		Changes: table.Changes(),
		Events:  events,
		Message: result.String(),
	}
}
