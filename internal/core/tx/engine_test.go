package tx

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumeforge/venued/internal/core/entry"
	"github.com/lumeforge/venued/internal/core/keylet"
)

// scriptedTx mutates state and then returns a scripted result, for engine
// atomicity tests.
type scriptedTx struct {
	BaseTx
	writes int
	result Result
}

func (s *scriptedTx) TxType() Type { return Type("Scripted") }

func (s *scriptedTx) Validate() error { return s.BaseTx.Validate() }

func (s *scriptedTx) Apply(ctx *ApplyContext) Result {
	for i := 0; i < s.writes; i++ {
		id, err := ctx.NextID(CounterOrder)
		if err != nil {
			return TefINTERNAL
		}
		if err := ctx.View.Insert(keylet.Order(id), []byte{byte(i)}); err != nil {
			return TefINTERNAL
		}
	}
	if s.result == TesSUCCESS {
		ctx.Emit(Event{Type: "scripted", Key: "k"})
	}
	return s.result
}

type denyAuth struct{}

func (denyAuth) Authorize(entry.Address) error { return errors.New("denied") }

type allowAuth struct{}

func (allowAuth) Authorize(entry.Address) error { return nil }

type nullTokens struct{}

func (nullTokens) Transfer(asset, from, to entry.Address, amount int64) error { return nil }
func (nullTokens) BalanceOf(asset, holder entry.Address) (int64, error)       { return 0, nil }

func newTestEngine(view LedgerView, opts ...EngineOption) *Engine {
	factory := func(LedgerView) TokenLedger { return nullTokens{} }
	return NewEngine(view, allowAuth{}, factory, opts...)
}

type collectSink struct {
	events []Event
}

func (c *collectSink) Publish(ev Event) { c.events = append(c.events, ev) }

func TestEngineCommitsOnSuccess(t *testing.T) {
	base := newMemView()
	sink := &collectSink{}
	engine := newTestEngine(base, WithEvents(sink))

	txn := &scriptedTx{BaseTx: *NewBaseTx("Scripted", entry.Address{1}), writes: 2, result: TesSUCCESS}
	result := engine.Apply(txn)

	require.True(t, result.Applied)
	require.Equal(t, TesSUCCESS, result.Result)

	exists, err := base.Exists(keylet.Order(1))
	require.NoError(t, err)
	require.True(t, exists)

	require.Len(t, sink.events, 1)
	require.Equal(t, "scripted", sink.events[0].Type)
}

func TestEngineRollsBackOnFailure(t *testing.T) {
	base := newMemView()
	sink := &collectSink{}
	engine := newTestEngine(base, WithEvents(sink))

	txn := &scriptedTx{BaseTx: *NewBaseTx("Scripted", entry.Address{1}), writes: 3, result: TecNO_ENTRY}
	result := engine.Apply(txn)

	require.False(t, result.Applied)
	require.Equal(t, TecNO_ENTRY, result.Result)

	// Every buffered write, counter increments included, was discarded.
	for id := uint64(1); id <= 3; id++ {
		exists, err := base.Exists(keylet.Order(id))
		require.NoError(t, err)
		require.False(t, exists)
	}
	exists, err := base.Exists(keylet.Counter(CounterOrder))
	require.NoError(t, err)
	require.False(t, exists)

	require.Empty(t, sink.events, "failed transactions publish nothing")
}

func TestEngineRejectsMalformed(t *testing.T) {
	engine := newTestEngine(newMemView())

	// Zero account fails BaseTx validation.
	txn := &scriptedTx{BaseTx: BaseTx{Type: "Scripted"}, result: TesSUCCESS}
	result := engine.Apply(txn)

	require.False(t, result.Applied)
	require.Equal(t, TemMALFORMED, result.Result)
}

func TestEngineAuthFailure(t *testing.T) {
	base := newMemView()
	factory := func(LedgerView) TokenLedger { return nullTokens{} }
	engine := NewEngine(base, denyAuth{}, factory)

	txn := &scriptedTx{BaseTx: *NewBaseTx("Scripted", entry.Address{1}), writes: 1, result: TesSUCCESS}
	result := engine.Apply(txn)

	require.False(t, result.Applied)
	require.Equal(t, TefNO_AUTH, result.Result)
}

func TestEngineApplyWithAuthOverrides(t *testing.T) {
	base := newMemView()
	factory := func(LedgerView) TokenLedger { return nullTokens{} }
	engine := NewEngine(base, denyAuth{}, factory)

	txn := &scriptedTx{BaseTx: *NewBaseTx("Scripted", entry.Address{1}), writes: 1, result: TesSUCCESS}
	result := engine.ApplyWithAuth(txn, allowAuth{})
	require.True(t, result.Applied)
}

func TestEngineSerializesConcurrentApplies(t *testing.T) {
	base := newMemView()
	engine := newTestEngine(base)

	const submitters = 16
	results := make([]ApplyResult, submitters)
	var wg sync.WaitGroup
	wg.Add(submitters)
	for i := 0; i < submitters; i++ {
		go func(slot int) {
			defer wg.Done()
			txn := &scriptedTx{BaseTx: *NewBaseTx("Scripted", entry.Address{1}), writes: 1, result: TesSUCCESS}
			results[slot] = engine.Apply(txn)
		}(i)
	}
	wg.Wait()

	for _, result := range results {
		require.True(t, result.Applied)
	}

	// No duplicate ids and no lost writes: every id 1..submitters exists
	// and the counter landed exactly on submitters.
	for id := uint64(1); id <= submitters; id++ {
		exists, err := base.Exists(keylet.Order(id))
		require.NoError(t, err)
		require.True(t, exists, "order %d missing", id)
	}
	ctx := &ApplyContext{View: NewApplyStateTable(base)}
	current, err := ctx.CurrentID(CounterOrder)
	require.NoError(t, err)
	require.Equal(t, uint64(submitters), current)
}

func TestNextIDSequence(t *testing.T) {
	base := newMemView()
	table := NewApplyStateTable(base)
	ctx := &ApplyContext{View: table}

	first, err := ctx.NextID(CounterTrade)
	require.NoError(t, err)
	require.Equal(t, uint64(1), first, "ids start at 1")

	second, err := ctx.NextID(CounterTrade)
	require.NoError(t, err)
	require.Equal(t, uint64(2), second)

	// Separate counters advance independently.
	other, err := ctx.NextID(CounterOrder)
	require.NoError(t, err)
	require.Equal(t, uint64(1), other)

	current, err := ctx.CurrentID(CounterTrade)
	require.NoError(t, err)
	require.Equal(t, uint64(2), current)
}
