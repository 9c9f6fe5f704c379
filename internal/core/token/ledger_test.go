package token_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumeforge/venued/internal/core/entry"
	"github.com/lumeforge/venued/internal/core/state"
	"github.com/lumeforge/venued/internal/core/token"
	"github.com/lumeforge/venued/internal/core/tx"
	"github.com/lumeforge/venued/internal/storage/kv"
	"github.com/lumeforge/venued/internal/venuetest"
)

var (
	asset = venuetest.Account("asset/moon")
	alice = venuetest.Account("alice")
	bob   = venuetest.Account("bob")
)

func newLedger(t *testing.T) (tx.TokenLedger, tx.LedgerView) {
	t.Helper()
	store := state.NewStore(kv.NewStore(kv.NewMemoryBackend()))
	t.Cleanup(func() { store.Close() })
	return token.NewStateLedger(store), store
}

func TestMintAndBalance(t *testing.T) {
	ledger, view := newLedger(t)

	bal, err := ledger.BalanceOf(asset, alice)
	require.NoError(t, err)
	require.Zero(t, bal, "absent balance reads as zero")

	require.NoError(t, token.Mint(view, asset, alice, 1_000))
	require.NoError(t, token.Mint(view, asset, alice, 500))

	bal, err = ledger.BalanceOf(asset, alice)
	require.NoError(t, err)
	require.Equal(t, int64(1_500), bal)

	require.Error(t, token.Mint(view, asset, alice, 0))
	require.Error(t, token.Mint(view, asset, alice, -5))
}

func TestTransfer(t *testing.T) {
	ledger, view := newLedger(t)
	require.NoError(t, token.Mint(view, asset, alice, 1_000))

	require.NoError(t, ledger.Transfer(asset, alice, bob, 300))

	fromBal, err := ledger.BalanceOf(asset, alice)
	require.NoError(t, err)
	require.Equal(t, int64(700), fromBal)

	toBal, err := ledger.BalanceOf(asset, bob)
	require.NoError(t, err)
	require.Equal(t, int64(300), toBal)
}

func TestTransferInsufficient(t *testing.T) {
	ledger, view := newLedger(t)
	require.NoError(t, token.Mint(view, asset, alice, 100))

	err := ledger.Transfer(asset, alice, bob, 101)
	require.ErrorIs(t, err, tx.ErrInsufficientBalance)

	err = ledger.Transfer(asset, bob, alice, 1)
	require.ErrorIs(t, err, tx.ErrInsufficientBalance)
}

func TestTransferInvalidAmount(t *testing.T) {
	ledger, view := newLedger(t)
	require.NoError(t, token.Mint(view, asset, alice, 100))

	require.Error(t, ledger.Transfer(asset, alice, bob, 0))
	require.Error(t, ledger.Transfer(asset, alice, bob, -10))
}

func TestTransferToSelf(t *testing.T) {
	ledger, view := newLedger(t)
	require.NoError(t, token.Mint(view, asset, alice, 100))

	require.NoError(t, ledger.Transfer(asset, alice, alice, 50))

	bal, err := ledger.BalanceOf(asset, alice)
	require.NoError(t, err)
	require.Equal(t, int64(100), bal)
}

func TestAssetsAreIndependent(t *testing.T) {
	ledger, view := newLedger(t)
	other := venuetest.Account("asset/star")

	require.NoError(t, token.Mint(view, asset, alice, 100))
	require.NoError(t, token.Mint(view, other, alice, 40))
	require.NoError(t, token.Mint(view, token.Native, alice, 7))

	bal, err := ledger.BalanceOf(other, alice)
	require.NoError(t, err)
	require.Equal(t, int64(40), bal)

	bal, err = ledger.BalanceOf(token.Native, alice)
	require.NoError(t, err)
	require.Equal(t, int64(7), bal)
}

func TestEscrowAccount(t *testing.T) {
	escrow := token.EscrowAccount()
	require.False(t, escrow == entry.ZeroAddress, "escrow must not collide with the native asset id")
	require.Equal(t, escrow, token.EscrowAccount())
}
