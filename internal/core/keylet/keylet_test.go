package keylet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyletDeterminism(t *testing.T) {
	require.Equal(t, Pool(1), Pool(1))
	require.Equal(t, Market(7), Market(7))
	require.Equal(t, TradeRecord(3, 9), TradeRecord(3, 9))
	require.Equal(t, Counter("order"), Counter("order"))
	require.Equal(t, Admin(), Admin())
}

func TestKeyletSpacesDoNotCollide(t *testing.T) {
	// The same numeric id in different spaces must map to distinct keys.
	keys := map[[32]byte]string{
		Pool(1).Key:   "pool",
		Market(1).Key: "market",
		Order(1).Key:  "order",
		Trade(1).Key:  "trade",
	}
	require.Len(t, keys, 4)

	var account [20]byte
	account[0] = 0x42
	require.NotEqual(t, OwnerDir(account).Key, BookDir(account).Key)
}

func TestKeyletIDsSeparate(t *testing.T) {
	require.NotEqual(t, Order(1).Key, Order(2).Key)
	require.NotEqual(t, TradeRecord(1, 2).Key, TradeRecord(2, 1).Key)
	require.NotEqual(t, Counter("order").Key, Counter("trade").Key)
}

func TestKeyletTypes(t *testing.T) {
	require.Equal(t, TypePool, Pool(1).Type)
	require.Equal(t, TypeMarket, Market(1).Type)
	require.Equal(t, TypeTradeRecord, TradeRecord(1, 0).Type)
	require.Equal(t, TypeOrder, Order(1).Type)
	require.Equal(t, TypeTrade, Trade(1).Type)
	require.Equal(t, TypeDirectory, OwnerDir([20]byte{}).Type)
	require.Equal(t, TypeDirectory, BookDir([20]byte{}).Type)
	require.Equal(t, TypeBalance, Balance([20]byte{}, [20]byte{1}).Type)
	require.Equal(t, TypeCounter, Counter("pool").Type)
	require.Equal(t, TypeAdmin, Admin().Type)
}

func TestBalanceKeyOrdering(t *testing.T) {
	// Asset and holder are positional: swapping them addresses a
	// different balance.
	var a, b [20]byte
	a[0], b[0] = 1, 2
	require.NotEqual(t, Balance(a, b).Key, Balance(b, a).Key)
}
