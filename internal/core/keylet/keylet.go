// Package keylet computes the addressable locations of ledger entries.
// A keylet combines an entry type with a 256-bit key derived from a space
// identifier and the entry's identifying data, so distinct entry families
// can never collide in the state store.
package keylet

import (
	"crypto/sha512"
	"encoding/binary"
)

// Space identifiers for keylet generation
const (
	spacePool        uint16 = 'p' // AMM pool
	spaceMarket      uint16 = 'm' // bonding-curve market
	spaceTradeRecord uint16 = 'h' // curve trade history record
	spaceOrder       uint16 = 'o' // order book order
	spaceTrade       uint16 = 't' // order book trade
	spaceOwnerDir    uint16 = 'O' // per-seller order directory
	spaceBookDir     uint16 = 'B' // per-asset order directory
	spaceBalance     uint16 = 'b' // token ledger balance
	spaceCounter     uint16 = 'c' // sequence counter
	spaceAdmin       uint16 = 'A' // admin singleton
)

// EntryType identifies the kind of ledger entry a keylet addresses.
type EntryType uint8

const (
	TypePool EntryType = iota + 1
	TypeMarket
	TypeTradeRecord
	TypeOrder
	TypeTrade
	TypeDirectory
	TypeBalance
	TypeCounter
	TypeAdmin
)

// Keylet represents an addressable location in the ledger state.
type Keylet struct {
	Type EntryType
	Key  [32]byte
}

// sha512Half returns the first 256 bits of the SHA-512 of the inputs.
func sha512Half(inputs ...[]byte) [32]byte {
	h := sha512.New()
	for _, in := range inputs {
		h.Write(in)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil)[:32])
	return out
}

// indexHash computes a keylet key by hashing the space and provided data.
func indexHash(space uint16, data ...[]byte) [32]byte {
	spaceBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(spaceBytes, space)

	inputs := make([][]byte, 0, len(data)+1)
	inputs = append(inputs, spaceBytes)
	inputs = append(inputs, data...)

	return sha512Half(inputs...)
}

func u64Bytes(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// Pool returns the keylet for an AMM pool entry.
func Pool(poolID uint64) Keylet {
	return Keylet{Type: TypePool, Key: indexHash(spacePool, u64Bytes(poolID))}
}

// Market returns the keylet for a bonding-curve market entry.
func Market(tokenID uint64) Keylet {
	return Keylet{Type: TypeMarket, Key: indexHash(spaceMarket, u64Bytes(tokenID))}
}

// TradeRecord returns the keylet for one curve trade history record.
// Records are keyed by a per-market sequence independent of the order book's
// global trade id space.
func TradeRecord(tokenID, seq uint64) Keylet {
	return Keylet{Type: TypeTradeRecord, Key: indexHash(spaceTradeRecord, u64Bytes(tokenID), u64Bytes(seq))}
}

// Order returns the keylet for an order book order entry.
func Order(orderID uint64) Keylet {
	return Keylet{Type: TypeOrder, Key: indexHash(spaceOrder, u64Bytes(orderID))}
}

// Trade returns the keylet for an order book trade entry.
func Trade(tradeID uint64) Keylet {
	return Keylet{Type: TypeTrade, Key: indexHash(spaceTrade, u64Bytes(tradeID))}
}

// OwnerDir returns the keylet for a seller's order directory.
func OwnerDir(account [20]byte) Keylet {
	return Keylet{Type: TypeDirectory, Key: indexHash(spaceOwnerDir, account[:])}
}

// BookDir returns the keylet for an asset's order directory.
func BookDir(asset [20]byte) Keylet {
	return Keylet{Type: TypeDirectory, Key: indexHash(spaceBookDir, asset[:])}
}

// Balance returns the keylet for a holder's balance of an asset.
func Balance(asset, holder [20]byte) Keylet {
	return Keylet{Type: TypeBalance, Key: indexHash(spaceBalance, asset[:], holder[:])}
}

// Counter returns the keylet for a named sequence counter.
func Counter(name string) Keylet {
	return Keylet{Type: TypeCounter, Key: indexHash(spaceCounter, []byte(name))}
}

// Admin returns the keylet for the admin singleton entry.
func Admin() Keylet {
	return Keylet{Type: TypeAdmin, Key: indexHash(spaceAdmin)}
}
