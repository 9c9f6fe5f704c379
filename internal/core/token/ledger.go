// Package token implements the fungible-asset ledger boundary the trading
// engines settle against. The engines only ever need two operations from it:
// transfer and balance lookup; everything else about asset issuance lives
// outside this system.
package token

import (
	"crypto/sha256"
	"fmt"

	"github.com/lumeforge/venued/internal/core/entry"
	"github.com/lumeforge/venued/internal/core/keylet"
	"github.com/lumeforge/venued/internal/core/tx"
)

// Native is the asset id of the ledger's quote asset (XLM). It is the zero
// address.
var Native = entry.ZeroAddress

// EscrowAccount returns the venue's escrow address. Orders hold their
// escrowed amounts under this account until filled or cancelled.
func EscrowAccount() entry.Address {
	var a entry.Address
	sum := sha256.Sum256([]byte("venued/order-escrow/v1"))
	copy(a[:], sum[:20])
	return a
}

// StateLedger implements tx.TokenLedger over a ledger view. Bound to a
// buffered view, its transfers commit and roll back with the enclosing
// transaction.
type StateLedger struct {
	view tx.LedgerView
}

// NewStateLedger binds a ledger to a view. Its signature matches
// tx.TokenLedgerFactory.
func NewStateLedger(view tx.LedgerView) tx.TokenLedger {
	return &StateLedger{view: view}
}

func (l *StateLedger) read(k keylet.Keylet) (int64, bool, error) {
	data, err := l.view.Read(k)
	if err != nil {
		return 0, false, err
	}
	if data == nil {
		return 0, false, nil
	}
	var b entry.Balance
	if err := entry.Decode(data, &b); err != nil {
		return 0, false, err
	}
	return b.Amount, true, nil
}

func (l *StateLedger) write(k keylet.Keylet, amount int64, exists bool) error {
	data, err := entry.Encode(&entry.Balance{Amount: amount})
	if err != nil {
		return err
	}
	if exists {
		return l.view.Update(k, data)
	}
	return l.view.Insert(k, data)
}

// BalanceOf returns the holder's balance of the asset. Absent entries are
// zero balances.
func (l *StateLedger) BalanceOf(asset, holder entry.Address) (int64, error) {
	amount, _, err := l.read(keylet.Balance(asset, holder))
	return amount, err
}

// Transfer debits from and credits to atomically with the enclosing
// transaction. Fails with tx.ErrInsufficientBalance when the debit side
// lacks funds.
func (l *StateLedger) Transfer(asset, from, to entry.Address, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("token: transfer amount must be positive, got %d", amount)
	}
	if from == to {
		return nil
	}

	fromKey := keylet.Balance(asset, from)
	fromBal, fromExists, err := l.read(fromKey)
	if err != nil {
		return err
	}
	if fromBal < amount {
		return fmt.Errorf("%w: %s has %d of %s, needs %d",
			tx.ErrInsufficientBalance, from, fromBal, asset, amount)
	}

	toKey := keylet.Balance(asset, to)
	toBal, toExists, err := l.read(toKey)
	if err != nil {
		return err
	}

	if err := l.write(fromKey, fromBal-amount, fromExists); err != nil {
		return err
	}
	return l.write(toKey, toBal+amount, toExists)
}

// Mint credits newly issued units to an account. Used by genesis funding and
// tests; the engines themselves never mint.
func Mint(view tx.LedgerView, asset, to entry.Address, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("token: mint amount must be positive, got %d", amount)
	}
	l := &StateLedger{view: view}
	k := keylet.Balance(asset, to)
	bal, exists, err := l.read(k)
	if err != nil {
		return err
	}
	return l.write(k, bal+amount, exists)
}
