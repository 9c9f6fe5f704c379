// Package orderbook implements the escrow-based order book engine.
//
// Fill semantics: orders support partial fills. OrderFill takes an explicit
// amount (zero means the full remainder); the order's remaining amount
// decreases and the status flips to Filled only when it reaches zero.
// Filled and Cancelled are terminal.
//
// Settlement runs both legs on-ledger in the same atomic application: the
// escrowed asset moves venue -> buyer and the quote asset (native XLM)
// moves buyer -> seller. Either transfer failing aborts the whole fill.
package orderbook

import (
	"github.com/lumeforge/venued/internal/core/entry"
	"github.com/lumeforge/venued/internal/core/keylet"
	"github.com/lumeforge/venued/internal/core/token"
	"github.com/lumeforge/venued/internal/core/tx"
)

func loadOrder(view tx.LedgerView, orderID uint64) (*entry.Order, tx.Result) {
	data, err := view.Read(keylet.Order(orderID))
	if err != nil {
		return nil, tx.TefINTERNAL
	}
	if data == nil {
		return nil, tx.TecNO_ENTRY
	}
	var order entry.Order
	if err := entry.Decode(data, &order); err != nil {
		return nil, tx.TefINTERNAL
	}
	return &order, tx.TesSUCCESS
}

func storeOrder(view tx.LedgerView, order *entry.Order, isNew bool) tx.Result {
	data, err := entry.Encode(order)
	if err != nil {
		return tx.TefINTERNAL
	}
	k := keylet.Order(order.OrderID)
	if isNew {
		err = view.Insert(k, data)
	} else {
		err = view.Update(k, data)
	}
	if err != nil {
		return tx.TefINTERNAL
	}
	return tx.TesSUCCESS
}

// dirAppend appends an id to a directory entry, creating it when absent.
func dirAppend(view tx.LedgerView, k keylet.Keylet, id uint64) tx.Result {
	var dir entry.Directory
	data, err := view.Read(k)
	if err != nil {
		return tx.TefINTERNAL
	}
	exists := data != nil
	if exists {
		if err := entry.Decode(data, &dir); err != nil {
			return tx.TefINTERNAL
		}
	}

	dir.IDs = append(dir.IDs, id)
	out, err := entry.Encode(&dir)
	if err != nil {
		return tx.TefINTERNAL
	}
	if exists {
		err = view.Update(k, out)
	} else {
		err = view.Insert(k, out)
	}
	if err != nil {
		return tx.TefINTERNAL
	}
	return tx.TesSUCCESS
}

// escrowAccount is the venue address holding escrowed order amounts.
var escrowAccount = token.EscrowAccount()
