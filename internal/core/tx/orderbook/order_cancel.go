package orderbook

import (
	"github.com/lumeforge/venued/internal/core/entry"
	"github.com/lumeforge/venued/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeOrderCancel, func() tx.Transaction {
		return &OrderCancel{BaseTx: *tx.NewBaseTx(tx.TypeOrderCancel, entry.ZeroAddress)}
	})
}

// OrderCancel cancels an open order and returns the escrowed remainder to
// the seller. Only the order's seller may cancel.
type OrderCancel struct {
	tx.BaseTx

	OrderID uint64 `json:"order_id" codec:"order_id"`
}

// NewOrderCancel creates a new OrderCancel transaction.
func NewOrderCancel(seller entry.Address, orderID uint64) *OrderCancel {
	return &OrderCancel{
		BaseTx:  *tx.NewBaseTx(tx.TypeOrderCancel, seller),
		OrderID: orderID,
	}
}

// TxType returns the transaction type.
func (c *OrderCancel) TxType() tx.Type {
	return tx.TypeOrderCancel
}

// Validate validates the OrderCancel transaction.
func (c *OrderCancel) Validate() error {
	return c.BaseTx.Validate()
}

// Apply applies the OrderCancel transaction to ledger state.
func (c *OrderCancel) Apply(ctx *tx.ApplyContext) tx.Result {
	order, res := loadOrder(ctx.View, c.OrderID)
	if !res.Success() {
		return res
	}
	if order.Seller != c.Account {
		return tx.TecNO_PERMISSION
	}
	if order.Status != entry.OrderOpen {
		return tx.TecORDER_NOT_OPEN
	}

	// Escrow always covers the open remainder; any transfer failure here is
	// a broken invariant.
	if err := ctx.Tokens.Transfer(order.Asset, escrowAccount, order.Seller, order.Amount); err != nil {
		return tx.TefINTERNAL
	}

	order.Status = entry.OrderCancelled
	if res := storeOrder(ctx.View, order, false); !res.Success() {
		return res
	}

	ctx.Emit(tx.Event{
		Type: "order_cancelled",
		Key:  c.Account.String(),
		Data: map[string]any{
			"order_id": order.OrderID,
			"returned": order.Amount,
		},
	})

	return tx.TesSUCCESS
}
