package orderbook

import (
	"errors"

	"github.com/lumeforge/venued/internal/core/entry"
	"github.com/lumeforge/venued/internal/core/keylet"
	"github.com/lumeforge/venued/internal/core/tx"
)

// ErrOwnerRequired is returned when Initialize carries no owner.
var ErrOwnerRequired = errors.New("temMALFORMED: owner is required")

func init() {
	tx.Register(tx.TypeOrderCreate, func() tx.Transaction {
		return &OrderCreate{BaseTx: *tx.NewBaseTx(tx.TypeOrderCreate, entry.ZeroAddress)}
	})
}

// OrderCreate places a limit sell order. The sold amount is escrowed with
// the venue before the order is recorded, so a cancel or fill can never
// race an unescrowed amount.
type OrderCreate struct {
	tx.BaseTx

	Asset        entry.Address `json:"asset" codec:"asset"`
	Amount       int64         `json:"amount" codec:"amount"`
	PricePerUnit int64         `json:"price_per_unit" codec:"price_per_unit"`
}

// NewOrderCreate creates a new OrderCreate transaction.
func NewOrderCreate(seller entry.Address, asset entry.Address, amount, price int64) *OrderCreate {
	return &OrderCreate{
		BaseTx:       *tx.NewBaseTx(tx.TypeOrderCreate, seller),
		Asset:        asset,
		Amount:       amount,
		PricePerUnit: price,
	}
}

// TxType returns the transaction type.
func (o *OrderCreate) TxType() tx.Type {
	return tx.TypeOrderCreate
}

// Validate validates the OrderCreate transaction.
func (o *OrderCreate) Validate() error {
	if err := o.BaseTx.Validate(); err != nil {
		return err
	}
	if o.Asset.IsZero() {
		return errors.New("temMALFORMED: asset is required")
	}
	if o.Amount <= 0 {
		return errors.New("temINVALID_AMOUNT: amount must be positive")
	}
	if o.PricePerUnit <= 0 {
		return errors.New("temINVALID_PRICE: price must be positive")
	}
	return nil
}

// Apply applies the OrderCreate transaction to ledger state.
func (o *OrderCreate) Apply(ctx *tx.ApplyContext) tx.Result {
	// Escrow first. Recording the order before taking custody would let a
	// fill or cancel observe an order whose amount was never escrowed.
	if err := ctx.Tokens.Transfer(o.Asset, o.Account, escrowAccount, o.Amount); err != nil {
		if errors.Is(err, tx.ErrInsufficientBalance) {
			return tx.TecINSUFFICIENT_BALANCE
		}
		return tx.TefINTERNAL
	}

	orderID, err := ctx.NextID(tx.CounterOrder)
	if err != nil {
		return tx.TefINTERNAL
	}

	order := &entry.Order{
		OrderID:        orderID,
		Seller:         o.Account,
		Asset:          o.Asset,
		Amount:         o.Amount,
		OriginalAmount: o.Amount,
		PricePerUnit:   o.PricePerUnit,
		Status:         entry.OrderOpen,
		CreatedAt:      ctx.CloseTime,
	}
	if res := storeOrder(ctx.View, order, true); !res.Success() {
		return res
	}

	if res := dirAppend(ctx.View, keylet.OwnerDir(o.Account), orderID); !res.Success() {
		return res
	}
	if res := dirAppend(ctx.View, keylet.BookDir(o.Asset), orderID); !res.Success() {
		return res
	}

	ctx.Emit(tx.Event{
		Type: "order_created",
		Key:  o.Account.String(),
		Data: map[string]any{
			"order_id": orderID,
			"asset":    o.Asset.String(),
			"amount":   o.Amount,
			"price":    o.PricePerUnit,
		},
	})

	return tx.TesSUCCESS
}
