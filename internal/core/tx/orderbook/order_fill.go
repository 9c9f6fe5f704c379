package orderbook

import (
	"errors"

	"github.com/lumeforge/venued/internal/core/entry"
	"github.com/lumeforge/venued/internal/core/fixmath"
	"github.com/lumeforge/venued/internal/core/keylet"
	"github.com/lumeforge/venued/internal/core/token"
	"github.com/lumeforge/venued/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeOrderFill, func() tx.Transaction {
		return &OrderFill{BaseTx: *tx.NewBaseTx(tx.TypeOrderFill, entry.ZeroAddress)}
	})
}

// OrderFill buys from an open sell order. Amount zero fills the full
// remainder. Both settlement legs run in this application: XLM moves
// buyer -> seller and the escrowed asset moves venue -> buyer.
type OrderFill struct {
	tx.BaseTx

	OrderID uint64 `json:"order_id" codec:"order_id"`
	Amount  int64  `json:"amount" codec:"amount"`
}

// NewOrderFill creates a new OrderFill transaction. amount == 0 requests a
// full fill.
func NewOrderFill(buyer entry.Address, orderID uint64, amount int64) *OrderFill {
	return &OrderFill{
		BaseTx:  *tx.NewBaseTx(tx.TypeOrderFill, buyer),
		OrderID: orderID,
		Amount:  amount,
	}
}

// TxType returns the transaction type.
func (f *OrderFill) TxType() tx.Type {
	return tx.TypeOrderFill
}

// Validate validates the OrderFill transaction.
func (f *OrderFill) Validate() error {
	if err := f.BaseTx.Validate(); err != nil {
		return err
	}
	if f.Amount < 0 {
		return errors.New("temINVALID_AMOUNT: amount cannot be negative")
	}
	return nil
}

// Apply applies the OrderFill transaction to ledger state.
func (f *OrderFill) Apply(ctx *tx.ApplyContext) tx.Result {
	order, res := loadOrder(ctx.View, f.OrderID)
	if !res.Success() {
		return res
	}
	if order.Status != entry.OrderOpen {
		return tx.TecORDER_NOT_OPEN
	}

	fillAmount := f.Amount
	if fillAmount == 0 {
		fillAmount = order.Amount
	}
	if fillAmount > order.Amount {
		return tx.TecINSUFFICIENT_ORDER_AMOUNT
	}

	total, err := fixmath.MulDiv(fillAmount, order.PricePerUnit, 1)
	if err != nil {
		return tx.TemINVALID_AMOUNT
	}

	// Payment leg: quote asset buyer -> seller.
	if err := ctx.Tokens.Transfer(token.Native, f.Account, order.Seller, total); err != nil {
		if errors.Is(err, tx.ErrInsufficientBalance) {
			return tx.TecINSUFFICIENT_BALANCE
		}
		return tx.TefINTERNAL
	}

	// Delivery leg: escrowed asset venue -> buyer. Escrow short of the
	// order's remaining amount is a broken invariant, not a caller error.
	if err := ctx.Tokens.Transfer(order.Asset, escrowAccount, f.Account, fillAmount); err != nil {
		return tx.TefINTERNAL
	}

	order.Amount -= fillAmount
	if order.Amount == 0 {
		order.Status = entry.OrderFilled
	}
	if res := storeOrder(ctx.View, order, false); !res.Success() {
		return res
	}

	tradeID, err := ctx.NextID(tx.CounterTrade)
	if err != nil {
		return tx.TefINTERNAL
	}
	trade := &entry.Trade{
		TradeID:   tradeID,
		OrderID:   order.OrderID,
		Buyer:     f.Account,
		Seller:    order.Seller,
		Asset:     order.Asset,
		Amount:    fillAmount,
		Price:     order.PricePerUnit,
		Total:     total,
		Timestamp: ctx.CloseTime,
	}
	data, err := entry.Encode(trade)
	if err != nil {
		return tx.TefINTERNAL
	}
	if err := ctx.View.Insert(keylet.Trade(tradeID), data); err != nil {
		return tx.TefINTERNAL
	}

	ctx.Emit(tx.Event{
		Type: "trade_executed",
		Key:  f.Account.String(),
		Data: map[string]any{
			"trade_id":  tradeID,
			"order_id":  order.OrderID,
			"seller":    order.Seller.String(),
			"asset":     order.Asset.String(),
			"amount":    fillAmount,
			"price":     order.PricePerUnit,
			"total":     total,
			"remaining": order.Amount,
		},
	})

	return tx.TesSUCCESS
}
