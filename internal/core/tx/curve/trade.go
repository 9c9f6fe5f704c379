package curve

import (
	"errors"

	"github.com/lumeforge/venued/internal/core/entry"
	"github.com/lumeforge/venued/internal/core/fixmath"
	"github.com/lumeforge/venued/internal/core/keylet"
	"github.com/lumeforge/venued/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeCurveBuy, func() tx.Transaction {
		return &CurveBuy{BaseTx: *tx.NewBaseTx(tx.TypeCurveBuy, entry.ZeroAddress)}
	})
	tx.Register(tx.TypeCurveSell, func() tx.Transaction {
		return &CurveSell{BaseTx: *tx.NewBaseTx(tx.TypeCurveSell, entry.ZeroAddress)}
	})
}

// CurveBuy buys tokens from the curve for XLM. The output is priced on the
// raw virtual-reserve curve; the curve's own slippage is the implicit cost.
type CurveBuy struct {
	tx.BaseTx

	TokenID   uint64 `json:"token_id" codec:"token_id"`
	XLMAmount int64  `json:"xlm_amount" codec:"xlm_amount"`
}

// NewCurveBuy creates a new CurveBuy transaction.
func NewCurveBuy(buyer entry.Address, tokenID uint64, xlmAmount int64) *CurveBuy {
	return &CurveBuy{
		BaseTx:    *tx.NewBaseTx(tx.TypeCurveBuy, buyer),
		TokenID:   tokenID,
		XLMAmount: xlmAmount,
	}
}

// TxType returns the transaction type.
func (b *CurveBuy) TxType() tx.Type {
	return tx.TypeCurveBuy
}

// Validate validates the CurveBuy transaction.
func (b *CurveBuy) Validate() error {
	if err := b.BaseTx.Validate(); err != nil {
		return err
	}
	if b.XLMAmount <= 0 {
		return errors.New("temINVALID_AMOUNT: xlm amount must be positive")
	}
	return nil
}

// Apply applies the CurveBuy transaction to ledger state.
func (b *CurveBuy) Apply(ctx *tx.ApplyContext) tx.Result {
	market, res := loadMarket(ctx.View, b.TokenID)
	if !res.Success() {
		return res
	}

	tokensOut, newVX, newVT, err := fixmath.CurveOut(
		b.XLMAmount, market.VirtualXLMReserve, market.VirtualTokenReserve)
	if err != nil {
		return curveMathResult(err)
	}
	if tokensOut <= 0 {
		return tx.TemINVALID_AMOUNT
	}

	// Re-validated against committed state on every call; a quote computed
	// earlier gives no claim on supply.
	if tokensOut > market.TotalSupply-market.CurrentSupply {
		return tx.TecSUPPLY_EXCEEDED
	}

	market.VirtualXLMReserve = newVX
	market.VirtualTokenReserve = newVT
	market.CurrentSupply += tokensOut

	if res := recordTrade(ctx, market, b.Account, true, tokensOut, b.XLMAmount); !res.Success() {
		return res
	}
	if res := storeMarket(ctx.View, market); !res.Success() {
		return res
	}

	ctx.Emit(tx.Event{
		Type: "buy",
		Key:  market.Symbol,
		Data: map[string]any{
			"token_id":   market.TokenID,
			"trade_seq":  market.TradeCount - 1,
			"buyer":      b.Account.String(),
			"xlm_in":     b.XLMAmount,
			"tokens_out": tokensOut,
		},
	})

	return tx.TesSUCCESS
}

// CurveSell sells tokens back to the curve for XLM. The XLM leg is computed
// on the full curve, then a flat fee (xlm_out / CurveSellFeeDiv, floor) is
// deducted from the proceeds.
type CurveSell struct {
	tx.BaseTx

	TokenID     uint64 `json:"token_id" codec:"token_id"`
	TokenAmount int64  `json:"token_amount" codec:"token_amount"`
}

// NewCurveSell creates a new CurveSell transaction.
func NewCurveSell(seller entry.Address, tokenID uint64, tokenAmount int64) *CurveSell {
	return &CurveSell{
		BaseTx:      *tx.NewBaseTx(tx.TypeCurveSell, seller),
		TokenID:     tokenID,
		TokenAmount: tokenAmount,
	}
}

// TxType returns the transaction type.
func (s *CurveSell) TxType() tx.Type {
	return tx.TypeCurveSell
}

// Validate validates the CurveSell transaction.
func (s *CurveSell) Validate() error {
	if err := s.BaseTx.Validate(); err != nil {
		return err
	}
	if s.TokenAmount <= 0 {
		return errors.New("temINVALID_AMOUNT: token amount must be positive")
	}
	return nil
}

// Apply applies the CurveSell transaction to ledger state.
func (s *CurveSell) Apply(ctx *tx.ApplyContext) tx.Result {
	market, res := loadMarket(ctx.View, s.TokenID)
	if !res.Success() {
		return res
	}

	if s.TokenAmount > market.CurrentSupply {
		return tx.TecINSUFFICIENT_SUPPLY
	}

	xlmOut, newVT, newVX, err := fixmath.CurveOut(
		s.TokenAmount, market.VirtualTokenReserve, market.VirtualXLMReserve)
	if err != nil {
		return curveMathResult(err)
	}

	fee := xlmOut / ctx.Config.CurveSellFeeDiv
	finalXLM := xlmOut - fee

	market.VirtualXLMReserve = newVX
	market.VirtualTokenReserve = newVT
	market.CurrentSupply -= s.TokenAmount

	if res := recordTrade(ctx, market, s.Account, false, s.TokenAmount, finalXLM); !res.Success() {
		return res
	}
	if res := storeMarket(ctx.View, market); !res.Success() {
		return res
	}

	ctx.Emit(tx.Event{
		Type: "sell",
		Key:  market.Symbol,
		Data: map[string]any{
			"token_id":  market.TokenID,
			"trade_seq": market.TradeCount - 1,
			"seller":    s.Account.String(),
			"tokens_in": s.TokenAmount,
			"xlm_out":   finalXLM,
			"fee":       fee,
		},
	})

	return tx.TesSUCCESS
}

// recordTrade appends one trade history record at the market's local
// sequence and advances it. The market entry is stored by the caller.
func recordTrade(ctx *tx.ApplyContext, market *entry.CurveMarket, trader entry.Address, isBuy bool, tokenAmount, xlmAmount int64) tx.Result {
	price, err := fixmath.Price(xlmAmount, tokenAmount)
	if err != nil {
		return tx.TemINVALID_AMOUNT
	}

	rec := &entry.TradeRecord{
		Trader:      trader,
		IsBuy:       isBuy,
		TokenAmount: tokenAmount,
		XLMAmount:   xlmAmount,
		Price:       price,
		Timestamp:   ctx.CloseTime,
	}
	data, err := entry.Encode(rec)
	if err != nil {
		return tx.TefINTERNAL
	}
	if err := ctx.View.Insert(keylet.TradeRecord(market.TokenID, market.TradeCount), data); err != nil {
		return tx.TefINTERNAL
	}
	market.TradeCount++
	return tx.TesSUCCESS
}

func curveMathResult(err error) tx.Result {
	switch {
	case errors.Is(err, fixmath.ErrInvalidAmount):
		return tx.TemINVALID_AMOUNT
	case errors.Is(err, fixmath.ErrInsufficientLiquidity):
		return tx.TecINSUFFICIENT_LIQUIDITY
	default:
		return tx.TefINTERNAL
	}
}

func loadMarket(view tx.LedgerView, tokenID uint64) (*entry.CurveMarket, tx.Result) {
	data, err := view.Read(keylet.Market(tokenID))
	if err != nil {
		return nil, tx.TefINTERNAL
	}
	if data == nil {
		return nil, tx.TecNO_ENTRY
	}
	var market entry.CurveMarket
	if err := entry.Decode(data, &market); err != nil {
		return nil, tx.TefINTERNAL
	}
	return &market, tx.TesSUCCESS
}

func storeMarket(view tx.LedgerView, market *entry.CurveMarket) tx.Result {
	data, err := entry.Encode(market)
	if err != nil {
		return tx.TefINTERNAL
	}
	if err := view.Update(keylet.Market(market.TokenID), data); err != nil {
		return tx.TefINTERNAL
	}
	return tx.TesSUCCESS
}
