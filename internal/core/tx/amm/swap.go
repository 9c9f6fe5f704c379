package amm

import (
	"errors"
	"math"

	"github.com/lumeforge/venued/internal/core/entry"
	"github.com/lumeforge/venued/internal/core/fixmath"
	"github.com/lumeforge/venued/internal/core/keylet"
	"github.com/lumeforge/venued/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeSwapXLMForTokens, func() tx.Transaction {
		return &SwapXLMForTokens{BaseTx: *tx.NewBaseTx(tx.TypeSwapXLMForTokens, entry.ZeroAddress)}
	})
	tx.Register(tx.TypeSwapTokensForXLM, func() tx.Transaction {
		return &SwapTokensForXLM{BaseTx: *tx.NewBaseTx(tx.TypeSwapTokensForXLM, entry.ZeroAddress)}
	})
}

// SwapXLMForTokens swaps XLM into a pool for tokens at the constant-product
// rate, with the fee embedded in the exchange rate.
type SwapXLMForTokens struct {
	tx.BaseTx

	PoolID       uint64 `json:"pool_id" codec:"pool_id"`
	XLMAmount    int64  `json:"xlm_amount" codec:"xlm_amount"`
	MinTokensOut int64  `json:"min_tokens_out" codec:"min_tokens_out"`
}

// NewSwapXLMForTokens creates a new SwapXLMForTokens transaction.
func NewSwapXLMForTokens(user entry.Address, poolID uint64, xlmAmount, minTokensOut int64) *SwapXLMForTokens {
	return &SwapXLMForTokens{
		BaseTx:       *tx.NewBaseTx(tx.TypeSwapXLMForTokens, user),
		PoolID:       poolID,
		XLMAmount:    xlmAmount,
		MinTokensOut: minTokensOut,
	}
}

// TxType returns the transaction type.
func (s *SwapXLMForTokens) TxType() tx.Type {
	return tx.TypeSwapXLMForTokens
}

// Validate validates the swap.
func (s *SwapXLMForTokens) Validate() error {
	if err := s.BaseTx.Validate(); err != nil {
		return err
	}
	if s.XLMAmount <= 0 {
		return errors.New("temINVALID_AMOUNT: xlm amount must be positive")
	}
	if s.MinTokensOut < 0 {
		return errors.New("temINVALID_AMOUNT: min tokens out cannot be negative")
	}
	return nil
}

// Apply applies the swap to ledger state.
func (s *SwapXLMForTokens) Apply(ctx *tx.ApplyContext) tx.Result {
	pool, res := loadPool(ctx.View, s.PoolID)
	if !res.Success() {
		return res
	}

	tokensOut, res := swapOut(ctx, s.XLMAmount, pool.XLMReserve, pool.TokenReserve)
	if !res.Success() {
		return res
	}
	if tokensOut < s.MinTokensOut {
		return tx.TecSLIPPAGE
	}

	pool.XLMReserve += s.XLMAmount
	pool.TokenReserve -= tokensOut

	if res := storePool(ctx.View, pool); !res.Success() {
		return res
	}

	ctx.Emit(swapEvent(pool.Symbol, s.Account, "xlm_for_tokens", s.XLMAmount, tokensOut))
	return tx.TesSUCCESS
}

// SwapTokensForXLM is the symmetric swap with the reserve roles exchanged.
type SwapTokensForXLM struct {
	tx.BaseTx

	PoolID      uint64 `json:"pool_id" codec:"pool_id"`
	TokenAmount int64  `json:"token_amount" codec:"token_amount"`
	MinXLMOut   int64  `json:"min_xlm_out" codec:"min_xlm_out"`
}

// NewSwapTokensForXLM creates a new SwapTokensForXLM transaction.
func NewSwapTokensForXLM(user entry.Address, poolID uint64, tokenAmount, minXLMOut int64) *SwapTokensForXLM {
	return &SwapTokensForXLM{
		BaseTx:      *tx.NewBaseTx(tx.TypeSwapTokensForXLM, user),
		PoolID:      poolID,
		TokenAmount: tokenAmount,
		MinXLMOut:   minXLMOut,
	}
}

// TxType returns the transaction type.
func (s *SwapTokensForXLM) TxType() tx.Type {
	return tx.TypeSwapTokensForXLM
}

// Validate validates the swap.
func (s *SwapTokensForXLM) Validate() error {
	if err := s.BaseTx.Validate(); err != nil {
		return err
	}
	if s.TokenAmount <= 0 {
		return errors.New("temINVALID_AMOUNT: token amount must be positive")
	}
	if s.MinXLMOut < 0 {
		return errors.New("temINVALID_AMOUNT: min xlm out cannot be negative")
	}
	return nil
}

// Apply applies the swap to ledger state.
func (s *SwapTokensForXLM) Apply(ctx *tx.ApplyContext) tx.Result {
	pool, res := loadPool(ctx.View, s.PoolID)
	if !res.Success() {
		return res
	}

	xlmOut, res := swapOut(ctx, s.TokenAmount, pool.TokenReserve, pool.XLMReserve)
	if !res.Success() {
		return res
	}
	if xlmOut < s.MinXLMOut {
		return tx.TecSLIPPAGE
	}

	pool.TokenReserve += s.TokenAmount
	pool.XLMReserve -= xlmOut

	if res := storePool(ctx.View, pool); !res.Success() {
		return res
	}

	ctx.Emit(swapEvent(pool.Symbol, s.Account, "tokens_for_xlm", s.TokenAmount, xlmOut))
	return tx.TesSUCCESS
}

// swapOut runs the constant-product formula with the configured embedded fee
// and guards the output against draining the out-side reserve: the formula
// keeps out < reserveOut for positive inputs, but the reserve must also stay
// positive after the trade, and the in-side reserve must not overflow.
func swapOut(ctx *tx.ApplyContext, amountIn, reserveIn, reserveOut int64) (int64, tx.Result) {
	out, err := fixmath.ConstantProductOut(amountIn, reserveIn, reserveOut,
		ctx.Config.AMMFeeNum, ctx.Config.AMMFeeDen)
	switch {
	case errors.Is(err, fixmath.ErrInvalidAmount):
		return 0, tx.TemINVALID_AMOUNT
	case errors.Is(err, fixmath.ErrInsufficientLiquidity):
		return 0, tx.TecINSUFFICIENT_LIQUIDITY
	case err != nil:
		return 0, tx.TefINTERNAL
	}
	if out >= reserveOut {
		return 0, tx.TecINSUFFICIENT_LIQUIDITY
	}
	if amountIn > math.MaxInt64-reserveIn {
		return 0, tx.TecINSUFFICIENT_LIQUIDITY
	}
	return out, tx.TesSUCCESS
}

func swapEvent(symbol string, user entry.Address, direction string, amountIn, amountOut int64) tx.Event {
	return tx.Event{
		Type: "swap",
		Key:  symbol,
		Data: map[string]any{
			"user":       user.String(),
			"direction":  direction,
			"amount_in":  amountIn,
			"amount_out": amountOut,
		},
	}
}

// loadPool reads a pool entry, mapping absence to TecNO_ENTRY.
func loadPool(view tx.LedgerView, poolID uint64) (*entry.Pool, tx.Result) {
	data, err := view.Read(keylet.Pool(poolID))
	if err != nil {
		return nil, tx.TefINTERNAL
	}
	if data == nil {
		return nil, tx.TecNO_ENTRY
	}
	var pool entry.Pool
	if err := entry.Decode(data, &pool); err != nil {
		return nil, tx.TefINTERNAL
	}
	return &pool, tx.TesSUCCESS
}

func storePool(view tx.LedgerView, pool *entry.Pool) tx.Result {
	data, err := entry.Encode(pool)
	if err != nil {
		return tx.TefINTERNAL
	}
	if err := view.Update(keylet.Pool(pool.PoolID), data); err != nil {
		return tx.TefINTERNAL
	}
	return tx.TesSUCCESS
}
