// Package amm implements the constant-product AMM pool engine: pool
// creation, bidirectional swaps, and the price and market-cap queries.
//
// Pool reserves are bookkeeping only: PoolCreate does not take custody of
// either asset, so integrators must distribute the non-pooled half of the
// supply and back the reserves through a collaborator ledger.
package amm

import (
	"errors"

	"github.com/lumeforge/venued/internal/core/entry"
	"github.com/lumeforge/venued/internal/core/fixmath"
	"github.com/lumeforge/venued/internal/core/keylet"
	"github.com/lumeforge/venued/internal/core/tx"
)

func init() {
	tx.Register(tx.TypePoolCreate, func() tx.Transaction {
		return &PoolCreate{BaseTx: *tx.NewBaseTx(tx.TypePoolCreate, entry.ZeroAddress)}
	})
}

// PoolCreate creates an AMM pool with two-sided bootstrap liquidity. Half of
// the declared supply seeds the token reserve; initial LP tokens are sized
// as the integer square root of the reserve product.
type PoolCreate struct {
	tx.BaseTx

	Name        string `json:"name" codec:"name"`
	Symbol      string `json:"symbol" codec:"symbol"`
	TotalSupply int64  `json:"total_supply" codec:"total_supply"`
	InitialXLM  int64  `json:"initial_xlm" codec:"initial_xlm"`
}

// NewPoolCreate creates a new PoolCreate transaction.
func NewPoolCreate(creator entry.Address, name, symbol string, totalSupply, initialXLM int64) *PoolCreate {
	return &PoolCreate{
		BaseTx:      *tx.NewBaseTx(tx.TypePoolCreate, creator),
		Name:        name,
		Symbol:      symbol,
		TotalSupply: totalSupply,
		InitialXLM:  initialXLM,
	}
}

// TxType returns the transaction type.
func (p *PoolCreate) TxType() tx.Type {
	return tx.TypePoolCreate
}

// Validate validates the PoolCreate transaction.
func (p *PoolCreate) Validate() error {
	if err := p.BaseTx.Validate(); err != nil {
		return err
	}
	if p.Name == "" || p.Symbol == "" {
		return errors.New("temMALFORMED: name and symbol are required")
	}
	if p.TotalSupply <= 0 {
		return errors.New("temINVALID_AMOUNT: total supply must be positive")
	}
	// A pool needs a positive token reserve, so two supply units minimum.
	if p.TotalSupply < 2 {
		return errors.New("temINVALID_AMOUNT: total supply too small to seed a reserve")
	}
	if p.InitialXLM <= 0 {
		return errors.New("temINVALID_AMOUNT: initial XLM must be positive")
	}
	return nil
}

// Apply applies the PoolCreate transaction to ledger state.
func (p *PoolCreate) Apply(ctx *tx.ApplyContext) tx.Result {
	poolID, err := ctx.NextID(tx.CounterPool)
	if err != nil {
		return tx.TefINTERNAL
	}

	tokenReserve := p.TotalSupply / 2
	xlmReserve := p.InitialXLM

	lpTokens, err := fixmath.SqrtProduct(tokenReserve, xlmReserve)
	if err != nil || lpTokens == 0 {
		return tx.TecINSUFFICIENT_LIQUIDITY
	}

	pool := &entry.Pool{
		PoolID:       poolID,
		Name:         p.Name,
		Symbol:       p.Symbol,
		TokenReserve: tokenReserve,
		XLMReserve:   xlmReserve,
		TotalSupply:  p.TotalSupply,
		LPTokens:     lpTokens,
		Creator:      p.Account,
		CreatedAt:    ctx.CloseTime,
	}

	data, err := entry.Encode(pool)
	if err != nil {
		return tx.TefINTERNAL
	}
	if err := ctx.View.Insert(keylet.Pool(poolID), data); err != nil {
		return tx.TefINTERNAL
	}

	ctx.Emit(tx.Event{
		Type: "pool_created",
		Key:  p.Symbol,
		Data: map[string]any{
			"pool_id":       poolID,
			"creator":       p.Account.String(),
			"token_reserve": tokenReserve,
			"xlm_reserve":   xlmReserve,
			"lp_tokens":     lpTokens,
		},
	})

	return tx.TesSUCCESS
}
