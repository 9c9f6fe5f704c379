// Package curve implements the bonding-curve issuance engine. Each market
// prices its token against virtual reserves: a fixed 1000 XLM virtual quote
// reserve against a tenth of the declared supply. Buys mint from the curve
// until the supply cap is reached; sells return tokens to the curve for XLM
// minus a flat 1% fee.
package curve

import (
	"errors"

	"github.com/lumeforge/venued/internal/core/entry"
	"github.com/lumeforge/venued/internal/core/keylet"
	"github.com/lumeforge/venued/internal/core/tx"
)

// InitialVirtualXLM is the virtual quote reserve every market starts with:
// 1000 XLM in 7-decimal units.
const InitialVirtualXLM int64 = 1_000_0000000

// SupplyReserveDivisor sets the virtual token reserve to a tenth of the
// declared supply.
const SupplyReserveDivisor int64 = 10

func init() {
	tx.Register(tx.TypeMarketCreate, func() tx.Transaction {
		return &MarketCreate{BaseTx: *tx.NewBaseTx(tx.TypeMarketCreate, entry.ZeroAddress)}
	})
}

// MarketCreate creates a bonding-curve market for a new token.
type MarketCreate struct {
	tx.BaseTx

	Name        string `json:"name" codec:"name"`
	Symbol      string `json:"symbol" codec:"symbol"`
	TotalSupply int64  `json:"total_supply" codec:"total_supply"`
}

// NewMarketCreate creates a new MarketCreate transaction.
func NewMarketCreate(creator entry.Address, name, symbol string, totalSupply int64) *MarketCreate {
	return &MarketCreate{
		BaseTx:      *tx.NewBaseTx(tx.TypeMarketCreate, creator),
		Name:        name,
		Symbol:      symbol,
		TotalSupply: totalSupply,
	}
}

// TxType returns the transaction type.
func (m *MarketCreate) TxType() tx.Type {
	return tx.TypeMarketCreate
}

// Validate validates the MarketCreate transaction.
func (m *MarketCreate) Validate() error {
	if err := m.BaseTx.Validate(); err != nil {
		return err
	}
	if m.Name == "" || m.Symbol == "" {
		return errors.New("temMALFORMED: name and symbol are required")
	}
	if m.TotalSupply < SupplyReserveDivisor {
		return errors.New("temINVALID_AMOUNT: total supply too small to seed the virtual reserve")
	}
	return nil
}

// Apply applies the MarketCreate transaction to ledger state.
func (m *MarketCreate) Apply(ctx *tx.ApplyContext) tx.Result {
	tokenID, err := ctx.NextID(tx.CounterMarket)
	if err != nil {
		return tx.TefINTERNAL
	}

	market := &entry.CurveMarket{
		TokenID:             tokenID,
		Name:                m.Name,
		Symbol:              m.Symbol,
		TotalSupply:         m.TotalSupply,
		CurrentSupply:       0,
		VirtualXLMReserve:   InitialVirtualXLM,
		VirtualTokenReserve: m.TotalSupply / SupplyReserveDivisor,
		Creator:             m.Account,
		CreatedAt:           ctx.CloseTime,
	}

	data, err := entry.Encode(market)
	if err != nil {
		return tx.TefINTERNAL
	}
	if err := ctx.View.Insert(keylet.Market(tokenID), data); err != nil {
		return tx.TefINTERNAL
	}

	ctx.Emit(tx.Event{
		Type: "market_created",
		Key:  m.Symbol,
		Data: map[string]any{
			"token_id":     tokenID,
			"creator":      m.Account.String(),
			"total_supply": m.TotalSupply,
		},
	})

	return tx.TesSUCCESS
}
