package amm

import (
	"errors"
	"fmt"

	"github.com/lumeforge/venued/internal/core/entry"
	"github.com/lumeforge/venued/internal/core/fixmath"
	"github.com/lumeforge/venued/internal/core/keylet"
	"github.com/lumeforge/venued/internal/core/tx"
)

// ErrPoolNotFound is returned by queries for unknown pool ids.
var ErrPoolNotFound = errors.New("amm: pool not found")

// GetPool returns a pool by id.
func GetPool(view tx.LedgerView, poolID uint64) (*entry.Pool, error) {
	data, err := view.Read(keylet.Pool(poolID))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %d", ErrPoolNotFound, poolID)
	}
	var pool entry.Pool
	if err := entry.Decode(data, &pool); err != nil {
		return nil, err
	}
	return &pool, nil
}

// GetPoolCount returns the number of pools created so far.
func GetPoolCount(view tx.LedgerView) (uint64, error) {
	data, err := view.Read(keylet.Counter(tx.CounterPool))
	if err != nil {
		return 0, err
	}
	if data == nil {
		return 0, nil
	}
	var c entry.Counter
	if err := entry.Decode(data, &c); err != nil {
		return 0, err
	}
	return c.Value, nil
}

// GetPrice returns the 7-decimal XLM price of one pool token,
// xlm_reserve * 1e7 / token_reserve.
func GetPrice(view tx.LedgerView, poolID uint64) (int64, error) {
	pool, err := GetPool(view, poolID)
	if err != nil {
		return 0, err
	}
	return fixmath.Price(pool.XLMReserve, pool.TokenReserve)
}

// GetMarketCap returns price * total_supply / 1e7.
func GetMarketCap(view tx.LedgerView, poolID uint64) (int64, error) {
	price, err := GetPrice(view, poolID)
	if err != nil {
		return 0, err
	}
	pool, err := GetPool(view, poolID)
	if err != nil {
		return 0, err
	}
	return fixmath.MulDiv(price, pool.TotalSupply, fixmath.PriceScale)
}

// QuoteSwapXLMToTokens previews a swap of XLM into the pool without
// executing it. Uses the same formula as the swap itself.
func QuoteSwapXLMToTokens(view tx.LedgerView, cfg tx.EngineConfig, poolID uint64, xlmAmount int64) (int64, error) {
	pool, err := GetPool(view, poolID)
	if err != nil {
		return 0, err
	}
	return fixmath.ConstantProductOut(xlmAmount, pool.XLMReserve, pool.TokenReserve, cfg.AMMFeeNum, cfg.AMMFeeDen)
}

// QuoteSwapTokensToXLM previews a swap of tokens into the pool without
// executing it.
func QuoteSwapTokensToXLM(view tx.LedgerView, cfg tx.EngineConfig, poolID uint64, tokenAmount int64) (int64, error) {
	pool, err := GetPool(view, poolID)
	if err != nil {
		return 0, err
	}
	return fixmath.ConstantProductOut(tokenAmount, pool.TokenReserve, pool.XLMReserve, cfg.AMMFeeNum, cfg.AMMFeeDen)
}
