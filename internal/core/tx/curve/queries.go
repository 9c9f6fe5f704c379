package curve

import (
	"errors"
	"fmt"

	"github.com/lumeforge/venued/internal/core/entry"
	"github.com/lumeforge/venued/internal/core/fixmath"
	"github.com/lumeforge/venued/internal/core/keylet"
	"github.com/lumeforge/venued/internal/core/tx"
)

// ErrMarketNotFound is returned by queries for unknown token ids.
var ErrMarketNotFound = errors.New("curve: market not found")

// GetTokenInfo returns a market by token id.
func GetTokenInfo(view tx.LedgerView, tokenID uint64) (*entry.CurveMarket, error) {
	data, err := view.Read(keylet.Market(tokenID))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %d", ErrMarketNotFound, tokenID)
	}
	var market entry.CurveMarket
	if err := entry.Decode(data, &market); err != nil {
		return nil, err
	}
	return &market, nil
}

// GetTokenCount returns the number of markets created so far.
func GetTokenCount(view tx.LedgerView) (uint64, error) {
	data, err := view.Read(keylet.Counter(tx.CounterMarket))
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

// GetAllTokens returns every market, ordered by token id.
func GetAllTokens(view tx.LedgerView) ([]*entry.CurveMarket, error) {
	count, err := GetTokenCount(view)
	if err != nil {
		return nil, err
	}
	markets := make([]*entry.CurveMarket, 0, count)
	for id := uint64(1); id <= count; id++ {
		m, err := GetTokenInfo(view, id)
		if err != nil {
			return nil, err
		}
		markets = append(markets, m)
	}
	return markets, nil
}

// CalculateBuy previews the tokens received for an XLM amount. Pure; no
// state is mutated and no supply is reserved.
func CalculateBuy(view tx.LedgerView, tokenID uint64, xlmAmount int64) (int64, error) {
	market, err := GetTokenInfo(view, tokenID)
	if err != nil {
		return 0, err
	}
	out, _, _, err := fixmath.CurveOut(xlmAmount, market.VirtualXLMReserve, market.VirtualTokenReserve)
	return out, err
}

// CalculateSell previews the XLM received for a token amount, after the
// flat sell fee.
func CalculateSell(view tx.LedgerView, cfg tx.EngineConfig, tokenID uint64, tokenAmount int64) (int64, error) {
	market, err := GetTokenInfo(view, tokenID)
	if err != nil {
		return 0, err
	}
	out, _, _, err := fixmath.CurveOut(tokenAmount, market.VirtualTokenReserve, market.VirtualXLMReserve)
	if err != nil {
		return 0, err
	}
	return out - out/cfg.CurveSellFeeDiv, nil
}

// GetPrice returns the 7-decimal XLM price of one token on the virtual
// curve.
func GetPrice(view tx.LedgerView, tokenID uint64) (int64, error) {
	market, err := GetTokenInfo(view, tokenID)
	if err != nil {
		return 0, err
	}
	return fixmath.Price(market.VirtualXLMReserve, market.VirtualTokenReserve)
}

// GetMarketCap returns price * current_supply / 1e7. The cap tracks minted
// supply, not the declared total.
func GetMarketCap(view tx.LedgerView, tokenID uint64) (int64, error) {
	market, err := GetTokenInfo(view, tokenID)
	if err != nil {
		return 0, err
	}
	price, err := fixmath.Price(market.VirtualXLMReserve, market.VirtualTokenReserve)
	if err != nil {
		return 0, err
	}
	return fixmath.MulDiv(price, market.CurrentSupply, fixmath.PriceScale)
}

// GetTradeHistory returns the market's trade records in sequence order.
func GetTradeHistory(view tx.LedgerView, tokenID uint64) ([]*entry.TradeRecord, error) {
	market, err := GetTokenInfo(view, tokenID)
	if err != nil {
		return nil, err
	}
	records := make([]*entry.TradeRecord, 0, market.TradeCount)
	for seq := uint64(0); seq < market.TradeCount; seq++ {
		data, err := view.Read(keylet.TradeRecord(tokenID, seq))
		if err != nil {
			return nil, err
		}
		if data == nil {
			return nil, fmt.Errorf("curve: trade record %d/%d missing", tokenID, seq)
		}
		var rec entry.TradeRecord
		if err := entry.Decode(data, &rec); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, nil
}
