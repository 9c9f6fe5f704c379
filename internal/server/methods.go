package server

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lumeforge/venued/internal/core/entry"
	"github.com/lumeforge/venued/internal/core/tx/amm"
	"github.com/lumeforge/venued/internal/core/tx/curve"
	"github.com/lumeforge/venued/internal/core/tx/orderbook"
	"github.com/lumeforge/venued/internal/storage/tradeindex"
)

func (s *Server) registerMethods() {
	r := s.registry

	r.register("ping", s.ping)
	r.register("server_info", s.serverInfo)
	r.register("submit", s.submit)

	// AMM queries
	r.register("pool_info", s.poolInfo)
	r.register("pool_count", s.poolCount)
	r.register("pool_price", s.poolPrice)
	r.register("pool_market_cap", s.poolMarketCap)
	r.register("quote_swap_xlm_to_tokens", s.quoteSwapXLMToTokens)
	r.register("quote_swap_tokens_to_xlm", s.quoteSwapTokensToXLM)

	// Bonding curve queries
	r.register("token_info", s.tokenInfo)
	r.register("token_count", s.tokenCount)
	r.register("tokens", s.tokens)
	r.register("curve_quote_buy", s.curveQuoteBuy)
	r.register("curve_quote_sell", s.curveQuoteSell)
	r.register("curve_price", s.curvePrice)
	r.register("curve_market_cap", s.curveMarketCap)
	r.register("trade_history", s.tradeHistory)

	// Order book queries
	r.register("order_info", s.orderInfo)
	r.register("order_count", s.orderCount)
	r.register("trade_info", s.tradeInfo)
	r.register("trade_count", s.tradeCount)
	r.register("user_orders", s.userOrders)
	r.register("token_orders", s.tokenOrders)

	// Token ledger
	r.register("balance", s.balance)

	// Trade index
	r.register("trades_by_token", s.tradesByToken)
	r.register("trades_by_asset", s.tradesByAsset)
	r.register("trades_by_account", s.tradesByAccount)
}

func (s *Server) ping(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	return map[string]any{}, nil
}

func (s *Server) serverInfo(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	info := map[string]any{
		"methods":        s.registry.list(),
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	}
	if s.hub != nil {
		info["ws_connections"] = s.hub.ConnCount()
	}
	return info, nil
}

type poolParams struct {
	PoolID uint64 `json:"pool_id"`
	Amount int64  `json:"amount"`
}

func (s *Server) poolInfo(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	var p poolParams
	if rpcError := decodeParams(params, &p); rpcError != nil {
		return nil, rpcError
	}
	pool, err := amm.GetPool(s.engine.View(), p.PoolID)
	if err != nil {
		return nil, errNotFound(err.Error())
	}
	return map[string]any{"pool": renderPool(pool)}, nil
}

func (s *Server) poolCount(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	count, err := amm.GetPoolCount(s.engine.View())
	if err != nil {
		return nil, errInternal(err.Error())
	}
	return map[string]any{"count": count}, nil
}

func (s *Server) poolPrice(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	var p poolParams
	if rpcError := decodeParams(params, &p); rpcError != nil {
		return nil, rpcError
	}
	price, err := amm.GetPrice(s.engine.View(), p.PoolID)
	if err != nil {
		return nil, errNotFound(err.Error())
	}
	return map[string]any{"pool_id": p.PoolID, "price": price}, nil
}

func (s *Server) poolMarketCap(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	var p poolParams
	if rpcError := decodeParams(params, &p); rpcError != nil {
		return nil, rpcError
	}
	cap, err := amm.GetMarketCap(s.engine.View(), p.PoolID)
	if err != nil {
		return nil, errNotFound(err.Error())
	}
	return map[string]any{"pool_id": p.PoolID, "market_cap": cap}, nil
}

func (s *Server) quoteSwapXLMToTokens(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	var p poolParams
	if rpcError := decodeParams(params, &p); rpcError != nil {
		return nil, rpcError
	}
	out, err := amm.QuoteSwapXLMToTokens(s.engine.View(), s.engine.Config(), p.PoolID, p.Amount)
	if err != nil {
		return nil, errInvalidParams(err.Error())
	}
	return map[string]any{"pool_id": p.PoolID, "xlm_in": p.Amount, "tokens_out": out}, nil
}

func (s *Server) quoteSwapTokensToXLM(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	var p poolParams
	if rpcError := decodeParams(params, &p); rpcError != nil {
		return nil, rpcError
	}
	out, err := amm.QuoteSwapTokensToXLM(s.engine.View(), s.engine.Config(), p.PoolID, p.Amount)
	if err != nil {
		return nil, errInvalidParams(err.Error())
	}
	return map[string]any{"pool_id": p.PoolID, "tokens_in": p.Amount, "xlm_out": out}, nil
}

type tokenParams struct {
	TokenID uint64 `json:"token_id"`
	Amount  int64  `json:"amount"`
}

func (s *Server) tokenInfo(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	var p tokenParams
	if rpcError := decodeParams(params, &p); rpcError != nil {
		return nil, rpcError
	}
	market, err := curve.GetTokenInfo(s.engine.View(), p.TokenID)
	if err != nil {
		return nil, errNotFound(err.Error())
	}
	return map[string]any{"token": renderMarket(market)}, nil
}

func (s *Server) tokenCount(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	count, err := curve.GetTokenCount(s.engine.View())
	if err != nil {
		return nil, errInternal(err.Error())
	}
	return map[string]any{"count": count}, nil
}

func (s *Server) tokens(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	markets, err := curve.GetAllTokens(s.engine.View())
	if err != nil {
		return nil, errInternal(err.Error())
	}
	rendered := make([]map[string]any, 0, len(markets))
	for _, m := range markets {
		rendered = append(rendered, renderMarket(m))
	}
	return map[string]any{"tokens": rendered}, nil
}

func (s *Server) curveQuoteBuy(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	var p tokenParams
	if rpcError := decodeParams(params, &p); rpcError != nil {
		return nil, rpcError
	}
	out, err := curve.CalculateBuy(s.engine.View(), p.TokenID, p.Amount)
	if err != nil {
		return nil, errInvalidParams(err.Error())
	}
	return map[string]any{"token_id": p.TokenID, "xlm_in": p.Amount, "tokens_out": out}, nil
}

func (s *Server) curveQuoteSell(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	var p tokenParams
	if rpcError := decodeParams(params, &p); rpcError != nil {
		return nil, rpcError
	}
	out, err := curve.CalculateSell(s.engine.View(), s.engine.Config(), p.TokenID, p.Amount)
	if err != nil {
		return nil, errInvalidParams(err.Error())
	}
	return map[string]any{"token_id": p.TokenID, "tokens_in": p.Amount, "xlm_out": out}, nil
}

func (s *Server) curvePrice(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	var p tokenParams
	if rpcError := decodeParams(params, &p); rpcError != nil {
		return nil, rpcError
	}
	price, err := curve.GetPrice(s.engine.View(), p.TokenID)
	if err != nil {
		return nil, errNotFound(err.Error())
	}
	return map[string]any{"token_id": p.TokenID, "price": price}, nil
}

func (s *Server) curveMarketCap(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	var p tokenParams
	if rpcError := decodeParams(params, &p); rpcError != nil {
		return nil, rpcError
	}
	cap, err := curve.GetMarketCap(s.engine.View(), p.TokenID)
	if err != nil {
		return nil, errNotFound(err.Error())
	}
	return map[string]any{"token_id": p.TokenID, "market_cap": cap}, nil
}

func (s *Server) tradeHistory(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	var p tokenParams
	if rpcError := decodeParams(params, &p); rpcError != nil {
		return nil, rpcError
	}
	records, err := curve.GetTradeHistory(s.engine.View(), p.TokenID)
	if err != nil {
		return nil, errNotFound(err.Error())
	}
	rendered := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		rendered = append(rendered, map[string]any{
			"trader":       rec.Trader.String(),
			"is_buy":       rec.IsBuy,
			"token_amount": rec.TokenAmount,
			"xlm_amount":   rec.XLMAmount,
			"price":        rec.Price,
			"timestamp":    rec.Timestamp,
		})
	}
	return map[string]any{"token_id": p.TokenID, "trades": rendered}, nil
}

type orderParams struct {
	OrderID uint64 `json:"order_id"`
	TradeID uint64 `json:"trade_id"`
	Account string `json:"account"`
	Asset   string `json:"asset"`
}

func (s *Server) orderInfo(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	var p orderParams
	if rpcError := decodeParams(params, &p); rpcError != nil {
		return nil, rpcError
	}
	order, err := orderbook.GetOrder(s.engine.View(), p.OrderID)
	if err != nil {
		return nil, errNotFound(err.Error())
	}
	return map[string]any{"order": renderOrder(order)}, nil
}

func (s *Server) orderCount(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	count, err := orderbook.GetOrderCount(s.engine.View())
	if err != nil {
		return nil, errInternal(err.Error())
	}
	return map[string]any{"count": count}, nil
}

func (s *Server) tradeInfo(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	var p orderParams
	if rpcError := decodeParams(params, &p); rpcError != nil {
		return nil, rpcError
	}
	trade, err := orderbook.GetTrade(s.engine.View(), p.TradeID)
	if err != nil {
		return nil, errNotFound(err.Error())
	}
	return map[string]any{"trade": renderTrade(trade)}, nil
}

func (s *Server) tradeCount(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	count, err := orderbook.GetTradeCount(s.engine.View())
	if err != nil {
		return nil, errInternal(err.Error())
	}
	return map[string]any{"count": count}, nil
}

func (s *Server) userOrders(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	var p orderParams
	if rpcError := decodeParams(params, &p); rpcError != nil {
		return nil, rpcError
	}
	account, err := entry.ParseAddress(p.Account)
	if err != nil {
		return nil, errInvalidParams("invalid account: " + err.Error())
	}
	orders, err := orderbook.GetUserOrders(s.engine.View(), account)
	if err != nil {
		return nil, errInternal(err.Error())
	}
	return map[string]any{"account": p.Account, "orders": renderOrders(orders)}, nil
}

func (s *Server) tokenOrders(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	var p orderParams
	if rpcError := decodeParams(params, &p); rpcError != nil {
		return nil, rpcError
	}
	asset, err := entry.ParseAddress(p.Asset)
	if err != nil {
		return nil, errInvalidParams("invalid asset: " + err.Error())
	}
	orders, err := orderbook.GetTokenOrders(s.engine.View(), asset)
	if err != nil {
		return nil, errInternal(err.Error())
	}
	return map[string]any{"asset": p.Asset, "orders": renderOrders(orders)}, nil
}

type balanceParams struct {
	Asset  string `json:"asset"`
	Holder string `json:"holder"`
}

func (s *Server) balance(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	var p balanceParams
	if rpcError := decodeParams(params, &p); rpcError != nil {
		return nil, rpcError
	}
	var asset entry.Address
	if p.Asset != "" {
		parsed, err := entry.ParseAddress(p.Asset)
		if err != nil {
			return nil, errInvalidParams("invalid asset: " + err.Error())
		}
		asset = parsed
	}
	holder, err := entry.ParseAddress(p.Holder)
	if err != nil {
		return nil, errInvalidParams("invalid holder: " + err.Error())
	}

	amount, err := s.engine.Tokens().BalanceOf(asset, holder)
	if err != nil {
		return nil, errInternal(err.Error())
	}
	return map[string]any{"asset": asset.String(), "holder": p.Holder, "balance": amount}, nil
}

type indexParams struct {
	TokenID uint64 `json:"token_id"`
	Asset   string `json:"asset"`
	Account string `json:"account"`
	Limit   int    `json:"limit"`
}

func (s *Server) tradesByToken(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	return s.indexQuery(params, func(ctx context.Context, p indexParams) ([]tradeindex.Trade, error) {
		return s.index.ByToken(ctx, p.TokenID, p.Limit)
	})
}

func (s *Server) tradesByAsset(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	return s.indexQuery(params, func(ctx context.Context, p indexParams) ([]tradeindex.Trade, error) {
		return s.index.ByAsset(ctx, p.Asset, p.Limit)
	})
}

func (s *Server) tradesByAccount(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	return s.indexQuery(params, func(ctx context.Context, p indexParams) ([]tradeindex.Trade, error) {
		return s.index.ByAccount(ctx, p.Account, p.Limit)
	})
}

func (s *Server) indexQuery(params json.RawMessage, q func(context.Context, indexParams) ([]tradeindex.Trade, error)) (any, *RPCError) {
	if s.index == nil {
		return nil, errInternal("trade index is not configured")
	}
	var p indexParams
	if rpcError := decodeParams(params, &p); rpcError != nil {
		return nil, rpcError
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	trades, err := q(ctx, p)
	if err != nil {
		return nil, errInternal(err.Error())
	}

	rendered := make([]map[string]any, 0, len(trades))
	for _, t := range trades {
		rendered = append(rendered, map[string]any{
			"trade_id":    t.ID,
			"source":      string(t.Source),
			"token_id":    t.TokenID,
			"asset":       t.Asset,
			"order_id":    t.OrderID,
			"buyer":       t.Buyer,
			"seller":      t.Seller,
			"amount":      t.Amount,
			"price":       t.Price,
			"total":       t.Total,
			"is_buy":      t.IsBuy,
			"executed_at": t.ExecutedAt.Unix(),
		})
	}
	return map[string]any{"trades": rendered}, nil
}

func renderPool(p *entry.Pool) map[string]any {
	return map[string]any{
		"pool_id":       p.PoolID,
		"name":          p.Name,
		"symbol":        p.Symbol,
		"token_reserve": p.TokenReserve,
		"xlm_reserve":   p.XLMReserve,
		"total_supply":  p.TotalSupply,
		"lp_tokens":     p.LPTokens,
		"creator":       p.Creator.String(),
		"created_at":    p.CreatedAt,
	}
}

func renderMarket(m *entry.CurveMarket) map[string]any {
	return map[string]any{
		"token_id":              m.TokenID,
		"name":                  m.Name,
		"symbol":                m.Symbol,
		"total_supply":          m.TotalSupply,
		"current_supply":        m.CurrentSupply,
		"virtual_xlm_reserve":   m.VirtualXLMReserve,
		"virtual_token_reserve": m.VirtualTokenReserve,
		"creator":               m.Creator.String(),
		"created_at":            m.CreatedAt,
		"trade_count":           m.TradeCount,
		"exhausted":             m.Exhausted(),
	}
}

func renderOrder(o *entry.Order) map[string]any {
	return map[string]any{
		"order_id":        o.OrderID,
		"seller":          o.Seller.String(),
		"asset":           o.Asset.String(),
		"amount":          o.Amount,
		"original_amount": o.OriginalAmount,
		"price_per_unit":  o.PricePerUnit,
		"status":          o.Status.String(),
		"created_at":      o.CreatedAt,
	}
}

func renderOrders(orders []*entry.Order) []map[string]any {
	rendered := make([]map[string]any, 0, len(orders))
	for _, o := range orders {
		rendered = append(rendered, renderOrder(o))
	}
	return rendered
}

func renderTrade(t *entry.Trade) map[string]any {
	return map[string]any{
		"trade_id":  t.TradeID,
		"order_id":  t.OrderID,
		"buyer":     t.Buyer.String(),
		"seller":    t.Seller.String(),
		"asset":     t.Asset.String(),
		"amount":    t.Amount,
		"price":     t.Price,
		"total":     t.Total,
		"timestamp": t.Timestamp,
	}
}
