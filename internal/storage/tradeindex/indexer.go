package tradeindex

import (
	"context"
	"time"

	"github.com/lumeforge/venued/internal/core/fixmath"
	"github.com/lumeforge/venued/internal/core/tx"
)

// Indexer converts committed engine events into index rows. It is attached
// as a publisher hook; non-trade events pass through untouched.
type Indexer struct {
	repo   Repository
	onErr  func(error)
	timeFn func() time.Time
}

// NewIndexer creates an indexer writing to repo. onErr receives insert
// failures; it may be nil.
func NewIndexer(repo Repository, onErr func(error)) *Indexer {
	return &Indexer{repo: repo, onErr: onErr, timeFn: time.Now}
}

// Hook returns the event hook to register with the publisher.
func (ix *Indexer) Hook() func(ev tx.Event) {
	return func(ev tx.Event) {
		var trade *Trade
		switch ev.Type {
		case "buy", "sell":
			trade = ix.curveTrade(ev)
		case "trade_executed":
			trade = ix.bookTrade(ev)
		}
		if trade == nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ix.repo.Insert(ctx, *trade); err != nil && ix.onErr != nil {
			ix.onErr(err)
		}
	}
}

func (ix *Indexer) curveTrade(ev tx.Event) *Trade {
	isBuy := ev.Type == "buy"

	trade := &Trade{
		Source:     SourceCurve,
		ID:         asUint64(ev.Data["trade_seq"]),
		TokenID:    asUint64(ev.Data["token_id"]),
		IsBuy:      isBuy,
		ExecutedAt: ix.timeFn().UTC(),
	}

	if isBuy {
		trade.Buyer = asString(ev.Data["buyer"])
		trade.Amount = asInt64(ev.Data["tokens_out"])
		trade.Total = asInt64(ev.Data["xlm_in"])
	} else {
		trade.Seller = asString(ev.Data["seller"])
		trade.Amount = asInt64(ev.Data["tokens_in"])
		trade.Total = asInt64(ev.Data["xlm_out"])
	}

	if price, err := fixmath.Price(trade.Total, trade.Amount); err == nil {
		trade.Price = price
	}
	return trade
}

func (ix *Indexer) bookTrade(ev tx.Event) *Trade {
	return &Trade{
		Source:     SourceOrderBook,
		ID:         asUint64(ev.Data["trade_id"]),
		Asset:      asString(ev.Data["asset"]),
		OrderID:    asUint64(ev.Data["order_id"]),
		Buyer:      ev.Key,
		Seller:     asString(ev.Data["seller"]),
		Amount:     asInt64(ev.Data["amount"]),
		Price:      asInt64(ev.Data["price"]),
		Total:      asInt64(ev.Data["total"]),
		IsBuy:      true,
		ExecutedAt: ix.timeFn().UTC(),
	}
}

func asUint64(v any) uint64 {
	switch n := v.(type) {
	case uint64:
		return n
	case int64:
		return uint64(n)
	case int:
		return uint64(n)
	case float64:
		return uint64(n)
	}
	return 0
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case uint64:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
