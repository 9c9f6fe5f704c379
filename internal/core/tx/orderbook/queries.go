package orderbook

import (
	"errors"
	"fmt"

	"github.com/lumeforge/venued/internal/core/entry"
	"github.com/lumeforge/venued/internal/core/keylet"
	"github.com/lumeforge/venued/internal/core/tx"
)

var (
	// ErrOrderNotFound is returned by queries for unknown order ids.
	ErrOrderNotFound = errors.New("orderbook: order not found")

	// ErrTradeNotFound is returned by queries for unknown trade ids.
	ErrTradeNotFound = errors.New("orderbook: trade not found")
)

// GetOrder returns an order by id.
func GetOrder(view tx.LedgerView, orderID uint64) (*entry.Order, error) {
	data, err := view.Read(keylet.Order(orderID))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %d", ErrOrderNotFound, orderID)
	}
	var order entry.Order
	if err := entry.Decode(data, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetTrade returns a trade by id.
func GetTrade(view tx.LedgerView, tradeID uint64) (*entry.Trade, error) {
	data, err := view.Read(keylet.Trade(tradeID))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %d", ErrTradeNotFound, tradeID)
	}
	var trade entry.Trade
	if err := entry.Decode(data, &trade); err != nil {
		return nil, err
	}
	return &trade, nil
}

func readDir(view tx.LedgerView, k keylet.Keylet) ([]uint64, error) {
	data, err := view.Read(k)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	var dir entry.Directory
	if err := entry.Decode(data, &dir); err != nil {
		return nil, err
	}
	return dir.IDs, nil
}

// GetUserOrders returns all of a seller's orders, any status, in creation
// order.
func GetUserOrders(view tx.LedgerView, user entry.Address) ([]*entry.Order, error) {
	ids, err := readDir(view, keylet.OwnerDir(user))
	if err != nil {
		return nil, err
	}
	orders := make([]*entry.Order, 0, len(ids))
	for _, id := range ids {
		order, err := GetOrder(view, id)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// GetTokenOrders returns the asset's open orders in creation order.
func GetTokenOrders(view tx.LedgerView, asset entry.Address) ([]*entry.Order, error) {
	ids, err := readDir(view, keylet.BookDir(asset))
	if err != nil {
		return nil, err
	}
	orders := make([]*entry.Order, 0, len(ids))
	for _, id := range ids {
		order, err := GetOrder(view, id)
		if err != nil {
			return nil, err
		}
		if order.Status == entry.OrderOpen {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

// GetOrderCount returns the number of orders created so far.
func GetOrderCount(view tx.LedgerView) (uint64, error) {
	return counterValue(view, tx.CounterOrder)
}

// GetTradeCount returns the number of trades executed so far.
func GetTradeCount(view tx.LedgerView) (uint64, error) {
	return counterValue(view, tx.CounterTrade)
}

func counterValue(view tx.LedgerView, name string) (uint64, error) {
	data, err := view.Read(keylet.Counter(name))
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
