package entry

// OrderStatus is the lifecycle state of an order. Filled and Cancelled are
// terminal; an order never re-enters Open.
type OrderStatus uint8

const (
	OrderOpen OrderStatus = iota
	OrderFilled
	OrderCancelled
)

// String returns the lowercase name of the status.
func (s OrderStatus) String() string {
	switch s {
	case OrderOpen:
		return "open"
	case OrderFilled:
		return "filled"
	case OrderCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Order is an escrow-backed limit sell order. While the order is Open the
// venue escrow holds exactly Amount of Asset on the seller's behalf.
type Order struct {
	OrderID        uint64      `codec:"order_id"`
	Seller         Address     `codec:"seller"`
	Asset          Address     `codec:"asset"`
	Amount         int64       `codec:"amount"`
	OriginalAmount int64       `codec:"original_amount"`
	PricePerUnit   int64       `codec:"price_per_unit"`
	Status         OrderStatus `codec:"status"`
	CreatedAt      uint64      `codec:"created_at"`
}

// Trade is one append-only order book fill record.
type Trade struct {
	TradeID   uint64  `codec:"trade_id"`
	OrderID   uint64  `codec:"order_id"`
	Buyer     Address `codec:"buyer"`
	Seller    Address `codec:"seller"`
	Asset     Address `codec:"asset"`
	Amount    int64   `codec:"amount"`
	Price     int64   `codec:"price"`
	Total     int64   `codec:"total"`
	Timestamp uint64  `codec:"timestamp"`
}

// Directory is an ordered list of entry ids, used for the per-seller and
// per-asset order indices.
type Directory struct {
	IDs []uint64 `codec:"ids"`
}

// Counter is a named sequence generator's persisted value. Ids are assigned
// starting at 1; Value holds the most recently assigned id.
type Counter struct {
	Value uint64 `codec:"value"`
}

// Balance is a token ledger balance entry.
type Balance struct {
	Amount int64 `codec:"amount"`
}

// Admin is the owner singleton written by Initialize.
type Admin struct {
	Owner Address `codec:"owner"`
}
