package entry

// CurveMarket is a bonding-curve issuance market entry. CurrentSupply is
// monotonically bounded by [0, TotalSupply]; the virtual reserve product is
// conserved exactly across a fee-free buy/sell pair.
type CurveMarket struct {
	TokenID             uint64  `codec:"token_id"`
	Name                string  `codec:"name"`
	Symbol              string  `codec:"symbol"`
	TotalSupply         int64   `codec:"total_supply"`
	CurrentSupply       int64   `codec:"current_supply"`
	VirtualXLMReserve   int64   `codec:"virtual_xlm_reserve"`
	VirtualTokenReserve int64   `codec:"virtual_token_reserve"`
	Creator             Address `codec:"creator"`
	CreatedAt           uint64  `codec:"created_at"`

	// TradeCount is the per-market trade history sequence. The next
	// TradeRecord is written at this index.
	TradeCount uint64 `codec:"trade_count"`
}

// Exhausted reports whether the market can mint no further supply.
func (m *CurveMarket) Exhausted() bool {
	return m.CurrentSupply >= m.TotalSupply
}

// TradeRecord is one append-only curve trade history entry.
type TradeRecord struct {
	Trader      Address `codec:"trader"`
	IsBuy       bool    `codec:"is_buy"`
	TokenAmount int64   `codec:"token_amount"`
	XLMAmount   int64   `codec:"xlm_amount"`
	Price       int64   `codec:"price"`
	Timestamp   uint64  `codec:"timestamp"`
}
