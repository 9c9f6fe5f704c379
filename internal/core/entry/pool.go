package entry

// Pool is an AMM pool ledger entry. Once created both reserves stay
// positive, and the reserve product never decreases across swaps.
type Pool struct {
	PoolID       uint64  `codec:"pool_id"`
	Name         string  `codec:"name"`
	Symbol       string  `codec:"symbol"`
	TokenReserve int64   `codec:"token_reserve"`
	XLMReserve   int64   `codec:"xlm_reserve"`
	TotalSupply  int64   `codec:"total_supply"`
	LPTokens     int64   `codec:"lp_tokens"`
	Creator      Address `codec:"creator"`
	CreatedAt    uint64  `codec:"created_at"`
}
