package orderbook

import (
	"github.com/lumeforge/venued/internal/core/entry"
	"github.com/lumeforge/venued/internal/core/keylet"
	"github.com/lumeforge/venued/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeInitialize, func() tx.Transaction {
		return &Initialize{BaseTx: *tx.NewBaseTx(tx.TypeInitialize, entry.ZeroAddress)}
	})
}

// Initialize sets the order book's owner singleton. It may run exactly once;
// repeat attempts fail with TefALREADY_INIT.
type Initialize struct {
	tx.BaseTx

	Owner entry.Address `json:"owner" codec:"owner"`
}

// NewInitialize creates a new Initialize transaction.
func NewInitialize(account, owner entry.Address) *Initialize {
	return &Initialize{
		BaseTx: *tx.NewBaseTx(tx.TypeInitialize, account),
		Owner:  owner,
	}
}

// TxType returns the transaction type.
func (i *Initialize) TxType() tx.Type {
	return tx.TypeInitialize
}

// Validate validates the Initialize transaction.
func (i *Initialize) Validate() error {
	if err := i.BaseTx.Validate(); err != nil {
		return err
	}
	if i.Owner.IsZero() {
		return ErrOwnerRequired
	}
	return nil
}

// Apply applies the Initialize transaction to ledger state.
func (i *Initialize) Apply(ctx *tx.ApplyContext) tx.Result {
	k := keylet.Admin()
	exists, err := ctx.View.Exists(k)
	if err != nil {
		return tx.TefINTERNAL
	}
	if exists {
		return tx.TefALREADY_INIT
	}

	data, err := entry.Encode(&entry.Admin{Owner: i.Owner})
	if err != nil {
		return tx.TefINTERNAL
	}
	if err := ctx.View.Insert(k, data); err != nil {
		return tx.TefINTERNAL
	}
	return tx.TesSUCCESS
}
