// Package tx contains the transaction machinery shared by the trading
// engines: the transaction interface and registry, result codes, the ledger
// view abstraction, and the engine that applies transactions atomically.
package tx

import (
	"errors"
	"fmt"
	"sync"

	"github.com/lumeforge/venued/internal/core/entry"
	"github.com/lumeforge/venued/internal/core/keylet"
)

// Type identifies a transaction kind.
type Type string

const (
	TypeInitialize       Type = "Initialize"
	TypePoolCreate       Type = "PoolCreate"
	TypeSwapXLMForTokens Type = "SwapXLMForTokens"
	TypeSwapTokensForXLM Type = "SwapTokensForXLM"
	TypeMarketCreate     Type = "MarketCreate"
	TypeCurveBuy         Type = "CurveBuy"
	TypeCurveSell        Type = "CurveSell"
	TypeOrderCreate      Type = "OrderCreate"
	TypeOrderFill        Type = "OrderFill"
	TypeOrderCancel      Type = "OrderCancel"
)

// Transaction is implemented by every engine operation. Validate is a pure
// preflight over the transaction's own fields; Apply mutates buffered ledger
// state and returns a result code.
type Transaction interface {
	TxType() Type
	Validate() error
	Apply(ctx *ApplyContext) Result
	GetBase() *BaseTx
}

// BaseTx holds the fields common to all transactions.
type BaseTx struct {
	// Account is the principal that must have authorized this transaction.
	Account entry.Address `json:"account" codec:"account"`

	Type Type `json:"type" codec:"type"`
}

// NewBaseTx creates a base transaction of the given type.
func NewBaseTx(t Type, account entry.Address) *BaseTx {
	return &BaseTx{Account: account, Type: t}
}

// GetBase returns the embedded base transaction.
func (b *BaseTx) GetBase() *BaseTx { return b }

// Validate checks the common fields.
func (b *BaseTx) Validate() error {
	if b.Account.IsZero() {
		return errors.New("temMALFORMED: account is required")
	}
	return nil
}

// factory creates an empty transaction of a registered type.
type factory func() Transaction

var (
	registryMu sync.RWMutex
	registry   = make(map[Type]factory)
)

// Register registers a transaction factory. Called from package init
// functions of the engine packages.
func Register(t Type, f factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[t] = f
}

// New returns an empty transaction of the given type.
func New(t Type) (Transaction, error) {
	registryMu.RLock()
	f, ok := registry[t]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown transaction type %q", t)
	}
	return f(), nil
}

// RegisteredTypes returns the registered transaction types.
func RegisteredTypes() []Type {
	registryMu.RLock()
	defer registryMu.RUnlock()
	types := make([]Type, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	return types
}

// LedgerView provides read/write access to ledger state.
type LedgerView interface {
	// Read reads a ledger entry. Returns nil data when absent.
	Read(k keylet.Keylet) ([]byte, error)

	// Exists checks if an entry exists.
	Exists(k keylet.Keylet) (bool, error)

	// Insert adds a new entry. It is an error if the entry exists.
	Insert(k keylet.Keylet, data []byte) error

	// Update modifies an existing entry.
	Update(k keylet.Keylet, data []byte) error

	// Erase removes an entry.
	Erase(k keylet.Keylet) error
}

// AuthContext verifies that the claimed principal authorized the current
// invocation. Implementations are injected; engines never consult ambient
// state for identity.
type AuthContext interface {
	Authorize(account entry.Address) error
}

// TokenLedger is the boundary contract with the external fungible-asset
// ledger. Transfer must debit and credit atomically with the enclosing
// transaction; implementations operate on the same buffered view so failed
// transactions roll escrow movements back.
type TokenLedger interface {
	Transfer(asset entry.Address, from, to entry.Address, amount int64) error
	BalanceOf(asset entry.Address, holder entry.Address) (int64, error)
}

// ErrInsufficientBalance is returned by TokenLedger.Transfer when the debit
// side lacks funds.
var ErrInsufficientBalance = errors.New("token: insufficient balance")
