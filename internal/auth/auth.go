// Package auth verifies that the principal named by a transaction actually
// authorized it. Verification is injected into the engine as an AuthContext;
// nothing in the engines consults ambient identity state.
package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/decred/dcrd/crypto/ripemd160"

	"github.com/lumeforge/venued/internal/core/entry"
	"github.com/lumeforge/venued/internal/core/tx"
)

var (
	// ErrNotAuthorized is returned when the claimed account did not
	// authorize the call.
	ErrNotAuthorized = errors.New("auth: account did not authorize this call")

	// ErrBadSignature is returned for signatures that do not verify.
	ErrBadSignature = errors.New("auth: signature verification failed")
)

// DeriveAddress computes an account address from a compressed secp256k1
// public key: ripemd160(sha256(pubkey)).
func DeriveAddress(pub *btcec.PublicKey) entry.Address {
	sha := sha256.Sum256(pub.SerializeCompressed())
	h := ripemd160.New()
	h.Write(sha[:])

	var addr entry.Address
	copy(addr[:], h.Sum(nil))
	return addr
}

// TxDigest returns the digest a transaction signature commits to: the
// SHA-256 of the transaction's canonical encoding.
func TxDigest(txn tx.Transaction) ([32]byte, error) {
	data, err := entry.Encode(txn)
	if err != nil {
		return [32]byte{}, fmt.Errorf("auth: digest: %w", err)
	}
	return sha256.Sum256(data), nil
}

// SignerAuth authorizes exactly one account for one invocation: the account
// whose address matches the presented public key, provided the DER signature
// verifies over the digest. Construct one per submitted transaction.
type SignerAuth struct {
	pub       *btcec.PublicKey
	signature []byte
	digest    [32]byte
}

// NewSignerAuth creates an AuthContext from a submission envelope.
// pubKey is the compressed public key; signature is DER-encoded.
func NewSignerAuth(pubKey, signature []byte, digest [32]byte) (*SignerAuth, error) {
	pub, err := btcec.ParsePubKey(pubKey)
	if err != nil {
		return nil, fmt.Errorf("auth: invalid public key: %w", err)
	}
	return &SignerAuth{pub: pub, signature: signature, digest: digest}, nil
}

// Authorize verifies that account is the signer's address and the signature
// verifies over the digest.
func (a *SignerAuth) Authorize(account entry.Address) error {
	if DeriveAddress(a.pub) != account {
		return fmt.Errorf("%w: key does not belong to %s", ErrNotAuthorized, account)
	}

	sig, err := ecdsa.ParseDERSignature(a.signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if !sig.Verify(a.digest[:], a.pub) {
		return ErrBadSignature
	}
	return nil
}

// Sign produces the DER signature of a digest. Used by clients and tests.
func Sign(priv *btcec.PrivateKey, digest [32]byte) []byte {
	return ecdsa.Sign(priv, digest[:]).Serialize()
}

// StaticAuth authorizes a fixed set of accounts. Used by tests and by
// deployments that terminate authentication upstream.
type StaticAuth struct {
	allowed map[entry.Address]bool
}

// NewStaticAuth creates a StaticAuth allowing the given accounts.
func NewStaticAuth(accounts ...entry.Address) *StaticAuth {
	allowed := make(map[entry.Address]bool, len(accounts))
	for _, a := range accounts {
		allowed[a] = true
	}
	return &StaticAuth{allowed: allowed}
}

// Authorize implements tx.AuthContext.
func (a *StaticAuth) Authorize(account entry.Address) error {
	if !a.allowed[account] {
		return fmt.Errorf("%w: %s", ErrNotAuthorized, account)
	}
	return nil
}

// AllowAll authorizes every account. For standalone and test use only.
type AllowAll struct{}

// Authorize implements tx.AuthContext.
func (AllowAll) Authorize(entry.Address) error { return nil }
