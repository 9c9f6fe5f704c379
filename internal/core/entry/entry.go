// Package entry defines the typed ledger entries owned by the trading
// engines and their serialized form. Entries are encoded as canonical CBOR
// so state hashes are deterministic across processes.
package entry

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ugorji/go/codec"
)

// Address is a 20-byte account identifier.
type Address [20]byte

// ZeroAddress is the unset address. It doubles as the native asset id in the
// token ledger.
var ZeroAddress Address

// String returns the hex form of the address.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// ParseAddress decodes a 40-character hex address.
func ParseAddress(s string) (Address, error) {
	var a Address
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("invalid address %q: %w", s, err)
	}
	if len(b) != len(a) {
		return a, fmt.Errorf("invalid address length %d", len(b))
	}
	copy(a[:], b)
	return a, nil
}

// MarshalJSON renders the address as a hex string.
func (a Address) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON parses a hex string address.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := jsonUnquote(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func jsonUnquote(data []byte, s *string) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("entry: address must be a JSON string")
	}
	*s = string(data[1 : len(data)-1])
	return nil
}

// ErrDecode is wrapped by all entry decode failures.
var ErrDecode = errors.New("entry: decode failed")

func cborHandle() *codec.CborHandle {
	h := &codec.CborHandle{}
	h.Canonical = true
	return h
}

// Encode serializes an entry to canonical CBOR.
func Encode(v any) ([]byte, error) {
	var out []byte
	enc := codec.NewEncoderBytes(&out, cborHandle())
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("entry: encode: %w", err)
	}
	return out, nil
}

// Decode deserializes an entry from CBOR into v.
func Decode(data []byte, v any) error {
	dec := codec.NewDecoderBytes(data, cborHandle())
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}
