// Package state implements the committed ledger state on top of the
// key-value store. Transactions never touch this view directly; the engine
// buffers their writes and commits them here all at once.
package state

import (
	"fmt"

	"github.com/lumeforge/venued/internal/core/keylet"
	"github.com/lumeforge/venued/internal/storage/kv"
)

// Store is the committed ledger state. Entries are addressed by keylet;
// the stored value carries a one-byte entry type tag so a read through a
// mistyped keylet fails instead of decoding garbage.
type Store struct {
	kv *kv.Store
}

// NewStore wraps a key-value store.
func NewStore(store *kv.Store) *Store {
	return &Store{kv: store}
}

// Read reads a ledger entry. Returns nil data when absent.
func (s *Store) Read(k keylet.Keylet) ([]byte, error) {
	stored, err := s.kv.Get(k.Key[:])
	if err == kv.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return checkTag(k, stored)
}

// Exists checks if an entry exists.
func (s *Store) Exists(k keylet.Keylet) (bool, error) {
	return s.kv.Has(k.Key[:])
}

// Insert adds a new entry. It is an error if the entry exists.
func (s *Store) Insert(k keylet.Keylet, data []byte) error {
	exists, err := s.kv.Has(k.Key[:])
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("state: entry %x already exists", k.Key)
	}
	return s.kv.Put(k.Key[:], tag(k, data))
}

// Update modifies an existing entry.
func (s *Store) Update(k keylet.Keylet, data []byte) error {
	exists, err := s.kv.Has(k.Key[:])
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("state: entry %x does not exist", k.Key)
	}
	return s.kv.Put(k.Key[:], tag(k, data))
}

// Erase removes an entry. Erasing an absent entry is not an error.
func (s *Store) Erase(k keylet.Keylet) error {
	return s.kv.Delete(k.Key[:])
}

// Close closes the underlying key-value store.
func (s *Store) Close() error {
	return s.kv.Close()
}

func tag(k keylet.Keylet, data []byte) []byte {
	out := make([]byte, 1+len(data))
	out[0] = byte(k.Type)
	copy(out[1:], data)
	return out
}

func checkTag(k keylet.Keylet, stored []byte) ([]byte, error) {
	if len(stored) < 1 {
		return nil, fmt.Errorf("state: corrupt entry %x", k.Key)
	}
	if keylet.EntryType(stored[0]) != k.Type {
		return nil, fmt.Errorf("state: entry %x has type %d, keylet expects %d",
			k.Key, stored[0], k.Type)
	}
	return stored[1:], nil
}
