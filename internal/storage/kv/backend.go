// Package kv provides the pluggable key-value storage the ledger state
// persists in. Backends are registered by name; values are optionally
// compressed before hitting the backend.
package kv

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrKeyNotFound is returned when a key is absent.
	ErrKeyNotFound = errors.New("kv: key not found")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("kv: backend is closed")
)

// Backend is a minimal key-value store.
type Backend interface {
	// Get returns the value for key, or ErrKeyNotFound.
	Get(key []byte) ([]byte, error)

	// Put stores a value.
	Put(key, value []byte) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(key []byte) error

	// Has reports whether the key exists.
	Has(key []byte) (bool, error)

	// Close releases the backend's resources.
	Close() error
}

// BackendFactory opens a backend at the given path.
type BackendFactory func(path string) (Backend, error)

var (
	backendMu sync.RWMutex
	backends  = make(map[string]BackendFactory)
)

// RegisterBackend registers a backend factory under a name.
func RegisterBackend(name string, factory BackendFactory) {
	backendMu.Lock()
	defer backendMu.Unlock()
	backends[name] = factory
}

// OpenBackend opens the named backend at path.
func OpenBackend(name, path string) (Backend, error) {
	backendMu.RLock()
	factory, ok := backends[name]
	backendMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("kv: unknown backend %q", name)
	}
	return factory(path)
}

// AvailableBackends returns the registered backend names.
func AvailableBackends() []string {
	backendMu.RLock()
	defer backendMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	return names
}
