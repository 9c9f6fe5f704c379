package kv

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// Values below this size are stored uncompressed.
	minCompressionSize = 128

	defaultCacheSize = 16384
)

// Options configures a Store.
type Options struct {
	// Backend names a registered backend. Defaults to "memory".
	Backend string

	// Path is the backend's on-disk location.
	Path string

	// Compressor names a registered compressor. Defaults to "lz4".
	Compressor string

	// CacheSize is the number of entries the read cache holds.
	CacheSize int
}

// Store wraps a Backend with an LRU read cache and transparent value
// compression. Each stored value carries a one-byte envelope flag
// recording whether the payload is compressed.
type Store struct {
	backend    Backend
	compressor Compressor
	cache      *lru.Cache[string, []byte]
}

// Open opens a Store with the given options.
func Open(opts Options) (*Store, error) {
	if opts.Backend == "" {
		opts.Backend = "memory"
	}
	if opts.Compressor == "" {
		opts.Compressor = "lz4"
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}

	compressor, err := GetCompressor(opts.Compressor)
	if err != nil {
		return nil, err
	}

	backend, err := OpenBackend(opts.Backend, opts.Path)
	if err != nil {
		return nil, err
	}

	cache, err := lru.New[string, []byte](opts.CacheSize)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Store{backend: backend, compressor: compressor, cache: cache}, nil
}

// NewStore wraps an already open backend. Used by tests.
func NewStore(backend Backend) *Store {
	cache, _ := lru.New[string, []byte](defaultCacheSize)
	compressor, _ := GetCompressor("none")
	return &Store{backend: backend, compressor: compressor, cache: cache}
}

// Get returns the value for key, or ErrKeyNotFound.
func (s *Store) Get(key []byte) ([]byte, error) {
	if value, ok := s.cache.Get(string(key)); ok {
		out := make([]byte, len(value))
		copy(out, value)
		return out, nil
	}

	stored, err := s.backend.Get(key)
	if err != nil {
		return nil, err
	}

	value, err := s.unwrap(stored)
	if err != nil {
		return nil, fmt.Errorf("kv: corrupt value for key %x: %w", key, err)
	}

	s.cache.Add(string(key), value)
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Put stores a value.
func (s *Store) Put(key, value []byte) error {
	stored := s.wrap(value)
	if err := s.backend.Put(key, stored); err != nil {
		return err
	}

	cached := make([]byte, len(value))
	copy(cached, value)
	s.cache.Add(string(key), cached)
	return nil
}

// Delete removes a key.
func (s *Store) Delete(key []byte) error {
	if err := s.backend.Delete(key); err != nil {
		return err
	}
	s.cache.Remove(string(key))
	return nil
}

// Has reports whether the key exists.
func (s *Store) Has(key []byte) (bool, error) {
	if s.cache.Contains(string(key)) {
		return true, nil
	}
	return s.backend.Has(key)
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	s.cache.Purge()
	return s.backend.Close()
}

func (s *Store) wrap(value []byte) []byte {
	if len(value) >= minCompressionSize && s.compressor.Name() != "none" {
		compressed, err := s.compressor.Compress(value)
		// Keep the compressed form only when it actually saves space.
		if err == nil && len(compressed) < len(value)*9/10 {
			out := make([]byte, 1+len(compressed))
			out[0] = 1
			copy(out[1:], compressed)
			return out
		}
	}

	out := make([]byte, 1+len(value))
	out[0] = 0
	copy(out[1:], value)
	return out
}

func (s *Store) unwrap(stored []byte) ([]byte, error) {
	if len(stored) < 1 {
		return nil, fmt.Errorf("value too short")
	}
	payload := stored[1:]
	if stored[0] == 0 {
		return payload, nil
	}
	return s.compressor.Decompress(payload)
}
