package kv

import (
	"fmt"
	"sync/atomic"

	"github.com/syndtr/goleveldb/leveldb"
)

// leveldbBackend stores keys in a goleveldb instance.
type leveldbBackend struct {
	db   *leveldb.DB
	open int64
}

func init() {
	RegisterBackend("leveldb", openLevelDB)
}

func openLevelDB(path string) (Backend, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb at %s: %w", path, err)
	}
	return &leveldbBackend{db: db, open: 1}, nil
}

func (l *leveldbBackend) Get(key []byte) ([]byte, error) {
	if atomic.LoadInt64(&l.open) == 0 {
		return nil, ErrClosed
	}

	value, err := l.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (l *leveldbBackend) Put(key, value []byte) error {
	if atomic.LoadInt64(&l.open) == 0 {
		return ErrClosed
	}
	return l.db.Put(key, value, nil)
}

func (l *leveldbBackend) Delete(key []byte) error {
	if atomic.LoadInt64(&l.open) == 0 {
		return ErrClosed
	}
	return l.db.Delete(key, nil)
}

func (l *leveldbBackend) Has(key []byte) (bool, error) {
	if atomic.LoadInt64(&l.open) == 0 {
		return false, ErrClosed
	}
	return l.db.Has(key, nil)
}

func (l *leveldbBackend) Close() error {
	if !atomic.CompareAndSwapInt64(&l.open, 1, 0) {
		return nil
	}
	return l.db.Close()
}
