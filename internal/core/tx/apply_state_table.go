package tx

import (
	"fmt"

	"github.com/lumeforge/venued/internal/core/keylet"
)

// Action represents the type of modification to a ledger entry.
type Action int

const (
	// ActionCache means the entry was read but not modified.
	ActionCache Action = iota
	// ActionInsert means a new entry was created.
	ActionInsert
	// ActionModify means an existing entry was modified.
	ActionModify
	// ActionErase means an entry was deleted.
	ActionErase
)

// trackedEntry represents one ledger entry being tracked for changes.
type trackedEntry struct {
	action  Action
	keylet  keylet.Keylet
	current []byte // nil after erase
}

// ApplyStateTable wraps a LedgerView and buffers all modifications so a
// failing transaction commits nothing. Commit flushes the buffer to the
// base view; discarding the table discards the whole transaction.
type ApplyStateTable struct {
	base  LedgerView
	items map[[32]byte]*trackedEntry
}

// NewApplyStateTable creates a table over the given base view.
func NewApplyStateTable(base LedgerView) *ApplyStateTable {
	return &ApplyStateTable{
		base:  base,
		items: make(map[[32]byte]*trackedEntry),
	}
}

// Read reads a ledger entry through the buffer.
func (t *ApplyStateTable) Read(k keylet.Keylet) ([]byte, error) {
	if e, ok := t.items[k.Key]; ok {
		if e.action == ActionErase {
			return nil, nil
		}
		return e.current, nil
	}
	return t.base.Read(k)
}

// Exists checks if an entry exists through the buffer.
func (t *ApplyStateTable) Exists(k keylet.Keylet) (bool, error) {
	if e, ok := t.items[k.Key]; ok {
		return e.action != ActionErase, nil
	}
	return t.base.Exists(k)
}

// Insert buffers creation of a new entry.
func (t *ApplyStateTable) Insert(k keylet.Keylet, data []byte) error {
	if e, ok := t.items[k.Key]; ok {
		if e.action != ActionErase {
			return fmt.Errorf("insert: entry already exists")
		}
		// Erased earlier in this transaction; re-creating is a modify.
		e.action = ActionModify
		e.current = data
		return nil
	}

	exists, err := t.base.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("insert: entry already exists")
	}
	t.items[k.Key] = &trackedEntry{action: ActionInsert, keylet: k, current: data}
	return nil
}

// Update buffers modification of an existing entry.
func (t *ApplyStateTable) Update(k keylet.Keylet, data []byte) error {
	if e, ok := t.items[k.Key]; ok {
		if e.action == ActionErase {
			return fmt.Errorf("update: entry was erased")
		}
		e.current = data
		return nil
	}

	exists, err := t.base.Exists(k)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("update: entry does not exist")
	}
	t.items[k.Key] = &trackedEntry{action: ActionModify, keylet: k, current: data}
	return nil
}

// Erase buffers deletion of an entry.
func (t *ApplyStateTable) Erase(k keylet.Keylet) error {
	if e, ok := t.items[k.Key]; ok {
		if e.action == ActionInsert {
			// Created and destroyed inside the same transaction.
			delete(t.items, k.Key)
			return nil
		}
		e.action = ActionErase
		e.current = nil
		return nil
	}

	exists, err := t.base.Exists(k)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("erase: entry does not exist")
	}
	t.items[k.Key] = &trackedEntry{action: ActionErase, keylet: k}
	return nil
}

// Commit flushes all buffered changes to the base view.
func (t *ApplyStateTable) Commit() error {
	for _, e := range t.items {
		var err error
		switch e.action {
		case ActionInsert:
			err = t.base.Insert(e.keylet, e.current)
		case ActionModify:
			err = t.base.Update(e.keylet, e.current)
		case ActionErase:
			err = t.base.Erase(e.keylet)
		}
		if err != nil {
			return fmt.Errorf("commit %x: %w", e.keylet.Key[:8], err)
		}
	}
	return nil
}

// Changes returns how many entries the transaction touched.
func (t *ApplyStateTable) Changes() int {
	return len(t.items)
}
