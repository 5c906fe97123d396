package persist

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

// BadgerBackend stores payloads in a badger key-value database, the durable
// choice for hosts that outlive a single process.
type BadgerBackend struct {
	db *badger.DB
}

// NewBadgerBackend wraps an already-open badger database. The caller keeps
// ownership of the database lifecycle.
func NewBadgerBackend(db *badger.DB) (*BadgerBackend, error) {
	if db == nil {
		return nil, fmt.Errorf("persist: badger db is required")
	}
	return &BadgerBackend{db: db}, nil
}

// OpenBadgerBackend opens a badger database at dir with logging silenced and
// returns a backend over it plus a close function.
func OpenBadgerBackend(dir string) (*BadgerBackend, func() error, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, nil, fmt.Errorf("persist: open badger at %q: %w", dir, err)
	}
	return &BadgerBackend{db: db}, db.Close, nil
}

func (b *BadgerBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("persist: badger get %q: %w", key, err)
	}
	return payload, true, nil
}

func (b *BadgerBackend) Put(_ context.Context, key string, payload []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), payload)
	})
	if err != nil {
		return fmt.Errorf("persist: badger put %q: %w", key, err)
	}
	return nil
}

func (b *BadgerBackend) Delete(_ context.Context, key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("persist: badger delete %q: %w", key, err)
	}
	return nil
}
