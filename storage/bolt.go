package storage

import (
	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("custody")

// BoltDB is a durable, single-file KV store backing the state manager when
// the program runs outside of the ledger runtime's own account storage —
// the in-process harness §9 describes for emulating serialized per-account
// execution on a plain thread.
type BoltDB struct {
	db *bolt.DB
}

// NewBoltDB opens (creating if absent) a bbolt database at path.
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltDB{db: db}, nil
}

// Put inserts or overwrites a key-value pair within a single write transaction.
func (b *BoltDB) Put(key, value []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(key, value)
	})
}

// Get retrieves the value stored under key, or ErrNotFound.
func (b *BoltDB) Get(key []byte) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		value := tx.Bucket(bucketName).Get(key)
		if value == nil {
			return ErrNotFound
		}
		out = make([]byte, len(value))
		copy(out, value)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Has reports whether key is present.
func (b *BoltDB) Has(key []byte) (bool, error) {
	found := false
	err := b.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(bucketName).Get(key) != nil
		return nil
	})
	return found, err
}

// Close releases the underlying file handle.
func (b *BoltDB) Close() error {
	return b.db.Close()
}
