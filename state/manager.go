// Package state provides the custody core's persistence layer: a thin,
// type-agnostic key-value manager keyed by Keccak256(prefix || address),
// with a per-entity prefix constant for each record type. Record encoding
// is the caller's responsibility (the custody package's Vault and
// Registry types implement MarshalBinary/UnmarshalBinary); Manager only
// moves bytes.
package state

import (
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/quorumvault/custody/principal"
	"github.com/quorumvault/custody/storage"
)

// Manager reads and writes opaque records keyed by a caller-supplied prefix
// and a principal address, backed by a storage.Database.
type Manager struct {
	db storage.Database
}

// NewManager wraps db in a Manager.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func recordKey(prefix []byte, addr principal.ID) []byte {
	buf := make([]byte, 0, len(prefix)+32)
	buf = append(buf, prefix...)
	buf = append(buf, addr.Bytes()...)
	return crypto.Keccak256(buf)
}

// Get returns the raw record stored under (prefix, addr), reporting false
// when it does not exist.
func (m *Manager) Get(prefix []byte, addr principal.ID) ([]byte, bool, error) {
	key := recordKey(prefix, addr)
	has, err := m.db.Has(key)
	if err != nil {
		return nil, false, err
	}
	if !has {
		return nil, false, nil
	}
	value, err := m.db.Get(key)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Put stores value under (prefix, addr), overwriting any existing record.
func (m *Manager) Put(prefix []byte, addr principal.ID, value []byte) error {
	return m.db.Put(recordKey(prefix, addr), value)
}

// Has reports whether a record exists under (prefix, addr) without reading it.
func (m *Manager) Has(prefix []byte, addr principal.ID) (bool, error) {
	return m.db.Has(recordKey(prefix, addr))
}
