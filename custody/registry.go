package custody

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/quorumvault/custody/principal"
)

// RegistryPrefix namespaces the singleton registry record in the state
// manager.
var RegistryPrefix = []byte("custody/registry:")

// MaxDelegates bounds the registry's delegate whitelist (§3.2).
const MaxDelegates = 10

// Registry is the singleton configuration record holding the admin
// principal, the delegate whitelist, and the pause flag (§3.2).
type Registry struct {
	Admin      principal.ID
	Delegates  []principal.ID
	Paused     bool
	UpdatedAt  int64
	Bump       uint8
}

type registryWire struct {
	Admin     []byte
	Delegates [][]byte
	Paused    bool
	UpdatedAt uint64
	Bump      uint8
}

// MarshalBinary renders the registry's fixed-order record (§6.4) as RLP.
func (r *Registry) MarshalBinary() ([]byte, error) {
	delegates := make([][]byte, len(r.Delegates))
	for i, d := range r.Delegates {
		delegates[i] = d.Bytes()
	}
	w := registryWire{
		Admin:     r.Admin.Bytes(),
		Delegates: delegates,
		Paused:    r.Paused,
		UpdatedAt: uint64(r.UpdatedAt),
		Bump:      r.Bump,
	}
	return rlp.EncodeToBytes(&w)
}

// UnmarshalBinary decodes a record previously produced by MarshalBinary.
func (r *Registry) UnmarshalBinary(data []byte) error {
	var w registryWire
	if err := rlp.DecodeBytes(data, &w); err != nil {
		return err
	}
	admin, err := principal.FromBytes(w.Admin)
	if err != nil {
		return err
	}
	delegates := make([]principal.ID, len(w.Delegates))
	for i, d := range w.Delegates {
		id, err := principal.FromBytes(d)
		if err != nil {
			return err
		}
		delegates[i] = id
	}
	r.Admin = admin
	r.Delegates = delegates
	r.Paused = w.Paused
	r.UpdatedAt = int64(w.UpdatedAt)
	r.Bump = w.Bump
	return nil
}

// IsDelegate reports whether candidate is enrolled in the registry's
// whitelist. The scan is linear over at most MaxDelegates entries, the O(1)
// bound §5 describes.
func (r *Registry) IsDelegate(candidate principal.ID) bool {
	for _, d := range r.Delegates {
		if d == candidate {
			return true
		}
	}
	return false
}

// Clone returns a deep copy, used so handlers can mutate a working copy and
// only persist it after every gate has passed.
func (r *Registry) Clone() *Registry {
	delegates := make([]principal.ID, len(r.Delegates))
	copy(delegates, r.Delegates)
	return &Registry{
		Admin:     r.Admin,
		Delegates: delegates,
		Paused:    r.Paused,
		UpdatedAt: r.UpdatedAt,
		Bump:      r.Bump,
	}
}
