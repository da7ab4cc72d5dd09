// Package custody implements the on-chain custody program: the Vault and
// Authority Registry account types (§3), PDA-addressed storage, the
// authorization matrix (§4.2), and the ten instruction handlers (§4.3).
// The HTTP façade, database, and reconciliation loop live outside this
// repository and are referenced only through the indexer.EventSink and
// assettransfer.Bridge interfaces.
package custody

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/quorumvault/custody/principal"
)

// VaultPrefix namespaces vault records in the state manager, mirroring the
// teacher's escrowVaultPrefix/escrowRecordPrefix constants.
var VaultPrefix = []byte("custody/vault:")

// Vault is the per-owner record holding balances, lifetime counters, and a
// reference to the custody sub-account (§3.1). It is allocated once per
// owner and never closed (§3.3, §4.4).
type Vault struct {
	Owner             principal.ID
	CustodyAccount    principal.ID
	Total             uint64
	Locked            uint64
	Available         uint64
	DepositedLifetime uint64
	WithdrawnLifetime uint64
	CreatedAt         int64
	Bump              uint8
}

type vaultWire struct {
	Owner             []byte
	CustodyAccount    []byte
	Total             uint64
	Locked            uint64
	Available         uint64
	DepositedLifetime uint64
	WithdrawnLifetime uint64
	CreatedAt         uint64
	Bump              uint8
}

// MarshalBinary renders the fixed-order record described in §3.1/§6.4 as
// RLP.
func (v *Vault) MarshalBinary() ([]byte, error) {
	w := vaultWire{
		Owner:             v.Owner.Bytes(),
		CustodyAccount:    v.CustodyAccount.Bytes(),
		Total:             v.Total,
		Locked:            v.Locked,
		Available:         v.Available,
		DepositedLifetime: v.DepositedLifetime,
		WithdrawnLifetime: v.WithdrawnLifetime,
		CreatedAt:         uint64(v.CreatedAt),
		Bump:              v.Bump,
	}
	return rlp.EncodeToBytes(&w)
}

// UnmarshalBinary decodes a record previously produced by MarshalBinary.
func (v *Vault) UnmarshalBinary(data []byte) error {
	var w vaultWire
	if err := rlp.DecodeBytes(data, &w); err != nil {
		return err
	}
	owner, err := principal.FromBytes(w.Owner)
	if err != nil {
		return err
	}
	custodyAccount, err := principal.FromBytes(w.CustodyAccount)
	if err != nil {
		return err
	}
	v.Owner = owner
	v.CustodyAccount = custodyAccount
	v.Total = w.Total
	v.Locked = w.Locked
	v.Available = w.Available
	v.DepositedLifetime = w.DepositedLifetime
	v.WithdrawnLifetime = w.WithdrawnLifetime
	v.CreatedAt = int64(w.CreatedAt)
	v.Bump = w.Bump
	return nil
}

// CheckInvariants reports whether the vault satisfies I1 (total = locked +
// available) and I2 (deposited_lifetime - withdrawn_lifetime >= total). It
// is used defensively in tests and can be wired into a reconciliation
// collaborator's read path.
func (v *Vault) CheckInvariants() bool {
	if v.Locked+v.Available != v.Total {
		return false
	}
	if v.DepositedLifetime < v.WithdrawnLifetime {
		return false
	}
	return v.DepositedLifetime-v.WithdrawnLifetime >= v.Total
}
