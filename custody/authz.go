package custody

import (
	"github.com/quorumvault/custody/errors"
	"github.com/quorumvault/custody/principal"
)

// requireAdmin enforces the admin-gated instructions (add_delegate,
// remove_delegate, set_paused, create_registry's "registry must not yet
// exist" gate is checked separately by the caller): a small free function
// taking the state it needs to consult and returning a sentinel on denial.
func requireAdmin(instruction string, reg *Registry, caller principal.ID) error {
	if !reg.Admin.Equal(caller) {
		return errors.New(instruction, errors.KindNotAdmin)
	}
	return nil
}

// requireOwner enforces the owner-gated instructions (deposit, withdraw).
// create_vault does not call it: the vault is derived from the caller, so
// its self-service rule holds by construction.
func requireOwner(instruction string, v *Vault, caller principal.ID) error {
	if !v.Owner.Equal(caller) {
		return errors.New(instruction, errors.KindUnauthorized)
	}
	return nil
}

// requireDelegate enforces the delegate-gated instructions (lock, unlock,
// transfer), consulting the registry's whitelist (§4.2).
func requireDelegate(instruction string, reg *Registry, caller principal.ID) error {
	if !reg.IsDelegate(caller) {
		return errors.New(instruction, errors.KindUnauthorizedDelegate)
	}
	return nil
}

// requireNotPaused enforces the pause gate, which blocks only the five
// balance-mutating instructions (deposit, withdraw, lock, unlock, transfer)
// and never the registry-admin
// instructions: admin operations remain available while paused (§9 Open
// Questions).
func requireNotPaused(instruction string, reg *Registry) error {
	if reg.Paused {
		return errors.New(instruction, errors.KindPaused)
	}
	return nil
}

// requirePositiveAmount enforces InvalidAmount on every amount-taking
// instruction (§4.2, §8 boundary behavior: amount = 0 ⇒ InvalidAmount).
func requirePositiveAmount(instruction string, amount uint64) error {
	if amount == 0 {
		return errors.New(instruction, errors.KindInvalidAmount).WithField("amount")
	}
	return nil
}

// requireAvailable enforces the amount ≤ available gate shared by withdraw,
// lock, and transfer (§4.2). The boundary behavior at amount = u64::MAX is
// satisfied because this is a plain comparison, never an arithmetic step
// that could overflow (§8: "never Overflow").
func requireAvailable(instruction string, v *Vault, amount uint64) error {
	if amount > v.Available {
		return errors.New(instruction, errors.KindInsufficientAvailable).WithField("amount")
	}
	return nil
}

// requireLocked enforces the amount ≤ locked gate for unlock.
func requireLocked(instruction string, v *Vault, amount uint64) error {
	if amount > v.Locked {
		return errors.New(instruction, errors.KindInsufficientLocked).WithField("amount")
	}
	return nil
}

// requireDistinctVaults enforces transfer's source ≠ destination gate:
// a transfer to the same vault is always rejected (§9 Open Questions).
func requireDistinctVaults(instruction string, source, destination principal.ID) error {
	if source.Equal(destination) {
		return errors.New(instruction, errors.KindSameVault)
	}
	return nil
}
