package custody

import (
	"context"

	"github.com/quorumvault/custody/assettransfer"
	"github.com/quorumvault/custody/custody/events"
	"github.com/quorumvault/custody/errors"
	"github.com/quorumvault/custody/pda"
	"github.com/quorumvault/custody/principal"
)

// Each handler below implements one row of §4.3. All follow the ordering
// §4.3 prescribes: validate, then external call, then update accounting,
// then emit. Nothing is persisted and no event is emitted until every gate
// has passed and (where applicable) the external call has returned nil
// (§4.5: "on any returned error, no field of any account is updated and no
// event is emitted").

// CreateRegistry allocates the singleton registry (§4.3 create_registry).
// caller becomes the immutable admin.
func (e *Engine) CreateRegistry(caller principal.ID) error {
	const instruction = "create_registry"
	var account principal.ID

	return e.dispatch(instruction, &account, func() error {
		if err := e.requireAdminRate(instruction, caller); err != nil {
			return err
		}

		addr, bump, err := e.registryAddress()
		if err != nil {
			return err
		}
		account = addr
		exists, err := e.mgr.Has(RegistryPrefix, addr)
		if err != nil {
			return err
		}
		if exists {
			return errors.New(instruction, errors.KindRegistryAlreadyExists)
		}

		reg := &Registry{
			Admin:     caller,
			Delegates: nil,
			Paused:    false,
			UpdatedAt: e.now(),
			Bump:      bump,
		}
		if err := e.storeRegistry(addr, reg); err != nil {
			return err
		}
		e.emit(events.RegistryCreated{Admin: caller, Registry: addr, Timestamp: reg.UpdatedAt})
		return nil
	})
}

// AddDelegate enrolls delegate in the registry's whitelist (§4.3
// add_delegate). Admin-gated; fails DelegateAlreadyPresent on a duplicate
// (even when the list is full) and DelegateListFull at 10 entries.
func (e *Engine) AddDelegate(caller, delegate principal.ID) error {
	const instruction = "add_delegate"
	var account principal.ID

	return e.dispatch(instruction, &account, func() error {
		if err := e.requireAdminRate(instruction, caller); err != nil {
			return err
		}

		addr, reg, err := e.loadRegistry()
		if err != nil {
			return err
		}
		account = addr
		if err := requireAdmin(instruction, reg, caller); err != nil {
			return err
		}
		if reg.IsDelegate(delegate) {
			return errors.New(instruction, errors.KindDelegateAlreadyPresent)
		}
		if len(reg.Delegates) >= MaxDelegates {
			return errors.New(instruction, errors.KindDelegateListFull)
		}

		next := reg.Clone()
		next.Delegates = append(next.Delegates, delegate)
		next.UpdatedAt = e.now()
		if err := e.storeRegistry(addr, next); err != nil {
			return err
		}
		e.emit(events.DelegateAdded{Registry: addr, Delegate: delegate, Timestamp: next.UpdatedAt})
		return nil
	})
}

// RemoveDelegate revokes delegate from the registry's whitelist (§4.3
// remove_delegate). Admin-gated; fails DelegateNotPresent when absent.
func (e *Engine) RemoveDelegate(caller, delegate principal.ID) error {
	const instruction = "remove_delegate"
	var account principal.ID

	return e.dispatch(instruction, &account, func() error {
		if err := e.requireAdminRate(instruction, caller); err != nil {
			return err
		}

		addr, reg, err := e.loadRegistry()
		if err != nil {
			return err
		}
		account = addr
		if err := requireAdmin(instruction, reg, caller); err != nil {
			return err
		}
		if !reg.IsDelegate(delegate) {
			return errors.New(instruction, errors.KindDelegateNotPresent)
		}

		next := reg.Clone()
		filtered := next.Delegates[:0]
		for _, d := range next.Delegates {
			if !d.Equal(delegate) {
				filtered = append(filtered, d)
			}
		}
		next.Delegates = filtered
		next.UpdatedAt = e.now()
		if err := e.storeRegistry(addr, next); err != nil {
			return err
		}
		e.emit(events.DelegateRemoved{Registry: addr, Delegate: delegate, Timestamp: next.UpdatedAt})
		return nil
	})
}

// SetPaused flips the registry's pause flag (§4.3 set_paused). Admin-gated
// and never itself blocked by the pause flag (§9 Open Questions).
func (e *Engine) SetPaused(caller principal.ID, paused bool) error {
	const instruction = "set_paused"
	var account principal.ID

	return e.dispatch(instruction, &account, func() error {
		if err := e.requireAdminRate(instruction, caller); err != nil {
			return err
		}

		addr, reg, err := e.loadRegistry()
		if err != nil {
			return err
		}
		account = addr
		if err := requireAdmin(instruction, reg, caller); err != nil {
			return err
		}

		next := reg.Clone()
		next.Paused = paused
		next.UpdatedAt = e.now()
		if err := e.storeRegistry(addr, next); err != nil {
			return err
		}
		e.emit(events.PauseToggled{Registry: addr, Paused: paused, Timestamp: next.UpdatedAt})
		return nil
	})
}

// CreateVault allocates a vault and its custody sub-account for caller
// (§4.3 create_vault). Self-service, once per owner; fails
// VaultAlreadyExists on a second call and RegistryNotFound if the registry
// has not yet been created.
func (e *Engine) CreateVault(ctx context.Context, caller, assetMint principal.ID) error {
	const instruction = "create_vault"
	var account principal.ID

	return e.dispatch(instruction, &account, func() error {
		if _, _, err := e.loadRegistry(); err != nil {
			return err
		}

		vaultAddr, bump, err := pda.DeriveVaultAddress(e.ProgramID, caller)
		if err != nil {
			return err
		}
		account = vaultAddr
		exists, err := e.mgr.Has(VaultPrefix, vaultAddr)
		if err != nil {
			return err
		}
		if exists {
			return errors.New(instruction, errors.KindVaultAlreadyExists)
		}

		custodyAccount, _, err := pda.DeriveCustodyAccount(assetMint, vaultAddr)
		if err != nil {
			return err
		}

		v := &Vault{
			Owner:          caller,
			CustodyAccount: custodyAccount,
			CreatedAt:      e.now(),
			Bump:           bump,
		}
		if err := e.storeVault(vaultAddr, v); err != nil {
			return err
		}
		e.emit(events.VaultCreated{Owner: caller, Vault: vaultAddr, Timestamp: v.CreatedAt})
		return nil
	})
}

// Deposit moves amount from caller's asset account into caller's vault
// (§4.3 deposit): validate, invoke the asset-transfer primitive, update
// accounting, emit.
func (e *Engine) Deposit(ctx context.Context, caller, assetAccount principal.ID, amount uint64) error {
	const instruction = "deposit"
	var account principal.ID

	return e.dispatch(instruction, &account, func() error {
		if err := requirePositiveAmount(instruction, amount); err != nil {
			return err
		}
		_, reg, err := e.loadRegistry()
		if err != nil {
			return err
		}
		if err := requireNotPaused(instruction, reg); err != nil {
			return err
		}
		vaultAddr, v, err := e.loadVault(caller)
		if err != nil {
			return err
		}
		account = vaultAddr
		if err := requireOwner(instruction, v, caller); err != nil {
			return err
		}

		call := assettransfer.Call{
			From:      assetAccount,
			To:        v.CustodyAccount,
			Authority: assettransfer.OwnerAuthority(caller),
			Amount:    amount,
		}
		if err := e.bridge.Transfer(ctx, call); err != nil {
			return err
		}

		total, err := checkedAdd(instruction, "total", v.Total, amount)
		if err != nil {
			return err
		}
		available, err := checkedAdd(instruction, "available", v.Available, amount)
		if err != nil {
			return err
		}
		depositedLifetime, err := checkedAdd(instruction, "deposited_lifetime", v.DepositedLifetime, amount)
		if err != nil {
			return err
		}

		v.Total = total
		v.Available = available
		v.DepositedLifetime = depositedLifetime
		if err := e.storeVault(vaultAddr, v); err != nil {
			return err
		}

		ts := e.now()
		e.emit(events.Deposited{Owner: caller, Vault: vaultAddr, Amount: amount, NewTotal: v.Total, Timestamp: ts})
		return nil
	})
}

// Withdraw moves amount out of caller's vault to the owner's asset account
// (§4.3 withdraw), signed by the program replaying the vault's derivation
// seeds and cached bump (§9).
func (e *Engine) Withdraw(ctx context.Context, caller, assetAccount principal.ID, amount uint64) error {
	const instruction = "withdraw"
	var account principal.ID

	return e.dispatch(instruction, &account, func() error {
		if err := requirePositiveAmount(instruction, amount); err != nil {
			return err
		}
		_, reg, err := e.loadRegistry()
		if err != nil {
			return err
		}
		if err := requireNotPaused(instruction, reg); err != nil {
			return err
		}
		vaultAddr, v, err := e.loadVault(caller)
		if err != nil {
			return err
		}
		account = vaultAddr
		if err := requireOwner(instruction, v, caller); err != nil {
			return err
		}
		if err := requireAvailable(instruction, v, amount); err != nil {
			return err
		}

		call := assettransfer.Call{
			From:      v.CustodyAccount,
			To:        assetAccount,
			Authority: assettransfer.ProgramAuthority(caller, v.Bump),
			Amount:    amount,
		}
		if err := e.bridge.Transfer(ctx, call); err != nil {
			return err
		}

		total, err := checkedSub(instruction, "total", v.Total, amount)
		if err != nil {
			return err
		}
		available, err := checkedSub(instruction, "available", v.Available, amount)
		if err != nil {
			return err
		}
		withdrawnLifetime, err := checkedAdd(instruction, "withdrawn_lifetime", v.WithdrawnLifetime, amount)
		if err != nil {
			return err
		}

		v.Total = total
		v.Available = available
		v.WithdrawnLifetime = withdrawnLifetime
		if err := e.storeVault(vaultAddr, v); err != nil {
			return err
		}

		ts := e.now()
		e.emit(events.Withdrawn{Owner: caller, Vault: vaultAddr, Amount: amount, RemainingTotal: v.Total, Timestamp: ts})
		return nil
	})
}

// Lock reserves amount of owner's available balance against an open
// position (§4.3 lock). Purely accounting: no external call. Delegate-gated.
func (e *Engine) Lock(caller, owner principal.ID, amount uint64) error {
	const instruction = "lock"
	var account principal.ID

	return e.dispatch(instruction, &account, func() error {
		if err := requirePositiveAmount(instruction, amount); err != nil {
			return err
		}
		_, reg, err := e.loadRegistry()
		if err != nil {
			return err
		}
		if err := requireNotPaused(instruction, reg); err != nil {
			return err
		}
		if err := requireDelegate(instruction, reg, caller); err != nil {
			return err
		}
		vaultAddr, v, err := e.loadVault(owner)
		if err != nil {
			return err
		}
		account = vaultAddr
		if err := requireAvailable(instruction, v, amount); err != nil {
			return err
		}

		available, err := checkedSub(instruction, "available", v.Available, amount)
		if err != nil {
			return err
		}
		locked, err := checkedAdd(instruction, "locked", v.Locked, amount)
		if err != nil {
			return err
		}

		v.Available = available
		v.Locked = locked
		if err := e.storeVault(vaultAddr, v); err != nil {
			return err
		}

		e.emit(events.Locked{
			Owner: owner, Vault: vaultAddr, Amount: amount,
			NewLocked: v.Locked, NewAvailable: v.Available,
			LockedBy: caller, Timestamp: e.now(),
		})
		return nil
	})
}

// Unlock releases amount of owner's locked balance back to available
// (§4.3 unlock). Purely accounting. Delegate-gated.
func (e *Engine) Unlock(caller, owner principal.ID, amount uint64) error {
	const instruction = "unlock"
	var account principal.ID

	return e.dispatch(instruction, &account, func() error {
		if err := requirePositiveAmount(instruction, amount); err != nil {
			return err
		}
		_, reg, err := e.loadRegistry()
		if err != nil {
			return err
		}
		if err := requireNotPaused(instruction, reg); err != nil {
			return err
		}
		if err := requireDelegate(instruction, reg, caller); err != nil {
			return err
		}
		vaultAddr, v, err := e.loadVault(owner)
		if err != nil {
			return err
		}
		account = vaultAddr
		if err := requireLocked(instruction, v, amount); err != nil {
			return err
		}

		locked, err := checkedSub(instruction, "locked", v.Locked, amount)
		if err != nil {
			return err
		}
		available, err := checkedAdd(instruction, "available", v.Available, amount)
		if err != nil {
			return err
		}

		v.Locked = locked
		v.Available = available
		if err := e.storeVault(vaultAddr, v); err != nil {
			return err
		}

		e.emit(events.Unlocked{
			Owner: owner, Vault: vaultAddr, Amount: amount,
			NewLocked: v.Locked, NewAvailable: v.Available,
			UnlockedBy: caller, Timestamp: e.now(),
		})
		return nil
	})
}

// Transfer moves amount from the source vault to the destination vault
// (§4.3 transfer), signed by the program replaying the source vault's
// derivation seeds. Delegate-gated; reason is opaque bookkeeping carried
// only in the emitted event (§9 Polymorphism).
func (e *Engine) Transfer(ctx context.Context, caller, sourceOwner, destOwner principal.ID, amount uint64, reason events.TransferReason) error {
	const instruction = "transfer"
	var account principal.ID

	return e.dispatch(instruction, &account, func() error {
		if err := requirePositiveAmount(instruction, amount); err != nil {
			return err
		}
		if !reason.Valid() {
			return errors.New(instruction, errors.KindInvalidAccountLayout).WithField("reason")
		}
		_, reg, err := e.loadRegistry()
		if err != nil {
			return err
		}
		if err := requireNotPaused(instruction, reg); err != nil {
			return err
		}
		if err := requireDelegate(instruction, reg, caller); err != nil {
			return err
		}

		sourceAddr, source, err := e.loadVault(sourceOwner)
		if err != nil {
			return err
		}
		account = sourceAddr
		destAddr, dest, err := e.loadVault(destOwner)
		if err != nil {
			return err
		}
		if err := requireDistinctVaults(instruction, sourceAddr, destAddr); err != nil {
			return err
		}
		if err := requireAvailable(instruction, source, amount); err != nil {
			return err
		}

		call := assettransfer.Call{
			From:      source.CustodyAccount,
			To:        dest.CustodyAccount,
			Authority: assettransfer.ProgramAuthority(sourceOwner, source.Bump),
			Amount:    amount,
		}
		if err := e.bridge.Transfer(ctx, call); err != nil {
			return err
		}

		sourceAvailable, err := checkedSub(instruction, "source.available", source.Available, amount)
		if err != nil {
			return err
		}
		sourceTotal, err := checkedSub(instruction, "source.total", source.Total, amount)
		if err != nil {
			return err
		}
		sourceWithdrawnLifetime, err := checkedAdd(instruction, "source.withdrawn_lifetime", source.WithdrawnLifetime, amount)
		if err != nil {
			return err
		}
		destTotal, err := checkedAdd(instruction, "destination.total", dest.Total, amount)
		if err != nil {
			return err
		}
		destAvailable, err := checkedAdd(instruction, "destination.available", dest.Available, amount)
		if err != nil {
			return err
		}
		destDepositedLifetime, err := checkedAdd(instruction, "destination.deposited_lifetime", dest.DepositedLifetime, amount)
		if err != nil {
			return err
		}

		source.Available = sourceAvailable
		source.Total = sourceTotal
		source.WithdrawnLifetime = sourceWithdrawnLifetime
		dest.Total = destTotal
		dest.Available = destAvailable
		dest.DepositedLifetime = destDepositedLifetime

		if err := e.storeVault(sourceAddr, source); err != nil {
			return err
		}
		if err := e.storeVault(destAddr, dest); err != nil {
			return err
		}

		e.emit(events.Transferred{
			Source: sourceAddr, Destination: destAddr, Amount: amount,
			Reason: reason, Timestamp: e.now(),
		})
		return nil
	})
}
