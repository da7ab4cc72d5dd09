package events

import "github.com/quorumvault/custody/principal"

const (
	// TypeRegistryCreated is emitted once, on create_registry.
	TypeRegistryCreated = "custody.registry_created"
	// TypeVaultCreated is emitted once per owner, on create_vault.
	TypeVaultCreated = "custody.vault_created"
	// TypeDelegateAdded is emitted on add_delegate.
	TypeDelegateAdded = "custody.delegate_added"
	// TypeDelegateRemoved is emitted on remove_delegate.
	TypeDelegateRemoved = "custody.delegate_removed"
	// TypePauseToggled is emitted on set_paused.
	TypePauseToggled = "custody.pause_toggled"
)

// RegistryCreated records the singleton registry's creation.
type RegistryCreated struct {
	Admin     principal.ID
	Registry  principal.ID
	Timestamp int64
}

func (RegistryCreated) EventType() string { return TypeRegistryCreated }

func (e RegistryCreated) Record() Record {
	return Record{
		Type: TypeRegistryCreated,
		Attributes: map[string]string{
			"admin":     e.Admin.String(principal.UserPrefix),
			"registry":  e.Registry.String(principal.RegistryPrefix),
			"timestamp": formatTimestamp(e.Timestamp),
		},
	}
}

// VaultCreated records a new vault's allocation.
type VaultCreated struct {
	Owner     principal.ID
	Vault     principal.ID
	Timestamp int64
}

func (VaultCreated) EventType() string { return TypeVaultCreated }

func (e VaultCreated) Record() Record {
	return Record{
		Type: TypeVaultCreated,
		Attributes: map[string]string{
			"owner":     e.Owner.String(principal.UserPrefix),
			"vault":     e.Vault.String(principal.VaultPrefix),
			"timestamp": formatTimestamp(e.Timestamp),
		},
	}
}

// DelegateAdded records an admin enrolling a delegate.
type DelegateAdded struct {
	Registry  principal.ID
	Delegate  principal.ID
	Timestamp int64
}

func (DelegateAdded) EventType() string { return TypeDelegateAdded }

func (e DelegateAdded) Record() Record {
	return Record{
		Type: TypeDelegateAdded,
		Attributes: map[string]string{
			"registry":  e.Registry.String(principal.RegistryPrefix),
			"delegate":  e.Delegate.String(principal.UserPrefix),
			"timestamp": formatTimestamp(e.Timestamp),
		},
	}
}

// DelegateRemoved records an admin revoking a delegate.
type DelegateRemoved struct {
	Registry  principal.ID
	Delegate  principal.ID
	Timestamp int64
}

func (DelegateRemoved) EventType() string { return TypeDelegateRemoved }

func (e DelegateRemoved) Record() Record {
	return Record{
		Type: TypeDelegateRemoved,
		Attributes: map[string]string{
			"registry":  e.Registry.String(principal.RegistryPrefix),
			"delegate":  e.Delegate.String(principal.UserPrefix),
			"timestamp": formatTimestamp(e.Timestamp),
		},
	}
}

// PauseToggled records an admin flipping the registry's pause flag.
type PauseToggled struct {
	Registry  principal.ID
	Paused    bool
	Timestamp int64
}

func (PauseToggled) EventType() string { return TypePauseToggled }

func (e PauseToggled) Record() Record {
	return Record{
		Type: TypePauseToggled,
		Attributes: map[string]string{
			"registry":  e.Registry.String(principal.RegistryPrefix),
			"paused":    boolString(e.Paused),
			"timestamp": formatTimestamp(e.Timestamp),
		},
	}
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
