package events

import "github.com/quorumvault/custody/principal"

const (
	// TypeDeposited is emitted after a successful deposit (§4.3).
	TypeDeposited = "custody.deposited"
	// TypeWithdrawn is emitted after a successful withdraw (§4.3).
	TypeWithdrawn = "custody.withdrawn"
	// TypeLocked is emitted after a successful lock (§4.3).
	TypeLocked = "custody.locked"
	// TypeUnlocked is emitted after a successful unlock (§4.3).
	TypeUnlocked = "custody.unlocked"
	// TypeTransferred is emitted after a successful inter-vault transfer (§4.3).
	TypeTransferred = "custody.transferred"
)

// Deposited records a successful deposit.
type Deposited struct {
	Owner     principal.ID
	Vault     principal.ID
	Amount    uint64
	NewTotal  uint64
	Timestamp int64
}

func (Deposited) EventType() string { return TypeDeposited }

func (e Deposited) Record() Record {
	return Record{
		Type: TypeDeposited,
		Attributes: map[string]string{
			"owner":     e.Owner.String(principal.UserPrefix),
			"vault":     e.Vault.String(principal.VaultPrefix),
			"amount":    formatAmount(e.Amount),
			"newTotal":  formatAmount(e.NewTotal),
			"timestamp": formatTimestamp(e.Timestamp),
		},
	}
}

// Withdrawn records a successful withdrawal.
type Withdrawn struct {
	Owner          principal.ID
	Vault          principal.ID
	Amount         uint64
	RemainingTotal uint64
	Timestamp      int64
}

func (Withdrawn) EventType() string { return TypeWithdrawn }

func (e Withdrawn) Record() Record {
	return Record{
		Type: TypeWithdrawn,
		Attributes: map[string]string{
			"owner":          e.Owner.String(principal.UserPrefix),
			"vault":          e.Vault.String(principal.VaultPrefix),
			"amount":         formatAmount(e.Amount),
			"remainingTotal": formatAmount(e.RemainingTotal),
			"timestamp":      formatTimestamp(e.Timestamp),
		},
	}
}

// Locked records a successful lock, accounting-only (no external call).
type Locked struct {
	Owner        principal.ID
	Vault        principal.ID
	Amount       uint64
	NewLocked    uint64
	NewAvailable uint64
	LockedBy     principal.ID
	Timestamp    int64
}

func (Locked) EventType() string { return TypeLocked }

func (e Locked) Record() Record {
	return Record{
		Type: TypeLocked,
		Attributes: map[string]string{
			"owner":        e.Owner.String(principal.UserPrefix),
			"vault":        e.Vault.String(principal.VaultPrefix),
			"amount":       formatAmount(e.Amount),
			"newLocked":    formatAmount(e.NewLocked),
			"newAvailable": formatAmount(e.NewAvailable),
			"lockedBy":     e.LockedBy.String(principal.UserPrefix),
			"timestamp":    formatTimestamp(e.Timestamp),
		},
	}
}

// Unlocked records a successful unlock, accounting-only (no external call).
type Unlocked struct {
	Owner        principal.ID
	Vault        principal.ID
	Amount       uint64
	NewLocked    uint64
	NewAvailable uint64
	UnlockedBy   principal.ID
	Timestamp    int64
}

func (Unlocked) EventType() string { return TypeUnlocked }

func (e Unlocked) Record() Record {
	return Record{
		Type: TypeUnlocked,
		Attributes: map[string]string{
			"owner":        e.Owner.String(principal.UserPrefix),
			"vault":        e.Vault.String(principal.VaultPrefix),
			"amount":       formatAmount(e.Amount),
			"newLocked":    formatAmount(e.NewLocked),
			"newAvailable": formatAmount(e.NewAvailable),
			"unlockedBy":   e.UnlockedBy.String(principal.UserPrefix),
			"timestamp":    formatTimestamp(e.Timestamp),
		},
	}
}

// Transferred records a successful inter-vault transfer (§4.3).
type Transferred struct {
	Source      principal.ID
	Destination principal.ID
	Amount      uint64
	Reason      TransferReason
	Timestamp   int64
}

func (Transferred) EventType() string { return TypeTransferred }

func (e Transferred) Record() Record {
	return Record{
		Type: TypeTransferred,
		Attributes: map[string]string{
			"source":      e.Source.String(principal.VaultPrefix),
			"destination": e.Destination.String(principal.VaultPrefix),
			"amount":      formatAmount(e.Amount),
			"reason":      e.Reason.String(),
			"timestamp":   formatTimestamp(e.Timestamp),
		},
	}
}
