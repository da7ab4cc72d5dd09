// Package errors enumerates the stable failure kinds returned by every
// custody instruction. The ordinal of each Kind is part of the external
// interface: downstream indexers and callers key on it, so new kinds must
// only ever be appended.
package errors

import "fmt"

// Kind is the stable, ordinal-identified failure category for an
// instruction. Its numeric value must never be reordered once released.
type Kind uint8

const (
	// KindInvalidAmount is raised when amount == 0 on any amount-taking instruction.
	KindInvalidAmount Kind = iota
	// KindInvalidAssetMint is raised when a provided asset account is of the wrong asset.
	KindInvalidAssetMint
	// KindInsufficientAvailable is raised when available < amount on withdraw/lock/transfer.
	KindInsufficientAvailable
	// KindInsufficientLocked is raised when locked < amount on unlock.
	KindInsufficientLocked
	// KindUnauthorized is raised when an owner-gated call has the wrong signer.
	KindUnauthorized
	// KindUnauthorizedDelegate is raised when a delegate-gated call's signer is not in the registry.
	KindUnauthorizedDelegate
	// KindNotAdmin is raised when an admin-gated call has a non-admin signer.
	KindNotAdmin
	// KindVaultAlreadyExists is raised when create_vault targets an occupied address.
	KindVaultAlreadyExists
	// KindVaultNotFound is raised when a vault account is missing on a call requiring it.
	KindVaultNotFound
	// KindRegistryAlreadyExists is raised when create_registry is called after the registry exists.
	KindRegistryAlreadyExists
	// KindRegistryNotFound is raised when a registry-dependent call runs before the registry exists.
	KindRegistryNotFound
	// KindPaused is raised when a balance-mutating call runs while paused == true.
	KindPaused
	// KindDelegateListFull is raised when add_delegate runs with |delegates| == 10.
	KindDelegateListFull
	// KindDelegateAlreadyPresent is raised when add_delegate targets an existing entry.
	KindDelegateAlreadyPresent
	// KindDelegateNotPresent is raised when remove_delegate targets an absent entry.
	KindDelegateNotPresent
	// KindSameVault is raised when transfer's source and destination are identical.
	KindSameVault
	// KindOverflow is raised when a checked addition would exceed the 64-bit range.
	KindOverflow
	// KindUnderflow is raised when a checked subtraction would go below zero.
	KindUnderflow
	// KindInvalidAccountLayout is raised when an instruction's inputs diverge from the fixed layout, e.g. a transfer reason tag outside {0,1,2}.
	KindInvalidAccountLayout
	// KindRateLimited is raised when a caller exceeds the admin surface's configured rate limit.
	KindRateLimited
)

var kindNames = [...]string{
	KindInvalidAmount:          "InvalidAmount",
	KindInvalidAssetMint:       "InvalidAssetMint",
	KindInsufficientAvailable:  "InsufficientAvailable",
	KindInsufficientLocked:     "InsufficientLocked",
	KindUnauthorized:           "Unauthorized",
	KindUnauthorizedDelegate:   "UnauthorizedDelegate",
	KindNotAdmin:               "NotAdmin",
	KindVaultAlreadyExists:     "VaultAlreadyExists",
	KindVaultNotFound:          "VaultNotFound",
	KindRegistryAlreadyExists:  "RegistryAlreadyExists",
	KindRegistryNotFound:       "RegistryNotFound",
	KindPaused:                 "Paused",
	KindDelegateListFull:       "DelegateListFull",
	KindDelegateAlreadyPresent: "DelegateAlreadyPresent",
	KindDelegateNotPresent:     "DelegateNotPresent",
	KindSameVault:              "SameVault",
	KindOverflow:               "Overflow",
	KindUnderflow:              "Underflow",
	KindInvalidAccountLayout:   "InvalidAccountLayout",
	KindRateLimited:            "RateLimited",
}

// String renders the kind's stable name, e.g. "InsufficientAvailable".
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Error is the value an instruction handler returns when one of its gates or
// checked-arithmetic steps fails, so callers can branch on Kind without
// string matching. Errors from the asset-transfer bridge, storage, or record
// decoding are returned unwrapped, as they come.
type Error struct {
	Kind        Kind
	Instruction string
	Field       string
}

// New constructs an Error for the given instruction and kind.
func New(instruction string, kind Kind) *Error {
	return &Error{Instruction: instruction, Kind: kind}
}

// WithField attaches the offending field name and returns the same error for
// chaining at the call site, e.g. errors.New("unlock", KindInsufficientLocked).WithField("amount").
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Instruction, e.Kind, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Instruction, e.Kind)
}

// Is allows errors.Is(err, errors.New(instr, kind)) style comparisons to
// succeed on Kind equality alone, independent of Instruction/Field.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}
