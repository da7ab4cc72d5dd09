// Package assettransfer defines the boundary between the custody core and
// the underlying ledger runtime's asset-movement primitive. The primitive
// itself lives outside this repository; Bridge specifies only the calls
// the core makes into it, generalized to the three call shapes
// deposit/withdraw/transfer need (§4.3).
package assettransfer

import (
	"context"
	"fmt"

	"github.com/quorumvault/custody/principal"
)

// Call describes one invocation of the external asset-transfer primitive
// (§4.3 steps 2 in deposit/withdraw, step 4 in transfer). From/To are asset
// accounts, not vaults; Authority is the signing witness — either the
// owner's own signature (deposit) or a program-derived signature replaying
// the vault's seeds and bump (withdraw, transfer; §9 "No private key for
// vault addresses").
type Call struct {
	From      principal.ID
	To        principal.ID
	Authority Authority
	Amount    uint64
}

// Authority identifies who or what signs a Call. Exactly one of Owner or
// the ProgramSigned fields is meaningful, mirroring the two witness shapes
// §4.3 describes.
type Authority struct {
	// Owner signs directly; used by deposit.
	Owner principal.ID
	// ProgramSigned is true when the program signs by replaying derivation
	// seeds rather than a held private key; used by withdraw and transfer.
	ProgramSigned bool
	// VaultOwner and Bump are the seed components replayed when
	// ProgramSigned is true ("vault" || owner || bump, §9).
	VaultOwner principal.ID
	Bump       uint8
}

// OwnerAuthority builds the witness for a deposit, signed by the owner.
func OwnerAuthority(owner principal.ID) Authority {
	return Authority{Owner: owner}
}

// ProgramAuthority builds the witness for a withdraw or transfer, signed by
// the program replaying the vault's derivation seeds.
func ProgramAuthority(vaultOwner principal.ID, bump uint8) Authority {
	return Authority{ProgramSigned: true, VaultOwner: vaultOwner, Bump: bump}
}

// Bridge issues a signed asset-movement call on behalf of a vault's derived
// address (§2.7, component 7). Implementations live in the ledger runtime
// this module does not own; NullBridge and RecordingBridge below exist only
// to exercise the instruction handlers without a real runtime attached.
type Bridge interface {
	Transfer(ctx context.Context, call Call) error
}

// NullBridge accepts every call unconditionally. It is the default bridge
// for environments that have not wired a real asset-transfer primitive.
type NullBridge struct{}

// Transfer implements Bridge by always succeeding.
func (NullBridge) Transfer(context.Context, Call) error { return nil }

// RecordingBridge captures every call it is asked to make, in order, for
// tests that assert on exactly what the core attempted to move (§8
// end-to-end scenarios assert on both accounting state and the external
// debit/credit). FailNext, when set, is returned (and cleared) by the next
// Transfer call, letting a test exercise the "external call fails, no
// accounting persists" ordering guarantee of §4.3.
type RecordingBridge struct {
	Calls    []Call
	FailNext error
}

// NewRecordingBridge constructs an empty RecordingBridge.
func NewRecordingBridge() *RecordingBridge {
	return &RecordingBridge{}
}

// Transfer implements Bridge, recording call and optionally failing once.
func (b *RecordingBridge) Transfer(_ context.Context, call Call) error {
	if b.FailNext != nil {
		err := b.FailNext
		b.FailNext = nil
		return err
	}
	b.Calls = append(b.Calls, call)
	return nil
}

// ErrTransferFailed is a generic sentinel a test can assign to FailNext.
var ErrTransferFailed = fmt.Errorf("assettransfer: transfer failed")
