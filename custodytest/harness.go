// Package custodytest provides a shared in-memory harness for exercising
// the custody engine without a running ledger: a fresh in-memory state
// manager and recording collaborators wired per test. A non-ledger
// implementation must serialize per-account writes with a write lock
// spanning the external-transfer segment; Harness provides that lock so
// concurrent tests can share one instance safely.
package custodytest

import (
	"sync"

	"github.com/quorumvault/custody/assettransfer"
	"github.com/quorumvault/custody/custody"
	"github.com/quorumvault/custody/indexer"
	"github.com/quorumvault/custody/pda"
	"github.com/quorumvault/custody/principal"
	"github.com/quorumvault/custody/state"
	"github.com/quorumvault/custody/storage"
)

// Harness bundles a fresh Engine with its in-memory storage, a recording
// asset-transfer bridge, and a recording event sink, plus the write lock
// §9 ("Concurrency model portability") requires a non-ledger implementation
// to hold across an instruction's full duration.
type Harness struct {
	ProgramID principal.ID
	Engine    *custody.Engine
	Bridge    *assettransfer.RecordingBridge
	Sink      *indexer.RecordingSink

	writeMu sync.Mutex
	clockMu sync.Mutex
	now     int64
}

// New constructs a Harness with a fixed program identifier, a stepping
// clock that starts at baseTime, and fresh in-memory collaborators.
func New(programID principal.ID, baseTime int64) *Harness {
	h := &Harness{
		ProgramID: programID,
		Bridge:    assettransfer.NewRecordingBridge(),
		Sink:      indexer.NewRecordingSink(),
		now:       baseTime,
	}
	mgr := state.NewManager(storage.NewMemDB())
	h.Engine = custody.NewEngine(programID, mgr, h.Bridge, h.Sink, h.Clock)
	return h
}

// Clock returns the harness's current logical time and advances it by one,
// giving successive instructions distinct, monotonically increasing
// timestamps without depending on the wall clock.
func (h *Harness) Clock() int64 {
	h.clockMu.Lock()
	defer h.clockMu.Unlock()
	t := h.now
	h.now++
	return t
}

// Lock acquires the harness's write lock, emulating the runtime's
// per-account-set serialization (§5, §9 "Concurrency model portability")
// for the full duration of one instruction invocation, including its
// external-transfer segment. It is independent of the clock's own lock, so
// a caller holding Lock can still invoke an instruction that reads Clock.
func (h *Harness) Lock() {
	h.writeMu.Lock()
}

// Unlock releases the lock acquired by Lock.
func (h *Harness) Unlock() {
	h.writeMu.Unlock()
}

// VaultAddress derives the vault address for owner under the harness's
// program identifier, a convenience for assertions in tests.
func (h *Harness) VaultAddress(owner principal.ID) principal.ID {
	addr, _, err := pda.DeriveVaultAddress(h.ProgramID, owner)
	if err != nil {
		panic(err)
	}
	return addr
}

// RegistryAddress derives the singleton registry address under the
// harness's program identifier.
func (h *Harness) RegistryAddress() principal.ID {
	addr, _, err := pda.DeriveRegistryAddress(h.ProgramID)
	if err != nil {
		panic(err)
	}
	return addr
}

// NewPrincipal derives a deterministic, distinct principal.ID from seed,
// for use by tests that need several distinct owners/delegates without
// minting real key material.
func NewPrincipal(seed string) principal.ID {
	addr, _, err := pda.DeriveCustodyAccount(principal.Zero, seedPrincipal(seed))
	if err != nil {
		panic(err)
	}
	return addr
}

func seedPrincipal(seed string) principal.ID {
	var id principal.ID
	copy(id[:], seed)
	return id
}
