package custody_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	stderrors "errors"

	"github.com/quorumvault/custody/assettransfer"
	"github.com/quorumvault/custody/custody/events"
	"github.com/quorumvault/custody/custodytest"
	"github.com/quorumvault/custody/errors"
	"github.com/quorumvault/custody/principal"
)

var programID = custodytest.NewPrincipal("program")

func newHarness(t *testing.T) *custodytest.Harness {
	t.Helper()
	return custodytest.New(programID, 1000)
}

func bootstrap(t *testing.T, h *custodytest.Harness, admin principal.ID) {
	t.Helper()
	require.NoError(t, h.Engine.CreateRegistry(admin))
}

func requireKind(t *testing.T, err error, kind errors.Kind) {
	t.Helper()
	require.Error(t, err)
	require.True(t, stderrors.Is(err, errors.New("", kind)), "expected kind %s, got %v", kind, err)
}

func TestCreateRegistryIdempotency(t *testing.T) {
	h := newHarness(t)
	admin := custodytest.NewPrincipal("admin")
	require.NoError(t, h.Engine.CreateRegistry(admin))

	err := h.Engine.CreateRegistry(admin)
	requireKind(t, err, errors.KindRegistryAlreadyExists)
}

func TestCreateVaultRequiresRegistry(t *testing.T) {
	h := newHarness(t)
	owner := custodytest.NewPrincipal("owner")
	mint := custodytest.NewPrincipal("mint")

	err := h.Engine.CreateVault(context.Background(), owner, mint)
	requireKind(t, err, errors.KindRegistryNotFound)
}

func TestCreateVaultAlreadyExists(t *testing.T) {
	h := newHarness(t)
	admin := custodytest.NewPrincipal("admin")
	owner := custodytest.NewPrincipal("owner")
	mint := custodytest.NewPrincipal("mint")
	bootstrap(t, h, admin)

	require.NoError(t, h.Engine.CreateVault(context.Background(), owner, mint))
	err := h.Engine.CreateVault(context.Background(), owner, mint)
	requireKind(t, err, errors.KindVaultAlreadyExists)
}

func TestAddDelegateBoundaries(t *testing.T) {
	h := newHarness(t)
	admin := custodytest.NewPrincipal("admin")
	bootstrap(t, h, admin)

	notAdmin := custodytest.NewPrincipal("not-admin")
	err := h.Engine.AddDelegate(notAdmin, custodytest.NewPrincipal("d0"))
	requireKind(t, err, errors.KindNotAdmin)

	for i := 0; i < 10; i++ {
		d := custodytest.NewPrincipal("delegate-" + string(rune('a'+i)))
		require.NoError(t, h.Engine.AddDelegate(admin, d))
	}

	eleventh := custodytest.NewPrincipal("delegate-eleventh")
	err = h.Engine.AddDelegate(admin, eleventh)
	requireKind(t, err, errors.KindDelegateListFull)

	first := custodytest.NewPrincipal("delegate-a")
	err = h.Engine.AddDelegate(admin, first)
	requireKind(t, err, errors.KindDelegateAlreadyPresent)
}

func TestRemoveDelegateNotPresent(t *testing.T) {
	h := newHarness(t)
	admin := custodytest.NewPrincipal("admin")
	bootstrap(t, h, admin)

	err := h.Engine.RemoveDelegate(admin, custodytest.NewPrincipal("ghost"))
	requireKind(t, err, errors.KindDelegateNotPresent)
}

func TestAmountZeroRejectedOnEveryAmountInstruction(t *testing.T) {
	h := newHarness(t)
	admin := custodytest.NewPrincipal("admin")
	owner := custodytest.NewPrincipal("owner")
	delegate := custodytest.NewPrincipal("delegate")
	mint := custodytest.NewPrincipal("mint")
	bootstrap(t, h, admin)
	require.NoError(t, h.Engine.AddDelegate(admin, delegate))
	require.NoError(t, h.Engine.CreateVault(context.Background(), owner, mint))

	ctx := context.Background()
	requireKind(t, h.Engine.Deposit(ctx, owner, mint, 0), errors.KindInvalidAmount)
	requireKind(t, h.Engine.Withdraw(ctx, owner, mint, 0), errors.KindInvalidAmount)
	requireKind(t, h.Engine.Lock(delegate, owner, 0), errors.KindInvalidAmount)
	requireKind(t, h.Engine.Unlock(delegate, owner, 0), errors.KindInvalidAmount)

	other := custodytest.NewPrincipal("other")
	require.NoError(t, h.Engine.CreateVault(ctx, other, mint))
	requireKind(t, h.Engine.Transfer(ctx, delegate, owner, other, 0, events.ReasonSettlement), errors.KindInvalidAmount)
}

func TestWithdrawMaxUint64InsufficientNotOverflow(t *testing.T) {
	h := newHarness(t)
	admin := custodytest.NewPrincipal("admin")
	owner := custodytest.NewPrincipal("owner")
	mint := custodytest.NewPrincipal("mint")
	bootstrap(t, h, admin)
	require.NoError(t, h.Engine.CreateVault(context.Background(), owner, mint))

	err := h.Engine.Withdraw(context.Background(), owner, mint, ^uint64(0))
	requireKind(t, err, errors.KindInsufficientAvailable)
}

// Scenario 1: fresh deposit (§8).
func TestScenarioFreshDeposit(t *testing.T) {
	h := newHarness(t)
	admin := custodytest.NewPrincipal("admin")
	owner := custodytest.NewPrincipal("U")
	mint := custodytest.NewPrincipal("mint")
	assetAccount := custodytest.NewPrincipal("U-asset")
	bootstrap(t, h, admin)
	require.NoError(t, h.Engine.CreateVault(context.Background(), owner, mint))

	require.NoError(t, h.Engine.Deposit(context.Background(), owner, assetAccount, 100_000_000))

	v, err := h.Engine.VaultByOwner(owner)
	require.NoError(t, err)

	require.Equal(t, uint64(100_000_000), v.Total)
	require.Equal(t, uint64(0), v.Locked)
	require.Equal(t, uint64(100_000_000), v.Available)
	require.Equal(t, uint64(100_000_000), v.DepositedLifetime)

	require.Len(t, h.Bridge.Calls, 1)
	require.Equal(t, uint64(100_000_000), h.Bridge.Calls[0].Amount)

	require.Len(t, h.Sink.Records, 3) // RegistryCreated + VaultCreated + Deposited
	require.Equal(t, events.TypeDeposited, h.Sink.Records[2].Type)
}

// Scenario 2: lock then withdraw-rejection, corrected per §8.
func TestScenarioLockThenWithdraw(t *testing.T) {
	h := newHarness(t)
	admin := custodytest.NewPrincipal("admin")
	owner := custodytest.NewPrincipal("U")
	delegate := custodytest.NewPrincipal("delegate")
	mint := custodytest.NewPrincipal("mint")
	assetAccount := custodytest.NewPrincipal("U-asset")
	ctx := context.Background()
	bootstrap(t, h, admin)
	require.NoError(t, h.Engine.AddDelegate(admin, delegate))
	require.NoError(t, h.Engine.CreateVault(ctx, owner, mint))
	require.NoError(t, h.Engine.Deposit(ctx, owner, assetAccount, 100_000_000))

	require.NoError(t, h.Engine.Lock(delegate, owner, 60_000_000))

	err := h.Engine.Withdraw(ctx, owner, assetAccount, 50_000_000)
	requireKind(t, err, errors.KindInsufficientAvailable)

	require.NoError(t, h.Engine.Withdraw(ctx, owner, assetAccount, 40_000_000))

	v, err := h.Engine.VaultByOwner(owner)
	require.NoError(t, err)

	require.Equal(t, uint64(60_000_000), v.Total)
	require.Equal(t, uint64(60_000_000), v.Locked)
	require.Equal(t, uint64(0), v.Available)
	require.Equal(t, uint64(100_000_000), v.DepositedLifetime)
	require.Equal(t, uint64(40_000_000), v.WithdrawnLifetime)
}

// Scenario 3: unlock overshoot.
func TestScenarioUnlockOvershoot(t *testing.T) {
	h := newHarness(t)
	admin := custodytest.NewPrincipal("admin")
	owner := custodytest.NewPrincipal("U")
	delegate := custodytest.NewPrincipal("delegate")
	mint := custodytest.NewPrincipal("mint")
	assetAccount := custodytest.NewPrincipal("U-asset")
	ctx := context.Background()
	bootstrap(t, h, admin)
	require.NoError(t, h.Engine.AddDelegate(admin, delegate))
	require.NoError(t, h.Engine.CreateVault(ctx, owner, mint))
	require.NoError(t, h.Engine.Deposit(ctx, owner, assetAccount, 100_000_000))
	require.NoError(t, h.Engine.Lock(delegate, owner, 60_000_000))
	require.NoError(t, h.Engine.Withdraw(ctx, owner, assetAccount, 40_000_000))

	before, err := h.Engine.VaultByOwner(owner)
	require.NoError(t, err)

	err = h.Engine.Unlock(delegate, owner, 60_000_001)
	requireKind(t, err, errors.KindInsufficientLocked)

	after, err := h.Engine.VaultByOwner(owner)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

// Scenario 4: inter-vault transfer.
func TestScenarioInterVaultTransfer(t *testing.T) {
	h := newHarness(t)
	admin := custodytest.NewPrincipal("admin")
	u := custodytest.NewPrincipal("U")
	v := custodytest.NewPrincipal("V")
	delegate := custodytest.NewPrincipal("delegate")
	mint := custodytest.NewPrincipal("mint")
	uAsset := custodytest.NewPrincipal("U-asset")
	ctx := context.Background()
	bootstrap(t, h, admin)
	require.NoError(t, h.Engine.AddDelegate(admin, delegate))
	require.NoError(t, h.Engine.CreateVault(ctx, u, mint))
	require.NoError(t, h.Engine.CreateVault(ctx, v, mint))
	require.NoError(t, h.Engine.Deposit(ctx, u, uAsset, 500_000_000))

	require.NoError(t, h.Engine.Transfer(ctx, delegate, u, v, 120_000_000, events.ReasonSettlement))

	uVault, err := h.Engine.VaultByOwner(u)
	require.NoError(t, err)
	vVault, err := h.Engine.VaultByOwner(v)
	require.NoError(t, err)

	require.Equal(t, uint64(380_000_000), uVault.Total)
	require.Equal(t, uint64(380_000_000), uVault.Available)
	require.Equal(t, uint64(120_000_000), uVault.WithdrawnLifetime)

	require.Equal(t, uint64(120_000_000), vVault.Total)
	require.Equal(t, uint64(120_000_000), vVault.Available)
	require.Equal(t, uint64(120_000_000), vVault.DepositedLifetime)

	last := h.Sink.Records[len(h.Sink.Records)-1]
	require.Equal(t, events.TypeTransferred, last.Type)
	require.Equal(t, "settlement", last.Attributes["reason"])
}

func TestTransferRejectsSameVault(t *testing.T) {
	h := newHarness(t)
	admin := custodytest.NewPrincipal("admin")
	owner := custodytest.NewPrincipal("U")
	delegate := custodytest.NewPrincipal("delegate")
	mint := custodytest.NewPrincipal("mint")
	ctx := context.Background()
	bootstrap(t, h, admin)
	require.NoError(t, h.Engine.AddDelegate(admin, delegate))
	require.NoError(t, h.Engine.CreateVault(ctx, owner, mint))

	err := h.Engine.Transfer(ctx, delegate, owner, owner, 1, events.ReasonFee)
	requireKind(t, err, errors.KindSameVault)
}

// Scenario 5: pause gate.
func TestScenarioPauseGate(t *testing.T) {
	h := newHarness(t)
	admin := custodytest.NewPrincipal("admin")
	owner := custodytest.NewPrincipal("U")
	mint := custodytest.NewPrincipal("mint")
	assetAccount := custodytest.NewPrincipal("U-asset")
	ctx := context.Background()
	bootstrap(t, h, admin)
	require.NoError(t, h.Engine.CreateVault(ctx, owner, mint))

	require.NoError(t, h.Engine.SetPaused(admin, true))
	err := h.Engine.Deposit(ctx, owner, assetAccount, 1)
	requireKind(t, err, errors.KindPaused)

	require.NoError(t, h.Engine.SetPaused(admin, false))
	require.NoError(t, h.Engine.Deposit(ctx, owner, assetAccount, 1))
}

func TestAdminOpsNotBlockedByPause(t *testing.T) {
	h := newHarness(t)
	admin := custodytest.NewPrincipal("admin")
	bootstrap(t, h, admin)

	require.NoError(t, h.Engine.SetPaused(admin, true))
	// Admin operations remain callable while paused (§9 Open Questions).
	require.NoError(t, h.Engine.AddDelegate(admin, custodytest.NewPrincipal("d")))
}

// Scenario 6: non-delegate lock attempt.
func TestScenarioNonDelegateLockAttempt(t *testing.T) {
	h := newHarness(t)
	admin := custodytest.NewPrincipal("admin")
	owner := custodytest.NewPrincipal("U")
	mint := custodytest.NewPrincipal("mint")
	ctx := context.Background()
	bootstrap(t, h, admin)
	require.NoError(t, h.Engine.CreateVault(ctx, owner, mint))

	before, err := h.Engine.VaultByOwner(owner)
	require.NoError(t, err)

	notDelegate := custodytest.NewPrincipal("stranger")
	lockErr := h.Engine.Lock(notDelegate, owner, 1)
	requireKind(t, lockErr, errors.KindUnauthorizedDelegate)

	after, err := h.Engine.VaultByOwner(owner)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

// L1: deposit(a); withdraw(a) round trip.
func TestRoundTripDepositWithdraw(t *testing.T) {
	h := newHarness(t)
	admin := custodytest.NewPrincipal("admin")
	owner := custodytest.NewPrincipal("U")
	mint := custodytest.NewPrincipal("mint")
	assetAccount := custodytest.NewPrincipal("U-asset")
	ctx := context.Background()
	bootstrap(t, h, admin)
	require.NoError(t, h.Engine.CreateVault(ctx, owner, mint))

	before, err := h.Engine.VaultByOwner(owner)
	require.NoError(t, err)

	const a = 77_000_000
	require.NoError(t, h.Engine.Deposit(ctx, owner, assetAccount, a))
	require.NoError(t, h.Engine.Withdraw(ctx, owner, assetAccount, a))

	after, err := h.Engine.VaultByOwner(owner)
	require.NoError(t, err)
	require.Equal(t, before.Total, after.Total)
	require.Equal(t, before.Locked, after.Locked)
	require.Equal(t, before.Available, after.Available)
	require.Equal(t, before.DepositedLifetime+a, after.DepositedLifetime)
	require.Equal(t, before.WithdrawnLifetime+a, after.WithdrawnLifetime)
}

// L2: lock(a); unlock(a) is the identity.
func TestRoundTripLockUnlock(t *testing.T) {
	h := newHarness(t)
	admin := custodytest.NewPrincipal("admin")
	owner := custodytest.NewPrincipal("U")
	delegate := custodytest.NewPrincipal("delegate")
	mint := custodytest.NewPrincipal("mint")
	assetAccount := custodytest.NewPrincipal("U-asset")
	ctx := context.Background()
	bootstrap(t, h, admin)
	require.NoError(t, h.Engine.AddDelegate(admin, delegate))
	require.NoError(t, h.Engine.CreateVault(ctx, owner, mint))
	require.NoError(t, h.Engine.Deposit(ctx, owner, assetAccount, 50_000_000))

	before, err := h.Engine.VaultByOwner(owner)
	require.NoError(t, err)

	require.NoError(t, h.Engine.Lock(delegate, owner, 10_000_000))
	require.NoError(t, h.Engine.Unlock(delegate, owner, 10_000_000))

	after, err := h.Engine.VaultByOwner(owner)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

// L3: transfer(A→B, a); transfer(B→A, a) returns both vaults to pre-state.
func TestRoundTripTransferThereAndBack(t *testing.T) {
	h := newHarness(t)
	admin := custodytest.NewPrincipal("admin")
	a := custodytest.NewPrincipal("A")
	b := custodytest.NewPrincipal("B")
	delegate := custodytest.NewPrincipal("delegate")
	mint := custodytest.NewPrincipal("mint")
	aAsset := custodytest.NewPrincipal("A-asset")
	ctx := context.Background()
	bootstrap(t, h, admin)
	require.NoError(t, h.Engine.AddDelegate(admin, delegate))
	require.NoError(t, h.Engine.CreateVault(ctx, a, mint))
	require.NoError(t, h.Engine.CreateVault(ctx, b, mint))
	require.NoError(t, h.Engine.Deposit(ctx, a, aAsset, 200_000_000))

	aBefore, err := h.Engine.VaultByOwner(a)
	require.NoError(t, err)
	bBefore, err := h.Engine.VaultByOwner(b)
	require.NoError(t, err)

	require.NoError(t, h.Engine.Transfer(ctx, delegate, a, b, 30_000_000, events.ReasonLiquidation))
	require.NoError(t, h.Engine.Transfer(ctx, delegate, b, a, 30_000_000, events.ReasonLiquidation))

	aAfter, err := h.Engine.VaultByOwner(a)
	require.NoError(t, err)
	bAfter, err := h.Engine.VaultByOwner(b)
	require.NoError(t, err)

	require.Equal(t, aBefore.Total, aAfter.Total)
	require.Equal(t, aBefore.Available, aAfter.Available)
	require.Equal(t, bBefore.Total, bAfter.Total)
	require.Equal(t, bBefore.Available, bAfter.Available)
}

// The three tests below exercise §4.5's atomicity guarantee end to end: when
// the external asset-transfer call fails, no field of any account is
// updated and no event is emitted, for each of the three handlers that make
// that call.

func TestDepositLeavesNoTraceWhenBridgeFails(t *testing.T) {
	h := newHarness(t)
	admin := custodytest.NewPrincipal("admin")
	owner := custodytest.NewPrincipal("U")
	mint := custodytest.NewPrincipal("mint")
	assetAccount := custodytest.NewPrincipal("U-asset")
	ctx := context.Background()
	bootstrap(t, h, admin)
	require.NoError(t, h.Engine.CreateVault(ctx, owner, mint))

	before, err := h.Engine.VaultByOwner(owner)
	require.NoError(t, err)
	recordsBefore := len(h.Sink.Records)

	h.Bridge.FailNext = assettransfer.ErrTransferFailed
	err = h.Engine.Deposit(ctx, owner, assetAccount, 100_000_000)
	require.ErrorIs(t, err, assettransfer.ErrTransferFailed)

	after, err := h.Engine.VaultByOwner(owner)
	require.NoError(t, err)
	require.Equal(t, before, after)
	require.Len(t, h.Bridge.Calls, 0)
	require.Len(t, h.Sink.Records, recordsBefore)
}

func TestWithdrawLeavesNoTraceWhenBridgeFails(t *testing.T) {
	h := newHarness(t)
	admin := custodytest.NewPrincipal("admin")
	owner := custodytest.NewPrincipal("U")
	mint := custodytest.NewPrincipal("mint")
	assetAccount := custodytest.NewPrincipal("U-asset")
	ctx := context.Background()
	bootstrap(t, h, admin)
	require.NoError(t, h.Engine.CreateVault(ctx, owner, mint))
	require.NoError(t, h.Engine.Deposit(ctx, owner, assetAccount, 100_000_000))

	before, err := h.Engine.VaultByOwner(owner)
	require.NoError(t, err)
	recordsBefore := len(h.Sink.Records)
	callsBefore := len(h.Bridge.Calls)

	h.Bridge.FailNext = assettransfer.ErrTransferFailed
	err = h.Engine.Withdraw(ctx, owner, assetAccount, 40_000_000)
	require.ErrorIs(t, err, assettransfer.ErrTransferFailed)

	after, err := h.Engine.VaultByOwner(owner)
	require.NoError(t, err)
	require.Equal(t, before, after)
	require.Len(t, h.Bridge.Calls, callsBefore)
	require.Len(t, h.Sink.Records, recordsBefore)
}

func TestTransferLeavesNoTraceWhenBridgeFails(t *testing.T) {
	h := newHarness(t)
	admin := custodytest.NewPrincipal("admin")
	u := custodytest.NewPrincipal("U")
	v := custodytest.NewPrincipal("V")
	delegate := custodytest.NewPrincipal("delegate")
	mint := custodytest.NewPrincipal("mint")
	uAsset := custodytest.NewPrincipal("U-asset")
	ctx := context.Background()
	bootstrap(t, h, admin)
	require.NoError(t, h.Engine.AddDelegate(admin, delegate))
	require.NoError(t, h.Engine.CreateVault(ctx, u, mint))
	require.NoError(t, h.Engine.CreateVault(ctx, v, mint))
	require.NoError(t, h.Engine.Deposit(ctx, u, uAsset, 500_000_000))

	uBefore, err := h.Engine.VaultByOwner(u)
	require.NoError(t, err)
	vBefore, err := h.Engine.VaultByOwner(v)
	require.NoError(t, err)
	recordsBefore := len(h.Sink.Records)
	callsBefore := len(h.Bridge.Calls)

	h.Bridge.FailNext = assettransfer.ErrTransferFailed
	err = h.Engine.Transfer(ctx, delegate, u, v, 120_000_000, events.ReasonSettlement)
	require.ErrorIs(t, err, assettransfer.ErrTransferFailed)

	uAfter, err := h.Engine.VaultByOwner(u)
	require.NoError(t, err)
	vAfter, err := h.Engine.VaultByOwner(v)
	require.NoError(t, err)
	require.Equal(t, uBefore, uAfter)
	require.Equal(t, vBefore, vAfter)
	require.Len(t, h.Bridge.Calls, callsBefore)
	require.Len(t, h.Sink.Records, recordsBefore)
}

// TestHarnessLockSerializesConcurrentDeposits exercises the write lock §9's
// "concurrency model portability" note requires a non-ledger caller to hold
// across an instruction's full duration: every goroutine below wraps its
// Deposit call in Harness.Lock/Unlock, so the read-modify-write sequence
// inside the handler never interleaves across goroutines and no increment
// is lost.
func TestHarnessLockSerializesConcurrentDeposits(t *testing.T) {
	h := newHarness(t)
	admin := custodytest.NewPrincipal("admin")
	owner := custodytest.NewPrincipal("U")
	mint := custodytest.NewPrincipal("mint")
	assetAccount := custodytest.NewPrincipal("U-asset")
	ctx := context.Background()
	bootstrap(t, h, admin)
	require.NoError(t, h.Engine.CreateVault(ctx, owner, mint))

	const goroutines = 25
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			h.Lock()
			defer h.Unlock()
			require.NoError(t, h.Engine.Deposit(ctx, owner, assetAccount, 1))
		}()
	}
	wg.Wait()

	v, err := h.Engine.VaultByOwner(owner)
	require.NoError(t, err)
	require.Equal(t, uint64(goroutines), v.Total)
	require.Equal(t, uint64(goroutines), v.Available)
	require.Equal(t, uint64(goroutines), v.DepositedLifetime)
	require.Len(t, h.Bridge.Calls, goroutines)
}
