package custody

import (
	"log/slog"
	"time"

	"github.com/quorumvault/custody/assettransfer"
	"github.com/quorumvault/custody/custody/events"
	"github.com/quorumvault/custody/errors"
	"github.com/quorumvault/custody/indexer"
	"github.com/quorumvault/custody/observability/logging"
	"github.com/quorumvault/custody/observability/metrics"
	"github.com/quorumvault/custody/pda"
	"github.com/quorumvault/custody/principal"
	"github.com/quorumvault/custody/state"
)

// Clock supplies the ledger's slot clock (§5: "timestamps are read from the
// runtime's slot clock"). Tests substitute a fixed or stepping function;
// production wiring passes time.Now().Unix.
type Clock func() int64

// Engine is the custody program: the single entry point through which every
// instruction of §4.3 runs. It holds no business state itself — every field
// it touches is persisted through mgr — bundling a state manager, its
// collaborators, and a clock behind one struct that exposes one method per
// instruction kind.
type Engine struct {
	ProgramID    principal.ID
	mgr          *state.Manager
	bridge       assettransfer.Bridge
	sink         indexer.EventSink
	clock        Clock
	adminLimiter *adminRateLimiter
	logger       *slog.Logger
}

// NewEngine wires a Manager, a Bridge, an EventSink, and a Clock into an
// Engine scoped to programID. bridge and sink may be nil, in which case
// assettransfer.NullBridge and indexer.NullSink are substituted.
func NewEngine(programID principal.ID, mgr *state.Manager, bridge assettransfer.Bridge, sink indexer.EventSink, clock Clock) *Engine {
	if bridge == nil {
		bridge = assettransfer.NullBridge{}
	}
	if sink == nil {
		sink = indexer.NullSink{}
	}
	return &Engine{ProgramID: programID, mgr: mgr, bridge: bridge, sink: sink, clock: clock}
}

// WithLogger attaches logger to the engine for the dispatch wrapper's
// per-instruction log lines. An Engine built by NewEngine logs through
// slog.Default() until this is called.
func (e *Engine) WithLogger(logger *slog.Logger) *Engine {
	e.logger = logger
	return e
}

func (e *Engine) log() *slog.Logger {
	if e != nil && e.logger != nil {
		return e.logger
	}
	return slog.Default()
}

// dispatch runs fn and logs its outcome at Info (success) or Warn
// (rejected), carrying the instruction name, the primary account address
// touched (bech32-encoded, the registry PDA for registry-admin instructions
// and the vault PDA otherwise), and the error kind on rejection ("Unknown"
// for an error that is not an *errors.Error, e.g. a bridge failure). It also
// records the outcome in the package's instruction metrics registry
// (§A.1, §A.5). account is read through the pointer after fn returns, so a
// handler can set it partway through its own body once the relevant
// address has been derived; it stays the zero principal if fn fails before
// deriving one.
func (e *Engine) dispatch(instruction string, account *principal.ID, fn func() error) error {
	start := time.Now()
	err := fn()

	kind := ""
	if err != nil {
		kind = "Unknown"
		if custodyErr, ok := err.(*errors.Error); ok {
			kind = custodyErr.Kind.String()
		}
	}

	logger := logging.WithInstruction(e.log(), instruction).With(
		slog.String("account", account.String(principal.VaultPrefix)),
	)
	if err != nil {
		logger.Warn("instruction rejected", slog.String("error_kind", kind))
	} else {
		logger.Info("instruction applied")
	}
	metrics.Instructions().Observe(instruction, kind, time.Since(start))

	return err
}

func (e *Engine) now() int64 {
	if e.clock == nil {
		return 0
	}
	return e.clock()
}

func (e *Engine) emit(ev events.Event) {
	e.sink.Emit(ev.Record())
}

// registryAddress derives the singleton registry's address under this
// engine's program identifier.
func (e *Engine) registryAddress() (principal.ID, uint8, error) {
	return pda.DeriveRegistryAddress(e.ProgramID)
}

func (e *Engine) loadRegistry() (principal.ID, *Registry, error) {
	addr, _, err := e.registryAddress()
	if err != nil {
		return principal.ID{}, nil, err
	}
	raw, ok, err := e.mgr.Get(RegistryPrefix, addr)
	if err != nil {
		return principal.ID{}, nil, err
	}
	if !ok {
		return addr, nil, errors.New("registry", errors.KindRegistryNotFound)
	}
	reg := &Registry{}
	if err := reg.UnmarshalBinary(raw); err != nil {
		return principal.ID{}, nil, err
	}
	return addr, reg, nil
}

func (e *Engine) storeRegistry(addr principal.ID, reg *Registry) error {
	raw, err := reg.MarshalBinary()
	if err != nil {
		return err
	}
	return e.mgr.Put(RegistryPrefix, addr, raw)
}

func (e *Engine) loadVault(owner principal.ID) (principal.ID, *Vault, error) {
	addr, _, err := pda.DeriveVaultAddress(e.ProgramID, owner)
	if err != nil {
		return principal.ID{}, nil, err
	}
	raw, ok, err := e.mgr.Get(VaultPrefix, addr)
	if err != nil {
		return principal.ID{}, nil, err
	}
	if !ok {
		return addr, nil, errors.New("vault", errors.KindVaultNotFound)
	}
	v := &Vault{}
	if err := v.UnmarshalBinary(raw); err != nil {
		return principal.ID{}, nil, err
	}
	return addr, v, nil
}

func (e *Engine) storeVault(addr principal.ID, v *Vault) error {
	raw, err := v.MarshalBinary()
	if err != nil {
		return err
	}
	return e.mgr.Put(VaultPrefix, addr, raw)
}

// VaultByOwner returns a read-only snapshot of owner's vault, for a
// reconciliation collaborator's read path and for tests. It never mutates
// state.
func (e *Engine) VaultByOwner(owner principal.ID) (*Vault, error) {
	_, v, err := e.loadVault(owner)
	return v, err
}

// RegistrySnapshot returns a read-only snapshot of the singleton registry.
func (e *Engine) RegistrySnapshot() (*Registry, error) {
	_, reg, err := e.loadRegistry()
	return reg, err
}
