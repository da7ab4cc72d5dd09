// Command custody-admin is an offline inspection tool for the custody
// program: deriving PDAs without touching a running ledger and dumping a
// vault/registry snapshot from a local data directory as JSON. Each
// subcommand gets its own flag.FlagSet, dispatched by os.Args[1]; no
// third-party CLI framework. The inspection subcommands read the custody
// program's own bbolt store directly rather than going through an RPC
// layer.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/quorumvault/custody/custody"
	"github.com/quorumvault/custody/pda"
	"github.com/quorumvault/custody/principal"
	"github.com/quorumvault/custody/state"
	"github.com/quorumvault/custody/storage"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 1
	}

	switch args[0] {
	case "derive-vault":
		return runDeriveVault(args[1:])
	case "derive-registry":
		return runDeriveRegistry(args[1:])
	case "inspect-vault":
		return runInspectVault(args[1:])
	case "inspect-registry":
		return runInspectRegistry(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", args[0])
		printUsage()
		return 1
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: custody-admin <derive-vault|derive-registry|inspect-vault|inspect-registry> [flags]")
}

func runDeriveVault(args []string) int {
	fs := flag.NewFlagSet("derive-vault", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	programFlag := fs.String("program", "", "program identifier (bech32)")
	ownerFlag := fs.String("owner", "", "vault owner identifier (bech32)")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	programID, err := principal.Parse(*programFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse -program: %v\n", err)
		return 1
	}
	owner, err := principal.Parse(*ownerFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse -owner: %v\n", err)
		return 1
	}

	addr, bump, err := pda.DeriveVaultAddress(programID, owner)
	if err != nil {
		fmt.Fprintf(os.Stderr, "derive: %v\n", err)
		return 1
	}

	return printJSON(map[string]any{
		"address": addr.String(principal.VaultPrefix),
		"bump":    bump,
	})
}

func runDeriveRegistry(args []string) int {
	fs := flag.NewFlagSet("derive-registry", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	programFlag := fs.String("program", "", "program identifier (bech32)")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	programID, err := principal.Parse(*programFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse -program: %v\n", err)
		return 1
	}

	addr, bump, err := pda.DeriveRegistryAddress(programID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "derive: %v\n", err)
		return 1
	}

	return printJSON(map[string]any{
		"address": addr.String(principal.RegistryPrefix),
		"bump":    bump,
	})
}

func runInspectVault(args []string) int {
	fs := flag.NewFlagSet("inspect-vault", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	dataDirFlag := fs.String("data-dir", "./custody-data", "custody bbolt data directory")
	programFlag := fs.String("program", "", "program identifier (bech32)")
	ownerFlag := fs.String("owner", "", "vault owner identifier (bech32)")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	mgr, closeFn, err := openManager(*dataDirFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open: %v\n", err)
		return 1
	}
	defer closeFn()

	programID, err := principal.Parse(*programFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse -program: %v\n", err)
		return 1
	}
	owner, err := principal.Parse(*ownerFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse -owner: %v\n", err)
		return 1
	}

	vaultAddr, _, err := pda.DeriveVaultAddress(programID, owner)
	if err != nil {
		fmt.Fprintf(os.Stderr, "derive: %v\n", err)
		return 1
	}
	raw, ok, err := mgr.Get(custody.VaultPrefix, vaultAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read: %v\n", err)
		return 1
	}
	if !ok {
		fmt.Fprintln(os.Stderr, "vault not found")
		return 1
	}
	v := &custody.Vault{}
	if err := v.UnmarshalBinary(raw); err != nil {
		fmt.Fprintf(os.Stderr, "decode: %v\n", err)
		return 1
	}

	return printJSON(map[string]any{
		"owner":             v.Owner.String(principal.UserPrefix),
		"custodyAccount":    v.CustodyAccount.String(principal.UserPrefix),
		"total":             v.Total,
		"locked":            v.Locked,
		"available":         v.Available,
		"depositedLifetime": v.DepositedLifetime,
		"withdrawnLifetime": v.WithdrawnLifetime,
		"createdAt":         v.CreatedAt,
		"bump":              v.Bump,
		"invariantsHold":    v.CheckInvariants(),
	})
}

func runInspectRegistry(args []string) int {
	fs := flag.NewFlagSet("inspect-registry", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	dataDirFlag := fs.String("data-dir", "./custody-data", "custody bbolt data directory")
	programFlag := fs.String("program", "", "program identifier (bech32)")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	mgr, closeFn, err := openManager(*dataDirFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open: %v\n", err)
		return 1
	}
	defer closeFn()

	programID, err := principal.Parse(*programFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse -program: %v\n", err)
		return 1
	}

	regAddr, _, err := pda.DeriveRegistryAddress(programID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "derive: %v\n", err)
		return 1
	}
	raw, ok, err := mgr.Get(custody.RegistryPrefix, regAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read: %v\n", err)
		return 1
	}
	if !ok {
		fmt.Fprintln(os.Stderr, "registry not found")
		return 1
	}
	reg := &custody.Registry{}
	if err := reg.UnmarshalBinary(raw); err != nil {
		fmt.Fprintf(os.Stderr, "decode: %v\n", err)
		return 1
	}

	delegates := make([]string, len(reg.Delegates))
	for i, d := range reg.Delegates {
		delegates[i] = d.String(principal.UserPrefix)
	}

	return printJSON(map[string]any{
		"admin":     reg.Admin.String(principal.UserPrefix),
		"delegates": delegates,
		"paused":    reg.Paused,
		"updatedAt": reg.UpdatedAt,
		"bump":      reg.Bump,
	})
}

func openManager(dataDir string) (*state.Manager, func(), error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, nil, err
	}
	db, err := storage.NewBoltDB(dataDir + "/custody.db")
	if err != nil {
		return nil, nil, err
	}
	return state.NewManager(db), func() { db.Close() }, nil
}

func printJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		return 1
	}
	return 0
}
