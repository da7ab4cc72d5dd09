// Package pda derives the deterministic program addresses the custody core
// uses for vaults, the registry, and each vault's custody sub-account:
// Keccak256 of a seed string, generalized with a bump-search loop so
// owner-derived addresses can be found deterministically without a real
// elliptic-curve off-curve test — this program has no curve, so "off-curve"
// is emulated by requiring the last seed byte the search lands on (the bump)
// to hash to a value whose top bit is clear, the same kind of simple
// acceptance predicate a bump search uses to skip on-curve collisions.
package pda

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/quorumvault/custody/principal"
)

const (
	vaultSeed         = "vault"
	registrySeed      = "vault_authority"
	custodyAccountSeed = "custody"
)

// MaxBump is the starting bump value for the search; Solana-style
// find_program_address implementations search downward from 255.
const MaxBump = 255

// isAccepted emulates an off-curve acceptance test: a candidate hash is
// accepted when its first byte is below 0x80, rejected otherwise, forcing
// the search to walk through more than one candidate bump in the common
// case just as a real off-curve check would.
func isAccepted(hash []byte) bool {
	return len(hash) > 0 && hash[0] < 0x80
}

func findAddress(seedParts ...[]byte) (addr [32]byte, bump uint8, err error) {
	for b := MaxBump; b >= 0; b-- {
		buf := make([]byte, 0, 64)
		for _, part := range seedParts {
			buf = append(buf, part...)
		}
		buf = append(buf, byte(b))
		hash := crypto.Keccak256(buf)
		if isAccepted(hash) {
			copy(addr[:], hash)
			return addr, uint8(b), nil
		}
	}
	return addr, 0, fmt.Errorf("pda: no valid bump found")
}

// DeriveVaultAddress derives the vault address for the tuple
// ("vault", owner) under the given program identifier, per spec §4.1.
func DeriveVaultAddress(programID principal.ID, owner principal.ID) (principal.ID, uint8, error) {
	addr, bump, err := findAddress([]byte(vaultSeed), programID.Bytes(), owner.Bytes())
	if err != nil {
		return principal.ID{}, 0, err
	}
	return principal.ID(addr), bump, nil
}

// DeriveRegistryAddress derives the singleton registry address from
// ("vault_authority") under the given program identifier.
func DeriveRegistryAddress(programID principal.ID) (principal.ID, uint8, error) {
	addr, bump, err := findAddress([]byte(registrySeed), programID.Bytes())
	if err != nil {
		return principal.ID{}, 0, err
	}
	return principal.ID(addr), bump, nil
}

// DeriveCustodyAccount derives a vault's asset-custody sub-account from
// (asset_mint, vault_address), the associated-token-style derivation of
// §4.1, with the owner-off-curve allowance implicit in the bump search
// (the vault address itself has no private key).
func DeriveCustodyAccount(mint principal.ID, vaultAddress principal.ID) (principal.ID, uint8, error) {
	addr, bump, err := findAddress([]byte(custodyAccountSeed), mint.Bytes(), vaultAddress.Bytes())
	if err != nil {
		return principal.ID{}, 0, err
	}
	return principal.ID(addr), bump, nil
}

// VerifyVaultAddress replays the vault's derivation seeds plus its cached
// bump and reports whether it reproduces the claimed address. Any signer
// that wants to sign for a vault's custody sub-account (§9 "No private key
// for vault addresses") must go through this replay, never cache the
// derived address without the bump.
func VerifyVaultAddress(programID, owner, claimed principal.ID, bump uint8) bool {
	buf := append([]byte(vaultSeed), programID.Bytes()...)
	buf = append(buf, owner.Bytes()...)
	buf = append(buf, bump)
	hash := crypto.Keccak256(buf)
	var addr [32]byte
	copy(addr[:], hash)
	return principal.ID(addr) == claimed
}
