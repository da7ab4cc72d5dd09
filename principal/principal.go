// Package principal defines the 32-byte identifier used for every signer,
// owner, delegate, and derived address in the custody core: a single
// shape wide enough to cover owners, delegates, and off-curve derived
// addresses alike.
package principal

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
)

// Prefix distinguishes the human-readable rendering of different principal
// roles purely for display; it carries no on-chain meaning.
type Prefix string

const (
	// VaultPrefix renders a derived vault address.
	VaultPrefix Prefix = "vault"
	// RegistryPrefix renders the singleton registry address.
	RegistryPrefix Prefix = "reg"
	// UserPrefix renders an externally owned principal (an owner or delegate).
	UserPrefix Prefix = "usr"
)

// ID is a 32-byte principal identifier: an owner, a delegate, or a derived
// program address. It has no associated private key when it denotes a
// derived address (see package pda).
type ID [32]byte

// Zero is the all-zero identifier, used as a sentinel for "no principal".
var Zero ID

// IsZero reports whether id is the all-zero sentinel.
func (id ID) IsZero() bool {
	return id == Zero
}

// Equal reports whether two identifiers are byte-identical.
func (id ID) Equal(other ID) bool {
	return id == other
}

// Bytes returns a copy of the identifier's raw bytes.
func (id ID) Bytes() []byte {
	out := make([]byte, 32)
	copy(out, id[:])
	return out
}

// FromBytes builds an ID from a 32-byte slice, rejecting any other length.
func FromBytes(b []byte) (ID, error) {
	var id ID
	if len(b) != 32 {
		return id, fmt.Errorf("principal: identifier must be 32 bytes, got %d", len(b))
	}
	copy(id[:], b)
	return id, nil
}

// FromHex parses a 32-byte identifier expressed as hex, with an optional
// "0x" prefix.
func FromHex(s string) (ID, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return ID{}, fmt.Errorf("principal: decode hex: %w", err)
	}
	return FromBytes(decoded)
}

// String renders the identifier as a bech32 string under the given prefix.
func (id ID) String(prefix Prefix) string {
	converted, err := bech32.ConvertBits(id[:], 8, 5, true)
	if err != nil {
		return "0x" + hex.EncodeToString(id[:])
	}
	encoded, err := bech32.Encode(string(prefix), converted)
	if err != nil {
		return "0x" + hex.EncodeToString(id[:])
	}
	return encoded
}

// Parse decodes a bech32-rendered identifier back into raw bytes, ignoring
// which prefix it was encoded under (the prefix is a display aid only).
func Parse(s string) (ID, error) {
	_, data, err := bech32.Decode(s)
	if err != nil {
		return ID{}, fmt.Errorf("principal: decode bech32: %w", err)
	}
	converted, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return ID{}, fmt.Errorf("principal: convert bits: %w", err)
	}
	return FromBytes(converted)
}
