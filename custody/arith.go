package custody

import (
	"math/bits"

	custodyerrors "github.com/quorumvault/custody/errors"
)

// checkedAdd performs a checked 64-bit addition, returning KindOverflow
// when the sum would exceed the u64 range. Every balance field is fixed at
// 64 bits unsigned, and the boundary behavior at amount == u64::MAX must
// be exact, so this uses math/bits rather than an arbitrary-precision
// integer type: the carry out of bits.Add64 is the overflow signal itself.
func checkedAdd(instruction, field string, a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, custodyerrors.New(instruction, custodyerrors.KindOverflow).WithField(field)
	}
	return sum, nil
}

// checkedSub performs a checked 64-bit subtraction, returning KindUnderflow
// when b > a.
func checkedSub(instruction, field string, a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, custodyerrors.New(instruction, custodyerrors.KindUnderflow).WithField(field)
	}
	return diff, nil
}
