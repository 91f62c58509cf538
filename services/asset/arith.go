package asset

import "math/bits"

// checkedAdd and checkedSub implement the saturating-to-error arithmetic
// spec.md §3 requires ("arithmetic saturates to BalanceOverflow on both add
// and sub"). Neither of the pack's big-integer libraries (go-ethereum's
// holiman/uint256 is a fixed 256-bit type — far wider than the 64-bit
// overflow boundary we need to detect — and math/big is arbitrary
// precision) can express a native 64-bit overflow check without first doing
// the same bit-width arithmetic themselves, so the stdlib primitive is used
// directly; see DESIGN.md.
func checkedAdd(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, false
	}
	return sum, true
}

func checkedSub(a, b uint64) (uint64, bool) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, false
	}
	return diff, true
}
