package governance

import "math/bits"

// checkedAdd saturates to an overflow signal rather than wrapping, matching
// spec.md §4.5's "saturating add into profits[address], overflow ->
// Overflow". See services/asset/arith.go for why math/bits rather than a
// wider big-integer type is used here.
func checkedAdd(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, false
	}
	return sum, true
}
