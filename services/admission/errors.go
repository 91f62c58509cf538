package admission

import "servicechain/types"

// Error codes: admission occupies the 1000-1006 range (spec.md §6),
// mirroring the original admission_control::ServiceError discriminants
// one-for-one so the numbering carries meaning, not just uniqueness.
const (
	CodeNonAuthorized       uint64 = 1000
	CodeCodec               uint64 = 1001
	CodeOutOfCycles         uint64 = 1002
	CodeBlockedTx           uint64 = 1003
	CodeBadPayload          uint64 = 1004
	CodeBalanceLowerThanFee uint64 = 1005
	CodeBadGenesisAdmin     uint64 = 1006
)

func errNonAuthorized() *types.ServiceError {
	return types.NewServiceError(CodeNonAuthorized, "caller is not the admission admin")
}

func errBlockedTx(sender types.Address) *types.ServiceError {
	return types.NewServiceError(CodeBlockedTx, "Blocked transaction: %s is on the deny-list", sender.Hex())
}

func errBalanceLowerThanFee() *types.ServiceError {
	return types.NewServiceError(CodeBalanceLowerThanFee, "balance lower than fee")
}

func errBadGenesisAdmin() *types.ServiceError {
	return types.NewServiceError(CodeBadGenesisAdmin, "genesis admission admin must not be the zero address")
}
