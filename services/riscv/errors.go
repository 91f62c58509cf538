package riscv

import "servicechain/types"

// Error codes: riscv occupies spec.md §6's own stated 101-113 range, which
// overlaps asset's 101-112 block (the other services use disjoint blocks).
// The numbering is kept because spec.md §8's S2 and S5 scenarios assert the
// literal codes 112 and 113, so it is a contract, not an illustration.
const (
	CodeNonAuthorized          uint64 = 101
	CodeHexDecode              uint64 = 102
	CodeNotInExecContext       uint64 = 103
	CodeContractNotFound       uint64 = 104
	CodeCodeNotFound           uint64 = 105
	CodeMissingInfo            uint64 = 106
	CodeNonZeroExit            uint64 = 107
	CodeCkbVm                  uint64 = 108
	CodeInvalidEcall           uint64 = 109
	CodeOutOfCycles            uint64 = 110
	CodeStorageKeyNotFound     uint64 = 111
	CodeWriteInReadonlyContext uint64 = 112
	CodeAssertFailed           uint64 = 113
)

func errNonAuthorized() *types.ServiceError {
	return types.NewServiceError(CodeNonAuthorized, "caller is not authorized")
}

func errHexDecode(err error) *types.ServiceError {
	return types.NewServiceError(CodeHexDecode, "invalid hex: %v", err)
}

func errNotInExecContext() *types.ServiceError {
	return types.NewServiceError(CodeNotInExecContext, "deploy requires a transaction execution context (no tx_hash)")
}

func errContractNotFound(addr types.Address) *types.ServiceError {
	return types.NewServiceError(CodeContractNotFound, "contract %s not found", addr.Hex())
}

func errCodeNotFound(hash types.Hash) *types.ServiceError {
	return types.NewServiceError(CodeCodeNotFound, "code %s not found", hash.Hex())
}

func errMissingInfo(msg string) *types.ServiceError {
	return types.NewServiceError(CodeMissingInfo, "%s", msg)
}

func errNonZeroExit(code int64, msg string) *types.ServiceError {
	return types.NewServiceError(CodeNonZeroExit, "exit code %d: %s", code, msg)
}

func errCkbVm(err error) *types.ServiceError {
	return types.NewServiceError(CodeCkbVm, "vm error: %v", err)
}

func errWriteInReadonlyContext() *types.ServiceError {
	return types.NewServiceError(CodeWriteInReadonlyContext, "write attempted in a readonly call context")
}

func errAssertFailed(msg string) *types.ServiceError {
	return types.NewServiceError(CodeAssertFailed, "assert failed: %s", msg)
}
