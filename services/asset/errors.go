package asset

import "servicechain/types"

// Error codes, stable per spec.md §6: asset occupies the 101-112 range.
// Balance debit/credit failures all route through CodeBalanceOverflow
// (spec.md §3: arithmetic saturates to BalanceOverflow on both add and
// sub, without partial mutation) rather than a separate insufficient-
// balance code; allowance deficiency keeps its own diagnostic code since
// it is a business-rule check ahead of the debit, not the debit itself.
const (
	CodeExists            uint64 = 101
	CodeInvalidName       uint64 = 102
	CodeInvalidSymbol     uint64 = 103
	CodeAssetNotFound     uint64 = 104
	CodeBalanceOverflow   uint64 = 105
	CodeApproveToSelf     uint64 = 107
	CodeInsufficientAllow uint64 = 108
	CodeNotRelayable      uint64 = 109
	CodeNonAuthorized     uint64 = 110
	CodeNoNativeAsset     uint64 = 111
)

func errExists(id types.Hash) *types.ServiceError {
	return types.NewServiceError(CodeExists, "asset %s already exists", id.Hex())
}

func errInvalidName(name string) *types.ServiceError {
	return types.NewServiceError(CodeInvalidName, "invalid asset name %q", name)
}

func errInvalidSymbol(symbol string) *types.ServiceError {
	return types.NewServiceError(CodeInvalidSymbol, "invalid asset symbol %q", symbol)
}

func errAssetNotFound(id types.Hash) *types.ServiceError {
	return types.NewServiceError(CodeAssetNotFound, "asset %s not found", id.Hex())
}

func errBalanceOverflow() *types.ServiceError {
	return types.NewServiceError(CodeBalanceOverflow, "balance overflow")
}

func errApproveToSelf() *types.ServiceError {
	return types.NewServiceError(CodeApproveToSelf, "cannot approve self")
}

func errInsufficientAllowance() *types.ServiceError {
	return types.NewServiceError(CodeInsufficientAllow, "insufficient allowance")
}

func errNotRelayable() *types.ServiceError {
	return types.NewServiceError(CodeNotRelayable, "asset is not relayable")
}

func errNonAuthorized() *types.ServiceError {
	return types.NewServiceError(CodeNonAuthorized, "caller is not authorized")
}

func errNoNativeAsset() *types.ServiceError {
	return types.NewServiceError(CodeNoNativeAsset, "native asset not configured")
}
