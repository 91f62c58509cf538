package governance

import "servicechain/types"

// Error codes: governance occupies the 201-206 range.
const (
	CodeNonAuthorized uint64 = 201
	CodeOverflow      uint64 = 202
	CodeNotConfigured uint64 = 203
)

func errNonAuthorized() *types.ServiceError {
	return types.NewServiceError(CodeNonAuthorized, "caller is not the governance admin")
}

func errOverflow() *types.ServiceError {
	return types.NewServiceError(CodeOverflow, "profit accumulator overflow")
}

func errNotConfigured() *types.ServiceError {
	return types.NewServiceError(CodeNotConfigured, "governance info not configured")
}
