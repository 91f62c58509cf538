package metadata

import "servicechain/types"

// Error codes: metadata occupies the 301-309 range (spec.md §6 code-range
// convention, one block per service).
const (
	CodeNonAuthorized uint64 = 301
	CodeNotConfigured uint64 = 302
)

func errNonAuthorized() *types.ServiceError {
	return types.NewServiceError(CodeNonAuthorized, "caller is not authorized")
}

func errNotConfigured() *types.ServiceError {
	return types.NewServiceError(CodeNotConfigured, "chain metadata not configured")
}
