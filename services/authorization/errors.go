package authorization

import "servicechain/types"

// CodeUnauthorized is the code check_authorization returns, with a
// human-readable reason, when signature verification fails. A rejection
// from admission is returned with admission's own code instead (e.g. 1003
// for a blocked sender).
const CodeUnauthorized uint64 = 102

func errUnauthorized(reason string) *types.ServiceError {
	return types.NewServiceError(CodeUnauthorized, "%s", reason)
}
