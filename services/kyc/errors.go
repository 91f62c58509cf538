package kyc

import "servicechain/types"

// Error codes: kyc occupies the 501-510 range.
const (
	CodeNonAuthorized  uint64 = 501
	CodeOrgExists      uint64 = 502
	CodeOrgNotFound    uint64 = 503
	CodeUnapprovedOrg  uint64 = 504
	CodeInvalidTagSet  uint64 = 505
	CodeScanError      uint64 = 506
	CodeParseError     uint64 = 507
	CodeCalcError      uint64 = 508
)

func errNonAuthorized() *types.ServiceError {
	return types.NewServiceError(CodeNonAuthorized, "caller is not authorized")
}

func errOrgExists(name string) *types.ServiceError {
	return types.NewServiceError(CodeOrgExists, "org %q already exists", name)
}

func errOrgNotFound(name string) *types.ServiceError {
	return types.NewServiceError(CodeOrgNotFound, "org %q not found", name)
}

func errUnapprovedOrg(name string) *types.ServiceError {
	return types.NewServiceError(CodeUnapprovedOrg, "org %q is not approved", name)
}

func errInvalidTagSet(tag string) *types.ServiceError {
	return types.NewServiceError(CodeInvalidTagSet, "invalid value set for tag %q", tag)
}

func errScan(pos int, msg string) *types.ServiceError {
	return types.NewServiceError(CodeScanError, "scan error at %d: %s", pos, msg)
}

func errParse(msg string) *types.ServiceError {
	return types.NewServiceError(CodeParseError, "parse error: %s", msg)
}

func errCalc(msg string) *types.ServiceError {
	return types.NewServiceError(CodeCalcError, "calc error: %s", msg)
}
