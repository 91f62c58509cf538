package types

import "fmt"

// ServiceError is the (code, msg) pair every service-level failure is
// reported as. It satisfies the standard error interface so Go call sites
// can use normal error handling, while still carrying the stable numeric
// code the wire receipt requires.
type ServiceError struct {
	Code uint64
	Msg  string
}

// NewServiceError builds a ServiceError from a stable code and a formatted
// message.
func NewServiceError(code uint64, format string, args ...any) *ServiceError {
	return &ServiceError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("code=%d: %s", e.Code, e.Msg)
}

// Shared cross-service error codes. Individual services additionally define
// their own code ranges (asset 101-112, governance 201-206, metadata
// 301-309, kyc 501-510, multisig 601-602, admission 1000-1006, riscv
// 101-113) in their own packages.
const (
	CodeMethodNotFound uint64 = 1
	CodeOutOfCycles    uint64 = 2
	CodeBadPayload     uint64 = 3
	CodeInternal       uint64 = 4
)

// ErrMethodNotFound is returned by the dispatcher when the requested
// service/method pair is not in the static service table.
func ErrMethodNotFound(service, method string) *ServiceError {
	return NewServiceError(CodeMethodNotFound, "method not found: %s.%s", service, method)
}

// ErrOutOfCycles is returned when charging a cost would exceed the call's
// cycles_limit.
func ErrOutOfCycles() *ServiceError {
	return NewServiceError(CodeOutOfCycles, "out of cycles")
}

// ErrBadPayload is returned when a method's JSON payload fails to decode
// into its parameter type.
func ErrBadPayload(err error) *ServiceError {
	return NewServiceError(CodeBadPayload, "bad payload: %v", err)
}
