package types

import "encoding/json"

// ServiceResponse is the universal call result: success carries a JSON
// payload string, failure carries a stable (code, msg) pair. It is kept as a
// string-payload envelope (rather than a generic type parameter) because it
// crosses the dispatcher wire as JSON and is what gets embedded verbatim into
// a transaction receipt.
type ServiceResponse struct {
	Code uint64 `json:"code"`
	Msg  string `json:"msg,omitempty"`
	Data string `json:"data,omitempty"`
}

// IsError reports whether the response represents a failure.
func (r ServiceResponse) IsError() bool {
	return r.Code != 0
}

// Ok builds a success response by JSON-encoding value into the Data field.
func Ok(value any) ServiceResponse {
	if value == nil {
		return ServiceResponse{Code: 0}
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return Fail(NewServiceError(CodeInternal, "marshal response: %v", err))
	}
	return ServiceResponse{Code: 0, Data: string(raw)}
}

// OkString builds a success response whose Data is already the raw string
// payload (used when a method's return value is itself a string, e.g. the
// RISC-V VM's stdout capture).
func OkString(value string) ServiceResponse {
	return ServiceResponse{Code: 0, Data: value}
}

// Fail builds a failure response from a ServiceError.
func Fail(err *ServiceError) ServiceResponse {
	return ServiceResponse{Code: err.Code, Msg: err.Msg}
}

// Decode unmarshals a success response's Data into out. Callers must check
// IsError before calling Decode.
func (r ServiceResponse) Decode(out any) error {
	if r.Data == "" {
		return nil
	}
	return json.Unmarshal([]byte(r.Data), out)
}
