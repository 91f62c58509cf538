// Package sdk is the per-service handle spec.md §4.1 describes: scoped
// store access plus cross-service read/write calls that run the callee in a
// child snapshot, committing it into the caller's layer only for Write and
// only on success.
package sdk

import (
	"encoding/json"

	"servicechain/dispatch"
	"servicechain/state"
	"servicechain/types"
)

// SDK is constructed fresh for every dispatched call (it is cheap: a
// pointer to the shared table, the call's layer, and its context).
type SDK struct {
	table   *dispatch.Table
	layer   *state.Layer
	ctx     *types.ServiceContext
	service string
}

// New builds an SDK handle scoped to service, operating over layer for the
// duration of ctx's call.
func New(table *dispatch.Table, layer *state.Layer, ctx *types.ServiceContext, service string) *SDK {
	return &SDK{table: table, layer: layer, ctx: ctx, service: service}
}

// Store opens the calling service's own store, scoped by its service name
// (spec.md §4.1 invariant (i): "no service may write to another service's
// store directly" — a service only ever opens a Store for its own name).
func (s *SDK) Store() *state.Store {
	return state.NewStore(s.layer, s.service)
}

// Context returns the call's ServiceContext.
func (s *SDK) Context() *types.ServiceContext {
	return s.ctx
}

// Layer returns the call's snapshot layer.
func (s *SDK) Layer() *state.Layer {
	return s.layer
}

// Table returns the static service table, for services that need to inspect
// it directly (the RISC-V service's recursive contract_call does).
func (s *SDK) Table() *dispatch.Table {
	return s.table
}

func encodePayload(payload any) (string, error) {
	if payload == nil {
		return "", nil
	}
	if str, ok := payload.(string); ok {
		return str, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Read dispatches service.method in a child snapshot that is always
// discarded on return, regardless of outcome (spec.md §4.1: "read...
// buffers any state mutations in a child snapshot that is always discarded
// on return"). The caller address on the callee's context is unchanged from
// this call's own context; extra is the only channel carrying a claimed
// capability.
func (s *SDK) Read(extra []byte, service, method string, payload any) types.ServiceResponse {
	return s.ReadAs(s.ctx.Caller, extra, service, method, payload)
}

// ReadAs is Read with an explicit caller override on the callee's context,
// used by the RISC-V service when a contract's syscall recurses into
// another call frame acting as that contract (spec.md §4.10.1's
// ChainInterface.contract_call).
func (s *SDK) ReadAs(caller types.Address, extra []byte, service, method string, payload any) types.ServiceResponse {
	payloadStr, err := encodePayload(payload)
	if err != nil {
		return types.Fail(types.ErrBadPayload(err))
	}
	child := s.ctx.Derive(caller, service, method, payloadStr, extra)
	childLayer := s.layer.Child()
	resp := dispatch.Dispatch(s.table, childLayer, child, service, method, payloadStr)
	childLayer.Discard()
	return resp
}

// Write dispatches service.method in a child snapshot that is committed
// into this call's own layer on success and discarded on failure.
func (s *SDK) Write(extra []byte, service, method string, payload any) types.ServiceResponse {
	return s.WriteAs(s.ctx.Caller, extra, service, method, payload)
}

// WriteAs is Write with an explicit caller override (see ReadAs).
func (s *SDK) WriteAs(caller types.Address, extra []byte, service, method string, payload any) types.ServiceResponse {
	payloadStr, err := encodePayload(payload)
	if err != nil {
		return types.Fail(types.ErrBadPayload(err))
	}
	child := s.ctx.Derive(caller, service, method, payloadStr, extra)
	childLayer := s.layer.Child()
	resp := dispatch.Dispatch(s.table, childLayer, child, service, method, payloadStr)
	if resp.IsError() {
		childLayer.Discard()
		return resp
	}
	childLayer.Commit()
	return resp
}

// Emit appends an event to the transaction's shared event list.
func (s *SDK) Emit(name string, payload any) {
	s.ctx.Emit(types.NewEvent(name, payload))
}
