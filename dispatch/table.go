// Package dispatch implements the fee-metered cross-service dispatcher
// described in spec.md §4.2: a statically compiled service table, one method
// per (service, method) pair tagged with a fixed base cycle cost and a
// read/write kind.
package dispatch

import (
	"encoding/json"

	"servicechain/state"
	"servicechain/types"
)

// Kind tags a method as read-only (its mutations are always discarded by the
// caller) or state-mutating.
type Kind int

const (
	Read Kind = iota
	Write
)

// HookPoint names one of the four lifecycle roles a service may register a
// hook for (spec.md §9's #[tx_hook_before/after] / #[hook_before/after]).
type HookPoint int

const (
	BlockBefore HookPoint = iota
	BlockAfter
	TxHookBefore
	TxHookAfter
)

// Method is one dispatchable (service, method) entry: its cycle cost, its
// read/write kind, a constructor for a fresh parameter value, and the typed
// handler that receives it already decoded.
type Method struct {
	Kind       Kind
	BaseCycles uint64
	newParam   func() any
	invoke     func(layer *state.Layer, ctx *types.ServiceContext, table *Table, param any) types.ServiceResponse
}

// NewMethod builds a Method whose parameter type is inferred from fn's
// signature, so handlers are written against a concrete, already-decoded
// *P rather than a raw JSON string.
func NewMethod[P any](kind Kind, baseCycles uint64, fn func(layer *state.Layer, ctx *types.ServiceContext, table *Table, param *P) types.ServiceResponse) Method {
	return Method{
		Kind:       kind,
		BaseCycles: baseCycles,
		newParam:   func() any { return new(P) },
		invoke: func(layer *state.Layer, ctx *types.ServiceContext, table *Table, param any) types.ServiceResponse {
			return fn(layer, ctx, table, param.(*P))
		},
	}
}

// BlockHook runs once per block, before or after the transaction loop.
type BlockHook func(layer *state.Layer, params BlockParams)

// TxHook runs once per transaction, before or after the user method.
// Returning a non-nil error aborts the transaction per spec.md §4.3.
type TxHook func(layer *state.Layer, ctx *types.ServiceContext, table *Table) error

// GenesisHook runs a service's init_genesis exactly once against an empty
// state, decoding its own typed payload out of the genesis document's
// per-service JSON string (spec.md §6's "each payload is the JSON-encoded
// init struct for the service"). Services with no genesis state (multisig,
// authorization) simply leave this nil.
type GenesisHook func(layer *state.Layer, ctx *types.ServiceContext, table *Table, payload string) types.ServiceResponse

// NewGenesisHook adapts a service's already-typed InitGenesis function
// (built the same way dispatch methods are, against a decoded *P) into the
// table's uniform GenesisHook shape, so runtime.Genesis never needs to know
// each service's concrete payload type.
func NewGenesisHook[P any](fn func(layer *state.Layer, ctx *types.ServiceContext, table *Table, param *P) types.ServiceResponse) GenesisHook {
	return func(layer *state.Layer, ctx *types.ServiceContext, table *Table, payload string) types.ServiceResponse {
		param := new(P)
		if payload != "" {
			if err := json.Unmarshal([]byte(payload), param); err != nil {
				return types.Fail(types.ErrBadPayload(err))
			}
		}
		return fn(layer, ctx, table, param)
	}
}

// BlockParams carries the block-level parameters every block-before/after
// hook receives (spec.md §4.3 step 2 and step 4).
type BlockParams struct {
	Height    uint64
	Timestamp uint64
	Proposer  types.Address
}

// Service is one statically registered service: its dispatchable methods
// plus whichever hooks it contributes.
type Service struct {
	Name         string
	Methods      map[string]Method
	BlockBefore  BlockHook
	BlockAfter   BlockHook
	TxHookBefore TxHook
	TxHookAfter  TxHook
	InitGenesis  GenesisHook
}

// Table is the compiled service registry the dispatcher consults. It is
// built once per block (or once per process, since services are fixed at
// build time per spec.md §1) by each service's Register function and never
// mutated afterward.
type Table struct {
	services []*Service
	byName   map[string]*Service
}

// NewTable builds an empty table.
func NewTable() *Table {
	return &Table{byName: make(map[string]*Service)}
}

// RegisterService adds svc to the table. Order of registration determines
// block-before/after hook ordering.
func (t *Table) RegisterService(svc *Service) {
	t.services = append(t.services, svc)
	t.byName[svc.Name] = svc
}

// Services returns the registered services in registration order.
func (t *Table) Services() []*Service {
	return t.services
}

// Service returns the service registered under name, or nil if none is.
func (t *Table) Service(name string) *Service {
	return t.byName[name]
}

// Lookup returns the service and method for (service, method), or nil if
// either is not in the static table.
func (t *Table) Lookup(service, method string) (*Service, *Method) {
	svc, ok := t.byName[service]
	if !ok {
		return nil, nil
	}
	m, ok := svc.Methods[method]
	if !ok {
		return svc, nil
	}
	return svc, &m
}
