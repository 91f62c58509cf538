// Package runtime is the block driver spec.md §4.3 describes: it owns the
// compiled service table and drives genesis plus one block at a time,
// mirroring the teacher's core/state_transition.go BeginBlock/EndBlock
// wiring and core/node.go's explicit, build-time service registration.
package runtime

import (
	"servicechain/dispatch"
)

// Runtime holds the ordered, compile-time-fixed service table a host
// process builds once (spec.md §1 Non-goals: no dynamic registration) and
// reuses across every block.
type Runtime struct {
	table *dispatch.Table
}

// New wraps an already-populated table. Callers build table once, by
// calling each service package's Register function in the fixed order
// spec.md §2 lists (asset, governance, kyc, metadata, admission,
// authorization, riscv), plus the multisig collaborator authorization
// depends on.
func New(table *dispatch.Table) *Runtime {
	return &Runtime{table: table}
}

// Table returns the runtime's compiled service registry.
func (r *Runtime) Table() *dispatch.Table {
	return r.table
}
