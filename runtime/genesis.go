package runtime

import (
	"fmt"

	"servicechain/config"
	"servicechain/state"
	"servicechain/storage/trie"
	"servicechain/types"
)

// Genesis runs every service named in doc against tr, which must be empty
// (spec.md §6: "Genesis runs each service's init_genesis exactly once in an
// empty state"), in document order, calling each one's init_genesis exactly
// once. It returns the resulting state root; tr itself is left holding the
// committed genesis data, ready for the first call to Block.
//
// Genesis invariant failures (an admin-less authorization mode, a missing
// native asset, and similar) are raised by services as panics per spec.md
// §7 ("panics are reserved for genesis invariants ... they abort block
// assembly, not transactions"). Genesis recovers them here and returns an
// error instead, so a misconfigured genesis document never crashes the host
// process — it only ever fails to produce a chain.
func (r *Runtime) Genesis(tr *trie.Trie, doc *config.Genesis) (root [32]byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			root = [32]byte{}
			err = fmt.Errorf("genesis: %v", rec)
		}
	}()

	manager := state.NewManager(tr, 0)
	layer := manager.NewTxLayer()

	for _, entry := range doc.Services {
		svc := r.table.Service(entry.Name)
		if svc == nil {
			return [32]byte{}, fmt.Errorf("genesis: service %q is not registered", entry.Name)
		}
		if svc.InitGenesis == nil {
			return [32]byte{}, fmt.Errorf("genesis: service %q declares no init_genesis", entry.Name)
		}
		ctx := types.NewRootContext(types.Address{}, nil, nil, 0, 0, ^uint64(0), 0)
		resp := svc.InitGenesis(layer, ctx, r.table, entry.Payload)
		if resp.IsError() {
			return [32]byte{}, fmt.Errorf("genesis: %s.init_genesis: code=%d msg=%s", entry.Name, resp.Code, resp.Msg)
		}
	}

	newRoot, err := manager.CommitTx(layer)
	if err != nil {
		return [32]byte{}, fmt.Errorf("genesis: commit: %w", err)
	}
	return newRoot, nil
}
