package runtime

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"servicechain/dispatch"
	"servicechain/services/authorization"
	"servicechain/state"
	"servicechain/storage/trie"
	"servicechain/types"
)

// Block implements spec.md §4.3's five-step algorithm over tr, starting
// from its last committed root: block-before hooks, the per-transaction
// pipeline, block-after hooks, and the new state root plus one receipt per
// transaction. log may be nil; when set, it gets one structured line per
// block and one per failed transaction, matching the teacher's slog-based
// observability style.
func (r *Runtime) Block(tr *trie.Trie, params dispatch.BlockParams, txs []*types.Transaction, log *slog.Logger) ([32]byte, []Receipt, error) {
	manager := state.NewManager(tr, params.Height)

	blockLayer := manager.NewTxLayer()
	r.runBlockBeforeHooks(blockLayer, params)
	if _, err := manager.CommitTx(blockLayer); err != nil {
		return [32]byte{}, nil, fmt.Errorf("block-before hooks: commit: %w", err)
	}

	receipts := make([]Receipt, 0, len(txs))
	for _, tx := range txs {
		receipt, err := r.applyTransaction(manager, params, tx)
		if err != nil {
			return [32]byte{}, nil, err
		}
		if log != nil && receipt.Response.IsError() {
			log.Warn("transaction failed",
				"service", tx.Service, "method", tx.Method,
				"code", receipt.Response.Code, "msg", receipt.Response.Msg)
		}
		receipts = append(receipts, receipt)
	}

	afterLayer := manager.NewTxLayer()
	r.runBlockAfterHooks(afterLayer, params)
	if _, err := manager.CommitTx(afterLayer); err != nil {
		return [32]byte{}, nil, fmt.Errorf("block-after hooks: commit: %w", err)
	}

	root := manager.Root()
	if log != nil {
		log.Info("block applied",
			"height", params.Height, "tx_count", len(txs),
			"new_state_root", fmt.Sprintf("%x", root))
	}
	return root, receipts, nil
}

// applyTransaction runs spec.md §4.3 step 3 for one transaction: snapshot,
// authorize, pledge, dispatch, deduct, commit-or-discard.
func (r *Runtime) applyTransaction(manager *state.Manager, params dispatch.BlockParams, tx *types.Transaction) (Receipt, error) {
	txHash, err := tx.Hash()
	if err != nil {
		return Receipt{}, fmt.Errorf("hash transaction: %w", err)
	}
	nonce := tx.Nonce
	ctx := types.NewRootContext(tx.Sender, &txHash, &nonce, params.Height, params.Timestamp, tx.CyclesLimit, tx.CyclesPrice)

	txPayload, err := json.Marshal(tx)
	if err != nil {
		return Receipt{}, fmt.Errorf("marshal transaction: %w", err)
	}

	txLayer := manager.NewTxLayer()

	// 3c: authorization.check_authorization is purely read-only — its own
	// child snapshot is always discarded, win or lose.
	authLayer := txLayer.Child()
	authResp := dispatch.Dispatch(r.table, authLayer, ctx, authorization.Name, "check_authorization", string(txPayload))
	authLayer.Discard()
	if authResp.IsError() {
		return r.receipt(params.Height, txHash, ctx, authResp), nil
	}

	// 3d/3g: every registered tx-hook-before (governance's pledge_fee, in
	// practice) runs in its own child snapshot that is committed into
	// txLayer the moment it succeeds — so it survives even if a later
	// before-hook, the user method, or deduct_fee goes on to fail.
	pledgeErr := r.runBeforeHooks(txLayer, ctx)
	if pledgeErr != nil {
		if _, cerr := manager.CommitTx(txLayer); cerr != nil {
			return Receipt{}, fmt.Errorf("commit transaction %s: %w", txHash, cerr)
		}
		return r.receipt(params.Height, txHash, ctx, types.Fail(pledgeErr)), nil
	}

	// 3e: the user's own call. Its snapshot commits into txLayer on success
	// and is discarded on failure; either way the pledge already folded in
	// above persists.
	methodLayer := txLayer.Child()
	methodResp := dispatch.Dispatch(r.table, methodLayer, ctx, tx.Service, tx.Method, tx.Payload)
	if methodResp.IsError() {
		methodLayer.Discard()
	} else {
		methodLayer.Commit()
	}

	// 3f: deduct_fee settles the true fee against what pledge_fee already
	// took, regardless of the user method's own outcome.
	r.runAfterHooks(txLayer, ctx)

	if _, err := manager.CommitTx(txLayer); err != nil {
		return Receipt{}, fmt.Errorf("commit transaction %s: %w", txHash, err)
	}
	return r.receipt(params.Height, txHash, ctx, methodResp), nil
}

func (r *Runtime) runBlockBeforeHooks(layer *state.Layer, params dispatch.BlockParams) {
	for _, svc := range r.table.Services() {
		if svc.BlockBefore != nil {
			svc.BlockBefore(layer, params)
		}
	}
}

func (r *Runtime) runBlockAfterHooks(layer *state.Layer, params dispatch.BlockParams) {
	for _, svc := range r.table.Services() {
		if svc.BlockAfter != nil {
			svc.BlockAfter(layer, params)
		}
	}
}

// runBeforeHooks runs every registered TxHookBefore in registration order,
// each inside its own child layer folded into txLayer as soon as it
// succeeds. It stops and returns the first failure, per spec.md §4.3 step
// 3d ("on failure ... record receipt and discard snapshot") — any hook that
// already committed before the failing one keeps its effect.
func (r *Runtime) runBeforeHooks(txLayer *state.Layer, ctx *types.ServiceContext) *types.ServiceError {
	for _, svc := range r.table.Services() {
		if svc.TxHookBefore == nil {
			continue
		}
		hookLayer := txLayer.Child()
		if err := svc.TxHookBefore(hookLayer, ctx, r.table); err != nil {
			hookLayer.Discard()
			return asServiceError(err)
		}
		hookLayer.Commit()
	}
	return nil
}

// runAfterHooks runs every registered TxHookAfter in registration order.
// Unlike before-hooks, a failing after-hook does not abort the transaction
// (spec.md names no failure behavior for deduct_fee); it simply discards its
// own snapshot and the remaining after-hooks still run.
func (r *Runtime) runAfterHooks(txLayer *state.Layer, ctx *types.ServiceContext) {
	for _, svc := range r.table.Services() {
		if svc.TxHookAfter == nil {
			continue
		}
		hookLayer := txLayer.Child()
		if err := svc.TxHookAfter(hookLayer, ctx, r.table); err != nil {
			hookLayer.Discard()
			continue
		}
		hookLayer.Commit()
	}
}

func (r *Runtime) receipt(height uint64, txHash types.Hash, ctx *types.ServiceContext, resp types.ServiceResponse) Receipt {
	return Receipt{
		Height:     height,
		TxHash:     txHash,
		CyclesUsed: ctx.CyclesUsed(),
		Response:   resp,
		Events:     ctx.Events(),
	}
}

// asServiceError adapts a TxHook's generic error into the (code, msg) pair
// a receipt carries, falling back to CodeInternal for a hook that returned
// a plain error rather than a *types.ServiceError.
func asServiceError(err error) *types.ServiceError {
	if se, ok := err.(*types.ServiceError); ok {
		return se
	}
	return types.NewServiceError(types.CodeInternal, "%v", err)
}
