// Package asset implements the native fungible-token ledger described in
// spec.md §4.4: asset creation, transfers, allowances, mint/burn/relay, and
// the privileged hook_transfer_from bulk-transfer governance's fee pipeline
// relies on.
package asset

import (
	"encoding/json"

	"servicechain/dispatch"
	"servicechain/sdk"
	"servicechain/state"
	"servicechain/types"
)

// GovernanceCapability is the literal extra token governance presents when
// calling hook_transfer_from (spec.md §4.4, §4.5).
const GovernanceCapability = "governance"

func effectiveCaller(ctx *types.ServiceContext) types.Address {
	if addr, err := types.ParseAddress(string(ctx.Extra)); err == nil {
		return addr
	}
	return ctx.Caller
}

func handleCreateAsset(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *CreateAssetPayload) types.ServiceResponse {
	if !ValidateName(p.Name) {
		return types.Fail(errInvalidName(p.Name))
	}
	if !ValidateSymbol(p.Symbol) {
		return types.Fail(errInvalidSymbol(p.Symbol))
	}
	raw, _ := json.Marshal(p)
	id := types.ComputeHash(raw, []byte(ctx.Caller.Hex()))

	s := sdk.New(table, layer, ctx, Name)
	store := newAssetStore(s.Store())

	if _, ok, _ := store.assets.Get(id); ok {
		return types.Fail(errExists(id))
	}

	a := Asset{
		ID:        id,
		Name:      p.Name,
		Symbol:    p.Symbol,
		Supply:    p.Supply,
		Precision: p.Precision,
		Issuers:   []types.Address{ctx.Caller},
		Relayable: p.Relayable,
	}
	if err := store.assets.Set(id, a); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	if err := store.setBalance(id, ctx.Caller, p.Supply); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	s.Emit("CreateAsset", CreateAssetEvent{AssetID: id, Creator: ctx.Caller, Supply: p.Supply})
	return types.Ok(a)
}

func handleTransfer(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *TransferPayload) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newAssetStore(s.Store())

	if _, ok, err := store.assets.Get(p.AssetID); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	} else if !ok {
		return types.Fail(errAssetNotFound(p.AssetID))
	}

	from := effectiveCaller(ctx)
	if from == p.To {
		return types.Ok(nil)
	}
	if err := debit(store, p.AssetID, from, p.Value); err != nil {
		return types.Fail(err)
	}
	if err := credit(store, p.AssetID, p.To, p.Value); err != nil {
		return types.Fail(err)
	}
	s.Emit("TransferAsset", TransferAssetEvent{AssetID: p.AssetID, From: from, To: p.To, Value: p.Value})
	return types.Ok(nil)
}

func handleApprove(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *ApprovePayload) types.ServiceResponse {
	owner := effectiveCaller(ctx)
	if owner == p.Spender {
		return types.Fail(errApproveToSelf())
	}
	s := sdk.New(table, layer, ctx, Name)
	store := newAssetStore(s.Store())
	if _, ok, err := store.assets.Get(p.AssetID); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	} else if !ok {
		return types.Fail(errAssetNotFound(p.AssetID))
	}
	if err := store.setAllowance(p.AssetID, owner, p.Spender, p.Value); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	s.Emit("ApproveAsset", ApproveAssetEvent{AssetID: p.AssetID, Owner: owner, Spender: p.Spender, Value: p.Value})
	return types.Ok(nil)
}

func handleTransferFrom(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *TransferFromPayload) types.ServiceResponse {
	spender := effectiveCaller(ctx)
	s := sdk.New(table, layer, ctx, Name)
	store := newAssetStore(s.Store())

	if _, ok, err := store.assets.Get(p.AssetID); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	} else if !ok {
		return types.Fail(errAssetNotFound(p.AssetID))
	}

	allowance, err := store.allowanceOf(p.AssetID, p.Sender, spender)
	if err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	remaining, ok := checkedSub(allowance, p.Value)
	if !ok {
		return types.Fail(errInsufficientAllowance())
	}
	if err := store.setAllowance(p.AssetID, p.Sender, spender, remaining); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	if err := debit(store, p.AssetID, p.Sender, p.Value); err != nil {
		return types.Fail(err)
	}
	if err := credit(store, p.AssetID, p.To, p.Value); err != nil {
		return types.Fail(err)
	}
	s.Emit("TransferFrom", TransferFromEvent{AssetID: p.AssetID, Sender: p.Sender, To: p.To, Value: p.Value})
	return types.Ok(nil)
}

// hookTransferFrom is the privileged bulk-transfer the runtime's fee
// pipeline uses: it succeeds only if ctx.Extra claims the governance
// capability (spec.md §4.4).
func handleHookTransferFrom(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *TransferFromPayload) types.ServiceResponse {
	if ctx.ExtraString() != GovernanceCapability {
		return types.Fail(errNonAuthorized())
	}
	s := sdk.New(table, layer, ctx, Name)
	store := newAssetStore(s.Store())
	if _, ok, err := store.assets.Get(p.AssetID); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	} else if !ok {
		return types.Fail(errAssetNotFound(p.AssetID))
	}
	if p.Sender != p.To {
		if err := debit(store, p.AssetID, p.Sender, p.Value); err != nil {
			return types.Fail(err)
		}
		if err := credit(store, p.AssetID, p.To, p.Value); err != nil {
			return types.Fail(err)
		}
	}
	s.Emit("TransferFrom", TransferFromEvent{AssetID: p.AssetID, Sender: p.Sender, To: p.To, Value: p.Value})
	return types.Ok(nil)
}

func isIssuer(a Asset, addr types.Address) bool {
	for _, issuer := range a.Issuers {
		if issuer == addr {
			return true
		}
	}
	return false
}

func handleMint(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *MintPayload) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newAssetStore(s.Store())
	a, ok, err := store.assets.Get(p.AssetID)
	if err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	if !ok {
		return types.Fail(errAssetNotFound(p.AssetID))
	}
	if !isIssuer(a, ctx.Caller) {
		return types.Fail(errNonAuthorized())
	}
	newSupply, okAdd := checkedAdd(a.Supply, p.Value)
	if !okAdd {
		return types.Fail(errBalanceOverflow())
	}
	if err := credit(store, p.AssetID, p.To, p.Value); err != nil {
		return types.Fail(err)
	}
	a.Supply = newSupply
	if err := store.assets.Set(p.AssetID, a); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	s.Emit("MintAsset", MintAssetEvent{AssetID: p.AssetID, To: p.To, Value: p.Value})
	return types.Ok(nil)
}

func handleBurn(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *BurnPayload) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newAssetStore(s.Store())
	a, ok, err := store.assets.Get(p.AssetID)
	if err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	if !ok {
		return types.Fail(errAssetNotFound(p.AssetID))
	}
	if !isIssuer(a, ctx.Caller) {
		return types.Fail(errNonAuthorized())
	}
	if err := debit(store, p.AssetID, p.From, p.Value); err != nil {
		return types.Fail(err)
	}
	newSupply, okSub := checkedSub(a.Supply, p.Value)
	if !okSub {
		return types.Fail(errBalanceOverflow())
	}
	a.Supply = newSupply
	if err := store.assets.Set(p.AssetID, a); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	s.Emit("BurnAsset", BurnAssetEvent{AssetID: p.AssetID, From: p.From, Value: p.Value})
	return types.Ok(nil)
}

func handleRelay(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *RelayPayload) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newAssetStore(s.Store())
	a, ok, err := store.assets.Get(p.AssetID)
	if err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	if !ok {
		return types.Fail(errAssetNotFound(p.AssetID))
	}
	if !a.Relayable {
		return types.Fail(errNotRelayable())
	}
	from := effectiveCaller(ctx)
	if err := debit(store, p.AssetID, from, p.Value); err != nil {
		return types.Fail(err)
	}
	newSupply, okSub := checkedSub(a.Supply, p.Value)
	if !okSub {
		return types.Fail(errBalanceOverflow())
	}
	a.Supply = newSupply
	if err := store.assets.Set(p.AssetID, a); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	s.Emit("RelayAsset", RelayAssetEvent{AssetID: p.AssetID, From: from, Value: p.Value})
	return types.Ok(nil)
}

func handleGetBalance(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *GetBalancePayload) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newAssetStore(s.Store())
	bal, err := store.balanceOf(p.AssetID, p.User)
	if err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	return types.Ok(GetBalanceResponse{Balance: bal})
}

func handleGetAllowance(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *GetAllowancePayload) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newAssetStore(s.Store())
	allowance, err := store.allowanceOf(p.AssetID, p.Owner, p.Spender)
	if err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	return types.Ok(GetAllowanceResponse{Allowance: allowance})
}

func handleGetAsset(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *GetAssetPayload) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newAssetStore(s.Store())
	a, ok, err := store.assets.Get(p.AssetID)
	if err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	if !ok {
		return types.Fail(errAssetNotFound(p.AssetID))
	}
	return types.Ok(a)
}

func handleGetNativeAsset(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, _ *struct{}) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newAssetStore(s.Store())
	id, ok, err := store.native.Get()
	if err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	if !ok {
		return types.Fail(errNoNativeAsset())
	}
	a, ok, err := store.assets.Get(id)
	if err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	if !ok {
		return types.Fail(errNoNativeAsset())
	}
	return types.Ok(a)
}

func debit(store *assetStore, assetID types.Hash, owner types.Address, value uint64) *types.ServiceError {
	bal, err := store.balanceOf(assetID, owner)
	if err != nil {
		return types.NewServiceError(types.CodeInternal, "%v", err)
	}
	next, ok := checkedSub(bal, value)
	if !ok {
		return errBalanceOverflow()
	}
	if err := store.setBalance(assetID, owner, next); err != nil {
		return types.NewServiceError(types.CodeInternal, "%v", err)
	}
	return nil
}

func credit(store *assetStore, assetID types.Hash, owner types.Address, value uint64) *types.ServiceError {
	bal, err := store.balanceOf(assetID, owner)
	if err != nil {
		return types.NewServiceError(types.CodeInternal, "%v", err)
	}
	next, ok := checkedAdd(bal, value)
	if !ok {
		return errBalanceOverflow()
	}
	if err := store.setBalance(assetID, owner, next); err != nil {
		return types.NewServiceError(types.CodeInternal, "%v", err)
	}
	return nil
}

// GenesisPayload seeds the genesis asset list; the first asset listed
// becomes the native asset used for fee settlement.
type GenesisPayload struct {
	Assets []CreateAssetPayload `json:"assets"`
	Owner  types.Address        `json:"owner"`
}

// InitGenesis creates every asset in the genesis payload, crediting Owner,
// and records the first one as the native asset.
func InitGenesis(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *GenesisPayload) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newAssetStore(s.Store())
	for i, ap := range p.Assets {
		raw, _ := json.Marshal(ap)
		id := types.ComputeHash(raw, []byte(p.Owner.Hex()))
		a := Asset{ID: id, Name: ap.Name, Symbol: ap.Symbol, Supply: ap.Supply, Precision: ap.Precision, Issuers: []types.Address{p.Owner}, Relayable: ap.Relayable}
		if err := store.assets.Set(id, a); err != nil {
			return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
		}
		if err := store.setBalance(id, p.Owner, ap.Supply); err != nil {
			return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
		}
		if i == 0 {
			if err := store.native.Set(id); err != nil {
				return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
			}
		}
	}
	return types.Ok(nil)
}

// Register wires the asset service's dispatch table. Base cycle costs are
// modest, flat constants — the dispatcher charges them before the handler
// runs, matching spec.md §4.2.
func Register(table *dispatch.Table) {
	table.RegisterService(&dispatch.Service{
		Name: Name,
		Methods: map[string]dispatch.Method{
			"create_asset":       dispatch.NewMethod(dispatch.Write, 200, handleCreateAsset),
			"transfer":           dispatch.NewMethod(dispatch.Write, 100, handleTransfer),
			"approve":            dispatch.NewMethod(dispatch.Write, 80, handleApprove),
			"transfer_from":      dispatch.NewMethod(dispatch.Write, 120, handleTransferFrom),
			"hook_transfer_from": dispatch.NewMethod(dispatch.Write, 120, handleHookTransferFrom),
			"mint":               dispatch.NewMethod(dispatch.Write, 100, handleMint),
			"burn":               dispatch.NewMethod(dispatch.Write, 100, handleBurn),
			"relay":              dispatch.NewMethod(dispatch.Write, 100, handleRelay),
			"get_balance":        dispatch.NewMethod(dispatch.Read, 20, handleGetBalance),
			"get_allowance":      dispatch.NewMethod(dispatch.Read, 20, handleGetAllowance),
			"get_asset":          dispatch.NewMethod(dispatch.Read, 20, handleGetAsset),
			"get_native_asset":   dispatch.NewMethod(dispatch.Read, 20, handleGetNativeAsset),
		},
		InitGenesis: dispatch.NewGenesisHook(InitGenesis),
	})
}
