package admission

import (
	"servicechain/dispatch"
	"servicechain/sdk"
	"servicechain/state"
	"servicechain/types"
)

// governanceFailureFee is the minimal shape admission decodes out of
// governance's get_info response — it only needs tx_failure_fee, so it
// avoids importing the governance package just to read one field.
type governanceFailureFee struct {
	TxFailureFee uint64 `json:"tx_failure_fee"`
}

// nativeAssetID and balanceResponse are the minimal shapes admission
// decodes out of asset's get_native_asset and get_balance responses.
type nativeAssetID struct {
	ID types.Hash `json:"ID"`
}

type balanceResponse struct {
	Balance uint64 `json:"balance"`
}

func requireAdmin(store *admissionStore, caller types.Address) *types.ServiceError {
	admin, ok, err := store.admin.Get()
	if err != nil {
		return types.NewServiceError(types.CodeInternal, "%v", err)
	}
	if !ok || admin != caller {
		return errNonAuthorized()
	}
	return nil
}

func handleIsPermitted(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *TxPayload) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newAdmissionStore(s.Store())
	denied, err := store.isDenied(p.Sender)
	if err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	if denied {
		return types.Fail(errBlockedTx(p.Sender))
	}
	return types.Ok(IsPermittedResponse{Permitted: true})
}

func handleIsValid(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *TxPayload) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)

	govResp := s.Read(nil, "governance", "get_info", nil)
	if govResp.IsError() {
		return govResp
	}
	var gov governanceFailureFee
	if err := govResp.Decode(&gov); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}

	assetResp := s.Read(nil, "asset", "get_native_asset", nil)
	if assetResp.IsError() {
		return assetResp
	}
	var native nativeAssetID
	if err := assetResp.Decode(&native); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}

	balResp := s.Read(nil, "asset", "get_balance", struct {
		AssetID types.Hash    `json:"asset_id"`
		User    types.Address `json:"user"`
	}{AssetID: native.ID, User: p.Sender})
	if balResp.IsError() {
		return balResp
	}
	var bal balanceResponse
	if err := balResp.Decode(&bal); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}

	if bal.Balance < gov.TxFailureFee {
		return types.Fail(errBalanceLowerThanFee())
	}
	return types.Ok(IsValidResponse{Valid: true})
}

// handleIsAllowed is_permitted AND is_valid's conjunction: it propagates
// whichever sub-check's (code, msg) unchanged rather than collapsing them
// into a generic failure, so a deny-listed sender still surfaces
// is_permitted's own BlockedTx code (spec.md's S3 scenario).
func handleIsAllowed(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *TxPayload) types.ServiceResponse {
	if resp := handleIsPermitted(layer, ctx, table, p); resp.IsError() {
		return resp
	}
	if resp := handleIsValid(layer, ctx, table, p); resp.IsError() {
		return resp
	}
	return types.Ok(IsAllowedResponse{Allowed: true})
}

func handleForbid(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *ForbidPayload) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newAdmissionStore(s.Store())
	if err := requireAdmin(store, ctx.Caller); err != nil {
		return types.Fail(err)
	}
	if err := store.denyList.Set(p.Target, true); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	s.Emit("Forbid", ForbidEvent{Target: p.Target})
	return types.Ok(nil)
}

func handlePermit(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *PermitPayload) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newAdmissionStore(s.Store())
	if err := requireAdmin(store, ctx.Caller); err != nil {
		return types.Fail(err)
	}
	if err := store.denyList.Set(p.Target, false); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	s.Emit("Permit", PermitEvent{Target: p.Target})
	return types.Ok(nil)
}

func handleChangeAdmin(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *ChangeAdminPayload) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newAdmissionStore(s.Store())
	if err := requireAdmin(store, ctx.Caller); err != nil {
		return types.Fail(err)
	}
	if err := store.admin.Set(p.NewAdmin); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	s.Emit("ChangeAdmin", ChangeAdminEvent{NewAdmin: p.NewAdmin})
	return types.Ok(nil)
}

// InitGenesis installs the initial admin and deny-list, rejecting a zero
// admin address (spec.md §4.7).
func InitGenesis(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *GenesisPayload) types.ServiceResponse {
	if p.Admin.IsZero() {
		return types.Fail(errBadGenesisAdmin())
	}
	s := sdk.New(table, layer, ctx, Name)
	store := newAdmissionStore(s.Store())
	if err := store.admin.Set(p.Admin); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	for _, addr := range p.DenyList {
		if err := store.denyList.Set(addr, true); err != nil {
			return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
		}
	}
	return types.Ok(nil)
}

// Register wires the admission service's dispatch table.
func Register(table *dispatch.Table) {
	table.RegisterService(&dispatch.Service{
		Name: Name,
		Methods: map[string]dispatch.Method{
			"is_permitted": dispatch.NewMethod(dispatch.Read, 30, handleIsPermitted),
			"is_valid":     dispatch.NewMethod(dispatch.Read, 60, handleIsValid),
			"is_allowed":   dispatch.NewMethod(dispatch.Read, 80, handleIsAllowed),
			"forbid":       dispatch.NewMethod(dispatch.Write, 60, handleForbid),
			"permit":       dispatch.NewMethod(dispatch.Write, 60, handlePermit),
			"change_admin": dispatch.NewMethod(dispatch.Write, 60, handleChangeAdmin),
		},
		InitGenesis: dispatch.NewGenesisHook(InitGenesis),
	})
}
