package metadata

import (
	"servicechain/dispatch"
	"servicechain/sdk"
	"servicechain/state"
	"servicechain/types"
)

// GovernanceCapability is the literal extra token governance presents when
// invoking metadata's write methods on a user's behalf (SPEC_FULL.md §4.9).
const GovernanceCapability = "governance"

func requireGovernance(ctx *types.ServiceContext) *types.ServiceError {
	if ctx.ExtraString() != GovernanceCapability {
		return errNonAuthorized()
	}
	return nil
}

func metadataCell(s *sdk.SDK) *state.Value[ChainMetadata] {
	return state.NewValueCell[ChainMetadata](s.Store(), "metadata")
}

func handleGetMetadata(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, _ *struct{}) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	md, ok, err := metadataCell(s).Get()
	if err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	if !ok {
		return types.Fail(errNotConfigured())
	}
	return types.Ok(md)
}

func handleUpdateMetadata(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *UpdateMetadataPayload) types.ServiceResponse {
	if err := requireGovernance(ctx); err != nil {
		return types.Fail(err)
	}
	s := sdk.New(table, layer, ctx, Name)
	cell := metadataCell(s)
	md, _, err := cell.Get()
	if err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	md.Validators = p.Validators
	md.IntervalMs = p.IntervalMs
	md.Ratio = p.Ratio
	if err := cell.Set(md); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	s.Emit("UpdateMetadata", UpdateMetadataEvent{Metadata: md})
	return types.Ok(nil)
}

func handleUpdateValidators(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *UpdateValidatorsPayload) types.ServiceResponse {
	if err := requireGovernance(ctx); err != nil {
		return types.Fail(err)
	}
	s := sdk.New(table, layer, ctx, Name)
	cell := metadataCell(s)
	md, _, err := cell.Get()
	if err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	md.Validators = p.Validators
	if err := cell.Set(md); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	s.Emit("UpdateMetadata", UpdateMetadataEvent{Metadata: md})
	return types.Ok(nil)
}

func handleUpdateInterval(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *UpdateIntervalPayload) types.ServiceResponse {
	if err := requireGovernance(ctx); err != nil {
		return types.Fail(err)
	}
	s := sdk.New(table, layer, ctx, Name)
	cell := metadataCell(s)
	md, _, err := cell.Get()
	if err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	md.IntervalMs = p.IntervalMs
	if err := cell.Set(md); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	s.Emit("UpdateMetadata", UpdateMetadataEvent{Metadata: md})
	return types.Ok(nil)
}

func handleUpdateRatio(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *UpdateRatioPayload) types.ServiceResponse {
	if err := requireGovernance(ctx); err != nil {
		return types.Fail(err)
	}
	s := sdk.New(table, layer, ctx, Name)
	cell := metadataCell(s)
	md, _, err := cell.Get()
	if err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	md.Ratio = p.Ratio
	if err := cell.Set(md); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	s.Emit("UpdateMetadata", UpdateMetadataEvent{Metadata: md})
	return types.Ok(nil)
}

// GenesisPayload seeds the initial chain metadata record.
type GenesisPayload struct {
	ChainID    types.Hash  `json:"chain_id"`
	Validators []Validator `json:"validators"`
	IntervalMs uint64      `json:"interval_ms"`
	Ratio      Ratio       `json:"ratio"`
}

// InitGenesis writes the genesis metadata record directly, bypassing the
// governance capability gate (the runtime calls this once, outside of any
// dispatched transaction).
func InitGenesis(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *GenesisPayload) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	md := ChainMetadata{ChainID: p.ChainID, Validators: p.Validators, IntervalMs: p.IntervalMs, Ratio: p.Ratio}
	if err := metadataCell(s).Set(md); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	return types.Ok(nil)
}

// Register wires the metadata service's dispatch table.
func Register(table *dispatch.Table) {
	table.RegisterService(&dispatch.Service{
		Name: Name,
		Methods: map[string]dispatch.Method{
			"get_metadata":      dispatch.NewMethod(dispatch.Read, 20, handleGetMetadata),
			"update_metadata":   dispatch.NewMethod(dispatch.Write, 150, handleUpdateMetadata),
			"update_validators": dispatch.NewMethod(dispatch.Write, 150, handleUpdateValidators),
			"update_interval":   dispatch.NewMethod(dispatch.Write, 80, handleUpdateInterval),
			"update_ratio":      dispatch.NewMethod(dispatch.Write, 80, handleUpdateRatio),
		},
		InitGenesis: dispatch.NewGenesisHook(InitGenesis),
	})
}
