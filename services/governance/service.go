package governance

import (
	"servicechain/dispatch"
	"servicechain/sdk"
	"servicechain/state"
	"servicechain/types"
)

// AssetCapability is the literal extra token governance presents to asset
// when settling fees (spec.md §4.4/§4.5).
const AssetCapability = "governance"

// nativeAssetIDResponse is the minimal shape decoded out of asset's
// get_native_asset response.
type nativeAssetIDResponse struct {
	ID types.Hash `json:"ID"`
}

type balanceResponse struct {
	Balance uint64 `json:"balance"`
}

func nativeAssetID(s *sdk.SDK) (types.Hash, *types.ServiceError) {
	resp := s.Read(nil, "asset", "get_native_asset", nil)
	if resp.IsError() {
		return types.Hash{}, types.NewServiceError(resp.Code, "%s", resp.Msg)
	}
	var out nativeAssetIDResponse
	if err := resp.Decode(&out); err != nil {
		return types.Hash{}, types.NewServiceError(types.CodeInternal, "%v", err)
	}
	return out.ID, nil
}

func balanceOf(s *sdk.SDK, assetID types.Hash, owner types.Address) (uint64, *types.ServiceError) {
	resp := s.Read(nil, "asset", "get_balance", struct {
		AssetID types.Hash    `json:"asset_id"`
		User    types.Address `json:"user"`
	}{AssetID: assetID, User: owner})
	if resp.IsError() {
		return 0, types.NewServiceError(resp.Code, "%s", resp.Msg)
	}
	var out balanceResponse
	if err := resp.Decode(&out); err != nil {
		return 0, types.NewServiceError(types.CodeInternal, "%v", err)
	}
	return out.Balance, nil
}

func transferViaHook(s *sdk.SDK, assetID types.Hash, sender, to types.Address, value uint64) *types.ServiceError {
	if value == 0 || sender == to {
		return nil
	}
	resp := s.Write([]byte(AssetCapability), "asset", "hook_transfer_from", struct {
		AssetID types.Hash    `json:"asset_id"`
		Sender  types.Address `json:"sender"`
		To      types.Address `json:"to"`
		Value   uint64        `json:"value"`
	}{AssetID: assetID, Sender: sender, To: to, Value: value})
	if resp.IsError() {
		return types.NewServiceError(resp.Code, "%s", resp.Msg)
	}
	return nil
}

func requireAdmin(info GovernanceInfo, configured bool, caller types.Address) *types.ServiceError {
	if !configured {
		return errNotConfigured()
	}
	if info.Admin != caller {
		return errNonAuthorized()
	}
	return nil
}

func handleGetInfo(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, _ *struct{}) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newGovernanceStore(s.Store())
	info, ok, err := store.info.Get()
	if err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	if !ok {
		return types.Fail(errNotConfigured())
	}
	return types.Ok(info)
}

func handleAccumulateProfit(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *AccumulateProfitPayload) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newGovernanceStore(s.Store())
	current, err := store.profitOf(p.Address)
	if err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	next, ok := checkedAdd(current, p.AccumulatedProfit)
	if !ok {
		return types.Fail(errOverflow())
	}
	if err := store.profits.Set(p.Address, next); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	s.Emit("RecordProfit", RecordProfitEvent{Address: p.Address, AccumulatedProfit: p.AccumulatedProfit})
	return types.Ok(nil)
}

func handleSetAdmin(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *SetAdminPayload) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newGovernanceStore(s.Store())
	info, ok, err := store.info.Get()
	if err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	if err := requireAdmin(info, ok, ctx.Caller); err != nil {
		return types.Fail(err)
	}
	info.Admin = p.NewAdmin
	if err := store.info.Set(info); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	s.Emit("SetAdmin", SetAdminEvent{NewAdmin: p.NewAdmin})
	return types.Ok(nil)
}

func handleSetGovernInfo(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *SetGovernInfoPayload) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newGovernanceStore(s.Store())
	info, ok, err := store.info.Get()
	if err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	if err := requireAdmin(info, ok, ctx.Caller); err != nil {
		return types.Fail(err)
	}
	info.TxFailureFee = p.TxFailureFee
	info.TxFloorFee = p.TxFloorFee
	info.ProfitDeductRatePerMillion = p.ProfitDeductRatePerMillion
	info.MinerBenefit = p.MinerBenefit
	info.TxFeeDiscount = p.TxFeeDiscount
	if err := store.info.Set(info); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	s.Emit("SetGovernInfo", SetGovernInfoEvent{Info: info})
	return types.Ok(nil)
}

func handleSetMiner(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *SetMinerPayload) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newGovernanceStore(s.Store())
	info, ok, err := store.info.Get()
	if err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	if err := requireAdmin(info, ok, ctx.Caller); err != nil {
		return types.Fail(err)
	}
	if err := store.miners.Set(p.Proposer, p.Payee); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	s.Emit("SetMiner", SetMinerEvent{Proposer: p.Proposer, Payee: p.Payee})
	return types.Ok(nil)
}

// forwardToMetadata writes payload to the metadata service's method with
// the "governance" capability, returning the callee's error unchanged. The
// payload is passed as a plain value, so governance does not import the
// metadata package's payload types.
func forwardToMetadata(s *sdk.SDK, method string, payload any) *types.ServiceError {
	resp := s.Write([]byte("governance"), "metadata", method, payload)
	if resp.IsError() {
		return types.NewServiceError(resp.Code, "%s", resp.Msg)
	}
	return nil
}

func handleUpdateMetadata(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *struct {
	Validators []struct {
		Address       types.Address `json:"address"`
		ProposeWeight uint64        `json:"propose_weight"`
		VoteWeight    uint64        `json:"vote_weight"`
	} `json:"validators"`
	IntervalMs uint64 `json:"interval_ms"`
	Ratio      struct {
		ProposeRatio   uint64 `json:"propose_ratio"`
		PrevoteRatio   uint64 `json:"prevote_ratio"`
		PrecommitRatio uint64 `json:"precommit_ratio"`
	} `json:"ratio"`
}) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newGovernanceStore(s.Store())
	info, ok, err := store.info.Get()
	if err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	if gerr := requireAdmin(info, ok, ctx.Caller); gerr != nil {
		return types.Fail(gerr)
	}
	if gerr := forwardToMetadata(s, "update_metadata", p); gerr != nil {
		return types.Fail(gerr)
	}
	return types.Ok(nil)
}

func handleUpdateValidators(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *struct {
	Validators []struct {
		Address       types.Address `json:"address"`
		ProposeWeight uint64        `json:"propose_weight"`
		VoteWeight    uint64        `json:"vote_weight"`
	} `json:"validators"`
}) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newGovernanceStore(s.Store())
	info, ok, err := store.info.Get()
	if err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	if gerr := requireAdmin(info, ok, ctx.Caller); gerr != nil {
		return types.Fail(gerr)
	}
	if gerr := forwardToMetadata(s, "update_validators", p); gerr != nil {
		return types.Fail(gerr)
	}
	return types.Ok(nil)
}

func handleUpdateInterval(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *struct {
	IntervalMs uint64 `json:"interval_ms"`
}) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newGovernanceStore(s.Store())
	info, ok, err := store.info.Get()
	if err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	if gerr := requireAdmin(info, ok, ctx.Caller); gerr != nil {
		return types.Fail(gerr)
	}
	if gerr := forwardToMetadata(s, "update_interval", p); gerr != nil {
		return types.Fail(gerr)
	}
	return types.Ok(nil)
}

func handleUpdateRatio(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *struct {
	Ratio struct {
		ProposeRatio   uint64 `json:"propose_ratio"`
		PrevoteRatio   uint64 `json:"prevote_ratio"`
		PrecommitRatio uint64 `json:"precommit_ratio"`
	} `json:"ratio"`
}) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newGovernanceStore(s.Store())
	info, ok, err := store.info.Get()
	if err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	if gerr := requireAdmin(info, ok, ctx.Caller); gerr != nil {
		return types.Fail(gerr)
	}
	if gerr := forwardToMetadata(s, "update_ratio", p); gerr != nil {
		return types.Fail(gerr)
	}
	return types.Ok(nil)
}

// calcDiscountFee applies the fee-discount schedule: scan tx_fee_discount
// (sorted ascending by threshold) from the high end, the first level whose
// threshold is at most the caller's balance wins (spec.md §4.5).
func calcDiscountFee(originFee uint64, levels []DiscountLevel, balance uint64) uint64 {
	discount := uint64(hundred)
	for i := len(levels) - 1; i >= 0; i-- {
		if balance >= levels[i].Threshold {
			discount = levels[i].DiscountPercent
			break
		}
	}
	return originFee * discount / hundred
}

// calcTxFee implements calc_tx_fee (spec.md §4.5): zero if the transaction
// was canceled, otherwise the profit-rate fee discounted by the caller's
// balance tier and floored at TxFloorFee.
func calcTxFee(s *sdk.SDK, store *governanceStore, ctx *types.ServiceContext, info GovernanceInfo) (uint64, *types.ServiceError) {
	if ctx.Canceled() {
		return 0, nil
	}
	profit, err := store.sumAndResetProfits()
	if err != nil {
		return 0, types.NewServiceError(types.CodeInternal, "%v", err)
	}
	feeRaw := profit * info.ProfitDeductRatePerMillion / million
	assetID, serr := nativeAssetID(s)
	if serr != nil {
		return 0, serr
	}
	balance, serr := balanceOf(s, assetID, ctx.Caller)
	if serr != nil {
		return 0, serr
	}
	fee := calcDiscountFee(feeRaw, info.TxFeeDiscount, balance)
	if fee < info.TxFloorFee {
		fee = info.TxFloorFee
	}
	return fee, nil
}

func currentMinerOr(store *governanceStore, proposer types.Address) (types.Address, error) {
	miner, ok, err := store.currentMiner.Get()
	if err != nil {
		return types.Address{}, err
	}
	if !ok {
		return proposer, nil
	}
	return miner, nil
}

// blockBefore caches the current block's miner payout address: the
// proposer's configured payee, or the proposer itself if unconfigured
// (spec.md §4.3 step 2).
func blockBefore(layer *state.Layer, params dispatch.BlockParams) {
	s := sdk.New(nil, layer, types.NewRootContext(types.Address{}, nil, nil, params.Height, params.Timestamp, 0, 0), Name)
	store := newGovernanceStore(s.Store())
	payee, ok, err := store.miners.Get(params.Proposer)
	if err != nil {
		return
	}
	miner := params.Proposer
	if ok {
		miner = payee
	}
	_ = store.currentMiner.Set(miner)
}

// pledgeFee is the tx-hook-before: it clears any stale profit entries and
// pledges a flat tx_failure_fee from the caller to the block's miner before
// the target method runs (spec.md §4.5). A failure here aborts the
// transaction without running the user method.
func pledgeFee(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table) error {
	s := sdk.New(table, layer, ctx, Name)
	store := newGovernanceStore(s.Store())
	info, ok, err := store.info.Get()
	if err != nil {
		return err
	}
	if !ok {
		return errNotConfigured()
	}
	if _, err := store.sumAndResetProfits(); err != nil {
		return err
	}
	miner, err := currentMinerOr(store, ctx.Caller)
	if err != nil {
		return err
	}
	assetID, serr := nativeAssetID(s)
	if serr != nil {
		return serr
	}
	if serr := transferViaHook(s, assetID, ctx.Caller, miner, info.TxFailureFee); serr != nil {
		return serr
	}
	return nil
}

// deductFee is the tx-hook-after: it computes the transaction's real fee
// from the profit accumulated during the method call plus the caller's
// discount tier, then settles the difference against the flat fee already
// pledged (spec.md §4.5).
func deductFee(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table) error {
	s := sdk.New(table, layer, ctx, Name)
	store := newGovernanceStore(s.Store())
	info, ok, err := store.info.Get()
	if err != nil {
		return err
	}
	if !ok {
		return errNotConfigured()
	}
	fee, serr := calcTxFee(s, store, ctx, info)
	if serr != nil {
		return serr
	}
	miner, err := currentMinerOr(store, ctx.Caller)
	if err != nil {
		return err
	}
	assetID, serr := nativeAssetID(s)
	if serr != nil {
		return serr
	}

	delta := int64(fee) - int64(info.TxFailureFee)
	switch {
	case delta > 0:
		if serr := transferViaHook(s, assetID, ctx.Caller, miner, uint64(delta)); serr != nil {
			return serr
		}
	case delta < 0:
		if serr := transferViaHook(s, assetID, miner, ctx.Caller, uint64(-delta)); serr != nil {
			return serr
		}
	}
	s.Emit("ConsumedTxFee", ConsumedTxFeeEvent{Caller: ctx.Caller, Miner: miner, Amount: fee})
	return nil
}

// InitGenesis writes the genesis GovernanceInfo record.
func InitGenesis(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *GenesisPayload) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newGovernanceStore(s.Store())
	if err := store.info.Set(p.Info); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	return types.Ok(nil)
}

// Register wires the governance service's dispatch table and hooks.
func Register(table *dispatch.Table) {
	table.RegisterService(&dispatch.Service{
		Name: Name,
		Methods: map[string]dispatch.Method{
			"get_info":          dispatch.NewMethod(dispatch.Read, 20, handleGetInfo),
			"accumulate_profit": dispatch.NewMethod(dispatch.Write, 60, handleAccumulateProfit),
			"set_admin":         dispatch.NewMethod(dispatch.Write, 60, handleSetAdmin),
			"set_govern_info":   dispatch.NewMethod(dispatch.Write, 80, handleSetGovernInfo),
			"set_miner":         dispatch.NewMethod(dispatch.Write, 60, handleSetMiner),
			"update_metadata":   dispatch.NewMethod(dispatch.Write, 150, handleUpdateMetadata),
			"update_validators": dispatch.NewMethod(dispatch.Write, 150, handleUpdateValidators),
			"update_interval":   dispatch.NewMethod(dispatch.Write, 80, handleUpdateInterval),
			"update_ratio":      dispatch.NewMethod(dispatch.Write, 80, handleUpdateRatio),
		},
		BlockBefore:  blockBefore,
		TxHookBefore: pledgeFee,
		TxHookAfter:  deductFee,
		InitGenesis:  dispatch.NewGenesisHook(InitGenesis),
	})
}
