package governance

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"servicechain/dispatch"
	"servicechain/services/asset"
	"servicechain/state"
	"servicechain/storage/trie"
	"servicechain/types"
)

func newTestLayer(t *testing.T) *state.Layer {
	t.Helper()
	tr, err := trie.New(nil)
	require.NoError(t, err)
	return state.NewLayer(state.NewRoot(tr))
}

func newTestTable() *dispatch.Table {
	table := dispatch.NewTable()
	asset.Register(table)
	Register(table)
	return table
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}

var (
	admin  = types.BytesToAddress([]byte{0x01})
	alice  = types.BytesToAddress([]byte{0x02})
	miner  = types.BytesToAddress([]byte{0x03})
)

func seedWorld(t *testing.T, layer *state.Layer, table *dispatch.Table, aliceSupply uint64) types.Hash {
	t.Helper()
	ctx := types.NewRootContext(admin, nil, nil, 1, 0, 10_000_000, 1)

	resp := asset.InitGenesis(layer, ctx, table, &asset.GenesisPayload{
		Owner: alice,
		Assets: []asset.CreateAssetPayload{
			{Name: "Native Coin", Symbol: "NTV", Supply: aliceSupply, Precision: 8},
		},
	})
	require.False(t, resp.IsError(), resp.Msg)

	resp = InitGenesis(layer, ctx, table, &GenesisPayload{Info: GovernanceInfo{
		Admin:                      admin,
		TxFailureFee:               100,
		TxFloorFee:                 10,
		ProfitDeductRatePerMillion: 500_000,
		TxFeeDiscount: []DiscountLevel{
			{Threshold: 0, DiscountPercent: 100},
			{Threshold: 1000, DiscountPercent: 50},
		},
	}})
	require.False(t, resp.IsError(), resp.Msg)

	assetResp := dispatch.Dispatch(table, layer, ctx, asset.Name, "get_native_asset", "")
	require.False(t, assetResp.IsError(), assetResp.Msg)
	var a asset.Asset
	require.NoError(t, assetResp.Decode(&a))
	return a.ID
}

func balanceOfAddr(t *testing.T, layer *state.Layer, table *dispatch.Table, assetID types.Hash, owner types.Address) uint64 {
	t.Helper()
	ctx := types.NewRootContext(owner, nil, nil, 1, 0, 1_000_000, 1)
	resp := dispatch.Dispatch(table, layer, ctx, asset.Name, "get_balance", mustJSON(t, asset.GetBalancePayload{AssetID: assetID, User: owner}))
	require.False(t, resp.IsError(), resp.Msg)
	var out asset.GetBalanceResponse
	require.NoError(t, resp.Decode(&out))
	return out.Balance
}

func TestAccumulateProfitSaturatesOnOverflow(t *testing.T) {
	layer := newTestLayer(t)
	table := newTestTable()
	seedWorld(t, layer, table, 1_000_000)

	ctx := types.NewRootContext(alice, nil, nil, 1, 0, 1_000_000, 1)
	resp := dispatch.Dispatch(table, layer, ctx, Name, "accumulate_profit", mustJSON(t, AccumulateProfitPayload{
		Address: alice, AccumulatedProfit: ^uint64(0),
	}))
	require.False(t, resp.IsError(), resp.Msg)

	resp = dispatch.Dispatch(table, layer, ctx, Name, "accumulate_profit", mustJSON(t, AccumulateProfitPayload{
		Address: alice, AccumulatedProfit: 1,
	}))
	require.True(t, resp.IsError())
	require.Equal(t, CodeOverflow, resp.Code)
}

func TestPledgeAndDeductFeeSettleAgainstFlatFee(t *testing.T) {
	layer := newTestLayer(t)
	table := newTestTable()
	assetID := seedWorld(t, layer, table, 1_000_000)

	ctx := types.NewRootContext(alice, nil, nil, 1, 0, 1_000_000, 1)
	blockBefore(layer, dispatch.BlockParams{Height: 1, Proposer: miner})

	require.NoError(t, pledgeFee(layer, ctx, table))
	require.Equal(t, uint64(1_000_000-100), balanceOfAddr(t, layer, table, assetID, alice))
	require.Equal(t, uint64(100), balanceOfAddr(t, layer, table, assetID, miner))

	require.NoError(t, deductFee(layer, ctx, table))
	// No profit was accumulated during the (simulated) method body, so the
	// real fee floors at TxFloorFee (10), refunding 90 back to alice.
	require.Equal(t, uint64(1_000_000-10), balanceOfAddr(t, layer, table, assetID, alice))
	require.Equal(t, uint64(10), balanceOfAddr(t, layer, table, assetID, miner))
}

func TestSetGovernInfoRequiresAdmin(t *testing.T) {
	layer := newTestLayer(t)
	table := newTestTable()
	seedWorld(t, layer, table, 1_000_000)

	ctx := types.NewRootContext(alice, nil, nil, 1, 0, 1_000_000, 1)
	resp := dispatch.Dispatch(table, layer, ctx, Name, "set_govern_info", mustJSON(t, SetGovernInfoPayload{TxFailureFee: 1}))
	require.True(t, resp.IsError())
	require.Equal(t, CodeNonAuthorized, resp.Code)

	adminCtx := types.NewRootContext(admin, nil, nil, 1, 0, 1_000_000, 1)
	resp = dispatch.Dispatch(table, layer, adminCtx, Name, "set_govern_info", mustJSON(t, SetGovernInfoPayload{TxFailureFee: 1, TxFloorFee: 1}))
	require.False(t, resp.IsError(), resp.Msg)
}
