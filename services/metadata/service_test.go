package metadata

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"servicechain/dispatch"
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
	Register(table)
	return table
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}

var admin = types.BytesToAddress([]byte{0x09})

func TestUpdateMetadataRequiresGovernanceCapability(t *testing.T) {
	layer := newTestLayer(t)
	table := newTestTable()
	ctx := types.NewRootContext(admin, nil, nil, 1, 0, 1_000_000, 1)

	resp := dispatch.Dispatch(table, layer, ctx, Name, "update_interval", mustJSON(t, UpdateIntervalPayload{IntervalMs: 3000}))
	require.True(t, resp.IsError())
	require.Equal(t, CodeNonAuthorized, resp.Code)

	ctx.Extra = []byte(GovernanceCapability)
	resp = dispatch.Dispatch(table, layer, ctx, Name, "update_interval", mustJSON(t, UpdateIntervalPayload{IntervalMs: 3000}))
	require.False(t, resp.IsError(), resp.Msg)

	resp = dispatch.Dispatch(table, layer, ctx, Name, "get_metadata", "")
	require.False(t, resp.IsError(), resp.Msg)
	var md ChainMetadata
	require.NoError(t, resp.Decode(&md))
	require.Equal(t, uint64(3000), md.IntervalMs)
}

func TestGetMetadataBeforeGenesisFails(t *testing.T) {
	layer := newTestLayer(t)
	table := newTestTable()
	ctx := types.NewRootContext(admin, nil, nil, 1, 0, 1_000_000, 1)

	resp := dispatch.Dispatch(table, layer, ctx, Name, "get_metadata", "")
	require.True(t, resp.IsError())
	require.Equal(t, CodeNotConfigured, resp.Code)
}
