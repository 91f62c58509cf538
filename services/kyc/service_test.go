package kyc

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

var (
	serviceAdmin = types.BytesToAddress([]byte{0x01})
	orgAdmin     = types.BytesToAddress([]byte{0x02})
	user         = types.BytesToAddress([]byte{0x03})
	outsider     = types.BytesToAddress([]byte{0x04})
)

func seedGenesis(t *testing.T, layer *state.Layer, table *dispatch.Table) {
	t.Helper()
	ctx := types.NewRootContext(serviceAdmin, nil, nil, 1, 0, 1_000_000, 1)
	resp := InitGenesis(layer, ctx, table, &GenesisPayload{Admin: serviceAdmin})
	require.False(t, resp.IsError(), resp.Msg)
}

// TestUnapprovedOrgLifecycle walks spec.md §8's S6 scenario: register an
// unapproved org with a tag, evaluating against it returns false with no
// error; writing user tags is rejected while unapproved; once approved, the
// write succeeds and the evaluation result flips to true.
func TestUnapprovedOrgLifecycle(t *testing.T) {
	layer := newTestLayer(t)
	table := newTestTable()
	seedGenesis(t, layer, table)

	adminCtx := types.NewRootContext(serviceAdmin, nil, nil, 1, 0, 1_000_000, 1)
	resp := dispatch.Dispatch(table, layer, adminCtx, Name, "register_org", mustJSON(t, RegisterOrgPayload{
		Name:          "acme",
		Description:   "Acme KYC",
		Admin:         orgAdmin,
		SupportedTags: []string{"kyc_level"},
	}))
	require.False(t, resp.IsError(), resp.Msg)

	evalCtx := types.NewRootContext(outsider, nil, nil, 1, 0, 1_000_000, 1)
	resp = dispatch.Dispatch(table, layer, evalCtx, Name, "eval_user_tag_expression", mustJSON(t, EvalUserTagExpressionPayload{
		User: user, Expression: "acme.kyc_level@`gold`",
	}))
	require.False(t, resp.IsError(), resp.Msg)
	var out EvalUserTagExpressionResponse
	require.NoError(t, resp.Decode(&out))
	require.False(t, out.Result)

	orgAdminCtx := types.NewRootContext(orgAdmin, nil, nil, 1, 0, 1_000_000, 1)
	resp = dispatch.Dispatch(table, layer, orgAdminCtx, Name, "update_user_tags", mustJSON(t, UpdateUserTagsPayload{
		Org: "acme", User: user, Tags: map[string][]string{"kyc_level": {"gold"}},
	}))
	require.True(t, resp.IsError())
	require.Equal(t, CodeUnapprovedOrg, resp.Code)

	resp = dispatch.Dispatch(table, layer, adminCtx, Name, "change_org_approved", mustJSON(t, ChangeOrgApprovedPayload{
		Org: "acme", Approved: true,
	}))
	require.False(t, resp.IsError(), resp.Msg)

	resp = dispatch.Dispatch(table, layer, orgAdminCtx, Name, "update_user_tags", mustJSON(t, UpdateUserTagsPayload{
		Org: "acme", User: user, Tags: map[string][]string{"kyc_level": {"gold"}},
	}))
	require.False(t, resp.IsError(), resp.Msg)

	resp = dispatch.Dispatch(table, layer, evalCtx, Name, "eval_user_tag_expression", mustJSON(t, EvalUserTagExpressionPayload{
		User: user, Expression: "acme.kyc_level@`gold`",
	}))
	require.False(t, resp.IsError(), resp.Msg)
	require.NoError(t, resp.Decode(&out))
	require.True(t, out.Result)
}

func TestRegisterOrgRequiresServiceAdmin(t *testing.T) {
	layer := newTestLayer(t)
	table := newTestTable()
	seedGenesis(t, layer, table)

	ctx := types.NewRootContext(outsider, nil, nil, 1, 0, 1_000_000, 1)
	resp := dispatch.Dispatch(table, layer, ctx, Name, "register_org", mustJSON(t, RegisterOrgPayload{Name: "acme", Admin: orgAdmin}))
	require.True(t, resp.IsError())
	require.Equal(t, CodeNonAuthorized, resp.Code)
}

func TestRegisterOrgRejectsDuplicateName(t *testing.T) {
	layer := newTestLayer(t)
	table := newTestTable()
	seedGenesis(t, layer, table)

	adminCtx := types.NewRootContext(serviceAdmin, nil, nil, 1, 0, 1_000_000, 1)
	resp := dispatch.Dispatch(table, layer, adminCtx, Name, "register_org", mustJSON(t, RegisterOrgPayload{Name: "acme", Admin: orgAdmin}))
	require.False(t, resp.IsError(), resp.Msg)

	resp = dispatch.Dispatch(table, layer, adminCtx, Name, "register_org", mustJSON(t, RegisterOrgPayload{Name: "acme", Admin: orgAdmin}))
	require.True(t, resp.IsError())
	require.Equal(t, CodeOrgExists, resp.Code)
}

func TestUpdateUserTagsRequiresOrgAdminNotServiceAdmin(t *testing.T) {
	layer := newTestLayer(t)
	table := newTestTable()
	seedGenesis(t, layer, table)

	adminCtx := types.NewRootContext(serviceAdmin, nil, nil, 1, 0, 1_000_000, 1)
	resp := dispatch.Dispatch(table, layer, adminCtx, Name, "register_org", mustJSON(t, RegisterOrgPayload{
		Name: "acme", Admin: orgAdmin, SupportedTags: []string{"kyc_level"},
	}))
	require.False(t, resp.IsError(), resp.Msg)
	resp = dispatch.Dispatch(table, layer, adminCtx, Name, "change_org_approved", mustJSON(t, ChangeOrgApprovedPayload{Org: "acme", Approved: true}))
	require.False(t, resp.IsError(), resp.Msg)

	// Service admin is not the org's own admin, so it is rejected here even
	// though it could register/approve the org itself.
	resp = dispatch.Dispatch(table, layer, adminCtx, Name, "update_user_tags", mustJSON(t, UpdateUserTagsPayload{
		Org: "acme", User: user, Tags: map[string][]string{"kyc_level": {"gold"}},
	}))
	require.True(t, resp.IsError())
	require.Equal(t, CodeNonAuthorized, resp.Code)
}

func TestUpdateUserTagsRejectsInvalidValueSet(t *testing.T) {
	layer := newTestLayer(t)
	table := newTestTable()
	seedGenesis(t, layer, table)

	adminCtx := types.NewRootContext(serviceAdmin, nil, nil, 1, 0, 1_000_000, 1)
	resp := dispatch.Dispatch(table, layer, adminCtx, Name, "register_org", mustJSON(t, RegisterOrgPayload{
		Name: "acme", Admin: orgAdmin, SupportedTags: []string{"kyc_level"},
	}))
	require.False(t, resp.IsError(), resp.Msg)
	resp = dispatch.Dispatch(table, layer, adminCtx, Name, "change_org_approved", mustJSON(t, ChangeOrgApprovedPayload{Org: "acme", Approved: true}))
	require.False(t, resp.IsError(), resp.Msg)

	orgAdminCtx := types.NewRootContext(orgAdmin, nil, nil, 1, 0, 1_000_000, 1)

	resp = dispatch.Dispatch(table, layer, orgAdminCtx, Name, "update_user_tags", mustJSON(t, UpdateUserTagsPayload{
		Org: "acme", User: user, Tags: map[string][]string{"kyc_level": {}},
	}))
	require.True(t, resp.IsError())
	require.Equal(t, CodeInvalidTagSet, resp.Code)

	resp = dispatch.Dispatch(table, layer, orgAdminCtx, Name, "update_user_tags", mustJSON(t, UpdateUserTagsPayload{
		Org: "acme", User: user, Tags: map[string][]string{"kyc_level": {"NULL"}},
	}))
	require.True(t, resp.IsError())
	require.Equal(t, CodeInvalidTagSet, resp.Code)
}

func TestChangeOrgAdminTransfersWriteControl(t *testing.T) {
	layer := newTestLayer(t)
	table := newTestTable()
	seedGenesis(t, layer, table)

	adminCtx := types.NewRootContext(serviceAdmin, nil, nil, 1, 0, 1_000_000, 1)
	resp := dispatch.Dispatch(table, layer, adminCtx, Name, "register_org", mustJSON(t, RegisterOrgPayload{
		Name: "acme", Admin: orgAdmin, SupportedTags: []string{"kyc_level"},
	}))
	require.False(t, resp.IsError(), resp.Msg)
	resp = dispatch.Dispatch(table, layer, adminCtx, Name, "change_org_approved", mustJSON(t, ChangeOrgApprovedPayload{Org: "acme", Approved: true}))
	require.False(t, resp.IsError(), resp.Msg)

	resp = dispatch.Dispatch(table, layer, adminCtx, Name, "change_org_admin", mustJSON(t, ChangeOrgAdminPayload{Org: "acme", NewAdmin: outsider}))
	require.False(t, resp.IsError(), resp.Msg)

	orgAdminCtx := types.NewRootContext(orgAdmin, nil, nil, 1, 0, 1_000_000, 1)
	resp = dispatch.Dispatch(table, layer, orgAdminCtx, Name, "update_user_tags", mustJSON(t, UpdateUserTagsPayload{
		Org: "acme", User: user, Tags: map[string][]string{"kyc_level": {"gold"}},
	}))
	require.True(t, resp.IsError())
	require.Equal(t, CodeNonAuthorized, resp.Code)

	outsiderCtx := types.NewRootContext(outsider, nil, nil, 1, 0, 1_000_000, 1)
	resp = dispatch.Dispatch(table, layer, outsiderCtx, Name, "update_user_tags", mustJSON(t, UpdateUserTagsPayload{
		Org: "acme", User: user, Tags: map[string][]string{"kyc_level": {"gold"}},
	}))
	require.False(t, resp.IsError(), resp.Msg)
}
