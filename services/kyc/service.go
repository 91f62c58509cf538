package kyc

import (
	"servicechain/dispatch"
	"servicechain/sdk"
	"servicechain/state"
	"servicechain/types"
)

func requireServiceAdmin(store *kycStore, caller types.Address) *types.ServiceError {
	admin, ok, err := store.admin.Get()
	if err != nil {
		return types.NewServiceError(types.CodeInternal, "%v", err)
	}
	if !ok || admin != caller {
		return errNonAuthorized()
	}
	return nil
}

// validateTagSet enforces spec.md §4.6's recorded-value-set shape: 1-6
// distinct values, none of which may be the reserved NULL sentinel.
func validateTagSet(tag string, values []string) *types.ServiceError {
	if len(values) == 0 || len(values) > 6 {
		return errInvalidTagSet(tag)
	}
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if v == NullValue {
			return errInvalidTagSet(tag)
		}
		if seen[v] {
			return errInvalidTagSet(tag)
		}
		seen[v] = true
	}
	return nil
}

func handleRegisterOrg(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *RegisterOrgPayload) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newKYCStore(s.Store())
	if err := requireServiceAdmin(store, ctx.Caller); err != nil {
		return types.Fail(err)
	}
	if exists, err := store.orgs.Has(p.Name); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	} else if exists {
		return types.Fail(errOrgExists(p.Name))
	}
	org := Org{
		Name:          p.Name,
		Description:   p.Description,
		Admin:         p.Admin,
		SupportedTags: p.SupportedTags,
		Approved:      false,
	}
	if err := store.orgs.Set(p.Name, org); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	s.Emit("RegisterOrg", RegisterOrgEvent{Org: org})
	return types.Ok(nil)
}

func handleUpdateSupportedTags(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *UpdateSupportedTagPayload) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newKYCStore(s.Store())
	if err := requireServiceAdmin(store, ctx.Caller); err != nil {
		return types.Fail(err)
	}
	org, ok, err := store.orgs.Get(p.Org)
	if err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	if !ok {
		return types.Fail(errOrgNotFound(p.Org))
	}
	org.SupportedTags = p.SupportedTags
	if err := store.orgs.Set(p.Org, org); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	s.Emit("UpdateSupportedTag", UpdateSupportedTagEvent{Org: p.Org, SupportedTags: p.SupportedTags})
	return types.Ok(nil)
}

func handleChangeOrgApproved(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *ChangeOrgApprovedPayload) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newKYCStore(s.Store())
	if err := requireServiceAdmin(store, ctx.Caller); err != nil {
		return types.Fail(err)
	}
	org, ok, err := store.orgs.Get(p.Org)
	if err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	if !ok {
		return types.Fail(errOrgNotFound(p.Org))
	}
	org.Approved = p.Approved
	if err := store.orgs.Set(p.Org, org); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	s.Emit("ChangeOrgApproved", ChangeOrgApprovedEvent{Org: p.Org, Approved: p.Approved})
	return types.Ok(nil)
}

func handleChangeOrgAdmin(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *ChangeOrgAdminPayload) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newKYCStore(s.Store())
	if err := requireServiceAdmin(store, ctx.Caller); err != nil {
		return types.Fail(err)
	}
	org, ok, err := store.orgs.Get(p.Org)
	if err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	if !ok {
		return types.Fail(errOrgNotFound(p.Org))
	}
	org.Admin = p.NewAdmin
	if err := store.orgs.Set(p.Org, org); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	s.Emit("ChangeOrgAdmin", ChangeOrgAdminEvent{Org: p.Org, NewAdmin: p.NewAdmin})
	return types.Ok(nil)
}

// handleUpdateUserTags is gated on the org's own admin (not the service
// admin) and requires the org to be approved (spec.md §4.6): an unapproved
// org's tag records cannot be written, though they still evaluate
// (stably, as NULL) via eval_user_tag_expression.
func handleUpdateUserTags(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *UpdateUserTagsPayload) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newKYCStore(s.Store())
	org, ok, err := store.orgs.Get(p.Org)
	if err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	if !ok {
		return types.Fail(errOrgNotFound(p.Org))
	}
	if org.Admin != ctx.Caller {
		return types.Fail(errNonAuthorized())
	}
	if !org.Approved {
		return types.Fail(errUnapprovedOrg(p.Org))
	}
	for tag, values := range p.Tags {
		if err := validateTagSet(tag, values); err != nil {
			return types.Fail(err)
		}
	}
	if err := store.userTags.Set(userTagKey{Org: p.Org, User: p.User}, p.Tags); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	s.Emit("UpdateUserTag", UpdateUserTagEvent{Org: p.Org, User: p.User, Tags: p.Tags})
	return types.Ok(nil)
}

// handleEvalUserTagExpression is a pure read: it never errors out of an
// unapproved or missing org, instead resolving every atom referencing one
// to NULL, so evaluation is stable regardless of org lifecycle state.
func handleEvalUserTagExpression(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *EvalUserTagExpressionPayload) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newKYCStore(s.Store())

	lookup := func(org, tag string) ([]string, error) {
		return store.tagValues(org, p.User, tag)
	}
	result, serr := Eval(p.Expression, lookup)
	if serr != nil {
		return types.Fail(serr)
	}
	return types.Ok(EvalUserTagExpressionResponse{Result: result})
}

// InitGenesis installs the service admin.
func InitGenesis(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, p *GenesisPayload) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)
	store := newKYCStore(s.Store())
	if err := store.admin.Set(p.Admin); err != nil {
		return types.Fail(types.NewServiceError(types.CodeInternal, "%v", err))
	}
	return types.Ok(nil)
}

// Register wires the kyc service's dispatch table.
func Register(table *dispatch.Table) {
	table.RegisterService(&dispatch.Service{
		Name: Name,
		Methods: map[string]dispatch.Method{
			"register_org":             dispatch.NewMethod(dispatch.Write, 120, handleRegisterOrg),
			"update_supported_tags":    dispatch.NewMethod(dispatch.Write, 60, handleUpdateSupportedTags),
			"change_org_approved":      dispatch.NewMethod(dispatch.Write, 60, handleChangeOrgApproved),
			"change_org_admin":         dispatch.NewMethod(dispatch.Write, 60, handleChangeOrgAdmin),
			"update_user_tags":         dispatch.NewMethod(dispatch.Write, 80, handleUpdateUserTags),
			"eval_user_tag_expression": dispatch.NewMethod(dispatch.Read, 40, handleEvalUserTagExpression),
		},
		InitGenesis: dispatch.NewGenesisHook(InitGenesis),
	})
}
