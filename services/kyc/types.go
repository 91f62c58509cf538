// Package kyc implements the organization/tag store and boolean
// tag-expression evaluator described in spec.md §4.6: an org records which
// tags it supports and which addresses (approved by its own admin) carry
// which tag values, and a small expression language lets a caller ask
// "does user U satisfy org.tag@`value`, combined with &&/||/!".
package kyc

import "servicechain/types"

// Name is the service's dispatch table name and store prefix.
const Name = "kyc"

// NullValue is the reserved sentinel a tag's recorded value set implicitly
// holds when no record exists; it may never appear in a recorded set.
const NullValue = "NULL"

// KYCInfo is the service-wide admin record (distinct from any individual
// org's own admin).
type KYCInfo struct {
	Admin types.Address `json:"admin"`
}

// Org is one registered organization.
type Org struct {
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Admin         types.Address `json:"admin"`
	SupportedTags []string      `json:"supported_tags"`
	Approved      bool          `json:"approved"`
}

// userTagKey identifies one (org, user) tag-assignment record.
type userTagKey struct {
	Org  string
	User types.Address
}

// RegisterOrgPayload is register_org's parameter type.
type RegisterOrgPayload struct {
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Admin         types.Address `json:"admin"`
	SupportedTags []string      `json:"supported_tags"`
}

// UpdateSupportedTagPayload is update_supported_tags' parameter type.
type UpdateSupportedTagPayload struct {
	Org           string   `json:"org"`
	SupportedTags []string `json:"supported_tags"`
}

// ChangeOrgApprovedPayload is change_org_approved's parameter type.
type ChangeOrgApprovedPayload struct {
	Org      string `json:"org"`
	Approved bool   `json:"approved"`
}

// ChangeOrgAdminPayload is change_org_admin's parameter type.
type ChangeOrgAdminPayload struct {
	Org      string        `json:"org"`
	NewAdmin types.Address `json:"new_admin"`
}

// UpdateUserTagsPayload is update_user_tags' parameter type: tags maps tag
// name to its recorded value set (1-6 values, NULL excluded).
type UpdateUserTagsPayload struct {
	Org  string              `json:"org"`
	User types.Address       `json:"user"`
	Tags map[string][]string `json:"tags"`
}

// EvalUserTagExpressionPayload is eval_user_tag_expression's parameter
// type.
type EvalUserTagExpressionPayload struct {
	User       types.Address `json:"user"`
	Expression string        `json:"expression"`
}

// EvalUserTagExpressionResponse carries the evaluator's boolean result.
type EvalUserTagExpressionResponse struct {
	Result bool `json:"result"`
}

// GenesisPayload seeds the service admin.
type GenesisPayload struct {
	Admin types.Address `json:"admin"`
}

// Event payloads, matching the well-known event names in spec.md §6.
type RegisterOrgEvent struct {
	Org Org `json:"org"`
}

type UpdateUserTagEvent struct {
	Org  string              `json:"org"`
	User types.Address       `json:"user"`
	Tags map[string][]string `json:"tags"`
}

type UpdateSupportedTagEvent struct {
	Org           string   `json:"org"`
	SupportedTags []string `json:"supported_tags"`
}

type ChangeOrgApprovedEvent struct {
	Org      string `json:"org"`
	Approved bool   `json:"approved"`
}

type ChangeOrgAdminEvent struct {
	Org      string        `json:"org"`
	NewAdmin types.Address `json:"new_admin"`
}
