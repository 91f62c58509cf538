// Package authorization composes multisig.verify_signature and
// admission.is_allowed into the single pre-execution gate the runtime's
// block driver calls before dispatching a transaction's own method
// (spec.md §4.9).
package authorization

import (
	"servicechain/dispatch"
	"servicechain/sdk"
	"servicechain/services/admission"
	"servicechain/services/multisig"
	"servicechain/state"
	"servicechain/types"
)

// Name is the service's dispatch table name.
const Name = "authorization"

// handleCheckAuthorization is read-only: neither multisig nor admission's
// reads here persist any state, and authorization itself holds none.
func handleCheckAuthorization(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, tx *types.Transaction) types.ServiceResponse {
	s := sdk.New(table, layer, ctx, Name)

	sigResp := s.Read(nil, multisig.Name, "verify_signature", tx)
	if sigResp.IsError() {
		return types.Fail(errUnauthorized(sigResp.Msg))
	}

	// admission's own (code, msg) is surfaced unchanged — e.g. a deny-listed
	// sender must still fail with admission's BlockedTx code 1003, not a
	// generic CodeUnauthorized (spec.md's S3 scenario).
	if admResp := s.Read(nil, admission.Name, "is_allowed", admission.TxPayload{Sender: tx.Sender}); admResp.IsError() {
		return admResp
	}

	return types.Ok(nil)
}

// Register wires the authorization service's dispatch table.
func Register(table *dispatch.Table) {
	table.RegisterService(&dispatch.Service{
		Name: Name,
		Methods: map[string]dispatch.Method{
			"check_authorization": dispatch.NewMethod(dispatch.Read, 100, handleCheckAuthorization),
		},
	})
}
