package multisig

import (
	"servicechain/dispatch"
	"servicechain/state"
	"servicechain/types"
)

// handleVerifySignature recovers the secp256k1 signer from tx's R/S/V and
// checks it equals the transaction's declared sender. It is read-only: the
// service holds no state of its own.
func handleVerifySignature(layer *state.Layer, ctx *types.ServiceContext, table *dispatch.Table, tx *types.Transaction) types.ServiceResponse {
	if tx.R == nil || tx.S == nil || tx.V == nil {
		return types.Fail(errMissingSignature())
	}
	recovered, err := tx.RecoverSigner()
	if err != nil {
		return types.Fail(errMissingSignature())
	}
	if recovered != tx.Sender {
		return types.Fail(errSignatureMismatch(recovered, tx.Sender))
	}
	return types.Ok(VerifySignatureResponse{})
}

// Register wires the multisig service's dispatch table.
func Register(table *dispatch.Table) {
	table.RegisterService(&dispatch.Service{
		Name: Name,
		Methods: map[string]dispatch.Method{
			"verify_signature": dispatch.NewMethod(dispatch.Read, 50, handleVerifySignature),
		},
	})
}
