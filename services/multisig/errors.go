package multisig

import "servicechain/types"

// Error codes: multisig occupies the 601-602 range.
const (
	CodeMissingSignature uint64 = 601
	CodeSignatureMismatch uint64 = 602
)

func errMissingSignature() *types.ServiceError {
	return types.NewServiceError(CodeMissingSignature, "transaction carries no signature")
}

func errSignatureMismatch(recovered, declared types.Address) *types.ServiceError {
	return types.NewServiceError(CodeSignatureMismatch, "recovered signer %s does not match declared sender %s", recovered.Hex(), declared.Hex())
}
