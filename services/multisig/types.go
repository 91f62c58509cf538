// Package multisig is the external collaborator of spec.md §4.8: it
// exposes a single verify_signature method that recovers the signer of a
// transaction's secp256k1 signature and checks it against the declared
// sender, standing in for the full threshold multi-signature math spec.md
// describes only at the interface level.
package multisig

import "servicechain/types"

// Name is the service's dispatch table name.
const Name = "multisig"

// VerifySignatureResponse carries no data beyond success/failure; it exists
// only so handlers have a concrete (possibly future-extended) type to
// return rather than a bare nil.
type VerifySignatureResponse struct{}
