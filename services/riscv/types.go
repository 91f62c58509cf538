// Package riscv implements the sandboxed contract engine of spec.md §4.10:
// deploy/call/exec dispatched against a small embedded RV64I-style VM
// (services/riscv/vm), with a syscall ABI letting a contract read/write
// its own storage and recursively invoke other services (including
// itself) through the same dispatcher.
package riscv

import "servicechain/types"

// Name is the service's dispatch table name and store prefix.
const Name = "riscv"

// Contract is one deployed contract's metadata; its code is stored
// separately, addressed by CodeHash, so identical code across multiple
// deployments is deduplicated.
type Contract struct {
	CodeHash   types.Hash     `json:"code_hash"`
	IntpType   string         `json:"intp_type"`
	Authorizer *types.Address `json:"authorizer,omitempty"`
}

// DeployPayload is deploy's parameter type. Code is hex-encoded per
// spec.md §4.10's "decode hex -> bytes; fail HexDecode on error".
type DeployPayload struct {
	Code     string `json:"code"`
	InitArgs string `json:"init_args"`
	IntpType string `json:"intp_type"`
}

// DeployResponse carries the new contract's address and its init run's
// captured return string.
type DeployResponse struct {
	Address     types.Address `json:"address"`
	ReturnValue string        `json:"return_value"`
}

// CallPayload is call/exec's shared parameter type.
type CallPayload struct {
	Address types.Address `json:"address"`
	Args    string        `json:"args"`
}

// GetContractResponse reports a contract's metadata and its current
// storage, rendered as hex key/value pairs for client display.
type GetContractResponse struct {
	CodeHash   types.Hash        `json:"code_hash"`
	IntpType   string            `json:"intp_type"`
	Authorizer *types.Address    `json:"authorizer,omitempty"`
	Storage    map[string]string `json:"storage"`
}

// GrantDeployAuthPayload/RevokeDeployAuthPayload/GrantContractAuthPayload/
// RevokeContractAuthPayload are the four admin-gated authorization-table
// write methods of spec.md §4.10.4.
type GrantDeployAuthPayload struct {
	Target types.Address `json:"target"`
}

type RevokeDeployAuthPayload struct {
	Target types.Address `json:"target"`
}

type GrantContractAuthPayload struct {
	Target types.Address `json:"target"`
}

type RevokeContractAuthPayload struct {
	Target types.Address `json:"target"`
}

// GenesisPayload seeds the authorization-mode flags and the initial admin
// set. Per spec.md §4.10.4, enabling either flag without at least one
// admin is an invalid genesis.
type GenesisPayload struct {
	DeployAuthEnabled   bool            `json:"deploy_auth_enabled"`
	ContractAuthEnabled bool            `json:"contract_auth_enabled"`
	Admins              []types.Address `json:"admins"`
}

// Event payloads, matching the well-known event names in spec.md §6.
type GrantAuthEvent struct {
	Target types.Address `json:"target"`
	Kind   string        `json:"kind"`
}

type RevokeAuthEvent struct {
	Target types.Address `json:"target"`
	Kind   string        `json:"kind"`
}

type ApproveContractEvent struct {
	Address types.Address `json:"address"`
}

type RevokeContractEvent struct {
	Address types.Address `json:"address"`
}
