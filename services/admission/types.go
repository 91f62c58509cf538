// Package admission implements the deny-list and fee-solvency pre-exec
// gate described in spec.md §4.7: is_permitted (deny-list membership),
// is_valid (native-balance-vs-governance-failure-fee check), and their
// conjunction is_allowed, plus admin-gated deny-list maintenance.
package admission

import "servicechain/types"

// Name is the service's dispatch table name and store prefix.
const Name = "admission"

// TxPayload is the minimal transaction view admission needs: who is
// sending, so it can check the deny-list and the sender's native balance.
type TxPayload struct {
	Sender types.Address `json:"sender"`
}

// ForbidPayload adds an address to the deny-list.
type ForbidPayload struct {
	Target types.Address `json:"target"`
}

// PermitPayload removes an address from the deny-list.
type PermitPayload struct {
	Target types.Address `json:"target"`
}

// ChangeAdminPayload replaces the service admin.
type ChangeAdminPayload struct {
	NewAdmin types.Address `json:"new_admin"`
}

// GenesisPayload seeds the initial admin and deny-list.
type GenesisPayload struct {
	Admin    types.Address   `json:"admin"`
	DenyList []types.Address `json:"deny_list"`
}

// IsPermittedResponse is is_permitted's result.
type IsPermittedResponse struct {
	Permitted bool `json:"permitted"`
}

// IsValidResponse is is_valid's result.
type IsValidResponse struct {
	Valid bool `json:"valid"`
}

// IsAllowedResponse is is_allowed's result.
type IsAllowedResponse struct {
	Allowed bool `json:"allowed"`
}

// ForbidEvent/PermitEvent/ChangeAdminEvent are emitted by the matching
// admin write methods.
type ForbidEvent struct {
	Target types.Address `json:"target"`
}

type PermitEvent struct {
	Target types.Address `json:"target"`
}

type ChangeAdminEvent struct {
	NewAdmin types.Address `json:"new_admin"`
}
