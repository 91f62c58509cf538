package asset

import (
	"regexp"

	"servicechain/types"
)

// Asset is the native fungible-token record (spec.md §3).
type Asset struct {
	ID        types.Hash
	Name      string
	Symbol    string
	Supply    uint64
	Precision uint64
	Issuers   []types.Address
	Relayable bool
}

var nameRe = regexp.MustCompile(`^[A-Za-z0-9_ ]{1,40}$`)
var symbolRe = regexp.MustCompile(`^[A-Za-z0-9]{1,10}$`)

// ValidateName enforces spec.md §3's asset-name invariants: 1-40 chars
// matching [A-Za-z0-9_ ], first char alphanumeric, last char not '_'/space.
func ValidateName(name string) bool {
	if !nameRe.MatchString(name) {
		return false
	}
	first := name[0]
	if !(first >= '0' && first <= '9' || first >= 'A' && first <= 'Z' || first >= 'a' && first <= 'z') {
		return false
	}
	last := name[len(name)-1]
	return last != '_' && last != ' '
}

// ValidateSymbol enforces spec.md §3's symbol invariants: 1-10 ascii
// alphanumeric, first char uppercase.
func ValidateSymbol(symbol string) bool {
	if !symbolRe.MatchString(symbol) {
		return false
	}
	return symbol[0] >= 'A' && symbol[0] <= 'Z'
}

// CreateAssetPayload is the parameter type for create_asset.
type CreateAssetPayload struct {
	Name      string `json:"name"`
	Symbol    string `json:"symbol"`
	Supply    uint64 `json:"supply"`
	Precision uint64 `json:"precision"`
	Relayable bool   `json:"relayable"`
}

// TransferPayload is the parameter type for transfer.
type TransferPayload struct {
	AssetID types.Hash    `json:"asset_id"`
	To      types.Address `json:"to"`
	Value   uint64        `json:"value"`
	Memo    string        `json:"memo"`
}

// ApprovePayload is the parameter type for approve.
type ApprovePayload struct {
	AssetID types.Hash    `json:"asset_id"`
	Spender types.Address `json:"spender"`
	Value   uint64        `json:"value"`
}

// TransferFromPayload is the parameter type for transfer_from and
// hook_transfer_from.
type TransferFromPayload struct {
	AssetID types.Hash    `json:"asset_id"`
	Sender  types.Address `json:"sender"`
	To      types.Address `json:"to"`
	Value   uint64        `json:"value"`
}

// MintPayload is the parameter type for mint.
type MintPayload struct {
	AssetID types.Hash    `json:"asset_id"`
	To      types.Address `json:"to"`
	Value   uint64        `json:"value"`
}

// BurnPayload is the parameter type for burn.
type BurnPayload struct {
	AssetID types.Hash    `json:"asset_id"`
	From    types.Address `json:"from"`
	Value   uint64        `json:"value"`
}

// RelayPayload is the parameter type for relay.
type RelayPayload struct {
	AssetID types.Hash `json:"asset_id"`
	Value   uint64     `json:"value"`
}

// GetBalancePayload is the parameter type for get_balance.
type GetBalancePayload struct {
	AssetID types.Hash    `json:"asset_id"`
	User    types.Address `json:"user"`
}

// GetBalanceResponse is get_balance's result payload.
type GetBalanceResponse struct {
	Balance uint64 `json:"balance"`
}

// GetAllowancePayload is the parameter type for get_allowance.
type GetAllowancePayload struct {
	AssetID types.Hash    `json:"asset_id"`
	Owner   types.Address `json:"owner"`
	Spender types.Address `json:"spender"`
}

// GetAllowanceResponse is get_allowance's result payload.
type GetAllowanceResponse struct {
	Allowance uint64 `json:"allowance"`
}

// GetAssetPayload is the parameter type for get_asset.
type GetAssetPayload struct {
	AssetID types.Hash `json:"asset_id"`
}

// Event payloads, matching the well-known event names in spec.md §6.
type CreateAssetEvent struct {
	AssetID types.Hash    `json:"asset_id"`
	Creator types.Address `json:"creator"`
	Supply  uint64        `json:"supply"`
}

type TransferAssetEvent struct {
	AssetID types.Hash    `json:"asset_id"`
	From    types.Address `json:"from"`
	To      types.Address `json:"to"`
	Value   uint64        `json:"value"`
}

type ApproveAssetEvent struct {
	AssetID types.Hash    `json:"asset_id"`
	Owner   types.Address `json:"owner"`
	Spender types.Address `json:"spender"`
	Value   uint64        `json:"value"`
}

type TransferFromEvent struct {
	AssetID types.Hash    `json:"asset_id"`
	Sender  types.Address `json:"sender"`
	To      types.Address `json:"to"`
	Value   uint64        `json:"value"`
}

type MintAssetEvent struct {
	AssetID types.Hash    `json:"asset_id"`
	To      types.Address `json:"to"`
	Value   uint64        `json:"value"`
}

type BurnAssetEvent struct {
	AssetID types.Hash    `json:"asset_id"`
	From    types.Address `json:"from"`
	Value   uint64        `json:"value"`
}

type RelayAssetEvent struct {
	AssetID types.Hash    `json:"asset_id"`
	From    types.Address `json:"from"`
	Value   uint64        `json:"value"`
}
