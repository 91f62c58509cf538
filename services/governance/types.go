// Package governance implements the admin policy, fee schedule, and
// per-transaction fee pledge/settle hooks described in spec.md §4.5: it
// charges every transaction a flat tx_failure_fee up front (pledge_fee),
// then reconciles against the transaction's actual accumulated profit and
// discount tier once the transaction body has run (deduct_fee).
package governance

import "servicechain/types"

// Name is the service's dispatch table name and store prefix.
const Name = "governance"

// million is calc_tx_fee's fixed-point divisor (spec.md §4.5:
// "profit_deduct_rate_per_million").
const million = 1_000_000

// hundred is calc_discount_fee's percent divisor.
const hundred = 100

// DiscountLevel is one rung of the fee-discount schedule, sorted ascending
// by Threshold in GovernanceInfo.TxFeeDiscount.
type DiscountLevel struct {
	Threshold       uint64 `json:"threshold"`
	DiscountPercent uint64 `json:"discount_percent"`
}

// GovernanceInfo is the service's single policy record.
type GovernanceInfo struct {
	Admin                      types.Address   `json:"admin"`
	TxFailureFee               uint64          `json:"tx_failure_fee"`
	TxFloorFee                 uint64          `json:"tx_floor_fee"`
	ProfitDeductRatePerMillion uint64          `json:"profit_deduct_rate_per_million"`
	MinerBenefit               uint64          `json:"miner_benefit"`
	TxFeeDiscount              []DiscountLevel `json:"tx_fee_discount"`
}

// AccumulateProfitPayload is accumulate_profit's parameter type.
type AccumulateProfitPayload struct {
	Address           types.Address `json:"address"`
	AccumulatedProfit uint64        `json:"accumulated_profit"`
}

// SetAdminPayload is set_admin's parameter type.
type SetAdminPayload struct {
	NewAdmin types.Address `json:"new_admin"`
}

// SetGovernInfoPayload is set_govern_info's parameter type; it replaces
// every field of GovernanceInfo except Admin (changed only via set_admin).
type SetGovernInfoPayload struct {
	TxFailureFee               uint64          `json:"tx_failure_fee"`
	TxFloorFee                 uint64          `json:"tx_floor_fee"`
	ProfitDeductRatePerMillion uint64          `json:"profit_deduct_rate_per_million"`
	MinerBenefit               uint64          `json:"miner_benefit"`
	TxFeeDiscount              []DiscountLevel `json:"tx_fee_discount"`
}

// SetMinerPayload is set_miner's parameter type: the payout address a given
// block proposer wants credited.
type SetMinerPayload struct {
	Proposer types.Address `json:"proposer"`
	Payee    types.Address `json:"payee"`
}

// GenesisPayload seeds the genesis GovernanceInfo.
type GenesisPayload struct {
	Info GovernanceInfo `json:"info"`
}

// Event payloads.
type RecordProfitEvent struct {
	Address           types.Address `json:"address"`
	AccumulatedProfit uint64        `json:"accumulated_profit"`
}

type ConsumedTxFeeEvent struct {
	Caller types.Address `json:"caller"`
	Miner  types.Address `json:"miner"`
	Amount uint64        `json:"amount"`
}

type SetAdminEvent struct {
	NewAdmin types.Address `json:"new_admin"`
}

type SetGovernInfoEvent struct {
	Info GovernanceInfo `json:"info"`
}

type SetMinerEvent struct {
	Proposer types.Address `json:"proposer"`
	Payee    types.Address `json:"payee"`
}
