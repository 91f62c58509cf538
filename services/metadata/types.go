// Package metadata implements the chain-metadata service described in
// SPEC_FULL.md §3/§4.9: validator set, block interval, and the
// propose/prevote/precommit consensus ratio, all writable only by
// governance (spec.md §4.5 invokes these as admin methods; the metadata
// service itself is restored from the original Rust source's
// services/metadata, dropped by the distillation).
package metadata

import "servicechain/types"

// Name is the service's dispatch table name and store prefix.
const Name = "metadata"

// Validator is one consensus participant's voting weight.
type Validator struct {
	Address       types.Address `json:"address"`
	ProposeWeight uint64        `json:"propose_weight"`
	VoteWeight    uint64        `json:"vote_weight"`
}

// Ratio is the consensus timing/agreement ratio triple.
type Ratio struct {
	ProposeRatio   uint64 `json:"propose_ratio"`
	PrevoteRatio   uint64 `json:"prevote_ratio"`
	PrecommitRatio uint64 `json:"precommit_ratio"`
}

// ChainMetadata is the service's single state cell.
type ChainMetadata struct {
	ChainID    types.Hash  `json:"chain_id"`
	Validators []Validator `json:"validators"`
	IntervalMs uint64      `json:"interval_ms"`
	Ratio      Ratio       `json:"ratio"`
}

// UpdateMetadataPayload replaces the whole metadata record in one call,
// mirroring the original's UpdateMetadataPayload shape.
type UpdateMetadataPayload struct {
	Validators []Validator `json:"validators"`
	IntervalMs uint64      `json:"interval_ms"`
	Ratio      Ratio       `json:"ratio"`
}

// UpdateValidatorsPayload replaces only the validator set.
type UpdateValidatorsPayload struct {
	Validators []Validator `json:"validators"`
}

// UpdateIntervalPayload replaces only the block interval.
type UpdateIntervalPayload struct {
	IntervalMs uint64 `json:"interval_ms"`
}

// UpdateRatioPayload replaces only the consensus ratio.
type UpdateRatioPayload struct {
	Ratio Ratio `json:"ratio"`
}

// UpdateMetadataEvent is emitted whenever the metadata record changes.
type UpdateMetadataEvent struct {
	Metadata ChainMetadata `json:"metadata"`
}
