package runtime

import "servicechain/types"

// Receipt is one transaction's outward record. It gains Height and TxHash
// beyond spec.md §4.3 step 5's (cycles_used, response, events) tuple for log
// correlation, mirroring the teacher's core/types receipt/event envelope.
type Receipt struct {
	Height     uint64                `json:"height"`
	TxHash     types.Hash            `json:"tx_hash"`
	CyclesUsed uint64                `json:"cycles_used"`
	Response   types.ServiceResponse `json:"response"`
	Events     []types.Event         `json:"events"`
}
