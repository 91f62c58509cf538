package governance

import (
	"servicechain/state"
	"servicechain/types"
)

func encodeAddressKey(a types.Address) []byte { return a.Bytes() }
func decodeAddressKey(b []byte) types.Address { return types.BytesToAddress(b) }

// governanceStore bundles the service's own state: its policy record, the
// per-address profit accumulator, the proposer-to-payee miner map, and the
// current block's cached miner payout address.
type governanceStore struct {
	info          *state.Value[GovernanceInfo]
	profits       *state.Map[types.Address, uint64]
	miners        *state.Map[types.Address, types.Address]
	currentMiner  *state.Value[types.Address]
}

func newGovernanceStore(store *state.Store) *governanceStore {
	return &governanceStore{
		info:         state.NewValueCell[GovernanceInfo](store, "info"),
		profits:      state.NewMap[types.Address, uint64](store, "profits", encodeAddressKey, decodeAddressKey),
		miners:       state.NewMap[types.Address, types.Address](store, "miners", encodeAddressKey, decodeAddressKey),
		currentMiner: state.NewValueCell[types.Address](store, "current_miner"),
	}
}

// profitOf returns the address's accumulated profit, defaulting to 0.
func (s *governanceStore) profitOf(addr types.Address) (uint64, error) {
	v, ok, err := s.profits.Get(addr)
	if err != nil || !ok {
		return 0, err
	}
	return v, nil
}

// sumAndResetProfits sums every currently-recorded profit and resets each
// entry to zero (spec.md §4.5: "profit = sum over all current profits[];
// reset each entry to 0").
func (s *governanceStore) sumAndResetProfits() (uint64, error) {
	keys, err := s.profits.Keys()
	if err != nil {
		return 0, err
	}
	var sum uint64
	for _, k := range keys {
		v, ok, err := s.profits.Get(k)
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}
		sum += v
		if err := s.profits.Set(k, 0); err != nil {
			return 0, err
		}
	}
	return sum, nil
}
