package asset

import (
	"servicechain/state"
	"servicechain/types"
)

// Name is the service's dispatch table name and store prefix.
const Name = "asset"

// balanceKey identifies one (asset, owner) balance cell.
type balanceKey struct {
	AssetID types.Hash
	Owner   types.Address
}

func encodeBalanceKey(k balanceKey) []byte {
	out := make([]byte, 0, types.HashLength+types.AddressLength)
	out = append(out, k.AssetID[:]...)
	out = append(out, k.Owner[:]...)
	return out
}

func decodeBalanceKey(b []byte) balanceKey {
	var k balanceKey
	copy(k.AssetID[:], b[:types.HashLength])
	copy(k.Owner[:], b[types.HashLength:])
	return k
}

// allowanceKey identifies one (asset, owner, spender) allowance cell.
type allowanceKey struct {
	AssetID types.Hash
	Owner   types.Address
	Spender types.Address
}

func encodeAllowanceKey(k allowanceKey) []byte {
	out := make([]byte, 0, types.HashLength+2*types.AddressLength)
	out = append(out, k.AssetID[:]...)
	out = append(out, k.Owner[:]...)
	out = append(out, k.Spender[:]...)
	return out
}

func decodeAllowanceKey(b []byte) allowanceKey {
	var k allowanceKey
	copy(k.AssetID[:], b[:types.HashLength])
	copy(k.Owner[:], b[types.HashLength:types.HashLength+types.AddressLength])
	copy(k.Spender[:], b[types.HashLength+types.AddressLength:])
	return k
}

func encodeHashKey(h types.Hash) []byte   { return h[:] }
func decodeHashKey(b []byte) types.Hash   { return types.BytesToHash(b) }

// assetStore bundles the maps and cells the asset service owns within its
// own store prefix (spec.md §4.1 invariant: a service only ever touches its
// own store).
type assetStore struct {
	assets     *state.Map[types.Hash, Asset]
	balances   *state.Map[balanceKey, uint64]
	allowances *state.Map[allowanceKey, uint64]
	native     *state.Value[types.Hash]
}

func newAssetStore(store *state.Store) *assetStore {
	return &assetStore{
		assets:     state.NewMap[types.Hash, Asset](store, "assets", encodeHashKey, decodeHashKey),
		balances:   state.NewMap[balanceKey, uint64](store, "balances", encodeBalanceKey, decodeBalanceKey),
		allowances: state.NewMap[allowanceKey, uint64](store, "allowances", encodeAllowanceKey, decodeAllowanceKey),
		native:     state.NewValueCell[types.Hash](store, "native"),
	}
}

func (s *assetStore) balanceOf(assetID types.Hash, owner types.Address) (uint64, error) {
	v, ok, err := s.balances.Get(balanceKey{AssetID: assetID, Owner: owner})
	if err != nil || !ok {
		return 0, err
	}
	return v, nil
}

func (s *assetStore) setBalance(assetID types.Hash, owner types.Address, value uint64) error {
	return s.balances.Set(balanceKey{AssetID: assetID, Owner: owner}, value)
}

func (s *assetStore) allowanceOf(assetID types.Hash, owner, spender types.Address) (uint64, error) {
	v, ok, err := s.allowances.Get(allowanceKey{AssetID: assetID, Owner: owner, Spender: spender})
	if err != nil || !ok {
		return 0, err
	}
	return v, nil
}

func (s *assetStore) setAllowance(assetID types.Hash, owner, spender types.Address, value uint64) error {
	return s.allowances.Set(allowanceKey{AssetID: assetID, Owner: owner, Spender: spender}, value)
}
