package riscv

import (
	"encoding/hex"

	"servicechain/state"
	"servicechain/types"
)

func encodeAddressKey(a types.Address) []byte { return a.Bytes() }
func decodeAddressKey(b []byte) types.Address { return types.BytesToAddress(b) }

func encodeHashKey(h types.Hash) []byte { return h.Bytes() }
func decodeHashKey(b []byte) types.Hash { return types.BytesToHash(b) }

// storageKey identifies one contract's single storage cell.
type storageKey struct {
	Address types.Address
	Key     string
}

func encodeStorageKey(k storageKey) []byte {
	return append(append([]byte{}, k.Address.Bytes()...), []byte(k.Key)...)
}

func decodeStorageKey(b []byte) storageKey {
	if len(b) < types.AddressLength {
		return storageKey{}
	}
	return storageKey{Address: types.BytesToAddress(b[:types.AddressLength]), Key: string(b[types.AddressLength:])}
}

// riscvStore bundles every piece of the service's own state: the
// authorization-mode flags and admin set, the two authorization tables,
// the code/contract registries, and per-contract storage.
type riscvStore struct {
	deployAuthEnabled   *state.Bool
	contractAuthEnabled *state.Bool
	admins              *state.Map[types.Address, bool]
	deployAuth          *state.Map[types.Address, types.Address]
	contractAuth        *state.Map[types.Address, types.Address]
	code                *state.Map[types.Hash, []byte]
	contracts           *state.Map[types.Address, Contract]
	storage             *state.Map[storageKey, []byte]
}

func newRISCVStore(store *state.Store) *riscvStore {
	return &riscvStore{
		deployAuthEnabled:   state.NewBoolCell(store, "deploy_auth_enabled"),
		contractAuthEnabled: state.NewBoolCell(store, "contract_auth_enabled"),
		admins:              state.NewMap[types.Address, bool](store, "admins", encodeAddressKey, decodeAddressKey),
		deployAuth:          state.NewMap[types.Address, types.Address](store, "deploy_auth", encodeAddressKey, decodeAddressKey),
		contractAuth:        state.NewMap[types.Address, types.Address](store, "contract_auth", encodeAddressKey, decodeAddressKey),
		code:                state.NewMap[types.Hash, []byte](store, "code", encodeHashKey, decodeHashKey),
		contracts:           state.NewMap[types.Address, Contract](store, "contracts", encodeAddressKey, decodeAddressKey),
		storage:             state.NewMap[storageKey, []byte](store, "storage", encodeStorageKey, decodeStorageKey),
	}
}

func (s *riscvStore) isAdmin(addr types.Address) (bool, error) {
	ok, _, err := s.admins.Get(addr)
	return ok, err
}

// storageDump collects every (key, value) this contract currently has set,
// for get_contract's display. Iteration is over the whole storage map's
// insertion-order index, filtered by address; acceptable for the bundled
// example contracts' modest storage footprints.
func (s *riscvStore) storageDump(addr types.Address) (map[string]string, error) {
	out := make(map[string]string)
	err := s.storage.Iterate(func(k storageKey, v []byte) error {
		if k.Address == addr {
			out[hex.EncodeToString([]byte(k.Key))] = hex.EncodeToString(v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
