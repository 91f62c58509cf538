package admission

import (
	"servicechain/state"
	"servicechain/types"
)

func encodeAddressKey(a types.Address) []byte   { return a.Bytes() }
func decodeAddressKey(b []byte) types.Address   { return types.BytesToAddress(b) }

// admissionStore bundles the service's own state: its admin cell and the
// deny-list, modeled as a map to bool so membership tests double as a set
// (spec.md §3: "Admission deny-list: set<Address>").
type admissionStore struct {
	admin    *state.Value[types.Address]
	denyList *state.Map[types.Address, bool]
}

func newAdmissionStore(store *state.Store) *admissionStore {
	return &admissionStore{
		admin:    state.NewValueCell[types.Address](store, "admin"),
		denyList: state.NewMap[types.Address, bool](store, "deny_list", encodeAddressKey, decodeAddressKey),
	}
}

func (s *admissionStore) isDenied(addr types.Address) (bool, error) {
	denied, ok, err := s.denyList.Get(addr)
	if err != nil || !ok {
		return false, err
	}
	return denied, nil
}
