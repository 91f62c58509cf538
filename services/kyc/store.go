package kyc

import (
	"bytes"

	"servicechain/state"
	"servicechain/types"
)

func encodeAddressKey(a types.Address) []byte { return a.Bytes() }
func decodeAddressKey(b []byte) types.Address { return types.BytesToAddress(b) }

func encodeOrgKey(name string) []byte { return []byte(name) }
func decodeOrgKey(b []byte) string    { return string(b) }

func encodeUserTagKey(k userTagKey) []byte {
	return append([]byte(k.Org+"/"), k.User.Bytes()...)
}

func decodeUserTagKey(b []byte) userTagKey {
	idx := bytes.LastIndexByte(b, '/')
	if idx < 0 {
		return userTagKey{}
	}
	return userTagKey{Org: string(b[:idx]), User: types.BytesToAddress(b[idx+1:])}
}

// kycStore bundles the service's own admin cell, the org registry, and the
// (org, user) -> (tag name -> value set) assignment map.
type kycStore struct {
	admin    *state.Value[types.Address]
	orgs     *state.Map[string, Org]
	userTags *state.Map[userTagKey, map[string][]string]
}

func newKYCStore(store *state.Store) *kycStore {
	return &kycStore{
		admin:    state.NewValueCell[types.Address](store, "admin"),
		orgs:     state.NewMap[string, Org](store, "orgs", encodeOrgKey, decodeOrgKey),
		userTags: state.NewMap[userTagKey, map[string][]string](store, "user_tags", encodeUserTagKey, decodeUserTagKey),
	}
}

// tagValues returns the recorded value set for (org, user, tag), defaulting
// to {NULL} when no record exists for that org/user pair or that specific
// tag within it (spec.md §4.6: evaluation is stable even against
// unregistered users or tags).
func (s *kycStore) tagValues(org string, user types.Address, tag string) ([]string, error) {
	record, ok, err := s.userTags.Get(userTagKey{Org: org, User: user})
	if err != nil {
		return nil, err
	}
	if !ok {
		return []string{NullValue}, nil
	}
	values, ok := record[tag]
	if !ok || len(values) == 0 {
		return []string{NullValue}, nil
	}
	return values, nil
}
