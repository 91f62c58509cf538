package state

import (
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// Store scopes a Layer by a service-owned prefix (spec.md §4.1: "(a)
// value/map/bool/uint64 stores scoped by a string prefix within the
// service"). Every cell a service touches is keyed by
// keccak256(prefix ‖ "/" ‖ name [‖ "/" ‖ mapKey]), matching the trie key
// convention in spec.md §6 ("(service_prefix ‖ subname ‖ encoded_key)").
type Store struct {
	layer  *Layer
	prefix string
}

// NewStore opens a store scoped to prefix over layer.
func NewStore(layer *Layer, prefix string) *Store {
	return &Store{layer: layer, prefix: prefix}
}

// Layer exposes the underlying snapshot layer, for services that need to
// open a nested child layer for a cross-service call.
func (s *Store) Layer() *Layer {
	return s.layer
}

func (s *Store) cellKey(name string) []byte {
	return ethcrypto.Keccak256([]byte(s.prefix + "/" + name))
}

func (s *Store) mapEntryKey(name string, rawKey []byte) []byte {
	return ethcrypto.Keccak256([]byte(s.prefix+"/"+name+"/"), rawKey)
}

func (s *Store) mapIndexKey(name string) []byte {
	return ethcrypto.Keccak256([]byte(s.prefix + "/" + name + "/__index__"))
}

// Value is a single typed cell: name -> T.
type Value[T any] struct {
	store *Store
	name  string
}

// NewValueCell opens a typed cell named name within store.
func NewValueCell[T any](store *Store, name string) *Value[T] {
	return &Value[T]{store: store, name: name}
}

// Get decodes the cell's current value. The zero value and ok=false are
// returned when the cell has never been written.
func (v *Value[T]) Get() (T, bool, error) {
	var out T
	raw, ok, err := v.store.layer.Get(v.store.cellKey(v.name))
	if err != nil || !ok {
		return out, false, err
	}
	if err := rlp.DecodeBytes(raw, &out); err != nil {
		return out, false, err
	}
	return out, true, nil
}

// Set writes val into the cell.
func (v *Value[T]) Set(val T) error {
	raw, err := rlp.EncodeToBytes(val)
	if err != nil {
		return err
	}
	v.store.layer.Put(v.store.cellKey(v.name), raw)
	return nil
}

// Bool is a convenience scalar cell.
type Bool struct {
	cell *Value[bool]
}

// NewBoolCell opens a boolean cell named name within store.
func NewBoolCell(store *Store, name string) *Bool {
	return &Bool{cell: NewValueCell[bool](store, name)}
}

// Get returns the cell's current value, defaulting to false when unset.
func (b *Bool) Get() (bool, error) {
	val, _, err := b.cell.Get()
	return val, err
}

// Set writes the cell's value.
func (b *Bool) Set(val bool) error {
	return b.cell.Set(val)
}

// Uint64 is a convenience scalar cell.
type Uint64 struct {
	cell *Value[uint64]
}

// NewUint64Cell opens a uint64 cell named name within store.
func NewUint64Cell(store *Store, name string) *Uint64 {
	return &Uint64{cell: NewValueCell[uint64](store, name)}
}

// Get returns the cell's current value, defaulting to 0 when unset.
func (u *Uint64) Get() (uint64, error) {
	val, _, err := u.cell.Get()
	return val, err
}

// Set writes the cell's value.
func (u *Uint64) Set(val uint64) error {
	return u.cell.Set(val)
}

// Map is (name, key) -> value with an index enabling deterministic
// insertion-order iteration, matching spec.md §3's Map primitive. K is
// serialized via encodeKey/decodeKey rather than a constraint, so ordinary
// Go types (Address, string, composite tuples) can all be used as keys.
type Map[K any, V any] struct {
	store      *Store
	name       string
	encodeKey  func(K) []byte
	decodeKey  func([]byte) K
}

// NewMap opens a map named name within store.
func NewMap[K any, V any](store *Store, name string, encodeKey func(K) []byte, decodeKey func([]byte) K) *Map[K, V] {
	return &Map[K, V]{store: store, name: name, encodeKey: encodeKey, decodeKey: decodeKey}
}

func (m *Map[K, V]) index() ([][]byte, error) {
	raw, ok, err := m.store.layer.Get(m.store.mapIndexKey(m.name))
	if err != nil || !ok {
		return nil, err
	}
	var idx [][]byte
	if err := rlp.DecodeBytes(raw, &idx); err != nil {
		return nil, err
	}
	return idx, nil
}

func (m *Map[K, V]) setIndex(idx [][]byte) error {
	raw, err := rlp.EncodeToBytes(idx)
	if err != nil {
		return err
	}
	m.store.layer.Put(m.store.mapIndexKey(m.name), raw)
	return nil
}

// Get decodes the value stored at key.
func (m *Map[K, V]) Get(key K) (V, bool, error) {
	var out V
	rawKey := m.encodeKey(key)
	raw, ok, err := m.store.layer.Get(m.store.mapEntryKey(m.name, rawKey))
	if err != nil || !ok {
		return out, false, err
	}
	if err := rlp.DecodeBytes(raw, &out); err != nil {
		return out, false, err
	}
	return out, true, nil
}

// Has reports whether key has an entry.
func (m *Map[K, V]) Has(key K) (bool, error) {
	_, ok, err := m.Get(key)
	return ok, err
}

// Set writes value at key, adding key to the insertion-order index the
// first time it is seen.
func (m *Map[K, V]) Set(key K, value V) error {
	rawKey := m.encodeKey(key)
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.store.layer.Put(m.store.mapEntryKey(m.name, rawKey), raw)

	idx, err := m.index()
	if err != nil {
		return err
	}
	for _, k := range idx {
		if string(k) == string(rawKey) {
			return nil
		}
	}
	idx = append(idx, rawKey)
	return m.setIndex(idx)
}

// Delete removes key's entry and drops it from the insertion-order index.
func (m *Map[K, V]) Delete(key K) error {
	rawKey := m.encodeKey(key)
	m.store.layer.Delete(m.store.mapEntryKey(m.name, rawKey))

	idx, err := m.index()
	if err != nil {
		return err
	}
	next := idx[:0]
	for _, k := range idx {
		if string(k) != string(rawKey) {
			next = append(next, k)
		}
	}
	return m.setIndex(next)
}

// Keys returns the map's keys in insertion order.
func (m *Map[K, V]) Keys() ([]K, error) {
	idx, err := m.index()
	if err != nil {
		return nil, err
	}
	out := make([]K, 0, len(idx))
	for _, raw := range idx {
		out = append(out, m.decodeKey(raw))
	}
	return out, nil
}

// Iterate calls fn for every (key, value) pair in insertion order, stopping
// early if fn returns an error.
func (m *Map[K, V]) Iterate(fn func(K, V) error) error {
	keys, err := m.Keys()
	if err != nil {
		return err
	}
	for _, k := range keys {
		v, ok, err := m.Get(k)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of entries currently indexed.
func (m *Map[K, V]) Len() (int, error) {
	idx, err := m.index()
	if err != nil {
		return 0, err
	}
	return len(idx), nil
}
