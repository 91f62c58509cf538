// Package state implements the layered, snapshot/commit state model described
// in spec.md §4.1 and §4.3: every transaction runs inside a snapshot that is
// discarded unless it succeeds, and every nested SDK read/write call runs
// inside its own child snapshot layered on top of its caller's.
//
// A Layer is a journal overlay: it buffers puts/deletes in memory and only
// ever touches its parent (another Layer, or the Root backed by the trie) at
// Commit time. This generalizes the teacher's storage/trie.Trie.Copy/Commit
// pattern, which snapshots by cloning the whole Merkle trie — affordable once
// per transaction, too heavy to invoke on every nested service call.
package state

import (
	"servicechain/storage/trie"
)

// backing is anything a Layer can read through to and commit into.
type backing interface {
	get(key string) ([]byte, bool, error)
}

// Root is the bottom of the layer stack: the real, trie-backed state as of
// the start of a block.
type Root struct {
	tr *trie.Trie
}

// NewRoot wraps a trie as the bottom of the snapshot stack.
func NewRoot(tr *trie.Trie) *Root {
	return &Root{tr: tr}
}

func (r *Root) get(key string) ([]byte, bool, error) {
	v, err := r.tr.Get([]byte(key))
	if err != nil {
		return nil, false, err
	}
	if len(v) == 0 {
		return nil, false, nil
	}
	return v, true, nil
}

// commitLayer flushes a layer's journal directly into the trie and returns
// the new root hash. Manager.CommitTx calls it on each outermost layer it
// is handed.
func (r *Root) commitLayer(l *Layer, parentRoot [32]byte, blockNumber uint64) ([32]byte, error) {
	for key, entry := range l.entries {
		if entry.deleted {
			if err := r.tr.Update([]byte(key), nil); err != nil {
				return [32]byte{}, err
			}
			continue
		}
		if err := r.tr.Update([]byte(key), entry.value); err != nil {
			return [32]byte{}, err
		}
	}
	newRoot, err := r.tr.Commit(parentRoot, blockNumber)
	if err != nil {
		return [32]byte{}, err
	}
	return newRoot, nil
}

type journalEntry struct {
	value   []byte
	deleted bool
}

// Layer is a single snapshot frame: a journal of pending writes/deletes over
// a parent backing. Nothing is visible to the parent until Commit is called;
// Discard simply drops the layer.
type Layer struct {
	parent  backing
	entries map[string]journalEntry
}

// NewLayer opens a child snapshot over parent.
func NewLayer(parent backing) *Layer {
	return &Layer{parent: parent, entries: make(map[string]journalEntry)}
}

// Child opens a snapshot layered on top of l, for a nested SDK read/write
// call.
func (l *Layer) Child() *Layer {
	return NewLayer(l)
}

func (l *Layer) get(key string) ([]byte, bool, error) {
	if entry, ok := l.entries[key]; ok {
		if entry.deleted {
			return nil, false, nil
		}
		return entry.value, true, nil
	}
	return l.parent.get(key)
}

// Get returns the value stored under key, visible through this layer's
// journal and, failing that, its ancestry.
func (l *Layer) Get(key []byte) ([]byte, bool, error) {
	return l.get(string(key))
}

// Put stores value under key in this layer's journal.
func (l *Layer) Put(key, value []byte) {
	cp := make([]byte, len(value))
	copy(cp, value)
	l.entries[string(key)] = journalEntry{value: cp}
}

// Delete removes key, shadowing any value visible from a parent layer.
func (l *Layer) Delete(key []byte) {
	l.entries[string(key)] = journalEntry{deleted: true}
}

// Commit folds this layer's journal into its parent. If the parent is
// another Layer the journal entries are merged in memory; if the parent is
// the Root, Commit does nothing: such a layer reaches the trie, and a new
// root hash, only through Manager.CommitTx.
func (l *Layer) Commit() {
	switch parent := l.parent.(type) {
	case *Layer:
		for key, entry := range l.entries {
			parent.entries[key] = entry
		}
	case *Root:
		// Folded into the trie by Manager.CommitTx via Root.commitLayer;
		// nothing to do here for the in-memory view.
	}
}

// Discard drops this layer's journal without applying it anywhere. It exists
// for symmetry/readability at call sites; a Layer that simply goes out of
// scope has the same effect.
func (l *Layer) Discard() {
	l.entries = nil
}
