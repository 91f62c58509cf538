package state

import (
	"servicechain/storage/trie"
)

// Manager owns the block's trie and hands out transaction-scoped Layers. It
// is the runtime's "state pinned at state_root" handle from spec.md §4.3.
type Manager struct {
	tr     *trie.Trie
	height uint64
}

// NewManager opens a Manager over tr for the block at height.
func NewManager(tr *trie.Trie, height uint64) *Manager {
	return &Manager{tr: tr, height: height}
}

// NewTxLayer opens a fresh snapshot for one transaction, reading through to
// the trie as committed so far this block.
func (m *Manager) NewTxLayer() *Layer {
	return NewLayer(NewRoot(m.tr))
}

// CommitTx folds a transaction's layer straight into the trie and returns
// the new state root. The runtime calls it for the block-hook and genesis
// layers and for every transaction that passes authorization, including
// one whose pledge or user method failed: a failed step's own child layer
// has already been discarded, so only what succeeded is committed. A
// layer that is not committed is simply dropped.
func (m *Manager) CommitTx(l *Layer) ([32]byte, error) {
	root := &Root{tr: m.tr}
	parent := m.tr.Root()
	newRoot, err := root.commitLayer(l, parent, m.height)
	if err != nil {
		return [32]byte{}, err
	}
	return newRoot, nil
}

// Root returns the trie's current committed root hash.
func (m *Manager) Root() [32]byte {
	return m.tr.Root()
}
