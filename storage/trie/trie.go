// Package trie wraps go-ethereum's Merkle-Patricia trie so the state layer
// has a content-addressed key/value map with snapshot/commit semantics,
// without pulling the disk-persistence and trie-codec concerns that
// spec.md §1 explicitly keeps external to this core (the host owns durable
// storage; this wrapper only needs to produce a deterministic root hash
// reproducibly within one process run, mirroring core/txroot.go's use of an
// in-memory ethdb.Database).
package trie

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	gethtrie "github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/trie/trienode"
	"github.com/ethereum/go-ethereum/triedb"
)

// Trie is a content-addressed key/value map supporting Get/Update plus
// snapshot-style Copy/Reset and a Commit that produces a new root hash. Keys
// passed to Get/Update are expected to already be hashed (the state layer
// always stores under keccak256(prefix || key)).
//
// Trie is not safe for concurrent use; the runtime is single-threaded
// cooperative per block (spec.md §5).
type Trie struct {
	db     ethdb.Database
	trieDB *triedb.Database
	trie   *gethtrie.Trie
	root   common.Hash
}

// New creates a trie over a fresh in-memory backing store rooted at root (the
// zero hash denotes the empty trie).
func New(root []byte) (*Trie, error) {
	db := rawdb.NewDatabase(memorydb.New())
	trieDB := triedb.NewDatabase(db, triedb.HashDefaults)
	rootHash := gethtypes.EmptyRootHash
	if len(root) > 0 {
		rootHash = common.BytesToHash(root)
	}
	underlying, err := gethtrie.New(gethtrie.TrieID(rootHash), trieDB)
	if err != nil {
		return nil, err
	}
	return &Trie{db: db, trieDB: trieDB, trie: underlying, root: rootHash}, nil
}

// Get retrieves a value from the trie for the provided key.
func (t *Trie) Get(key []byte) ([]byte, error) {
	return t.trie.Get(key)
}

// Update inserts, updates, or (when value is empty) deletes a key.
func (t *Trie) Update(key, value []byte) error {
	if len(value) == 0 {
		return t.trie.Delete(key)
	}
	return t.trie.Update(key, value)
}

// Hash returns the root hash reflecting all in-memory mutations made so far,
// without persisting them.
func (t *Trie) Hash() common.Hash {
	return t.trie.Hash()
}

// Root returns the last committed root hash.
func (t *Trie) Root() common.Hash {
	return t.root
}

// Copy returns an independent trie sharing the same backing database:
// mutations made through the copy do not change t.
func (t *Trie) Copy() *Trie {
	return &Trie{db: t.db, trieDB: t.trieDB, trie: t.trie.Copy(), root: t.root}
}

// Reset discards in-memory mutations and reloads the trie at root.
func (t *Trie) Reset(root common.Hash) error {
	underlying, err := gethtrie.New(gethtrie.TrieID(root), t.trieDB)
	if err != nil {
		return err
	}
	t.trie = underlying
	t.root = root
	return nil
}

// Commit persists pending mutations and returns the new root hash. The
// wrapper recreates its underlying trie afterwards so the instance keeps
// being usable for the next block.
func (t *Trie) Commit(parent common.Hash, blockNumber uint64) (common.Hash, error) {
	newRoot, nodes := t.trie.Commit(false)
	if nodes != nil {
		merged := trienode.NewMergedNodeSet()
		if err := merged.Merge(nodes); err != nil {
			return common.Hash{}, err
		}
		if err := t.trieDB.Update(newRoot, parent, blockNumber, merged, nil); err != nil {
			return common.Hash{}, err
		}
		if err := t.trieDB.Commit(newRoot, false); err != nil {
			return common.Hash{}, err
		}
	}
	underlying, err := gethtrie.New(gethtrie.TrieID(newRoot), t.trieDB)
	if err != nil {
		return common.Hash{}, err
	}
	t.trie = underlying
	t.root = newRoot
	return newRoot, nil
}
