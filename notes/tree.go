// Package notes maintains the off-ledger commitment tree mirror. The
// protocol core treats Merkle roots as opaque 32-byte values supplied with
// each operation; this tree is what a prover-side deployment uses to
// append note commitments and derive those roots.
package notes

import (
	"fmt"
	"math/big"

	"github.com/vocdoni/arbo"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/veilpay/veilpay-go/types"
)

const (
	// MaxLevels is the depth of the commitment tree.
	MaxLevels = 160
	// maxKeyLen is ceil(MaxLevels/8).
	maxKeyLen = (MaxLevels + 7) / 8
)

// Tree is an append-only Merkle tree of note commitments.
type Tree struct {
	tree  *arbo.Tree
	count uint64
}

// New opens (or creates) the commitment tree of one mint inside the passed
// database, prefixed so several mints can share it.
func New(database db.Database, prefix []byte) (*Tree, error) {
	pdb := prefixeddb.NewPrefixedDatabase(database, prefix)
	tree, err := arbo.NewTree(arbo.Config{
		Database:     pdb,
		MaxLevels:    MaxLevels,
		HashFunction: arbo.HashFunctionPoseidon,
	})
	if err != nil {
		return nil, fmt.Errorf("open commitment tree: %w", err)
	}
	nLeafs, err := tree.GetNLeafs()
	if err != nil {
		return nil, fmt.Errorf("count commitment leaves: %w", err)
	}
	return &Tree{tree: tree, count: uint64(nLeafs)}, nil
}

// Add appends a commitment at the next leaf index and returns the new
// root.
func (t *Tree) Add(commitment types.HexBytes) (types.HexBytes, error) {
	if len(commitment) != types.HashLen {
		return nil, fmt.Errorf("commitment must be %d bytes", types.HashLen)
	}
	key := arbo.BigIntToBytes(maxKeyLen, new(big.Int).SetUint64(t.count))
	if err := t.tree.Add(key, commitment); err != nil {
		return nil, fmt.Errorf("add commitment %d: %w", t.count, err)
	}
	t.count++
	return t.Root()
}

// Root returns the current tree root.
func (t *Tree) Root() (types.HexBytes, error) {
	root, err := t.tree.Root()
	if err != nil {
		return nil, err
	}
	return root, nil
}

// Count returns the number of commitments appended.
func (t *Tree) Count() uint64 {
	return t.count
}
