package state

import (
	"encoding/binary"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/ethereum/go-ethereum/common"
	"github.com/veilpay/veilpay-go/inputs"
	"github.com/veilpay/veilpay-go/types"
)

func root(i uint32) types.HexBytes {
	r := make(types.HexBytes, types.HashLen)
	binary.BigEndian.PutUint32(r[types.HashLen-4:], i)
	r[0] = 0x01 // keep distinct from the all-zero word
	return r
}

func TestAppendRootWindow(t *testing.T) {
	c := qt.New(t)
	s := NewShielded(common.Address{}, inputs.LayoutV2)

	c.Assert(s.RootKnown(types.EmptyStateRoot), qt.IsTrue)

	// append 33 distinct roots; the first must fall out of the window
	for i := uint32(1); i <= 33; i++ {
		c.Assert(s.AppendRoot(root(i)), qt.IsNil)
	}
	c.Assert(s.MerkleRoot.Equal(root(33)), qt.IsTrue)
	c.Assert(len(s.RootHistory), qt.Equals, types.MaxRootHistory)

	c.Assert(s.RootKnown(root(1)), qt.IsFalse)
	for i := uint32(2); i <= 33; i++ {
		c.Assert(s.RootKnown(root(i)), qt.IsTrue, qt.Commentf("root %d", i))
	}

	// the cursor wraps: appending again evicts the next-oldest entry
	c.Assert(s.AppendRoot(root(34)), qt.IsNil)
	c.Assert(s.RootKnown(root(2)), qt.IsFalse)
	c.Assert(s.RootKnown(root(34)), qt.IsTrue)

	c.Assert(s.AppendRoot(root(1)[:16]), qt.Equals, ErrInvalidRoot)
}

func TestRootKnownUnknown(t *testing.T) {
	c := qt.New(t)
	s := NewShielded(common.Address{}, inputs.LayoutV2)
	c.Assert(s.RootKnown(root(99)), qt.IsFalse)
	c.Assert(s.AppendRoot(root(1)), qt.IsNil)
	c.Assert(s.RootKnown(root(1)), qt.IsTrue)
	// the initial empty root was never appended, so it is forgotten
	c.Assert(s.RootKnown(types.EmptyStateRoot), qt.IsFalse)
}

func TestIdentityRegistry(t *testing.T) {
	c := qt.New(t)
	r := NewIdentityRegistry()
	c.Assert(r.MerkleRoot.Equal(types.EmptyStateRoot), qt.IsTrue)

	c.Assert(r.Register(root(1), root(2)), qt.IsNil)
	c.Assert(r.CommitmentCount, qt.Equals, uint64(1))
	c.Assert(r.MerkleRoot.Equal(root(2)), qt.IsTrue)

	c.Assert(r.Register(root(1)[:8], root(2)), qt.Equals, ErrInvalidRoot)
}
