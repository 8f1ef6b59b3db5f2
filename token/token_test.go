package token

import (
	"math"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/db/metadb"
)

var (
	testMint  = common.HexToAddress("0xaa")
	otherMint = common.HexToAddress("0xab")
	alice     = common.HexToAddress("0x01")
	bob       = common.HexToAddress("0x02")
)

func TestMintAndBalance(t *testing.T) {
	c := qt.New(t)
	l := NewLedger(metadb.NewTest(t))

	balance, err := l.Balance(testMint, alice)
	c.Assert(err, qt.IsNil)
	c.Assert(balance, qt.Equals, uint64(0))

	c.Assert(l.Mint(testMint, alice, 500), qt.IsNil)
	c.Assert(l.Mint(testMint, alice, 500), qt.IsNil)

	balance, err = l.Balance(testMint, alice)
	c.Assert(err, qt.IsNil)
	c.Assert(balance, qt.Equals, uint64(1000))

	// other mints are independent
	balance, err = l.Balance(otherMint, alice)
	c.Assert(err, qt.IsNil)
	c.Assert(balance, qt.Equals, uint64(0))
}

func TestTransfer(t *testing.T) {
	c := qt.New(t)
	database := metadb.NewTest(t)
	l := NewLedger(database)
	c.Assert(l.Mint(testMint, alice, 1000), qt.IsNil)

	wtx := database.WriteTx()
	c.Assert(l.Transfer(wtx, testMint, alice, bob, 300), qt.IsNil)
	// the second transfer sees the first one's debit
	c.Assert(l.Transfer(wtx, testMint, alice, bob, 700), qt.IsNil)
	c.Assert(l.Transfer(wtx, testMint, alice, bob, 1), qt.ErrorIs, ErrInsufficientBalance)
	c.Assert(wtx.Commit(), qt.IsNil)

	balance, err := l.Balance(testMint, bob)
	c.Assert(err, qt.IsNil)
	c.Assert(balance, qt.Equals, uint64(1000))
}

func TestTransferDiscard(t *testing.T) {
	c := qt.New(t)
	database := metadb.NewTest(t)
	l := NewLedger(database)
	c.Assert(l.Mint(testMint, alice, 100), qt.IsNil)

	wtx := database.WriteTx()
	c.Assert(l.Transfer(wtx, testMint, alice, bob, 100), qt.IsNil)
	wtx.Discard()

	balance, err := l.Balance(testMint, alice)
	c.Assert(err, qt.IsNil)
	c.Assert(balance, qt.Equals, uint64(100))
}

func TestTransferOverflowAndZero(t *testing.T) {
	c := qt.New(t)
	database := metadb.NewTest(t)
	l := NewLedger(database)
	c.Assert(l.Mint(testMint, alice, 10), qt.IsNil)
	c.Assert(l.Mint(testMint, bob, math.MaxUint64), qt.IsNil)

	wtx := database.WriteTx()
	defer wtx.Discard()
	c.Assert(l.Transfer(wtx, testMint, alice, bob, 1), qt.ErrorIs, ErrBalanceOverflow)
	c.Assert(l.Transfer(wtx, testMint, alice, bob, 0), qt.IsNil)
	c.Assert(l.Transfer(wtx, testMint, alice, alice, 5), qt.IsNil)

	c.Assert(l.Mint(testMint, bob, 1), qt.ErrorIs, ErrBalanceOverflow)
}
