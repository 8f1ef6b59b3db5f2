// Package token implements the custodial balance ledger the pool moves
// value through. Balances are plain u64 amounts keyed by mint and account;
// the privacy of the protocol lives in the shielded pool, not here.
package token

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/ethereum/go-ethereum/common"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

var balancePrefix = []byte("tb/")

var (
	// ErrInsufficientBalance is returned when a transfer exceeds the
	// sender's balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrBalanceOverflow is returned when a credit would overflow the
	// recipient's balance.
	ErrBalanceOverflow = errors.New("balance overflow")
)

// Ledger is the balance store of every mint.
type Ledger struct {
	db db.Database
}

// NewLedger creates a ledger over the passed database.
func NewLedger(db db.Database) *Ledger {
	return &Ledger{db: db}
}

func balanceKey(mint, account common.Address) []byte {
	key := make([]byte, 2*common.AddressLength)
	copy(key, mint.Bytes())
	copy(key[common.AddressLength:], account.Bytes())
	return key
}

func decodeBalance(data []byte, err error) (uint64, error) {
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return binary.LittleEndian.Uint64(data), nil
}

func setBalance(wtx db.WriteTx, mint, account common.Address, balance uint64) error {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, balance)
	return wtx.Set(balanceKey(mint, account), data)
}

// Balance returns the account's balance of a mint. Missing accounts hold
// zero.
func (l *Ledger) Balance(mint, account common.Address) (uint64, error) {
	rTx := prefixeddb.NewPrefixedReader(l.db, balancePrefix)
	return decodeBalance(rTx.Get(balanceKey(mint, account)))
}

// Mint credits freshly issued tokens to an account in its own
// transaction. Used for bring-up and tests.
func (l *Ledger) Mint(mint, account common.Address, amount uint64) error {
	wtx := l.db.WriteTx()
	defer wtx.Discard()
	ptx := prefixeddb.NewPrefixedWriteTx(wtx, balancePrefix)
	balance, err := decodeBalance(ptx.Get(balanceKey(mint, account)))
	if err != nil {
		return err
	}
	if balance > math.MaxUint64-amount {
		return ErrBalanceOverflow
	}
	if err := setBalance(ptx, mint, account, balance+amount); err != nil {
		return err
	}
	return wtx.Commit()
}

// Transfer moves amount from one account to another inside the caller's
// transaction, so it commits or aborts together with the protocol state it
// pays for. A zero amount is a no-op.
func (l *Ledger) Transfer(wtx db.WriteTx, mint, from, to common.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	ptx := prefixeddb.NewPrefixedWriteTx(wtx, balancePrefix)
	fromBalance, err := decodeBalance(ptx.Get(balanceKey(mint, from)))
	if err != nil {
		return err
	}
	if fromBalance < amount {
		return ErrInsufficientBalance
	}
	if from == to {
		return nil
	}
	toBalance, err := decodeBalance(ptx.Get(balanceKey(mint, to)))
	if err != nil {
		return err
	}
	if toBalance > math.MaxUint64-amount {
		return ErrBalanceOverflow
	}
	if err := setBalance(ptx, mint, from, fromBalance-amount); err != nil {
		return err
	}
	return setBalance(ptx, mint, to, toBalance+amount)
}
