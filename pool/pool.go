// Package pool implements the shielded-payment protocol state machine:
// deposits into the custodial vault, proof-gated withdrawals and
// transfers, two-phase authorized settlements, and the admin surface that
// configures it all. Operations run to completion one at a time; each one
// validates against in-memory copies of the artifacts it touches and
// persists them in a single write transaction, so a failed check leaves
// nothing behind.
package pool

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.vocdoni.io/dvote/db"

	"github.com/veilpay/veilpay-go/inputs"
	"github.com/veilpay/veilpay-go/log"
	"github.com/veilpay/veilpay-go/nullifier"
	"github.com/veilpay/veilpay-go/state"
	"github.com/veilpay/veilpay-go/storage"
	"github.com/veilpay/veilpay-go/token"
	"github.com/veilpay/veilpay-go/types"
	"github.com/veilpay/veilpay-go/verifier"
)

// SlotFunc reports the current ledger slot, a host-supplied monotonic
// counter. It is consulted only for authorization expiry.
type SlotFunc func() uint64

// Pool is the protocol engine.
type Pool struct {
	stg    *storage.Storage
	tokens *token.Ledger
	slot   SlotFunc
}

// New creates the engine over its storage and token ledger. A nil slot
// function pins the slot counter to zero (no authorization ever expires).
func New(stg *storage.Storage, tokens *token.Ledger, slot SlotFunc) *Pool {
	if slot == nil {
		slot = func() uint64 { return 0 }
	}
	return &Pool{stg: stg, tokens: tokens, slot: slot}
}

// Tokens returns the token ledger the pool moves value through.
func (p *Pool) Tokens() *token.Ledger {
	return p.tokens
}

// config loads the pool configuration, mapping a missing artifact to
// ErrNotInitialized.
func (p *Pool) config() (*storage.Config, error) {
	cfg, err := p.stg.Config()
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: pool config", ErrNotInitialized)
		}
		return nil, err
	}
	return cfg, nil
}

// mintState loads the vault and shielded state of a mint.
func (p *Pool) mintState(mint common.Address) (*storage.VaultPool, *state.Shielded, error) {
	vault, err := p.stg.Vault(mint)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: vault for mint %s", ErrNotInitialized, mint)
		}
		return nil, nil, err
	}
	shielded, err := p.stg.Shielded(mint)
	if err != nil {
		return nil, nil, fmt.Errorf("shielded state for mint %s: %w", mint, err)
	}
	return vault, shielded, nil
}

// verifyingKey loads a verifying key by id.
func (p *Pool) verifyingKey(keyID uint32) (*verifier.VerifyingKey, error) {
	key, err := p.stg.VerifyingKey(keyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %d", verifier.ErrKeyNotFound, keyID)
		}
		return nil, err
	}
	return key, nil
}

// loadChunks loads the primary nullifier chunk and the caller-supplied
// working set. Chunks must exist beforehand (InitializeNullifierChunk).
func (p *Pool) loadChunks(mint common.Address, primaryIndex uint32, workingIndexes []uint32) (*nullifier.Set, []*nullifier.Set, error) {
	primary, err := p.stg.NullifierChunk(mint, primaryIndex)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: chunk %d", nullifier.ErrMissingChunk, primaryIndex)
		}
		return nil, nil, err
	}
	working := make([]*nullifier.Set, 0, len(workingIndexes))
	for _, idx := range workingIndexes {
		set, err := p.stg.NullifierChunk(mint, idx)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, nil, fmt.Errorf("%w: chunk %d", nullifier.ErrMissingChunk, idx)
			}
			return nil, nil, err
		}
		working = append(working, set)
	}
	return primary, working, nil
}

// storeChunks persists the primary chunk and the working set.
func storeChunks(wtx db.WriteTx, primary *nullifier.Set, working []*nullifier.Set) error {
	if err := storage.SetNullifierChunk(wtx, primary); err != nil {
		return err
	}
	for _, set := range working {
		if err := storage.SetNullifierChunk(wtx, set); err != nil {
			return err
		}
	}
	return nil
}

// PoolInfo is the public view of one mint's pool.
type PoolInfo struct {
	Vault    *storage.VaultPool `json:"vault"`
	Shielded *state.Shielded    `json:"shielded"`
}

// Info returns the vault and shielded state of a mint.
func (p *Pool) Info(mint common.Address) (*PoolInfo, error) {
	vault, shielded, err := p.mintState(mint)
	if err != nil {
		return nil, err
	}
	return &PoolInfo{Vault: vault, Shielded: shielded}, nil
}

// RegisterIdentity appends a commitment to the identity registry and
// makes newRoot its current root.
func (p *Pool) RegisterIdentity(commitment, newRoot types.HexBytes) error {
	reg, err := p.stg.Identity()
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: identity registry", ErrNotInitialized)
		}
		return err
	}
	if len(commitment) != types.HashLen || len(newRoot) != types.HashLen {
		return ErrInvalidByteLength
	}
	if err := reg.Register(commitment, newRoot); err != nil {
		return err
	}
	if err := p.stg.Update(func(wtx db.WriteTx) error {
		return storage.SetIdentity(wtx, reg)
	}); err != nil {
		return err
	}
	log.Debugw("registered identity commitment",
		"count", reg.CommitmentCount, "root", newRoot.String())
	return nil
}

// checkIdentityRoot compares the proof-asserted identity root against the
// registry. Legacy-layout proofs carry no identity root and skip the
// check.
func (p *Pool) checkIdentityRoot(parsed *inputs.PublicInputs) error {
	if parsed.IdentityRoot == nil {
		return nil
	}
	reg, err := p.stg.Identity()
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: identity registry", ErrNotInitialized)
		}
		return err
	}
	if !parsed.IdentityRoot.Equal(reg.MerkleRoot) {
		return ErrIdentityRootMismatch
	}
	return nil
}
