package pool

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/iden3/go-iden3-crypto/poseidon"
	"go.vocdoni.io/dvote/db"

	"github.com/veilpay/veilpay-go/log"
	"github.com/veilpay/veilpay-go/storage"
	"github.com/veilpay/veilpay-go/types"
)

// CreateAuthorizationArgs records a two-phase settlement intent.
type CreateAuthorizationArgs struct {
	IntentHash       types.HexBytes `json:"intentHash"`
	PayeeTagHash     types.HexBytes `json:"payeeTagHash"`
	Payee            common.Address `json:"payee"`
	Creator          common.Address `json:"creator"`
	Relayer          common.Address `json:"relayer"`
	Mint             common.Address `json:"mint"`
	AmountCiphertext types.HexBytes `json:"amountCiphertext"`
	ExpirySlot       uint64         `json:"expirySlot"`
	CircuitID        uint32         `json:"circuitId"`
}

// IntentHash derives the binding hash of a settlement intent from its
// fields. The payee, relayer and ciphertext are all committed, so no
// field can be swapped after creation.
func IntentHash(args CreateAuthorizationArgs) (types.HexBytes, error) {
	buf := make([]byte, 0, 256)
	buf = append(buf, args.PayeeTagHash...)
	buf = append(buf, args.Payee.Bytes()...)
	buf = append(buf, args.Creator.Bytes()...)
	buf = append(buf, args.Relayer.Bytes()...)
	buf = append(buf, args.Mint.Bytes()...)
	buf = append(buf, args.AmountCiphertext...)
	buf = binary.LittleEndian.AppendUint64(buf, args.ExpirySlot)
	buf = binary.LittleEndian.AppendUint32(buf, args.CircuitID)
	h, err := poseidon.HashBytes(buf)
	if err != nil {
		return nil, fmt.Errorf("hash intent: %w", err)
	}
	out := make(types.HexBytes, types.HashLen)
	h.FillBytes(out)
	return out, nil
}

// CreateAuthorization records an intent in the Open state. The supplied
// intent hash must match the hash of the fields, and the intent must not
// exist yet.
func (p *Pool) CreateAuthorization(args CreateAuthorizationArgs) error {
	cfg, err := p.config()
	if err != nil {
		return err
	}
	if cfg.Paused {
		return ErrPaused
	}
	if !cfg.MintAllowed(args.Mint) {
		return ErrMintNotAllowed
	}
	if len(args.PayeeTagHash) != types.HashLen {
		return ErrInvalidByteLength
	}
	if len(args.AmountCiphertext) != types.CiphertextLen {
		return ErrInvalidByteLength
	}
	expected, err := IntentHash(args)
	if err != nil {
		return err
	}
	if !expected.Equal(args.IntentHash) {
		return ErrIntentHashMismatch
	}
	if _, err := p.stg.Authorization(args.IntentHash); err == nil {
		return ErrDuplicateIntent
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	auth := &storage.Authorization{
		IntentHash:       args.IntentHash,
		PayeeTagHash:     args.PayeeTagHash,
		Payee:            args.Payee,
		Creator:          args.Creator,
		Relayer:          args.Relayer,
		Mint:             args.Mint,
		AmountCiphertext: args.AmountCiphertext,
		ExpirySlot:       args.ExpirySlot,
		CircuitID:        args.CircuitID,
		Status:           storage.AuthorizationOpen,
	}
	if err := p.stg.Update(func(wtx db.WriteTx) error {
		return storage.SetAuthorization(wtx, auth)
	}); err != nil {
		return err
	}
	log.Infow("authorization created", "intent", args.IntentHash.String(),
		"mint", args.Mint.Hex(), "expirySlot", args.ExpirySlot)
	return nil
}

// SettleAuthorizationArgs settles an Open intent with a proof.
type SettleAuthorizationArgs struct {
	IntentHash     types.HexBytes `json:"intentHash"`
	VaultAuthority common.Address `json:"vaultAuthority"`
	Amount         uint64         `json:"amount"`
	RelayerFeeBps  uint16         `json:"relayerFeeBps"`
	NewRoot        types.HexBytes `json:"newRoot"`
	TransferProof
}

// SettleAuthorization pays the intent's payee after withdraw-grade
// validation and moves the intent to Settled. A lapsed expiry slot moves
// it to Expired instead and the settle fails; terminal states are never
// revisited.
func (p *Pool) SettleAuthorization(args SettleAuthorizationArgs) error {
	auth, err := p.authorization(args.IntentHash)
	if err != nil {
		return err
	}
	if auth.Status != storage.AuthorizationOpen {
		return fmt.Errorf("%w: %s", ErrAuthorizationNotOpen, auth.Status)
	}
	if auth.ExpirySlot != 0 && p.slot() > auth.ExpirySlot {
		auth.Status = storage.AuthorizationExpired
		if err := p.stg.Update(func(wtx db.WriteTx) error {
			return storage.SetAuthorization(wtx, auth)
		}); err != nil {
			return err
		}
		log.Warnw("authorization expired", "intent", auth.IntentHash.String(),
			"expirySlot", auth.ExpirySlot, "slot", p.slot())
		return ErrAuthorizationExpired
	}
	auth.Status = storage.AuthorizationSettled
	proofHash := sha256.Sum256(args.Proof)
	auth.ProofHash = proofHash[:]
	parsed, err := p.exit(exitParams{
		mint:           auth.Mint,
		destination:    auth.Payee,
		relayer:        auth.Relayer,
		vaultAuthority: args.VaultAuthority,
		amount:         args.Amount,
		relayerFeeBps:  args.RelayerFeeBps,
		newRoot:        args.NewRoot,
		proof:          args.TransferProof,
		circuitBind:    &auth.CircuitID,
		persist: func(wtx db.WriteTx) error {
			return storage.SetAuthorization(wtx, auth)
		},
	})
	if err != nil {
		return err
	}
	log.Infow("authorization settled", "intent", auth.IntentHash.String(),
		"amount", args.Amount, "fee", parsed.FeeAmount, "payee", auth.Payee.Hex())
	return nil
}

// CancelAuthorization moves an Open intent to Cancelled. Creator only.
func (p *Pool) CancelAuthorization(intentHash types.HexBytes, caller common.Address) error {
	auth, err := p.authorization(intentHash)
	if err != nil {
		return err
	}
	if auth.Creator != caller {
		return ErrUnauthorized
	}
	if auth.Status != storage.AuthorizationOpen {
		return fmt.Errorf("%w: %s", ErrAuthorizationNotOpen, auth.Status)
	}
	auth.Status = storage.AuthorizationCancelled
	if err := p.stg.Update(func(wtx db.WriteTx) error {
		return storage.SetAuthorization(wtx, auth)
	}); err != nil {
		return err
	}
	log.Infow("authorization cancelled", "intent", auth.IntentHash.String())
	return nil
}

// Authorization returns a stored intent by hash.
func (p *Pool) Authorization(intentHash types.HexBytes) (*storage.Authorization, error) {
	return p.authorization(intentHash)
}

func (p *Pool) authorization(intentHash types.HexBytes) (*storage.Authorization, error) {
	auth, err := p.stg.Authorization(intentHash)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAuthorizationNotFound, intentHash)
		}
		return nil, err
	}
	return auth, nil
}
