package pool

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.vocdoni.io/dvote/db"

	"github.com/veilpay/veilpay-go/inputs"
	"github.com/veilpay/veilpay-go/log"
	"github.com/veilpay/veilpay-go/nullifier"
	"github.com/veilpay/veilpay-go/storage"
	"github.com/veilpay/veilpay-go/types"
	"github.com/veilpay/veilpay-go/verifier"
)

// TransferProof bundles the proof material of a proof-gated operation:
// the verifying key to check against, the proof and public-input bytes,
// and the nullifier chunks the proof's nullifiers resolve into (the
// primary chunk plus any extra working chunks).
type TransferProof struct {
	KeyID         uint32         `json:"keyId"`
	Proof         types.HexBytes `json:"proof"`
	PublicInputs  types.HexBytes `json:"publicInputs"`
	ChunkIndex    uint32         `json:"chunkIndex"`
	WorkingChunks []uint32       `json:"workingChunks,omitempty"`
}

// DepositArgs moves public funds into the shielded pool.
type DepositArgs struct {
	User           common.Address `json:"user"`
	Mint           common.Address `json:"mint"`
	VaultAuthority common.Address `json:"vaultAuthority"`
	Amount         uint64         `json:"amount"`
	Ciphertext     types.HexBytes `json:"ciphertext"`
	Commitment     types.HexBytes `json:"commitment"`
	NewRoot        types.HexBytes `json:"newRoot"`
}

// Deposit transfers amount from the user into the vault and appends the
// deposited note's commitment root. No proof is required on the way in.
func (p *Pool) Deposit(args DepositArgs) error {
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
	vault, shielded, err := p.mintState(args.Mint)
	if err != nil {
		return err
	}
	if vault.Authority != args.VaultAuthority {
		return ErrInvalidVaultAuthority
	}
	if len(args.NewRoot) != types.HashLen || len(args.Commitment) != types.HashLen {
		return ErrInvalidByteLength
	}
	if len(args.Ciphertext) != types.CiphertextLen {
		return ErrInvalidByteLength
	}
	deposited := vault.TotalDeposited + args.Amount
	if deposited < vault.TotalDeposited {
		return ErrMathOverflow
	}
	vault.TotalDeposited = deposited
	vault.Nonce++
	shielded.CommitmentCount++
	if err := shielded.AppendRoot(args.NewRoot); err != nil {
		return err
	}
	if err := p.stg.Update(func(wtx db.WriteTx) error {
		if err := p.tokens.Transfer(wtx, args.Mint, args.User, vault.Authority, args.Amount); err != nil {
			return err
		}
		if err := storage.SetVault(wtx, vault); err != nil {
			return err
		}
		return storage.SetShielded(wtx, shielded)
	}); err != nil {
		return err
	}
	log.Infow("deposit", "mint", args.Mint.Hex(), "amount", args.Amount,
		"nonce", vault.Nonce, "root", args.NewRoot.String())
	return nil
}

// WithdrawArgs moves shielded funds out to a public recipient.
type WithdrawArgs struct {
	Mint           common.Address `json:"mint"`
	Recipient      common.Address `json:"recipient"`
	Relayer        common.Address `json:"relayer"`
	VaultAuthority common.Address `json:"vaultAuthority"`
	Amount         uint64         `json:"amount"`
	RelayerFeeBps  uint16         `json:"relayerFeeBps"`
	NewRoot        types.HexBytes `json:"newRoot"`
	TransferProof
}

// Withdraw validates the proof and pays the recipient, splitting the
// relayer fee off first. The proof must assert the exact amount and fee.
func (p *Pool) Withdraw(args WithdrawArgs) error {
	parsed, err := p.exit(exitParams{
		mint:           args.Mint,
		destination:    args.Recipient,
		relayer:        args.Relayer,
		vaultAuthority: args.VaultAuthority,
		amount:         args.Amount,
		relayerFeeBps:  args.RelayerFeeBps,
		newRoot:        args.NewRoot,
		proof:          args.TransferProof,
	})
	if err != nil {
		return err
	}
	log.Infow("withdraw", "mint", args.Mint.Hex(), "amount", args.Amount,
		"fee", parsed.FeeAmount, "recipient", args.Recipient.Hex())
	return nil
}

// ExternalTransferArgs pays an arbitrary destination account from the
// shielded pool.
type ExternalTransferArgs struct {
	Mint           common.Address `json:"mint"`
	Destination    common.Address `json:"destination"`
	Relayer        common.Address `json:"relayer"`
	VaultAuthority common.Address `json:"vaultAuthority"`
	Amount         uint64         `json:"amount"`
	RelayerFeeBps  uint16         `json:"relayerFeeBps"`
	NewRoot        types.HexBytes `json:"newRoot"`
	TransferProof
}

// ExternalTransfer runs the withdraw-grade validation and pays the
// destination account.
func (p *Pool) ExternalTransfer(args ExternalTransferArgs) error {
	parsed, err := p.exit(exitParams{
		mint:           args.Mint,
		destination:    args.Destination,
		relayer:        args.Relayer,
		vaultAuthority: args.VaultAuthority,
		amount:         args.Amount,
		relayerFeeBps:  args.RelayerFeeBps,
		newRoot:        args.NewRoot,
		proof:          args.TransferProof,
	})
	if err != nil {
		return err
	}
	log.Infow("external transfer", "mint", args.Mint.Hex(), "amount", args.Amount,
		"fee", parsed.FeeAmount, "destination", args.Destination.Hex())
	return nil
}

// InternalTransferArgs reshuffles shielded notes without moving value.
type InternalTransferArgs struct {
	Mint    common.Address `json:"mint"`
	NewRoot types.HexBytes `json:"newRoot"`
	TransferProof
}

// InternalTransfer spends notes into new commitments inside the pool. The
// proof must assert zero amount and fee and enable the first output.
func (p *Pool) InternalTransfer(args InternalTransferArgs) error {
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
	shielded, err := p.stg.Shielded(args.Mint)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: mint %s", ErrNotInitialized, args.Mint)
		}
		return err
	}
	key, err := p.verifyingKey(args.KeyID)
	if err != nil {
		return err
	}
	if err := verifier.Verify(key, args.Proof, args.PublicInputs); err != nil {
		return err
	}
	parsed, err := inputs.Decode(shielded.Layout, args.PublicInputs)
	if err != nil {
		return err
	}
	if parsed.AmountOut != 0 || parsed.FeeAmount != 0 {
		return ErrInvalidOutputFlags
	}
	if parsed.OutputEnabled[0] != 1 {
		return ErrInvalidOutputFlags
	}
	if !cfg.CircuitAllowed(parsed.CircuitID) {
		return ErrCircuitNotAllowed
	}
	if err := p.checkIdentityRoot(parsed); err != nil {
		return err
	}
	if !shielded.RootKnown(parsed.Root) {
		return ErrUnknownRoot
	}
	primary, working, err := p.loadChunks(args.Mint, args.ChunkIndex, args.WorkingChunks)
	if err != nil {
		return err
	}
	if err := nullifier.MarkAll(primary, working, parsed.Nullifiers[:]); err != nil {
		return err
	}
	if len(args.NewRoot) != types.HashLen {
		return ErrInvalidByteLength
	}
	outputs := uint64(parsed.OutputEnabled[0]) + uint64(parsed.OutputEnabled[1])
	shielded.CommitmentCount += outputs
	if err := shielded.AppendRoot(args.NewRoot); err != nil {
		return err
	}
	if err := p.stg.Update(func(wtx db.WriteTx) error {
		if err := storeChunks(wtx, primary, working); err != nil {
			return err
		}
		return storage.SetShielded(wtx, shielded)
	}); err != nil {
		return err
	}
	log.Infow("internal transfer", "mint", args.Mint.Hex(),
		"outputs", outputs, "root", args.NewRoot.String())
	return nil
}

// exitParams is the common shape of the value-exiting operations
// (withdraw, external transfer, authorization settlement).
type exitParams struct {
	mint           common.Address
	destination    common.Address
	relayer        common.Address
	vaultAuthority common.Address
	amount         uint64
	relayerFeeBps  uint16
	newRoot        types.HexBytes
	proof          TransferProof
	// circuitBind, when non-nil, pins the proof's circuit id (settlement
	// binds it to the intent).
	circuitBind *uint32
	// persist runs inside the final transaction, after the transfers.
	persist func(wtx db.WriteTx) error
}

// exit runs the strictly ordered validation and payout shared by every
// value-exiting operation: policy checks, proof verification, decode,
// ledger cross-checks, fee split, nullifier marking, transfers, vault
// accounting and the conditional root append. Nothing is persisted unless
// every step succeeds.
func (p *Pool) exit(params exitParams) (*inputs.PublicInputs, error) {
	cfg, err := p.config()
	if err != nil {
		return nil, err
	}
	if cfg.Paused {
		return nil, ErrPaused
	}
	if params.relayerFeeBps > cfg.RelayerFeeBpsMax {
		return nil, ErrRelayerFeeTooHigh
	}
	if !cfg.MintAllowed(params.mint) {
		return nil, ErrMintNotAllowed
	}
	vault, shielded, err := p.mintState(params.mint)
	if err != nil {
		return nil, err
	}
	if vault.Authority != params.vaultAuthority {
		return nil, ErrInvalidVaultAuthority
	}
	key, err := p.verifyingKey(params.proof.KeyID)
	if err != nil {
		return nil, err
	}
	if err := verifier.Verify(key, params.proof.Proof, params.proof.PublicInputs); err != nil {
		return nil, err
	}
	parsed, err := inputs.Decode(shielded.Layout, params.proof.PublicInputs)
	if err != nil {
		return nil, err
	}
	if parsed.AmountOut != params.amount {
		return nil, ErrAmountMismatch
	}
	if parsed.OutputEnabled[0] != 0 {
		return nil, ErrInvalidOutputFlags
	}
	if params.circuitBind != nil && parsed.CircuitID != *params.circuitBind {
		return nil, ErrCircuitNotAllowed
	}
	if !cfg.CircuitAllowed(parsed.CircuitID) {
		return nil, ErrCircuitNotAllowed
	}
	if err := p.checkIdentityRoot(parsed); err != nil {
		return nil, err
	}
	if !shielded.RootKnown(parsed.Root) {
		return nil, ErrUnknownRoot
	}
	net, fee, err := SplitRelayerFee(params.amount, params.relayerFeeBps)
	if err != nil {
		return nil, err
	}
	if fee != parsed.FeeAmount {
		return nil, ErrFeeMismatch
	}
	primary, working, err := p.loadChunks(params.mint, params.proof.ChunkIndex, params.proof.WorkingChunks)
	if err != nil {
		return nil, err
	}
	if err := nullifier.MarkAll(primary, working, parsed.Nullifiers[:]); err != nil {
		return nil, err
	}
	withdrawn := vault.TotalWithdrawn + params.amount
	if withdrawn < vault.TotalWithdrawn {
		return nil, ErrMathOverflow
	}
	vault.TotalWithdrawn = withdrawn
	vault.Nonce++
	if parsed.OutputEnabled[1] == 1 {
		if len(params.newRoot) != types.HashLen {
			return nil, ErrInvalidByteLength
		}
		shielded.CommitmentCount++
		if err := shielded.AppendRoot(params.newRoot); err != nil {
			return nil, err
		}
	}
	if err := p.stg.Update(func(wtx db.WriteTx) error {
		if fee > 0 {
			if params.relayer == (common.Address{}) {
				return ErrMissingRelayerAccount
			}
			if err := p.tokens.Transfer(wtx, params.mint, vault.Authority, params.relayer, fee); err != nil {
				return err
			}
		}
		if err := p.tokens.Transfer(wtx, params.mint, vault.Authority, params.destination, net); err != nil {
			return err
		}
		if err := storeChunks(wtx, primary, working); err != nil {
			return err
		}
		if err := storage.SetVault(wtx, vault); err != nil {
			return err
		}
		if err := storage.SetShielded(wtx, shielded); err != nil {
			return err
		}
		if params.persist != nil {
			return params.persist(wtx)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return parsed, nil
}
