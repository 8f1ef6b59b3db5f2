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
	"github.com/veilpay/veilpay-go/types"
	"github.com/veilpay/veilpay-go/verifier"
)

// InitializeConfigArgs carries the one-time pool configuration.
type InitializeConfigArgs struct {
	Admin            common.Address   `json:"admin"`
	FeeRecipient     common.Address   `json:"feeRecipient"`
	FeeBps           uint16           `json:"feeBps"`
	RelayerFeeBpsMax uint16           `json:"relayerFeeBpsMax"`
	KeyRegistry      types.HexBytes   `json:"keyRegistry"`
	Mints            []common.Address `json:"mints"`
	Circuits         []uint32         `json:"circuits"`
}

// InitializeConfig creates the pool configuration, the verifying-key
// registry and the identity registry. It can run only once per
// deployment.
func (p *Pool) InitializeConfig(args InitializeConfigArgs) error {
	if _, err := p.stg.Config(); err == nil {
		return fmt.Errorf("%w: pool config", ErrAlreadyInitialized)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	if len(args.Mints) > types.MaxAllowlist {
		return ErrAllowlistTooLarge
	}
	if len(args.Circuits) > types.MaxCircuits {
		return ErrCircuitListTooLarge
	}
	cfg := &storage.Config{
		Admin:            args.Admin,
		FeeRecipient:     args.FeeRecipient,
		FeeBps:           args.FeeBps,
		RelayerFeeBpsMax: args.RelayerFeeBpsMax,
		KeyRegistry:      args.KeyRegistry,
		Mints:            args.Mints,
		Circuits:         args.Circuits,
		Paused:           false,
		Version:          1,
	}
	if err := p.stg.Update(func(wtx db.WriteTx) error {
		if err := storage.SetConfig(wtx, cfg); err != nil {
			return err
		}
		if err := storage.SetKeyRegistry(wtx, &verifier.Registry{}); err != nil {
			return err
		}
		return storage.SetIdentity(wtx, state.NewIdentityRegistry())
	}); err != nil {
		return err
	}
	log.Infow("pool configured", "admin", args.Admin.Hex(),
		"feeBps", args.FeeBps, "mints", len(args.Mints), "circuits", len(args.Circuits))
	return nil
}

// requireAdmin loads the config and checks the caller against its admin.
func (p *Pool) requireAdmin(caller common.Address) (*storage.Config, error) {
	cfg, err := p.config()
	if err != nil {
		return nil, err
	}
	if cfg.Admin != caller {
		return nil, ErrUnauthorized
	}
	return cfg, nil
}

// RegisterMint adds a mint to the allow-list. Re-registering a listed
// mint is a no-op, but the capacity check runs regardless.
func (p *Pool) RegisterMint(admin common.Address, mint common.Address) error {
	cfg, err := p.requireAdmin(admin)
	if err != nil {
		return err
	}
	if len(cfg.Mints) >= types.MaxAllowlist {
		return ErrAllowlistTooLarge
	}
	if err := cfg.AddMint(mint); err != nil {
		return err
	}
	if err := p.stg.Update(func(wtx db.WriteTx) error {
		return storage.SetConfig(wtx, cfg)
	}); err != nil {
		return err
	}
	log.Infow("mint registered", "mint", mint.Hex())
	return nil
}

// ConfigureFees updates the protocol fee and the relayer fee cap.
func (p *Pool) ConfigureFees(admin common.Address, feeBps, relayerFeeBpsMax uint16) error {
	cfg, err := p.requireAdmin(admin)
	if err != nil {
		return err
	}
	cfg.FeeBps = feeBps
	cfg.RelayerFeeBpsMax = relayerFeeBpsMax
	if err := p.stg.Update(func(wtx db.WriteTx) error {
		return storage.SetConfig(wtx, cfg)
	}); err != nil {
		return err
	}
	log.Infow("fees configured", "feeBps", feeBps, "relayerFeeBpsMax", relayerFeeBpsMax)
	return nil
}

// SetPaused flips the protocol pause switch.
func (p *Pool) SetPaused(admin common.Address, paused bool) error {
	cfg, err := p.requireAdmin(admin)
	if err != nil {
		return err
	}
	cfg.Paused = paused
	if err := p.stg.Update(func(wtx db.WriteTx) error {
		return storage.SetConfig(wtx, cfg)
	}); err != nil {
		return err
	}
	log.Warnw("protocol pause switch", "paused", paused)
	return nil
}

// InitializeKey registers a whole verifying key and binds it to a circuit
// id in the registry.
func (p *Pool) InitializeKey(admin common.Address, circuitID uint32, args verifier.InitializeKeyArgs) error {
	if _, err := p.requireAdmin(admin); err != nil {
		return err
	}
	key, err := verifier.NewKey(args)
	if err != nil {
		return err
	}
	return p.storeKey(circuitID, key)
}

// InitializeKeyHeader allocates a verifying key with zeroed gamma_abc
// points, to be filled in with SetKeyGammaABC before first use.
func (p *Pool) InitializeKeyHeader(admin common.Address, circuitID uint32, args verifier.InitializeKeyHeaderArgs) error {
	if _, err := p.requireAdmin(admin); err != nil {
		return err
	}
	key, err := verifier.NewKeyHeader(args)
	if err != nil {
		return err
	}
	return p.storeKey(circuitID, key)
}

// SetKeyGammaABC writes a range of gamma_abc points into a staged key.
func (p *Pool) SetKeyGammaABC(admin common.Address, keyID, startIndex uint32, points []types.HexBytes) error {
	if _, err := p.requireAdmin(admin); err != nil {
		return err
	}
	key, err := p.verifyingKey(keyID)
	if err != nil {
		return err
	}
	if err := key.SetGammaABC(startIndex, points); err != nil {
		return err
	}
	return p.stg.Update(func(wtx db.WriteTx) error {
		return storage.SetVerifyingKey(wtx, key)
	})
}

// storeKey persists a new key and its registry entry atomically.
func (p *Pool) storeKey(circuitID uint32, key *verifier.VerifyingKey) error {
	reg, err := p.stg.KeyRegistry()
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: key registry", ErrNotInitialized)
		}
		return err
	}
	if err := reg.Add(verifier.RegistryEntry{
		CircuitID: circuitID,
		KeyID:     key.KeyID,
		KeyHash:   key.Hash(),
	}); err != nil {
		return err
	}
	if err := p.stg.Update(func(wtx db.WriteTx) error {
		if err := storage.SetVerifyingKey(wtx, key); err != nil {
			return err
		}
		return storage.SetKeyRegistry(wtx, reg)
	}); err != nil {
		return err
	}
	log.Infow("verifying key registered", "keyId", key.KeyID,
		"circuitId", circuitID, "mock", key.Mock, "hash", key.Hash().String())
	return nil
}

// InitializeMintState creates the vault, the shielded state and the first
// nullifier chunk of an allow-listed mint.
func (p *Pool) InitializeMintState(admin common.Address, mint, authority common.Address, chunkIndex uint32, layout inputs.LayoutVersion) error {
	cfg, err := p.requireAdmin(admin)
	if err != nil {
		return err
	}
	if !cfg.MintAllowed(mint) {
		return ErrMintNotAllowed
	}
	if !layout.Valid() {
		return fmt.Errorf("%w: unknown layout %d", inputs.ErrInvalidPublicInputs, layout)
	}
	if _, err := p.stg.Vault(mint); err == nil {
		return fmt.Errorf("%w: mint %s", ErrAlreadyInitialized, mint)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	vault := &storage.VaultPool{Mint: mint, Authority: authority}
	if err := p.stg.Update(func(wtx db.WriteTx) error {
		if err := storage.SetVault(wtx, vault); err != nil {
			return err
		}
		if err := storage.SetShielded(wtx, state.NewShielded(mint, layout)); err != nil {
			return err
		}
		return storage.SetNullifierChunk(wtx, nullifier.NewSet(mint, chunkIndex))
	}); err != nil {
		return err
	}
	log.Infow("mint state initialized", "mint", mint.Hex(),
		"authority", authority.Hex(), "chunk", chunkIndex, "layout", layout)
	return nil
}

// InitializeNullifierChunk allocates one more chunk of the spent-nullifier
// ledger. Existing chunks are never reinitialized.
func (p *Pool) InitializeNullifierChunk(mint common.Address, chunkIndex uint32) error {
	cfg, err := p.config()
	if err != nil {
		return err
	}
	if !cfg.MintAllowed(mint) {
		return ErrMintNotAllowed
	}
	if _, err := p.stg.NullifierChunk(mint, chunkIndex); err == nil {
		return fmt.Errorf("%w: chunk %d", ErrAlreadyInitialized, chunkIndex)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	if err := p.stg.Update(func(wtx db.WriteTx) error {
		return storage.SetNullifierChunk(wtx, nullifier.NewSet(mint, chunkIndex))
	}); err != nil {
		return err
	}
	log.Debugw("nullifier chunk initialized", "mint", mint.Hex(), "chunk", chunkIndex)
	return nil
}
