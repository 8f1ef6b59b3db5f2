package storage

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.vocdoni.io/dvote/db"

	"github.com/veilpay/veilpay-go/nullifier"
	"github.com/veilpay/veilpay-go/state"
	"github.com/veilpay/veilpay-go/verifier"
)

// Config retrieves the pool configuration.
// Returns ErrNotFound if the pool has not been initialized.
func (s *Storage) Config() (*Config, error) {
	cfg := &Config{}
	if err := s.getArtifact(configPrefix, configKey, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetConfig stores the pool configuration inside the passed transaction.
func SetConfig(wtx db.WriteTx, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	return setArtifact(wtx, configPrefix, configKey, cfg)
}

// Vault retrieves the vault pool of a mint.
func (s *Storage) Vault(mint common.Address) (*VaultPool, error) {
	v := &VaultPool{}
	if err := s.getArtifact(vaultPrefix, mint.Bytes(), v); err != nil {
		return nil, err
	}
	return v, nil
}

// SetVault stores a vault pool inside the passed transaction.
func SetVault(wtx db.WriteTx, v *VaultPool) error {
	if v == nil {
		return fmt.Errorf("nil vault pool")
	}
	return setArtifact(wtx, vaultPrefix, v.Mint.Bytes(), v)
}

// ListVaults returns the mints that have a vault pool.
func (s *Storage) ListVaults() ([]common.Address, error) {
	keys, err := s.listArtifacts(vaultPrefix)
	if err != nil {
		return nil, err
	}
	mints := make([]common.Address, len(keys))
	for i, k := range keys {
		mints[i] = common.BytesToAddress(k)
	}
	return mints, nil
}

// Shielded retrieves the shielded state of a mint.
func (s *Storage) Shielded(mint common.Address) (*state.Shielded, error) {
	sh := &state.Shielded{}
	if err := s.getArtifact(shieldedPrefix, mint.Bytes(), sh); err != nil {
		return nil, err
	}
	return sh, nil
}

// SetShielded stores a shielded state inside the passed transaction.
func SetShielded(wtx db.WriteTx, sh *state.Shielded) error {
	if sh == nil {
		return fmt.Errorf("nil shielded state")
	}
	return setArtifact(wtx, shieldedPrefix, sh.Mint.Bytes(), sh)
}

// NullifierChunk retrieves one nullifier chunk of a mint.
func (s *Storage) NullifierChunk(mint common.Address, chunkIndex uint32) (*nullifier.Set, error) {
	set := &nullifier.Set{}
	if err := s.getArtifact(chunkPrefix, chunkKey(mint, chunkIndex), set); err != nil {
		return nil, err
	}
	return set, nil
}

// SetNullifierChunk stores a nullifier chunk inside the passed transaction.
func SetNullifierChunk(wtx db.WriteTx, set *nullifier.Set) error {
	if set == nil {
		return fmt.Errorf("nil nullifier chunk")
	}
	return setArtifact(wtx, chunkPrefix, chunkKey(set.Mint, set.ChunkIndex), set)
}

// VerifyingKey retrieves a verifying key by its id.
func (s *Storage) VerifyingKey(keyID uint32) (*verifier.VerifyingKey, error) {
	key := &verifier.VerifyingKey{}
	if err := s.getArtifact(keyPrefix, keyIDKey(keyID), key); err != nil {
		return nil, err
	}
	return key, nil
}

// SetVerifyingKey stores a verifying key inside the passed transaction.
func SetVerifyingKey(wtx db.WriteTx, key *verifier.VerifyingKey) error {
	if key == nil {
		return fmt.Errorf("nil verifying key")
	}
	return setArtifact(wtx, keyPrefix, keyIDKey(key.KeyID), key)
}

// KeyRegistry retrieves the verifying-key registry.
func (s *Storage) KeyRegistry() (*verifier.Registry, error) {
	reg := &verifier.Registry{}
	if err := s.getArtifact(registryPrefix, registryKey, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// SetKeyRegistry stores the verifying-key registry inside the passed
// transaction.
func SetKeyRegistry(wtx db.WriteTx, reg *verifier.Registry) error {
	if reg == nil {
		return fmt.Errorf("nil key registry")
	}
	return setArtifact(wtx, registryPrefix, registryKey, reg)
}

// Authorization retrieves a settlement intent by its hash.
func (s *Storage) Authorization(intentHash []byte) (*Authorization, error) {
	auth := &Authorization{}
	if err := s.getArtifact(authPrefix, intentHash, auth); err != nil {
		return nil, err
	}
	return auth, nil
}

// SetAuthorization stores a settlement intent inside the passed
// transaction.
func SetAuthorization(wtx db.WriteTx, auth *Authorization) error {
	if auth == nil {
		return fmt.Errorf("nil authorization")
	}
	return setArtifact(wtx, authPrefix, auth.IntentHash, auth)
}

// ListAuthorizations returns the intent hashes of every stored
// authorization.
func (s *Storage) ListAuthorizations() ([][]byte, error) {
	return s.listArtifacts(authPrefix)
}

// Identity retrieves the identity registry.
func (s *Storage) Identity() (*state.IdentityRegistry, error) {
	reg := &state.IdentityRegistry{}
	if err := s.getArtifact(identityPrefix, identityKey, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// SetIdentity stores the identity registry inside the passed transaction.
func SetIdentity(wtx db.WriteTx, reg *state.IdentityRegistry) error {
	if reg == nil {
		return fmt.Errorf("nil identity registry")
	}
	return setArtifact(wtx, identityPrefix, identityKey, reg)
}
