// storage package persists every protocol artifact in a prefixed key-value
// store. Each artifact family lives under its own prefix:
//   - 'cfg/' for the pool configuration (single entry)
//   - 'vp/'  for vault pools (keyed by mint)
//   - 'ss/'  for shielded states (keyed by mint)
//   - 'nf/'  for nullifier chunks (keyed by mint + chunk index)
//   - 'vk/'  for verifying keys (keyed by key id)
//   - 'vr/'  for the verifying-key registry (single entry)
//   - 'au/'  for settlement authorizations (keyed by intent hash)
//   - 'id/'  for the identity registry (single entry)
//
// Artifacts are CBOR-encoded with deterministic options so persisted bytes
// are stable across runs. Multi-artifact mutations share a single write
// transaction so an operation either lands completely or not at all.
package storage

import (
	"errors"

	"go.vocdoni.io/dvote/db"
)

var (
	// Prefixes for the keys in the database.
	configPrefix   = []byte("cfg/")
	vaultPrefix    = []byte("vp/")
	shieldedPrefix = []byte("ss/")
	chunkPrefix    = []byte("nf/")
	keyPrefix      = []byte("vk/")
	registryPrefix = []byte("vr/")
	authPrefix     = []byte("au/")
	identityPrefix = []byte("id/")
)

var (
	// Singleton artifact keys.
	configKey   = []byte("global")
	registryKey = []byte("registry")
	identityKey = []byte("identity")
)

// ErrNotFound is returned when a requested artifact does not exist.
var ErrNotFound = errors.New("artifact not found")

// Storage wraps the database with typed accessors for the protocol
// artifacts.
type Storage struct {
	db db.Database
}

// New creates a new Storage instance.
func New(db db.Database) *Storage {
	return &Storage{db: db}
}

// Close closes the storage.
func (s *Storage) Close() {
	s.db.Close()
}

// Database returns the underlying database, for collaborators that keep
// their own prefixes (token ledger, commitment tree).
func (s *Storage) Database() db.Database {
	return s.db
}

// WriteTx opens a write transaction on the underlying database. The caller
// must Commit or Discard it.
func (s *Storage) WriteTx() db.WriteTx {
	return s.db.WriteTx()
}

// Update runs fn against a single write transaction and commits it if fn
// returns nil. Any error discards every pending write.
func (s *Storage) Update(fn func(wtx db.WriteTx) error) error {
	wtx := s.db.WriteTx()
	defer wtx.Discard()
	if err := fn(wtx); err != nil {
		return err
	}
	return wtx.Commit()
}
