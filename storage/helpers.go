package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fxamacker/cbor/v2"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// Artifact encoding/decoding
func encodeArtifact(a any) ([]byte, error) {
	encOpts := cbor.CoreDetEncOptions()
	em, err := encOpts.EncMode()
	if err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	return em.Marshal(a)
}

func decodeArtifact(data []byte, out any) error {
	return cbor.Unmarshal(data, out)
}

// getArtifact reads and decodes the artifact stored under prefix+key into
// out. Returns ErrNotFound if the key does not exist.
func (s *Storage) getArtifact(prefix, key []byte, out any) error {
	rTx := prefixeddb.NewPrefixedReader(s.db, prefix)
	data, err := rTx.Get(key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return ErrNotFound
		}
		return err
	}
	return decodeArtifact(data, out)
}

// setArtifact encodes and writes the artifact under prefix+key inside the
// passed write transaction.
func setArtifact(wtx db.WriteTx, prefix, key []byte, artifact any) error {
	data, err := encodeArtifact(artifact)
	if err != nil {
		return err
	}
	return prefixeddb.NewPrefixedWriteTx(wtx, prefix).Set(key, data)
}

// listArtifacts returns the keys stored under the given prefix.
func (s *Storage) listArtifacts(prefix []byte) ([][]byte, error) {
	var keys [][]byte
	rTx := prefixeddb.NewPrefixedReader(s.db, prefix)
	if err := rTx.Iterate(nil, func(k, _ []byte) bool {
		key := make([]byte, len(k))
		copy(key, k)
		keys = append(keys, key)
		return true
	}); err != nil {
		return nil, err
	}
	return keys, nil
}

// chunkKey builds the nullifier-chunk key: mint address followed by the
// little-endian chunk index.
func chunkKey(mint common.Address, chunkIndex uint32) []byte {
	key := make([]byte, common.AddressLength+4)
	copy(key, mint.Bytes())
	binary.LittleEndian.PutUint32(key[common.AddressLength:], chunkIndex)
	return key
}

// keyIDKey builds the verifying-key key from its numeric id.
func keyIDKey(keyID uint32) []byte {
	key := make([]byte, 4)
	binary.LittleEndian.PutUint32(key, keyID)
	return key
}
