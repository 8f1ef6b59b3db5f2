// Package nullifier implements the double-spend ledger: a chunked bitset
// over an unbounded logical address space. A nullifier's first four bytes
// (little-endian) select a 8192-bit chunk and the next two bytes select
// the bit within it. Bits are write-once: set on spend, never cleared.
package nullifier

import (
	"encoding/binary"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/veilpay/veilpay-go/types"
)

const (
	// Bits per chunk.
	Bits = 8192
	// Bytes per chunk bitset.
	Bytes = Bits / 8
)

var (
	ErrAlreadyUsed   = errors.New("nullifier already used")
	ErrChunkMismatch = errors.New("nullifier chunk mismatch")
	ErrMissingChunk  = errors.New("missing nullifier chunk")
	ErrInvalidLength = errors.New("nullifier must be 32 bytes")
)

// Set is one chunk of the spent-nullifier ledger for one mint.
type Set struct {
	Mint       common.Address `json:"mint"`
	ChunkIndex uint32         `json:"chunkIndex"`
	Bitset     types.HexBytes `json:"bitset"`
	Count      uint32         `json:"count"`
}

// NewSet returns an empty chunk.
func NewSet(mint common.Address, chunkIndex uint32) *Set {
	return &Set{
		Mint:       mint,
		ChunkIndex: chunkIndex,
		Bitset:     make(types.HexBytes, Bytes),
	}
}

// Position derives the (chunk, bit) address of a nullifier.
func Position(nullifier types.HexBytes) (chunkIndex uint32, bitIndex uint16) {
	chunkIndex = binary.LittleEndian.Uint32(nullifier[0:4])
	bitIndex = binary.LittleEndian.Uint16(nullifier[4:6]) % Bits
	return chunkIndex, bitIndex
}

// Mark sets the nullifier's bit. It fails with ErrChunkMismatch if the
// nullifier does not address this chunk, and with ErrAlreadyUsed if the
// bit is already set.
func (s *Set) Mark(nullifier types.HexBytes) error {
	if len(nullifier) != types.HashLen {
		return ErrInvalidLength
	}
	chunkIndex, bitIndex := Position(nullifier)
	if chunkIndex != s.ChunkIndex {
		return ErrChunkMismatch
	}
	byteIndex := int(bitIndex / 8)
	mask := byte(1) << (bitIndex % 8)
	if s.Bitset[byteIndex]&mask != 0 {
		return ErrAlreadyUsed
	}
	s.Bitset[byteIndex] |= mask
	s.Count++
	return nil
}

// Used reports whether the nullifier's bit is set in this chunk.
func (s *Set) Used(nullifier types.HexBytes) bool {
	chunkIndex, bitIndex := Position(nullifier)
	if chunkIndex != s.ChunkIndex {
		return false
	}
	return s.Bitset[bitIndex/8]&(1<<(bitIndex%8)) != 0
}

// MarkAll marks every nonzero nullifier, resolving each against the
// primary chunk first and then the caller-supplied working set by chunk
// index. Zero-valued slots are unused inputs and are skipped. A nullifier
// addressing a chunk not present in the working set fails with
// ErrMissingChunk.
func MarkAll(primary *Set, working []*Set, nullifiers []types.HexBytes) error {
	for _, n := range nullifiers {
		if n.IsZero() {
			continue
		}
		if len(n) != types.HashLen {
			return ErrInvalidLength
		}
		chunkIndex, _ := Position(n)
		if primary != nil && primary.ChunkIndex == chunkIndex {
			if err := primary.Mark(n); err != nil {
				return err
			}
			continue
		}
		var matched *Set
		for _, s := range working {
			if s != nil && s.ChunkIndex == chunkIndex {
				matched = s
				break
			}
		}
		if matched == nil {
			return ErrMissingChunk
		}
		if err := matched.Mark(n); err != nil {
			return err
		}
	}
	return nil
}
