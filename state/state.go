// Package state holds the per-mint shielded ledger state: the current
// Merkle root with its bounded history window, and the optional identity
// registry for compliance-gated circuits.
package state

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/veilpay/veilpay-go/inputs"
	"github.com/veilpay/veilpay-go/types"
)

// ErrInvalidRoot reports a root that is not exactly 32 bytes.
var ErrInvalidRoot = errors.New("root must be 32 bytes")

// Shielded is the commitment-tree state of one mint. RootHistory is a
// fixed-capacity ring buffer: proofs generated against any of the last
// MaxRootHistory superseded roots stay valid, bounding the window of
// tolerance for submitters racing the chain tip.
type Shielded struct {
	Mint             common.Address       `json:"mint"`
	MerkleRoot       types.HexBytes       `json:"merkleRoot"`
	RootHistory      []types.HexBytes     `json:"rootHistory"`
	RootHistoryIndex uint32               `json:"rootHistoryIndex"`
	CommitmentCount  uint64               `json:"commitmentCount"`
	CircuitID        uint32               `json:"circuitId"`
	Layout           inputs.LayoutVersion `json:"layout"`
	Version          uint32               `json:"version"`
}

// NewShielded returns the state of a freshly initialized mint, rooted at
// the empty commitment tree.
func NewShielded(mint common.Address, layout inputs.LayoutVersion) *Shielded {
	return &Shielded{
		Mint:       mint,
		MerkleRoot: append(types.HexBytes{}, types.EmptyStateRoot...),
		Layout:     layout,
		Version:    1,
	}
}

// AppendRoot makes newRoot current. While the history has spare capacity
// the superseded roots accumulate; at capacity the oldest entry is
// overwritten and the cursor advances, wrapping modulo the capacity.
func (s *Shielded) AppendRoot(newRoot types.HexBytes) error {
	if len(newRoot) != types.HashLen {
		return ErrInvalidRoot
	}
	root := append(types.HexBytes{}, newRoot...)
	if len(s.RootHistory) < types.MaxRootHistory {
		s.RootHistory = append(s.RootHistory, root)
	} else {
		idx := int(s.RootHistoryIndex) % types.MaxRootHistory
		s.RootHistory[idx] = root
		s.RootHistoryIndex++
	}
	s.MerkleRoot = root
	return nil
}

// RootKnown reports whether candidate is the current root or any root
// still inside the history window.
func (s *Shielded) RootKnown(candidate types.HexBytes) bool {
	if s.MerkleRoot.Equal(candidate) {
		return true
	}
	for _, r := range s.RootHistory {
		if r.Equal(candidate) {
			return true
		}
	}
	return false
}

// IdentityRegistry is the single compliance-gate Merkle root that
// membership proofs reference.
type IdentityRegistry struct {
	MerkleRoot      types.HexBytes `json:"merkleRoot"`
	CommitmentCount uint64         `json:"commitmentCount"`
}

// NewIdentityRegistry returns a registry rooted at the empty tree.
func NewIdentityRegistry() *IdentityRegistry {
	return &IdentityRegistry{
		MerkleRoot: append(types.HexBytes{}, types.EmptyStateRoot...),
	}
}

// Register advances the registry to the root that includes one more
// identity commitment.
func (r *IdentityRegistry) Register(commitment, newRoot types.HexBytes) error {
	if len(commitment) != types.HashLen || len(newRoot) != types.HashLen {
		return ErrInvalidRoot
	}
	r.CommitmentCount++
	r.MerkleRoot = append(types.HexBytes{}, newRoot...)
	return nil
}
