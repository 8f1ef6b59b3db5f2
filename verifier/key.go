// Package verifier implements Groth16 proof verification over BN254 in the
// byte-exact encoding produced by external provers, plus the verifying-key
// registry and the segmented key-staging path used for keys that exceed a
// single transfer.
package verifier

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/veilpay/veilpay-go/types"
)

var (
	ErrInvalidProof      = errors.New("invalid proof")
	ErrInvalidKey        = errors.New("invalid verifying key")
	ErrInvalidInputCount = errors.New("invalid public input count")
	ErrTooManyInputs     = errors.New("too many public inputs")
	ErrDuplicateKey      = errors.New("verifying key already registered")
	ErrKeyNotFound       = errors.New("verifying key not found")
	ErrRegistryFull      = errors.New("verifying-key registry is full")
)

// VerifyingKey holds the public parameters of one circuit. Created whole by
// InitializeKey, or via InitializeKeyHeader plus SetGammaABC fill-ins for
// large keys; immutable once in use.
type VerifyingKey struct {
	KeyID           uint32           `json:"keyId"`
	AlphaG1         types.HexBytes   `json:"alphaG1"`
	BetaG2          types.HexBytes   `json:"betaG2"`
	GammaG2         types.HexBytes   `json:"gammaG2"`
	DeltaG2         types.HexBytes   `json:"deltaG2"`
	PublicInputsLen uint32           `json:"publicInputsLen"`
	GammaABC        []types.HexBytes `json:"gammaAbc"`
	// Mock bypasses the pairing check. Test and bring-up keys only; never
	// paired with value-moving operations.
	Mock    bool   `json:"mock"`
	Version uint32 `json:"version"`
}

// InitializeKeyArgs carries a whole key.
type InitializeKeyArgs struct {
	KeyID           uint32           `json:"keyId"`
	AlphaG1         types.HexBytes   `json:"alphaG1"`
	BetaG2          types.HexBytes   `json:"betaG2"`
	GammaG2         types.HexBytes   `json:"gammaG2"`
	DeltaG2         types.HexBytes   `json:"deltaG2"`
	PublicInputsLen uint32           `json:"publicInputsLen"`
	GammaABC        []types.HexBytes `json:"gammaAbc"`
	Mock            bool             `json:"mock"`
}

// InitializeKeyHeaderArgs carries the fixed-size part of a key; the
// gamma_abc points are allocated zeroed and filled in with SetGammaABC.
type InitializeKeyHeaderArgs struct {
	KeyID           uint32         `json:"keyId"`
	AlphaG1         types.HexBytes `json:"alphaG1"`
	BetaG2          types.HexBytes `json:"betaG2"`
	GammaG2         types.HexBytes `json:"gammaG2"`
	DeltaG2         types.HexBytes `json:"deltaG2"`
	PublicInputsLen uint32         `json:"publicInputsLen"`
	GammaABCLen     uint32         `json:"gammaAbcLen"`
	Mock            bool           `json:"mock"`
}

func checkKeyPoints(alpha, beta, gamma, delta types.HexBytes) error {
	if len(alpha) != types.G1PointLen {
		return fmt.Errorf("%w: alpha_g1 is %d bytes", ErrInvalidKey, len(alpha))
	}
	for _, g2 := range []types.HexBytes{beta, gamma, delta} {
		if len(g2) != types.G2PointLen {
			return fmt.Errorf("%w: G2 point is %d bytes", ErrInvalidKey, len(g2))
		}
	}
	return nil
}

func checkArity(publicInputsLen uint32, gammaABCLen int, mock bool) error {
	if gammaABCLen > types.MaxPublicInputs+1 {
		return ErrTooManyInputs
	}
	if mock {
		if publicInputsLen > types.MaxPublicInputs {
			return ErrInvalidInputCount
		}
		if gammaABCLen == 0 {
			return ErrInvalidInputCount
		}
		return nil
	}
	if int(publicInputsLen)+1 != gammaABCLen {
		return ErrInvalidInputCount
	}
	return nil
}

// NewKey validates and builds a whole verifying key.
func NewKey(args InitializeKeyArgs) (*VerifyingKey, error) {
	if err := checkKeyPoints(args.AlphaG1, args.BetaG2, args.GammaG2, args.DeltaG2); err != nil {
		return nil, err
	}
	if err := checkArity(args.PublicInputsLen, len(args.GammaABC), args.Mock); err != nil {
		return nil, err
	}
	for i, p := range args.GammaABC {
		if len(p) != types.G1PointLen {
			return nil, fmt.Errorf("%w: gamma_abc[%d] is %d bytes", ErrInvalidKey, i, len(p))
		}
	}
	return &VerifyingKey{
		KeyID:           args.KeyID,
		AlphaG1:         args.AlphaG1,
		BetaG2:          args.BetaG2,
		GammaG2:         args.GammaG2,
		DeltaG2:         args.DeltaG2,
		PublicInputsLen: args.PublicInputsLen,
		GammaABC:        args.GammaABC,
		Mock:            args.Mock,
		Version:         1,
	}, nil
}

// NewKeyHeader builds a key with GammaABCLen zeroed gamma_abc slots, to be
// filled in segments with SetGammaABC.
func NewKeyHeader(args InitializeKeyHeaderArgs) (*VerifyingKey, error) {
	if err := checkKeyPoints(args.AlphaG1, args.BetaG2, args.GammaG2, args.DeltaG2); err != nil {
		return nil, err
	}
	if err := checkArity(args.PublicInputsLen, int(args.GammaABCLen), args.Mock); err != nil {
		return nil, err
	}
	gammaABC := make([]types.HexBytes, args.GammaABCLen)
	for i := range gammaABC {
		gammaABC[i] = make(types.HexBytes, types.G1PointLen)
	}
	return &VerifyingKey{
		KeyID:           args.KeyID,
		AlphaG1:         args.AlphaG1,
		BetaG2:          args.BetaG2,
		GammaG2:         args.GammaG2,
		DeltaG2:         args.DeltaG2,
		PublicInputsLen: args.PublicInputsLen,
		GammaABC:        gammaABC,
		Mock:            args.Mock,
		Version:         1,
	}, nil
}

// SetGammaABC writes a contiguous range of gamma_abc points starting at
// startIndex. The range must fit the allocation made by NewKeyHeader.
func (k *VerifyingKey) SetGammaABC(startIndex uint32, points []types.HexBytes) error {
	if len(points) == 0 {
		return ErrInvalidInputCount
	}
	end := int(startIndex) + len(points)
	if end > len(k.GammaABC) {
		return ErrInvalidInputCount
	}
	for i, p := range points {
		if len(p) != types.G1PointLen {
			return fmt.Errorf("%w: gamma_abc[%d] is %d bytes", ErrInvalidKey, int(startIndex)+i, len(p))
		}
	}
	for i, p := range points {
		k.GammaABC[int(startIndex)+i] = p
	}
	return nil
}

// Hash returns the sha256 digest of the key material, recorded in the
// registry so a key swap is detectable.
func (k *VerifyingKey) Hash() types.HexBytes {
	h := sha256.New()
	h.Write(k.AlphaG1)
	h.Write(k.BetaG2)
	h.Write(k.GammaG2)
	h.Write(k.DeltaG2)
	for _, p := range k.GammaABC {
		h.Write(p)
	}
	return h.Sum(nil)
}

// RegistryEntry binds a circuit id to a verifying key.
type RegistryEntry struct {
	CircuitID uint32         `json:"circuitId"`
	KeyID     uint32         `json:"keyId"`
	KeyHash   types.HexBytes `json:"keyHash"`
	Status    uint8          `json:"status"`
}

// Registry is the bounded set of registered verifying keys.
type Registry struct {
	Entries []RegistryEntry `json:"entries"`
}

// Add appends an entry; duplicate key ids are rejected.
func (r *Registry) Add(entry RegistryEntry) error {
	if len(r.Entries) >= types.MaxVerifierKeys {
		return ErrRegistryFull
	}
	for _, e := range r.Entries {
		if e.KeyID == entry.KeyID {
			return ErrDuplicateKey
		}
	}
	r.Entries = append(r.Entries, entry)
	return nil
}

// ByCircuit returns the entry registered for a circuit id.
func (r *Registry) ByCircuit(circuitID uint32) (RegistryEntry, error) {
	for _, e := range r.Entries {
		if e.CircuitID == circuitID {
			return e, nil
		}
	}
	return RegistryEntry{}, ErrKeyNotFound
}
