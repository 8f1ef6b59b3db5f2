// Package inputs encodes and decodes the semantic fields of a proof's
// public inputs to and from the fixed array of 32-byte big-endian field
// elements the verifier consumes. Two layout generations exist: the legacy
// single-nullifier V1 (6 elements) and the batched V2 (13 elements).
package inputs

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/veilpay/veilpay-go/types"
)

// ErrInvalidPublicInputs reports a byte blob that does not decode under
// the selected layout: wrong length, nonzero padding in an integral field,
// or an out-of-range flag.
var ErrInvalidPublicInputs = errors.New("invalid public inputs")

// Slot counts per operation.
const (
	MaxInputs  = 4
	MaxOutputs = 2
)

// LayoutVersion selects the public-input layout generation.
type LayoutVersion uint32

const (
	// LayoutV1 is the legacy 6-element layout: root, nullifier,
	// output_commitment, amount_out, fee_amount, circuit_id.
	LayoutV1 LayoutVersion = 1
	// LayoutV2 is the batched 13-element layout: root, identity_root,
	// 4 nullifiers, 2 output_commitments, 2 output_enabled flags,
	// amount_out, fee_amount, circuit_id.
	LayoutV2 LayoutVersion = 2
)

// NumElements returns the number of 32-byte elements of the layout.
func (v LayoutVersion) NumElements() int {
	switch v {
	case LayoutV1:
		return 6
	case LayoutV2:
		return 13
	default:
		return 0
	}
}

// Valid reports whether v is a known layout generation.
func (v LayoutVersion) Valid() bool {
	return v == LayoutV1 || v == LayoutV2
}

// PublicInputs is the decoded, layout-independent view of a proof's public
// inputs. Under LayoutV1 the identity root is nil, only the first
// nullifier slot is populated, and the single output occupies slot 1 (the
// appended-commitment slot), enabled iff its word is nonzero.
type PublicInputs struct {
	Root              types.HexBytes             `json:"root"`
	IdentityRoot      types.HexBytes             `json:"identityRoot,omitempty"`
	Nullifiers        [MaxInputs]types.HexBytes  `json:"nullifiers"`
	OutputCommitments [MaxOutputs]types.HexBytes `json:"outputCommitments"`
	OutputEnabled     [MaxOutputs]uint8          `json:"outputEnabled"`
	AmountOut         uint64                     `json:"amountOut"`
	FeeAmount         uint64                     `json:"feeAmount"`
	CircuitID         uint32                     `json:"circuitId"`
}

// Decode parses a public-input blob under the given layout.
func Decode(version LayoutVersion, data []byte) (*PublicInputs, error) {
	if !version.Valid() {
		return nil, fmt.Errorf("%w: unknown layout version %d", ErrInvalidPublicInputs, version)
	}
	if len(data) != version.NumElements()*types.HashLen {
		return nil, fmt.Errorf("%w: got %d bytes, layout v%d wants %d",
			ErrInvalidPublicInputs, len(data), version, version.NumElements()*types.HashLen)
	}
	words := make([]types.HexBytes, version.NumElements())
	for i := range words {
		words[i] = types.HexBytes(data[i*types.HashLen : (i+1)*types.HashLen])
	}
	if version == LayoutV1 {
		return decodeV1(words)
	}
	return decodeV2(words)
}

func decodeV1(w []types.HexBytes) (*PublicInputs, error) {
	p := &PublicInputs{Root: w[0]}
	p.Nullifiers[0] = w[1]
	for i := 1; i < MaxInputs; i++ {
		p.Nullifiers[i] = make(types.HexBytes, types.HashLen)
	}
	p.OutputCommitments[0] = make(types.HexBytes, types.HashLen)
	p.OutputCommitments[1] = w[2]
	if !w[2].IsZero() {
		p.OutputEnabled[1] = 1
	}
	var err error
	if p.AmountOut, err = parseU64(w[3]); err != nil {
		return nil, err
	}
	if p.FeeAmount, err = parseU64(w[4]); err != nil {
		return nil, err
	}
	if p.CircuitID, err = parseU32(w[5]); err != nil {
		return nil, err
	}
	return p, nil
}

func decodeV2(w []types.HexBytes) (*PublicInputs, error) {
	p := &PublicInputs{Root: w[0], IdentityRoot: w[1]}
	for i := 0; i < MaxInputs; i++ {
		p.Nullifiers[i] = w[2+i]
	}
	for i := 0; i < MaxOutputs; i++ {
		p.OutputCommitments[i] = w[2+MaxInputs+i]
	}
	var err error
	for i := 0; i < MaxOutputs; i++ {
		if p.OutputEnabled[i], err = parseFlag(w[2+MaxInputs+MaxOutputs+i]); err != nil {
			return nil, err
		}
	}
	base := 2 + MaxInputs + 2*MaxOutputs
	if p.AmountOut, err = parseU64(w[base]); err != nil {
		return nil, err
	}
	if p.FeeAmount, err = parseU64(w[base+1]); err != nil {
		return nil, err
	}
	if p.CircuitID, err = parseU32(w[base+2]); err != nil {
		return nil, err
	}
	return p, nil
}

// Encode serializes p under the given layout; it is the exact inverse of
// Decode. Encoding under LayoutV1 fails if p carries state the legacy
// layout cannot express.
func (p *PublicInputs) Encode(version LayoutVersion) ([]byte, error) {
	switch version {
	case LayoutV1:
		return p.encodeV1()
	case LayoutV2:
		return p.encodeV2()
	default:
		return nil, fmt.Errorf("%w: unknown layout version %d", ErrInvalidPublicInputs, version)
	}
}

func (p *PublicInputs) encodeV1() ([]byte, error) {
	for i := 1; i < MaxInputs; i++ {
		if !p.Nullifiers[i].IsZero() {
			return nil, fmt.Errorf("%w: layout v1 has a single nullifier slot", ErrInvalidPublicInputs)
		}
	}
	if !p.OutputCommitments[0].IsZero() || p.OutputEnabled[0] != 0 {
		return nil, fmt.Errorf("%w: layout v1 has a single output slot", ErrInvalidPublicInputs)
	}
	if len(p.IdentityRoot) != 0 && !p.IdentityRoot.IsZero() {
		return nil, fmt.Errorf("%w: layout v1 carries no identity root", ErrInvalidPublicInputs)
	}
	out := make([]byte, 0, 6*types.HashLen)
	out = appendWord(out, p.Root)
	out = appendWord(out, p.Nullifiers[0])
	out = appendWord(out, p.OutputCommitments[1])
	out = appendU64(out, p.AmountOut)
	out = appendU64(out, p.FeeAmount)
	out = appendU64(out, uint64(p.CircuitID))
	return out, nil
}

func (p *PublicInputs) encodeV2() ([]byte, error) {
	out := make([]byte, 0, 13*types.HashLen)
	out = appendWord(out, p.Root)
	out = appendWord(out, p.IdentityRoot)
	for i := 0; i < MaxInputs; i++ {
		out = appendWord(out, p.Nullifiers[i])
	}
	for i := 0; i < MaxOutputs; i++ {
		out = appendWord(out, p.OutputCommitments[i])
	}
	for i := 0; i < MaxOutputs; i++ {
		out = appendU64(out, uint64(p.OutputEnabled[i]))
	}
	out = appendU64(out, p.AmountOut)
	out = appendU64(out, p.FeeAmount)
	out = appendU64(out, uint64(p.CircuitID))
	return out, nil
}

func appendWord(out []byte, w types.HexBytes) []byte {
	word := make([]byte, types.HashLen)
	copy(word[types.HashLen-len(w):], w)
	return append(out, word...)
}

func appendU64(out []byte, v uint64) []byte {
	word := make([]byte, types.HashLen)
	binary.BigEndian.PutUint64(word[types.HashLen-8:], v)
	return append(out, word...)
}

// Integral fields pack into the low-order bytes of a 32-byte element; any
// nonzero high-order byte is rejected so a scalar-field element cannot
// masquerade as a small integer under modular reduction.

func parseU64(w types.HexBytes) (uint64, error) {
	if !w[:types.HashLen-8].IsZero() {
		return 0, fmt.Errorf("%w: nonzero padding in u64 field", ErrInvalidPublicInputs)
	}
	return binary.BigEndian.Uint64(w[types.HashLen-8:]), nil
}

func parseU32(w types.HexBytes) (uint32, error) {
	if !w[:types.HashLen-4].IsZero() {
		return 0, fmt.Errorf("%w: nonzero padding in u32 field", ErrInvalidPublicInputs)
	}
	return binary.BigEndian.Uint32(w[types.HashLen-4:]), nil
}

func parseFlag(w types.HexBytes) (uint8, error) {
	v, err := parseU64(w)
	if err != nil {
		return 0, err
	}
	if v > 1 {
		return 0, fmt.Errorf("%w: flag value %d", ErrInvalidPublicInputs, v)
	}
	return uint8(v), nil
}
