// Package bn254 exposes the curve operations the Groth16 verifier needs as
// byte-in/byte-out primitives over the BN254 (alt_bn128) pairing-friendly
// curve, in the big-endian encoding used by external provers:
//
//   - G1 points are 64 bytes, x || y.
//   - G2 points are 128 bytes with the Fq2 components of each coordinate
//     reversed: x.c1 || x.c0 || y.c1 || y.c0.
//   - All-zero bytes encode the point at infinity.
//
// Coordinates are decoded canonically (a coordinate >= the base-field
// modulus is malformed) and points are checked on-curve; G2 points are
// additionally checked in the r-torsion subgroup.
package bn254

import (
	"errors"
	"math/big"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
)

// Encoding sizes, in bytes.
const (
	ScalarSize         = 32
	G1PointSize        = 64
	G2PointSize        = 128
	PairingElementSize = G1PointSize + G2PointSize
	PairingOutputSize  = 32
)

var (
	// ErrInvalidLength reports an input whose length does not match the
	// fixed encoding.
	ErrInvalidLength = errors.New("bn254: invalid input length")
	// ErrMalformedPoint reports bytes that do not decode to a valid curve
	// point (non-canonical coordinate, off-curve, or outside the subgroup).
	ErrMalformedPoint = errors.New("bn254: malformed curve point")
)

func decodeG1(b []byte) (*curve.G1Affine, error) {
	if len(b) != G1PointSize {
		return nil, ErrInvalidLength
	}
	var p curve.G1Affine
	if isZero(b) {
		return &p, nil
	}
	if err := p.X.SetBytesCanonical(b[:32]); err != nil {
		return nil, ErrMalformedPoint
	}
	if err := p.Y.SetBytesCanonical(b[32:]); err != nil {
		return nil, ErrMalformedPoint
	}
	if !p.IsOnCurve() {
		return nil, ErrMalformedPoint
	}
	return &p, nil
}

func encodeG1(p *curve.G1Affine) []byte {
	out := make([]byte, G1PointSize)
	if p.IsInfinity() {
		return out
	}
	x := p.X.Bytes()
	y := p.Y.Bytes()
	copy(out[:32], x[:])
	copy(out[32:], y[:])
	return out
}

func decodeG2(b []byte) (*curve.G2Affine, error) {
	if len(b) != G2PointSize {
		return nil, ErrInvalidLength
	}
	var p curve.G2Affine
	if isZero(b) {
		return &p, nil
	}
	if err := p.X.A1.SetBytesCanonical(b[0:32]); err != nil {
		return nil, ErrMalformedPoint
	}
	if err := p.X.A0.SetBytesCanonical(b[32:64]); err != nil {
		return nil, ErrMalformedPoint
	}
	if err := p.Y.A1.SetBytesCanonical(b[64:96]); err != nil {
		return nil, ErrMalformedPoint
	}
	if err := p.Y.A0.SetBytesCanonical(b[96:128]); err != nil {
		return nil, ErrMalformedPoint
	}
	if !p.IsOnCurve() || !p.IsInSubGroup() {
		return nil, ErrMalformedPoint
	}
	return &p, nil
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// EncodeG1 serializes a G1 point to the 64-byte x || y encoding.
func EncodeG1(p *curve.G1Affine) []byte {
	return encodeG1(p)
}

// EncodeG2 serializes a G2 point to the 128-byte encoding with reversed
// Fq2 components.
func EncodeG2(p *curve.G2Affine) []byte {
	out := make([]byte, G2PointSize)
	if p.IsInfinity() {
		return out
	}
	x1 := p.X.A1.Bytes()
	x0 := p.X.A0.Bytes()
	y1 := p.Y.A1.Bytes()
	y0 := p.Y.A0.Bytes()
	copy(out[0:32], x1[:])
	copy(out[32:64], x0[:])
	copy(out[64:96], y1[:])
	copy(out[96:128], y0[:])
	return out
}

// G1Add adds two encoded G1 points and returns the encoded sum.
func G1Add(a, b []byte) ([]byte, error) {
	pa, err := decodeG1(a)
	if err != nil {
		return nil, err
	}
	pb, err := decodeG1(b)
	if err != nil {
		return nil, err
	}
	var sum curve.G1Affine
	sum.Add(pa, pb)
	return encodeG1(&sum), nil
}

// G1ScalarMul multiplies an encoded G1 point by a 32-byte big-endian
// scalar. The scalar is taken verbatim; values at or above the scalar
// field order are reduced by the multiplication itself.
func G1ScalarMul(point, scalar []byte) ([]byte, error) {
	if len(scalar) != ScalarSize {
		return nil, ErrInvalidLength
	}
	p, err := decodeG1(point)
	if err != nil {
		return nil, err
	}
	var res curve.G1Affine
	res.ScalarMultiplication(p, new(big.Int).SetBytes(scalar))
	return encodeG1(&res), nil
}

// Pairing runs the optimal-ate pairing product over a concatenation of
// (G1, G2) pairs, 192 bytes each. The output is a 32-byte big-endian word:
// 1 when the product equals the multiplicative identity, 0 otherwise.
func Pairing(input []byte) ([]byte, error) {
	if len(input) == 0 || len(input)%PairingElementSize != 0 {
		return nil, ErrInvalidLength
	}
	n := len(input) / PairingElementSize
	g1s := make([]curve.G1Affine, n)
	g2s := make([]curve.G2Affine, n)
	for i := 0; i < n; i++ {
		offset := i * PairingElementSize
		p, err := decodeG1(input[offset : offset+G1PointSize])
		if err != nil {
			return nil, err
		}
		q, err := decodeG2(input[offset+G1PointSize : offset+PairingElementSize])
		if err != nil {
			return nil, err
		}
		g1s[i] = *p
		g2s[i] = *q
	}
	ok, err := curve.PairingCheck(g1s, g2s)
	if err != nil {
		return nil, err
	}
	out := make([]byte, PairingOutputSize)
	if ok {
		out[PairingOutputSize-1] = 1
	}
	return out, nil
}

// NegateG1 negates an encoded G1 point in place of its y-coordinate
// (y <- p - y over the base field); a zero y negates to itself. The
// x-coordinate is not validated here, matching the primitive contract:
// a bogus point surfaces as malformed in the pairing call that consumes it.
func NegateG1(point []byte) ([]byte, error) {
	if len(point) != G1PointSize {
		return nil, ErrInvalidLength
	}
	out := make([]byte, G1PointSize)
	copy(out, point)
	if isZero(point[32:]) {
		return out, nil
	}
	var y fp.Element
	if err := y.SetBytesCanonical(point[32:]); err != nil {
		return nil, ErrMalformedPoint
	}
	y.Neg(&y)
	neg := y.Bytes()
	copy(out[32:], neg[:])
	return out, nil
}

// PairingIsOne reports whether a pairing output encodes the multiplicative
// identity: 31 zero bytes followed by 1.
func PairingIsOne(output []byte) bool {
	if len(output) != PairingOutputSize {
		return false
	}
	return isZero(output[:PairingOutputSize-1]) && output[PairingOutputSize-1] == 1
}
