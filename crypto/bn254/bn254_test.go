package bn254

import (
	"bytes"
	"testing"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	qt "github.com/frankban/quicktest"
)

func generators() ([]byte, []byte) {
	_, _, g1, g2 := curve.Generators()
	return EncodeG1(&g1), EncodeG2(&g2)
}

func TestG1Roundtrip(t *testing.T) {
	c := qt.New(t)
	g1enc, g2enc := generators()

	p, err := decodeG1(g1enc)
	c.Assert(err, qt.IsNil)
	c.Assert(encodeG1(p), qt.DeepEquals, g1enc)

	q, err := decodeG2(g2enc)
	c.Assert(err, qt.IsNil)
	c.Assert(q.IsOnCurve(), qt.IsTrue)

	// all-zero bytes decode to the identity
	inf, err := decodeG1(make([]byte, G1PointSize))
	c.Assert(err, qt.IsNil)
	c.Assert(inf.IsInfinity(), qt.IsTrue)
}

func TestG1RejectsMalformed(t *testing.T) {
	c := qt.New(t)

	// non-canonical coordinate (>= p)
	overflow := bytes.Repeat([]byte{0xff}, G1PointSize)
	_, err := decodeG1(overflow)
	c.Assert(err, qt.Equals, ErrMalformedPoint)

	// off-curve point: (1, 1) does not satisfy y^2 = x^3 + 3
	offCurve := make([]byte, G1PointSize)
	offCurve[31] = 1
	offCurve[63] = 1
	_, err = decodeG1(offCurve)
	c.Assert(err, qt.Equals, ErrMalformedPoint)

	_, err = decodeG1(make([]byte, 63))
	c.Assert(err, qt.Equals, ErrInvalidLength)
}

func TestG1AddAndScalarMul(t *testing.T) {
	c := qt.New(t)
	g1enc, _ := generators()

	doubled, err := G1Add(g1enc, g1enc)
	c.Assert(err, qt.IsNil)

	two := make([]byte, ScalarSize)
	two[ScalarSize-1] = 2
	byScalar, err := G1ScalarMul(g1enc, two)
	c.Assert(err, qt.IsNil)
	c.Assert(byScalar, qt.DeepEquals, doubled)

	// adding the identity is a no-op
	same, err := G1Add(g1enc, make([]byte, G1PointSize))
	c.Assert(err, qt.IsNil)
	c.Assert(same, qt.DeepEquals, g1enc)

	// scalar zero yields the identity
	zero, err := G1ScalarMul(g1enc, make([]byte, ScalarSize))
	c.Assert(err, qt.IsNil)
	c.Assert(isZero(zero), qt.IsTrue)
}

func TestNegateG1(t *testing.T) {
	c := qt.New(t)
	g1enc, _ := generators()

	neg, err := NegateG1(g1enc)
	c.Assert(err, qt.IsNil)

	sum, err := G1Add(g1enc, neg)
	c.Assert(err, qt.IsNil)
	c.Assert(isZero(sum), qt.IsTrue)

	// the identity negates to itself
	zero := make([]byte, G1PointSize)
	negZero, err := NegateG1(zero)
	c.Assert(err, qt.IsNil)
	c.Assert(negZero, qt.DeepEquals, zero)
}

func TestPairing(t *testing.T) {
	c := qt.New(t)
	g1enc, g2enc := generators()
	negG1, err := NegateG1(g1enc)
	c.Assert(err, qt.IsNil)

	// e(G, H) * e(-G, H) == 1
	input := append(append([]byte{}, g1enc...), g2enc...)
	input = append(input, negG1...)
	input = append(input, g2enc...)
	out, err := Pairing(input)
	c.Assert(err, qt.IsNil)
	c.Assert(PairingIsOne(out), qt.IsTrue)

	// e(G, H) alone is not the identity
	single := append(append([]byte{}, g1enc...), g2enc...)
	out, err = Pairing(single)
	c.Assert(err, qt.IsNil)
	c.Assert(PairingIsOne(out), qt.IsFalse)

	_, err = Pairing(single[:100])
	c.Assert(err, qt.Equals, ErrInvalidLength)
}
