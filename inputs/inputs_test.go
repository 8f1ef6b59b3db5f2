package inputs

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/veilpay/veilpay-go/types"
)

func word(fill byte) types.HexBytes {
	w := make(types.HexBytes, types.HashLen)
	for i := range w {
		w[i] = fill
	}
	return w
}

func sampleV2() *PublicInputs {
	p := &PublicInputs{
		Root:         word(0xaa),
		IdentityRoot: word(0xbb),
		AmountOut:    1000,
		FeeAmount:    1,
		CircuitID:    42,
	}
	p.Nullifiers[0] = word(0x11)
	p.Nullifiers[1] = word(0x22)
	p.Nullifiers[2] = word(0)
	p.Nullifiers[3] = word(0)
	p.OutputCommitments[0] = word(0)
	p.OutputCommitments[1] = word(0x33)
	p.OutputEnabled[1] = 1
	return p
}

func TestRoundtripV2(t *testing.T) {
	c := qt.New(t)
	p := sampleV2()
	data, err := p.Encode(LayoutV2)
	c.Assert(err, qt.IsNil)
	c.Assert(len(data), qt.Equals, 13*types.HashLen)

	back, err := Decode(LayoutV2, data)
	c.Assert(err, qt.IsNil)
	c.Assert(back, qt.DeepEquals, p)
}

func TestRoundtripV1(t *testing.T) {
	c := qt.New(t)
	p := &PublicInputs{
		Root:      word(0xaa),
		AmountOut: 500,
		FeeAmount: 5,
		CircuitID: 7,
	}
	p.Nullifiers[0] = word(0x11)
	for i := 1; i < MaxInputs; i++ {
		p.Nullifiers[i] = word(0)
	}
	p.OutputCommitments[0] = word(0)
	p.OutputCommitments[1] = word(0x33)
	p.OutputEnabled[1] = 1

	data, err := p.Encode(LayoutV1)
	c.Assert(err, qt.IsNil)
	c.Assert(len(data), qt.Equals, 6*types.HashLen)

	back, err := Decode(LayoutV1, data)
	c.Assert(err, qt.IsNil)
	c.Assert(back.Root, qt.DeepEquals, p.Root)
	c.Assert(back.Nullifiers[0], qt.DeepEquals, p.Nullifiers[0])
	c.Assert(back.OutputCommitments[1], qt.DeepEquals, p.OutputCommitments[1])
	c.Assert(back.OutputEnabled, qt.Equals, p.OutputEnabled)
	c.Assert(back.AmountOut, qt.Equals, p.AmountOut)
	c.Assert(back.IdentityRoot, qt.HasLen, 0)

	// batched state cannot encode under the legacy layout
	batched := sampleV2()
	_, err = batched.Encode(LayoutV1)
	c.Assert(errors.Is(err, ErrInvalidPublicInputs), qt.IsTrue)
}

func TestDecodeRejectsPadding(t *testing.T) {
	c := qt.New(t)
	data, err := sampleV2().Encode(LayoutV2)
	c.Assert(err, qt.IsNil)

	// byte 5 of the circuit_id element (the last) set high
	bad := append([]byte{}, data...)
	bad[12*types.HashLen+5] = 1
	_, err = Decode(LayoutV2, bad)
	c.Assert(errors.Is(err, ErrInvalidPublicInputs), qt.IsTrue)

	// padding byte of amount_out
	bad = append([]byte{}, data...)
	bad[10*types.HashLen+3] = 0xff
	_, err = Decode(LayoutV2, bad)
	c.Assert(errors.Is(err, ErrInvalidPublicInputs), qt.IsTrue)

	// flag neither 0 nor 1
	bad = append([]byte{}, data...)
	bad[9*types.HashLen+types.HashLen-1] = 2
	_, err = Decode(LayoutV2, bad)
	c.Assert(errors.Is(err, ErrInvalidPublicInputs), qt.IsTrue)

	// a flag word with a high bit set is not a flag, even if the low byte is fine
	bad = append([]byte{}, data...)
	bad[8*types.HashLen] = 1
	_, err = Decode(LayoutV2, bad)
	c.Assert(errors.Is(err, ErrInvalidPublicInputs), qt.IsTrue)
}

func TestDecodeLength(t *testing.T) {
	c := qt.New(t)
	_, err := Decode(LayoutV2, make([]byte, 12*types.HashLen))
	c.Assert(errors.Is(err, ErrInvalidPublicInputs), qt.IsTrue)

	_, err = Decode(LayoutV1, make([]byte, 13*types.HashLen))
	c.Assert(errors.Is(err, ErrInvalidPublicInputs), qt.IsTrue)

	_, err = Decode(LayoutVersion(9), make([]byte, 6*types.HashLen))
	c.Assert(errors.Is(err, ErrInvalidPublicInputs), qt.IsTrue)
}
