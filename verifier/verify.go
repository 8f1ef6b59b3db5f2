package verifier

import (
	"fmt"

	"github.com/veilpay/veilpay-go/crypto/bn254"
	"github.com/veilpay/veilpay-go/types"
)

// Proof byte offsets: A(64) || B(128) || C(64).
const (
	proofAOffset = 0
	proofBOffset = types.G1PointLen
	proofCOffset = types.G1PointLen + types.G2PointLen
)

// Verify checks a Groth16 proof against the key. The proof is the fixed
// 256-byte A || B || C encoding; publicInputs is PublicInputsLen 32-byte
// big-endian field elements. A mock key bypasses the pairing check once
// both lengths validate.
//
// The pairing equation e(A,B) = e(alpha,beta) * e(vk_x,gamma) * e(C,delta)
// is checked as a single 4-pair product against the identity, negating
// alpha, vk_x and C.
func Verify(key *VerifyingKey, proof, publicInputs []byte) error {
	if len(publicInputs) != int(key.PublicInputsLen)*types.HashLen {
		return ErrInvalidInputCount
	}
	if len(proof) != types.ProofLen {
		return fmt.Errorf("%w: proof is %d bytes", ErrInvalidProof, len(proof))
	}
	if key.Mock {
		return nil
	}

	a := proof[proofAOffset:proofBOffset]
	b := proof[proofBOffset:proofCOffset]
	c := proof[proofCOffset:]

	vkx, err := computeVkX(key.GammaABC, publicInputs)
	if err != nil {
		return err
	}

	negAlpha, err := bn254.NegateG1(key.AlphaG1)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	negVkx, err := bn254.NegateG1(vkx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	negC, err := bn254.NegateG1(c)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}

	input := make([]byte, 0, 4*bn254.PairingElementSize)
	input = append(input, a...)
	input = append(input, b...)
	input = append(input, negAlpha...)
	input = append(input, key.BetaG2...)
	input = append(input, negVkx...)
	input = append(input, key.GammaG2...)
	input = append(input, negC...)
	input = append(input, key.DeltaG2...)

	out, err := bn254.Pairing(input)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	if !bn254.PairingIsOne(out) {
		return ErrInvalidProof
	}
	return nil
}

// computeVkX accumulates gamma_abc[0] + sum(gamma_abc[i+1] * input_i). Each
// 32-byte input word is used as a scalar verbatim; out-of-field values are
// reduced by the multiplication primitive, matching the prover convention.
func computeVkX(gammaABC []types.HexBytes, publicInputs []byte) ([]byte, error) {
	if len(gammaABC) == 0 {
		return nil, ErrInvalidKey
	}
	acc := []byte(gammaABC[0])
	for i := 0; i*types.HashLen < len(publicInputs); i++ {
		if i+1 >= len(gammaABC) {
			return nil, ErrInvalidKey
		}
		scalar := publicInputs[i*types.HashLen : (i+1)*types.HashLen]
		term, err := bn254.G1ScalarMul(gammaABC[i+1], scalar)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidProof, err)
		}
		acc, err = bn254.G1Add(acc, term)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidProof, err)
		}
	}
	return acc, nil
}
