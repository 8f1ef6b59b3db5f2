// Package fixture generates known-valid Groth16 material in the protocol's
// big-endian byte encoding: a verifying key, a 256-byte proof and its
// public inputs. It backs the verifier tests and the veilpay-fixture
// command; it is not part of the protocol core.
package fixture

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	groth16bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/veilpay/veilpay-go/crypto/bn254"
	"github.com/veilpay/veilpay-go/types"
	"github.com/veilpay/veilpay-go/verifier"
)

// UnitCircuit is the minimal one-public-input circuit (x == 1) used to
// produce real proofs without any trusted-setup ceremony.
type UnitCircuit struct {
	X frontend.Variable `gnark:",public"`
}

func (c *UnitCircuit) Define(api frontend.API) error {
	api.AssertIsEqual(c.X, 1)
	return nil
}

// Fixture bundles a verifying key with a proof over it.
type Fixture struct {
	Key          *verifier.VerifyingKey
	Proof        types.HexBytes
	PublicInputs types.HexBytes
}

// Generate compiles the unit circuit, runs Groth16 setup and proving, and
// serializes everything in the protocol encoding. The result is
// self-checked through the byte-level verifier before being returned.
func Generate(keyID uint32) (*Fixture, error) {
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &UnitCircuit{})
	if err != nil {
		return nil, fmt.Errorf("compile fixture circuit: %w", err)
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("groth16 setup: %w", err)
	}
	witness, err := frontend.NewWitness(&UnitCircuit{X: 1}, ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("build witness: %w", err)
	}
	proof, err := groth16.Prove(ccs, pk, witness)
	if err != nil {
		return nil, fmt.Errorf("groth16 prove: %w", err)
	}

	key, err := exportKey(keyID, vk)
	if err != nil {
		return nil, err
	}
	proofBytes, err := exportProof(proof)
	if err != nil {
		return nil, err
	}
	publicInputs := make(types.HexBytes, types.HashLen)
	publicInputs[types.HashLen-1] = 1 // x = 1

	f := &Fixture{Key: key, Proof: proofBytes, PublicInputs: publicInputs}
	if err := verifier.Verify(f.Key, f.Proof, f.PublicInputs); err != nil {
		return nil, fmt.Errorf("fixture self-check failed: %w", err)
	}
	return f, nil
}

func exportKey(keyID uint32, vk groth16.VerifyingKey) (*verifier.VerifyingKey, error) {
	cvk, ok := vk.(*groth16bn254.VerifyingKey)
	if !ok {
		return nil, fmt.Errorf("unexpected verifying key type %T", vk)
	}
	gammaABC := make([]types.HexBytes, len(cvk.G1.K))
	for i := range cvk.G1.K {
		gammaABC[i] = bn254.EncodeG1(&cvk.G1.K[i])
	}
	return verifier.NewKey(verifier.InitializeKeyArgs{
		KeyID:           keyID,
		AlphaG1:         bn254.EncodeG1(&cvk.G1.Alpha),
		BetaG2:          bn254.EncodeG2(&cvk.G2.Beta),
		GammaG2:         bn254.EncodeG2(&cvk.G2.Gamma),
		DeltaG2:         bn254.EncodeG2(&cvk.G2.Delta),
		PublicInputsLen: uint32(len(cvk.G1.K) - 1),
		GammaABC:        gammaABC,
	})
}

func exportProof(proof groth16.Proof) (types.HexBytes, error) {
	cproof, ok := proof.(*groth16bn254.Proof)
	if !ok {
		return nil, fmt.Errorf("unexpected proof type %T", proof)
	}
	out := make(types.HexBytes, 0, types.ProofLen)
	out = append(out, bn254.EncodeG1(&cproof.Ar)...)
	out = append(out, bn254.EncodeG2(&cproof.Bs)...)
	out = append(out, bn254.EncodeG1(&cproof.Krs)...)
	return out, nil
}
