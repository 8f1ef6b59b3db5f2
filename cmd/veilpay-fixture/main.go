// Command veilpay-fixture generates a known-valid Groth16 fixture: it
// compiles the one-input unit circuit, runs setup and proving, re-checks
// the result through the byte-level verifier and writes the key, proof
// and public inputs as hex JSON in the protocol encoding.
package main

import (
	"encoding/json"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/veilpay/veilpay-go/fixture"
	"github.com/veilpay/veilpay-go/log"
	"github.com/veilpay/veilpay-go/types"
)

type fixtureFile struct {
	KeyID           uint32           `json:"keyId"`
	AlphaG1         types.HexBytes   `json:"alphaG1"`
	BetaG2          types.HexBytes   `json:"betaG2"`
	GammaG2         types.HexBytes   `json:"gammaG2"`
	DeltaG2         types.HexBytes   `json:"deltaG2"`
	GammaABC        []types.HexBytes `json:"gammaAbc"`
	PublicInputsLen uint32           `json:"publicInputsLen"`
	Proof           types.HexBytes   `json:"proof"`
	PublicInputs    types.HexBytes   `json:"publicInputs"`
}

func main() {
	out := flag.String("out", "fixture.json", "output file path")
	keyID := flag.Uint32("key-id", 1, "key identifier embedded in the fixture")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()
	log.Init(*logLevel, "stdout", nil)

	f, err := fixture.Generate(*keyID)
	if err != nil {
		log.Fatalf("could not generate fixture: %v", err)
	}

	gammaABC := make([]types.HexBytes, len(f.Key.GammaABC))
	for i, p := range f.Key.GammaABC {
		gammaABC[i] = append(types.HexBytes{}, p...)
	}
	data, err := json.MarshalIndent(&fixtureFile{
		KeyID:           f.Key.KeyID,
		AlphaG1:         f.Key.AlphaG1,
		BetaG2:          f.Key.BetaG2,
		GammaG2:         f.Key.GammaG2,
		DeltaG2:         f.Key.DeltaG2,
		GammaABC:        gammaABC,
		PublicInputsLen: f.Key.PublicInputsLen,
		Proof:           f.Proof,
		PublicInputs:    f.PublicInputs,
	}, "", "  ")
	if err != nil {
		log.Fatalf("could not marshal fixture: %v", err)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		log.Fatalf("could not write %s: %v", *out, err)
	}
	log.Infow("fixture written", "path", *out, "keyId", *keyID,
		"publicInputs", f.Key.PublicInputsLen)
}
