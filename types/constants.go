package types

// Byte widths of the wire encodings shared by the verifier and the pool.
const (
	// HashLen is the size of roots, nullifiers and commitments.
	HashLen = 32
	// ProofLen is the fixed Groth16 proof encoding A(64) || B(128) || C(64).
	ProofLen = 256
	// G1PointLen is an uncompressed big-endian G1 point (x || y).
	G1PointLen = 64
	// G2PointLen is an uncompressed big-endian G2 point with the Fq2
	// components of each coordinate reversed (x.c1 || x.c0 || y.c1 || y.c0).
	G2PointLen = 128
	// CiphertextLen is the note ciphertext attached to a deposit.
	CiphertextLen = 128
)

// Protocol-wide bounds.
const (
	// MaxAllowlist bounds the mint allow-list in the pool config.
	MaxAllowlist = 32
	// MaxCircuits bounds the circuit-id allow-list in the pool config.
	MaxCircuits = 8
	// MaxRootHistory is the capacity of the shielded root ring buffer.
	MaxRootHistory = 32
	// MaxVerifierKeys bounds the verifying-key registry.
	MaxVerifierKeys = 16
	// MaxPublicInputs bounds the public-input arity of a verifying key.
	MaxPublicInputs = 16
	// FeeDenominator converts basis points to a fraction.
	FeeDenominator = 10_000
)

// EmptyStateRoot is the Merkle root of the empty commitment tree; shielded
// states and the identity registry start from it.
var EmptyStateRoot = HexBytes{
	0x21, 0x34, 0xE7, 0x6A, 0xC5, 0xD2, 0x1A, 0xAB,
	0x18, 0x6C, 0x2B, 0xE1, 0xDD, 0x8F, 0x84, 0xEE,
	0x88, 0x0A, 0x1E, 0x46, 0xEA, 0xF7, 0x12, 0xF9,
	0xD3, 0x71, 0xB6, 0xDF, 0x22, 0x19, 0x1F, 0x3E,
}
