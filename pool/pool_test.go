package pool

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/db/metadb"

	"github.com/veilpay/veilpay-go/inputs"
	"github.com/veilpay/veilpay-go/nullifier"
	"github.com/veilpay/veilpay-go/storage"
	"github.com/veilpay/veilpay-go/token"
	"github.com/veilpay/veilpay-go/types"
	"github.com/veilpay/veilpay-go/verifier"
)

var (
	admin     = common.HexToAddress("0xad")
	user      = common.HexToAddress("0x01")
	recipient = common.HexToAddress("0x02")
	relayer   = common.HexToAddress("0x03")
	vaultAuth = common.HexToAddress("0x04")
	mint      = common.HexToAddress("0xaa")
)

const (
	testKeyID     = 1
	testCircuitID = 7
)

// zeroProof is a well-formed placeholder accepted by mock keys.
func zeroProof() types.HexBytes {
	return make(types.HexBytes, types.ProofLen)
}

func word(b byte) types.HexBytes {
	w := make(types.HexBytes, types.HashLen)
	w[types.HashLen-1] = b
	return w
}

// testNullifier builds a nonzero nullifier addressed at (chunk, bit).
func testNullifier(chunk uint32, bit uint16, tag byte) types.HexBytes {
	n := make(types.HexBytes, types.HashLen)
	n[0] = byte(chunk)
	n[1] = byte(chunk >> 8)
	n[2] = byte(chunk >> 16)
	n[3] = byte(chunk >> 24)
	n[4] = byte(bit)
	n[5] = byte(bit >> 8)
	n[31] = tag
	return n
}

type testEnv struct {
	pool *Pool
	stg  *storage.Storage
	slot uint64
}

// newTestEnv builds a configured pool with one allow-listed mint, a mock
// verifying key and funded user balance.
func newTestEnv(t *testing.T) *testEnv {
	c := qt.New(t)
	database := metadb.NewTest(t)
	env := &testEnv{stg: storage.New(database)}
	tokens := token.NewLedger(database)
	env.pool = New(env.stg, tokens, func() uint64 { return env.slot })

	err := env.pool.InitializeConfig(InitializeConfigArgs{
		Admin:            admin,
		FeeRecipient:     admin,
		FeeBps:           25,
		RelayerFeeBpsMax: 100,
		Mints:            []common.Address{mint},
		Circuits:         []uint32{testCircuitID},
	})
	c.Assert(err, qt.IsNil)

	err = env.pool.InitializeKey(admin, testCircuitID, verifier.InitializeKeyArgs{
		KeyID:           testKeyID,
		AlphaG1:         make(types.HexBytes, types.G1PointLen),
		BetaG2:          make(types.HexBytes, types.G2PointLen),
		GammaG2:         make(types.HexBytes, types.G2PointLen),
		DeltaG2:         make(types.HexBytes, types.G2PointLen),
		PublicInputsLen: 13,
		GammaABC:        []types.HexBytes{make(types.HexBytes, types.G1PointLen)},
		Mock:            true,
	})
	c.Assert(err, qt.IsNil)

	err = env.pool.InitializeMintState(admin, mint, vaultAuth, 0, inputs.LayoutV2)
	c.Assert(err, qt.IsNil)

	c.Assert(tokens.Mint(mint, user, 10_000), qt.IsNil)
	return env
}

func (e *testEnv) deposit(c *qt.C, amount uint64, newRoot types.HexBytes) {
	err := e.pool.Deposit(DepositArgs{
		User:           user,
		Mint:           mint,
		VaultAuthority: vaultAuth,
		Amount:         amount,
		Ciphertext:     make(types.HexBytes, types.CiphertextLen),
		Commitment:     word(0xcc),
		NewRoot:        newRoot,
	})
	c.Assert(err, qt.IsNil)
}

// withdrawInputs builds a V2 public-input blob asserting a withdrawal.
func withdrawInputs(c *qt.C, root, null types.HexBytes, amount, fee uint64) types.HexBytes {
	p := &inputs.PublicInputs{
		Root:         root,
		IdentityRoot: append(types.HexBytes{}, types.EmptyStateRoot...),
		AmountOut:    amount,
		FeeAmount:    fee,
		CircuitID:    testCircuitID,
	}
	p.Nullifiers[0] = null
	p.OutputCommitments[0] = make(types.HexBytes, types.HashLen)
	p.OutputCommitments[1] = word(0xdd)
	p.OutputEnabled[1] = 1
	data, err := p.Encode(inputs.LayoutV2)
	c.Assert(err, qt.IsNil)
	return data
}

func (e *testEnv) balance(c *qt.C, account common.Address) uint64 {
	balance, err := e.pool.Tokens().Balance(mint, account)
	c.Assert(err, qt.IsNil)
	return balance
}

func TestDepositThenWithdraw(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(t)

	root1 := word(0x11)
	env.deposit(c, 1000, root1)

	c.Assert(env.balance(c, user), qt.Equals, uint64(9000))
	c.Assert(env.balance(c, vaultAuth), qt.Equals, uint64(1000))

	info, err := env.pool.Info(mint)
	c.Assert(err, qt.IsNil)
	c.Assert(info.Vault.TotalDeposited, qt.Equals, uint64(1000))
	c.Assert(info.Vault.Nonce, qt.Equals, uint64(1))
	c.Assert(info.Shielded.CommitmentCount, qt.Equals, uint64(1))
	c.Assert(info.Shielded.RootKnown(root1), qt.IsTrue)

	null := testNullifier(0, 3, 0x01)
	args := WithdrawArgs{
		Mint:           mint,
		Recipient:      recipient,
		Relayer:        relayer,
		VaultAuthority: vaultAuth,
		Amount:         1000,
		RelayerFeeBps:  10,
		NewRoot:        word(0x22),
		TransferProof: TransferProof{
			KeyID:        testKeyID,
			Proof:        zeroProof(),
			PublicInputs: withdrawInputs(c, root1, null, 1000, 1),
		},
	}
	c.Assert(env.pool.Withdraw(args), qt.IsNil)

	c.Assert(env.balance(c, relayer), qt.Equals, uint64(1))
	c.Assert(env.balance(c, recipient), qt.Equals, uint64(999))
	c.Assert(env.balance(c, vaultAuth), qt.Equals, uint64(0))

	info, err = env.pool.Info(mint)
	c.Assert(err, qt.IsNil)
	c.Assert(info.Vault.TotalWithdrawn, qt.Equals, uint64(1000))
	c.Assert(info.Vault.Nonce, qt.Equals, uint64(2))
	c.Assert(info.Shielded.CommitmentCount, qt.Equals, uint64(2))
	c.Assert(info.Shielded.RootKnown(word(0x22)), qt.IsTrue)

	// the identical withdraw is a replay: the nullifier bit is set
	err = env.pool.Withdraw(args)
	c.Assert(err, qt.ErrorIs, nullifier.ErrAlreadyUsed)
	c.Assert(env.balance(c, recipient), qt.Equals, uint64(999))
}

func TestWithdrawPolicyChecks(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(t)
	root := word(0x11)
	env.deposit(c, 1000, root)

	base := func() WithdrawArgs {
		return WithdrawArgs{
			Mint:           mint,
			Recipient:      recipient,
			Relayer:        relayer,
			VaultAuthority: vaultAuth,
			Amount:         1000,
			RelayerFeeBps:  10,
			NewRoot:        word(0x22),
			TransferProof: TransferProof{
				KeyID:        testKeyID,
				Proof:        zeroProof(),
				PublicInputs: withdrawInputs(c, root, testNullifier(0, 4, 0x01), 1000, 1),
			},
		}
	}

	args := base()
	args.RelayerFeeBps = 101
	c.Assert(env.pool.Withdraw(args), qt.ErrorIs, ErrRelayerFeeTooHigh)

	args = base()
	args.Mint = common.HexToAddress("0xbb")
	c.Assert(env.pool.Withdraw(args), qt.ErrorIs, ErrMintNotAllowed)

	args = base()
	args.VaultAuthority = common.HexToAddress("0xbb")
	c.Assert(env.pool.Withdraw(args), qt.ErrorIs, ErrInvalidVaultAuthority)

	args = base()
	args.Amount = 999
	c.Assert(env.pool.Withdraw(args), qt.ErrorIs, ErrAmountMismatch)

	// proof says fee 1, rate 0 computes fee 0
	args = base()
	args.RelayerFeeBps = 0
	c.Assert(env.pool.Withdraw(args), qt.ErrorIs, ErrFeeMismatch)

	// fee > 0 demands a relayer account
	args = base()
	args.Relayer = common.Address{}
	c.Assert(env.pool.Withdraw(args), qt.ErrorIs, ErrMissingRelayerAccount)

	// proof built against a root the pool never saw
	args = base()
	args.PublicInputs = withdrawInputs(c, word(0x66), testNullifier(0, 4, 0x01), 1000, 1)
	c.Assert(env.pool.Withdraw(args), qt.ErrorIs, ErrUnknownRoot)

	// pause rejects before anything else
	c.Assert(env.pool.SetPaused(admin, true), qt.IsNil)
	c.Assert(env.pool.Withdraw(base()), qt.ErrorIs, ErrPaused)
	c.Assert(env.pool.SetPaused(admin, false), qt.IsNil)

	// nothing was paid out by any of the rejected attempts
	c.Assert(env.balance(c, recipient), qt.Equals, uint64(0))
	c.Assert(env.balance(c, vaultAuth), qt.Equals, uint64(1000))
}

func TestWithdrawMultiChunk(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(t)
	root := word(0x11)
	env.deposit(c, 1000, root)

	// one nullifier lands in chunk 5, which does not exist yet
	p := &inputs.PublicInputs{
		Root:         root,
		IdentityRoot: append(types.HexBytes{}, types.EmptyStateRoot...),
		AmountOut:    1000,
		FeeAmount:    1,
		CircuitID:    testCircuitID,
	}
	p.Nullifiers[0] = testNullifier(0, 3, 0x01)
	p.Nullifiers[1] = testNullifier(5, 9, 0x02)
	p.OutputCommitments[0] = make(types.HexBytes, types.HashLen)
	p.OutputCommitments[1] = make(types.HexBytes, types.HashLen)
	data, err := p.Encode(inputs.LayoutV2)
	c.Assert(err, qt.IsNil)

	args := WithdrawArgs{
		Mint:           mint,
		Recipient:      recipient,
		Relayer:        relayer,
		VaultAuthority: vaultAuth,
		Amount:         1000,
		RelayerFeeBps:  10,
		TransferProof: TransferProof{
			KeyID:         testKeyID,
			Proof:         zeroProof(),
			PublicInputs:  data,
			WorkingChunks: []uint32{5},
		},
	}
	c.Assert(env.pool.Withdraw(args), qt.ErrorIs, nullifier.ErrMissingChunk)

	// without declaring the working chunk the resolution fails too
	c.Assert(env.pool.InitializeNullifierChunk(mint, 5), qt.IsNil)
	short := args
	short.WorkingChunks = nil
	c.Assert(env.pool.Withdraw(short), qt.ErrorIs, nullifier.ErrMissingChunk)

	c.Assert(env.pool.Withdraw(args), qt.IsNil)
	c.Assert(env.balance(c, recipient), qt.Equals, uint64(999))

	chunk, err := env.stg.NullifierChunk(mint, 5)
	c.Assert(err, qt.IsNil)
	c.Assert(chunk.Used(p.Nullifiers[1]), qt.IsTrue)

	// replay trips on the first already-marked nullifier
	c.Assert(env.pool.Withdraw(args), qt.ErrorIs, nullifier.ErrAlreadyUsed)
}

func TestInternalTransfer(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(t)
	root := word(0x11)
	env.deposit(c, 1000, root)

	p := &inputs.PublicInputs{
		Root:         root,
		IdentityRoot: append(types.HexBytes{}, types.EmptyStateRoot...),
		CircuitID:    testCircuitID,
	}
	p.Nullifiers[0] = testNullifier(0, 8, 0x01)
	p.OutputCommitments[0] = word(0xd1)
	p.OutputCommitments[1] = word(0xd2)
	p.OutputEnabled[0] = 1
	p.OutputEnabled[1] = 1
	data, err := p.Encode(inputs.LayoutV2)
	c.Assert(err, qt.IsNil)

	err = env.pool.InternalTransfer(InternalTransferArgs{
		Mint:    mint,
		NewRoot: word(0x33),
		TransferProof: TransferProof{
			KeyID:        testKeyID,
			Proof:        zeroProof(),
			PublicInputs: data,
		},
	})
	c.Assert(err, qt.IsNil)

	info, err := env.pool.Info(mint)
	c.Assert(err, qt.IsNil)
	// both enabled outputs were appended, no value moved
	c.Assert(info.Shielded.CommitmentCount, qt.Equals, uint64(3))
	c.Assert(info.Shielded.RootKnown(word(0x33)), qt.IsTrue)
	c.Assert(info.Vault.TotalWithdrawn, qt.Equals, uint64(0))
	c.Assert(env.balance(c, vaultAuth), qt.Equals, uint64(1000))

	// a nonzero amount cannot ride an internal transfer
	p.AmountOut = 5
	p.Nullifiers[0] = testNullifier(0, 9, 0x01)
	data, err = p.Encode(inputs.LayoutV2)
	c.Assert(err, qt.IsNil)
	err = env.pool.InternalTransfer(InternalTransferArgs{
		Mint:    mint,
		NewRoot: word(0x34),
		TransferProof: TransferProof{
			KeyID:        testKeyID,
			Proof:        zeroProof(),
			PublicInputs: data,
		},
	})
	c.Assert(err, qt.ErrorIs, ErrInvalidOutputFlags)
}

func TestLegacyLayoutRestrictions(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(t)

	// a second mint running the legacy 6-element layout
	legacyMint := common.HexToAddress("0xa1")
	c.Assert(env.pool.RegisterMint(admin, legacyMint), qt.IsNil)
	c.Assert(env.pool.InitializeMintState(admin, legacyMint, vaultAuth, 0, inputs.LayoutV1), qt.IsNil)

	err := env.pool.InitializeKey(admin, 8, verifier.InitializeKeyArgs{
		KeyID:           2,
		AlphaG1:         make(types.HexBytes, types.G1PointLen),
		BetaG2:          make(types.HexBytes, types.G2PointLen),
		GammaG2:         make(types.HexBytes, types.G2PointLen),
		DeltaG2:         make(types.HexBytes, types.G2PointLen),
		PublicInputsLen: 6,
		GammaABC:        []types.HexBytes{make(types.HexBytes, types.G1PointLen)},
		Mock:            true,
	})
	c.Assert(err, qt.IsNil)

	p := &inputs.PublicInputs{Root: word(0x41), CircuitID: testCircuitID}
	p.Nullifiers[0] = testNullifier(0, 2, 0x01)
	p.OutputCommitments[1] = word(0xd2)
	data, err := p.Encode(inputs.LayoutV1)
	c.Assert(err, qt.IsNil)

	// V1 decode cannot assert output_enabled[0], so internal transfers
	// are out of reach for legacy pools
	err = env.pool.InternalTransfer(InternalTransferArgs{
		Mint:    legacyMint,
		NewRoot: word(0x42),
		TransferProof: TransferProof{
			KeyID:        2,
			Proof:        zeroProof(),
			PublicInputs: data,
		},
	})
	c.Assert(err, qt.ErrorIs, ErrInvalidOutputFlags)
}

func TestAdminChecks(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(t)
	stranger := common.HexToAddress("0x99")

	c.Assert(env.pool.RegisterMint(stranger, mint), qt.ErrorIs, ErrUnauthorized)
	c.Assert(env.pool.ConfigureFees(stranger, 1, 1), qt.ErrorIs, ErrUnauthorized)
	c.Assert(env.pool.SetPaused(stranger, true), qt.ErrorIs, ErrUnauthorized)

	// config can only be created once
	err := env.pool.InitializeConfig(InitializeConfigArgs{Admin: admin})
	c.Assert(err, qt.ErrorIs, ErrAlreadyInitialized)

	// mint state can only be created once
	err = env.pool.InitializeMintState(admin, mint, vaultAuth, 0, inputs.LayoutV2)
	c.Assert(err, qt.ErrorIs, ErrAlreadyInitialized)

	// chunks are never reinitialized
	err = env.pool.InitializeNullifierChunk(mint, 0)
	c.Assert(err, qt.ErrorIs, ErrAlreadyInitialized)

	c.Assert(env.pool.ConfigureFees(admin, 30, 50), qt.IsNil)
	cfg, err := env.stg.Config()
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.FeeBps, qt.Equals, uint16(30))
	c.Assert(cfg.RelayerFeeBpsMax, qt.Equals, uint16(50))
}

func TestRegisterIdentity(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(t)
	root := word(0x11)
	env.deposit(c, 1000, root)

	newIdentityRoot := word(0x77)
	c.Assert(env.pool.RegisterIdentity(word(0xee), newIdentityRoot), qt.IsNil)

	// proofs asserting the stale identity root no longer pass
	args := WithdrawArgs{
		Mint:           mint,
		Recipient:      recipient,
		Relayer:        relayer,
		VaultAuthority: vaultAuth,
		Amount:         1000,
		RelayerFeeBps:  10,
		NewRoot:        word(0x22),
		TransferProof: TransferProof{
			KeyID:        testKeyID,
			Proof:        zeroProof(),
			PublicInputs: withdrawInputs(c, root, testNullifier(0, 3, 0x01), 1000, 1),
		},
	}
	c.Assert(env.pool.Withdraw(args), qt.ErrorIs, ErrIdentityRootMismatch)

	// rebuilt against the fresh identity root it goes through
	p := &inputs.PublicInputs{
		Root:         root,
		IdentityRoot: newIdentityRoot,
		AmountOut:    1000,
		FeeAmount:    1,
		CircuitID:    testCircuitID,
	}
	p.Nullifiers[0] = testNullifier(0, 3, 0x01)
	p.OutputCommitments[0] = make(types.HexBytes, types.HashLen)
	p.OutputCommitments[1] = make(types.HexBytes, types.HashLen)
	data, err := p.Encode(inputs.LayoutV2)
	c.Assert(err, qt.IsNil)
	args.PublicInputs = data
	c.Assert(env.pool.Withdraw(args), qt.IsNil)
	c.Assert(env.balance(c, recipient), qt.Equals, uint64(999))
}
