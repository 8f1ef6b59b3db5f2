package storage

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/veilpay/veilpay-go/types"
)

// Config is the single pool configuration artifact. It is created once by
// InitializeConfig and mutated only through admin operations.
type Config struct {
	Admin            common.Address   `json:"admin"`
	FeeRecipient     common.Address   `json:"feeRecipient"`
	FeeBps           uint16           `json:"feeBps"`
	RelayerFeeBpsMax uint16           `json:"relayerFeeBpsMax"`
	KeyRegistry      types.HexBytes   `json:"keyRegistry"`
	Paused           bool             `json:"paused"`
	Mints            []common.Address `json:"mints"`
	Circuits         []uint32         `json:"circuits"`
	Version          uint8            `json:"version"`
}

// MintAllowed reports whether the mint is on the allow-list.
func (c *Config) MintAllowed(mint common.Address) bool {
	for _, m := range c.Mints {
		if m == mint {
			return true
		}
	}
	return false
}

// CircuitAllowed reports whether the circuit id is on the allow-list.
func (c *Config) CircuitAllowed(circuitID uint32) bool {
	for _, id := range c.Circuits {
		if id == circuitID {
			return true
		}
	}
	return false
}

// AddMint appends a mint to the allow-list. Adding a mint that is already
// listed is a no-op; exceeding the capacity is an error.
func (c *Config) AddMint(mint common.Address) error {
	if c.MintAllowed(mint) {
		return nil
	}
	if len(c.Mints) >= types.MaxAllowlist {
		return fmt.Errorf("mint allow-list full (%d entries)", types.MaxAllowlist)
	}
	c.Mints = append(c.Mints, mint)
	return nil
}

// VaultPool tracks the custody vault of one mint. Totals only grow and the
// nonce advances once per operation that touches the vault.
type VaultPool struct {
	Mint           common.Address `json:"mint"`
	Authority      common.Address `json:"authority"`
	TotalDeposited uint64         `json:"totalDeposited"`
	TotalWithdrawn uint64         `json:"totalWithdrawn"`
	Nonce          uint64         `json:"nonce"`
}

// AuthorizationStatus is the lifecycle state of a settlement intent.
type AuthorizationStatus uint8

const (
	AuthorizationOpen AuthorizationStatus = iota
	AuthorizationSettled
	AuthorizationExpired
	AuthorizationCancelled
)

// String returns the lowercase status name.
func (s AuthorizationStatus) String() string {
	switch s {
	case AuthorizationOpen:
		return "open"
	case AuthorizationSettled:
		return "settled"
	case AuthorizationExpired:
		return "expired"
	case AuthorizationCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("unknown(%d)", uint8(s))
}

// Authorization is a two-phase settlement intent. It is created Open and
// transitions to exactly one terminal state.
type Authorization struct {
	IntentHash       types.HexBytes      `json:"intentHash"`
	PayeeTagHash     types.HexBytes      `json:"payeeTagHash"`
	Payee            common.Address      `json:"payee"`
	Creator          common.Address      `json:"creator"`
	Relayer          common.Address      `json:"relayer"`
	Mint             common.Address      `json:"mint"`
	AmountCiphertext types.HexBytes      `json:"amountCiphertext"`
	ExpirySlot       uint64              `json:"expirySlot"`
	CircuitID        uint32              `json:"circuitId"`
	Status           AuthorizationStatus `json:"status"`
	ProofHash        types.HexBytes      `json:"proofHash"`
}
