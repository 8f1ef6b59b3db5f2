package pool

import "errors"

// Failure classes of the protocol state machine. Every operation is
// all-or-nothing: any of these aborts before anything is persisted (the
// one exception is authorization expiry, which records the Expired status
// while the settle itself fails).
var (
	// Policy violations, rejected before any cryptographic work.
	ErrUnauthorized        = errors.New("unauthorized")
	ErrPaused              = errors.New("protocol is paused")
	ErrMintNotAllowed      = errors.New("mint not allowed")
	ErrCircuitNotAllowed   = errors.New("circuit not allowed")
	ErrRelayerFeeTooHigh   = errors.New("relayer fee above configured maximum")
	ErrAllowlistTooLarge   = errors.New("mint allow-list exceeds capacity")
	ErrCircuitListTooLarge = errors.New("circuit allow-list exceeds capacity")

	// Lifecycle.
	ErrAlreadyInitialized = errors.New("already initialized")
	ErrNotInitialized     = errors.New("not initialized")

	// Malformed input.
	ErrInvalidByteLength = errors.New("invalid byte length")

	// Ledger consistency.
	ErrUnknownRoot             = errors.New("unknown root")
	ErrIdentityRootMismatch    = errors.New("identity root mismatch")
	ErrInvalidVaultAuthority   = errors.New("invalid vault authority")
	ErrAmountMismatch          = errors.New("amount does not match proof")
	ErrFeeMismatch             = errors.New("fee does not match proof")
	ErrInvalidOutputFlags      = errors.New("invalid output flags")
	ErrMissingRelayerAccount   = errors.New("missing relayer account")
	ErrRelayerFeeExceedsAmount = errors.New("relayer fee exceeds amount")

	// Arithmetic.
	ErrMathOverflow = errors.New("math overflow")

	// Authorization lifecycle.
	ErrAuthorizationNotOpen  = errors.New("authorization is not open")
	ErrAuthorizationExpired  = errors.New("authorization expired")
	ErrIntentHashMismatch    = errors.New("intent hash mismatch")
	ErrDuplicateIntent       = errors.New("intent already exists")
	ErrAuthorizationNotFound = errors.New("authorization not found")
)
