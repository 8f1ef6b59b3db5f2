package api

const (
	// PingEndpoint is the endpoint for checking the API status
	PingEndpoint = "/ping"
	// PoolEndpoint returns the vault and shielded state of one mint
	MintURLParam = "mint"
	PoolEndpoint = "/pool/{" + MintURLParam + "}"
	// DepositEndpoint moves public funds into the shielded pool
	DepositEndpoint = "/deposit"
	// WithdrawEndpoint pays a recipient out of the pool against a proof
	WithdrawEndpoint = "/withdraw"
	// InternalTransferEndpoint reshuffles notes inside the pool
	InternalTransferEndpoint = "/transfer/internal"
	// ExternalTransferEndpoint pays an arbitrary destination account
	ExternalTransferEndpoint = "/transfer/external"
	// AuthorizationsEndpoint records a two-phase settlement intent
	AuthorizationsEndpoint = "/authorizations"
	// AuthorizationEndpoint returns one intent by hash
	IntentURLParam        = "intentHash"
	AuthorizationEndpoint = "/authorizations/{" + IntentURLParam + "}"
	// SettleEndpoint settles an open intent with a proof
	SettleEndpoint = "/authorizations/settle"
	// CancelEndpoint cancels an open intent (creator only)
	CancelEndpoint = "/authorizations/{" + IntentURLParam + "}/cancel"
	// IdentityEndpoint appends a commitment to the identity registry
	IdentityEndpoint = "/identity"

	// Admin surface.
	AdminConfigEndpoint    = "/admin/config"
	AdminMintsEndpoint     = "/admin/mints"
	AdminMintStateEndpoint = "/admin/mints/state"
	AdminChunksEndpoint    = "/admin/chunks"
	AdminFeesEndpoint      = "/admin/fees"
	AdminPauseEndpoint     = "/admin/pause"
	AdminKeysEndpoint      = "/admin/keys"
)
