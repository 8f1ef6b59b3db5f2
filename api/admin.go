package api

import (
	"encoding/json"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/veilpay/veilpay-go/inputs"
	"github.com/veilpay/veilpay-go/pool"
	"github.com/veilpay/veilpay-go/verifier"
)

// initializeConfig creates the pool configuration
// POST /admin/config
func (a *API) initializeConfig(w http.ResponseWriter, r *http.Request) {
	args := pool.InitializeConfigArgs{}
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if err := a.pool.InitializeConfig(args); err != nil {
		poolError(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// RegisterMintRequest adds a mint to the allow-list.
type RegisterMintRequest struct {
	Admin common.Address `json:"admin"`
	Mint  common.Address `json:"mint"`
}

// registerMint adds a mint to the allow-list
// POST /admin/mints
func (a *API) registerMint(w http.ResponseWriter, r *http.Request) {
	req := RegisterMintRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if err := a.pool.RegisterMint(req.Admin, req.Mint); err != nil {
		poolError(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// InitializeMintStateRequest creates the vault, shielded state and first
// nullifier chunk of a mint.
type InitializeMintStateRequest struct {
	Admin      common.Address       `json:"admin"`
	Mint       common.Address       `json:"mint"`
	Authority  common.Address       `json:"authority"`
	ChunkIndex uint32               `json:"chunkIndex"`
	Layout     inputs.LayoutVersion `json:"layout"`
}

// initializeMintState brings up the pool of one mint
// POST /admin/mints/state
func (a *API) initializeMintState(w http.ResponseWriter, r *http.Request) {
	req := InitializeMintStateRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if err := a.pool.InitializeMintState(req.Admin, req.Mint, req.Authority, req.ChunkIndex, req.Layout); err != nil {
		poolError(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// InitializeChunkRequest allocates one more nullifier chunk.
type InitializeChunkRequest struct {
	Mint       common.Address `json:"mint"`
	ChunkIndex uint32         `json:"chunkIndex"`
}

// initializeNullifierChunk allocates a chunk of the nullifier ledger
// POST /admin/chunks
func (a *API) initializeNullifierChunk(w http.ResponseWriter, r *http.Request) {
	req := InitializeChunkRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if err := a.pool.InitializeNullifierChunk(req.Mint, req.ChunkIndex); err != nil {
		poolError(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// ConfigureFeesRequest updates the fee rates.
type ConfigureFeesRequest struct {
	Admin            common.Address `json:"admin"`
	FeeBps           uint16         `json:"feeBps"`
	RelayerFeeBpsMax uint16         `json:"relayerFeeBpsMax"`
}

// configureFees updates the protocol fee and relayer fee cap
// POST /admin/fees
func (a *API) configureFees(w http.ResponseWriter, r *http.Request) {
	req := ConfigureFeesRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if err := a.pool.ConfigureFees(req.Admin, req.FeeBps, req.RelayerFeeBpsMax); err != nil {
		poolError(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// SetPausedRequest flips the pause switch.
type SetPausedRequest struct {
	Admin  common.Address `json:"admin"`
	Paused bool           `json:"paused"`
}

// setPaused flips the protocol pause switch
// POST /admin/pause
func (a *API) setPaused(w http.ResponseWriter, r *http.Request) {
	req := SetPausedRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if err := a.pool.SetPaused(req.Admin, req.Paused); err != nil {
		poolError(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// InitializeKeyRequest registers a verifying key for a circuit.
type InitializeKeyRequest struct {
	Admin     common.Address             `json:"admin"`
	CircuitID uint32                     `json:"circuitId"`
	Key       verifier.InitializeKeyArgs `json:"key"`
}

// initializeKey registers a whole verifying key
// POST /admin/keys
func (a *API) initializeKey(w http.ResponseWriter, r *http.Request) {
	req := InitializeKeyRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if err := a.pool.InitializeKey(req.Admin, req.CircuitID, req.Key); err != nil {
		poolError(err).Write(w)
		return
	}
	httpWriteOK(w)
}
