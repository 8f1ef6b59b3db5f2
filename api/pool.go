package api

import (
	"encoding/json"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/veilpay/veilpay-go/pool"
	"github.com/veilpay/veilpay-go/types"
)

// poolInfo returns the vault and shielded state of one mint
// GET /pool/{mint}
func (a *API) poolInfo(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, MintURLParam)
	if !common.IsHexAddress(raw) {
		ErrMalformedMint.Withf("%q", raw).Write(w)
		return
	}
	info, err := a.pool.Info(common.HexToAddress(raw))
	if err != nil {
		poolError(err).Write(w)
		return
	}
	httpWriteJSON(w, info)
}

// deposit moves public funds into the shielded pool
// POST /deposit
func (a *API) deposit(w http.ResponseWriter, r *http.Request) {
	args := pool.DepositArgs{}
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if err := a.pool.Deposit(args); err != nil {
		poolError(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// withdraw pays a recipient out of the pool against a proof
// POST /withdraw
func (a *API) withdraw(w http.ResponseWriter, r *http.Request) {
	args := pool.WithdrawArgs{}
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if err := a.pool.Withdraw(args); err != nil {
		poolError(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// internalTransfer reshuffles shielded notes without moving value
// POST /transfer/internal
func (a *API) internalTransfer(w http.ResponseWriter, r *http.Request) {
	args := pool.InternalTransferArgs{}
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if err := a.pool.InternalTransfer(args); err != nil {
		poolError(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// externalTransfer pays an arbitrary destination account
// POST /transfer/external
func (a *API) externalTransfer(w http.ResponseWriter, r *http.Request) {
	args := pool.ExternalTransferArgs{}
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if err := a.pool.ExternalTransfer(args); err != nil {
		poolError(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// RegisterIdentityRequest appends a commitment to the identity registry.
type RegisterIdentityRequest struct {
	Commitment types.HexBytes `json:"commitment"`
	NewRoot    types.HexBytes `json:"newRoot"`
}

// registerIdentity advances the identity registry
// POST /identity
func (a *API) registerIdentity(w http.ResponseWriter, r *http.Request) {
	req := RegisterIdentityRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if err := a.pool.RegisterIdentity(req.Commitment, req.NewRoot); err != nil {
		poolError(err).Write(w)
		return
	}
	httpWriteOK(w)
}
