package api

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/veilpay/veilpay-go/pool"
	"github.com/veilpay/veilpay-go/types"
	"github.com/veilpay/veilpay-go/util"
)

// createAuthorization records a two-phase settlement intent
// POST /authorizations
func (a *API) createAuthorization(w http.ResponseWriter, r *http.Request) {
	args := pool.CreateAuthorizationArgs{}
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if err := a.pool.CreateAuthorization(args); err != nil {
		poolError(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// authorization returns one settlement intent by hash
// GET /authorizations/{intentHash}
func (a *API) authorization(w http.ResponseWriter, r *http.Request) {
	hash, err := intentHashParam(r)
	if err != nil {
		ErrMalformedIntent.WithErr(err).Write(w)
		return
	}
	auth, err := a.pool.Authorization(hash)
	if err != nil {
		poolError(err).Write(w)
		return
	}
	httpWriteJSON(w, auth)
}

// settleAuthorization settles an open intent with a proof
// POST /authorizations/settle
func (a *API) settleAuthorization(w http.ResponseWriter, r *http.Request) {
	args := pool.SettleAuthorizationArgs{}
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if err := a.pool.SettleAuthorization(args); err != nil {
		poolError(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// CancelAuthorizationRequest identifies the caller cancelling an intent.
type CancelAuthorizationRequest struct {
	Caller common.Address `json:"caller"`
}

// cancelAuthorization cancels an open intent (creator only)
// POST /authorizations/{intentHash}/cancel
func (a *API) cancelAuthorization(w http.ResponseWriter, r *http.Request) {
	hash, err := intentHashParam(r)
	if err != nil {
		ErrMalformedIntent.WithErr(err).Write(w)
		return
	}
	req := CancelAuthorizationRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if err := a.pool.CancelAuthorization(hash, req.Caller); err != nil {
		poolError(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// intentHashParam decodes the intent hash URL parameter.
func intentHashParam(r *http.Request) (types.HexBytes, error) {
	hash, err := hex.DecodeString(util.TrimHex(chi.URLParam(r, IntentURLParam)))
	if err != nil {
		return nil, err
	}
	if len(hash) != types.HashLen {
		return nil, fmt.Errorf("intent hash is %d bytes", len(hash))
	}
	return hash, nil
}
