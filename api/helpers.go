package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/veilpay/veilpay-go/inputs"
	"github.com/veilpay/veilpay-go/log"
	"github.com/veilpay/veilpay-go/nullifier"
	"github.com/veilpay/veilpay-go/pool"
	"github.com/veilpay/veilpay-go/storage"
	"github.com/veilpay/veilpay-go/token"
	"github.com/veilpay/veilpay-go/verifier"
)

// httpWriteJSON helper function allows to write a JSON response.
func httpWriteJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	jdata, err := json.Marshal(data)
	if err != nil {
		ErrMarshalingServerJSONFailed.WithErr(err).Write(w)
		return
	}
	n, err := w.Write(jdata)
	if err != nil {
		log.Warnw("failed to write http response", "error", err)
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
	log.Debugw("api response", "bytes", n, "data", strings.ReplaceAll(string(jdata), "\"", ""))
}

// httpWriteOK helper function allows to write an OK response.
func httpWriteOK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
}

// poolError maps an engine failure to its API error. Unrecognized errors
// are the server's fault.
func poolError(err error) Error {
	switch {
	case errors.Is(err, pool.ErrUnauthorized):
		return ErrUnauthorized.WithErr(err)
	case errors.Is(err, pool.ErrPaused):
		return ErrProtocolPaused
	case errors.Is(err, pool.ErrMintNotAllowed):
		return ErrMintNotAllowed.WithErr(err)
	case errors.Is(err, pool.ErrCircuitNotAllowed):
		return ErrCircuitNotAllowed.WithErr(err)
	case errors.Is(err, pool.ErrRelayerFeeTooHigh),
		errors.Is(err, pool.ErrRelayerFeeExceedsAmount),
		errors.Is(err, pool.ErrMissingRelayerAccount):
		return ErrRelayerFee.WithErr(err)
	case errors.Is(err, pool.ErrAllowlistTooLarge),
		errors.Is(err, pool.ErrCircuitListTooLarge),
		errors.Is(err, pool.ErrInvalidByteLength):
		return ErrMalformedBody.WithErr(err)
	case errors.Is(err, pool.ErrAlreadyInitialized),
		errors.Is(err, pool.ErrDuplicateIntent),
		errors.Is(err, verifier.ErrDuplicateKey),
		errors.Is(err, verifier.ErrRegistryFull):
		return ErrAlreadyExists.WithErr(err)
	case errors.Is(err, pool.ErrNotInitialized),
		errors.Is(err, pool.ErrAuthorizationNotFound):
		return ErrNotInitialized.WithErr(err)
	case errors.Is(err, pool.ErrAuthorizationNotOpen),
		errors.Is(err, pool.ErrAuthorizationExpired),
		errors.Is(err, pool.ErrIntentHashMismatch):
		return ErrAuthorization.WithErr(err)
	case errors.Is(err, pool.ErrUnknownRoot),
		errors.Is(err, pool.ErrIdentityRootMismatch),
		errors.Is(err, pool.ErrInvalidVaultAuthority),
		errors.Is(err, pool.ErrAmountMismatch),
		errors.Is(err, pool.ErrFeeMismatch),
		errors.Is(err, pool.ErrInvalidOutputFlags),
		errors.Is(err, nullifier.ErrChunkMismatch):
		return ErrLedgerMismatch.WithErr(err)
	case errors.Is(err, pool.ErrMathOverflow),
		errors.Is(err, token.ErrBalanceOverflow):
		return ErrArithmetic.WithErr(err)
	case errors.Is(err, nullifier.ErrAlreadyUsed):
		return ErrNullifierUsed.WithErr(err)
	case errors.Is(err, nullifier.ErrMissingChunk):
		return ErrMissingChunk.WithErr(err)
	case errors.Is(err, verifier.ErrInvalidProof),
		errors.Is(err, verifier.ErrInvalidInputCount):
		return ErrInvalidProof.WithErr(err)
	case errors.Is(err, verifier.ErrInvalidKey),
		errors.Is(err, verifier.ErrTooManyInputs),
		errors.Is(err, verifier.ErrKeyNotFound):
		return ErrVerifyingKey.WithErr(err)
	case errors.Is(err, inputs.ErrInvalidPublicInputs):
		return ErrMalformedInputs.WithErr(err)
	case errors.Is(err, token.ErrInsufficientBalance):
		return ErrInsufficientFunds.WithErr(err)
	case errors.Is(err, storage.ErrNotFound):
		return ErrResourceNotFound.WithErr(err)
	default:
		return ErrGenericInternalServerError.WithErr(err)
	}
}
