//nolint:lll
package api

import (
	"fmt"
	"net/http"
)

// Error codes in the 40001-49999 range are the user's fault and return an
// HTTP Status in the 4xx range. Error codes 50001-59999 are the server's
// fault and return HTTP Status 500 or 503.
//
// NEVER change any of the current error codes, only append new errors
// after the current last 4XXX or 5XXX. If a gap appears in the sequence,
// don't fill it in; that code was used in the past and shouldn't be
// reused.
var (
	ErrResourceNotFound  = Error{Code: 40001, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("resource not found")}
	ErrMalformedBody     = Error{Code: 40002, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed JSON body")}
	ErrMalformedMint     = Error{Code: 40003, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed mint address")}
	ErrMalformedIntent   = Error{Code: 40004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed intent hash")}
	ErrUnauthorized      = Error{Code: 40005, HTTPstatus: http.StatusForbidden, Err: fmt.Errorf("unauthorized")}
	ErrProtocolPaused    = Error{Code: 40006, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("protocol is paused")}
	ErrMintNotAllowed    = Error{Code: 40007, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("mint not allowed")}
	ErrCircuitNotAllowed = Error{Code: 40008, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("circuit not allowed")}
	ErrRelayerFee        = Error{Code: 40009, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid relayer fee")}
	ErrInvalidProof      = Error{Code: 40010, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid proof")}
	ErrNullifierUsed     = Error{Code: 40011, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("nullifier already used")}
	ErrLedgerMismatch    = Error{Code: 40012, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("ledger state mismatch")}
	ErrMalformedInputs   = Error{Code: 40013, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed public inputs")}
	ErrMissingChunk      = Error{Code: 40014, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("missing nullifier chunk")}
	ErrNotInitialized    = Error{Code: 40015, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("not initialized")}
	ErrAlreadyExists     = Error{Code: 40016, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("already exists")}
	ErrAuthorization     = Error{Code: 40017, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("authorization rejected")}
	ErrInsufficientFunds = Error{Code: 40018, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("insufficient funds")}
	ErrVerifyingKey      = Error{Code: 40019, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid verifying key")}
	ErrArithmetic        = Error{Code: 40020, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("arithmetic overflow")}

	ErrMarshalingServerJSONFailed = Error{Code: 50001, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("marshaling (server-side) JSON failed")}
	ErrGenericInternalServerError = Error{Code: 50002, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("internal server error")}
)
