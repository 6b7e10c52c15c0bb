// internal/app/system/httpjson/httpjson.go

// Package httpjson writes the API's JSON responses. Errors share one
// envelope: {"error": <stable code>, "message": <human text>} so clients
// can switch on the code without parsing prose.
package httpjson

import (
	"encoding/json"
	"net/http"
)

// Stable error codes carried in the envelope's "error" field.
const (
	CodeInvalidRequest   = "invalid_request"
	CodeUnauthorized     = "unauthorized"
	CodeNotFound         = "not_found"
	CodeSelfRequest      = "self_request"
	CodeDuplicatePending = "duplicate_pending"
	CodeGroupFull        = "group_full"
	CodeNotOwner         = "not_owner"
	CodeNotReceiver      = "not_receiver"
	CodeNotPending       = "not_pending"
	CodeAlreadyGrouped   = "already_grouped"
	CodeRateLimited      = "rate_limited"
	CodeServerError      = "server_error"
)

type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Write encodes v as JSON with the given status.
func Write(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes the standard error envelope.
func Error(w http.ResponseWriter, status int, code, message string) {
	Write(w, status, errorEnvelope{Error: code, Message: message})
}

// Decode parses the request body into v, limiting the body size so a
// hostile client cannot buffer unbounded JSON.
func Decode(r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	return json.NewDecoder(r.Body).Decode(v)
}
