// Package scriptapi defines the wire contract of the supplier portal's
// remote script endpoint.
//
// Every operation is a POST of a Request envelope to one URL; every answer
// is a Response envelope. The client (internal/cli/connection,
// internal/core/service) and the mock endpoint (internal/server/httpserver)
// both speak this contract. Transport is the seam between them: the
// client core depends on it, and the HTTP connection implements it.
package scriptapi

import (
	"encoding/json"
	"time"
)

// Actions understood by the endpoint.
const (
	ActionLogin          = "login"
	ActionLogout         = "logout"
	ActionGetProfile     = "getProfile"
	ActionListSuppliers  = "listSuppliers"
	ActionGetSupplier    = "getSupplier"
	ActionAddSupplier    = "addSupplier"
	ActionUpdateSupplier = "updateSupplier"
	ActionDeleteSupplier = "deleteSupplier"
	ActionGetOrders      = "getOrders"
)

// Response codes.
const (
	CodeOK = "OK"

	CodeTokenMissing       = "SUP-AUTH-4010"
	CodeInvalidCredentials = "SUP-AUTH-4011"
	CodeTokenInvalid       = "SUP-AUTH-4012"

	CodeRateLimited        = "SUP-SYS-4290"
	CodeServiceUnavailable = "SUP-SYS-5030"
	CodeNotFound           = "SUP-SYS-4040"
	CodeInternal           = "SUP-SYS-5000"

	CodeInvalidArgument = "SUP-ARG-1001"
)

// Header names.
const (
	HeaderRequestID  = "X-Request-ID"
	HeaderErrorCode  = "X-Error-Code"
	HeaderRetryAfter = "Retry-After"
)

// TokenPrefix marks session tokens minted by the endpoint.
const TokenPrefix = "spt_"

// Request is the body of every call.
type Request struct {
	Action    string          `json:"action"`
	Token     string          `json:"token,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Response is the envelope of every answer.
type Response struct {
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewResponse builds a success envelope around data.
func NewResponse(requestID string, data any) (*Response, error) {
	resp := &Response{
		Code:      CodeOK,
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		resp.Data = raw
	}
	return resp, nil
}

// NewErrorResponse builds an error envelope.
func NewErrorResponse(requestID, code, message string) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
	}
}

// LoginPayload is the payload of ActionLogin.
type LoginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is the data of a successful ActionLogin.
type LoginResult struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// IDPayload addresses a single record.
type IDPayload struct {
	ID string `json:"id"`
}

// SupplierQuery filters ActionListSuppliers.
type SupplierQuery struct {
	Search string `json:"search,omitempty"`
	Status string `json:"status,omitempty"`
}

// OrderQuery filters ActionGetOrders.
type OrderQuery struct {
	SupplierID string `json:"supplier_id,omitempty"`
	Status     string `json:"status,omitempty"`
}
