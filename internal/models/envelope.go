package models

import "encoding/json"

// Envelope wraps every API response.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *EnvelopeError  `json:"error,omitempty"`
}

// EnvelopeError is the failure half of an Envelope.
type EnvelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes shared by the API and the client.
const (
	CodeNotFound              = "not_found"
	CodeMemberProfileNotFound = "member_profile_not_found"
	CodeUnauthorized          = "unauthorized"
	CodeForbidden             = "forbidden"
	CodeInvalidRequest        = "invalid_request"
	CodeInternal              = "internal"
)
