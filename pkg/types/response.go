// Package types holds the wire envelopes shared by every endpoint. Success
// responses wrap their payload under "data"; errors carry a stable code plus
// a caller-safe message.
package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the client-facing error shape. Details is populated only for
// codes whose policy allows structured details.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
