package types

// Envelope wraps every 2xx body: {"data": ...}.
type Envelope[T any] struct {
	Data T `json:"data"`
}

// ErrorBody is the payload of a non-2xx response. Message is safe to show to
// a shopper as-is.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}
