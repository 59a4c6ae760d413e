package protocol

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Status codes surfaced to the hosting platform. Their meaning is fixed by
// the WhatsApp Flows endpoint contract and must not be remapped.
const (
	// StatusOK signals a successfully processed exchange.
	StatusOK = 200
	// StatusInvalidRequest rejects a malformed or unsupported request shape.
	// The client may resubmit with a corrected payload.
	StatusInvalidRequest = 421
	// StatusFlowRejected rejects a request on business grounds (invalid
	// coupon code, unserviceable address, invalid flow token). The platform
	// shows the error message to the end user and may disable the flow.
	StatusFlowRejected = 427
	// StatusBadSignature rejects a request whose x-hub-signature-256 header
	// does not match the request body.
	StatusBadSignature = 432
)

// Error is the single typed failure the dispatcher maps into an encrypted
// error response. Anything else escaping an operation is treated as an
// opaque server fault (bare 500, no detail leaked).
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("flow endpoint error %d: %s", e.Code, e.Message)
}

// NewError creates an Error with a user-facing message.
func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf creates an Error with a formatted user-facing message.
func Errorf(code int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsError extracts a protocol Error from err's chain.
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
