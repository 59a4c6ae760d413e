// Package protocol defines the wire messages of the WhatsApp Flows data
// exchange: the decrypted request, the pre-encryption response, the order
// document, and the typed failure the transport maps to a status code.
package protocol

import (
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// Actions understood by the dispatcher.
const (
	ActionPing         = "ping"
	ActionDataExchange = "data_exchange"
)

// Sub-actions of a data_exchange request.
const (
	SubActionGetCoupons    = "get_coupons"
	SubActionApplyCoupon   = "apply_coupon"
	SubActionRemoveCoupon  = "remove_coupon"
	SubActionApplyShipping = "apply_shipping"
)

// Message is a decrypted request from the platform.
type Message struct {
	Screen    string        `json:"screen,omitempty"`
	Action    string        `json:"action,omitempty"`
	SubAction string        `json:"sub_action,omitempty"`
	Version   string        `json:"version,omitempty"`
	FlowToken string        `json:"flow_token,omitempty"`
	Data      *ExchangeData `json:"data,omitempty"`
}

// ExchangeData is the data section of a request. Error is kept raw: the
// client may report arbitrary structures and the engine only acknowledges
// them.
type ExchangeData struct {
	Error        json.RawMessage `json:"error,omitempty"`
	OrderDetails *OrderDetails   `json:"order_details,omitempty"`
	Input        *ExchangeInput  `json:"input,omitempty"`
}

// ExchangeInput carries the operation parameters of a data_exchange request.
type ExchangeInput struct {
	Coupon          *CouponInput `json:"coupon,omitempty"`
	SelectedAddress *Address     `json:"selected_address,omitempty"`
}

// CouponInput identifies the coupon the user selected or typed in.
type CouponInput struct {
	Code string `json:"code,omitempty"`
	ID   string `json:"id,omitempty"`
}

// Response is an operation result before encryption.
type Response struct {
	Version   string `json:"version"`
	SubAction string `json:"sub_action,omitempty"`
	Data      any    `json:"data"`
}

// Encode serializes the response for encryption.
func (r *Response) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// StatusData is the ping response payload.
type StatusData struct {
	Status string `json:"status"`
}

// AckData acknowledges a client-reported error.
type AckData struct {
	Acknowledged bool `json:"acknowledged"`
}

// CouponsData lists the coupon offers shown on the coupon screen.
type CouponsData struct {
	Coupons []CouponOffer `json:"coupons"`
}

// CouponOffer is a single catalog entry in a get_coupons response.
type CouponOffer struct {
	Description string `json:"description"`
	Code        string `json:"code"`
	ID          string `json:"id"`
}

// OrderData wraps the mutated document returned by the mutation operations.
type OrderData struct {
	OrderDetails *OrderDetails `json:"order_details"`
}

// ErrorData is the data section of an error response.
type ErrorData struct {
	Error string `json:"error"`
}

// DecodeMessage parses a decrypted request body. The top-level envelope is
// walked with jx so that an oversized or unknown data section is captured in
// one pass; the data section itself is then decoded into its typed form.
// Unknown top-level fields are skipped.
func DecodeMessage(raw []byte) (*Message, error) {
	var msg Message
	d := jx.DecodeBytes(raw)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "screen":
			msg.Screen, err = d.Str()
		case "action":
			msg.Action, err = d.Str()
		case "sub_action":
			msg.SubAction, err = d.Str()
		case "version":
			msg.Version, err = d.Str()
		case "flow_token":
			msg.FlowToken, err = d.Str()
		case "data":
			var raw jx.Raw
			raw, err = d.Raw()
			if err != nil || raw.Type() == jx.Null {
				break
			}
			data := &ExchangeData{}
			if err = json.Unmarshal(raw, data); err != nil {
				return errors.Wrap(err, "data")
			}
			msg.Data = data
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode message")
	}
	return &msg, nil
}
