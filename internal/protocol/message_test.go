package protocol

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMessage(t *testing.T) {
	raw := []byte(`{
		"screen": "CHECKOUT",
		"action": "data_exchange",
		"sub_action": "apply_coupon",
		"version": "3.0",
		"flow_token": "token-123",
		"unknown_field": {"nested": [1, 2, 3]},
		"data": {
			"order_details": {
				"currency": "INR",
				"order": {
					"items": [
						{"name": "Vintage Frames", "quantity": 1, "sale_amount": {"value": 1000, "offset": 100}}
					],
					"subtotal": {"value": 1000, "offset": 100},
					"shipping": {"value": 0, "offset": 100}
				},
				"total_amount": {"value": 1000, "offset": 100}
			},
			"input": {"coupon": {"code": "TRYNEW10", "id": "trynew10_ref_id"}}
		}
	}`)

	msg, err := DecodeMessage(raw)
	require.NoError(t, err)

	assert.Equal(t, "CHECKOUT", msg.Screen)
	assert.Equal(t, ActionDataExchange, msg.Action)
	assert.Equal(t, SubActionApplyCoupon, msg.SubAction)
	assert.Equal(t, "3.0", msg.Version)
	assert.Equal(t, "token-123", msg.FlowToken)

	require.NotNil(t, msg.Data)
	od := msg.Data.OrderDetails
	require.NotNil(t, od)
	assert.Equal(t, "INR", od.Currency)
	require.Len(t, od.Order.Items, 1)
	assert.True(t, decimal.NewFromInt(1000).Equal(od.Order.Items[0].SaleAmount.Value.Decimal))
	assert.Equal(t, 100, od.Order.Items[0].SaleAmount.Offset)

	require.NotNil(t, msg.Data.Input)
	assert.Equal(t, "TRYNEW10", msg.Data.Input.Coupon.Code)
}

func TestDecodeMessage_NullData(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"action": "ping", "version": "3.0", "data": null}`))
	require.NoError(t, err)
	assert.Equal(t, ActionPing, msg.Action)
	assert.Nil(t, msg.Data)
}

func TestDecodeMessage_ErrorPassthrough(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{
		"action": "data_exchange",
		"version": "3.0",
		"data": {"error": {"error_code": 400, "error_message": "client failed"}}
	}`))
	require.NoError(t, err)
	require.NotNil(t, msg.Data)
	assert.JSONEq(t, `{"error_code": 400, "error_message": "client failed"}`, string(msg.Data.Error))
}

func TestDecodeMessage_Invalid(t *testing.T) {
	_, err := DecodeMessage([]byte(`not json`))
	require.Error(t, err)

	_, err = DecodeMessage([]byte(`["array", "not", "object"]`))
	require.Error(t, err)
}

func TestAmount_MarshalsAsBareNumber(t *testing.T) {
	m := Money{Value: NewAmount(decimal.RequireFromString("99.9")), Offset: 100}
	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"value": 99.9, "offset": 100}`, string(out))
}

func TestAmount_RoundTrip(t *testing.T) {
	var m Money
	require.NoError(t, json.Unmarshal([]byte(`{"value": 123.45, "offset": 100}`), &m))
	assert.True(t, decimal.RequireFromString("123.45").Equal(m.Value.Decimal))

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"value": 123.45, "offset": 100}`, string(out))
}

func TestResponse_Encode(t *testing.T) {
	resp := &Response{
		Version:   "3.0",
		SubAction: SubActionGetCoupons,
		Data:      CouponsData{Coupons: []CouponOffer{{Description: "d", Code: "C", ID: "i"}}},
	}
	out, err := resp.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"version": "3.0",
		"sub_action": "get_coupons",
		"data": {"coupons": [{"description": "d", "code": "C", "id": "i"}]}
	}`, string(out))
}

func TestError(t *testing.T) {
	err := Errorf(StatusFlowRejected, "bad offer %q", "X")
	assert.Equal(t, 427, err.Code)
	assert.Equal(t, `bad offer "X"`, err.Message)

	pe, ok := AsError(err)
	require.True(t, ok)
	assert.Same(t, err, pe)

	_, ok = AsError(json.Unmarshal([]byte("{"), &struct{}{}))
	assert.False(t, ok)
}
