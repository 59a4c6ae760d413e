package checkout

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/flows-checkout/internal/protocol"
)

func TestExchange_Ping(t *testing.T) {
	svc := newTestService()

	tests := []struct {
		name string
		msg  *protocol.Message
	}{
		{"bare ping", &protocol.Message{Action: protocol.ActionPing, Version: "3.0"}},
		{"ping with data", &protocol.Message{
			Action:  protocol.ActionPing,
			Version: "3.0",
			Data:    &protocol.ExchangeData{OrderDetails: testOrder(1, 1, 0, 1)},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Exchange(context.Background(), tt.msg)
			require.NoError(t, err)
			assert.Equal(t, "3.0", resp.Version)
			assert.Empty(t, resp.SubAction)
			assert.Equal(t, protocol.StatusData{Status: "active"}, resp.Data)
		})
	}
}

func TestExchange_ClientErrorAcknowledged(t *testing.T) {
	svc := newTestService()

	msg := &protocol.Message{
		Action:  protocol.ActionDataExchange,
		Version: "3.0",
		Screen:  "CHECKOUT",
		Data: &protocol.ExchangeData{
			Error: json.RawMessage(`{"error_message":"something broke on the client"}`),
		},
	}
	resp, err := svc.Exchange(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, protocol.AckData{Acknowledged: true}, resp.Data)
}

func TestExchange_UnsupportedAction(t *testing.T) {
	svc := newTestService()

	msg := &protocol.Message{Action: "navigate", Version: "3.0"}
	_, err := svc.Exchange(context.Background(), msg)
	requireProtocolError(t, err, protocol.StatusInvalidRequest)
}

func TestExchange_UnsupportedSubAction(t *testing.T) {
	svc := newTestService()
	od := testOrder(1000, 1000, 0, 1000)

	msg := &protocol.Message{
		Action:    protocol.ActionDataExchange,
		SubAction: "bogus",
		Version:   "3.0",
		Data:      &protocol.ExchangeData{OrderDetails: od},
	}
	_, err := svc.Exchange(context.Background(), msg)
	requireProtocolError(t, err, protocol.StatusInvalidRequest)

	// The document is untouched.
	assertAmount(t, 1000, od.TotalAmount.Value)
	assert.Nil(t, od.Coupon)
}

func TestExchange_GetCoupons(t *testing.T) {
	svc := newTestService()

	msg := &protocol.Message{
		Action:    protocol.ActionDataExchange,
		SubAction: protocol.SubActionGetCoupons,
		Version:   "3.0",
	}
	resp, err := svc.Exchange(context.Background(), msg)
	require.NoError(t, err)
	require.Equal(t, protocol.SubActionGetCoupons, resp.SubAction)

	data, ok := resp.Data.(protocol.CouponsData)
	require.True(t, ok)
	require.Len(t, data.Coupons, 3)
	assert.Equal(t, "TRYNEW10", data.Coupons[0].Code)
	assert.Equal(t, "trynew10_ref_id", data.Coupons[0].ID)
	assert.Equal(t, "NEWEYE15", data.Coupons[1].Code)
	assert.Equal(t, "WELCOME50", data.Coupons[2].Code)
	for _, c := range data.Coupons {
		assert.NotEmpty(t, c.Description)
	}
}

func TestExchange_CatalogInjection(t *testing.T) {
	// The catalog is a plain value: substituting it swaps the whole offer set.
	svc := NewService(Catalog{}, DefaultShippingPolicy())

	msg := &protocol.Message{
		Action:    protocol.ActionDataExchange,
		SubAction: protocol.SubActionGetCoupons,
		Version:   "3.0",
	}
	resp, err := svc.Exchange(context.Background(), msg)
	require.NoError(t, err)
	data, ok := resp.Data.(protocol.CouponsData)
	require.True(t, ok)
	assert.Empty(t, data.Coupons)
}
