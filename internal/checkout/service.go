// Package checkout implements the data-exchange engine behind the checkout
// flow: sub-action dispatch plus the coupon and shipping rules that mutate
// the order document while keeping its totals consistent.
package checkout

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/flows-checkout/internal/protocol"
)

var hundred = decimal.NewFromInt(100)

// Service dispatches decrypted exchange messages. It holds only immutable
// configuration, so a single instance is safe under arbitrary concurrent
// requests.
type Service struct {
	catalog  Catalog
	shipping ShippingPolicy
}

// NewService creates a Service with the given coupon catalog and shipping
// policy.
func NewService(catalog Catalog, shipping ShippingPolicy) *Service {
	return &Service{
		catalog:  catalog,
		shipping: shipping,
	}
}

// Exchange performs a single protocol transition for msg. Business and shape
// failures come back as *protocol.Error; anything else is a server fault.
func (s *Service) Exchange(ctx context.Context, msg *protocol.Message) (*protocol.Response, error) {
	if msg.Action == protocol.ActionPing {
		return &protocol.Response{
			Version: msg.Version,
			Data:    protocol.StatusData{Status: "active"},
		}, nil
	}

	// Client-reported errors are acknowledged, never failed.
	if msg.Data != nil && len(msg.Data.Error) > 0 {
		zctx.From(ctx).Warn("Client reported an error",
			zap.String("screen", msg.Screen),
			zap.ByteString("error", msg.Data.Error),
		)
		return &protocol.Response{
			Version: msg.Version,
			Data:    protocol.AckData{Acknowledged: true},
		}, nil
	}

	if msg.Action != protocol.ActionDataExchange {
		return nil, protocol.Errorf(protocol.StatusInvalidRequest,
			"Invalid Request - Unsupported action")
	}

	var (
		data any
		err  error
	)
	switch msg.SubAction {
	case protocol.SubActionGetCoupons:
		data = protocol.CouponsData{Coupons: s.catalog.Offers()}
	case protocol.SubActionApplyCoupon:
		data, err = s.applyCoupon(msg.Data)
	case protocol.SubActionRemoveCoupon:
		data, err = s.removeCoupon(msg.Data)
	case protocol.SubActionApplyShipping:
		data, err = s.applyShipping(msg.Data)
	default:
		return nil, protocol.Errorf(protocol.StatusInvalidRequest,
			"Invalid Request - Unsupported sub action")
	}
	if err != nil {
		return nil, err
	}

	return &protocol.Response{
		Version:   msg.Version,
		SubAction: msg.SubAction,
		Data:      data,
	}, nil
}

// orderDetails extracts the order document from the request data, or nil.
func orderDetails(data *protocol.ExchangeData) *protocol.OrderDetails {
	if data == nil {
		return nil
	}
	return data.OrderDetails
}
