package checkout

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xenking/flows-checkout/internal/protocol"
)

// applyCoupon resolves the entered code against the catalog (or the
// case-insensitive manual code), computes the discount, moves the affected
// amounts, and records the coupon on the document. The recorded discount
// value is the contract with removeCoupon: removal adds back exactly this
// amount, never a recomputation.
func (s *Service) applyCoupon(data *protocol.ExchangeData) (*protocol.OrderData, error) {
	od := orderDetails(data)
	var in *protocol.CouponInput
	if data != nil && data.Input != nil {
		in = data.Input.Coupon
	}
	if od == nil || in == nil || in.Code == "" || in.ID == "" {
		return nil, protocol.NewError(protocol.StatusInvalidRequest,
			"Invalid order details, coupon code or id.")
	}

	// One discount at a time: the first coupon must be removed before a new
	// one is applied, otherwise its recorded amount would be lost and the
	// totals could never be restored.
	if od.ActiveCoupon() {
		return nil, protocol.NewError(protocol.StatusFlowRejected,
			"Remove the applied offer before entering a new one.")
	}

	offer, known := s.catalog.Find(in.Code)
	switch {
	case known && offer.Scope == ScopeFirstItem:
		if !s.applyFirstItemDiscount(od, in, offer.Percent) {
			// No first line item with a positive sale amount to discount.
			break
		}
		return &protocol.OrderData{OrderDetails: od}, nil
	case known && offer.Scope == ScopeOrder:
		s.applyOrderDiscount(od, in, offer.Percent)
		return &protocol.OrderData{OrderDetails: od}, nil
	case strings.EqualFold(in.Code, ManualCode):
		s.applyOrderDiscount(od, in, manualPercent)
		return &protocol.OrderData{OrderDetails: od}, nil
	}

	return nil, protocol.NewError(protocol.StatusFlowRejected,
		"The offer code you have entered is not valid.")
}

// applyFirstItemDiscount subtracts percent of the first item's sale amount
// from the item, the subtotal, and the grand total, keeping the three fields
// consistent. It reports false, mutating nothing, when the document has no
// first item with a positive sale amount.
func (s *Service) applyFirstItemDiscount(od *protocol.OrderDetails, in *protocol.CouponInput, percent decimal.Decimal) bool {
	item := od.FirstItem()
	if item == nil || item.SaleAmount == nil || item.SaleAmount.Value.Sign() <= 0 {
		return false
	}
	if od.Order.Subtotal == nil || od.TotalAmount == nil {
		return false
	}

	discount := item.SaleAmount.Value.Mul(percent).Div(hundred)
	item.SaleAmount.Value = item.SaleAmount.Value.Sub(discount)
	od.Order.Subtotal.Value = od.Order.Subtotal.Value.Sub(discount)
	od.TotalAmount.Value = od.TotalAmount.Value.Sub(discount)
	od.Coupon = recordCoupon(in, discount)
	return true
}

// applyOrderDiscount subtracts percent of the grand total from the grand
// total only. A zero computed discount is a silent no-op: nothing moves and
// no coupon is recorded.
func (s *Service) applyOrderDiscount(od *protocol.OrderDetails, in *protocol.CouponInput, percent decimal.Decimal) {
	if od.TotalAmount == nil {
		return
	}
	discount := od.TotalAmount.Value.Mul(percent).Div(hundred)
	if discount.IsZero() {
		return
	}
	od.TotalAmount.Value = od.TotalAmount.Value.Sub(discount)
	od.Coupon = recordCoupon(in, discount)
}

// recordCoupon builds the coupon record for a computed discount. Offset 100
// is the fixed-point scale marker for percentage discounts.
func recordCoupon(in *protocol.CouponInput, discount decimal.Decimal) *protocol.Coupon {
	return &protocol.Coupon{
		Code: in.Code,
		ID:   in.ID,
		Discount: &protocol.Discount{
			Value:  protocol.NewAmount(discount),
			Offset: 100,
		},
	}
}

// removeCoupon reverses exactly the discount recorded on the document. A
// first-item-scoped coupon restores the item, subtotal, and total and leaves
// an emptied coupon object; any other coupon restores the total and deletes
// the coupon field entirely.
func (s *Service) removeCoupon(data *protocol.ExchangeData) (*protocol.OrderData, error) {
	od := orderDetails(data)
	var c *protocol.Coupon
	if od != nil {
		c = od.Coupon
	}
	if od == nil || c == nil || c.Code == "" || c.ID == "" ||
		c.Discount == nil || c.Discount.Value.IsZero() {
		return nil, protocol.NewError(protocol.StatusInvalidRequest,
			"Invalid Request - Order details, coupon id, coupon code, or discount missing.")
	}

	discount := c.Discount.Value.Decimal

	if offer, ok := s.catalog.Find(c.Code); ok && offer.Scope == ScopeFirstItem {
		item := od.FirstItem()
		if item != nil && item.SaleAmount != nil && !item.SaleAmount.Value.IsZero() &&
			od.Order.Subtotal != nil && od.TotalAmount != nil {
			item.SaleAmount.Value = item.SaleAmount.Value.Add(discount)
			od.Order.Subtotal.Value = od.Order.Subtotal.Value.Add(discount)
			od.TotalAmount.Value = od.TotalAmount.Value.Add(discount)
		}
		od.Coupon = &protocol.Coupon{}
		return &protocol.OrderData{OrderDetails: od}, nil
	}

	if od.TotalAmount == nil {
		return nil, protocol.NewError(protocol.StatusInvalidRequest,
			"Invalid Request - Order details, coupon id, coupon code, or discount missing.")
	}
	od.TotalAmount.Value = od.TotalAmount.Value.Add(discount)
	od.Coupon = nil
	return &protocol.OrderData{OrderDetails: od}, nil
}
