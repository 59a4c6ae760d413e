package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/flows-checkout/internal/protocol"
)

// DiscountScope selects what an offer's percentage is computed against and
// which fields it moves.
type DiscountScope string

const (
	// ScopeOrder discounts the grand total only.
	ScopeOrder DiscountScope = "order"
	// ScopeFirstItem discounts the first line item's sale amount; the item,
	// the subtotal, and the grand total all move together.
	ScopeFirstItem DiscountScope = "first_item"
)

// Offer is a single catalog coupon.
type Offer struct {
	Code        string
	ID          string
	Percent     decimal.Decimal
	Scope       DiscountScope
	Description string
}

// Catalog is the ordered, immutable set of offers the coupon screen lists.
// It is a value injected into the Service so tests can substitute their own.
type Catalog []Offer

// Find returns the offer with the exact code.
func (c Catalog) Find(code string) (Offer, bool) {
	for _, o := range c {
		if o.Code == code {
			return o, true
		}
	}
	return Offer{}, false
}

// Offers renders the catalog as a get_coupons listing.
func (c Catalog) Offers() []protocol.CouponOffer {
	offers := make([]protocol.CouponOffer, len(c))
	for i, o := range c {
		offers[i] = protocol.CouponOffer{
			Description: o.Description,
			Code:        o.Code,
			ID:          o.ID,
		}
	}
	return offers
}

// ManualCode is the one coupon accepted case-insensitively when typed in by
// the user. It is deliberately absent from the catalog listing.
const ManualCode = "CODE5"

// manualPercent is the fixed rate for ManualCode.
var manualPercent = decimal.NewFromInt(5)

// DefaultCatalog returns the production coupon set.
func DefaultCatalog() Catalog {
	return Catalog{
		{
			Code:        "TRYNEW10",
			ID:          "trynew10_ref_id",
			Percent:     decimal.NewFromInt(10),
			Scope:       ScopeFirstItem,
			Description: "Get 10% off on your 1st order above ₹100.",
		},
		{
			Code:        "NEWEYE15",
			ID:          "neweye15_ref_id",
			Percent:     decimal.NewFromInt(15),
			Scope:       ScopeOrder,
			Description: "15% off up to ₹75",
		},
		{
			Code:        "WELCOME50",
			ID:          "welcome50_ref_id",
			Percent:     decimal.NewFromInt(50),
			Scope:       ScopeOrder,
			Description: "Get 50% off on your 1st order above ₹80. Maximum Discount: ₹50",
		},
	}
}

// ShippingPolicy gates apply_shipping: only one pin code is serviceable and
// the flat surcharge is billed once per document.
type ShippingPolicy struct {
	ServiceablePinCode string
	Surcharge          decimal.Decimal
}

// DefaultShippingPolicy returns the production shipping rules.
func DefaultShippingPolicy() ShippingPolicy {
	return ShippingPolicy{
		ServiceablePinCode: "400051",
		Surcharge:          decimal.NewFromInt(100),
	}
}
