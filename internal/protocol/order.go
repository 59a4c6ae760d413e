package protocol

// OrderDetails is the checkout document owned by the client. It is decrypted
// from each request, mutated by exactly one operation, and returned in the
// response. There is no server-side copy between requests.
type OrderDetails struct {
	Currency     string        `json:"currency,omitempty"`
	Order        *Order        `json:"order,omitempty"`
	TotalAmount  *Money        `json:"total_amount,omitempty"`
	Coupon       *Coupon       `json:"coupon,omitempty"`
	ShippingInfo *ShippingInfo `json:"shipping_info,omitempty"`
}

// Order holds the line items and per-order amounts.
type Order struct {
	Items    []LineItem `json:"items,omitempty"`
	Subtotal *Money     `json:"subtotal,omitempty"`
	Shipping *Money     `json:"shipping,omitempty"`
	Tax      *Money     `json:"tax,omitempty"`
}

// LineItem is a single product line in the order.
type LineItem struct {
	RetailerID string `json:"retailer_id,omitempty"`
	Name       string `json:"name,omitempty"`
	Quantity   int    `json:"quantity,omitempty"`
	Amount     *Money `json:"amount,omitempty"`
	SaleAmount *Money `json:"sale_amount,omitempty"`
}

// Money is an amount field of the document. Offset is the fixed-point scale
// marker used by the platform; the engine carries it through unchanged.
type Money struct {
	Value  Amount `json:"value"`
	Offset int    `json:"offset,omitempty"`
}

// Coupon records the currently applied discount. Its presence is the sole
// source of truth for whether a discount is active. The recorded discount
// value is exactly what remove_coupon adds back.
type Coupon struct {
	Code     string    `json:"code,omitempty"`
	ID       string    `json:"id,omitempty"`
	Discount *Discount `json:"discount,omitempty"`
}

// Discount is the recorded reduction. Offset is always 100 for the
// percentage-based coupons this endpoint issues.
type Discount struct {
	Value  Amount `json:"value"`
	Offset int    `json:"offset"`
}

// ShippingInfo gates the one-time shipping surcharge: the surcharge is
// billed only when SelectedAddress transitions from absent to set.
type ShippingInfo struct {
	SelectedAddress *Address `json:"selected_address,omitempty"`
}

// Address is a delivery address as submitted by the flow's address screen.
type Address struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name,omitempty"`
	PhoneNumber  string `json:"phone_number,omitempty"`
	Address      string `json:"address,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	InPinCode    string `json:"in_pin_code,omitempty"`
	HouseNumber  string `json:"house_number,omitempty"`
	FloorNumber  string `json:"floor_number,omitempty"`
	TowerNumber  string `json:"tower_number,omitempty"`
	BuildingName string `json:"building_name,omitempty"`
	LandmarkArea string `json:"landmark_area,omitempty"`
}

// ActiveCoupon reports whether the document carries a coupon with a non-zero
// recorded discount.
func (od *OrderDetails) ActiveCoupon() bool {
	c := od.Coupon
	return c != nil && c.Discount != nil && !c.Discount.Value.IsZero()
}

// FirstItem returns the first line item, or nil when there are none.
func (od *OrderDetails) FirstItem() *LineItem {
	if od.Order == nil || len(od.Order.Items) == 0 {
		return nil
	}
	return &od.Order.Items[0]
}
