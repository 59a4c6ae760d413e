package checkout

import (
	"github.com/xenking/flows-checkout/internal/protocol"
)

// applyShipping validates the selected address against the serviceable pin
// code and bills the flat surcharge exactly once per document: only when the
// address transitions from absent to set. A later address change is a plain
// swap with no further charge.
func (s *Service) applyShipping(data *protocol.ExchangeData) (*protocol.OrderData, error) {
	od := orderDetails(data)
	var addr *protocol.Address
	if data != nil && data.Input != nil {
		addr = data.Input.SelectedAddress
	}
	if od == nil || addr == nil {
		return nil, protocol.NewError(protocol.StatusInvalidRequest,
			"Invalid Request - Order details or selected address missing.")
	}

	if addr.InPinCode != s.shipping.ServiceablePinCode {
		return nil, protocol.Errorf(protocol.StatusFlowRejected,
			"Currently we operate only in Mumbai area (%s)", s.shipping.ServiceablePinCode)
	}

	if si := od.ShippingInfo; si != nil {
		alreadyBilled := si.SelectedAddress != nil
		si.SelectedAddress = addr
		if !alreadyBilled {
			// The surcharge touches the shipping line and the grand total as
			// a pair; if either amount is missing the document is left as-is.
			if od.Order != nil && od.Order.Shipping != nil && od.TotalAmount != nil {
				od.Order.Shipping.Value = od.Order.Shipping.Value.Add(s.shipping.Surcharge)
				od.TotalAmount.Value = od.TotalAmount.Value.Add(s.shipping.Surcharge)
			}
		}
	}

	return &protocol.OrderData{OrderDetails: od}, nil
}
