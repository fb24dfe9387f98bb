package order

import "github.com/shopspring/decimal"

// Fee schedule. Delivery is free above the threshold; GST is charged at a
// flat rate and rounded to the nearest whole amount.
var (
	freeDeliveryThreshold = decimal.NewFromInt(500)
	deliveryFee           = decimal.NewFromInt(40)
	platformFee           = decimal.NewFromInt(5)
	gstRate               = decimal.NewFromFloat(0.05)
)

// Fees holds the computed charges for a given subtotal.
type Fees struct {
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	PlatformFee decimal.Decimal
	GST         decimal.Decimal
	Total       decimal.Decimal
}

/// ComputeFees applies the fee schedule to a subtotal:
// delivery 40 (waived when subtotal exceeds 500), platform 5 flat, and GST at
// 5% rounded half away from zero to a whole amount.
func ComputeFees(subtotal decimal.Decimal) Fees {
	delivery := deliveryFee
	if subtotal.GreaterThan(freeDeliveryThreshold) {
		delivery = decimal.Zero
	}
	gst := subtotal.Mul(gstRate).Round(0)
	return Fees{
		Subtotal:    subtotal,
		DeliveryFee: delivery,
		PlatformFee: platformFee,
		GST:         gst,
		Total:       subtotal.Add(delivery).Add(platformFee).Add(gst),
	}
}
