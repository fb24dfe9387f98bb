package order

import (
	"github.com/shopspring/decimal"

	"github.com/RiyaSaju106/QuickIT/internal/domain/cart"
	"github.com/RiyaSaju106/QuickIT/internal/domain/product"
)

// AssembleRequest holds the input for building an order submission.
type AssembleRequest struct {
	Items           cart.Items
	Catalog         product.Catalog
	ShippingAddress Address
	PaymentMethod   string
	Notes           string
}

// AssembleResult pairs the submission payload with assembly diagnostics.
type AssembleResult struct {
	Submission *Submission
	// Dropped counts cart entries whose product could not be resolved
	// against the catalog and were therefore left out of the order.
	Dropped int
}

// Assemble converts the cart plus price data into an order submission. Cart
// entries whose product is unknown to the catalog are dropped and counted.
// It returns ErrEmptyCart when the cart is empty, has a zero subtotal, or no
// lines survive filtering, and a ValidationError for missing address or
// payment fields. No network calls happen here.
func Assemble(req AssembleRequest) (*AssembleResult, error) {
	if len(req.Items) == 0 || req.Items.TotalAmount(req.Catalog).IsZero() {
		return nil, ErrEmptyCart
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	lines := make([]Item, 0, len(req.Items))
	dropped := 0
	subtotal := decimal.Zero
	for _, l := range req.Items.Lines() {
		p, ok := req.Catalog.Lookup(l.ProductID)
		if !ok {
			dropped++
			continue
		}
		lines = append(lines, Item{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     p.Price,
		})
		subtotal = subtotal.Add(p.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	fees := ComputeFees(subtotal)
	return &AssembleResult{
		Submission: &Submission{
			Items:           lines,
			ShippingAddress: req.ShippingAddress,
			PaymentMethod:   req.PaymentMethod,
			Subtotal:        fees.Subtotal,
			DeliveryFee:     fees.DeliveryFee,
			PlatformFee:     fees.PlatformFee,
			GST:             fees.GST,
			Total:           fees.Total,
			Notes:           req.Notes,
		},
		Dropped: dropped,
	}, nil
}

func validate(req AssembleRequest) error {
	addr := req.ShippingAddress
	switch {
	case addr.FullName == "":
		return &ValidationError{Field: "fullName"}
	case addr.Street == "":
		return &ValidationError{Field: "street"}
	case addr.City == "":
		return &ValidationError{Field: "city"}
	case addr.Pincode == "":
		return &ValidationError{Field: "pincode"}
	case addr.Phone == "":
		return &ValidationError{Field: "phone"}
	case req.PaymentMethod == "":
		return &ValidationError{Field: "paymentMethod"}
	}
	return nil
}
