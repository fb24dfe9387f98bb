package api

import (
	"encoding/json"

	"github.com/RiyaSaju106/QuickIT/internal/domain/order"
	"github.com/RiyaSaju106/QuickIT/internal/domain/product"
	"github.com/shopspring/decimal"
)

// User is the authenticated user profile returned by the auth endpoints.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role,omitempty"`
}

// authData is the payload of login/register/refresh responses.
type authData struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	User         User   `json:"user"`
}

// cartData is the payload of GET /cart. The backend nests each line's product
// document; only its ID matters to the client.
type cartData struct {
	Cart struct {
		Items []struct {
			Product struct {
				ID string `json:"_id"`
			} `json:"product"`
			Quantity int `json:"quantity"`
		} `json:"items"`
	} `json:"cart"`
}

// cartLineBody is the request body for cart add/update calls.
type cartLineBody struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// refreshBody is the request body for the token refresh endpoint.
type refreshBody struct {
	RefreshToken string `json:"refreshToken"`
}

// wireProduct is a catalog entry as served by GET /products.
type wireProduct struct {
	ID          string          `json:"_id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory,omitempty"`
	Unit        string          `json:"unit,omitempty"`
	Image       string          `json:"image,omitempty"`
}

func (w wireProduct) domain() product.Product {
	return product.Product{
		ID:          w.ID,
		Name:        w.Name,
		Price:       w.Price,
		Category:    w.Category,
		Subcategory: w.Subcategory,
		Unit:        w.Unit,
		Image:       w.Image,
	}
}

// productsData is the payload of GET /products.
type productsData struct {
	Products []wireProduct `json:"products"`
}

// orderSubmission is the wire form of an order payload. Monetary fields are
// emitted as bare JSON numbers, which decimal's default marshalling (quoted
// strings) would not produce.
type orderSubmission struct {
	Items           []orderSubmissionItem `json:"items"`
	ShippingAddress order.Address         `json:"shippingAddress"`
	PaymentMethod   string                `json:"paymentMethod"`
	Subtotal        json.Number           `json:"subtotal"`
	DeliveryFee     json.Number           `json:"deliveryFee"`
	PlatformFee     json.Number           `json:"platformFee"`
	GST             json.Number           `json:"gst"`
	TotalAmount     json.Number           `json:"totalAmount"`
	Notes           string                `json:"notes,omitempty"`
}

type orderSubmissionItem struct {
	ProductID string      `json:"productId"`
	Quantity  int         `json:"quantity"`
	Price     json.Number `json:"price"`
}

func toWireSubmission(sub *order.Submission) orderSubmission {
	items := make([]orderSubmissionItem, len(sub.Items))
	for i, it := range sub.Items {
		items[i] = orderSubmissionItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     json.Number(it.Price.String()),
		}
	}
	return orderSubmission{
		Items:           items,
		ShippingAddress: sub.ShippingAddress,
		PaymentMethod:   sub.PaymentMethod,
		Subtotal:        json.Number(sub.Subtotal.String()),
		DeliveryFee:     json.Number(sub.DeliveryFee.String()),
		PlatformFee:     json.Number(sub.PlatformFee.String()),
		GST:             json.Number(sub.GST.String()),
		TotalAmount:     json.Number(sub.Total.String()),
		Notes:           sub.Notes,
	}
}

// orderData is the payload of POST /orders. Some backend versions wrap the
// order, others return it directly; decodeOrder handles both.
type orderData struct {
	Order *order.Order `json:"order"`
}

func decodeOrder(data []byte) (*order.Order, error) {
	var wrapped orderData
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Order != nil && wrapped.Order.ID != "" {
		return wrapped.Order, nil
	}
	var o order.Order
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, err
	}
	return &o, nil
}
