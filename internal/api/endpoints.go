package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/RiyaSaju106/QuickIT/internal/domain/cart"
	"github.com/RiyaSaju106/QuickIT/internal/domain/order"
	"github.com/RiyaSaju106/QuickIT/internal/domain/product"
)

// Login authenticates with email and password and stores the issued token
// pair.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	body := map[string]string{"email": email, "password": password}
	env, err := c.do(ctx, http.MethodPost, "/auth/login", body, false)
	if err != nil {
		return nil, err
	}
	var data authData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, errors.Wrap(err, "decode login response")
	}
	if err := c.tokens.Set(ctx, data.Token, data.RefreshToken); err != nil {
		return nil, errors.Wrap(err, "store tokens")
	}
	return &data.User, nil
}

// Register creates an account. The backend auto-logs new users in; when a
// token pair comes back it is stored.
func (c *Client) Register(ctx context.Context, name, email, password, phone string) (*User, error) {
	body := map[string]string{"name": name, "email": email, "password": password, "phone": phone}
	env, err := c.do(ctx, http.MethodPost, "/auth/register", body, false)
	if err != nil {
		return nil, err
	}
	var data authData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, errors.Wrap(err, "decode register response")
	}
	if data.Token != "" && data.RefreshToken != "" {
		if err := c.tokens.Set(ctx, data.Token, data.RefreshToken); err != nil {
			return nil, errors.Wrap(err, "store tokens")
		}
	}
	return &data.User, nil
}

// Logout invalidates the session on the backend. Clearing local state is the
// caller's job; a failure here is best-effort cleanup, not fatal.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/auth/logout", nil, true)
	return err
}

// FetchCart retrieves the remote authoritative cart.
func (c *Client) FetchCart(ctx context.Context) ([]cart.Line, error) {
	env, err := c.do(ctx, http.MethodGet, "/cart", nil, true)
	if err != nil {
		return nil, err
	}
	var data cartData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, errors.Wrap(err, "decode cart response")
	}
	lines := make([]cart.Line, 0, len(data.Cart.Items))
	for _, item := range data.Cart.Items {
		lines = append(lines, cart.Line{ProductID: item.Product.ID, Quantity: item.Quantity})
	}
	return lines, nil
}

// AddCartItem adds quantity units of a product to the remote cart. The
// endpoint is additive: an existing line's quantity is incremented.
func (c *Client) AddCartItem(ctx context.Context, productID string, quantity int) error {
	_, err := c.do(ctx, http.MethodPost, "/cart/add", cartLineBody{ProductID: productID, Quantity: quantity}, true)
	return err
}

// UpdateCartItem sets the absolute quantity of a product in the remote cart.
func (c *Client) UpdateCartItem(ctx context.Context, productID string, quantity int) error {
	_, err := c.do(ctx, http.MethodPut, "/cart/update", cartLineBody{ProductID: productID, Quantity: quantity}, true)
	return err
}

// RemoveCartItem deletes a product's line from the remote cart.
func (c *Client) RemoveCartItem(ctx context.Context, productID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/cart/remove/"+productID, nil, true)
	return err
}

// ClearCart empties the remote cart.
func (c *Client) ClearCart(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodDelete, "/cart/clear", nil, true)
	return err
}

// SubmitOrder posts an assembled order and returns the created order.
func (c *Client) SubmitOrder(ctx context.Context, sub *order.Submission) (*order.Order, error) {
	env, err := c.do(ctx, http.MethodPost, "/orders", toWireSubmission(sub), true)
	if err != nil {
		return nil, err
	}
	o, err := decodeOrder(env.Data)
	if err != nil {
		return nil, errors.Wrap(err, "decode order response")
	}
	return o, nil
}

// ListProducts fetches the catalog used for price lookups. Public endpoint,
// no session required.
func (c *Client) ListProducts(ctx context.Context) ([]product.Product, error) {
	env, err := c.do(ctx, http.MethodGet, "/products?limit=1000", nil, false)
	if err != nil {
		return nil, err
	}
	var data productsData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, errors.Wrap(err, "decode products response")
	}
	products := make([]product.Product, len(data.Products))
	for i, w := range data.Products {
		products[i] = w.domain()
	}
	return products, nil
}

// Ping checks backend reachability with a cheap public call.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/products?limit=1", nil, false)
	return err
}
