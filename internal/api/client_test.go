package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RiyaSaju106/QuickIT/internal/domain/order"
	"github.com/RiyaSaju106/QuickIT/internal/localstate"
	"github.com/RiyaSaju106/QuickIT/internal/session"
)

// --- Helpers ---

func newTokens(t *testing.T) *session.Manager {
	t.Helper()
	state, err := localstate.New(localstate.DriverMemory)
	require.NoError(t, err)
	return session.NewManager(state)
}

func newTestClient(t *testing.T, baseURL string, tokens TokenSource, onExpired func(context.Context)) *Client {
	t.Helper()
	c, err := NewClient(Config{
		BaseURL:          baseURL,
		Tokens:           tokens,
		OnSessionExpired: onExpired,
	})
	require.NoError(t, err)
	return c
}

func writeEnvelope(w http.ResponseWriter, status int, success bool, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]any{"success": success, "message": message}
	if data != nil {
		body["data"] = data
	}
	json.NewEncoder(w).Encode(body)
}

func authDataBody(access, refresh string) map[string]any {
	return map[string]any{
		"token":        access,
		"refreshToken": refresh,
		"user":         map[string]any{"_id": "u1", "name": "Riya", "email": "riya@example.com"},
	}
}

// --- Construction ---

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{Tokens: newTokens(t)})
	require.Error(t, err)

	_, err = NewClient(Config{BaseURL: "http://localhost:8000/api"})
	require.Error(t, err)
}

// --- Authenticated executor ---

func TestDo_NoSession(t *testing.T) {
	c := newTestClient(t, "http://localhost:0", newTokens(t), nil)
	_, err := c.FetchCart(context.Background())
	require.ErrorIs(t, err, ErrNoSession)
}

func TestDo_NetworkError(t *testing.T) {
	tokens := newTokens(t)
	require.NoError(t, tokens.Set(context.Background(), "acc", "ref"))

	// Reserved TEST-NET address, nothing listens there.
	c, err := NewClient(Config{
		BaseURL:    "http://192.0.2.1:1/api",
		Tokens:     tokens,
		HTTPClient: &http.Client{Timeout: 50 * time.Millisecond},
	})
	require.NoError(t, err)

	_, err = c.FetchCart(context.Background())
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
}

func TestDo_RefreshThenRetrySucceeds(t *testing.T) {
	ctx := context.Background()
	tokens := newTokens(t)
	require.NoError(t, tokens.Set(ctx, "stale", "ref-0"))

	var cartCalls, refreshCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/cart":
			cartCalls.Add(1)
			if r.Header.Get("Authorization") != "Bearer fresh" {
				writeEnvelope(w, http.StatusUnauthorized, false, "token expired", nil)
				return
			}
			writeEnvelope(w, http.StatusOK, true, "", map[string]any{
				"cart": map[string]any{"items": []map[string]any{
					{"product": map[string]any{"_id": "p1"}, "quantity": 2},
				}},
			})
		case "/api/auth/refresh-token":
			refreshCalls.Add(1)
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["refreshToken"] != "ref-0" {
				writeEnvelope(w, http.StatusUnauthorized, false, "invalid refresh token", nil)
				return
			}
			writeEnvelope(w, http.StatusOK, true, "", authDataBody("fresh", "ref-1"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/api", tokens, nil)

	lines, err := c.FetchCart(ctx)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "p1", lines[0].ProductID)
	assert.Equal(t, 2, lines[0].Quantity)

	// Original call reissued exactly once, one refresh, rotated pair stored.
	assert.Equal(t, int32(2), cartCalls.Load())
	assert.Equal(t, int32(1), refreshCalls.Load())
	assert.Equal(t, session.Pair{Access: "fresh", Refresh: "ref-1"}, tokens.Pair())
}

func TestDo_RetryAtMostOnce(t *testing.T) {
	ctx := context.Background()
	tokens := newTokens(t)
	require.NoError(t, tokens.Set(ctx, "stale", "ref-0"))

	var cartCalls, refreshCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/cart":
			// Unauthorized even after a successful refresh.
			cartCalls.Add(1)
			writeEnvelope(w, http.StatusUnauthorized, false, "nope", nil)
		case "/api/auth/refresh-token":
			refreshCalls.Add(1)
			writeEnvelope(w, http.StatusOK, true, "", authDataBody("fresh", "ref-1"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/api", tokens, nil)

	_, err := c.FetchCart(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	// One original attempt + one retry, never a loop.
	assert.Equal(t, int32(2), cartCalls.Load())
	assert.Equal(t, int32(1), refreshCalls.Load())
}

func TestDo_RefreshFailureLogsOutOnce(t *testing.T) {
	ctx := context.Background()
	tokens := newTokens(t)
	require.NoError(t, tokens.Set(ctx, "stale", "dead-ref"))

	var cartCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/cart":
			cartCalls.Add(1)
			writeEnvelope(w, http.StatusUnauthorized, false, "token expired", nil)
		case "/api/auth/refresh-token":
			writeEnvelope(w, http.StatusUnauthorized, false, "invalid refresh token", nil)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	var expired atomic.Int32
	c := newTestClient(t, srv.URL+"/api", tokens, func(context.Context) {
		expired.Add(1)
	})

	_, err := c.FetchCart(ctx)
	require.ErrorIs(t, err, ErrSessionExpired)

	assert.Equal(t, int32(1), cartCalls.Load(), "no retry after failed refresh")
	assert.Equal(t, int32(1), expired.Load(), "exactly one logout")
	assert.False(t, tokens.Active(), "session cleared")
}

func TestRefresh_ConcurrentCallsCoalesce(t *testing.T) {
	ctx := context.Background()
	tokens := newTokens(t)
	require.NoError(t, tokens.Set(ctx, "stale", "ref-0"))

	var refreshCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/cart":
			if r.Header.Get("Authorization") != "Bearer fresh" {
				writeEnvelope(w, http.StatusUnauthorized, false, "token expired", nil)
				return
			}
			writeEnvelope(w, http.StatusOK, true, "", map[string]any{
				"cart": map[string]any{"items": []map[string]any{}},
			})
		case "/api/auth/refresh-token":
			refreshCalls.Add(1)
			// Hold the refresh so every in-flight 401 joins the same attempt.
			time.Sleep(200 * time.Millisecond)
			writeEnvelope(w, http.StatusOK, true, "", authDataBody("fresh", "ref-1"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/api", tokens, nil)

	const callers = 5
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = c.FetchCart(ctx)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "caller %d", i)
	}
	assert.Equal(t, int32(1), refreshCalls.Load(), "concurrent 401s must share one refresh")
	assert.Equal(t, session.Pair{Access: "fresh", Refresh: "ref-1"}, tokens.Pair())
}

// --- Endpoints ---

func TestLogin_StoresTokenPair(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/login", r.URL.Path)
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			writeEnvelope(w, http.StatusUnauthorized, false, "invalid credentials", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, true, "", authDataBody("acc", "ref"))
	}))
	defer srv.Close()

	tokens := newTokens(t)
	c := newTestClient(t, srv.URL+"/api", tokens, nil)

	user, err := c.Login(context.Background(), "riya@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "Riya", user.Name)
	assert.Equal(t, session.Pair{Access: "acc", Refresh: "ref"}, tokens.Pair())
}

func TestLogin_FailureSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, false, "invalid credentials", nil)
	}))
	defer srv.Close()

	tokens := newTokens(t)
	c := newTestClient(t, srv.URL+"/api", tokens, nil)

	_, err := c.Login(context.Background(), "riya@example.com", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid credentials", apiErr.Message)
	assert.False(t, tokens.Active())
}

func TestSubmitOrder_WirePayload(t *testing.T) {
	ctx := context.Background()
	tokens := newTokens(t)
	require.NoError(t, tokens.Set(ctx, "acc", "ref"))

	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/orders", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		writeEnvelope(w, http.StatusCreated, true, "", map[string]any{
			"order": map[string]any{"_id": "o1", "orderStatus": "placed", "totalAmount": 308},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/api", tokens, nil)

	sub := &order.Submission{
		Items: []order.Item{
			{ProductID: "p1", Quantity: 2, Price: decimal.NewFromInt(100)},
		},
		ShippingAddress: order.Address{
			FullName: "Riya Saju", Street: "12 MG Road", City: "Kochi",
			Pincode: "682001", Phone: "9876543210",
		},
		PaymentMethod: "cod",
		Subtotal:      decimal.NewFromInt(250),
		DeliveryFee:   decimal.NewFromInt(40),
		PlatformFee:   decimal.NewFromInt(5),
		GST:           decimal.NewFromInt(13),
		Total:         decimal.NewFromInt(308),
	}
	placed, err := c.SubmitOrder(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, "o1", placed.ID)
	assert.Equal(t, "placed", placed.Status)

	// Monetary fields travel as bare JSON numbers, not quoted strings.
	assert.Equal(t, float64(250), received["subtotal"])
	assert.Equal(t, float64(308), received["totalAmount"])
	items, ok := received["items"].([]any)
	require.True(t, ok)
	first, ok := items[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(100), first["price"])
}

func TestListProducts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/products", r.URL.Path)
		writeEnvelope(w, http.StatusOK, true, "", map[string]any{
			"products": []map[string]any{
				{"_id": "p1", "name": "Milk", "price": 28.5, "category": "dairy"},
				{"_id": "p2", "name": "Bread", "price": 40, "category": "bakery"},
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/api", newTokens(t), nil)

	products, err := c.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Milk", products[0].Name)
	assert.True(t, products[0].Price.Equal(decimal.NewFromFloat(28.5)))
}

func TestEnvelope_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>not json</html>")
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/api", newTokens(t), nil)
	err := c.Ping(context.Background())
	require.Error(t, err)
}
