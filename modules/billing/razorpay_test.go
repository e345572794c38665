package billing_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/chatbill/modules/billing"
)

func newGatewayClient(t *testing.T, baseURL string) *billing.RazorpayClient {
	t.Helper()
	return billing.NewRazorpayClient(billing.Config{
		RazorpayKeyID:     "rzp_test_key",
		RazorpayKeySecret: testKeySecret,
		RazorpayBaseURL:   baseURL,
		GatewayTimeout:    5 * time.Second,
	})
}

func TestRazorpayClientCreateOrder(t *testing.T) {
	t.Parallel()

	t.Run("posts order with basic auth", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/orders", r.URL.Path)

			user, pass, ok := r.BasicAuth()
			require.True(t, ok)
			assert.Equal(t, "rzp_test_key", user)
			assert.Equal(t, testKeySecret, pass)

			var req billing.GatewayOrderRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, int64(49_900), req.Amount)
			assert.Equal(t, "user-1", req.Notes["user_id"])

			json.NewEncoder(w).Encode(billing.GatewayOrder{
				ID: "order_rzp_abc", Amount: req.Amount, Currency: req.Currency, Status: "created",
			})
		}))
		defer server.Close()

		order, err := newGatewayClient(t, server.URL).CreateOrder(context.Background(), billing.GatewayOrderRequest{
			Amount:   49_900,
			Currency: "INR",
			Receipt:  "receipt-1",
			Notes:    map[string]string{"user_id": "user-1"},
		})
		require.NoError(t, err)
		assert.Equal(t, "order_rzp_abc", order.ID)
	})

	t.Run("non-200 is a gateway failure without body detail", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"error":{"description":"key_id is invalid"}}`, http.StatusUnauthorized)
		}))
		defer server.Close()

		_, err := newGatewayClient(t, server.URL).CreateOrder(context.Background(), billing.GatewayOrderRequest{
			Amount: 49_900, Currency: "INR",
		})
		require.ErrorIs(t, err, billing.ErrGatewayFailure)
		assert.NotContains(t, err.Error(), "key_id is invalid")
	})

	t.Run("breaker opens after consecutive failures", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := newGatewayClient(t, server.URL)
		ctx := context.Background()
		for n := 0; n < 10; n++ {
			_, _ = client.CreateOrder(ctx, billing.GatewayOrderRequest{Amount: 1, Currency: "INR"})
		}

		// Once open, the call fails without reaching the server.
		server.Close()
		_, err := client.CreateOrder(ctx, billing.GatewayOrderRequest{Amount: 1, Currency: "INR"})
		require.ErrorIs(t, err, billing.ErrGatewayFailure)
	})
}

func TestRazorpayClientFetchPayment(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/payments/pay_123", r.URL.Path)

		json.NewEncoder(w).Encode(billing.GatewayPayment{
			ID: "pay_123", OrderID: "order_rzp_abc", Amount: 99_900, Currency: "INR", Status: "captured",
		})
	}))
	defer server.Close()

	payment, err := newGatewayClient(t, server.URL).FetchPayment(context.Background(), "pay_123")
	require.NoError(t, err)
	assert.Equal(t, "order_rzp_abc", payment.OrderID)
	assert.Equal(t, int64(99_900), payment.Amount)
}
