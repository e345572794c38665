package requestid_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/chatbill/pkg/requestid"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("generates id when header absent", func(t *testing.T) {
		t.Parallel()
		var got string
		h := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = requestid.FromContext(r.Context())
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.NotEmpty(t, got)
		assert.Equal(t, got, rec.Header().Get(requestid.Header))
	})

	t.Run("propagates valid inbound id", func(t *testing.T) {
		t.Parallel()
		var got string
		h := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = requestid.FromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestid.Header, "client-id-123")
		h.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "client-id-123", got)
	})

	t.Run("replaces malformed inbound id", func(t *testing.T) {
		t.Parallel()
		var got string
		h := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = requestid.FromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestid.Header, "bad id\nwith newline")
		h.ServeHTTP(httptest.NewRecorder(), req)

		require.NotEmpty(t, got)
		assert.NotEqual(t, "bad id\nwith newline", got)
	})

	t.Run("replaces oversized inbound id", func(t *testing.T) {
		t.Parallel()
		var got string
		h := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = requestid.FromContext(r.Context())
		}))

		long := strings.Repeat("a", 200)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestid.Header, long)
		h.ServeHTTP(httptest.NewRecorder(), req)

		assert.NotEqual(t, long, got)
	})
}

func TestFromContext_Empty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, requestid.FromContext(context.Background()))
}
