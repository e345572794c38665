package ratelimit_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/chatbill/pkg/ratelimit"
)

func TestByUserID(t *testing.T) {
	t.Parallel()

	key := ratelimit.ByUserID(func(r *http.Request) string {
		return r.Header.Get("X-Test-User")
	})

	t.Run("authenticated", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Test-User", "u1")
		assert.Equal(t, "user:u1", key(r))
	})

	t.Run("anonymous falls through", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		assert.Empty(t, key(r))
	})
}

func TestByClientIP(t *testing.T) {
	t.Parallel()

	key := ratelimit.ByClientIP()

	t.Run("includes ip and user agent", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "192.0.2.5:9999"
		r.Header.Set("User-Agent", "test-agent")
		assert.Equal(t, "ip:192.0.2.5:test-agent", key(r))
	})

	t.Run("truncates long user agent", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "192.0.2.5:9999"
		r.Header.Set("User-Agent", strings.Repeat("x", 100))
		got := key(r)
		assert.Equal(t, "ip:192.0.2.5:"+strings.Repeat("x", 32), got)
	})
}

func TestFirstOf_UserIDTakesPrecedence(t *testing.T) {
	t.Parallel()

	key := ratelimit.FirstOf(
		ratelimit.ByUserID(func(r *http.Request) string { return r.Header.Get("X-Test-User") }),
		ratelimit.ByClientIP(),
	)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.5:9999"

	// Anonymous request keys by IP.
	assert.True(t, strings.HasPrefix(key(r), "ip:"))

	// Authenticated request keys by user id even behind shared NAT.
	r.Header.Set("X-Test-User", "u1")
	assert.Equal(t, "user:u1", key(r))
}
