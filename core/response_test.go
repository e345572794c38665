package core_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/chatbill/core"
	"github.com/dmitrymomot/chatbill/pkg/requestid"
)

func newRequest(t *testing.T) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := requestid.WithContext(context.Background(), "req-123")
	return req.WithContext(ctx)
}

func TestJSON(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	core.JSON(rec, newRequest(t), http.StatusCreated, map[string]string{"id": "abc"})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true,"data":{"id":"abc"},"requestId":"req-123"}`, rec.Body.String())
}

func TestError(t *testing.T) {
	t.Parallel()

	t.Run("http error keeps status and key", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		core.Error(rec, newRequest(t), core.ErrNotFound)

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"success":false,"message":"Not Found","code":"not_found","requestId":"req-123"}`, rec.Body.String())
	})

	t.Run("wrapped http error is unwrapped", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		core.Error(rec, newRequest(t), errors.Join(errors.New("storage: row missing"), core.ErrNotFound))

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.NotContains(t, rec.Body.String(), "row missing")
	})

	t.Run("unknown error becomes opaque 500", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		core.Error(rec, newRequest(t), errors.New("pq: connection refused to 10.0.0.5"))

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "10.0.0.5")
		assert.Contains(t, rec.Body.String(), "internal server error")
	})
}
