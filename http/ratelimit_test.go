package http_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	sitecrawlhttp "github.com/fwojciec/sitecrawl/http"
	"github.com/stretchr/testify/assert"
)

func TestClientLimiter_Allow(t *testing.T) {
	t.Parallel()

	t.Run("allows a burst then denies", func(t *testing.T) {
		t.Parallel()

		l := sitecrawlhttp.NewClientLimiter(0.001, 3)

		for i := range 3 {
			assert.True(t, l.Allow("10.0.0.1"), "request %d", i)
		}
		assert.False(t, l.Allow("10.0.0.1"))
	})

	t.Run("tracks clients independently", func(t *testing.T) {
		t.Parallel()

		l := sitecrawlhttp.NewClientLimiter(0.001, 1)

		assert.True(t, l.Allow("10.0.0.1"))
		assert.False(t, l.Allow("10.0.0.1"))
		assert.True(t, l.Allow("10.0.0.2"))
	})

	t.Run("treats burst below one as one", func(t *testing.T) {
		t.Parallel()

		l := sitecrawlhttp.NewClientLimiter(0.001, 0)

		assert.True(t, l.Allow("10.0.0.1"))
		assert.False(t, l.Allow("10.0.0.1"))
	})

	t.Run("keeps limiting busy clients past the table size", func(t *testing.T) {
		t.Parallel()

		l := sitecrawlhttp.NewClientLimiter(0.001, 1)
		assert.True(t, l.Allow("busy"))

		for i := range 10050 {
			l.Allow(fmt.Sprintf("client-%d", i))
		}

		assert.False(t, l.Allow("busy"))
	})
}

func TestClientLimiter_Middleware(t *testing.T) {
	t.Parallel()

	l := sitecrawlhttp.NewClientLimiter(0.5, 1)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	request := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/crawl", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, request("192.0.2.1:1000").Code)

	rec := request("192.0.2.1:2000")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code, "same IP, different port")
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rec.Body.String())

	assert.Equal(t, http.StatusNoContent, request("192.0.2.2:1000").Code)
}
