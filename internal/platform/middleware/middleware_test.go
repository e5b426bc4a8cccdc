package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	t.Run("assigns an id when absent", func(t *testing.T) {
		var seen string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		}))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, rr.Header().Get("X-Request-Id"))
	})

	t.Run("honors a caller-supplied id", func(t *testing.T) {
		var seen string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		}))
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("X-Request-Id", "req-42")
		h.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "req-42", seen)
	})
}

func TestRecovery(t *testing.T) {
	h := Recovery(slog.New(slog.DiscardHandler))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestCaptureClient(t *testing.T) {
	t.Run("parses a browser-style agent", func(t *testing.T) {
		var ci ClientInfo
		h := CaptureClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ci = GetClientInfo(r.Context())
		}))
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36")
		h.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "Chrome", ci.Name)
		assert.NotEmpty(t, ci.Version)
	})

	t.Run("splits a product token into name and version", func(t *testing.T) {
		var ci ClientInfo
		h := CaptureClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ci = GetClientInfo(r.Context())
		}))
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("User-Agent", "host-pipeline/2.3")
		h.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "host-pipeline", ci.Name)
		assert.Equal(t, "2.3", ci.Version)
	})

	t.Run("absent agent leaves context empty", func(t *testing.T) {
		var ci ClientInfo
		h := CaptureClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ci = GetClientInfo(r.Context())
		}))
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Del("User-Agent")
		h.ServeHTTP(httptest.NewRecorder(), req)

		assert.Empty(t, ci.Name)
	})
}
