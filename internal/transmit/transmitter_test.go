package transmit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransmitRequestShape(t *testing.T) {
	var got *http.Request
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"accepted":true}`))
	}))
	defer srv.Close()

	tx := New(srv.Client())
	outcome, err := tx.Transmit(context.Background(), Request{
		URL:         srv.URL + "/events",
		Token:       "eyHeader.eyPayload.sig",
		BearerToken: "bearer-123",
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/events", got.URL.Path)
	assert.Equal(t, ContentTypeSET, got.Header.Get("Content-Type"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
	assert.Equal(t, DefaultUserAgent, got.Header.Get("User-Agent"))
	assert.Equal(t, "Bearer bearer-123", got.Header.Get("Authorization"))
	assert.Equal(t, "eyHeader.eyPayload.sig", gotBody, "token travels raw, no re-encoding")

	assert.Equal(t, OutcomeSuccess, outcome.Status)
	assert.Equal(t, http.StatusAccepted, outcome.StatusCode)
	assert.Equal(t, `{"accepted":true}`, outcome.Body)
}

func TestTransmitOptionalHeaders(t *testing.T) {
	var ua, auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tx := New(srv.Client())
	_, err := tx.Transmit(context.Background(), Request{
		URL:       srv.URL,
		Token:     "t",
		UserAgent: "host-pipeline/2.3",
	})
	require.NoError(t, err)

	assert.Equal(t, "host-pipeline/2.3", ua, "caller-supplied user agent wins")
	assert.Empty(t, auth, "no authorization header without a bearer credential")
}

func TestTransmitClassification(t *testing.T) {
	t.Run("2xx is success with body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"success":true}`))
		}))
		defer srv.Close()

		outcome, err := New(srv.Client()).Transmit(context.Background(), Request{URL: srv.URL, Token: "t"})
		require.NoError(t, err)
		assert.Equal(t, &Outcome{Status: OutcomeSuccess, StatusCode: 200, Body: `{"success":true}`}, outcome)
	})

	t.Run("non-retryable failure is reported as data", func(t *testing.T) {
		for _, code := range []int{400, 401, 403, 404, 409, 500} {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(code)
				_, _ = w.Write([]byte("nope"))
			}))

			outcome, err := New(srv.Client()).Transmit(context.Background(), Request{URL: srv.URL, Token: "t"})
			require.NoError(t, err, "status %d must not raise", code)
			assert.Equal(t, OutcomeFailed, outcome.Status)
			assert.Equal(t, code, outcome.StatusCode)
			assert.Equal(t, "nope", outcome.Body)
			srv.Close()
		}
	})

	t.Run("retryable statuses raise a typed error", func(t *testing.T) {
		wantText := map[int]string{
			429: "Too Many Requests",
			502: "Bad Gateway",
			503: "Service Unavailable",
			504: "Gateway Timeout",
		}
		for code, text := range wantText {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(code)
			}))

			outcome, err := New(srv.Client()).Transmit(context.Background(), Request{URL: srv.URL, Token: "t"})
			require.Error(t, err)
			assert.Nil(t, outcome)

			de, ok := AsDeliveryError(err)
			require.True(t, ok)
			assert.Equal(t, code, de.StatusCode)
			assert.True(t, de.Retryable)
			assert.Equal(t, fmt.Sprintf("SET transmission failed: %d %s", code, text), err.Error())
			srv.Close()
		}
	})

	t.Run("transport-level failure is not a delivery error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // refuse connections

		_, err := New(nil).Transmit(context.Background(), Request{URL: srv.URL, Token: "t"})
		require.Error(t, err)
		_, ok := AsDeliveryError(err)
		assert.False(t, ok)
		assert.False(t, IsRetryable(err))
	})
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewDeliveryError(429)))
	assert.True(t, IsRetryable(NewDeliveryError(502)))
	assert.True(t, IsRetryable(NewDeliveryError(503)))
	assert.True(t, IsRetryable(NewDeliveryError(504)))

	// Non-retryable statuses build a non-retryable error even when forced
	// through the error path.
	assert.False(t, IsRetryable(NewDeliveryError(400)))

	assert.False(t, IsRetryable(errors.New("SET transmission failed: 429 Too Many Requests")),
		"message text alone never makes an error retryable")
	assert.False(t, IsRetryable(nil))

	wrapped := fmt.Errorf("attempt 3: %w", NewDeliveryError(503))
	assert.True(t, IsRetryable(wrapped), "classification survives wrapping")
}
