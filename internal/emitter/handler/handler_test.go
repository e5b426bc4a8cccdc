package handler

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"setforge/internal/emitter"
	"setforge/internal/emitter/store/resultcache"
	"setforge/internal/transmit"
	dErrors "setforge/pkg/domain-errors"
	"setforge/pkg/testutil"
)

// stubService scripts the emitter outcomes per test.
type stubService struct {
	result *emitter.Result
	err    error
	calls  int
	lastIn emitter.Input
}

func (s *stubService) Emit(_ context.Context, in emitter.Input) (*emitter.Result, error) {
	s.calls++
	s.lastIn = in
	return s.result, s.err
}

func (s *stubService) RetryDecision(err error) (*emitter.Decision, error) {
	if transmit.IsRetryable(err) {
		return &emitter.Decision{Status: emitter.DecisionRetryRequested}, nil
	}
	return nil, err
}

func (s *stubService) Halt() *emitter.Decision {
	return &emitter.Decision{Status: emitter.StatusHalted}
}

func newRouter(svc Service, cache resultcache.Store) http.Handler {
	h := New(svc, slog.New(slog.DiscardHandler), cache, time.Minute)
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func validBody() emitter.Input {
	return emitter.Input{
		Audience:       "receiver-42",
		Subject:        `{"format":"opaque","id":"d1"}`,
		PreviousStatus: "compliant",
		CurrentStatus:  "not-compliant",
		Address:        "https://receiver.example.com",
	}
}

func TestHandleTransmit(t *testing.T) {
	t.Run("success result passes through", func(t *testing.T) {
		svc := &stubService{result: &emitter.Result{Status: "success", StatusCode: 200, Body: `{"success":true}`}}
		router := newRouter(svc, nil)

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/v1/transmissions", validBody()))

		testutil.AssertStatus(t, rr, http.StatusOK)
		res := testutil.UnmarshalResponse[emitter.Result](t, rr)
		assert.Equal(t, svc.result, res)
		assert.Equal(t, "receiver-42", svc.lastIn.Audience)
	})

	t.Run("reported failure is still a 200", func(t *testing.T) {
		svc := &stubService{result: &emitter.Result{Status: "failed", StatusCode: 400, Body: "nope"}}
		router := newRouter(svc, nil)

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/v1/transmissions", validBody()))

		testutil.AssertStatus(t, rr, http.StatusOK)
		testutil.AssertJSONContains(t, rr, "status", "failed")
		testutil.AssertJSONContains(t, rr, "retryable", false)
	})

	t.Run("retryable failure maps to 503", func(t *testing.T) {
		svc := &stubService{err: transmit.NewDeliveryError(429)}
		router := newRouter(svc, nil)

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/v1/transmissions", validBody()))

		testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
		assert.Equal(t, "30", rr.Header().Get("Retry-After"))
		testutil.AssertJSONContains(t, rr, "error", "SET transmission failed: 429 Too Many Requests")
		testutil.AssertJSONContains(t, rr, "retryable", true)
		testutil.AssertJSONContains(t, rr, "statusCode", float64(429))
	})

	t.Run("validation error maps to 400", func(t *testing.T) {
		svc := &stubService{err: dErrors.New(dErrors.CodeValidation, "missing required parameter: audience")}
		router := newRouter(svc, nil)

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/v1/transmissions", validBody()))

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
		testutil.AssertJSONContains(t, rr, "error", "missing required parameter: audience")
	})

	t.Run("signing error maps to 422", func(t *testing.T) {
		svc := &stubService{err: dErrors.New(dErrors.CodeInvalidInput, "invalid signing key material")}
		router := newRouter(svc, nil)

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/v1/transmissions", validBody()))

		testutil.AssertStatus(t, rr, http.StatusUnprocessableEntity)
	})

	t.Run("malformed body maps to 400", func(t *testing.T) {
		router := newRouter(&stubService{}, nil)

		rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPost, "/v1/transmissions", "{oops"))

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}

func TestHandleTransmitIdempotency(t *testing.T) {
	svc := &stubService{result: &emitter.Result{Status: "success", StatusCode: 200, Body: "ok"}}
	cache := resultcache.NewInMemoryStore()
	router := newRouter(svc, cache)

	first := testutil.NewJSONRequest(t, http.MethodPost, "/v1/transmissions", validBody())
	first.Header.Set("Idempotency-Key", "inv-1")
	rr := testutil.DoRequest(router, first)
	testutil.AssertStatus(t, rr, http.StatusOK)
	require.Equal(t, 1, svc.calls)
	assert.Empty(t, rr.Header().Get("Idempotency-Replayed"))

	second := testutil.NewJSONRequest(t, http.MethodPost, "/v1/transmissions", validBody())
	second.Header.Set("Idempotency-Key", "inv-1")
	rr = testutil.DoRequest(router, second)
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, 1, svc.calls, "replay must not emit a second event")
	assert.Equal(t, "true", rr.Header().Get("Idempotency-Replayed"))
	testutil.AssertJSONContains(t, rr, "status", "success")

	third := testutil.NewJSONRequest(t, http.MethodPost, "/v1/transmissions", validBody())
	third.Header.Set("Idempotency-Key", "inv-2")
	rr = testutil.DoRequest(router, third)
	assert.Equal(t, 2, svc.calls, "a new key emits again")
}

func TestHandleRetryDecision(t *testing.T) {
	router := newRouter(&stubService{}, nil)

	t.Run("retryable status code", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/v1/retry-decision",
			map[string]any{"statusCode": 502}))

		testutil.AssertStatus(t, rr, http.StatusOK)
		testutil.AssertJSONContains(t, rr, "status", "retry_requested")
	})

	t.Run("non-retryable status code is fatal", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/v1/retry-decision",
			map[string]any{"statusCode": 400}))

		testutil.AssertStatus(t, rr, http.StatusOK)
		testutil.AssertJSONContains(t, rr, "status", "fatal")
	})

	t.Run("bare message is fatal and echoed", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/v1/retry-decision",
			map[string]any{"message": "key material rejected"}))

		testutil.AssertStatus(t, rr, http.StatusOK)
		testutil.AssertJSONContains(t, rr, "status", "fatal")
		testutil.AssertJSONContains(t, rr, "error", "key material rejected")
	})
}

func TestHandleHalt(t *testing.T) {
	router := newRouter(&stubService{}, nil)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/v1/halt", nil))

	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertJSONContains(t, rr, "status", "halted")
}
