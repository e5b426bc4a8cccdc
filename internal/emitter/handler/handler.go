// Package handler is the thin HTTP layer over the emitter service. It maps
// the invocation contract onto routes and translates classified outcomes into
// status codes; no token or delivery logic lives here.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"setforge/internal/emitter"
	"setforge/internal/emitter/store/resultcache"
	"setforge/internal/platform/middleware"
	"setforge/internal/transmit"
	dErrors "setforge/pkg/domain-errors"
)

// Service defines the emitter operations the HTTP layer needs.
type Service interface {
	Emit(ctx context.Context, in emitter.Input) (*emitter.Result, error)
	RetryDecision(err error) (*emitter.Decision, error)
	Halt() *emitter.Decision
}

// retryAfterHint is the backoff, in seconds, suggested to hosts when a
// delivery attempt failed with a transient receiver status.
const retryAfterHint = "30"

// Handler handles transmission endpoints.
type Handler struct {
	logger   *slog.Logger
	svc      Service
	cache    resultcache.Store
	cacheTTL time.Duration
}

// New creates a new transmission Handler. cache may be nil to disable
// idempotent replay.
func New(svc Service, logger *slog.Logger, cache resultcache.Store, cacheTTL time.Duration) *Handler {
	return &Handler{
		logger:   logger,
		svc:      svc,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// Register registers the transmission routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(middleware.CaptureClient)
	router.Post("/v1/transmissions", h.handleTransmit)
	router.Post("/v1/retry-decision", h.handleRetryDecision)
	router.Post("/v1/halt", h.handleHalt)

	r.Mount("/", router)
}

func (h *Handler) handleTransmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var in emitter.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.logger.WarnContext(ctx, "invalid transmission request",
			"request_id", requestID,
			"error", err.Error(),
		)
		h.writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	idemKey := r.Header.Get("Idempotency-Key")
	if h.cache != nil && idemKey != "" {
		if cached, ok, err := h.cache.Get(ctx, idemKey); err != nil {
			h.logger.WarnContext(ctx, "idempotency cache read failed",
				"request_id", requestID,
				"error", err.Error(),
			)
		} else if ok {
			w.Header().Set("Idempotency-Replayed", "true")
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	result, err := h.svc.Emit(ctx, in)
	if err != nil {
		if de, retryable := transmit.AsDeliveryError(err); retryable && de.Retryable {
			h.logger.WarnContext(ctx, "retryable transmission failure",
				"request_id", requestID,
				"status_code", de.StatusCode,
			)
			w.Header().Set("Retry-After", retryAfterHint)
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"error":      de.Error(),
				"statusCode": de.StatusCode,
				"retryable":  true,
			})
			return
		}
		h.logger.WarnContext(ctx, "transmission failed",
			"request_id", requestID,
			"error", err.Error(),
		)
		h.writeError(w, err)
		return
	}

	if h.cache != nil && idemKey != "" {
		if err := h.cache.Put(ctx, idemKey, result, h.cacheTTL); err != nil {
			h.logger.WarnContext(ctx, "idempotency cache write failed",
				"request_id", requestID,
				"error", err.Error(),
			)
		}
	}

	writeJSON(w, http.StatusOK, result)
}

// retryDecisionRequest replays a previously raised failure. Hosts that caught
// a typed delivery error pass its status code; anything else arrives as a
// bare message and is terminal.
type retryDecisionRequest struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

func (h *Handler) handleRetryDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req retryDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	var prior error
	if req.StatusCode != 0 {
		prior = transmit.NewDeliveryError(req.StatusCode)
	} else {
		prior = errors.New(req.Message)
	}

	decision, err := h.svc.RetryDecision(prior)
	if err != nil {
		// Not transient: the verdict is final. HTTP cannot re-raise, so the
		// host maps "fatal" back to its own throw.
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "fatal",
			"error":  err.Error(),
		})
		return
	}

	h.logger.InfoContext(ctx, "retry requested",
		"request_id", middleware.GetRequestID(ctx),
		"status_code", req.StatusCode,
	)
	writeJSON(w, http.StatusOK, decision)
}

func (h *Handler) handleHalt(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Halt())
}

// writeError centralizes domain error translation to HTTP responses.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch dErrors.CodeOf(err) {
	case dErrors.CodeValidation, dErrors.CodeBadRequest:
		status = http.StatusBadRequest
	case dErrors.CodeInvalidInput:
		status = http.StatusUnprocessableEntity
	case dErrors.CodeUnauthorized:
		status = http.StatusUnauthorized
	case dErrors.CodeNotFound:
		status = http.StatusNotFound
	case dErrors.CodeUnavailable:
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
