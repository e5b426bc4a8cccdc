// Package transmit delivers a signed SET to a receiver endpoint over HTTP and
// classifies the outcome: success, terminal failure reported as data, or a
// retryable failure raised as a typed error.
package transmit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	// ContentTypeSET is the media type SET receivers key on (RFC 8417 §2.3).
	ContentTypeSET = "application/secevent+jwt"

	// DefaultUserAgent identifies this transmitter unless the caller overrides it.
	DefaultUserAgent = "setforge/1.0"
)

// Doer abstracts the HTTP client so tests can inject transport behavior.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// OutcomeStatus tags a reported (non-raised) delivery outcome.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailed  OutcomeStatus = "failed"
)

// Outcome is the reported result of a delivery attempt. Failed outcomes are
// terminal and must be surfaced as data, not raised: only retryable statuses
// travel as errors so the retry classifier has a single error surface to
// inspect.
type Outcome struct {
	Status     OutcomeStatus
	StatusCode int
	Body       string
}

// Request carries one delivery. URL is the final destination (already joined
// by JoinEndpoint); Token is sent raw as the body with no further encoding.
type Request struct {
	URL         string
	Token       string
	BearerToken string
	UserAgent   string
}

// Transmitter performs the HTTP POST. It imposes no timeout of its own; the
// injected client's transport behavior governs, and callers bound latency via
// the context.
type Transmitter struct {
	client Doer
}

func New(client Doer) *Transmitter {
	if client == nil {
		client = &http.Client{}
	}
	return &Transmitter{client: client}
}

// Transmit delivers the token and classifies the response. The full body is
// read regardless of status so receivers' diagnostics reach the caller.
func (t *Transmitter) Transmit(ctx context.Context, req Request) (*Outcome, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, strings.NewReader(req.Token))
	if err != nil {
		return nil, fmt.Errorf("build SET request: %w", err)
	}

	httpReq.Header.Set("Content-Type", ContentTypeSET)
	httpReq.Header.Set("Accept", "application/json")
	ua := req.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	httpReq.Header.Set("User-Agent", ua)
	if req.BearerToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.BearerToken)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("transmit SET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read SET response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return &Outcome{Status: OutcomeSuccess, StatusCode: resp.StatusCode, Body: string(body)}, nil
	case retryableStatus(resp.StatusCode):
		return nil, NewDeliveryError(resp.StatusCode)
	default:
		return &Outcome{Status: OutcomeFailed, StatusCode: resp.StatusCode, Body: string(body)}, nil
	}
}
