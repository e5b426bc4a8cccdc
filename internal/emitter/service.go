package emitter

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"setforge/internal/emitter/metrics"
	"setforge/internal/platform/middleware"
	"setforge/internal/set"
	"setforge/internal/transmit"
	"setforge/pkg/platform/deliverylog"
)

// Service runs one emission end to end. It holds no per-invocation state;
// every call owns its own claims set, key handle, and HTTP exchange.
type Service struct {
	creds       CredentialProvider
	builder     *set.Builder
	transmitter *transmit.Transmitter
	audit       *deliverylog.Publisher
	metrics     *metrics.Metrics
	tracer      trace.Tracer
}

// New creates the emitter service. audit and m may be nil when the caller
// does not want delivery logging or metrics.
func New(
	creds CredentialProvider,
	builder *set.Builder,
	transmitter *transmit.Transmitter,
	audit *deliverylog.Publisher,
	m *metrics.Metrics,
) *Service {
	return &Service{
		creds:       creds,
		builder:     builder,
		transmitter: transmitter,
		audit:       audit,
		metrics:     m,
		tracer:      otel.Tracer("setforge/emitter"),
	}
}

// Emit validates the parameter bag, builds the signed SET, and delivers it.
// Success and terminal failures come back as a Result; retryable delivery
// failures come back as a *transmit.DeliveryError so the retry classifier has
// a single error surface to inspect.
func (s *Service) Emit(ctx context.Context, in Input) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "emitter.Emit",
		trace.WithAttributes(attribute.String("set.audience", in.Audience)))
	defer span.End()

	if err := validate(in); err != nil {
		return nil, err
	}

	creds, err := s.creds.Credentials(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkCredentials(creds); err != nil {
		return nil, err
	}

	subject, err := set.ParseSubject(in.Subject)
	if err != nil {
		return nil, err
	}

	token, err := s.build(ctx, in, subject, creds)
	if err != nil {
		return nil, err
	}

	endpoint := transmit.JoinEndpoint(in.Address, in.AddressSuffix)
	outcome, err := s.send(ctx, in, token, endpoint, creds)
	if err != nil {
		s.record(ctx, in, endpoint, err)
		return nil, err
	}

	s.recordOutcome(ctx, in, endpoint, outcome)
	s.metrics.IncrementOutcome(string(outcome.Status))
	return &Result{
		Status:     string(outcome.Status),
		StatusCode: outcome.StatusCode,
		Body:       outcome.Body,
		Retryable:  false,
	}, nil
}

func (s *Service) build(ctx context.Context, in Input, subject []byte, creds Credentials) (string, error) {
	_, span := s.tracer.Start(ctx, "set.build")
	defer span.End()

	start := time.Now()
	token, err := s.builder.Build(set.BuildInput{
		Issuer:           in.Issuer,
		Audience:         in.Audience,
		SubjectID:        subject,
		EventTimestamp:   in.EventTimestamp,
		PreviousStatus:   set.ComplianceStatus(in.PreviousStatus),
		CurrentStatus:    set.ComplianceStatus(in.CurrentStatus),
		InitiatingEntity: in.InitiatingEntity,
		ReasonAdmin:      set.ParseReason(in.ReasonAdmin),
		ReasonUser:       set.ParseReason(in.ReasonUser),
	}, set.SigningKey{
		PEM:       []byte(creds.SigningKey),
		Algorithm: in.SigningMethod,
		KeyID:     creds.KeyID,
	})
	s.metrics.ObserveBuildLatency(time.Since(start))
	return token, err
}

func (s *Service) send(ctx context.Context, in Input, token, endpoint string, creds Credentials) (*transmit.Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "set.transmit",
		trace.WithAttributes(attribute.String("set.endpoint", endpoint)))
	defer span.End()

	start := time.Now()
	outcome, err := s.transmitter.Transmit(ctx, transmit.Request{
		URL:         endpoint,
		Token:       token,
		BearerToken: creds.BearerToken,
		UserAgent:   in.UserAgent,
	})
	s.metrics.ObserveTransmitLatency(time.Since(start))
	return outcome, err
}

// RetryDecision classifies a failure from a prior attempt. Recognized
// transient delivery failures yield a retry verdict; everything else is
// returned unchanged so the host treats it as terminal.
func (s *Service) RetryDecision(err error) (*Decision, error) {
	if transmit.IsRetryable(err) {
		return &Decision{Status: DecisionRetryRequested}, nil
	}
	return nil, err
}

// Halt acknowledges a teardown request. Nothing is held across invocations,
// so there is nothing to release.
func (s *Service) Halt() *Decision {
	return &Decision{Status: StatusHalted}
}

func (s *Service) recordOutcome(ctx context.Context, in Input, endpoint string, outcome *transmit.Outcome) {
	s.emitRecord(ctx, in, endpoint, string(outcome.Status), outcome.StatusCode, false)
}

func (s *Service) record(ctx context.Context, in Input, endpoint string, err error) {
	if de, ok := transmit.AsDeliveryError(err); ok {
		s.metrics.IncrementOutcome("retryable")
		s.emitRecord(ctx, in, endpoint, "retryable", de.StatusCode, de.Retryable)
		return
	}
	s.metrics.IncrementOutcome("error")
	s.emitRecord(ctx, in, endpoint, "error", 0, false)
}

func (s *Service) emitRecord(ctx context.Context, in Input, endpoint, outcome string, statusCode int, retryable bool) {
	if s.audit == nil {
		return
	}
	issuer := in.Issuer
	if issuer == "" {
		issuer = set.DefaultIssuer
	}
	ci := middleware.GetClientInfo(ctx)
	s.audit.Emit(deliverylog.Record{
		Issuer:        issuer,
		Audience:      in.Audience,
		EventType:     set.EventTypeDeviceComplianceChange,
		SubjectHash:   deliverylog.HashSubject(in.Subject),
		Endpoint:      endpoint,
		Outcome:       outcome,
		StatusCode:    statusCode,
		Retryable:     retryable,
		RequestID:     middleware.GetRequestID(ctx),
		ClientName:    ci.Name,
		ClientVersion: ci.Version,
	})
}
