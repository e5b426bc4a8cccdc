package set

import (
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "setforge/pkg/domain-errors"
)

const (
	// DefaultIssuer is the iss fallback when the caller does not supply one.
	DefaultIssuer = "https://setforge.io/"

	// DefaultAlgorithm is the signing algorithm fallback.
	DefaultAlgorithm = "RS256"
)

// Defaults captures the builder's fallback values explicitly so the
// default-vs-override precedence is visible and testable instead of being
// buried in inline expressions.
type Defaults struct {
	Issuer    string
	Algorithm string
	Now       func() time.Time
}

func (d Defaults) withFallbacks() Defaults {
	if d.Issuer == "" {
		d.Issuer = DefaultIssuer
	}
	if d.Algorithm == "" {
		d.Algorithm = DefaultAlgorithm
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// BuildInput is the validated material for one token. EventTimestamp zero
// means "now"; optional fields are included in the payload only when set.
type BuildInput struct {
	Issuer           string
	Audience         string
	SubjectID        json.RawMessage
	EventTimestamp   int64
	PreviousStatus   ComplianceStatus
	CurrentStatus    ComplianceStatus
	InitiatingEntity string
	ReasonAdmin      *Reason
	ReasonUser       *Reason
}

// Builder assembles and signs SETs. It holds no per-invocation state.
type Builder struct {
	defaults Defaults
}

func NewBuilder(defaults Defaults) *Builder {
	return &Builder{defaults: defaults.withFallbacks()}
}

// Build produces the compact signed token. iat is always the build time;
// a caller-supplied EventTimestamp only affects the payload's event_timestamp.
func (b *Builder) Build(in BuildInput, key SigningKey) (string, error) {
	now := b.defaults.Now()

	alg := key.Algorithm
	if alg == "" {
		alg = b.defaults.Algorithm
	}
	method := jwt.GetSigningMethod(alg)
	if method == nil {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown signing method %q", alg)
	}

	pk, err := materialize(key, method)
	if err != nil {
		return "", err
	}

	issuer := in.Issuer
	if issuer == "" {
		issuer = b.defaults.Issuer
	}
	eventTS := in.EventTimestamp
	if eventTS == 0 {
		eventTS = now.Unix()
	}

	claims := &Claims{
		Issuer:    issuer,
		Audience:  in.Audience,
		IssuedAt:  now.Unix(),
		ID:        uuid.NewString(),
		SubjectID: in.SubjectID,
		Events: map[string]*EventPayload{
			EventTypeDeviceComplianceChange: {
				EventTimestamp:   eventTS,
				PreviousStatus:   in.PreviousStatus,
				CurrentStatus:    in.CurrentStatus,
				InitiatingEntity: in.InitiatingEntity,
				ReasonAdmin:      in.ReasonAdmin,
				ReasonUser:       in.ReasonUser,
			},
		},
	}

	token := jwt.NewWithClaims(method, claims)
	token.Header["kid"] = key.KeyID
	token.Header["typ"] = "secevent+jwt"

	signed, err := token.SignedString(pk)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not sign SET")
	}
	return signed, nil
}
