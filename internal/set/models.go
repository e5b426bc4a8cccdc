// Package set builds CAEP Security Event Tokens (RFC 8417). The builder is
// pure apart from the signing operation; all inputs arrive validated from the
// emitter service.
package set

import (
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// EventTypeDeviceComplianceChange is the CAEP event-type URI keying the single
// populated entry of the events claim. Receivers dispatch on this value, so it
// must match the published CAEP schema exactly.
const EventTypeDeviceComplianceChange = "https://schemas.openid.net/secevent/caep/event-type/device-compliance-change"

// ComplianceStatus is the two-value device compliance enumeration. Any
// previous/current combination is accepted, including no-op transitions.
type ComplianceStatus string

const (
	StatusCompliant    ComplianceStatus = "compliant"
	StatusNotCompliant ComplianceStatus = "not-compliant"
)

// Valid reports enum membership. Business semantics beyond membership are out
// of scope here.
func (s ComplianceStatus) Valid() bool {
	return s == StatusCompliant || s == StatusNotCompliant
}

// EventPayload is the device-compliance-change event body. Optional fields are
// omitted from the wire form when unset.
type EventPayload struct {
	EventTimestamp   int64            `json:"event_timestamp"`
	PreviousStatus   ComplianceStatus `json:"previous_status"`
	CurrentStatus    ComplianceStatus `json:"current_status"`
	InitiatingEntity string           `json:"initiating_entity,omitempty"`
	ReasonAdmin      *Reason          `json:"reason_admin,omitempty"`
	ReasonUser       *Reason          `json:"reason_user,omitempty"`
}

// Claims is the SET's top-level content. The audience is marshaled as a plain
// string, not a one-element array, to match receivers that expect the compact
// form.
type Claims struct {
	Issuer    string                   `json:"iss"`
	Audience  string                   `json:"aud"`
	IssuedAt  int64                    `json:"iat"`
	ID        string                   `json:"jti"`
	SubjectID json.RawMessage          `json:"sub_id"`
	Events    map[string]*EventPayload `json:"events"`
}

// The jwt.Claims accessors below let golang-jwt sign this struct directly.
// Expiry and not-before are intentionally absent: SETs describe a past event,
// not a grant with a lifetime.

func (c *Claims) GetExpirationTime() (*jwt.NumericDate, error) { return nil, nil }

func (c *Claims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }

func (c *Claims) GetIssuedAt() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.IssuedAt, 0)), nil
}

func (c *Claims) GetIssuer() (string, error) { return c.Issuer, nil }

func (c *Claims) GetSubject() (string, error) { return "", nil }

func (c *Claims) GetAudience() (jwt.ClaimStrings, error) {
	return jwt.ClaimStrings{c.Audience}, nil
}
