package set

import (
	"encoding/json"

	dErrors "setforge/pkg/domain-errors"
)

// Reason is a tagged variant: either a literal display string or a
// locale-tag-to-text mapping ("internationalized reason").
type Reason struct {
	literal   string
	localized map[string]string
}

// LiteralReason wraps a plain display string.
func LiteralReason(s string) *Reason {
	return &Reason{literal: s}
}

// LocalizedReason wraps a locale→text mapping.
func LocalizedReason(m map[string]string) *Reason {
	return &Reason{localized: m}
}

// Localized returns the locale mapping and whether this reason carries one.
func (r *Reason) Localized() (map[string]string, bool) {
	return r.localized, r.localized != nil
}

// Literal returns the display string form. Only meaningful when Localized
// reports false.
func (r *Reason) Literal() string {
	return r.literal
}

func (r *Reason) MarshalJSON() ([]byte, error) {
	if r.localized != nil {
		return json.Marshal(r.localized)
	}
	return json.Marshal(r.literal)
}

func (r *Reason) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err == nil && m != nil {
		*r = Reason{localized: m}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = Reason{literal: s}
	return nil
}

// ParseReason applies the best-effort heuristic for polymorphic reason input:
// a value that parses as a non-null JSON object of strings is treated as a
// locale mapping; everything else (parse failure, scalar, array, mixed-type
// object) is carried verbatim as a literal string. This deliberately does not
// attempt schema inference beyond "did it parse into a composite value".
func ParseReason(raw string) *Reason {
	if raw == "" {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err == nil && m != nil {
		return LocalizedReason(m)
	}
	return LiteralReason(raw)
}

// ParseSubject validates that the caller-supplied subject identifier is
// well-formed JSON and returns it in compact form. The sub_id structure is
// defined by RFC 9493 and is deliberately not validated beyond being
// parseable.
func ParseSubject(raw string) (json.RawMessage, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid subject: must be valid JSON")
	}
	compact, err := json.Marshal(v)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not re-encode subject")
	}
	return compact, nil
}
