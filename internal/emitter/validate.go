package emitter

import (
	"setforge/internal/set"
	dErrors "setforge/pkg/domain-errors"
)

// validate fails fast with a distinct, field-naming message per missing or
// invalid parameter. No construction happens after a validation failure.
func validate(in Input) error {
	required := []struct {
		name  string
		value string
	}{
		{"audience", in.Audience},
		{"subject", in.Subject},
		{"previousStatus", in.PreviousStatus},
		{"currentStatus", in.CurrentStatus},
		{"address", in.Address},
	}
	for _, f := range required {
		if f.value == "" {
			return dErrors.Newf(dErrors.CodeValidation, "missing required parameter: %s", f.name)
		}
	}

	if !set.ComplianceStatus(in.PreviousStatus).Valid() {
		return invalidStatus("previousStatus", in.PreviousStatus)
	}
	if !set.ComplianceStatus(in.CurrentStatus).Valid() {
		return invalidStatus("currentStatus", in.CurrentStatus)
	}
	return nil
}

func invalidStatus(field, value string) error {
	return dErrors.Newf(dErrors.CodeValidation,
		"invalid %s %q: must be one of %q, %q",
		field, value, set.StatusCompliant, set.StatusNotCompliant)
}
