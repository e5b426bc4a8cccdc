// Package emitter orchestrates one SET emission: validate the parameter bag,
// resolve credentials, build the signed token, transmit it, and report a
// classified result. Invocations are independent; nothing is shared or cached
// across them.
package emitter

// Input is the invocation parameter bag. Field names mirror the external
// contract; the zero value of every optional field means "not supplied".
type Input struct {
	Audience         string `json:"audience"`
	Subject          string `json:"subject"`
	PreviousStatus   string `json:"previousStatus"`
	CurrentStatus    string `json:"currentStatus"`
	Address          string `json:"address"`
	Issuer           string `json:"issuer,omitempty"`
	SigningMethod    string `json:"signingMethod,omitempty"`
	EventTimestamp   int64  `json:"eventTimestamp,omitempty"`
	InitiatingEntity string `json:"initiatingEntity,omitempty"`
	ReasonAdmin      string `json:"reasonAdmin,omitempty"`
	ReasonUser       string `json:"reasonUser,omitempty"`
	AddressSuffix    string `json:"addressSuffix,omitempty"`
	UserAgent        string `json:"userAgent,omitempty"`
}

// Result mirrors the transmission outcome for the 2xx and reported-4xx/5xx
// cases. Retryable is always false here: retryable failures travel as a typed
// error instead of a Result.
type Result struct {
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
	Retryable  bool   `json:"retryable"`
}

// Decision is the retry classifier's verdict for a recognized transient
// failure.
type Decision struct {
	Status string `json:"status"`
}

const (
	DecisionRetryRequested = "retry_requested"
	StatusHalted           = "halted"
)
