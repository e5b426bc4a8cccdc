// Package deliverylog records the outcome of every SET transmission attempt.
// The token itself is never stored or re-sent from here; records capture
// outcomes only, for operational visibility and compliance traceability.
package deliverylog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Record is one transmission attempt. SubjectHash is a SHA-256 of the raw
// subject identifier so the log carries no PII.
type Record struct {
	ID            uuid.UUID
	Timestamp     time.Time
	Issuer        string
	Audience      string
	EventType     string
	SubjectHash   string
	Endpoint      string
	Outcome       string
	StatusCode    int
	Retryable     bool
	RequestID     string
	ClientName    string
	ClientVersion string
}

// HashSubject derives the PII-safe subject fingerprint stored in records.
func HashSubject(subject string) string {
	sum := sha256.Sum256([]byte(subject))
	return hex.EncodeToString(sum[:])
}

// Store persists delivery records. Implementations must be safe for
// concurrent use.
type Store interface {
	Append(ctx context.Context, rec Record) error
	ListRecent(ctx context.Context, limit int) ([]Record, error)
}

// Sink mirrors records to an external system (e.g. a Kafka topic) after they
// are persisted.
type Sink interface {
	Publish(ctx context.Context, rec Record) error
}

// Publisher feeds records into the worker's inbox. Emission is best-effort:
// when the inbox is full the record is dropped rather than stalling a
// transmission.
type Publisher struct {
	inbox chan Record
}

func NewPublisher(buffer int) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{inbox: make(chan Record, buffer)}
}

// Emit queues a record, filling in ID and timestamp when unset. Returns false
// if the record was dropped because the inbox was full.
func (p *Publisher) Emit(rec Record) bool {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	select {
	case p.inbox <- rec:
		return true
	default:
		return false
	}
}

// Inbox exposes the consume side for the worker.
func (p *Publisher) Inbox() <-chan Record {
	return p.inbox
}
