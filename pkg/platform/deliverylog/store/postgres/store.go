package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"setforge/pkg/platform/deliverylog"
)

// Schema creates the delivery log table. Applied by deploy tooling; exposed
// here so integration tests can provision throwaway databases.
const Schema = `
CREATE TABLE IF NOT EXISTS set_deliveries (
    id             UUID PRIMARY KEY,
    ts             TIMESTAMPTZ NOT NULL,
    issuer         TEXT NOT NULL,
    audience       TEXT NOT NULL,
    event_type     TEXT NOT NULL,
    subject_hash   TEXT NOT NULL,
    endpoint       TEXT NOT NULL,
    outcome        TEXT NOT NULL,
    status_code    INT NOT NULL,
    retryable      BOOLEAN NOT NULL,
    request_id     TEXT,
    client_name    TEXT,
    client_version TEXT
);
CREATE INDEX IF NOT EXISTS set_deliveries_ts_idx ON set_deliveries (ts DESC);
`

// Store implements deliverylog.Store on PostgreSQL via database/sql.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, rec deliverylog.Record) error {
	const q = `
INSERT INTO set_deliveries
    (id, ts, issuer, audience, event_type, subject_hash, endpoint,
     outcome, status_code, retryable, request_id, client_name, client_version)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := s.db.ExecContext(ctx, q,
		rec.ID, rec.Timestamp, rec.Issuer, rec.Audience, rec.EventType,
		rec.SubjectHash, rec.Endpoint, rec.Outcome, rec.StatusCode,
		rec.Retryable, rec.RequestID, rec.ClientName, rec.ClientVersion,
	)
	if err != nil {
		return fmt.Errorf("insert delivery record: %w", err)
	}
	return nil
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]deliverylog.Record, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT id, ts, issuer, audience, event_type, subject_hash, endpoint,
       outcome, status_code, retryable, request_id, client_name, client_version
FROM set_deliveries
ORDER BY ts DESC
LIMIT $1`

	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query delivery records: %w", err)
	}
	defer rows.Close()

	var out []deliverylog.Record
	for rows.Next() {
		var (
			rec       deliverylog.Record
			idStr     string
			ts        time.Time
			requestID sql.NullString
			cName     sql.NullString
			cVersion  sql.NullString
		)
		if err := rows.Scan(&idStr, &ts, &rec.Issuer, &rec.Audience, &rec.EventType,
			&rec.SubjectHash, &rec.Endpoint, &rec.Outcome, &rec.StatusCode,
			&rec.Retryable, &requestID, &cName, &cVersion); err != nil {
			return nil, fmt.Errorf("scan delivery record: %w", err)
		}
		rec.ID, err = uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("parse delivery record id: %w", err)
		}
		rec.Timestamp = ts
		rec.RequestID = requestID.String
		rec.ClientName = cName.String
		rec.ClientVersion = cVersion.String
		out = append(out, rec)
	}
	return out, rows.Err()
}
