package worker

import (
	"context"
	"log/slog"

	"setforge/pkg/platform/deliverylog"
)

// Worker drains delivery records from the publisher inbox into the store,
// mirroring to an optional sink. A failed append is logged and skipped; the
// delivery log must never take the service down.
type Worker struct {
	store  deliverylog.Store
	sink   deliverylog.Sink
	inbox  <-chan deliverylog.Record
	logger *slog.Logger
}

func New(store deliverylog.Store, sink deliverylog.Sink, inbox <-chan deliverylog.Record, logger *slog.Logger) *Worker {
	return &Worker{store: store, sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rec := <-w.inbox:
			if err := w.store.Append(ctx, rec); err != nil {
				w.logger.ErrorContext(ctx, "delivery log append failed",
					"record_id", rec.ID.String(),
					"error", err.Error(),
				)
				continue
			}
			if w.sink != nil {
				if err := w.sink.Publish(ctx, rec); err != nil {
					w.logger.WarnContext(ctx, "delivery log mirror failed",
						"record_id", rec.ID.String(),
						"error", err.Error(),
					)
				}
			}
		}
	}
}
