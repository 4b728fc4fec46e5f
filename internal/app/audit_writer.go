package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/Afonso017/fraud-detector/internal/domain/model"
	"github.com/Afonso017/fraud-detector/internal/domain/repository"
	"github.com/Afonso017/fraud-detector/internal/infrastructure/queue"
	"github.com/Afonso017/fraud-detector/internal/metrics"
)

// AuditWriter consumes the transaction-events topic under its own consumer
// group and appends one immutable audit record per event. It runs fully
// independently of the profile updater; both see every event.
type AuditWriter struct {
	consumer queue.EventConsumer
	audits   repository.AuditPersistence
	log      *slog.Logger
}

func NewAuditWriter(consumer queue.EventConsumer, audits repository.AuditPersistence, log *slog.Logger) *AuditWriter {
	return &AuditWriter{
		consumer: consumer,
		audits:   audits,
		log:      log,
	}
}

// Run consumes events until the context is cancelled. A failed append leaves
// the event uncommitted so the bus redelivers it; duplicate audit rows are
// the sink's own concern.
func (w *AuditWriter) Run(ctx context.Context) error {
	eventCh, err := w.consumer.Subscribe(ctx)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-eventCh:
			if !ok {
				return nil
			}
			if event == nil {
				continue
			}
			w.processEvent(ctx, event)
		}
	}
}

func (w *AuditWriter) processEvent(ctx context.Context, event *model.TransactionEvent) {
	record := &model.AuditRecord{
		Status:            event.Status,
		RiskScore:         event.Risk.RiskScore,
		RecommendedAction: string(event.Risk.RecommendedAction),
		ReceivedAt:        time.Now(),
	}

	if err := w.audits.SaveAuditRecord(ctx, record); err != nil {
		metrics.ConsumerErrorsTotal.WithLabelValues("audit-writer").Inc()
		w.log.Error("failed to append audit record", "eventId", event.EventID, "err", err)
		return
	}
	metrics.AuditRecordsTotal.Inc()

	if err := w.consumer.Commit(ctx, event); err != nil && ctx.Err() == nil {
		w.log.Warn("failed to commit audit event", "eventId", event.EventID, "err", err)
	}
}
