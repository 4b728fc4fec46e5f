package queue

import (
	"context"
	"log/slog"

	"github.com/Afonso017/fraud-detector/internal/domain/model"
	"github.com/Afonso017/fraud-detector/internal/domain/useCases"
	"github.com/Afonso017/fraud-detector/internal/metrics"
)

// AsyncPublisher decouples event emission from the response path: Enqueue is
// a non-blocking hand-off to a bounded queue drained by a single background
// goroutine. A slow or unreachable bus can never stall request handling;
// overflow and publish failures are counted instead.
type AsyncPublisher struct {
	producer EventProducer
	events   chan *model.TransactionEvent
	done     chan struct{}
	log      *slog.Logger
}

func NewAsyncPublisher(producer EventProducer, bufferSize int, log *slog.Logger) *AsyncPublisher {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	return &AsyncPublisher{
		producer: producer,
		events:   make(chan *model.TransactionEvent, bufferSize),
		done:     make(chan struct{}),
		log:      log,
	}
}

var _ useCases.EventPublisher = (*AsyncPublisher)(nil)

// Enqueue hands an event to the outbound queue. Returns false when the queue
// is full and the event was dropped.
func (p *AsyncPublisher) Enqueue(event *model.TransactionEvent) bool {
	select {
	case p.events <- event:
		return true
	default:
		metrics.PublishDroppedTotal.Inc()
		return false
	}
}

// Run drains the queue until the context is cancelled. Publish failures are
// logged and counted; the event is not retried, the drift counter is the
// operator's signal.
func (p *AsyncPublisher) Run(ctx context.Context) {
	defer close(p.done)

	for {
		select {
		case <-ctx.Done():
			p.drain()
			return
		case event := <-p.events:
			p.publish(ctx, event)
		}
	}
}

func (p *AsyncPublisher) publish(ctx context.Context, event *model.TransactionEvent) {
	if err := p.producer.PublishEvent(ctx, event); err != nil {
		metrics.PublishFailuresTotal.Inc()
		p.log.Error("failed to publish transaction event",
			"eventId", event.EventID, "userId", event.UserID, "err", err)
	}
}

// drain publishes whatever is still buffered at shutdown, best effort.
func (p *AsyncPublisher) drain() {
	ctx := context.Background()
	for {
		select {
		case event := <-p.events:
			p.publish(ctx, event)
		default:
			return
		}
	}
}

// Done is closed once Run has returned.
func (p *AsyncPublisher) Done() <-chan struct{} {
	return p.done
}
