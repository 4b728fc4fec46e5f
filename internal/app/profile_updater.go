package app

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/Afonso017/fraud-detector/internal/domain/model"
	"github.com/Afonso017/fraud-detector/internal/domain/useCases"
	"github.com/Afonso017/fraud-detector/internal/infrastructure/queue"
	"github.com/Afonso017/fraud-detector/internal/metrics"
)

// ProfileUpdater is the single writer of user profiles. It consumes
// transaction-completed events and folds them into the running statistics.
//
// Events are dispatched to shard workers by userId hash: all events for one
// user are processed by the same worker in arrival order, while different
// users proceed in parallel. Each shard keeps a bounded window of recently
// seen event IDs so at-least-once redelivery cannot double-count an amount
// into the running average.
type ProfileUpdater struct {
	consumer    queue.EventConsumer
	profiles    useCases.ProfileService
	broadcaster useCases.ProfileBroadcaster
	shardCount  int
	windowSize  int
	log         *slog.Logger
}

func NewProfileUpdater(
	consumer queue.EventConsumer,
	profiles useCases.ProfileService,
	broadcaster useCases.ProfileBroadcaster,
	shardCount int,
	dedupWindowSize int,
	log *slog.Logger,
) *ProfileUpdater {
	if shardCount <= 0 {
		shardCount = 16
	}
	if dedupWindowSize <= 0 {
		dedupWindowSize = 8192
	}
	return &ProfileUpdater{
		consumer:    consumer,
		profiles:    profiles,
		broadcaster: broadcaster,
		shardCount:  shardCount,
		windowSize:  dedupWindowSize,
		log:         log,
	}
}

// Run subscribes to the bus and processes events until the context is
// cancelled. Processing errors never crash the consumer; the failed event is
// left uncommitted so the bus redelivers it.
func (u *ProfileUpdater) Run(ctx context.Context) error {
	eventCh, err := u.consumer.Subscribe(ctx)
	if err != nil {
		return err
	}

	shards := make([]chan *model.TransactionEvent, u.shardCount)
	var wg sync.WaitGroup
	for i := range shards {
		shards[i] = make(chan *model.TransactionEvent, 256)
		wg.Add(1)
		go func(events <-chan *model.TransactionEvent) {
			defer wg.Done()
			u.runShard(ctx, events)
		}(shards[i])
	}

	for {
		select {
		case <-ctx.Done():
			for _, shard := range shards {
				close(shard)
			}
			wg.Wait()
			return ctx.Err()
		case event, ok := <-eventCh:
			if !ok {
				for _, shard := range shards {
					close(shard)
				}
				wg.Wait()
				return nil
			}
			if event == nil {
				continue
			}

			shard := shards[shardIndex(event.UserID, u.shardCount)]
			select {
			case <-ctx.Done():
			case shard <- event:
			}
		}
	}
}

// runShard processes its slice of the key space serially. No locking is
// needed inside a shard: one goroutine owns all mutations for its users.
func (u *ProfileUpdater) runShard(ctx context.Context, events <-chan *model.TransactionEvent) {
	seen := newDedupWindow(u.windowSize)

	for event := range events {
		if ctx.Err() != nil {
			return
		}
		u.processEvent(ctx, event, seen)
	}
}

func (u *ProfileUpdater) processEvent(ctx context.Context, event *model.TransactionEvent, seen *dedupWindow) {
	// Redelivered event: the running-average update is not idempotent, so a
	// duplicate is acknowledged and skipped.
	if seen.contains(event.EventID) {
		metrics.EventsDeduplicatedTotal.Inc()
		if err := u.consumer.Commit(ctx, event); err != nil && ctx.Err() == nil {
			u.log.Warn("failed to commit duplicate event", "eventId", event.EventID, "err", err)
		}
		return
	}

	if event.Amount <= 0 {
		metrics.EventsDiscardedTotal.Inc()
		seen.add(event.EventID)
		if err := u.consumer.Commit(ctx, event); err != nil && ctx.Err() == nil {
			u.log.Warn("failed to commit discarded event", "eventId", event.EventID, "err", err)
		}
		return
	}

	if err := u.profiles.ApplyTransaction(ctx, event); err != nil {
		// Leave the event uncommitted; the bus will redeliver it.
		metrics.ConsumerErrorsTotal.WithLabelValues("profile-updater").Inc()
		u.log.Error("failed to apply transaction event",
			"eventId", event.EventID, "userId", event.UserID, "err", err)
		return
	}
	metrics.EventsProcessedTotal.Inc()
	seen.add(event.EventID)

	if err := u.consumer.Commit(ctx, event); err != nil && ctx.Err() == nil {
		u.log.Warn("failed to commit event", "eventId", event.EventID, "err", err)
	}

	profile, err := u.profiles.GetProfile(ctx, event.UserID)
	if err != nil {
		u.log.Warn("failed to load profile for broadcast", "userId", event.UserID, "err", err)
		return
	}
	u.broadcaster.BroadcastProfile(profile)
}

func shardIndex(userID string, shardCount int) int {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return int(h.Sum32() % uint32(shardCount))
}

// dedupWindow is a bounded set of recently seen event IDs with FIFO
// eviction. Only ever touched by its owning shard goroutine.
type dedupWindow struct {
	ids   map[string]struct{}
	order []string
	head  int
	size  int
}

func newDedupWindow(size int) *dedupWindow {
	return &dedupWindow{
		ids:   make(map[string]struct{}, size),
		order: make([]string, 0, size),
		size:  size,
	}
}

func (w *dedupWindow) contains(id string) bool {
	_, ok := w.ids[id]
	return ok
}

func (w *dedupWindow) add(id string) {
	if _, ok := w.ids[id]; ok {
		return
	}
	if len(w.ids) >= w.size {
		oldest := w.order[w.head]
		delete(w.ids, oldest)
		w.order[w.head] = id
		w.head = (w.head + 1) % w.size
	} else {
		w.order = append(w.order, id)
	}
	w.ids[id] = struct{}{}
}
