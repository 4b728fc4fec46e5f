package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Afonso017/fraud-detector/internal/app/dto"
	"github.com/Afonso017/fraud-detector/internal/domain/model"
)

// KafkaConfig holds Kafka connection configuration
type KafkaConfig struct {
	Brokers         []string
	Topic           string
	ConsumerGroup   string
	BatchSize       int
	BatchTimeout    int
	EventBufferSize int
}

// EventProducer defines the interface for publishing transaction events
type EventProducer interface {
	PublishEvent(ctx context.Context, event *model.TransactionEvent) error
	Close() error
}

// EventConsumer defines the interface for consuming transaction events
type EventConsumer interface {
	Subscribe(ctx context.Context) (<-chan *model.TransactionEvent, error)
	Commit(ctx context.Context, event *model.TransactionEvent) error
	Close() error
}

// KafkaProducer implements EventProducer using Kafka
type KafkaProducer struct {
	writer *kafka.Writer
}

// NewKafkaProducer creates a new Kafka producer. Messages are keyed by userId
// so all events for one user land on the same partition, which is what gives
// the profile updater its per-user ordering.
func NewKafkaProducer(config KafkaConfig) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}

	return &KafkaProducer{writer: writer}
}

var _ EventProducer = (*KafkaProducer)(nil)

// PublishEvent sends a transaction-completed event to Kafka
func (p *KafkaProducer) PublishEvent(ctx context.Context, event *model.TransactionEvent) error {
	data, err := json.Marshal(dto.FromModel(event))
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.UserID),
		Value: data,
		Time:  time.Now(),
	})
}

// Close closes the producer
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// kafkaReader is the slice of kafka.Reader the consumer depends on.
type kafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// fetchedMsg tracks one fetched message until its offset is committed.
type fetchedMsg struct {
	msg     kafka.Message
	eventID string
	acked   bool
}

// partitionWindow holds a partition's fetched messages in offset order.
type partitionWindow struct {
	entries []fetchedMsg
}

// KafkaConsumer implements EventConsumer using Kafka. The profile updater and
// the audit writer each run their own instance under a distinct consumer
// group, so both receive every event independently.
//
// Committing an offset acknowledges every earlier offset on that partition,
// so offsets are only committed for the longest prefix of acknowledged
// messages. A fetched message whose processing failed is never skipped over:
// it holds back its partition's offset until it is acknowledged or the group
// redelivers it.
type KafkaConsumer struct {
	reader       kafkaReader
	topic        string
	log          *slog.Logger
	mu           sync.Mutex
	partitions   map[int]*partitionWindow
	pending      map[string]int // event ID -> partition of its fetched message
	ackedCount   int
	batchSize    int
	batchTimeout time.Duration
	bufferSize   int
}

// NewKafkaConsumer creates a new Kafka consumer with auto-commit disabled;
// offsets are committed explicitly after an event has been processed.
func NewKafkaConsumer(config KafkaConfig, log *slog.Logger) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        config.Brokers,
		Topic:          config.Topic,
		GroupID:        config.ConsumerGroup,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: 0,    // explicit commits only
		StartOffset:    kafka.FirstOffset,
	})

	return newKafkaConsumer(reader, config, log)
}

func newKafkaConsumer(reader kafkaReader, config KafkaConfig, log *slog.Logger) *KafkaConsumer {
	bufferSize := config.EventBufferSize
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	batchTimeout := time.Duration(config.BatchTimeout) * time.Millisecond
	if batchTimeout <= 0 {
		batchTimeout = 3 * time.Second
	}

	return &KafkaConsumer{
		reader:       reader,
		topic:        config.Topic,
		log:          log,
		partitions:   make(map[int]*partitionWindow),
		pending:      make(map[string]int),
		batchSize:    config.BatchSize,
		batchTimeout: batchTimeout,
		bufferSize:   bufferSize,
	}
}

var _ EventConsumer = (*KafkaConsumer)(nil)

// Subscribe returns a channel of transaction events from Kafka
func (c *KafkaConsumer) Subscribe(ctx context.Context) (<-chan *model.TransactionEvent, error) {
	eventCh := make(chan *model.TransactionEvent, c.bufferSize) // buffer to absorb bursts

	go c.startBatchCommitter(ctx)

	go func() {
		defer close(eventCh)

		for {
			select {
			case <-ctx.Done():
				return
			default:
				msg, err := c.reader.FetchMessage(ctx)
				if err != nil {
					if ctx.Err() == nil {
						c.log.Error("error fetching message", "err", err)
					}
					return
				}

				var eventDTO dto.TransactionEventDTO
				if err := json.Unmarshal(msg.Value, &eventDTO); err != nil {
					c.log.Error("error unmarshalling event", "err", err)
					// Acknowledge malformed messages so they cannot hold
					// back their partition's offset.
					c.track("", msg, true)
					continue
				}

				event := eventDTO.ToModel()
				// Legacy producers omit the event ID; synthesize a stable one
				// from the message coordinates so dedup still works.
				if event.EventID == "" {
					event.EventID = fmt.Sprintf("%s-%d-%d", c.topic, msg.Partition, msg.Offset)
				}

				inFlight := c.track(event.EventID, msg, false)
				if c.batchSize > 0 && inFlight > c.batchSize*10 {
					c.log.Warn("large number of in-flight messages",
						"inFlight", inFlight, "batchSize", c.batchSize)
				}

				select {
				case <-ctx.Done():
					return
				case eventCh <- event:
				}
			}
		}
	}()

	return eventCh, nil
}

// track records a fetched message in its partition window and reports the
// total number of tracked messages.
func (c *KafkaConsumer) track(eventID string, msg kafka.Message, acked bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	w := c.partitions[msg.Partition]
	if w == nil {
		w = &partitionWindow{}
		c.partitions[msg.Partition] = w
	}
	w.entries = append(w.entries, fetchedMsg{msg: msg, eventID: eventID, acked: acked})
	if acked {
		c.ackedCount++
	} else {
		c.pending[eventID] = msg.Partition
	}

	total := 0
	for _, pw := range c.partitions {
		total += len(pw.entries)
	}
	return total
}

// startBatchCommitter periodically commits acknowledged offsets in batches
func (c *KafkaConsumer) startBatchCommitter(ctx context.Context) {
	ticker := time.NewTicker(c.batchTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final commit; the original context is already cancelled
			c.flushAcked(context.Background())
			return
		case <-ticker.C:
			c.flushAcked(ctx)
		}
	}
}

// flushAcked commits, per partition, the offset of the last message in the
// longest acknowledged prefix. Messages behind an unacknowledged one stay
// uncommitted even when acknowledged themselves, since committing their
// offset would implicitly skip the unprocessed message.
func (c *KafkaConsumer) flushAcked(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var commits []kafka.Message
	prefixes := make(map[int]int)
	for p, w := range c.partitions {
		n := 0
		for n < len(w.entries) && w.entries[n].acked {
			n++
		}
		if n > 0 {
			commits = append(commits, w.entries[n-1].msg)
			prefixes[p] = n
		}
	}
	if len(commits) == 0 {
		return
	}

	if err := c.reader.CommitMessages(ctx, commits...); err != nil {
		c.log.Error("error committing offsets", "count", len(commits), "err", err)
		return
	}

	for p, n := range prefixes {
		w := c.partitions[p]
		w.entries = w.entries[n:]
		c.ackedCount -= n
		if len(w.entries) == 0 {
			delete(c.partitions, p)
		}
	}
}

// Commit acknowledges that an event has been processed. The offset itself is
// committed by the batch committer once every earlier message on the same
// partition is acknowledged too; an unacknowledged event keeps its offset
// uncommitted and the bus redelivers it, which is exactly what the write
// path wants when a storage write fails mid-processing.
func (c *KafkaConsumer) Commit(ctx context.Context, event *model.TransactionEvent) error {
	if event == nil || event.EventID == "" {
		return fmt.Errorf("cannot commit nil event or event with empty ID")
	}

	c.mu.Lock()
	partition, exists := c.pending[event.EventID]
	if !exists {
		c.mu.Unlock()
		return fmt.Errorf("message for event %s not found in fetched messages", event.EventID)
	}
	delete(c.pending, event.EventID)

	// Redelivered copies share the event ID; acknowledge every copy so a
	// duplicate cannot hold back the partition.
	entries := c.partitions[partition].entries
	for i := range entries {
		if entries[i].eventID == event.EventID && !entries[i].acked {
			entries[i].acked = true
			c.ackedCount++
		}
	}
	shouldFlush := c.batchSize > 0 && c.ackedCount >= c.batchSize
	c.mu.Unlock()

	if shouldFlush {
		c.flushAcked(ctx)
	}
	return nil
}

// Close closes the consumer
func (c *KafkaConsumer) Close() error {
	c.flushAcked(context.Background())
	return c.reader.Close()
}
