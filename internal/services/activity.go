package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"eventboard/internal/logger"

	"github.com/segmentio/kafka-go"
)

const (
	ActivityEventCreated       = "event.created"
	ActivityEventUpdated       = "event.updated"
	ActivityEventArchived      = "event.archived"
	ActivityAttendeeRegistered = "attendee.registered"
	ActivityQuestionAsked      = "question.asked"
	ActivityQuestionDeleted    = "question.deleted"
	ActivityQuestionVoted      = "question.voted"
)

// Activity is one committed change, published for downstream consumers.
type Activity struct {
	Type       string    `json:"type"`
	EventID    uint      `json:"event_id"`
	QuestionID uint      `json:"question_id,omitempty"`
	UserID     uint      `json:"user_id"`
	Value      int       `json:"value,omitempty"`
	At         time.Time `json:"at"`
}

type Publisher interface {
	Publish(a Activity)
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(Activity) {}

// MessageWriter is the part of *kafka.Writer the queue needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

// ActivityQueue buffers activities and writes them in batches from a single
// worker, so request handlers never wait on the broker.
type ActivityQueue struct {
	writer    MessageWriter
	log       *logger.Logger
	queue     chan Activity
	done      chan struct{}
	batchSize int
	interval  time.Duration

	mu     sync.RWMutex
	closed bool
}

func NewActivityQueue(w MessageWriter, log *logger.Logger) *ActivityQueue {
	return newActivityQueue(w, log, 1000, 50, 500*time.Millisecond)
}

func newActivityQueue(w MessageWriter, log *logger.Logger, capacity, batchSize int, interval time.Duration) *ActivityQueue {
	q := &ActivityQueue{
		writer:    w,
		log:       log,
		queue:     make(chan Activity, capacity),
		done:      make(chan struct{}),
		batchSize: batchSize,
		interval:  interval,
	}
	go q.worker()
	return q
}

// Publish enqueues without blocking. A full queue drops the activity.
func (q *ActivityQueue) Publish(a Activity) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return
	}
	if a.At.IsZero() {
		a.At = time.Now()
	}

	select {
	case q.queue <- a:
	default:
		q.log.Warn("KAFKA", fmt.Sprintf("Activity queue full, dropping %s for event %d", a.Type, a.EventID))
	}
}

// Close flushes what is queued and closes the writer.
func (q *ActivityQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.queue)
	q.mu.Unlock()

	<-q.done
	return q.writer.Close()
}

func (q *ActivityQueue) worker() {
	defer close(q.done)

	batch := make([]Activity, 0, q.batchSize)
	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()

	for {
		select {
		case a, ok := <-q.queue:
			if !ok {
				q.flush(batch)
				return
			}
			batch = append(batch, a)
			if len(batch) >= q.batchSize {
				q.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				q.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

func (q *ActivityQueue) flush(batch []Activity) {
	if len(batch) == 0 {
		return
	}

	msgs := make([]kafka.Message, 0, len(batch))
	for _, a := range batch {
		value, err := json.Marshal(a)
		if err != nil {
			q.log.Error("KAFKA", fmt.Sprintf("Failed to encode %s: %v", a.Type, err))
			continue
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(strconv.FormatUint(uint64(a.EventID), 10)),
			Value: value,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := q.writer.WriteMessages(ctx, msgs...); err != nil {
		q.log.Error("KAFKA", fmt.Sprintf("Failed to publish %d activities: %v", len(msgs), err))
		return
	}
	q.log.LogKafka("PUBLISH", "activity", fmt.Sprintf("%d activities", len(msgs)))
}
