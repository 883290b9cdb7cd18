package kafka

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// HeaderAttempt counts how many times a message has been handed back to the
// topic after a failed delivery.
const HeaderAttempt = "x-attempt"

// Handler returns nil only when the message was processed and its offset
// may be committed.
type Handler func(ctx context.Context, m kafka.Message) error

// Publisher is satisfied by *Producer.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte, headers ...kafka.Header) error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	r       messageReader
	workers int
	log     *slog.Logger

	requeue     Publisher
	maxAttempts int
	backoff     time.Duration
}

func NewConsumer(brokers []string, group, topic string, workers int, log *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	if log == nil {
		log = slog.Default()
	}
	return newConsumer(r, workers, log.With("topic", topic, "group", group))
}

func newConsumer(r messageReader, workers int, log *slog.Logger) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, workers: workers, log: log, backoff: 200 * time.Millisecond}
}

// WithRequeue makes a failed message go back through p with its attempt
// header incremented, after which its offset is committed. Once maxAttempts
// deliveries have failed the message is logged and committed.
func (c *Consumer) WithRequeue(p Publisher, maxAttempts int) *Consumer {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	c.requeue = p
	c.maxAttempts = maxAttempts
	return c
}

// Start fetches messages and fans them out to the worker pool until ctx is
// cancelled or the reader fails.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	jobs := make(chan kafka.Message, c.workers*4)
	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for m := range jobs {
				if err := h(ctx, m); err != nil {
					c.log.Warn("handler failed", "worker", id, "offset", m.Offset, "attempt", Attempt(m)+1, "error", err)
					if !c.handBack(ctx, m) {
						sleep(ctx, c.backoff)
						continue
					}
				}
				if err := c.r.CommitMessages(ctx, m); err != nil {
					c.log.Warn("commit failed", "worker", id, "offset", m.Offset, "error", err)
				}
			}
		}(i)
	}
	defer wg.Wait()
	defer close(jobs)

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case jobs <- m:
		case <-ctx.Done():
			return nil
		}
	}
}

// handBack reports whether the failed message may be committed.
func (c *Consumer) handBack(ctx context.Context, m kafka.Message) bool {
	if c.requeue == nil || ctx.Err() != nil {
		return false
	}
	attempt := Attempt(m) + 1
	if attempt >= c.maxAttempts {
		c.log.Error("giving up on message", "offset", m.Offset, "key", string(m.Key), "attempts", attempt)
		return true
	}
	sleep(ctx, c.backoff)
	if err := c.requeue.Publish(ctx, m.Key, m.Value, withAttempt(m.Headers, attempt)...); err != nil {
		c.log.Warn("requeue failed", "offset", m.Offset, "error", err)
		return false
	}
	return true
}

// Attempt returns the number of failed deliveries recorded on m.
func Attempt(m kafka.Message) int {
	n, err := strconv.Atoi(HeaderValue(m, HeaderAttempt))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func withAttempt(headers []kafka.Header, attempt int) []kafka.Header {
	out := make([]kafka.Header, 0, len(headers)+1)
	for _, h := range headers {
		if h.Key != HeaderAttempt {
			out = append(out, h)
		}
	}
	return append(out, kafka.Header{Key: HeaderAttempt, Value: []byte(strconv.Itoa(attempt))})
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
