package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/BruksfildServices01/counselor-scheduler/pkg/logging"
)

// Handler returns nil only when the message was fully processed and its
// offset may be committed.
type Handler func(ctx context.Context, m kafka.Message) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer fans messages out to workers by partition. A partition is owned by
// one worker, which handles and commits its messages strictly in offset
// order: committing offset N also commits everything before it, so no later
// offset may be committed while an earlier one is still being retried.
type Consumer struct {
	r          messageReader
	workers    int
	maxBackoff time.Duration
	log        *logging.Logger
}

func NewConsumer(brokers []string, group, topic string, workers int, log *logging.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0,
	})
	return newConsumer(r, workers, log)
}

func newConsumer(r messageReader, workers int, log *logging.Logger) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = logging.Default()
	}
	return &Consumer{r: r, workers: workers, maxBackoff: 5 * time.Second, log: log}
}

// Start blocks until ctx is cancelled or the reader fails. A failing message
// is retried with backoff until it succeeds or ctx ends.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	lanes := make([]chan kafka.Message, c.workers)
	var wg sync.WaitGroup
	for i := range lanes {
		lanes[i] = make(chan kafka.Message, 64)
		wg.Add(1)
		go func(in <-chan kafka.Message) {
			defer wg.Done()
			for m := range in {
				c.process(ctx, h, m)
			}
		}(lanes[i])
	}
	stop := func() {
		for _, l := range lanes {
			close(l)
		}
		wg.Wait()
	}

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			stop()
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		select {
		case lanes[lane(m.Partition, c.workers)] <- m:
		case <-ctx.Done():
			stop()
			return nil
		}
	}
}

func (c *Consumer) process(ctx context.Context, h Handler, m kafka.Message) {
	backoff := 100 * time.Millisecond
	if backoff > c.maxBackoff {
		backoff = c.maxBackoff
	}
	for {
		err := h(ctx, m)
		if err == nil {
			break
		}
		c.log.Warn("queue: handler failed, retrying",
			"topic", m.Topic,
			"partition", m.Partition,
			"offset", m.Offset,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > c.maxBackoff {
			backoff = c.maxBackoff
		}
	}

	if err := c.r.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
		c.log.Error("queue: commit failed", "offset", m.Offset, "error", err)
	}
}

func lane(partition, n int) int {
	if n <= 1 || partition < 0 {
		return 0
	}
	return partition % n
}
