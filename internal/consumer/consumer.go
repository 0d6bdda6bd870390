// Package consumer owns the broker consumer loop: it pulls envelopes from
// the job events topic, applies them strictly sequentially through the
// dispatcher, and advances the commit position.
//
// Commit policy: the offset of a message is marked and committed immediately
// after that message has been fully and successfully applied, and never
// otherwise. After the first failure within a claim, later messages are still
// applied but no longer committed, so the group's position cannot advance
// past the failed message; a restart or rebalance redelivers everything from
// there. Handlers are idempotent, which makes that re-application safe. This
// redelivery is the only retry mechanism for inbound events — there is no
// bounded retry count and no dead-letter routing.
package consumer

import (
	"context"
	"errors"
	"time"

	"github.com/IBM/sarama"

	errspkg "github.com/jobsphere/ms-job/internal/errors"
	"github.com/jobsphere/ms-job/internal/event"
	"github.com/jobsphere/ms-job/internal/logging"
	"github.com/jobsphere/ms-job/internal/metrics"
)

// Handler applies one inbound envelope. Implemented by dispatch.Dispatcher.
type Handler interface {
	Dispatch(ctx context.Context, env *event.Envelope) error
}

// Consumer runs the poll loop against a sarama consumer group.
type Consumer struct {
	group   sarama.ConsumerGroup
	topic   string
	backoff time.Duration
	handler Handler
	log     logging.ServiceLogger
	metrics *metrics.Pipeline
}

func New(group sarama.ConsumerGroup, topic string, backoff time.Duration, handler Handler, log logging.ServiceLogger, m *metrics.Pipeline) (*Consumer, error) {
	if handler == nil {
		return nil, errspkg.ErrHandlerRequired
	}
	if topic == "" {
		return nil, errspkg.ErrTopicRequired
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Consumer{
		group:   group,
		topic:   topic,
		backoff: backoff,
		handler: handler,
		log:     log,
		metrics: m,
	}, nil
}

// Run blocks until ctx is cancelled or the broker connection fails beyond
// recovery. Transport-level poll errors are retried after a fixed backoff;
// unrecoverable failures are returned as a FatalConsumerError with the group
// already released.
func (c *Consumer) Run(ctx context.Context) error {
	go c.drainGroupErrors(ctx)

	handler := &groupHandler{
		handler: c.handler,
		log:     c.log,
		metrics: c.metrics,
	}

	c.log.Info("Starting job events consumer", logging.LogFields{"topic": c.topic})

	for {
		err := c.group.Consume(ctx, []string{c.topic}, handler)
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, sarama.ErrClosedConsumerGroup) {
			return nil
		}
		if err != nil {
			if isFatal(err) {
				c.log.Error("Unrecoverable consumer failure, releasing connection", err, nil)
				if closeErr := c.group.Close(); closeErr != nil {
					c.log.Error("Closing consumer group", closeErr, nil)
				}
				return errspkg.NewFatalConsumerError(err)
			}
			c.log.Error("Consume pass failed, backing off", err, logging.LogFields{
				"backoff": c.backoff.String(),
			})
			select {
			case <-time.After(c.backoff):
			case <-ctx.Done():
				return nil
			}
		}
		// A nil return means the group rebalanced; rejoin immediately.
	}
}

// Close releases the broker connection.
func (c *Consumer) Close() error {
	return c.group.Close()
}

func (c *Consumer) drainGroupErrors(ctx context.Context) {
	for {
		select {
		case err, ok := <-c.group.Errors():
			if !ok {
				return
			}
			c.log.Warn("Consumer group error", logging.LogFields{"error": err.Error()})
		case <-ctx.Done():
			return
		}
	}
}

// isFatal classifies broker failures that a backoff-and-retry cannot fix.
func isFatal(err error) bool {
	if errors.Is(err, sarama.ErrOutOfBrokers) {
		return true
	}
	var kerr sarama.KError
	if errors.As(err, &kerr) {
		switch kerr {
		case sarama.ErrSASLAuthenticationFailed,
			sarama.ErrTopicAuthorizationFailed,
			sarama.ErrGroupAuthorizationFailed,
			sarama.ErrClusterAuthorizationFailed:
			return true
		}
	}
	return false
}

// groupHandler implements sarama.ConsumerGroupHandler for one claim session.
type groupHandler struct {
	handler Handler
	log     logging.ServiceLogger
	metrics *metrics.Pipeline
}

func (h *groupHandler) Setup(session sarama.ConsumerGroupSession) error {
	h.log.Info("Joined consumer group", logging.LogFields{
		"member_id":  session.MemberID(),
		"generation": session.GenerationID(),
	})
	return nil
}

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim processes the claim's messages one at a time. No concurrent
// handler execution: per-partition delivery order is preserved, and no new
// message is handled until the previous one finished.
func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	// Set once a message in this claim has failed; from then on the commit
	// position must not move, or the broker would consider the failed
	// message handled.
	var failed bool

	for msg := range claim.Messages() {
		h.metrics.Consumed()

		if err := h.apply(session.Context(), msg); err != nil {
			h.log.Error("Message processing failed, leaving offset uncommitted", err, logging.LogFields{
				"topic":     msg.Topic,
				"partition": msg.Partition,
				"offset":    msg.Offset,
			})
			failed = true
			continue
		}

		if failed {
			h.log.Debug("Applied without commit, earlier message in claim failed", logging.LogFields{
				"offset": msg.Offset,
			})
			continue
		}

		session.MarkMessage(msg, "")
		session.Commit()
	}
	return nil
}

func (h *groupHandler) apply(ctx context.Context, msg *sarama.ConsumerMessage) error {
	env, err := event.DecodeEnvelope(msg.Value)
	if err != nil {
		return errspkg.NewProcessingError("malformed", "", err)
	}
	return h.handler.Dispatch(ctx, env)
}
