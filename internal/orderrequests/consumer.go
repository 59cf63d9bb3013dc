package orderrequests

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/primefit/storefront/internal/checkout"
	pkgerrors "github.com/primefit/storefront/pkg/errors"
	"github.com/primefit/storefront/pkg/logger"
)

const (
	consumerName = "order-requests"
	ingestJob    = "order_request_ingest"
)

type recorder interface {
	Record(ctx context.Context, event checkout.RequestedEvent) (bool, error)
}

// Deduper claims event IDs per consumer. pkg/idempotency.Guard satisfies it.
type Deduper interface {
	Claim(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Release(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// JobObserver records ingest outcomes. pkg/metrics.JobMetrics satisfies it.
type JobObserver interface {
	ObserveDuration(job string, d time.Duration)
	IncSuccess(job string)
	IncFailure(job string)
}

// Consumer turns checkout.requested messages into stored order requests.
type Consumer struct {
	records      recorder
	subscription *pubsub.Subscriber
	dedupe       Deduper
	jobs         JobObserver
	logg         *logger.Logger
}

// ConsumerOptions carries the optional collaborators. Without a Deduper the
// primary key on order_requests is the only duplicate guard.
type ConsumerOptions struct {
	Dedupe Deduper
	Jobs   JobObserver
}

// NewConsumer builds the consumer.
func NewConsumer(records recorder, subscription *pubsub.Subscriber, logg *logger.Logger, opts ConsumerOptions) (*Consumer, error) {
	if records == nil {
		return nil, fmt.Errorf("order request recorder required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("checkout subscription required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		records:      records,
		subscription: subscription,
		dedupe:       opts.Dedupe,
		jobs:         opts.Jobs,
		logg:         logg,
	}, nil
}

// Run receives messages until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		started := time.Now()
		result := c.process(ctx, msg)
		c.observe(result, time.Since(started))
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack    bool
	nack   bool
	stored bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != checkout.EventCheckoutRequested {
		c.logg.Info(logCtx, "skipping non-checkout event")
		return processResult{ack: true}
	}

	var event checkout.RequestedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		c.logg.Error(logCtx, "failed to decode checkout event", err)
		return processResult{ack: true}
	}
	if event.EventID == uuid.Nil {
		c.logg.Warn(logCtx, "checkout event without event id")
		return processResult{ack: true}
	}
	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"event_id":    event.EventID.String(),
		"session_id":  event.SessionID,
		"total_count": event.TotalCount,
	})

	if c.dedupe != nil {
		claimed, err := c.dedupe.Claim(ctx, consumerName, event.EventID)
		if err != nil {
			c.logg.Error(logCtx, "idempotency check failed", err)
			return processResult{nack: true}
		}
		if !claimed {
			c.logg.Info(logCtx, "event already processed")
			return processResult{ack: true}
		}
	}

	inserted, err := c.records.Record(ctx, event)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			c.logg.Warn(c.logg.WithFields(logCtx, pkgerrors.Dump(err).Fields()), "dropping invalid checkout event")
			return processResult{ack: true}
		}
		c.logg.Error(logCtx, "failed to record order request", err)
		if c.dedupe != nil {
			if relErr := c.dedupe.Release(ctx, consumerName, event.EventID); relErr != nil {
				c.logg.Error(logCtx, "failed to release idempotency claim", relErr)
			}
		}
		return processResult{nack: true}
	}
	if !inserted {
		c.logg.Info(logCtx, "order request already stored")
		return processResult{ack: true}
	}

	c.logg.Info(logCtx, "order request stored")
	return processResult{ack: true, stored: true}
}

func (c *Consumer) observe(result processResult, took time.Duration) {
	if c.jobs == nil {
		return
	}
	c.jobs.ObserveDuration(ingestJob, took)
	if result.nack {
		c.jobs.IncFailure(ingestJob)
		return
	}
	c.jobs.IncSuccess(ingestJob)
}
