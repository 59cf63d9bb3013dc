package pubsub

import (
	"context"
	"errors"

	pubsub "cloud.google.com/go/pubsub/v2"
)

// Publisher is the narrow publish surface consumers depend on, so tests can
// swap the GCP handle for a fake.
type Publisher interface {
	Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error)
}

// NewTopicPublisher adapts a v2 publisher handle. A nil handle yields nil.
func NewTopicPublisher(p *pubsub.Publisher) Publisher {
	if p == nil {
		return nil
	}
	return &topicPublisher{Publisher: p}
}

type topicPublisher struct {
	*pubsub.Publisher
}

// Publish sends one message and waits for the server-assigned ID.
func (p *topicPublisher) Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error) {
	if p == nil || p.Publisher == nil {
		return "", errors.New("publisher is nil")
	}
	result := p.Publisher.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
	if result == nil {
		return "", errors.New("publish result is nil")
	}
	return result.Get(ctx)
}
