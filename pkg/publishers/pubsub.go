package publishers

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/goccy/go-json"
	"google.golang.org/api/option"
)

// pubsubPublisher publishes receipt events to a Pub/Sub topic. With ordering
// enabled, events of one merchant share an ordering key.
type pubsubPublisher struct {
	id      string
	ordered bool
	client  *pubsub.Client
	topic   *pubsub.Topic
	log     Logger
}

func newPubSubPublisher(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.PubSub == nil {
		return nil, fmt.Errorf("publisher %q missing pubsub configuration", cfg.ID)
	}

	var opts []option.ClientOption
	if cfg.PubSub.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.PubSub.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("pubsub client for project %s: %w", cfg.PubSub.ProjectID, err)
	}
	topic := client.Topic(cfg.PubSub.Topic)
	topic.EnableMessageOrdering = cfg.PubSub.Ordered

	return &pubsubPublisher{
		id:      cfg.ID,
		ordered: cfg.PubSub.Ordered,
		client:  client,
		topic:   topic,
		log:     ensureLogger(log),
	}, nil
}

func (p *pubsubPublisher) ID() string   { return p.id }
func (p *pubsubPublisher) Type() string { return TypePubSub }

// Publish waits for the server to acknowledge the message.
func (p *pubsubPublisher) Publish(ctx context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	msg := &pubsub.Message{Data: data, Attributes: evt.attributes()}
	if p.ordered {
		msg.OrderingKey = evt.messageGroup()
	}

	serverID, err := p.topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		if p.ordered {
			// a failed ordered publish pauses the key until resumed
			p.topic.ResumePublish(msg.OrderingKey)
		}
		p.log.ErrorObj("pubsub publish failed", "publisher_pubsub_error", map[string]any{
			"publisher_id": p.id,
			"receipt_id":   evt.ReceiptID,
			"error":        err.Error(),
		})
		return fmt.Errorf("pubsub publish: %w", err)
	}
	p.log.DebugObj("pubsub delivered receipt", "publisher_pubsub_delivery", map[string]any{
		"publisher_id": p.id,
		"receipt_id":   evt.ReceiptID,
		"message_id":   serverID,
	})
	return nil
}

// Close flushes pending messages and closes the client.
func (p *pubsubPublisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
